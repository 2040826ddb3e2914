package track

import (
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bucknalla/go-ownship-simulator/ownship"
)

func TestRecorderInterval(t *testing.T) {
	file := filepath.Join(t.TempDir(), "rec.gpx")
	rec, err := NewRecorder(file, time.Second, slog.New(slog.DiscardHandler))
	require.NoError(t, err)

	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	u := ownship.OwnshipUpdate{Status: ownship.Playing, Latitude: 1, Longitude: 2}
	for i := 0; i < 35; i++ {
		u.Time = base.Add(time.Duration(i) * 100 * time.Millisecond)
		rec.OnOwnshipUpdate(u)
	}
	// 0s, 1s, 2s, 3s
	assert.Equal(t, 4, rec.Points())

	u.Status = ownship.Paused
	u.Time = base.Add(10 * time.Second)
	rec.OnOwnshipUpdate(u)
	assert.Equal(t, 4, rec.Points(), "paused updates are not recorded")

	require.NoError(t, rec.Close())
	require.NoError(t, rec.Close())

	rec.OnOwnshipUpdate(ownship.OwnshipUpdate{Status: ownship.Playing, Time: base.Add(time.Hour)})
	assert.Equal(t, 0, rec.Points())

	points, err := ReadGPXFile(file)
	require.NoError(t, err)
	assert.Len(t, points, 4)
}

func TestRecorderFlushesEveryTenPoints(t *testing.T) {
	file := filepath.Join(t.TempDir(), "flush.gpx")
	rec, err := NewRecorder(file, 0, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	defer rec.Close()

	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 12; i++ {
		rec.OnOwnshipUpdate(ownship.OwnshipUpdate{Status: ownship.Playing, Time: base.Add(time.Duration(i) * time.Second)})
	}

	points, err := ReadGPXFile(file)
	require.NoError(t, err)
	assert.Len(t, points, 10, "only the first flush is on disk before close")
}

func TestResumeFromRecordedTrack(t *testing.T) {
	file := filepath.Join(t.TempDir(), "resume.gpx")
	rec, err := NewRecorder(file, 0, slog.New(slog.DiscardHandler))
	require.NoError(t, err)

	at := time.Date(2024, 6, 1, 12, 30, 0, 0, time.UTC)
	rec.OnOwnshipUpdate(ownship.OwnshipUpdate{
		Time: at, Status: ownship.Playing,
		Latitude: 50.5, Longitude: -1.25,
		HeadingActual: 270, SpeedActual: 14, Depth: 33,
	})
	require.NoError(t, rec.Close())

	last, err := LastPoint(file)
	require.NoError(t, err)

	config := ResumeConfig(ownship.DefaultConfig(), last)
	assert.Equal(t, 50.5, config.Latitude)
	assert.Equal(t, -1.25, config.Longitude)
	assert.Equal(t, 270.0, config.Heading)
	assert.Equal(t, 14.0, config.Speed)
	assert.Equal(t, 33.0, config.Depth)
	assert.True(t, config.StartTime.Equal(at))
	assert.NoError(t, config.Validate())
}
