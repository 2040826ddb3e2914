package track

import (
	"log/slog"
	"sync"
	"time"

	"github.com/Bucknalla/go-ownship-simulator/ownship"
)

// flushEvery is the number of points between rewrites of the GPX file.
const flushEvery = 10

// Recorder is an ownship.Listener that records the track to a GPX file.
// While PLAYING it keeps at most one point per Interval of simulated time.
type Recorder struct {
	mu       sync.Mutex
	w        *GPXWriter
	interval time.Duration
	last     time.Time
	pending  int
	logger   *slog.Logger
}

// NewRecorder creates filename and records into it.
func NewRecorder(filename string, interval time.Duration, logger *slog.Logger) (*Recorder, error) {
	w, err := NewGPXWriter(filename, "Ownship Track")
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{w: w, interval: interval, logger: logger}, nil
}

func (r *Recorder) OnOwnshipUpdate(u ownship.OwnshipUpdate) {
	if u.Status != ownship.Playing {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.w == nil {
		return
	}
	if !r.last.IsZero() {
		if d := u.Time.Sub(r.last); d >= 0 && d < r.interval {
			return
		}
	}
	r.last = u.Time

	r.w.AddTrackPoint(PointFromUpdate(u))
	r.pending++
	if r.pending >= flushEvery {
		r.pending = 0
		if err := r.w.WriteToFile(); err != nil {
			r.logger.Warn("failed to write GPX file", slog.String("file", r.w.filename), slog.Any("error", err))
		}
	}
}

// Points returns the number of recorded points.
func (r *Recorder) Points() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.w == nil {
		return 0
	}
	return r.w.TrackPointCount()
}

// Close flushes the remaining points and closes the file. Later updates are
// ignored.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.w == nil {
		return nil
	}
	n := r.w.TrackPointCount()
	err := r.w.Close()
	r.w = nil
	r.logger.Info("GPX track closed", slog.Int("points", n))
	return err
}

// PointFromUpdate converts a snapshot to a track point.
func PointFromUpdate(u ownship.OwnshipUpdate) TrackPoint {
	return TrackPoint{
		Lat:  u.Latitude,
		Lon:  u.Longitude,
		Time: u.Time,
		Extensions: &Extensions{
			Heading: u.HeadingActual,
			Speed:   u.SpeedActual,
			Course:  u.HeadingOverGround,
			SOG:     u.SpeedOverGround,
			Depth:   u.Depth,
		},
	}
}

// ResumeConfig moves the initial position of c to p, and the heading and
// speed too when p carries them. The simulated clock resumes at p's time.
func ResumeConfig(c ownship.Config, p TrackPoint) ownship.Config {
	c.Latitude = p.Lat
	c.Longitude = p.Lon
	if !p.Time.IsZero() {
		c.StartTime = p.Time
	}
	if e := p.Extensions; e != nil {
		c.Heading = ownship.NormalizeHeading(e.Heading)
		c.Speed = e.Speed
		if e.Depth > 0 {
			c.Depth = e.Depth
		}
	}
	return c
}
