package netmsg

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bucknalla/go-ownship-simulator/ownship"
)

var testEpoch = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestController(t *testing.T) (*ownship.Controller, *ownship.ManualScheduler) {
	t.Helper()
	sched := ownship.NewManualScheduler(ownship.NewManualClock(testEpoch))
	c, err := ownship.NewController(ownship.DefaultConfig(),
		ownship.WithManualTime(sched),
		ownship.WithLogger(slog.New(slog.DiscardHandler)))
	require.NoError(t, err)
	require.NoError(t, c.Open())
	t.Cleanup(func() { c.Close() })
	return c, sched
}

func TestApply(t *testing.T) {
	at := time.Date(2031, 3, 4, 5, 6, 7, 0, time.UTC)

	tests := []struct {
		name  string
		cmd   Command
		check func(t *testing.T, c *ownship.Controller)
	}{
		{"rudder", Command{Type: CmdRudder, Value: -15}, func(t *testing.T, c *ownship.Controller) {
			assert.Equal(t, -15.0, c.Snapshot().RudderHelm)
		}},
		{"throttle", Command{Type: CmdThrottle, Value: 12}, func(t *testing.T, c *ownship.Controller) {
			assert.Equal(t, 12.0, c.Snapshot().SpeedThrottle)
		}},
		{"heading_speed", Command{Type: CmdHeadingSpeed, HeadingSpeed: &ownship.HeadingSpeed{Heading: 45, Speed: 8}}, func(t *testing.T, c *ownship.Controller) {
			assert.Equal(t, 45.0, c.Snapshot().HeadingActual)
			assert.Equal(t, 8.0, c.Snapshot().SpeedThrottle)
		}},
		{"set_drift", Command{Type: CmdSetDrift, SetDrift: &ownship.SetDrift{Set: 180, Drift: 1.5}}, func(t *testing.T, c *ownship.Controller) {
			assert.Equal(t, 180.0, c.Snapshot().Set)
			assert.Equal(t, 1.5, c.Snapshot().Drift)
		}},
		{"position", Command{Type: CmdPosition, Position: &ownship.Position{Latitude: 12, Longitude: 34}}, func(t *testing.T, c *ownship.Controller) {
			assert.Equal(t, 12.0, c.Snapshot().Latitude)
			assert.Equal(t, 34.0, c.Snapshot().Longitude)
		}},
		{"time", Command{Type: CmdTime, Time: at}, func(t *testing.T, c *ownship.Controller) {
			assert.True(t, c.Snapshot().Time.Equal(at))
		}},
		{"start", Command{Type: CmdStart}, func(t *testing.T, c *ownship.Controller) {
			assert.Equal(t, ownship.Playing, c.Status())
		}},
		{"stop", Command{Type: CmdStop}, func(t *testing.T, c *ownship.Controller) {
			assert.Equal(t, ownship.Stopped, c.Status())
		}},
		{"engage", Command{Type: CmdAutopilotEngage}, func(t *testing.T, c *ownship.Controller) {
			assert.True(t, c.Autopilot().Engaged())
		}},
		{"mode", Command{Type: CmdAutopilotMode, Mode: "pattern"}, func(t *testing.T, c *ownship.Controller) {
			assert.Equal(t, ownship.PatternMode, c.Autopilot().Mode())
		}},
		{"pattern", Command{Type: CmdAutopilotPattern, Pattern: &ownship.PatternSettings{Type: ownship.Sector, LegTime: time.Minute, Turn: ownship.TurnLeft}}, func(t *testing.T, c *ownship.Controller) {
			assert.Equal(t, ownship.Sector, c.Autopilot().State().Pattern.Type)
		}},
		{"manual_course", Command{Type: CmdManualCourse, Value: 123}, func(t *testing.T, c *ownship.Controller) {
			assert.Equal(t, 123.0, c.Autopilot().State().ManualCourse)
		}},
		{"manual_speed", Command{Type: CmdManualSpeed, Value: 7}, func(t *testing.T, c *ownship.Controller) {
			assert.Equal(t, 7.0, c.Autopilot().State().ManualSpeed)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestController(t)
			require.NoError(t, Apply(c, tt.cmd))
			tt.check(t, c)
		})
	}
}

func TestApplySequence(t *testing.T) {
	c, _ := newTestController(t)

	require.NoError(t, Apply(c, Command{Type: CmdStart}))
	require.NoError(t, Apply(c, Command{Type: CmdPause}))
	assert.Equal(t, ownship.Paused, c.Status())

	require.NoError(t, Apply(c, Command{Type: CmdAutopilotEngage}))
	require.NoError(t, Apply(c, Command{Type: CmdAutopilotDisengage}))
	assert.False(t, c.Autopilot().Engaged())

	require.NoError(t, Apply(c, Command{Type: CmdPosition, Position: &ownship.Position{Latitude: 5, Longitude: 5}}))
	require.NoError(t, Apply(c, Command{Type: CmdReset}))
	assert.Equal(t, ownship.DefaultConfig().Latitude, c.Snapshot().Latitude)
}

func TestApplyErrors(t *testing.T) {
	c, _ := newTestController(t)

	assert.ErrorIs(t, Apply(c, Command{Type: "warp"}), ErrUnknownCommand)
	assert.ErrorIs(t, Apply(c, Command{Type: CmdHeadingSpeed}), ErrMissingPayload)
	assert.ErrorIs(t, Apply(c, Command{Type: CmdSetDrift}), ErrMissingPayload)
	assert.ErrorIs(t, Apply(c, Command{Type: CmdPosition}), ErrMissingPayload)
	assert.ErrorIs(t, Apply(c, Command{Type: CmdTime}), ErrMissingPayload)
	assert.ErrorIs(t, Apply(c, Command{Type: CmdAutopilotPattern}), ErrMissingPayload)
	assert.ErrorIs(t, Apply(c, Command{Type: CmdAutopilotMode, Mode: "orbit"}), ownship.ErrUnknownMode)
}
