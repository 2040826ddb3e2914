package ownship

import (
	"log/slog"
	"math"
	"sync"
	"time"
)

// anticipation is the proportional gain from heading error to rudder order.
const anticipation = 1.0

// autopilotCommander receives the orders computed by the autopilot.
type autopilotCommander interface {
	autopilotRudder(angle float64)
	autopilotSpeed(knots float64)
}

// AutopilotState is a read-only view of the autopilot.
type AutopilotState struct {
	Engaged         bool            `json:"engaged"`
	Mode            Mode            `json:"mode"`
	CommandedCourse float64         `json:"commanded_course"`
	CommandedSpeed  float64         `json:"commanded_speed"`
	ManualCourse    float64         `json:"manual_course"`
	ManualSpeed     float64         `json:"manual_speed"`
	Pattern         PatternSettings `json:"pattern"`
	Leg             int             `json:"leg"`
	LegStart        time.Time       `json:"leg_start"`
	LegDuration     time.Duration   `json:"leg_duration"`
}

// Autopilot steers the ship toward a commanded course and speed. It is a
// Listener: every OwnshipUpdate runs one iteration of the control loop.
type Autopilot struct {
	mu     sync.Mutex
	cmd    autopilotCommander
	limit  func() float64   // rudder limit in degrees
	now    func() time.Time // simulated time
	logger *slog.Logger

	engaged bool
	mode    Mode

	commandedCourse float64
	commandedSpeed  float64

	manualCourse float64
	manualSpeed  float64

	pattern  PatternSettings
	progress patternProgress
}

func newAutopilot(cmd autopilotCommander, limit func() float64, now func() time.Time, logger *slog.Logger) *Autopilot {
	a := &Autopilot{
		cmd:     cmd,
		limit:   limit,
		now:     now,
		logger:  logger,
		mode:    ManualMode,
		pattern: DefaultPatternSettings(),
	}
	a.progress.reset(now(), a.pattern.LegTime)
	return a
}

// OnOwnshipUpdate runs the control loop for one snapshot.
func (a *Autopilot) OnOwnshipUpdate(u OwnshipUpdate) {
	a.mu.Lock()
	if !a.engaged || a.mode == RouteMode {
		a.mu.Unlock()
		return
	}

	if a.mode == PatternMode && a.progress.expired(u.Time) {
		change := a.progress.nextLeg(u.Time, a.pattern)
		a.commandedCourse = NormalizeHeading(a.commandedCourse + change)
		a.logger.Debug("pattern leg started",
			slog.String("pattern", a.pattern.Type.String()),
			slog.Int("leg", a.progress.legs),
			slog.Float64("course", a.commandedCourse),
			slog.Duration("duration", a.progress.legDuration))
	}

	rudder := a.rudderOrder(u.HeadingActual)
	speed := a.commandedSpeed
	a.mu.Unlock()

	a.cmd.autopilotRudder(rudder)
	if u.SpeedActual != speed {
		a.cmd.autopilotSpeed(speed)
	}
}

// rudderOrder turns the shorter way toward the commanded course with a rudder
// proportional to the raw heading error. Across north the raw error is
// large, so the order saturates at the rudder limit.
func (a *Autopilot) rudderOrder(heading float64) float64 {
	// both operands shifted by 360 so the difference is taken between
	// non-negative angles
	diff := (a.commandedCourse + 360) - (heading + 360)
	mag := math.Min(a.limit(), anticipation*math.Abs(diff))
	if math.Sin(diff*degToRad) > 0 {
		return mag
	}
	return -mag
}

// Engage hands steering to the autopilot.
func (a *Autopilot) Engage() {
	a.setEngaged(true)
}

// Disengage returns steering to the user.
func (a *Autopilot) Disengage() {
	a.setEngaged(false)
}

func (a *Autopilot) setEngaged(engaged bool) {
	a.mu.Lock()
	changed := a.engaged != engaged
	a.engaged = engaged
	a.progress.legStart = a.now()
	a.mu.Unlock()

	if changed {
		a.logger.Info("autopilot engagement changed", slog.Bool("engaged", engaged))
	}
}

// Engaged reports whether the autopilot is steering.
func (a *Autopilot) Engaged() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.engaged
}

// Mode returns the active autopilot mode.
func (a *Autopilot) Mode() Mode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.mode
}

// SetMode switches mode and immediately loads that mode's targets. Unknown
// modes are ignored.
func (a *Autopilot) SetMode(m Mode) {
	if !m.valid() {
		return
	}
	a.mu.Lock()
	a.mode = m
	switch m {
	case ManualMode:
		a.commandedCourse = a.manualCourse
		a.commandedSpeed = a.manualSpeed
	case PatternMode:
		a.startPattern()
	}
	a.mu.Unlock()

	a.logger.Info("autopilot mode changed", slog.String("mode", m.String()))
}

func (a *Autopilot) startPattern() {
	a.commandedCourse = a.pattern.InitialCourse
	a.commandedSpeed = a.pattern.InitialSpeed
	a.progress.reset(a.now(), a.pattern.LegTime)
}

// SetManualCourse sets the manual-mode course. Values outside [0,360)
// become 0.
func (a *Autopilot) SetManualCourse(course float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.manualCourse = wrapToZero(course, 360)
	if a.mode == ManualMode {
		a.commandedCourse = a.manualCourse
	}
}

// SetManualSpeed sets the manual-mode speed, clamped to [-10,50].
func (a *Autopilot) SetManualSpeed(knots float64) {
	if !finite(knots) {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.manualSpeed = clamp(knots, SpeedMin, SpeedMax)
	if a.mode == ManualMode {
		a.commandedSpeed = a.manualSpeed
	}
}

// SetPattern replaces the pattern settings. Invalid fields keep their
// previous values, except the course which becomes 0 when out of range.
// A running pattern restarts from its first leg.
func (a *Autopilot) SetPattern(s PatternSettings) {
	a.mu.Lock()
	defer a.mu.Unlock()

	p := a.pattern
	if s.Type.valid() {
		p.Type = s.Type
	}
	p.InitialCourse = wrapToZero(s.InitialCourse, 360)
	if finite(s.InitialSpeed) {
		p.InitialSpeed = clamp(s.InitialSpeed, SpeedMin, SpeedMax)
	}
	if s.LegTime > 0 {
		p.LegTime = s.LegTime
	}
	if s.Turn == TurnLeft || s.Turn == TurnRight {
		p.Turn = s.Turn
	}
	a.pattern = p

	if a.mode == PatternMode {
		a.startPattern()
	}
}

// State returns a snapshot of the autopilot.
func (a *Autopilot) State() AutopilotState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return AutopilotState{
		Engaged:         a.engaged,
		Mode:            a.mode,
		CommandedCourse: a.commandedCourse,
		CommandedSpeed:  a.commandedSpeed,
		ManualCourse:    a.manualCourse,
		ManualSpeed:     a.manualSpeed,
		Pattern:         a.pattern,
		Leg:             a.progress.legs,
		LegStart:        a.progress.legStart,
		LegDuration:     a.progress.legDuration,
	}
}
