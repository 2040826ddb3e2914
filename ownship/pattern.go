package ownship

import (
	"fmt"
	"strings"
	"time"
)

// Mode selects where the autopilot takes its commanded course and speed from.
type Mode int

const (
	ManualMode Mode = iota
	PatternMode
	// RouteMode is accepted but issues no commands.
	RouteMode
)

var modeNames = [...]string{"MANUAL", "PATTERN", "ROUTE"}

func (m Mode) String() string {
	if m >= 0 && int(m) < len(modeNames) {
		return modeNames[m]
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

func (m Mode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

func (m *Mode) UnmarshalText(b []byte) error {
	v, err := ParseMode(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

func (m Mode) valid() bool { return m >= ManualMode && m <= RouteMode }

// ParseMode converts a mode name such as "pattern" to a Mode.
func ParseMode(s string) (Mode, error) {
	for i, n := range modeNames {
		if strings.EqualFold(s, n) {
			return Mode(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// PatternType is a geometric search or training pattern.
type PatternType int

const (
	Racetrack PatternType = iota
	Triangle
	Square
	Sector
	ExpandingSquare
)

var patternNames = [...]string{"RACETRACK", "TRIANGLE", "SQUARE", "SECTOR", "EXPANDING_SQUARE"}

func (p PatternType) String() string {
	if p >= 0 && int(p) < len(patternNames) {
		return patternNames[p]
	}
	return fmt.Sprintf("PatternType(%d)", int(p))
}

func (p PatternType) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

func (p *PatternType) UnmarshalText(b []byte) error {
	v, err := ParsePatternType(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

func (p PatternType) valid() bool { return p >= Racetrack && p <= ExpandingSquare }

// ParsePatternType accepts names like "sector" or "expanding-square".
func ParsePatternType(s string) (PatternType, error) {
	norm := strings.ReplaceAll(strings.ReplaceAll(s, "-", "_"), " ", "_")
	for i, n := range patternNames {
		if strings.EqualFold(norm, n) {
			return PatternType(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownPatternType, s)
}

// TurnDirection is the side to which pattern turns are made.
type TurnDirection int

const (
	TurnRight TurnDirection = iota
	TurnLeft
)

func (t TurnDirection) String() string {
	if t == TurnLeft {
		return "LEFT"
	}
	return "RIGHT"
}

func (t TurnDirection) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

func (t *TurnDirection) UnmarshalText(b []byte) error {
	v, err := ParseTurnDirection(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// ParseTurnDirection accepts "left"/"port" and "right"/"starboard".
func ParseTurnDirection(s string) (TurnDirection, error) {
	switch strings.ToLower(s) {
	case "right", "starboard":
		return TurnRight, nil
	case "left", "port":
		return TurnLeft, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownTurnDirection, s)
}

func (t TurnDirection) sign() float64 {
	if t == TurnLeft {
		return -1
	}
	return 1
}

// PatternSettings describes a repeating pattern flown by the autopilot.
type PatternSettings struct {
	Type          PatternType   `json:"type"`
	InitialCourse float64       `json:"initial_course"`
	InitialSpeed  float64       `json:"initial_speed"`
	LegTime       time.Duration `json:"leg_time"`
	Turn          TurnDirection `json:"turn"`
}

// DefaultPatternSettings is a one-minute starboard racetrack at 10 knots.
func DefaultPatternSettings() PatternSettings {
	return PatternSettings{
		Type:         Racetrack,
		InitialSpeed: 10,
		LegTime:      time.Minute,
		Turn:         TurnRight,
	}
}

// patternProgress tracks where the autopilot is within the current pattern.
type patternProgress struct {
	legStart    time.Time
	legDuration time.Duration
	legs        int

	// sector: the next leg is an outer leg through the datum
	sectorOuterNext bool

	// expanding square: legs grow by one leg time every second turn
	squareIncrement int
	squareEvenSide  bool
}

func (p *patternProgress) reset(now time.Time, legTime time.Duration) {
	*p = patternProgress{
		legStart:        now,
		legDuration:     legTime,
		squareIncrement: 1,
	}
}

// expired reports whether the current leg is over at now.
func (p *patternProgress) expired(now time.Time) bool {
	return now.Sub(p.legStart) >= p.legDuration
}

// nextLeg starts a new leg at now and returns the course change in degrees.
func (p *patternProgress) nextLeg(now time.Time, s PatternSettings) float64 {
	turn := s.Turn.sign()
	p.legStart = now
	p.legDuration = s.LegTime
	p.legs++

	switch s.Type {
	case Triangle:
		return turn * 120
	case Square:
		return turn * 90
	case Sector:
		if p.sectorOuterNext {
			// the outer leg crosses the datum and runs twice as long
			p.legStart = now.Add(s.LegTime)
		}
		p.sectorOuterNext = !p.sectorOuterNext
		return turn * 120
	case ExpandingSquare:
		if p.squareEvenSide {
			p.squareIncrement++
		}
		p.squareEvenSide = !p.squareEvenSide
		p.legDuration = time.Duration(p.squareIncrement) * s.LegTime
		return turn * 90
	default:
		return 180
	}
}
