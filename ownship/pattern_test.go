package ownship

import (
	"errors"
	"testing"
	"time"
)

type legChange struct {
	at     time.Duration
	course float64
}

// runPattern steps a pattern in 100ms increments and records every leg change.
func runPattern(s PatternSettings, legs int) []legChange {
	var p patternProgress
	p.reset(testEpoch, s.LegTime)
	course := s.InitialCourse

	var changes []legChange
	for now := testEpoch; len(changes) < legs; now = now.Add(100 * time.Millisecond) {
		if p.expired(now) {
			course = NormalizeHeading(course + p.nextLeg(now, s))
			changes = append(changes, legChange{at: now.Sub(testEpoch), course: course})
		}
	}
	return changes
}

func TestPatternSequences(t *testing.T) {
	sec := time.Second
	tests := []struct {
		name string
		s    PatternSettings
		want []legChange
	}{
		{
			"racetrack",
			PatternSettings{Type: Racetrack, InitialCourse: 30, LegTime: sec, Turn: TurnRight},
			[]legChange{{1 * sec, 210}, {2 * sec, 30}, {3 * sec, 210}},
		},
		{
			"racetrack_left_same",
			PatternSettings{Type: Racetrack, InitialCourse: 30, LegTime: sec, Turn: TurnLeft},
			[]legChange{{1 * sec, 210}, {2 * sec, 30}},
		},
		{
			"triangle_right",
			PatternSettings{Type: Triangle, LegTime: sec, Turn: TurnRight},
			[]legChange{{1 * sec, 120}, {2 * sec, 240}, {3 * sec, 0}},
		},
		{
			"triangle_left",
			PatternSettings{Type: Triangle, LegTime: sec, Turn: TurnLeft},
			[]legChange{{1 * sec, 240}, {2 * sec, 120}, {3 * sec, 0}},
		},
		{
			"square_right",
			PatternSettings{Type: Square, LegTime: 2 * sec, Turn: TurnRight},
			[]legChange{{2 * sec, 90}, {4 * sec, 180}, {6 * sec, 270}, {8 * sec, 0}},
		},
		{
			"square_left",
			PatternSettings{Type: Square, LegTime: sec, Turn: TurnLeft},
			[]legChange{{1 * sec, 270}, {2 * sec, 180}},
		},
		{
			"sector_right",
			PatternSettings{Type: Sector, LegTime: sec, Turn: TurnRight},
			[]legChange{{1 * sec, 120}, {2 * sec, 240}, {4 * sec, 0}, {5 * sec, 120}, {7 * sec, 240}},
		},
		{
			"expanding_square_right",
			PatternSettings{Type: ExpandingSquare, LegTime: sec, Turn: TurnRight},
			[]legChange{{1 * sec, 90}, {2 * sec, 180}, {4 * sec, 270}, {6 * sec, 0}, {9 * sec, 90}, {12 * sec, 180}},
		},
		{
			"expanding_square_left",
			PatternSettings{Type: ExpandingSquare, InitialCourse: 45, LegTime: sec, Turn: TurnLeft},
			[]legChange{{1 * sec, 315}, {2 * sec, 225}, {4 * sec, 135}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := runPattern(tt.s, len(tt.want))
			for i, w := range tt.want {
				if got[i].at != w.at {
					t.Errorf("leg %d: expected change at %v, got %v", i+1, w.at, got[i].at)
				}
				if !almostEqual(got[i].course, w.course, 1e-9) {
					t.Errorf("leg %d: expected course %f, got %f", i+1, w.course, got[i].course)
				}
			}
		})
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in   string
		want Mode
		err  bool
	}{
		{"MANUAL", ManualMode, false},
		{"pattern", PatternMode, false},
		{"Route", RouteMode, false},
		{"orbit", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		if tt.err {
			if !errors.Is(err, ErrUnknownMode) {
				t.Errorf("ParseMode(%q): expected ErrUnknownMode, got %v", tt.in, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParseMode(%q) = %v, %v; want %v", tt.in, got, err, tt.want)
		}
	}
}

func TestParsePatternType(t *testing.T) {
	tests := []struct {
		in   string
		want PatternType
	}{
		{"racetrack", Racetrack},
		{"TRIANGLE", Triangle},
		{"Square", Square},
		{"sector", Sector},
		{"expanding-square", ExpandingSquare},
		{"expanding square", ExpandingSquare},
		{"EXPANDING_SQUARE", ExpandingSquare},
	}
	for _, tt := range tests {
		got, err := ParsePatternType(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("ParsePatternType(%q) = %v, %v; want %v", tt.in, got, err, tt.want)
		}
	}

	if _, err := ParsePatternType("figure-eight"); !errors.Is(err, ErrUnknownPatternType) {
		t.Errorf("Expected ErrUnknownPatternType, got %v", err)
	}
}

func TestParseTurnDirection(t *testing.T) {
	for in, want := range map[string]TurnDirection{
		"right": TurnRight, "Starboard": TurnRight, "LEFT": TurnLeft, "port": TurnLeft,
	} {
		got, err := ParseTurnDirection(in)
		if err != nil || got != want {
			t.Errorf("ParseTurnDirection(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseTurnDirection("up"); !errors.Is(err, ErrUnknownTurnDirection) {
		t.Errorf("Expected ErrUnknownTurnDirection, got %v", err)
	}
}

func TestPatternTextRoundTrip(t *testing.T) {
	var m Mode
	if err := m.UnmarshalText([]byte("route")); err != nil || m != RouteMode {
		t.Errorf("Expected ROUTE, got %v (%v)", m, err)
	}
	b, _ := ExpandingSquare.MarshalText()
	if string(b) != "EXPANDING_SQUARE" {
		t.Errorf("Expected EXPANDING_SQUARE, got %s", b)
	}
	var td TurnDirection
	if err := td.UnmarshalText([]byte("port")); err != nil || td != TurnLeft {
		t.Errorf("Expected LEFT, got %v (%v)", td, err)
	}
}
