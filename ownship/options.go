package ownship

import "log/slog"

// Option configures a Simulator or Controller.
type Option func(*options)

type options struct {
	profile   ShipProfile
	clock     Clock
	scheduler Scheduler
	logger    *slog.Logger
}

func buildOptions(opts []Option) options {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.profile == nil {
		o.profile = PatrolBoat()
	}
	if o.clock == nil {
		o.clock = SystemClock{}
	}
	if o.scheduler == nil {
		o.scheduler = TickerScheduler{}
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return o
}

// WithProfile selects the ship profile. A nil profile keeps the default
// PatrolBoat.
func WithProfile(p ShipProfile) Option {
	return func(o *options) { o.profile = p }
}

// WithClock replaces the wall clock, mostly for tests.
func WithClock(c Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithScheduler replaces the tick scheduler.
func WithScheduler(s Scheduler) Option {
	return func(o *options) { o.scheduler = s }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithManualTime wires a ManualScheduler and its ManualClock together.
func WithManualTime(s *ManualScheduler) Option {
	return func(o *options) {
		o.scheduler = s
		if s.Clock != nil {
			o.clock = s.Clock
		}
	}
}
