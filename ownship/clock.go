package ownship

import (
	"sync"
	"time"
)

// Clock supplies wall-clock time to the simulator.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the system time.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Scheduler runs a task at a fixed period until the returned cancel func is
// called. Implementations must never run the task concurrently with itself.
type Scheduler interface {
	ScheduleFixedPeriod(interval time.Duration, task func()) (cancel func())
}

// TickerScheduler runs tasks from a single goroutine driven by a time.Ticker.
type TickerScheduler struct{}

func (TickerScheduler) ScheduleFixedPeriod(interval time.Duration, task func()) func() {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})
	exited := make(chan struct{})

	go func() {
		defer close(exited)
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				task()
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			ticker.Stop()
			close(done)
			<-exited
		})
	}
}

// ManualClock is a Clock that only moves when told to.
type ManualClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewManualClock returns a ManualClock reading start.
func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{now: start}
}

func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// ManualScheduler holds the scheduled task and runs it on demand. Each Tick
// advances the associated ManualClock by the scheduled interval first, which
// makes simulator runs fully deterministic.
type ManualScheduler struct {
	mu       sync.Mutex
	Clock    *ManualClock
	interval time.Duration
	task     func()
}

// NewManualScheduler returns a scheduler that advances clock on every tick.
func NewManualScheduler(clock *ManualClock) *ManualScheduler {
	return &ManualScheduler{Clock: clock}
}

func (s *ManualScheduler) ScheduleFixedPeriod(interval time.Duration, task func()) func() {
	s.mu.Lock()
	s.interval = interval
	s.task = task
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		s.task = nil
		s.mu.Unlock()
	}
}

// Scheduled reports whether a task is currently scheduled.
func (s *ManualScheduler) Scheduled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.task != nil
}

// Tick runs the scheduled task n times.
func (s *ManualScheduler) Tick(n int) {
	for i := 0; i < n; i++ {
		s.mu.Lock()
		task, interval := s.task, s.interval
		s.mu.Unlock()
		if task == nil {
			return
		}
		if s.Clock != nil {
			s.Clock.Advance(interval)
		}
		task()
	}
}

// Run ticks for the whole duration d.
func (s *ManualScheduler) Run(d time.Duration) {
	s.mu.Lock()
	interval := s.interval
	s.mu.Unlock()
	if interval <= 0 {
		return
	}
	s.Tick(int(d / interval))
}
