package ownship

import (
	"log/slog"
	"sync"
	"time"
)

// Controller owns one Simulator and one Autopilot, fans out every tick's
// OwnshipUpdate to registered listeners and arbitrates between user and
// autopilot input.
type Controller struct {
	sim       *Simulator
	autopilot *Autopilot
	scheduler Scheduler
	logger    *slog.Logger

	mu        sync.RWMutex
	listeners []listenerEntry
	nextID    uint64
	control   ControlStatus

	clockMu sync.Mutex
	cancel  func()

	// orderMu serialises helm and throttle orders from the user and the
	// autopilot so that a disengage and the user's order are atomic with
	// respect to an autopilot order.
	orderMu sync.Mutex
}

type listenerEntry struct {
	id uint64
	l  Listener
}

// NewController builds a controller around a new simulator. Without
// WithProfile the PatrolBoat profile is used.
func NewController(config Config, opts ...Option) (*Controller, error) {
	o := buildOptions(opts)

	sim, err := NewSimulator(config, opts...)
	if err != nil {
		return nil, err
	}

	c := &Controller{
		sim:       sim,
		scheduler: o.scheduler,
		logger:    o.logger,
	}
	c.autopilot = newAutopilot(c, sim.RudderLimit, sim.SimulatedTime, o.logger)
	c.AddListener(c.autopilot)
	sim.SetUpdateHandler(c.updateOwnship)

	o.logger.Info("ownship controller created",
		slog.String("profile", sim.Profile().Name()),
		slog.Duration("tick", config.TickInterval))
	return c, nil
}

// Simulator returns the underlying simulator.
func (c *Controller) Simulator() *Simulator { return c.sim }

// Autopilot returns the autopilot.
func (c *Controller) Autopilot() *Autopilot { return c.autopilot }

// Open schedules the simulation tick.
func (c *Controller) Open() error {
	c.clockMu.Lock()
	defer c.clockMu.Unlock()
	if c.cancel != nil {
		return ErrClockAlreadyRunning
	}
	c.cancel = c.scheduler.ScheduleFixedPeriod(c.sim.Config().TickInterval, c.sim.Step)
	return nil
}

// Close cancels the simulation tick. Listeners receive no further updates.
func (c *Controller) Close() error {
	c.clockMu.Lock()
	defer c.clockMu.Unlock()
	if c.cancel == nil {
		return ErrClockNotRunning
	}
	c.cancel()
	c.cancel = nil
	return nil
}

// AddListener registers l to receive updates after all earlier listeners.
// The returned function removes it again.
func (c *Controller) AddListener(l Listener) (remove func()) {
	c.mu.Lock()
	c.nextID++
	id := c.nextID
	c.listeners = append(c.listeners, listenerEntry{id: id, l: l})
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { c.removeListener(id) })
	}
}

func (c *Controller) removeListener(id uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, e := range c.listeners {
		if e.id == id {
			// copy so that a broadcast in flight keeps its own slice
			ls := make([]listenerEntry, 0, len(c.listeners)-1)
			ls = append(ls, c.listeners[:i]...)
			c.listeners = append(ls, c.listeners[i+1:]...)
			return
		}
	}
}

// ListenerCount returns the number of registered listeners, including the
// autopilot.
func (c *Controller) ListenerCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.listeners)
}

// updateOwnship broadcasts u to every listener in registration order.
func (c *Controller) updateOwnship(u OwnshipUpdate) {
	c.mu.RLock()
	ls := c.listeners
	c.mu.RUnlock()

	for _, e := range ls {
		e.l.OnOwnshipUpdate(u)
	}
}

// ControlStatus reports whether the user or the autopilot gave the last order.
func (c *Controller) ControlStatus() ControlStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.control
}

func (c *Controller) setControl(s ControlStatus) {
	c.mu.Lock()
	c.control = s
	c.mu.Unlock()
}

// SetRudderHelm is a user rudder order; it disengages the autopilot.
func (c *Controller) SetRudderHelm(angle float64) {
	c.orderMu.Lock()
	defer c.orderMu.Unlock()
	c.autopilot.Disengage()
	c.setControl(UserControl)
	c.sim.SetRudderHelm(angle)
}

// SetSpeedThrottle is a user speed order; it disengages the autopilot.
func (c *Controller) SetSpeedThrottle(knots float64) {
	c.orderMu.Lock()
	defer c.orderMu.Unlock()
	c.autopilot.Disengage()
	c.setControl(UserControl)
	c.sim.SetSpeedThrottle(knots)
}

// autopilotRudder applies an autopilot rudder order unless the autopilot
// was disengaged after the order was computed.
func (c *Controller) autopilotRudder(angle float64) {
	c.orderMu.Lock()
	defer c.orderMu.Unlock()
	if !c.autopilot.Engaged() {
		return
	}
	c.setControl(AutopilotControl)
	c.sim.SetRudderHelm(angle)
}

func (c *Controller) autopilotSpeed(knots float64) {
	c.orderMu.Lock()
	defer c.orderMu.Unlock()
	if !c.autopilot.Engaged() {
		return
	}
	c.setControl(AutopilotControl)
	c.sim.SetSpeedThrottle(knots)
}

func (c *Controller) Start()                         { c.sim.Start() }
func (c *Controller) Pause()                         { c.sim.Pause() }
func (c *Controller) Stop()                          { c.sim.Stop() }
func (c *Controller) Reset()                         { c.sim.Reset() }
func (c *Controller) Status() SimulationStatus       { return c.sim.Status() }
func (c *Controller) SetHeadingSpeed(d HeadingSpeed) { c.sim.SetHeadingSpeed(d) }
func (c *Controller) SetSetDrift(d SetDrift)         { c.sim.SetSetDrift(d) }
func (c *Controller) SetPosition(p Position)         { c.sim.SetPosition(p) }
func (c *Controller) SetTimeDate(t time.Time)        { c.sim.SetTimeDate(t) }
func (c *Controller) SetDepth(meters float64)        { c.sim.SetDepth(meters) }

// Snapshot returns a copy of the current ownship state.
func (c *Controller) Snapshot() OwnshipUpdate { return c.sim.Snapshot() }
