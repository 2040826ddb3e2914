package ownship

import (
	"log/slog"
	"math"
	"sync"
	"time"
)

const (
	// rudderSnap is the distance at which the rudder jumps onto the helm order.
	rudderSnap = 0.5 // degrees
	// speedTolerance is the band around the throttle treated as "on speed".
	speedTolerance = 0.05 // knots
	// headingLagFallback is used when the profile's time-to-max-turn-rate
	// does not change between two ticks.
	headingLagFallback = 20.0 // seconds

	nmToRad = degToRad / 60
)

// Simulator integrates the ownship kinematics at a fixed time step.
//
// All state is guarded by mu. Step computes under the lock, releases it, and
// only then hands the new snapshot to the update handler, so handlers may
// call back into the simulator.
type Simulator struct {
	mu      sync.Mutex
	config  Config
	profile ShipProfile
	clock   Clock
	logger  *slog.Logger
	publish func(OwnshipUpdate)

	status     SimulationStatus
	timeOffset time.Duration // wall clock minus simulated time
	stoppedAt  time.Time     // wall clock instant of the last Stop

	rudderHelm   float64
	rudderActual float64
	prevRudder   float64

	speedThrottle     float64
	speedActual       float64
	speedAcceleration float64
	prevSpeed         float64

	headingActual       float64
	headingVelocity     float64 // degrees/second
	headingAcceleration float64

	headingOverGround float64
	speedOverGround   float64

	latitude  float64
	longitude float64
	depth     float64
	set       float64
	drift     float64
}

// NewSimulator creates a simulator in the PAUSED state.
func NewSimulator(config Config, opts ...Option) (*Simulator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	o := buildOptions(opts)

	sim := &Simulator{
		config:  config,
		profile: o.profile,
		clock:   o.clock,
		logger:  o.logger,
	}
	sim.reset()
	return sim, nil
}

// SetUpdateHandler sets the function receiving each tick's snapshot.
func (s *Simulator) SetUpdateHandler(fn func(OwnshipUpdate)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.publish = fn
}

// Profile returns the ship profile in use.
func (s *Simulator) Profile() ShipProfile {
	return s.profile
}

// Config returns the initial conditions the simulator was built with.
func (s *Simulator) Config() Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.config
}

// Reset returns the ship to its configured initial conditions and pauses.
func (s *Simulator) Reset() {
	s.mu.Lock()
	s.reset()
	s.mu.Unlock()
	s.logger.Info("simulator reset")
}

func (s *Simulator) reset() {
	c := s.config
	now := s.clock.Now()

	s.status = Paused
	s.timeOffset = 0
	if !c.StartTime.IsZero() {
		s.timeOffset = now.Sub(c.StartTime)
	}
	s.stoppedAt = time.Time{}

	s.rudderHelm, s.rudderActual, s.prevRudder = 0, 0, 0

	lo, hi := s.speedLimits()
	speed := clamp(c.Speed, lo, hi)
	s.speedThrottle, s.speedActual, s.prevSpeed = speed, speed, speed
	s.speedAcceleration = 0

	s.headingActual = NormalizeHeading(c.Heading)
	s.headingVelocity, s.headingAcceleration = 0, 0

	s.latitude, s.longitude = c.Latitude, c.Longitude
	s.depth = c.Depth
	s.set, s.drift = c.Set, c.Drift
	s.updateOverGround()
}

// Start resumes motion and the simulated clock.
func (s *Simulator) Start() {
	s.transition(Playing)
}

// Pause freezes motion; the simulated clock keeps running.
func (s *Simulator) Pause() {
	s.transition(Paused)
}

// Stop freezes motion and the simulated clock.
func (s *Simulator) Stop() {
	s.transition(Stopped)
}

func (s *Simulator) transition(to SimulationStatus) {
	s.mu.Lock()
	from := s.status
	if from == to {
		s.mu.Unlock()
		return
	}
	now := s.clock.Now()
	switch {
	case to == Stopped:
		s.stoppedAt = now
	case from == Stopped:
		// the time spent stopped never happened in simulated time
		s.timeOffset += now.Sub(s.stoppedAt)
	}
	s.status = to
	s.mu.Unlock()

	s.logger.Info("simulation status changed", slog.String("from", from.String()), slog.String("to", to.String()))
}

// Status returns the current simulation status.
func (s *Simulator) Status() SimulationStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// SimulatedTime returns the current simulated instant.
func (s *Simulator) SimulatedTime() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.simulatedTime()
}

func (s *Simulator) simulatedTime() time.Time {
	if s.status == Stopped {
		return s.stoppedAt.Add(-s.timeOffset)
	}
	return s.clock.Now().Add(-s.timeOffset)
}

// Step runs one fixed-length simulation tick and publishes the resulting
// snapshot. Motion is only integrated while PLAYING; the snapshot is
// published in every state.
func (s *Simulator) Step() {
	s.mu.Lock()
	if s.status == Playing {
		s.calcOwnshipUpdate(s.config.TickInterval.Seconds())
	}
	u := s.snapshot()
	publish := s.publish
	s.mu.Unlock()

	if publish != nil {
		publish(u)
	}
}

// Snapshot returns a copy of the current ownship state.
func (s *Simulator) Snapshot() OwnshipUpdate {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

func (s *Simulator) snapshot() OwnshipUpdate {
	return OwnshipUpdate{
		Time:                s.simulatedTime(),
		Status:              s.status,
		Latitude:            s.latitude,
		Longitude:           s.longitude,
		Depth:               s.depth,
		RudderHelm:          s.rudderHelm,
		RudderActual:        s.rudderActual,
		HeadingAcceleration: s.headingAcceleration,
		HeadingVelocity:     s.headingVelocity * 60,
		HeadingActual:       s.headingActual,
		HeadingOverGround:   s.headingOverGround,
		SpeedThrottle:       s.speedThrottle,
		SpeedAcceleration:   s.speedAcceleration,
		SpeedActual:         s.speedActual,
		SpeedOverGround:     s.speedOverGround,
		Set:                 s.set,
		Drift:               s.drift,
	}
}

func (s *Simulator) calcOwnshipUpdate(dt float64) {
	s.updateRudder(dt)
	s.updateSpeed(dt)
	s.updateHeading(dt)
	s.updateOverGround()
	s.updatePosition(dt)

	s.prevRudder = s.rudderActual
	s.prevSpeed = s.speedActual
}

// updateRudder moves the rudder toward the helm order at the profile's
// maximum rudder rate without overshooting.
func (s *Simulator) updateRudder(dt float64) {
	diff := s.rudderHelm - s.rudderActual
	step := s.profile.RudderVelocityMax() * dt
	if math.Abs(diff) < rudderSnap || math.Abs(diff) <= step {
		s.rudderActual = s.rudderHelm
		return
	}
	s.rudderActual += math.Copysign(step, diff)
}

func (s *Simulator) updateSpeed(dt float64) {
	gap := s.speedThrottle - s.speedActual
	if math.Abs(gap) <= speedTolerance {
		s.speedAcceleration = 0
		s.speedActual = s.speedThrottle
		return
	}

	s.speedAcceleration = s.selectAcceleration()
	if s.speedAcceleration == 0 {
		return
	}

	next := s.speedActual + s.speedAcceleration*dt
	if (gap > 0 && next > s.speedThrottle) || (gap < 0 && next < s.speedThrottle) {
		next = s.speedThrottle
	}
	s.speedActual = clamp(next, SpeedMin, SpeedMax)
}

// selectAcceleration picks one of the four profile curves from the direction
// of travel and whether the throttle asks for more or less way on.
func (s *Simulator) selectAcceleration() float64 {
	p := s.profile
	cur, target := s.speedActual, s.speedThrottle
	switch {
	case cur > 0:
		if target > cur {
			return p.AccelerationForwardFast(cur, target)
		}
		return -p.AccelerationForwardSlow(cur, target)
	case cur < 0:
		if target < cur {
			return -p.AccelerationAftFast(cur, target)
		}
		return p.AccelerationAftSlow(cur, target)
	default:
		if target > 0 {
			return p.AccelerationForwardFast(cur, target)
		}
		return -p.AccelerationAftFast(cur, target)
	}
}

// targetHeadingVelocity is the signed steady rate of turn for the given
// speed and rudder. Going astern reverses the effect of the rudder.
func (s *Simulator) targetHeadingVelocity(speed, rudder float64) float64 {
	if rudder == 0 {
		return 0
	}
	v := math.Copysign(s.profile.MaxHeadingVelocity(speed, rudder), rudder)
	if speed < 0 {
		v = -v
	}
	return v
}

func (s *Simulator) updateHeading(dt float64) {
	target := s.targetHeadingVelocity(s.speedActual, s.rudderActual)
	prevTarget := s.targetHeadingVelocity(s.prevSpeed, s.prevRudder)

	lag := math.Abs(s.profile.TimeToMaxHeadingVelocity(s.speedActual, s.rudderActual) -
		s.profile.TimeToMaxHeadingVelocity(s.prevSpeed, s.prevRudder))
	if lag == 0 {
		lag = headingLagFallback
	}

	// The acceleration accumulates across ticks rather than being replaced.
	s.headingAcceleration += (target - prevTarget) / lag

	gap := target - s.headingVelocity
	if gap != 0 && !sameSign(s.headingAcceleration, gap) {
		// An accumulated acceleration pointing away from the target turn
		// rate would never converge; rebase it on the remaining gap.
		s.headingAcceleration = gap / lag
	}

	step := s.headingAcceleration * dt
	if math.Abs(gap) < math.Abs(step) {
		s.headingVelocity = target
		if s.rudderActual == 0 {
			s.headingVelocity = 0
		}
	} else {
		s.headingVelocity += step
	}

	s.headingActual = NormalizeHeading(s.headingActual + s.headingVelocity*dt)
}

// updateOverGround composes the through-water vector with set and drift.
func (s *Simulator) updateOverGround() {
	if s.drift <= 0 {
		s.headingOverGround = s.headingActual
		s.speedOverGround = s.speedActual
		return
	}
	water := NewNavigationVector(s.speedActual, s.headingActual, Degrees)
	current := NewNavigationVector(s.drift, s.set, Degrees)
	ground := water.Add(current)
	s.headingOverGround = ground.AngleDegrees()
	s.speedOverGround = ground.Length()
}

// updatePosition advances latitude and longitude along a rhumb line, using
// the Mercator isometric-latitude correction for the longitude change.
func (s *Simulator) updatePosition(dt float64) {
	d := s.speedOverGround * dt / 3600 * nmToRad
	if d == 0 {
		return
	}
	course := s.headingOverGround * degToRad

	lat1 := s.latitude * degToRad
	lat2 := clamp(lat1+d*math.Cos(course), -math.Pi/2, math.Pi/2)

	dPsi := math.Log(math.Tan(lat2/2+math.Pi/4) / math.Tan(lat1/2+math.Pi/4))
	var q float64
	if finite(dPsi) && math.Abs(dPsi) > 1e-12 {
		q = (lat2 - lat1) / dPsi
	} else {
		q = math.Cos(lat2)
	}

	lon := s.longitude
	if math.Abs(q) > 1e-12 {
		if l := lon + d*math.Sin(course)/q*radToDeg; finite(l) {
			lon = l
		}
	}

	s.latitude = clamp(lat2*radToDeg, -90, 90)
	s.longitude = normalizeLongitude(lon)
}

func normalizeLongitude(lon float64) float64 {
	if lon >= -180 && lon <= 180 {
		return lon
	}
	lon = math.Mod(lon+180, 360)
	if lon < 0 {
		lon += 360
	}
	return lon - 180
}

func (s *Simulator) rudderLimit() float64 {
	limit := RudderLimit
	if m := s.profile.RudderAngleMax(); m > 0 && m < limit {
		limit = m
	}
	return limit
}

func (s *Simulator) speedLimits() (lo, hi float64) {
	lo, hi = SpeedMin, SpeedMax
	if m := s.profile.SpeedAsternMax(); m > 0 && -m > lo {
		lo = -m
	}
	if m := s.profile.SpeedAheadMax(); m > 0 && m < hi {
		hi = m
	}
	return lo, hi
}

// RudderLimit returns the largest rudder angle the helm accepts.
func (s *Simulator) RudderLimit() float64 {
	return s.rudderLimit()
}

// SetRudderHelm orders a rudder angle, clamped to the rudder limit.
// Non-finite values are ignored.
func (s *Simulator) SetRudderHelm(angle float64) {
	if !finite(angle) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	limit := s.rudderLimit()
	s.rudderHelm = clamp(angle, -limit, limit)
}

// SetSpeedThrottle orders a speed in knots, clamped to [-10,50] and to the
// profile's ahead and astern maximums. Non-finite values are ignored.
func (s *Simulator) SetSpeedThrottle(knots float64) {
	if !finite(knots) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	lo, hi := s.speedLimits()
	s.speedThrottle = clamp(knots, lo, hi)
}

// SetHeadingSpeed snaps the heading instantly and orders the speed through
// the throttle, so the ship still accelerates toward it. A heading outside
// [0,360) becomes 0.
func (s *Simulator) SetHeadingSpeed(data HeadingSpeed) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.headingActual = wrapToZero(data.Heading, 360)
	if finite(data.Speed) {
		lo, hi := s.speedLimits()
		s.speedThrottle = clamp(data.Speed, lo, hi)
	}
	s.updateOverGround()
}

// SetSetDrift sets the ambient current. Out-of-range values become 0.
func (s *Simulator) SetSetDrift(data SetDrift) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.set = wrapToZero(data.Set, 360)
	if inRange(data.Drift, 0, DriftMax) {
		s.drift = data.Drift
	} else {
		s.drift = 0
	}
	s.updateOverGround()
}

// SetPosition moves the ship. Latitude and longitude are validated
// independently; an out-of-range field is ignored.
func (s *Simulator) SetPosition(data Position) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if inRange(data.Latitude, -90, 90) {
		s.latitude = data.Latitude
	}
	if inRange(data.Longitude, -180, 180) {
		s.longitude = data.Longitude
	}
}

// SetTimeDate makes the simulated clock read t now.
func (s *Simulator) SetTimeDate(t time.Time) {
	if t.IsZero() {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	ref := s.clock.Now()
	if s.status == Stopped {
		ref = s.stoppedAt
	}
	s.timeOffset = ref.Sub(t)
}

// SetDepth sets the depth under the keel in meters. Negative values are ignored.
func (s *Simulator) SetDepth(meters float64) {
	if !finite(meters) || meters < 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.depth = meters
}
