package netmsg

import (
	"fmt"
	"time"

	"github.com/Bucknalla/go-ownship-simulator/ownship"
)

// Controller is the command surface of ownship.Controller.
type Controller interface {
	SetRudderHelm(angle float64)
	SetSpeedThrottle(knots float64)
	SetHeadingSpeed(ownship.HeadingSpeed)
	SetSetDrift(ownship.SetDrift)
	SetPosition(ownship.Position)
	SetTimeDate(time.Time)
	Start()
	Pause()
	Stop()
	Reset()
	Autopilot() *ownship.Autopilot
}

var _ Controller = (*ownship.Controller)(nil)

// Apply executes cmd on c. Out-of-range values are handled by the
// controller; Apply only rejects unknown commands and missing payloads.
func Apply(c Controller, cmd Command) error {
	switch cmd.Type {
	case CmdRudder:
		c.SetRudderHelm(cmd.Value)
	case CmdThrottle:
		c.SetSpeedThrottle(cmd.Value)
	case CmdHeadingSpeed:
		if cmd.HeadingSpeed == nil {
			return missing(cmd.Type)
		}
		c.SetHeadingSpeed(*cmd.HeadingSpeed)
	case CmdSetDrift:
		if cmd.SetDrift == nil {
			return missing(cmd.Type)
		}
		c.SetSetDrift(*cmd.SetDrift)
	case CmdPosition:
		if cmd.Position == nil {
			return missing(cmd.Type)
		}
		c.SetPosition(*cmd.Position)
	case CmdTime:
		if cmd.Time.IsZero() {
			return missing(cmd.Type)
		}
		c.SetTimeDate(cmd.Time)
	case CmdStart:
		c.Start()
	case CmdPause:
		c.Pause()
	case CmdStop:
		c.Stop()
	case CmdReset:
		c.Reset()
	case CmdAutopilotEngage:
		c.Autopilot().Engage()
	case CmdAutopilotDisengage:
		c.Autopilot().Disengage()
	case CmdAutopilotMode:
		m, err := ownship.ParseMode(cmd.Mode)
		if err != nil {
			return err
		}
		c.Autopilot().SetMode(m)
	case CmdAutopilotPattern:
		if cmd.Pattern == nil {
			return missing(cmd.Type)
		}
		c.Autopilot().SetPattern(*cmd.Pattern)
	case CmdManualCourse:
		c.Autopilot().SetManualCourse(cmd.Value)
	case CmdManualSpeed:
		c.Autopilot().SetManualSpeed(cmd.Value)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownCommand, cmd.Type)
	}
	return nil
}

func missing(t CommandType) error {
	return fmt.Errorf("%w: %s", ErrMissingPayload, t)
}
