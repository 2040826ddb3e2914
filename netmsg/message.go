package netmsg

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/Bucknalla/go-ownship-simulator/ownship"
)

// MaxDatagramSize bounds an encoded envelope.
const MaxDatagramSize = 1472

var (
	ErrUnknownKind     = errors.New("unknown message kind")
	ErrUnknownCommand  = errors.New("unknown command")
	ErrMissingPayload  = errors.New("message payload missing")
	ErrDatagramTooLong = errors.New("encoded message exceeds datagram size")
)

// Kind identifies the payload of an Envelope.
type Kind string

const (
	KindOwnship Kind = "ownship"
	KindCommand Kind = "command"
)

// Envelope is the unit sent in one UDP datagram.
type Envelope struct {
	Kind    Kind                   `json:"kind"`
	Session string                 `json:"session"`
	Seq     uint64                 `json:"seq"`
	Sent    time.Time              `json:"sent"`
	Update  *ownship.OwnshipUpdate `json:"update,omitempty"`
	Command *Command               `json:"command,omitempty"`
}

// CommandType names an order accepted from the network.
type CommandType string

const (
	CmdRudder             CommandType = "rudder"
	CmdThrottle           CommandType = "throttle"
	CmdHeadingSpeed       CommandType = "heading_speed"
	CmdSetDrift           CommandType = "set_drift"
	CmdPosition           CommandType = "position"
	CmdTime               CommandType = "time"
	CmdStart              CommandType = "start"
	CmdPause              CommandType = "pause"
	CmdStop               CommandType = "stop"
	CmdReset              CommandType = "reset"
	CmdAutopilotEngage    CommandType = "autopilot_engage"
	CmdAutopilotDisengage CommandType = "autopilot_disengage"
	CmdAutopilotMode      CommandType = "autopilot_mode"
	CmdAutopilotPattern   CommandType = "autopilot_pattern"
	CmdManualCourse       CommandType = "manual_course"
	CmdManualSpeed        CommandType = "manual_speed"
)

// Command is one order. Only the payload field matching Type is read.
type Command struct {
	Type         CommandType              `json:"type"`
	Value        float64                  `json:"value,omitempty"`
	HeadingSpeed *ownship.HeadingSpeed    `json:"heading_speed,omitempty"`
	SetDrift     *ownship.SetDrift        `json:"set_drift,omitempty"`
	Position     *ownship.Position        `json:"position,omitempty"`
	Time         time.Time                `json:"time,omitempty"`
	Mode         string                   `json:"mode,omitempty"`
	Pattern      *ownship.PatternSettings `json:"pattern,omitempty"`
}

// Marshal encodes e as msgpack, reusing the json field names.
func Marshal(e Envelope) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	enc.UseCompactInts(true)
	if err := enc.Encode(&e); err != nil {
		return nil, fmt.Errorf("failed to encode %s message: %w", e.Kind, err)
	}
	if buf.Len() > MaxDatagramSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrDatagramTooLong, buf.Len())
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes and sanity-checks an envelope.
func Unmarshal(b []byte) (Envelope, error) {
	var e Envelope
	dec := msgpack.NewDecoder(bytes.NewReader(b))
	dec.SetCustomStructTag("json")
	if err := dec.Decode(&e); err != nil {
		return Envelope{}, fmt.Errorf("failed to decode message: %w", err)
	}

	switch e.Kind {
	case KindOwnship:
		if e.Update == nil {
			return Envelope{}, fmt.Errorf("%w: ownship update", ErrMissingPayload)
		}
	case KindCommand:
		if e.Command == nil {
			return Envelope{}, fmt.Errorf("%w: command", ErrMissingPayload)
		}
	default:
		return Envelope{}, fmt.Errorf("%w: %q", ErrUnknownKind, e.Kind)
	}
	return e, nil
}
