package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/Bucknalla/go-ownship-simulator/netmsg"
	"github.com/Bucknalla/go-ownship-simulator/ownship"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}

// apply runs the commands in order and answers with the new snapshot.
func (s *Server) apply(w http.ResponseWriter, cmds ...netmsg.Command) {
	for _, cmd := range cmds {
		if err := netmsg.Apply(s.ctrl, cmd); err != nil {
			status := http.StatusBadRequest
			if errors.Is(err, netmsg.ErrUnknownCommand) {
				status = http.StatusNotFound
			}
			writeError(w, status, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, s.ctrl.Snapshot())
}

func (s *Server) handleOwnship(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.ctrl.Snapshot())
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.status())
}

func (s *Server) handleSim(w http.ResponseWriter, r *http.Request) {
	action := mux.Vars(r)["action"]
	s.apply(w, netmsg.Command{Type: netmsg.CommandType(action)})
}

func (s *Server) handleHelm(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Angle *float64 `json:"angle"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Angle == nil {
		writeError(w, http.StatusBadRequest, errors.New("angle is required"))
		return
	}
	s.apply(w, netmsg.Command{Type: netmsg.CmdRudder, Value: *req.Angle})
}

func (s *Server) handleThrottle(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Speed *float64 `json:"speed"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Speed == nil {
		writeError(w, http.StatusBadRequest, errors.New("speed is required"))
		return
	}
	s.apply(w, netmsg.Command{Type: netmsg.CmdThrottle, Value: *req.Speed})
}

func (s *Server) handleHeadingSpeed(w http.ResponseWriter, r *http.Request) {
	var req ownship.HeadingSpeed
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s.apply(w, netmsg.Command{Type: netmsg.CmdHeadingSpeed, HeadingSpeed: &req})
}

func (s *Server) handleSetDrift(w http.ResponseWriter, r *http.Request) {
	var req ownship.SetDrift
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s.apply(w, netmsg.Command{Type: netmsg.CmdSetDrift, SetDrift: &req})
}

func (s *Server) handlePosition(w http.ResponseWriter, r *http.Request) {
	var req ownship.Position
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s.apply(w, netmsg.Command{Type: netmsg.CmdPosition, Position: &req})
}

func (s *Server) handleTime(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Time time.Time `json:"time"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s.apply(w, netmsg.Command{Type: netmsg.CmdTime, Time: req.Time})
}

type patternRequest struct {
	Type          string  `json:"type"`
	InitialCourse float64 `json:"initial_course"`
	InitialSpeed  float64 `json:"initial_speed"`
	LegTime       string  `json:"leg_time"` // Go duration, e.g. "90s"
	Turn          string  `json:"turn"`
}

func (p patternRequest) settings() (ownship.PatternSettings, error) {
	typ, err := ownship.ParsePatternType(p.Type)
	if err != nil {
		return ownship.PatternSettings{}, err
	}
	legTime, err := time.ParseDuration(p.LegTime)
	if err != nil {
		return ownship.PatternSettings{}, fmt.Errorf("invalid leg_time: %w", err)
	}
	turn := ownship.TurnRight
	if p.Turn != "" {
		if turn, err = ownship.ParseTurnDirection(p.Turn); err != nil {
			return ownship.PatternSettings{}, err
		}
	}
	return ownship.PatternSettings{
		Type:          typ,
		InitialCourse: p.InitialCourse,
		InitialSpeed:  p.InitialSpeed,
		LegTime:       legTime,
		Turn:          turn,
	}, nil
}

type autopilotRequest struct {
	Engaged      *bool           `json:"engaged"`
	Mode         *string         `json:"mode"`
	ManualCourse *float64        `json:"manual_course"`
	ManualSpeed  *float64        `json:"manual_speed"`
	Pattern      *patternRequest `json:"pattern"`
}

// handleAutopilot applies the settings present in the request, targets
// before the mode switch and engagement last.
func (s *Server) handleAutopilot(w http.ResponseWriter, r *http.Request) {
	var req autopilotRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	var cmds []netmsg.Command
	if req.ManualCourse != nil {
		cmds = append(cmds, netmsg.Command{Type: netmsg.CmdManualCourse, Value: *req.ManualCourse})
	}
	if req.ManualSpeed != nil {
		cmds = append(cmds, netmsg.Command{Type: netmsg.CmdManualSpeed, Value: *req.ManualSpeed})
	}
	if req.Pattern != nil {
		p, err := req.Pattern.settings()
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		cmds = append(cmds, netmsg.Command{Type: netmsg.CmdAutopilotPattern, Pattern: &p})
	}
	if req.Mode != nil {
		if _, err := ownship.ParseMode(*req.Mode); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		cmds = append(cmds, netmsg.Command{Type: netmsg.CmdAutopilotMode, Mode: *req.Mode})
	}
	if req.Engaged != nil {
		if *req.Engaged {
			cmds = append(cmds, netmsg.Command{Type: netmsg.CmdAutopilotEngage})
		} else {
			cmds = append(cmds, netmsg.Command{Type: netmsg.CmdAutopilotDisengage})
		}
	}

	for _, cmd := range cmds {
		if err := netmsg.Apply(s.ctrl, cmd); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, s.ctrl.Autopilot().State())
}
