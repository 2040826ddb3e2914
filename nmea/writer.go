package nmea

import (
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/Bucknalla/go-ownship-simulator/ownship"
)

// Writer is an ownship.Listener that writes encoded sentences to an
// io.Writer such as a serial port or stdout.
type Writer struct {
	mu      sync.Mutex
	out     io.Writer
	enc     *Encoder
	rate    time.Duration
	last    time.Time
	failing bool
	written int
	logger  *slog.Logger
}

// NewWriter returns a Writer emitting at most one burst of sentences per
// rate of simulated time. A zero rate writes on every update.
func NewWriter(out io.Writer, enc *Encoder, rate time.Duration, logger *slog.Logger) *Writer {
	if enc == nil {
		enc = &Encoder{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{out: out, enc: enc, rate: rate, logger: logger}
}

func (w *Writer) OnOwnshipUpdate(u ownship.OwnshipUpdate) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.rate > 0 && !w.last.IsZero() {
		// a clock set backwards restarts the cadence
		if d := u.Time.Sub(w.last); d >= 0 && d < w.rate {
			return
		}
	}
	w.last = u.Time

	burst := strings.Join(w.enc.Encode(u), "")
	if _, err := io.WriteString(w.out, burst); err != nil {
		if !w.failing {
			w.logger.Warn("failed to write NMEA output", slog.Any("error", err))
		}
		w.failing = true
		return
	}
	if w.failing {
		w.logger.Info("NMEA output recovered")
		w.failing = false
	}
	w.written++
}

// Written returns the number of bursts written successfully.
func (w *Writer) Written() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.written
}
