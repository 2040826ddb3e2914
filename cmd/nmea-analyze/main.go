// Command nmea-analyze reads an NMEA 0183 stream from a serial port, a file
// or stdin and reports how many sentences were malformed, by error kind.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"go.bug.st/serial"

	"github.com/Bucknalla/go-ownship-simulator/internal/logging"
	"github.com/Bucknalla/go-ownship-simulator/nmea"
)

var errInvalidSentences = errors.New("stream contains invalid sentences")

type options struct {
	serialPort string
	baud       int
	duration   time.Duration
	verbose    bool
	jsonOut    bool
	fail       bool
	logLevel   string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "nmea-analyze: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	var o options
	fs := pflag.NewFlagSet("nmea-analyze", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.serialPort, "serial", "", "Serial port to read from (e.g., /dev/ttyUSB0, COM1)")
	fs.IntVar(&o.baud, "baud", 4800, "Serial port baud rate")
	fs.DurationVar(&o.duration, "duration", 0, "How long to read (e.g. 30s). Default is until end of input")
	fs.BoolVarP(&o.verbose, "verbose", "v", false, "Print every invalid line with its error")
	fs.BoolVar(&o.jsonOut, "json", false, "Print the report as JSON")
	fs.BoolVar(&o.fail, "fail", false, "Exit with an error when any sentence is invalid")
	fs.StringVar(&o.logLevel, "log-level", "warn", "Log level: debug, info, warn or error")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: nmea-analyze [options] [file|-]\n\n")
		fmt.Fprintf(stderr, "Reads NMEA 0183 sentences and reports checksum and format errors.\n\n")
		fmt.Fprintf(stderr, "Options:\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); errors.Is(err, pflag.ErrHelp) {
		return nil
	} else if err != nil {
		return err
	}
	if fs.NArg() > 1 {
		return fmt.Errorf("expected at most one input file, got %d", fs.NArg())
	}

	logger := logging.New(logging.Options{Level: o.logLevel, Stderr: stderr})
	defer logger.Close()

	if o.duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.duration)
		defer cancel()
	}

	in, closeIn, err := openInput(o, fs.Arg(0), stdin, logger.Logger)
	if err != nil {
		return err
	}
	defer closeIn()

	// unblock a pending read when the deadline passes or on interrupt
	stopped := make(chan struct{})
	defer close(stopped)
	go func() {
		select {
		case <-ctx.Done():
			closeIn()
		case <-stopped:
		}
	}()

	sc := nmea.NewScanner(in)
	for sc.Scan() {
		if _, err := sc.Sentence(); err != nil && o.verbose {
			fmt.Fprintf(stderr, "%s: %q\n", err, sc.Text())
		}
	}
	if err := sc.Err(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	stats := sc.Stats()
	if o.jsonOut {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(stats); err != nil {
			return err
		}
	} else if err := stats.WriteReport(stdout); err != nil {
		return err
	}

	logger.Info("analysis finished",
		slog.Int("lines", stats.Lines),
		slog.Int("invalid", stats.Invalid),
		slog.Float64("error_rate", stats.ErrorRate()))

	if o.fail && stats.Invalid > 0 {
		return fmt.Errorf("%w: %d of %d", errInvalidSentences, stats.Invalid, stats.Lines)
	}
	return nil
}

// openInput returns the serial port, the named file or stdin, and an
// idempotent close function.
func openInput(o options, file string, stdin io.Reader, log *slog.Logger) (io.Reader, func(), error) {
	if o.serialPort != "" {
		if file != "" {
			return nil, nil, errors.New("cannot read from both a serial port and a file")
		}
		mode := &serial.Mode{
			BaudRate: o.baud,
			Parity:   serial.NoParity,
			DataBits: 8,
			StopBits: serial.OneStopBit,
		}
		port, err := serial.Open(o.serialPort, mode)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open serial port %s: %w", o.serialPort, err)
		}
		log.Info("reading serial port", slog.String("port", o.serialPort), slog.Int("baud", o.baud))
		return port, onceCloser(port), nil
	}

	if file == "" || file == "-" {
		return stdin, func() {}, nil
	}
	f, err := os.Open(file)
	if err != nil {
		return nil, nil, err
	}
	return f, onceCloser(f), nil
}

func onceCloser(c io.Closer) func() {
	var once sync.Once
	return func() { once.Do(func() { c.Close() }) }
}
