package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"go.bug.st/serial"
	"golang.org/x/sync/errgroup"

	"github.com/Bucknalla/go-ownship-simulator/internal/config"
	"github.com/Bucknalla/go-ownship-simulator/internal/logging"
	"github.com/Bucknalla/go-ownship-simulator/netmsg"
	"github.com/Bucknalla/go-ownship-simulator/nmea"
	"github.com/Bucknalla/go-ownship-simulator/ownship"
	"github.com/Bucknalla/go-ownship-simulator/track"
	"github.com/Bucknalla/go-ownship-simulator/web"
)

// Version information - populated at build time via ldflags
var (
	Version   = "dev"     // Will be set to git tag if available, otherwise "dev"
	Commit    = "unknown" // Will be set to git commit hash
	BuildDate = "unknown" // Will be set to build timestamp
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "ownship-simulator: %v\n", err)
		os.Exit(1)
	}
}

func versionString() string {
	if Version != "dev" {
		return "v" + Version
	}
	return Commit
}

// run is main without the process exit, so it can be tested.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	app, err := config.Load(args)
	if errors.Is(err, pflag.ErrHelp) {
		return nil
	} else if err != nil {
		return err
	}

	if app.ShowVersion {
		fmt.Fprintln(stdout, versionString())
		return nil
	}

	logger := logging.New(logging.Options{
		Level:  app.Log.Level,
		Dir:    app.Log.Dir,
		Quiet:  app.Quiet,
		Stderr: stderr,
	})
	defer logger.Close()
	log := logger.Logger

	if app.Resume != "" {
		p, err := track.LastPoint(app.Resume)
		if err != nil {
			return fmt.Errorf("failed to resume from %s: %w", app.Resume, err)
		}
		app.Sim = track.ResumeConfig(app.Sim, p)
		log.Info("resuming from GPX track",
			slog.String("file", app.Resume),
			slog.Float64("lat", app.Sim.Latitude),
			slog.Float64("lon", app.Sim.Longitude),
			slog.Time("time", app.Sim.StartTime))
	}

	ctrl, err := ownship.NewController(app.Sim, ownship.WithLogger(log))
	if err != nil {
		return fmt.Errorf("failed to create ownship simulator: %w", err)
	}

	if app.NMEA.Enabled {
		out, closeOut, err := nmeaOutput(app.Serial, stdout, log)
		if err != nil {
			return err
		}
		defer closeOut()
		enc := &nmea.Encoder{Talker: app.NMEA.Talker, Sentences: app.NMEA.Sentences}
		ctrl.AddListener(nmea.NewWriter(out, enc, app.NMEA.Rate, log))
	}

	if app.GPX.Enabled {
		rec, err := track.NewRecorder(app.GPX.File, app.GPX.Interval, log)
		if err != nil {
			return fmt.Errorf("failed to create GPX recorder: %w", err)
		}
		defer func() {
			if err := rec.Close(); err != nil {
				log.Warn("failed to close GPX file", slog.Any("error", err))
			}
		}()
		ctrl.AddListener(rec)
		log.Info("recording GPX track", slog.String("file", app.GPX.File), slog.Duration("interval", app.GPX.Interval))
	}

	var session string
	if app.UDP.Broadcast != "" {
		b, err := netmsg.NewBroadcaster(app.UDP.Broadcast, app.UDP.Rate, log)
		if err != nil {
			return err
		}
		defer b.Close()
		session = b.Session()
		ctrl.AddListener(b)
		log.Info("broadcasting ownship over UDP", slog.String("addr", app.UDP.Broadcast), slog.String("session", session))
	}

	if app.Duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, app.Duration)
		defer cancel()
	}
	g, gctx := errgroup.WithContext(ctx)

	if app.UDP.Listen != "" {
		rcv, err := netmsg.NewReceiver(app.UDP.Listen, ctrl, session, log)
		if err != nil {
			return err
		}
		log.Info("listening for UDP commands", slog.String("addr", rcv.Addr().String()))
		g.Go(func() error { return rcv.Run(gctx) })
	}

	if app.Web.Addr != "" {
		srv := web.NewServer(ctrl, app.Web.Rate, log)
		remove := ctrl.AddListener(srv)
		defer remove()
		g.Go(func() error {
			srv.Run(gctx)
			return nil
		})
		g.Go(func() error { return srv.ListenAndServe(gctx, app.Web.Addr) })
	}

	if err := ctrl.Open(); err != nil {
		return err
	}
	if app.Autostart {
		ctrl.Start()
	}
	log.Info("ownship simulator running",
		slog.String("version", versionString()),
		slog.Float64("lat", app.Sim.Latitude),
		slog.Float64("lon", app.Sim.Longitude),
		slog.Float64("heading", app.Sim.Heading),
		slog.Float64("speed", app.Sim.Speed),
		slog.String("status", ctrl.Status().String()))

	g.Go(func() error {
		<-gctx.Done()
		return nil
	})
	err = g.Wait()

	// stop the tick before the deferred sinks close
	if cerr := ctrl.Close(); cerr != nil && err == nil {
		err = cerr
	}
	log.Info("ownship simulator stopped", slog.Int("listeners", ctrl.ListenerCount()))
	return err
}

// nmeaOutput opens the serial port when one is configured, otherwise NMEA
// goes to stdout.
func nmeaOutput(c config.Serial, stdout io.Writer, log *slog.Logger) (io.Writer, func(), error) {
	if c.Port == "" {
		log.Info("NMEA output: stdout")
		return stdout, func() {}, nil
	}

	mode := &serial.Mode{
		BaudRate: c.Baud,
		Parity:   serial.NoParity,
		DataBits: 8,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(c.Port, mode)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open serial port %s: %w", c.Port, err)
	}
	log.Info("NMEA output: serial port", slog.String("port", c.Port), slog.Int("baud", c.Baud))
	return port, func() { port.Close() }, nil
}
