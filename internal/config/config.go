// Package config loads the ownship-simulator application settings from
// defaults, an optional config file, OWNSHIP_* environment variables and
// command line flags, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/Bucknalla/go-ownship-simulator/nmea"
	"github.com/Bucknalla/go-ownship-simulator/ownship"
)

// EnvPrefix is prepended to every environment override, e.g. OWNSHIP_SIM_LAT.
const EnvPrefix = "OWNSHIP"

var (
	ErrInvalidBaudRate  = errors.New("baud rate must be positive")
	ErrInvalidRate      = errors.New("output rate must not be negative")
	ErrInvalidInterval  = errors.New("GPX interval must be positive")
	ErrInvalidStartTime = errors.New("start time must be RFC 3339")
	ErrUnknownSentence  = errors.New("unknown NMEA sentence type")
	ErrInvalidDuration  = errors.New("duration must not be negative")
)

// NMEA controls the sentence stream written to serial or stdout.
type NMEA struct {
	Enabled   bool
	Rate      time.Duration
	Talker    string
	Sentences []string
}

// Serial selects the NMEA serial port. An empty Port writes to stdout.
type Serial struct {
	Port string
	Baud int
}

// UDP configures the network snapshot broadcast and command listener.
type UDP struct {
	Broadcast string
	Listen    string
	Rate      time.Duration
}

// Web configures the HTTP control API.
type Web struct {
	Addr string
	Rate time.Duration
}

// GPX configures track recording.
type GPX struct {
	Enabled  bool
	File     string
	Interval time.Duration
}

// Log configures logging.
type Log struct {
	Level string
	Dir   string
}

// App is the complete application configuration.
type App struct {
	Sim       ownship.Config
	Autostart bool
	Duration  time.Duration // zero runs until interrupted
	Resume    string        // GPX file whose last point seeds the initial state
	NMEA      NMEA
	Serial    Serial
	UDP       UDP
	Web       Web
	GPX       GPX
	Log       Log
	Quiet     bool

	ShowVersion bool
	ConfigFile  string
}

func setDefaults(v *viper.Viper) {
	d := ownship.DefaultConfig()
	v.SetDefault("sim.tick", d.TickInterval)
	v.SetDefault("sim.lat", d.Latitude)
	v.SetDefault("sim.lon", d.Longitude)
	v.SetDefault("sim.heading", d.Heading)
	v.SetDefault("sim.speed", d.Speed)
	v.SetDefault("sim.depth", d.Depth)
	v.SetDefault("sim.set", d.Set)
	v.SetDefault("sim.drift", d.Drift)
	v.SetDefault("sim.start", "")
	v.SetDefault("sim.autostart", true)
	v.SetDefault("sim.duration", time.Duration(0))

	v.SetDefault("nmea.enabled", true)
	v.SetDefault("nmea.rate", time.Second)
	v.SetDefault("nmea.talker", "")
	v.SetDefault("nmea.sentences", []string{nmea.RMC, nmea.GGA, nmea.VTG, nmea.HDT, nmea.ROT, nmea.DPT})

	v.SetDefault("serial.port", "")
	v.SetDefault("serial.baud", 4800)

	v.SetDefault("udp.broadcast", "")
	v.SetDefault("udp.listen", "")
	v.SetDefault("udp.rate", time.Second)

	v.SetDefault("web.addr", "")
	v.SetDefault("web.rate", 250*time.Millisecond)

	v.SetDefault("gpx.enabled", false)
	v.SetDefault("gpx.file", "")
	v.SetDefault("gpx.interval", time.Second)

	v.SetDefault("resume", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.dir", "")
	v.SetDefault("quiet", false)
}

// flag name -> viper key
var flagKeys = map[string]string{
	"tick":          "sim.tick",
	"lat":           "sim.lat",
	"lon":           "sim.lon",
	"heading":       "sim.heading",
	"speed":         "sim.speed",
	"depth":         "sim.depth",
	"set":           "sim.set",
	"drift":         "sim.drift",
	"start-time":    "sim.start",
	"autostart":     "sim.autostart",
	"duration":      "sim.duration",
	"nmea":          "nmea.enabled",
	"rate":          "nmea.rate",
	"talker":        "nmea.talker",
	"sentences":     "nmea.sentences",
	"serial":        "serial.port",
	"baud":          "serial.baud",
	"udp-broadcast": "udp.broadcast",
	"udp-listen":    "udp.listen",
	"udp-rate":      "udp.rate",
	"web":           "web.addr",
	"web-rate":      "web.rate",
	"gpx":           "gpx.enabled",
	"gpx-file":      "gpx.file",
	"gpx-interval":  "gpx.interval",
	"resume":        "resume",
	"log-level":     "log.level",
	"log-dir":       "log.dir",
	"quiet":         "quiet",
}

// NewFlagSet declares the command line flags. Flag defaults only document
// usage; the effective defaults live in viper.
func NewFlagSet(name string) *pflag.FlagSet {
	d := ownship.DefaultConfig()
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SortFlags = false

	fs.Bool("version", false, "Show version information and exit")
	fs.StringP("config", "c", "", "Config file (json, yaml or toml)")

	fs.Duration("tick", d.TickInterval, "Simulation time step")
	fs.Float64("lat", d.Latitude, "Initial latitude (decimal degrees)")
	fs.Float64("lon", d.Longitude, "Initial longitude (decimal degrees)")
	fs.Float64("heading", d.Heading, "Initial heading in degrees true (0-359)")
	fs.Float64("speed", d.Speed, "Initial speed in knots")
	fs.Float64("depth", d.Depth, "Water depth in meters")
	fs.Float64("set", d.Set, "Current direction in degrees")
	fs.Float64("drift", d.Drift, "Current speed in knots (0-6)")
	fs.String("start-time", "", "Simulated start time, RFC 3339 (default: now)")
	fs.Bool("autostart", true, "Start playing immediately")
	fs.Duration("duration", 0, "How long to run (e.g. 30s, 5m, 1h). Default is indefinite")

	fs.Bool("nmea", true, "Write NMEA sentences to serial or stdout")
	fs.Duration("rate", time.Second, "NMEA output rate")
	fs.String("talker", "", "Override the talker id of every sentence")
	fs.StringSlice("sentences", []string{nmea.RMC, nmea.GGA, nmea.VTG, nmea.HDT, nmea.ROT, nmea.DPT},
		"NMEA sentences to emit: "+strings.Join(nmea.AllSentences, ","))
	fs.String("serial", "", "Serial port for NMEA output (e.g., /dev/ttyUSB0, COM1)")
	fs.Int("baud", 4800, "Serial port baud rate")

	fs.String("udp-broadcast", "", "UDP address to broadcast ownship snapshots to")
	fs.String("udp-listen", "", "UDP address to receive commands on")
	fs.Duration("udp-rate", time.Second, "UDP broadcast rate")

	fs.String("web", "", "HTTP control API listen address (e.g., :8080)")
	fs.Duration("web-rate", 250*time.Millisecond, "Websocket update rate")

	fs.Bool("gpx", false, "Record a GPX track")
	fs.String("gpx-file", "", "GPX track file (default: timestamp-based name)")
	fs.Duration("gpx-interval", time.Second, "Simulated time between GPX track points")
	fs.String("resume", "", "Resume from the last point of a GPX track")

	fs.String("log-level", "info", "Log level: debug, info, warn or error")
	fs.String("log-dir", "", "Directory for the rotated log file")
	fs.BoolP("quiet", "q", false, "Suppress info messages (only output NMEA data)")
	return fs
}

// Load parses args and returns the merged configuration. pflag.ErrHelp is
// returned unwrapped when help was requested.
func Load(args []string) (*App, error) {
	fs := NewFlagSet("ownship-simulator")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return load(fs, viper.New())
}

func load(fs *pflag.FlagSet, v *viper.Viper) (*App, error) {
	setDefaults(v)

	for name, key := range flagKeys {
		if err := v.BindPFlag(key, fs.Lookup(name)); err != nil {
			return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfgFile, _ := fs.GetString("config")
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	app := &App{
		Sim: ownship.Config{
			TickInterval: v.GetDuration("sim.tick"),
			Latitude:     v.GetFloat64("sim.lat"),
			Longitude:    v.GetFloat64("sim.lon"),
			Heading:      v.GetFloat64("sim.heading"),
			Speed:        v.GetFloat64("sim.speed"),
			Depth:        v.GetFloat64("sim.depth"),
			Set:          v.GetFloat64("sim.set"),
			Drift:        v.GetFloat64("sim.drift"),
		},
		Autostart: v.GetBool("sim.autostart"),
		Duration:  v.GetDuration("sim.duration"),
		Resume:    v.GetString("resume"),
		NMEA: NMEA{
			Enabled:   v.GetBool("nmea.enabled"),
			Rate:      v.GetDuration("nmea.rate"),
			Talker:    v.GetString("nmea.talker"),
			Sentences: normalizeSentences(v.GetStringSlice("nmea.sentences")),
		},
		Serial: Serial{
			Port: v.GetString("serial.port"),
			Baud: v.GetInt("serial.baud"),
		},
		UDP: UDP{
			Broadcast: v.GetString("udp.broadcast"),
			Listen:    v.GetString("udp.listen"),
			Rate:      v.GetDuration("udp.rate"),
		},
		Web: Web{
			Addr: v.GetString("web.addr"),
			Rate: v.GetDuration("web.rate"),
		},
		GPX: GPX{
			Enabled:  v.GetBool("gpx.enabled"),
			File:     v.GetString("gpx.file"),
			Interval: v.GetDuration("gpx.interval"),
		},
		Log: Log{
			Level: v.GetString("log.level"),
			Dir:   v.GetString("log.dir"),
		},
		Quiet:      v.GetBool("quiet"),
		ConfigFile: cfgFile,
	}
	app.ShowVersion, _ = fs.GetBool("version")

	if s := v.GetString("sim.start"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidStartTime, s)
		}
		app.Sim.StartTime = t
	}

	if app.GPX.Enabled && app.GPX.File == "" {
		app.GPX.File = fmt.Sprintf("%s.gpx", time.Now().Format("20060102_150405"))
	}

	if err := app.Validate(); err != nil {
		return nil, err
	}
	return app, nil
}

// normalizeSentences accepts comma separated values inside a single entry,
// which is how environment variables arrive.
func normalizeSentences(in []string) []string {
	var out []string
	for _, s := range in {
		for _, part := range strings.Split(s, ",") {
			if part = strings.ToUpper(strings.TrimSpace(part)); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// Validate checks the settings that the libraries would otherwise silently
// clamp or reject later.
func (a *App) Validate() error {
	if err := a.Sim.Validate(); err != nil {
		return err
	}
	if a.Serial.Port != "" && a.Serial.Baud <= 0 {
		return ErrInvalidBaudRate
	}
	if a.NMEA.Rate < 0 || a.UDP.Rate < 0 || a.Web.Rate < 0 {
		return ErrInvalidRate
	}
	if a.GPX.Enabled && a.GPX.Interval <= 0 {
		return ErrInvalidInterval
	}
	if a.Duration < 0 {
		return ErrInvalidDuration
	}
	for _, s := range a.NMEA.Sentences {
		if !slices.Contains(nmea.AllSentences, s) {
			return fmt.Errorf("%w: %s", ErrUnknownSentence, s)
		}
	}
	return nil
}
