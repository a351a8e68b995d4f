// Package telemetry configures structured logging and Prometheus metrics
// for the Tangle coordinator, in the idiom of the teacher's
// internal/logging + internal/observability packages. It talks directly to
// zerolog rather than through a wrapper module, since the wrapper the
// teacher used (smplog) was retrieved as an empty module stub with no
// source — see DESIGN.md.
package telemetry

import (
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

const (
	EnvLogLevel   = "TANGLE_LOG_LEVEL"
	EnvLogNoColor = "TANGLE_LOG_NOCOLOR"
)

// Profile selects a logging preset.
type Profile int

const (
	ProfileRuntime Profile = iota
	ProfileTest
)

var (
	configureOnce sync.Once
	base          zerolog.Logger
)

// Configure sets up the process-wide base logger exactly once; subsequent
// calls are no-ops, matching the teacher's sync.Once-guarded Configure.
func Configure(profile Profile) {
	configureOnce.Do(func() {
		level := defaultLevel(profile)
		if v, ok := parseLevel(os.Getenv(EnvLogLevel)); ok {
			level = v
		}

		noColor := profile == ProfileTest
		if v, ok := parseBool(os.Getenv(EnvLogNoColor)); ok {
			noColor = v
		}

		out := consoleWriter(noColor)
		base = zerolog.New(out).Level(level).With().Timestamp().Str("component", "tangle").Logger()
	})
}

// ConfigureRuntime is Configure(ProfileRuntime).
func ConfigureRuntime() { Configure(ProfileRuntime) }

// ConfigureTests is Configure(ProfileTest).
func ConfigureTests() { Configure(ProfileTest) }

// Logger returns the process-wide base logger, configuring it with runtime
// defaults on first use if Configure was never called explicitly.
func Logger() zerolog.Logger {
	ConfigureRuntime()
	return base
}

// For returns a child logger tagged with a subsystem name (e.g. "dispatch",
// "pacing", "serializer"), matching the teacher's Str("app", ...) pattern.
func For(subsystem string) zerolog.Logger {
	return Logger().With().Str("subsystem", subsystem).Logger()
}

func defaultLevel(profile Profile) zerolog.Level {
	if profile == ProfileTest {
		return zerolog.DebugLevel
	}
	return zerolog.InfoLevel
}

func consoleWriter(noColor bool) zerolog.ConsoleWriter {
	if !noColor && !isatty.IsTerminal(os.Stdout.Fd()) {
		noColor = true
	}
	return zerolog.ConsoleWriter{
		Out:        colorable.NewColorableStdout(),
		TimeFormat: time.RFC3339,
		NoColor:    noColor,
	}
}

func parseLevel(raw string) (zerolog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return zerolog.InfoLevel, false
	case "trace":
		return zerolog.TraceLevel, true
	case "debug":
		return zerolog.DebugLevel, true
	case "info":
		return zerolog.InfoLevel, true
	case "warn", "warning":
		return zerolog.WarnLevel, true
	case "error":
		return zerolog.ErrorLevel, true
	case "disabled", "off", "none":
		return zerolog.Disabled, true
	default:
		return zerolog.InfoLevel, false
	}
}

func parseBool(raw string) (bool, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}
