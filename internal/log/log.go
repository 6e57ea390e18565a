package log

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

var log zerolog.Logger

// LogLevel represents the logging level
type LogLevel string

const (
	// Log levels
	LevelDebug LogLevel = "debug"
	LevelInfo  LogLevel = "info"
	LevelWarn  LogLevel = "warn"
	LevelError LogLevel = "error"
	LevelFatal LogLevel = "fatal"
	LevelNone  LogLevel = "none"
)

// output is where log lines go; stderr keeps stdout free for fetched bodies.
var output io.Writer = os.Stderr

func init() {
	zerolog.TimeFieldFormat = time.RFC3339
	configureLogger(getLogLevel())
}

// configureLogger sets up the logger with the specified level
func configureLogger(level LogLevel) {
	writer := zerolog.ConsoleWriter{
		Out:        output,
		TimeFormat: time.RFC3339,
		NoColor:    noColor(),
	}

	log = zerolog.New(writer).With().Timestamp().Logger()

	setLogLevel(level)
}

// getLogLevel determines the log level from environment
func getLogLevel() LogLevel {
	if envLevel := os.Getenv("SMARTPROXY_LOG_LEVEL"); envLevel != "" {
		return ParseLevel(envLevel)
	}
	return LevelInfo
}

func noColor() bool {
	_, set := os.LookupEnv("NO_COLOR")
	return set
}

// ParseLevel maps a user supplied string onto a LogLevel, defaulting to info.
func ParseLevel(s string) LogLevel {
	switch level := LogLevel(strings.ToLower(strings.TrimSpace(s))); level {
	case LevelDebug, LevelInfo, LevelWarn, LevelError, LevelFatal, LevelNone:
		return level
	default:
		return LevelInfo
	}
}

// setLogLevel sets the zerolog level
func setLogLevel(level LogLevel) {
	switch level {
	case LevelDebug:
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case LevelInfo:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case LevelWarn:
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case LevelError:
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	case LevelFatal:
		zerolog.SetGlobalLevel(zerolog.FatalLevel)
	case LevelNone:
		zerolog.SetGlobalLevel(zerolog.Disabled)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

// SetLevel sets the global log level
func SetLevel(level LogLevel) {
	configureLogger(level)
}

// SetOutput redirects log output, mostly useful in tests.
func SetOutput(w io.Writer) {
	output = w
	configureLogger(currentLevel())
}

func currentLevel() LogLevel {
	switch zerolog.GlobalLevel() {
	case zerolog.DebugLevel, zerolog.TraceLevel:
		return LevelDebug
	case zerolog.WarnLevel:
		return LevelWarn
	case zerolog.ErrorLevel:
		return LevelError
	case zerolog.FatalLevel, zerolog.PanicLevel:
		return LevelFatal
	case zerolog.Disabled:
		return LevelNone
	default:
		return LevelInfo
	}
}

// Debug returns a new Debug level event logger with component context
func Debug(component string) *zerolog.Event {
	return log.Debug().Str("component", component)
}

// Info returns a new Info level event logger with component context
func Info(component string) *zerolog.Event {
	return log.Info().Str("component", component)
}

// Warn returns a new Warn level event logger with component context
func Warn(component string) *zerolog.Event {
	return log.Warn().Str("component", component)
}

// Error returns a new Error level event logger with component context
func Error(component string) *zerolog.Event {
	return log.Error().Str("component", component)
}

// Fatal returns a new Fatal level event logger with component context
func Fatal(component string) *zerolog.Event {
	return log.Fatal().Str("component", component)
}
