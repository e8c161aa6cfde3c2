package logger

import (
	"io"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Logger is a thin facade over zerolog so callers never import it directly
type Logger struct {
	zl zerolog.Logger
}

// New creates a logger writing to stdout
func New(level, format string) *Logger {
	return NewWithWriter(os.Stdout, level, format)
}

// NewWithWriter creates a logger writing to w. Format "pretty" uses the
// console writer; anything else emits one JSON object per line.
// The level applies to this logger only.
func NewWithWriter(w io.Writer, level, format string) *Logger {
	if format == "pretty" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	zl := zerolog.New(w).
		Level(ParseLevel(level)).
		With().Timestamp().Caller().
		Logger()
	return &Logger{zl: zl}
}

// Nop returns a logger that discards everything
func Nop() *Logger {
	return &Logger{zl: zerolog.Nop()}
}

// ParseLevel maps a config string to a zerolog level, defaulting to info
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	}
	return zerolog.InfoLevel
}

func (l *Logger) Debug(msg string) { l.zl.Debug().Msg(msg) }
func (l *Logger) Info(msg string)  { l.zl.Info().Msg(msg) }
func (l *Logger) Warn(msg string)  { l.zl.Warn().Msg(msg) }

// Error logs msg with err attached; err may be nil
func (l *Logger) Error(msg string, err error) { l.zl.Error().Err(err).Msg(msg) }

// Fatal logs and exits the process
func (l *Logger) Fatal(msg string, err error) { l.zl.Fatal().Err(err).Msg(msg) }

func (l *Logger) Debugf(format string, args ...interface{}) { l.zl.Debug().Msgf(format, args...) }
func (l *Logger) Infof(format string, args ...interface{})  { l.zl.Info().Msgf(format, args...) }
func (l *Logger) Warnf(format string, args ...interface{})  { l.zl.Warn().Msgf(format, args...) }
func (l *Logger) Errorf(format string, args ...interface{}) { l.zl.Error().Msgf(format, args...) }
func (l *Logger) Fatalf(format string, args ...interface{}) { l.zl.Fatal().Msgf(format, args...) }

// WithField returns a child logger carrying key=value
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return &Logger{zl: l.zl.With().Interface(key, value).Logger()}
}

// WithFields returns a child logger carrying every entry of fields
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	return &Logger{zl: l.zl.With().Fields(fields).Logger()}
}

// WithComponent tags entries with the emitting service or worker
func (l *Logger) WithComponent(name string) *Logger {
	return &Logger{zl: l.zl.With().Str("component", name).Logger()}
}

var global atomic.Pointer[Logger]

// Init replaces the process-wide logger used by services
func Init(level, format string) {
	global.Store(New(level, format))
}

// GetLogger returns the process-wide logger. Before Init it is a JSON
// logger at info level.
func GetLogger() *Logger {
	if l := global.Load(); l != nil {
		return l
	}
	global.CompareAndSwap(nil, New("info", "json"))
	return global.Load()
}
