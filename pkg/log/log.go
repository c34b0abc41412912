// Package log provides structured logging for tensorpack built on
// github.com/rs/zerolog.
//
// Components obtain a named logger and attach structured context once:
//
//	logger := log.GetLoggerWithName("cmtf").With(
//		log.ModelNameKey, "CoupledTensor",
//		log.ComponentKey, "cmtf",
//	)
//	logger.Info("Sweep completed", log.SweepKey, 3, log.R2XKey, 0.91)
//
// Logging defaults to Warn level on stderr so library users see nothing
// unless they opt in via SetLevel.
package log

import (
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"
)

// Standard structured field keys.
const (
	ModelNameKey  = "model"
	ComponentKey  = "component"
	OperationKey  = "operation"
	PhaseKey      = "phase"
	DurationMsKey = "duration_ms"

	// Domain keys
	AxisKey     = "axis"
	VariableKey = "variable"
	SweepKey    = "sweep"
	RankKey     = "rank"
	R2XKey      = "r2x"
	DeltaKey    = "delta"
)

// Operation and phase values.
const (
	OperationInit  = "initialize"
	OperationFit   = "fit"
	OperationScore = "score"
	PhaseTraining  = "training"
)

// Logger is the logging interface exposed to tensorpack components.
// keysAndValues is an alternating key/value list; keys must be strings.
type Logger interface {
	Debug(msg string, keysAndValues ...interface{})
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	With(keysAndValues ...interface{}) Logger
}

var (
	mu   sync.RWMutex
	root = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(zerolog.WarnLevel).
		With().Timestamp().Logger()
)

// SetLevel sets the global log level ("debug", "info", "warn", "error").
// Unrecognized levels leave the current level unchanged.
func SetLevel(level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return
	}
	mu.Lock()
	root = root.Level(lvl)
	mu.Unlock()
}

// SetOutput replaces the root logger's writer. Useful in tests.
func SetOutput(w io.Writer) {
	mu.Lock()
	root = zerolog.New(w).With().Timestamp().Logger()
	mu.Unlock()
}

// GetLogger returns the root logger.
func GetLogger() Logger {
	mu.RLock()
	defer mu.RUnlock()
	return &zerologLogger{logger: root}
}

// GetLoggerWithName returns a logger tagged with a component name.
func GetLoggerWithName(name string) Logger {
	mu.RLock()
	defer mu.RUnlock()
	return &zerologLogger{logger: root.With().Str("logger", name).Logger()}
}

type zerologLogger struct {
	logger zerolog.Logger
}

func (l *zerologLogger) Debug(msg string, keysAndValues ...interface{}) {
	attach(l.logger.Debug(), keysAndValues).Msg(msg)
}

func (l *zerologLogger) Info(msg string, keysAndValues ...interface{}) {
	attach(l.logger.Info(), keysAndValues).Msg(msg)
}

func (l *zerologLogger) Warn(msg string, keysAndValues ...interface{}) {
	attach(l.logger.Warn(), keysAndValues).Msg(msg)
}

func (l *zerologLogger) Error(msg string, keysAndValues ...interface{}) {
	attach(l.logger.Error(), keysAndValues).Msg(msg)
}

func (l *zerologLogger) With(keysAndValues ...interface{}) Logger {
	ctx := l.logger.With()
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		ctx = ctx.Interface(key, keysAndValues[i+1])
	}
	return &zerologLogger{logger: ctx.Logger()}
}

func attach(ev *zerolog.Event, keysAndValues []interface{}) *zerolog.Event {
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		ev = ev.Interface(key, keysAndValues[i+1])
	}
	return ev
}
