package log4you

import (
	"sync"

	"github.com/rs/zerolog"
	"go.uber.org/atomic"
)

var (
	defaultService atomic.Pointer[Service]

	fallbackOnce sync.Once
	fallback     *Service
)

// Init configures the process-wide logger from the YAML file at configPath,
// or from the built-in console defaults when configPath is empty. logID tags
// the initialization entry itself and is the identifier to reuse for startup
// correlation; serviceName tags every entry with the logical origin for
// multi-service aggregation (empty means untagged).
//
// Exactly one configuration takes effect per process. Concurrent and repeated
// calls are safe: losers discard their configuration and return nil. A
// missing or malformed config file is an error the caller should treat as
// fatal at startup.
func Init(logID, configPath, serviceName string) error {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return err
	}

	svc := NewService(cfg, serviceName)
	if err := svc.Initialize(); err != nil {
		return err
	}

	if !defaultService.CompareAndSwap(nil, svc) {
		// Already configured; first one wins.
		_ = svc.Close()
		return nil
	}

	if configPath != emptyString {
		svc.InfofID(logID, "logger initialized from %s", configPath)
	} else {
		svc.InfofID(logID, "logger initialized with default config")
	}
	return nil
}

// Default returns the process-wide Service configured by Init. Before Init
// has succeeded it returns a shared console logger at the default level, so
// early log calls are never lost and never crash.
func Default() *Service {
	if svc := defaultService.Load(); svc != nil {
		return svc
	}
	fallbackOnce.Do(func() {
		fallback = NewService(DefaultConfig(), emptyString)
		_ = fallback.Initialize()
	})
	return fallback
}

// CloseDefault drains and releases the process-wide logger. Mostly useful in
// tests and controlled shutdowns; the backend flushes on process exit anyway.
func CloseDefault() error {
	if svc := defaultService.Swap(nil); svc != nil {
		return svc.Close()
	}
	return nil
}

// Package-level leveled helpers. Each emits one entry through the
// process-wide Service with a freshly generated log_id; the ...WithID
// variants carry the supplied identifier instead.

func Trace(format string, args ...interface{}) {
	Default().logf(zerolog.TraceLevel, emptyString, format, args...)
}

func Debug(format string, args ...interface{}) {
	Default().logf(zerolog.DebugLevel, emptyString, format, args...)
}

func Info(format string, args ...interface{}) {
	Default().logf(zerolog.InfoLevel, emptyString, format, args...)
}

func Warn(format string, args ...interface{}) {
	Default().logf(zerolog.WarnLevel, emptyString, format, args...)
}

func Error(format string, args ...interface{}) {
	Default().logf(zerolog.ErrorLevel, emptyString, format, args...)
}

// Fatal logs through the process-wide Service and exits.
func Fatal(format string, args ...interface{}) {
	Default().logf(zerolog.FatalLevel, emptyString, format, args...)
}

func TraceWithID(logID, format string, args ...interface{}) {
	Default().logf(zerolog.TraceLevel, logID, format, args...)
}

func DebugWithID(logID, format string, args ...interface{}) {
	Default().logf(zerolog.DebugLevel, logID, format, args...)
}

func InfoWithID(logID, format string, args ...interface{}) {
	Default().logf(zerolog.InfoLevel, logID, format, args...)
}

func WarnWithID(logID, format string, args ...interface{}) {
	Default().logf(zerolog.WarnLevel, logID, format, args...)
}

func ErrorWithID(logID, format string, args ...interface{}) {
	Default().logf(zerolog.ErrorLevel, logID, format, args...)
}

func FatalWithID(logID, format string, args ...interface{}) {
	Default().logf(zerolog.FatalLevel, logID, format, args...)
}
