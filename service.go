package log4you

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.uber.org/atomic"
)

// Service owns one configured zerolog backend. The zero value plus a Config
// is usable: call Initialize once (concurrent calls are safe, only the first
// takes effect) and Close at shutdown. All logging methods are safe on an
// uninitialized or closed Service and never return errors to the caller.
type Service struct {
	Config      *Config
	ServiceName string
	// WorkingDir anchors the relative log directory. Defaults to the
	// process working directory when empty.
	WorkingDir string

	logger        atomic.Pointer[zerolog.Logger]
	plainLogger   atomic.Pointer[zerolog.Logger]
	fileWriter    io.Closer
	initOnce      sync.Once
	initErr       error
	isInitialized atomic.Bool
	mu            sync.RWMutex
	wg            sync.WaitGroup
	activeOps     atomic.Int32
}

// NewService returns a Service for the given configuration. A nil cfg
// selects the built-in defaults at Initialize time.
func NewService(cfg *Config, serviceName string) *Service {
	return &Service{Config: cfg, ServiceName: serviceName}
}

// Initialize configures the backend exactly once. Repeated and concurrent
// calls return the outcome of the first one and never reconfigure.
func (s *Service) Initialize() error {
	if s == nil {
		return errors.New(errMsgNilService)
	}
	s.initOnce.Do(func() {
		s.initErr = s.initialize()
	})
	return s.initErr
}

func (s *Service) initialize() error {
	if s.Config == nil {
		s.Config = DefaultConfig()
	}
	if err := validateConfig(s.Config); err != nil {
		return err
	}

	writers, err := s.initializeWriters()
	if err != nil {
		return err
	}
	if len(writers) == 0 {
		return errors.New(errMsgNoWriters)
	}

	level, err := parseLevel(s.Config.Level)
	if err != nil {
		return fmt.Errorf("setting logging level: %w", err)
	}

	ctx := zerolog.New(io.MultiWriter(writers...)).Level(level).With()
	if s.Config.WithTimestamp {
		ctx = ctx.Timestamp()
	}
	if s.ServiceName != emptyString {
		ctx = ctx.Str(FieldService, s.ServiceName)
	}

	// Dump walks values recursively, so no fixed frame skip could point a
	// caller field at the Dump call site; its entries carry no caller.
	plain := ctx.Logger()
	s.plainLogger.Store(&plain)

	if s.Config.WithCaller {
		// One wrapper frame sits between the caller and the zerolog event on
		// the structured surface; the printf surface adds its own via
		// CallerSkipFrame.
		ctx = ctx.CallerWithSkipFrameCount(zerolog.CallerSkipFrameCount + 1 + s.Config.CallerSkipFrames)
	}
	logger := ctx.Logger()

	s.logger.Store(&logger)
	s.isInitialized.Store(true)
	return nil
}

// Close waits for in-flight log events up to the configured shutdown timeout,
// then releases the file writer. It's safe to call Close multiple times and
// on a nil or never-initialized Service.
func (s *Service) Close() error {
	if s == nil {
		return nil
	}
	if !s.isInitialized.CompareAndSwap(true, false) {
		return nil
	}

	timeout := 500 * time.Millisecond
	warn := false
	if s.Config != nil {
		timeout = time.Duration(s.Config.ShutdownTimeoutMS) * time.Millisecond
		warn = s.Config.ShutdownTimeoutWarning
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(timeout):
		if warn {
			if logger := s.logger.Load(); logger != nil {
				logger.Warn().
					Str(FieldLogID, NewLogID()).
					Int32("active_operations", s.activeOps.Load()).
					Msg("Logger shutdown timeout exceeded")
			}
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.logger.Store(nil)
	s.plainLogger.Store(nil)
	if s.fileWriter != nil {
		err := s.fileWriter.Close()
		s.fileWriter = nil
		return err
	}
	return nil
}

// ActiveOperations reports the number of log events currently in flight.
func (s *Service) ActiveOperations() int32 {
	if s == nil {
		return 0
	}
	return s.activeOps.Load()
}

// Printf-style surface. Each call emits one entry stamped with a freshly
// generated log_id; the ...fID variants stamp the supplied one instead.

func (s *Service) Tracef(format string, args ...interface{}) {
	s.logf(zerolog.TraceLevel, emptyString, format, args...)
}

func (s *Service) Debugf(format string, args ...interface{}) {
	s.logf(zerolog.DebugLevel, emptyString, format, args...)
}

func (s *Service) Infof(format string, args ...interface{}) {
	s.logf(zerolog.InfoLevel, emptyString, format, args...)
}

func (s *Service) Warnf(format string, args ...interface{}) {
	s.logf(zerolog.WarnLevel, emptyString, format, args...)
}

func (s *Service) Errorf(format string, args ...interface{}) {
	s.logf(zerolog.ErrorLevel, emptyString, format, args...)
}

// Fatalf logs and then exits. On an uninitialized Service the message still
// reaches stderr before the exit.
func (s *Service) Fatalf(format string, args ...interface{}) {
	s.logf(zerolog.FatalLevel, emptyString, format, args...)
}

func (s *Service) TracefID(logID, format string, args ...interface{}) {
	s.logf(zerolog.TraceLevel, logID, format, args...)
}

func (s *Service) DebugfID(logID, format string, args ...interface{}) {
	s.logf(zerolog.DebugLevel, logID, format, args...)
}

func (s *Service) InfofID(logID, format string, args ...interface{}) {
	s.logf(zerolog.InfoLevel, logID, format, args...)
}

func (s *Service) WarnfID(logID, format string, args ...interface{}) {
	s.logf(zerolog.WarnLevel, logID, format, args...)
}

func (s *Service) ErrorfID(logID, format string, args ...interface{}) {
	s.logf(zerolog.ErrorLevel, logID, format, args...)
}

func (s *Service) FatalfID(logID, format string, args ...interface{}) {
	s.logf(zerolog.FatalLevel, logID, format, args...)
}

// logf is the single dispatch point of the printf surface. Both the Service
// methods and the package-level helpers sit exactly one frame above it.
func (s *Service) logf(level zerolog.Level, logID string, format string, args ...interface{}) {
	if s == nil || !s.isInitialized.Load() {
		if level == zerolog.FatalLevel {
			_, _ = fmt.Fprintf(os.Stderr, "FATAL: "+format+"\n", args...)
			os.Exit(1)
		}
		return
	}

	s.activeOps.Add(1)
	s.wg.Add(1)
	defer func() {
		s.activeOps.Add(-1)
		s.wg.Done()
	}()

	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isInitialized.Load() {
		return
	}
	logger := s.logger.Load()
	if logger == nil {
		if level == zerolog.FatalLevel {
			_, _ = fmt.Fprintf(os.Stderr, "FATAL: "+format+"\n", args...)
			os.Exit(1)
		}
		return
	}
	if logger.GetLevel() > level {
		return
	}

	event := levelEvent(logger, level)
	if event == nil {
		return
	}

	if logID == emptyString {
		logID = NewLogID()
	}
	event.CallerSkipFrame(1).Str(FieldLogID, logID).Msgf(format, args...)
}

// Structured surface. Events are stamped with a fresh log_id; the ...WithID
// variants stamp the supplied one.

func (s *Service) TraceWith() LogEvent {
	return logEventBuilder(s, zerolog.TraceLevel, emptyString)
}

func (s *Service) DebugWith() LogEvent {
	return logEventBuilder(s, zerolog.DebugLevel, emptyString)
}

// InfoWith returns a LogEvent for structured Info-level logging.
// Example: svc.InfoWith().Str("user_id", id).Int("count", 5).Msg("processed")
func (s *Service) InfoWith() LogEvent {
	return logEventBuilder(s, zerolog.InfoLevel, emptyString)
}

func (s *Service) WarnWith() LogEvent {
	return logEventBuilder(s, zerolog.WarnLevel, emptyString)
}

// ErrorWith returns a LogEvent for structured Error-level logging.
// Example: svc.ErrorWith().Err(err).Str("operation", "database").Msg("query failed")
func (s *Service) ErrorWith() LogEvent {
	return logEventBuilder(s, zerolog.ErrorLevel, emptyString)
}

// FatalWith returns a LogEvent for structured Fatal-level logging.
// The program exits after the event's Msg/Send is written.
func (s *Service) FatalWith() LogEvent {
	return logEventBuilder(s, zerolog.FatalLevel, emptyString)
}

func (s *Service) TraceWithID(logID string) LogEvent {
	return logEventBuilder(s, zerolog.TraceLevel, logID)
}

func (s *Service) DebugWithID(logID string) LogEvent {
	return logEventBuilder(s, zerolog.DebugLevel, logID)
}

func (s *Service) InfoWithID(logID string) LogEvent {
	return logEventBuilder(s, zerolog.InfoLevel, logID)
}

func (s *Service) WarnWithID(logID string) LogEvent {
	return logEventBuilder(s, zerolog.WarnLevel, logID)
}

func (s *Service) ErrorWithID(logID string) LogEvent {
	return logEventBuilder(s, zerolog.ErrorLevel, logID)
}

func (s *Service) FatalWithID(logID string) LogEvent {
	return logEventBuilder(s, zerolog.FatalLevel, logID)
}

// With returns a LogContext for creating a child logger with pre-populated
// fields. Events from the child logger each carry their own fresh log_id.
func (s *Service) With() LogContext {
	return s.withContext(emptyString)
}

// WithID is like With but pins logID on every event of the resulting logger,
// correlating all lines of one logical operation (e.g. one request).
func (s *Service) WithID(logID string) LogContext {
	return s.withContext(logID)
}

func (s *Service) withContext(logID string) LogContext {
	if s == nil || !s.isInitialized.Load() {
		return &noopLogContext{}
	}
	logger := s.logger.Load()
	if logger == nil {
		return &noopLogContext{}
	}

	ctx := logger.With()
	if logID != emptyString {
		ctx = ctx.Str(FieldLogID, logID)
	}
	return &logContext{
		context:  ctx,
		service:  s,
		pinnedID: logID,
	}
}
