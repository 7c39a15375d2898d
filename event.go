package log4you

import (
	"time"

	"github.com/rs/zerolog"
)

// LogContext provides a fluent interface for building a context logger with
// pre-populated fields. Fields added through LogContext will be included in
// all subsequent log messages of the logger it creates.
type LogContext interface {
	Str(key, val string) LogContext
	Strs(key string, vals []string) LogContext
	Int(key string, val int) LogContext
	Int64(key string, val int64) LogContext
	Uint64(key string, val uint64) LogContext
	Float64(key string, val float64) LogContext
	Bool(key string, val bool) LogContext
	Time(key string, val time.Time) LogContext
	Dur(key string, val time.Duration) LogContext
	Err(err error) LogContext
	Interface(key string, val interface{}) LogContext
	// Logger creates and returns the new context logger
	Logger() Logger
}

// LogEvent provides a fluent interface for one structured log entry. Every
// live event already carries a log_id field when it is handed out; LogID
// reports it so callers can propagate the identifier (response headers,
// downstream calls) without parsing their own log output.
type LogEvent interface {
	Str(key, val string) LogEvent
	Strs(key string, vals []string) LogEvent
	Int(key string, val int) LogEvent
	Int64(key string, val int64) LogEvent
	Uint64(key string, val uint64) LogEvent
	Float64(key string, val float64) LogEvent
	Bool(key string, val bool) LogEvent
	Time(key string, val time.Time) LogEvent
	Dur(key string, val time.Duration) LogEvent
	Err(err error) LogEvent
	AnErr(key string, err error) LogEvent
	Bytes(key string, val []byte) LogEvent
	Hex(key string, val []byte) LogEvent
	Interface(key string, val interface{}) LogEvent
	Dict(key string, dict func(LogEvent)) LogEvent

	// LogID returns the identifier stamped on this event, or the empty
	// string when the event was discarded (disabled level, uninitialized
	// service).
	LogID() string

	Msg(msg string)
	Msgf(format string, v ...interface{})
	Send()
}

// logEvent implements LogEvent by wrapping zerolog.Event
type logEvent struct {
	event *zerolog.Event
	id    string
}

// trackedLogEvent decrements the service's in-flight counters when finished
type trackedLogEvent struct {
	logEvent
	service *Service
}

func newLogEvent(e *zerolog.Event) LogEvent {
	return &logEvent{event: e}
}

func newTrackedLogEvent(e *zerolog.Event, s *Service, logID string) LogEvent {
	if e == nil || s == nil {
		return &logEvent{event: nil}
	}
	return &trackedLogEvent{
		logEvent: logEvent{event: e, id: logID},
		service:  s,
	}
}

// newTrackedContextLogEvent creates a tracked log event for context loggers.
// A fresh log_id is stamped unless the context logger pinned one at creation,
// in which case the pinned id already lives in the logger's context fields.
func newTrackedContextLogEvent(cl *contextLogger, level zerolog.Level) LogEvent {
	if cl == nil || cl.logger == nil || cl.parent == nil {
		return newLogEvent(nil)
	}

	cl.parent.activeOps.Add(1)
	cl.parent.wg.Add(1)

	cl.parent.mu.RLock()

	release := func() {
		cl.parent.mu.RUnlock()
		cl.parent.activeOps.Add(-1)
		cl.parent.wg.Done()
	}

	if !cl.parent.isInitialized.Load() {
		release()
		return newLogEvent(nil)
	}

	if cl.logger.GetLevel() > level {
		release()
		return newLogEvent(nil)
	}

	event := levelEvent(cl.logger, level)
	if event == nil {
		release()
		return newLogEvent(nil)
	}

	cl.parent.mu.RUnlock()

	logID := cl.pinnedID
	if logID == emptyString {
		logID = NewLogID()
		event.Str(FieldLogID, logID)
	}

	return newTrackedLogEvent(event, cl.parent, logID)
}

func (e *logEvent) Str(key, val string) LogEvent {
	if e.event != nil {
		e.event.Str(key, val)
	}
	return e
}

func (e *logEvent) Strs(key string, vals []string) LogEvent {
	if e.event != nil {
		e.event.Strs(key, vals)
	}
	return e
}

func (e *logEvent) Int(key string, val int) LogEvent {
	if e.event != nil {
		e.event.Int(key, val)
	}
	return e
}

func (e *logEvent) Int64(key string, val int64) LogEvent {
	if e.event != nil {
		e.event.Int64(key, val)
	}
	return e
}

func (e *logEvent) Uint64(key string, val uint64) LogEvent {
	if e.event != nil {
		e.event.Uint64(key, val)
	}
	return e
}

func (e *logEvent) Float64(key string, val float64) LogEvent {
	if e.event != nil {
		e.event.Float64(key, val)
	}
	return e
}

func (e *logEvent) Bool(key string, val bool) LogEvent {
	if e.event != nil {
		e.event.Bool(key, val)
	}
	return e
}

func (e *logEvent) Time(key string, val time.Time) LogEvent {
	if e.event != nil {
		e.event.Time(key, val)
	}
	return e
}

func (e *logEvent) Dur(key string, val time.Duration) LogEvent {
	if e.event != nil {
		e.event.Dur(key, val)
	}
	return e
}

func (e *logEvent) Err(err error) LogEvent {
	if e.event != nil {
		e.event.Err(err)
		if err != nil {
			chain, root := buildErrorChain(err)
			if len(chain) > 0 {
				e.event.Strs("error_chain", chain)
				e.event.Str("error_root", root)
				e.event.Str("error_history", joinChain(chain))
			}
		}
	}
	return e
}

func (e *logEvent) AnErr(key string, err error) LogEvent {
	if e.event != nil {
		e.event.AnErr(key, err)
		if err != nil {
			chain, root := buildErrorChain(err)
			if len(chain) > 0 {
				e.event.Strs(key+"_chain", chain)
				e.event.Str(key+"_root", root)
				e.event.Str(key+"_history", joinChain(chain))
			}
		}
	}
	return e
}

func (e *logEvent) Bytes(key string, val []byte) LogEvent {
	if e.event != nil {
		e.event.Bytes(key, val)
	}
	return e
}

func (e *logEvent) Hex(key string, val []byte) LogEvent {
	if e.event != nil {
		e.event.Hex(key, val)
	}
	return e
}

func (e *logEvent) Interface(key string, val interface{}) LogEvent {
	if e.event != nil {
		e.event.Interface(key, val)
	}
	return e
}

// Dict for nested objects
func (e *logEvent) Dict(key string, dict func(LogEvent)) LogEvent {
	if e.event != nil {
		dictEvent := zerolog.Dict()
		dict(newLogEvent(dictEvent))
		e.event.Dict(key, dictEvent)
	}
	return e
}

func (e *logEvent) LogID() string {
	return e.id
}

func (e *logEvent) Msg(msg string) {
	if e.event != nil {
		e.event.Msg(msg)
	}
}

func (e *logEvent) Msgf(format string, v ...interface{}) {
	if e.event != nil {
		e.event.Msgf(format, v...)
	}
}

func (e *logEvent) Send() {
	if e.event != nil {
		e.event.Send()
	}
}

// Msg, Msgf and Send on trackedLogEvent release the in-flight counters.

func (e *trackedLogEvent) Msg(msg string) {
	defer func() {
		e.service.activeOps.Add(-1)
		e.service.wg.Done()
	}()
	if e.event != nil {
		e.event.Msg(msg)
	}
}

func (e *trackedLogEvent) Msgf(format string, v ...interface{}) {
	defer func() {
		e.service.activeOps.Add(-1)
		e.service.wg.Done()
	}()
	if e.event != nil {
		e.event.Msgf(format, v...)
	}
}

func (e *trackedLogEvent) Send() {
	defer func() {
		e.service.activeOps.Add(-1)
		e.service.wg.Done()
	}()
	if e.event != nil {
		e.event.Send()
	}
}

// logContext implements LogContext by wrapping zerolog.Context
type logContext struct {
	context  zerolog.Context
	service  *Service
	pinnedID string
}

// contextLogger wraps a zerolog.Logger created from a context. It delegates
// to the parent Service for lifecycle accounting so Close() can drain events
// issued through child loggers too.
type contextLogger struct {
	logger   *zerolog.Logger
	parent   *Service
	pinnedID string
}

func (cl *contextLogger) TraceWith() LogEvent {
	return newTrackedContextLogEvent(cl, zerolog.TraceLevel)
}

func (cl *contextLogger) DebugWith() LogEvent {
	return newTrackedContextLogEvent(cl, zerolog.DebugLevel)
}

func (cl *contextLogger) InfoWith() LogEvent {
	return newTrackedContextLogEvent(cl, zerolog.InfoLevel)
}

func (cl *contextLogger) WarnWith() LogEvent {
	return newTrackedContextLogEvent(cl, zerolog.WarnLevel)
}

func (cl *contextLogger) ErrorWith() LogEvent {
	return newTrackedContextLogEvent(cl, zerolog.ErrorLevel)
}

func (cl *contextLogger) FatalWith() LogEvent {
	return newTrackedContextLogEvent(cl, zerolog.FatalLevel)
}

func (cl *contextLogger) With() LogContext {
	return cl.withContext(emptyString)
}

func (cl *contextLogger) WithID(logID string) LogContext {
	return cl.withContext(logID)
}

func (cl *contextLogger) withContext(logID string) LogContext {
	if cl.logger == nil || cl.parent == nil || !cl.parent.isInitialized.Load() {
		return &noopLogContext{}
	}

	cl.parent.mu.RLock()
	defer cl.parent.mu.RUnlock()

	if !cl.parent.isInitialized.Load() {
		return &noopLogContext{}
	}

	ctx := cl.logger.With()
	pinned := cl.pinnedID
	if logID != emptyString {
		ctx = ctx.Str(FieldLogID, logID)
		pinned = logID
	}
	return &logContext{
		context:  ctx,
		service:  cl.parent,
		pinnedID: pinned,
	}
}

func (c *logContext) Str(key, val string) LogContext {
	c.context = c.context.Str(key, val)
	return c
}

func (c *logContext) Strs(key string, vals []string) LogContext {
	c.context = c.context.Strs(key, vals)
	return c
}

func (c *logContext) Int(key string, val int) LogContext {
	c.context = c.context.Int(key, val)
	return c
}

func (c *logContext) Int64(key string, val int64) LogContext {
	c.context = c.context.Int64(key, val)
	return c
}

func (c *logContext) Uint64(key string, val uint64) LogContext {
	c.context = c.context.Uint64(key, val)
	return c
}

func (c *logContext) Float64(key string, val float64) LogContext {
	c.context = c.context.Float64(key, val)
	return c
}

func (c *logContext) Bool(key string, val bool) LogContext {
	c.context = c.context.Bool(key, val)
	return c
}

func (c *logContext) Time(key string, val time.Time) LogContext {
	c.context = c.context.Time(key, val)
	return c
}

func (c *logContext) Dur(key string, val time.Duration) LogContext {
	c.context = c.context.Dur(key, val)
	return c
}

func (c *logContext) Err(err error) LogContext {
	c.context = c.context.Err(err)
	return c
}

func (c *logContext) Interface(key string, val interface{}) LogContext {
	c.context = c.context.Interface(key, val)
	return c
}

func (c *logContext) Logger() Logger {
	logger := c.context.Logger()
	return &contextLogger{
		logger:   &logger,
		parent:   c.service,
		pinnedID: c.pinnedID,
	}
}

// noopLogContext is a no-op implementation of LogContext
type noopLogContext struct{}

func (n *noopLogContext) Str(key, val string) LogContext               { return n }
func (n *noopLogContext) Strs(key string, vals []string) LogContext    { return n }
func (n *noopLogContext) Int(key string, val int) LogContext           { return n }
func (n *noopLogContext) Int64(key string, val int64) LogContext       { return n }
func (n *noopLogContext) Uint64(key string, val uint64) LogContext     { return n }
func (n *noopLogContext) Float64(key string, val float64) LogContext   { return n }
func (n *noopLogContext) Bool(key string, val bool) LogContext         { return n }
func (n *noopLogContext) Time(key string, val time.Time) LogContext    { return n }
func (n *noopLogContext) Dur(key string, val time.Duration) LogContext { return n }
func (n *noopLogContext) Err(err error) LogContext                     { return n }
func (n *noopLogContext) Interface(key string, val interface{}) LogContext {
	return n
}
func (n *noopLogContext) Logger() Logger { return &noopLogger{} }

// noopLogger is a no-op implementation of Logger
type noopLogger struct{}

func (n *noopLogger) TraceWith() LogEvent            { return newLogEvent(nil) }
func (n *noopLogger) DebugWith() LogEvent            { return newLogEvent(nil) }
func (n *noopLogger) InfoWith() LogEvent             { return newLogEvent(nil) }
func (n *noopLogger) WarnWith() LogEvent             { return newLogEvent(nil) }
func (n *noopLogger) ErrorWith() LogEvent            { return newLogEvent(nil) }
func (n *noopLogger) FatalWith() LogEvent            { return newLogEvent(nil) }
func (n *noopLogger) With() LogContext               { return &noopLogContext{} }
func (n *noopLogger) WithID(logID string) LogContext { return &noopLogContext{} }
