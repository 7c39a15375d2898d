package log4you

// Logger is the structured surface shared by the Service and the context
// loggers created through With()/WithID(). Every event it produces carries a
// log_id: a fresh one per event, or the pinned one for span loggers created
// via WithID.
type Logger interface {
	TraceWith() LogEvent
	DebugWith() LogEvent
	InfoWith() LogEvent
	WarnWith() LogEvent
	ErrorWith() LogEvent
	FatalWith() LogEvent

	// With creates a new logger with pre-populated fields included in all
	// subsequent logs; each event still gets its own fresh log_id.
	With() LogContext

	// WithID is like With but pins logID on every event of the returned
	// logger, correlating all lines of one logical operation.
	// Example: req := logger.WithID(log4you.NewLogID()).Str("route", p).Logger()
	WithID(logID string) LogContext
}
