package log4you

import (
	stderrs "errors"
	"strings"

	"github.com/rs/zerolog"
)

// parseLevel parses a string log level into a zerolog.Level.
// Returns zerolog.NoLevel and an error if parsing fails.
func parseLevel(level string) (zerolog.Level, error) {
	l, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.NoLevel, err
	}
	return l, nil
}

// buildErrorChain walks an error's unwrap chain and returns the messages
// outermost -> innermost plus the root cause message. It guards against
// excessive depth and repeated messages to avoid cycles.
func buildErrorChain(err error) (chain []string, root string) {
	const maxDepth = 50
	seen := map[string]bool{}

	for err != nil && len(chain) < maxDepth {
		msg := err.Error()
		if seen[msg] {
			break
		}
		seen[msg] = true
		chain = append(chain, msg)
		err = stderrs.Unwrap(err)
	}

	if len(chain) > 0 {
		root = chain[len(chain)-1]
	}
	return
}

// joinChain returns a single string for the error chain separated by " -> ".
func joinChain(chain []string) string {
	if len(chain) == 0 {
		return emptyString
	}
	return strings.Join(chain, " -> ")
}

// logEventBuilder creates a log event for the given level, stamped with the
// supplied log ID or a freshly generated one when logID is empty. It uses
// reference counting so the logger remains valid for the duration of the
// logging operation, preventing races with Close(). If the level is disabled
// or the service is not initialized it returns a no-op LogEvent.
func logEventBuilder(s *Service, level zerolog.Level, logID string) LogEvent {
	if s == nil || !s.isInitialized.Load() {
		return newLogEvent(nil)
	}
	if level == zerolog.NoLevel {
		return newLogEvent(nil)
	}

	// Count the in-flight operation before taking the lock so Close can drain.
	s.activeOps.Add(1)
	s.wg.Add(1)

	s.mu.RLock()

	release := func() {
		s.mu.RUnlock()
		s.activeOps.Add(-1)
		s.wg.Done()
	}

	// Double-check after acquiring the lock
	if !s.isInitialized.Load() {
		release()
		return newLogEvent(nil)
	}

	logger := s.logger.Load()
	if logger == nil {
		release()
		return newLogEvent(nil)
	}

	if logger.GetLevel() > level {
		release()
		return newLogEvent(nil)
	}

	event := levelEvent(logger, level)
	if event == nil {
		release()
		return newLogEvent(nil)
	}

	s.mu.RUnlock()

	if logID == emptyString {
		logID = NewLogID()
	}
	event.Str(FieldLogID, logID)

	return newTrackedLogEvent(event, s, logID)
}

func levelEvent(logger *zerolog.Logger, level zerolog.Level) *zerolog.Event {
	switch level {
	case zerolog.TraceLevel:
		return logger.Trace()
	case zerolog.DebugLevel:
		return logger.Debug()
	case zerolog.InfoLevel:
		return logger.Info()
	case zerolog.WarnLevel:
		return logger.Warn()
	case zerolog.ErrorLevel:
		return logger.Error()
	case zerolog.FatalLevel:
		return logger.Fatal()
	case zerolog.PanicLevel:
		return logger.Panic()
	default:
		return nil
	}
}
