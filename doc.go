// Package log4you provides a thin, concurrency-safe logging facade over
// rs/zerolog in which every emitted entry carries a unique, time-sortable
// log_id for correlation and traceability.
//
// Key features
//   - UUIDv7-derived log IDs: 32 lowercase hex chars, lexically sortable
//     by creation time, generated per entry or pinned per span
//   - Printf-style leveled helpers (Infof, Errorf, ...) that stamp a fresh
//     log_id, plus ...fID variants that accept a caller-supplied one
//   - Structured surface via InfoWith()/ErrorWith()/... returning typed
//     fluent events, and With()/WithID() for per-request context loggers
//   - Process-wide Init that configures the backend from a YAML file (or
//     built-in console defaults) exactly once under concurrent callers
//   - File rotation via lumberjack and configurable console formatting
//   - Graceful shutdown that waits for in-flight logs (bounded timeout)
//
// Typical usage
//
//	id := log4you.NewLogID()
//	if err := log4you.Init(id, "config/log4you.yaml", "payments"); err != nil {
//		panic(err)
//	}
//
//	log4you.Info("service started")
//	log4you.InfoWithID(id, "still the same request")
//
//	svc := log4you.Default()
//	svc.InfoWith().Str("user_id", uid).Msg("processed")
//	req := svc.WithID(log4you.NewLogID()).Str("route", "/pay").Logger()
//	req.ErrorWith().Err(err).Msg("failed")
package log4you
