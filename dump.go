package log4you

import (
	"fmt"
	"reflect"

	"github.com/rs/zerolog"
)

// Maximum recursion depth to prevent stack overflow
const maxDumpDepth = 10

// Dump logs the contents of the provided value at Debug level, one line per
// field or element. All lines of a single Dump call share one freshly
// generated log_id so a dumped structure stays correlated in the output.
// Structs are walked through their exported fields; maps, slices and arrays
// through their elements; everything else is printed verbatim.
func (s *Service) Dump(v interface{}) {
	if s == nil || !s.isInitialized.Load() {
		return
	}

	s.activeOps.Add(1)
	s.wg.Add(1)
	defer func() {
		s.activeOps.Add(-1)
		s.wg.Done()
	}()

	// Hold the read lock for the whole walk so Close() cannot release the
	// writers mid-dump.
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isInitialized.Load() {
		return
	}

	// The plain logger carries no caller hook: dump lines are emitted from
	// the recursive walk, never from the Dump call site.
	logger := s.plainLogger.Load()
	if logger == nil {
		logger = s.logger.Load()
	}
	if logger == nil {
		return
	}

	dumpLogger := logger.With().Str(FieldLogID, NewLogID()).Logger()

	if v == nil {
		dumpLogger.Debug().Msg("Dump: <nil>")
		return
	}

	visited := make(map[uintptr]bool)
	dumpValue(&dumpLogger, v, emptyString, visited, 0)
}

// dumpValue is a recursive helper for Dump. visited tracks pointers already
// walked so circular structures terminate.
func dumpValue(logger *zerolog.Logger, v interface{}, prefix string, visited map[uintptr]bool, depth int) {
	if depth > maxDumpDepth {
		logger.Debug().Msgf("%s: <max depth reached>", prefix)
		return
	}

	if v == nil {
		logger.Debug().Msgf("%s: <nil>", prefix)
		return
	}

	val := reflect.ValueOf(v)

	// Unwrap interfaces and pointers with cycle detection before looking at
	// the concrete kind.
	for {
		switch val.Kind() {
		case reflect.Interface:
			if val.IsNil() {
				logger.Debug().Msgf("%s: <nil>", prefix)
				return
			}
			val = val.Elem()
			continue
		case reflect.Ptr:
			if val.IsNil() {
				logger.Debug().Msgf("%s: <nil>", prefix)
				return
			}
			ptr := val.Pointer()
			if visited[ptr] {
				logger.Debug().Msgf("%s: <circular reference>", prefix)
				return
			}
			visited[ptr] = true
			val = val.Elem()
		default:
		}
		break
	}

	typ := val.Type()

	switch val.Kind() {
	case reflect.Struct:
		structName := typ.Name()
		if prefix == emptyString {
			logger.Debug().Msgf("Struct: %s", structName)
		} else {
			logger.Debug().Msgf("%s: %s {", prefix, structName)
		}

		for i := 0; i < val.NumField(); i++ {
			field := typ.Field(i)
			fieldVal := val.Field(i)

			// Skip unexported fields
			if !fieldVal.CanInterface() {
				continue
			}

			fieldPrefix := field.Name
			if prefix != emptyString {
				fieldPrefix = prefix + "." + field.Name
			}

			dumpValue(logger, fieldVal.Interface(), fieldPrefix, visited, depth+1)
		}

		if prefix != emptyString {
			logger.Debug().Msgf("%s: }", prefix)
		}

	case reflect.Map:
		logger.Debug().Msgf("%s: map[%s]%s (len: %d) {",
			prefix, typ.Key().String(), typ.Elem().String(), val.Len())

		iter := val.MapRange()
		for iter.Next() {
			keyStr := fmt.Sprintf("%v", iter.Key().Interface())
			dumpValue(logger, iter.Value().Interface(), prefix+"["+keyStr+"]", visited, depth+1)
		}

		logger.Debug().Msgf("%s: }", prefix)

	case reflect.Slice, reflect.Array:
		logger.Debug().Msgf("%s: %s (len: %d, cap: %d) {",
			prefix, typ.String(), val.Len(), val.Cap())

		// Cap the element count so a large slice doesn't flood the output
		const maxElements = 10
		for i := 0; i < val.Len() && i < maxElements; i++ {
			elemPrefix := fmt.Sprintf("%s[%d]", prefix, i)
			elem := val.Index(i)
			if elem.CanInterface() {
				dumpValue(logger, elem.Interface(), elemPrefix, visited, depth+1)
			}
		}

		if val.Len() > maxElements {
			logger.Debug().Msgf("%s: ... (%d more elements)", prefix, val.Len()-maxElements)
		}

		logger.Debug().Msgf("%s: }", prefix)

	default:
		if val.IsValid() && val.CanInterface() {
			logger.Debug().Msgf("%s: %v", prefix, val.Interface())
		} else {
			logger.Debug().Msgf("%s: %v", prefix, v)
		}
	}
}
