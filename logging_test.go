package log4you

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newBufferService wires a Service directly to the given writer, bypassing
// the appender setup so tests can capture and decode emitted JSON lines.
func newBufferService(t *testing.T, cfg *Config, w io.Writer) *Service {
	t.Helper()
	if cfg == nil {
		cfg = DefaultConfig()
	}

	svc := NewService(cfg, "testsvc")
	svc.initOnce.Do(func() {
		level, err := parseLevel(cfg.Level)
		require.NoError(t, err)
		logger := zerolog.New(w).Level(level).With().Str(FieldService, svc.ServiceName).Logger()
		svc.logger.Store(&logger)
		svc.isInitialized.Store(true)
	})
	return svc
}

// decodeLogLines decodes newline-delimited JSON log output.
func decodeLogLines(t *testing.T, data []byte) []map[string]any {
	t.Helper()
	var entries []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		if line == emptyString {
			continue
		}
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry), "line: %s", line)
		entries = append(entries, entry)
	}
	return entries
}

func TestService_Initialize(t *testing.T) {
	t.Run("successful initialization", func(t *testing.T) {
		svc := NewService(DefaultConfig(), "svc")
		require.NoError(t, svc.Initialize())
		defer svc.Close()

		assert.True(t, svc.isInitialized.Load())
		assert.NotNil(t, svc.logger.Load())
	})

	t.Run("nil service", func(t *testing.T) {
		var svc *Service
		err := svc.Initialize()
		require.Error(t, err)
		assert.Contains(t, err.Error(), errMsgNilService)
	})

	t.Run("nil config uses defaults", func(t *testing.T) {
		svc := &Service{}
		require.NoError(t, svc.Initialize())
		defer svc.Close()
		assert.Equal(t, "info", svc.Config.Level)
	})

	t.Run("invalid level", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Level = "loud"
		svc := NewService(cfg, emptyString)
		err := svc.Initialize()
		require.Error(t, err)
		assert.Contains(t, err.Error(), errMsgConfigInvalid)
	})

	t.Run("multiple initialize calls", func(t *testing.T) {
		svc := NewService(DefaultConfig(), emptyString)
		require.NoError(t, svc.Initialize())
		defer svc.Close()
		require.NoError(t, svc.Initialize())
		assert.True(t, svc.isInitialized.Load())
	})

	t.Run("concurrent initialize is exactly once", func(t *testing.T) {
		svc := NewService(DefaultConfig(), emptyString)
		defer svc.Close()

		var wg sync.WaitGroup
		errs := make([]error, 20)
		for i := range errs {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				errs[i] = svc.Initialize()
			}(i)
		}
		wg.Wait()

		for _, err := range errs {
			assert.NoError(t, err)
		}
		assert.True(t, svc.isInitialized.Load())
		assert.NotNil(t, svc.logger.Load())
	})

	t.Run("with file logging", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.ConsoleLogging = false
		cfg.FileLogging = true

		svc := NewService(cfg, "filetest")
		svc.WorkingDir = t.TempDir()
		require.NoError(t, svc.Initialize())
		defer svc.Close()

		assert.NotNil(t, svc.fileWriter)
	})

	t.Run("both appenders disabled forces file logging", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.ConsoleLogging = false
		cfg.FileLogging = false

		svc := NewService(cfg, "forced")
		svc.WorkingDir = t.TempDir()
		require.NoError(t, svc.Initialize())
		defer svc.Close()

		assert.True(t, svc.Config.FileLogging)
		assert.NotNil(t, svc.fileWriter)
	})
}

func TestService_FileLoggingWritesEntries(t *testing.T) {
	tmp := t.TempDir()
	cfg := DefaultConfig()
	cfg.ConsoleLogging = false
	cfg.FileLogging = true

	svc := NewService(cfg, "filetest")
	svc.WorkingDir = tmp
	require.NoError(t, svc.Initialize())

	svc.Infof("written to disk")
	require.NoError(t, svc.Close())

	data, err := os.ReadFile(filepath.Join(tmp, "logs", "filetest.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "written to disk")
	assert.Contains(t, string(data), FieldLogID)
}

func TestService_Close(t *testing.T) {
	t.Run("successful close", func(t *testing.T) {
		svc := NewService(DefaultConfig(), emptyString)
		require.NoError(t, svc.Initialize())

		require.NoError(t, svc.Close())
		assert.False(t, svc.isInitialized.Load())
		assert.Nil(t, svc.logger.Load())
	})

	t.Run("close nil service", func(t *testing.T) {
		var svc *Service
		assert.NoError(t, svc.Close())
	})

	t.Run("close uninitialized service", func(t *testing.T) {
		svc := &Service{}
		assert.NoError(t, svc.Close())
	})

	t.Run("multiple close calls", func(t *testing.T) {
		svc := NewService(DefaultConfig(), emptyString)
		require.NoError(t, svc.Initialize())

		assert.NoError(t, svc.Close())
		assert.NoError(t, svc.Close())
	})
}

func TestService_CloseWithTimeoutWarning(t *testing.T) {
	var buf threadSafeBuffer
	cfg := DefaultConfig()
	cfg.Level = "debug"
	cfg.ShutdownTimeoutMS = 10
	cfg.ShutdownTimeoutWarning = true

	svc := newBufferService(t, cfg, &buf)

	// Orphan an event so the in-flight count never drains
	_ = svc.InfoWith()

	start := time.Now()
	require.NoError(t, svc.Close())
	assert.GreaterOrEqual(t, int64(time.Since(start)/time.Millisecond), int64(cfg.ShutdownTimeoutMS))

	output := buf.String()
	assert.Contains(t, output, "Logger shutdown timeout exceeded")
	assert.Contains(t, output, "active_operations")
}

func TestService_CloseWaitsForLogs(t *testing.T) {
	var buf threadSafeBuffer
	cfg := DefaultConfig()
	cfg.ShutdownTimeoutMS = 1000

	svc := newBufferService(t, cfg, &buf)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		time.Sleep(20 * time.Millisecond)
		svc.Infof("final log message")
	}()
	wg.Wait()

	require.NoError(t, svc.Close())
	assert.Contains(t, buf.String(), "final log message")
}

func TestService_ImplicitLogID(t *testing.T) {
	var buf bytes.Buffer
	svc := newBufferService(t, nil, &buf)

	svc.Infof("first")
	svc.Infof("second")

	entries := decodeLogLines(t, buf.Bytes())
	require.Len(t, entries, 2)

	id1, _ := entries[0][FieldLogID].(string)
	id2, _ := entries[1][FieldLogID].(string)
	assert.Regexp(t, logIDPattern, id1)
	assert.Regexp(t, logIDPattern, id2)
	assert.NotEqual(t, id1, id2, "each entry must get a fresh log id")
}

func TestService_ExplicitLogID(t *testing.T) {
	t.Run("printf surface", func(t *testing.T) {
		var buf bytes.Buffer
		svc := newBufferService(t, nil, &buf)

		svc.InfofID("my-custom-id", "hello %s", "world")

		entries := decodeLogLines(t, buf.Bytes())
		require.Len(t, entries, 1)
		assert.Equal(t, "my-custom-id", entries[0][FieldLogID])
		assert.Equal(t, "hello world", entries[0][zerolog.MessageFieldName])
	})

	t.Run("structured surface", func(t *testing.T) {
		var buf bytes.Buffer
		svc := newBufferService(t, nil, &buf)

		id := NewLogID()
		ev := svc.InfoWithID(id)
		assert.Equal(t, id, ev.LogID())
		ev.Str("k", "v").Msg("structured")

		entries := decodeLogLines(t, buf.Bytes())
		require.Len(t, entries, 1)
		assert.Equal(t, id, entries[0][FieldLogID])
		assert.Equal(t, "v", entries[0]["k"])
	})
}

func TestService_LevelFiltering(t *testing.T) {
	// Default config logs at info: debug entries must be suppressed.
	var buf bytes.Buffer
	svc := newBufferService(t, DefaultConfig(), &buf)

	svc.Debugf("invisible debug")
	svc.Infof("visible info")
	svc.DebugWith().Msg("invisible structured debug")
	svc.InfoWith().Msg("visible structured info")

	output := buf.String()
	assert.NotContains(t, output, "invisible")
	assert.Contains(t, output, "visible info")
	assert.Contains(t, output, "visible structured info")

	for _, entry := range decodeLogLines(t, buf.Bytes()) {
		assert.Contains(t, entry, FieldLogID)
	}
}

func TestService_ServiceNameField(t *testing.T) {
	var buf bytes.Buffer
	svc := newBufferService(t, nil, &buf)

	svc.Infof("tagged")

	entries := decodeLogLines(t, buf.Bytes())
	require.Len(t, entries, 1)
	assert.Equal(t, "testsvc", entries[0][FieldService])
}

func TestService_UninitializedIsSafe(t *testing.T) {
	svc := &Service{}

	svc.Infof("should not panic")
	svc.Errorf("should not panic: %v", assert.AnError)
	svc.InfofID("id", "should not panic")
	svc.InfoWith().Str("k", "v").Msg("should not panic")
	svc.ErrorWithID("id").Msg("should not panic")
	svc.Dump("should not panic")

	logger := svc.With().Str("k", "v").Logger()
	logger.InfoWith().Msg("should not panic or log")

	assert.Equal(t, int32(0), svc.ActiveOperations())
}

func TestService_WithID_PinsSpan(t *testing.T) {
	var buf bytes.Buffer
	svc := newBufferService(t, nil, &buf)

	spanID := NewLogID()
	req := svc.WithID(spanID).Str("route", "/pay").Logger()

	req.InfoWith().Msg("line one")
	req.InfoWith().Int("step", 2).Msg("line two")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	for _, line := range lines {
		// exactly one identifier per entry, and it is the pinned one
		assert.Equal(t, 1, strings.Count(line, `"`+FieldLogID+`"`), "line: %s", line)
		assert.Contains(t, line, spanID)
	}

	entries := decodeLogLines(t, buf.Bytes())
	assert.Equal(t, spanID, entries[0][FieldLogID])
	assert.Equal(t, spanID, entries[1][FieldLogID])
	assert.Equal(t, "/pay", entries[0]["route"])
}

func TestService_With_FreshIDPerEvent(t *testing.T) {
	var buf bytes.Buffer
	svc := newBufferService(t, nil, &buf)

	child := svc.With().Str("component", "worker").Logger()
	child.InfoWith().Msg("one")
	child.InfoWith().Msg("two")

	entries := decodeLogLines(t, buf.Bytes())
	require.Len(t, entries, 2)
	assert.Equal(t, "worker", entries[0]["component"])
	assert.NotEqual(t, entries[0][FieldLogID], entries[1][FieldLogID])
}

func TestService_NestedContextKeepsPin(t *testing.T) {
	var buf bytes.Buffer
	svc := newBufferService(t, nil, &buf)

	spanID := NewLogID()
	req := svc.WithID(spanID).Logger()
	nested := req.With().Str("stage", "validate").Logger()

	nested.InfoWith().Msg("nested line")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)
	assert.Equal(t, 1, strings.Count(lines[0], `"`+FieldLogID+`"`))

	entries := decodeLogLines(t, buf.Bytes())
	assert.Equal(t, spanID, entries[0][FieldLogID])
	assert.Equal(t, "validate", entries[0]["stage"])
}

func TestConcurrentLogging(t *testing.T) {
	var buf threadSafeBuffer
	svc := newBufferService(t, nil, &buf)
	defer svc.Close()

	var wg sync.WaitGroup
	const goroutines = 10
	const logsPerGoroutine = 50

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < logsPerGoroutine; j++ {
				svc.InfoWith().Int("goroutine", id).Int("iteration", j).Msg("concurrent log")
				svc.Infof("concurrent printf %d/%d", id, j)
			}
		}(i)
	}
	wg.Wait()

	entries := decodeLogLines(t, buf.Bytes())
	assert.Len(t, entries, goroutines*logsPerGoroutine*2)

	seen := make(map[string]bool, len(entries))
	for _, entry := range entries {
		id, _ := entry[FieldLogID].(string)
		require.NotEmpty(t, id)
		assert.False(t, seen[id], "log id %s reused across entries", id)
		seen[id] = true
	}
}

func TestConcurrentLoggingAndClose(t *testing.T) {
	var buf threadSafeBuffer
	svc := newBufferService(t, nil, &buf)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				svc.InfoWith().Int("goroutine", id).Msg("log before close")
				time.Sleep(time.Microsecond)
			}
		}(i)
	}

	time.Sleep(2 * time.Millisecond)
	assert.NoError(t, svc.Close())
	wg.Wait()
}

func TestService_ActiveOperationsUnderLoad(t *testing.T) {
	var buf threadSafeBuffer
	cfg := DefaultConfig()
	cfg.ShutdownTimeoutMS = 2000
	svc := newBufferService(t, cfg, &buf)

	var wg sync.WaitGroup
	const goroutines = 20
	const iterations = 200

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < iterations; j++ {
				svc.InfoWith().Int("goroutine", id).Int("iteration", j).Msg("active-ops-test")
			}
		}(i)
	}

	stop := make(chan struct{})
	var monitor sync.WaitGroup
	monitor.Add(1)
	go func() {
		defer monitor.Done()
		for {
			select {
			case <-stop:
				return
			default:
				assert.GreaterOrEqual(t, svc.ActiveOperations(), int32(0))
				time.Sleep(time.Millisecond)
			}
		}
	}()

	wg.Wait()
	close(stop)
	monitor.Wait()

	require.NoError(t, svc.Close())
	assert.GreaterOrEqual(t, svc.ActiveOperations(), int32(0))
}

func TestService_Dump(t *testing.T) {
	var buf bytes.Buffer
	cfg := DefaultConfig()
	cfg.Level = "debug"
	svc := newBufferService(t, cfg, &buf)

	t.Run("dump nil", func(t *testing.T) {
		svc.Dump(nil)
	})

	t.Run("dump struct shares one log id", func(t *testing.T) {
		buf.Reset()
		type testStruct struct {
			Name  string
			Value int
		}
		svc.Dump(testStruct{Name: "test", Value: 42})

		entries := decodeLogLines(t, buf.Bytes())
		require.NotEmpty(t, entries)
		first, _ := entries[0][FieldLogID].(string)
		require.NotEmpty(t, first)
		for _, entry := range entries {
			assert.Equal(t, first, entry[FieldLogID])
		}
	})

	t.Run("dump map", func(t *testing.T) {
		svc.Dump(map[string]int{"a": 1, "b": 2})
	})

	t.Run("dump slice caps elements", func(t *testing.T) {
		buf.Reset()
		s := make([]int, 20)
		for i := range s {
			s[i] = i
		}
		svc.Dump(s)
		assert.Contains(t, buf.String(), "more elements")
	})

	t.Run("dump circular reference", func(t *testing.T) {
		type node struct {
			Value int
			Next  *node
		}
		n1 := &node{Value: 1}
		n2 := &node{Value: 2}
		n1.Next = n2
		n2.Next = n1

		buf.Reset()
		svc.Dump(n1)
		assert.Contains(t, buf.String(), "circular reference")
	})

	t.Run("dump basic types", func(t *testing.T) {
		svc.Dump(42)
		svc.Dump("string")
		svc.Dump(true)
	})
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name     string
		level    string
		expected zerolog.Level
		wantErr  bool
	}{
		{"trace", "trace", zerolog.TraceLevel, false},
		{"debug", "debug", zerolog.DebugLevel, false},
		{"info", "info", zerolog.InfoLevel, false},
		{"warn", "warn", zerolog.WarnLevel, false},
		{"error", "error", zerolog.ErrorLevel, false},
		{"fatal", "fatal", zerolog.FatalLevel, false},
		{"panic", "panic", zerolog.PanicLevel, false},
		{"invalid", "loud", zerolog.NoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			level, err := parseLevel(tt.level)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.expected, level)
			}
		})
	}
}

func TestLogEventBuilder(t *testing.T) {
	t.Run("nil service", func(t *testing.T) {
		var svc *Service
		event := logEventBuilder(svc, zerolog.InfoLevel, emptyString)
		assert.NotNil(t, event)
		assert.Empty(t, event.LogID())
		event.Msg("should not panic")
	})

	t.Run("uninitialized service", func(t *testing.T) {
		event := logEventBuilder(&Service{}, zerolog.InfoLevel, emptyString)
		assert.NotNil(t, event)
		event.Msg("should not panic")
	})

	t.Run("no level", func(t *testing.T) {
		var buf bytes.Buffer
		svc := newBufferService(t, nil, &buf)
		event := logEventBuilder(svc, zerolog.NoLevel, emptyString)
		assert.NotNil(t, event)
		event.Msg("dropped")
		assert.Empty(t, buf.String())
	})

	t.Run("live event reports its id", func(t *testing.T) {
		var buf bytes.Buffer
		svc := newBufferService(t, nil, &buf)
		event := logEventBuilder(svc, zerolog.InfoLevel, emptyString)
		assert.Regexp(t, logIDPattern, event.LogID())
		event.Send()
	})
}

// threadSafeBuffer is a simple thread-safe buffer for capturing log output.
type threadSafeBuffer struct {
	bytes.Buffer
	sync.Mutex
}

func (b *threadSafeBuffer) Write(p []byte) (n int, err error) {
	b.Lock()
	defer b.Unlock()
	return b.Buffer.Write(p)
}

func (b *threadSafeBuffer) String() string {
	b.Lock()
	defer b.Unlock()
	return b.Buffer.String()
}

func (b *threadSafeBuffer) Bytes() []byte {
	b.Lock()
	defer b.Unlock()
	return append([]byte(nil), b.Buffer.Bytes()...)
}
