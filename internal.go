package log4you

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// logFileName picks the base name of the rolling log file: the service name
// when set, otherwise the executable name, otherwise "app".
func (s *Service) logFileName() string {
	if s.ServiceName != emptyString {
		return s.ServiceName
	}
	if exe, err := os.Executable(); err == nil {
		return filepath.Base(exe)
	}
	return "app"
}

func (s *Service) initializeRollingFileLogger() (*lumberjack.Logger, error) {
	dir := s.Config.LogDir
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(s.WorkingDir, dir)
	}
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return nil, fmt.Errorf("creating log directory %s: %w", dir, err)
	}

	return &lumberjack.Logger{
		Filename:   filepath.Join(dir, s.logFileName()+".log"),
		MaxSize:    s.Config.LogFileMaxSizeMB,
		MaxBackups: s.Config.LogFileMaxBackups,
		MaxAge:     s.Config.LogFileMaxAgeDays,
		Compress:   s.Config.LogFileCompress,
	}, nil
}

func (s *Service) initializeWriters() ([]io.Writer, error) {
	var writers []io.Writer

	// With both appenders disabled the file appender is forced on, so a
	// config that disables everything still leaves a trace somewhere.
	if !s.Config.ConsoleLogging && !s.Config.FileLogging {
		s.Config.FileLogging = true
	}
	if s.Config.FileLogging {
		fw, err := s.initializeRollingFileLogger()
		if err != nil {
			return nil, err
		}
		s.fileWriter = fw
		writers = append(writers, fw)
	}
	if s.Config.ConsoleLogging {
		writers = append(writers, zerolog.ConsoleWriter{
			Out:        os.Stderr,
			NoColor:    s.Config.ConsoleNoColor,
			TimeFormat: s.Config.ConsoleTimeFormat,
		})
	}

	return writers, nil
}
