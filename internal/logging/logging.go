// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package logging configures the process logger shared by the plugins.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/pdiddy/wsf-plugins/pkg/types"
)

// Output destinations.
const (
	OutputConsole = "console"
	OutputFile    = "file"
	OutputBoth    = "both"
)

const timestampFormat = "2006-01-02 15:04:05"

var (
	mu     sync.Mutex
	logger *logrus.Logger
)

// Init builds the process logger from cfg. Console output goes to stderr
// so command output on stdout stays clean. File output is rotated.
func Init(cfg types.LogConfig) error {
	l, err := New(cfg)
	if err != nil {
		return err
	}
	mu.Lock()
	logger = l
	mu.Unlock()
	return nil
}

// New returns a logger configured by cfg without installing it.
func New(cfg types.LogConfig) (*logrus.Logger, error) {
	l := logrus.New()

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)

	if cfg.Format == "json" {
		l.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat:   timestampFormat,
			DisableHTMLEscape: true,
		})
	} else {
		l.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: timestampFormat,
		})
	}

	var writers []io.Writer
	switch cfg.Output {
	case "", OutputConsole:
		writers = append(writers, os.Stderr)
	case OutputFile, OutputBoth:
		if cfg.FilePath == "" {
			return nil, fmt.Errorf("log output %q needs log.file_path", cfg.Output)
		}
		if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0o755); err != nil {
			return nil, fmt.Errorf("creating log directory: %w", err)
		}
		if cfg.Output == OutputBoth {
			writers = append(writers, os.Stderr)
		}
		writers = append(writers, &lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
		})
	default:
		return nil, fmt.Errorf("unknown log output %q", cfg.Output)
	}
	l.SetOutput(io.MultiWriter(writers...))
	return l, nil
}

// Logger returns the process logger, the logrus standard logger until Init
// succeeds.
func Logger() *logrus.Logger {
	mu.Lock()
	defer mu.Unlock()
	if logger == nil {
		return logrus.StandardLogger()
	}
	return logger
}

// For returns an entry tagged with the plugin name.
func For(plugin string) *logrus.Entry {
	return Logger().WithField("plugin", plugin)
}
