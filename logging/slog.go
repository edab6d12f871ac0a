// Copyright (c) 2025-2026, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/SladkyCitron/slogcolor"

	iu "github.com/choria-io/hcpfix/internal/util"
	"github.com/choria-io/hcpfix/model"
)

var _ model.Logger = (*SlogLogger)(nil)

type SlogLogger struct {
	log *slog.Logger
}

func (s *SlogLogger) Debug(msg string, args ...any) {
	s.log.Debug(msg, args...)
}

func (s *SlogLogger) Info(msg string, args ...any) {
	s.log.Info(msg, args...)
}

func (s *SlogLogger) Warn(msg string, args ...any) {
	s.log.Warn(msg, args...)
}

func (s *SlogLogger) Error(msg string, args ...any) {
	s.log.Error(msg, args...)
}

func (s *SlogLogger) With(args ...any) model.Logger {
	return NewSlogLogger(s.log.With(args...))
}

func NewSlogLogger(log *slog.Logger) *SlogLogger {
	return &SlogLogger{log: log}
}

// ParseLevel parses debug, info, warn or error into a slog level
func ParseLevel(level string) (slog.Level, error) {
	switch level {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelWarn, fmt.Errorf("log level must be one of: debug, info, warn, error")
	}
}

// NewConsoleLogger logs in color to stdout when it is a terminal and as plain text to stderr otherwise
func NewConsoleLogger(level slog.Level) model.Logger {
	if iu.IsTerminal() {
		return NewSlogLogger(slog.New(slogcolor.NewHandler(os.Stdout, &slogcolor.Options{Level: level})))
	}

	return NewTextLogger(os.Stderr, level)
}

// NewTextLogger logs plain text to out
func NewTextLogger(out io.Writer, level slog.Level) model.Logger {
	return NewSlogLogger(slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level})))
}
