// Copyright (c) 2025-2026, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"log/slog"
	"os"

	"github.com/choria-io/hcpfix/logging"
	"github.com/choria-io/hcpfix/model"
)

// logLevel picks the level from the command line flags, falling back to configured when neither is set
func logLevel(configured string) slog.Level {
	switch {
	case debug:
		return slog.LevelDebug
	case info:
		return slog.LevelInfo
	}

	level, err := logging.ParseLevel(configured)
	if err != nil {
		return slog.LevelInfo
	}

	return level
}

func newLogger() model.Logger {
	return logging.NewConsoleLogger(logLevel("info"))
}

func newQuietLogger() model.Logger {
	return logging.NewTextLogger(os.Stderr, logLevel("warn"))
}
