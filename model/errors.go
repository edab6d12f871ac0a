// Copyright (c) 2026, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package model

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnsupportedParameter = errors.New("unsupported parameter value")
	ErrEmptyParameterName   = errors.New("parameter name is required")
	ErrEmptyCommand         = errors.New("command not specified")
	ErrExecutionFailed      = errors.New("command execution failed")
	ErrRunnerFailed         = errors.New("command could not be run")
	ErrInvalidConfiguration = errors.New("invalid gear configuration")
	ErrInputNotFound        = errors.New("input not found")
	ErrNoFunctionalFiles    = errors.New("no functional files found")
)

// BuildError indicates a parameter could not be turned into command line tokens
type BuildError struct {
	Key   string
	Value any
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("parameter %q has unsupported value %v (%T)", e.Key, e.Value, e.Value)
}

func (e *BuildError) Unwrap() error {
	return ErrUnsupportedParameter
}

// ExecutionError is returned when a command completed but was classified as failed
type ExecutionError struct {
	Command  Command
	ExitCode int
	Stderr   string
}

func (e *ExecutionError) Error() string {
	msg := fmt.Sprintf("%s exited with code %d", e.Command.Executable(), e.ExitCode)
	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		msg = fmt.Sprintf("%s: %s", msg, stderr)
	}

	return msg
}

func (e *ExecutionError) Unwrap() error {
	return ErrExecutionFailed
}

// ValidationError holds every problem found while validating a gear configuration
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("gear is not configured correctly:\n%s", strings.Join(e.Problems, "\n"))
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidConfiguration
}
