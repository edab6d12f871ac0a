// Copyright (c) 2026, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package model

import (
	"time"
)

// ExecResult is the outcome of an execution request, either a *CompletedExecution or
// a *DryRunExecution. Callers should use a type switch to tell them apart.
type ExecResult interface {
	// Executed is true when a process was actually started
	Executed() bool
	command() Command
}

// CompletedExecution is a process that ran to completion
type CompletedExecution struct {
	Command  Command       `json:"command"`
	Stdout   []byte        `json:"-"`
	Stderr   []byte        `json:"-"`
	ExitCode int           `json:"exit_code"`
	Duration time.Duration `json:"duration"`
	// Streamed is true when stdout was delivered line by line and not retained in Stdout
	Streamed bool `json:"streamed,omitempty"`
}

// DryRunExecution is a process that would have been started
type DryRunExecution struct {
	Command Command `json:"command"`
}

func (r *CompletedExecution) Executed() bool   { return true }
func (r *CompletedExecution) command() Command { return r.Command }
func (r *DryRunExecution) Executed() bool      { return false }
func (r *DryRunExecution) command() Command    { return r.Command }

// ResultCommand is the command a result belongs to
func ResultCommand(r ExecResult) Command {
	if r == nil {
		return nil
	}

	return r.command()
}

// CommandOutcome is what failure classification is based on
type CommandOutcome struct {
	ExitCode int    `expr:"exit_code"`
	Stdout   string `expr:"stdout"`
	Stderr   string `expr:"stderr"`
}
