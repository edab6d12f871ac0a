// Copyright (c) 2026, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package model

import (
	"fmt"
	"time"

	"github.com/segmentio/ksuid"
)

type SessionEvent interface {
	SessionEventID() string
	String() string
}

type SessionStore interface {
	StartSession(gear string) error
	StopSession(destroy bool) (*SessionSummary, error)
	RecordEvent(SessionEvent) error
	AllEvents() ([]SessionEvent, error)
}

const ExecutionEventProtocol = "io.choria.hcpfix.v1.execution.event"
const SessionStartEventProtocol = "io.choria.hcpfix.v1.session.start"

// ExecutionEvent records a single external command invocation
type ExecutionEvent struct {
	Protocol  string        `json:"protocol" yaml:"protocol"`
	EventID   string        `json:"event_id" yaml:"event_id"`
	TimeStamp time.Time     `json:"timestamp" yaml:"timestamp"`
	Name      string        `json:"name" yaml:"name"`
	Command   Command       `json:"command" yaml:"command"`
	ExitCode  int           `json:"exit_code" yaml:"exit_code"`
	Duration  time.Duration `json:"duration" yaml:"duration"`
	DryRun    bool          `json:"dry_run" yaml:"dry_run"`
	Failed    bool          `json:"failed" yaml:"failed"`
	Error     string        `json:"error,omitempty" yaml:"error,omitempty"`
}

type SessionStartEvent struct {
	Protocol  string    `json:"protocol" yaml:"protocol"`
	EventID   string    `json:"event_id" yaml:"event_id"`
	TimeStamp time.Time `json:"timestamp" yaml:"timestamp"`
	Gear      string    `json:"gear" yaml:"gear"`
}

func NewSessionStartEvent(gear string) *SessionStartEvent {
	return &SessionStartEvent{
		Protocol:  SessionStartEventProtocol,
		EventID:   ksuid.New().String(),
		TimeStamp: time.Now().UTC(),
		Gear:      gear,
	}
}

// NewExecutionEvent creates an event describing result, err is the error returned with the result if any
func NewExecutionEvent(name string, result ExecResult, err error) *ExecutionEvent {
	event := &ExecutionEvent{
		Protocol:  ExecutionEventProtocol,
		EventID:   ksuid.New().String(),
		TimeStamp: time.Now().UTC(),
		Name:      name,
		Command:   ResultCommand(result),
		ExitCode:  -1,
	}

	switch r := result.(type) {
	case *CompletedExecution:
		event.ExitCode = r.ExitCode
		event.Duration = r.Duration
	case *DryRunExecution:
		event.DryRun = true
		event.ExitCode = 0
	}

	if err != nil {
		event.Failed = true
		event.Error = err.Error()
	}

	return event
}

func (t *SessionStartEvent) SessionEventID() string { return t.EventID }
func (t *SessionStartEvent) String() string {
	return fmt.Sprintf("session %s started %s", t.EventID, t.TimeStamp.Format(time.RFC3339))
}

func (t *ExecutionEvent) SessionEventID() string { return t.EventID }

// LogStatus logs the outcome of the execution at a level matching its status
func (t *ExecutionEvent) LogStatus(log Logger) {
	args := []any{
		"exitcode", t.ExitCode,
		"runtime", t.Duration.Truncate(time.Millisecond),
	}

	switch {
	case t.Failed:
		log.Error(fmt.Sprintf("%s failed", t.Name), append(args, "error", t.Error)...)
	case t.DryRun:
		log.Warn(fmt.Sprintf("%s skipped in dry-run", t.Name), "command", t.Command.String())
	default:
		log.Info(fmt.Sprintf("%s completed", t.Name), args...)
	}
}

func (t *ExecutionEvent) String() string {
	switch {
	case t.Failed:
		return fmt.Sprintf("%s failed exitcode=%d runtime=%v error=%v", t.Name, t.ExitCode, t.Duration, t.Error)
	case t.DryRun:
		return fmt.Sprintf("%s dry-run command=%q", t.Name, t.Command.String())
	default:
		return fmt.Sprintf("%s completed exitcode=%d runtime=%v", t.Name, t.ExitCode, t.Duration)
	}
}

// SessionSummary provides a statistical summary of a gear run
type SessionSummary struct {
	Gear            string        `json:"gear" yaml:"gear"`
	StartTime       time.Time     `json:"start_time" yaml:"start_time"`
	EndTime         time.Time     `json:"end_time" yaml:"end_time"`
	TotalDuration   time.Duration `json:"total_duration" yaml:"total_duration"`
	TotalCommands   int           `json:"total_commands" yaml:"total_commands"`
	DryRunCommands  int           `json:"dry_run_commands" yaml:"dry_run_commands"`
	FailedCommands  int           `json:"failed_commands" yaml:"failed_commands"`
	SuccessCommands int           `json:"success_commands" yaml:"success_commands"`
}

// BuildSessionSummary creates a summary report from all events in a session
func BuildSessionSummary(events []SessionEvent) *SessionSummary {
	summary := &SessionSummary{}
	var totalTime time.Duration

	for _, event := range events {
		if startEvent, ok := event.(*SessionStartEvent); ok {
			summary.StartTime = startEvent.TimeStamp
			summary.Gear = startEvent.Gear
			continue
		}

		execEvent, ok := event.(*ExecutionEvent)
		if !ok {
			continue
		}

		totalTime += execEvent.Duration
		summary.TotalCommands++

		if execEvent.TimeStamp.After(summary.EndTime) {
			summary.EndTime = execEvent.TimeStamp
		}

		switch {
		case execEvent.Failed:
			summary.FailedCommands++
		case execEvent.DryRun:
			summary.DryRunCommands++
		default:
			summary.SuccessCommands++
		}
	}

	if !summary.StartTime.IsZero() && !summary.EndTime.IsZero() {
		summary.TotalDuration = summary.EndTime.Sub(summary.StartTime)
	} else {
		summary.TotalDuration = totalTime
	}

	return summary
}

func (s *SessionSummary) String() string {
	return fmt.Sprintf("Session: %d commands, %d succeeded, %d failed, %d dry-run, duration=%v",
		s.TotalCommands, s.SuccessCommands, s.FailedCommands, s.DryRunCommands, s.TotalDuration)
}
