// Copyright (c) 2025-2026, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"sync"

	"github.com/choria-io/hcpfix/model"
)

// MemorySessionStore keeps the events of a gear run in memory
type MemorySessionStore struct {
	events []model.SessionEvent
	log    model.Logger
	out    model.Logger
	mu     sync.Mutex
}

var _ model.SessionStore = (*MemorySessionStore)(nil)

// NewMemorySessionStore creates a new in-memory session store, execution outcomes are reported to writer
func NewMemorySessionStore(logger model.Logger, writer model.Logger) (*MemorySessionStore, error) {
	return &MemorySessionStore{
		out:    writer,
		log:    logger,
		events: []model.SessionEvent{},
	}, nil
}

// StartSession clears the event log and records the start of a new run of gear
func (s *MemorySessionStore) StartSession(gear string) error {
	s.mu.Lock()
	s.events = []model.SessionEvent{}
	s.mu.Unlock()

	s.log.Info("Creating new session record", "gear", gear, "store", "memory")

	return s.RecordEvent(model.NewSessionStartEvent(gear))
}

func (s *MemorySessionStore) RecordEvent(event model.SessionEvent) error {
	s.mu.Lock()
	s.events = append(s.events, event)
	s.mu.Unlock()

	reportEvent(s.out, event)

	return nil
}

func (s *MemorySessionStore) StopSession(destroy bool) (*model.SessionSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	summary := model.BuildSessionSummary(s.events)

	if destroy {
		s.events = []model.SessionEvent{}
	}

	return summary, nil
}

// EventsForCommand returns the execution events recorded under name in time order
func (s *MemorySessionStore) EventsForCommand(name string) ([]model.ExecutionEvent, error) {
	allEvents, err := s.AllEvents()
	if err != nil {
		return nil, err
	}

	return filterEvents(allEvents, name), nil
}

// AllEvents returns a copy of all events in the session in time order
func (s *MemorySessionStore) AllEvents() ([]model.SessionEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	events := make([]model.SessionEvent, len(s.events))
	copy(events, s.events)

	return events, nil
}
