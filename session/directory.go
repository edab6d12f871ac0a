// Copyright (c) 2025-2026, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/segmentio/ksuid"

	iu "github.com/choria-io/hcpfix/internal/util"
	"github.com/choria-io/hcpfix/model"
)

// DirectorySessionStore stores the events of a gear run as files in a directory,
// the directory is packed into the pipeline logs archive at the end of a run
type DirectorySessionStore struct {
	directory string
	log       model.Logger
	out       model.Logger
	mu        sync.Mutex
}

var _ model.SessionStore = (*DirectorySessionStore)(nil)

// NewDirectorySessionStore creates a directory based session store, execution outcomes are reported to writer
func NewDirectorySessionStore(directory string, logger model.Logger, writer model.Logger) (*DirectorySessionStore, error) {
	if directory == "" {
		return nil, fmt.Errorf("session directory path cannot be empty")
	}

	absDir, err := filepath.Abs(filepath.Clean(directory))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve directory path: %w", err)
	}

	return &DirectorySessionStore{
		out:       writer,
		log:       logger.With("store", "directory"),
		directory: absDir,
	}, nil
}

// Directory is where event files are written
func (s *DirectorySessionStore) Directory() string {
	return s.directory
}

func (s *DirectorySessionStore) StartSession(gear string) error {
	s.log.Info("Creating new session record", "gear", gear, "directory", s.directory)

	s.mu.Lock()
	err := os.MkdirAll(s.directory, 0755)
	s.mu.Unlock()
	if err != nil {
		return err
	}

	return s.RecordEvent(model.NewSessionStartEvent(gear))
}

func (s *DirectorySessionStore) RecordEvent(event model.SessionEvent) error {
	err := s.writeEvent(event)
	if err != nil {
		return err
	}

	reportEvent(s.out, event)

	return nil
}

func (s *DirectorySessionStore) writeEvent(event model.SessionEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// event ids become file names so only valid ksuids are accepted
	_, err := ksuid.Parse(event.SessionEventID())
	if err != nil {
		return fmt.Errorf("invalid event ID: %w", err)
	}

	if !iu.IsDirectory(s.directory) {
		return fmt.Errorf("session store %s does not exist", s.directory)
	}

	data, err := json.MarshalIndent(event, "", "  ")
	if err != nil {
		return err
	}

	filename := filepath.Join(s.directory, event.SessionEventID()+".event")
	s.log.Debug("Recording event", "filename", filename)

	return os.WriteFile(filename, data, 0644)
}

func (s *DirectorySessionStore) StopSession(destroy bool) (*model.SessionSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	events, err := s.allEventsUnlocked()
	if err != nil {
		return nil, err
	}

	summary := model.BuildSessionSummary(events)

	if destroy && iu.IsDirectory(s.directory) {
		err = os.RemoveAll(s.directory)
		if err != nil {
			s.log.Error("Failed to remove session directory", "error", err)
		}
	}

	return summary, nil
}

// EventsForCommand returns the execution events recorded under name in time order
func (s *DirectorySessionStore) EventsForCommand(name string) ([]model.ExecutionEvent, error) {
	allEvents, err := s.AllEvents()
	if err != nil {
		return nil, err
	}

	return filterEvents(allEvents, name), nil
}

// AllEvents returns all events in the session sorted by time order (oldest first)
func (s *DirectorySessionStore) AllEvents() ([]model.SessionEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.allEventsUnlocked()
}

func (s *DirectorySessionStore) allEventsUnlocked() ([]model.SessionEvent, error) {
	events := []model.SessionEvent{}

	entries, err := os.ReadDir(s.directory)
	if err != nil {
		if os.IsNotExist(err) {
			return events, nil
		}
		return nil, fmt.Errorf("failed to read session directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".event") {
			continue
		}

		filename := filepath.Join(s.directory, entry.Name())
		event, err := s.readEvent(filename)
		if err != nil {
			s.log.Error("Failed to read event file", "filename", filename, "error", err)
			continue
		}
		if event == nil {
			continue
		}

		events = append(events, event)
	}

	// ksuids are k-sortable so this gives time order
	sort.Slice(events, func(i, j int) bool {
		return events[i].SessionEventID() < events[j].SessionEventID()
	})

	return events, nil
}

func (s *DirectorySessionStore) readEvent(filename string) (model.SessionEvent, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	var eventType struct {
		Protocol string `json:"protocol"`
	}
	err = json.Unmarshal(data, &eventType)
	if err != nil {
		return nil, err
	}

	var event model.SessionEvent
	switch eventType.Protocol {
	case model.SessionStartEventProtocol:
		event = &model.SessionStartEvent{}
	case model.ExecutionEventProtocol:
		event = &model.ExecutionEvent{}
	default:
		s.log.Warn("Unknown event protocol", "filename", filename, "protocol", eventType.Protocol)
		return nil, nil
	}

	err = json.Unmarshal(data, event)
	if err != nil {
		return nil, err
	}

	return event, nil
}
