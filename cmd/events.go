// Copyright (c) 2025-2026, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/choria-io/fisk"

	"github.com/choria-io/hcpfix/model"
	"github.com/choria-io/hcpfix/session"
)

type eventsCommand struct {
	directory string
	base      string
	list      bool
}

func registerEventsCommand(app *fisk.Application) {
	cmd := &eventsCommand{}

	events := app.Command("events", "Reports on the events recorded during a gear run").Action(cmd.reportAction)
	events.Arg("directory", "Directory holding the event files").ExistingDirVar(&cmd.directory)
	events.Flag("base", "Gear base directory to find events in").Default("/flywheel/v0").StringVar(&cmd.base)
	events.Flag("list", "List every command execution").UnNegatableBoolVar(&cmd.list)
}

func (c *eventsCommand) reportAction(_ *fisk.ParseContext) error {
	if c.directory == "" {
		c.directory = filepath.Join(c.base, "work", "logs", "events")
	}

	log := newQuietLogger()

	store, err := session.NewDirectorySessionStore(c.directory, log, newLogger())
	if err != nil {
		return err
	}

	events, err := store.AllEvents()
	if err != nil {
		return err
	}

	if len(events) == 0 {
		return fmt.Errorf("no events found in %s", store.Directory())
	}

	if c.list {
		for _, event := range events {
			exec, ok := event.(*model.ExecutionEvent)
			if !ok {
				continue
			}

			status := "success"
			switch {
			case exec.DryRun:
				status = "dry-run"
			case exec.Failed:
				status = "failed"
			}

			fmt.Printf("%s %-30s %-8s exit:%d %v\n", exec.TimeStamp.Format(time.RFC3339), exec.Name, status, exec.ExitCode, exec.Duration.Round(time.Millisecond))
		}
	}

	summary := model.BuildSessionSummary(events)

	fmt.Println()
	fmt.Println("Gear Run Summary")
	fmt.Println()
	if summary.Gear != "" {
		fmt.Printf("              Gear: %s\n", summary.Gear)
	}
	if summary.TotalDuration > 0 {
		fmt.Printf("          Run Time: %v\n", summary.TotalDuration.Round(time.Millisecond))
	}
	fmt.Printf("    Total Commands: %d\n", summary.TotalCommands)
	fmt.Printf("  Success Commands: %d\n", summary.SuccessCommands)
	fmt.Printf("   Failed Commands: %d\n", summary.FailedCommands)
	fmt.Printf("  Dry-run Commands: %d\n", summary.DryRunCommands)

	return nil
}
