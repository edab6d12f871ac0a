// Copyright (c) 2026, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/choria-io/fisk"

	"github.com/choria-io/hcpfix/executor"
	"github.com/choria-io/hcpfix/gear"
	"github.com/choria-io/hcpfix/icafix"
	"github.com/choria-io/hcpfix/internal/cmdrunner"
	"github.com/choria-io/hcpfix/internal/notify"
	"github.com/choria-io/hcpfix/logging"
	"github.com/choria-io/hcpfix/model"
	"github.com/choria-io/hcpfix/session"
)

type runCommand struct {
	opts gear.Options
}

func registerRunCommand(app *fisk.Application) {
	cmd := &runCommand{}

	run := app.Command("run", "Runs the ICA-FIX gear").Default().Action(cmd.runAction)
	run.Flag("base", "Gear base directory").PlaceHolder("DIR").StringVar(&cmd.opts.BaseDir)
	run.Flag("config", "Gear invocation file").PlaceHolder("FILE").ExistingFileVar(&cmd.opts.ConfigFile)
	run.Flag("manifest", "Gear manifest file").PlaceHolder("FILE").ExistingFileVar(&cmd.opts.ManifestFile)
	run.Flag("environ", "JSON file holding the environment hcp_fix runs in").PlaceHolder("FILE").StringVar(&cmd.opts.EnvironFile)
	run.Flag("dry-run", "Log commands without executing them").UnNegatableBoolVar(&cmd.opts.DryRun)
	run.Flag("stream", "Stream command output as it is produced").UnNegatableBoolVar(&cmd.opts.Stream)
}

func (c *runCommand) runAction(_ *fisk.ParseContext) error {
	g, err := gear.Load(newLogger(), c.opts)
	if err != nil {
		return err
	}

	level := g.Settings.LogLevel
	switch {
	case g.Debug():
		level = "debug"
	case level == "":
		level = "info"
	}

	log := logging.NewConsoleLogger(logLevel(level)).With("gear", g.Name())

	runner, err := cmdrunner.NewCommandRunner(log)
	if err != nil {
		return err
	}

	exec, err := executor.New(log, runner, executor.WithFailureExpression(g.Settings.FailureExpression))
	if err != nil {
		return err
	}

	store, err := session.NewDirectorySessionStore(filepath.Join(g.LogsDir(), "events"), log, log)
	if err != nil {
		return err
	}

	pipeline, err := icafix.New(g, exec, store, log)
	if err != nil {
		return err
	}

	summary, err := pipeline.Run(ctx)
	if err != nil {
		log.Error("Gear run failed", "error", err)
		os.Exit(1)
	}

	publishSummary(g, summary, log)

	if !summary.Success {
		for _, msg := range summary.Errors {
			log.Error(msg)
		}

		log.Error("Gear completed with errors", "errors", len(summary.Errors))
		os.Exit(1)
	}

	log.Info("Gear completed successfully", "duration", summary.Session.TotalDuration.Round(time.Millisecond))

	return nil
}

func publishSummary(g *gear.Gear, summary *model.RunSummary, log model.Logger) {
	if g.Settings.NatsContext == "" {
		return
	}

	notifier, err := notify.New(ctx, g.Settings.NatsContext, g.Settings.NatsSubject, log)
	if err != nil {
		log.Warn("Could not publish run summary", "error", err)
		return
	}
	defer notifier.Close()

	err = notifier.Publish(ctx, summary)
	if err != nil {
		log.Warn("Could not publish run summary", "error", fmt.Errorf("subject %s: %w", g.Settings.NatsSubject, err))
	}
}
