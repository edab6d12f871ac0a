// Copyright (c) 2026, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package icafix runs the HCP ICA-FIX denoising pipeline over the task fMRI
// data produced by the HCP functional pipeline
package icafix

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/choria-io/hcpfix/archive"
	"github.com/choria-io/hcpfix/cmdline"
	"github.com/choria-io/hcpfix/executor"
	"github.com/choria-io/hcpfix/gear"
	"github.com/choria-io/hcpfix/internal/facts"
	iu "github.com/choria-io/hcpfix/internal/util"
	"github.com/choria-io/hcpfix/logging"
	"github.com/choria-io/hcpfix/metrics"
	"github.com/choria-io/hcpfix/model"
)

const (
	// RedirectMessage is shown instead of the hcp_fix output, which is written to the pipeline logs
	RedirectMessage = `hcp_fix logs (stdout, stderr) will be available in the file "pipeline_logs.zip" upon completion.`
	// PipelineLogsZip is the archive the logs directory is written to
	PipelineLogsZip = "pipeline_logs.zip"
	// MetricsFile is written to the logs directory
	MetricsFile = "hcpfix.prom"
)

// Pipeline is a single run of ICA-FIX
type Pipeline struct {
	gear    *gear.Gear
	exec    *executor.Executor
	store   model.SessionStore
	log     model.Logger
	errors  *gear.ErrorList
	facts   map[string]any
	options Options

	subject    string
	structural *archive.Listing
	functional *archive.Listing
	inputs     []string
	outputs    []string

	started  time.Time
	observed bool
}

// New creates a pipeline for g, events are recorded in store
func New(g *gear.Gear, exec *executor.Executor, store model.SessionStore, log model.Logger) (*Pipeline, error) {
	if g == nil || exec == nil || store == nil {
		return nil, fmt.Errorf("gear, executor and session store are required")
	}

	return &Pipeline{
		gear:    g,
		exec:    exec,
		store:   store,
		log:     log,
		errors:  &gear.ErrorList{},
		options: OptionsFromGear(g),
	}, nil
}

// Run executes the full pipeline. Failures that prevent the pipeline from continuing are
// returned as errors, failed hcp_fix runs are reported in the summary and do not stop the run.
func (p *Pipeline) Run(ctx context.Context) (*model.RunSummary, error) {
	p.started = time.Now()
	defer p.observeRunTime()

	dryRun := p.gear.DryRun()
	if dryRun {
		p.log.Warn("Running in dry-run mode, hcp_fix will not be executed")
	}

	err := p.gear.Prepare()
	if err != nil {
		return nil, err
	}

	err = p.store.StartSession(p.gear.Name())
	if err != nil {
		return nil, err
	}

	err = p.gear.ValidateManifest()
	if err != nil {
		return nil, err
	}

	p.facts, err = facts.StandardFacts(ctx, p.log, p.gear.WorkDir)
	if err != nil {
		p.log.Warn("Could not gather host facts", "error", err)
	} else {
		facts.LogSummary(p.log, p.facts)
	}

	_, err = p.gear.SetFreeSurferLicense()
	if err != nil {
		return nil, err
	}

	err = p.prepareInputs(dryRun)
	if err != nil {
		return nil, err
	}

	if dryRun {
		p.inputs = FunctionalFilesFromListing(p.gear.WorkDir, p.functional.Files)
	} else {
		p.inputs, err = FunctionalFiles(p.gear.WorkDir)
		if err != nil {
			return nil, err
		}
	}

	if len(p.inputs) == 0 && !dryRun {
		return nil, fmt.Errorf("%w: no %s directories in %s", model.ErrNoFunctionalFiles, taskDirPattern, p.gear.WorkDir)
	}

	p.log.Info("Running hcp_fix for functional files", "files", p.inputs)

	if !dryRun {
		p.checkHcpFix()
	}

	for _, input := range p.inputs {
		err = p.runHcpFix(ctx, input, dryRun)
		if err != nil {
			return nil, err
		}
	}

	err = p.cleanup(dryRun)
	if err != nil {
		return nil, err
	}

	return p.summary(dryRun)
}

// observeRunTime records the run duration once, before the metrics textfile is written
// when the run gets that far
func (p *Pipeline) observeRunTime() {
	if p.observed {
		return
	}
	p.observed = true

	metrics.GearRunTime.WithLabelValues(p.gear.Name()).Observe(time.Since(p.started).Seconds())
}

// Errors are the failures recorded during the run
func (p *Pipeline) Errors() *gear.ErrorList {
	return p.errors
}

// Subject is the subject being processed, available once inputs are prepared
func (p *Pipeline) Subject() string {
	return p.subject
}

func (p *Pipeline) prepareInputs(dryRun bool) error {
	structZip, err := p.gear.RequiredInputPath(gear.InputStructuralZip)
	if err != nil {
		return err
	}

	funcZip, err := p.gear.RequiredInputPath(gear.InputFunctionalZip)
	if err != nil {
		return err
	}

	p.structural, err = archive.Inspect(structZip)
	if err != nil {
		return err
	}
	if p.structural.ConfigFile == "" {
		p.log.Warn("No exported configuration found in the structural archive", "file", structZip)
	}

	p.functional, err = archive.Inspect(funcZip)
	if err != nil {
		return err
	}

	p.subject, err = p.gear.Subject(p.structural)
	if err != nil {
		return err
	}
	p.log.Info("Using subject", "subject", p.subject)

	for _, zf := range []string{structZip, funcZip} {
		if dryRun {
			p.log.Warn("Dry-run, not extracting archive", "file", zf)
			continue
		}

		p.log.Info("Extracting archive", "file", zf, "dir", p.gear.WorkDir)
		files, err := archive.Extract(zf, p.gear.WorkDir)
		if err != nil {
			return err
		}
		p.log.Debug("Extracted archive", "file", zf, "files", len(files))
	}

	return nil
}

// checkHcpFix warns when hcp_fix cannot be found in the environment it runs in
func (p *Pipeline) checkHcpFix() {
	command, err := cmdline.Parse(p.gear.Settings.HcpFix)
	if err != nil {
		return
	}

	_, found := iu.ExecutableInPath(command.Executable(), p.gear.Environ["PATH"])
	if !found {
		p.log.Warn("hcp_fix executable not found, runs will fail", "hcp_fix", command.Executable())
	}
}

func (p *Pipeline) runHcpFix(ctx context.Context, input string, dryRun bool) error {
	task := taskName(input)
	log := p.log.With("task", task)

	command, err := p.options.Command(p.gear.Settings.HcpFix, input)
	if err != nil {
		return err
	}

	req := executor.Request{
		Command:         command,
		Environment:     p.gear.Environ,
		Cwd:             p.gear.WorkDir,
		DryRun:          dryRun,
		RedirectMessage: RedirectMessage,
		Stream:          p.gear.Settings.StreamOutput,
	}

	if !dryRun {
		plog, err := logging.NewPipelineLog(filepath.Join(p.gear.LogsDir(), fmt.Sprintf("hcp_fix_%s.log", task)))
		if err != nil {
			return err
		}
		defer plog.Close()

		plog.Info("Executing hcp_fix", "command", command.String())
		req.OutputLog = plog
	}

	log.Info("Running hcp_fix", "input", input)
	res, err := p.exec.Execute(ctx, req)

	rerr := p.store.RecordEvent(model.NewExecutionEvent(fmt.Sprintf("hcp_fix %s", task), res, err))
	if rerr != nil {
		log.Error("Could not record execution event", "error", rerr)
	}

	var eerr *model.ExecutionError
	switch {
	case errors.As(err, &eerr):
		p.errors.Add(fmt.Errorf("hcp_fix failed for %s, check the pipeline logs: %w", task, err))
	case err != nil:
		return fmt.Errorf("unable to run hcp_fix: %w", err)
	}

	return nil
}

func (p *Pipeline) summary(dryRun bool) (*model.RunSummary, error) {
	session, err := p.store.StopSession(false)
	if err != nil {
		return nil, err
	}

	summary := &model.RunSummary{
		Protocol:  model.RunSummaryProtocol,
		TimeStamp: time.Now().UTC(),
		Gear:      p.gear.Name(),
		Version:   p.gear.Version(),
		Subject:   p.subject,
		DryRun:    dryRun,
		Success:   p.errors.Len() == 0,
		Errors:    p.errors.Messages(),
		Outputs:   p.outputs,
		Session:   session,
	}

	if hostname, err := os.Hostname(); err == nil {
		summary.Host = hostname
	}

	return summary, nil
}
