// Copyright (c) 2026, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package executor

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/choria-io/hcpfix/metrics"
	"github.com/choria-io/hcpfix/model"
)

var shellPath = "/bin/sh"

// Request describes a single command execution
type Request struct {
	// Command is the executable followed by its arguments
	Command model.Command
	// Environment is the complete process environment
	Environment model.Environment
	// Cwd is the working directory, the current directory when empty
	Cwd string
	// DryRun logs the command without starting a process
	DryRun bool
	// Shell joins the command and runs it using /bin/sh -c, needed for redirects
	Shell bool
	// RedirectMessage tells the user where output can be found, it is logged instead of stdout
	RedirectMessage string
	// Stream logs stdout line by line as it is produced rather than once the command completes
	Stream bool
	// OutputLog receives stdout and stderr of the command when set
	OutputLog model.Logger
}

// Executor runs external commands and classifies their outcome
type Executor struct {
	log        model.Logger
	runner     model.CommandRunner
	classifier FailureClassifier
	shell      string
}

// Option configures an Executor
type Option func(*Executor) error

// WithClassifier sets the function that decides if a completed command failed
func WithClassifier(classifier FailureClassifier) Option {
	return func(e *Executor) error {
		if classifier == nil {
			return fmt.Errorf("classifier is required")
		}

		e.classifier = classifier

		return nil
	}
}

// WithFailureExpression classifies commands using an expr expression, an empty expression keeps the default
func WithFailureExpression(expression string) Option {
	return func(e *Executor) error {
		if expression == "" {
			return nil
		}

		classifier, err := ExprClassifier(expression)
		if err != nil {
			return err
		}

		e.classifier = classifier

		return nil
	}
}

// WithShell sets the shell used for shell mode requests
func WithShell(path string) Option {
	return func(e *Executor) error {
		if path == "" {
			return fmt.Errorf("shell path is required")
		}

		e.shell = path

		return nil
	}
}

// New creates an executor that starts processes using runner
func New(log model.Logger, runner model.CommandRunner, opts ...Option) (*Executor, error) {
	if runner == nil {
		return nil, fmt.Errorf("no command runner configured")
	}

	e := &Executor{
		log:        log,
		runner:     runner,
		classifier: DefaultClassifier,
		shell:      shellPath,
	}

	for _, opt := range opts {
		err := opt(e)
		if err != nil {
			return nil, err
		}
	}

	return e, nil
}

// Execute runs the requested command. Dry-run requests return a *model.DryRunExecution
// and start nothing. Commands that complete return a *model.CompletedExecution, when
// they are classified as failed a *model.ExecutionError is returned alongside it.
// Failure to start or wait for the process returns only an error wrapping
// model.ErrRunnerFailed.
func (e *Executor) Execute(ctx context.Context, req Request) (model.ExecResult, error) {
	if req.Command.Executable() == "" {
		return nil, model.ErrEmptyCommand
	}

	name := filepath.Base(req.Command.Executable())
	log := e.log.With("command", name)

	metrics.CommandTotalCount.WithLabelValues(name).Inc()

	if req.DryRun {
		metrics.CommandDryRunCount.WithLabelValues(name).Inc()
		log.Warn("Dry-run, not executing command", "command_line", req.Command.String())

		return &model.DryRunExecution{Command: req.Command.Clone()}, nil
	}

	log.Info("Executing command", "command_line", req.Command.String())

	opts := model.ExecOptions{
		Command:     req.Command.Executable(),
		Args:        req.Command.Args(),
		Cwd:         req.Cwd,
		Environment: req.Environment,
	}

	if req.Shell {
		opts.Command = e.shell
		opts.Args = []string{"-c", JoinShell(req.Command)}
	}

	if req.RedirectMessage != "" {
		log.Info(req.RedirectMessage)
	}

	output := req.OutputLog
	if output == nil {
		output = log
	}

	streaming := req.Stream && req.RedirectMessage == "" && !(req.Shell && RedirectsOutput(req.Command))
	if streaming {
		opts.OutputLine = func(line string) {
			output.Info(line, "stream", "stdout")
		}
	} else if req.Stream {
		log.Debug("Output is redirected, buffering command output")
	}

	start := time.Now()
	stdout, stderr, exitCode, err := e.runner.ExecuteWithOptions(ctx, opts)
	duration := time.Since(start)

	metrics.CommandTime.WithLabelValues(name).Observe(duration.Seconds())

	if err != nil {
		metrics.CommandFailedCount.WithLabelValues(name).Inc()
		log.Error("Could not run command", "command_line", req.Command.String(), "error", err)

		return nil, fmt.Errorf("%w: %s: %w", model.ErrRunnerFailed, name, err)
	}

	result := &model.CompletedExecution{
		Command:  req.Command.Clone(),
		Stdout:   stdout,
		Stderr:   stderr,
		ExitCode: exitCode,
		Duration: duration,
		Streamed: streaming,
	}

	if !streaming && (req.OutputLog != nil || req.RedirectMessage == "") {
		logLines(output, stdout, "stdout", false)
	}
	if req.OutputLog != nil {
		logLines(req.OutputLog, stderr, "stderr", true)
	}

	log.Info("Command return code", "exitcode", exitCode, "runtime", duration.Truncate(time.Millisecond))

	outcome := model.CommandOutcome{ExitCode: exitCode, Stdout: string(stdout), Stderr: string(stderr)}
	if e.classifier(outcome) {
		metrics.CommandFailedCount.WithLabelValues(name).Inc()
		log.Error("The command failed", "command_line", req.Command.String(), "exitcode", exitCode)

		return result, &model.ExecutionError{
			Command:  result.Command,
			ExitCode: exitCode,
			Stderr:   string(stderr),
		}
	}

	return result, nil
}

func logLines(log model.Logger, output []byte, stream string, warn bool) {
	scanner := bufio.NewScanner(bytes.NewReader(output))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if warn {
			log.Warn(scanner.Text(), "stream", stream)
		} else {
			log.Info(scanner.Text(), "stream", stream)
		}
	}
}
