// Copyright (c) 2025-2026, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package cmdrunner

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"os/exec"
	"syscall"

	"github.com/choria-io/hcpfix/model"
)

// maximum length of a single streamed output line
const maxLineLength = 1024 * 1024

var _ model.CommandRunner = (*CommandRunner)(nil)

// CommandRunner executes system commands and captures their output
type CommandRunner struct {
	logger model.Logger
}

// NewCommandRunner creates a new CommandRunner instance with the provided logger
func NewCommandRunner(log model.Logger) (*CommandRunner, error) {
	return &CommandRunner{logger: log}, nil
}

// ExecuteWithOptions runs the command to completion, the process environment is exactly
// opts.Environment. A non zero exit code is not an error, it is returned as exitCode.
func (c *CommandRunner) ExecuteWithOptions(ctx context.Context, opts model.ExecOptions) ([]byte, []byte, int, error) {
	if opts.Command == "" {
		return nil, nil, 0, model.ErrEmptyCommand
	}

	logOpts := []any{
		"command", opts.Command, "args", opts.Args,
	}
	if opts.Cwd != "" {
		logOpts = append(logOpts, "cwd", opts.Cwd)
	}

	c.logger.Debug("Running command", logOpts...)

	cmd := exec.CommandContext(ctx, opts.Command, opts.Args...)
	cmd.Env = opts.Environment.Slice()

	if opts.Cwd != "" {
		cmd.Dir = opts.Cwd
	}

	stdout := bytes.NewBuffer([]byte{})
	stderr := bytes.NewBuffer([]byte{})

	cmd.Stderr = stderr

	var err error
	if opts.OutputLine != nil {
		err = c.stream(cmd, opts.OutputLine)
	} else {
		cmd.Stdout = stdout
		err = cmd.Run()
	}

	exitCode := cmd.ProcessState.ExitCode()

	if err != nil && ctx.Err() != nil {
		return stdout.Bytes(), stderr.Bytes(), exitCode, ctx.Err()
	}

	// the process ran and terminated, non zero exits and signals are reported as exit codes
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return stdout.Bytes(), stderr.Bytes(), terminationCode(exitErr), nil
	}

	if err != nil {
		return stdout.Bytes(), stderr.Bytes(), exitCode, err
	}

	return stdout.Bytes(), stderr.Bytes(), exitCode, nil
}

// terminationCode is the exit code, or 128 plus the signal number for processes killed by a signal
func terminationCode(exitErr *exec.ExitError) int {
	if status, ok := exitErr.Sys().(syscall.WaitStatus); ok && status.Signaled() {
		return 128 + int(status.Signal())
	}

	if code := exitErr.ExitCode(); code > 0 {
		return code
	}

	return 1
}

func (c *CommandRunner) stream(cmd *exec.Cmd, cb func(string)) error {
	pipe, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}

	err = cmd.Start()
	if err != nil {
		return err
	}

	scanner := bufio.NewScanner(pipe)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineLength)
	for scanner.Scan() {
		cb(scanner.Text())
	}

	if err := scanner.Err(); err != nil {
		c.logger.Warn("Could not read command output", "command", cmd.Path, "error", err)
		// drain so the process is not blocked writing to a full pipe
		io.Copy(io.Discard, pipe)
	}

	return cmd.Wait()
}
