// Copyright (c) 2026, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package model

import (
	"context"
)

type ExecOptions struct {
	Command     string
	Args        []string
	Cwd         string
	Environment Environment
	// OutputLine receives stdout line by line as it is produced, stdout is then not buffered
	OutputLine func(line string)
}

type CommandRunner interface {
	ExecuteWithOptions(ctx context.Context, opts ExecOptions) (stdout []byte, stderr []byte, exitCode int, err error)
}
