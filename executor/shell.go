// Copyright (c) 2026, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package executor

import (
	"slices"
	"strings"

	"github.com/kballard/go-shellquote"

	"github.com/choria-io/hcpfix/model"
)

var shellOperators = []string{">", ">>", "&>", "&>>", "2>", "2>>", "2>&1", "1>&2", "<", "|", "&&", "||", ";"}
var redirectOperators = []string{">", ">>", "&>", "&>>", "2>", "2>>", "2>&1", "1>&2"}

// JoinShell joins a command into a single string for /bin/sh -c, every token is quoted
// except shell operators so redirects keep working
func JoinShell(command model.Command) string {
	parts := make([]string, 0, len(command))
	for _, token := range command {
		if slices.Contains(shellOperators, token) {
			parts = append(parts, token)
			continue
		}

		parts = append(parts, shellquote.Join(token))
	}

	return strings.Join(parts, " ")
}

// RedirectsOutput determines if the command holds an output redirection operator
func RedirectsOutput(command model.Command) bool {
	for _, token := range command {
		if slices.Contains(redirectOperators, token) {
			return true
		}
	}

	return false
}
