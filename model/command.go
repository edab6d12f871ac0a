// Copyright (c) 2026, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package model

import (
	"maps"
	"slices"
	"strings"
)

// Command is a process invocation, the executable followed by its arguments
type Command []string

// NewCommand creates a command for executable
func NewCommand(executable string, args ...string) Command {
	return append(Command{executable}, args...)
}

// Executable is the program being invoked
func (c Command) Executable() string {
	if len(c) == 0 {
		return ""
	}

	return c[0]
}

// Args are the arguments passed to the executable
func (c Command) Args() []string {
	if len(c) < 2 {
		return nil
	}

	return slices.Clone(c[1:])
}

// Clone returns an independent copy of the command
func (c Command) Clone() Command {
	return slices.Clone(c)
}

// String joins the tokens with spaces for logging, it is not safe for shell use
func (c Command) String() string {
	return strings.Join(c, " ")
}

// Environment is the complete set of variables a process is started with, it replaces
// rather than extends the environment of the running process
type Environment map[string]string

// With returns a copy of the environment with key set to value
func (e Environment) With(key string, value string) Environment {
	res := maps.Clone(e)
	if res == nil {
		res = Environment{}
	}
	res[key] = value

	return res
}

// Slice renders the environment as sorted KEY=VALUE pairs, never nil
func (e Environment) Slice() []string {
	res := make([]string, 0, len(e))
	for _, k := range slices.Sorted(maps.Keys(e)) {
		res = append(res, k+"="+e[k])
	}

	return res
}

// EnvironmentFromSlice parses KEY=VALUE pairs such as those from os.Environ()
func EnvironmentFromSlice(environ []string) Environment {
	res := Environment{}
	for _, line := range environ {
		k, v, ok := strings.Cut(line, "=")
		if !ok || k == "" {
			continue
		}
		res[k] = v
	}

	return res
}
