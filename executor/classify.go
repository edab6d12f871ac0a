// Copyright (c) 2026, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package executor

import (
	"fmt"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/choria-io/hcpfix/model"
)

// FailureClassifier decides if a command that ran to completion failed
type FailureClassifier func(outcome model.CommandOutcome) bool

// DefaultClassifier fails commands that exit non zero or mention error on stderr in any case.
//
// The stderr check matches any output containing the word, including tools that log
// progress such as "Error correction step", use ExprClassifier where that is a problem.
func DefaultClassifier(outcome model.CommandOutcome) bool {
	return outcome.ExitCode != 0 || strings.Contains(strings.ToLower(outcome.Stderr), "error")
}

// ExprClassifier compiles an expr boolean expression into a classifier, the expression
// has access to exit_code, stdout and stderr, for example:
//
//	exit_code != 0 || stderr matches "(?i)^error:"
//
// An expression that fails at runtime classifies the command as failed.
func ExprClassifier(expression string) (FailureClassifier, error) {
	program, err := compileClassifier(expression)
	if err != nil {
		return nil, err
	}

	return func(outcome model.CommandOutcome) bool {
		res, err := expr.Run(program, outcome)
		if err != nil {
			return true
		}

		failed, ok := res.(bool)

		return !ok || failed
	}, nil
}

func compileClassifier(expression string) (*vm.Program, error) {
	if strings.TrimSpace(expression) == "" {
		return nil, fmt.Errorf("failure expression is empty")
	}

	program, err := expr.Compile(expression, expr.Env(model.CommandOutcome{}), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("expr compile error for '%s': %w", expression, err)
	}

	return program, nil
}
