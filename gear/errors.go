// Copyright (c) 2026, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package gear

import (
	"errors"
	"sync"
)

// ErrorList collects failures that do not stop a run but should fail it
type ErrorList struct {
	errs []error
	mu   sync.Mutex
}

// Add records err, nil errors are ignored
func (e *ErrorList) Add(err error) {
	if err == nil {
		return
	}

	e.mu.Lock()
	e.errs = append(e.errs, err)
	e.mu.Unlock()
}

func (e *ErrorList) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	return len(e.errs)
}

// Messages are the messages of all recorded errors
func (e *ErrorList) Messages() []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	res := make([]string, len(e.errs))
	for i, err := range e.errs {
		res[i] = err.Error()
	}

	return res
}

// Err joins all recorded errors, nil when none were recorded
func (e *ErrorList) Err() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	return errors.Join(e.errs...)
}
