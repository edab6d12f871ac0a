// Copyright (c) 2017-2026, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package backoff retries operations with jittered, increasing delays
package backoff

import (
	"context"
	"math/rand/v2"
	"time"
)

// Policy is a list of delays in milliseconds, tries beyond the end of the list use the last value
type Policy struct {
	Millis []int
}

var (
	// FiveSec backs off from 500ms to 5 seconds
	FiveSec = Policy{Millis: []int{500, 750, 1000, 1500, 2000, 2500, 3000, 3500, 4000, 4500, 5000}}

	// TwentySec backs off from 500ms to 20 seconds
	TwentySec = Policy{Millis: []int{500, 1000, 2000, 3000, 5000, 7500, 10000, 12500, 15000, 17500, 20000}}

	// Default is the policy used when nothing else is specified
	Default = TwentySec
)

// Duration is the jittered delay for try n, counting from 0
func (p Policy) Duration(n int) time.Duration {
	if len(p.Millis) == 0 {
		return 0
	}

	n = max(0, min(n, len(p.Millis)-1))

	return jitter(p.Millis[n])
}

// TrySleep sleeps for the delay of try n unless ctx is done first
func (p Policy) TrySleep(ctx context.Context, n int) error {
	return Sleep(ctx, p.Duration(n))
}

// For calls cb until it succeeds or ctx is done, try counts from 1
func (p Policy) For(ctx context.Context, cb func(try int) error) error {
	return p.Retry(ctx, 0, cb)
}

// Retry calls cb until it succeeds, attempts is reached or ctx is done. When attempts are
// exhausted the last error from cb is returned, 0 attempts retries forever.
func (p Policy) Retry(ctx context.Context, attempts int, cb func(try int) error) error {
	for try := 1; ; try++ {
		err := ctx.Err()
		if err != nil {
			return err
		}

		err = cb(try)
		if err == nil {
			return nil
		}

		if attempts > 0 && try >= attempts {
			return err
		}

		err = p.TrySleep(ctx, try-1)
		if err != nil {
			return err
		}
	}
}

// Sleep waits for d returning the context error if ctx is done first
func Sleep(ctx context.Context, d time.Duration) error {
	err := ctx.Err()
	if err != nil {
		return err
	}

	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// jitter returns a duration between 0.5 and 1.5 times millis
func jitter(millis int) time.Duration {
	if millis <= 0 {
		return 0
	}

	return time.Duration(millis/2+rand.IntN(millis+1)) * time.Millisecond
}
