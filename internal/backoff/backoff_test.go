// Copyright (c) 2017-2026, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package backoff_test

import (
	"context"
	"errors"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/choria-io/hcpfix/internal/backoff"
)

func TestBackoff(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Internal/Backoff")
}

var _ = Describe("Backoff", func() {
	var fastPolicy backoff.Policy

	BeforeEach(func() {
		fastPolicy = backoff.Policy{Millis: []int{1, 2, 3, 4, 5}}
	})

	Describe("Duration", func() {
		It("Should jitter around the configured delay", func() {
			policy := backoff.Policy{Millis: []int{1000}}

			minSeen := time.Hour
			maxSeen := time.Duration(0)
			for range 100 {
				d := policy.Duration(0)
				minSeen = min(minSeen, d)
				maxSeen = max(maxSeen, d)
			}

			Expect(minSeen).To(BeNumerically(">=", 500*time.Millisecond))
			Expect(maxSeen).To(BeNumerically("<=", 1500*time.Millisecond))
			Expect(maxSeen - minSeen).To(BeNumerically(">", 100*time.Millisecond))
		})

		It("Should use the last value beyond the end of the policy", func() {
			policy := backoff.Policy{Millis: []int{10, 20, 30}}

			for range 10 {
				d := policy.Duration(10)
				Expect(d).To(BeNumerically(">=", 15*time.Millisecond))
				Expect(d).To(BeNumerically("<=", 45*time.Millisecond))
			}
		})

		It("Should support zero and empty delays", func() {
			Expect(backoff.Policy{Millis: []int{0, 100}}.Duration(0)).To(Equal(time.Duration(0)))
			Expect(backoff.Policy{}.Duration(3)).To(Equal(time.Duration(0)))
		})
	})

	Describe("Sleep", func() {
		It("Should sleep for the duration", func() {
			start := time.Now()
			Expect(backoff.Sleep(context.Background(), 5*time.Millisecond)).To(Succeed())
			Expect(time.Since(start)).To(BeNumerically(">=", 5*time.Millisecond))
		})

		It("Should be interrupted by the context", func() {
			ctx, cancel := context.WithCancel(context.Background())
			time.AfterFunc(5*time.Millisecond, cancel)

			start := time.Now()
			Expect(backoff.Sleep(ctx, time.Second)).To(Equal(context.Canceled))
			Expect(time.Since(start)).To(BeNumerically("<", 500*time.Millisecond))
		})

		It("Should not sleep when the context is done", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			Expect(backoff.Sleep(ctx, 0)).To(Equal(context.Canceled))
			Expect(fastPolicy.TrySleep(ctx, 0)).To(Equal(context.Canceled))
		})
	})

	Describe("For", func() {
		It("Should retry until the callback succeeds", func() {
			var tries []int

			err := fastPolicy.For(context.Background(), func(try int) error {
				tries = append(tries, try)
				if len(tries) >= 4 {
					return nil
				}
				return errors.New("continue")
			})

			Expect(err).ToNot(HaveOccurred())
			Expect(tries).To(Equal([]int{1, 2, 3, 4}))
		})

		It("Should stop when the context is canceled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			time.AfterFunc(10*time.Millisecond, cancel)

			attempts := 0
			err := fastPolicy.For(ctx, func(int) error {
				attempts++
				return errors.New("keep going")
			})

			Expect(err).To(Equal(context.Canceled))
			Expect(attempts).To(BeNumerically(">=", 1))
		})
	})

	Describe("Retry", func() {
		It("Should return the last error once attempts are exhausted", func() {
			attempts := 0
			err := fastPolicy.Retry(context.Background(), 3, func(try int) error {
				attempts++
				return errors.New("failed")
			})

			Expect(err).To(MatchError("failed"))
			Expect(attempts).To(Equal(3))
		})

		It("Should not call the callback when the context is done", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			attempts := 0
			err := fastPolicy.Retry(ctx, 3, func(int) error {
				attempts++
				return nil
			})

			Expect(err).To(Equal(context.Canceled))
			Expect(attempts).To(Equal(0))
		})
	})

	Describe("Predefined policies", func() {
		It("Should back off to the named maximum", func() {
			Expect(backoff.FiveSec.Millis[len(backoff.FiveSec.Millis)-1]).To(Equal(5000))
			Expect(backoff.TwentySec.Millis[len(backoff.TwentySec.Millis)-1]).To(Equal(20000))
			Expect(backoff.Default.Millis).To(Equal(backoff.TwentySec.Millis))
		})
	})
})
