// Copyright (c) 2026, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package notify publishes gear run summaries to NATS
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/synadia-io/orbit.go/natscontext"

	"github.com/choria-io/hcpfix/internal/backoff"
	"github.com/choria-io/hcpfix/model"
)

// attempts is how many times connecting and publishing are tried
const attempts = 3

type conn interface {
	Publish(subject string, data []byte) error
	FlushWithContext(ctx context.Context) error
	Close()
}

// Notifier publishes run summaries
type Notifier struct {
	nc      conn
	subject string
	policy  backoff.Policy
	log     model.Logger
}

// New connects using the named NATS context
func New(ctx context.Context, natsContext string, subject string, log model.Logger) (*Notifier, error) {
	if subject == "" {
		return nil, fmt.Errorf("notification subject is required")
	}

	var nc *nats.Conn
	err := backoff.FiveSec.Retry(ctx, attempts, func(try int) error {
		var err error
		nc, _, err = natscontext.Connect(natsContext, nats.Name("hcpfix"), nats.Timeout(10*time.Second))
		if err != nil {
			log.Warn("Could not connect to NATS", "context", natsContext, "try", try, "error", err)
		}

		return err
	})
	if err != nil {
		return nil, fmt.Errorf("could not connect using nats context %q: %w", natsContext, err)
	}

	return newWithConn(nc, subject, log), nil
}

func newWithConn(nc conn, subject string, log model.Logger) *Notifier {
	return &Notifier{
		nc:      nc,
		subject: subject,
		policy:  backoff.FiveSec,
		log:     log.With("subject", subject),
	}
}

// Publish sends summary and waits for the server to acknowledge it
func (n *Notifier) Publish(ctx context.Context, summary *model.RunSummary) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return err
	}

	err = n.policy.Retry(ctx, attempts, func(try int) error {
		err := n.publish(ctx, data)
		if err != nil {
			n.log.Warn("Publishing run summary failed", "try", try, "error", err)
		}

		return err
	})
	if err != nil {
		return err
	}

	n.log.Info("Published run summary", "bytes", len(data))

	return nil
}

func (n *Notifier) publish(ctx context.Context, data []byte) error {
	err := n.nc.Publish(n.subject, data)
	if err != nil {
		return err
	}

	tctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	return n.nc.FlushWithContext(tctx)
}

// Close disconnects from NATS
func (n *Notifier) Close() {
	n.nc.Close()
}
