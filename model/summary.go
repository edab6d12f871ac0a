// Copyright (c) 2026, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package model

import (
	"time"
)

const RunSummaryProtocol = "io.choria.hcpfix.v1.run.summary"

// RunSummary describes the outcome of a complete gear run
type RunSummary struct {
	Protocol  string          `json:"protocol"`
	TimeStamp time.Time       `json:"timestamp"`
	Gear      string          `json:"gear"`
	Version   string          `json:"version,omitempty"`
	Subject   string          `json:"subject,omitempty"`
	Host      string          `json:"host,omitempty"`
	DryRun    bool            `json:"dry_run"`
	Success   bool            `json:"success"`
	Errors    []string        `json:"errors,omitempty"`
	Outputs   []string        `json:"outputs,omitempty"`
	Session   *SessionSummary `json:"session,omitempty"`
}
