// Copyright (c) 2025-2026, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	NameSpace = "choria"
	Subsystem = "hcpfix"

	// GearRunTime is a summary of the time taken for an entire gear run
	GearRunTime = prometheus.NewSummaryVec(prometheus.SummaryOpts{
		Name: prometheus.BuildFQName(NameSpace, Subsystem, "gear_run_duration_seconds"),
		Help: "Time taken for an entire gear run",
	}, []string{"gear"})

	// CommandTime is a summary of the time taken by external commands
	CommandTime = prometheus.NewSummaryVec(prometheus.SummaryOpts{
		Name: prometheus.BuildFQName(NameSpace, Subsystem, "command_duration_seconds"),
		Help: "Time taken by external commands",
	}, []string{"command"})

	// CommandFailedCount counts how many external commands were classified as failed
	CommandFailedCount = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: prometheus.BuildFQName(NameSpace, Subsystem, "command_failed_count"),
		Help: "How many external commands failed",
	}, []string{"command"})

	// CommandDryRunCount counts how many external commands were skipped in dry-run mode
	CommandDryRunCount = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: prometheus.BuildFQName(NameSpace, Subsystem, "command_dryrun_count"),
		Help: "How many external commands were skipped in dry-run mode",
	}, []string{"command"})

	// CommandTotalCount counts how many external commands were requested
	CommandTotalCount = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: prometheus.BuildFQName(NameSpace, Subsystem, "command_total_count"),
		Help: "How many external commands were requested",
	}, []string{"command"})

	// ArchiveBytes is the size of archives written to the output directory
	ArchiveBytes = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: prometheus.BuildFQName(NameSpace, Subsystem, "archive_size_bytes"),
		Help: "Size of archives written to the output directory",
	}, []string{"archive"})

	// ArchiveFiles is how many files were added to archives in the output directory
	ArchiveFiles = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: prometheus.BuildFQName(NameSpace, Subsystem, "archive_file_count"),
		Help: "How many files were added to archives in the output directory",
	}, []string{"archive"})

	// FactGatherTime is a summary of the time taken to gather host facts
	FactGatherTime = prometheus.NewSummaryVec(prometheus.SummaryOpts{
		Name: prometheus.BuildFQName(NameSpace, Subsystem, "facts_gather_duration_seconds"),
		Help: "Time taken to gather facts",
	}, []string{})

	// Registry holds all gear metrics, it is written to a text file at the end of a run
	Registry = prometheus.NewRegistry()

	registerOnce sync.Once
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		Registry.MustRegister(GearRunTime)
		Registry.MustRegister(CommandTime)
		Registry.MustRegister(CommandFailedCount)
		Registry.MustRegister(CommandDryRunCount)
		Registry.MustRegister(CommandTotalCount)
		Registry.MustRegister(ArchiveBytes)
		Registry.MustRegister(ArchiveFiles)
		Registry.MustRegister(FactGatherTime)
	})
}

// WriteTextfile writes all registered metrics in the Prometheus text format to path
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, Registry)
}
