// Copyright (c) 2025-2026, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package facts gathers information about the host a gear runs on
package facts

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/dustin/go-humanize"
	"github.com/goccy/go-yaml"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/tidwall/gjson"

	iu "github.com/choria-io/hcpfix/internal/util"
	"github.com/choria-io/hcpfix/metrics"
	"github.com/choria-io/hcpfix/model"
)

// ConfigDirectories are searched in order for facts.json and facts.yaml, later files override earlier ones
func ConfigDirectories() []string {
	return []string{
		"/etc/choria/hcpfix",
		filepath.Join(xdg.ConfigHome, "choria", "hcpfix"),
	}
}

// StandardFacts gathers host facts, usage of workDir is reported when it is set
func StandardFacts(ctx context.Context, log model.Logger, workDir string) (map[string]any, error) {
	timer := prometheus.NewTimer(metrics.FactGatherTime.WithLabelValues())
	defer timer.ObserveDuration()

	sf, err := standardFacts(ctx, workDir)
	if err != nil {
		return nil, err
	}

	for _, dir := range ConfigDirectories() {
		for _, file := range []string{"facts.json", "facts.yaml"} {
			path := filepath.Join(dir, file)
			if !iu.FileExists(path) {
				continue
			}

			log.Debug("Reading facts", "file", path)
			f, err := readFactsFile(path)
			if err != nil {
				log.Error("Failed to read facts file", "file", path, "error", err)
				continue
			}

			sf = iu.DeepMergeMap(sf, f)
		}
	}

	return sf, nil
}

func readFactsFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var f map[string]any
	if filepath.Ext(path) == ".json" {
		err = json.Unmarshal(data, &f)
	} else {
		err = yaml.Unmarshal(data, &f)
	}
	if err != nil {
		return nil, err
	}

	return f, nil
}

func standardFacts(ctx context.Context, workDir string) (map[string]any, error) {
	cpuFacts := map[string]any{
		"logical":  0,
		"physical": 0,
		"info":     []any{},
	}
	hostFacts := map[string]any{
		"info": map[string]any{},
	}
	memoryFacts := map[string]any{
		"virtual": map[string]any{},
	}
	diskFacts := map[string]any{
		"work": map[string]any{},
	}

	logical, err := cpu.CountsWithContext(ctx, true)
	if err == nil {
		cpuFacts["logical"] = logical
	}
	physical, err := cpu.CountsWithContext(ctx, false)
	if err == nil {
		cpuFacts["physical"] = physical
	}
	cpuInfo, err := cpu.InfoWithContext(ctx)
	if err == nil {
		cpuFacts["info"] = cpuInfo
	}

	virtual, err := mem.VirtualMemoryWithContext(ctx)
	if err == nil {
		memoryFacts["virtual"] = virtual
	}

	hostInfo, err := host.InfoWithContext(ctx)
	if err == nil {
		hostFacts["info"] = hostInfo
	}

	if workDir != "" {
		usage, err := disk.UsageWithContext(ctx, workDir)
		if err == nil {
			diskFacts["work"] = usage
		}
	}

	// round trip through json so facts use the json names everywhere
	raw, err := json.Marshal(map[string]any{
		"cpu":    cpuFacts,
		"host":   hostFacts,
		"memory": memoryFacts,
		"disk":   diskFacts,
	})
	if err != nil {
		return nil, err
	}

	var res map[string]any
	err = json.Unmarshal(raw, &res)
	if err != nil {
		return nil, err
	}

	return res, nil
}

// LogSummary logs the facts that matter when sizing an ICA-FIX run
func LogSummary(log model.Logger, facts map[string]any) {
	raw, err := json.Marshal(facts)
	if err != nil {
		log.Warn("Could not summarize facts", "error", err)
		return
	}

	res := gjson.GetManyBytes(raw, "host.info.hostname", "cpu.logical", "memory.virtual.total", "memory.virtual.available", "disk.work.free", "disk.work.path")

	log.Info("Host resources",
		"hostname", res[0].String(),
		"cpus", res[1].Int(),
		"memory", humanize.IBytes(res[2].Uint()),
		"memory_available", humanize.IBytes(res[3].Uint()),
		"work_free", humanize.IBytes(res[4].Uint()),
		"work_dir", res[5].String(),
	)
}
