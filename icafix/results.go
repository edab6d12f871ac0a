// Copyright (c) 2026, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package icafix

import (
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"

	"github.com/choria-io/hcpfix/archive"
	iu "github.com/choria-io/hcpfix/internal/util"
	"github.com/choria-io/hcpfix/metrics"
)

// configuration keys passed on to downstream gears
var exportedConfigKeys = []string{"RegName", "GrayordinatesResolution", "GrayordinatesTemplate", "HighResMesh", "LowResMesh"}

func (p *Pipeline) cleanup(dryRun bool) error {
	results, err := ResultFiles(p.gear.WorkDir, p.options.DeleteIntermediates)
	if err != nil {
		return err
	}

	if len(results) == 0 && !dryRun {
		p.log.Warn("No hcp_fix results found", "dir", p.gear.WorkDir)
	}
	p.log.Info("Output files to be saved", "files", results)

	if dryRun {
		p.log.Warn("Dry-run, not writing results")
		return nil
	}

	cfgFile, err := p.writeExportedConfig()
	if err != nil {
		return err
	}
	if cfgFile != "" {
		results = append(results, cfgFile)
	}

	resultsZip := filepath.Join(p.gear.OutputDir, p.gear.Settings.OutputZip)
	p.log.Info("Zipping results", "file", resultsZip)
	count, err := archive.Create(resultsZip, p.gear.WorkDir, results)
	if err != nil {
		return err
	}
	p.log.Debug("Zipped results", "file", resultsZip, "files", count)
	p.outputs = append(p.outputs, resultsZip)

	metaFile, err := p.gear.WriteMetadata(p.metadata(results, resultsZip))
	if err != nil {
		return err
	}
	p.outputs = append(p.outputs, metaFile)

	p.observeRunTime()
	err = metrics.WriteTextfile(filepath.Join(p.gear.LogsDir(), MetricsFile))
	if err != nil {
		p.log.Warn("Could not write metrics", "error", err)
	}

	logsZip := filepath.Join(p.gear.OutputDir, PipelineLogsZip)
	p.log.Info("Zipping pipeline logs", "file", logsZip)
	_, err = archive.Create(logsZip, p.gear.WorkDir, []string{p.gear.LogsDir()})
	if err != nil {
		return err
	}
	p.outputs = append(p.outputs, logsZip)

	p.logOutputListing()

	return nil
}

// writeExportedConfig writes <subject>/<subject>_hcpfix_config.json for downstream gears
func (p *Pipeline) writeExportedConfig() (string, error) {
	dir := filepath.Join(p.gear.WorkDir, p.subject)
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		p.log.Warn("Subject directory not found, not exporting configuration", "dir", dir)
		return "", nil
	}

	cfg := map[string]any{}
	for _, key := range exportedConfigKeys {
		if res := p.gear.Config(key); res.Exists() {
			cfg[key] = res.Value()
		} else if p.structural != nil {
			if res := p.structural.ConfigValue(key); res.Exists() {
				cfg[key] = res.Value()
			}
		}
	}

	cfg["Subject"] = p.subject
	cfg["HighPassFilter"] = p.options.HighPass
	cfg["do_motion_regression"] = p.options.MotionRegression
	cfg["TrainingFile"] = p.options.TrainingFile
	cfg["FixThreshold"] = p.options.FixThreshold
	cfg["DeleteIntermediates"] = p.options.DeleteIntermediates

	data, err := json.MarshalIndent(map[string]any{"config": cfg}, "", "  ")
	if err != nil {
		return "", err
	}

	file := filepath.Join(dir, p.subject+"_hcpfix_config.json")

	return file, os.WriteFile(file, data, 0644)
}

func (p *Pipeline) metadata(results []string, resultsZip string) map[string]any {
	rel := make([]string, 0, len(results))
	for _, r := range results {
		if r2, err := filepath.Rel(p.gear.WorkDir, r); err == nil {
			rel = append(rel, r2)
		}
	}

	info := map[string]any{
		"subject":          p.subject,
		"gear":             p.gear.Name(),
		"version":          p.gear.Version(),
		"hcp_fix":          p.options,
		"functional_files": p.inputs,
		"results":          rel,
		"errors":           p.errors.Messages(),
	}

	sum, err := iu.Sha256HashFile(resultsZip)
	if err != nil {
		p.log.Warn("Could not checksum results archive", "file", resultsZip, "error", err)
	} else {
		info["results_sha256"] = sum
	}

	return info
}

func (p *Pipeline) logOutputListing() {
	entries, err := os.ReadDir(p.gear.OutputDir)
	if err != nil {
		p.log.Warn("Could not list output directory", "error", err)
		return
	}

	for _, entry := range entries {
		size := pathSize(filepath.Join(p.gear.OutputDir, entry.Name()))
		p.log.Info("Output", "name", entry.Name(), "size", humanize.Bytes(uint64(size)))
	}
}

func pathSize(path string) int64 {
	var size int64

	filepath.WalkDir(path, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}

		if info, err := d.Info(); err == nil && !d.IsDir() {
			size += info.Size()
		}

		return nil
	})

	return size
}
