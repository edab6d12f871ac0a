// Copyright (c) 2026, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package gear

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/goccy/go-yaml"

	iu "github.com/choria-io/hcpfix/internal/util"
	"github.com/choria-io/hcpfix/model"
	"github.com/choria-io/hcpfix/templates"
)

const (
	DefaultBaseDir     = "/flywheel/v0"
	DefaultEnvironFile = "/tmp/gear_environ.json"
	DefaultHcpFix      = `{{ lookup("environ.HCPPIPEDIR", "/opt/HCP-Pipelines") }}/ICAFIX/hcp_fix`
	DefaultNatsSubject = "choria.hcpfix.runs"
	DefaultResultsZip  = "hcpfix_results.zip"
)

// Settings configure how the gear runs on a specific host
type Settings struct {
	// BaseDir holds config.json, manifest.json, work and output
	BaseDir string `yaml:"base_dir" json:"base_dir"`
	// HcpFix is the hcp_fix executable, templates are resolved
	HcpFix string `yaml:"hcp_fix" json:"hcp_fix"`
	// EnvironFile is a JSON file holding the complete environment for hcp_fix
	EnvironFile string `yaml:"environ_file" json:"environ_file"`
	// FailureExpression replaces the default stderr and exit code failure check
	FailureExpression string `yaml:"failure_expression" json:"failure_expression,omitempty"`
	// StreamOutput logs command output as it is produced
	StreamOutput bool `yaml:"stream_output" json:"stream_output"`
	// NatsContext is the NATS context used to publish run summaries, empty disables publishing
	NatsContext string `yaml:"nats_context" json:"nats_context,omitempty"`
	// NatsSubject is where run summaries are published, templates are resolved
	NatsSubject string `yaml:"nats_subject" json:"nats_subject"`
	// OutputZip is the name of the results archive, templates are resolved
	OutputZip string `yaml:"output_zip" json:"output_zip"`
	// LogLevel is the default console log level
	LogLevel string `yaml:"log_level" json:"log_level,omitempty"`
}

// DefaultSettings are used for any setting not found in settings files
func DefaultSettings() *Settings {
	return &Settings{
		BaseDir:     DefaultBaseDir,
		HcpFix:      DefaultHcpFix,
		EnvironFile: DefaultEnvironFile,
		NatsSubject: DefaultNatsSubject,
		OutputZip:   DefaultResultsZip,
	}
}

// SettingsFiles are the settings files read in order, later files override earlier ones
func SettingsFiles() []string {
	files := []string{"/etc/choria/hcpfix/settings.yaml"}

	if xdg.ConfigHome != "" {
		files = append(files, filepath.Join(xdg.ConfigHome, "choria", "hcpfix", "settings.yaml"))
	}

	return files
}

// LoadSettings merges the defaults with every existing file in files
func LoadSettings(log model.Logger, files ...string) (*Settings, error) {
	merged, err := settingsMap(DefaultSettings())
	if err != nil {
		return nil, err
	}

	for _, file := range files {
		if !iu.FileExists(file) {
			continue
		}

		log.Debug("Reading settings", "file", file)

		data, err := os.ReadFile(file)
		if err != nil {
			return nil, err
		}

		var m map[string]any
		err = yaml.Unmarshal(data, &m)
		if err != nil {
			return nil, fmt.Errorf("invalid settings file %s: %w", file, err)
		}

		merged = iu.DeepMergeMap(merged, m)
	}

	data, err := yaml.Marshal(merged)
	if err != nil {
		return nil, err
	}

	settings := &Settings{}
	err = yaml.UnmarshalWithOptions(data, settings, yaml.Strict())
	if err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}

	return settings, nil
}

func settingsMap(s *Settings) (map[string]any, error) {
	data, err := yaml.Marshal(s)
	if err != nil {
		return nil, err
	}

	m := map[string]any{}
	err = yaml.Unmarshal(data, &m)
	if err != nil {
		return nil, err
	}

	return m, nil
}

// Resolve resolves templates in the settings that support them
func (s *Settings) Resolve(env *templates.Env) error {
	for name, setting := range map[string]*string{"hcp_fix": &s.HcpFix, "nats_subject": &s.NatsSubject, "output_zip": &s.OutputZip} {
		res, err := templates.ResolveTemplateString(*setting, env)
		if err != nil {
			return fmt.Errorf("could not resolve %s: %w", name, err)
		}

		*setting = res
	}

	return nil
}
