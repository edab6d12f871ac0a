// Copyright (c) 2026, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package gear loads the invocation of an analysis gear, its manifest and the host
// settings and environment it runs with
package gear

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tidwall/gjson"

	"github.com/choria-io/hcpfix/model"
	"github.com/choria-io/hcpfix/templates"
)

const (
	InputFunctionalZip     = "functional_zip"
	InputStructuralZip     = "structural_zip"
	InputFreeSurferLicense = "FreeSurferLicense"
)

// Options override the paths and behaviors a gear is loaded with
type Options struct {
	// BaseDir overrides the base_dir setting
	BaseDir string
	// ConfigFile defaults to config.json in the base directory
	ConfigFile string
	// ManifestFile defaults to manifest.json in the base directory
	ManifestFile string
	// EnvironFile overrides the environ_file setting
	EnvironFile string
	// SettingsFiles default to SettingsFiles()
	SettingsFiles []string
	// DryRun forces dry-run mode regardless of the configuration
	DryRun bool
	// Stream forces streaming of command output
	Stream bool
}

// Gear is a loaded gear invocation
type Gear struct {
	Settings  *Settings
	BaseDir   string
	WorkDir   string
	OutputDir string
	Environ   model.Environment

	configFile   string
	manifestFile string
	config       []byte
	manifest     []byte
	forceDryRun  bool
	log          model.Logger
}

// Load reads the settings, gear invocation, manifest and environment
func Load(log model.Logger, opts Options) (*Gear, error) {
	files := opts.SettingsFiles
	if files == nil {
		files = SettingsFiles()
	}

	settings, err := LoadSettings(log, files...)
	if err != nil {
		return nil, err
	}

	if opts.BaseDir != "" {
		settings.BaseDir = opts.BaseDir
	}
	if opts.EnvironFile != "" {
		settings.EnvironFile = opts.EnvironFile
	}
	if opts.Stream {
		settings.StreamOutput = true
	}

	base, err := filepath.Abs(settings.BaseDir)
	if err != nil {
		return nil, err
	}

	g := &Gear{
		Settings:     settings,
		BaseDir:      base,
		WorkDir:      filepath.Join(base, "work"),
		OutputDir:    filepath.Join(base, "output"),
		configFile:   opts.ConfigFile,
		manifestFile: opts.ManifestFile,
		forceDryRun:  opts.DryRun,
		log:          log,
	}

	if g.configFile == "" {
		g.configFile = filepath.Join(base, "config.json")
	}
	if g.manifestFile == "" {
		g.manifestFile = filepath.Join(base, "manifest.json")
	}

	g.config, err = readJSON(g.configFile)
	if err != nil {
		return nil, err
	}

	g.manifest, err = readJSON(g.manifestFile)
	if err != nil {
		return nil, err
	}

	g.Environ, err = LoadEnviron(log, settings.EnvironFile)
	if err != nil {
		return nil, err
	}

	err = settings.Resolve(g.TemplateEnv(nil))
	if err != nil {
		return nil, err
	}

	return g, nil
}

func readJSON(file string) ([]byte, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrInvalidConfiguration, err)
	}

	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: %s is not valid JSON", model.ErrInvalidConfiguration, file)
	}

	return data, nil
}

// Name is the gear name from the manifest
func (g *Gear) Name() string {
	name := gjson.GetBytes(g.manifest, "name").String()
	if name == "" {
		return "hcp-icafix"
	}

	return name
}

// Version is the gear version from the manifest
func (g *Gear) Version() string {
	return gjson.GetBytes(g.manifest, "version").String()
}

// Config retrieves a configuration value
func (g *Gear) Config(key string) gjson.Result {
	return gjson.GetBytes(g.config, "config."+gjson.Escape(key))
}

// ConfigMap is the complete configuration
func (g *Gear) ConfigMap() map[string]any {
	m, ok := gjson.GetBytes(g.config, "config").Value().(map[string]any)
	if !ok {
		return map[string]any{}
	}

	return m
}

// Destination is the container results are stored in
func (g *Gear) Destination() gjson.Result {
	return gjson.GetBytes(g.config, "destination")
}

// InputPath is the local path of a file input, empty when the input was not supplied
func (g *Gear) InputPath(name string) string {
	return gjson.GetBytes(g.config, "inputs."+gjson.Escape(name)+".location.path").String()
}

// RequiredInputPath is the local path of an input that must be supplied and exist
func (g *Gear) RequiredInputPath(name string) (string, error) {
	path := g.InputPath(name)
	if path == "" {
		return "", fmt.Errorf("%w: %s was not supplied", model.ErrInputNotFound, name)
	}

	_, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", model.ErrInputNotFound, name, err)
	}

	return path, nil
}

// DryRun determines if commands should be logged rather than executed
func (g *Gear) DryRun() bool {
	if g.forceDryRun {
		return true
	}

	if res := g.Config("dry-run"); res.Exists() {
		return res.Bool()
	}

	return g.Config("dry_run").Bool()
}

// Debug determines if the gear was configured for debug logging
func (g *Gear) Debug() bool {
	return g.Config("debug").Bool()
}

// TemplateEnv creates the environment templates resolve against
func (g *Gear) TemplateEnv(facts map[string]any) *templates.Env {
	return &templates.Env{
		Facts:   facts,
		Config:  g.ConfigMap(),
		Environ: g.Environ,
	}
}

// LogsDir holds pipeline logs, session events and metrics
func (g *Gear) LogsDir() string {
	return filepath.Join(g.WorkDir, "logs")
}

// Prepare creates the work, logs and output directories
func (g *Gear) Prepare() error {
	for _, dir := range []string{g.WorkDir, g.LogsDir(), g.OutputDir} {
		err := os.MkdirAll(dir, 0755)
		if err != nil {
			return err
		}
	}

	return nil
}

// WriteMetadata writes the .metadata.json file describing results to the output directory
func (g *Gear) WriteMetadata(info map[string]any) (string, error) {
	metadata := map[string]any{
		"analysis": map[string]any{
			"info": info,
		},
	}

	data, err := json.MarshalIndent(metadata, "", "  ")
	if err != nil {
		return "", err
	}

	path := filepath.Join(g.OutputDir, ".metadata.json")

	return path, os.WriteFile(path, data, 0644)
}
