// Copyright (c) 2026, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package archive reads and writes the zip files gears receive and produce
package archive

import (
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/klauspost/compress/zip"
	"github.com/tidwall/gjson"

	"github.com/choria-io/hcpfix/metrics"
)

// ConfigSuffix is the suffix of the exported gear configuration stored in analysis archives
const ConfigSuffix = "_config.json"

// Listing describes the content of a zip file
type Listing struct {
	// Path is the zip file
	Path string `json:"path"`
	// Files are all the file names in the zip file, directories excluded
	Files []string `json:"files"`
	// TopDirectories are the unique top level directories in the zip file
	TopDirectories []string `json:"top_directories"`
	// ConfigFile is the name of the exported configuration in the zip file, empty when not found
	ConfigFile string `json:"config_file,omitempty"`
	// Config is the exported configuration in the form {"config": {...}}
	Config json.RawMessage `json:"config,omitempty"`
}

// ConfigValue retrieves a value from the exported configuration using a gjson path relative to config
func (l *Listing) ConfigValue(key string) gjson.Result {
	if len(l.Config) == 0 {
		return gjson.Result{}
	}

	return gjson.GetBytes(l.Config, "config."+key)
}

// Inspect lists the content of a zip file and loads any exported configuration it holds
func Inspect(file string) (*Listing, error) {
	zr, err := zip.OpenReader(file)
	if err != nil {
		return nil, fmt.Errorf("could not open %s: %w", file, err)
	}
	defer zr.Close()

	listing := &Listing{Path: file, Files: []string{}, TopDirectories: []string{}}
	tops := map[string]struct{}{}

	for _, f := range zr.File {
		name := strings.TrimPrefix(f.Name, "./")
		if top, _, found := strings.Cut(name, "/"); found && top != "" {
			tops[top] = struct{}{}
		}

		if f.FileInfo().IsDir() {
			continue
		}

		listing.Files = append(listing.Files, name)

		if listing.ConfigFile == "" && strings.HasSuffix(name, ConfigSuffix) {
			cfg, err := readConfig(f)
			if err != nil {
				return nil, fmt.Errorf("could not read %s from %s: %w", name, file, err)
			}

			listing.ConfigFile = name
			listing.Config = cfg
		}
	}

	for top := range tops {
		listing.TopDirectories = append(listing.TopDirectories, top)
	}
	sort.Strings(listing.TopDirectories)

	return listing, nil
}

// readConfig normalizes exported configurations to {"config": {...}}, lists use their first item
func readConfig(f *zip.File) (json.RawMessage, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, err
	}

	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("invalid JSON")
	}

	res := gjson.ParseBytes(data)
	if res.IsArray() {
		res = res.Get("0")
	}

	if !res.IsObject() {
		return nil, fmt.Errorf("configuration is not an object")
	}

	if res.Get("config").Exists() {
		return json.RawMessage(res.Raw), nil
	}

	return json.RawMessage(fmt.Sprintf(`{"config":%s}`, res.Raw)), nil
}

// Extract unpacks file into dest returning the paths of the extracted files, entries that
// would be written outside of dest are rejected
func Extract(file string, dest string) ([]string, error) {
	zr, err := zip.OpenReader(file)
	if err != nil {
		return nil, fmt.Errorf("could not open %s: %w", file, err)
	}
	defer zr.Close()

	absDest, err := filepath.Abs(dest)
	if err != nil {
		return nil, err
	}

	err = os.MkdirAll(absDest, 0755)
	if err != nil {
		return nil, err
	}

	var extracted []string
	for _, f := range zr.File {
		target, err := safeJoin(absDest, f.Name)
		if err != nil {
			return nil, err
		}

		if f.FileInfo().IsDir() {
			err = os.MkdirAll(target, 0755)
			if err != nil {
				return nil, err
			}
			continue
		}

		err = extractFile(f, target)
		if err != nil {
			return nil, fmt.Errorf("could not extract %s: %w", f.Name, err)
		}

		extracted = append(extracted, target)
	}

	return extracted, nil
}

func safeJoin(dest string, name string) (string, error) {
	if filepath.IsAbs(name) || strings.HasPrefix(name, "/") {
		return "", fmt.Errorf("archive entry %q has an absolute path", name)
	}

	target := filepath.Join(dest, filepath.FromSlash(name))
	rel, err := filepath.Rel(dest, target)
	if err != nil || outside(rel) {
		return "", fmt.Errorf("archive entry %q is outside the destination directory", name)
	}

	return target, nil
}

func outside(rel string) bool {
	return rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func extractFile(f *zip.File, target string) error {
	err := os.MkdirAll(filepath.Dir(target), 0755)
	if err != nil {
		return err
	}

	mode := f.Mode().Perm()
	if mode == 0 {
		mode = 0644
	}

	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, mode)
	if err != nil {
		return err
	}

	_, err = io.Copy(out, rc)
	if err != nil {
		out.Close()
		return err
	}

	return out.Close()
}

// Create writes a deflate compressed zip file to dest holding paths, directories are added
// recursively. Names in the archive are relative to baseDir. Returns the number of files added.
func Create(dest string, baseDir string, paths []string) (int, error) {
	absBase, err := filepath.Abs(baseDir)
	if err != nil {
		return 0, err
	}

	err = os.MkdirAll(filepath.Dir(dest), 0755)
	if err != nil {
		return 0, err
	}

	out, err := os.Create(dest)
	if err != nil {
		return 0, err
	}

	// a failed archive is removed so no partial output is left behind
	complete := false
	defer func() {
		if !complete {
			os.Remove(dest)
		}
	}()

	zw := zip.NewWriter(out)
	count := 0
	seen := map[string]struct{}{}

	for _, p := range paths {
		absPath, err := filepath.Abs(p)
		if err != nil {
			return 0, closeAll(zw, out, err)
		}

		err = filepath.WalkDir(absPath, func(walked string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}

			if d.IsDir() {
				return nil
			}

			rel, err := filepath.Rel(absBase, walked)
			if err != nil || outside(rel) {
				return fmt.Errorf("%s is not within %s", walked, absBase)
			}

			name := path.Clean(filepath.ToSlash(rel))
			if _, ok := seen[name]; ok {
				return nil
			}
			seen[name] = struct{}{}

			err = addFile(zw, walked, name)
			if err != nil {
				return err
			}

			count++

			return nil
		})
		if err != nil {
			return 0, closeAll(zw, out, err)
		}
	}

	err = closeAll(zw, out, nil)
	if err != nil {
		return 0, err
	}
	complete = true

	archive := filepath.Base(dest)
	metrics.ArchiveFiles.WithLabelValues(archive).Set(float64(count))
	if stat, err := os.Stat(dest); err == nil {
		metrics.ArchiveBytes.WithLabelValues(archive).Set(float64(stat.Size()))
	}

	return count, nil
}

func addFile(zw *zip.Writer, file string, name string) error {
	stat, err := os.Stat(file)
	if err != nil {
		return err
	}

	hdr, err := zip.FileInfoHeader(stat)
	if err != nil {
		return err
	}
	hdr.Name = name
	hdr.Method = zip.Deflate

	w, err := zw.CreateHeader(hdr)
	if err != nil {
		return err
	}

	in, err := os.Open(file)
	if err != nil {
		return err
	}
	defer in.Close()

	_, err = io.Copy(w, in)

	return err
}

func closeAll(zw *zip.Writer, out *os.File, err error) error {
	zerr := zw.Close()
	ferr := out.Close()

	switch {
	case err != nil:
		return err
	case zerr != nil:
		return zerr
	default:
		return ferr
	}
}
