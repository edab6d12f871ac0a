// Copyright (c) 2026, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package icafix

import (
	"fmt"
	"path"
	"path/filepath"
	"sort"
	"strings"

	iu "github.com/choria-io/hcpfix/internal/util"
)

const (
	taskDirPattern      = "*/MNINonLinear/Results/*task*"
	cleanFilePattern    = taskDirPattern + "/*task*clean*"
	intermediatePattern = taskDirPattern + "/*task*.ica"
)

// FunctionalFiles finds the preprocessed task fMRI images in workDir, each task directory
// <subject>/MNINonLinear/Results/<task> holds the image <task>.nii.gz
func FunctionalFiles(workDir string) ([]string, error) {
	dirs, err := filepath.Glob(filepath.Join(workDir, taskDirPattern))
	if err != nil {
		return nil, err
	}

	files := []string{}
	for _, dir := range dirs {
		if !iu.IsDirectory(dir) {
			continue
		}

		files = append(files, filepath.Join(dir, filepath.Base(dir)+".nii.gz"))
	}

	sort.Strings(files)

	return files, nil
}

// FunctionalFilesFromListing finds the task fMRI images that would be extracted into workDir
// from an archive holding files
func FunctionalFilesFromListing(workDir string, files []string) []string {
	seen := map[string]struct{}{}
	res := []string{}

	for _, file := range files {
		parts := strings.Split(strings.TrimPrefix(file, "./"), "/")
		if len(parts) < 5 {
			continue
		}

		dir := path.Join(parts[:4]...)
		ok, err := path.Match(taskDirPattern, dir)
		if err != nil || !ok {
			continue
		}

		if _, found := seen[dir]; found {
			continue
		}
		seen[dir] = struct{}{}

		res = append(res, filepath.Join(workDir, filepath.FromSlash(dir), parts[3]+".nii.gz"))
	}

	sort.Strings(res)

	return res
}

// ResultFiles finds the cleaned images produced by hcp_fix and, unless deleteIntermediates is set,
// the .ica directories
func ResultFiles(workDir string, deleteIntermediates bool) ([]string, error) {
	patterns := []string{cleanFilePattern}
	if !deleteIntermediates {
		patterns = append(patterns, intermediatePattern)
	}

	var res []string
	for _, pattern := range patterns {
		matches, err := filepath.Glob(filepath.Join(workDir, pattern))
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %s: %w", pattern, err)
		}

		res = append(res, matches...)
	}

	sort.Strings(res)

	return res, nil
}

// taskName is the name of the task an image belongs to
func taskName(file string) string {
	return filepath.Base(filepath.Dir(file))
}
