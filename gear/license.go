// Copyright (c) 2026, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package gear

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/choria-io/hcpfix/model"
)

// SetFreeSurferLicense writes license.txt into FREESURFER_HOME from the FREESURFER_LICENSE
// configuration value or the FreeSurferLicense input, in that order. The license is written
// one word per line. Returns the path written, empty when no license was supplied.
func (g *Gear) SetFreeSurferLicense() (string, error) {
	license := g.Config("FREESURFER_LICENSE").String()

	if license == "" {
		if input := g.InputPath(InputFreeSurferLicense); input != "" {
			data, err := os.ReadFile(input)
			if err != nil {
				return "", fmt.Errorf("%w: %s: %w", model.ErrInputNotFound, InputFreeSurferLicense, err)
			}
			license = string(data)
		}
	}

	if strings.TrimSpace(license) == "" {
		g.log.Warn("FreeSurfer license not set, check the gear configuration or supply a FreeSurferLicense input")
		return "", nil
	}

	home := g.Environ["FREESURFER_HOME"]
	if home == "" {
		return "", fmt.Errorf("%w: FREESURFER_HOME is not set in the gear environment", model.ErrInvalidConfiguration)
	}

	path := filepath.Join(home, "license.txt")
	err := os.WriteFile(path, []byte(strings.Join(strings.Fields(license), "\n")), 0644)
	if err != nil {
		return "", err
	}

	g.log.Info("Wrote FreeSurfer license", "path", path)

	return path, nil
}
