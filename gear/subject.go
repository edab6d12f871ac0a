// Copyright (c) 2026, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package gear

import (
	"fmt"
	"os"

	"github.com/choria-io/hcpfix/archive"
	iu "github.com/choria-io/hcpfix/internal/util"
	"github.com/choria-io/hcpfix/model"
)

// Subject determines the subject being processed. A Subject configuration value is used first
// with unsafe characters replaced, then the Subject exported by the structural pipeline in
// structural and finally the first directory in the work directory.
func (g *Gear) Subject(structural *archive.Listing) (string, error) {
	if res := g.Config("Subject"); res.Exists() {
		subject := iu.SanitizeLabel(res.String())
		if subject == "" {
			return "", fmt.Errorf("%w: cannot have a zero-length subject", model.ErrInvalidConfiguration)
		}

		return subject, nil
	}

	if structural != nil {
		if res := structural.ConfigValue("Subject"); res.String() != "" {
			return iu.SanitizeLabel(res.String()), nil
		}

		if len(structural.TopDirectories) > 0 {
			return structural.TopDirectories[0], nil
		}
	}

	entries, err := os.ReadDir(g.WorkDir)
	if err == nil {
		for _, entry := range entries {
			if entry.IsDir() && entry.Name() != "logs" {
				return entry.Name(), nil
			}
		}
	}

	return "", fmt.Errorf("%w: could not determine the subject", model.ErrInvalidConfiguration)
}
