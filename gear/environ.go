// Copyright (c) 2026, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package gear

import (
	"encoding/json"
	"fmt"
	"os"

	iu "github.com/choria-io/hcpfix/internal/util"
	"github.com/choria-io/hcpfix/model"
)

// LoadEnviron reads the environment hcp_fix runs with from a flat JSON object of strings.
// When file does not exist the environment of the current process is used.
func LoadEnviron(log model.Logger, file string) (model.Environment, error) {
	if file == "" || !iu.FileExists(file) {
		log.Info("Gear environment file not found, using the process environment", "file", file)
		return model.EnvironmentFromSlice(os.Environ()), nil
	}

	data, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}

	env := model.Environment{}
	err = json.Unmarshal(data, &env)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid environment file %s: %w", model.ErrInvalidConfiguration, file, err)
	}

	log.Debug("Loaded gear environment", "file", file, "variables", len(env))

	return env, nil
}
