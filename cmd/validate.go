// Copyright (c) 2026, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"fmt"

	"github.com/choria-io/fisk"

	"github.com/choria-io/hcpfix/gear"
	"github.com/choria-io/hcpfix/model"
)

type validateCommand struct {
	opts gear.Options
}

func registerValidateCommand(app *fisk.Application) {
	cmd := &validateCommand{}

	validate := app.Command("validate", "Validates the gear configuration against its manifest").Action(cmd.validateAction)
	validate.Flag("base", "Gear base directory").PlaceHolder("DIR").StringVar(&cmd.opts.BaseDir)
	validate.Flag("config", "Gear invocation file").PlaceHolder("FILE").ExistingFileVar(&cmd.opts.ConfigFile)
	validate.Flag("manifest", "Gear manifest file").PlaceHolder("FILE").ExistingFileVar(&cmd.opts.ManifestFile)
}

func (c *validateCommand) validateAction(_ *fisk.ParseContext) error {
	g, err := gear.Load(newQuietLogger(), c.opts)
	if err != nil {
		return err
	}

	err = g.ValidateManifest()
	var verr *model.ValidationError
	switch {
	case errors.As(err, &verr):
		fmt.Printf("%s %s configuration is not valid:\n\n", g.Name(), g.Version())
		for _, problem := range verr.Problems {
			fmt.Printf("  %s\n", problem)
		}
		fmt.Println()

		return fmt.Errorf("validation failed with %d problem(s)", len(verr.Problems))
	case err != nil:
		return err
	}

	fmt.Printf("%s %s configuration is valid\n", g.Name(), g.Version())

	return nil
}
