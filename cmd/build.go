// Copyright (c) 2026, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/choria-io/fisk"

	"github.com/choria-io/hcpfix/cmdline"
	"github.com/choria-io/hcpfix/executor"
	"github.com/choria-io/hcpfix/model"
)

type buildCommand struct {
	executable string
	paramsFile string
	noKeys     bool
	shell      bool
}

func registerBuildCommand(app *fisk.Application) {
	cmd := &buildCommand{}

	build := app.Command("build", "Shows the command built from a parameters file").Action(cmd.buildAction)
	build.Arg("executable", "The command to extend, may include fixed arguments").Required().StringVar(&cmd.executable)
	build.Arg("params", "YAML file holding an ordered mapping of parameters").ExistingFileVar(&cmd.paramsFile)
	build.Flag("no-keys", "Render only parameter values").UnNegatableBoolVar(&cmd.noKeys)
	build.Flag("shell", "Show the command quoted for a shell").UnNegatableBoolVar(&cmd.shell)
}

func (c *buildCommand) buildAction(_ *fisk.ParseContext) error {
	base, err := cmdline.Parse(c.executable)
	if err != nil {
		return err
	}

	params := model.NewParams()
	if c.paramsFile != "" {
		data, err := os.ReadFile(c.paramsFile)
		if err != nil {
			return err
		}

		params, err = model.NewParamsFromYaml(data)
		if err != nil {
			return err
		}
	}

	command, err := cmdline.Build(base, params, !c.noKeys)
	if err != nil {
		return err
	}

	if c.shell {
		fmt.Println(executor.JoinShell(command))
		return nil
	}

	j, err := json.MarshalIndent(command, "", "  ")
	if err != nil {
		return err
	}

	fmt.Println(string(j))

	return nil
}
