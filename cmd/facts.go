// Copyright (c) 2025-2026, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/choria-io/fisk"
	"github.com/goccy/go-yaml"
	"github.com/tidwall/gjson"

	"github.com/choria-io/hcpfix/internal/facts"
)

type factsCommand struct {
	yamlFormat bool
	query      string
	workDir    string
}

func registerFactsCommand(app *fisk.Application) {
	cmd := &factsCommand{}

	f := app.Command("facts", "Shows system facts").Action(cmd.factsAction)
	f.Arg("query", "Query to execute").StringVar(&cmd.query)
	f.Flag("work", "Directory to report disk usage for").Default(".").ExistingDirVar(&cmd.workDir)
	f.Flag("yaml", "Output facts in YAML format").UnNegatableBoolVar(&cmd.yamlFormat)
}

func (c *factsCommand) factsAction(_ *fisk.ParseContext) error {
	all, err := facts.StandardFacts(ctx, newQuietLogger(), c.workDir)
	if err != nil {
		return err
	}

	f, err := json.Marshal(all)
	if err != nil {
		return err
	}

	if c.query != "" {
		f = []byte(gjson.GetBytes(f, c.query).Raw)
		if len(f) == 0 {
			return fmt.Errorf("no facts match %q", c.query)
		}
	}

	if c.yamlFormat {
		y, err := yaml.JSONToYAML(f)
		if err != nil {
			return err
		}

		fmt.Println(string(y))
		return nil
	}

	j := bytes.NewBuffer([]byte{})
	err = json.Indent(j, f, "", "  ")
	if err != nil {
		return err
	}

	fmt.Println(j.String())

	return nil
}
