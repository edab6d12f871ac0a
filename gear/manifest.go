// Copyright (c) 2026, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package gear

import (
	"bytes"
	"errors"
	"fmt"
	"sort"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/tidwall/gjson"

	"github.com/choria-io/hcpfix/model"
)

// config keywords copied from the manifest into the schema
var configKeywords = []string{"type", "minimum", "maximum", "exclusiveMinimum", "exclusiveMaximum", "enum", "minLength", "maxLength", "pattern", "minItems", "maxItems"}

// ValidateManifest checks the gear configuration and inputs against the constraints in the manifest,
// all problems are reported in a single *model.ValidationError
func (g *Gear) ValidateManifest() error {
	schema, err := ManifestSchema(g.manifest)
	if err != nil {
		return err
	}

	instance, err := jsonschema.UnmarshalJSON(bytes.NewReader(invocationDocument(g.config)))
	if err != nil {
		return err
	}

	c := jsonschema.NewCompiler()
	err = c.AddResource("manifest.json", schema)
	if err != nil {
		return err
	}

	sch, err := c.Compile("manifest.json")
	if err != nil {
		return fmt.Errorf("%w: could not compile manifest constraints: %w", model.ErrInvalidConfiguration, err)
	}

	err = sch.Validate(instance)
	if err == nil {
		return nil
	}

	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return err
	}

	return &model.ValidationError{Problems: validationProblems(verr.BasicOutput())}
}

func validationProblems(output *jsonschema.OutputUnit) []string {
	problems := []string{}

	for _, unit := range output.Errors {
		if unit.Error == nil {
			continue
		}

		location := unit.InstanceLocation
		if location == "" {
			location = "/"
		}

		problems = append(problems, fmt.Sprintf("%s: %s", location, unit.Error.String()))
	}

	if len(problems) == 0 && output.Error != nil {
		problems = append(problems, output.Error.String())
	}

	sort.Strings(problems)

	return problems
}

// invocationDocument normalizes config.json so missing sections are validated as empty
func invocationDocument(config []byte) []byte {
	cfg := gjson.GetBytes(config, "config").Raw
	if cfg == "" {
		cfg = "{}"
	}

	inputs := gjson.GetBytes(config, "inputs").Raw
	if inputs == "" {
		inputs = "{}"
	}

	return fmt.Appendf(nil, `{"config":%s,"inputs":%s}`, cfg, inputs)
}

// ManifestSchema converts the config and inputs constraints of a gear manifest into a JSON Schema
func ManifestSchema(manifest []byte) (map[string]any, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(manifest))
	if err != nil {
		return nil, fmt.Errorf("%w: invalid manifest: %w", model.ErrInvalidConfiguration, err)
	}

	m, ok := doc.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: manifest is not an object", model.ErrInvalidConfiguration)
	}

	configSchema := objectSchema()
	if config, ok := m["config"].(map[string]any); ok {
		for _, key := range sortedKeys(config) {
			item, ok := config[key].(map[string]any)
			if !ok {
				continue
			}

			configSchema["properties"].(map[string]any)[key] = configPropertySchema(item)
			if !optional(item) {
				configSchema["required"] = append(configSchema["required"].([]any), key)
			}
		}
	}

	inputsSchema := objectSchema()
	if inputs, ok := m["inputs"].(map[string]any); ok {
		for _, key := range sortedKeys(inputs) {
			item, ok := inputs[key].(map[string]any)
			if !ok {
				continue
			}

			inputsSchema["properties"].(map[string]any)[key] = inputPropertySchema(item)
			if !optional(item) {
				inputsSchema["required"] = append(inputsSchema["required"].([]any), key)
			}
		}
	}

	return map[string]any{
		"$schema": "https://json-schema.org/draft/2020-12/schema",
		"type":    "object",
		"properties": map[string]any{
			"config": configSchema,
			"inputs": inputsSchema,
		},
	}, nil
}

func objectSchema() map[string]any {
	return map[string]any{
		"type":       "object",
		"properties": map[string]any{},
		"required":   []any{},
	}
}

func configPropertySchema(item map[string]any) map[string]any {
	prop := map[string]any{}
	for _, kw := range configKeywords {
		if v, ok := item[kw]; ok {
			prop[kw] = v
		}
	}

	// item counts are also accepted inside items
	if items, ok := item["items"].(map[string]any); ok {
		for _, kw := range []string{"minItems", "maxItems"} {
			if v, ok := items[kw]; ok {
				prop[kw] = v
			}
		}

		if t, ok := items["type"]; ok {
			prop["items"] = map[string]any{"type": t}
		}
	}

	return prop
}

func inputPropertySchema(item map[string]any) map[string]any {
	prop := map[string]any{"type": "object"}

	fileType, ok := item["type"].(map[string]any)
	if !ok {
		return prop
	}

	enum, ok := fileType["enum"].([]any)
	if !ok || len(enum) == 0 {
		return prop
	}

	prop["properties"] = map[string]any{
		"object": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"type": map[string]any{"enum": enum},
			},
			"required": []any{"type"},
		},
	}

	return prop
}

func optional(item map[string]any) bool {
	opt, ok := item["optional"].(bool)

	return ok && opt
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	return keys
}
