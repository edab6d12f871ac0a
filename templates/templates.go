// Copyright (c) 2025-2026, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package templates resolves {{ expression }} placeholders in gear settings
package templates

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/tidwall/gjson"
)

var placeholder = regexp.MustCompile(`{{\s*(.*?)\s*}}`)

// Env is the data available to expressions
type Env struct {
	Facts   map[string]any    `json:"facts" expr:"facts"`
	Config  map[string]any    `json:"config" expr:"config"`
	Environ map[string]string `json:"environ" expr:"environ"`

	envJSON json.RawMessage
	mu      sync.Mutex
}

// lookup finds a value using a gjson path, returning the default or "" when not found
func (e *Env) lookup(params ...any) (any, error) {
	if len(params) == 0 || len(params) > 2 {
		return nil, fmt.Errorf("lookup requires 1 or 2 arguments")
	}

	key, ok := params[0].(string)
	if !ok {
		return nil, fmt.Errorf("lookup requires a string argument")
	}

	var defaultValue any = ""
	if len(params) == 2 {
		defaultValue = params[1]
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.envJSON == nil {
		j, err := json.Marshal(e)
		if err != nil {
			return nil, err
		}
		e.envJSON = j
	}

	res := gjson.GetBytes(e.envJSON, key)
	if !res.Exists() {
		return defaultValue, nil
	}

	if res.Type == gjson.Number {
		if strings.Contains(res.Raw, ".") {
			return res.Float(), nil
		}

		return res.Int(), nil
	}

	return res.Value(), nil
}

// HasTemplate determines if s holds any placeholders
func HasTemplate(s string) bool {
	return placeholder.MatchString(s)
}

// ResolveTemplateString replaces every {{ expression }} in template with its value
func ResolveTemplateString(template string, env *Env) (string, error) {
	if env == nil {
		env = &Env{}
	}

	locs := placeholder.FindAllStringSubmatchIndex(template, -1)
	if locs == nil {
		return template, nil
	}

	var result strings.Builder
	last := 0

	for _, loc := range locs {
		value, err := evaluate(template[loc[2]:loc[3]], env)
		if err != nil {
			return "", err
		}

		result.WriteString(template[last:loc[0]])
		if value != nil {
			result.WriteString(fmt.Sprint(value))
		}

		last = loc[1]
	}

	result.WriteString(template[last:])

	return result.String(), nil
}

// ResolveMap resolves every string value in m in place, nested maps included
func ResolveMap(m map[string]any, env *Env) error {
	for k, v := range m {
		switch val := v.(type) {
		case string:
			res, err := ResolveTemplateString(val, env)
			if err != nil {
				return fmt.Errorf("%s: %w", k, err)
			}
			m[k] = res

		case map[string]any:
			err := ResolveMap(val, env)
			if err != nil {
				return fmt.Errorf("%s: %w", k, err)
			}
		}
	}

	return nil
}

func evaluate(query string, env *Env) (any, error) {
	program, err := expr.Compile(query, expr.Env(env), expr.Function("lookup", env.lookup))
	if err != nil {
		return nil, fmt.Errorf("expr compile error for '%s': %w", query, err)
	}

	return expr.Run(program, env)
}
