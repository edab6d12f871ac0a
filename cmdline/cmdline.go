// Copyright (c) 2026, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package cmdline turns ordered parameter sets into command line tokens.
//
// Single character names become short flags (-k value), longer names become long
// flags (--key=value). Boolean long flags are presence only. When keys are excluded the
// values form a positional argument list in parameter order.
package cmdline

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/kballard/go-shellquote"

	"github.com/choria-io/hcpfix/model"
)

// Build extends base with tokens for every parameter in order. A new command is
// returned, base is never modified so it can safely be reused.
func Build(base model.Command, params *model.Params, includeKeys bool) (model.Command, error) {
	command := base.Clone()

	for key, value := range params.All() {
		if key == "" {
			return nil, model.ErrEmptyParameterName
		}

		if len(key) == 1 {
			val, err := FormatValue(key, value)
			if err != nil {
				return nil, err
			}

			if includeKeys {
				command = append(command, "-"+key)
			}
			if val != "" {
				command = append(command, val)
			}

			continue
		}

		if b, ok := value.(bool); ok {
			if b && includeKeys {
				command = append(command, "--"+key)
			}

			continue
		}

		val, err := FormatValue(key, value)
		if err != nil {
			return nil, err
		}

		var item string
		if includeKeys {
			item = "--" + key
		}
		if val != "" {
			if includeKeys {
				item += "="
			}
			item += val
		}

		if item != "" {
			command = append(command, item)
		}
	}

	return command, nil
}

// FormatValue renders a parameter value the way it appears on the command line,
// values that are not strings, booleans or numbers are rejected
func FormatValue(key string, value any) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case bool:
		return strconv.FormatBool(v), nil
	case int:
		return strconv.Itoa(v), nil
	case int8:
		return strconv.FormatInt(int64(v), 10), nil
	case int16:
		return strconv.FormatInt(int64(v), 10), nil
	case int32:
		return strconv.FormatInt(int64(v), 10), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case uint:
		return strconv.FormatUint(uint64(v), 10), nil
	case uint8:
		return strconv.FormatUint(uint64(v), 10), nil
	case uint16:
		return strconv.FormatUint(uint64(v), 10), nil
	case uint32:
		return strconv.FormatUint(uint64(v), 10), nil
	case uint64:
		return strconv.FormatUint(v, 10), nil
	case float32:
		return formatFloat(key, float64(v), 32)
	case float64:
		return formatFloat(key, v, 64)
	case json.Number:
		return v.String(), nil
	default:
		return "", &model.BuildError{Key: key, Value: value}
	}
}

func formatFloat(key string, v float64, bits int) (string, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "", &model.BuildError{Key: key, Value: v}
	}

	return strconv.FormatFloat(v, 'f', -1, bits), nil
}

// Parse splits a shell style command string into a command, for example a configured
// executable that carries fixed leading arguments
func Parse(command string) (model.Command, error) {
	words, err := shellquote.Split(command)
	if err != nil {
		return nil, err
	}

	if len(words) == 0 {
		return nil, fmt.Errorf("%w: %q", model.ErrEmptyCommand, command)
	}

	return model.Command(words), nil
}
