// Copyright (c) 2026, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package model

import (
	"encoding/json"
	"iter"

	"github.com/goccy/go-yaml"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Params is an ordered set of command line parameters, the order of insertion is the
// order parameters appear on the command line so reordering them changes the command
type Params struct {
	m *orderedmap.OrderedMap[string, any]
}

// Param is a single named parameter
type Param struct {
	Name  string
	Value any
}

// NewParams creates a parameter set holding params in the given order
func NewParams(params ...Param) *Params {
	p := &Params{m: orderedmap.New[string, any]()}
	for _, param := range params {
		p.Set(param.Name, param.Value)
	}

	return p
}

// NewParamsFromYaml parses a YAML mapping into parameters preserving document order
func NewParamsFromYaml(data []byte) (*Params, error) {
	var ms yaml.MapSlice
	err := yaml.Unmarshal(data, &ms)
	if err != nil {
		return nil, err
	}

	p := NewParams()
	for _, item := range ms {
		name, ok := item.Key.(string)
		if !ok {
			return nil, &BuildError{Key: yamlKey(item.Key), Value: item.Value}
		}
		p.Set(name, item.Value)
	}

	return p, nil
}

func yamlKey(k any) string {
	j, err := json.Marshal(k)
	if err != nil {
		return "<unknown>"
	}

	return string(j)
}

// Set adds a parameter at the end, an existing parameter keeps its position and gets the new value
func (p *Params) Set(name string, value any) *Params {
	p.m.Set(name, value)
	return p
}

// Get retrieves a parameter value
func (p *Params) Get(name string) (any, bool) {
	return p.m.Get(name)
}

// Delete removes a parameter
func (p *Params) Delete(name string) {
	p.m.Delete(name)
}

// Len is the number of parameters
func (p *Params) Len() int {
	if p == nil || p.m == nil {
		return 0
	}

	return p.m.Len()
}

// All iterates the parameters in order
func (p *Params) All() iter.Seq2[string, any] {
	return func(yield func(string, any) bool) {
		if p == nil || p.m == nil {
			return
		}

		for pair := p.m.Oldest(); pair != nil; pair = pair.Next() {
			if !yield(pair.Key, pair.Value) {
				return
			}
		}
	}
}

// Names returns the parameter names in order
func (p *Params) Names() []string {
	var names []string
	for k := range p.All() {
		names = append(names, k)
	}

	return names
}

// MarshalJSON encodes the parameters as a JSON object in parameter order
func (p *Params) MarshalJSON() ([]byte, error) {
	if p == nil || p.m == nil {
		return []byte("{}"), nil
	}

	return p.m.MarshalJSON()
}
