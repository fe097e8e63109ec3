// Copyright 2026 The Mario Authors
// SPDX-License-Identifier: Apache-2.0

package pipelinerun

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
)

// TemplateData is the dot value for parameter templates.
type TemplateData struct {
	Pipeline string
	Factory  string
}

// Parameters holds run parameters parsed from --param flags.
//
// Two forms are accepted:
//
//	KEY=VALUE   VALUE is a text/template with sprig functions, rendered
//	            per pipeline to a string: day={{ now | date "2006-01-02" }}
//	KEY:=JSON   JSON is decoded and passed as-is: retries:=3
type Parameters struct {
	entries []parameter
}

type parameter struct {
	key      string
	template *template.Template
	value    any
}

// ParseParameters parses --param values. A nil result with a nil error
// means no parameters were given.
func ParseParameters(specs []string) (*Parameters, error) {
	if len(specs) == 0 {
		return nil, nil
	}

	seen := make(map[string]bool, len(specs))
	parameters := &Parameters{entries: make([]parameter, 0, len(specs))}
	for _, spec := range specs {
		index := strings.IndexByte(spec, '=')
		if index < 0 {
			return nil, fmt.Errorf("invalid parameter %q: expected KEY=VALUE or KEY:=JSON", spec)
		}

		key, raw := spec[:index], spec[index+1:]
		isJSON := strings.HasSuffix(key, ":")
		key = strings.TrimSuffix(key, ":")
		if key == "" {
			return nil, fmt.Errorf("invalid parameter %q: empty key", spec)
		}
		if seen[key] {
			return nil, fmt.Errorf("parameter %q given more than once", key)
		}
		seen[key] = true

		entry := parameter{key: key}
		if isJSON {
			if err := json.Unmarshal([]byte(raw), &entry.value); err != nil {
				return nil, fmt.Errorf("parameter %q: invalid JSON value: %w", key, err)
			}
		} else {
			compiled, err := template.New(key).Funcs(sprig.TxtFuncMap()).Option("missingkey=error").Parse(raw)
			if err != nil {
				return nil, fmt.Errorf("parameter %q: %w", key, err)
			}
			entry.template = compiled
		}
		parameters.entries = append(parameters.entries, entry)
	}
	return parameters, nil
}

// Render evaluates every parameter for one pipeline. A nil receiver
// renders to a nil map.
func (p *Parameters) Render(data TemplateData) (map[string]any, error) {
	if p == nil || len(p.entries) == 0 {
		return nil, nil
	}

	rendered := make(map[string]any, len(p.entries))
	for _, entry := range p.entries {
		if entry.template == nil {
			rendered[entry.key] = entry.value
			continue
		}
		var builder strings.Builder
		if err := entry.template.Execute(&builder, data); err != nil {
			return nil, fmt.Errorf("rendering parameter %q: %w", entry.key, err)
		}
		rendered[entry.key] = builder.String()
	}
	return rendered, nil
}

// Keys returns the parameter names in the order given.
func (p *Parameters) Keys() []string {
	if p == nil {
		return nil
	}
	keys := make([]string, len(p.entries))
	for i, entry := range p.entries {
		keys[i] = entry.key
	}
	return keys
}
