// Copyright 2026 The Mario Authors
// SPDX-License-Identifier: Apache-2.0

// Package tfvars reads the variable declarations from a Terraform
// configuration file. mario uses it to find the storage account and
// container that the infrastructure provisions, so test data can be
// seeded without repeating those names in flags.
package tfvars

import (
	"fmt"
	"os"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

var (
	fileSchema = &hcl.BodySchema{
		Blocks: []hcl.BlockHeaderSchema{
			{Type: "variable", LabelNames: []string{"name"}},
		},
	}

	variableSchema = &hcl.BodySchema{
		Attributes: []hcl.AttributeSchema{
			{Name: "default"},
			{Name: "type"},
			{Name: "description"},
			{Name: "sensitive"},
			{Name: "nullable"},
		},
		Blocks: []hcl.BlockHeaderSchema{
			{Type: "validation"},
		},
	}
)

// Variable is one declared input variable.
type Variable struct {
	Name        string
	Description string

	// Type is the type constraint as written, e.g. "string" or
	// "list(string)". Empty when the declaration has none.
	Type string

	// Default is cty.NilVal when the variable has no default.
	Default   cty.Value
	Sensitive bool
}

// HasDefault reports whether the declaration sets a default.
func (v Variable) HasDefault() bool { return !v.Default.IsNull() }

// DefaultString returns the default converted to a string. Numbers and
// bools convert; collections do not.
func (v Variable) DefaultString() (string, error) {
	if !v.HasDefault() {
		return "", fmt.Errorf("variable %q has no default", v.Name)
	}
	converted, err := convert.Convert(v.Default, cty.String)
	if err != nil {
		return "", fmt.Errorf("variable %q default is not a string: %w", v.Name, err)
	}
	return converted.AsString(), nil
}

// File is the set of variables declared in one configuration file.
type File struct {
	Variables map[string]Variable
}

// Names returns the declared variable names, sorted.
func (f *File) Names() []string {
	names := make([]string, 0, len(f.Variables))
	for name := range f.Variables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// String returns the string default of a declared variable.
func (f *File) String(name string) (string, error) {
	variable, ok := f.Variables[name]
	if !ok {
		return "", fmt.Errorf("variable %q is not declared", name)
	}
	return variable.DefaultString()
}

// ParseFile reads and parses the configuration file at path.
func ParseFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading terraform variables: %w", err)
	}
	return Parse(data, path)
}

// Parse extracts variable blocks from HCL source. Other top-level
// blocks and attributes are ignored. Defaults must be constant
// expressions.
func Parse(data []byte, filename string) (*File, error) {
	file, diagnostics := hclsyntax.ParseConfig(data, filename, hcl.Pos{Line: 1, Column: 1})
	if diagnostics.HasErrors() {
		return nil, fmt.Errorf("parsing %s: %w", filename, diagnostics)
	}

	content, _, diagnostics := file.Body.PartialContent(fileSchema)
	if diagnostics.HasErrors() {
		return nil, fmt.Errorf("reading %s: %w", filename, diagnostics)
	}

	result := &File{Variables: make(map[string]Variable)}
	for _, block := range content.Blocks {
		variable := Variable{Name: block.Labels[0]}
		if _, duplicate := result.Variables[variable.Name]; duplicate {
			return nil, fmt.Errorf("%s: variable %q declared twice", block.DefRange, variable.Name)
		}

		attributes, diagnostics := block.Body.Content(variableSchema)
		if diagnostics.HasErrors() {
			return nil, fmt.Errorf("variable %q: %w", variable.Name, diagnostics)
		}

		if attribute, ok := attributes.Attributes["default"]; ok {
			value, diagnostics := attribute.Expr.Value(nil)
			if diagnostics.HasErrors() {
				return nil, fmt.Errorf("variable %q default: %w", variable.Name, diagnostics)
			}
			variable.Default = value
		}

		if attribute, ok := attributes.Attributes["type"]; ok {
			variable.Type = hcl.ExprAsKeyword(attribute.Expr)
			if variable.Type == "" {
				variable.Type = string(attribute.Expr.Range().SliceBytes(data))
			}
		}

		if attribute, ok := attributes.Attributes["description"]; ok {
			description, err := stringAttribute(attribute)
			if err != nil {
				return nil, fmt.Errorf("variable %q description: %w", variable.Name, err)
			}
			variable.Description = description
		}

		if attribute, ok := attributes.Attributes["sensitive"]; ok {
			value, diagnostics := attribute.Expr.Value(nil)
			if diagnostics.HasErrors() {
				return nil, fmt.Errorf("variable %q sensitive: %w", variable.Name, diagnostics)
			}
			converted, err := convert.Convert(value, cty.Bool)
			if err != nil || converted.IsNull() {
				return nil, fmt.Errorf("variable %q sensitive: must be a bool", variable.Name)
			}
			variable.Sensitive = converted.True()
		}

		result.Variables[variable.Name] = variable
	}
	return result, nil
}

func stringAttribute(attribute *hcl.Attribute) (string, error) {
	value, diagnostics := attribute.Expr.Value(nil)
	if diagnostics.HasErrors() {
		return "", diagnostics
	}
	converted, err := convert.Convert(value, cty.String)
	if err != nil {
		return "", err
	}
	if converted.IsNull() {
		return "", nil
	}
	return converted.AsString(), nil
}
