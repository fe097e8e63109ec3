// Copyright 2026 The Mario Authors
// SPDX-License-Identifier: Apache-2.0

// Package pipelinedef reads, validates and uploads Azure Data Factory
// pipeline definitions authored as local JSON files.
//
// Files use the management API's pipeline resource schema:
//
//	{"name": "copy_iris", "properties": {"activities": [...]}}
//
// extended with // line comments, /* block comments */ and trailing
// commas, which are stripped before decoding.
//
// The typical flow:
//
//  1. LoadDir or ReadFile: JSON bytes → Definition
//  2. ValidateAll: name and structure checks across every file
//  3. UploadAll: one create-or-update per definition, keyed by its name
package pipelinedef

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/datafactory/armdatafactory/v3"
	"github.com/tidwall/jsonc"
)

// ErrEmpty is returned for a file that holds no pipeline at all (empty,
// whitespace or comments only, or a JSON null).
var ErrEmpty = errors.New("pipeline definition is empty")

// Definition is one pipeline resource together with where it came from.
type Definition struct {
	// Path is the source file, or "" for definitions not read from disk.
	Path string

	Resource armdatafactory.PipelineResource
}

// Name returns the resource's own name, or "" if it has none.
func (d *Definition) Name() string {
	if d.Resource.Name == nil {
		return ""
	}
	return *d.Resource.Name
}

// Source describes the definition for messages: its path when known,
// otherwise its name.
func (d *Definition) Source() string {
	if d.Path != "" {
		return d.Path
	}
	return d.Name()
}

// Parse strips JSONC comments and trailing commas from data, then
// decodes the result as a pipeline resource.
func Parse(data []byte) (*armdatafactory.PipelineResource, error) {
	stripped := bytes.TrimSpace(jsonc.ToJSON(data))
	if len(stripped) == 0 || bytes.Equal(stripped, []byte("null")) {
		return nil, ErrEmpty
	}

	var resource armdatafactory.PipelineResource
	if err := resource.UnmarshalJSON(stripped); err != nil {
		return nil, fmt.Errorf("parsing pipeline: %w", err)
	}
	return &resource, nil
}

// ReadFile reads and parses one pipeline file. Errors name the path.
func ReadFile(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	resource, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &Definition{Path: path, Resource: *resource}, nil
}

// Pattern is the glob matched inside a pipeline directory.
const Pattern = "*.json"

// Files returns the pipeline files directly inside dir, sorted by name.
// Subdirectories are not searched.
func Files(dir string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("pipeline directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("pipeline directory %s is not a directory", dir)
	}

	// Only the pattern is a glob; dir is taken literally even when it
	// contains metacharacters such as "[".
	matches, err := fs.Glob(os.DirFS(dir), Pattern)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", dir, err)
	}
	files := make([]string, 0, len(matches))
	for _, match := range matches {
		path := filepath.Join(dir, match)
		if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
			files = append(files, path)
		}
	}
	sort.Strings(files)
	return files, nil
}

// LoadDir reads every pipeline file in dir. The first file that cannot
// be read or parsed aborts the load.
func LoadDir(dir string) ([]*Definition, error) {
	files, err := Files(dir)
	if err != nil {
		return nil, err
	}

	definitions := make([]*Definition, 0, len(files))
	for _, path := range files {
		definition, err := ReadFile(path)
		if err != nil {
			return nil, err
		}
		definitions = append(definitions, definition)
	}
	return definitions, nil
}

// NameFromPath extracts the file stem from a path: "pipelines/copy_iris.json"
// returns "copy_iris". Used to warn when a file's name and its
// resource's name disagree.
func NameFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
