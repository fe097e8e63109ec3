// Copyright 2026 The Mario Authors
// SPDX-License-Identifier: Apache-2.0

package pipelinedef

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/datafactory/armdatafactory/v3"
)

const copyIrisJSON = `{
  // authored by hand
  "name": "copy_iris",
  "properties": {
    "description": "copy iris.csv from bronze to silver",
    "folder": {"name": "ingest"},
    "activities": [
      {"name": "wait", "type": "Wait", "typeProperties": {"waitTimeInSeconds": 5}},
      {
        "name": "notebook",
        "type": "DatabricksNotebook",
        "dependsOn": [{"activity": "wait", "dependencyConditions": ["Succeeded"]}],
        "typeProperties": {"notebookPath": "/Shared/iris"},
      },
    ],
  },
}`

func writePipelineFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
	return path
}

func TestParse(t *testing.T) {
	t.Parallel()

	resource, err := Parse([]byte(copyIrisJSON))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if resource.Name == nil || *resource.Name != "copy_iris" {
		t.Fatalf("Name = %v, want copy_iris", resource.Name)
	}
	properties := resource.Properties
	if properties == nil || len(properties.Activities) != 2 {
		t.Fatalf("expected two activities, got %+v", properties)
	}
	if _, ok := properties.Activities[0].(*armdatafactory.WaitActivity); !ok {
		t.Errorf("activities[0] is %T, want *WaitActivity", properties.Activities[0])
	}
	notebook := properties.Activities[1].GetActivity()
	if *notebook.Type != "DatabricksNotebook" {
		t.Errorf("activities[1].type = %q", *notebook.Type)
	}
	if len(notebook.DependsOn) != 1 || *notebook.DependsOn[0].Activity != "wait" {
		t.Errorf("dependsOn = %+v", notebook.DependsOn)
	}
	if properties.Folder == nil || *properties.Folder.Name != "ingest" {
		t.Errorf("folder = %+v, want ingest", properties.Folder)
	}
}

func TestParseEmpty(t *testing.T) {
	t.Parallel()

	for _, input := range []string{"", "  \n", "// only a comment\n", "null"} {
		if _, err := Parse([]byte(input)); !errors.Is(err, ErrEmpty) {
			t.Errorf("Parse(%q) error = %v, want ErrEmpty", input, err)
		}
	}
}

func TestParseMalformed(t *testing.T) {
	t.Parallel()

	_, err := Parse([]byte(`{"name": "broken", "properties": [}`))
	if err == nil {
		t.Fatal("expected error for malformed JSON")
	}
	if errors.Is(err, ErrEmpty) {
		t.Error("malformed input should not be reported as empty")
	}
}

func TestReadFileNamesPath(t *testing.T) {
	t.Parallel()

	path := writePipelineFile(t, t.TempDir(), "empty.json", "")
	_, err := ReadFile(path)
	if !errors.Is(err, ErrEmpty) {
		t.Fatalf("ReadFile error = %v, want ErrEmpty", err)
	}
	if !strings.Contains(err.Error(), path) {
		t.Errorf("error %q should contain the path", err)
	}
}

func TestLoadDir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writePipelineFile(t, dir, "b_second.json", `{"name": "second", "properties": {"activities": []}}`)
	writePipelineFile(t, dir, "a_first.json", `{"name": "first", "properties": {"activities": []}}`)
	writePipelineFile(t, dir, "notes.txt", "not a pipeline")
	if err := os.Mkdir(filepath.Join(dir, "nested.json"), 0o755); err != nil {
		t.Fatal(err)
	}

	definitions, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir: %v", err)
	}
	if len(definitions) != 2 {
		t.Fatalf("got %d definitions, want 2", len(definitions))
	}
	if definitions[0].Name() != "first" || definitions[1].Name() != "second" {
		t.Errorf("order = %s, %s; want files sorted by name", definitions[0].Name(), definitions[1].Name())
	}
	if filepath.Base(definitions[0].Path) != "a_first.json" {
		t.Errorf("Path = %q", definitions[0].Path)
	}
}

func TestFilesLiteralDirectory(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"pipelines[dev]", "stage*", "what?"} {
		dir := filepath.Join(t.TempDir(), name)
		if err := os.Mkdir(dir, 0o755); err != nil {
			t.Fatal(err)
		}
		want := writePipelineFile(t, dir, "copy_iris.json", copyIrisJSON)

		files, err := Files(dir)
		if err != nil {
			t.Fatalf("Files(%q): %v", name, err)
		}
		if len(files) != 1 || files[0] != want {
			t.Errorf("Files(%q) = %v, want [%s]", name, files, want)
		}
	}
}

func TestLoadDirMissing(t *testing.T) {
	t.Parallel()

	if _, err := LoadDir(filepath.Join(t.TempDir(), "absent")); err == nil {
		t.Fatal("expected error for missing directory")
	}
}

func TestNameFromPath(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"pipelines/copy_iris.json": "copy_iris",
		"copy_iris.json":           "copy_iris",
		"/abs/path/with.dots.json": "with.dots",
		"no-extension":             "no-extension",
	}
	for path, want := range tests {
		if got := NameFromPath(path); got != want {
			t.Errorf("NameFromPath(%q) = %q, want %q", path, got, want)
		}
	}
}
