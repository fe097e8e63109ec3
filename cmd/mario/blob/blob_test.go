// Copyright 2026 The Mario Authors
// SPDX-License-Identifier: Apache-2.0

package blob

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"slices"
	"strings"
	"testing"

	"github.com/jeffbrennan/mario/cmd/mario/cli"
	"github.com/jeffbrennan/mario/cmd/mario/cli/clitest"
	"github.com/jeffbrennan/mario/lib/blobseed"
)

const variables = `
variable "storage_account_name" {
  type    = string
  default = "stmariotest"
}

variable "container_name" {
  type    = string
  default = "raw"
}
`

type memoryStore struct {
	account string
	blobs   map[string]string
}

func (s *memoryStore) UploadFile(_ context.Context, container, blobName string, file *os.File) error {
	data, err := io.ReadAll(file)
	if err != nil {
		return err
	}
	s.blobs[container+"/"+blobName] = string(data)
	return nil
}

func (s *memoryStore) ListBlobs(_ context.Context, container, prefix string) ([]string, error) {
	var names []string
	for key := range s.blobs {
		if name, ok := strings.CutPrefix(key, container+"/"); ok && strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names, nil
}

func withStore(t *testing.T) *memoryStore {
	t.Helper()
	store := &memoryStore{blobs: map[string]string{"raw/bronze/old.csv": "x"}}
	original := OpenStore
	OpenStore = func(account string) (blobseed.Store, error) {
		store.account = account
		return store, nil
	}
	t.Cleanup(func() { OpenStore = original })
	return store
}

func TestUpload_FromVariables(t *testing.T) {
	h := clitest.New(t)
	store := withStore(t)
	h.WriteFile(t, "tf/variables.tf", variables)
	file := h.WriteFile(t, "data/iris.csv", "sepal_length,species\n5.1,setosa\n")

	if err := h.Run(t, uploadCommand(), file); err != nil {
		t.Fatalf("upload: %v", err)
	}
	if store.account != "stmariotest" {
		t.Errorf("account = %q, want value from variables file", store.account)
	}
	if got := store.blobs["raw/bronze/iris.csv"]; !strings.HasPrefix(got, "sepal_length") {
		t.Errorf("uploaded content = %q", got)
	}
	want := "uploading blob: raw/bronze/iris.csv\n" +
		"blobs in raw:\n" +
		"  bronze/iris.csv\n" +
		"  bronze/old.csv\n"
	if got := h.Output.String(); got != want {
		t.Errorf("output =\n%s\nwant\n%s", got, want)
	}
	if h.Dials != 0 {
		t.Errorf("blob upload dialed the factory")
	}
}

func TestUpload_FlagsOverride(t *testing.T) {
	h := clitest.New(t)
	store := withStore(t)
	file := h.WriteFile(t, "iris.csv", "a\n")

	err := h.Run(t, uploadCommand(), file, "--account", "stother", "--container", "landing", "--folder", "/", "--json")
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	var result struct {
		Account string   `json:"account"`
		Blob    string   `json:"blob"`
		Listing []string `json:"listing"`
	}
	if err := json.Unmarshal(h.Output.Bytes(), &result); err != nil {
		t.Fatalf("decoding output: %v\n%s", err, h.Output)
	}
	if store.account != "stother" || result.Account != "stother" {
		t.Errorf("account = %q / %q, want stother", store.account, result.Account)
	}
	if result.Blob != "iris.csv" || !slices.Equal(result.Listing, []string{"iris.csv"}) {
		t.Errorf("result = %+v, want iris.csv at the container root", result)
	}
}

func TestUpload_Errors(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T, h *clitest.Harness) []string
		want  string
	}{
		{
			name:  "no file",
			setup: func(*testing.T, *clitest.Harness) []string { return nil },
			want:  "usage",
		},
		{
			name:  "missing file",
			setup: func(*testing.T, *clitest.Harness) []string { return []string{"nope.csv"} },
			want:  "not a readable file",
		},
		{
			name: "missing variables file",
			setup: func(t *testing.T, h *clitest.Harness) []string {
				return []string{h.WriteFile(t, "iris.csv", "a\n")}
			},
			want: "tf/variables.tf not found",
		},
		{
			name: "undeclared container",
			setup: func(t *testing.T, h *clitest.Harness) []string {
				h.WriteFile(t, "vars.tf", `variable "storage_account_name" { default = "st" }`)
				return []string{h.WriteFile(t, "iris.csv", "a\n"), "--vars", "vars.tf"}
			},
			want: `variable "container_name" is not declared`,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			h := clitest.New(t)
			store := withStore(t)
			err := h.Run(t, uploadCommand(), test.setup(t, h)...)
			if cli.Category(err) != cli.CategoryValidation {
				t.Fatalf("error = %v, want validation", err)
			}
			if !strings.Contains(err.Error(), test.want) {
				t.Errorf("error = %q, want it to contain %q", err, test.want)
			}
			if store.account != "" {
				t.Errorf("store opened despite invalid input")
			}
		})
	}
}
