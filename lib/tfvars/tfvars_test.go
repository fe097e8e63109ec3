// Copyright 2026 The Mario Authors
// SPDX-License-Identifier: Apache-2.0

package tfvars

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

const variablesTF = `
terraform {
  required_version = ">= 1.5"
}

variable "storage_account_name" {
  type        = string
  default     = "stmariodev"
  description = "Storage account for test data"
}

variable "container_name" {
  type    = string
  default = "raw"
}

variable "retention_days" {
  type    = number
  default = 7
}

variable "allowed_ips" {
  type    = list(string)
  default = ["10.0.0.1"]
}

variable "client_secret" {
  type      = string
  sensitive = true
}
`

func TestParse(t *testing.T) {
	file, err := Parse([]byte(variablesTF), "variables.tf")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	want := []string{"allowed_ips", "client_secret", "container_name", "retention_days", "storage_account_name"}
	if got := file.Names(); !slices.Equal(got, want) {
		t.Errorf("Names = %v, want %v", got, want)
	}

	account, err := file.String("storage_account_name")
	if err != nil || account != "stmariodev" {
		t.Errorf("storage_account_name = %q, %v", account, err)
	}
	if description := file.Variables["storage_account_name"].Description; description != "Storage account for test data" {
		t.Errorf("description = %q", description)
	}

	retention, err := file.String("retention_days")
	if err != nil || retention != "7" {
		t.Errorf("retention_days = %q, %v; numbers convert to strings", retention, err)
	}

	ips := file.Variables["allowed_ips"]
	if ips.Type != "list(string)" {
		t.Errorf("allowed_ips type = %q, want list(string)", ips.Type)
	}
	if _, err := ips.DefaultString(); err == nil {
		t.Error("list default should not convert to a string")
	}

	secret := file.Variables["client_secret"]
	if !secret.Sensitive {
		t.Error("client_secret should be sensitive")
	}
	if secret.HasDefault() {
		t.Error("client_secret has no default")
	}
	if _, err := file.String("client_secret"); err == nil || !strings.Contains(err.Error(), "no default") {
		t.Errorf("client_secret error = %v", err)
	}
	if _, err := file.String("undeclared"); err == nil {
		t.Error("expected error for undeclared variable")
	}
}

func TestParseErrors(t *testing.T) {
	tests := map[string]string{
		"syntax":    `variable "x" {`,
		"duplicate": "variable \"x\" {}\nvariable \"x\" {}\n",
		"unknown":   `variable "x" { colour = "red" }`,
		"reference": `variable "x" { default = var.y }`,
		"sensitive": `variable "x" { sensitive = "maybe" }`,
	}
	for name, source := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := Parse([]byte(source), name+".tf"); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "variables.tf")
	if err := os.WriteFile(path, []byte(variablesTF), 0o644); err != nil {
		t.Fatal(err)
	}
	file, err := ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	if container, _ := file.String("container_name"); container != "raw" {
		t.Errorf("container_name = %q, want raw", container)
	}

	if _, err := ParseFile(filepath.Join(t.TempDir(), "missing.tf")); err == nil {
		t.Error("expected error for missing file")
	}
}
