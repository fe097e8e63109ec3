// Copyright 2026 The Mario Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
)

func withPromptInput(t *testing.T, input string, interactive bool) *bytes.Buffer {
	t.Helper()
	var prompts bytes.Buffer
	originalStdin, originalStderr, originalInteractive := Stdin, Stderr, Interactive
	Stdin, Stderr = strings.NewReader(input), &prompts
	Interactive = func() bool { return interactive }
	t.Cleanup(func() { Stdin, Stderr, Interactive = originalStdin, originalStderr, originalInteractive })
	return &prompts
}

func TestPrompter_Ask(t *testing.T) {
	prompts := withPromptInput(t, "sub-123\n\n  adf-dev  ", true)
	prompter, err := NewPrompter("use flags")
	if err != nil {
		t.Fatalf("NewPrompter: %v", err)
	}

	tests := []struct {
		label, current, want string
	}{
		{"Subscription ID", "", "sub-123"},
		{"Resource group", "rg-data", "rg-data"},
		{"Data factory", "", "adf-dev"},
		{"After EOF", "kept", "kept"},
	}
	for _, test := range tests {
		got, err := prompter.Ask(test.label, test.current)
		if err != nil {
			t.Fatalf("Ask(%q): %v", test.label, err)
		}
		if got != test.want {
			t.Errorf("Ask(%q) = %q, want %q", test.label, got, test.want)
		}
	}
	if !strings.Contains(prompts.String(), "Resource group [rg-data]: ") {
		t.Errorf("prompts = %q", prompts.String())
	}
}

func TestNewPrompter_NotInteractive(t *testing.T) {
	withPromptInput(t, "", false)
	_, err := NewPrompter("pass --subscription-id")
	if Category(err) != CategoryValidation || !strings.Contains(err.Error(), "--subscription-id") {
		t.Errorf("error = %v", err)
	}
}

func TestPrompter_Line(t *testing.T) {
	prompts := withPromptInput(t, "  runs summarize --days 3 \nlast", true)
	prompter, err := NewPrompter("use flags")
	if err != nil {
		t.Fatalf("NewPrompter: %v", err)
	}

	for _, want := range []string{"runs summarize --days 3", "last"} {
		got, err := prompter.Line("mario> ")
		if err != nil || got != want {
			t.Errorf("Line() = %q, %v; want %q", got, err, want)
		}
	}
	if _, err := prompter.Line("mario> "); !errors.Is(err, io.EOF) {
		t.Errorf("Line() at end of input error = %v, want io.EOF", err)
	}
	if got := strings.Count(prompts.String(), "mario> "); got != 3 {
		t.Errorf("prompted %d times, want 3", got)
	}
}
