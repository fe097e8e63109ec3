// Copyright 2026 The Mario Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Stdin and Stderr carry interactive prompts. Tests replace them along
// with Interactive.
var (
	Stdin  io.Reader = os.Stdin
	Stderr io.Writer = os.Stderr

	// Interactive reports whether prompts can be shown.
	Interactive = func() bool { return term.IsTerminal(int(os.Stdin.Fd())) }
)

// Prompter asks for values one line at a time.
type Prompter struct {
	reader *bufio.Reader
	out    io.Writer
}

// NewPrompter returns a Prompter on Stdin, or a validation error naming
// hint when stdin is not a terminal.
func NewPrompter(hint string) (*Prompter, error) {
	if !Interactive() {
		return nil, Validation("no terminal available for interactive prompts (%s)", hint)
	}
	return &Prompter{reader: bufio.NewReader(Stdin), out: Stderr}, nil
}

// Ask prints label and reads one line. An empty answer keeps current,
// which is shown in brackets when set.
func (p *Prompter) Ask(label, current string) (string, error) {
	if current != "" {
		fmt.Fprintf(p.out, "%s [%s]: ", label, current)
	} else {
		fmt.Fprintf(p.out, "%s: ", label)
	}
	line, err := p.reader.ReadString('\n')
	switch {
	case errors.Is(err, io.EOF) && line == "":
		fmt.Fprintln(p.out)
		return current, nil
	case err != nil && !errors.Is(err, io.EOF):
		return "", Internal("reading answer: %w", err)
	}
	if answer := strings.TrimSpace(line); answer != "" {
		return answer, nil
	}
	return current, nil
}

// Line prints prompt and reads one trimmed line. It returns io.EOF once
// the input is exhausted.
func (p *Prompter) Line(prompt string) (string, error) {
	fmt.Fprint(p.out, prompt)
	line, err := p.reader.ReadString('\n')
	switch {
	case errors.Is(err, io.EOF) && line == "":
		fmt.Fprintln(p.out)
		return "", io.EOF
	case err != nil && !errors.Is(err, io.EOF):
		return "", Internal("reading input: %w", err)
	}
	return strings.TrimSpace(line), nil
}
