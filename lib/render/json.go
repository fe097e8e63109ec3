// Copyright 2026 The Mario Authors
// SPDX-License-Identifier: Apache-2.0

package render

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/PaesslerAG/jsonpath"
	"github.com/alecthomas/chroma/v2/quick"
)

// HighlightJSON returns data with JSON syntax highlighting when the
// printer is colored, and unchanged otherwise.
func (p *Printer) HighlightJSON(data []byte) string {
	if !p.Colored() {
		return string(data)
	}
	var buffer strings.Builder
	if err := quick.Highlight(&buffer, string(data), "json", "terminal256", "monokai"); err != nil {
		return string(data)
	}
	return buffer.String()
}

// Select evaluates a JSONPath expression such as
// "$.properties.activities[*].name" against a JSON document and returns
// the selected value as indented JSON.
func Select(data []byte, path string) ([]byte, error) {
	var document any
	if err := json.Unmarshal(data, &document); err != nil {
		return nil, fmt.Errorf("decoding document: %w", err)
	}
	selected, err := jsonpath.Get(path, document)
	if err != nil {
		return nil, fmt.Errorf("evaluating %q: %w", path, err)
	}
	output, err := json.MarshalIndent(selected, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding selection: %w", err)
	}
	return append(output, '\n'), nil
}
