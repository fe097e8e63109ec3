// Copyright 2026 The Mario Authors
// SPDX-License-Identifier: Apache-2.0

// Package compare reports the differences between two pipeline
// definitions, ignoring the fields that only identify a resource
// (name, id, etag, type).
package compare

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/datafactory/armdatafactory/v3"
	"github.com/go-test/deep"

	"github.com/jeffbrennan/mario/lib/pipelinedef"
)

// MaxDifferences caps the number of differences reported for one pair.
const MaxDifferences = 200

// deep.MaxDiff is a process-wide setting. Diff raises it for the
// duration of one comparison and restores it afterwards; deepMu keeps
// concurrent Diff calls from restoring each other's value.
var deepMu sync.Mutex

func equal(left, right map[string]any) []string {
	deepMu.Lock()
	defer deepMu.Unlock()
	previous := deep.MaxDiff
	deep.MaxDiff = MaxDifferences
	defer func() { deep.MaxDiff = previous }()
	return deep.Equal(left, right)
}

// Difference is one differing value.
type Difference struct {
	// Path locates the value in the pipeline document, for example
	// "properties.activities[0].typeProperties.source.type".
	Path  string `json:"path"`
	Left  string `json:"left"`
	Right string `json:"right"`
}

func (d Difference) String() string {
	return fmt.Sprintf("%s: %s != %s", d.Path, d.Left, d.Right)
}

// Result is the outcome of comparing two pipelines.
type Result struct {
	Left        string       `json:"left"`
	Right       string       `json:"right"`
	LeftDigest  string       `json:"left_digest"`
	RightDigest string       `json:"right_digest"`
	Differences []Difference `json:"differences"`
}

// Equal reports whether the definitions are identical.
func (r *Result) Equal() bool { return len(r.Differences) == 0 }

// Diff compares two pipeline resources. Differences are sorted by path,
// with array indices in numeric order.
func Diff(left, right *armdatafactory.PipelineResource) (*Result, error) {
	leftDocument, err := document(left)
	if err != nil {
		return nil, fmt.Errorf("left pipeline: %w", err)
	}
	rightDocument, err := document(right)
	if err != nil {
		return nil, fmt.Errorf("right pipeline: %w", err)
	}

	result := &Result{
		Left:  nameOf(left),
		Right: nameOf(right),
	}
	if result.LeftDigest, err = digest(leftDocument); err != nil {
		return nil, err
	}
	if result.RightDigest, err = digest(rightDocument); err != nil {
		return nil, err
	}
	if result.LeftDigest == result.RightDigest {
		return result, nil
	}

	for _, line := range equal(leftDocument, rightDocument) {
		result.Differences = append(result.Differences, parseDifference(line))
	}
	sort.SliceStable(result.Differences, func(i, j int) bool {
		return lessPath(result.Differences[i].Path, result.Differences[j].Path)
	})
	return result, nil
}

func document(resource *armdatafactory.PipelineResource) (map[string]any, error) {
	document, err := pipelinedef.Document(resource)
	if err != nil {
		return nil, err
	}
	delete(document, "name")
	return document, nil
}

func digest(document map[string]any) (string, error) {
	// encoding/json sorts map keys, so equal documents encode equally.
	data, err := json.Marshal(document)
	if err != nil {
		return "", fmt.Errorf("encoding pipeline document: %w", err)
	}
	return pipelinedef.DigestBytes(data), nil
}

func nameOf(resource *armdatafactory.PipelineResource) string {
	if resource == nil || resource.Name == nil {
		return ""
	}
	return *resource.Name
}

var pathSegment = regexp.MustCompile(`(map|slice|array)\[([^\]]*)\]`)

// parseDifference converts one deep.Equal line, such as
// "map[properties].map[activities].slice[0].map[name]: a != b", into a
// Difference with a dotted path.
func parseDifference(line string) Difference {
	path, values, found := strings.Cut(line, ": ")
	if !found {
		return Difference{Left: line}
	}
	left, right, _ := strings.Cut(values, " != ")

	var builder strings.Builder
	for _, match := range pathSegment.FindAllStringSubmatch(path, -1) {
		if match[1] == "map" {
			if builder.Len() > 0 {
				builder.WriteByte('.')
			}
			builder.WriteString(match[2])
		} else {
			builder.WriteString("[" + match[2] + "]")
		}
	}
	if builder.Len() == 0 {
		builder.WriteString(path)
	}
	return Difference{Path: builder.String(), Left: left, Right: right}
}

// lessPath orders paths byte by byte, except that runs of digits compare
// by numeric value, so "activities[2]" sorts before "activities[10]".
func lessPath(a, b string) bool {
	for a != "" && b != "" {
		if isDigit(a[0]) && isDigit(b[0]) {
			numberA, restA := digitRun(a)
			numberB, restB := digitRun(b)
			trimmedA := strings.TrimLeft(numberA, "0")
			trimmedB := strings.TrimLeft(numberB, "0")
			if len(trimmedA) != len(trimmedB) {
				return len(trimmedA) < len(trimmedB)
			}
			if trimmedA != trimmedB {
				return trimmedA < trimmedB
			}
			if numberA != numberB {
				return numberA < numberB
			}
			a, b = restA, restB
			continue
		}
		if a[0] != b[0] {
			return a[0] < b[0]
		}
		a, b = a[1:], b[1:]
	}
	return len(a) < len(b)
}

func isDigit(c byte) bool { return '0' <= c && c <= '9' }

func digitRun(s string) (digits, rest string) {
	end := 0
	for end < len(s) && isDigit(s[end]) {
		end++
	}
	return s[:end], s[end:]
}
