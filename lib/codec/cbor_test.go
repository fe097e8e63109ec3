// Copyright 2026 The Mario Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

type sample struct {
	Name       string         `cbor:"name"`
	At         time.Time      `cbor:"at"`
	Parameters map[string]any `cbor:"parameters,omitempty"`
}

func TestMarshalIsDeterministic(t *testing.T) {
	first := map[string]any{"zeta": 1, "alpha": 2, "mid": "x"}
	second := map[string]any{"mid": "x", "alpha": 2, "zeta": 1}

	a, err := Marshal(first)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	b, err := Marshal(second)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Errorf("same logical map produced different bytes:\n%x\n%x", a, b)
	}
}

func TestTimesKeepNanoseconds(t *testing.T) {
	at := time.Date(2026, 3, 4, 5, 6, 7, 123456789, time.FixedZone("test", 3600))
	data, err := Marshal(sample{Name: "p", At: at})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var decoded sample
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !decoded.At.Equal(at) {
		t.Errorf("At = %v, want %v", decoded.At, at)
	}
}

func TestNestedMapsDecodeWithStringKeys(t *testing.T) {
	data, err := Marshal(sample{
		Name:       "p",
		Parameters: map[string]any{"window": map[string]any{"days": 7}},
	})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var decoded sample
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if _, ok := decoded.Parameters["window"].(map[string]any); !ok {
		t.Errorf("nested map decoded as %T, want map[string]any", decoded.Parameters["window"])
	}
}

func TestDiagnose(t *testing.T) {
	data, err := Marshal(map[string]string{"pipeline": "copy_iris"})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	text, err := Diagnose(data)
	if err != nil {
		t.Fatalf("Diagnose: %v", err)
	}
	if !strings.Contains(text, `"copy_iris"`) {
		t.Errorf("Diagnose = %q, want the string value", text)
	}
}
