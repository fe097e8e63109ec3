// Copyright 2026 The Mario Authors
// SPDX-License-Identifier: Apache-2.0

package pipelinedef

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/datafactory/armdatafactory/v3"
	"github.com/zeebo/blake3"
)

// serverAssigned lists the fields the service fills in on every
// response. They never appear in authored files.
var serverAssigned = []string{"id", "etag", "type"}

// Document converts a resource to its generic JSON form without the
// server-assigned fields. Two resources with equal documents define the
// same pipeline.
func Document(resource *armdatafactory.PipelineResource) (map[string]any, error) {
	data, err := resource.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("encoding pipeline: %w", err)
	}
	var document map[string]any
	if err := json.Unmarshal(data, &document); err != nil {
		return nil, fmt.Errorf("decoding pipeline: %w", err)
	}
	for _, key := range serverAssigned {
		delete(document, key)
	}
	return document, nil
}

// Canonical returns the compact JSON encoding of Document. Object keys
// are sorted, so the encoding is stable across service round trips.
func Canonical(resource *armdatafactory.PipelineResource) ([]byte, error) {
	document, err := Document(resource)
	if err != nil {
		return nil, err
	}
	return json.Marshal(document)
}

// Format returns the indented JSON written for exported pipelines.
func Format(resource *armdatafactory.PipelineResource) ([]byte, error) {
	document, err := Document(resource)
	if err != nil {
		return nil, err
	}
	data, err := json.MarshalIndent(document, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// Digest returns the hex BLAKE3-256 hash of the canonical encoding.
func Digest(resource *armdatafactory.PipelineResource) (string, error) {
	canonical, err := Canonical(resource)
	if err != nil {
		return "", err
	}
	return DigestBytes(canonical), nil
}

// DigestBytes returns the hex BLAKE3-256 hash of data.
func DigestBytes(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}
