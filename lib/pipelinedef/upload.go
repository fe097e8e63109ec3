// Copyright 2026 The Mario Authors
// SPDX-License-Identifier: Apache-2.0

package pipelinedef

import (
	"context"
	"fmt"

	"github.com/jeffbrennan/mario/lib/factory"
)

// UploadResult describes one completed upload.
type UploadResult struct {
	Name string `json:"name"`
	Path string `json:"path,omitempty"`
	Etag string `json:"etag,omitempty"`
}

// Upload stores one definition in the factory, keyed by the resource's
// own name. The definition is validated first; an invalid definition
// never reaches the service.
func Upload(ctx context.Context, pipelines factory.Pipelines, definition *Definition) (*UploadResult, error) {
	if issues := Validate(&definition.Resource); len(issues) > 0 {
		return nil, &ValidationError{Issues: map[string][]string{definition.Source(): issues}}
	}

	name := definition.Name()
	stored, err := pipelines.CreateOrUpdatePipeline(ctx, name, definition.Resource)
	if err != nil {
		return nil, fmt.Errorf("uploading %s: %w", definition.Source(), err)
	}

	result := &UploadResult{Name: name, Path: definition.Path}
	if stored != nil && stored.Etag != nil {
		result.Etag = *stored.Etag
	}
	return result, nil
}

// UploadAll validates every definition, then uploads them one at a time
// in order. Nothing is uploaded if any definition is invalid. The first
// failed upload stops the batch; results for the uploads that completed
// are returned alongside the error.
//
// beforeUpload, when non-nil, is called before each remote call.
func UploadAll(ctx context.Context, pipelines factory.Pipelines, definitions []*Definition, beforeUpload func(*Definition)) ([]UploadResult, error) {
	if err := ValidateAll(definitions); err != nil {
		return nil, err
	}

	results := make([]UploadResult, 0, len(definitions))
	for _, definition := range definitions {
		if beforeUpload != nil {
			beforeUpload(definition)
		}
		result, err := Upload(ctx, pipelines, definition)
		if err != nil {
			return results, err
		}
		results = append(results, *result)
	}
	return results, nil
}
