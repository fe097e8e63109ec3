// Copyright 2026 The Mario Authors
// SPDX-License-Identifier: Apache-2.0

// Package pipelinerun starts runs of the pipelines registered in a
// factory. Runs are started one at a time in the order the service
// lists the pipelines, and the first failure stops the batch.
package pipelinerun

import (
	"context"
	"fmt"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/datafactory/armdatafactory/v3"
	"github.com/samber/lo"

	"github.com/jeffbrennan/mario/lib/factory"
)

// Request selects which pipelines to run and with what parameters.
type Request struct {
	// Filter keeps only pipelines whose name contains it. Empty runs
	// every pipeline.
	Filter string

	// Parameters are rendered once per pipeline. Nil starts every run
	// with the pipeline's default parameter values.
	Parameters *Parameters

	// Factory is exposed to parameter templates as {{ .Factory }}.
	Factory string
}

// Started records one run that the service accepted.
type Started struct {
	Pipeline   string         `json:"pipeline"`
	RunID      string         `json:"run_id"`
	Parameters map[string]any `json:"parameters,omitempty"`
}

// Hooks receive progress notifications. Either field may be nil.
type Hooks struct {
	// OnPlan is called once with the names about to be started.
	OnPlan func(names []string)

	// OnStart is called before each CreateRun call.
	OnStart func(name string)
}

// Names returns the names of the listed pipelines that pass filter.
// Pipelines without a name cannot be addressed and are skipped.
func Names(pipelines []*armdatafactory.PipelineResource, filter string) []string {
	named := lo.FilterMap(pipelines, func(pipeline *armdatafactory.PipelineResource, _ int) (string, bool) {
		if pipeline == nil || pipeline.Name == nil || *pipeline.Name == "" {
			return "", false
		}
		return *pipeline.Name, strings.Contains(*pipeline.Name, filter)
	})
	return lo.Uniq(named)
}

// TriggerAll lists the factory's pipelines and starts one run of each
// selected pipeline. Runs that were started before a failure are
// returned alongside the error.
func TriggerAll(ctx context.Context, pipelines factory.Pipelines, request Request, hooks Hooks) ([]Started, error) {
	listed, err := pipelines.ListPipelines(ctx)
	if err != nil {
		return nil, err
	}

	names := Names(listed, request.Filter)
	if hooks.OnPlan != nil {
		hooks.OnPlan(names)
	}
	return Trigger(ctx, pipelines, names, request, hooks.OnStart)
}

// Trigger starts one run of each named pipeline, in order.
func Trigger(ctx context.Context, pipelines factory.Pipelines, names []string, request Request, onStart func(string)) ([]Started, error) {
	started := make([]Started, 0, len(names))
	for _, name := range names {
		parameters, err := request.Parameters.Render(TemplateData{Pipeline: name, Factory: request.Factory})
		if err != nil {
			return started, fmt.Errorf("pipeline %q: %w", name, err)
		}

		if onStart != nil {
			onStart(name)
		}
		runID, err := pipelines.CreateRun(ctx, name, parameters)
		if err != nil {
			return started, err
		}
		started = append(started, Started{Pipeline: name, RunID: runID, Parameters: parameters})
	}
	return started, nil
}
