// Copyright 2026 The Mario Authors
// SPDX-License-Identifier: Apache-2.0

// Package factory is mario's view of the Azure Data Factory management
// plane. Commands and library code depend on the [Pipelines] and [Runs]
// interfaces; [Client] implements them over the armdatafactory SDK and
// the factorytest package provides an in-memory fake.
package factory

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/datafactory/armdatafactory/v3"

	"github.com/jeffbrennan/mario/lib/environment"
)

// Target identifies one data factory.
type Target struct {
	SubscriptionID string `json:"subscription_id"`
	ResourceGroup  string `json:"resource_group"`
	FactoryName    string `json:"factory_name"`
}

// TargetFrom converts a resolved environment into a Target.
func TargetFrom(env *environment.Environment) Target {
	return Target{
		SubscriptionID: env.SubscriptionID,
		ResourceGroup:  env.ResourceGroup,
		FactoryName:    env.FactoryName,
	}
}

// Pipelines manages pipeline definitions and starts runs.
type Pipelines interface {
	// ListPipelines returns every pipeline registered in the factory,
	// following all result pages.
	ListPipelines(ctx context.Context) ([]*armdatafactory.PipelineResource, error)

	// GetPipeline returns one pipeline definition.
	GetPipeline(ctx context.Context, name string) (*armdatafactory.PipelineResource, error)

	// CreateOrUpdatePipeline stores resource under name, replacing any
	// existing definition with that name.
	CreateOrUpdatePipeline(ctx context.Context, name string, resource armdatafactory.PipelineResource) (*armdatafactory.PipelineResource, error)

	// DeletePipeline removes a pipeline definition.
	DeletePipeline(ctx context.Context, name string) error

	// CreateRun starts a run of the named pipeline and returns its run ID.
	CreateRun(ctx context.Context, name string, parameters map[string]any) (string, error)
}

// Runs queries and controls pipeline runs.
type Runs interface {
	// QueryRuns returns the runs matching query, following continuation
	// tokens until the service reports no more.
	QueryRuns(ctx context.Context, query RunQuery) ([]*armdatafactory.PipelineRun, error)

	// GetRun returns the current state of one run.
	GetRun(ctx context.Context, runID string) (*armdatafactory.PipelineRun, error)

	// CancelRun requests cancellation of a run. When recursive is set,
	// runs started by the run's ExecutePipeline activities are
	// cancelled too.
	CancelRun(ctx context.Context, runID string, recursive bool) error
}

// Service is the full set of factory operations mario uses.
type Service interface {
	Pipelines
	Runs

	// DescribeFactory returns the factory resource itself. Used to
	// verify credentials and target before doing real work.
	DescribeFactory(ctx context.Context) (*armdatafactory.Factory, error)
}

// RunQuery selects pipeline runs by last-updated time.
type RunQuery struct {
	UpdatedAfter  time.Time
	UpdatedBefore time.Time

	// PipelineName restricts results to one pipeline. Empty means all.
	PipelineName string
}

// Run status values reported by the service.
const (
	StatusQueued     = "Queued"
	StatusInProgress = "InProgress"
	StatusSucceeded  = "Succeeded"
	StatusFailed     = "Failed"
	StatusCanceling  = "Canceling"
	StatusCancelled  = "Cancelled"
)

// StatusCode returns the HTTP status of a management API failure, or 0
// when err did not come from an API response.
func StatusCode(err error) int {
	var responseError *azcore.ResponseError
	if errors.As(err, &responseError) {
		return responseError.StatusCode
	}
	return 0
}

// IsNotFound reports whether err is a 404 from the management API.
func IsNotFound(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}
