// Copyright 2026 The Mario Authors
// SPDX-License-Identifier: Apache-2.0

package factory

import (
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/arm"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/datafactory/armdatafactory/v3"

	"github.com/jeffbrennan/mario/lib/version"
)

// Client implements [Service] over the armdatafactory SDK.
type Client struct {
	target    Target
	pipelines *armdatafactory.PipelinesClient
	runs      *armdatafactory.PipelineRunsClient
	factories *armdatafactory.FactoriesClient
}

var _ Service = (*Client)(nil)

// Connect builds a Client authenticated with the default Azure
// credential chain (environment, workload identity, managed identity,
// Azure CLI).
func Connect(target Target) (*Client, error) {
	credential, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("creating Azure credential: %w", err)
	}
	return NewClient(target, credential, nil)
}

// NewClient builds a Client from an explicit credential. options may be
// nil; the mario user agent is always applied.
func NewClient(target Target, credential azcore.TokenCredential, options *arm.ClientOptions) (*Client, error) {
	if options == nil {
		options = &arm.ClientOptions{}
	}
	if options.Telemetry.ApplicationID == "" {
		options.Telemetry = policy.TelemetryOptions{ApplicationID: version.UserAgent()}
	}

	pipelines, err := armdatafactory.NewPipelinesClient(target.SubscriptionID, credential, options)
	if err != nil {
		return nil, fmt.Errorf("creating pipelines client: %w", err)
	}
	runs, err := armdatafactory.NewPipelineRunsClient(target.SubscriptionID, credential, options)
	if err != nil {
		return nil, fmt.Errorf("creating pipeline runs client: %w", err)
	}
	factories, err := armdatafactory.NewFactoriesClient(target.SubscriptionID, credential, options)
	if err != nil {
		return nil, fmt.Errorf("creating factories client: %w", err)
	}

	return &Client{
		target:    target,
		pipelines: pipelines,
		runs:      runs,
		factories: factories,
	}, nil
}

// Target returns the factory this client operates on.
func (c *Client) Target() Target { return c.target }

func (c *Client) ListPipelines(ctx context.Context) ([]*armdatafactory.PipelineResource, error) {
	pager := c.pipelines.NewListByFactoryPager(c.target.ResourceGroup, c.target.FactoryName, nil)

	var pipelines []*armdatafactory.PipelineResource
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing pipelines in %s: %w", c.target.FactoryName, err)
		}
		pipelines = append(pipelines, page.Value...)
	}
	return pipelines, nil
}

func (c *Client) GetPipeline(ctx context.Context, name string) (*armdatafactory.PipelineResource, error) {
	response, err := c.pipelines.Get(ctx, c.target.ResourceGroup, c.target.FactoryName, name, nil)
	if err != nil {
		return nil, fmt.Errorf("getting pipeline %q: %w", name, err)
	}
	return &response.PipelineResource, nil
}

func (c *Client) CreateOrUpdatePipeline(ctx context.Context, name string, resource armdatafactory.PipelineResource) (*armdatafactory.PipelineResource, error) {
	response, err := c.pipelines.CreateOrUpdate(ctx, c.target.ResourceGroup, c.target.FactoryName, name, resource, nil)
	if err != nil {
		return nil, fmt.Errorf("creating or updating pipeline %q: %w", name, err)
	}
	return &response.PipelineResource, nil
}

func (c *Client) DeletePipeline(ctx context.Context, name string) error {
	if _, err := c.pipelines.Delete(ctx, c.target.ResourceGroup, c.target.FactoryName, name, nil); err != nil {
		return fmt.Errorf("deleting pipeline %q: %w", name, err)
	}
	return nil
}

func (c *Client) CreateRun(ctx context.Context, name string, parameters map[string]any) (string, error) {
	var options *armdatafactory.PipelinesClientCreateRunOptions
	if len(parameters) > 0 {
		options = &armdatafactory.PipelinesClientCreateRunOptions{Parameters: parameters}
	}
	response, err := c.pipelines.CreateRun(ctx, c.target.ResourceGroup, c.target.FactoryName, name, options)
	if err != nil {
		return "", fmt.Errorf("starting run of pipeline %q: %w", name, err)
	}
	if response.RunID == nil {
		return "", fmt.Errorf("starting run of pipeline %q: service returned no run ID", name)
	}
	return *response.RunID, nil
}

func (c *Client) QueryRuns(ctx context.Context, query RunQuery) ([]*armdatafactory.PipelineRun, error) {
	filter := armdatafactory.RunFilterParameters{
		LastUpdatedAfter:  to.Ptr(query.UpdatedAfter),
		LastUpdatedBefore: to.Ptr(query.UpdatedBefore),
		OrderBy: []*armdatafactory.RunQueryOrderBy{{
			OrderBy: to.Ptr(armdatafactory.RunQueryOrderByFieldRunStart),
			Order:   to.Ptr(armdatafactory.RunQueryOrderASC),
		}},
	}
	if query.PipelineName != "" {
		filter.Filters = []*armdatafactory.RunQueryFilter{{
			Operand:  to.Ptr(armdatafactory.RunQueryFilterOperandPipelineName),
			Operator: to.Ptr(armdatafactory.RunQueryFilterOperatorEquals),
			Values:   []*string{to.Ptr(query.PipelineName)},
		}}
	}

	var runs []*armdatafactory.PipelineRun
	for {
		response, err := c.runs.QueryByFactory(ctx, c.target.ResourceGroup, c.target.FactoryName, filter, nil)
		if err != nil {
			return nil, fmt.Errorf("querying pipeline runs in %s: %w", c.target.FactoryName, err)
		}
		runs = append(runs, response.Value...)
		if response.ContinuationToken == nil || *response.ContinuationToken == "" {
			return runs, nil
		}
		filter.ContinuationToken = response.ContinuationToken
	}
}

func (c *Client) GetRun(ctx context.Context, runID string) (*armdatafactory.PipelineRun, error) {
	response, err := c.runs.Get(ctx, c.target.ResourceGroup, c.target.FactoryName, runID, nil)
	if err != nil {
		return nil, fmt.Errorf("getting run %s: %w", runID, err)
	}
	return &response.PipelineRun, nil
}

func (c *Client) CancelRun(ctx context.Context, runID string, recursive bool) error {
	options := &armdatafactory.PipelineRunsClientCancelOptions{IsRecursive: to.Ptr(recursive)}
	if _, err := c.runs.Cancel(ctx, c.target.ResourceGroup, c.target.FactoryName, runID, options); err != nil {
		return fmt.Errorf("cancelling run %s: %w", runID, err)
	}
	return nil
}

func (c *Client) DescribeFactory(ctx context.Context) (*armdatafactory.Factory, error) {
	response, err := c.factories.Get(ctx, c.target.ResourceGroup, c.target.FactoryName, nil)
	if err != nil {
		return nil, fmt.Errorf("getting factory %s/%s: %w", c.target.ResourceGroup, c.target.FactoryName, err)
	}
	return &response.Factory, nil
}
