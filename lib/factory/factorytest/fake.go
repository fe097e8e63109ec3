// Copyright 2026 The Mario Authors
// SPDX-License-Identifier: Apache-2.0

// Package factorytest provides an in-memory [factory.Service] for tests.
// The fake records every call so tests can assert exactly which remote
// operations a command performed, and in what order.
package factorytest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/runtime"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/datafactory/armdatafactory/v3"

	"github.com/jeffbrennan/mario/lib/factory"
)

// Method names recorded in [Call.Method].
const (
	MethodListPipelines   = "ListPipelines"
	MethodGetPipeline     = "GetPipeline"
	MethodCreateOrUpdate  = "CreateOrUpdatePipeline"
	MethodDeletePipeline  = "DeletePipeline"
	MethodCreateRun       = "CreateRun"
	MethodQueryRuns       = "QueryRuns"
	MethodGetRun          = "GetRun"
	MethodCancelRun       = "CancelRun"
	MethodDescribeFactory = "DescribeFactory"
)

// Call is one recorded invocation.
type Call struct {
	Method string
	// Name is the pipeline name or run ID the call addressed.
	Name       string
	Parameters map[string]any
	Resource   *armdatafactory.PipelineResource
	Query      *factory.RunQuery
	Recursive  bool
}

// Fake is an in-memory data factory. The zero value is not usable; call
// [New].
type Fake struct {
	mu sync.Mutex

	target    factory.Target
	pipelines map[string]*armdatafactory.PipelineResource
	order     []string
	runs      map[string]*armdatafactory.PipelineRun
	scripts   map[string][]string
	failures  map[string]error
	calls     []Call
	runCount  int
}

var _ factory.Service = (*Fake)(nil)

// New returns an empty fake factory.
func New() *Fake {
	return &Fake{
		target: factory.Target{
			SubscriptionID: "00000000-0000-0000-0000-000000000000",
			ResourceGroup:  "rg-test",
			FactoryName:    "adf-test",
		},
		pipelines: make(map[string]*armdatafactory.PipelineResource),
		runs:      make(map[string]*armdatafactory.PipelineRun),
		scripts:   make(map[string][]string),
		failures:  make(map[string]error),
	}
}

// Target returns the identity the fake reports for itself.
func (f *Fake) Target() factory.Target { return f.target }

// AddPipeline registers a pipeline without recording a call.
func (f *Fake) AddPipeline(resource *armdatafactory.PipelineResource) {
	f.mu.Lock()
	defer f.mu.Unlock()
	name := ""
	if resource.Name != nil {
		name = *resource.Name
	}
	if _, exists := f.pipelines[name]; !exists {
		f.order = append(f.order, name)
	}
	f.pipelines[name] = resource
}

// AddRun registers a pipeline run without recording a call.
func (f *Fake) AddRun(run *armdatafactory.PipelineRun) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runs[*run.RunID] = run
}

// ScriptStatuses makes successive GetRun calls for runID report the
// given statuses in order. The last status repeats once the script is
// exhausted.
func (f *Fake) ScriptStatuses(runID string, statuses ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scripts[runID] = statuses
}

// FailOn makes every subsequent call to method return err.
func (f *Fake) FailOn(method string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[method] = err
}

// Calls returns every recorded call in order.
func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// CallsTo returns the recorded calls to one method.
func (f *Fake) CallsTo(method string) []Call {
	var matching []Call
	for _, call := range f.Calls() {
		if call.Method == method {
			matching = append(matching, call)
		}
	}
	return matching
}

// Pipeline returns the stored definition for name, or nil.
func (f *Fake) Pipeline(name string) *armdatafactory.PipelineResource {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pipelines[name]
}

// record appends call and returns the injected failure for its method.
// Must be called with f.mu held.
func (f *Fake) record(call Call) error {
	f.calls = append(f.calls, call)
	return f.failures[call.Method]
}

func (f *Fake) ListPipelines(ctx context.Context) ([]*armdatafactory.PipelineResource, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record(Call{Method: MethodListPipelines}); err != nil {
		return nil, err
	}
	pipelines := make([]*armdatafactory.PipelineResource, 0, len(f.order))
	for _, name := range f.order {
		pipelines = append(pipelines, f.pipelines[name])
	}
	return pipelines, nil
}

func (f *Fake) GetPipeline(ctx context.Context, name string) (*armdatafactory.PipelineResource, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record(Call{Method: MethodGetPipeline, Name: name}); err != nil {
		return nil, err
	}
	resource, ok := f.pipelines[name]
	if !ok {
		return nil, NotFound("PipelineNotFound", "pipelines/"+name)
	}
	return resource, nil
}

func (f *Fake) CreateOrUpdatePipeline(ctx context.Context, name string, resource armdatafactory.PipelineResource) (*armdatafactory.PipelineResource, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record(Call{Method: MethodCreateOrUpdate, Name: name, Resource: &resource}); err != nil {
		return nil, err
	}

	stored := resource
	stored.Name = to.Ptr(name)
	stored.ID = to.Ptr(f.resourceID("pipelines/" + name))
	stored.Type = to.Ptr("Microsoft.DataFactory/factories/pipelines")
	stored.Etag = to.Ptr(fmt.Sprintf("etag-%d", len(f.calls)))
	if _, exists := f.pipelines[name]; !exists {
		f.order = append(f.order, name)
	}
	f.pipelines[name] = &stored
	return &stored, nil
}

func (f *Fake) DeletePipeline(ctx context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record(Call{Method: MethodDeletePipeline, Name: name}); err != nil {
		return err
	}
	// The service answers 204 for an absent pipeline; so does the fake.
	if _, exists := f.pipelines[name]; exists {
		delete(f.pipelines, name)
		for i, existing := range f.order {
			if existing == name {
				f.order = append(f.order[:i], f.order[i+1:]...)
				break
			}
		}
	}
	return nil
}

func (f *Fake) CreateRun(ctx context.Context, name string, parameters map[string]any) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record(Call{Method: MethodCreateRun, Name: name, Parameters: parameters}); err != nil {
		return "", err
	}
	if _, ok := f.pipelines[name]; !ok {
		return "", NotFound("PipelineNotFound", "pipelines/"+name)
	}

	f.runCount++
	runID := fmt.Sprintf("run-%04d", f.runCount)
	f.runs[runID] = &armdatafactory.PipelineRun{
		RunID:        to.Ptr(runID),
		PipelineName: to.Ptr(name),
		Status:       to.Ptr(factory.StatusQueued),
	}
	return runID, nil
}

func (f *Fake) QueryRuns(ctx context.Context, query factory.RunQuery) ([]*armdatafactory.PipelineRun, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record(Call{Method: MethodQueryRuns, Query: &query}); err != nil {
		return nil, err
	}

	var runs []*armdatafactory.PipelineRun
	for _, run := range f.runs {
		if query.PipelineName != "" && (run.PipelineName == nil || *run.PipelineName != query.PipelineName) {
			continue
		}
		updated := lastUpdated(run)
		if !updated.IsZero() && (updated.Before(query.UpdatedAfter) || !updated.Before(query.UpdatedBefore)) {
			continue
		}
		runs = append(runs, run)
	}
	sort.Slice(runs, func(i, j int) bool {
		left, right := startOf(runs[i]), startOf(runs[j])
		if !left.Equal(right) {
			return left.Before(right)
		}
		return *runs[i].RunID < *runs[j].RunID
	})
	return runs, nil
}

func (f *Fake) GetRun(ctx context.Context, runID string) (*armdatafactory.PipelineRun, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record(Call{Method: MethodGetRun, Name: runID}); err != nil {
		return nil, err
	}
	run, ok := f.runs[runID]
	if !ok {
		return nil, NotFound("PipelineRunNotFound", "pipelineruns/"+runID)
	}

	snapshot := *run
	if script := f.scripts[runID]; len(script) > 0 {
		snapshot.Status = to.Ptr(script[0])
		if len(script) > 1 {
			f.scripts[runID] = script[1:]
		}
		run.Status = snapshot.Status
	}
	return &snapshot, nil
}

func (f *Fake) CancelRun(ctx context.Context, runID string, recursive bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record(Call{Method: MethodCancelRun, Name: runID, Recursive: recursive}); err != nil {
		return err
	}
	run, ok := f.runs[runID]
	if !ok {
		return NotFound("PipelineRunNotFound", "pipelineruns/"+runID)
	}
	run.Status = to.Ptr(factory.StatusCancelled)
	delete(f.scripts, runID)
	return nil
}

func (f *Fake) DescribeFactory(ctx context.Context) (*armdatafactory.Factory, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.record(Call{Method: MethodDescribeFactory}); err != nil {
		return nil, err
	}
	return &armdatafactory.Factory{
		ID:       to.Ptr(f.resourceID("")),
		Name:     to.Ptr(f.target.FactoryName),
		Location: to.Ptr("eastus"),
	}, nil
}

func (f *Fake) resourceID(suffix string) string {
	id := fmt.Sprintf("/subscriptions/%s/resourceGroups/%s/providers/Microsoft.DataFactory/factories/%s",
		f.target.SubscriptionID, f.target.ResourceGroup, f.target.FactoryName)
	if suffix != "" {
		id += "/" + suffix
	}
	return id
}

// NotFound builds the error the management API returns for a missing
// resource, so callers exercising factory.IsNotFound see a real
// *azcore.ResponseError.
func NotFound(code, resourcePath string) error {
	return ResponseError(http.StatusNotFound, code, resourcePath)
}

// ResponseError builds a management API failure with the given status.
func ResponseError(status int, code, resourcePath string) error {
	body := fmt.Sprintf(`{"error": {"code": %q, "message": "%s: %s"}}`, code, code, resourcePath)
	response := &http.Response{
		Status:     fmt.Sprintf("%d %s", status, http.StatusText(status)),
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
		Request: &http.Request{
			Method: http.MethodGet,
			URL: &url.URL{
				Scheme: "https",
				Host:   "management.azure.com",
				Path:   "/" + resourcePath,
			},
		},
	}
	return runtime.NewResponseError(response)
}

func lastUpdated(run *armdatafactory.PipelineRun) time.Time {
	if run.LastUpdated != nil {
		return *run.LastUpdated
	}
	return startOf(run)
}

func startOf(run *armdatafactory.PipelineRun) time.Time {
	if run.RunStart != nil {
		return *run.RunStart
	}
	return time.Time{}
}
