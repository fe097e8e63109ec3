// Copyright 2026 The Mario Authors
// SPDX-License-Identifier: Apache-2.0

package factory

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/arm"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/datafactory/armdatafactory/v3"
)

const factoryPath = "/subscriptions/sub-1/resourceGroups/rg-data/providers/Microsoft.DataFactory/factories/adf-dev"

// recordedRequest captures one management API call.
type recordedRequest struct {
	Method string
	Path   string
	Query  string
	Body   map[string]any
}

// managementTestState is a mock management endpoint. Requests never
// leave the process: the SDK's transport is replaced with one that
// serves responses from handler.
type managementTestState struct {
	mu       sync.Mutex
	requests []recordedRequest
	handler  func(request recordedRequest) (int, string)
}

func (s *managementTestState) Do(request *http.Request) (*http.Response, error) {
	recorded := recordedRequest{
		Method: request.Method,
		Path:   request.URL.Path,
		Query:  request.URL.RawQuery,
	}
	if request.Body != nil {
		data, err := io.ReadAll(request.Body)
		if err != nil {
			return nil, err
		}
		if len(data) > 0 {
			if err := json.Unmarshal(data, &recorded.Body); err != nil {
				return nil, err
			}
		}
	}

	s.mu.Lock()
	s.requests = append(s.requests, recorded)
	s.mu.Unlock()

	status, body := s.handler(recorded)
	recorder := httptest.NewRecorder()
	recorder.Header().Set("Content-Type", "application/json")
	recorder.WriteHeader(status)
	recorder.WriteString(body)
	response := recorder.Result()
	response.Request = request
	return response, nil
}

func (s *managementTestState) recorded() []recordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]recordedRequest(nil), s.requests...)
}

type staticCredential struct{}

func (staticCredential) GetToken(context.Context, policy.TokenRequestOptions) (azcore.AccessToken, error) {
	return azcore.AccessToken{Token: "test-token", ExpiresOn: time.Now().Add(time.Hour)}, nil
}

func newTestClient(t *testing.T, handler func(recordedRequest) (int, string)) (*Client, *managementTestState) {
	t.Helper()
	state := &managementTestState{handler: handler}
	options := &arm.ClientOptions{}
	options.Transport = state
	options.Retry.MaxRetries = -1

	client, err := NewClient(Target{
		SubscriptionID: "sub-1",
		ResourceGroup:  "rg-data",
		FactoryName:    "adf-dev",
	}, staticCredential{}, options)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client, state
}

const waitPipelineJSON = `{
  "id": "` + factoryPath + `/pipelines/%s",
  "name": "%s",
  "type": "Microsoft.DataFactory/factories/pipelines",
  "etag": "etag-1",
  "properties": {
    "activities": [
      {"name": "pause", "type": "Wait", "typeProperties": {"waitTimeInSeconds": 1}}
    ]
  }
}`

func pipelineJSON(name string) string {
	return strings.ReplaceAll(waitPipelineJSON, "%s", name)
}

func TestClientListPipelinesFollowsPages(t *testing.T) {
	t.Parallel()

	client, state := newTestClient(t, func(request recordedRequest) (int, string) {
		if strings.Contains(request.Query, "page=2") {
			return http.StatusOK, `{"value": [` + pipelineJSON("second") + `]}`
		}
		return http.StatusOK, `{
  "value": [` + pipelineJSON("first") + `],
  "nextLink": "https://management.azure.com` + factoryPath + `/pipelines?api-version=2018-06-01&page=2"
}`
	})

	pipelines, err := client.ListPipelines(context.Background())
	if err != nil {
		t.Fatalf("ListPipelines: %v", err)
	}
	if len(pipelines) != 2 {
		t.Fatalf("got %d pipelines, want 2", len(pipelines))
	}
	if *pipelines[0].Name != "first" || *pipelines[1].Name != "second" {
		t.Errorf("names = %q, %q; want first, second", *pipelines[0].Name, *pipelines[1].Name)
	}

	requests := state.recorded()
	if len(requests) != 2 {
		t.Fatalf("got %d requests, want 2", len(requests))
	}
	if requests[0].Method != http.MethodGet || requests[0].Path != factoryPath+"/pipelines" {
		t.Errorf("first request = %s %s", requests[0].Method, requests[0].Path)
	}
	if !strings.Contains(requests[0].Query, "api-version=2018-06-01") {
		t.Errorf("query %q missing api-version", requests[0].Query)
	}
}

func TestClientCreateOrUpdatePipelineKeysByName(t *testing.T) {
	t.Parallel()

	client, state := newTestClient(t, func(request recordedRequest) (int, string) {
		return http.StatusOK, pipelineJSON("copy_iris")
	})

	resource := armdatafactory.PipelineResource{
		Name: to.Ptr("copy_iris"),
		Properties: &armdatafactory.Pipeline{
			Description: to.Ptr("copies iris.csv"),
			Activities: []armdatafactory.ActivityClassification{
				&armdatafactory.WaitActivity{
					Name: to.Ptr("pause"),
					Type: to.Ptr("Wait"),
					TypeProperties: &armdatafactory.WaitActivityTypeProperties{
						WaitTimeInSeconds: 1,
					},
				},
			},
		},
	}

	stored, err := client.CreateOrUpdatePipeline(context.Background(), "copy_iris", resource)
	if err != nil {
		t.Fatalf("CreateOrUpdatePipeline: %v", err)
	}
	if stored.Etag == nil || *stored.Etag != "etag-1" {
		t.Errorf("Etag = %v, want etag-1", stored.Etag)
	}

	requests := state.recorded()
	if len(requests) != 1 {
		t.Fatalf("got %d requests, want 1", len(requests))
	}
	request := requests[0]
	if request.Method != http.MethodPut {
		t.Errorf("Method = %s, want PUT", request.Method)
	}
	if request.Path != factoryPath+"/pipelines/copy_iris" {
		t.Errorf("Path = %s", request.Path)
	}
	properties, _ := request.Body["properties"].(map[string]any)
	if properties["description"] != "copies iris.csv" {
		t.Errorf("body properties = %v, want description", properties)
	}
}

func TestClientCreateRun(t *testing.T) {
	t.Parallel()

	client, state := newTestClient(t, func(request recordedRequest) (int, string) {
		return http.StatusOK, `{"runId": "run-123"}`
	})

	runID, err := client.CreateRun(context.Background(), "copy_iris", map[string]any{"day": "2026-01-01"})
	if err != nil {
		t.Fatalf("CreateRun: %v", err)
	}
	if runID != "run-123" {
		t.Errorf("runID = %q, want run-123", runID)
	}

	request := state.recorded()[0]
	if request.Method != http.MethodPost || request.Path != factoryPath+"/pipelines/copy_iris/createRun" {
		t.Errorf("request = %s %s", request.Method, request.Path)
	}
	if request.Body["day"] != "2026-01-01" {
		t.Errorf("body = %v, want parameters", request.Body)
	}
}

func TestClientQueryRunsFollowsContinuation(t *testing.T) {
	t.Parallel()

	client, state := newTestClient(t, func(request recordedRequest) (int, string) {
		if request.Body["continuationToken"] == "next" {
			return http.StatusOK, `{"value": [{"runId": "run-2", "pipelineName": "copy_iris", "status": "Failed"}]}`
		}
		return http.StatusOK, `{
  "value": [{"runId": "run-1", "pipelineName": "copy_iris", "status": "Succeeded", "durationInMs": 60000}],
  "continuationToken": "next"
}`
	})

	after := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	runs, err := client.QueryRuns(context.Background(), RunQuery{
		UpdatedAfter:  after,
		UpdatedBefore: after.AddDate(0, 0, 8),
		PipelineName:  "copy_iris",
	})
	if err != nil {
		t.Fatalf("QueryRuns: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("got %d runs, want 2", len(runs))
	}
	if *runs[0].RunID != "run-1" || *runs[1].RunID != "run-2" {
		t.Errorf("run IDs = %s, %s", *runs[0].RunID, *runs[1].RunID)
	}
	if runs[0].DurationInMs == nil || *runs[0].DurationInMs != 60000 {
		t.Errorf("DurationInMs = %v, want 60000", runs[0].DurationInMs)
	}

	requests := state.recorded()
	if len(requests) != 2 {
		t.Fatalf("got %d requests, want 2", len(requests))
	}
	if requests[0].Path != factoryPath+"/queryPipelineRuns" {
		t.Errorf("Path = %s", requests[0].Path)
	}
	filters, _ := requests[0].Body["filters"].([]any)
	if len(filters) != 1 {
		t.Fatalf("filters = %v, want one pipeline name filter", requests[0].Body["filters"])
	}
	filter := filters[0].(map[string]any)
	if filter["operand"] != "PipelineName" || filter["operator"] != "Equals" {
		t.Errorf("filter = %v", filter)
	}
	if _, ok := requests[0].Body["continuationToken"]; ok {
		t.Error("first query should not carry a continuation token")
	}
}

func TestClientCancelRun(t *testing.T) {
	t.Parallel()

	client, state := newTestClient(t, func(request recordedRequest) (int, string) {
		return http.StatusOK, ``
	})

	if err := client.CancelRun(context.Background(), "run-9", true); err != nil {
		t.Fatalf("CancelRun: %v", err)
	}
	request := state.recorded()[0]
	if request.Path != factoryPath+"/pipelineruns/run-9/cancel" {
		t.Errorf("Path = %s", request.Path)
	}
	if !strings.Contains(request.Query, "isRecursive=true") {
		t.Errorf("Query = %q, want isRecursive=true", request.Query)
	}
}

func TestClientNotFound(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, func(request recordedRequest) (int, string) {
		return http.StatusNotFound, `{"error": {"code": "PipelineNotFound", "message": "no such pipeline"}}`
	})

	_, err := client.GetPipeline(context.Background(), "missing")
	if err == nil {
		t.Fatal("expected error for 404")
	}
	if !IsNotFound(err) {
		t.Errorf("IsNotFound(%v) = false, want true", err)
	}
	if !strings.Contains(err.Error(), `getting pipeline "missing"`) {
		t.Errorf("error %q should name the pipeline", err)
	}
}

func TestStatusCodeOfPlainError(t *testing.T) {
	if code := StatusCode(io.EOF); code != 0 {
		t.Errorf("StatusCode(io.EOF) = %d, want 0", code)
	}
}
