// Copyright 2026 The Mario Authors
// SPDX-License-Identifier: Apache-2.0

package factorytest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/datafactory/armdatafactory/v3"

	"github.com/jeffbrennan/mario/lib/factory"
)

func TestFakeCreateRunRequiresPipeline(t *testing.T) {
	fake := New()
	_, err := fake.CreateRun(context.Background(), "missing", nil)
	if !factory.IsNotFound(err) {
		t.Fatalf("CreateRun on missing pipeline: err = %v, want not found", err)
	}

	fake.AddPipeline(&armdatafactory.PipelineResource{Name: to.Ptr("copy_iris")})
	runID, err := fake.CreateRun(context.Background(), "copy_iris", map[string]any{"a": 1})
	if err != nil {
		t.Fatalf("CreateRun: %v", err)
	}
	if runID != "run-0001" {
		t.Errorf("runID = %q, want run-0001", runID)
	}
	calls := fake.CallsTo(MethodCreateRun)
	if len(calls) != 2 || calls[1].Parameters["a"] != 1 {
		t.Errorf("recorded calls = %+v", calls)
	}
}

func TestFakeScriptedStatuses(t *testing.T) {
	fake := New()
	fake.AddRun(&armdatafactory.PipelineRun{RunID: to.Ptr("r1"), PipelineName: to.Ptr("p")})
	fake.ScriptStatuses("r1", factory.StatusQueued, factory.StatusInProgress, factory.StatusSucceeded)

	var got []string
	for range 4 {
		run, err := fake.GetRun(context.Background(), "r1")
		if err != nil {
			t.Fatalf("GetRun: %v", err)
		}
		got = append(got, *run.Status)
	}
	want := []string{"Queued", "InProgress", "Succeeded", "Succeeded"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("status %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestFakeQueryRunsWindow(t *testing.T) {
	base := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	fake := New()
	for i, offset := range []int{-10, -2, 0, 3} {
		start := base.AddDate(0, 0, offset)
		fake.AddRun(&armdatafactory.PipelineRun{
			RunID:        to.Ptr(string(rune('a' + i))),
			PipelineName: to.Ptr("p"),
			RunStart:     &start,
		})
	}

	runs, err := fake.QueryRuns(context.Background(), factory.RunQuery{
		UpdatedAfter:  base.AddDate(0, 0, -7),
		UpdatedBefore: base.AddDate(0, 0, 1),
	})
	if err != nil {
		t.Fatalf("QueryRuns: %v", err)
	}
	if len(runs) != 2 || *runs[0].RunID != "b" || *runs[1].RunID != "c" {
		t.Errorf("runs in window = %d, want b and c", len(runs))
	}
}

func TestFakeFailOn(t *testing.T) {
	fake := New()
	boom := errors.New("boom")
	fake.FailOn(MethodListPipelines, boom)
	if _, err := fake.ListPipelines(context.Background()); !errors.Is(err, boom) {
		t.Errorf("ListPipelines error = %v, want injected failure", err)
	}
	if len(fake.Calls()) != 1 {
		t.Errorf("failed call should still be recorded")
	}
}
