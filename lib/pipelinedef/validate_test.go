// Copyright 2026 The Mario Authors
// SPDX-License-Identifier: Apache-2.0

package pipelinedef

import (
	"errors"
	"strings"
	"testing"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/datafactory/armdatafactory/v3"
)

func waitActivity(name string, dependsOn ...string) armdatafactory.ActivityClassification {
	activity := &armdatafactory.WaitActivity{
		Type:           to.Ptr("Wait"),
		TypeProperties: &armdatafactory.WaitActivityTypeProperties{WaitTimeInSeconds: 1},
	}
	if name != "" {
		activity.Name = to.Ptr(name)
	}
	for _, dependency := range dependsOn {
		activity.DependsOn = append(activity.DependsOn, &armdatafactory.ActivityDependency{
			Activity: to.Ptr(dependency),
		})
	}
	return activity
}

func resource(name string, activities ...armdatafactory.ActivityClassification) *armdatafactory.PipelineResource {
	result := &armdatafactory.PipelineResource{
		Properties: &armdatafactory.Pipeline{Activities: activities},
	}
	if name != "" {
		result.Name = to.Ptr(name)
	}
	return result
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		resource       *armdatafactory.PipelineResource
		expectedIssues int
		wantSubstrings []string
	}{
		{
			name:           "valid",
			resource:       resource("copy_iris", waitActivity("a"), waitActivity("b", "a")),
			expectedIssues: 0,
		},
		{
			name:           "valid with no activities",
			resource:       resource("placeholder"),
			expectedIssues: 0,
		},
		{
			name:           "missing name",
			resource:       resource("", waitActivity("a")),
			expectedIssues: 1,
			wantSubstrings: []string{"name is required"},
		},
		{
			name:           "missing properties",
			resource:       &armdatafactory.PipelineResource{Name: to.Ptr("bare")},
			expectedIssues: 1,
			wantSubstrings: []string{"properties is required"},
		},
		{
			name:           "forbidden character",
			resource:       resource("copy/iris"),
			expectedIssues: 1,
			wantSubstrings: []string{"forbidden character"},
		},
		{
			name:           "bad first character",
			resource:       resource("-copy"),
			expectedIssues: 1,
			wantSubstrings: []string{"must start with"},
		},
		{
			name:           "too long",
			resource:       resource(strings.Repeat("p", MaxNameLength+1)),
			expectedIssues: 1,
			wantSubstrings: []string{"longer than 140"},
		},
		{
			name:           "unnamed activity",
			resource:       resource("p", waitActivity("")),
			expectedIssues: 1,
			wantSubstrings: []string{"activities[0]: name is required"},
		},
		{
			name:           "duplicate activity",
			resource:       resource("p", waitActivity("a"), waitActivity("a")),
			expectedIssues: 1,
			wantSubstrings: []string{`activities[1] "a": duplicate activity name (first used at activities[0])`},
		},
		{
			name:           "unknown dependency",
			resource:       resource("p", waitActivity("a", "ghost")),
			expectedIssues: 1,
			wantSubstrings: []string{`depends on unknown activity "ghost"`},
		},
		{
			name:           "untyped activity",
			resource:       resource("p", &armdatafactory.Activity{Name: to.Ptr("a")}),
			expectedIssues: 1,
			wantSubstrings: []string{"type is required"},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			issues := Validate(test.resource)
			if len(issues) != test.expectedIssues {
				t.Fatalf("got %d issues, want %d: %v", len(issues), test.expectedIssues, issues)
			}
			joined := strings.Join(issues, "\n")
			for _, want := range test.wantSubstrings {
				if !strings.Contains(joined, want) {
					t.Errorf("issues %q should contain %q", joined, want)
				}
			}
		})
	}
}

func TestValidateAllRejectsDuplicateNames(t *testing.T) {
	t.Parallel()

	definitions := []*Definition{
		{Path: "pipelines/a.json", Resource: *resource("shared")},
		{Path: "pipelines/b.json", Resource: *resource("shared")},
		{Path: "pipelines/c.json", Resource: *resource("unique")},
	}

	err := ValidateAll(definitions)
	var validationError *ValidationError
	if !errors.As(err, &validationError) {
		t.Fatalf("ValidateAll error = %v, want *ValidationError", err)
	}
	if sources := validationError.Sources(); len(sources) != 1 || sources[0] != "pipelines/b.json" {
		t.Errorf("sources = %v, want only the second file", sources)
	}
	if !strings.Contains(validationError.Issues["pipelines/b.json"][0], "pipelines/a.json") {
		t.Errorf("issue should point at the first definition: %v", validationError.Issues)
	}
}

func TestValidateAllValid(t *testing.T) {
	t.Parallel()

	definitions := []*Definition{
		{Path: "a.json", Resource: *resource("a")},
		{Path: "b.json", Resource: *resource("b")},
	}
	if err := ValidateAll(definitions); err != nil {
		t.Errorf("ValidateAll: %v", err)
	}
}
