// Copyright 2026 The Mario Authors
// SPDX-License-Identifier: Apache-2.0

package pipelinedef

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/datafactory/armdatafactory/v3"
)

// MaxNameLength is the longest pipeline name the service accepts.
const MaxNameLength = 140

// forbiddenNameCharacters may not appear anywhere in a pipeline name.
const forbiddenNameCharacters = `.+?/<>*%&:\`

// ValidateName checks a pipeline name against the service's naming
// rules. Returns "" for a valid name.
func ValidateName(name string) string {
	switch {
	case name == "":
		return "name is required"
	case utf8.RuneCountInString(name) > MaxNameLength:
		return fmt.Sprintf("name %q is longer than %d characters", name, MaxNameLength)
	case strings.ContainsAny(name, forbiddenNameCharacters):
		return fmt.Sprintf("name %q contains a forbidden character (one of %s)", name, forbiddenNameCharacters)
	}
	first, _ := utf8.DecodeRuneInString(name)
	if !(first == '_' || ('a' <= first && first <= 'z') || ('A' <= first && first <= 'Z') || ('0' <= first && first <= '9')) {
		return fmt.Sprintf("name %q must start with a letter, digit, or underscore", name)
	}
	return ""
}

// Validate checks a pipeline resource for structural issues. Returns a
// list of human-readable issue descriptions. An empty list means the
// resource can be uploaded.
//
// Checks:
//   - name is present and follows the service's naming rules
//   - properties is present
//   - every activity has a name and a type
//   - activity names are unique within the pipeline
//   - dependsOn references name an activity of the same pipeline
func Validate(resource *armdatafactory.PipelineResource) []string {
	var issues []string

	name := ""
	if resource.Name != nil {
		name = *resource.Name
	}
	if issue := ValidateName(name); issue != "" {
		issues = append(issues, issue)
	}

	if resource.Properties == nil {
		return append(issues, "properties is required")
	}

	activityNames := make(map[string]int, len(resource.Properties.Activities))
	var activities []*armdatafactory.Activity
	for index, classification := range resource.Properties.Activities {
		prefix := fmt.Sprintf("activities[%d]", index)
		if classification == nil {
			issues = append(issues, fmt.Sprintf("%s: activity is null", prefix))
			continue
		}
		activity := classification.GetActivity()
		activities = append(activities, activity)

		if activity.Name == nil || *activity.Name == "" {
			issues = append(issues, fmt.Sprintf("%s: name is required", prefix))
		} else {
			if firstIndex, exists := activityNames[*activity.Name]; exists {
				issues = append(issues, fmt.Sprintf(
					"%s %q: duplicate activity name (first used at activities[%d])",
					prefix, *activity.Name, firstIndex,
				))
			} else {
				activityNames[*activity.Name] = index
			}
		}
		if activity.Type == nil || *activity.Type == "" {
			issues = append(issues, fmt.Sprintf("%s: type is required", prefix))
		}
	}

	for _, activity := range activities {
		if activity.Name == nil {
			continue
		}
		for _, dependency := range activity.DependsOn {
			if dependency == nil || dependency.Activity == nil {
				continue
			}
			if _, exists := activityNames[*dependency.Activity]; !exists {
				issues = append(issues, fmt.Sprintf(
					"activity %q depends on unknown activity %q",
					*activity.Name, *dependency.Activity,
				))
			}
		}
	}

	return issues
}

// ValidationError collects the issues found across a set of
// definitions, keyed by source.
type ValidationError struct {
	Issues map[string][]string
}

func (e *ValidationError) Error() string {
	count := 0
	for _, issues := range e.Issues {
		count += len(issues)
	}
	return fmt.Sprintf("%d validation issue(s) in %d pipeline definition(s)", count, len(e.Issues))
}

// Sources returns the definitions with issues in sorted order.
func (e *ValidationError) Sources() []string {
	sources := make([]string, 0, len(e.Issues))
	for source := range e.Issues {
		sources = append(sources, source)
	}
	sort.Strings(sources)
	return sources
}

// ValidateAll validates every definition and additionally rejects two
// definitions that share a name, since the second upload would
// silently replace the first. Returns nil or a *ValidationError.
func ValidateAll(definitions []*Definition) error {
	issues := make(map[string][]string)
	firstSource := make(map[string]string, len(definitions))

	for _, definition := range definitions {
		source := definition.Source()
		if found := Validate(&definition.Resource); len(found) > 0 {
			issues[source] = append(issues[source], found...)
		}

		name := definition.Name()
		if name == "" {
			continue
		}
		if first, exists := firstSource[name]; exists {
			issues[source] = append(issues[source], fmt.Sprintf("pipeline name %q is also defined in %s", name, first))
			continue
		}
		firstSource[name] = source
	}

	if len(issues) == 0 {
		return nil
	}
	return &ValidationError{Issues: issues}
}
