// Copyright 2026 The Mario Authors
// SPDX-License-Identifier: Apache-2.0

// Package runstats turns pipeline definitions and pipeline runs into the
// summaries printed by "pipeline summarize", "runs summarize" and
// "runs timeseries". Nothing here performs I/O.
package runstats

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/datafactory/armdatafactory/v3"
	"github.com/samber/lo"

	"github.com/jeffbrennan/mario/lib/factory"
)

// Bounds on the number of days a run query may cover.
const (
	MinDays = 1
	MaxDays = 30
)

// Window returns the run query covering the last days days. The upper
// bound is one day past now so runs updated moments ago are included
// regardless of the caller's time zone.
func Window(now time.Time, days int) (factory.RunQuery, error) {
	if days < MinDays || days > MaxDays {
		return factory.RunQuery{}, fmt.Errorf("days must be between %d and %d, got %d", MinDays, MaxDays, days)
	}
	return factory.RunQuery{
		UpdatedAfter:  now.AddDate(0, 0, -days),
		UpdatedBefore: now.AddDate(0, 0, 1),
	}, nil
}

// IsTerminal reports whether a run in this status will not change again.
func IsTerminal(status string) bool {
	switch status {
	case factory.StatusSucceeded, factory.StatusFailed, factory.StatusCancelled:
		return true
	}
	return false
}

// RunSummary aggregates the runs of one pipeline.
type RunSummary struct {
	Pipeline   string `json:"pipeline"`
	Succeeded  int    `json:"succeeded"`
	Failed     int    `json:"failed"`
	InProgress int    `json:"in_progress"`
	Queued     int    `json:"queued"`
	Cancelled  int    `json:"cancelled"`

	// TotalRuntimeMinutes sums the duration of every run, including
	// runs that have not finished.
	TotalRuntimeMinutes float64 `json:"total_runtime_minutes"`

	// AverageRuntimeMinutes is the mean duration of succeeded and
	// failed runs. Zero when neither exists.
	AverageRuntimeMinutes float64 `json:"average_runtime_minutes"`
}

// Total returns the number of runs counted in the summary.
func (s RunSummary) Total() int {
	return s.Succeeded + s.Failed + s.InProgress + s.Queued + s.Cancelled
}

// Summarize groups runs by pipeline name. The result is sorted by name.
// Runs without a pipeline name are ignored.
func Summarize(runs []*armdatafactory.PipelineRun) []RunSummary {
	summaries := make(map[string]*RunSummary)
	finishedMinutes := make(map[string]float64)

	for _, run := range runs {
		if run == nil || run.PipelineName == nil {
			continue
		}
		name := *run.PipelineName
		summary, exists := summaries[name]
		if !exists {
			summary = &RunSummary{Pipeline: name}
			summaries[name] = summary
		}

		minutes := Duration(run).Minutes()
		summary.TotalRuntimeMinutes += minutes

		switch lo.FromPtr(run.Status) {
		case factory.StatusSucceeded:
			summary.Succeeded++
			finishedMinutes[name] += minutes
		case factory.StatusFailed:
			summary.Failed++
			finishedMinutes[name] += minutes
		case factory.StatusInProgress, factory.StatusCanceling:
			summary.InProgress++
		case factory.StatusQueued:
			summary.Queued++
		case factory.StatusCancelled:
			summary.Cancelled++
		}
	}

	result := make([]RunSummary, 0, len(summaries))
	for name, summary := range summaries {
		if finished := summary.Succeeded + summary.Failed; finished > 0 {
			summary.AverageRuntimeMinutes = finishedMinutes[name] / float64(finished)
		}
		result = append(result, *summary)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Pipeline < result[j].Pipeline })
	return result
}

// FilterSummaries keeps summaries whose pipeline name contains substring.
func FilterSummaries(summaries []RunSummary, substring string) []RunSummary {
	if substring == "" {
		return summaries
	}
	return lo.Filter(summaries, func(summary RunSummary, _ int) bool {
		return strings.Contains(summary.Pipeline, substring)
	})
}

// Duration returns a run's reported duration, or zero when the service
// has not reported one yet.
func Duration(run *armdatafactory.PipelineRun) time.Duration {
	if run.DurationInMs == nil {
		return 0
	}
	return time.Duration(*run.DurationInMs) * time.Millisecond
}
