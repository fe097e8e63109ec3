// Copyright 2026 The Mario Authors
// SPDX-License-Identifier: Apache-2.0

package runstats

import (
	"sort"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/datafactory/armdatafactory/v3"
	"github.com/samber/lo"
)

// Bar length bounds for the duration chart.
const (
	MaxBarLength = 40
	MinBarLength = MaxBarLength / 20
)

// Point is one run in a duration chart.
type Point struct {
	RunID    string        `json:"run_id"`
	Status   string        `json:"status"`
	Start    time.Time     `json:"start"`
	Duration time.Duration `json:"duration_ns"`

	// Bar is the chart bar length, scaled linearly between the shortest
	// and longest run in the series and clamped to
	// [MinBarLength, MaxBarLength].
	Bar int `json:"bar"`

	// ChangePercent is the duration change relative to the previous
	// point. Nil for the first point and after a zero-length run.
	ChangePercent *float64 `json:"change_percent,omitempty"`
}

// Timeseries orders the started runs of a series by start time and
// computes bar lengths and run-over-run change. Runs that have not
// started are omitted.
func Timeseries(runs []*armdatafactory.PipelineRun) []Point {
	started := lo.Filter(runs, func(run *armdatafactory.PipelineRun, _ int) bool {
		return run != nil && run.RunStart != nil
	})
	sort.SliceStable(started, func(i, j int) bool {
		return started[i].RunStart.Before(*started[j].RunStart)
	})
	if len(started) == 0 {
		return nil
	}

	durations := lo.Map(started, func(run *armdatafactory.PipelineRun, _ int) time.Duration {
		return Duration(run)
	})
	shortest, longest := lo.Min(durations), lo.Max(durations)

	points := make([]Point, len(started))
	for i, run := range started {
		points[i] = Point{
			RunID:    lo.FromPtr(run.RunID),
			Status:   lo.FromPtr(run.Status),
			Start:    *run.RunStart,
			Duration: durations[i],
			Bar:      barLength(durations[i], shortest, longest),
		}
		if i > 0 && durations[i-1] > 0 {
			change := float64(durations[i]-durations[i-1]) / float64(durations[i-1]) * 100
			points[i].ChangePercent = &change
		}
	}
	return points
}

func barLength(duration, shortest, longest time.Duration) int {
	if longest == shortest {
		return MaxBarLength
	}
	length := int(float64(duration-shortest) / float64(longest-shortest) * MaxBarLength)
	return max(MinBarLength, min(MaxBarLength, length))
}
