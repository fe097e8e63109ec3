// Copyright 2026 The Mario Authors
// SPDX-License-Identifier: Apache-2.0

// Package runwatch polls pipeline runs until each reaches a terminal
// status.
package runwatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/datafactory/armdatafactory/v3"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/jeffbrennan/mario/lib/clock"
	"github.com/jeffbrennan/mario/lib/factory"
	"github.com/jeffbrennan/mario/lib/runstats"
)

// DefaultInterval is the poll interval used when Options.Interval is zero.
const DefaultInterval = 15 * time.Second

// Options configures Watch.
type Options struct {
	// Interval between polls of a single run.
	Interval time.Duration

	// Clock drives the poll interval. Nil means clock.Real().
	Clock clock.Clock

	// OnChange is called whenever a run's status differs from the last
	// observed status, including the first observation. Calls are
	// serialized.
	OnChange func(Update)
}

// Update reports one observed status transition.
type Update struct {
	RunID    string
	Pipeline string
	Previous string
	Status   string
	Run      *armdatafactory.PipelineRun
}

// Result is the terminal state of each watched run, keyed by run ID.
type Result map[string]*armdatafactory.PipelineRun

// Unsuccessful returns the IDs of runs that did not finish Succeeded,
// in the order given by ids.
func (r Result) Unsuccessful(ids []string) []string {
	return lo.Filter(ids, func(id string, _ int) bool {
		run, ok := r[id]
		return !ok || lo.FromPtr(run.Status) != factory.StatusSucceeded
	})
}

// Watch polls every run in ids concurrently until all are terminal. It
// returns early with an error if any poll fails or ctx is done.
func Watch(ctx context.Context, runs factory.Runs, ids []string, options Options) (Result, error) {
	if len(ids) == 0 {
		return nil, errors.New("no run IDs to watch")
	}
	if options.Interval <= 0 {
		options.Interval = DefaultInterval
	}
	if options.Clock == nil {
		options.Clock = clock.Real()
	}

	var (
		mu     sync.Mutex
		result = make(Result, len(ids))
	)
	report := func(update Update) {
		if options.OnChange == nil {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		options.OnChange(update)
	}

	group, groupCtx := errgroup.WithContext(ctx)
	for _, id := range lo.Uniq(ids) {
		group.Go(func() error {
			run, err := watchOne(groupCtx, runs, id, options, report)
			if err != nil {
				return err
			}
			mu.Lock()
			result[id] = run
			mu.Unlock()
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return result, err
	}
	return result, nil
}

func watchOne(ctx context.Context, runs factory.Runs, id string, options Options, report func(Update)) (*armdatafactory.PipelineRun, error) {
	var previous string
	for {
		run, err := runs.GetRun(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("polling run %s: %w", id, err)
		}
		status := lo.FromPtr(run.Status)
		if status != previous {
			report(Update{
				RunID:    id,
				Pipeline: lo.FromPtr(run.PipelineName),
				Previous: previous,
				Status:   status,
				Run:      run,
			})
			previous = status
		}
		if runstats.IsTerminal(status) {
			return run, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-options.Clock.After(options.Interval):
		}
	}
}
