// Copyright 2026 The Mario Authors
// SPDX-License-Identifier: Apache-2.0

// Package ledger records the runs mario has started so later commands
// ("runs wait --last", "runs history") can find them without querying
// the factory by time window.
//
// The ledger is a single CBOR file holding the most recent batches,
// oldest first. Each "pipeline run" invocation appends one batch.
package ledger

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/samber/lo"

	"github.com/jeffbrennan/mario/lib/codec"
)

// FileName is the ledger file name inside the state directory.
const FileName = "runs.cbor"

// MaxBatches is the number of batches kept. Older batches are dropped
// on append.
const MaxBatches = 50

// ErrNoBatch is returned by Latest when no batch matches.
var ErrNoBatch = errors.New("no recorded runs")

// Entry is one started run.
type Entry struct {
	Pipeline string `cbor:"pipeline" json:"pipeline"`
	RunID    string `cbor:"run_id" json:"run_id"`
}

// Batch is the set of runs started by one command invocation.
type Batch struct {
	// Subscription is the Azure subscription ID of the factory.
	Subscription string `cbor:"subscription,omitempty" json:"subscription,omitempty"`

	// Factory is "<resource group>/<factory name>".
	Factory string `cbor:"factory" json:"factory"`

	TriggeredAt time.Time      `cbor:"triggered_at" json:"triggered_at"`
	Parameters  map[string]any `cbor:"parameters,omitempty" json:"parameters,omitempty"`
	Runs        []Entry        `cbor:"runs" json:"runs"`
}

// RunIDs returns the run IDs in the batch.
func (b Batch) RunIDs() []string {
	return lo.Map(b.Runs, func(entry Entry, _ int) string { return entry.RunID })
}

type document struct {
	Version int     `cbor:"version"`
	Batches []Batch `cbor:"batches"`
}

const documentVersion = 1

// Ledger is the run ledger stored under one state directory.
type Ledger struct {
	path string
}

// Open returns the ledger stored in stateDir. The directory is created
// on the first Append.
func Open(stateDir string) *Ledger {
	return &Ledger{path: filepath.Join(stateDir, FileName)}
}

// Path returns the ledger file path.
func (l *Ledger) Path() string { return l.path }

// Raw returns the ledger file as stored. A missing file yields nil.
func (l *Ledger) Raw() ([]byte, error) {
	data, err := os.ReadFile(l.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading run ledger: %w", err)
	}
	return data, nil
}

// Batches returns every stored batch, oldest first.
func (l *Ledger) Batches() ([]Batch, error) {
	data, err := l.Raw()
	if err != nil || data == nil {
		return nil, err
	}
	var doc document
	if err := codec.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decoding run ledger %s: %w", l.path, err)
	}
	if doc.Version != documentVersion {
		return nil, fmt.Errorf("run ledger %s has version %d, this binary reads version %d", l.path, doc.Version, documentVersion)
	}
	return doc.Batches, nil
}

// Latest returns the most recent batch recorded for factory in
// subscription. Resource group and factory names are only unique within
// a subscription, so both must match.
func (l *Ledger) Latest(subscription, factory string) (Batch, error) {
	batches, err := l.Batches()
	if err != nil {
		return Batch{}, err
	}
	batch, _, found := lo.FindLastIndexOf(batches, func(batch Batch) bool {
		return batch.Subscription == subscription && batch.Factory == factory
	})
	if !found {
		return Batch{}, fmt.Errorf("%w for factory %s", ErrNoBatch, factory)
	}
	return batch, nil
}

// Append adds batch and trims the ledger to MaxBatches. The file is
// replaced atomically.
func (l *Ledger) Append(batch Batch) error {
	batches, err := l.Batches()
	if err != nil {
		return err
	}
	batches = append(batches, batch)
	if len(batches) > MaxBatches {
		batches = batches[len(batches)-MaxBatches:]
	}

	data, err := codec.Marshal(document{Version: documentVersion, Batches: batches})
	if err != nil {
		return fmt.Errorf("encoding run ledger: %w", err)
	}

	directory := filepath.Dir(l.path)
	if err := os.MkdirAll(directory, 0o700); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}

	tmpFile, err := os.CreateTemp(directory, "runs-*.cbor")
	if err != nil {
		return fmt.Errorf("creating temp ledger file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return fmt.Errorf("writing run ledger: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("closing temp ledger file: %w", err)
	}
	if err := os.Rename(tmpPath, l.path); err != nil {
		return fmt.Errorf("renaming ledger file to %s: %w", l.path, err)
	}

	success = true
	return nil
}
