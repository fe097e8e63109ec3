// Copyright 2026 The Mario Authors
// SPDX-License-Identifier: Apache-2.0

package ledger

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/jeffbrennan/mario/lib/codec"
)

const subscription = "00000000-0000-0000-0000-00000000000a"

func batch(factory string, triggered time.Time, ids ...string) Batch {
	b := Batch{Subscription: subscription, Factory: factory, TriggeredAt: triggered}
	for i, id := range ids {
		b.Runs = append(b.Runs, Entry{Pipeline: fmt.Sprintf("pipeline_%d", i), RunID: id})
	}
	return b
}

func TestEmptyLedger(t *testing.T) {
	ledger := Open(t.TempDir())

	batches, err := ledger.Batches()
	if err != nil {
		t.Fatalf("Batches: %v", err)
	}
	if len(batches) != 0 {
		t.Errorf("got %d batches, want 0", len(batches))
	}
	if _, err := ledger.Latest(subscription, "rg/adf"); !errors.Is(err, ErrNoBatch) {
		t.Errorf("Latest error = %v, want ErrNoBatch", err)
	}
}

func TestAppendAndLatest(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "state")
	ledger := Open(dir)
	start := time.Date(2026, 3, 1, 9, 30, 0, 123456789, time.UTC)

	if err := ledger.Append(batch("rg/adf-dev", start, "run-1", "run-2")); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := ledger.Append(batch("rg/adf-prod", start.Add(time.Hour), "run-3")); err != nil {
		t.Fatalf("Append: %v", err)
	}
	withParams := batch("rg/adf-dev", start.Add(2*time.Hour), "run-4")
	withParams.Parameters = map[string]any{"date": "2026-03-01"}
	if err := ledger.Append(withParams); err != nil {
		t.Fatalf("Append: %v", err)
	}

	latest, err := ledger.Latest(subscription, "rg/adf-dev")
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if !slices.Equal(latest.RunIDs(), []string{"run-4"}) {
		t.Errorf("latest dev runs = %v, want [run-4]", latest.RunIDs())
	}
	if !latest.TriggeredAt.Equal(start.Add(2 * time.Hour)) {
		t.Errorf("TriggeredAt = %v, want %v", latest.TriggeredAt, start.Add(2*time.Hour))
	}
	if latest.Parameters["date"] != "2026-03-01" {
		t.Errorf("Parameters = %v", latest.Parameters)
	}

	prod, err := ledger.Latest(subscription, "rg/adf-prod")
	if err != nil {
		t.Fatalf("Latest prod: %v", err)
	}
	if !slices.Equal(prod.RunIDs(), []string{"run-3"}) {
		t.Errorf("latest prod runs = %v, want [run-3]", prod.RunIDs())
	}

	info, err := os.Stat(ledger.Path())
	if err != nil {
		t.Fatalf("stat ledger: %v", err)
	}
	if info.Size() == 0 {
		t.Error("ledger file is empty")
	}
	leftovers, _ := filepath.Glob(filepath.Join(dir, "runs-*.cbor"))
	if len(leftovers) != 0 {
		t.Errorf("temp files left behind: %v", leftovers)
	}
}

func TestLatestMatchesSubscription(t *testing.T) {
	ledger := Open(t.TempDir())
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	if err := ledger.Append(batch("rg/adf", start, "run-1")); err != nil {
		t.Fatalf("Append: %v", err)
	}
	other := batch("rg/adf", start.Add(time.Hour), "run-2")
	other.Subscription = "00000000-0000-0000-0000-00000000000b"
	if err := ledger.Append(other); err != nil {
		t.Fatalf("Append: %v", err)
	}

	latest, err := ledger.Latest(subscription, "rg/adf")
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if !slices.Equal(latest.RunIDs(), []string{"run-1"}) {
		t.Errorf("latest runs = %v, want [run-1] from the same subscription", latest.RunIDs())
	}
	if _, err := ledger.Latest("00000000-0000-0000-0000-00000000000c", "rg/adf"); !errors.Is(err, ErrNoBatch) {
		t.Errorf("Latest in unused subscription error = %v, want ErrNoBatch", err)
	}
}

func TestAppendTrims(t *testing.T) {
	ledger := Open(t.TempDir())
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	for i := range MaxBatches + 5 {
		if err := ledger.Append(batch("rg/adf", start.Add(time.Duration(i)*time.Minute), fmt.Sprintf("run-%d", i))); err != nil {
			t.Fatalf("Append %d: %v", i, err)
		}
	}

	batches, err := ledger.Batches()
	if err != nil {
		t.Fatalf("Batches: %v", err)
	}
	if len(batches) != MaxBatches {
		t.Fatalf("got %d batches, want %d", len(batches), MaxBatches)
	}
	if got := batches[0].RunIDs()[0]; got != "run-5" {
		t.Errorf("oldest kept run = %q, want run-5", got)
	}
	if got := batches[len(batches)-1].RunIDs()[0]; got != fmt.Sprintf("run-%d", MaxBatches+4) {
		t.Errorf("newest run = %q", got)
	}
}

func TestRawDiagnose(t *testing.T) {
	ledger := Open(t.TempDir())
	if err := ledger.Append(batch("rg/adf", time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), "run-1")); err != nil {
		t.Fatalf("Append: %v", err)
	}
	raw, err := ledger.Raw()
	if err != nil {
		t.Fatalf("Raw: %v", err)
	}
	notation, err := codec.Diagnose(raw)
	if err != nil {
		t.Fatalf("Diagnose: %v", err)
	}
	if !strings.Contains(notation, `"run-1"`) {
		t.Errorf("diagnostic notation %q should contain the run ID", notation)
	}
}

func TestUnsupportedVersion(t *testing.T) {
	dir := t.TempDir()
	data, err := codec.Marshal(document{Version: 99})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, FileName), data, 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(dir).Batches(); err == nil || !strings.Contains(err.Error(), "version 99") {
		t.Errorf("error = %v, want version mismatch", err)
	}
}

func TestCorruptLedger(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte{0xff, 0x00}, 0o600); err != nil {
		t.Fatal(err)
	}
	if err := Open(dir).Append(batch("rg/adf", time.Now())); err == nil {
		t.Error("Append over a corrupt ledger should fail rather than discard history")
	}
}
