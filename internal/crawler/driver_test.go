package crawler

import (
	"context"
	"errors"
	"testing"

	"github.com/jmylchreest/propcrawl/pkg/listing"
)

// stubWalker returns a fixed number of listings per source.
type stubWalker struct {
	listings map[string]int
	walked   []string
}

func (w *stubWalker) Walk(_ context.Context, source string) *listing.Run {
	w.walked = append(w.walked, source)
	run := listing.NewRun(source)
	run.Stop = listing.StopCompleted
	for i := 0; i < w.listings[source]; i++ {
		run.Listings = append(run.Listings, listing.Merge(listing.Summary{Title: "t"}, nil, 1))
	}
	return run
}

// --- Driver Tests ---

func TestDriver_Run_SavesEachSource(t *testing.T) {
	a := testOrigin + "/venta/bogota/bogota-dc"
	b := testOrigin + "/arriendo/medellin/antioquia"
	w := &stubWalker{listings: map[string]int{a: 2, b: 3}}
	store := newMemStore()

	rep := NewDriver(w, store, false, nil).Run(context.Background(), []string{a, b})

	if rep.Crawled != 2 || rep.Rows != 5 {
		t.Errorf("unexpected report %+v", rep)
	}
	if run := store.batches["venta_bogota_bogota-dc"]; run == nil || run.Key != "venta_bogota_bogota-dc" {
		t.Errorf("expected batch saved under its key, got %+v", run)
	}
	if store.batches["arriendo_medellin_antioquia"] == nil {
		t.Error("expected second batch")
	}
}

// An existing batch is skipped without touching the network.
func TestDriver_Run_SkipsExistingBatch(t *testing.T) {
	renderer := newFakeFetcher("dynamic")
	fast := newFakeFetcher("static")
	cfg := testConfig()
	walker := newTestWalker(renderer, fast, cfg)

	store := newMemStore()
	store.batches["venta_bogota_bogota-dc"] = listing.NewRun(testSource)

	rep := NewDriver(walker, store, false, nil).Run(context.Background(), []string{testSource})

	if rep.Skipped != 1 || rep.Crawled != 0 {
		t.Errorf("unexpected report %+v", rep)
	}
	if n := len(renderer.Calls()) + len(fast.Calls()); n != 0 {
		t.Errorf("expected zero fetches, got %d", n)
	}
	if store.saves != 0 {
		t.Errorf("expected no saves, got %d", store.saves)
	}
}

func TestDriver_Run_Overwrite(t *testing.T) {
	w := &stubWalker{listings: map[string]int{testSource: 1}}
	store := newMemStore()
	store.batches["venta_bogota_bogota-dc"] = listing.NewRun(testSource)

	rep := NewDriver(w, store, true, nil).Run(context.Background(), []string{testSource})

	if rep.Crawled != 1 || len(w.walked) != 1 {
		t.Errorf("overwrite should re-crawl, got %+v", rep)
	}
}

func TestDriver_Run_EmptySourceNotPersisted(t *testing.T) {
	w := &stubWalker{listings: map[string]int{}}
	store := newMemStore()

	rep := NewDriver(w, store, false, nil).Run(context.Background(), []string{testSource})

	if rep.Empty != 1 || store.saves != 0 {
		t.Errorf("empty source should not be saved, got %+v (saves=%d)", rep, store.saves)
	}
}

func TestDriver_Run_FailuresDoNotAbort(t *testing.T) {
	good := testOrigin + "/venta/cali/valle"
	w := &stubWalker{listings: map[string]int{testSource: 1, good: 1}}
	store := newMemStore()

	rep := NewDriver(w, store, false, nil).Run(context.Background(), []string{"not a url", testSource, good})

	if rep.Failed != 1 || rep.Crawled != 2 {
		t.Errorf("unexpected report %+v", rep)
	}

	store = newMemStore()
	store.saveErr = errors.New("disk full")
	rep = NewDriver(w, store, false, nil).Run(context.Background(), []string{testSource, good})
	if rep.Failed != 2 || store.saves != 2 {
		t.Errorf("save errors should be counted per source, got %+v", rep)
	}
}

// Running twice over the same sources saves each batch once.
func TestDriver_Run_Idempotent(t *testing.T) {
	w := &stubWalker{listings: map[string]int{testSource: 4}}
	store := newMemStore()
	d := NewDriver(w, store, false, nil)

	first := d.Run(context.Background(), []string{testSource})
	second := d.Run(context.Background(), []string{testSource})

	if first.Crawled != 1 || second.Skipped != 1 || store.saves != 1 {
		t.Errorf("unexpected reports %+v / %+v (saves=%d)", first, second, store.saves)
	}
}

func TestDriver_Run_Cancelled(t *testing.T) {
	w := &stubWalker{listings: map[string]int{testSource: 1}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rep := NewDriver(w, newMemStore(), false, nil).Run(ctx, []string{testSource})

	if len(w.walked) != 0 || rep.Crawled != 0 {
		t.Errorf("cancelled run should not walk, got %+v", rep)
	}
}
