package geocode

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"
)

// slowThenFastForward delays the first query long enough for the second
// to complete first, reproducing the out-of-order resolution race.
type slowThenFastForward struct {
	mu    sync.Mutex
	calls int
}

func (f *slowThenFastForward) Search(_ context.Context, query string) ([]Result, error) {
	f.mu.Lock()
	f.calls++
	call := f.calls
	f.mu.Unlock()

	if call == 1 {
		time.Sleep(80 * time.Millisecond)
	}

	return []Result{{Label: query}}, nil
}

func (f *slowThenFastForward) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.calls
}

type recordingForward struct {
	mu      sync.Mutex
	queries []string
}

func (f *recordingForward) Search(_ context.Context, query string) ([]Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.queries = append(f.queries, query)

	return []Result{{Label: query}}, nil
}

func (f *recordingForward) recorded() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]string, len(f.queries))
	copy(out, f.queries)

	return out
}

func TestSearcherDebouncesKeystrokes(t *testing.T) {
	forward := &recordingForward{}
	searcher := NewSearcher(forward, slog.Default()).WithDelay(30 * time.Millisecond)

	delivered := make(chan []Result, 1)
	deliver := func(results []Result, err error) {
		if err != nil {
			t.Errorf("deliver: %v", err)
		}
		delivered <- results
	}

	ctx := context.Background()
	searcher.Search(ctx, "N", deliver)
	searcher.Search(ctx, "Ne", deliver)
	searcher.Search(ctx, "Nevsky", deliver)

	select {
	case results := <-delivered:
		if len(results) != 1 || results[0].Label != "Nevsky" {
			t.Fatalf("unexpected delivery: %+v", results)
		}
	case <-time.After(time.Second):
		t.Fatal("no results delivered")
	}

	// Only the final keystroke reached the geocoder.
	if got := forward.recorded(); len(got) != 1 || got[0] != "Nevsky" {
		t.Fatalf("expected a single debounced call, got %v", got)
	}
}

func TestSearcherStaleResponseCannotOverwriteNewer(t *testing.T) {
	forward := &slowThenFastForward{}
	searcher := NewSearcher(forward, slog.Default()).WithDelay(time.Millisecond)

	var mu sync.Mutex
	var deliveries []string

	deliver := func(results []Result, err error) {
		if err != nil {
			t.Errorf("deliver: %v", err)
		}

		mu.Lock()
		defer mu.Unlock()
		for _, r := range results {
			deliveries = append(deliveries, r.Label)
		}
	}

	ctx := context.Background()
	searcher.Search(ctx, "old", deliver)

	// Let the first lookup start before superseding it.
	time.Sleep(20 * time.Millisecond)
	searcher.Search(ctx, "new", deliver)

	// Wait out both the fast second response and the slow first one.
	time.Sleep(200 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()

	if len(deliveries) != 1 || deliveries[0] != "new" {
		t.Fatalf("stale response leaked: deliveries %v", deliveries)
	}

	if forward.callCount() != 2 {
		t.Fatalf("expected both lookups to fire, got %d", forward.callCount())
	}
}

func TestSearcherCancelDropsPending(t *testing.T) {
	forward := &recordingForward{}
	searcher := NewSearcher(forward, slog.Default()).WithDelay(20 * time.Millisecond)

	searcher.Search(context.Background(), "doomed", func([]Result, error) {
		t.Error("cancelled search must not deliver")
	})
	searcher.Cancel()

	time.Sleep(80 * time.Millisecond)

	if got := forward.recorded(); len(got) != 0 {
		t.Fatalf("cancelled lookup still fired: %v", got)
	}
}
