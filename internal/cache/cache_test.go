package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/isaacw/deckcal/internal/calendar"
)

func fixtureOccurrences(title string) []calendar.Occurrence {
	start := time.Date(2026, 3, 2, 14, 0, 0, 0, time.UTC)
	return []calendar.Occurrence{{UID: "event", Title: title, Start: start, End: start.Add(30 * time.Minute)}}
}

func TestGet_RefreshesWhenEmptyThenServesFresh(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	c := New(func(ctx context.Context) ([]calendar.Occurrence, error) {
		calls.Add(1)
		return fixtureOccurrences("First"), nil
	}, 10*time.Minute, "https://example.com/feed.ics", zerolog.Nop())

	if got := c.State(); got != StateEmpty {
		t.Fatalf("expected empty state, got %v", got)
	}

	snapshot, err := c.Get(context.Background())
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(snapshot.Occurrences) != 1 || snapshot.Occurrences[0].Title != "First" {
		t.Fatalf("unexpected snapshot: %+v", snapshot.Occurrences)
	}
	if snapshot.SourceURL != "https://example.com/feed.ics" {
		t.Fatalf("unexpected source url: %q", snapshot.SourceURL)
	}

	if _, err := c.Get(context.Background()); err != nil {
		t.Fatalf("second get: %v", err)
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("fresh cache must not refetch, got %d calls", got)
	}
	if got := c.State(); got != StateFresh {
		t.Fatalf("expected fresh state, got %v", got)
	}
}

func TestGet_FailureWhileEmptyPropagates(t *testing.T) {
	t.Parallel()

	refreshErr := errors.New("boom")
	c := New(func(ctx context.Context) ([]calendar.Occurrence, error) {
		return nil, refreshErr
	}, 10*time.Minute, "https://example.com/feed.ics", zerolog.Nop())

	if _, err := c.Get(context.Background()); !errors.Is(err, refreshErr) {
		t.Fatalf("expected propagated error, got %v", err)
	}
	if got := c.State(); got != StateEmpty {
		t.Fatalf("failed first refresh must leave cache empty, got %v", got)
	}
}

func TestGet_FailureWhileStaleServesStale(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	var fail atomic.Bool
	var calls atomic.Int32

	c := New(func(ctx context.Context) ([]calendar.Occurrence, error) {
		calls.Add(1)
		if fail.Load() {
			return nil, errors.New("network down")
		}
		return fixtureOccurrences("Cached"), nil
	}, 10*time.Minute, "https://example.com/feed.ics", zerolog.Nop())
	c.clock = func() time.Time { return now }

	if _, err := c.Get(context.Background()); err != nil {
		t.Fatalf("prime cache: %v", err)
	}

	now = now.Add(11 * time.Minute)
	fail.Store(true)

	snapshot, err := c.Get(context.Background())
	if err != nil {
		t.Fatalf("stale failure must be absorbed, got %v", err)
	}
	if len(snapshot.Occurrences) != 1 || snapshot.Occurrences[0].Title != "Cached" {
		t.Fatalf("stale snapshot changed: %+v", snapshot.Occurrences)
	}
	if got := c.State(); got != StateStale {
		t.Fatalf("expected stale state after failed refresh, got %v", got)
	}
	if got := calls.Load(); got != 2 {
		t.Fatalf("expected exactly 2 refresh attempts, got %d", got)
	}
}

func TestGet_SingleFlight(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})

	c := New(func(ctx context.Context) ([]calendar.Occurrence, error) {
		if calls.Add(1) == 1 {
			close(started)
		}
		<-release
		return fixtureOccurrences("Shared"), nil
	}, 10*time.Minute, "https://example.com/feed.ics", zerolog.Nop())

	const callers = 5
	var wg sync.WaitGroup
	errs := make([]error, callers)
	snapshots := make([]Snapshot, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			snapshots[i], errs[i] = c.Get(context.Background())
		}(i)
	}

	<-started
	// Give the remaining callers time to queue behind the in-flight refresh.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if got := calls.Load(); got != 1 {
		t.Fatalf("expected a single in-flight refresh, got %d", got)
	}
	for i := 0; i < callers; i++ {
		if errs[i] != nil {
			t.Fatalf("caller %d: %v", i, errs[i])
		}
		if len(snapshots[i].Occurrences) != 1 || snapshots[i].Occurrences[0].Title != "Shared" {
			t.Fatalf("caller %d got unexpected snapshot: %+v", i, snapshots[i].Occurrences)
		}
	}
}

func TestInvalidate_ForcesRefresh(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	c := New(func(ctx context.Context) ([]calendar.Occurrence, error) {
		calls.Add(1)
		return fixtureOccurrences("Fresh"), nil
	}, 10*time.Minute, "https://example.com/feed.ics", zerolog.Nop())

	if _, err := c.Get(context.Background()); err != nil {
		t.Fatalf("prime cache: %v", err)
	}
	c.Invalidate()
	if _, err := c.Get(context.Background()); err != nil {
		t.Fatalf("get after invalidate: %v", err)
	}
	if got := calls.Load(); got != 2 {
		t.Fatalf("expected refresh after invalidate, got %d calls", got)
	}
}
