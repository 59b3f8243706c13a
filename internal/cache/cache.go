package cache

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/isaacw/deckcal/internal/calendar"
)

// State labels the cache lifecycle.
type State int

const (
	StateEmpty State = iota
	StateFresh
	StateStale
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateFresh:
		return "fresh"
	case StateStale:
		return "stale"
	default:
		return "unknown"
	}
}

// Snapshot is the cached day's occurrence list, sorted by start ascending,
// together with when it was fetched.
type Snapshot struct {
	Occurrences []calendar.Occurrence
	FetchedAt   time.Time
	SourceURL   string
}

// RefreshFunc performs one fetch+expand+filter cycle and returns the day's
// occurrences sorted by start ascending.
type RefreshFunc func(ctx context.Context) ([]calendar.Occurrence, error)

// Cache owns the day's occurrence list under a staleness clock. Refreshes
// replace the snapshot atomically on success and keep the stale value on
// failure; concurrent callers share a single in-flight refresh. Shared by
// both indicators, so all access is mutex-guarded.
type Cache struct {
	refresh RefreshFunc
	ttl     time.Duration
	url     string
	log     zerolog.Logger

	clock func() time.Time

	group singleflight.Group

	mu          sync.Mutex
	occurrences []calendar.Occurrence
	fetchedAt   time.Time
	primed      bool
}

func New(refresh RefreshFunc, ttl time.Duration, sourceURL string, logger zerolog.Logger) *Cache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Cache{
		refresh: refresh,
		ttl:     ttl,
		url:     sourceURL,
		log:     logger,
		clock:   time.Now,
	}
}

// Get returns a fresh snapshot, refreshing first when the cache is empty or
// stale. A refresh failure while a prior snapshot exists is absorbed: the
// stale snapshot is served and a warning logged. The same failure on an
// empty cache propagates, since there is nothing to fall back to.
func (c *Cache) Get(ctx context.Context) (Snapshot, error) {
	if snapshot, ok := c.freshSnapshot(); ok {
		return snapshot, nil
	}

	_, err, _ := c.group.Do("refresh", func() (any, error) {
		// Another caller may have completed a refresh while this one
		// queued behind the flight key.
		if _, ok := c.freshSnapshot(); ok {
			return nil, nil
		}

		occurrences, refreshErr := c.refresh(ctx)
		if refreshErr != nil {
			return nil, refreshErr
		}

		c.mu.Lock()
		c.occurrences = occurrences
		c.fetchedAt = c.clock()
		c.primed = true
		c.mu.Unlock()
		return nil, nil
	})

	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		if !c.primed {
			return Snapshot{}, err
		}
		c.log.Warn().Err(err).Time("fetched_at", c.fetchedAt).Msg("refresh failed, serving stale occurrences")
	}

	return c.snapshotLocked(), nil
}

// State reports the cache lifecycle phase at the current instant.
func (c *Cache) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.primed {
		return StateEmpty
	}
	if c.clock().Sub(c.fetchedAt) > c.ttl {
		return StateStale
	}
	return StateFresh
}

// Invalidate forces the next Get to refresh regardless of age. The cached
// occurrences are kept as the stale fallback.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fetchedAt = time.Time{}
}

func (c *Cache) freshSnapshot() (Snapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.primed || c.clock().Sub(c.fetchedAt) > c.ttl {
		return Snapshot{}, false
	}
	return c.snapshotLocked(), true
}

func (c *Cache) snapshotLocked() Snapshot {
	occurrences := make([]calendar.Occurrence, len(c.occurrences))
	copy(occurrences, c.occurrences)
	return Snapshot{
		Occurrences: occurrences,
		FetchedAt:   c.fetchedAt,
		SourceURL:   c.url,
	}
}
