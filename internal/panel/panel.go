package panel

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/isaacw/deckcal/internal/cache"
	"github.com/isaacw/deckcal/internal/calendar"
	"github.com/isaacw/deckcal/internal/config"
	"github.com/isaacw/deckcal/internal/feed"
	"github.com/isaacw/deckcal/internal/present"
)

// Kind picks which indicator an engine query renders.
type Kind int

const (
	// KindNext shows the next upcoming event and a countdown to its start.
	KindNext Kind = iota
	// KindCurrent shows time left in the in-progress event with a color cue.
	KindCurrent
)

func (k Kind) String() string {
	if k == KindCurrent {
		return "current"
	}
	return "next"
}

// Surface is the rendering collaborator behind one indicator key.
type Surface interface {
	SetTitle(text string)
	// SetImage receives the intensity asset path, or "" to clear the image.
	SetImage(asset string)
}

// Assets maps intensity tiers to image asset paths.
type Assets interface {
	For(intensity present.Intensity) string
}

// Engine owns the shared refresh cache and answers indicator queries. Both
// indicators read the same cached day; selection and presentation are
// recomputed on every tick.
type Engine struct {
	fetcher *feed.Fetcher
	cache   *cache.Cache
	assets  Assets
	log     zerolog.Logger

	url    string
	viewer string
	loc    *time.Location
	poll   time.Duration

	clock func() time.Time
}

func New(cfg config.Runtime, assets Assets, logger zerolog.Logger) *Engine {
	engine := &Engine{
		fetcher: feed.NewFetcher(cfg.HTTPTimeout),
		assets:  assets,
		log:     logger,
		url:     cfg.CalendarURL,
		viewer:  cfg.ViewerEmail,
		loc:     cfg.Location,
		poll:    cfg.Poll,
		clock:   time.Now,
	}
	engine.cache = cache.New(engine.refreshDay, cfg.Staleness, cfg.CalendarURL, logger)
	return engine
}

// refreshDay is one fetch+expand+filter cycle: the cache's refresh hook.
func (e *Engine) refreshDay(ctx context.Context) ([]calendar.Occurrence, error) {
	events, err := e.fetcher.Fetch(ctx, e.url)
	if err != nil {
		return nil, err
	}

	today := e.clock().In(e.loc)
	occurrences := calendar.ExpandDay(events, today)
	occurrences = calendar.DropDeclined(occurrences, e.viewer)
	calendar.SortOccurrences(occurrences)

	e.log.Debug().
		Int("events", len(events)).
		Int("occurrences", len(occurrences)).
		Str("feed", feed.RedactURL(e.url)).
		Msg("day refreshed")
	return occurrences, nil
}

// Render computes one indicator's content at the current instant. When the
// very first refresh fails there is nothing to show; the returned rendering
// is the unavailable placeholder and the error carries the cause.
func (e *Engine) Render(ctx context.Context, kind Kind) (present.Rendering, error) {
	snapshot, err := e.cache.Get(ctx)
	if err != nil {
		return present.Rendering{TitleLines: []string{"Calendar", "offline"}}, err
	}

	now := e.clock().In(e.loc)
	selection := calendar.Select(snapshot.Occurrences, now)

	switch kind {
	case KindCurrent:
		if selection.Current == nil {
			return present.NoCurrent(), nil
		}
		return present.Render(*selection.Current, present.ReferenceEnd, now), nil
	default:
		if selection.Next == nil {
			return present.NoNext(), nil
		}
		return present.Render(*selection.Next, present.ReferenceStart, now), nil
	}
}

// Invalidate forces the next query to refetch the feed.
func (e *Engine) Invalidate() {
	e.cache.Invalidate()
}

// Indicator is one visible key's poll loop handle.
type Indicator struct {
	cancel   context.CancelFunc
	done     chan struct{}
	hideOnce sync.Once
}

// Show starts an indicator: an immediate tick, then one per poll interval,
// until Hide. Corresponds to the panel's became-visible callback.
func (e *Engine) Show(kind Kind, surface Surface) *Indicator {
	ctx, cancel := context.WithCancel(context.Background())
	indicator := &Indicator{cancel: cancel, done: make(chan struct{})}

	e.log.Debug().Stringer("indicator", kind).Msg("indicator visible")

	go func() {
		defer close(indicator.done)

		e.tick(ctx, kind, surface)

		ticker := time.NewTicker(e.poll)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				e.tick(ctx, kind, surface)
			}
		}
	}()

	return indicator
}

// Hide stops the poll loop and waits for it to exit; no further ticks fire.
// An in-flight fetch is left to finish on its own. Safe to call twice.
func (i *Indicator) Hide() {
	i.hideOnce.Do(func() {
		i.cancel()
		<-i.done
	})
}

func (e *Engine) tick(ctx context.Context, kind Kind, surface Surface) {
	// Hiding the indicator stops future ticks but must not abort a fetch
	// already underway.
	rendering, err := e.Render(context.WithoutCancel(ctx), kind)
	if err != nil {
		e.log.Error().Err(err).Stringer("indicator", kind).Msg("tick render failed")
	}

	if kind == KindCurrent && e.assets != nil {
		surface.SetImage(e.assets.For(rendering.Intensity))
	}
	surface.SetTitle(rendering.Title())
}
