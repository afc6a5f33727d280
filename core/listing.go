package core

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/text/language"
)

type PruneResult struct {
	Removed   int `json:"removed"`
	Remaining int `json:"remaining"`
}

type ListingOption func(*Listing)

func WithClock(now func() time.Time) ListingOption {
	return func(l *Listing) { l.now = now }
}

func WithLocation(loc *time.Location) ListingOption {
	return func(l *Listing) { l.loc = loc }
}

func WithLocale(tag language.Tag) ListingOption {
	return func(l *Listing) { l.locale = tag }
}

// Listing drives a page load: read the store, drop expired events, write the
// survivors back and hand them to a presenter.
//
// The mutex serializes read-modify-write cycles inside this process only.
// Other processes sharing the same slot are assumed not to write concurrently.
type Listing struct {
	mu     sync.Mutex
	store  Store
	now    func() time.Time
	loc    *time.Location
	locale language.Tag
}

func NewListing(store Store, opts ...ListingOption) *Listing {
	l := &Listing{
		store:  store,
		now:    time.Now,
		loc:    time.Local,
		locale: language.English,
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

func (l *Listing) Location() *time.Location {
	return l.loc
}

func (l *Listing) Now() time.Time {
	return l.now()
}

// Open performs a page load and returns an unsorted presenter over the upcoming events.
func (l *Listing) Open(ctx context.Context) (*Presenter, error) {
	upcoming, _, err := l.prune(ctx)
	if err != nil {
		return nil, err
	}

	return NewPresenter(upcoming, l.locale), nil
}

func (l *Listing) Prune(ctx context.Context) (PruneResult, error) {
	upcoming, removed, err := l.prune(ctx)
	if err != nil {
		return PruneResult{}, err
	}

	return PruneResult{Removed: removed, Remaining: len(upcoming)}, nil
}

func (l *Listing) prune(ctx context.Context) ([]Event, int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	stored, err := l.store.load(ctx)
	if err != nil {
		return nil, 0, err
	}

	upcoming := FilterUpcoming(stored, l.now(), l.loc)

	err = l.store.Save(ctx, upcoming)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to persist upcoming events: %w", err)
	}

	removed := len(stored) - len(upcoming)
	if removed > 0 {
		log.Ctx(ctx).Info().Int("removed", removed).Int("remaining", len(upcoming)).Msg("expired events pruned")
	}

	return upcoming, removed, nil
}

// Submit appends a validated event to the persisted sequence.
func (l *Listing) Submit(ctx context.Context, event Event) error {
	err := ValidateEvent(event)
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	events, err := l.store.load(ctx)
	if err != nil {
		return err
	}

	err = l.store.Save(ctx, append(events, event))
	if err != nil {
		return fmt.Errorf("failed to persist submitted event: %w", err)
	}

	return nil
}

// Seed stores events only when the store is empty. It reports whether it wrote anything.
func (l *Listing) Seed(ctx context.Context, events []Event) (bool, error) {
	if len(events) == 0 {
		return false, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	stored, err := l.store.load(ctx)
	if err != nil {
		return false, err
	}

	if len(stored) > 0 {
		return false, nil
	}

	err = l.store.Save(ctx, events)
	if err != nil {
		return false, fmt.Errorf("failed to persist seed events: %w", err)
	}

	return true, nil
}

// PruneJob adapts Prune to a scheduler callback.
func (l *Listing) PruneJob(ctx context.Context) func() {
	return func() {
		result, err := l.Prune(ctx)
		if err != nil {
			log.Ctx(ctx).Error().Err(err).Str("component", "prune-job").Msg("scheduled prune failed")
			return
		}

		log.Ctx(ctx).Debug().Str("component", "prune-job").
			Int("removed", result.Removed).Int("remaining", result.Remaining).Msg("scheduled prune done")
	}
}
