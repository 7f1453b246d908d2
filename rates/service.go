package rates

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/sig-0/fxconv/metrics"
	"github.com/sig-0/fxconv/provider"
	"github.com/sig-0/fxconv/storage"
	"github.com/sig-0/fxconv/storage/types"
)

// DefaultFreshness is the maximum age of a served cached rate set
const DefaultFreshness = time.Hour

// ErrAllSourcesFailed is returned by Refresh when no provider
// yielded rates, and the fallback table was cached instead
var ErrAllSourcesFailed = errors.New("all rate sources failed")

const refreshKey = "refresh"

// Service serves the current rate set, backed by the cache storage
// and an ordered chain of live providers
type Service struct {
	storage   storage.Storage
	providers []provider.Provider

	logger  *slog.Logger
	metrics *metrics.Metrics

	now       func() time.Time
	freshness time.Duration

	group singleflight.Group
}

// New creates a new rate service. Providers are tried in the given order
func New(store storage.Storage, providers []provider.Provider, opts ...Option) *Service {
	s := &Service{
		storage:   store,
		providers: providers,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:       time.Now,
		freshness: DefaultFreshness,
	}

	// Apply the options
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Rates returns the current rate set. It never fails: when no live
// source is usable, the fallback rates are returned
func (s *Service) Rates(ctx context.Context) types.RateSet {
	return s.Entry(ctx).Rates
}

// Entry returns the current cached entry, refreshing it if it is
// missing or stale
func (s *Service) Entry(ctx context.Context) types.CachedEntry {
	cached := s.cached(ctx)

	if cached != nil && s.isFresh(cached) {
		s.observeCache(true)

		return *cached
	}

	s.observeCache(false)

	resCh := s.group.DoChan(refreshKey, s.sharedRefresh(ctx))

	select {
	case res := <-resCh:
		entry, _ := res.Val.(types.CachedEntry)

		return entry
	case <-ctx.Done():
		s.logger.Warn(
			"rate refresh abandoned",
			"err", ctx.Err(),
		)

		// Serve whatever is at hand, without caching it
		if cached != nil {
			return *cached
		}

		return types.CachedEntry{
			FetchedAt: s.now().UTC(),
			Source:    types.SourceFallback,
			Rates:     Fallback(),
		}
	}
}

// Refresh forcefully refreshes the cached entry, regardless of its age.
// If all providers fail, the fallback entry is cached and returned
// together with ErrAllSourcesFailed. If ctx ends first, ctx.Err() is
// returned and the shared refresh completes in the background
func (s *Service) Refresh(ctx context.Context) (types.CachedEntry, error) {
	resCh := s.group.DoChan(refreshKey, s.sharedRefresh(ctx))

	select {
	case res := <-resCh:
		entry, _ := res.Val.(types.CachedEntry)

		return entry, res.Err
	case <-ctx.Done():
		return types.CachedEntry{}, ctx.Err()
	}
}

// sharedRefresh returns the singleflight refresh routine. The flight is
// shared between callers, so it is detached from any single one
func (s *Service) sharedRefresh(ctx context.Context) func() (any, error) {
	return func() (any, error) {
		return s.refresh(context.WithoutCancel(ctx))
	}
}

// refresh fetches a new entry and stores it in the cache
func (s *Service) refresh(ctx context.Context) (types.CachedEntry, error) {
	entry, fetchErr := s.fetch(ctx)

	if err := s.storage.Save(ctx, &entry); err != nil {
		s.logger.Error(
			"unable to cache rates",
			"source", entry.Source,
			"err", err,
		)
	}

	return entry, fetchErr
}

// fetch walks the provider chain, and returns the first usable result.
// Each provider is attempted at most once
func (s *Service) fetch(ctx context.Context) (types.CachedEntry, error) {
	for _, p := range s.providers {
		reported, err := p.Fetch(ctx)
		if err != nil {
			s.observeFetch(p.Name(), metrics.OutcomeFailure)

			s.logger.Warn(
				"unable to fetch rates",
				"provider", p.Name(),
				"err", err,
			)

			continue
		}

		s.observeFetch(p.Name(), metrics.OutcomeSuccess)

		rates, partial := normalize(reported)
		if partial {
			s.logger.Warn(
				"incomplete rates, missing currencies filled from fallback",
				"provider", p.Name(),
			)
		}

		s.logger.Info(
			"fetched rates",
			"provider", p.Name(),
			"usd", rates.USD,
			"cny", rates.CNY,
			"irr", rates.IRR,
		)

		return types.CachedEntry{
			FetchedAt: s.now().UTC(),
			Source:    types.Source(p.Name()),
			Rates:     rates,
			Partial:   partial,
		}, nil
	}

	s.logger.Warn("all rate sources failed, using fallback rates")

	if s.metrics != nil {
		s.metrics.FallbackUsesTotal.Inc()
	}

	return types.CachedEntry{
		FetchedAt: s.now().UTC(),
		Source:    types.SourceFallback,
		Rates:     Fallback(),
	}, ErrAllSourcesFailed
}

// cached returns the cached entry, if any. Storage errors count as a miss
func (s *Service) cached(ctx context.Context) *types.CachedEntry {
	entry, err := s.storage.Latest(ctx)
	if err != nil {
		s.logger.Warn(
			"unable to read cached rates",
			"err", err,
		)

		return nil
	}

	return entry
}

func (s *Service) isFresh(entry *types.CachedEntry) bool {
	return entry.Age(s.now()) < s.freshness
}

func (s *Service) observeCache(hit bool) {
	if s.metrics == nil {
		return
	}

	if hit {
		s.metrics.CacheHitsTotal.Inc()

		return
	}

	s.metrics.CacheMissesTotal.Inc()
}

func (s *Service) observeFetch(name, outcome string) {
	if s.metrics == nil {
		return
	}

	s.metrics.ProviderFetchTotal.WithLabelValues(name, outcome).Inc()
}
