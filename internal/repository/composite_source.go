package repository

import (
	"context"
	"errors"
	"sync"
	"time"

	"MarketTiming/internal/domain/models"
	"MarketTiming/internal/domain/repository"
	"MarketTiming/pkg/cache"
	"MarketTiming/pkg/logger"
)

// FallbackSource tries each source in order and returns the first table
// loaded. When all fail the errors are joined.
type FallbackSource struct {
	sources []repository.Source
}

func NewFallbackSource(sources ...repository.Source) *FallbackSource {
	return &FallbackSource{sources: sources}
}

func (s *FallbackSource) Load(ctx context.Context, key string) (*models.RawTable, error) {
	var errs []error
	for _, src := range s.sources {
		t, err := src.Load(ctx, key)
		if err == nil {
			return t, nil
		}
		errs = append(errs, err)
		if ctx.Err() != nil {
			break
		}
	}
	if len(errs) == 0 {
		return nil, models.ErrSourceNotFound
	}
	return nil, errors.Join(errs...)
}

// CachedSource memoizes successful loads in a cache store for ttl.
type CachedSource struct {
	next  repository.Source
	store cache.Store
	ttl   time.Duration
	log   *logger.Logger

	mu   sync.Mutex
	seen map[string]struct{}
}

func NewCachedSource(next repository.Source, store cache.Store, ttl time.Duration, l *logger.Logger) *CachedSource {
	return &CachedSource{next: next, store: store, ttl: ttl, log: l, seen: make(map[string]struct{})}
}

func (s *CachedSource) Load(ctx context.Context, key string) (*models.RawTable, error) {
	s.mu.Lock()
	s.seen[key] = struct{}{}
	s.mu.Unlock()

	ck := cache.GenerateKey("raw", key)
	t, err := cache.GetJSON[models.RawTable](ctx, s.store, ck)
	if err == nil {
		return &t, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		s.log.Warn("raw table cache read failed", logger.String("source", key), logger.Error(err))
	}

	table, err := s.next.Load(ctx, key)
	if err != nil {
		return nil, err
	}
	if err := cache.SetJSON(ctx, s.store, ck, table, s.ttl); err != nil {
		s.log.Warn("raw table cache write failed", logger.String("source", key), logger.Error(err))
	}
	return table, nil
}

// Invalidate drops the cached tables for keys, or for every key this source
// has been asked for when keys is empty. Keys warmed by another process
// sharing the store are covered once this process has requested them.
func (s *CachedSource) Invalidate(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		s.mu.Lock()
		for k := range s.seen {
			keys = append(keys, k)
		}
		s.seen = make(map[string]struct{})
		s.mu.Unlock()
	}
	if len(keys) == 0 {
		return nil
	}
	cks := make([]string, len(keys))
	for i, k := range keys {
		cks[i] = cache.GenerateKey("raw", k)
	}
	return s.store.Delete(ctx, cks...)
}
