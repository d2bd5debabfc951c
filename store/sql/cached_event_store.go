package sqlstore

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	repositorycache "github.com/goliatone/go-repository-cache/cache"
	"github.com/goliatone/go-service-market/core"
)

const marketEventCacheKeyPrefix = "service-market::events::v1"

// EventReader is the ledger read path the cache wraps.
type EventReader interface {
	ListBySubject(ctx context.Context, subject string) ([]core.Event, error)
}

// CachedMarketEventStore serves repeated subject reads from cache, falling
// through to the base store on a miss. Appends invalidate the subject's key.
type CachedMarketEventStore struct {
	base  *MarketEventStore
	cache repositorycache.CacheService
}

func NewCachedMarketEventStore(
	base *MarketEventStore,
	cacheService repositorycache.CacheService,
) (*CachedMarketEventStore, error) {
	if base == nil {
		return nil, fmt.Errorf("sqlstore: base market event store is required")
	}
	if cacheService == nil {
		return nil, fmt.Errorf("sqlstore: event cache service is required")
	}
	return &CachedMarketEventStore{base: base, cache: cacheService}, nil
}

// MarketEventCacheKey is the deterministic cache key contract for subject
// reads: service-market::events::v1::<subject>, subject URL-path escaped.
func MarketEventCacheKey(subject string) (string, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return "", fmt.Errorf("sqlstore: event subject is required")
	}
	return marketEventCacheKeyPrefix + "::" + url.PathEscape(subject), nil
}

func (s *CachedMarketEventStore) ListBySubject(ctx context.Context, subject string) ([]core.Event, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return nil, fmt.Errorf("sqlstore: cached market event store is not configured")
	}
	cacheKey, err := MarketEventCacheKey(subject)
	if err != nil {
		return nil, err
	}
	events, err := repositorycache.GetOrFetch(ctx, s.cache, cacheKey, func(ctx context.Context) ([]core.Event, error) {
		return s.base.ListBySubject(ctx, subject)
	})
	if err != nil {
		return nil, err
	}
	out := make([]core.Event, len(events))
	copy(out, events)
	return out, nil
}

func (s *CachedMarketEventStore) Append(ctx context.Context, event core.Event) error {
	if s == nil || s.base == nil || s.cache == nil {
		return fmt.Errorf("sqlstore: cached market event store is not configured")
	}
	if err := s.base.Append(ctx, event); err != nil {
		return err
	}
	cacheKey, err := MarketEventCacheKey(event.Subject)
	if err != nil {
		return err
	}
	return s.cache.Delete(ctx, cacheKey)
}

var _ EventReader = (*CachedMarketEventStore)(nil)
