package series

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/opensource-climate/petrel/internal/domain"
)

// CachedProvider is a read-through decorator over a SeriesProvider. Cache
// failures are logged and bypassed; the underlying store remains the
// source of truth.
type CachedProvider struct {
	next  domain.SeriesProvider
	cache domain.Cache
	ttl   time.Duration
}

// NewCachedProvider wraps the provider with a series fetch cache.
func NewCachedProvider(next domain.SeriesProvider, cache domain.Cache, ttl time.Duration) *CachedProvider {
	return &CachedProvider{next: next, cache: cache, ttl: ttl}
}

// GetSeries serves from cache when possible, otherwise reads through and
// stores the result.
func (p *CachedProvider) GetSeries(ctx context.Context, variable string, lat, lon float64, start, end time.Time) (*domain.Series, error) {
	key := seriesKey(variable, lat, lon, start, end)

	if raw, err := p.cache.Get(ctx, key); err != nil {
		slog.Warn("series cache read failed", "key", key, "error", err)
	} else if raw != nil {
		var cached domain.Series
		if err := json.Unmarshal(raw, &cached); err == nil {
			return &cached, nil
		}
		slog.Warn("series cache entry corrupt, refetching", "key", key)
	}

	series, err := p.next.GetSeries(ctx, variable, lat, lon, start, end)
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(series); err == nil {
		if err := p.cache.Set(ctx, key, raw, p.ttl); err != nil {
			slog.Warn("series cache write failed", "key", key, "error", err)
		}
	}
	return series, nil
}

// Coverage is not cached; it is a cheap metadata read.
func (p *CachedProvider) Coverage(ctx context.Context) (*domain.Coverage, error) {
	return p.next.Coverage(ctx)
}

func seriesKey(variable string, lat, lon float64, start, end time.Time) string {
	return fmt.Sprintf("series:%s:%.4f:%.4f:%d:%d", variable, lat, lon, start.Unix(), end.Unix())
}
