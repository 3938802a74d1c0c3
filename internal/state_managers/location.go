package state_managers

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/benmeehan/device-locator/internal/models"
)

// DefaultFreshness is how long a fetched location is served from the cache.
const DefaultFreshness = time.Hour

// FetchFunc produces a fresh location response.
type FetchFunc func(ctx context.Context) (models.LocationResponse, error)

// LocationCacheInterface defines the single-slot location cache.
type LocationCacheInterface interface {
	Get(now time.Time) (models.LocationResponse, bool)
	Set(response models.LocationResponse, now time.Time)
	GetOrFetch(ctx context.Context, now time.Time, fetch FetchFunc) (models.LocationResponse, bool, error)
}

// LocationCache holds the last successful location response and when it was fetched.
// Staleness is judged when reading; entries are never evicted.
type LocationCache struct {
	freshness time.Duration
	logger    zerolog.Logger

	mu        sync.Mutex
	response  *models.LocationResponse
	fetchedAt time.Time
}

// NewLocationCache creates an empty cache. A non-positive freshness selects DefaultFreshness.
func NewLocationCache(freshness time.Duration, logger zerolog.Logger) *LocationCache {
	if freshness <= 0 {
		freshness = DefaultFreshness
	}
	return &LocationCache{
		freshness: freshness,
		logger:    logger,
	}
}

// Get returns the cached response if one exists and is younger than the freshness window at now.
func (c *LocationCache) Get(now time.Time) (models.LocationResponse, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lookup(now)
}

// Set overwrites the slot.
func (c *LocationCache) Set(response models.LocationResponse, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store(response, now)
}

// GetOrFetch returns the fresh cached response, or calls fetch and caches its result.
// The lookup, fetch and store happen under one lock, so concurrent misses trigger a single fetch.
// A failed fetch leaves the slot untouched. The boolean reports a cache hit.
func (c *LocationCache) GetOrFetch(ctx context.Context, now time.Time, fetch FetchFunc) (models.LocationResponse, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if resp, ok := c.lookup(now); ok {
		return resp, true, nil
	}

	resp, err := fetch(ctx)
	if err != nil {
		return models.LocationResponse{}, false, err
	}

	c.store(resp, now)
	return resp, false, nil
}

func (c *LocationCache) lookup(now time.Time) (models.LocationResponse, bool) {
	if c.response == nil {
		return models.LocationResponse{}, false
	}

	age := now.Sub(c.fetchedAt)
	if age >= c.freshness {
		c.logger.Debug().Dur("age", age).Msg("Cached location is stale")
		return models.LocationResponse{}, false
	}

	c.logger.Info().Dur("age", age).Msg("Returning cached location data")
	return *c.response, true
}

func (c *LocationCache) store(response models.LocationResponse, now time.Time) {
	c.response = &response
	c.fetchedAt = now
}
