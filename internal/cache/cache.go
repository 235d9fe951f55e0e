// Package cache stores geocoding results in Redis so repeated searches
// for the same ZIP code skip the provider round-trip.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fairwaylabs/clubfinder/internal/geocode"
)

const defaultTTL = time.Hour

// GeocodeCache wraps a Redis client with typed get/set for ZIP centroids.
type GeocodeCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewGeocodeCache constructs a GeocodeCache with a 1-hour TTL.
func NewGeocodeCache(client *redis.Client) *GeocodeCache {
	return &GeocodeCache{client: client, ttl: defaultTTL}
}

// key returns the Redis key for the given ZIP code.
func key(zipCode string) string {
	return "geocode:" + strings.TrimSpace(zipCode)
}

// Get retrieves a cached coordinate for the ZIP code.
// Returns nil, nil on a cache miss (not an error).
func (c *GeocodeCache) Get(ctx context.Context, zipCode string) (*geocode.Coordinate, error) {
	val, err := c.client.Get(ctx, key(zipCode)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("cache get for zip %s: %w", zipCode, err)
	}

	var coord geocode.Coordinate
	if err := json.Unmarshal([]byte(val), &coord); err != nil {
		return nil, fmt.Errorf("unmarshaling cached coordinate for zip %s: %w", zipCode, err)
	}

	return &coord, nil
}

// Set stores the coordinate for the ZIP code with the configured TTL.
func (c *GeocodeCache) Set(ctx context.Context, zipCode string, coord geocode.Coordinate) error {
	b, err := json.Marshal(coord)
	if err != nil {
		return fmt.Errorf("marshaling coordinate for zip %s: %w", zipCode, err)
	}

	if err := c.client.Set(ctx, key(zipCode), b, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set for zip %s: %w", zipCode, err)
	}

	return nil
}
