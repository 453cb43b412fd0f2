package catalog

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const specialtiesCacheKey = "catalog:specialties"

// CachedRepository is a read-through Redis cache in front of the catalog.
// Only the specialty list is cached: it is tiny, read on nearly every tool
// call, and changes rarely. Cache failures degrade to the inner repository.
type CachedRepository struct {
	Repository
	rdb    *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

func NewCachedRepository(inner Repository, rdb *redis.Client, ttl time.Duration, logger zerolog.Logger) *CachedRepository {
	return &CachedRepository{
		Repository: inner,
		rdb:        rdb,
		ttl:        ttl,
		logger:     logger.With().Str("component", "catalog_cache").Logger(),
	}
}

func (c *CachedRepository) ListSpecialties(ctx context.Context) ([]Specialty, error) {
	cached, err := c.rdb.Get(ctx, specialtiesCacheKey).Bytes()
	if err == nil {
		var specialties []Specialty
		if jsonErr := json.Unmarshal(cached, &specialties); jsonErr == nil {
			return specialties, nil
		}
		// Corrupt entry: fall through and rebuild.
		c.logger.Warn().Msg("dropping unreadable specialties cache entry")
		_ = c.rdb.Del(ctx, specialtiesCacheKey).Err()
	} else if err != redis.Nil {
		c.logger.Warn().Err(err).Msg("specialties cache read failed")
	}

	specialties, err := c.Repository.ListSpecialties(ctx)
	if err != nil {
		return nil, err
	}

	if data, jsonErr := json.Marshal(specialties); jsonErr == nil {
		if setErr := c.rdb.Set(ctx, specialtiesCacheKey, data, c.ttl).Err(); setErr != nil {
			c.logger.Warn().Err(setErr).Msg("specialties cache write failed")
		}
	}

	return specialties, nil
}
