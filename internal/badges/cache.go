package badges

import (
	"context"
	"encoding/json"
	"time"

	"github.com/2beens/healthify/internal/telemetry/tracing"

	"github.com/coocood/freecache"
	log "github.com/sirupsen/logrus"
)

const (
	catalogCacheKey = "badges::catalog"
	megabyte        = 1024 * 1024
	// freecache refuses entries larger than 1/1024 of its size, so the
	// whole serialized catalog has to fit in 32 KiB
	catalogCacheSize = 32 * megabyte
)

type catalogSource interface {
	List(ctx context.Context) ([]Badge, error)
}

// CachedCatalog keeps the badge catalog in memory for the configured TTL.
// The catalog changes only when it gets re-seeded.
type CachedCatalog struct {
	source     catalogSource
	cache      *freecache.Cache
	ttlSeconds int
}

func NewCachedCatalog(source catalogSource, ttl time.Duration) *CachedCatalog {
	ttlSeconds := int(ttl.Seconds())
	if ttlSeconds < 1 {
		ttlSeconds = 1
	}
	return &CachedCatalog{
		source:     source,
		cache:      freecache.NewCache(catalogCacheSize),
		ttlSeconds: ttlSeconds,
	}
}

func (c *CachedCatalog) List(ctx context.Context) (_ []Badge, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "cache.badges.list")
	defer func() { tracing.EndSpan(span, err) }()

	if catalogBytes, err := c.cache.Get([]byte(catalogCacheKey)); err == nil {
		var catalog []Badge
		if err := json.Unmarshal(catalogBytes, &catalog); err == nil {
			return catalog, nil
		} else {
			log.Errorf("failed to unmarshal badge catalog from cache: %s", err)
		}
	}

	catalog, err := c.source.List(ctx)
	if err != nil {
		return nil, err
	}

	catalogBytes, err := json.Marshal(catalog)
	if err != nil {
		log.Errorf("failed to marshal badge catalog for cache: %s", err)
		return catalog, nil
	}
	if err := c.cache.Set([]byte(catalogCacheKey), catalogBytes, c.ttlSeconds); err != nil {
		log.Errorf("failed to write badge catalog cache: %s", err)
	} else {
		log.Tracef("badge catalog cached, %d badges", len(catalog))
	}

	return catalog, nil
}

func (c *CachedCatalog) Invalidate() {
	c.cache.Del([]byte(catalogCacheKey))
}
