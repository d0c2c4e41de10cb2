// Package cache memoizes query results so repeated backend calls within a
// request burst do not hit the database. Entries expire after an hour; any
// settings change clears the whole cache.
package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"
)

const (
	defaultTTL      = time.Hour
	cleanupInterval = 10 * time.Minute
)

// Cache stores arbitrary values under string keys. Get distinguishes a
// cached nil from a miss so negative lookups are memoized too.
type Cache interface {
	Get(key string) (any, bool)
	Set(key string, value any)
	Clear()
}

// Memory is the in-process cache used by default.
type Memory struct {
	store *gocache.Cache
	log   zerolog.Logger
}

func NewMemory(log zerolog.Logger) *Memory {
	return &Memory{
		store: gocache.New(defaultTTL, cleanupInterval),
		log:   log.With().Str("component", "cache").Logger(),
	}
}

func (c *Memory) Get(key string) (any, bool) {
	value, ok := c.store.Get(key)
	c.log.Trace().Str("key", key).Bool("hit", ok).Msg("cache lookup")
	return value, ok
}

func (c *Memory) Set(key string, value any) {
	c.store.Set(key, value, gocache.DefaultExpiration)
}

func (c *Memory) Clear() {
	c.store.Flush()
	c.log.Debug().Msg("cache cleared")
}

// Null satisfies Cache without storing anything. It is used when caching is
// disabled in the settings.
type Null struct{}

func (Null) Get(string) (any, bool) { return nil, false }
func (Null) Set(string, any)        {}
func (Null) Clear()                 {}
