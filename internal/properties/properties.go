// Package properties loads and persists the backend settings: database
// connection parameters, the schema column mapping and the behavior options.
package properties

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/blesswinsamuel/sql-user-backend/internal/cache"
	"github.com/blesswinsamuel/sql-user-backend/internal/platform"
)

// cacheKey stores the loaded snapshot so subsequent instances skip the
// per-key config reads.
const cacheKey = "Properties_data"

// Properties is the loaded settings map. Values are the raw stored strings;
// boolean options are interpreted through Bool.
type Properties struct {
	mu     sync.RWMutex
	config platform.ConfigStore
	cache  cache.Cache
	log    zerolog.Logger
	data   map[string]string
}

// Load reads every supported key from the config store, preferring a cached
// snapshot when one exists.
func Load(config platform.ConfigStore, c cache.Cache, log zerolog.Logger) *Properties {
	p := &Properties{
		config: config,
		cache:  c,
		log:    log.With().Str("component", "properties").Logger(),
	}

	if snapshot, ok := c.Get(cacheKey); ok {
		if data, ok := snapshot.(map[string]string); ok {
			p.data = data
			return p
		}
	}

	p.data = make(map[string]string, len(Keys()))
	for _, key := range Keys() {
		if value, ok := config.GetAppValue(key); ok {
			p.data[key] = value
		}
	}
	p.store()
	p.log.Debug().Msg("application properties loaded")
	return p
}

func (p *Properties) store() {
	snapshot := make(map[string]string, len(p.data))
	for k, v := range p.data {
		snapshot[k] = v
	}
	p.cache.Set(cacheKey, snapshot)
}

// String returns the raw value for key; ok is false when the key is unset.
func (p *Properties) String(key string) (string, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	v, ok := p.data[key]
	return v, ok
}

// StringOr returns the value for key or def when unset or empty.
func (p *Properties) StringOr(key, def string) string {
	if v, ok := p.String(key); ok && v != "" {
		return v
	}
	return def
}

// Bool interprets a flag option. Anything but the true value is false.
func (p *Properties) Bool(key string) bool {
	v, ok := p.String(key)
	return ok && v == TrueValue
}

// Set persists value and updates the loaded map. Disabling the cache option
// drops everything cached instead of refreshing the snapshot.
func (p *Properties) Set(key, value string) error {
	if err := p.config.SetAppValue(key, value); err != nil {
		return fmt.Errorf("Set: %w", err)
	}

	p.mu.Lock()
	p.data[key] = value
	if key == OptUseCache && value != TrueValue {
		p.mu.Unlock()
		p.cache.Clear()
		return nil
	}
	p.store()
	p.mu.Unlock()
	return nil
}

// Unset removes key from the store and the loaded map.
func (p *Properties) Unset(key string) error {
	if err := p.config.DeleteAppValue(key); err != nil {
		return fmt.Errorf("Unset: %w", err)
	}

	p.mu.Lock()
	delete(p.data, key)
	p.store()
	p.mu.Unlock()
	return nil
}

// All returns a copy of the loaded settings.
func (p *Properties) All() map[string]string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make(map[string]string, len(p.data))
	for k, v := range p.data {
		out[k] = v
	}
	return out
}
