// Package platform abstracts the host groupware services the backend plugs
// into: persistent app configuration and message translation.
package platform

import (
	"os"
	"strings"
	"sync"
)

// ConfigStore persists application settings in the host's config storage.
type ConfigStore interface {
	// GetAppValue returns the stored value for key. The second return is
	// false when the key has never been set.
	GetAppValue(key string) (string, bool)
	SetAppValue(key, value string) error
	DeleteAppValue(key string) error
}

// Translator resolves user-facing messages. The host supplies localized
// catalogs; the fallback implementation returns the message unchanged.
type Translator interface {
	L(message string) string
}

// MemoryConfig is a ConfigStore kept in process memory. It backs tests and
// standalone deployments without a host config service.
type MemoryConfig struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemoryConfig(values map[string]string) *MemoryConfig {
	if values == nil {
		values = make(map[string]string)
	}
	return &MemoryConfig{values: values}
}

func (c *MemoryConfig) GetAppValue(key string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.values[key]
	return v, ok
}

func (c *MemoryConfig) SetAppValue(key, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = value
	return nil
}

func (c *MemoryConfig) DeleteAppValue(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.values, key)
	return nil
}

// SystemStore reads system-wide values from the host. Deployments that keep
// sensitive connection parameters out of the app settings store them here.
type SystemStore interface {
	GetSystemValue(key string) (string, bool)
}

// EnvSystem resolves system values from environment variables, mapping a
// dotted key like "db.password" to DB_PASSWORD.
type EnvSystem struct{}

func (EnvSystem) GetSystemValue(key string) (string, bool) {
	name := strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
	v, ok := os.LookupEnv(name)
	return v, ok
}

// ScopedConfig namespaces a ConfigStore by a tenant domain, so several
// independent backend configurations can share one store. The domain is
// fixed at construction; an empty domain keeps the flat namespace.
type ScopedConfig struct {
	store  ConfigStore
	domain string
}

func NewScopedConfig(store ConfigStore, domain string) *ScopedConfig {
	return &ScopedConfig{store: store, domain: domain}
}

func (c *ScopedConfig) key(key string) string {
	if c.domain == "" {
		return key
	}
	return key + "." + c.domain
}

func (c *ScopedConfig) GetAppValue(key string) (string, bool) {
	return c.store.GetAppValue(c.key(key))
}

func (c *ScopedConfig) SetAppValue(key, value string) error {
	return c.store.SetAppValue(c.key(key), value)
}

func (c *ScopedConfig) DeleteAppValue(key string) error {
	return c.store.DeleteAppValue(c.key(key))
}

// IdentityTranslator returns messages as-is.
type IdentityTranslator struct{}

func (IdentityTranslator) L(message string) string { return message }

// UserConfigStore persists per-user preferences in the host, keyed by the
// owning app and setting name. The sync actions reconcile these against the
// database columns.
type UserConfigStore interface {
	GetUserValue(uid, app, key string) string
	SetUserValue(uid, app, key, value string) error
}

// MemoryUserConfig is an in-process UserConfigStore.
type MemoryUserConfig struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemoryUserConfig() *MemoryUserConfig {
	return &MemoryUserConfig{values: make(map[string]string)}
}

func userKey(uid, app, key string) string { return uid + "\x00" + app + "\x00" + key }

func (c *MemoryUserConfig) GetUserValue(uid, app, key string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.values[userKey(uid, app, key)]
}

func (c *MemoryUserConfig) SetUserValue(uid, app, key, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[userKey(uid, app, key)] = value
	return nil
}
