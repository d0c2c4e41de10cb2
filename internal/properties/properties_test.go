package properties

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blesswinsamuel/sql-user-backend/internal/cache"
	"github.com/blesswinsamuel/sql-user-backend/internal/platform"
)

func newTestProperties(values map[string]string) (*Properties, cache.Cache) {
	c := cache.NewMemory(zerolog.Nop())
	p := Load(platform.NewMemoryConfig(values), c, zerolog.Nop())
	return p, c
}

func TestLoadReadsConfiguredKeys(t *testing.T) {
	p, _ := newTestProperties(map[string]string{
		DBDriver:     "pgsql",
		DBUserTable:  "users",
		OptUseCache:  "1",
		"unrelated":  "ignored",
		OptHomeMode:  HomeStatic,
		OptEmailSync: SyncInitial,
	})

	driver, ok := p.String(DBDriver)
	require.True(t, ok)
	assert.Equal(t, "pgsql", driver)

	_, ok = p.String("unrelated")
	assert.False(t, ok, "unsupported keys must not load")

	assert.True(t, p.Bool(OptUseCache))
	assert.False(t, p.Bool(OptReverseActive))
	assert.Equal(t, SyncInitial, p.StringOr(OptEmailSync, "x"))
	assert.Equal(t, "def", p.StringOr(DBGroupTable, "def"))
}

func TestLoadPrefersCachedSnapshot(t *testing.T) {
	c := cache.NewMemory(zerolog.Nop())
	config := platform.NewMemoryConfig(map[string]string{DBDriver: "mysql"})

	first := Load(config, c, zerolog.Nop())
	_, _ = first, config.SetAppValue(DBDriver, "pgsql")

	second := Load(config, c, zerolog.Nop())
	driver, _ := second.String(DBDriver)
	assert.Equal(t, "mysql", driver, "snapshot must win over fresh config reads")
}

func TestSetPersistsAndRefreshesSnapshot(t *testing.T) {
	config := platform.NewMemoryConfig(nil)
	c := cache.NewMemory(zerolog.Nop())
	p := Load(config, c, zerolog.Nop())

	require.NoError(t, p.Set(DBUserTable, "accounts"))

	stored, ok := config.GetAppValue(DBUserTable)
	require.True(t, ok)
	assert.Equal(t, "accounts", stored)

	reloaded := Load(config, c, zerolog.Nop())
	table, _ := reloaded.String(DBUserTable)
	assert.Equal(t, "accounts", table)
}

func TestDisablingCacheClearsIt(t *testing.T) {
	config := platform.NewMemoryConfig(nil)
	c := cache.NewMemory(zerolog.Nop())
	c.Set("user_someone", "value")
	p := Load(config, c, zerolog.Nop())

	require.NoError(t, p.Set(OptUseCache, FalseValue))

	_, ok := c.Get("user_someone")
	assert.False(t, ok)
	_, ok = c.Get("Properties_data")
	assert.False(t, ok, "snapshot must go with the rest of the cache")
}

func TestUnset(t *testing.T) {
	config := platform.NewMemoryConfig(map[string]string{OptHomeLocation: "/srv/%u"})
	p := Load(config, cache.Null{}, zerolog.Nop())

	require.NoError(t, p.Unset(OptHomeLocation))
	_, ok := p.String(OptHomeLocation)
	assert.False(t, ok)
	_, ok = config.GetAppValue(OptHomeLocation)
	assert.False(t, ok)
}

func TestBooleanKeyClassification(t *testing.T) {
	assert.True(t, IsBoolean(OptReverseActive))
	assert.True(t, IsBoolean(OptUseCache))
	assert.False(t, IsBoolean(DBDriver))
	assert.False(t, IsBoolean(OptEmailSync))
}
