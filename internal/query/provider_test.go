package query

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blesswinsamuel/sql-user-backend/internal/cache"
	"github.com/blesswinsamuel/sql-user-backend/internal/platform"
	"github.com/blesswinsamuel/sql-user-backend/internal/properties"
)

func loadProps(t *testing.T, values map[string]string) *properties.Properties {
	t.Helper()
	return properties.Load(
		platform.NewMemoryConfig(values), cache.Null{}, zerolog.Nop(),
	)
}

func fullMapping() map[string]string {
	return map[string]string{
		properties.DBUserTable:      "users",
		properties.DBGroupTable:     "groups",
		properties.DBUserGroupTable: "user_group",

		properties.DBUserUIDColumn:      "id",
		properties.DBUserUsernameColumn: "login",
		properties.DBUserNameColumn:     "display_name",
		properties.DBUserEmailColumn:    "mail",
		properties.DBUserQuotaColumn:    "quota",
		properties.DBUserHomeColumn:     "home_dir",
		properties.DBUserActiveColumn:   "active",
		properties.DBUserAvatarColumn:   "avatar",
		properties.DBUserSaltColumn:     "salt",
		properties.DBUserPasswordColumn: "passwd",

		properties.DBGroupGIDColumn:   "gid",
		properties.DBGroupNameColumn:  "gname",
		properties.DBGroupAdminColumn: "is_admin",

		properties.DBUserGroupUIDColumn: "user_id",
		properties.DBUserGroupGIDColumn: "group_id",
	}
}

func TestProviderFullMapping(t *testing.T) {
	p := NewProvider(loadProps(t, fullMapping()))

	q, ok := p.Get(FindUserByUID)
	require.True(t, ok)
	assert.Equal(t,
		"SELECT u.id AS uid, u.login AS username, u.display_name AS name, "+
			"u.mail AS email, u.quota AS quota, u.home_dir AS home, "+
			"u.active AS active, u.avatar AS avatar, u.salt AS salt, "+
			"u.passwd AS password FROM users u WHERE u.id = :uid",
		q)

	q, ok = p.Get(BelongsToAdmin)
	require.True(t, ok)
	assert.Equal(t,
		"SELECT COUNT(g.gid) > 0 AS admin FROM groups g, user_group ug "+
			"WHERE ug.group_id = g.gid AND ug.user_id = :uid AND g.is_admin",
		q)

	q, ok = p.Get(UpdatePassword)
	require.True(t, ok)
	assert.Equal(t, "UPDATE users SET passwd = :password WHERE id = :uid", q)
}

func TestProviderUnmappedColumnsBecomeLiterals(t *testing.T) {
	mapping := fullMapping()
	delete(mapping, properties.DBUserEmailColumn)
	delete(mapping, properties.DBUserActiveColumn)
	delete(mapping, properties.DBUserAvatarColumn)
	delete(mapping, properties.DBUserSaltColumn)
	delete(mapping, properties.DBGroupAdminColumn)
	p := NewProvider(loadProps(t, mapping))

	q, _ := p.Get(FindUsers)
	assert.Contains(t, q, "null AS email")
	assert.Contains(t, q, "true AS active")
	assert.Contains(t, q, "false AS avatar")
	assert.Contains(t, q, "null AS salt")

	q, _ = p.Get(FindGroups)
	assert.Contains(t, q, "false AS admin")
}

func TestProviderReverseActive(t *testing.T) {
	mapping := fullMapping()
	mapping[properties.OptReverseActive] = "1"
	p := NewProvider(loadProps(t, mapping))

	q, _ := p.Get(FindUserByUID)
	assert.Contains(t, q, "NOT u.active AS active")
}

func TestProviderUsernameFallsBackToUID(t *testing.T) {
	mapping := fullMapping()
	delete(mapping, properties.DBUserUsernameColumn)
	p := NewProvider(loadProps(t, mapping))

	q, _ := p.Get(FindUserByUsername)
	assert.Contains(t, q, "WHERE u.id = :username")
}

func TestProviderEmailLoginQueries(t *testing.T) {
	p := NewProvider(loadProps(t, fullMapping()))

	q, _ := p.Get(FindUserByUsernameOrEmail)
	assert.Contains(t, q, "(u.login = :username OR u.mail = :username)")

	q, _ = p.Get(FindUserByUsernameOrEmailCI)
	assert.Contains(t, q,
		"(lower(u.login) = lower(:username) OR lower(u.mail) = lower(:username))")

	// Without an email column the match degenerates to the username alone.
	mapping := fullMapping()
	delete(mapping, properties.DBUserEmailColumn)
	p = NewProvider(loadProps(t, mapping))
	q, _ = p.Get(FindUserByUsernameOrEmail)
	assert.Contains(t, q, "(u.login = :username OR false)")
}

func TestProviderUnknownName(t *testing.T) {
	p := NewProvider(loadProps(t, fullMapping()))
	_, ok := p.Get("no_such_query")
	assert.False(t, ok)
}
