package backend

import (
	"context"
	"database/sql"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blesswinsamuel/sql-user-backend/internal/cache"
	"github.com/blesswinsamuel/sql-user-backend/internal/model"
	"github.com/blesswinsamuel/sql-user-backend/internal/platform"
	"github.com/blesswinsamuel/sql-user-backend/internal/properties"
)

type fakeUserStore struct {
	users        map[string]*model.User
	findUIDCalls int
	updated      map[string]string
}

func newFakeUserStore(users ...*model.User) *fakeUserStore {
	s := &fakeUserStore{
		users:   make(map[string]*model.User),
		updated: make(map[string]string),
	}
	for _, u := range users {
		s.users[u.UID] = u
	}
	return s
}

func (s *fakeUserStore) FindByUID(_ context.Context, uid string) (*model.User, error) {
	s.findUIDCalls++
	if u, ok := s.users[uid]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, nil
}

func (s *fakeUserStore) FindByUsername(_ context.Context, username string, _, emailLogin bool) (*model.User, error) {
	for _, u := range s.users {
		if u.Username.String == username {
			copied := *u
			return &copied, nil
		}
		if emailLogin && u.Email.Valid && u.Email.String == username {
			copied := *u
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *fakeUserStore) FindAll(_ context.Context, _ string, _, _ int) ([]model.User, error) {
	var out []model.User
	for _, u := range s.users {
		out = append(out, *u)
	}
	return out, nil
}

func (s *fakeUserStore) Count(_ context.Context, _ string) (int, error) {
	return len(s.users), nil
}

func (s *fakeUserStore) UpdateDisplayName(_ context.Context, uid, name string) error {
	s.updated["name:"+uid] = name
	return nil
}

func (s *fakeUserStore) UpdateEmail(_ context.Context, uid, email string) error {
	s.updated["email:"+uid] = email
	return nil
}

func (s *fakeUserStore) UpdateQuota(_ context.Context, uid, quota string) error {
	s.updated["quota:"+uid] = quota
	return nil
}

func (s *fakeUserStore) UpdatePassword(_ context.Context, uid, hash string) error {
	s.updated["password:"+uid] = hash
	return nil
}

func ns(s string) sql.NullString { return sql.NullString{String: s, Valid: true} }

func testUser() *model.User {
	return &model.User{
		UID:      "alice",
		Username: ns("alice"),
		Name:     ns("Alice A."),
		Email:    ns("alice@example.com"),
		Active:   true,
		Password: ns("password"),
	}
}

func newUserBackend(
	store UserStore, values map[string]string,
) (*UserBackend, *platform.MemoryUserConfig, cache.Cache) {
	base := map[string]string{properties.OptCryptoClass: "cleartext"}
	for k, v := range values {
		base[k] = v
	}
	c := cache.NewMemory(zerolog.Nop())
	props := properties.Load(platform.NewMemoryConfig(base), cache.Null{}, zerolog.Nop())
	userCfg := platform.NewMemoryUserConfig()
	return NewUserBackend(zerolog.Nop(), c, props, store, userCfg), userCfg, c
}

func TestCheckPassword(t *testing.T) {
	store := newFakeUserStore(testUser())
	b, _, _ := newUserBackend(store, nil)

	uid, err := b.CheckPassword(context.Background(), "alice", "password")
	require.NoError(t, err)
	assert.Equal(t, "alice", uid)

	_, err = b.CheckPassword(context.Background(), "alice", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = b.CheckPassword(context.Background(), "nobody", "password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestCheckPasswordInactiveFailsWithRightPassword(t *testing.T) {
	user := testUser()
	user.Active = false
	b, _, _ := newUserBackend(newFakeUserStore(user), nil)

	_, err := b.CheckPassword(context.Background(), "alice", "password")
	assert.ErrorIs(t, err, ErrAccountInactive)
}

func TestCheckPasswordStripDomain(t *testing.T) {
	b, _, _ := newUserBackend(newFakeUserStore(testUser()), map[string]string{
		properties.OptStripDomain: "1",
	})

	uid, err := b.CheckPassword(context.Background(), "alice@cloud.example.com", "password")
	require.NoError(t, err)
	assert.Equal(t, "alice", uid)
}

func TestCheckPasswordEmailLogin(t *testing.T) {
	store := newFakeUserStore(testUser())

	b, _, _ := newUserBackend(store, nil)
	_, err := b.CheckPassword(context.Background(), "alice@example.com", "password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	b, _, _ = newUserBackend(store, map[string]string{properties.OptEmailLogin: "1"})
	uid, err := b.CheckPassword(context.Background(), "alice@example.com", "password")
	require.NoError(t, err)
	assert.Equal(t, "alice", uid)
}

func TestCheckPasswordSaltPlacement(t *testing.T) {
	user := testUser()
	user.Salt = ns("pepper")
	user.Password = ns("passwordpepper")
	b, _, _ := newUserBackend(newFakeUserStore(user), map[string]string{
		properties.OptAppendSalt: "1",
	})
	uid, err := b.CheckPassword(context.Background(), "alice", "password")
	require.NoError(t, err)
	assert.Equal(t, "alice", uid)

	user.Password = ns("pepperpassword")
	b, _, _ = newUserBackend(newFakeUserStore(user), map[string]string{
		properties.OptPrependSalt: "1",
	})
	uid, err = b.CheckPassword(context.Background(), "alice", "password")
	require.NoError(t, err)
	assert.Equal(t, "alice", uid)
}

func TestCheckPasswordUnknownAlgorithm(t *testing.T) {
	b, _, _ := newUserBackend(newFakeUserStore(testUser()), map[string]string{
		properties.OptCryptoClass: "no-such-scheme",
	})
	_, err := b.CheckPassword(context.Background(), "alice", "password")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidCredentials)
}

func TestUserExistsCachesLookups(t *testing.T) {
	store := newFakeUserStore(testUser())
	b, _, _ := newUserBackend(store, nil)

	for i := 0; i < 3; i++ {
		exists, err := b.UserExists(context.Background(), "alice")
		require.NoError(t, err)
		assert.True(t, exists)
	}
	assert.Equal(t, 1, store.findUIDCalls)

	// Negative results are cached too.
	for i := 0; i < 3; i++ {
		exists, err := b.UserExists(context.Background(), "nobody")
		require.NoError(t, err)
		assert.False(t, exists)
	}
	assert.Equal(t, 2, store.findUIDCalls)
}

func TestGetDisplayNameFallsBackToUID(t *testing.T) {
	user := testUser()
	user.Name = sql.NullString{}
	user.Username = sql.NullString{}
	b, _, _ := newUserBackend(newFakeUserStore(user), nil)

	name, err := b.GetDisplayName(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", name)

	_, err = b.GetDisplayName(context.Background(), "nobody")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestGetHome(t *testing.T) {
	user := testUser()
	user.Home = ns("/srv/data/alice")
	store := newFakeUserStore(user)

	b, _, _ := newUserBackend(store, nil)
	_, err := b.GetHome(context.Background(), "alice")
	assert.ErrorIs(t, err, ErrNotSupported)

	b, _, _ = newUserBackend(store, map[string]string{
		properties.OptHomeMode:     properties.HomeStatic,
		properties.OptHomeLocation: "/mnt/homes/%u/files",
	})
	home, err := b.GetHome(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "/mnt/homes/alice/files", home)

	b, _, _ = newUserBackend(store, map[string]string{
		properties.OptHomeMode: properties.HomeQuery,
	})
	home, err = b.GetHome(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "/srv/data/alice", home)
}

func TestSetPassword(t *testing.T) {
	store := newFakeUserStore(testUser())

	b, _, _ := newUserBackend(store, nil)
	err := b.SetPassword(context.Background(), "alice", "new-password")
	assert.ErrorIs(t, err, ErrNotSupported)

	b, _, c := newUserBackend(store, map[string]string{
		properties.OptPasswordChange: "1",
	})
	c.Set("user_alice", testUser())
	require.NoError(t, b.SetPassword(context.Background(), "alice", "new-password"))
	assert.Equal(t, "new-password", store.updated["password:alice"])

	_, ok := c.Get("user_alice")
	assert.False(t, ok, "cache must be cleared after a password change")

	err = b.SetPassword(context.Background(), "nobody", "new-password")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestSetDisplayName(t *testing.T) {
	store := newFakeUserStore(testUser())

	b, _, _ := newUserBackend(store, nil)
	assert.ErrorIs(t,
		b.SetDisplayName(context.Background(), "alice", "Alicia"), ErrNotSupported)

	b, _, _ = newUserBackend(store, map[string]string{properties.OptNameChange: "1"})
	require.NoError(t, b.SetDisplayName(context.Background(), "alice", "Alicia"))
	assert.Equal(t, "Alicia", store.updated["name:alice"])
}

func TestCanChangeAvatar(t *testing.T) {
	user := testUser()
	user.Avatar = true
	store := newFakeUserStore(user)

	b, _, _ := newUserBackend(store, nil)
	ok, err := b.CanChangeAvatar(context.Background(), "alice")
	require.NoError(t, err)
	assert.False(t, ok, "without a column the global option decides")

	b, _, _ = newUserBackend(store, map[string]string{properties.OptProvideAvatar: "1"})
	ok, err = b.CanChangeAvatar(context.Background(), "alice")
	require.NoError(t, err)
	assert.True(t, ok)

	b, _, _ = newUserBackend(store, map[string]string{
		properties.DBUserAvatarColumn: "avatar",
	})
	ok, err = b.CanChangeAvatar(context.Background(), "alice")
	require.NoError(t, err)
	assert.True(t, ok, "with a column the user record decides")
}

func TestSyncActions(t *testing.T) {
	user := testUser()
	user.Quota = ns("5GB")

	t.Run("initial copies to host once", func(t *testing.T) {
		store := newFakeUserStore(user)
		b, userCfg, _ := newUserBackend(store, map[string]string{
			properties.OptEmailSync:       properties.SyncInitial,
			properties.DBUserEmailColumn:  "mail",
			properties.OptQuotaSync:       properties.SyncInitial,
			properties.DBUserQuotaColumn:  "quota",
		})
		_, err := b.UserExists(context.Background(), "alice")
		require.NoError(t, err)
		assert.Equal(t, "alice@example.com", userCfg.GetUserValue("alice", "settings", "email"))
		assert.Equal(t, "5GB", userCfg.GetUserValue("alice", "files", "quota"))
	})

	t.Run("initial keeps a populated host value", func(t *testing.T) {
		store := newFakeUserStore(user)
		b, userCfg, c := newUserBackend(store, map[string]string{
			properties.OptEmailSync:      properties.SyncInitial,
			properties.DBUserEmailColumn: "mail",
		})
		require.NoError(t, userCfg.SetUserValue("alice", "settings", "email", "kept@example.com"))

		// The action runs on every cache-miss load; a repeat must be a no-op.
		_, err := b.UserExists(context.Background(), "alice")
		require.NoError(t, err)
		c.Clear()
		_, err = b.UserExists(context.Background(), "alice")
		require.NoError(t, err)

		assert.Equal(t, "kept@example.com", userCfg.GetUserValue("alice", "settings", "email"))
		assert.Empty(t, store.updated, "initial mode never writes the column")
	})

	t.Run("force host rewrites the column", func(t *testing.T) {
		store := newFakeUserStore(user)
		b, userCfg, _ := newUserBackend(store, map[string]string{
			properties.OptEmailSync:      properties.SyncForceHost,
			properties.DBUserEmailColumn: "mail",
		})
		require.NoError(t, userCfg.SetUserValue("alice", "settings", "email", "host@example.com"))
		_, err := b.UserExists(context.Background(), "alice")
		require.NoError(t, err)
		assert.Equal(t, "host@example.com", store.updated["email:alice"])
	})

	t.Run("force source rewrites the host value", func(t *testing.T) {
		store := newFakeUserStore(user)
		b, userCfg, _ := newUserBackend(store, map[string]string{
			properties.OptEmailSync:      properties.SyncForceSource,
			properties.DBUserEmailColumn: "mail",
		})
		require.NoError(t, userCfg.SetUserValue("alice", "settings", "email", "stale@example.com"))
		_, err := b.UserExists(context.Background(), "alice")
		require.NoError(t, err)
		assert.Equal(t, "alice@example.com", userCfg.GetUserValue("alice", "settings", "email"))
	})

	t.Run("disabled without a mapped column", func(t *testing.T) {
		store := newFakeUserStore(user)
		b, userCfg, _ := newUserBackend(store, map[string]string{
			properties.OptEmailSync: properties.SyncInitial,
		})
		_, err := b.UserExists(context.Background(), "alice")
		require.NoError(t, err)
		assert.Empty(t, userCfg.GetUserValue("alice", "settings", "email"))
	})
}
