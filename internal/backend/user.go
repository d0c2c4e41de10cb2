package backend

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/blesswinsamuel/sql-user-backend/internal/cache"
	"github.com/blesswinsamuel/sql-user-backend/internal/crypto"
	"github.com/blesswinsamuel/sql-user-backend/internal/model"
	"github.com/blesswinsamuel/sql-user-backend/internal/platform"
	"github.com/blesswinsamuel/sql-user-backend/internal/properties"
)

// UserBackend answers the host's user operations from the configured SQL
// schema. Lookups go through the cache; a settings change invalidates it.
type UserBackend struct {
	log     zerolog.Logger
	cache   cache.Cache
	props   *properties.Properties
	users   UserStore
	userCfg platform.UserConfigStore
	actions []*syncAction
}

func NewUserBackend(
	log zerolog.Logger, c cache.Cache, props *properties.Properties,
	users UserStore, userCfg platform.UserConfigStore,
) *UserBackend {
	b := &UserBackend{
		log:     log.With().Str("component", "user-backend").Logger(),
		cache:   c,
		props:   props,
		users:   users,
		userCfg: userCfg,
	}
	b.initActions()
	return b
}

// IsConfigured reports whether the minimum settings for serving logins are
// present.
func (b *UserBackend) IsConfigured() bool {
	for _, key := range []string{
		properties.DBDatabase, properties.DBDriver, properties.DBHostname,
		properties.DBUsername, properties.DBUserTable,
		properties.DBUserUIDColumn, properties.DBUserPasswordColumn,
		properties.OptCryptoClass,
	} {
		if b.props.StringOr(key, "") == "" {
			return false
		}
	}
	return true
}

func (b *UserBackend) algorithm() (crypto.Algorithm, error) {
	id := b.props.StringOr(properties.OptCryptoClass, "")
	params := []string{
		b.props.StringOr(properties.OptCryptoParam0, ""),
		b.props.StringOr(properties.OptCryptoParam1, ""),
		b.props.StringOr(properties.OptCryptoParam2, ""),
	}
	return crypto.New(id, params)
}

// addSalt applies the configured salt placement to the cleartext before
// hashing or verification. Schemes with their own salt handling receive the
// salt separately.
func (b *UserBackend) addSalt(user *model.User, password string) string {
	if !user.Salt.Valid {
		return password
	}
	if b.props.Bool(properties.OptAppendSalt) {
		return password + user.Salt.String
	}
	if b.props.Bool(properties.OptPrependSalt) {
		return user.Salt.String + password
	}
	return password
}

func saltPtr(user *model.User) *string {
	if !user.Salt.Valid {
		return nil
	}
	s := user.Salt.String
	return &s
}

// CheckPassword verifies a login attempt and returns the matched UID. An
// inactive account fails even with the right password.
func (b *UserBackend) CheckPassword(ctx context.Context, username, password string) (string, error) {
	b.log.Debug().Str("username", username).Msg("entering CheckPassword")

	algorithm, err := b.algorithm()
	if err != nil {
		return "", fmt.Errorf("CheckPassword: %w", err)
	}

	if b.props.Bool(properties.OptStripDomain) {
		if at := strings.Index(username, "@"); at >= 0 {
			username = username[:at]
		}
	}

	user, err := b.users.FindByUsername(
		ctx, username,
		b.props.Bool(properties.OptCaseInsensitiveUsername),
		b.props.Bool(properties.OptEmailLogin),
	)
	if err != nil {
		return "", fmt.Errorf("CheckPassword: %w", err)
	}
	if user == nil {
		return "", ErrInvalidCredentials
	}

	ok, err := algorithm.Verify(
		b.addSalt(user, password), user.Password.String, saltPtr(user),
	)
	if err != nil {
		return "", fmt.Errorf("CheckPassword: %w", err)
	}

	if !user.Active {
		b.log.Info().Str("uid", user.UID).Msg("login attempt on inactive account")
		return "", ErrAccountInactive
	}
	if !ok {
		b.log.Info().Str("uid", user.UID).Msg("invalid password attempt")
		return "", ErrInvalidCredentials
	}

	b.log.Info().Str("uid", user.UID).Msg("successful password attempt")
	return user.UID, nil
}

// getUser is the cached UID lookup. Sync actions run when the record comes
// from the database, not from the cache.
func (b *UserBackend) getUser(ctx context.Context, uid string) (*model.User, error) {
	cacheKey := "user_" + uid
	if cached, ok := b.cache.Get(cacheKey); ok {
		user, _ := cached.(*model.User)
		return user, nil
	}

	user, err := b.users.FindByUID(ctx, uid)
	if err != nil {
		return nil, err
	}
	b.cache.Set(cacheKey, user)
	if user != nil {
		for _, action := range b.actions {
			action.apply(ctx, user)
		}
	}
	return user, nil
}

// UserExists reports whether the UID resolves to a record.
func (b *UserBackend) UserExists(ctx context.Context, uid string) (bool, error) {
	user, err := b.getUser(ctx, uid)
	if err != nil {
		return false, fmt.Errorf("UserExists: %w", err)
	}
	return user != nil, nil
}

// GetDisplayName returns the user's visible name.
func (b *UserBackend) GetDisplayName(ctx context.Context, uid string) (string, error) {
	user, err := b.getUser(ctx, uid)
	if err != nil {
		return "", fmt.Errorf("GetDisplayName: %w", err)
	}
	if user == nil {
		return "", ErrUserNotFound
	}
	return user.DisplayName(), nil
}

// GetUsers lists UIDs matching the search term, ordered by UID.
func (b *UserBackend) GetUsers(ctx context.Context, search string, limit, offset int) ([]string, error) {
	cacheKey := fmt.Sprintf("users_%s_%d_%d", search, limit, offset)
	if cached, ok := b.cache.Get(cacheKey); ok {
		if uids, ok := cached.([]string); ok {
			return uids, nil
		}
	}

	users, err := b.users.FindAll(ctx, pattern(search), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("GetUsers: %w", err)
	}
	uids := make([]string, 0, len(users))
	for i := range users {
		user := users[i]
		b.cache.Set("user_"+user.UID, &user)
		uids = append(uids, user.UID)
	}
	b.cache.Set(cacheKey, uids)
	return uids, nil
}

// GetDisplayNames maps matching UIDs to their visible names.
func (b *UserBackend) GetDisplayNames(ctx context.Context, search string, limit, offset int) (map[string]string, error) {
	users, err := b.users.FindAll(ctx, pattern(search), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("GetDisplayNames: %w", err)
	}
	names := make(map[string]string, len(users))
	for i := range users {
		names[users[i].UID] = users[i].DisplayName()
	}
	return names, nil
}

// CountUsers returns the total number of users.
func (b *UserBackend) CountUsers(ctx context.Context) (int, error) {
	cacheKey := "users#"
	if cached, ok := b.cache.Get(cacheKey); ok {
		if count, ok := cached.(int); ok {
			return count, nil
		}
	}

	count, err := b.users.Count(ctx, "%")
	if err != nil {
		return 0, fmt.Errorf("CountUsers: %w", err)
	}
	b.cache.Set(cacheKey, count)
	return count, nil
}

// SetPassword hashes and stores a new password. It is refused unless
// password changes are enabled in the settings.
func (b *UserBackend) SetPassword(ctx context.Context, uid, password string) error {
	if !b.props.Bool(properties.OptPasswordChange) {
		return ErrNotSupported
	}
	algorithm, err := b.algorithm()
	if err != nil {
		return fmt.Errorf("SetPassword: %w", err)
	}

	user, err := b.users.FindByUID(ctx, uid)
	if err != nil {
		return fmt.Errorf("SetPassword: %w", err)
	}
	if user == nil {
		return ErrUserNotFound
	}

	hash, err := algorithm.Hash(b.addSalt(user, password), saltPtr(user))
	if err != nil {
		return fmt.Errorf("SetPassword: %w", err)
	}
	if err := b.users.UpdatePassword(ctx, uid, hash); err != nil {
		return fmt.Errorf("SetPassword: %w", err)
	}
	b.cache.Clear()
	b.log.Info().Str("uid", uid).Msg("password has been set")
	return nil
}

// SetDisplayName stores a new display name. It is refused unless name
// changes are enabled in the settings.
func (b *UserBackend) SetDisplayName(ctx context.Context, uid, displayName string) error {
	if !b.props.Bool(properties.OptNameChange) {
		return ErrNotSupported
	}
	user, err := b.users.FindByUID(ctx, uid)
	if err != nil {
		return fmt.Errorf("SetDisplayName: %w", err)
	}
	if user == nil {
		return ErrUserNotFound
	}
	if err := b.users.UpdateDisplayName(ctx, uid, displayName); err != nil {
		return fmt.Errorf("SetDisplayName: %w", err)
	}
	b.cache.Clear()
	b.log.Info().Str("uid", uid).Msg("display name has been set")
	return nil
}

// GetHome resolves the user's home location. In static mode the location
// template expands %u to the UID; in query mode the home column is used.
func (b *UserBackend) GetHome(ctx context.Context, uid string) (string, error) {
	switch b.props.StringOr(properties.OptHomeMode, "") {
	case properties.HomeStatic:
		location := b.props.StringOr(properties.OptHomeLocation, "")
		return strings.ReplaceAll(location, "%u", uid), nil
	case properties.HomeQuery:
		user, err := b.getUser(ctx, uid)
		if err != nil {
			return "", fmt.Errorf("GetHome: %w", err)
		}
		if user == nil {
			return "", ErrUserNotFound
		}
		return user.Home.String, nil
	default:
		return "", ErrNotSupported
	}
}

// CanChangeAvatar reports whether the user may change their avatar. Without
// an avatar column the global setting decides.
func (b *UserBackend) CanChangeAvatar(ctx context.Context, uid string) (bool, error) {
	if b.props.StringOr(properties.DBUserAvatarColumn, "") == "" {
		return b.props.Bool(properties.OptProvideAvatar), nil
	}
	user, err := b.users.FindByUID(ctx, uid)
	if err != nil {
		return false, fmt.Errorf("CanChangeAvatar: %w", err)
	}
	if user == nil {
		return false, ErrUserNotFound
	}
	return user.Avatar, nil
}
