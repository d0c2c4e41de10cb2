package backend

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/blesswinsamuel/sql-user-backend/internal/cache"
	"github.com/blesswinsamuel/sql-user-backend/internal/model"
	"github.com/blesswinsamuel/sql-user-backend/internal/properties"
)

// DefaultGroupGID is the GID of the virtual group holding every user when
// the default-group option is set.
const DefaultGroupGID = "user_sql"

// GroupBackend answers the host's group operations.
type GroupBackend struct {
	log    zerolog.Logger
	cache  cache.Cache
	props  *properties.Properties
	groups GroupStore
}

func NewGroupBackend(
	log zerolog.Logger, c cache.Cache, props *properties.Properties,
	groups GroupStore,
) *GroupBackend {
	return &GroupBackend{
		log:    log.With().Str("component", "group-backend").Logger(),
		cache:  c,
		props:  props,
		groups: groups,
	}
}

func (b *GroupBackend) defaultGroupSet() bool {
	return b.props.StringOr(properties.OptDefaultGroup, "") != ""
}

// substituteGID widens the virtual default group to every membership row.
func (b *GroupBackend) substituteGID(gid string) string {
	if b.defaultGroupSet() && gid == DefaultGroupGID {
		return "%"
	}
	return gid
}

// getGroup is the cached GID lookup. A missing group is cached too.
func (b *GroupBackend) getGroup(ctx context.Context, gid string) (*model.Group, error) {
	cacheKey := "group_" + gid
	if cached, ok := b.cache.Get(cacheKey); ok {
		group, _ := cached.(*model.Group)
		return group, nil
	}

	group, err := b.groups.FindByGID(ctx, gid)
	if err != nil {
		return nil, err
	}
	b.cache.Set(cacheKey, group)
	return group, nil
}

// GroupExists reports whether the GID resolves to a record or the virtual
// default group.
func (b *GroupBackend) GroupExists(ctx context.Context, gid string) (bool, error) {
	if b.defaultGroupSet() && gid == DefaultGroupGID {
		return true, nil
	}
	group, err := b.getGroup(ctx, gid)
	if err != nil {
		return false, fmt.Errorf("GroupExists: %w", err)
	}
	return group != nil, nil
}

// GetGroups lists GIDs matching the search term, ordered by GID.
func (b *GroupBackend) GetGroups(ctx context.Context, search string, limit, offset int) ([]string, error) {
	cacheKey := fmt.Sprintf("groups_%s_%d_%d", search, limit, offset)
	if cached, ok := b.cache.Get(cacheKey); ok {
		if gids, ok := cached.([]string); ok {
			return gids, nil
		}
	}

	groups, err := b.groups.FindAll(ctx, pattern(search), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("GetGroups: %w", err)
	}
	gids := b.cacheAndMap(cacheKey, groups)
	return gids, nil
}

func (b *GroupBackend) cacheAndMap(cacheKey string, groups []model.Group) []string {
	gids := make([]string, 0, len(groups)+1)
	for i := range groups {
		group := groups[i]
		b.cache.Set("group_"+group.GID, &group)
		gids = append(gids, group.GID)
	}
	if b.defaultGroupSet() {
		gids = append(gids, DefaultGroupGID)
	}
	b.cache.Set(cacheKey, gids)
	return gids
}

// GetUserGroups lists the GIDs the user belongs to, including the virtual
// default group when set.
func (b *GroupBackend) GetUserGroups(ctx context.Context, uid string) ([]string, error) {
	cacheKey := "user_groups_" + uid
	if cached, ok := b.cache.Get(cacheKey); ok {
		if gids, ok := cached.([]string); ok {
			return gids, nil
		}
	}

	groups, err := b.groups.FindAllByUID(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("GetUserGroups: %w", err)
	}
	gids := b.cacheAndMap(cacheKey, groups)
	return gids, nil
}

// InGroup reports whether the user belongs to the group.
func (b *GroupBackend) InGroup(ctx context.Context, uid, gid string) (bool, error) {
	cacheKey := fmt.Sprintf("user_group_%s_%s", uid, gid)
	if cached, ok := b.cache.Get(cacheKey); ok {
		if in, ok := cached.(bool); ok {
			return in, nil
		}
	}

	gids, err := b.GetUserGroups(ctx, uid)
	if err != nil {
		return false, fmt.Errorf("InGroup: %w", err)
	}
	in := false
	for _, g := range gids {
		if g == gid {
			in = true
			break
		}
	}
	b.cache.Set(cacheKey, in)
	return in, nil
}

// UsersInGroup lists member UIDs matching the search term.
func (b *GroupBackend) UsersInGroup(ctx context.Context, gid, search string, limit, offset int) ([]string, error) {
	cacheKey := fmt.Sprintf("group_uids_%s_%s_%d_%d", gid, search, limit, offset)
	if cached, ok := b.cache.Get(cacheKey); ok {
		if uids, ok := cached.([]string); ok {
			return uids, nil
		}
	}

	uids, err := b.groups.FindUIDs(ctx, b.substituteGID(gid), pattern(search), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("UsersInGroup: %w", err)
	}
	b.cache.Set(cacheKey, uids)
	return uids, nil
}

// SearchInGroup maps member UIDs to display names.
func (b *GroupBackend) SearchInGroup(ctx context.Context, gid, search string, limit, offset int) (map[string]string, error) {
	cacheKey := fmt.Sprintf("group_users_%s_%s_%d_%d", gid, search, limit, offset)
	if cached, ok := b.cache.Get(cacheKey); ok {
		if names, ok := cached.(map[string]string); ok {
			return names, nil
		}
	}

	names, err := b.groups.FindUsers(ctx, b.substituteGID(gid), pattern(search), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("SearchInGroup: %w", err)
	}
	b.cache.Set(cacheKey, names)
	return names, nil
}

// CountUsersInGroup returns the number of members matching the search term.
func (b *GroupBackend) CountUsersInGroup(ctx context.Context, gid, search string) (int, error) {
	cacheKey := fmt.Sprintf("users#_%s_%s", gid, search)
	if cached, ok := b.cache.Get(cacheKey); ok {
		if count, ok := cached.(int); ok {
			return count, nil
		}
	}

	count, err := b.groups.CountUsers(ctx, b.substituteGID(gid), pattern(search))
	if err != nil {
		return 0, fmt.Errorf("CountUsersInGroup: %w", err)
	}
	b.cache.Set(cacheKey, count)
	return count, nil
}

// IsAdmin reports whether the user is in any admin group. Without an admin
// column this is always false.
func (b *GroupBackend) IsAdmin(ctx context.Context, uid string) (bool, error) {
	if b.props.StringOr(properties.DBGroupAdminColumn, "") == "" || uid == "" {
		return false, nil
	}
	cacheKey := "admin_" + uid
	if cached, ok := b.cache.Get(cacheKey); ok {
		if admin, ok := cached.(bool); ok {
			return admin, nil
		}
	}

	admin, err := b.groups.BelongsToAdmin(ctx, uid)
	if err != nil {
		return false, fmt.Errorf("IsAdmin: %w", err)
	}
	b.cache.Set(cacheKey, admin)
	return admin, nil
}

// GetGroupDetails returns the group's display name.
func (b *GroupBackend) GetGroupDetails(ctx context.Context, gid string) (map[string]string, error) {
	if b.defaultGroupSet() && gid == DefaultGroupGID {
		return map[string]string{
			"displayName": b.props.StringOr(properties.OptDefaultGroup, ""),
		}, nil
	}
	group, err := b.getGroup(ctx, gid)
	if err != nil {
		return nil, fmt.Errorf("GetGroupDetails: %w", err)
	}
	if group == nil {
		return nil, ErrGroupNotFound
	}
	return map[string]string{"displayName": group.Name}, nil
}
