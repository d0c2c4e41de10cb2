package repository

import (
	"context"
	"fmt"

	"github.com/blesswinsamuel/sql-user-backend/internal/model"
	"github.com/blesswinsamuel/sql-user-backend/internal/query"
)

// GroupRepository reads group records and memberships.
type GroupRepository struct {
	data *query.DataAccess
}

func NewGroupRepository(data *query.DataAccess) *GroupRepository {
	return &GroupRepository{data: data}
}

// FindByGID fetches the group with the given GID, nil when there is none.
func (r *GroupRepository) FindByGID(ctx context.Context, gid string) (*model.Group, error) {
	rows, err := r.data.NamedQuery(
		ctx, query.FindGroup, map[string]any{query.GIDParam: gid}, -1, 0,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	var group model.Group
	if err := rows.StructScan(&group); err != nil {
		return nil, fmt.Errorf("FindByGID: %w", err)
	}
	return &group, nil
}

func (r *GroupRepository) scanAll(
	ctx context.Context, name string, params map[string]any, limit, offset int,
) ([]model.Group, error) {
	rows, err := r.data.NamedQuery(ctx, name, params, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var groups []model.Group
	for rows.Next() {
		var group model.Group
		if err := rows.StructScan(&group); err != nil {
			return nil, fmt.Errorf("scanAll: %s: %w", name, err)
		}
		groups = append(groups, group)
	}
	return groups, rows.Err()
}

// FindAllByUID lists the groups a user belongs to, ordered by GID.
func (r *GroupRepository) FindAllByUID(ctx context.Context, uid string) ([]model.Group, error) {
	return r.scanAll(
		ctx, query.FindUserGroups, map[string]any{query.UIDParam: uid}, -1, 0,
	)
}

// FindAll lists groups whose GID matches the LIKE pattern, ordered by GID.
func (r *GroupRepository) FindAll(
	ctx context.Context, search string, limit, offset int,
) ([]model.Group, error) {
	return r.scanAll(
		ctx, query.FindGroups, map[string]any{query.SearchParam: search},
		limit, offset,
	)
}

// FindUIDs lists the UIDs of group members matching the LIKE pattern.
func (r *GroupRepository) FindUIDs(
	ctx context.Context, gid, search string, limit, offset int,
) ([]string, error) {
	return r.data.QueryStrings(
		ctx, query.FindGroupUIDs,
		map[string]any{query.GIDParam: gid, query.SearchParam: search},
		limit, offset,
	)
}

// FindUsers maps member UIDs to their display names.
func (r *GroupRepository) FindUsers(
	ctx context.Context, gid, search string, limit, offset int,
) (map[string]string, error) {
	rows, err := r.data.NamedQuery(
		ctx, query.FindGroupUsers,
		map[string]any{query.GIDParam: gid, query.SearchParam: search},
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make(map[string]string)
	for rows.Next() {
		var row struct {
			UID  string `db:"uid"`
			Name string `db:"name"`
		}
		if err := rows.StructScan(&row); err != nil {
			return nil, fmt.Errorf("FindUsers: %w", err)
		}
		users[row.UID] = row.Name
	}
	return users, rows.Err()
}

// CountUsers returns the number of group members matching the LIKE pattern.
func (r *GroupRepository) CountUsers(ctx context.Context, gid, search string) (int, error) {
	value, found, err := r.data.QueryValue(
		ctx, query.CountGroups,
		map[string]any{query.GIDParam: gid, query.SearchParam: search},
	)
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, nil
	}
	return toInt(value), nil
}

// BelongsToAdmin reports whether the user is in any admin group.
func (r *GroupRepository) BelongsToAdmin(ctx context.Context, uid string) (bool, error) {
	value, found, err := r.data.QueryValue(
		ctx, query.BelongsToAdmin, map[string]any{query.UIDParam: uid},
	)
	if err != nil {
		return false, err
	}
	return found && toBool(value), nil
}

func toBool(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case int64:
		return t != 0
	case []byte:
		return len(t) > 0 && (t[0] == '1' || t[0] == 't' || t[0] == 'T')
	case string:
		return len(t) > 0 && (t[0] == '1' || t[0] == 't' || t[0] == 'T')
	default:
		return false
	}
}
