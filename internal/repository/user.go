// Package repository maps the generated SQL statements onto the model types.
// A missing record is returned as nil without an error; errors mean the
// statement itself failed.
package repository

import (
	"context"
	"fmt"

	"github.com/blesswinsamuel/sql-user-backend/internal/model"
	"github.com/blesswinsamuel/sql-user-backend/internal/query"
)

// UserRepository reads and updates user records.
type UserRepository struct {
	data *query.DataAccess
}

func NewUserRepository(data *query.DataAccess) *UserRepository {
	return &UserRepository{data: data}
}

func (r *UserRepository) findOne(
	ctx context.Context, name string, params map[string]any,
) (*model.User, error) {
	rows, err := r.data.NamedQuery(ctx, name, params, -1, 0)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	var user model.User
	if err := rows.StructScan(&user); err != nil {
		return nil, fmt.Errorf("findOne: %s: %w", name, err)
	}
	return &user, nil
}

// FindByUID fetches the user with the given UID, nil when there is none.
func (r *UserRepository) FindByUID(ctx context.Context, uid string) (*model.User, error) {
	return r.findOne(ctx, query.FindUserByUID, map[string]any{query.UIDParam: uid})
}

// FindByUsername fetches the user whose login name matches. With emailLogin
// the email column matches too, with caseInsensitive the comparison folds
// case on both sides.
func (r *UserRepository) FindByUsername(
	ctx context.Context, username string, caseInsensitive, emailLogin bool,
) (*model.User, error) {
	name := query.FindUserByUsername
	switch {
	case caseInsensitive && emailLogin:
		name = query.FindUserByUsernameOrEmailCI
	case caseInsensitive:
		name = query.FindUserByUsernameCI
	case emailLogin:
		name = query.FindUserByUsernameOrEmail
	}
	return r.findOne(ctx, name, map[string]any{query.UsernameParam: username})
}

// FindAll lists users whose UID matches the LIKE pattern, ordered by UID.
func (r *UserRepository) FindAll(
	ctx context.Context, search string, limit, offset int,
) ([]model.User, error) {
	rows, err := r.data.NamedQuery(
		ctx, query.FindUsers, map[string]any{query.SearchParam: search},
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		var user model.User
		if err := rows.StructScan(&user); err != nil {
			return nil, fmt.Errorf("FindAll: %w", err)
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// Count returns the number of users whose UID matches the LIKE pattern.
func (r *UserRepository) Count(ctx context.Context, search string) (int, error) {
	value, found, err := r.data.QueryValue(
		ctx, query.CountUsers, map[string]any{query.SearchParam: search},
	)
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, nil
	}
	return toInt(value), nil
}

// UpdateDisplayName writes the display name column.
func (r *UserRepository) UpdateDisplayName(ctx context.Context, uid, name string) error {
	return r.data.Update(ctx, query.UpdateDisplayName, map[string]any{
		query.UIDParam: uid, query.NameParam: name,
	})
}

// UpdateEmail writes the email column.
func (r *UserRepository) UpdateEmail(ctx context.Context, uid, email string) error {
	return r.data.Update(ctx, query.UpdateEmail, map[string]any{
		query.UIDParam: uid, query.EmailParam: email,
	})
}

// UpdateQuota writes the quota column.
func (r *UserRepository) UpdateQuota(ctx context.Context, uid, quota string) error {
	return r.data.Update(ctx, query.UpdateQuota, map[string]any{
		query.UIDParam: uid, query.QuotaParam: quota,
	})
}

// UpdatePassword writes a new password hash.
func (r *UserRepository) UpdatePassword(ctx context.Context, uid, hash string) error {
	return r.data.Update(ctx, query.UpdatePassword, map[string]any{
		query.UIDParam: uid, query.PasswordParam: hash,
	})
}

func toInt(v any) int {
	switch t := v.(type) {
	case int64:
		return int(t)
	case int32:
		return int(t)
	case int:
		return t
	case []byte:
		n := 0
		for _, c := range t {
			if c < '0' || c > '9' {
				break
			}
			n = n*10 + int(c-'0')
		}
		return n
	default:
		return 0
	}
}
