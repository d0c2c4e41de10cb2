// Package backend implements the identity operations the host calls into:
// credential checks, user and group lookups, and the optional write
// operations the settings enable.
package backend

import (
	"context"
	"fmt"

	"github.com/blesswinsamuel/sql-user-backend/internal/model"
)

var (
	// ErrInvalidCredentials covers a wrong password and an unknown login
	// name alike, so callers cannot probe which one it was.
	ErrInvalidCredentials = fmt.Errorf("backend: invalid credentials")
	// ErrAccountInactive means the password was not even checked against an
	// inactive account's policy: the login fails regardless.
	ErrAccountInactive = fmt.Errorf("backend: account is inactive")
	// ErrUserNotFound is returned by lookups of unknown UIDs.
	ErrUserNotFound = fmt.Errorf("backend: user not found")
	// ErrGroupNotFound is returned by lookups of unknown GIDs.
	ErrGroupNotFound = fmt.Errorf("backend: group not found")
	// ErrNotSupported means the operation is disabled in the settings.
	ErrNotSupported = fmt.Errorf("backend: operation not supported")
)

// UserStore is the repository surface the user backend needs.
type UserStore interface {
	FindByUID(ctx context.Context, uid string) (*model.User, error)
	FindByUsername(ctx context.Context, username string, caseInsensitive, emailLogin bool) (*model.User, error)
	FindAll(ctx context.Context, search string, limit, offset int) ([]model.User, error)
	Count(ctx context.Context, search string) (int, error)
	UpdateDisplayName(ctx context.Context, uid, name string) error
	UpdateEmail(ctx context.Context, uid, email string) error
	UpdateQuota(ctx context.Context, uid, quota string) error
	UpdatePassword(ctx context.Context, uid, hash string) error
}

// GroupStore is the repository surface the group backend needs.
type GroupStore interface {
	FindByGID(ctx context.Context, gid string) (*model.Group, error)
	FindAllByUID(ctx context.Context, uid string) ([]model.Group, error)
	FindAll(ctx context.Context, search string, limit, offset int) ([]model.Group, error)
	FindUIDs(ctx context.Context, gid, search string, limit, offset int) ([]string, error)
	FindUsers(ctx context.Context, gid, search string, limit, offset int) (map[string]string, error)
	CountUsers(ctx context.Context, gid, search string) (int, error)
	BelongsToAdmin(ctx context.Context, uid string) (bool, error)
}

// pattern wraps a search term for the LIKE comparisons.
func pattern(search string) string { return "%" + search + "%" }
