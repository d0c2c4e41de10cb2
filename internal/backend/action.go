package backend

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/blesswinsamuel/sql-user-backend/internal/model"
	"github.com/blesswinsamuel/sql-user-backend/internal/platform"
	"github.com/blesswinsamuel/sql-user-backend/internal/properties"
)

// syncAction reconciles one user attribute between the database column and
// the host's per-user preference. The mode decides the direction:
//
//	initial    copy the column to the host once, while the host has no value
//	force_nc   the host value wins, the column is rewritten to match
//	force_sql  the column wins, the host value is rewritten to match
type syncAction struct {
	name    string
	mode    string
	hostApp string
	hostKey string
	value   func(*model.User) string
	update  func(context.Context, string, string) error
	userCfg platform.UserConfigStore
	log     zerolog.Logger
}

func (a *syncAction) apply(ctx context.Context, user *model.User) {
	hostValue := a.userCfg.GetUserValue(user.UID, a.hostApp, a.hostKey)
	sourceValue := a.value(user)

	var err error
	switch a.mode {
	case properties.SyncInitial:
		if hostValue == "" && sourceValue != "" {
			err = a.userCfg.SetUserValue(user.UID, a.hostApp, a.hostKey, sourceValue)
		}
	case properties.SyncForceHost:
		if hostValue != "" && sourceValue != hostValue {
			err = a.update(ctx, user.UID, hostValue)
		}
	case properties.SyncForceSource:
		if sourceValue != "" && sourceValue != hostValue {
			err = a.userCfg.SetUserValue(user.UID, a.hostApp, a.hostKey, sourceValue)
		}
	}
	if err != nil {
		a.log.Error().Err(err).
			Str("action", a.name).Str("uid", user.UID).
			Msg("attribute sync failed")
		return
	}
	a.log.Debug().
		Str("action", a.name).Str("uid", user.UID).Str("mode", a.mode).
		Msg("attribute sync applied")
}

// initActions builds the sync actions enabled by the settings. An action
// needs both its sync mode and its source column configured.
func (b *UserBackend) initActions() {
	add := func(name, mode, hostApp, hostKey string,
		value func(*model.User) string,
		update func(context.Context, string, string) error,
		column string,
	) {
		if mode == "" || column == "" {
			return
		}
		b.actions = append(b.actions, &syncAction{
			name: name, mode: mode, hostApp: hostApp, hostKey: hostKey,
			value: value, update: update,
			userCfg: b.userCfg, log: b.log,
		})
	}

	add("email-sync",
		b.props.StringOr(properties.OptEmailSync, ""),
		"settings", "email",
		func(u *model.User) string { return u.Email.String },
		b.users.UpdateEmail,
		b.props.StringOr(properties.DBUserEmailColumn, ""))

	add("quota-sync",
		b.props.StringOr(properties.OptQuotaSync, ""),
		"files", "quota",
		func(u *model.User) string { return u.Quota.String },
		b.users.UpdateQuota,
		b.props.StringOr(properties.DBUserQuotaColumn, ""))

	add("name-sync",
		b.props.StringOr(properties.OptNameSync, ""),
		"settings", "displayName",
		func(u *model.User) string { return u.Name.String },
		b.users.UpdateDisplayName,
		b.props.StringOr(properties.DBUserNameColumn, ""))
}
