// Package query builds the SQL statements from the configured schema mapping
// and executes them against the user database.
package query

import (
	"fmt"

	"github.com/blesswinsamuel/sql-user-backend/internal/properties"
)

// Query names.
const (
	BelongsToAdmin              = "belongs_to_admin"
	CountGroups                 = "count_groups"
	CountUsers                  = "count_users"
	FindGroup                   = "find_group"
	FindGroupUIDs               = "find_group_uids"
	FindGroupUsers              = "find_group_users"
	FindGroups                  = "find_groups"
	FindUserByUID               = "find_user_by_uid"
	FindUserByUsername          = "find_user_by_username"
	FindUserByUsernameCI        = "find_user_by_username_case_insensitive"
	FindUserByUsernameOrEmail   = "find_user_by_username_or_email"
	FindUserByUsernameOrEmailCI = "find_user_by_username_or_email_case_insensitive"
	FindUserGroups              = "find_user_groups"
	FindUsers                   = "find_users"
	UpdateDisplayName           = "update_display_name"
	UpdateEmail                 = "update_email"
	UpdatePassword              = "update_password"
	UpdateQuota                 = "update_quota"
)

// Named parameters used in the statements.
const (
	EmailParam    = "email"
	GIDParam      = "gid"
	NameParam     = "name"
	PasswordParam = "password"
	QuotaParam    = "quota"
	SearchParam   = "search"
	UIDParam      = "uid"
	UsernameParam = "username"
)

// Provider holds the statements generated from the current schema mapping.
// Optional columns that are not mapped are replaced with literals, so every
// statement selects the full record shape regardless of the schema. The
// provider must be rebuilt after the mapping changes.
type Provider struct {
	queries map[string]string
}

// NewProvider generates the statement set from the schema mapping in props.
func NewProvider(props *properties.Properties) *Provider {
	group := props.StringOr(properties.DBGroupTable, "")
	userGroup := props.StringOr(properties.DBUserGroupTable, "")
	user := props.StringOr(properties.DBUserTable, "")

	gAdmin := props.StringOr(properties.DBGroupAdminColumn, "")
	gGID := props.StringOr(properties.DBGroupGIDColumn, "")
	gName := props.StringOr(properties.DBGroupNameColumn, "")

	uActive := props.StringOr(properties.DBUserActiveColumn, "")
	uAvatar := props.StringOr(properties.DBUserAvatarColumn, "")
	uEmail := props.StringOr(properties.DBUserEmailColumn, "")
	uHome := props.StringOr(properties.DBUserHomeColumn, "")
	uName := props.StringOr(properties.DBUserNameColumn, "")
	uPassword := props.StringOr(properties.DBUserPasswordColumn, "")
	uQuota := props.StringOr(properties.DBUserQuotaColumn, "")
	uSalt := props.StringOr(properties.DBUserSaltColumn, "")
	uUID := props.StringOr(properties.DBUserUIDColumn, "")
	uUsername := props.StringOr(properties.DBUserUsernameColumn, uUID)

	ugGID := props.StringOr(properties.DBUserGroupGIDColumn, "")
	ugUID := props.StringOr(properties.DBUserGroupUIDColumn, "")

	reverseActive := props.Bool(properties.OptReverseActive)

	col := func(name, fallback string) string {
		if name == "" {
			return fallback
		}
		return "g." + name
	}
	ucol := func(name, fallback string) string {
		if name == "" {
			return fallback
		}
		return "u." + name
	}

	active := "true"
	if uActive != "" {
		active = "u." + uActive
		if reverseActive {
			active = "NOT " + active
		}
	}

	groupColumns := fmt.Sprintf(
		"g.%s AS gid, %s AS name, %s AS admin",
		gGID, col(gName, "g."+gGID), col(gAdmin, "false"),
	)
	userColumns := fmt.Sprintf(
		"u.%s AS uid, u.%s AS username, %s AS name, %s AS email, %s AS quota, "+
			"%s AS home, %s AS active, %s AS avatar, %s AS salt",
		uUID, uUsername,
		ucol(uName, "u."+uUID), ucol(uEmail, "null"), ucol(uQuota, "null"),
		ucol(uHome, "null"), active, ucol(uAvatar, "false"), ucol(uSalt, "null"),
	)

	findUser := func(where string) string {
		return fmt.Sprintf(
			"SELECT %s, u.%s AS password FROM %s u WHERE %s",
			userColumns, uPassword, user, where,
		)
	}

	emailMatch := "false"
	emailMatchCI := "false"
	if uEmail != "" {
		emailMatch = fmt.Sprintf("u.%s = :%s", uEmail, UsernameParam)
		emailMatchCI = fmt.Sprintf("lower(u.%s) = lower(:%s)", uEmail, UsernameParam)
	}

	queries := map[string]string{
		BelongsToAdmin: fmt.Sprintf(
			"SELECT COUNT(g.%s) > 0 AS admin FROM %s g, %s ug "+
				"WHERE ug.%s = g.%s AND ug.%s = :%s AND g.%s",
			gGID, group, userGroup, ugGID, gGID, ugUID, UIDParam, gAdmin,
		),

		CountGroups: fmt.Sprintf(
			"SELECT COUNT(ug.%s) FROM %s ug WHERE ug.%s = :%s AND ug.%s LIKE :%s",
			ugGID, userGroup, ugGID, GIDParam, ugUID, SearchParam,
		),

		CountUsers: fmt.Sprintf(
			"SELECT COUNT(u.%s) AS count FROM %s u WHERE u.%s LIKE :%s",
			uUID, user, uUID, SearchParam,
		),

		FindGroup: fmt.Sprintf(
			"SELECT %s FROM %s g WHERE g.%s = :%s",
			groupColumns, group, gGID, GIDParam,
		),

		FindGroupUIDs: fmt.Sprintf(
			"SELECT ug.%s AS uid FROM %s ug WHERE ug.%s = :%s "+
				"AND ug.%s LIKE :%s ORDER BY ug.%s",
			ugUID, userGroup, ugGID, GIDParam, ugUID, SearchParam, ugUID,
		),

		FindGroupUsers: fmt.Sprintf(
			"SELECT u.%s AS uid, %s AS name FROM %s u, %s ug "+
				"WHERE ug.%s = u.%s AND ug.%s = :%s AND ug.%s LIKE :%s "+
				"ORDER BY ug.%s",
			uUID, ucol(uName, "u."+uUID), user, userGroup,
			ugUID, uUID, ugGID, GIDParam, ugUID, SearchParam, ugUID,
		),

		FindGroups: fmt.Sprintf(
			"SELECT %s FROM %s g WHERE g.%s LIKE :%s ORDER BY g.%s",
			groupColumns, group, gGID, SearchParam, gGID,
		),

		FindUserByUID: findUser(fmt.Sprintf("u.%s = :%s", uUID, UIDParam)),

		FindUserByUsername: findUser(
			fmt.Sprintf("u.%s = :%s", uUsername, UsernameParam),
		),

		FindUserByUsernameCI: findUser(
			fmt.Sprintf("lower(u.%s) = lower(:%s)", uUsername, UsernameParam),
		),

		FindUserByUsernameOrEmail: findUser(fmt.Sprintf(
			"(u.%s = :%s OR %s)", uUsername, UsernameParam, emailMatch,
		)),

		FindUserByUsernameOrEmailCI: findUser(fmt.Sprintf(
			"(lower(u.%s) = lower(:%s) OR %s)",
			uUsername, UsernameParam, emailMatchCI,
		)),

		FindUserGroups: fmt.Sprintf(
			"SELECT %s FROM %s g, %s ug WHERE ug.%s = g.%s AND ug.%s = :%s "+
				"ORDER BY g.%s",
			groupColumns, group, userGroup, ugGID, gGID, ugUID, UIDParam, gGID,
		),

		FindUsers: fmt.Sprintf(
			"SELECT %s FROM %s u WHERE u.%s LIKE :%s ORDER BY u.%s",
			userColumns, user, uUID, SearchParam, uUID,
		),

		UpdateDisplayName: fmt.Sprintf(
			"UPDATE %s SET %s = :%s WHERE %s = :%s",
			user, uName, NameParam, uUID, UIDParam,
		),

		UpdateEmail: fmt.Sprintf(
			"UPDATE %s SET %s = :%s WHERE %s = :%s",
			user, uEmail, EmailParam, uUID, UIDParam,
		),

		UpdatePassword: fmt.Sprintf(
			"UPDATE %s SET %s = :%s WHERE %s = :%s",
			user, uPassword, PasswordParam, uUID, UIDParam,
		),

		UpdateQuota: fmt.Sprintf(
			"UPDATE %s SET %s = :%s WHERE %s = :%s",
			user, uQuota, QuotaParam, uUID, UIDParam,
		),
	}

	return &Provider{queries: queries}
}

// Get returns the statement registered under name.
func (p *Provider) Get(name string) (string, bool) {
	q, ok := p.queries[name]
	return q, ok
}
