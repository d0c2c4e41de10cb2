// Package model defines the records the SQL queries map onto.
package model

import "database/sql"

// User is one row of the configured user table. Column names are remapped in
// the generated SQL, so the struct tags stay fixed regardless of the schema.
type User struct {
	UID      string         `db:"uid"`
	Username sql.NullString `db:"username"`
	Name     sql.NullString `db:"name"`
	Email    sql.NullString `db:"email"`
	Quota    sql.NullString `db:"quota"`
	Home     sql.NullString `db:"home"`
	Active   bool           `db:"active"`
	Avatar   bool           `db:"avatar"`
	Salt     sql.NullString `db:"salt"`
	Password sql.NullString `db:"password"`
}

// DisplayName resolves the visible name, falling back to the login name and
// finally the UID when earlier columns are unset or empty.
func (u *User) DisplayName() string {
	if u.Name.Valid && u.Name.String != "" {
		return u.Name.String
	}
	if u.Username.Valid && u.Username.String != "" {
		return u.Username.String
	}
	return u.UID
}

// Group is one row of the configured group table.
type Group struct {
	GID   string `db:"gid"`
	Name  string `db:"name"`
	Admin bool   `db:"admin"`
}
