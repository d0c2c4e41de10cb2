package query

import (
	"context"
	"fmt"

	"github.com/blesswinsamuel/sql-user-backend/internal/properties"
)

// VerifyConnection dials the database with the current properties and
// reports whether it answers.
func (d *DataAccess) VerifyConnection(ctx context.Context) error {
	db, err := d.DB(ctx)
	if err != nil {
		return err
	}
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("VerifyConnection: %w", err)
	}
	return nil
}

// Tables lists the table names of the configured database.
func (d *DataAccess) Tables(ctx context.Context) ([]string, error) {
	db, err := d.DB(ctx)
	if err != nil {
		return nil, err
	}

	var q string
	var args []any
	switch d.props.StringOr(properties.DBDriver, "") {
	case "mysql":
		q = "SELECT table_name FROM information_schema.tables " +
			"WHERE table_schema = DATABASE() ORDER BY table_name"
	default:
		q = "SELECT table_name FROM information_schema.tables " +
			"WHERE table_schema = current_schema() ORDER BY table_name"
	}

	var tables []string
	if err := db.SelectContext(ctx, &tables, q, args...); err != nil {
		return nil, fmt.Errorf("Tables: %w", err)
	}
	return tables, nil
}

// Columns lists the column names of a table.
func (d *DataAccess) Columns(ctx context.Context, table string) ([]string, error) {
	db, err := d.DB(ctx)
	if err != nil {
		return nil, err
	}

	var q string
	switch d.props.StringOr(properties.DBDriver, "") {
	case "mysql":
		q = "SELECT column_name FROM information_schema.columns " +
			"WHERE table_schema = DATABASE() AND table_name = ? " +
			"ORDER BY column_name"
	default:
		q = "SELECT column_name FROM information_schema.columns " +
			"WHERE table_schema = current_schema() AND table_name = $1 " +
			"ORDER BY column_name"
	}

	var columns []string
	if err := db.SelectContext(ctx, &columns, q, table); err != nil {
		return nil, fmt.Errorf("Columns: %w", err)
	}
	return columns, nil
}
