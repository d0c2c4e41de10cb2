package query

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net"
	"os"
	"strings"
	"sync"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog"

	"github.com/blesswinsamuel/sql-user-backend/internal/platform"
	"github.com/blesswinsamuel/sql-user-backend/internal/properties"
)

var (
	// ErrNotConfigured means the connection properties are incomplete.
	ErrNotConfigured = fmt.Errorf("query: database connection not configured")
	// ErrUnknownQuery means a statement name is not registered.
	ErrUnknownQuery = fmt.Errorf("query: unknown query")
)

const mysqlTLSKey = "sql-user-backend"

// DataAccess executes the provider's statements over a lazily opened
// connection. A failed statement is reported as an error; an empty result is
// not an error, callers see it through the found flag or an empty slice.
type DataAccess struct {
	props    *properties.Properties
	provider *Provider
	log      zerolog.Logger
	sys      platform.SystemStore

	mu sync.Mutex
	db *sqlx.DB
}

func NewDataAccess(props *properties.Properties, provider *Provider, log zerolog.Logger) *DataAccess {
	return &DataAccess{
		props:    props,
		provider: provider,
		log:      log.With().Str("component", "dataquery").Logger(),
	}
}

// DB returns the open connection, dialing it on first use.
func (d *DataAccess) DB(ctx context.Context) (*sqlx.DB, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.db != nil {
		return d.db, nil
	}

	driver, dsn, err := d.dsn()
	if err != nil {
		return nil, err
	}
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("DB: unable to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("DB: unable to ping database: %w", err)
	}
	d.log.Debug().Str("driver", driver).Msg("database connection established")
	d.db = db
	return db, nil
}

// UseSystemStore attaches a system-wide value store consulted for sensitive
// connection parameters absent from the settings.
func (d *DataAccess) UseSystemStore(sys platform.SystemStore) {
	d.sys = sys
}

// SetProvider swaps the generated statements after a settings change.
func (d *DataAccess) SetProvider(provider *Provider) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.provider = provider
}

// Close drops the open connection. The next statement dials again with the
// current properties.
func (d *DataAccess) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.db == nil {
		return nil
	}
	err := d.db.Close()
	d.db = nil
	return err
}

// ConnParams are the raw connection settings, either the saved properties
// or candidate values posted from the admin form.
type ConnParams struct {
	Driver   string
	Hostname string
	Database string
	Username string
	Password string
	SSLCA    string
	SSLCert  string
	SSLKey   string
}

// ConnParamsFromProperties reads the saved connection settings.
func ConnParamsFromProperties(props *properties.Properties) ConnParams {
	return ConnParams{
		Driver:   props.StringOr(properties.DBDriver, ""),
		Hostname: props.StringOr(properties.DBHostname, "localhost"),
		Database: props.StringOr(properties.DBDatabase, ""),
		Username: props.StringOr(properties.DBUsername, ""),
		Password: props.StringOr(properties.DBPassword, ""),
		SSLCA:    props.StringOr(properties.DBSSLCA, ""),
		SSLCert:  props.StringOr(properties.DBSSLCert, ""),
		SSLKey:   props.StringOr(properties.DBSSLKey, ""),
	}
}

// dsn translates the connection properties into a driver name and DSN.
func (d *DataAccess) dsn() (string, string, error) {
	cp := ConnParamsFromProperties(d.props)
	if d.sys != nil {
		if cp.Username == "" {
			if v, ok := d.sys.GetSystemValue(properties.DBUsername); ok {
				cp.Username = v
			}
		}
		if cp.Password == "" {
			if v, ok := d.sys.GetSystemValue(properties.DBPassword); ok {
				cp.Password = v
			}
		}
	}
	return BuildDSN(cp)
}

// BuildDSN translates connection settings into a driver name and DSN.
func BuildDSN(cp ConnParams) (string, string, error) {
	if cp.Database == "" {
		return "", "", ErrNotConfigured
	}
	if cp.Hostname == "" {
		cp.Hostname = "localhost"
	}

	switch cp.Driver {
	case "mysql":
		cfg := mysql.NewConfig()
		cfg.Net = "tcp"
		cfg.Addr = cp.Hostname
		cfg.DBName = cp.Database
		cfg.User = cp.Username
		cfg.Passwd = cp.Password
		if cp.SSLCA != "" {
			if err := registerMySQLTLS(cp.SSLCA, cp.SSLCert, cp.SSLKey); err != nil {
				return "", "", err
			}
			cfg.TLSConfig = mysqlTLSKey
		}
		return "mysql", cfg.FormatDSN(), nil

	case "pgsql", "postgres":
		host, port := cp.Hostname, ""
		if h, p, err := net.SplitHostPort(cp.Hostname); err == nil {
			host, port = h, p
		}
		parts := []string{
			"host=" + host,
			"dbname=" + cp.Database,
		}
		if port != "" {
			parts = append(parts, "port="+port)
		}
		if cp.Username != "" {
			parts = append(parts, "user="+cp.Username)
		}
		if cp.Password != "" {
			parts = append(parts, "password="+cp.Password)
		}
		if cp.SSLCA != "" {
			parts = append(parts, "sslmode=verify-ca", "sslrootcert="+cp.SSLCA)
			if cp.SSLCert != "" {
				parts = append(parts, "sslcert="+cp.SSLCert)
			}
			if cp.SSLKey != "" {
				parts = append(parts, "sslkey="+cp.SSLKey)
			}
		} else {
			parts = append(parts, "sslmode=disable")
		}
		return "postgres", strings.Join(parts, " "), nil

	default:
		return "", "", fmt.Errorf("%w: unsupported driver %q", ErrNotConfigured, cp.Driver)
	}
}

// Verify dials the database described by cp and closes it again.
func Verify(ctx context.Context, cp ConnParams) error {
	driver, dsn, err := BuildDSN(cp)
	if err != nil {
		return err
	}
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return fmt.Errorf("Verify: %w", err)
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("Verify: %w", err)
	}
	return nil
}

// registerMySQLTLS loads the CA and optional client pair under the driver's
// named TLS config.
func registerMySQLTLS(caFile, certFile, keyFile string) error {
	pem, err := os.ReadFile(caFile)
	if err != nil {
		return fmt.Errorf("dsn: unable to read CA file: %w", err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return fmt.Errorf("dsn: no certificates found in %s", caFile)
	}
	tlsConfig := &tls.Config{RootCAs: pool}
	if certFile != "" && keyFile != "" {
		pair, err := tls.LoadX509KeyPair(certFile, keyFile)
		if err != nil {
			return fmt.Errorf("dsn: unable to load client pair: %w", err)
		}
		tlsConfig.Certificates = []tls.Certificate{pair}
	}
	return mysql.RegisterTLSConfig(mysqlTLSKey, tlsConfig)
}

// statement resolves name and appends the optional limit and offset. A
// negative limit means no limit.
func (d *DataAccess) statement(name string, limit, offset int) (string, error) {
	d.mu.Lock()
	provider := d.provider
	d.mu.Unlock()
	q, ok := provider.Get(name)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownQuery, name)
	}
	if limit >= 0 {
		q = fmt.Sprintf("%s LIMIT %d", q, limit)
	}
	if offset > 0 {
		q = fmt.Sprintf("%s OFFSET %d", q, offset)
	}
	return q, nil
}

// NamedQuery runs a registered select statement. The caller owns the rows.
func (d *DataAccess) NamedQuery(
	ctx context.Context, name string, params map[string]any, limit, offset int,
) (*sqlx.Rows, error) {
	db, err := d.DB(ctx)
	if err != nil {
		return nil, err
	}
	q, err := d.statement(name, limit, offset)
	if err != nil {
		return nil, err
	}
	d.log.Debug().Str("query", q).Interface("params", params).Msg("executing query")
	rows, err := db.NamedQueryContext(ctx, q, params)
	if err != nil {
		return nil, fmt.Errorf("NamedQuery: %s: %w", name, err)
	}
	return rows, nil
}

// QueryValue fetches the first column of the first row. found is false when
// the statement returns no rows.
func (d *DataAccess) QueryValue(
	ctx context.Context, name string, params map[string]any,
) (value any, found bool, err error) {
	rows, err := d.NamedQuery(ctx, name, params, -1, 0)
	if err != nil {
		return nil, false, err
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, false, rows.Err()
	}
	cols, err := rows.SliceScan()
	if err != nil {
		return nil, false, fmt.Errorf("QueryValue: %s: %w", name, err)
	}
	if len(cols) == 0 {
		return nil, false, nil
	}
	return cols[0], true, nil
}

// QueryStrings fetches the first column of every row as strings.
func (d *DataAccess) QueryStrings(
	ctx context.Context, name string, params map[string]any, limit, offset int,
) ([]string, error) {
	rows, err := d.NamedQuery(ctx, name, params, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		cols, err := rows.SliceScan()
		if err != nil {
			return nil, fmt.Errorf("QueryStrings: %s: %w", name, err)
		}
		if len(cols) > 0 {
			out = append(out, toString(cols[0]))
		}
	}
	return out, rows.Err()
}

// Update runs a registered update statement.
func (d *DataAccess) Update(ctx context.Context, name string, params map[string]any) error {
	db, err := d.DB(ctx)
	if err != nil {
		return err
	}
	q, err := d.statement(name, -1, 0)
	if err != nil {
		return err
	}
	d.log.Debug().Str("query", q).Msg("executing update")
	if _, err := db.NamedExecContext(ctx, q, params); err != nil {
		return fmt.Errorf("Update: %s: %w", name, err)
	}
	return nil
}

// toString renders a scanned column value. Drivers return strings either as
// string or []byte.
func toString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []byte:
		return string(t)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", t)
	}
}
