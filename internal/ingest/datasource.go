package ingest

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"aura-backend/internal/state"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
	_ "github.com/lib/pq"              // PostgreSQL driver
	_ "modernc.org/sqlite"             // SQLite driver
)

// DefaultTableLimit caps the rows read from a table when the caller gives no limit
const DefaultTableLimit = 10000

// DataSourceConfig holds connection details
type DataSourceConfig struct {
	Driver string // "postgres", "mysql", "sqlite"
	DSN    string
}

// DataSource defines the interface for database-backed datasets
type DataSource interface {
	Connect(ctx context.Context, config DataSourceConfig) error
	Close() error
	ListTables(ctx context.Context) ([]string, error)
	ReadTable(ctx context.Context, tableName string, limit int) (*state.DataFrame, error)
}

type dialect struct {
	driverName  string
	tablesQuery string
	quote       func(string) string
}

var dialects = map[string]dialect{
	"postgres": {
		driverName: "postgres",
		tablesQuery: `
			SELECT table_name
			FROM information_schema.tables
			WHERE table_schema = 'public'
			ORDER BY table_name`,
		quote: doubleQuote,
	},
	"mysql": {
		driverName: "mysql",
		tablesQuery: `
			SELECT table_name
			FROM information_schema.tables
			WHERE table_schema = DATABASE()
			ORDER BY table_name`,
		quote: func(s string) string { return "`" + strings.ReplaceAll(s, "`", "``") + "`" },
	},
	"sqlite": {
		driverName: "sqlite",
		tablesQuery: `
			SELECT name
			FROM sqlite_master
			WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
			ORDER BY name`,
		quote: doubleQuote,
	},
}

func doubleQuote(s string) string { return `"` + strings.ReplaceAll(s, `"`, `""`) + `"` }

// SQLDataSource implements DataSource over database/sql for every supported dialect
type SQLDataSource struct {
	db      *sql.DB
	dialect dialect
}

var _ DataSource = &SQLDataSource{}

// Connect opens and pings the database
func (s *SQLDataSource) Connect(ctx context.Context, config DataSourceConfig) error {
	d, ok := dialects[strings.ToLower(config.Driver)]
	if !ok {
		return fmt.Errorf("%w: driver %q (want postgres, mysql or sqlite)", ErrUnsupportedFormat, config.Driver)
	}
	if config.DSN == "" {
		return fmt.Errorf("dsn must not be empty")
	}

	dsn := config.DSN
	if d.driverName == "sqlite" {
		var err error
		if dsn, err = sqliteReadOnly(dsn); err != nil {
			return err
		}
	}

	db, err := sql.Open(d.driverName, dsn)
	if err != nil {
		return fmt.Errorf("open %s: %w", config.Driver, err)
	}
	if d.driverName == "sqlite" {
		// Limit SQLite to a single open connection to avoid "database is locked" errors
		db.SetMaxOpenConns(1)
	}
	db.SetConnMaxIdleTime(time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("ping %s: %w", config.Driver, err)
	}

	s.db = db
	s.dialect = d
	return nil
}

// sqliteReadOnly turns a database file path into a read-only URI.
// The file must already exist; sqlite would otherwise create it.
func sqliteReadOnly(path string) (string, error) {
	path = strings.TrimPrefix(path, "file:")
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(abs)
	if err != nil || !info.Mode().IsRegular() {
		return "", fmt.Errorf("%w: %s", ErrDatabaseNotFound, path)
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(abs), RawQuery: "mode=ro"}
	return u.String(), nil
}

// Close releases the connection pool
func (s *SQLDataSource) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// ListTables returns the user tables visible to the connection
func (s *SQLDataSource) ListTables(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, s.dialect.tablesQuery)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var tableName string
		if err := rows.Scan(&tableName); err != nil {
			return nil, err
		}
		tables = append(tables, tableName)
	}
	return tables, rows.Err()
}

// ReadTable loads up to limit rows of a listed table into a raw DataFrame.
// The table name is checked against ListTables before it reaches the query.
func (s *SQLDataSource) ReadTable(ctx context.Context, tableName string, limit int) (*state.DataFrame, error) {
	tables, err := s.ListTables(ctx)
	if err != nil {
		return nil, err
	}
	found := false
	for _, t := range tables {
		if t == tableName {
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTable, tableName)
	}
	if limit <= 0 {
		limit = DefaultTableLimit
	}

	query := fmt.Sprintf("SELECT * FROM %s LIMIT %d", s.dialect.quote(tableName), limit)
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("read table %s: %w", tableName, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	df := &state.DataFrame{Headers: columns, Rows: []state.Row{}, Source: tableName}
	for rows.Next() {
		values := make([]any, len(columns))
		valuePtrs := make([]any, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}
		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, err
		}

		row := make(state.Row, len(columns))
		for i, col := range columns {
			row[col] = cellValue(values[i])
		}
		df.Rows = append(df.Rows, row)
	}
	return df, rows.Err()
}

// cellValue maps driver values onto the DataFrame cell types
func cellValue(v any) any {
	switch t := v.(type) {
	case []byte:
		return string(t)
	case int64:
		return float64(t)
	case int32:
		return float64(t)
	case float32:
		return float64(t)
	default:
		return v
	}
}

// ReadDatabase connects, reads one table and closes the source
func ReadDatabase(ctx context.Context, config DataSourceConfig, table string, limit int) (*state.DataFrame, error) {
	if table == "" {
		return nil, fail(config.Driver, fmt.Errorf("table must not be empty"))
	}
	ds := &SQLDataSource{}
	if err := ds.Connect(ctx, config); err != nil {
		return nil, fail(config.Driver, err)
	}
	defer ds.Close()

	df, err := ds.ReadTable(ctx, table, limit)
	if err != nil {
		return nil, fail(table, err)
	}
	df.Source = config.Driver + ":" + table
	return df, nil
}
