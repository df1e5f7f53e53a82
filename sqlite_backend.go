package trellis

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	// SQLite driver using pure Go implementation
	_ "modernc.org/sqlite"

	"github.com/trellis-data/trellis/internal/frame"
)

// SQLiteStoreConfig configures the SQLite table store.
type SQLiteStoreConfig struct {
	// Path to the SQLite database file
	Path string

	// CacheSize is the SQLite page cache size in KB (default: 2000 = 2MB)
	CacheSize int

	// JournalMode sets the SQLite journal mode (WAL, DELETE, TRUNCATE, etc.)
	JournalMode string

	// Synchronous sets the synchronous flag (OFF, NORMAL, FULL, EXTRA)
	Synchronous string

	// BusyTimeout is the timeout for acquiring locks in milliseconds
	BusyTimeout int

	// MaxConnections is the max number of database connections
	MaxConnections int
}

// DefaultSQLiteStoreConfig returns default configuration.
func DefaultSQLiteStoreConfig() SQLiteStoreConfig {
	return SQLiteStoreConfig{
		Path:           "trellis.db",
		CacheSize:      2000,
		JournalMode:    "WAL",
		Synchronous:    "NORMAL",
		BusyTimeout:    5000,
		MaxConnections: 10,
	}
}

// SQLiteStore reads and writes tables in a SQLite database. Reference
// tables can be loaded as join inputs, and train/valid/test partitions
// can be written back so they are queryable with standard SQLite tools.
type SQLiteStore struct {
	db     *sql.DB
	config SQLiteStoreConfig
	mu     sync.Mutex
	closed bool
}

// OpenSQLiteStore opens (or creates) a SQLite database at config.Path.
func OpenSQLiteStore(config SQLiteStoreConfig) (*SQLiteStore, error) {
	if config.Path == "" {
		config.Path = "trellis.db"
	}
	if config.CacheSize <= 0 {
		config.CacheSize = 2000
	}
	if config.JournalMode == "" {
		config.JournalMode = "WAL"
	}
	if config.Synchronous == "" {
		config.Synchronous = "NORMAL"
	}
	if config.BusyTimeout <= 0 {
		config.BusyTimeout = 5000
	}
	if config.MaxConnections <= 0 {
		config.MaxConnections = 10
	}

	// Build connection string with pragmas
	dsn := fmt.Sprintf("%s?_cache_size=%d&_journal_mode=%s&_synchronous=%s&_busy_timeout=%d",
		config.Path, config.CacheSize, config.JournalMode, config.Synchronous, config.BusyTimeout)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	db.SetMaxOpenConns(config.MaxConnections)
	db.SetMaxIdleConns(config.MaxConnections / 2)

	return &SQLiteStore{db: db, config: config}, nil
}

// Close closes the database. Further calls return ErrClosed.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.closed = true
	return s.db.Close()
}

// declType maps a column kind to the SQLite declared type that is used
// to recover the kind on read.
func declType(k Kind) string {
	switch k {
	case KindInt:
		return "INTEGER"
	case KindFloat:
		return "REAL"
	case KindBool:
		return "BOOLEAN"
	case KindDate:
		return "DATE"
	default:
		return "TEXT"
	}
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// WriteTable creates (replacing any existing table of the same name) a
// SQLite table holding t's rows. Column kinds are taken from the first
// non-null cell of each column; all-null columns are stored as TEXT.
func (s *SQLiteStore) WriteTable(ctx context.Context, t *Table) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	cols := t.Columns()
	if len(cols) == 0 {
		return &SchemaError{Table: t.Name(), Op: "sqlite write"}
	}
	kinds := make([]Kind, len(cols))
	for c := range cols {
		kinds[c] = columnKind(t, c)
	}

	defs := make([]string, len(cols))
	for c, name := range cols {
		defs[c] = quoteIdent(name) + " " + declType(kinds[c])
	}
	params := strings.TrimSuffix(strings.Repeat("?,", len(cols)), ",")

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+quoteIdent(t.Name())); err != nil {
		return fmt.Errorf("failed to drop table %q: %w", t.Name(), err)
	}
	create := fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdent(t.Name()), strings.Join(defs, ", "))
	if _, err := tx.ExecContext(ctx, create); err != nil {
		return fmt.Errorf("failed to create table %q: %w", t.Name(), err)
	}

	stmt, err := tx.PrepareContext(ctx,
		fmt.Sprintf("INSERT INTO %s VALUES (%s)", quoteIdent(t.Name()), params))
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	args := make([]any, len(cols))
	for r := 0; r < t.NumRows(); r++ {
		for c := range cols {
			args[c] = sqlArg(t.At(r, c))
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("failed to insert row %d into %q: %w", r, t.Name(), err)
		}
	}
	return tx.Commit()
}

// WriteResult writes the train and valid partitions of a pipeline run,
// plus an optional held-out test table, as separate SQLite tables.
func (s *SQLiteStore) WriteResult(ctx context.Context, res *Result, test *Table) error {
	if err := s.WriteTable(ctx, res.Train); err != nil {
		return err
	}
	if err := s.WriteTable(ctx, res.Valid); err != nil {
		return err
	}
	if test != nil {
		return s.WriteTable(ctx, test)
	}
	return nil
}

func sqlArg(v Value) any {
	switch v.Kind() {
	case KindNull:
		return nil
	case KindInt:
		return v.Int64()
	case KindFloat:
		return v.Float64()
	case KindBool:
		if v.BoolVal() {
			return int64(1)
		}
		return int64(0)
	case KindDate:
		return v.Time().Format("2006-01-02")
	default:
		return v.Str()
	}
}

// ReadTable loads a SQLite table. Column kinds are recovered from the
// declared types written by WriteTable; tables created by other tools
// fall back on the driver's reported types, with unknown declarations
// read as TEXT.
func (s *SQLiteStore) ReadTable(ctx context.Context, name string) (*Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}

	rows, err := s.db.QueryContext(ctx, "SELECT * FROM "+quoteIdent(name))
	if err != nil {
		return nil, fmt.Errorf("failed to query table %q: %w", name, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns of %q: %w", name, err)
	}
	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("failed to read column types of %q: %w", name, err)
	}
	kinds := make([]Kind, len(cols))
	for c, ct := range types {
		switch strings.ToUpper(ct.DatabaseTypeName()) {
		case "INTEGER", "INT", "BIGINT":
			kinds[c] = KindInt
		case "REAL", "FLOAT", "DOUBLE", "NUMERIC":
			kinds[c] = KindFloat
		case "BOOLEAN":
			kinds[c] = KindBool
		case "DATE":
			kinds[c] = KindDate
		default:
			kinds[c] = KindString
		}
	}

	t := NewTable(name, cols...)
	scan := make([]any, len(cols))
	for c := range scan {
		scan[c] = new(sql.NullString)
	}
	for rows.Next() {
		if err := rows.Scan(scan...); err != nil {
			return nil, fmt.Errorf("failed to scan row of %q: %w", name, err)
		}
		vals := make([]Value, len(cols))
		for c := range cols {
			ns := scan[c].(*sql.NullString)
			if !ns.Valid {
				vals[c] = Null()
				continue
			}
			v, err := sqlValue(kinds[c], ns.String)
			if err != nil {
				return nil, &SchemaError{Table: name, Column: cols[c], Op: "sqlite read"}
			}
			vals[c] = v
		}
		if err := t.Append(vals...); err != nil {
			return nil, err
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate table %q: %w", name, err)
	}
	return t, nil
}

func sqlValue(k Kind, s string) (Value, error) {
	switch k {
	case KindInt:
		var n int64
		if _, err := fmt.Sscanf(s, "%d", &n); err != nil {
			return Value{}, err
		}
		return Int(n), nil
	case KindFloat:
		var f float64
		if _, err := fmt.Sscanf(s, "%g", &f); err != nil {
			return Value{}, err
		}
		return Float(f), nil
	case KindBool:
		return Bool(s != "0" && s != ""), nil
	case KindDate:
		ts, err := time.Parse("2006-01-02", s)
		if err != nil {
			return Value{}, fmt.Errorf("invalid date %q: %w", s, err)
		}
		return frame.Date(ts), nil
	default:
		return Str(s), nil
	}
}

// Tables lists the user tables in the database, sorted by name.
func (s *SQLiteStore) Tables(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		names = append(names, n)
	}
	return names, rows.Err()
}
