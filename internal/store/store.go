// Package store persists generated server packages in a SQL database.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver (pgx)
	_ "github.com/lib/pq"              // PostgreSQL driver (lib/pq)
	_ "github.com/mattn/go-sqlite3"    // SQLite driver
	"go.uber.org/zap"

	"github.com/buildmcp/buildmcp/internal/model"
)

// ErrNotFound is returned when no package has the requested ID.
var ErrNotFound = errors.New("package not found")

// Dialect controls placeholder syntax.
type Dialect int

const (
	DialectSQLite Dialect = iota
	DialectPostgres
)

// DialectFor maps a database/sql driver name to its dialect.
func DialectFor(driver string) (Dialect, error) {
	switch driver {
	case "sqlite3":
		return DialectSQLite, nil
	case "pgx", "postgres":
		return DialectPostgres, nil
	default:
		return 0, fmt.Errorf("unsupported store driver %q (want sqlite3, pgx or postgres)", driver)
	}
}

// Summary is the listing view of a stored package.
type Summary struct {
	ID           string    `json:"id"`
	Description  string    `json:"description"`
	Language     string    `json:"language"`
	IsValid      bool      `json:"is_valid"`
	Refined      bool      `json:"refined"`
	UsedFallback bool      `json:"used_fallback"`
	GeneratedAt  time.Time `json:"generated_at"`
}

// Store saves and loads packages.
type Store struct {
	db      *sql.DB
	dialect Dialect
	logger  *zap.Logger
}

// Open connects to the database and applies the schema.
func Open(ctx context.Context, driver, dsn string, logger *zap.Logger) (*Store, error) {
	dialect, err := DialectFor(driver)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", driver, err)
	}
	if driver == "sqlite3" {
		// :memory: databases are per-connection.
		db.SetMaxOpenConns(1)
	}
	s := New(db, dialect, logger)
	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an existing handle. The caller is responsible for Migrate.
func New(db *sql.DB, dialect Dialect, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{db: db, dialect: dialect, logger: logger}
}

const createPackagesTable = `CREATE TABLE IF NOT EXISTS server_packages (
	id TEXT PRIMARY KEY,
	description TEXT NOT NULL,
	language TEXT NOT NULL,
	is_valid BOOLEAN NOT NULL,
	refined BOOLEAN NOT NULL,
	used_fallback BOOLEAN NOT NULL,
	generated_at TIMESTAMP NOT NULL,
	body TEXT NOT NULL
)`

// Migrate creates the schema if it is missing.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, createPackagesTable); err != nil {
		return fmt.Errorf("migrate store: %w", err)
	}
	return nil
}

// Close closes the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// rebind rewrites ? placeholders for the dialect.
func (s *Store) rebind(query string) string {
	if s.dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Save inserts or replaces a package.
func (s *Store) Save(ctx context.Context, pkg *model.ServerPackage) error {
	if pkg == nil || pkg.ID == "" {
		return errors.New("save package: missing id")
	}
	body, err := json.Marshal(pkg)
	if err != nil {
		return fmt.Errorf("encode package %s: %w", pkg.ID, err)
	}

	query := s.rebind(`INSERT INTO server_packages
	(id, description, language, is_valid, refined, used_fallback, generated_at, body)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (id) DO UPDATE SET
	description = excluded.description, language = excluded.language,
	is_valid = excluded.is_valid, refined = excluded.refined,
	used_fallback = excluded.used_fallback, generated_at = excluded.generated_at,
	body = excluded.body`)

	_, err = s.db.ExecContext(ctx, query,
		pkg.ID,
		pkg.Requirements.Description,
		pkg.Artifact.Language.String(),
		pkg.Verdict.IsValid,
		pkg.Refined,
		pkg.UsedFallback,
		pkg.GeneratedAt.UTC(),
		string(body),
	)
	if err != nil {
		return fmt.Errorf("save package %s: %w", pkg.ID, err)
	}
	s.logger.Debug("package saved", zap.String("id", pkg.ID))
	return nil
}

// Get loads a package by ID.
func (s *Store) Get(ctx context.Context, id string) (*model.ServerPackage, error) {
	var body string
	err := s.db.QueryRowContext(ctx, s.rebind(`SELECT body FROM server_packages WHERE id = ?`), id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("load package %s: %w", id, err)
	}

	var pkg model.ServerPackage
	if err := json.Unmarshal([]byte(body), &pkg); err != nil {
		return nil, fmt.Errorf("decode package %s: %w", id, err)
	}
	return &pkg, nil
}

// List returns the most recent packages first. A non-positive limit
// returns every row.
func (s *Store) List(ctx context.Context, limit int) ([]Summary, error) {
	query := `SELECT id, description, language, is_valid, refined, used_fallback, generated_at
	FROM server_packages ORDER BY generated_at DESC, id`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("list packages: %w", err)
	}
	defer func() { _ = rows.Close() }()

	summaries := []Summary{}
	for rows.Next() {
		var sum Summary
		if err := rows.Scan(&sum.ID, &sum.Description, &sum.Language, &sum.IsValid,
			&sum.Refined, &sum.UsedFallback, &sum.GeneratedAt); err != nil {
			return nil, fmt.Errorf("scan package row: %w", err)
		}
		summaries = append(summaries, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list packages: %w", err)
	}
	return summaries, nil
}
