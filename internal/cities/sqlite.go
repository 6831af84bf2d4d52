package cities

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"trainmapper.org/internal/logging"
)

//go:embed schema.sql
var ddl string

// SQLiteRegistry keeps the registry in a SQLite database.
type SQLiteRegistry struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewSQLiteRegistry(ctx context.Context, dsn string, logger *slog.Logger) (*SQLiteRegistry, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("error opening sqlite registry: %w", err)
	}
	if dsn == ":memory:" {
		// Every new connection would see its own empty in-memory database.
		db.SetMaxOpenConns(1)
	}

	if err := performDatabaseMigration(ctx, db); err != nil {
		logging.SafeCloseWithLogging(db, logger, "close_sqlite_registry")
		return nil, fmt.Errorf("error performing database migration: %w", err)
	}

	return &SQLiteRegistry{
		db:     db,
		logger: logging.OrDefault(logger).With(slog.String("component", logging.ComponentRegistry)),
	}, nil
}

func performDatabaseMigration(ctx context.Context, db *sql.DB) error {
	statements := strings.Split(ddl, "-- migrate")
	for _, stmt := range statements {
		trimmedStmt := strings.TrimSpace(stmt)
		if trimmedStmt == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, trimmedStmt); err != nil {
			return fmt.Errorf("error executing DDL statement [%s]: %w", trimmedStmt, err)
		}
	}
	return nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func (r *SQLiteRegistry) CityNames(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT name FROM cities ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("error querying city names: %w", err)
	}
	defer logging.SafeCloseWithLogging(rows, r.logger, "close_city_names_rows")

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("error scanning city name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating city names: %w", err)
	}
	return names, nil
}

func (r *SQLiteRegistry) List(ctx context.Context, page, perPage int) (Page, error) {
	total, err := r.Count(ctx)
	if err != nil {
		return Page{}, err
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, created_at FROM cities ORDER BY id LIMIT ? OFFSET ?`,
		perPage, offset(page, perPage))
	if err != nil {
		return Page{}, fmt.Errorf("error querying cities: %w", err)
	}
	defer logging.SafeCloseWithLogging(rows, r.logger, "close_city_list_rows")

	items := []City{}
	for rows.Next() {
		var (
			c         City
			createdAt int64
		)
		if err := rows.Scan(&c.ID, &c.Name, &createdAt); err != nil {
			return Page{}, fmt.Errorf("error scanning city: %w", err)
		}
		c.CreatedAt = time.UnixMilli(createdAt).UTC()
		items = append(items, c)
	}
	if err := rows.Err(); err != nil {
		return Page{}, fmt.Errorf("error iterating cities: %w", err)
	}

	return Page{Items: items, Page: page, PerPage: perPage, Total: total}, nil
}

func (r *SQLiteRegistry) Create(ctx context.Context, name string) (City, error) {
	name, err := NormalizeName(name)
	if err != nil {
		return City{}, err
	}

	createdAt := time.Now().UTC().Truncate(time.Millisecond)
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO cities (name, created_at) VALUES (?, ?)`, name, createdAt.UnixMilli())
	if isUniqueViolation(err) {
		return City{}, ErrDuplicateCity
	}
	if err != nil {
		return City{}, fmt.Errorf("error inserting city: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return City{}, fmt.Errorf("error reading city id: %w", err)
	}
	return City{ID: id, Name: name, CreatedAt: createdAt}, nil
}

func (r *SQLiteRegistry) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM cities WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("error deleting city: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error deleting city: %w", err)
	}
	if n == 0 {
		return ErrCityNotFound
	}
	return nil
}

func (r *SQLiteRegistry) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM cities`).Scan(&n); err != nil {
		return 0, fmt.Errorf("error counting cities: %w", err)
	}
	return n, nil
}

func (r *SQLiteRegistry) SeedNames(ctx context.Context, names []string) (added int, err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("error starting transaction: %w", err)
	}
	defer logging.SafeRollbackWithLogging(tx, r.logger, "seed_cities")

	stmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO cities (name, created_at) VALUES (?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("error preparing statement: %w", err)
	}
	defer logging.HandleDeferredError(&err, stmt.Close, r.logger, "close_seed_statement")

	now := time.Now().UTC().UnixMilli()
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		res, err := stmt.ExecContext(ctx, name, now)
		if err != nil {
			return added, fmt.Errorf("error inserting city %q: %w", name, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return added, fmt.Errorf("error inserting city %q: %w", name, err)
		}
		added += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("error committing transaction: %w", err)
	}
	return added, nil
}

func (r *SQLiteRegistry) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRegistry) Close() error {
	return r.db.Close()
}
