package cities

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"trainmapper.org/internal/logging"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS cities (
	id BIGSERIAL PRIMARY KEY,
	name TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_cities_name_lower ON cities (LOWER(name));
`

const uniqueViolation = "23505"

// PostgresRegistry keeps the registry in PostgreSQL.
type PostgresRegistry struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewPostgresRegistry(ctx context.Context, databaseURL string, logger *slog.Logger) (*PostgresRegistry, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create cities table: %w", err)
	}

	return &PostgresRegistry{
		pool:   pool,
		logger: logging.OrDefault(logger).With(slog.String("component", logging.ComponentRegistry)),
	}, nil
}

func (r *PostgresRegistry) CityNames(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT name FROM cities ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query city names: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan city name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating city names: %w", err)
	}
	return names, nil
}

func (r *PostgresRegistry) List(ctx context.Context, page, perPage int) (Page, error) {
	total, err := r.Count(ctx)
	if err != nil {
		return Page{}, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, name, created_at FROM cities ORDER BY id LIMIT $1 OFFSET $2`,
		perPage, offset(page, perPage))
	if err != nil {
		return Page{}, fmt.Errorf("failed to query cities: %w", err)
	}
	defer rows.Close()

	items := []City{}
	for rows.Next() {
		var c City
		if err := rows.Scan(&c.ID, &c.Name, &c.CreatedAt); err != nil {
			return Page{}, fmt.Errorf("failed to scan city row: %w", err)
		}
		items = append(items, c)
	}
	if err := rows.Err(); err != nil {
		return Page{}, fmt.Errorf("error iterating city rows: %w", err)
	}

	return Page{Items: items, Page: page, PerPage: perPage, Total: total}, nil
}

func (r *PostgresRegistry) Create(ctx context.Context, name string) (City, error) {
	name, err := NormalizeName(name)
	if err != nil {
		return City{}, err
	}

	var c City
	err = r.pool.QueryRow(ctx,
		`INSERT INTO cities (name) VALUES ($1) RETURNING id, name, created_at`, name,
	).Scan(&c.ID, &c.Name, &c.CreatedAt)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return City{}, ErrDuplicateCity
	}
	if err != nil {
		return City{}, fmt.Errorf("failed to insert city: %w", err)
	}
	return c, nil
}

func (r *PostgresRegistry) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM cities WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete city: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCityNotFound
	}
	return nil
}

func (r *PostgresRegistry) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM cities`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count cities: %w", err)
	}
	return n, nil
}

func (r *PostgresRegistry) SeedNames(ctx context.Context, names []string) (int, error) {
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO cities (name)
		SELECT DISTINCT TRIM(n) FROM UNNEST($1::text[]) AS n
		WHERE TRIM(n) <> ''
		ON CONFLICT DO NOTHING`, names)
	if err != nil {
		return 0, fmt.Errorf("failed to seed cities: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func (r *PostgresRegistry) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func (r *PostgresRegistry) Close() error {
	r.pool.Close()
	return nil
}
