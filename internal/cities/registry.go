// Package cities stores the registry of known city names that the station
// resolver falls back to when a place name matches no station directly.
package cities

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"trainmapper.org/internal/appconf"
)

var (
	ErrCityNotFound  = errors.New("city not found")
	ErrDuplicateCity = errors.New("city already exists")
	ErrEmptyName     = errors.New("city name is required")
)

type City struct {
	ID        int64
	Name      string
	CreatedAt time.Time
}

// Page is one page of a registry listing. Page numbers start at 1.
type Page struct {
	Items   []City
	Page    int
	PerPage int
	Total   int
}

func (p Page) TotalPages() int {
	if p.PerPage <= 0 {
		return 0
	}
	return (p.Total + p.PerPage - 1) / p.PerPage
}

func (p Page) HasNext() bool {
	return p.Page < p.TotalPages()
}

func (p Page) HasPrev() bool {
	return p.Page > 1
}

// Store is a city registry backend. Names are unique regardless of case.
type Store interface {
	CityNames(ctx context.Context) ([]string, error)
	List(ctx context.Context, page, perPage int) (Page, error)
	Create(ctx context.Context, name string) (City, error)
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int, error)
	// SeedNames inserts the names that are not registered yet and returns how
	// many were added.
	SeedNames(ctx context.Context, names []string) (int, error)
	Ping(ctx context.Context) error
	Close() error
}

// NormalizeName trims name and rejects an empty result.
func NormalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrEmptyName
	}
	return name, nil
}

func offset(page, perPage int) int {
	if page < 1 {
		page = 1
	}
	return (page - 1) * perPage
}

// Open returns the Store selected by cfg.Driver, wrapped in a CachedRegistry
// when cfg.CacheTTL is positive.
func Open(ctx context.Context, cfg appconf.RegistryConfig, env appconf.Environment, logger *slog.Logger) (Store, error) {
	var (
		store Store
		err   error
	)

	switch cfg.Driver {
	case "memory":
		store = NewMemoryRegistry()
	case "sqlite":
		if env == appconf.Test && cfg.DSN != ":memory:" {
			return nil, fmt.Errorf("sqlite registry must be in memory when testing, got %q", cfg.DSN)
		}
		store, err = NewSQLiteRegistry(ctx, cfg.DSN, logger)
	case "postgres":
		store, err = NewPostgresRegistry(ctx, cfg.DSN, logger)
	default:
		return nil, fmt.Errorf("unknown registry driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	if cfg.CacheTTL > 0 {
		store = NewCachedRegistry(store, cfg.CacheTTL)
	}
	return store, nil
}
