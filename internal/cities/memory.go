package cities

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryRegistry is a registry that lives only as long as the process.
type MemoryRegistry struct {
	mu     sync.RWMutex
	nextID int64
	cities []City
}

func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{nextID: 1}
}

func (r *MemoryRegistry) indexOfName(name string) int {
	for i, c := range r.cities {
		if strings.EqualFold(c.Name, name) {
			return i
		}
	}
	return -1
}

func (r *MemoryRegistry) CityNames(context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.cities))
	for _, c := range r.cities {
		names = append(names, c.Name)
	}
	sort.Strings(names)
	return names, nil
}

func (r *MemoryRegistry) List(_ context.Context, page, perPage int) (Page, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	items := []City{}
	start := offset(page, perPage)
	for i := start; i < len(r.cities) && i < start+perPage; i++ {
		items = append(items, r.cities[i])
	}
	return Page{Items: items, Page: page, PerPage: perPage, Total: len(r.cities)}, nil
}

func (r *MemoryRegistry) Create(_ context.Context, name string) (City, error) {
	name, err := NormalizeName(name)
	if err != nil {
		return City{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.indexOfName(name) >= 0 {
		return City{}, ErrDuplicateCity
	}
	c := City{ID: r.nextID, Name: name, CreatedAt: time.Now().UTC()}
	r.nextID++
	r.cities = append(r.cities, c)
	return c, nil
}

func (r *MemoryRegistry) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, c := range r.cities {
		if c.ID == id {
			r.cities = append(r.cities[:i], r.cities[i+1:]...)
			return nil
		}
	}
	return ErrCityNotFound
}

func (r *MemoryRegistry) Count(context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.cities), nil
}

func (r *MemoryRegistry) SeedNames(ctx context.Context, names []string) (int, error) {
	added := 0
	for _, name := range names {
		_, err := r.Create(ctx, name)
		if errors.Is(err, ErrDuplicateCity) || errors.Is(err, ErrEmptyName) {
			continue
		}
		if err != nil {
			return added, err
		}
		added++
	}
	return added, nil
}

func (r *MemoryRegistry) Ping(context.Context) error {
	return nil
}

func (r *MemoryRegistry) Close() error {
	return nil
}
