package cities

import (
	"context"
	"time"

	"github.com/bluele/gcache"
)

const namesKey = "city_names"

// CachedRegistry serves CityNames from an in-process cache that expires after
// ttl. Every write through the registry purges the cache.
type CachedRegistry struct {
	Store
	cache gcache.Cache
}

func NewCachedRegistry(store Store, ttl time.Duration) *CachedRegistry {
	return &CachedRegistry{
		Store: store,
		cache: gcache.New(16).
			LRU().
			Expiration(ttl).
			Build(),
	}
}

func (r *CachedRegistry) CityNames(ctx context.Context) ([]string, error) {
	if cached, err := r.cache.Get(namesKey); err == nil {
		return append([]string(nil), cached.([]string)...), nil
	}

	names, err := r.Store.CityNames(ctx)
	if err != nil {
		return nil, err
	}
	_ = r.cache.Set(namesKey, append([]string(nil), names...))
	return names, nil
}

func (r *CachedRegistry) Create(ctx context.Context, name string) (City, error) {
	c, err := r.Store.Create(ctx, name)
	if err == nil {
		r.cache.Purge()
	}
	return c, err
}

func (r *CachedRegistry) Delete(ctx context.Context, id int64) error {
	err := r.Store.Delete(ctx, id)
	if err == nil {
		r.cache.Purge()
	}
	return err
}

func (r *CachedRegistry) SeedNames(ctx context.Context, names []string) (int, error) {
	added, err := r.Store.SeedNames(ctx, names)
	if added > 0 {
		r.cache.Purge()
	}
	return added, err
}
