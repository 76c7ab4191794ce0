// Package localcache is a process-local read-through cache for small,
// frequently re-read records (profile, points). Unlike reqcache it has
// no supersede semantics; entries are admission-managed by ristretto.
package localcache

import (
	"context"
	"time"

	"github.com/dgraph-io/ristretto"
	"github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/lib/v4/marshaler"
	"github.com/eko/gocache/lib/v4/store"
	ristretto_store "github.com/eko/gocache/store/ristretto/v4"
)

// Service wraps a ristretto-backed gocache with a msgpack marshaler.
type Service struct {
	r       *ristretto.Cache
	marshal *marshaler.Marshaler
}

func New() (*Service, error) {
	r, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 10_000,
		MaxCost:     64 << 20,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	cm := cache.New[any](ristretto_store.NewRistretto(r))
	return &Service{r: r, marshal: marshaler.New(cm)}, nil
}

// Get loads the value stored under key into a fresh copy of returnObj.
func (s *Service) Get(ctx context.Context, key string, returnObj any) (any, error) {
	return s.marshal.Get(ctx, key, returnObj)
}

// Set stores value under key with the given TTL.
func (s *Service) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	return s.marshal.Set(ctx, key, value, store.WithExpiration(ttl), store.WithCost(1))
}

// Delete drops the entry for key.
func (s *Service) Delete(ctx context.Context, key string) error {
	return s.marshal.Delete(ctx, key)
}

// Wait blocks until buffered writes are applied. Used by tests.
func (s *Service) Wait() { s.r.Wait() }
