// Package reqcache memoizes recent identical requests and cancels
// superseded in-flight ones. Keys are caller-built strings combining
// the operation and its identifying arguments.
package reqcache

import (
	"context"
	"errors"
	"sync"
	"time"

	"hubclient/internal/metrics"
)

// ErrSuperseded is returned when a newer request for the same key
// canceled this one. It is a sentinel, not a user-facing failure.
var ErrSuperseded = errors.New("request superseded by a newer one")

// DefaultTTL is the freshness window for cached entries.
const DefaultTTL = 5 * time.Minute

type entry struct {
	data any
	at   time.Time
}

type flight struct {
	cancel context.CancelFunc
}

// Group owns the key->entry cache and the key->in-flight map. It is an
// explicit injectable object rather than module state so tests and
// multiple clients can hold isolated instances.
type Group struct {
	mu      sync.Mutex
	ttl     time.Duration
	nowFn   func() time.Time
	cache   map[string]entry
	pending map[string]*flight
}

func New(ttl time.Duration) *Group {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Group{
		ttl:     ttl,
		nowFn:   time.Now,
		cache:   make(map[string]entry),
		pending: make(map[string]*flight),
	}
}

// Do returns the cached value for key when it is still fresh, making no
// network call at all. Otherwise it cancels any outstanding request for
// the same key (supersede-not-queue) and runs fetch. On success the
// result is written through when useCache is set; a superseded fetch
// settles as ErrSuperseded and never touches the cache.
func (g *Group) Do(ctx context.Context, key string, useCache bool, fetch func(context.Context) (any, error)) (any, error) {
	g.mu.Lock()
	if useCache {
		if e, ok := g.cache[key]; ok && g.nowFn().Sub(e.at) < g.ttl {
			metrics.CacheHits.Inc()
			g.mu.Unlock()
			return e.data, nil
		}
	}
	metrics.CacheMisses.Inc()
	if prev, ok := g.pending[key]; ok {
		prev.cancel()
		metrics.Supersedes.Inc()
	}
	fctx, cancel := context.WithCancel(ctx)
	f := &flight{cancel: cancel}
	g.pending[key] = f
	g.mu.Unlock()

	data, err := fetch(fctx)

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.pending[key] != f {
		// A newer request took over the key while we were in flight.
		// This completion must not overwrite anything.
		cancel()
		return nil, ErrSuperseded
	}
	delete(g.pending, key)
	cancel()
	if err != nil {
		if fctx.Err() != nil && ctx.Err() == nil {
			return nil, ErrSuperseded
		}
		return nil, err
	}
	if useCache {
		g.cache[key] = entry{data: data, at: g.nowFn()}
	}
	return data, nil
}

// Invalidate drops the cached entry for key, if any.
func (g *Group) Invalidate(key string) {
	g.mu.Lock()
	delete(g.cache, key)
	g.mu.Unlock()
}

// Clear drops every cached entry. In-flight requests are untouched.
func (g *Group) Clear() {
	g.mu.Lock()
	g.cache = make(map[string]entry)
	g.mu.Unlock()
}

// Do is the typed variant of Group.Do.
func Do[T any](ctx context.Context, g *Group, key string, useCache bool, fetch func(context.Context) (T, error)) (T, error) {
	var zero T
	v, err := g.Do(ctx, key, useCache, func(fctx context.Context) (any, error) {
		return fetch(fctx)
	})
	if err != nil {
		return zero, err
	}
	out, ok := v.(T)
	if !ok {
		return zero, errors.New("reqcache: cached value has unexpected type")
	}
	return out, nil
}
