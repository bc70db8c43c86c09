package loadercache

import (
	"context"
	"sync"
	"time"

	"github.com/pitlane-data/pitwall/log"
	"github.com/pitlane-data/pitwall/pkg/utils/cache"
)

// based on github.com/kittpat1413/go-common/framework/cache/localcache/localcache.go

type (
	Option[K comparable, V any] func(*config[K, V])
	item[T any]                 struct {
		data    T
		expires *time.Time
	}
	loaderFunc[K comparable, V any] func(ctx context.Context, key K) (*V, error)
	config[K comparable, V any]     struct {
		expiration time.Duration // <= 0 means entries never expire
		loader     loaderFunc[K, V]
		l          *log.Logger
	}
	// flight is one in-progress load; readers of the same key wait on
	// done instead of starting their own load.
	flight[V any] struct {
		done chan struct{}
		val  *V
		err  error
	}
	loaderCache[K comparable, V any] struct {
		mutex   sync.Mutex
		items   map[K]item[*V]
		loading map[K]*flight[V]
		config  *config[K, V]
	}
)

// WithExpiration sets the entry lifetime. A non-positive duration keeps
// entries for the process lifetime.
func WithExpiration[K comparable, V any](expiration time.Duration) Option[K, V] {
	return func(c *config[K, V]) {
		c.expiration = expiration
	}
}

func WithLoader[K comparable, V any](lf loaderFunc[K, V]) Option[K, V] {
	return func(c *config[K, V]) {
		c.loader = lf
	}
}

func WithLogger[K comparable, V any](arg *log.Logger) Option[K, V] {
	return func(c *config[K, V]) {
		c.l = arg
	}
}

func New[K comparable, V any](opts ...Option[K, V]) cache.Cache[K, V] {
	c := &config[K, V]{
		expiration: 0,
		l:          log.Default().Named("cache"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return &loaderCache[K, V]{
		items:   make(map[K]item[*V]),
		loading: make(map[K]*flight[V]),
		config:  c,
	}
}

// Get returns the cached entry, loading it on first access. The loader
// runs outside the cache lock: concurrent readers of the same key share
// one load, readers of other keys are never blocked by it.
func (c *loaderCache[K, V]) Get(ctx context.Context, key K) (*V, error) {
	c.mutex.Lock()
	if cacheItem, ok := c.items[key]; ok {
		if cacheItem.expires == nil || cacheItem.expires.After(time.Now()) {
			c.mutex.Unlock()
			return cacheItem.data, nil
		}
		delete(c.items, key)
	}
	if fl, ok := c.loading[key]; ok {
		c.mutex.Unlock()
		<-fl.done
		return fl.val, fl.err
	}
	if c.config.loader == nil {
		c.mutex.Unlock()
		return nil, cache.ErrCacheMiss
	}
	fl := &flight[V]{done: make(chan struct{})}
	c.loading[key] = fl
	c.mutex.Unlock()

	v, err := c.config.loader(ctx, key)
	c.config.l.Debug("loaderCache.load", log.Any("key", key))

	c.mutex.Lock()
	delete(c.loading, key)
	if err != nil {
		// errors are not cached; the next Get retries
		c.config.l.Error("error loading entry", log.ErrorField(err))
	} else {
		var expires *time.Time
		if c.config.expiration > 0 {
			e := time.Now().Add(c.config.expiration)
			expires = &e
		}
		c.items[key] = item[*V]{data: v, expires: expires}
	}
	c.mutex.Unlock()

	fl.val, fl.err = v, err
	close(fl.done)
	return v, err
}

func (c *loaderCache[K, V]) Invalidate(ctx context.Context, key K) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.config.l.Debug("Invalidate", log.Any("key", key))
	delete(c.items, key)
}

func (c *loaderCache[K, V]) InvalidateAll(ctx context.Context) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.config.l.Debug("InvalidateAll", log.Int("items", len(c.items)))
	c.items = make(map[K]item[*V])
}
