package cache

import (
	"context"
	"strings"
	"time"

	"github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/lib/v4/store"
	"github.com/eko/gocache/store/go_cache/v4"
	gocache "github.com/patrickmn/go-cache"
)

type Manager[T any] struct {
	cache *cache.Cache[T]
}

var (
	// preparedURLManager maps a source-asset content hash to the public
	// URL it was uploaded to, so repeated batches skip the upload.
	preparedURLManager *Manager[string]
	// signedURLManager maps a storage object key to its presigned URL.
	signedURLManager *Manager[string]
)

func init() {
	preparedURLManager = newStringManager(30*time.Minute, 10*time.Minute)
	signedURLManager = newStringManager(5*time.Minute, 5*time.Minute)
}

func newStringManager(defaultExpiration, cleanupInterval time.Duration) *Manager[string] {
	client := gocache.New(defaultExpiration, cleanupInterval)
	return &Manager[string]{
		cache: cache.New[string](go_cache.NewGoCache(client)),
	}
}

func PreparedURLManager() *Manager[string] {
	return preparedURLManager
}

func SignedURLManager() *Manager[string] {
	return signedURLManager
}

func (m *Manager[T]) SetWithExpiration(key string, value T, expir time.Duration) error {
	timeout, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()
	return m.cache.Set(timeout, key, value, store.WithExpiration(expir))
}

// GetValue treats a miss as a zero value, not an error.
func (m *Manager[T]) GetValue(key string) (value T, err error) {
	timeout, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()
	const errorMessage = "value not found"
	value, err = m.cache.Get(timeout, key)
	if err != nil && strings.Contains(err.Error(), errorMessage) {
		err = nil
		return
	}
	return
}
