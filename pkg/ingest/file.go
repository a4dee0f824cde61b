package ingest

import (
	"context"
	"os"
	"sync"

	"golang.org/x/sync/singleflight"
)

// FileFetcher reads sources from the local filesystem with caching.
type FileFetcher struct {
	cache   map[string][]byte
	cacheMu sync.RWMutex
	group   singleflight.Group
}

// NewFileFetcher creates a new filesystem-backed fetcher.
func NewFileFetcher() *FileFetcher {
	return &FileFetcher{
		cache: make(map[string][]byte),
	}
}

// Fetch reads the file at the source location. Results are cached.
func (f *FileFetcher) Fetch(ctx context.Context, source Source) ([]byte, error) {
	key := cacheKey(source)

	f.cacheMu.RLock()
	if cached, ok := f.cache[key]; ok {
		f.cacheMu.RUnlock()
		return cached, nil
	}
	f.cacheMu.RUnlock()

	result, err, _ := f.group.Do(key, func() (any, error) {
		f.cacheMu.RLock()
		if cached, ok := f.cache[key]; ok {
			f.cacheMu.RUnlock()
			return cached, nil
		}
		f.cacheMu.RUnlock()

		content, err := os.ReadFile(source.Location)
		if err != nil {
			return nil, err
		}

		f.cacheMu.Lock()
		f.cache[key] = content
		f.cacheMu.Unlock()

		return content, nil
	})
	if err != nil {
		return nil, err
	}

	return result.([]byte), nil
}
