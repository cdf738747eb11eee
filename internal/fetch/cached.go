package fetch

import (
	"context"
	"sync"
	"time"
)

// DefaultCacheTTL is how long a fetched posting is reused.
const DefaultCacheTTL = 15 * time.Minute

// TextFetcher returns the main text of a page.
type TextFetcher interface {
	FetchText(ctx context.Context, url string) (string, error)
}

type cacheEntry struct {
	text    string
	expires time.Time
}

// CachedFetcher memoizes successful fetches in memory for a TTL. Failures are not cached.
type CachedFetcher struct {
	next TextFetcher
	ttl  time.Duration
	now  func() time.Time

	mu      sync.Mutex
	entries map[string]cacheEntry
}

// NewCachedFetcher wraps next. A ttl of zero uses DefaultCacheTTL.
func NewCachedFetcher(next TextFetcher, ttl time.Duration) *CachedFetcher {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CachedFetcher{
		next:    next,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]cacheEntry),
	}
}

// FetchText returns the cached text for url or fetches it.
func (f *CachedFetcher) FetchText(ctx context.Context, url string) (string, error) {
	now := f.now()

	f.mu.Lock()
	if e, ok := f.entries[url]; ok && now.Before(e.expires) {
		f.mu.Unlock()
		return e.text, nil
	}
	f.mu.Unlock()

	text, err := f.next.FetchText(ctx, url)
	if err != nil {
		return "", err
	}

	f.mu.Lock()
	f.entries[url] = cacheEntry{text: text, expires: now.Add(f.ttl)}
	f.evictExpired(now)
	f.mu.Unlock()
	return text, nil
}

// Invalidate drops url from the cache.
func (f *CachedFetcher) Invalidate(url string) {
	f.mu.Lock()
	delete(f.entries, url)
	f.mu.Unlock()
}

// evictExpired must be called with mu held.
func (f *CachedFetcher) evictExpired(now time.Time) {
	for k, e := range f.entries {
		if !now.Before(e.expires) {
			delete(f.entries, k)
		}
	}
}
