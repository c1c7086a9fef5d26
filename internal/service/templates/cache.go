package templates

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// fetchTimeout bounds a shared upstream fetch, which outlives any one caller.
const fetchTimeout = 30 * time.Second

type cacheEntry struct {
	body    string
	expires time.Time
}

// CachedLoader memoizes successful loads for a TTL and collapses concurrent
// fetches of the same name into one upstream call.
type CachedLoader struct {
	next Loader
	ttl  time.Duration
	now  func() time.Time

	sfg singleflight.Group
	mu  sync.RWMutex
	m   map[string]cacheEntry
}

// NewCachedLoader wraps next. A non-positive ttl disables caching but keeps
// the fetch de-duplication.
func NewCachedLoader(next Loader, ttl time.Duration) *CachedLoader {
	return &CachedLoader{next: next, ttl: ttl, now: time.Now, m: make(map[string]cacheEntry)}
}

// Load returns the cached body or joins the in-flight fetch for name. A
// caller whose ctx ends stops waiting; the fetch continues for the others.
func (c *CachedLoader) Load(ctx context.Context, name string) (string, error) {
	if body, ok := c.lookup(name); ok {
		return body, nil
	}
	ch := c.sfg.DoChan(name, func() (any, error) {
		if body, ok := c.lookup(name); ok {
			return body, nil
		}
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), fetchTimeout)
		defer cancel()
		body, err := c.next.Load(fetchCtx, name)
		if err != nil {
			return "", err
		}
		if c.ttl > 0 {
			c.mu.Lock()
			c.m[name] = cacheEntry{body: body, expires: c.now().Add(c.ttl)}
			c.mu.Unlock()
		}
		return body, nil
	})
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

// Invalidate drops every cached template.
func (c *CachedLoader) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.m)
}

func (c *CachedLoader) lookup(name string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.m[name]
	if !ok || c.now().After(e.expires) {
		return "", false
	}
	return e.body, true
}

// Compile-time interface check
var _ Loader = (*CachedLoader)(nil)
