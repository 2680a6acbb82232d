package directory

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// CachedDirectory wraps a UserDirectory with a short TTL cache so a burst of
// readings from one user does not hammer the account backend. The TTL is kept
// short: a stale snapshot only delays a settings change by the cache window.
type CachedDirectory struct {
	inner UserDirectory
	cache *gocache.Cache
}

// NewCachedDirectory creates a caching decorator with the given TTL.
func NewCachedDirectory(inner UserDirectory, ttl time.Duration) *CachedDirectory {
	return &CachedDirectory{
		inner: inner,
		cache: gocache.New(ttl, 2*ttl),
	}
}

// Lookup implements UserDirectory. Lookup failures are never cached.
func (d *CachedDirectory) Lookup(ctx context.Context, userID string) (*Profile, error) {
	if cached, ok := d.cache.Get(userID); ok {
		return cached.(*Profile), nil
	}
	profile, err := d.inner.Lookup(ctx, userID)
	if err != nil {
		return nil, err
	}
	d.cache.SetDefault(userID, profile)
	return profile, nil
}

// Invalidate drops a cached profile, forcing the next lookup to refetch.
func (d *CachedDirectory) Invalidate(userID string) {
	d.cache.Delete(userID)
}
