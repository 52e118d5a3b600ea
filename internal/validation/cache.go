package validation

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"
)

// resultCache is a short-TTL cache keyed by operation, input hash, and the
// check-affecting options, so hot, repeated inputs skip the full pipeline.
type resultCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]cacheEntry
	now     func() time.Time
}

type cacheEntry struct {
	result  Result
	expires time.Time
}

func newResultCache(ttl time.Duration) *resultCache {
	return &resultCache{
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
		now:     time.Now,
	}
}

// cacheKey fingerprints every option that changes what the pipeline checks,
// so a stricter call never sees a result computed under laxer options. The
// rate-limit fields are excluded: limiting runs before the cache and does
// not shape the result.
func cacheKey(operation, input string, opts Options) string {
	h := sha256.New()
	h.Write([]byte(input))
	fmt.Fprintf(h, "|%d|%s|%t|%t|%t|%t",
		opts.MaxLength,
		opts.AllowedCharset,
		opts.RequireAlphanumeric,
		opts.PreventExecutableExtensions,
		opts.RequireScopeContainment,
		opts.HTMLSanitize,
	)
	return operation + ":" + hex.EncodeToString(h.Sum(nil))
}

func (c *resultCache) get(key string) (Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return Result{}, false
	}
	if c.now().After(entry.expires) {
		delete(c.entries, key)
		return Result{}, false
	}
	return entry.result, true
}

func (c *resultCache) put(key string, result Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{result: result, expires: c.now().Add(c.ttl)}
}

// sweep drops expired entries; called on a timer off the request path.
func (c *resultCache) sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for key, entry := range c.entries {
		if now.After(entry.expires) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}
