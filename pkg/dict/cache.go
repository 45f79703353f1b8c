// CLAUDE:SUMMARY Bounded LRU of compiled rule sets keyed by (dictionary path, file version); stale entries age out.
package dict

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	lru "github.com/hashicorp/golang-lru"
)

// DefaultCacheSize is the number of dictionary versions kept compiled.
const DefaultCacheSize = 16

type cacheKey struct {
	path    string
	version Version
}

// RuleCache memoizes Compile results per dictionary version.
// It is derived state only: every entry can be rebuilt from the store.
type RuleCache struct {
	lru    *lru.Cache
	logger *slog.Logger
}

// NewRuleCache returns a cache holding at most size rule sets.
func NewRuleCache(size int, logger *slog.Logger) (*RuleCache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	c, err := lru.New(size)
	if err != nil {
		return nil, fmt.Errorf("create rule cache: %w", err)
	}
	return &RuleCache{lru: c, logger: logger}, nil
}

// GetOrCompile returns the rule set for the store's current version,
// compiling it on a miss.
func (c *RuleCache) GetOrCompile(store *Store) (RuleSet, error) {
	if err := store.EnsureExists(); err != nil {
		return nil, err
	}
	version, err := store.Version()
	if errors.Is(err, fs.ErrNotExist) {
		// Deleted between the existence check and the stat: recreate once.
		if err := store.EnsureExists(); err != nil {
			return nil, err
		}
		version, err = store.Version()
	}
	if err != nil {
		return nil, fmt.Errorf("stat terms file: %w", err)
	}

	key := cacheKey{path: store.Path(), version: version}
	if v, ok := c.lru.Get(key); ok {
		return v.(RuleSet), nil
	}

	terms, err := store.Load()
	if err != nil {
		return nil, err
	}
	rules := Compile(terms)
	c.lru.Add(key, rules)
	c.logger.Debug("rules compiled", "path", key.path, "mtime", version.ModTime, "size", version.Size, "rules", len(rules))
	return rules, nil
}

// Forget drops every cached rule set compiled from path.
func (c *RuleCache) Forget(path string) {
	for _, k := range c.lru.Keys() {
		if ck, ok := k.(cacheKey); ok && ck.path == path {
			c.lru.Remove(k)
		}
	}
}

// Purge empties the cache.
func (c *RuleCache) Purge() {
	c.lru.Purge()
}

// Len returns the number of cached rule sets.
func (c *RuleCache) Len() int {
	return c.lru.Len()
}
