package mcpserver

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/erraggy/oasbind"
	"github.com/erraggy/oasbind/internal/httputil"
	"github.com/erraggy/oasbind/loader"
	"github.com/erraggy/oasbind/pipeline"
)

// specInput represents the three ways a document can be provided to a tool.
// Exactly one of File, URL, or Content must be set.
type specInput struct {
	File    string `json:"file,omitempty"    jsonschema:"Path to an OpenAPI 3.0 file on disk"`
	URL     string `json:"url,omitempty"     jsonschema:"URL to fetch an OpenAPI 3.0 document from"`
	Content string `json:"content,omitempty" jsonschema:"Inline OpenAPI 3.0 document content (JSON or YAML)"`
}

// cacheEntry holds a compiled engine with LRU ordering and TTL expiry.
type cacheEntry struct {
	engine    *pipeline.Engine
	insertAt  time.Time
	expiresAt time.Time
}

// engineCacheStore provides a session-scoped cache of compiled engines.
// File inputs are keyed by (absolutePath, modTime). Content inputs are keyed
// by a SHA-256 hash. URL inputs are keyed by URL string.
// Entries have per-type TTLs and a background sweeper removes expired entries.
type engineCacheStore struct {
	mu             sync.Mutex
	entries        map[string]*cacheEntry
	maxSize        int
	sweeperStarted atomic.Bool
}

var engineCache = &engineCacheStore{
	entries: make(map[string]*cacheEntry),
	maxSize: cfg.CacheMaxSize,
}

// get returns a cached engine or nil. Expired entries are lazily removed.
func (c *engineCacheStore) get(key string) *pipeline.Engine {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok {
		if !e.expiresAt.IsZero() && time.Now().After(e.expiresAt) {
			delete(c.entries, key)
			return nil
		}
		// Touch entry for LRU.
		e.insertAt = time.Now()
		return e.engine
	}
	return nil
}

// putWithTTL stores an engine, evicting the least recently used entry if at capacity.
func (c *engineCacheStore) putWithTTL(key string, engine *pipeline.Engine, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	entry := &cacheEntry{engine: engine, insertAt: now, expiresAt: now.Add(ttl)}

	if _, ok := c.entries[key]; ok {
		c.entries[key] = entry
		return
	}

	if len(c.entries) >= c.maxSize {
		var oldestKey string
		var oldestTime time.Time
		for k, e := range c.entries {
			if oldestKey == "" || e.insertAt.Before(oldestTime) {
				oldestKey = k
				oldestTime = e.insertAt
			}
		}
		if oldestKey != "" {
			delete(c.entries, oldestKey)
		}
	}

	c.entries[key] = entry
}

// sweep removes all expired entries from the cache.
func (c *engineCacheStore) sweep() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now()
	for k, e := range c.entries {
		if !e.expiresAt.IsZero() && now.After(e.expiresAt) {
			delete(c.entries, k)
		}
	}
}

// startSweeper launches a background goroutine that periodically removes expired entries.
// Only the first call spawns a sweeper. It stops when ctx is cancelled.
func (c *engineCacheStore) startSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	if !c.sweeperStarted.CompareAndSwap(false, true) {
		return
	}
	go func() {
		defer c.sweeperStarted.Store(false)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.sweep()
			}
		}
	}()
}

// reset clears all cached entries. Used in tests.
func (c *engineCacheStore) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*cacheEntry)
}

// size returns the number of cached entries.
func (c *engineCacheStore) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// cacheKey returns the cache key and TTL for s, or "" when s cannot be cached.
func (s specInput) cacheKey() (string, time.Duration) {
	switch {
	case s.File != "":
		absPath, err := filepath.Abs(s.File)
		if err != nil {
			return "", 0
		}
		info, err := os.Stat(absPath)
		if err != nil {
			return "", 0
		}
		return fmt.Sprintf("file:%s:%d", absPath, info.ModTime().UnixNano()), cfg.CacheFileTTL
	case s.Content != "":
		h := sha256.Sum256([]byte(s.Content))
		return "content:" + hex.EncodeToString(h[:]), cfg.CacheContentTTL
	case s.URL != "":
		return "url:" + s.URL, cfg.CacheURLTTL
	}
	return "", 0
}

// resolve compiles the document from whichever input was provided, reusing
// a cached engine when one exists.
func (s specInput) resolve() (*pipeline.Engine, error) {
	count := 0
	for _, v := range []string{s.File, s.URL, s.Content} {
		if v != "" {
			count++
		}
	}
	if count != 1 {
		return nil, fmt.Errorf("exactly one of file, url, or content must be provided (got %d)", count)
	}

	if s.Content != "" && int64(len(s.Content)) > cfg.MaxInlineSize {
		return nil, fmt.Errorf("inline content size %d bytes exceeds maximum %d bytes; use file input instead, or set OASBIND_MAX_INLINE_SIZE to increase",
			len(s.Content), cfg.MaxInlineSize)
	}

	var key string
	var ttl time.Duration
	if cfg.CacheEnabled {
		key, ttl = s.cacheKey()
	}
	if key != "" {
		if cached := engineCache.get(key); cached != nil {
			return cached, nil
		}
	}

	opts, err := s.options()
	if err != nil {
		return nil, err
	}
	engine, err := pipeline.New(opts...)
	if err != nil {
		return nil, err
	}

	if key != "" {
		engineCache.putWithTTL(key, engine, ttl)
	}
	return engine, nil
}

func (s specInput) options() ([]pipeline.Option, error) {
	client := httputil.NewSafeClient()
	if cfg.AllowPrivateIPs {
		client = nil
	}
	fetcher := httputil.NewFetcher(client, oasbind.UserAgent(), loader.DefaultMaxFileSize)

	opts := []pipeline.Option{
		pipeline.WithLogger(loader.NewSlogAdapter(slog.Default())),
		pipeline.WithMaxBodySize(cfg.MaxBodySize),
		pipeline.WithLoaderOptions(
			loader.WithMaxRefDepth(cfg.MaxRefDepth),
			loader.WithHTTPFetcher(fetcher),
		),
	}

	switch {
	case s.File != "":
		opts = append(opts, pipeline.WithFilePath(s.File))
	case s.URL != "":
		data, _, err := fetcher(s.URL)
		if err != nil {
			return nil, fmt.Errorf("fetching %s: %w", s.URL, err)
		}
		opts = append(opts, pipeline.WithBytes(data, s.URL))
	default:
		opts = append(opts, pipeline.WithReader(strings.NewReader(s.Content), "content"))
	}
	return opts, nil
}
