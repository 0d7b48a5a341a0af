// Package cache stores generated outputs on disk so unchanged sources are
// not recompiled. Entries are keyed by compiler version, target and source
// text, and remember which source file produced them.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

const indexVersion = 1

// Strategy picks the entry evicted when the cache is over size.
type Strategy int

const (
	LRU  Strategy = iota // least recently used
	LFU                  // least frequently used
	FIFO                 // oldest first
)

func (s Strategy) String() string {
	switch s {
	case LFU:
		return "lfu"
	case FIFO:
		return "fifo"
	default:
		return "lru"
	}
}

// ParseStrategy reads a strategy name. The empty string means LRU.
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "lru":
		return LRU, nil
	case "lfu":
		return LFU, nil
	case "fifo":
		return FIFO, nil
	}
	return LRU, fmt.Errorf("unknown eviction strategy %q", s)
}

// Artifact describes what an entry holds.
type Artifact struct {
	Target string `json:"target"`
	Source string `json:"source,omitempty"`
}

// Entry is the index record of one cached output.
type Entry struct {
	Artifact
	Key        string    `json:"key"`
	File       string    `json:"file"`
	Size       int64     `json:"size"`
	Created    time.Time `json:"created"`
	LastAccess time.Time `json:"lastAccess"`
	Hits       int       `json:"hits"`
}

type index struct {
	Version int               `json:"version"`
	Entries map[string]*Entry `json:"entries"`
}

// Stats reports cache activity since it was opened.
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	Entries   int
	Size      int64
}

// Config configures a Cache.
type Config struct {
	Dir      string
	MaxSize  int64         // bytes; 0 means unbounded
	MaxAge   time.Duration // 0 means entries never expire
	Strategy Strategy
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() Config {
	dir := filepath.Join(os.TempDir(), "jsxlite-cache")
	if base, err := os.UserCacheDir(); err == nil {
		dir = filepath.Join(base, "jsxlite")
	}
	return Config{
		Dir:      dir,
		MaxSize:  64 << 20,
		MaxAge:   7 * 24 * time.Hour,
		Strategy: LRU,
	}
}

// Cache is safe for concurrent use.
type Cache struct {
	mu    sync.Mutex
	cfg   Config
	idx   *index
	size  int64
	stats Stats
	now   func() time.Time
}

// Open loads or creates the cache in cfg.Dir and drops expired entries.
func Open(cfg Config) (*Cache, error) {
	if cfg.Dir == "" {
		return nil, errors.New("cache: no directory configured")
	}
	if err := os.MkdirAll(filepath.Join(cfg.Dir, "outputs"), 0o755); err != nil {
		return nil, fmt.Errorf("cache: %w", err)
	}

	c := &Cache{cfg: cfg, now: time.Now}
	if err := c.load(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.pruneLocked()
	c.mu.Unlock()
	return c, nil
}

// Key derives an entry key from its inputs, typically the compiler version,
// the target and the source text.
func Key(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		fmt.Fprintf(h, "%d:%s;", len(p), p)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns the output stored under key.
func (c *Cache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.idx.Entries[key]
	if !ok || c.expired(e) {
		if ok {
			c.removeLocked(e)
		}
		c.stats.Misses++
		return nil, false
	}

	data, err := os.ReadFile(c.path(e))
	if err != nil {
		c.removeLocked(e)
		c.stats.Misses++
		return nil, false
	}

	e.LastAccess = c.now()
	e.Hits++
	c.stats.Hits++
	return data, true
}

// Put stores data under key, evicting older entries if the cache grows past
// its size limit.
func (c *Cache) Put(key string, art Artifact, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if old, ok := c.idx.Entries[key]; ok {
		c.removeLocked(old)
	}

	now := c.now()
	e := &Entry{
		Artifact:   art,
		Key:        key,
		File:       fileName(key, art.Target),
		Size:       int64(len(data)),
		Created:    now,
		LastAccess: now,
	}
	if err := os.WriteFile(c.path(e), data, 0o644); err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	c.idx.Entries[key] = e
	c.size += e.Size

	c.evictLocked(key)
	return c.saveLocked()
}

// Delete removes one entry. Deleting a missing key is not an error.
func (c *Cache) Delete(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.idx.Entries[key]
	if !ok {
		return nil
	}
	c.removeLocked(e)
	return c.saveLocked()
}

// InvalidateSource drops every entry produced from the source file at path
// and returns how many were removed.
func (c *Cache) InvalidateSource(path string) int {
	path = filepath.Clean(path)

	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for _, e := range c.sortedLocked() {
		if e.Source != "" && filepath.Clean(e.Source) == path {
			c.removeLocked(e)
			n++
		}
	}
	if n > 0 {
		c.saveIndex()
	}
	return n
}

// Prune drops expired entries and returns how many were removed.
func (c *Cache) Prune() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pruneLocked()
}

// Clear removes every entry.
func (c *Cache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := os.RemoveAll(filepath.Join(c.cfg.Dir, "outputs")); err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	if err := os.MkdirAll(filepath.Join(c.cfg.Dir, "outputs"), 0o755); err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	c.idx.Entries = make(map[string]*Entry)
	c.size = 0
	return c.saveLocked()
}

// Entries returns a copy of the index records, oldest first.
func (c *Cache) Entries() []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []Entry
	for _, e := range c.sortedLocked() {
		out = append(out, *e)
	}
	return out
}

// Stats returns a snapshot of cache activity.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.stats
	s.Entries = len(c.idx.Entries)
	s.Size = c.size
	return s
}

// Close writes the index. Access times recorded by Get are only persisted
// here.
func (c *Cache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.saveLocked()
}

func (c *Cache) load() error {
	c.idx = &index{Version: indexVersion, Entries: make(map[string]*Entry)}

	data, err := os.ReadFile(filepath.Join(c.cfg.Dir, "index.json"))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}

	var idx index
	if err := json.Unmarshal(data, &idx); err != nil || idx.Version != indexVersion || idx.Entries == nil {
		log.Printf("⚠️  Discarding unreadable cache index in %s", c.cfg.Dir)
		return nil
	}
	for key, e := range idx.Entries {
		if _, err := os.Stat(c.path(e)); err != nil {
			delete(idx.Entries, key)
			continue
		}
		c.size += e.Size
	}
	c.idx = &idx
	return nil
}

func (c *Cache) saveLocked() error {
	data, err := json.MarshalIndent(c.idx, "", "  ")
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	tmp := filepath.Join(c.cfg.Dir, "index.json.tmp")
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	if err := os.Rename(tmp, filepath.Join(c.cfg.Dir, "index.json")); err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	return nil
}

// saveIndex is saveLocked for callers that cannot return an error.
func (c *Cache) saveIndex() {
	if err := c.saveLocked(); err != nil {
		log.Printf("⚠️  %v", err)
	}
}

func (c *Cache) expired(e *Entry) bool {
	return c.cfg.MaxAge > 0 && c.now().Sub(e.Created) > c.cfg.MaxAge
}

func (c *Cache) pruneLocked() int {
	n := 0
	for _, e := range c.sortedLocked() {
		if c.expired(e) {
			c.removeLocked(e)
			n++
		}
	}
	if n > 0 {
		c.saveIndex()
	}
	return n
}

// evictLocked removes entries until the cache fits, never evicting keep.
func (c *Cache) evictLocked(keep string) {
	if c.cfg.MaxSize <= 0 {
		return
	}
	for c.size > c.cfg.MaxSize {
		victim := c.victim(keep)
		if victim == nil {
			return
		}
		c.removeLocked(victim)
		c.stats.Evictions++
	}
}

func (c *Cache) victim(keep string) *Entry {
	var best *Entry
	for _, e := range c.sortedLocked() {
		if e.Key == keep {
			continue
		}
		if best == nil || c.before(e, best) {
			best = e
		}
	}
	return best
}

// before reports whether a should be evicted ahead of b.
func (c *Cache) before(a, b *Entry) bool {
	switch c.cfg.Strategy {
	case LFU:
		if a.Hits != b.Hits {
			return a.Hits < b.Hits
		}
		return a.LastAccess.Before(b.LastAccess)
	case FIFO:
		return a.Created.Before(b.Created)
	default:
		return a.LastAccess.Before(b.LastAccess)
	}
}

// sortedLocked returns entries by creation time, then key, so that
// iteration and ties do not depend on map order.
func (c *Cache) sortedLocked() []*Entry {
	out := make([]*Entry, 0, len(c.idx.Entries))
	for _, e := range c.idx.Entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Created.Equal(out[j].Created) {
			return out[i].Created.Before(out[j].Created)
		}
		return out[i].Key < out[j].Key
	})
	return out
}

func (c *Cache) removeLocked(e *Entry) {
	if err := os.Remove(c.path(e)); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("⚠️  Failed to remove cached output %s: %v", e.File, err)
	}
	delete(c.idx.Entries, e.Key)
	c.size -= e.Size
}

func (c *Cache) path(e *Entry) string {
	return filepath.Join(c.cfg.Dir, "outputs", e.File)
}

func fileName(key, target string) string {
	var b strings.Builder
	for _, r := range target {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		b.WriteString("out")
	}
	return b.String() + "_" + key[:min(len(key), 16)]
}
