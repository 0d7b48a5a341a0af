package cache

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

// clock is a manual time source.
type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func open(t *testing.T, cfg Config) (*Cache, *clock) {
	t.Helper()
	if cfg.Dir == "" {
		cfg.Dir = t.TempDir()
	}
	c, err := Open(cfg)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	clk := &clock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	c.now = clk.now
	return c, clk
}

func mustPut(t *testing.T, c *Cache, key string, art Artifact, data []byte) {
	t.Helper()
	if err := c.Put(key, art, data); err != nil {
		t.Fatalf("Put(%s) error: %v", key, err)
	}
}

func keys(c *Cache) []string {
	var out []string
	for _, e := range c.Entries() {
		out = append(out, e.Key)
	}
	return out
}

func TestCache_GetPut(t *testing.T) {
	c, _ := open(t, Config{MaxSize: 1 << 20, MaxAge: time.Hour})

	key := Key("0.1.0", "vue", "<p />")
	data := []byte("<template><p /></template>")
	mustPut(t, c, key, Artifact{Target: "vue", Source: "a.lite.tsx"}, data)

	got, ok := c.Get(key)
	if !ok {
		t.Fatal("Get() missed a stored key")
	}
	if !bytes.Equal(got, data) {
		t.Errorf("Get() = %q, want %q", got, data)
	}

	if _, ok := c.Get("missing"); ok {
		t.Error("Get() hit a missing key")
	}

	want := Stats{Hits: 1, Misses: 1, Entries: 1, Size: int64(len(data))}
	if diff := cmp.Diff(want, c.Stats()); diff != "" {
		t.Errorf("stats mismatch (-want +got):\n%s", diff)
	}
}

func TestKey(t *testing.T) {
	if Key("a", "bc") == Key("ab", "c") {
		t.Error("Key() ignores part boundaries")
	}
	if Key("0.1.0", "vue", "x") != Key("0.1.0", "vue", "x") {
		t.Error("Key() is not deterministic")
	}
	if Key("0.1.0", "vue", "x") == Key("0.2.0", "vue", "x") {
		t.Error("Key() ignores the version")
	}
}

func TestCache_Overwrite(t *testing.T) {
	c, _ := open(t, Config{})
	mustPut(t, c, "k", Artifact{Target: "react"}, []byte("old output"))
	mustPut(t, c, "k", Artifact{Target: "react"}, []byte("new"))

	got, _ := c.Get("k")
	if string(got) != "new" {
		t.Errorf("Get() = %q", got)
	}
	if s := c.Stats(); s.Entries != 1 || s.Size != 3 {
		t.Errorf("stats = %+v", s)
	}
}

func TestCache_Delete(t *testing.T) {
	c, _ := open(t, Config{})
	mustPut(t, c, "k", Artifact{Target: "json"}, []byte("{}"))

	if err := c.Delete("k"); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if _, ok := c.Get("k"); ok {
		t.Error("entry survived Delete()")
	}
	if err := c.Delete("k"); err != nil {
		t.Errorf("Delete() of a missing key: %v", err)
	}
}

func TestCache_Eviction(t *testing.T) {
	tests := []struct {
		strategy Strategy
		touch    []string
		want     []string
	}{
		// a is read last, so b is the least recently used.
		{strategy: LRU, touch: []string{"b", "a"}, want: []string{"a", "c"}},
		// a is read twice and b once.
		{strategy: LFU, touch: []string{"a", "b", "a"}, want: []string{"a", "c"}},
		// reads do not matter; a is the oldest.
		{strategy: FIFO, touch: []string{"a", "a"}, want: []string{"b", "c"}},
	}

	for _, tt := range tests {
		t.Run(tt.strategy.String(), func(t *testing.T) {
			c, clk := open(t, Config{MaxSize: 100, Strategy: tt.strategy})
			mustPut(t, c, "a", Artifact{Target: "vue"}, bytes.Repeat([]byte("a"), 40))
			clk.advance(time.Second)
			mustPut(t, c, "b", Artifact{Target: "vue"}, bytes.Repeat([]byte("b"), 40))
			for _, k := range tt.touch {
				clk.advance(time.Second)
				if _, ok := c.Get(k); !ok {
					t.Fatalf("Get(%s) missed", k)
				}
			}
			clk.advance(time.Second)
			mustPut(t, c, "c", Artifact{Target: "vue"}, bytes.Repeat([]byte("c"), 40))

			if diff := cmp.Diff(tt.want, keys(c)); diff != "" {
				t.Errorf("entries mismatch (-want +got):\n%s", diff)
			}
			if s := c.Stats(); s.Evictions != 1 || s.Size != 80 {
				t.Errorf("stats = %+v", s)
			}
		})
	}
}

func TestCache_OversizedEntryIsKept(t *testing.T) {
	c, _ := open(t, Config{MaxSize: 10})
	mustPut(t, c, "small", Artifact{Target: "vue"}, []byte("x"))
	mustPut(t, c, "big", Artifact{Target: "vue"}, bytes.Repeat([]byte("x"), 50))

	if diff := cmp.Diff([]string{"big"}, keys(c)); diff != "" {
		t.Errorf("entries mismatch (-want +got):\n%s", diff)
	}
}

func TestCache_Expiry(t *testing.T) {
	c, clk := open(t, Config{MaxAge: time.Hour})
	mustPut(t, c, "old", Artifact{Target: "vue"}, []byte("1"))
	clk.advance(45 * time.Minute)
	mustPut(t, c, "new", Artifact{Target: "vue"}, []byte("2"))
	clk.advance(30 * time.Minute)

	if _, ok := c.Get("old"); ok {
		t.Error("Get() returned an expired entry")
	}
	if _, ok := c.Get("new"); !ok {
		t.Error("Get() missed a fresh entry")
	}

	clk.advance(time.Hour)
	if n := c.Prune(); n != 1 {
		t.Errorf("Prune() = %d, want 1", n)
	}
	if s := c.Stats(); s.Entries != 0 || s.Size != 0 {
		t.Errorf("stats = %+v", s)
	}
}

func TestCache_InvalidateSource(t *testing.T) {
	c, _ := open(t, Config{})
	for _, target := range []string{"react", "vue", "liquid"} {
		mustPut(t, c, "card-"+target, Artifact{Target: target, Source: "src/card.lite.tsx"}, []byte(target))
	}
	mustPut(t, c, "list-vue", Artifact{Target: "vue", Source: "src/list.lite.tsx"}, []byte("list"))
	mustPut(t, c, "stdin-vue", Artifact{Target: "vue"}, []byte("stdin"))

	if n := c.InvalidateSource("src/../src/card.lite.tsx"); n != 3 {
		t.Errorf("InvalidateSource() = %d, want 3", n)
	}
	if diff := cmp.Diff([]string{"list-vue", "stdin-vue"}, keys(c)); diff != "" {
		t.Errorf("entries mismatch (-want +got):\n%s", diff)
	}
	if n := c.InvalidateSource("src/card.lite.tsx"); n != 0 {
		t.Errorf("second InvalidateSource() = %d", n)
	}
}

func TestCache_Persistence(t *testing.T) {
	dir := t.TempDir()
	c, _ := open(t, Config{Dir: dir})
	mustPut(t, c, "k", Artifact{Target: "react", Source: "a.lite.tsx"}, []byte("output"))
	if err := c.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	reopened, _ := open(t, Config{Dir: dir})
	got, ok := reopened.Get("k")
	if !ok || string(got) != "output" {
		t.Fatalf("Get() after reopen = %q, %v", got, ok)
	}
	entries := reopened.Entries()
	if len(entries) != 1 || entries[0].Source != "a.lite.tsx" || entries[0].Target != "react" {
		t.Errorf("entries = %+v", entries)
	}
}

func TestCache_MissingOutputFile(t *testing.T) {
	dir := t.TempDir()
	c, _ := open(t, Config{Dir: dir})
	mustPut(t, c, "k", Artifact{Target: "vue"}, []byte("x"))

	e := c.Entries()[0]
	if err := os.Remove(filepath.Join(dir, "outputs", e.File)); err != nil {
		t.Fatal(err)
	}
	if _, ok := c.Get("k"); ok {
		t.Error("Get() hit an entry whose file is gone")
	}
	if s := c.Stats(); s.Entries != 0 {
		t.Errorf("stats = %+v", s)
	}
}

func TestCache_CorruptIndex(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.json"), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	c, _ := open(t, Config{Dir: dir})
	if s := c.Stats(); s.Entries != 0 {
		t.Errorf("stats = %+v", s)
	}
	mustPut(t, c, "k", Artifact{Target: "vue"}, []byte("x"))
}

func TestCache_Clear(t *testing.T) {
	c, _ := open(t, Config{})
	for i := 0; i < 5; i++ {
		mustPut(t, c, fmt.Sprintf("k%d", i), Artifact{Target: "vue"}, []byte("data"))
	}
	if err := c.Clear(); err != nil {
		t.Fatalf("Clear() error: %v", err)
	}
	if s := c.Stats(); s.Entries != 0 || s.Size != 0 {
		t.Errorf("stats = %+v", s)
	}
	mustPut(t, c, "after", Artifact{Target: "vue"}, []byte("x"))
}

func TestCache_Concurrent(t *testing.T) {
	c, err := Open(Config{Dir: t.TempDir(), MaxSize: 1 << 10})
	if err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				key := Key("v", fmt.Sprint(i), fmt.Sprint(j))
				if err := c.Put(key, Artifact{Target: "vue"}, bytes.Repeat([]byte{'x'}, 32)); err != nil {
					t.Error(err)
					return
				}
				c.Get(key)
			}
		}(i)
	}
	wg.Wait()

	if s := c.Stats(); s.Size > 1<<10 {
		t.Errorf("size %d exceeds the limit", s.Size)
	}
}

func TestParseStrategy(t *testing.T) {
	for in, want := range map[string]Strategy{"": LRU, "LRU": LRU, "lfu": LFU, " fifo ": FIFO} {
		got, err := ParseStrategy(in)
		if err != nil || got != want {
			t.Errorf("ParseStrategy(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseStrategy("random"); err == nil {
		t.Error("expected an error for an unknown strategy")
	}
}
