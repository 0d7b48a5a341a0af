package build

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/recera/jsxlite/cmd/jsxlite/internal/config"
	"github.com/recera/jsxlite/internal/cache"
	"github.com/recera/jsxlite/pkg/parser"
)

const greeting = `export default function Greeting(props) {
  return <h1 className="title">Hello {props.name}</h1>;
}
`

const broken = `export default function Broken() {
  if (x) {}
  return <p />;
}
`

// project lays out files below a temp dir and returns a config rooted there.
func project(t *testing.T, files map[string]string) *config.Config {
	t.Helper()
	root := t.TempDir()
	for name, text := range files {
		path := filepath.Join(root, "src", name)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(text), 0644); err != nil {
			t.Fatal(err)
		}
	}
	cfg := config.DefaultConfig()
	cfg.SrcDir = filepath.Join(root, "src")
	cfg.OutDir = filepath.Join(root, "dist")
	cfg.Jobs = 2
	return cfg
}

func openCache(t *testing.T) *cache.Cache {
	t.Helper()
	c, err := cache.Open(cache.Config{Dir: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestDiscover(t *testing.T) {
	cfg := project(t, map[string]string{
		"greeting.lite.tsx":            greeting,
		"cards/card.lite.jsx":          greeting,
		"notes.md":                     "",
		".hidden/skip.lite.tsx":        greeting,
		"node_modules/x/skip.lite.tsx": greeting,
	})
	files, err := Discover(cfg, cfg.SrcDir)
	if err != nil {
		t.Fatalf("Discover() error: %v", err)
	}
	var rel []string
	for _, f := range files {
		r, _ := filepath.Rel(cfg.SrcDir, f)
		rel = append(rel, filepath.ToSlash(r))
	}
	want := []string{"cards/card.lite.jsx", "greeting.lite.tsx"}
	if diff := cmp.Diff(want, rel); diff != "" {
		t.Errorf("files mismatch (-want +got):\n%s", diff)
	}
}

func TestOutputPath(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.SrcDir = "src"
	cfg.OutDir = "dist"
	b, err := New(cfg, nil, "react", "builder")
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		source, target, want string
	}{
		{"src/cards/card.lite.tsx", "react", "dist/react/cards/card.jsx"},
		{"src/card.lite.jsx", "json", "dist/json/card.json"},
		{"elsewhere/card.lite.tsx", "vue", "dist/vue/card.vue"},
	}
	for _, tt := range tests {
		if got := b.OutputPath(tt.source, tt.target); got != filepath.FromSlash(tt.want) {
			t.Errorf("OutputPath(%q, %q) = %q, want %q", tt.source, tt.target, got, tt.want)
		}
	}
	if diff := cmp.Diff([]string{"react", "json"}, b.Targets()); diff != "" {
		t.Errorf("targets mismatch (-want +got):\n%s", diff)
	}
}

func TestNew_UnknownTarget(t *testing.T) {
	if _, err := New(config.DefaultConfig(), nil, "svelte"); err == nil || !strings.Contains(err.Error(), "svelte") {
		t.Errorf("err = %v", err)
	}
}

func TestBuild(t *testing.T) {
	cfg := project(t, map[string]string{
		"greeting.lite.tsx": greeting,
		"broken.lite.tsx":   broken,
	})
	b, err := New(cfg, openCache(t), "vue", "liquid")
	if err != nil {
		t.Fatal(err)
	}
	files, err := Discover(cfg, cfg.SrcDir)
	if err != nil {
		t.Fatal(err)
	}
	results, err := b.Build(context.Background(), files)
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}

	byName := make(map[string]*FileResult)
	for _, r := range results {
		byName[filepath.Base(r.Source)] = r
	}

	var perr *parser.Error
	if r := byName["broken.lite.tsx"]; !r.Failed() || !errors.As(r.Err, &perr) {
		t.Errorf("broken result = %+v", r)
	}

	r := byName["greeting.lite.tsx"]
	if r.Failed() {
		t.Fatalf("greeting failed: %+v", r)
	}
	vue, err := os.ReadFile(filepath.Join(cfg.OutDir, "vue", "greeting.vue"))
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{`<h1 class="title">`, "{{ props.name }}", "defineProps(['name'])"} {
		if !strings.Contains(string(vue), want) {
			t.Errorf("vue output lacks %q:\n%s", want, vue)
		}
	}
	liquid, err := os.ReadFile(filepath.Join(cfg.OutDir, "liquid", "greeting.liquid"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(liquid), `<h1 class="title">`) || strings.Contains(string(liquid), "script") {
		t.Errorf("liquid output:\n%s", liquid)
	}
}

func TestCompile_UsesCache(t *testing.T) {
	b, err := New(config.DefaultConfig(), openCache(t), "react", "json")
	if err != nil {
		t.Fatal(err)
	}
	first := b.Compile(context.Background(), "g.lite.tsx", []byte(greeting))
	second := b.Compile(context.Background(), "g.lite.tsx", []byte(greeting))
	if first.Failed() || second.Failed() {
		t.Fatalf("compile failed: %+v %+v", first, second)
	}
	for i := range first.Outputs {
		if first.Outputs[i].Cached {
			t.Errorf("%s: first compile was cached", first.Outputs[i].Target)
		}
		if !second.Outputs[i].Cached {
			t.Errorf("%s: second compile missed the cache", second.Outputs[i].Target)
		}
		if first.Outputs[i].Text != second.Outputs[i].Text {
			t.Errorf("%s: cached text differs", first.Outputs[i].Target)
		}
	}

	changed := b.Compile(context.Background(), "g.lite.tsx", []byte(strings.Replace(greeting, "Hello", "Hi", 1)))
	if changed.Outputs[0].Cached {
		t.Error("edited source was served from the cache")
	}
}

func TestRemove(t *testing.T) {
	cfg := project(t, map[string]string{"greeting.lite.tsx": greeting})
	c := openCache(t)
	b, err := New(cfg, c, "react", "vue")
	if err != nil {
		t.Fatal(err)
	}
	source := filepath.Join(cfg.SrcDir, "greeting.lite.tsx")
	if r := b.BuildFile(context.Background(), source); r.Failed() {
		t.Fatalf("BuildFile() = %+v", r)
	}

	n, err := b.Remove(source)
	if err != nil {
		t.Fatalf("Remove() error: %v", err)
	}
	if n != 2 {
		t.Errorf("Remove() invalidated %d entries, want 2", n)
	}
	for _, target := range []string{"react", "vue"} {
		if _, err := os.Stat(b.OutputPath(source, target)); !os.IsNotExist(err) {
			t.Errorf("%s output survived: %v", target, err)
		}
	}
	if s := c.Stats(); s.Entries != 0 {
		t.Errorf("cache stats = %+v", s)
	}
}

func TestBuild_Cancelled(t *testing.T) {
	cfg := project(t, map[string]string{"greeting.lite.tsx": greeting})
	b, err := New(cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := b.Build(ctx, []string{filepath.Join(cfg.SrcDir, "greeting.lite.tsx")}); !errors.Is(err, context.Canceled) {
		t.Errorf("Build() error = %v", err)
	}
}
