package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/recera/jsxlite/internal/cache"
	"github.com/recera/jsxlite/pkg/generator/liquid"
)

func TestLoad_MissingFile(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if diff := cmp.Diff(DefaultConfig(), cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_Overrides(t *testing.T) {
	cfg, err := Parse([]byte(`
targets: [react, builder]
srcDir: components
jobs: 2
voidElements: [img, x-icon]
liquid:
  logic: reject
cache:
  maxAge: 2h
  strategy: lfu
serve:
  port: 8080
`))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}

	defaults := DefaultConfig()
	want := DefaultConfig()
	want.Targets = []string{"react", "builder"}
	want.SrcDir = "components"
	want.Jobs = 2
	want.VoidElements = []string{"img", "x-icon"}
	want.Liquid.Logic = "reject"
	want.Cache.MaxAge = 2 * time.Hour
	want.Cache.Strategy = "lfu"
	want.Serve.Port = 8080
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}

	if !cfg.CacheEnabled() {
		t.Error("a cache section without enabled disabled the cache")
	}
	if got := cfg.Addr(); got != defaults.Serve.Host+":8080" {
		t.Errorf("Addr() = %q", got)
	}

	opts := cfg.CompilerOptions()
	if opts.LiquidLogic != liquid.RejectLogic {
		t.Errorf("LiquidLogic = %v", opts.LiquidLogic)
	}
	if opts.Tags == nil || !opts.Tags.IsVoid("x-icon") || opts.Tags.IsVoid("br") {
		t.Error("voidElements did not replace the void set")
	}

	cc := cfg.CacheOptions()
	if cc.Strategy != cache.LFU || cc.MaxAge != 2*time.Hour {
		t.Errorf("CacheOptions() = %+v", cc)
	}
}

func TestParse_CacheDisabled(t *testing.T) {
	cfg, err := Parse([]byte("cache:\n  enabled: false\n"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.CacheEnabled() {
		t.Error("CacheEnabled() = true")
	}
	if cfg.Cache.Dir == "" {
		t.Error("cache dir default not applied")
	}
}

func TestParse_Empty(t *testing.T) {
	cfg, err := Parse(nil)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if diff := cmp.Diff(DefaultConfig(), cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"unknown key", "targetz: [vue]\n", "targetz"},
		{"unknown target", "targets: [svelte]\n", `unknown target "svelte"`},
		{"extension", "extensions: [tsx]\n", "must start with a dot"},
		{"logic policy", "liquid:\n  logic: keep\n", "liquid.logic"},
		{"strategy", "cache:\n  strategy: random\n", "cache.strategy"},
		{"port", "serve:\n  port: 70000\n", "serve.port"},
		{"bad duration", "cache:\n  maxAge: soon\n", FileName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.in))
			if err == nil {
				t.Fatal("Parse() succeeded, expected an error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestSaveLoad(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.Targets = []string{"vue", "liquid"}
	cfg.Cache.MaxAge = 90 * time.Minute

	if err := Save(cfg, dir); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, FileName)); err != nil {
		t.Fatal(err)
	}
	got, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if diff := cmp.Diff(cfg, got); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestIsSource(t *testing.T) {
	cfg := DefaultConfig()
	for path, want := range map[string]bool{
		"src/card.lite.tsx": true,
		"card.lite.jsx":     true,
		"card.tsx":          false,
		"card.lite.tsx.bak": false,
	} {
		if got := cfg.IsSource(path); got != want {
			t.Errorf("IsSource(%q) = %v", path, got)
		}
	}
}
