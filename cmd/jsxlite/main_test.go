package main

import (
	"bytes"
	"context"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/recera/jsxlite/cmd/jsxlite/internal/build"
	"github.com/recera/jsxlite/cmd/jsxlite/internal/config"
	"github.com/recera/jsxlite/cmd/jsxlite/internal/watch"
)

const card = `export default function Card(props) {
  return <div className="card">{props.title}</div>;
}
`

// setupProject writes a jsxlite.yaml and one component into a temp dir and
// points projectDir at it.
func setupProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	yaml := "targets: [react, liquid]\ncache:\n  dir: " + filepath.Join(dir, ".cache") + "\n"
	if err := os.WriteFile(filepath.Join(dir, "jsxlite.yaml"), []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(dir, "src"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "src", "card.lite.tsx"), []byte(card), 0644); err != nil {
		t.Fatal(err)
	}

	old := projectDir
	projectDir = dir
	t.Cleanup(func() { projectDir = old })
	return dir
}

func TestCompileCommand(t *testing.T) {
	dir := setupProject(t)

	cmd := newCompileCommand()
	cmd.SetArgs(nil)
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("compile: %v", err)
	}

	react, err := os.ReadFile(filepath.Join(dir, "dist", "react", "card.jsx"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(react), `<div className="card">{props.title}</div>`) {
		t.Errorf("react output:\n%s", react)
	}
	liquid, err := os.ReadFile(filepath.Join(dir, "dist", "liquid", "card.liquid"))
	if err != nil {
		t.Fatal(err)
	}
	if want := "<div class=\"card\">{{ props.title }}</div>\n"; string(liquid) != want {
		t.Errorf("liquid output = %q, want %q", liquid, want)
	}
	if _, err := os.Stat(filepath.Join(dir, ".cache", "index.json")); err != nil {
		t.Errorf("cache index not written: %v", err)
	}
}

func TestCompileCommand_Stdout(t *testing.T) {
	setupProject(t)

	var out bytes.Buffer
	cmd := newCompileCommand()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--stdout", "--no-cache", "--target", "vue"})
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("compile: %v", err)
	}
	if !strings.Contains(out.String(), `<div class="card">{{ props.title }}</div>`) {
		t.Errorf("stdout:\n%s", out.String())
	}
	if strings.Contains(out.String(), "// ==>") {
		t.Errorf("single output printed with a header:\n%s", out.String())
	}
}

func TestCheckCommand(t *testing.T) {
	dir := setupProject(t)
	bad := filepath.Join(dir, "src", "clock.lite.tsx")
	src := "export default function Clock() {\n  const now = Date.now();\n  return <p>{now}</p>;\n}\n"
	if err := os.WriteFile(bad, []byte(src), 0644); err != nil {
		t.Fatal(err)
	}

	cmd := newCheckCommand()
	cmd.SetArgs(nil)
	err := cmd.ExecuteContext(context.Background())
	if err == nil || !strings.Contains(err.Error(), "1 of 2") {
		t.Errorf("check with liquid target: %v", err)
	}

	cmd = newCheckCommand()
	cmd.SetArgs([]string{"--target", "react", bad})
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		t.Errorf("check with react target: %v", err)
	}
}

func TestRebuild_LogsBuildError(t *testing.T) {
	dir := setupProject(t)
	cfg := config.DefaultConfig()
	cfg.SrcDir = filepath.Join(dir, "src")
	cfg.OutDir = filepath.Join(dir, "dist")
	b, err := build.New(cfg, nil)
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	log.SetOutput(&buf)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rebuild(ctx, b, watch.Batch{Changed: []string{filepath.Join(cfg.SrcDir, "card.lite.tsx")}})
	if !strings.Contains(buf.String(), "⚠️  Rebuild failed: context canceled") {
		t.Errorf("log output:\n%s", buf.String())
	}

	buf.Reset()
	rebuild(context.Background(), b, watch.Batch{Changed: []string{filepath.Join(cfg.SrcDir, "card.lite.tsx")}})
	if !strings.Contains(buf.String(), "✅ Compiled card.lite.tsx") {
		t.Errorf("log output:\n%s", buf.String())
	}
}
