// Package build compiles a tree of component files into per-target output
// files, reusing cached outputs for unchanged sources.
package build

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/recera/jsxlite/cmd/jsxlite/internal/config"
	"github.com/recera/jsxlite/internal/cache"
	"github.com/recera/jsxlite/pkg/compiler"
)

// Extensions maps a target onto the suffix of its output files.
var Extensions = map[string]string{
	"react":  ".jsx",
	"vue":    ".vue",
	"liquid": ".liquid",
	"json":   ".json",
}

// Builder is safe for concurrent use.
type Builder struct {
	cfg      *config.Config
	compiler *compiler.Compiler
	cache    *cache.Cache
	targets  []string

	// fingerprint covers the settings that change generated text.
	fingerprint string
}

// New creates a builder for the given targets. c may be nil to disable
// caching. No targets means the configured ones.
func New(cfg *config.Config, c *cache.Cache, targets ...string) (*Builder, error) {
	if len(targets) == 0 {
		targets = cfg.Targets
	}
	comp := compiler.New(cfg.CompilerOptions())

	seen := make(map[string]bool)
	var resolved []string
	for _, t := range targets {
		name := compiler.Resolve(t)
		if !contains(comp.Targets(), name) {
			return nil, fmt.Errorf("unknown target %q (available: %s)", t, strings.Join(comp.Targets(), ", "))
		}
		if !seen[name] {
			seen[name] = true
			resolved = append(resolved, name)
		}
	}

	return &Builder{
		cfg:      cfg,
		compiler: comp,
		cache:    c,
		targets:  resolved,
		fingerprint: strings.Join([]string{
			compiler.Version,
			cfg.CoreModule,
			cfg.Liquid.Logic,
			strings.Join(cfg.VoidElements, ","),
		}, "|"),
	}, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// Targets returns the canonical target names in build order.
func (b *Builder) Targets() []string {
	return append([]string(nil), b.targets...)
}

// Compiler returns the underlying compiler.
func (b *Builder) Compiler() *compiler.Compiler {
	return b.compiler
}

// Output is one generated file.
type Output struct {
	Target string
	Path   string // empty until written
	Text   string
	Cached bool
	Err    error
}

// FileResult is the outcome of compiling one source file.
type FileResult struct {
	Source  string
	Outputs []Output
	Err     error // read or parse failure; Outputs is empty
}

// Failed reports whether the file or any of its outputs failed.
func (r *FileResult) Failed() bool {
	if r.Err != nil {
		return true
	}
	for _, out := range r.Outputs {
		if out.Err != nil {
			return true
		}
	}
	return false
}

// Discover returns the component files under dir, skipping hidden
// directories and node_modules.
func Discover(cfg *config.Config, dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && (strings.HasPrefix(d.Name(), ".") || d.Name() == "node_modules") {
				return filepath.SkipDir
			}
			return nil
		}
		if cfg.IsSource(path) {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// OutputPath returns where the output for source and target is written:
// outDir/<target>/<path of source below srcDir with the target suffix>.
func (b *Builder) OutputPath(source, target string) string {
	rel, err := filepath.Rel(b.cfg.SrcDir, source)
	if err != nil || strings.HasPrefix(rel, "..") {
		rel = filepath.Base(source)
	}
	for _, ext := range b.cfg.Extensions {
		if strings.HasSuffix(rel, ext) {
			rel = strings.TrimSuffix(rel, ext)
			break
		}
	}
	return filepath.Join(b.cfg.OutDir, target, rel+Extensions[target])
}

// Compile compiles src for every target, taking outputs from the cache when
// possible. filename is used for error positions and cache invalidation.
func (b *Builder) Compile(ctx context.Context, filename string, src []byte) *FileResult {
	res := &FileResult{Source: filename}
	outputs := make([]Output, len(b.targets))
	var missing []string

	for i, target := range b.targets {
		outputs[i].Target = target
		if b.cache == nil {
			missing = append(missing, target)
			continue
		}
		if data, ok := b.cache.Get(b.key(target, src)); ok {
			outputs[i].Text = string(data)
			outputs[i].Cached = true
			continue
		}
		missing = append(missing, target)
	}

	if len(missing) > 0 {
		compiled, err := b.compiler.Compile(ctx, filename, src, missing...)
		if err != nil {
			res.Err = err
			return res
		}
		for i := range outputs {
			if outputs[i].Cached {
				continue
			}
			out, _ := compiled.Output(outputs[i].Target)
			outputs[i].Text, outputs[i].Err = out.Text, out.Err
			if out.Err == nil && b.cache != nil {
				art := cache.Artifact{Target: out.Target, Source: filename}
				if err := b.cache.Put(b.key(out.Target, src), art, []byte(out.Text)); err != nil {
					outputs[i].Err = err
				}
			}
		}
	}

	res.Outputs = outputs
	return res
}

func (b *Builder) key(target string, src []byte) string {
	return cache.Key(b.fingerprint, target, string(src))
}

// Check parses src for the builder's targets without generating anything.
func (b *Builder) Check(ctx context.Context, filename string, src []byte) error {
	_, err := b.compiler.Parse(ctx, filename, src, b.targets...)
	return err
}

// BuildFile compiles one file and writes its outputs.
func (b *Builder) BuildFile(ctx context.Context, path string) *FileResult {
	src, err := os.ReadFile(path)
	if err != nil {
		return &FileResult{Source: path, Err: err}
	}
	res := b.Compile(ctx, path, src)
	for i := range res.Outputs {
		out := &res.Outputs[i]
		if out.Err != nil {
			continue
		}
		out.Path = b.OutputPath(path, out.Target)
		if err := writeFile(out.Path, out.Text); err != nil {
			out.Err = err
		}
	}
	return res
}

// Build compiles files with at most cfg.Jobs running at once. Results are
// in the order of files. The error is non-nil only if ctx was cancelled.
func (b *Builder) Build(ctx context.Context, files []string) ([]*FileResult, error) {
	results := make([]*FileResult, len(files))
	var g errgroup.Group
	g.SetLimit(max(b.cfg.Jobs, 1))

	for i, file := range files {
		if ctx.Err() != nil {
			break
		}
		i, file := i, file
		g.Go(func() error {
			results[i] = b.BuildFile(ctx, file)
			return nil
		})
	}
	g.Wait()
	return results, ctx.Err()
}

// Remove deletes the outputs of a source that no longer exists and drops
// its cache entries.
func (b *Builder) Remove(path string) (int, error) {
	n := 0
	if b.cache != nil {
		n = b.cache.InvalidateSource(path)
	}
	var firstErr error
	for _, target := range b.targets {
		err := os.Remove(b.OutputPath(path, target))
		if err != nil && !os.IsNotExist(err) && firstErr == nil {
			firstErr = err
		}
	}
	return n, firstErr
}

func writeFile(path, text string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(text), 0644)
}
