// Package compiler runs one parse and any number of generators over the
// resulting IR. Generators share the IR and run concurrently; a failing
// generator only fails its own output.
package compiler

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/recera/jsxlite/pkg/generator"
	"github.com/recera/jsxlite/pkg/generator/dump"
	"github.com/recera/jsxlite/pkg/generator/liquid"
	"github.com/recera/jsxlite/pkg/generator/react"
	"github.com/recera/jsxlite/pkg/generator/vue"
	"github.com/recera/jsxlite/pkg/ir"
	"github.com/recera/jsxlite/pkg/naming"
	"github.com/recera/jsxlite/pkg/parser"
)

// Version identifies the output format. It is part of every cache key.
const Version = "0.1.0"

// DefaultTarget is used when a caller names none.
const DefaultTarget = vue.Target

var aliases = map[string]string{
	"builder": dump.Target,
}

// Resolve maps a target name or alias onto its canonical name.
func Resolve(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if canonical, ok := aliases[name]; ok {
		return canonical
	}
	return name
}

// Options configures a Compiler.
type Options struct {
	// Tags is shared by the parser and every generator. Nil means
	// naming.Default().
	Tags *naming.Table

	// CoreModule overrides parser.DefaultCoreModule.
	CoreModule string

	// LiquidLogic decides how the liquid target treats behavior.
	LiquidLogic liquid.LogicPolicy
}

// target is a registered generator.
type target struct {
	gen generator.Generator

	// logic reports whether pass-through statements survive this target.
	logic bool
}

// Compiler is safe for concurrent use.
type Compiler struct {
	opts    Options
	targets map[string]target
}

// New creates a compiler with every built-in target registered.
func New(opts Options) *Compiler {
	opts.Tags = opts.Tags.Or()
	return &Compiler{
		opts: opts,
		targets: map[string]target{
			react.Target:  {gen: react.New(react.Options{Tags: opts.Tags}), logic: true},
			vue.Target:    {gen: vue.New(vue.Options{Tags: opts.Tags}), logic: true},
			liquid.Target: {gen: liquid.New(liquid.Options{Logic: opts.LiquidLogic, Tags: opts.Tags})},
			dump.Target:   {gen: dump.New(), logic: true},
		},
	}
}

// Targets returns the canonical target names, sorted.
func (c *Compiler) Targets() []string {
	names := make([]string, 0, len(c.targets))
	for name := range c.targets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SupportsLogic reports whether a target keeps pass-through statements.
func (c *Compiler) SupportsLogic(name string) bool {
	t, ok := c.targets[Resolve(name)]
	return ok && t.logic
}

// Output is the result of one generator.
type Output struct {
	Target string
	Text   string
	Err    error
}

// Result is the result of one compile request.
type Result struct {
	Component *ir.Component

	// Outputs holds one entry per requested target, in request order.
	Outputs []Output
}

// Output returns the output for a target name or alias.
func (r *Result) Output(name string) (Output, bool) {
	name = Resolve(name)
	for _, out := range r.Outputs {
		if out.Target == name {
			return out, true
		}
	}
	return Output{}, false
}

// Err returns the first generator error, if any.
func (r *Result) Err() error {
	for _, out := range r.Outputs {
		if out.Err != nil {
			return out.Err
		}
	}
	return nil
}

// resolveTargets canonicalizes and deduplicates target names.
func (c *Compiler) resolveTargets(names []string) ([]string, error) {
	if len(names) == 0 {
		names = []string{DefaultTarget}
	}
	seen := make(map[string]bool)
	var out []string
	for _, name := range names {
		canonical := Resolve(name)
		if _, ok := c.targets[canonical]; !ok {
			return nil, fmt.Errorf("unknown target %q (available: %s)", name, strings.Join(c.Targets(), ", "))
		}
		if !seen[canonical] {
			seen[canonical] = true
			out = append(out, canonical)
		}
	}
	return out, nil
}

// Parse parses src for the given targets. Pass-through logic is accepted
// only when every target keeps it.
func (c *Compiler) Parse(ctx context.Context, filename string, src []byte, targets ...string) (*ir.Component, error) {
	names, err := c.resolveTargets(targets)
	if err != nil {
		return nil, err
	}
	return c.parse(ctx, filename, src, names)
}

func (c *Compiler) parse(ctx context.Context, filename string, src []byte, targets []string) (*ir.Component, error) {
	allowLogic := true
	for _, name := range targets {
		allowLogic = allowLogic && c.targets[name].logic
	}
	return parser.Parse(ctx, src, parser.Options{
		Filename:   filename,
		CoreModule: c.opts.CoreModule,
		AllowLogic: allowLogic,
		Tags:       c.opts.Tags,
	})
}

// Compile parses src once and runs every requested generator on the IR.
// The returned error covers the parse and unknown targets; generator
// failures are reported per output.
func (c *Compiler) Compile(ctx context.Context, filename string, src []byte, targets ...string) (*Result, error) {
	names, err := c.resolveTargets(targets)
	if err != nil {
		return nil, err
	}
	comp, err := c.parse(ctx, filename, src, names)
	if err != nil {
		return nil, err
	}
	return &Result{Component: comp, Outputs: c.generate(comp, names)}, nil
}

// Generate runs the requested generators on an existing component.
func (c *Compiler) Generate(comp *ir.Component, targets ...string) (*Result, error) {
	names, err := c.resolveTargets(targets)
	if err != nil {
		return nil, err
	}
	return &Result{Component: comp, Outputs: c.generate(comp, names)}, nil
}

func (c *Compiler) generate(comp *ir.Component, names []string) []Output {
	outputs := make([]Output, len(names))
	var wg sync.WaitGroup
	for i, name := range names {
		wg.Add(1)
		go func(i int, name string) {
			defer wg.Done()
			outputs[i] = run(name, c.targets[name].gen, comp)
		}(i, name)
	}
	wg.Wait()
	return outputs
}

// run calls one generator, turning a panic into an error so it cannot take
// the other outputs down with it.
func run(name string, gen generator.Generator, comp *ir.Component) (out Output) {
	out.Target = name
	defer func() {
		if r := recover(); r != nil {
			out.Text = ""
			out.Err = fmt.Errorf("%s: generator panicked: %v", name, r)
		}
	}()
	out.Text, out.Err = gen.Generate(comp)
	return out
}
