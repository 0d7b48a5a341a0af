package compiler

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/recera/jsxlite/pkg/generator"
	"github.com/recera/jsxlite/pkg/generator/dump"
	"github.com/recera/jsxlite/pkg/generator/liquid"
	"github.com/recera/jsxlite/pkg/ir"
	"github.com/recera/jsxlite/pkg/parser"
)

const counterSrc = `import { useState } from '@jsx-lite/core';

export default function Counter() {
  const state = useState({ count: 0 });

  return (
    <div>
      <button onClick={() => state.count++}>{state.count}</button>
      <img src="logo.png">ignored</img>
    </div>
  );
}
`

func TestCompile_AllTargets(t *testing.T) {
	c := New(Options{})
	res, err := c.Compile(context.Background(), "counter.lite.tsx", []byte(counterSrc), "react", "vue", "liquid", "builder")
	if err != nil {
		t.Fatalf("Compile() error: %v", err)
	}
	if err := res.Err(); err != nil {
		t.Fatalf("generator error: %v", err)
	}

	var names []string
	for _, out := range res.Outputs {
		names = append(names, out.Target)
	}
	if diff := cmp.Diff([]string{"react", "vue", "liquid", "json"}, names); diff != "" {
		t.Errorf("targets mismatch (-want +got):\n%s", diff)
	}

	checks := map[string][]string{
		"react":  {"useLocalObservable", `<img src="logo.png" />`, "{state.count}"},
		"vue":    {`@click="() => state.count++"`, `<img src="logo.png" />`, "reactive({"},
		"liquid": {"<button>{{ state.count }}</button>", `<img src="logo.png">`},
		"json":   {`"kind": "element"`, `"tag": "img"`},
	}
	for target, wants := range checks {
		out, ok := res.Output(target)
		if !ok {
			t.Fatalf("no %s output", target)
		}
		for _, want := range wants {
			if !strings.Contains(out.Text, want) {
				t.Errorf("%s output lacks %q:\n%s", target, want, out.Text)
			}
		}
		if strings.Contains(out.Text, "ignored") {
			t.Errorf("%s output kept the children of a void element", target)
		}
	}

	back, err := dump.Decode([]byte(mustOutput(t, res, "json")))
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	if diff := cmp.Diff(res.Component, back, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("dump round trip mismatch (-want +got):\n%s", diff)
	}
}

func mustOutput(t *testing.T, res *Result, target string) string {
	t.Helper()
	out, ok := res.Output(target)
	if !ok || out.Err != nil {
		t.Fatalf("output %s: ok=%v err=%v", target, ok, out.Err)
	}
	return out.Text
}

func TestCompile_DefaultTarget(t *testing.T) {
	res, err := New(Options{}).Compile(context.Background(), "", []byte(counterSrc))
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Outputs) != 1 || res.Outputs[0].Target != DefaultTarget {
		t.Errorf("outputs = %+v", res.Outputs)
	}
}

func TestCompile_LogicNeedsCapableTargets(t *testing.T) {
	src := []byte(`export default function Clock() {
  const now = new Date();
  return <time>{now.toISOString()}</time>;
}`)
	c := New(Options{})

	if _, err := c.Compile(context.Background(), "clock.lite.tsx", src, "react", "vue"); err != nil {
		t.Fatalf("logic-capable targets rejected logic: %v", err)
	}

	_, err := c.Compile(context.Background(), "clock.lite.tsx", src, "react", "liquid")
	var perr *parser.Error
	if !errors.As(err, &perr) {
		t.Fatalf("expected *parser.Error, got %v", err)
	}
	if perr.Construct != "lexical_declaration" {
		t.Errorf("Construct = %q", perr.Construct)
	}
}

func TestCompile_LiquidDropsState(t *testing.T) {
	res, err := New(Options{}).Compile(context.Background(), "", []byte(counterSrc), "liquid")
	if err != nil {
		t.Fatal(err)
	}
	out := mustOutput(t, res, "liquid")
	if strings.Contains(out, "count: 0") || strings.Contains(out, "onClick") {
		t.Errorf("liquid output leaks state or events:\n%s", out)
	}

	res, err = New(Options{LiquidLogic: liquid.RejectLogic}).Compile(context.Background(), "", []byte(counterSrc), "liquid")
	if err != nil {
		t.Fatal(err)
	}
	var uc *ir.UnsupportedConstruct
	if !errors.As(res.Err(), &uc) || uc.Target != liquid.Target {
		t.Errorf("expected liquid unsupported construct, got %v", res.Err())
	}
}

func TestCompile_UnknownTarget(t *testing.T) {
	_, err := New(Options{}).Compile(context.Background(), "", []byte(counterSrc), "svelte")
	if err == nil || !strings.Contains(err.Error(), `unknown target "svelte"`) {
		t.Errorf("err = %v", err)
	}
}

func TestCompile_IsolatesGeneratorFailures(t *testing.T) {
	c := New(Options{})
	c.targets["boom"] = target{gen: generator.Func(func(*ir.Component) (string, error) {
		panic("kaboom")
	}), logic: true}
	c.targets["fail"] = target{gen: generator.Func(func(*ir.Component) (string, error) {
		return "", errors.New("nope")
	}), logic: true}

	res, err := c.Compile(context.Background(), "", []byte(counterSrc), "boom", "react", "fail", "json")
	if err != nil {
		t.Fatal(err)
	}
	if out, _ := res.Output("boom"); out.Err == nil || !strings.Contains(out.Err.Error(), "kaboom") {
		t.Errorf("boom output = %+v", out)
	}
	if out, _ := res.Output("fail"); out.Err == nil {
		t.Errorf("fail output = %+v", out)
	}
	for _, name := range []string{"react", "json"} {
		if out, _ := res.Output(name); out.Err != nil || out.Text == "" {
			t.Errorf("%s output = %+v", name, out)
		}
	}
}

func TestCompile_Concurrent(t *testing.T) {
	c := New(Options{})
	want, err := c.Compile(context.Background(), "", []byte(counterSrc), "react", "vue", "liquid", "json")
	if err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := c.Compile(context.Background(), "", []byte(counterSrc), "react", "vue", "liquid", "json")
			if err != nil {
				errs <- err
				return
			}
			for j := range want.Outputs {
				if got.Outputs[j].Text != want.Outputs[j].Text {
					errs <- errors.New("output differs for " + got.Outputs[j].Target)
					return
				}
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}

func TestResolve(t *testing.T) {
	for in, want := range map[string]string{"builder": "json", " Vue ": "vue", "react": "react"} {
		if got := Resolve(in); got != want {
			t.Errorf("Resolve(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCompile_TextAndGrouping(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		wants map[string]string
	}{
		{
			name: "grouped or",
			src:  "export default function A() { return <div>{a && (b || c)}</div>; }",
			wants: map[string]string{
				"react":  "{a && (b || c)}",
				"vue":    "{{ b || c }}",
				"liquid": "{{ b || c }}",
			},
		},
		{
			name: "grouped nullish",
			src:  "export default function A() { return <div>{a && (b ?? c)}</div>; }",
			wants: map[string]string{
				"react":  "{a && (b ?? c)}",
				"vue":    "{{ b ?? c }}",
				"liquid": "{{ b ?? c }}",
			},
		},
		{
			name: "text beside interpolation",
			src:  "export default function A(props) { return <p>Hello, {props.name}!</p>; }",
			wants: map[string]string{
				"vue":    "<p>Hello, {{ props.name }}!</p>",
				"liquid": "<p>Hello, {{ props.name }}!</p>",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := New(Options{}).Compile(context.Background(), "a.lite.tsx", []byte(tt.src), "react", "vue", "liquid")
			if err != nil {
				t.Fatalf("Compile() error: %v", err)
			}
			for target, want := range tt.wants {
				if got := mustOutput(t, res, target); !strings.Contains(got, want) {
					t.Errorf("%s output lacks %q:\n%s", target, want, got)
				}
			}
		})
	}
}
