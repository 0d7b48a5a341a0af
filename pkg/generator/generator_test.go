package generator

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/recera/jsxlite/pkg/ir"
)

func TestLayout(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"indent skips blank lines", Indent("a\n\nb", 1), "  a\n\n  b"},
		{"indent zero", Indent("a", 0), "a"},
		{"reindent", Reindent("add(x) {\n      push(x);\n    }"), "add(x) {\n  push(x);\n}"},
		{"reindent one line", Reindent("  x  "), "x"},
		{"block", Block("<ul>", "<li />", "</ul>"), "<ul>\n  <li />\n</ul>"},
		{"empty block", Block("{", "", "}"), "{\n}"},
		{"lines", Lines("a", "", "b"), "a\nb"},
		{"group member", Group("state.items"), "state.items"},
		{"group negation", Group("!done"), "!done"},
		{"group call", Group("list.size()"), "list.size()"},
		{"group operator", Group("a || b"), "(a || b)"},
		{"group call with args", Group("fn(x)"), "(fn(x))"},
		{"quote plain", QuoteAttr("a b"), `"a b"`},
		{"quote double", QuoteAttr(`say "hi"`), `'say "hi"'`},
		{"quote both", QuoteAttr(`a"b'c`), `"a&quot;b'c"`},
		{"escape", EscapeText(`<a & "b">`), "&lt;a &amp; &#34;b&#34;&gt;"},
		{"property key", PropertyKey("count"), "count"},
		{"quoted property key", PropertyKey("data-x"), `"data-x"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestImportLine(t *testing.T) {
	tests := []struct {
		imp  ir.Import
		want string
	}{
		{
			ir.Import{Source: "./a", Default: "A", Named: []ir.ImportName{{Name: "b"}, {Name: "c", Alias: "d"}}},
			"import A, { b, c as d } from './a';",
		},
		{ir.Import{Source: "./global.css"}, "import './global.css';"},
		{ir.Import{Source: "lodash", Namespace: "_"}, "import * as _ from 'lodash';"},
	}
	for _, tt := range tests {
		if got := ImportLine(tt.imp); got != tt.want {
			t.Errorf("ImportLine(%+v) = %q, want %q", tt.imp, got, tt.want)
		}
	}

	if got := NamedImport("react", "useEffect", "Fragment"); got != "import { Fragment, useEffect } from 'react';" {
		t.Errorf("NamedImport() = %q", got)
	}
}

func TestObjectBody(t *testing.T) {
	c := &ir.Component{State: []ir.StateVar{
		{Name: "count", Init: ir.LiteralOf(json.Number("0"))},
		{Name: "my key", Init: ir.DynamicOf("props.x")},
		{Name: "inc", Init: ir.DynamicOf("inc() {\n      state.count++;\n    }"), Method: true},
	}}
	got, err := ObjectBody(c)
	if err != nil {
		t.Fatalf("ObjectBody() error: %v", err)
	}
	want := "count: 0,\n\"my key\": props.x,\ninc() {\n  state.count++;\n},"
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}

	c.State = []ir.StateVar{{Name: "m", Init: ir.LiteralOf(json.Number("1")), Method: true}}
	var uc *ir.UnsupportedConstruct
	if _, err := ObjectBody(c); !errors.As(err, &uc) || uc.Path != "state[m]" {
		t.Errorf("ObjectBody() error = %v", err)
	}
}

func TestExpr(t *testing.T) {
	if got, err := Expr(ir.RootPath, ir.DynamicOf("a + b")); err != nil || got != "a + b" {
		t.Errorf("dynamic: %q, %v", got, err)
	}
	if got, err := Expr(ir.RootPath, ir.LiteralOf(true)); err != nil || got != "true" {
		t.Errorf("literal: %q, %v", got, err)
	}

	_, err := Expr(ir.RootPath, ir.Binding{})
	var uc *ir.UnsupportedConstruct
	if !errors.As(err, &uc) || uc.Path != ir.RootPath {
		t.Fatalf("zero binding error = %v", err)
	}

	wrapped := WrapTarget("vue", err)
	if !errors.As(wrapped, &uc) || uc.Target != "vue" {
		t.Errorf("WrapTarget() = %v", wrapped)
	}
	if err.(*ir.UnsupportedConstruct).Target != "" {
		t.Error("WrapTarget() modified the original error")
	}
	plain := errors.New("x")
	if WrapTarget("vue", plain) != plain {
		t.Error("WrapTarget() changed a plain error")
	}
}
