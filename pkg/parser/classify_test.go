package parser

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/recera/jsxlite/pkg/ir"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		text string
		want ir.Binding
	}{
		{`42`, ir.LiteralOf(json.Number("42"))},
		{`-1.5`, ir.LiteralOf(json.Number("-1.5"))},
		{`"hello"`, ir.LiteralOf("hello")},
		{`true`, ir.LiteralOf(true)},
		{`null`, ir.LiteralOf(nil)},
		{`[1, 2]`, ir.LiteralOf([]any{json.Number("1"), json.Number("2")})},
		{`{"a": "b"}`, ir.LiteralOf(map[string]any{"a": "b"})},
		{`count`, ir.DynamicOf("count")},
		{`state.count`, ir.DynamicOf("state.count")},
		{`fetchItems()`, ir.DynamicOf("fetchItems()")},
		{`'single'`, ir.DynamicOf("'single'")},
		{`{ a: 1 }`, ir.DynamicOf("{ a: 1 }")},
		{`1 + 2`, ir.DynamicOf("1 + 2")},
		{`[1] [2]`, ir.DynamicOf("[1] [2]")},
		{``, ir.DynamicOf("")},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got := Classify(tt.text)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Classify(%q) mismatch (-want +got):\n%s", tt.text, diff)
			}
		})
	}
}

func TestClassify_Deterministic(t *testing.T) {
	for i := 0; i < 3; i++ {
		if diff := cmp.Diff(Classify(`[1, "x"]`), Classify(`[1, "x"]`)); diff != "" {
			t.Fatalf("Classify is not deterministic:\n%s", diff)
		}
	}
}

func TestNormalizeJSXText(t *testing.T) {
	tests := []struct {
		raw, want string
	}{
		{"Hello", "Hello"},
		{"Hello ", "Hello "},
		{"\n    \n  ", ""},
		{"\n    Hello\n    world\n  ", "Hello world"},
		{"  a  b  ", "  a  b  "},
		{"Tom &amp; Jerry", "Tom & Jerry"},
	}
	for _, tt := range tests {
		if got := normalizeJSXText(tt.raw); got != tt.want {
			t.Errorf("normalizeJSXText(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestBlockBody(t *testing.T) {
	got := blockBody("{\n    console.log('a');\n    if (x) {\n      y();\n    }\n  }")
	want := "console.log('a');\nif (x) {\n  y();\n}"
	if got != want {
		t.Errorf("blockBody() = %q, want %q", got, want)
	}
}
