package parser

import (
	"encoding/json"
	"io"
	"strings"

	"github.com/recera/jsxlite/pkg/ir"
	"github.com/recera/jsxlite/pkg/syntax"
)

// Classify decides whether source text is a compile-time literal. Text that
// decodes as exactly one JSON value becomes a Literal binding; anything else
// is kept verbatim as a Dynamic binding.
func Classify(text string) ir.Binding {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return ir.DynamicOf(text)
	}
	if _, err := dec.Token(); err != io.EOF {
		return ir.DynamicOf(text)
	}
	return ir.LiteralOf(v)
}

// ClassifyNode regenerates the source of n and classifies it.
func ClassifyNode(tree *syntax.Tree, n *syntax.Node) ir.Binding {
	return Classify(tree.Text(n))
}
