// Package syntax is the parse/print service the compiler reads component
// source through. It wraps tree-sitter's TSX grammar: Parse builds a syntax
// tree, Text regenerates the exact source of any node.
package syntax

import (
	"context"
	"fmt"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
)

// Node is a syntax tree node.
type Node = sitter.Node

// Position is a 1-based line and column.
type Position struct {
	Line int
	Col  int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Col)
}

// PositionOf returns the start position of n.
func PositionOf(n *Node) Position {
	if n == nil {
		return Position{Line: 1, Col: 1}
	}
	pt := n.StartPoint()
	return Position{Line: int(pt.Row) + 1, Col: int(pt.Column) + 1}
}

// Error is a syntax error reported by Parse.
type Error struct {
	Pos     Position
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: syntax error: %s", e.Pos, e.Message)
}

// Tree is a parsed source file. It owns the source bytes it was built from.
type Tree struct {
	src  []byte
	tree *sitter.Tree
}

// Parse parses TSX source. A new tree-sitter parser is created per call, so
// Parse is safe for concurrent use.
func Parse(ctx context.Context, src []byte) (*Tree, error) {
	if !utf8.Valid(src) {
		return nil, &Error{Pos: Position{Line: 1, Col: 1}, Message: "source is not valid UTF-8"}
	}

	parser := sitter.NewParser()
	parser.SetLanguage(tsx.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("tree-sitter parse failed: %w", err)
	}

	t := &Tree{src: src, tree: tree}
	if bad := firstError(tree.RootNode()); bad != nil {
		t.Close()
		msg := fmt.Sprintf("unexpected %q", excerpt(bad.Content(src)))
		if bad.IsMissing() {
			msg = fmt.Sprintf("missing %s", bad.Type())
		}
		return nil, &Error{Pos: PositionOf(bad), Message: msg}
	}
	return t, nil
}

// Root returns the program node.
func (t *Tree) Root() *Node {
	return t.tree.RootNode()
}

// Text regenerates the source text of n.
func (t *Tree) Text(n *Node) string {
	if n == nil {
		return ""
	}
	return n.Content(t.src)
}

// Source returns the bytes the tree was parsed from.
func (t *Tree) Source() []byte {
	return t.src
}

// Close releases the tree-sitter tree.
func (t *Tree) Close() {
	if t.tree != nil {
		t.tree.Close()
		t.tree = nil
	}
}

// NamedChildren returns the named children of n, skipping comments.
func NamedChildren(n *Node) []*Node {
	if n == nil {
		return nil
	}
	count := int(n.NamedChildCount())
	out := make([]*Node, 0, count)
	for i := 0; i < count; i++ {
		child := n.NamedChild(i)
		if child == nil || child.Type() == "comment" {
			continue
		}
		out = append(out, child)
	}
	return out
}

// Field returns the child stored under a grammar field name, or nil.
func Field(n *Node, name string) *Node {
	if n == nil {
		return nil
	}
	child := n.ChildByFieldName(name)
	if child == nil || child.IsNull() {
		return nil
	}
	return child
}

// firstError finds the first ERROR or MISSING node in document order.
func firstError(n *Node) *Node {
	if n == nil || !n.HasError() && !n.IsMissing() {
		return nil
	}
	if n.Type() == "ERROR" || n.IsMissing() {
		return n
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		if bad := firstError(n.Child(i)); bad != nil {
			return bad
		}
	}
	return n
}

func excerpt(s string) string {
	const limit = 24
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit]) + "…"
}
