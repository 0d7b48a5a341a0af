// Package parser turns component source into the IR. It reads the source
// through pkg/syntax, classifies each top-level statement of the component
// body, and walks the returned markup into an ir.Node tree.
package parser

import (
	"context"
	"errors"
	"strings"

	"github.com/recera/jsxlite/pkg/ir"
	"github.com/recera/jsxlite/pkg/naming"
	"github.com/recera/jsxlite/pkg/syntax"
)

// DefaultCoreModule is the import source of the DSL primitives. Imports from
// it are consumed by the parser and never reach the IR.
const DefaultCoreModule = "@jsx-lite/core"

// DefaultComponentName is used when the component function is anonymous.
const DefaultComponentName = "MyComponent"

// Options configures a parse.
type Options struct {
	// Filename prefixes error positions.
	Filename string

	// CoreModule overrides DefaultCoreModule.
	CoreModule string

	// AllowLogic accepts statements with no structured meaning and keeps them
	// as pass-through Logic. When false they are parse errors.
	AllowLogic bool

	// Tags supplies void elements. Nil means naming.Default().
	Tags *naming.Table
}

func (o Options) coreModule() string {
	if o.CoreModule == "" {
		return DefaultCoreModule
	}
	return o.CoreModule
}

// Parser is reusable and safe for concurrent use.
type Parser struct {
	opts Options
}

// New creates a parser.
func New(opts Options) *Parser {
	opts.Tags = opts.Tags.Or()
	return &Parser{opts: opts}
}

// Parse is shorthand for New(opts).Parse(ctx, src).
func Parse(ctx context.Context, src []byte, opts Options) (*ir.Component, error) {
	return New(opts).Parse(ctx, src)
}

// Parse parses one component source file. The returned component is fully
// built; it is never modified afterwards.
func (p *Parser) Parse(ctx context.Context, src []byte) (*ir.Component, error) {
	tree, err := syntax.Parse(ctx, src)
	if err != nil {
		var serr *syntax.Error
		if errors.As(err, &serr) {
			return nil, &Error{
				Filename: p.opts.Filename,
				Pos:      serr.Pos,
				Reason:   "syntax error: " + serr.Message,
				Err:      err,
			}
		}
		return nil, err
	}
	defer tree.Close()

	ps := &parseState{
		opts:  p.opts,
		tree:  tree,
		comp:  &ir.Component{},
		names: make(map[string]string),
	}
	if err := ps.program(tree.Root()); err != nil {
		return nil, err
	}
	return ps.comp, nil
}

// parseState is the per-call state of a parse.
type parseState struct {
	opts Options
	tree *syntax.Tree
	comp *ir.Component

	// names maps every identifier the component declares to what declared
	// it, so collisions between props, state, and context are caught.
	names map[string]string

	returned bool
}

func (ps *parseState) text(n *syntax.Node) string {
	return ps.tree.Text(n)
}

func (ps *parseState) classify(n *syntax.Node) ir.Binding {
	return ClassifyNode(ps.tree, n)
}

func (ps *parseState) declare(n *syntax.Node, name, what string) error {
	if prev, ok := ps.names[name]; ok {
		return ps.errorf(n, "%s %q is already declared as %s", what, name, prev)
	}
	ps.names[name] = what
	return nil
}

// program finds the component definition among the top-level statements.
// A default export wins; otherwise there must be exactly one definition.
func (ps *parseState) program(root *syntax.Node) error {
	type candidate struct {
		name string
		fn   *syntax.Node
	}
	var (
		found    []candidate
		exported *candidate
	)

	for _, stmt := range syntax.NamedChildren(root) {
		switch stmt.Type() {
		case "import_statement":
			if err := ps.importStatement(stmt); err != nil {
				return err
			}

		case "export_statement":
			name, fn := ps.definition(exportedDecl(stmt))
			if fn == nil {
				return ps.errorf(stmt, "only the component may be exported")
			}
			c := candidate{name: name, fn: fn}
			found = append(found, c)
			if isDefaultExport(stmt) {
				exported = &c
			}

		case "function_declaration", "lexical_declaration", "variable_declaration":
			name, fn := ps.definition(stmt)
			if fn == nil {
				return ps.errorf(stmt, "top-level statements other than the component are not supported")
			}
			found = append(found, candidate{name: name, fn: fn})

		case "type_alias_declaration", "interface_declaration", "empty_statement":
			// Types describe props for the editor only.

		default:
			return ps.errorf(stmt, "top-level statements other than the component are not supported")
		}
	}

	var chosen candidate
	switch {
	case exported != nil:
		chosen = *exported
		if len(found) > 1 {
			for _, c := range found {
				if c.fn != chosen.fn {
					return ps.errorf(c.fn, "a file defines exactly one component")
				}
			}
		}
	case len(found) == 1:
		chosen = found[0]
	case len(found) == 0:
		return ps.errorf(root, "no component definition found")
	default:
		return ps.errorf(found[1].fn, "a file defines exactly one component")
	}

	ps.comp.Name = chosen.name
	if ps.comp.Name == "" {
		ps.comp.Name = DefaultComponentName
	}
	return ps.component(chosen.fn)
}

func exportedDecl(stmt *syntax.Node) *syntax.Node {
	if decl := syntax.Field(stmt, "declaration"); decl != nil {
		return decl
	}
	return syntax.Field(stmt, "value")
}

func isDefaultExport(stmt *syntax.Node) bool {
	for i := 0; i < int(stmt.ChildCount()); i++ {
		if stmt.Child(i).Type() == "default" {
			return true
		}
	}
	return false
}

func isFunction(n *syntax.Node) bool {
	if n == nil {
		return false
	}
	switch n.Type() {
	case "function_declaration", "function", "function_expression", "arrow_function":
		return true
	}
	return false
}

// definition reports the component name and function node when decl defines
// a function, either directly or as a single variable initializer.
func (ps *parseState) definition(decl *syntax.Node) (string, *syntax.Node) {
	if decl == nil {
		return "", nil
	}
	if isFunction(decl) {
		return ps.text(syntax.Field(decl, "name")), decl
	}
	if decl.Type() != "lexical_declaration" && decl.Type() != "variable_declaration" {
		return "", nil
	}
	declarators := syntax.NamedChildren(decl)
	if len(declarators) != 1 {
		return "", nil
	}
	value := syntax.Field(declarators[0], "value")
	if !isFunction(value) {
		return "", nil
	}
	return ps.text(syntax.Field(declarators[0], "name")), value
}

func (ps *parseState) importStatement(stmt *syntax.Node) error {
	source := unquote(ps.text(syntax.Field(stmt, "source")))
	if source == ps.opts.coreModule() {
		return nil
	}

	imp := ir.Import{Source: source}
	for i := 0; i < int(stmt.ChildCount()); i++ {
		if stmt.Child(i).Type() == "type" {
			// import type { X } has no runtime meaning.
			return nil
		}
	}
	for _, child := range syntax.NamedChildren(stmt) {
		if child.Type() != "import_clause" {
			continue
		}
		for _, part := range syntax.NamedChildren(child) {
			switch part.Type() {
			case "identifier":
				imp.Default = ps.text(part)
			case "namespace_import":
				for _, id := range syntax.NamedChildren(part) {
					imp.Namespace = ps.text(id)
				}
			case "named_imports":
				for _, spec := range syntax.NamedChildren(part) {
					if spec.Type() != "import_specifier" {
						continue
					}
					imp.Named = append(imp.Named, ir.ImportName{
						Name:  ps.text(syntax.Field(spec, "name")),
						Alias: ps.text(syntax.Field(spec, "alias")),
					})
				}
			}
		}
	}
	ps.comp.Imports = append(ps.comp.Imports, imp)
	return nil
}

func unquote(s string) string {
	if len(s) >= 2 {
		switch s[0] {
		case '"', '\'', '`':
			if s[len(s)-1] == s[0] {
				return s[1 : len(s)-1]
			}
		}
	}
	return s
}

// component reads the props parameter and the body of fn.
func (ps *parseState) component(fn *syntax.Node) error {
	if err := ps.params(fn); err != nil {
		return err
	}

	body := syntax.Field(fn, "body")
	if body == nil {
		return ps.errorf(fn, "component has no body")
	}
	if body.Type() != "statement_block" {
		// Expression-bodied arrow: the body is the markup.
		root, err := ps.markupRoot(body)
		if err != nil {
			return err
		}
		ps.comp.Root = root
	} else {
		for _, stmt := range syntax.NamedChildren(body) {
			if err := ps.statement(stmt); err != nil {
				return err
			}
		}
		if !ps.returned {
			return ps.errorf(body, "component must return markup")
		}
	}

	if ps.comp.PropsRef != "" {
		return ps.collectPropReads(body)
	}
	return nil
}

func (ps *parseState) params(fn *syntax.Node) error {
	if p := syntax.Field(fn, "parameter"); p != nil {
		ps.comp.PropsRef = ps.text(p)
		return nil
	}

	params := syntax.NamedChildren(syntax.Field(fn, "parameters"))
	if len(params) == 0 {
		return nil
	}
	if len(params) > 1 {
		return ps.errorf(params[1], "a component takes a single props parameter")
	}

	pattern := params[0]
	if p := syntax.Field(pattern, "pattern"); p != nil {
		pattern = p
	}
	if def := syntax.Field(params[0], "value"); def != nil {
		return ps.errorf(def, "the props parameter cannot have a default")
	}

	switch pattern.Type() {
	case "identifier":
		ps.comp.PropsRef = ps.text(pattern)
		return nil
	case "object_pattern":
		return ps.propsPattern(pattern)
	}
	return ps.errorf(pattern, "props must be an identifier or an object pattern")
}

func (ps *parseState) propsPattern(pattern *syntax.Node) error {
	for _, entry := range syntax.NamedChildren(pattern) {
		var prop ir.Prop
		switch entry.Type() {
		case "shorthand_property_identifier_pattern":
			prop.Name = ps.text(entry)
		case "object_assignment_pattern":
			prop.Name = ps.text(syntax.Field(entry, "left"))
			def := ps.classify(syntax.Field(entry, "right"))
			prop.Default = &def
		default:
			return ps.errorf(entry, "props must be destructured by name")
		}
		if err := ps.declare(entry, prop.Name, "prop"); err != nil {
			return err
		}
		ps.comp.Props = append(ps.comp.Props, prop)
	}
	return nil
}

// collectPropReads records every "<propsRef>.name" read as a prop, in order
// of first appearance.
func (ps *parseState) collectPropReads(n *syntax.Node) error {
	if n == nil {
		return nil
	}
	if n.Type() == "member_expression" {
		obj := syntax.Field(n, "object")
		prop := syntax.Field(n, "property")
		if obj != nil && obj.Type() == "identifier" && ps.text(obj) == ps.comp.PropsRef &&
			prop != nil && prop.Type() == "property_identifier" {
			name := ps.text(prop)
			if what, ok := ps.names[name]; !ok {
				ps.names[name] = "prop"
				ps.comp.Props = append(ps.comp.Props, ir.Prop{Name: name})
			} else if what != "prop" {
				return ps.errorf(prop, "prop %q is already declared as %s", name, what)
			}
		}
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		if err := ps.collectPropReads(n.Child(i)); err != nil {
			return err
		}
	}
	return nil
}

func (ps *parseState) markupRoot(expr *syntax.Node) (ir.Node, error) {
	root, err := ps.node(expr)
	if err != nil {
		return nil, err
	}
	if root == nil {
		return nil, ps.errorf(expr, "component must render markup")
	}
	return root, nil
}

// logic keeps stmt as pass-through code when the caller allows it.
func (ps *parseState) logic(stmt *syntax.Node) error {
	if !ps.opts.AllowLogic {
		return ps.errorf(stmt, "free-form code is not representable by every requested target")
	}
	ps.comp.Logic = append(ps.comp.Logic, strings.TrimSpace(ps.text(stmt)))
	return nil
}
