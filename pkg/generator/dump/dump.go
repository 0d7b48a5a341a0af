// Package dump renders the IR as canonical JSON and reads it back. The
// output has a fixed field order, sorted object keys, two-space
// indentation, and a trailing newline; Decode(Generate(c)) equals c.
package dump

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/recera/jsxlite/pkg/generator"
	"github.com/recera/jsxlite/pkg/ir"
)

// Target is the registry name of this generator.
const Target = "json"

// Generator renders components as JSON. It is stateless.
type Generator struct{}

// New creates a dump generator.
func New() *Generator {
	return &Generator{}
}

// Generate renders c.
func (g *Generator) Generate(c *ir.Component) (string, error) {
	data, err := Marshal(c)
	if err != nil {
		return "", generator.WrapTarget(Target, err)
	}
	return string(data), nil
}

// Marshal encodes c as canonical JSON.
func Marshal(c *ir.Component) ([]byte, error) {
	if c == nil {
		return nil, ir.Unsupported(ir.RootPath, "missing component")
	}
	w, err := encodeComponent(c)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(w); err != nil {
		return nil, fmt.Errorf("encoding component %s: %w", c.Name, err)
	}
	return buf.Bytes(), nil
}

func encodeComponent(c *ir.Component) (*wireComponent, error) {
	w := &wireComponent{
		Name:     c.Name,
		PropsRef: c.PropsRef,
		StateRef: c.StateRef,
		Logic:    c.Logic,
	}

	for _, imp := range c.Imports {
		wi := wireImport{Source: imp.Source, Default: imp.Default, Namespace: imp.Namespace}
		for _, n := range imp.Named {
			wi.Named = append(wi.Named, wireImportName{Name: n.Name, Alias: n.Alias})
		}
		w.Imports = append(w.Imports, wi)
	}

	for _, p := range c.Props {
		wp := wireProp{Name: p.Name}
		if p.Default != nil {
			b, err := encodeBinding(ir.Path("").Key("props", p.Name), *p.Default)
			if err != nil {
				return nil, err
			}
			wp.Default = &b
		}
		w.Props = append(w.Props, wp)
	}

	for _, v := range c.State {
		b, err := encodeBinding(ir.Path("").Key("state", v.Name), v.Init)
		if err != nil {
			return nil, err
		}
		w.State = append(w.State, wireState{Name: v.Name, Init: b, Method: v.Method})
	}

	for i, ref := range c.Context {
		wc := wireContext{Kind: string(ref.Kind), Name: ref.Name, Key: ref.Key}
		if ref.Value != nil {
			b, err := encodeBinding(ir.Path("").Key("context", strconv.Itoa(i)), *ref.Value)
			if err != nil {
				return nil, err
			}
			wc.Value = &b
		}
		w.Context = append(w.Context, wc)
	}

	for _, h := range c.Hooks {
		w.Hooks = append(w.Hooks, wireHook{Phase: string(h.Phase), Body: h.Body})
	}

	root, err := ir.Visit[*wireNode](encoder{}, ir.RootPath, c.Root)
	if err != nil {
		return nil, err
	}
	w.Root = root
	return w, nil
}

func encodeBinding(path ir.Path, b ir.Binding) (wireBinding, error) {
	switch b.Kind {
	case ir.Literal:
		s, err := ir.MarshalLiteral(b.Value)
		if err != nil {
			return wireBinding{}, fmt.Errorf("%s: %w", path, err)
		}
		return wireBinding{Kind: b.Kind.String(), Value: json.RawMessage(s)}, nil
	case ir.Dynamic:
		return wireBinding{Kind: b.Kind.String(), Code: b.Code}, nil
	}
	return wireBinding{}, ir.Unsupported(path, "unclassified binding")
}

func encodeBindingPtr(path ir.Path, b ir.Binding) (*wireBinding, error) {
	w, err := encodeBinding(path, b)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// encoder maps nodes to their wire shape.
type encoder struct{}

func (e encoder) Element(path ir.Path, n *ir.Element) (*wireNode, error) {
	w := &wireNode{Kind: string(n.Kind()), Tag: n.Tag}
	for _, a := range n.Attributes {
		b, err := encodeBinding(path.Key("attributes", a.Name), a.Value)
		if err != nil {
			return nil, err
		}
		w.Attributes = append(w.Attributes, wireAttribute{Name: a.Name, Value: b})
	}
	for _, ev := range n.Events {
		w.Events = append(w.Events, wireEvent{Name: ev.Name, Handler: ev.Handler})
	}
	children, err := e.children(path, n.Children)
	if err != nil {
		return nil, err
	}
	w.Children = children
	return w, nil
}

func (e encoder) children(path ir.Path, nodes []ir.Node) ([]*wireNode, error) {
	var out []*wireNode
	for i, child := range nodes {
		wc, err := ir.Visit[*wireNode](e, path.Child(i), child)
		if err != nil {
			return nil, err
		}
		out = append(out, wc)
	}
	return out, nil
}

func (e encoder) Text(path ir.Path, n *ir.Text) (*wireNode, error) {
	b, err := encodeBindingPtr(path.Field("value"), n.Value)
	if err != nil {
		return nil, err
	}
	return &wireNode{Kind: string(n.Kind()), Value: b}, nil
}

func (e encoder) Conditional(path ir.Path, n *ir.Conditional) (*wireNode, error) {
	cond, err := encodeBindingPtr(path.Field("condition"), n.Condition)
	if err != nil {
		return nil, err
	}
	w := &wireNode{Kind: string(n.Kind()), Condition: cond}
	if n.Consequent != nil {
		if w.Consequent, err = ir.Visit[*wireNode](e, path.Field("consequent"), n.Consequent); err != nil {
			return nil, err
		}
	}
	if n.Alternate != nil {
		if w.Alternate, err = ir.Visit[*wireNode](e, path.Field("alternate"), n.Alternate); err != nil {
			return nil, err
		}
	}
	return w, nil
}

func (e encoder) ForEach(path ir.Path, n *ir.ForEach) (*wireNode, error) {
	iter, err := encodeBindingPtr(path.Field("iterable"), n.Iterable)
	if err != nil {
		return nil, err
	}
	w := &wireNode{Kind: string(n.Kind()), Iterable: iter, Item: n.Item, Index: n.Index}
	if n.Key != nil {
		if w.Key, err = encodeBindingPtr(path.Field("key"), *n.Key); err != nil {
			return nil, err
		}
	}
	if w.Body, err = ir.Visit[*wireNode](e, path.Field("body"), n.Body); err != nil {
		return nil, err
	}
	return w, nil
}

func (e encoder) Fragment(path ir.Path, n *ir.Fragment) (*wireNode, error) {
	children, err := e.children(path, n.Children)
	if err != nil {
		return nil, err
	}
	return &wireNode{Kind: string(n.Kind()), Children: children}, nil
}
