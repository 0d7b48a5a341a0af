package dump

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/recera/jsxlite/pkg/ir"
)

// DecodeError reports a dump that does not describe a valid component.
type DecodeError struct {
	Path    ir.Path
	Message string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("dump: %s: %s", e.Path, e.Message)
}

func decodeErr(path ir.Path, format string, args ...any) error {
	if path == "" {
		path = ir.RootPath
	}
	return &DecodeError{Path: path, Message: fmt.Sprintf(format, args...)}
}

// Decode reads a component dump produced by Generate or Marshal.
func Decode(data []byte) (*ir.Component, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var w wireComponent
	if err := dec.Decode(&w); err != nil {
		return nil, fmt.Errorf("dump: %w", err)
	}

	c := &ir.Component{
		Name:     w.Name,
		PropsRef: w.PropsRef,
		StateRef: w.StateRef,
		Logic:    w.Logic,
	}

	for _, wi := range w.Imports {
		imp := ir.Import{Source: wi.Source, Default: wi.Default, Namespace: wi.Namespace}
		for _, n := range wi.Named {
			imp.Named = append(imp.Named, ir.ImportName{Name: n.Name, Alias: n.Alias})
		}
		c.Imports = append(c.Imports, imp)
	}

	for _, wp := range w.Props {
		p := ir.Prop{Name: wp.Name}
		if wp.Default != nil {
			b, err := decodeBinding(ir.Path("").Key("props", wp.Name), *wp.Default)
			if err != nil {
				return nil, err
			}
			p.Default = &b
		}
		c.Props = append(c.Props, p)
	}

	for _, ws := range w.State {
		b, err := decodeBinding(ir.Path("").Key("state", ws.Name), ws.Init)
		if err != nil {
			return nil, err
		}
		c.State = append(c.State, ir.StateVar{Name: ws.Name, Init: b, Method: ws.Method})
	}

	for i, wc := range w.Context {
		path := ir.Path("").Key("context", strconv.Itoa(i))
		kind := ir.ContextKind(wc.Kind)
		if kind != ir.ContextRead && kind != ir.ContextProvide {
			return nil, decodeErr(path, "unknown context kind %q", wc.Kind)
		}
		ref := ir.ContextRef{Kind: kind, Name: wc.Name, Key: wc.Key}
		if wc.Value != nil {
			b, err := decodeBinding(path, *wc.Value)
			if err != nil {
				return nil, err
			}
			ref.Value = &b
		}
		c.Context = append(c.Context, ref)
	}

	for i, wh := range w.Hooks {
		phase := ir.Phase(wh.Phase)
		if !phase.Valid() {
			return nil, decodeErr(ir.Path("").Key("hooks", strconv.Itoa(i)), "unknown hook phase %q", wh.Phase)
		}
		c.Hooks = append(c.Hooks, ir.Hook{Phase: phase, Body: wh.Body})
	}

	root, err := decodeNode(ir.RootPath, w.Root)
	if err != nil {
		return nil, err
	}
	c.Root = root
	return c, nil
}

func decodeBinding(path ir.Path, w wireBinding) (ir.Binding, error) {
	switch w.Kind {
	case ir.Literal.String():
		if len(w.Value) == 0 {
			return ir.Binding{}, decodeErr(path, "literal without a value")
		}
		dec := json.NewDecoder(bytes.NewReader(w.Value))
		dec.UseNumber()
		var v any
		if err := dec.Decode(&v); err != nil {
			return ir.Binding{}, decodeErr(path, "bad literal: %v", err)
		}
		return ir.LiteralOf(v), nil
	case ir.Dynamic.String():
		return ir.DynamicOf(w.Code), nil
	}
	return ir.Binding{}, decodeErr(path, "unknown binding kind %q", w.Kind)
}

func decodeBindingPtr(path ir.Path, w *wireBinding) (ir.Binding, error) {
	if w == nil {
		return ir.Binding{}, decodeErr(path, "missing binding")
	}
	return decodeBinding(path, *w)
}

func decodeNode(path ir.Path, w *wireNode) (ir.Node, error) {
	if w == nil {
		return nil, decodeErr(path, "missing node")
	}

	switch ir.NodeKind(w.Kind) {
	case ir.KindElement:
		if w.Tag == "" {
			return nil, decodeErr(path, "element without a tag")
		}
		el := &ir.Element{Tag: w.Tag}
		for _, a := range w.Attributes {
			b, err := decodeBinding(path.Key("attributes", a.Name), a.Value)
			if err != nil {
				return nil, err
			}
			el.Attributes = append(el.Attributes, ir.Attribute{Name: a.Name, Value: b})
		}
		for _, ev := range w.Events {
			el.Events = append(el.Events, ir.Event{Name: ev.Name, Handler: ev.Handler})
		}
		children, err := decodeChildren(path, w.Children)
		if err != nil {
			return nil, err
		}
		el.Children = children
		return el, nil

	case ir.KindText:
		b, err := decodeBindingPtr(path.Field("value"), w.Value)
		if err != nil {
			return nil, err
		}
		return &ir.Text{Value: b}, nil

	case ir.KindConditional:
		cond, err := decodeBindingPtr(path.Field("condition"), w.Condition)
		if err != nil {
			return nil, err
		}
		n := &ir.Conditional{Condition: cond}
		if w.Consequent != nil {
			if n.Consequent, err = decodeNode(path.Field("consequent"), w.Consequent); err != nil {
				return nil, err
			}
		}
		if w.Alternate != nil {
			if n.Alternate, err = decodeNode(path.Field("alternate"), w.Alternate); err != nil {
				return nil, err
			}
		}
		return n, nil

	case ir.KindForEach:
		iter, err := decodeBindingPtr(path.Field("iterable"), w.Iterable)
		if err != nil {
			return nil, err
		}
		n := &ir.ForEach{Iterable: iter, Item: w.Item, Index: w.Index}
		if w.Key != nil {
			key, err := decodeBinding(path.Field("key"), *w.Key)
			if err != nil {
				return nil, err
			}
			n.Key = &key
		}
		if n.Body, err = decodeNode(path.Field("body"), w.Body); err != nil {
			return nil, err
		}
		return n, nil

	case ir.KindFragment:
		children, err := decodeChildren(path, w.Children)
		if err != nil {
			return nil, err
		}
		return &ir.Fragment{Children: children}, nil
	}
	return nil, decodeErr(path, "unknown node kind %q", w.Kind)
}

func decodeChildren(path ir.Path, ws []*wireNode) ([]ir.Node, error) {
	var out []ir.Node
	for i, w := range ws {
		n, err := decodeNode(path.Child(i), w)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}
