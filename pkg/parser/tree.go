package parser

import (
	"html"

	"github.com/recera/jsxlite/pkg/ir"
	"github.com/recera/jsxlite/pkg/naming"
	"github.com/recera/jsxlite/pkg/syntax"
)

// Built-in control-flow components.
const (
	showTag = "Show"
	forTag  = "For"
)

// node maps a markup-position expression to an IR node. A nil node with a nil
// error means the expression renders nothing (null, undefined).
func (ps *parseState) node(n *syntax.Node) (ir.Node, error) {
	switch n.Type() {
	case "parenthesized_expression":
		inner := syntax.NamedChildren(n)
		if len(inner) != 1 {
			return nil, ps.errorf(n, "expected a single expression")
		}
		return ps.node(inner[0])

	case "jsx_element":
		return ps.element(n)

	case "jsx_self_closing_element":
		return ps.selfClosing(n)

	case "jsx_fragment":
		children, err := ps.children(n)
		if err != nil {
			return nil, err
		}
		return &ir.Fragment{Children: children}, nil

	case "ternary_expression":
		return ps.ternary(n)

	case "binary_expression":
		if op := syntax.Field(n, "operator"); op != nil && op.Type() == "&&" {
			return ps.and(n)
		}

	case "call_expression":
		if fn, iterable := ps.mapCall(n); fn != nil {
			return ps.forEach(n, ps.classify(iterable), fn)
		}

	case "arrow_function", "function", "function_expression":
		return nil, ps.errorf(n, "functions cannot be rendered")

	case "null", "undefined":
		return nil, nil
	}
	return &ir.Text{Value: ps.classify(n)}, nil
}

func (ps *parseState) ternary(n *syntax.Node) (ir.Node, error) {
	cons, err := ps.node(syntax.Field(n, "consequence"))
	if err != nil {
		return nil, err
	}
	alt, err := ps.node(syntax.Field(n, "alternative"))
	if err != nil {
		return nil, err
	}
	return &ir.Conditional{
		Condition:  ps.classify(syntax.Field(n, "condition")),
		Consequent: cons,
		Alternate:  alt,
	}, nil
}

func (ps *parseState) and(n *syntax.Node) (ir.Node, error) {
	cons, err := ps.node(syntax.Field(n, "right"))
	if err != nil {
		return nil, err
	}
	return &ir.Conditional{
		Condition:  ps.classify(syntax.Field(n, "left")),
		Consequent: cons,
	}, nil
}

// mapCall recognizes "iterable.map(fn)" and returns fn and the iterable.
func (ps *parseState) mapCall(n *syntax.Node) (fn, iterable *syntax.Node) {
	member := syntax.Field(n, "function")
	if member == nil || member.Type() != "member_expression" {
		return nil, nil
	}
	if ps.text(syntax.Field(member, "property")) != "map" {
		return nil, nil
	}
	args := syntax.NamedChildren(syntax.Field(n, "arguments"))
	if len(args) != 1 || !isFunction(args[0]) {
		return nil, nil
	}
	return args[0], syntax.Field(member, "object")
}

// forEach builds a loop from a callback "(item, index) => markup". A key
// attribute on the body's root element becomes the loop key.
func (ps *parseState) forEach(at *syntax.Node, iterable ir.Binding, fn *syntax.Node) (ir.Node, error) {
	item, index, err := ps.loopParams(fn)
	if err != nil {
		return nil, err
	}

	expr, err := ps.callbackExpr(fn)
	if err != nil {
		return nil, err
	}
	body, err := ps.node(expr)
	if err != nil {
		return nil, err
	}
	if body == nil {
		return nil, ps.errorf(at, "loop body renders nothing")
	}

	loop := &ir.ForEach{Iterable: iterable, Item: item, Index: index, Body: body}
	if el, ok := body.(*ir.Element); ok {
		for i, attr := range el.Attributes {
			if attr.Name == "key" {
				key := attr.Value
				loop.Key = &key
				el.Attributes = append(el.Attributes[:i:i], el.Attributes[i+1:]...)
				if len(el.Attributes) == 0 {
					el.Attributes = nil
				}
				break
			}
		}
	}
	return loop, nil
}

func (ps *parseState) loopParams(fn *syntax.Node) (item, index string, err error) {
	if p := syntax.Field(fn, "parameter"); p != nil {
		return ps.text(p), "", nil
	}
	params := syntax.NamedChildren(syntax.Field(fn, "parameters"))
	if len(params) == 0 || len(params) > 2 {
		return "", "", ps.errorf(fn, "loop callback takes (item) or (item, index)")
	}
	names := make([]string, len(params))
	for i, p := range params {
		pattern := p
		if inner := syntax.Field(p, "pattern"); inner != nil {
			pattern = inner
		}
		if pattern.Type() != "identifier" {
			return "", "", ps.errorf(pattern, "loop variables must be plain identifiers")
		}
		names[i] = ps.text(pattern)
	}
	if len(names) == 2 {
		index = names[1]
	}
	return names[0], index, nil
}

// callbackExpr returns the expression a callback renders: its expression
// body, or the argument of the single return in a block body.
func (ps *parseState) callbackExpr(fn *syntax.Node) (*syntax.Node, error) {
	body := syntax.Field(fn, "body")
	if body == nil {
		return nil, ps.errorf(fn, "callback has no body")
	}
	if body.Type() != "statement_block" {
		return body, nil
	}
	stmts := syntax.NamedChildren(body)
	if len(stmts) != 1 || stmts[0].Type() != "return_statement" {
		return nil, ps.errorf(body, "callback body must be a single return")
	}
	expr := syntax.NamedChildren(stmts[0])
	if len(expr) == 0 {
		return nil, ps.errorf(stmts[0], "callback must return markup")
	}
	return expr[0], nil
}

func (ps *parseState) element(n *syntax.Node) (ir.Node, error) {
	open := syntax.Field(n, "open_tag")
	name := syntax.Field(open, "name")
	if name == nil {
		children, err := ps.children(n)
		if err != nil {
			return nil, err
		}
		return &ir.Fragment{Children: children}, nil
	}
	tag := ps.text(name)
	if closeName := syntax.Field(syntax.Field(n, "close_tag"), "name"); closeName != nil && ps.text(closeName) != tag {
		return nil, ps.errorf(closeName, "closing tag %q does not match <%s>", ps.text(closeName), tag)
	}

	switch tag {
	case showTag:
		return ps.show(n, open)
	case forTag:
		return ps.forTag(n, open)
	}

	el, err := ps.newElement(tag, open)
	if err != nil {
		return nil, err
	}
	children, err := ps.children(n)
	if err != nil {
		return nil, err
	}
	if !ps.opts.Tags.IsVoid(el.Tag) {
		el.Children = children
	}
	return el, nil
}

func (ps *parseState) selfClosing(n *syntax.Node) (ir.Node, error) {
	tag := ps.text(syntax.Field(n, "name"))
	switch tag {
	case showTag:
		return ps.show(n, n)
	case forTag:
		return nil, ps.errorf(n, "<For> needs a render callback child")
	}
	return ps.newElement(tag, n)
}

func (ps *parseState) newElement(tag string, open *syntax.Node) (*ir.Element, error) {
	el := &ir.Element{Tag: ps.opts.Tags.NormalizeTag(tag)}
	for _, attr := range syntax.NamedChildren(open) {
		switch attr.Type() {
		case "jsx_attribute":
			name, value, err := ps.attribute(attr)
			if err != nil {
				return nil, err
			}
			if naming.IsEventName(name) {
				handler, err := ps.handler(attr, value)
				if err != nil {
					return nil, err
				}
				el.Events = append(el.Events, ir.Event{Name: name, Handler: handler})
				continue
			}
			b, err := ps.attrValue(attr, value)
			if err != nil {
				return nil, err
			}
			el.Attributes = append(el.Attributes, ir.Attribute{Name: name, Value: b})
		case "jsx_expression":
			return nil, ps.errorf(attr, "spread attributes are not supported")
		}
	}
	return el, nil
}

// attribute splits a jsx_attribute into its name and value node. The value
// is nil for a bare attribute.
func (ps *parseState) attribute(attr *syntax.Node) (string, *syntax.Node, error) {
	parts := syntax.NamedChildren(attr)
	if len(parts) == 0 {
		return "", nil, ps.errorf(attr, "attribute has no name")
	}
	var value *syntax.Node
	if len(parts) > 1 {
		value = parts[1]
	}
	return ps.text(parts[0]), value, nil
}

func (ps *parseState) attrValue(attr, value *syntax.Node) (ir.Binding, error) {
	if value == nil {
		return ir.LiteralOf(true), nil
	}
	switch value.Type() {
	case "string":
		return ir.LiteralOf(html.UnescapeString(unquote(ps.text(value)))), nil
	case "jsx_expression":
		inner := syntax.NamedChildren(value)
		if len(inner) == 0 {
			return ir.Binding{}, ps.errorf(attr, "attribute expression is empty")
		}
		if isMarkup(inner[0]) {
			return ir.Binding{}, ps.errorf(inner[0], "markup cannot be an attribute value")
		}
		return ps.classify(inner[0]), nil
	}
	return ir.Binding{}, ps.errorf(value, "attribute value form is not supported")
}

func (ps *parseState) handler(attr, value *syntax.Node) (string, error) {
	if value == nil || value.Type() != "jsx_expression" {
		return "", ps.errorf(attr, "event handlers must be expressions")
	}
	inner := syntax.NamedChildren(value)
	if len(inner) == 0 {
		return "", ps.errorf(value, "event handler is empty")
	}
	return ps.text(inner[0]), nil
}

func isMarkup(n *syntax.Node) bool {
	switch n.Type() {
	case "jsx_element", "jsx_self_closing_element", "jsx_fragment":
		return true
	}
	return false
}

// children maps the child list of a JSX element or fragment.
func (ps *parseState) children(n *syntax.Node) ([]ir.Node, error) {
	var out []ir.Node
	for _, child := range syntax.NamedChildren(n) {
		switch child.Type() {
		case "jsx_opening_element", "jsx_closing_element":
			continue

		case "jsx_text":
			if text := normalizeJSXText(ps.text(child)); text != "" {
				out = append(out, &ir.Text{Value: ir.LiteralOf(text)})
			}

		case "html_character_reference":
			out = append(out, &ir.Text{Value: ir.LiteralOf(html.UnescapeString(ps.text(child)))})

		case "jsx_expression":
			inner := syntax.NamedChildren(child)
			if len(inner) == 0 {
				continue
			}
			if inner[0].Type() == "spread_element" {
				return nil, ps.errorf(inner[0], "spread children are not supported")
			}
			node, err := ps.node(inner[0])
			if err != nil {
				return nil, err
			}
			if node != nil {
				out = append(out, node)
			}

		case "jsx_element", "jsx_self_closing_element", "jsx_fragment":
			node, err := ps.node(child)
			if err != nil {
				return nil, err
			}
			out = append(out, node)

		default:
			return nil, ps.errorf(child, "child form is not supported")
		}
	}
	return out, nil
}

// single folds a child list into one node.
func single(children []ir.Node) ir.Node {
	switch len(children) {
	case 0:
		return nil
	case 1:
		return children[0]
	}
	return &ir.Fragment{Children: children}
}

// show maps <Show when={cond} else={fallback}>children</Show>.
func (ps *parseState) show(n, open *syntax.Node) (ir.Node, error) {
	cond := &ir.Conditional{}
	seenWhen := false
	for _, attr := range syntax.NamedChildren(open) {
		if attr.Type() != "jsx_attribute" {
			continue
		}
		name, value, err := ps.attribute(attr)
		if err != nil {
			return nil, err
		}
		expr, err := ps.expressionOf(attr, value)
		if err != nil {
			return nil, err
		}
		switch name {
		case "when":
			cond.Condition = ps.classify(expr)
			seenWhen = true
		case "else":
			if cond.Alternate, err = ps.node(expr); err != nil {
				return nil, err
			}
		default:
			return nil, ps.errorf(attr, "<Show> accepts when and else only")
		}
	}
	if !seenWhen {
		return nil, ps.errorf(open, "<Show> requires a when attribute")
	}
	if n != open {
		children, err := ps.children(n)
		if err != nil {
			return nil, err
		}
		cond.Consequent = single(children)
	}
	return cond, nil
}

// forTag maps <For each={items}>{(item, index) => markup}</For>.
func (ps *parseState) forTag(n, open *syntax.Node) (ir.Node, error) {
	var each *syntax.Node
	for _, attr := range syntax.NamedChildren(open) {
		if attr.Type() != "jsx_attribute" {
			continue
		}
		name, value, err := ps.attribute(attr)
		if err != nil {
			return nil, err
		}
		if name != "each" {
			return nil, ps.errorf(attr, "<For> accepts each only")
		}
		if each, err = ps.expressionOf(attr, value); err != nil {
			return nil, err
		}
	}
	if each == nil {
		return nil, ps.errorf(open, "<For> requires an each attribute")
	}

	var fn *syntax.Node
	for _, child := range syntax.NamedChildren(n) {
		switch child.Type() {
		case "jsx_opening_element", "jsx_closing_element":
			continue
		case "jsx_text":
			if normalizeJSXText(ps.text(child)) == "" {
				continue
			}
		case "jsx_expression":
			inner := syntax.NamedChildren(child)
			if len(inner) == 1 && isFunction(inner[0]) && fn == nil {
				fn = inner[0]
				continue
			}
		}
		return nil, ps.errorf(child, "<For> takes a single render callback")
	}
	if fn == nil {
		return nil, ps.errorf(n, "<For> needs a render callback child")
	}
	return ps.forEach(n, ps.classify(each), fn)
}

// expressionOf returns the expression inside an attribute value.
func (ps *parseState) expressionOf(attr, value *syntax.Node) (*syntax.Node, error) {
	if value == nil {
		return nil, ps.errorf(attr, "attribute needs a value")
	}
	if value.Type() != "jsx_expression" {
		return value, nil
	}
	inner := syntax.NamedChildren(value)
	if len(inner) == 0 {
		return nil, ps.errorf(attr, "attribute expression is empty")
	}
	return inner[0], nil
}
