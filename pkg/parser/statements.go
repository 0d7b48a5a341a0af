package parser

import (
	"github.com/recera/jsxlite/pkg/ir"
	"github.com/recera/jsxlite/pkg/syntax"
)

var hookPhases = map[string]ir.Phase{
	"onMount":   ir.OnMount,
	"onUpdate":  ir.OnUpdate,
	"onUnmount": ir.OnUnmount,
}

var (
	stateCalls   = map[string]bool{"useState": true, "useStore": true}
	provideCalls = map[string]bool{"setContext": true, "provideContext": true}
)

// statement classifies one statement of the component body.
func (ps *parseState) statement(stmt *syntax.Node) error {
	if ps.returned {
		return ps.errorf(stmt, "statements after the return are not supported")
	}

	switch stmt.Type() {
	case "empty_statement":
		return nil
	case "lexical_declaration", "variable_declaration":
		return ps.declaration(stmt)
	case "expression_statement":
		return ps.expressionStatement(stmt)
	case "function_declaration":
		return ps.logic(stmt)
	case "return_statement":
		expr := syntax.NamedChildren(stmt)
		if len(expr) == 0 {
			return ps.errorf(stmt, "component must return markup")
		}
		root, err := ps.markupRoot(expr[0])
		if err != nil {
			return err
		}
		ps.comp.Root = root
		ps.returned = true
		return nil
	}
	return ps.errorf(stmt, "statement form is not supported in a component body")
}

// callee returns the called function name when n is a call of a plain
// identifier, plus its arguments.
func (ps *parseState) callee(n *syntax.Node) (string, []*syntax.Node) {
	if n == nil || n.Type() != "call_expression" {
		return "", nil
	}
	fn := syntax.Field(n, "function")
	if fn == nil || fn.Type() != "identifier" {
		return "", nil
	}
	return ps.text(fn), syntax.NamedChildren(syntax.Field(n, "arguments"))
}

func (ps *parseState) declaration(stmt *syntax.Node) error {
	declarators := syntax.NamedChildren(stmt)
	for _, d := range declarators {
		name, _ := ps.callee(syntax.Field(d, "value"))
		if stateCalls[name] || name == "useContext" {
			if len(declarators) != 1 {
				return ps.errorf(d, "%s must be declared on its own", name)
			}
		}
	}
	if len(declarators) != 1 {
		return ps.logic(stmt)
	}

	d := declarators[0]
	target := syntax.Field(d, "name")
	call, args := ps.callee(syntax.Field(d, "value"))
	switch {
	case stateCalls[call]:
		if target.Type() != "identifier" {
			return ps.errorf(target, "state must be bound to a single identifier")
		}
		if ps.comp.StateRef != "" {
			return ps.errorf(d, "state is already declared as %q", ps.comp.StateRef)
		}
		ps.comp.StateRef = ps.text(target)
		if len(args) != 1 || args[0].Type() != "object" {
			return ps.errorf(d, "%s takes a single object literal", call)
		}
		return ps.stateObject(args[0])

	case call == "useContext":
		if target.Type() != "identifier" {
			return ps.errorf(target, "context must be bound to a single identifier")
		}
		if len(args) != 1 {
			return ps.errorf(d, "useContext takes a single context key")
		}
		name := ps.text(target)
		if err := ps.declare(target, name, "context"); err != nil {
			return err
		}
		ps.comp.Context = append(ps.comp.Context, ir.ContextRef{
			Kind: ir.ContextRead,
			Name: name,
			Key:  ps.text(args[0]),
		})
		return nil
	}
	return ps.logic(stmt)
}

func (ps *parseState) stateObject(obj *syntax.Node) error {
	for _, entry := range syntax.NamedChildren(obj) {
		var v ir.StateVar
		switch entry.Type() {
		case "pair":
			v.Name = propertyName(ps.text(syntax.Field(entry, "key")))
			v.Init = ps.classify(syntax.Field(entry, "value"))
		case "shorthand_property_identifier":
			v.Name = ps.text(entry)
			v.Init = ir.DynamicOf(v.Name)
		case "method_definition":
			v.Name = ps.text(syntax.Field(entry, "name"))
			v.Init = ir.DynamicOf(ps.text(entry))
			v.Method = true
		default:
			return ps.errorf(entry, "state entries must be named properties or methods")
		}
		if err := ps.addState(entry, v); err != nil {
			return err
		}
	}
	return nil
}

func (ps *parseState) addState(n *syntax.Node, v ir.StateVar) error {
	for _, prev := range ps.comp.State {
		if prev.Name == v.Name {
			return ps.errorf(n, "state %q is declared twice", v.Name)
		}
	}
	if what, ok := ps.names[v.Name]; ok {
		return ps.errorf(n, "state %q is already declared as %s", v.Name, what)
	}
	ps.names[v.Name] = "state"
	ps.comp.State = append(ps.comp.State, v)
	return nil
}

func propertyName(key string) string {
	return unquote(key)
}

func (ps *parseState) expressionStatement(stmt *syntax.Node) error {
	exprs := syntax.NamedChildren(stmt)
	if len(exprs) != 1 {
		return ps.logic(stmt)
	}
	expr := exprs[0]

	if expr.Type() == "assignment_expression" {
		if name, ok := ps.stateMember(syntax.Field(expr, "left")); ok {
			return ps.addState(expr, ir.StateVar{
				Name: name,
				Init: ps.classify(syntax.Field(expr, "right")),
			})
		}
		return ps.logic(stmt)
	}

	call, args := ps.callee(expr)
	if phase, ok := hookPhases[call]; ok {
		if len(args) != 1 || !isFunction(args[0]) {
			return ps.errorf(expr, "%s takes a single function", call)
		}
		ps.comp.Hooks = append(ps.comp.Hooks, ir.Hook{
			Phase: phase,
			Body:  ps.functionBody(args[0]),
		})
		return nil
	}
	if provideCalls[call] {
		if len(args) != 2 {
			return ps.errorf(expr, "%s takes a context key and a value", call)
		}
		value := ps.classify(args[1])
		ps.comp.Context = append(ps.comp.Context, ir.ContextRef{
			Kind:  ir.ContextProvide,
			Key:   ps.text(args[0]),
			Value: &value,
		})
		return nil
	}
	return ps.logic(stmt)
}

// stateMember reports the property name when n is "<stateRef>.name".
func (ps *parseState) stateMember(n *syntax.Node) (string, bool) {
	if n == nil || n.Type() != "member_expression" {
		return "", false
	}
	obj := syntax.Field(n, "object")
	prop := syntax.Field(n, "property")
	if obj == nil || obj.Type() != "identifier" || prop == nil || prop.Type() != "property_identifier" {
		return "", false
	}
	if ps.text(obj) != ps.comp.StateName() {
		return "", false
	}
	return ps.text(prop), true
}

// functionBody returns the body of a function as source: the inner
// statements of a block, dedented, or the expression of an arrow.
func (ps *parseState) functionBody(fn *syntax.Node) string {
	body := syntax.Field(fn, "body")
	if body == nil {
		return ""
	}
	if body.Type() == "statement_block" {
		return blockBody(ps.text(body))
	}
	return ps.text(body)
}
