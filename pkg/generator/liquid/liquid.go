// Package liquid generates logic-less Liquid templates. Only the render tree
// survives: Liquid has no place for state, hooks, context, or event
// handlers.
package liquid

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/recera/jsxlite/pkg/generator"
	"github.com/recera/jsxlite/pkg/ir"
	"github.com/recera/jsxlite/pkg/naming"
)

// Target is the registry name of this generator.
const Target = "liquid"

// LogicPolicy decides what happens to behavior Liquid cannot express.
type LogicPolicy int

const (
	// DropLogic omits state, hooks, context, logic, and event handlers.
	DropLogic LogicPolicy = iota
	// RejectLogic fails with an *ir.UnsupportedConstruct instead.
	RejectLogic
)

// ParseLogicPolicy maps "drop" and "reject" to a policy.
func ParseLogicPolicy(s string) (LogicPolicy, error) {
	switch strings.ToLower(s) {
	case "", "drop":
		return DropLogic, nil
	case "reject":
		return RejectLogic, nil
	}
	return DropLogic, fmt.Errorf("unknown liquid logic policy %q (want drop or reject)", s)
}

func (p LogicPolicy) String() string {
	if p == RejectLogic {
		return "reject"
	}
	return "drop"
}

// Options configures the generator.
type Options struct {
	Logic LogicPolicy

	// Tags supplies void elements, boolean attributes, and attribute
	// aliases. Nil means naming.Default().
	Tags *naming.Table
}

// Generator renders components as Liquid templates. It is safe for
// concurrent use.
type Generator struct {
	logic LogicPolicy
	tags  *naming.Table
}

// New creates a Liquid generator.
func New(opts Options) *Generator {
	return &Generator{logic: opts.Logic, tags: opts.Tags.Or()}
}

// Generate renders c.
func (g *Generator) Generate(c *ir.Component) (string, error) {
	out, err := g.component(c)
	if err != nil {
		return "", generator.WrapTarget(Target, err)
	}
	return out, nil
}

func (g *Generator) component(c *ir.Component) (string, error) {
	if c == nil {
		return "", ir.Unsupported(ir.RootPath, "missing component")
	}
	if g.logic == RejectLogic {
		if err := rejectLogic(c); err != nil {
			return "", err
		}
	}
	out, err := ir.Visit[string](g, ir.RootPath, c.Root)
	if err != nil {
		return "", err
	}
	return out + "\n", nil
}

func rejectLogic(c *ir.Component) error {
	switch {
	case len(c.State) > 0:
		return ir.Unsupported(ir.Path("").Key("state", c.State[0].Name), "state")
	case len(c.Hooks) > 0:
		return ir.Unsupported(ir.Path("").Key("hooks", "0"), "lifecycle hook")
	case len(c.Context) > 0:
		return ir.Unsupported(ir.Path("").Key("context", c.Context[0].Key), "context")
	case len(c.Logic) > 0:
		return ir.Unsupported(ir.Path("").Key("logic", "0"), "logic")
	}
	return ir.Walk(ir.RootPath, c.Root, func(path ir.Path, n ir.Node) error {
		if el, ok := n.(*ir.Element); ok && el != nil && len(el.Events) > 0 {
			return ir.Unsupported(path.Key("events", el.Events[0].Name), "event handler")
		}
		return nil
	})
}

func (g *Generator) Element(path ir.Path, el *ir.Element) (string, error) {
	if naming.IsComponentTag(el.Tag) {
		return g.render(path, el)
	}

	parts := []string{"<" + el.Tag}
	for _, a := range el.Attributes {
		attr, err := g.attr(path.Key("attributes", a.Name), a.Name, a.Value)
		if err != nil {
			return "", err
		}
		if attr != "" {
			parts = append(parts, attr)
		}
	}
	open := strings.Join(parts, " ") + ">"

	if g.tags.IsVoid(el.Tag) {
		return open, nil
	}
	closeTag := "</" + el.Tag + ">"
	body, err := g.children(path, el.Children)
	if err != nil {
		return "", err
	}
	if body == "" || generator.AllText(el.Children) && !generator.IsMultiline(body) {
		return open + body + closeTag, nil
	}
	return generator.Block(open, body, closeTag), nil
}

// render maps a component tag to a {% render %} of the snippet named after
// it. Attributes become render parameters.
func (g *Generator) render(path ir.Path, el *ir.Element) (string, error) {
	if strings.Contains(el.Tag, ".") {
		return "", ir.Unsupported(path, "namespaced component "+el.Tag)
	}
	if len(el.Children) > 0 {
		return "", ir.Unsupported(path.Child(0), "children of component "+el.Tag)
	}
	parts := []string{"{% render " + strconv.Quote(naming.Uncapitalize(el.Tag))}
	for _, a := range el.Attributes {
		value, err := generator.Expr(path.Key("attributes", a.Name), a.Value)
		if err != nil {
			return "", err
		}
		parts = append(parts, a.Name+": "+value)
	}
	return strings.Join(parts, ", ") + " %}", nil
}

// attr renders one attribute. Literal false and null attributes are left
// out, as are keys, which only matter to reactive targets.
func (g *Generator) attr(path ir.Path, name string, b ir.Binding) (string, error) {
	if name == "key" {
		return "", nil
	}
	html := g.tags.HTMLAttr(name)
	switch b.Kind {
	case ir.Literal:
		switch v := b.Value.(type) {
		case nil:
			return "", nil
		case bool:
			if v {
				return html, nil
			}
			return "", nil
		case string:
			return html + `="` + generator.EscapeText(v) + `"`, nil
		}
		s, err := generator.Expr(path, b)
		if err != nil {
			return "", err
		}
		return html + `="` + generator.EscapeText(s) + `"`, nil

	case ir.Dynamic:
		if g.tags.IsBooleanAttr(html) {
			return "{% if " + b.Code + " %}" + html + "{% endif %}", nil
		}
		return html + `="{{ ` + b.Code + ` }}"`, nil
	}
	return "", ir.Unsupported(path, "unclassified binding")
}

func (g *Generator) children(path ir.Path, nodes []ir.Node) (string, error) {
	outs := make([]string, len(nodes))
	for i, n := range nodes {
		out, err := ir.Visit[string](g, path.Child(i), n)
		if err != nil {
			return "", err
		}
		outs[i] = out
	}
	return generator.JoinChildren(nodes, outs), nil
}

func (g *Generator) Text(path ir.Path, n *ir.Text) (string, error) {
	switch n.Value.Kind {
	case ir.Literal:
		switch v := n.Value.Value.(type) {
		case nil:
			return "", nil
		case string:
			return generator.EscapeText(v), nil
		}
		s, err := generator.Expr(path, n.Value)
		if err != nil {
			return "", err
		}
		return generator.EscapeText(s), nil
	case ir.Dynamic:
		return "{{ " + n.Value.Code + " }}", nil
	}
	return "", ir.Unsupported(path, "unclassified binding")
}

func (g *Generator) Conditional(path ir.Path, n *ir.Conditional) (string, error) {
	cond, err := generator.Expr(path.Field("condition"), n.Condition)
	if err != nil {
		return "", err
	}

	if n.Consequent == nil {
		if n.Alternate == nil {
			return "", nil
		}
		alt, err := g.branch(path.Field("alternate"), n.Alternate)
		if err != nil {
			return "", err
		}
		return generator.Lines("{% unless "+cond+" %}", alt, "{% endunless %}"), nil
	}

	var out []string
	tag := "if"
	for {
		cons, err := g.branch(path.Field("consequent"), n.Consequent)
		if err != nil {
			return "", err
		}
		out = append(out, "{% "+tag+" "+cond+" %}", cons)

		next, ok := n.Alternate.(*ir.Conditional)
		if !ok || next == nil || next.Consequent == nil {
			break
		}
		path, n, tag = path.Field("alternate"), next, "elsif"
		if cond, err = generator.Expr(path.Field("condition"), n.Condition); err != nil {
			return "", err
		}
	}
	if n.Alternate != nil {
		alt, err := g.branch(path.Field("alternate"), n.Alternate)
		if err != nil {
			return "", err
		}
		out = append(out, "{% else %}", alt)
	}
	out = append(out, "{% endif %}")
	return generator.Lines(out...), nil
}

// branch renders the body of a control-flow tag, indented one level.
func (g *Generator) branch(path ir.Path, n ir.Node) (string, error) {
	out, err := ir.Visit[string](g, path, n)
	if err != nil {
		return "", err
	}
	return generator.Indent(out, 1), nil
}

func (g *Generator) ForEach(path ir.Path, n *ir.ForEach) (string, error) {
	iter, err := generator.Expr(path.Field("iterable"), n.Iterable)
	if err != nil {
		return "", err
	}
	body, err := g.branch(path.Field("body"), n.Body)
	if err != nil {
		return "", err
	}
	var assign string
	if n.Index != "" {
		assign = generator.Indent("{% assign "+n.Index+" = forloop.index0 %}", 1)
	}
	return generator.Lines(
		"{% for "+n.Item+" in "+iter+" %}",
		assign,
		body,
		"{% endfor %}",
	), nil
}

func (g *Generator) Fragment(path ir.Path, n *ir.Fragment) (string, error) {
	return g.children(path, n.Children)
}
