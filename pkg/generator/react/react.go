// Package react generates React function components. State becomes a mobx
// observable store so that authored mutations like state.count++ keep
// working unchanged.
package react

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/recera/jsxlite/pkg/generator"
	"github.com/recera/jsxlite/pkg/ir"
	"github.com/recera/jsxlite/pkg/naming"
)

// Target is the registry name of this generator.
const Target = "react"

const (
	reactModule = "react"
	mobxModule  = "mobx-react-lite"
)

// Options configures the generator.
type Options struct {
	// Tags supplies void elements. Nil means naming.Default().
	Tags *naming.Table
}

// Generator renders components as React source. It is safe for concurrent
// use.
type Generator struct {
	tags *naming.Table
}

// New creates a React generator.
func New(opts Options) *Generator {
	return &Generator{tags: opts.Tags.Or()}
}

// Generate renders c.
func (g *Generator) Generate(c *ir.Component) (string, error) {
	r := &renderer{tags: g.tags}
	out, err := r.component(c)
	if err != nil {
		return "", generator.WrapTarget(Target, err)
	}
	return out, nil
}

// renderer holds the state of one Generate call. Its Visitor methods return
// nodes in expression form; child renders them in JSX child position.
type renderer struct {
	tags         *naming.Table
	needFragment bool
}

func (r *renderer) component(c *ir.Component) (string, error) {
	if c == nil {
		return "", ir.Unsupported(ir.RootPath, "missing component")
	}

	tree, err := r.tree(c)
	if err != nil {
		return "", err
	}

	var sections []string
	if len(c.State) > 0 {
		entries, err := generator.ObjectBody(c)
		if err != nil {
			return "", err
		}
		open := fmt.Sprintf("const %s = useLocalObservable(() => ({", c.StateName())
		sections = append(sections, generator.Block(open, entries, "}));"))
	}

	var reads []string
	for _, ref := range c.Reads() {
		reads = append(reads, fmt.Sprintf("const %s = useContext(%s);", ref.Name, ref.Key))
	}
	sections = append(sections, strings.Join(reads, "\n"))

	var logic []string
	for _, stmt := range c.Logic {
		logic = append(logic, generator.Reindent(stmt))
	}
	sections = append(sections, strings.Join(logic, "\n"))

	for i, h := range c.Hooks {
		effect, err := hook(i, h)
		if err != nil {
			return "", err
		}
		sections = append(sections, effect)
	}
	sections = append(sections, generator.Block("return (", tree, ");"))

	params, err := params(c)
	if err != nil {
		return "", err
	}

	var head []string
	var reactNames []string
	if r.needFragment {
		reactNames = append(reactNames, "Fragment")
	}
	if len(c.Reads()) > 0 {
		reactNames = append(reactNames, "useContext")
	}
	if len(c.Hooks) > 0 {
		reactNames = append(reactNames, "useEffect")
	}
	if len(reactNames) > 0 {
		head = append(head, generator.NamedImport(reactModule, reactNames...))
	}
	if len(c.State) > 0 {
		head = append(head, generator.NamedImport(mobxModule, "observer", "useLocalObservable"))
	}
	for _, imp := range c.Imports {
		head = append(head, generator.ImportLine(imp))
	}

	name := naming.Capitalize(c.Name)
	export := "export default " + name + ";"
	if len(c.State) > 0 {
		export = "export default observer(" + name + ");"
	}

	var sb strings.Builder
	if len(head) > 0 {
		sb.WriteString(strings.Join(head, "\n"))
		sb.WriteString("\n\n")
	}
	body := joinSections(sections)
	sb.WriteString(generator.Block(fmt.Sprintf("function %s(%s) {", name, params), body, "}"))
	sb.WriteString("\n\n")
	sb.WriteString(export)
	sb.WriteString("\n")
	return sb.String(), nil
}

func joinSections(sections []string) string {
	out := sections[:0:0]
	for _, s := range sections {
		if s != "" {
			out = append(out, s)
		}
	}
	return strings.Join(out, "\n\n")
}

// tree renders the root, wrapped in context providers in declaration order,
// the first provider outermost.
func (r *renderer) tree(c *ir.Component) (string, error) {
	provides := c.Provides()
	if len(provides) == 0 {
		out, err := ir.Visit[string](r, ir.RootPath, c.Root)
		if err != nil {
			return "", err
		}
		if out == "" {
			out = "null"
		}
		return out, nil
	}

	out, err := r.child(ir.RootPath, c.Root)
	if err != nil {
		return "", err
	}
	for i := len(provides) - 1; i >= 0; i-- {
		p := provides[i]
		path := ir.Path("").Key("context", p.Key)
		if p.Value == nil {
			return "", ir.Unsupported(path, "provide without a value")
		}
		value, err := generator.Expr(path, *p.Value)
		if err != nil {
			return "", err
		}
		open := fmt.Sprintf("<%s.Provider value={%s}>", p.Key, value)
		out = generator.Block(open, out, "</"+p.Key+".Provider>")
	}
	return out, nil
}

func params(c *ir.Component) (string, error) {
	if c.PropsRef != "" {
		return c.PropsRef, nil
	}
	if len(c.Props) == 0 {
		return "", nil
	}
	parts := make([]string, len(c.Props))
	for i, p := range c.Props {
		parts[i] = p.Name
		if p.Default != nil {
			def, err := generator.Expr(ir.Path("").Key("props", p.Name), *p.Default)
			if err != nil {
				return "", err
			}
			parts[i] += " = " + def
		}
	}
	return "{ " + strings.Join(parts, ", ") + " }", nil
}

func hook(i int, h ir.Hook) (string, error) {
	body := generator.Reindent(h.Body)
	switch h.Phase {
	case ir.OnMount:
		return generator.Block("useEffect(() => {", body, "}, []);"), nil
	case ir.OnUpdate:
		return generator.Block("useEffect(() => {", body, "});"), nil
	case ir.OnUnmount:
		cleanup := generator.Block("return () => {", body, "};")
		return generator.Block("useEffect(() => {", cleanup, "}, []);"), nil
	}
	return "", ir.Unsupported(ir.Path("").Key("hooks", strconv.Itoa(i)), "hook phase "+string(h.Phase))
}

// child renders n in JSX child position.
func (r *renderer) child(path ir.Path, n ir.Node) (string, error) {
	out, err := ir.Visit[string](r, path, n)
	if err != nil || out == "" {
		return out, err
	}
	switch n := n.(type) {
	case *ir.Element, *ir.Fragment:
		return out, nil
	case *ir.Text:
		if s, ok := n.Value.StringValue(); ok && rawText(s) {
			return s, nil
		}
	}
	return "{" + out + "}", nil
}

// rawText reports whether s can be written as JSX text without changing
// its meaning.
func rawText(s string) bool {
	return s != "" && strings.TrimSpace(s) == s && !strings.ContainsAny(s, "{}<>&\n")
}

func (r *renderer) children(path ir.Path, nodes []ir.Node) (string, bool, error) {
	var lines []string
	for i, n := range nodes {
		out, err := r.child(path.Child(i), n)
		if err != nil {
			return "", false, err
		}
		if out != "" {
			lines = append(lines, out)
		}
	}
	body := strings.Join(lines, "\n")
	return body, generator.SingleText(nodes) && !generator.IsMultiline(body), nil
}

func (r *renderer) Element(path ir.Path, el *ir.Element) (string, error) {
	open, err := openTag(path, el)
	if err != nil {
		return "", err
	}
	if r.tags.IsVoid(el.Tag) || len(el.Children) == 0 {
		return open + " />", nil
	}
	body, inline, err := r.children(path, el.Children)
	if err != nil {
		return "", err
	}
	closeTag := "</" + el.Tag + ">"
	if inline {
		return open + ">" + body + closeTag, nil
	}
	return generator.Block(open+">", body, closeTag), nil
}

func openTag(path ir.Path, el *ir.Element) (string, error) {
	parts := []string{"<" + el.Tag}
	for _, a := range el.Attributes {
		attr, err := jsxAttr(path.Key("attributes", a.Name), a.Name, a.Value)
		if err != nil {
			return "", err
		}
		parts = append(parts, attr)
	}
	for _, ev := range el.Events {
		parts = append(parts, ev.Name+"={"+ev.Handler+"}")
	}
	return strings.Join(parts, " "), nil
}

func jsxAttr(path ir.Path, name string, b ir.Binding) (string, error) {
	if s, ok := b.StringValue(); ok && !strings.ContainsAny(s, `"&`) {
		return name + `="` + s + `"`, nil
	}
	if v, ok := b.BoolValue(); ok && v {
		return name, nil
	}
	code, err := generator.Expr(path, b)
	if err != nil {
		return "", err
	}
	return name + "={" + code + "}", nil
}

func (r *renderer) Text(path ir.Path, n *ir.Text) (string, error) {
	return generator.Expr(path, n.Value)
}

func (r *renderer) Conditional(path ir.Path, n *ir.Conditional) (string, error) {
	cond, err := generator.Expr(path.Field("condition"), n.Condition)
	if err != nil {
		return "", err
	}
	cons, err := r.branch(path.Field("consequent"), n.Consequent)
	if err != nil {
		return "", err
	}
	alt, err := r.branch(path.Field("alternate"), n.Alternate)
	if err != nil {
		return "", err
	}

	switch {
	case cons == "" && alt == "":
		return "", nil
	case alt == "":
		return generator.Group(cond) + " && " + paren(cons), nil
	case cons == "":
		return generator.Group(cond) + " ? null : " + paren(alt), nil
	}
	return generator.Group(cond) + " ? " + paren(cons) + " : " + paren(alt), nil
}

// branch renders a conditional branch in expression form. Nested
// conditionals and dynamic text are parenthesized so && and ?: never
// regroup.
func (r *renderer) branch(path ir.Path, n ir.Node) (string, error) {
	if n == nil {
		return "", nil
	}
	out, err := ir.Visit[string](r, path, n)
	if err != nil {
		return "", err
	}
	switch n := n.(type) {
	case *ir.Conditional:
		if out != "" && !generator.IsMultiline(out) {
			out = "(" + out + ")"
		}
	case *ir.Text:
		if n.Value.IsDynamic() {
			out = generator.Group(out)
		}
	}
	return out, nil
}

// paren wraps multi-line markup in parentheses on their own lines.
func paren(s string) string {
	if !generator.IsMultiline(s) {
		return s
	}
	return generator.Block("(", s, ")")
}

func (r *renderer) ForEach(path ir.Path, n *ir.ForEach) (string, error) {
	iter, err := generator.Expr(path.Field("iterable"), n.Iterable)
	if err != nil {
		return "", err
	}

	bodyPath := path.Field("body")
	var body string
	switch el, isElement := n.Body.(*ir.Element); {
	case n.Key == nil:
		body, err = ir.Visit[string](r, bodyPath, n.Body)
	case isElement && el != nil:
		body, err = r.Element(bodyPath, el.WithLeadingAttr(ir.Attribute{Name: "key", Value: *n.Key}))
	default:
		body, err = r.keyedFragment(path, bodyPath, n)
	}
	if err != nil {
		return "", err
	}
	if body == "" {
		body = "null"
	}

	params := "(" + n.Item + ")"
	if n.Index != "" {
		params = "(" + n.Item + ", " + n.Index + ")"
	}
	return generator.Group(iter) + ".map(" + params + " => " + paren(body) + ")", nil
}

func (r *renderer) keyedFragment(path, bodyPath ir.Path, n *ir.ForEach) (string, error) {
	key, err := generator.Expr(path.Field("key"), *n.Key)
	if err != nil {
		return "", err
	}
	inner, err := r.child(bodyPath, n.Body)
	if err != nil {
		return "", err
	}
	r.needFragment = true
	open := "<Fragment key={" + key + "}>"
	if !generator.IsMultiline(inner) {
		return open + inner + "</Fragment>", nil
	}
	return generator.Block(open, inner, "</Fragment>"), nil
}

func (r *renderer) Fragment(path ir.Path, n *ir.Fragment) (string, error) {
	body, inline, err := r.children(path, n.Children)
	if err != nil {
		return "", err
	}
	if inline || body == "" {
		return "<>" + body + "</>", nil
	}
	return generator.Block("<>", body, "</>"), nil
}
