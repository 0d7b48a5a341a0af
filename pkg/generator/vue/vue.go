// Package vue generates Vue single-file components: a directive template and
// a <script setup> block.
package vue

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/recera/jsxlite/pkg/generator"
	"github.com/recera/jsxlite/pkg/ir"
	"github.com/recera/jsxlite/pkg/naming"
)

// Target is the registry name of this generator.
const Target = "vue"

const vueModule = "vue"

var lifecycle = map[ir.Phase]string{
	ir.OnMount:   "onMounted",
	ir.OnUpdate:  "onUpdated",
	ir.OnUnmount: "onUnmounted",
}

// Options configures the generator.
type Options struct {
	// Tags supplies void elements and attribute aliases. Nil means
	// naming.Default().
	Tags *naming.Table
}

// Generator renders components as Vue SFC source. It is safe for concurrent
// use.
type Generator struct {
	tags *naming.Table
}

// New creates a Vue generator.
func New(opts Options) *Generator {
	return &Generator{tags: opts.Tags.Or()}
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

	tree, err := ir.Visit[string](g, ir.RootPath, c.Root)
	if err != nil {
		return "", err
	}
	script, err := g.script(c)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString(generator.Block("<template>", tree, "</template>"))
	sb.WriteString("\n")
	if script != "" {
		sb.WriteString("\n<script setup>\n")
		sb.WriteString(script)
		sb.WriteString("\n</script>\n")
	}
	return sb.String(), nil
}

func (g *Generator) script(c *ir.Component) (string, error) {
	var (
		vueNames []string
		sections []string
	)

	props, err := defineProps(c)
	if err != nil {
		return "", err
	}
	sections = append(sections, props)

	if len(c.State) > 0 {
		vueNames = append(vueNames, "reactive")
		entries, err := generator.ObjectBody(c)
		if err != nil {
			return "", err
		}
		open := fmt.Sprintf("const %s = reactive({", c.StateName())
		sections = append(sections, generator.Block(open, entries, "});"))
	}

	var context []string
	if reads := c.Reads(); len(reads) > 0 {
		vueNames = append(vueNames, "inject")
		for _, ref := range reads {
			context = append(context, fmt.Sprintf("const %s = inject(%s);", ref.Name, ref.Key))
		}
	}
	if provides := c.Provides(); len(provides) > 0 {
		vueNames = append(vueNames, "provide")
		for _, p := range provides {
			path := ir.Path("").Key("context", p.Key)
			if p.Value == nil {
				return "", ir.Unsupported(path, "provide without a value")
			}
			value, err := generator.Expr(path, *p.Value)
			if err != nil {
				return "", err
			}
			context = append(context, fmt.Sprintf("provide(%s, %s);", p.Key, value))
		}
	}
	sections = append(sections, strings.Join(context, "\n"))

	var logic []string
	for _, stmt := range c.Logic {
		logic = append(logic, generator.Reindent(stmt))
	}
	sections = append(sections, strings.Join(logic, "\n"))

	seen := make(map[string]bool)
	for i, h := range c.Hooks {
		fn, ok := lifecycle[h.Phase]
		if !ok {
			return "", ir.Unsupported(ir.Path("").Key("hooks", strconv.Itoa(i)), "hook phase "+string(h.Phase))
		}
		if !seen[fn] {
			seen[fn] = true
			vueNames = append(vueNames, fn)
		}
		sections = append(sections, generator.Block(fn+"(() => {", generator.Reindent(h.Body), "});"))
	}

	var head []string
	if len(vueNames) > 0 {
		head = append(head, generator.NamedImport(vueModule, vueNames...))
	}
	for _, imp := range c.Imports {
		head = append(head, generator.ImportLine(imp))
	}

	var parts []string
	if len(head) > 0 {
		parts = append(parts, strings.Join(head, "\n"))
	}
	for _, s := range sections {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "\n\n"), nil
}

// defineProps declares props with the compiler macro. Destructured props use
// reactive destructuring so defaults stay in the authored form.
func defineProps(c *ir.Component) (string, error) {
	if len(c.Props) == 0 {
		return "", nil
	}
	names := make([]string, len(c.Props))
	for i, p := range c.Props {
		names[i] = strconv.Quote(p.Name)
	}
	macro := "defineProps([" + strings.ReplaceAll(strings.Join(names, ", "), `"`, "'") + "])"
	if c.PropsRef != "" {
		return fmt.Sprintf("const %s = %s;", c.PropsRef, macro), nil
	}

	fields := make([]string, len(c.Props))
	for i, p := range c.Props {
		fields[i] = p.Name
		if p.Default != nil {
			def, err := generator.Expr(ir.Path("").Key("props", p.Name), *p.Default)
			if err != nil {
				return "", err
			}
			fields[i] += " = " + def
		}
	}
	return fmt.Sprintf("const { %s } = %s;", strings.Join(fields, ", "), macro), nil
}

func (g *Generator) Element(path ir.Path, el *ir.Element) (string, error) {
	return g.element(path, el, nil)
}

// element renders el with directives placed before its own attributes.
func (g *Generator) element(path ir.Path, el *ir.Element, directives []string) (string, error) {
	parts := append([]string{"<" + el.Tag}, directives...)
	for _, a := range el.Attributes {
		attr, err := g.attr(path.Key("attributes", a.Name), a.Name, a.Value)
		if err != nil {
			return "", err
		}
		parts = append(parts, attr)
	}
	for _, ev := range el.Events {
		parts = append(parts, "@"+naming.EventName(ev.Name)+"="+generator.QuoteAttr(ev.Handler))
	}
	open := strings.Join(parts, " ")

	if g.tags.IsVoid(el.Tag) {
		return open + " />", nil
	}
	closeTag := "</" + el.Tag + ">"
	body, err := g.children(path, el.Children)
	if err != nil {
		return "", err
	}
	if body == "" || generator.AllText(el.Children) && !generator.IsMultiline(body) {
		return open + ">" + body + closeTag, nil
	}
	return generator.Block(open+">", body, closeTag), nil
}

func (g *Generator) attr(path ir.Path, name string, b ir.Binding) (string, error) {
	html := g.tags.HTMLAttr(name)
	if s, ok := b.StringValue(); ok {
		return html + "=" + generator.QuoteAttr(generator.EscapeText(s)), nil
	}
	if v, ok := b.BoolValue(); ok && v {
		return html, nil
	}
	code, err := generator.Expr(path, b)
	if err != nil {
		return "", err
	}
	return ":" + html + "=" + generator.QuoteAttr(code), nil
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
	if s, ok := n.Value.StringValue(); ok && !strings.Contains(s, "{{") {
		return generator.EscapeText(s), nil
	}
	code, err := generator.Expr(path, n.Value)
	if err != nil {
		return "", err
	}
	return "{{ " + code + " }}", nil
}

// Conditional renders the v-if / v-else-if / v-else chain as siblings.
// Alternates that are themselves conditionals continue the chain.
func (g *Generator) Conditional(path ir.Path, n *ir.Conditional) (string, error) {
	var out []string
	directive := "v-if"
	for {
		cond, err := generator.Expr(path.Field("condition"), n.Condition)
		if err != nil {
			return "", err
		}

		cons := n.Consequent
		branchPath := path.Field("consequent")
		if cons == nil {
			if n.Alternate == nil {
				break
			}
			// Nothing to show when true: flip the test onto the alternate.
			cond = "!" + generator.Group(cond)
			cons = n.Alternate
			branchPath = path.Field("alternate")
			n = &ir.Conditional{}
		}

		b, err := g.branch(branchPath, cons, directive+"="+generator.QuoteAttr(cond))
		if err != nil {
			return "", err
		}
		out = append(out, b)

		next, ok := n.Alternate.(*ir.Conditional)
		if ok && next != nil && next.Consequent != nil {
			path = path.Field("alternate")
			n = next
			directive = "v-else-if"
			continue
		}
		if n.Alternate != nil {
			b, err := g.branch(path.Field("alternate"), n.Alternate, "v-else")
			if err != nil {
				return "", err
			}
			out = append(out, b)
		}
		break
	}
	return strings.Join(out, "\n"), nil
}

// branch attaches a directive to n, wrapping n in <template> unless it is an
// element.
func (g *Generator) branch(path ir.Path, n ir.Node, directive string) (string, error) {
	if el, ok := n.(*ir.Element); ok && el != nil {
		return g.element(path, el, []string{directive})
	}
	body, err := ir.Visit[string](g, path, n)
	if err != nil {
		return "", err
	}
	return wrap("<template "+directive+">", body, "</template>"), nil
}

func wrap(open, body, closeTag string) string {
	if !generator.IsMultiline(body) {
		return open + body + closeTag
	}
	return generator.Block(open, body, closeTag)
}

func (g *Generator) ForEach(path ir.Path, n *ir.ForEach) (string, error) {
	iter, err := generator.Expr(path.Field("iterable"), n.Iterable)
	if err != nil {
		return "", err
	}
	alias := n.Item
	if n.Index != "" {
		alias = "(" + n.Item + ", " + n.Index + ")"
	}
	directives := []string{"v-for=" + generator.QuoteAttr(alias+" in "+iter)}
	if n.Key != nil {
		key, err := generator.Expr(path.Field("key"), *n.Key)
		if err != nil {
			return "", err
		}
		directives = append(directives, ":key="+generator.QuoteAttr(key))
	}

	bodyPath := path.Field("body")
	if el, ok := n.Body.(*ir.Element); ok && el != nil {
		return g.element(bodyPath, el, directives)
	}
	body, err := ir.Visit[string](g, bodyPath, n.Body)
	if err != nil {
		return "", err
	}
	return wrap("<template "+strings.Join(directives, " ")+">", body, "</template>"), nil
}

func (g *Generator) Fragment(path ir.Path, n *ir.Fragment) (string, error) {
	return g.children(path, n.Children)
}
