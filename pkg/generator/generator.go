// Package generator holds what the target generators share: the Generator
// contract and the text helpers they lay output out with.
//
// Generators are pure. They read the IR, never mutate it, and never go back
// to the syntax tree: every source fragment they need is already text in the
// IR.
package generator

import (
	"fmt"
	"html"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/recera/jsxlite/pkg/ir"
)

// Generator renders a component as target source text.
type Generator interface {
	Generate(c *ir.Component) (string, error)
}

// Func adapts a function to Generator.
type Func func(c *ir.Component) (string, error)

func (f Func) Generate(c *ir.Component) (string, error) { return f(c) }

// Tab is one indentation level in generated output.
const Tab = "  "

// Expr renders b as an expression in the authoring DSL. The zero binding is
// reported as unsupported at path.
func Expr(path ir.Path, b ir.Binding) (string, error) {
	switch b.Kind {
	case ir.Literal:
		s, err := ir.MarshalLiteral(b.Value)
		if err != nil {
			return "", fmt.Errorf("%s: %w", path, err)
		}
		return s, nil
	case ir.Dynamic:
		return b.Code, nil
	}
	return "", ir.Unsupported(path, "unclassified binding")
}

// Indent prefixes every non-empty line of s with depth tabs.
func Indent(s string, depth int) string {
	if depth <= 0 || s == "" {
		return s
	}
	prefix := strings.Repeat(Tab, depth)
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = prefix + line
		}
	}
	return strings.Join(lines, "\n")
}

// Reindent normalizes source text lifted out of a larger file. The first
// line starts where the fragment started, so only the following lines carry
// their original indentation; that common indentation is removed.
func Reindent(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) == 1 {
		return lines[0]
	}

	common := -1
	for _, line := range lines[1:] {
		if strings.TrimSpace(line) == "" {
			continue
		}
		n := len(line) - len(strings.TrimLeft(line, " \t"))
		if common < 0 || n < common {
			common = n
		}
	}
	if common < 0 {
		common = 0
	}

	for i := 1; i < len(lines); i++ {
		line := strings.TrimRight(lines[i], " \t\r")
		if len(line) >= common {
			line = line[common:]
		} else {
			line = strings.TrimLeft(line, " \t")
		}
		lines[i] = line
	}
	return strings.Join(lines, "\n")
}

// IsMultiline reports whether s spans more than one line.
func IsMultiline(s string) bool {
	return strings.Contains(s, "\n")
}

var simpleExpr = regexp.MustCompile(`^!?[A-Za-z_$][\w$]*(\??\.[A-Za-z_$][\w$]*|\[[\w$."']*\])*(\(\))?$`)

// IsSimple reports whether code is an identifier or member chain that needs
// no parentheses next to an operator.
func IsSimple(code string) bool {
	return simpleExpr.MatchString(strings.TrimSpace(code))
}

// Group parenthesizes code unless it is simple.
func Group(code string) string {
	if IsSimple(code) {
		return code
	}
	return "(" + code + ")"
}

// QuoteAttr quotes an attribute value with double quotes, falling back to
// single quotes, and escapes double quotes when the value holds both.
func QuoteAttr(v string) string {
	switch {
	case !strings.Contains(v, `"`):
		return `"` + v + `"`
	case !strings.Contains(v, `'`):
		return `'` + v + `'`
	}
	return `"` + strings.ReplaceAll(v, `"`, "&quot;") + `"`
}

// EscapeText escapes literal text for HTML-like markup.
func EscapeText(s string) string {
	return html.EscapeString(s)
}

// Block renders an opening line, an indented body, and a closing line. An
// empty body renders the two lines alone.
func Block(open, body, close string) string {
	if body == "" {
		return open + "\n" + close
	}
	return open + "\n" + Indent(body, 1) + "\n" + close
}

// Lines joins non-empty parts with newlines.
func Lines(parts ...string) string {
	out := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, "\n")
}

// SingleText reports whether children is exactly one text node, the case
// generators render on the same line as the parent tag.
func SingleText(children []ir.Node) bool {
	if len(children) != 1 {
		return false
	}
	_, ok := children[0].(*ir.Text)
	return ok
}

// AllText reports whether children is non-empty and holds only text nodes.
func AllText(children []ir.Node) bool {
	for _, n := range children {
		if _, ok := n.(*ir.Text); !ok {
			return false
		}
	}
	return len(children) > 0
}

// JoinChildren joins rendered children for markup where whitespace is
// significant. outs[i] is the rendering of nodes[i]; empty renderings are
// skipped. A line break goes between two outputs only when neither is text,
// since a break next to text would render as a space.
func JoinChildren(nodes []ir.Node, outs []string) string {
	var b strings.Builder
	prevText := false
	for i, out := range outs {
		if out == "" {
			continue
		}
		_, text := nodes[i].(*ir.Text)
		if b.Len() > 0 && !text && !prevText {
			b.WriteByte('\n')
		}
		b.WriteString(out)
		prevText = text
	}
	return b.String()
}

var identifier = regexp.MustCompile(`^[A-Za-z_$][\w$]*$`)

// PropertyKey renders name as an object literal key, quoting it when it is
// not an identifier.
func PropertyKey(name string) string {
	if identifier.MatchString(name) {
		return name
	}
	return strconv.Quote(name)
}

// ObjectBody renders the entries of a component's state store, one per
// line, each ending in a comma.
func ObjectBody(c *ir.Component) (string, error) {
	lines := make([]string, 0, len(c.State))
	for _, v := range c.State {
		path := ir.Path("").Key("state", v.Name)
		if v.Method {
			if !v.Init.IsDynamic() {
				return "", ir.Unsupported(path, "method with a literal body")
			}
			lines = append(lines, Reindent(v.Init.Code)+",")
			continue
		}
		value, err := Expr(path, v.Init)
		if err != nil {
			return "", err
		}
		lines = append(lines, PropertyKey(v.Name)+": "+Reindent(value)+",")
	}
	return strings.Join(lines, "\n"), nil
}

// ImportLine renders one ES import declaration.
func ImportLine(imp ir.Import) string {
	var clause []string
	if imp.Default != "" {
		clause = append(clause, imp.Default)
	}
	if imp.Namespace != "" {
		clause = append(clause, "* as "+imp.Namespace)
	}
	if len(imp.Named) > 0 {
		names := make([]string, len(imp.Named))
		for i, n := range imp.Named {
			names[i] = n.Name
			if n.Alias != "" && n.Alias != n.Name {
				names[i] += " as " + n.Alias
			}
		}
		clause = append(clause, "{ "+strings.Join(names, ", ")+" }")
	}
	if len(clause) == 0 {
		return fmt.Sprintf("import '%s';", imp.Source)
	}
	return fmt.Sprintf("import %s from '%s';", strings.Join(clause, ", "), imp.Source)
}

// NamedImport renders "import { a, b } from 'source';" with names sorted.
func NamedImport(source string, names ...string) string {
	sorted := append([]string(nil), names...)
	sort.Strings(sorted)
	return fmt.Sprintf("import { %s } from '%s';", strings.Join(sorted, ", "), source)
}

// WrapTarget stamps target onto an *ir.UnsupportedConstruct.
func WrapTarget(target string, err error) error {
	if uc, ok := err.(*ir.UnsupportedConstruct); ok && uc.Target == "" {
		cp := *uc
		cp.Target = target
		return &cp
	}
	return err
}
