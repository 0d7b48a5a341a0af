// Package naming holds the tag and identifier tables shared by the parser and
// every generator, so that all backends agree on which elements are void and
// how authored names map onto each target's conventions.
package naming

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// voidElements are HTML elements that cannot have children
var voidElements = []string{
	"area",
	"base",
	"br",
	"col",
	"embed",
	"hr",
	"img",
	"input",
	"link",
	"meta",
	"param",
	"source",
	"track",
	"wbr",
}

// booleanAttributes are HTML attributes that are boolean flags
var booleanAttributes = []string{
	"async",
	"autofocus",
	"checked",
	"defer",
	"disabled",
	"hidden",
	"multiple",
	"readonly",
	"required",
	"selected",
}

// attributeAliases maps JSX attribute names onto their HTML spelling
var attributeAliases = map[string]string{
	"className": "class",
	"htmlFor":   "for",
}

// Table is an immutable set of tag and attribute rules. A Table is safe for
// concurrent use; nothing mutates it after construction.
type Table struct {
	void    map[string]struct{}
	boolean map[string]struct{}
	aliases map[string]string
}

// Option configures a Table under construction.
type Option func(*Table)

// WithVoidElements replaces the void element set.
func WithVoidElements(tags ...string) Option {
	return func(t *Table) {
		t.void = toSet(tags)
	}
}

// WithBooleanAttributes replaces the boolean attribute set.
func WithBooleanAttributes(names ...string) Option {
	return func(t *Table) {
		t.boolean = toSet(names)
	}
}

// WithAttributeAlias adds or overrides a JSX to HTML attribute alias.
func WithAttributeAlias(jsx, html string) Option {
	return func(t *Table) {
		t.aliases[jsx] = html
	}
}

// Default returns the HTML rule table.
func Default() *Table {
	return New()
}

// New builds a table from the HTML defaults and the given options.
func New(opts ...Option) *Table {
	t := &Table{
		void:    toSet(voidElements),
		boolean: toSet(booleanAttributes),
		aliases: make(map[string]string, len(attributeAliases)),
	}
	for k, v := range attributeAliases {
		t.aliases[k] = v
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Or returns t, or the default table when t is nil.
func (t *Table) Or() *Table {
	if t == nil {
		return Default()
	}
	return t
}

// IsVoid reports whether tag can never have children.
func (t *Table) IsVoid(tag string) bool {
	if IsComponentTag(tag) {
		return false
	}
	_, ok := t.void[strings.ToLower(tag)]
	return ok
}

// IsBooleanAttr reports whether an HTML attribute is a presence flag.
func (t *Table) IsBooleanAttr(name string) bool {
	_, ok := t.boolean[strings.ToLower(t.HTMLAttr(name))]
	return ok
}

// HTMLAttr returns the HTML spelling of a JSX attribute name.
func (t *Table) HTMLAttr(name string) string {
	if alias, ok := t.aliases[name]; ok {
		return alias
	}
	return name
}

// NormalizeTag resolves authored tag casing. Intrinsic tags (lowercase first
// letter) are lowercased; component tags are kept as written.
func (t *Table) NormalizeTag(tag string) string {
	if IsComponentTag(tag) {
		return tag
	}
	return strings.ToLower(tag)
}

// VoidElements returns the void tag names, sorted.
func (t *Table) VoidElements() []string {
	out := make([]string, 0, len(t.void))
	for tag := range t.void {
		out = append(out, tag)
	}
	sort.Strings(out)
	return out
}

// IsComponentTag reports whether tag refers to a component rather than an
// intrinsic element: it starts with an uppercase letter or is a member path.
func IsComponentTag(tag string) bool {
	if tag == "" {
		return false
	}
	r, _ := utf8.DecodeRuneInString(tag)
	return unicode.IsUpper(r) || strings.Contains(tag, ".")
}

// Uncapitalize lowercases the first character of s.
func Uncapitalize(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToLower(r)) + s[size:]
}

// Capitalize uppercases the first character of s.
func Capitalize(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}

// IsEventName reports whether an attribute name is an event binding such as
// onClick.
func IsEventName(name string) bool {
	if len(name) < 3 || !strings.HasPrefix(name, "on") {
		return false
	}
	r, _ := utf8.DecodeRuneInString(name[2:])
	return unicode.IsUpper(r)
}

// EventName strips the "on" prefix from an event attribute: onClick -> click.
func EventName(name string) string {
	if !IsEventName(name) {
		return name
	}
	return Uncapitalize(name[2:])
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, item := range items {
		set[strings.ToLower(item)] = struct{}{}
	}
	return set
}
