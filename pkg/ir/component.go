// Package ir defines the framework-neutral component representation produced
// by the parser and consumed by every generator.
//
// A Component is immutable once the parser returns it. Generators only read
// it, so one instance may be handed to several generators concurrently.
package ir

// DefaultStateRef is the identifier the state store is bound to when the
// source does not name one.
const DefaultStateRef = "state"

// Component is the root of the IR.
type Component struct {
	Name string

	// PropsRef is the parameter name when props are received as a single
	// object (function Foo(props)). It is empty when props are destructured.
	PropsRef string

	// StateRef is the identifier the state store is bound to.
	StateRef string

	Imports []Import
	Props   []Prop
	State   []StateVar
	Context []ContextRef
	Hooks   []Hook

	// Logic holds opaque pass-through statements for logic-capable targets.
	Logic []string

	Root Node
}

// Import is one import declaration.
type Import struct {
	Source    string
	Default   string
	Namespace string
	Named     []ImportName
}

// ImportName is one named import binding.
type ImportName struct {
	Name  string
	Alias string
}

// Local returns the identifier the binding is visible under.
func (n ImportName) Local() string {
	if n.Alias != "" {
		return n.Alias
	}
	return n.Name
}

// Prop is a declared prop with an optional default.
type Prop struct {
	Name    string
	Default *Binding
}

// StateVar is one entry of the state store.
type StateVar struct {
	Name string
	Init Binding

	// Method marks methods and accessors; Init is then Dynamic and holds the
	// complete member text, e.g. "inc() { state.count++ }".
	Method bool
}

// Phase is a lifecycle hook phase.
type Phase string

const (
	OnMount   Phase = "onMount"
	OnUpdate  Phase = "onUpdate"
	OnUnmount Phase = "onUnmount"
)

// Valid reports whether p is a known phase.
func (p Phase) Valid() bool {
	switch p {
	case OnMount, OnUpdate, OnUnmount:
		return true
	}
	return false
}

// Hook is a lifecycle hook registration.
type Hook struct {
	Phase Phase
	Body  string
}

// ContextKind distinguishes context reads from provides.
type ContextKind string

const (
	ContextRead    ContextKind = "read"
	ContextProvide ContextKind = "provide"
)

// ContextRef is a context read (const name = useContext(Key)) or provide
// (setContext(Key, Value)).
type ContextRef struct {
	Kind  ContextKind
	Name  string
	Key   string
	Value *Binding
}

// HasLogic reports whether the component carries anything beyond its render
// tree: state, hooks, context, or pass-through statements.
func (c *Component) HasLogic() bool {
	return len(c.State) > 0 || len(c.Hooks) > 0 || len(c.Context) > 0 || len(c.Logic) > 0
}

// Reads returns the context reads in declaration order.
func (c *Component) Reads() []ContextRef {
	return c.contextOf(ContextRead)
}

// Provides returns the context provides in declaration order.
func (c *Component) Provides() []ContextRef {
	return c.contextOf(ContextProvide)
}

func (c *Component) contextOf(kind ContextKind) []ContextRef {
	var out []ContextRef
	for _, ref := range c.Context {
		if ref.Kind == kind {
			out = append(out, ref)
		}
	}
	return out
}

// StateName returns StateRef or DefaultStateRef.
func (c *Component) StateName() string {
	if c.StateRef == "" {
		return DefaultStateRef
	}
	return c.StateRef
}
