package ir

// Node is one element of the render tree. The set of variants is closed:
// Element, Text, Conditional, ForEach and Fragment.
type Node interface {
	Kind() NodeKind
	node() // marker method to seal the variant set
}

// NodeKind names a node variant.
type NodeKind string

const (
	KindElement     NodeKind = "element"
	KindText        NodeKind = "text"
	KindConditional NodeKind = "conditional"
	KindForEach     NodeKind = "forEach"
	KindFragment    NodeKind = "fragment"
)

// Element is a tagged element with attributes, events and children.
type Element struct {
	Tag        string
	Attributes []Attribute
	Events     []Event
	Children   []Node
}

// Attribute is one attribute binding, in authored order.
type Attribute struct {
	Name  string
	Value Binding
}

// Event is one event binding. Handler is opaque source text.
type Event struct {
	Name    string
	Handler string
}

// Text is literal or interpolated text.
type Text struct {
	Value Binding
}

// Conditional renders Consequent when Condition holds and Alternate
// otherwise. Either branch may be nil.
type Conditional struct {
	Condition  Binding
	Consequent Node
	Alternate  Node
}

// ForEach renders Body once per item of Iterable.
type ForEach struct {
	Iterable Binding
	Item     string
	Index    string
	Key      *Binding
	Body     Node
}

// Fragment groups children without a wrapping tag.
type Fragment struct {
	Children []Node
}

func (*Element) Kind() NodeKind     { return KindElement }
func (*Text) Kind() NodeKind        { return KindText }
func (*Conditional) Kind() NodeKind { return KindConditional }
func (*ForEach) Kind() NodeKind     { return KindForEach }
func (*Fragment) Kind() NodeKind    { return KindFragment }

func (*Element) node()     {}
func (*Text) node()        {}
func (*Conditional) node() {}
func (*ForEach) node()     {}
func (*Fragment) node()    {}

// Attr returns the named attribute binding.
func (e *Element) Attr(name string) (Binding, bool) {
	for _, a := range e.Attributes {
		if a.Name == name {
			return a.Value, true
		}
	}
	return Binding{}, false
}

// WithLeadingAttr returns a copy of e with attr placed first. The receiver
// is not modified.
func (e *Element) WithLeadingAttr(attr Attribute) *Element {
	cp := *e
	cp.Attributes = make([]Attribute, 0, len(e.Attributes)+1)
	cp.Attributes = append(cp.Attributes, attr)
	cp.Attributes = append(cp.Attributes, e.Attributes...)
	return &cp
}

// Visitor has one method per node variant. Generators implement it, so adding
// a variant is a compile error until every generator handles it.
type Visitor[T any] interface {
	Element(path Path, n *Element) (T, error)
	Text(path Path, n *Text) (T, error)
	Conditional(path Path, n *Conditional) (T, error)
	ForEach(path Path, n *ForEach) (T, error)
	Fragment(path Path, n *Fragment) (T, error)
}

// Visit dispatches n to the matching Visitor method. Nil and foreign nodes
// yield an *UnsupportedConstruct.
func Visit[T any](v Visitor[T], path Path, n Node) (T, error) {
	switch n := n.(type) {
	case *Element:
		if n != nil {
			return v.Element(path, n)
		}
	case *Text:
		if n != nil {
			return v.Text(path, n)
		}
	case *Conditional:
		if n != nil {
			return v.Conditional(path, n)
		}
	case *ForEach:
		if n != nil {
			return v.ForEach(path, n)
		}
	case *Fragment:
		if n != nil {
			return v.Fragment(path, n)
		}
	}
	var zero T
	return zero, Unsupported(path, featureOf(n))
}

func featureOf(n Node) string {
	if n == nil {
		return "missing node"
	}
	return "node kind " + string(n.Kind())
}

// Walk calls fn for n and every descendant in document order. It stops at
// the first error.
func Walk(path Path, n Node, fn func(Path, Node) error) error {
	if err := fn(path, n); err != nil {
		return err
	}
	switch n := n.(type) {
	case *Element:
		for i, child := range n.Children {
			if err := Walk(path.Child(i), child, fn); err != nil {
				return err
			}
		}
	case *Fragment:
		for i, child := range n.Children {
			if err := Walk(path.Child(i), child, fn); err != nil {
				return err
			}
		}
	case *Conditional:
		if n.Consequent != nil {
			if err := Walk(path.Field("consequent"), n.Consequent, fn); err != nil {
				return err
			}
		}
		if n.Alternate != nil {
			if err := Walk(path.Field("alternate"), n.Alternate, fn); err != nil {
				return err
			}
		}
	case *ForEach:
		if err := Walk(path.Field("body"), n.Body, fn); err != nil {
			return err
		}
	}
	return nil
}
