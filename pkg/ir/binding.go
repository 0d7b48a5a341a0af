package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// BindingKind tells literal values from dynamic expressions.
type BindingKind uint8

const (
	// Literal bindings hold a decoded JSON-compatible value.
	Literal BindingKind = iota + 1
	// Dynamic bindings hold authoring-DSL source text, carried unchanged.
	Dynamic
)

func (k BindingKind) String() string {
	switch k {
	case Literal:
		return "literal"
	case Dynamic:
		return "dynamic"
	}
	return fmt.Sprintf("binding(%d)", uint8(k))
}

// Binding is a value classified at parse time. The zero Binding has no kind
// and is not a valid binding.
type Binding struct {
	Kind BindingKind

	// Value is set for Literal bindings: nil, bool, string, json.Number,
	// []any or map[string]any.
	Value any

	// Code is set for Dynamic bindings.
	Code string
}

// LiteralOf returns a literal binding.
func LiteralOf(v any) Binding {
	return Binding{Kind: Literal, Value: v}
}

// DynamicOf returns a dynamic binding.
func DynamicOf(code string) Binding {
	return Binding{Kind: Dynamic, Code: code}
}

// IsLiteral reports whether b is a literal.
func (b Binding) IsLiteral() bool { return b.Kind == Literal }

// IsDynamic reports whether b is a dynamic expression.
func (b Binding) IsDynamic() bool { return b.Kind == Dynamic }

// StringValue returns the literal string value, if b is a literal string.
func (b Binding) StringValue() (string, bool) {
	if b.Kind != Literal {
		return "", false
	}
	s, ok := b.Value.(string)
	return s, ok
}

// BoolValue returns the literal boolean value, if b is a literal boolean.
func (b Binding) BoolValue() (bool, bool) {
	if b.Kind != Literal {
		return false, false
	}
	v, ok := b.Value.(bool)
	return v, ok
}

// Source renders b as an expression in the authoring DSL: literals as JSON,
// dynamic bindings as their code.
func (b Binding) Source() (string, error) {
	switch b.Kind {
	case Literal:
		return MarshalLiteral(b.Value)
	case Dynamic:
		return b.Code, nil
	}
	return "", fmt.Errorf("unknown %s", b.Kind)
}

// MarshalLiteral encodes a literal value as compact JSON without HTML
// escaping.
func MarshalLiteral(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}
