package dump

import "encoding/json"

// The wire types fix the field order of the dump. Empty fields are omitted
// so a dump shows only what the component uses.

type wireComponent struct {
	Name     string        `json:"name"`
	PropsRef string        `json:"propsRef,omitempty"`
	StateRef string        `json:"stateRef,omitempty"`
	Imports  []wireImport  `json:"imports,omitempty"`
	Props    []wireProp    `json:"props,omitempty"`
	State    []wireState   `json:"state,omitempty"`
	Context  []wireContext `json:"context,omitempty"`
	Hooks    []wireHook    `json:"hooks,omitempty"`
	Logic    []string      `json:"logic,omitempty"`
	Root     *wireNode     `json:"root"`
}

type wireImport struct {
	Source    string           `json:"source"`
	Default   string           `json:"default,omitempty"`
	Namespace string           `json:"namespace,omitempty"`
	Named     []wireImportName `json:"named,omitempty"`
}

type wireImportName struct {
	Name  string `json:"name"`
	Alias string `json:"alias,omitempty"`
}

type wireProp struct {
	Name    string       `json:"name"`
	Default *wireBinding `json:"default,omitempty"`
}

type wireState struct {
	Name   string      `json:"name"`
	Init   wireBinding `json:"init"`
	Method bool        `json:"method,omitempty"`
}

type wireContext struct {
	Kind  string       `json:"kind"`
	Name  string       `json:"name,omitempty"`
	Key   string       `json:"key"`
	Value *wireBinding `json:"value,omitempty"`
}

type wireHook struct {
	Phase string `json:"phase"`
	Body  string `json:"body"`
}

type wireBinding struct {
	Kind  string          `json:"kind"`
	Value json.RawMessage `json:"value,omitempty"`
	Code  string          `json:"code,omitempty"`
}

// wireNode is every node variant in one shape, told apart by Kind.
type wireNode struct {
	Kind string `json:"kind"`

	Tag        string          `json:"tag,omitempty"`
	Attributes []wireAttribute `json:"attributes,omitempty"`
	Events     []wireEvent     `json:"events,omitempty"`

	Value *wireBinding `json:"value,omitempty"`

	Condition  *wireBinding `json:"condition,omitempty"`
	Consequent *wireNode    `json:"consequent,omitempty"`
	Alternate  *wireNode    `json:"alternate,omitempty"`

	Iterable *wireBinding `json:"iterable,omitempty"`
	Item     string       `json:"item,omitempty"`
	Index    string       `json:"index,omitempty"`
	Key      *wireBinding `json:"key,omitempty"`
	Body     *wireNode    `json:"body,omitempty"`

	Children []*wireNode `json:"children,omitempty"`
}

type wireAttribute struct {
	Name  string      `json:"name"`
	Value wireBinding `json:"value"`
}

type wireEvent struct {
	Name    string `json:"name"`
	Handler string `json:"handler"`
}
