package ir

import (
	"fmt"
	"strconv"
)

// Path locates a node or field inside a component, e.g.
// "root/children[0]/consequent".
type Path string

// RootPath is the path of the component's root node.
const RootPath Path = "root"

// Field appends a named field.
func (p Path) Field(name string) Path {
	if p == "" {
		return Path(name)
	}
	return p + "/" + Path(name)
}

// Child appends a child index.
func (p Path) Child(i int) Path {
	return p.Field("children[" + strconv.Itoa(i) + "]")
}

// Key appends a keyed entry such as attributes[class].
func (p Path) Key(field, key string) Path {
	return p.Field(fmt.Sprintf("%s[%s]", field, key))
}

func (p Path) String() string { return string(p) }

// UnsupportedConstruct reports an IR shape a generator has no mapping for.
type UnsupportedConstruct struct {
	Target  string
	Path    Path
	Feature string
}

// Unsupported returns an *UnsupportedConstruct for path and feature.
func Unsupported(path Path, feature string) *UnsupportedConstruct {
	if path == "" {
		path = RootPath
	}
	return &UnsupportedConstruct{Path: path, Feature: feature}
}

func (e *UnsupportedConstruct) Error() string {
	if e.Target != "" {
		return fmt.Sprintf("%s: unsupported construct %s at %s", e.Target, e.Feature, e.Path)
	}
	return fmt.Sprintf("unsupported construct %s at %s", e.Feature, e.Path)
}
