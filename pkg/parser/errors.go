package parser

import (
	"fmt"
	"strings"

	"github.com/recera/jsxlite/pkg/syntax"
)

// Error is a parse failure: the source could not be mapped onto the IR. It
// names the offending construct and where it starts.
type Error struct {
	Filename  string
	Pos       syntax.Position
	Construct string
	Reason    string

	// Err is the underlying cause, such as a *syntax.Error.
	Err error
}

func (e *Error) Error() string {
	var sb strings.Builder
	if e.Filename != "" {
		sb.WriteString(e.Filename)
		sb.WriteByte(':')
	}
	sb.WriteString(e.Pos.String())
	sb.WriteString(": ")
	if e.Construct != "" {
		sb.WriteString("unsupported ")
		sb.WriteString(e.Construct)
		sb.WriteString(": ")
	}
	sb.WriteString(e.Reason)
	return sb.String()
}

func (e *Error) Unwrap() error { return e.Err }

// errorf builds an *Error located at n.
func (ps *parseState) errorf(n *syntax.Node, format string, args ...any) *Error {
	construct := ""
	if n != nil {
		construct = n.Type()
	}
	return &Error{
		Filename:  ps.opts.Filename,
		Pos:       syntax.PositionOf(n),
		Construct: construct,
		Reason:    fmt.Sprintf(format, args...),
	}
}
