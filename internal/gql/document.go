// Package gql models GraphQL query documents for request deeds and prints
// them to query text.
//
// Stores accept any printer with the Printer signature; Print is the
// default. It handles raw query strings and Document values.
package gql

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnsupportedNode is returned when a printer receives a node it cannot
// render.
var ErrUnsupportedNode = errors.New("freight: unsupported query document")

// Printer maps a query document to its textual form.
type Printer func(node any) (string, error)

// Document is a single-operation GraphQL document.
type Document struct {
	// Operation is "query", "mutation" or "subscription". Empty means query.
	Operation string
	Name      string
	Variables []Variable
	Fields    []Field
}

// Variable declares an operation variable, e.g. {Name: "id", Type: "ID!"}.
type Variable struct {
	Name string
	Type string
}

// Field is a selection, possibly with arguments and nested selections.
type Field struct {
	Alias     string
	Name      string
	Arguments []Argument
	Fields    []Field
}

// Argument passes a value to a field. Value is written verbatim, so
// variables are referenced as "$id" and strings must carry their quotes.
type Argument struct {
	Name  string
	Value string
}

// Print renders node as query text. Strings are returned unchanged.
func Print(node any) (string, error) {
	switch n := node.(type) {
	case string:
		if strings.TrimSpace(n) == "" {
			return "", fmt.Errorf("%w: empty query", ErrUnsupportedNode)
		}
		return n, nil
	case Document:
		return n.String()
	case *Document:
		if n == nil {
			return "", fmt.Errorf("%w: nil document", ErrUnsupportedNode)
		}
		return n.String()
	default:
		return "", fmt.Errorf("%w: %T", ErrUnsupportedNode, node)
	}
}

// String renders the document in the conventional two-space layout.
func (d Document) String() (string, error) {
	if len(d.Fields) == 0 {
		return "", fmt.Errorf("%w: document has no selections", ErrUnsupportedNode)
	}

	op := d.Operation
	if op == "" {
		op = "query"
	}
	switch op {
	case "query", "mutation", "subscription":
	default:
		return "", fmt.Errorf("%w: unknown operation %q", ErrUnsupportedNode, op)
	}

	var sb strings.Builder
	sb.WriteString(op)
	if d.Name != "" {
		sb.WriteByte(' ')
		sb.WriteString(d.Name)
	}
	if len(d.Variables) > 0 {
		vars := make([]string, len(d.Variables))
		for i, v := range d.Variables {
			vars[i] = "$" + v.Name + ": " + v.Type
		}
		if d.Name == "" {
			sb.WriteByte(' ')
		}
		sb.WriteString("(" + strings.Join(vars, ", ") + ")")
	}
	sb.WriteByte(' ')
	writeSelections(&sb, d.Fields, 0)
	return sb.String(), nil
}

func writeSelections(sb *strings.Builder, fields []Field, depth int) {
	sb.WriteString("{\n")
	indent := strings.Repeat("  ", depth+1)
	for _, f := range fields {
		sb.WriteString(indent)
		if f.Alias != "" {
			sb.WriteString(f.Alias + ": ")
		}
		sb.WriteString(f.Name)
		if len(f.Arguments) > 0 {
			args := make([]string, len(f.Arguments))
			for i, a := range f.Arguments {
				args[i] = a.Name + ": " + a.Value
			}
			sb.WriteString("(" + strings.Join(args, ", ") + ")")
		}
		if len(f.Fields) > 0 {
			sb.WriteByte(' ')
			writeSelections(sb, f.Fields, depth+1)
		}
		sb.WriteByte('\n')
	}
	sb.WriteString(strings.Repeat("  ", depth))
	sb.WriteByte('}')
}
