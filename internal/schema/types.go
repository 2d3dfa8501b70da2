// Package schema provides the metamodel cache for ontograph.
// It defines the class and association definitions that describe an ontology
// language and the read-only indices built from them: the seniors-first class
// ordering, per-class association lists and the reverse reference index.
package schema

import (
	"fmt"
	"strconv"
	"strings"
)

// AssociationDef describes a typed, cardinality-bounded relation owned by a class
type AssociationDef struct {
	ID              string // Unique within the owning class
	Type            string // Target class id, or a leaf type id
	MinCardinality  int
	MaxCardinality  *int  // nil = unbounded
	HeadCardinality *int  // nil = unbounded
	Unique          *bool // nil = true
}

// IsSingleton returns true if the association holds at most one value
func (a AssociationDef) IsSingleton() bool {
	return a.MaxCardinality != nil && *a.MaxCardinality == 1
}

// IsUnique returns true unless uniqueness was explicitly disabled
func (a AssociationDef) IsUnique() bool {
	if a.Unique == nil {
		return true
	}
	return *a.Unique
}

// String returns a compact representation such as "owner: Person [0..1] head=1"
func (a AssociationDef) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s [%d..%s]", a.ID, a.Type, a.MinCardinality, FormatCardinality(a.MaxCardinality))
	if a.HeadCardinality != nil {
		fmt.Fprintf(&b, " head=%d", *a.HeadCardinality)
	}
	if !a.IsUnique() {
		b.WriteString(" non-unique")
	}
	return b.String()
}

func (a AssociationDef) clone() AssociationDef {
	c := a
	c.MaxCardinality = cloneInt(a.MaxCardinality)
	c.HeadCardinality = cloneInt(a.HeadCardinality)
	if a.Unique != nil {
		u := *a.Unique
		c.Unique = &u
	}
	return c
}

// ClassDef describes a class of the metamodel
type ClassDef struct {
	ID           string
	Abstract     bool
	Parentage    []string // Direct parents, in order of seniority
	Associations []AssociationDef
}

func (c ClassDef) clone() ClassDef {
	out := ClassDef{
		ID:           c.ID,
		Abstract:     c.Abstract,
		Parentage:    append([]string(nil), c.Parentage...),
		Associations: make([]AssociationDef, len(c.Associations)),
	}
	for i, a := range c.Associations {
		out.Associations[i] = a.clone()
	}
	return out
}

// Definition is the in-memory metamodel handed over by a schema source
type Definition struct {
	Classes []ClassDef
}

// Source supplies a metamodel definition to Load
type Source interface {
	Read() (*Definition, error)
}

// DefinitionSource adapts an in-memory Definition to the Source interface
type DefinitionSource struct {
	Definition *Definition
}

// Read returns the wrapped definition
func (s DefinitionSource) Read() (*Definition, error) {
	if s.Definition == nil {
		return nil, fmt.Errorf("nil definition")
	}
	return s.Definition, nil
}

// LeafKind identifies the Go representation expected for a leaf type
type LeafKind int

const (
	LeafAny LeafKind = iota
	LeafString
	LeafInteger
	LeafFloat
	LeafBoolean
)

// String returns the string representation of the leaf kind
func (k LeafKind) String() string {
	switch k {
	case LeafString:
		return "string"
	case LeafInteger:
		return "integer"
	case LeafFloat:
		return "float"
	case LeafBoolean:
		return "boolean"
	default:
		return "any"
	}
}

var leafKinds = map[string]LeafKind{
	"string":  LeafString,
	"anyURI":  LeafString,
	"uri":     LeafString,
	"integer": LeafInteger,
	"int":     LeafInteger,
	"float":   LeafFloat,
	"decimal": LeafFloat,
	"double":  LeafFloat,
	"boolean": LeafBoolean,
	"bool":    LeafBoolean,
}

// LeafKindOf returns the leaf kind for a type id that is not a class.
// Unknown ids map to LeafAny.
func LeafKindOf(typeID string) LeafKind {
	return leafKinds[typeID]
}

// Cardinality returns a pointer to n, for building definitions in code
func Cardinality(n int) *int {
	return &n
}

// Bool returns a pointer to b
func Bool(b bool) *bool {
	return &b
}

// ParseCardinality converts a cardinality literal to a bound.
// Empty, "unbounded" and "*" mean no bound.
func ParseCardinality(s string) (*int, error) {
	s = strings.TrimSpace(s)
	switch s {
	case "", "unbounded", "*":
		return nil, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil, fmt.Errorf("invalid cardinality %q", s)
	}
	if n < 0 {
		return nil, fmt.Errorf("invalid cardinality %q: must not be negative", s)
	}
	return &n, nil
}

// FormatCardinality renders a bound, using "*" for unbounded
func FormatCardinality(n *int) string {
	if n == nil {
		return "*"
	}
	return strconv.Itoa(*n)
}

func cloneInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
