package entity

import (
	"fmt"
	"reflect"

	"github.com/ontograph/ontograph/internal/schema"
)

// Descriptor exposes the metadata of one association on one class.
// It is resolved once from the schema cache when the owning type is generated.
type Descriptor struct {
	owner      string
	declaredBy string
	def        schema.AssociationDef
	target     *Type // nil for leaf types
	leaf       schema.LeafKind
}

func newDescriptor(cache *schema.Cache, owner, assocID string) (*Descriptor, error) {
	def, err := cache.AssociationDetail(owner, assocID)
	if err != nil {
		return nil, err
	}
	declaredBy, err := cache.DeclaringClass(owner, assocID)
	if err != nil {
		return nil, err
	}
	return &Descriptor{
		owner:      owner,
		declaredBy: declaredBy,
		def:        def,
		leaf:       schema.LeafKindOf(def.Type),
	}, nil
}

// ID returns the association id
func (d *Descriptor) ID() string { return d.def.ID }

// OwnerClassID returns the class the descriptor was generated for
func (d *Descriptor) OwnerClassID() string { return d.owner }

// DeclaringClassID returns the class whose declaration the descriptor was resolved from
func (d *Descriptor) DeclaringClassID() string { return d.declaredBy }

// IsInherited reports whether the association was declared on an ancestor
func (d *Descriptor) IsInherited() bool { return d.declaredBy != d.owner }

// MinCardinality returns the minimum number of values
func (d *Descriptor) MinCardinality() int { return d.def.MinCardinality }

// MaxCardinality returns the maximum number of values, nil when unbounded
func (d *Descriptor) MaxCardinality() *int { return copyInt(d.def.MaxCardinality) }

// HeadCardinality returns how many holders may reference one target, nil when unbounded
func (d *Descriptor) HeadCardinality() *int { return copyInt(d.def.HeadCardinality) }

// IsUnique reports whether the association is marked unique
func (d *Descriptor) IsUnique() bool { return d.def.IsUnique() }

// IsSingleton reports whether the association holds at most one value
func (d *Descriptor) IsSingleton() bool { return d.def.IsSingleton() }

// TargetTypeID returns the declared type id
func (d *Descriptor) TargetTypeID() string { return d.def.Type }

// TargetType returns the generated target type, or nil when the target is a leaf type
func (d *Descriptor) TargetType() *Type { return d.target }

// Definition returns a copy of the underlying association definition
func (d *Descriptor) Definition() schema.AssociationDef {
	def := d.def
	def.MaxCardinality = copyInt(def.MaxCardinality)
	def.HeadCardinality = copyInt(def.HeadCardinality)
	if def.Unique != nil {
		u := *def.Unique
		def.Unique = &u
	}
	return def
}

// String returns a one-line summary of the descriptor
func (d *Descriptor) String() string {
	return fmt.Sprintf("%s.%s", d.owner, d.def.String())
}

// check verifies that value may be stored under this association
func (d *Descriptor) check(value any) error {
	if d.target != nil {
		e, ok := value.(*Entity)
		if !ok || e == nil {
			return d.mismatch(value)
		}
		if !e.typ.IsA(d.target) {
			return d.mismatch(value)
		}
		return nil
	}

	if _, ok := value.(*Entity); ok {
		return d.mismatch(value)
	}
	if value == nil || !leafAccepts(d.leaf, value) {
		return d.mismatch(value)
	}
	return nil
}

func (d *Descriptor) mismatch(value any) error {
	return &TypeMismatchError{
		Class:       d.owner,
		Association: d.def.ID,
		Expected:    d.def.Type,
		Got:         describe(value),
	}
}

func leafAccepts(kind schema.LeafKind, value any) bool {
	k := reflect.TypeOf(value).Kind()
	switch kind {
	case schema.LeafString:
		return k == reflect.String
	case schema.LeafInteger:
		return isInteger(k)
	case schema.LeafFloat:
		return k == reflect.Float32 || k == reflect.Float64 || isInteger(k)
	case schema.LeafBoolean:
		return k == reflect.Bool
	default:
		return true
	}
}

func isInteger(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	}
	return false
}

// describe names a value for error messages
func describe(value any) string {
	switch v := value.(type) {
	case nil:
		return "nil"
	case *Entity:
		if v == nil {
			return "nil entity"
		}
		return v.ClassID()
	default:
		return reflect.TypeOf(value).String()
	}
}

func copyInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
