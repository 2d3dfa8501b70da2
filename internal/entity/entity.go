package entity

import (
	"fmt"
	"reflect"
	"slices"

	"github.com/google/uuid"
)

// Referenceable is implemented by anything that can record which entities hold it
type Referenceable interface {
	RegisterReverseReference(associationID string, holder *Entity) error
}

var _ Referenceable = (*Entity)(nil)

// Value is one association assignment passed to Type.New
type Value struct {
	Association string
	Data        any
}

// V builds a Value
func V(association string, data any) Value {
	return Value{Association: association, Data: data}
}

// reverseRef records one holder of an entity
type reverseRef struct {
	association string
	holder      *Entity
}

// Entity is an instance of a schema class.
// Singleton associations hold nil, an *Entity or a literal; multi-valued
// associations hold a *Collection.
type Entity struct {
	id     uuid.UUID
	typ    *Type
	values map[string]any
	refs   map[string][]reverseRef // referencing class id -> holders in registration order
}

func newEntity(t *Type) *Entity {
	e := &Entity{
		id:     uuid.New(),
		typ:    t,
		values: make(map[string]any, len(t.descriptors)),
		refs:   make(map[string][]reverseRef),
	}
	for _, d := range t.descriptors {
		if _, ok := e.values[d.def.ID]; ok {
			continue
		}
		if d.IsSingleton() {
			e.values[d.def.ID] = nil
		} else {
			e.values[d.def.ID] = newCollection(e, d)
		}
	}
	return e
}

// ID returns the instance id
func (e *Entity) ID() uuid.UUID { return e.id }

// ClassID returns the id of the entity's class
func (e *Entity) ClassID() string { return e.typ.id }

// Type returns the entity's type
func (e *Entity) Type() *Type { return e.typ }

// String returns the class id and a short instance id
func (e *Entity) String() string {
	return fmt.Sprintf("%s(%s)", e.typ.id, e.id.String()[:8])
}

// descriptor resolves an association through the schema cache
func (e *Entity) descriptor(id string) (*Descriptor, error) {
	if _, err := e.typ.universe.cache.AssociationDetail(e.typ.id, id); err != nil {
		return nil, err
	}
	d, _ := e.typ.Descriptor(id)
	return d, nil
}

// Set assigns an association.
// Singleton values replace the previous value and are registered on the target;
// nil clears the slot. A failed registration leaves the slot unchanged.
// Multi-valued associations take a slice whose elements are appended one by one
// to a fresh collection; elements appended before a failure stay in place.
// Whatever the slot held before is released from the old targets' reverse
// references.
func (e *Entity) Set(id string, value any) error {
	d, err := e.descriptor(id)
	if err != nil {
		return err
	}

	if d.IsSingleton() {
		if value == nil {
			e.release(id)
			e.values[id] = nil
			return nil
		}
		if err := d.check(value); err != nil {
			return err
		}
		if target, ok := value.(*Entity); ok {
			if current, _ := e.values[id].(*Entity); current == target {
				return nil
			}
			if err := target.RegisterReverseReference(id, e); err != nil {
				return err
			}
		}
		e.release(id)
		e.values[id] = value
		return nil
	}

	elems, ok := sliceOf(value)
	if !ok {
		return &TypeMismatchError{
			Class:       e.typ.id,
			Association: id,
			Expected:    "[]" + d.def.Type,
			Got:         describe(value),
		}
	}

	e.release(id)
	coll := newCollection(e, d)
	e.values[id] = coll
	for _, elem := range elems {
		if err := coll.Append(elem); err != nil {
			return err
		}
	}
	return nil
}

// Get returns the stored value of an association without side effects
func (e *Entity) Get(id string) (any, error) {
	if _, err := e.descriptor(id); err != nil {
		return nil, err
	}
	return e.values[id], nil
}

// Collection returns the collection of a multi-valued association
func (e *Entity) Collection(id string) (*Collection, error) {
	d, err := e.descriptor(id)
	if err != nil {
		return nil, err
	}
	if d.IsSingleton() {
		return nil, &TypeMismatchError{
			Class:       e.typ.id,
			Association: id,
			Expected:    "multi-valued association",
			Got:         "singleton association",
		}
	}
	return e.values[id].(*Collection), nil
}

// Entity returns the entity held by a singleton association, or nil
func (e *Entity) Entity(id string) (*Entity, error) {
	v, err := e.Get(id)
	if err != nil {
		return nil, err
	}
	target, _ := v.(*Entity)
	return target, nil
}

// ReverseReferencesOf returns the entities of class referencerClassID that hold e,
// in registration order. The boolean is false when none were recorded.
func (e *Entity) ReverseReferencesOf(referencerClassID string) ([]*Entity, bool) {
	refs, ok := e.refs[referencerClassID]
	if !ok || len(refs) == 0 {
		return nil, false
	}
	holders := make([]*Entity, len(refs))
	for i, r := range refs {
		holders[i] = r.holder
	}
	return holders, true
}

// ReverseReferencesVia returns the holders that reference e through one association
func (e *Entity) ReverseReferencesVia(referencerClassID, associationID string) []*Entity {
	var holders []*Entity
	for _, r := range e.refs[referencerClassID] {
		if r.association == associationID {
			holders = append(holders, r.holder)
		}
	}
	return holders
}

// RegisterReverseReference records that holder references e through associationID.
//
// With a head cardinality of one, a second distinct holder is rejected and the
// same holder registering again is a no-op. With a larger bound the registration
// fails once a new distinct holder would exceed it. Holders are otherwise
// appended without deduplication.
func (e *Entity) RegisterReverseReference(associationID string, holder *Entity) error {
	if holder == nil {
		return &TypeMismatchError{
			Class:       e.typ.id,
			Association: associationID,
			Expected:    "holder entity",
			Got:         "nil",
		}
	}

	def, err := e.typ.universe.cache.AssociationDetail(holder.typ.id, associationID)
	if err != nil {
		return err
	}

	key := holder.typ.id
	current := e.ReverseReferencesVia(key, associationID)

	if head := def.HeadCardinality; head != nil {
		known := slices.Contains(current, holder)
		if *head == 1 && known {
			return nil
		}
		if !known && distinct(current) >= *head {
			return e.headExceeded(key, associationID, *head, current)
		}
	}

	e.refs[key] = append(e.refs[key], reverseRef{association: associationID, holder: holder})
	return nil
}

// release drops the reverse references recorded for whatever association id
// currently holds
func (e *Entity) release(id string) {
	switch current := e.values[id].(type) {
	case *Entity:
		current.unregisterReverseReference(id, e)
	case *Collection:
		for _, target := range current.Entities() {
			target.unregisterReverseReference(id, e)
		}
	}
}

// unregisterReverseReference removes every record of holder referencing e through associationID
func (e *Entity) unregisterReverseReference(associationID string, holder *Entity) {
	key := holder.typ.id
	refs := slices.DeleteFunc(e.refs[key], func(r reverseRef) bool {
		return r.association == associationID && r.holder == holder
	})
	if len(refs) == 0 {
		delete(e.refs, key)
		return
	}
	e.refs[key] = refs
}

func (e *Entity) headExceeded(referencer, association string, limit int, holders []*Entity) error {
	names := make([]string, 0, len(holders))
	for _, h := range holders {
		names = append(names, h.String())
	}
	return &HeadCardinalityError{
		Target:      e.String(),
		Referencer:  referencer,
		Association: association,
		Limit:       limit,
		Holders:     names,
	}
}

func distinct(entities []*Entity) int {
	seen := make(map[*Entity]bool, len(entities))
	for _, e := range entities {
		seen[e] = true
	}
	return len(seen)
}

// sliceOf converts any slice or array value to a slice of elements
func sliceOf(value any) ([]any, bool) {
	switch v := value.(type) {
	case []any:
		return v, true
	case []*Entity:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = e
		}
		return out, true
	case nil:
		return nil, false
	}

	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}
