package entity

import (
	"reflect"
	"slices"
)

// Collection is the ordered value of a multi-valued association.
// Appends are type checked and registered on the referenced entity; there is no
// removal and no deduplication.
type Collection struct {
	owner *Entity
	desc  *Descriptor
	items []any
}

func newCollection(owner *Entity, d *Descriptor) *Collection {
	return &Collection{owner: owner, desc: d}
}

// Append adds elem after checking its type and registering the owner on it.
// Nothing is appended when either step fails.
func (c *Collection) Append(elem any) error {
	if err := c.desc.check(elem); err != nil {
		return err
	}
	if target, ok := elem.(*Entity); ok {
		if err := target.RegisterReverseReference(c.desc.def.ID, c.owner); err != nil {
			return err
		}
	}
	c.items = append(c.items, elem)
	return nil
}

// Len returns the number of elements
func (c *Collection) Len() int { return len(c.items) }

// At returns the element at index i
func (c *Collection) At(i int) any { return c.items[i] }

// Items returns a copy of the elements
func (c *Collection) Items() []any { return slices.Clone(c.items) }

// Entities returns the entity elements in order
func (c *Collection) Entities() []*Entity {
	out := make([]*Entity, 0, len(c.items))
	for _, item := range c.items {
		if e, ok := item.(*Entity); ok {
			out = append(out, e)
		}
	}
	return out
}

// Contains reports whether elem is present
func (c *Collection) Contains(elem any) bool {
	for _, item := range c.items {
		if sameValue(item, elem) {
			return true
		}
	}
	return false
}

// Owner returns the entity holding the collection
func (c *Collection) Owner() *Entity { return c.owner }

// AssociationID returns the association the collection belongs to
func (c *Collection) AssociationID() string { return c.desc.def.ID }

// Descriptor returns the association descriptor
func (c *Collection) Descriptor() *Descriptor { return c.desc }

// duplicates counts elements equal to an earlier element
func (c *Collection) duplicates() int {
	n := 0
	for i, item := range c.items {
		for _, prev := range c.items[:i] {
			if sameValue(prev, item) {
				n++
				break
			}
		}
	}
	return n
}

// sameValue compares elements, falling back to deep equality for values that
// cannot be compared with ==
func sameValue(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb {
		return false
	}
	if ta.Comparable() {
		return a == b
	}
	return reflect.DeepEqual(a, b)
}
