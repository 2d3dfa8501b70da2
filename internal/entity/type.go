package entity

import (
	"slices"

	"go.uber.org/zap"
)

// Type is the runtime representation of one schema class
type Type struct {
	id          string
	abstract    bool
	parents     []*Type
	ancestors   []*Type
	descriptors []*Descriptor
	reverse     []string
	universe    *Universe
}

// generate builds a Type for every class of the cache, seniors first.
// Parent types always exist when a class is generated because the ordering
// places every class after its ancestors.
func generate(u *Universe) error {
	order, err := u.cache.OrderedClasses()
	if err != nil {
		return err
	}

	for _, id := range order {
		t := &Type{
			id:       id,
			abstract: u.cache.IsAbstract(id),
			reverse:  u.cache.ReferencersOf(id),
			universe: u,
		}

		for _, parent := range u.cache.DirectParents(id) {
			t.parents = append(t.parents, u.types[parent])
		}
		ancestors, err := u.cache.ParentsOf(id)
		if err != nil {
			return err
		}
		for _, a := range ancestors {
			t.ancestors = append(t.ancestors, u.types[a])
		}

		ids, err := u.cache.AssociationIDs(id)
		if err != nil {
			return err
		}
		for _, assocID := range ids {
			d, err := newDescriptor(u.cache, id, assocID)
			if err != nil {
				return err
			}
			t.descriptors = append(t.descriptors, d)
		}

		u.types[id] = t
		u.order = append(u.order, t)
		u.logger.Debug("generated entity type",
			zap.String("class", id),
			zap.Int("associations", len(t.descriptors)),
			zap.Int("referencers", len(t.reverse)),
		)
	}

	// Targets may be declared after the classes referencing them
	for _, t := range u.order {
		for _, d := range t.descriptors {
			if u.cache.HasClass(d.def.Type) {
				d.target = u.types[d.def.Type]
			}
		}
	}
	return nil
}

// ID returns the class id
func (t *Type) ID() string { return t.id }

// IsAbstract reports whether the type can be instantiated
func (t *Type) IsAbstract() bool { return t.abstract }

// Parents returns the direct parent types in declaration order
func (t *Type) Parents() []*Type { return slices.Clone(t.parents) }

// Ancestors returns every ancestor type, nearest declarations first
func (t *Type) Ancestors() []*Type { return slices.Clone(t.ancestors) }

// IsA reports whether t is other or one of its subtypes
func (t *Type) IsA(other *Type) bool {
	if t == nil || other == nil {
		return false
	}
	return t == other || slices.Contains(t.ancestors, other)
}

// Descriptors returns one descriptor per association, own associations first.
// Ids inherited from several parents appear once per declaration.
func (t *Type) Descriptors() []*Descriptor { return slices.Clone(t.descriptors) }

// Descriptor returns the first descriptor with the given id
func (t *Type) Descriptor(id string) (*Descriptor, bool) {
	for _, d := range t.descriptors {
		if d.def.ID == id {
			return d, true
		}
	}
	return nil, false
}

// AssociationIDs returns the distinct association ids of the type, first occurrence kept
func (t *Type) AssociationIDs() []string {
	ids := make([]string, 0, len(t.descriptors))
	for _, d := range t.descriptors {
		if !slices.Contains(ids, d.def.ID) {
			ids = append(ids, d.def.ID)
		}
	}
	return ids
}

// ReverseAccessors returns the referencing class ids that entities of this type
// can be queried with through Entity.ReverseReferencesOf
func (t *Type) ReverseAccessors() []string { return slices.Clone(t.reverse) }

// ChildTypes returns every type that has t among its ancestors
func (t *Type) ChildTypes() []*Type {
	ids, err := t.universe.cache.ChildrenOf(t.id)
	if err != nil {
		return nil
	}
	return t.universe.typesOf(ids)
}

// ReferencingTypes returns the types holding an association whose target is t
func (t *Type) ReferencingTypes() []*Type {
	return t.universe.typesOf(t.reverse)
}

// Universe returns the universe the type was generated in
func (t *Type) Universe() *Universe { return t.universe }

// String returns the class id
func (t *Type) String() string { return t.id }

// New creates and registers an entity of this type.
// Values are applied in order; the first failure is returned and the entity is
// not registered. Changes already made to referenced entities are kept.
func (t *Type) New(values ...Value) (*Entity, error) {
	if t.abstract {
		return nil, &AbstractInstantiationError{Class: t.id}
	}

	e := newEntity(t)
	for _, v := range values {
		if err := e.Set(v.Association, v.Data); err != nil {
			return nil, err
		}
	}

	t.universe.register(e)
	return e, nil
}
