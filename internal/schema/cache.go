package schema

import (
	"slices"
	"sort"

	"go.uber.org/zap"
)

// DefaultMaxPasses bounds the number of passes used to linearize the class hierarchy
const DefaultMaxPasses = 20

// Cache is the read-only metamodel cache.
// All indices are built by Load and never mutated afterwards, so a Cache may be
// shared between goroutines without locking.
type Cache struct {
	declared []string            // class ids in declaration order
	classes  map[string]ClassDef // private copies of the definitions

	// Derived indices
	ancestors    map[string][]string
	ancestorErrs map[string]error
	associations map[string][]AssociationDef
	references   map[string][]string // type id -> referencing classes, sorted
	ordered      []string
	orderErr     error
	passes       int

	maxPasses int
	logger    *zap.Logger
}

// Option configures Load
type Option func(*Cache)

// WithLogger sets the logger used while building the cache
func WithLogger(logger *zap.Logger) Option {
	return func(c *Cache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMaxPasses overrides the pass bound used by OrderedClasses
func WithMaxPasses(n int) Option {
	return func(c *Cache) {
		if n > 0 {
			c.maxPasses = n
		}
	}
}

// Load reads a metamodel from src, validates it structurally and builds every index.
// The definition returned by src is copied; later changes to it do not affect the cache.
func Load(src Source, opts ...Option) (*Cache, error) {
	if src == nil {
		return nil, &LoadError{Err: errNilSource}
	}
	def, err := src.Read()
	if err != nil {
		return nil, &LoadError{Err: err}
	}
	if def == nil {
		return nil, &LoadError{Err: errNilSource}
	}

	validator := NewDefinitionValidator()
	if err := validator.Validate(def); err != nil {
		return nil, &LoadError{Err: err}
	}

	c := &Cache{
		classes:   make(map[string]ClassDef, len(def.Classes)),
		maxPasses: DefaultMaxPasses,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	for _, class := range def.Classes {
		c.declared = append(c.declared, class.ID)
		c.classes[class.ID] = class.clone()
	}

	c.buildAncestors()
	c.buildAssociations()
	c.buildReferences()
	c.ordered, c.passes, c.orderErr = c.linearize()

	if c.orderErr != nil {
		c.logger.Warn("schema hierarchy does not linearize",
			zap.Int("classes", len(c.declared)),
			zap.Error(c.orderErr))
	} else {
		c.logger.Debug("schema loaded",
			zap.Int("classes", len(c.declared)),
			zap.Int("passes", c.passes))
	}

	return c, nil
}

// New builds a cache from an in-memory definition
func New(def *Definition, opts ...Option) (*Cache, error) {
	return Load(DefinitionSource{Definition: def}, opts...)
}

// buildAncestors resolves the ancestor list of every class, recording failures per class
func (c *Cache) buildAncestors() {
	c.ancestors = make(map[string][]string, len(c.classes))
	c.ancestorErrs = make(map[string]error)

	for _, id := range c.declared {
		parents, err := c.resolveParents(id, make(map[string]bool))
		if err != nil {
			c.ancestorErrs[id] = err
			continue
		}
		c.ancestors[id] = parents
	}
}

// resolveParents expands the direct parents of id followed by each parent's own ancestors.
// The first occurrence of each ancestor is kept.
func (c *Cache) resolveParents(id string, visiting map[string]bool) ([]string, error) {
	if visiting[id] {
		return nil, &CycleError{Unresolved: []string{id}, Cycles: c.detectCycles()}
	}
	visiting[id] = true
	defer delete(visiting, id)

	class := c.classes[id]
	result := make([]string, 0, len(class.Parentage))
	result = append(result, class.Parentage...)

	for _, parent := range class.Parentage {
		if _, ok := c.classes[parent]; !ok {
			return nil, &UnknownParentError{Class: id, Parent: parent}
		}
		grand, err := c.resolveParents(parent, visiting)
		if err != nil {
			return nil, err
		}
		result = append(result, grand...)
	}

	return dedupe(result), nil
}

// buildAssociations resolves own plus inherited associations for every class
func (c *Cache) buildAssociations() {
	c.associations = make(map[string][]AssociationDef, len(c.classes))
	for _, id := range c.declared {
		if _, failed := c.ancestorErrs[id]; failed {
			continue
		}
		c.associations[id] = c.resolveAssociations(id)
	}
}

// resolveAssociations lists own associations in declared order, then each direct
// parent's resolved list. Entries are not deduplicated.
func (c *Cache) resolveAssociations(id string) []AssociationDef {
	class := c.classes[id]
	result := make([]AssociationDef, 0, len(class.Associations))
	result = append(result, class.Associations...)
	for _, parent := range class.Parentage {
		result = append(result, c.resolveAssociations(parent)...)
	}
	return result
}

// buildReferences builds the reverse reference index by scanning every class once
func (c *Cache) buildReferences() {
	sets := make(map[string]map[string]bool)
	for _, id := range c.declared {
		assocs, ok := c.associations[id]
		if !ok {
			assocs = c.classes[id].Associations
		}
		for _, assoc := range assocs {
			if sets[assoc.Type] == nil {
				sets[assoc.Type] = make(map[string]bool)
			}
			sets[assoc.Type][id] = true
		}
	}

	c.references = make(map[string][]string, len(sets))
	for target, set := range sets {
		refs := make([]string, 0, len(set))
		for id := range set {
			refs = append(refs, id)
		}
		sort.Strings(refs)
		c.references[target] = refs
	}
}

// OrderedClasses returns the class ids ordered so that every class follows all of its ancestors
func (c *Cache) OrderedClasses() ([]string, error) {
	if c.orderErr != nil {
		return nil, c.orderErr
	}
	return slices.Clone(c.ordered), nil
}

// ParentsOf returns the full ancestor list of a class in declaration order
func (c *Cache) ParentsOf(id string) ([]string, error) {
	if _, ok := c.classes[id]; !ok {
		return nil, unknownClass(id)
	}
	if err := c.ancestorErrs[id]; err != nil {
		return nil, err
	}
	return slices.Clone(c.ancestors[id]), nil
}

// ChildrenOf returns every class that has id among its ancestors
func (c *Cache) ChildrenOf(id string) ([]string, error) {
	if _, ok := c.classes[id]; !ok {
		return nil, unknownClass(id)
	}

	scan := c.ordered
	if c.orderErr != nil {
		scan = c.declared
	}

	children := make([]string, 0)
	for _, candidate := range scan {
		if slices.Contains(c.ancestors[candidate], id) {
			children = append(children, candidate)
		}
	}
	return children, nil
}

// AssociationsOf returns own associations followed by inherited ones
func (c *Cache) AssociationsOf(id string) ([]AssociationDef, error) {
	if _, ok := c.classes[id]; !ok {
		return nil, unknownClass(id)
	}
	if err := c.ancestorErrs[id]; err != nil {
		return nil, err
	}
	assocs := c.associations[id]
	out := make([]AssociationDef, len(assocs))
	for i, a := range assocs {
		out[i] = a.clone()
	}
	return out, nil
}

// AssociationIDs returns the ids of AssociationsOf in the same order
func (c *Cache) AssociationIDs(id string) ([]string, error) {
	assocs, err := c.AssociationsOf(id)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(assocs))
	for i, a := range assocs {
		ids[i] = a.ID
	}
	return ids, nil
}

// ReferencersOf returns the classes that hold an association whose type is id.
// Unreferenced ids yield an empty slice.
func (c *Cache) ReferencersOf(id string) []string {
	return slices.Clone(c.references[id])
}

// AssociationDetail returns the first definition of assocID found on the class or its ancestors
func (c *Cache) AssociationDetail(classID, assocID string) (AssociationDef, error) {
	def, _, err := c.lookupAssociation(classID, assocID)
	return def, err
}

// DeclaringClass returns the class whose definition AssociationDetail selects
func (c *Cache) DeclaringClass(classID, assocID string) (string, error) {
	_, owner, err := c.lookupAssociation(classID, assocID)
	return owner, err
}

func (c *Cache) lookupAssociation(classID, assocID string) (AssociationDef, string, error) {
	if _, ok := c.classes[classID]; !ok {
		return AssociationDef{}, "", unknownClass(classID)
	}
	if err := c.ancestorErrs[classID]; err != nil {
		return AssociationDef{}, "", err
	}

	lineage := append([]string{classID}, c.ancestors[classID]...)
	for _, id := range lineage {
		for _, assoc := range c.classes[id].Associations {
			if assoc.ID == assocID {
				return assoc.clone(), id, nil
			}
		}
	}
	return AssociationDef{}, "", &UnknownAssociationError{Class: classID, Association: assocID}
}

// IsAbstract reports whether a class is abstract; unmarked classes are concrete
func (c *Cache) IsAbstract(id string) bool {
	return c.classes[id].Abstract
}

// HasClass reports whether id names a class of the schema
func (c *Cache) HasClass(id string) bool {
	_, ok := c.classes[id]
	return ok
}

// IsLeafType reports whether a type id is not a class of the schema
func (c *Cache) IsLeafType(id string) bool {
	return !c.HasClass(id)
}

// DirectParents returns the declared parents of a class
func (c *Cache) DirectParents(id string) []string {
	return slices.Clone(c.classes[id].Parentage)
}

// Classes returns all class ids in declaration order
func (c *Cache) Classes() []string {
	return slices.Clone(c.declared)
}

// Len returns the number of classes
func (c *Cache) Len() int {
	return len(c.declared)
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := ids[:0]
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
