package entity

import (
	"fmt"
	"slices"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ontograph/ontograph/internal/schema"
)

// Universe owns the generated types of one schema and every entity created from them.
// Entities are never removed. A universe and its entities are not safe for
// concurrent use.
type Universe struct {
	cache  *schema.Cache
	logger *zap.Logger

	types map[string]*Type
	order []*Type

	instances map[string][]*Entity
	all       []*Entity
	byID      map[uuid.UUID]*Entity
}

// UniverseOption configures NewUniverse
type UniverseOption func(*Universe)

// WithLogger sets the universe logger
func WithLogger(logger *zap.Logger) UniverseOption {
	return func(u *Universe) {
		if logger != nil {
			u.logger = logger
		}
	}
}

// NewUniverse generates a type for every class of cache.
// It fails when the class hierarchy cannot be ordered.
func NewUniverse(cache *schema.Cache, opts ...UniverseOption) (*Universe, error) {
	if cache == nil {
		return nil, fmt.Errorf("universe requires a schema cache")
	}

	u := &Universe{
		cache:     cache,
		logger:    zap.NewNop(),
		types:     make(map[string]*Type, cache.Len()),
		instances: make(map[string][]*Entity),
		byID:      make(map[uuid.UUID]*Entity),
	}
	for _, opt := range opts {
		opt(u)
	}

	if err := generate(u); err != nil {
		return nil, fmt.Errorf("failed to generate entity types: %w", err)
	}
	u.logger.Info("entity types generated", zap.Int("types", len(u.order)))
	return u, nil
}

// Cache returns the schema cache the universe was generated from
func (u *Universe) Cache() *schema.Cache { return u.cache }

// Class returns the type generated for a class id
func (u *Universe) Class(id string) (*Type, error) {
	t, ok := u.types[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", schema.ErrUnknownClass, id)
	}
	return t, nil
}

// Types returns every type, each after its ancestors
func (u *Universe) Types() []*Type { return slices.Clone(u.order) }

// New instantiates the class with the given id
func (u *Universe) New(classID string, values ...Value) (*Entity, error) {
	t, err := u.Class(classID)
	if err != nil {
		return nil, err
	}
	return t.New(values...)
}

// Instances returns the entities created for exactly this class, in creation order
func (u *Universe) Instances(classID string) []*Entity {
	return slices.Clone(u.instances[classID])
}

// InstancesOf returns the entities whose type is t or one of its subtypes, in creation order
func (u *Universe) InstancesOf(t *Type) []*Entity {
	var out []*Entity
	for _, e := range u.all {
		if e.typ.IsA(t) {
			out = append(out, e)
		}
	}
	return out
}

// All returns every entity in creation order
func (u *Universe) All() []*Entity {
	return slices.Clone(u.all)
}

// Count returns the number of entities
func (u *Universe) Count() int {
	return len(u.all)
}

// Lookup finds an entity by id
func (u *Universe) Lookup(id uuid.UUID) (*Entity, bool) {
	e, ok := u.byID[id]
	return e, ok
}

func (u *Universe) register(e *Entity) {
	u.instances[e.typ.id] = append(u.instances[e.typ.id], e)
	u.all = append(u.all, e)
	u.byID[e.id] = e
	u.logger.Debug("entity created", zap.String("class", e.typ.id), zap.Stringer("id", e.id))
}

func (u *Universe) typesOf(ids []string) []*Type {
	out := make([]*Type, 0, len(ids))
	for _, id := range ids {
		if t, ok := u.types[id]; ok {
			out = append(out, t)
		}
	}
	return out
}
