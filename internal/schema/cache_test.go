package schema

import (
	"errors"
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// petsDefinition is the Animal/Dog/Person/Toy model used across the package tests
func petsDefinition() *Definition {
	return &Definition{Classes: []ClassDef{
		{
			ID:       "Animal",
			Abstract: true,
			Associations: []AssociationDef{
				{ID: "name", Type: "string", MaxCardinality: Cardinality(1)},
			},
		},
		{
			ID:        "Dog",
			Parentage: []string{"Animal"},
			Associations: []AssociationDef{
				{ID: "owner", Type: "Person", MaxCardinality: Cardinality(1), HeadCardinality: Cardinality(1)},
				{ID: "toys", Type: "Toy"},
			},
		},
		{ID: "Person"},
		{ID: "Toy"},
	}}
}

func mustCache(t *testing.T, def *Definition) *Cache {
	t.Helper()
	cache, err := New(def)
	if err != nil {
		t.Fatalf("unexpected load error: %v", err)
	}
	return cache
}

func TestLoad(t *testing.T) {
	t.Run("nil source", func(t *testing.T) {
		_, err := Load(nil)
		if !errors.Is(err, ErrSchemaLoad) {
			t.Errorf("expected ErrSchemaLoad, got %v", err)
		}
	})

	t.Run("source read failure", func(t *testing.T) {
		cause := errors.New("disk on fire")
		_, err := Load(failingSource{err: cause})
		if !errors.Is(err, ErrSchemaLoad) {
			t.Errorf("expected ErrSchemaLoad, got %v", err)
		}
		if !errors.Is(err, cause) {
			t.Errorf("expected cause to be preserved, got %v", err)
		}
	})

	t.Run("structural failure", func(t *testing.T) {
		def := &Definition{Classes: []ClassDef{{ID: "A"}, {ID: "A"}}}
		_, err := New(def)
		if !IsSchemaLoad(err) {
			t.Fatalf("expected schema load error, got %v", err)
		}
		var verrs ValidationErrors
		if !errors.As(err, &verrs) {
			t.Fatalf("expected ValidationErrors, got %T", err)
		}
	})

	t.Run("source is not retained", func(t *testing.T) {
		def := petsDefinition()
		cache := mustCache(t, def)

		def.Classes[1].Associations[0].Type = "Toy"
		*def.Classes[1].Associations[0].MaxCardinality = 7
		def.Classes[1].Parentage[0] = "Person"

		detail, err := cache.AssociationDetail("Dog", "owner")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if detail.Type != "Person" || *detail.MaxCardinality != 1 {
			t.Errorf("cache was affected by source mutation: %s", detail)
		}
		parents, _ := cache.ParentsOf("Dog")
		if diff := cmp.Diff([]string{"Animal"}, parents); diff != "" {
			t.Errorf("parents mismatch (-want +got):\n%s", diff)
		}
	})
}

type failingSource struct {
	err error
}

func (s failingSource) Read() (*Definition, error) {
	return nil, s.err
}

func TestOrderedClasses(t *testing.T) {
	t.Run("pets scenario", func(t *testing.T) {
		cache := mustCache(t, petsDefinition())

		order, err := cache.OrderedClasses()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(order) != 4 {
			t.Fatalf("expected 4 classes, got %v", order)
		}
		if slices.Index(order, "Animal") > slices.Index(order, "Dog") {
			t.Errorf("Animal must come before Dog: %v", order)
		}
	})

	t.Run("children declared before parents", func(t *testing.T) {
		def := &Definition{Classes: []ClassDef{
			{ID: "D", Parentage: []string{"C"}},
			{ID: "C", Parentage: []string{"B"}},
			{ID: "B", Parentage: []string{"A"}},
			{ID: "A"},
		}}
		cache := mustCache(t, def)

		order, err := cache.OrderedClasses()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if diff := cmp.Diff([]string{"A", "B", "C", "D"}, order); diff != "" {
			t.Errorf("order mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("multiple parents", func(t *testing.T) {
		def := &Definition{Classes: []ClassDef{
			{ID: "Pup", Parentage: []string{"Dog", "Pet"}},
			{ID: "Dog", Parentage: []string{"Animal"}},
			{ID: "Pet"},
			{ID: "Animal"},
		}}
		cache := mustCache(t, def)

		order, err := cache.OrderedClasses()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for _, parent := range []string{"Dog", "Pet", "Animal"} {
			if slices.Index(order, parent) > slices.Index(order, "Pup") {
				t.Errorf("%s must come before Pup: %v", parent, order)
			}
		}
	})

	t.Run("idempotent", func(t *testing.T) {
		cache := mustCache(t, petsDefinition())
		first, _ := cache.OrderedClasses()
		second, _ := cache.OrderedClasses()
		if diff := cmp.Diff(first, second); diff != "" {
			t.Errorf("order changed between calls (-first +second):\n%s", diff)
		}

		first[0] = "mutated"
		third, _ := cache.OrderedClasses()
		if third[0] == "mutated" {
			t.Error("OrderedClasses must return a copy")
		}
	})

	t.Run("cycle", func(t *testing.T) {
		def := &Definition{Classes: []ClassDef{
			{ID: "A", Parentage: []string{"C"}},
			{ID: "B", Parentage: []string{"A"}},
			{ID: "C", Parentage: []string{"B"}},
			{ID: "Root"},
		}}
		cache := mustCache(t, def)

		_, err := cache.OrderedClasses()
		if !errors.Is(err, ErrSchemaCycle) {
			t.Fatalf("expected ErrSchemaCycle, got %v", err)
		}
		var cycleErr *CycleError
		if !errors.As(err, &cycleErr) {
			t.Fatalf("expected *CycleError, got %T", err)
		}
		if diff := cmp.Diff([]string{"A", "B", "C"}, cycleErr.Unresolved); diff != "" {
			t.Errorf("unresolved mismatch (-want +got):\n%s", diff)
		}
		if len(cycleErr.Cycles) != 1 {
			t.Errorf("expected one cycle, got %v", cycleErr.Cycles)
		}
	})

	t.Run("self parent", func(t *testing.T) {
		def := &Definition{Classes: []ClassDef{
			{ID: "Root"},
			{ID: "A", Parentage: []string{"A"}},
		}}
		cache := mustCache(t, def)

		_, err := cache.OrderedClasses()
		var cycleErr *CycleError
		if !errors.As(err, &cycleErr) {
			t.Fatalf("expected *CycleError, got %v", err)
		}
		if diff := cmp.Diff([]string{"A"}, cycleErr.Unresolved); diff != "" {
			t.Errorf("unresolved mismatch (-want +got):\n%s", diff)
		}
		if diff := cmp.Diff([][]string{{"A"}}, cycleErr.Cycles); diff != "" {
			t.Errorf("cycles mismatch (-want +got):\n%s", diff)
		}
		if _, err := cache.ParentsOf("A"); !IsSchemaCycle(err) {
			t.Errorf("expected ParentsOf to report the cycle, got %v", err)
		}
	})

	t.Run("dangling parent does not linearize", func(t *testing.T) {
		def := &Definition{Classes: []ClassDef{
			{ID: "A", Parentage: []string{"Ghost"}},
		}}
		cache := mustCache(t, def)

		_, err := cache.OrderedClasses()
		if !IsSchemaCycle(err) {
			t.Errorf("expected ErrSchemaCycle, got %v", err)
		}
	})

	t.Run("pass bound", func(t *testing.T) {
		def := &Definition{Classes: []ClassDef{
			{ID: "C", Parentage: []string{"B"}},
			{ID: "B", Parentage: []string{"A"}},
			{ID: "A"},
		}}
		cache, err := New(def, WithMaxPasses(2))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := cache.OrderedClasses(); !IsSchemaCycle(err) {
			t.Errorf("expected ErrSchemaCycle with 2 passes, got %v", err)
		}
	})
}

func TestParentsOf(t *testing.T) {
	def := &Definition{Classes: []ClassDef{
		{ID: "Entity"},
		{ID: "Named"},
		{ID: "Animal", Parentage: []string{"Entity", "Named"}},
		{ID: "Dog", Parentage: []string{"Animal", "Named"}},
		{ID: "Broken", Parentage: []string{"Missing"}},
	}}
	cache := mustCache(t, def)

	t.Run("recursive expansion", func(t *testing.T) {
		parents, err := cache.ParentsOf("Dog")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if diff := cmp.Diff([]string{"Animal", "Named", "Entity"}, parents); diff != "" {
			t.Errorf("parents mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("root class", func(t *testing.T) {
		parents, err := cache.ParentsOf("Entity")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(parents) != 0 {
			t.Errorf("expected no parents, got %v", parents)
		}
	})

	t.Run("unknown parent", func(t *testing.T) {
		_, err := cache.ParentsOf("Broken")
		if !errors.Is(err, ErrUnknownParent) {
			t.Fatalf("expected ErrUnknownParent, got %v", err)
		}
		var parentErr *UnknownParentError
		if errors.As(err, &parentErr) && parentErr.Parent != "Missing" {
			t.Errorf("expected Missing, got %s", parentErr.Parent)
		}
	})

	t.Run("unknown class", func(t *testing.T) {
		if _, err := cache.ParentsOf("Nope"); !errors.Is(err, ErrUnknownClass) {
			t.Errorf("expected ErrUnknownClass, got %v", err)
		}
	})
}

func TestChildrenOf(t *testing.T) {
	def := &Definition{Classes: []ClassDef{
		{ID: "Pup", Parentage: []string{"Dog"}},
		{ID: "Dog", Parentage: []string{"Animal"}},
		{ID: "Cat", Parentage: []string{"Animal"}},
		{ID: "Animal"},
	}}
	cache := mustCache(t, def)

	children, err := cache.ChildrenOf("Animal")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff([]string{"Dog", "Cat", "Pup"}, children); diff != "" {
		t.Errorf("children mismatch (-want +got):\n%s", diff)
	}

	leaf, _ := cache.ChildrenOf("Pup")
	if len(leaf) != 0 {
		t.Errorf("expected no children, got %v", leaf)
	}
}

func TestAssociationsOf(t *testing.T) {
	t.Run("own then inherited", func(t *testing.T) {
		cache := mustCache(t, petsDefinition())
		ids, err := cache.AssociationIDs("Dog")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if diff := cmp.Diff([]string{"owner", "toys", "name"}, ids); diff != "" {
			t.Errorf("associations mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("duplicates are kept", func(t *testing.T) {
		def := &Definition{Classes: []ClassDef{
			{ID: "Labelled", Associations: []AssociationDef{{ID: "label", Type: "string"}}},
			{ID: "Named", Associations: []AssociationDef{{ID: "label", Type: "string", MaxCardinality: Cardinality(1)}}},
			{ID: "Thing", Parentage: []string{"Labelled", "Named"}, Associations: []AssociationDef{{ID: "label", Type: "integer"}}},
		}}
		cache := mustCache(t, def)

		assocs, err := cache.AssociationsOf("Thing")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(assocs) != 3 {
			t.Fatalf("expected 3 associations, got %d", len(assocs))
		}
		if assocs[0].Type != "integer" {
			t.Errorf("own association must come first, got %s", assocs[0])
		}

		detail, err := cache.AssociationDetail("Thing", "label")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if detail.Type != "integer" {
			t.Errorf("expected own definition to win, got %s", detail)
		}
	})

	t.Run("broken ancestry", func(t *testing.T) {
		def := &Definition{Classes: []ClassDef{{ID: "A", Parentage: []string{"Z"}}}}
		cache := mustCache(t, def)
		if _, err := cache.AssociationsOf("A"); !errors.Is(err, ErrUnknownParent) {
			t.Errorf("expected ErrUnknownParent, got %v", err)
		}
	})
}

func TestReferencersOf(t *testing.T) {
	cache := mustCache(t, petsDefinition())

	tests := []struct {
		name   string
		target string
		want   []string
	}{
		{"class target", "Person", []string{"Dog"}},
		{"multi target", "Toy", []string{"Dog"}},
		{"inherited leaf target", "string", []string{"Animal", "Dog"}},
		{"unreferenced", "Dog", []string{}},
		{"unknown id", "Spaceship", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := cache.ReferencersOf(tt.target)
			if len(got) == 0 && len(tt.want) == 0 {
				return
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("referencers mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestAssociationDetail(t *testing.T) {
	cache := mustCache(t, petsDefinition())

	t.Run("inherited", func(t *testing.T) {
		detail, err := cache.AssociationDetail("Dog", "name")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !detail.IsSingleton() {
			t.Error("name should be a singleton")
		}
		if !detail.IsUnique() {
			t.Error("uniqueness should default to true")
		}
	})

	t.Run("head cardinality", func(t *testing.T) {
		detail, err := cache.AssociationDetail("Dog", "owner")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if detail.HeadCardinality == nil || *detail.HeadCardinality != 1 {
			t.Errorf("expected head cardinality 1, got %v", detail.HeadCardinality)
		}
	})

	t.Run("unbounded", func(t *testing.T) {
		detail, _ := cache.AssociationDetail("Dog", "toys")
		if detail.MaxCardinality != nil || detail.HeadCardinality != nil {
			t.Errorf("expected unbounded toys, got %s", detail)
		}
	})

	t.Run("unknown association", func(t *testing.T) {
		_, err := cache.AssociationDetail("Animal", "owner")
		if !IsUnknownAssociation(err) {
			t.Fatalf("expected ErrUnknownAssociation, got %v", err)
		}
		var assocErr *UnknownAssociationError
		if !errors.As(err, &assocErr) || assocErr.Class != "Animal" {
			t.Errorf("expected context for Animal, got %v", err)
		}
	})
}

func TestIsAbstract(t *testing.T) {
	cache := mustCache(t, petsDefinition())

	if !cache.IsAbstract("Animal") {
		t.Error("Animal should be abstract")
	}
	if cache.IsAbstract("Dog") {
		t.Error("Dog should default to concrete")
	}
	if cache.IsAbstract("Unknown") {
		t.Error("unknown classes are not abstract")
	}
	if !cache.IsLeafType("string") || cache.IsLeafType("Toy") {
		t.Error("leaf type detection is wrong")
	}
}
