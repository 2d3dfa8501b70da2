package entity

import "fmt"

// Validate checks the entity's associations against their cardinality bounds.
// It reports missing mandatory values, collections above their maximum and
// repeated elements in unique associations. Validate is never called
// implicitly; entities may be incomplete while they are being built.
func (e *Entity) Validate() error {
	var violations []Violation

	for _, id := range e.typ.AssociationIDs() {
		d, _ := e.typ.Descriptor(id)

		if d.IsSingleton() {
			if d.MinCardinality() > 0 && e.values[id] == nil {
				violations = append(violations, Violation{Association: id, Message: "value is required"})
			}
			continue
		}

		coll := e.values[id].(*Collection)
		n := coll.Len()
		if n < d.MinCardinality() {
			violations = append(violations, Violation{
				Association: id,
				Message:     fmt.Sprintf("has %d values, at least %d required", n, d.MinCardinality()),
			})
		}
		if limit := d.def.MaxCardinality; limit != nil && n > *limit {
			violations = append(violations, Violation{
				Association: id,
				Message:     fmt.Sprintf("has %d values, at most %d allowed", n, *limit),
			})
		}
		if d.IsUnique() {
			if dup := coll.duplicates(); dup > 0 {
				violations = append(violations, Violation{
					Association: id,
					Message:     fmt.Sprintf("is unique but has %d duplicate values", dup),
				})
			}
		}
	}

	if len(violations) == 0 {
		return nil
	}
	return &CardinalityError{Entity: e.String(), Violations: violations}
}
