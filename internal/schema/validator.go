package schema

import (
	"fmt"
	"strings"
)

// ValidationError represents a structural problem in a metamodel definition
type ValidationError struct {
	Class       string
	Association string
	Message     string
	Hint        string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	var b strings.Builder

	if e.Class != "" {
		b.WriteString(e.Class)
		if e.Association != "" {
			b.WriteString(".")
			b.WriteString(e.Association)
		}
		b.WriteString(": ")
	}

	b.WriteString(e.Message)

	if e.Hint != "" {
		b.WriteString("\n  hint: ")
		b.WriteString(e.Hint)
	}

	return b.String()
}

// ValidationErrors collects every problem found in one definition
type ValidationErrors []*ValidationError

// Error implements the error interface
func (errs ValidationErrors) Error() string {
	msgs := make([]string, len(errs))
	for i, err := range errs {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("schema validation failed with %d errors:\n%s", len(errs), strings.Join(msgs, "\n"))
}

// DefinitionValidator checks a definition before it is indexed.
// Dangling parents and inheritance cycles are left to the cache queries.
type DefinitionValidator struct {
	errors []*ValidationError
}

// NewDefinitionValidator creates a new definition validator
func NewDefinitionValidator() *DefinitionValidator {
	return &DefinitionValidator{}
}

// Validate validates a definition, returning ValidationErrors if anything is wrong
func (v *DefinitionValidator) Validate(def *Definition) error {
	v.errors = make([]*ValidationError, 0)

	seen := make(map[string]bool, len(def.Classes))
	for _, class := range def.Classes {
		if class.ID == "" {
			v.add(&ValidationError{Message: "class id must not be empty"})
			continue
		}
		if seen[class.ID] {
			v.add(&ValidationError{
				Class:   class.ID,
				Message: "duplicate class id",
				Hint:    "Class ids must be unique across the model",
			})
		}
		seen[class.ID] = true

		v.validateAssociations(class)
	}

	if len(v.errors) > 0 {
		return ValidationErrors(v.errors)
	}
	return nil
}

// validateAssociations checks ids, types and cardinality bounds of a class's own associations
func (v *DefinitionValidator) validateAssociations(class ClassDef) {
	seen := make(map[string]bool, len(class.Associations))
	for _, assoc := range class.Associations {
		if assoc.ID == "" {
			v.add(&ValidationError{Class: class.ID, Message: "association id must not be empty"})
			continue
		}
		if seen[assoc.ID] {
			v.add(&ValidationError{
				Class:       class.ID,
				Association: assoc.ID,
				Message:     "duplicate association id",
			})
		}
		seen[assoc.ID] = true

		if assoc.Type == "" {
			v.add(&ValidationError{
				Class:       class.ID,
				Association: assoc.ID,
				Message:     "association type must not be empty",
			})
		}
		if assoc.MinCardinality < 0 {
			v.add(&ValidationError{
				Class:       class.ID,
				Association: assoc.ID,
				Message:     fmt.Sprintf("minCardinality %d must not be negative", assoc.MinCardinality),
			})
		}
		if assoc.MaxCardinality != nil {
			if *assoc.MaxCardinality < 1 {
				v.add(&ValidationError{
					Class:       class.ID,
					Association: assoc.ID,
					Message:     fmt.Sprintf("maxCardinality %d must be at least 1", *assoc.MaxCardinality),
					Hint:        "Omit maxCardinality for an unbounded association",
				})
			} else if assoc.MinCardinality > *assoc.MaxCardinality {
				v.add(&ValidationError{
					Class:       class.ID,
					Association: assoc.ID,
					Message: fmt.Sprintf("minCardinality %d exceeds maxCardinality %d",
						assoc.MinCardinality, *assoc.MaxCardinality),
				})
			}
		}
		if assoc.HeadCardinality != nil && *assoc.HeadCardinality < 1 {
			v.add(&ValidationError{
				Class:       class.ID,
				Association: assoc.ID,
				Message:     fmt.Sprintf("headCardinality %d must be at least 1", *assoc.HeadCardinality),
			})
		}
	}
}

func (v *DefinitionValidator) add(err *ValidationError) {
	v.errors = append(v.errors, err)
}

// Errors returns the problems found by the last Validate call
func (v *DefinitionValidator) Errors() []*ValidationError {
	return v.errors
}
