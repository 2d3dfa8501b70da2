package schema

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrSchemaLoad is returned when a metamodel source is malformed or fails structural validation
	ErrSchemaLoad = errors.New("schema load failed")

	// ErrSchemaCycle is returned when the inheritance graph cannot be linearized
	ErrSchemaCycle = errors.New("inheritance graph does not linearize")

	// ErrUnknownParent is returned when a class declares a parent that does not exist
	ErrUnknownParent = errors.New("unknown parent class")

	// ErrUnknownAssociation is returned when an association is not found on a class or its ancestors
	ErrUnknownAssociation = errors.New("unknown association")

	// ErrUnknownClass is returned when a class id is not part of the schema
	ErrUnknownClass = errors.New("unknown class")
)

// LoadError wraps a failure to read or validate a metamodel source
type LoadError struct {
	Err error
}

// Error implements the error interface
func (e *LoadError) Error() string {
	return fmt.Sprintf("schema load failed: %v", e.Err)
}

// Unwrap allows errors.Is to match both ErrSchemaLoad and the cause
func (e *LoadError) Unwrap() []error {
	return []error{ErrSchemaLoad, e.Err}
}

// CycleError reports classes whose ancestry never resolved
type CycleError struct {
	Passes     int
	Unresolved []string
	Cycles     [][]string
}

// Error implements the error interface
func (e *CycleError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "inheritance graph did not linearize after %d passes; unresolved: %s",
		e.Passes, strings.Join(e.Unresolved, ", "))
	if len(e.Cycles) > 0 {
		b.WriteString("\n")
		b.WriteString(formatCycles(e.Cycles))
	}
	return b.String()
}

// Unwrap returns ErrSchemaCycle
func (e *CycleError) Unwrap() error {
	return ErrSchemaCycle
}

// UnknownParentError reports a dangling parent reference
type UnknownParentError struct {
	Class  string
	Parent string
}

// Error implements the error interface
func (e *UnknownParentError) Error() string {
	return fmt.Sprintf("class %s has an invalid parent: %s", e.Class, e.Parent)
}

// Unwrap returns ErrUnknownParent
func (e *UnknownParentError) Unwrap() error {
	return ErrUnknownParent
}

// UnknownAssociationError reports a lookup of an association that does not exist
type UnknownAssociationError struct {
	Class       string
	Association string
}

// Error implements the error interface
func (e *UnknownAssociationError) Error() string {
	return fmt.Sprintf("class %s has no association %s", e.Class, e.Association)
}

// Unwrap returns ErrUnknownAssociation
func (e *UnknownAssociationError) Unwrap() error {
	return ErrUnknownAssociation
}

func unknownClass(id string) error {
	return fmt.Errorf("%w: %s", ErrUnknownClass, id)
}

// IsSchemaLoad returns true if the error is a schema load failure
func IsSchemaLoad(err error) bool {
	return errors.Is(err, ErrSchemaLoad)
}

// IsSchemaCycle returns true if the error reports an inheritance cycle
func IsSchemaCycle(err error) bool {
	return errors.Is(err, ErrSchemaCycle)
}

// IsUnknownAssociation returns true if the error reports a missing association
func IsUnknownAssociation(err error) bool {
	return errors.Is(err, ErrUnknownAssociation)
}
