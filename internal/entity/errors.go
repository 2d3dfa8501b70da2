package entity

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrAbstractInstantiation is returned when an abstract class is instantiated
	ErrAbstractInstantiation = errors.New("cannot instantiate an abstract class")

	// ErrTypeMismatch is returned when a value does not satisfy an association's target type or shape
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrHeadCardinalityExceeded is returned when a target already has its maximum number of holders
	ErrHeadCardinalityExceeded = errors.New("head cardinality exceeded")

	// ErrCardinality is returned by Validate when association counts violate their bounds
	ErrCardinality = errors.New("cardinality violation")
)

// AbstractInstantiationError names the abstract class that was instantiated
type AbstractInstantiationError struct {
	Class string
}

// Error implements the error interface
func (e *AbstractInstantiationError) Error() string {
	return fmt.Sprintf("cannot instantiate abstract class %s", e.Class)
}

// Unwrap returns ErrAbstractInstantiation
func (e *AbstractInstantiationError) Unwrap() error {
	return ErrAbstractInstantiation
}

// TypeMismatchError describes a rejected association value
type TypeMismatchError struct {
	Class       string
	Association string
	Expected    string
	Got         string
}

// Error implements the error interface
func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("%s.%s: expected %s, got %s", e.Class, e.Association, e.Expected, e.Got)
}

// Unwrap returns ErrTypeMismatch
func (e *TypeMismatchError) Unwrap() error {
	return ErrTypeMismatch
}

// HeadCardinalityError describes a rejected reverse reference
type HeadCardinalityError struct {
	Target      string // target entity
	Referencer  string // referencing class id
	Association string
	Limit       int
	Holders     []string // holders already recorded
}

// Error implements the error interface
func (e *HeadCardinalityError) Error() string {
	return fmt.Sprintf("%s is already referenced through %s.%s by %s (head cardinality %d)",
		e.Target, e.Referencer, e.Association, strings.Join(e.Holders, ", "), e.Limit)
}

// Unwrap returns ErrHeadCardinalityExceeded
func (e *HeadCardinalityError) Unwrap() error {
	return ErrHeadCardinalityExceeded
}

// Violation is a single cardinality problem found by Validate
type Violation struct {
	Association string
	Message     string
}

// CardinalityError lists every violation found on one entity
type CardinalityError struct {
	Entity     string
	Violations []Violation
}

// Error implements the error interface
func (e *CardinalityError) Error() string {
	if len(e.Violations) == 1 {
		v := e.Violations[0]
		return fmt.Sprintf("%s: %s: %s", e.Entity, v.Association, v.Message)
	}
	msgs := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		msgs[i] = fmt.Sprintf("%s: %s", v.Association, v.Message)
	}
	return fmt.Sprintf("%s: %d cardinality violations:\n  %s", e.Entity, len(e.Violations), strings.Join(msgs, "\n  "))
}

// Unwrap returns ErrCardinality
func (e *CardinalityError) Unwrap() error {
	return ErrCardinality
}

// IsTypeMismatch returns true if the error is ErrTypeMismatch
func IsTypeMismatch(err error) bool {
	return errors.Is(err, ErrTypeMismatch)
}

// IsHeadCardinalityExceeded returns true if the error is ErrHeadCardinalityExceeded
func IsHeadCardinalityExceeded(err error) bool {
	return errors.Is(err, ErrHeadCardinalityExceeded)
}

// IsAbstractInstantiation returns true if the error is ErrAbstractInstantiation
func IsAbstractInstantiation(err error) bool {
	return errors.Is(err, ErrAbstractInstantiation)
}
