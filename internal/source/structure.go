package source

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"sync"

	"github.com/jacoelho/xsd"
	xsderrors "github.com/jacoelho/xsd/errors"

	"github.com/ontograph/ontograph/internal/schema"
)

//go:embed objectmodel.xsd
var builtinFS embed.FS

const builtinXSDName = "objectmodel.xsd"

// builtinSchema compiles the bundled ObjectModel schema once per process
var builtinSchema = sync.OnceValues(func() (*xsd.Schema, error) {
	return xsd.LoadWithOptions(builtinFS, builtinXSDName, xsd.NewLoadOptions())
})

// StructuralError reports an XML metamodel that does not conform to its structural schema
type StructuralError struct {
	Document   string
	Violations []string
	Err        error
}

// Error implements the error interface
func (e *StructuralError) Error() string {
	if len(e.Violations) == 0 {
		return fmt.Sprintf("%s failed structural validation: %v", e.Document, e.Err)
	}
	return fmt.Sprintf("%s failed structural validation with %d violations:\n  %s",
		e.Document, len(e.Violations), strings.Join(e.Violations, "\n  "))
}

// Unwrap matches schema.ErrSchemaLoad and the underlying validator error
func (e *StructuralError) Unwrap() []error {
	if e.Err == nil {
		return []error{schema.ErrSchemaLoad}
	}
	return []error{schema.ErrSchemaLoad, e.Err}
}

func validateWithFile(xsdPath, document string, data []byte) error {
	s, err := xsd.LoadFile(xsdPath)
	if err != nil {
		return fmt.Errorf("failed to load structural schema %s: %w", xsdPath, err)
	}
	return validateDocument(s, document, data)
}

func validateWithBuiltin(document string, data []byte) error {
	s, err := builtinSchema()
	if err != nil {
		return fmt.Errorf("failed to load bundled structural schema: %w", err)
	}
	return validateDocument(s, document, data)
}

func validateDocument(s *xsd.Schema, document string, data []byte) error {
	err := s.Validate(bytes.NewReader(data))
	if err == nil {
		return nil
	}

	violations, ok := xsderrors.AsValidations(err)
	if !ok {
		return &StructuralError{Document: document, Err: err}
	}
	msgs := make([]string, len(violations))
	for i, v := range violations {
		msgs[i] = v.Error()
	}
	return &StructuralError{Document: document, Violations: msgs, Err: err}
}
