// Package source reads ontograph metamodels from their storage formats.
// The ObjectModel XML format is the primary one; YAML and JSON carry the same
// attributes. Every reader produces a schema.Source for schema.Load.
package source

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ontograph/ontograph/internal/schema"
)

// Format identifies a metamodel storage format
type Format int

const (
	FormatAuto Format = iota
	FormatXML
	FormatYAML
	FormatJSON
)

// String returns the string representation of the format
func (f Format) String() string {
	switch f {
	case FormatXML:
		return "xml"
	case FormatYAML:
		return "yaml"
	case FormatJSON:
		return "json"
	default:
		return "auto"
	}
}

// ParseFormat converts a format name or file extension to a Format
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "", "auto":
		return FormatAuto, nil
	case "xml":
		return FormatXML, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "json":
		return FormatJSON, nil
	default:
		return FormatAuto, fmt.Errorf("unknown schema format: %s", s)
	}
}

// Options configures how a metamodel is read
type Options struct {
	// Format forces a decoder; FormatAuto picks one from the file extension
	Format Format
	// XSDPath validates XML sources against this structural schema before decoding
	XSDPath string
	// BuiltinXSD validates XML sources against the bundled ObjectModel schema
	BuiltinXSD bool
}

// ErrUnsupportedFormat is returned when no decoder matches a source
var ErrUnsupportedFormat = errors.New("unsupported schema format")

// readerSource decodes a metamodel from an in-memory document
type readerSource struct {
	name   string
	data   []byte
	err    error
	format Format
	opts   Options
}

// Read implements schema.Source
func (s *readerSource) Read() (*schema.Definition, error) {
	if s.err != nil {
		return nil, s.err
	}

	switch s.format {
	case FormatXML:
		if err := s.validateStructure(); err != nil {
			return nil, err
		}
		return decodeXML(s.data)
	case FormatYAML:
		return decodeYAML(s.data)
	case FormatJSON:
		return decodeJSON(s.data)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, s.name)
	}
}

func (s *readerSource) validateStructure() error {
	switch {
	case s.opts.XSDPath != "":
		return validateWithFile(s.opts.XSDPath, s.name, s.data)
	case s.opts.BuiltinXSD:
		return validateWithBuiltin(s.name, s.data)
	}
	return nil
}

// File returns a source that reads the metamodel stored at path
func File(path string, opts Options) schema.Source {
	format := opts.Format
	if format == FormatAuto {
		var err error
		format, err = ParseFormat(filepath.Ext(path))
		if err != nil || format == FormatAuto {
			return &readerSource{name: path, err: fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)}
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return &readerSource{name: path, err: fmt.Errorf("failed to read schema file: %w", err)}
	}
	return &readerSource{name: path, data: data, format: format, opts: opts}
}

// Bytes returns a source decoding data in the given format
func Bytes(data []byte, format Format, opts Options) schema.Source {
	return &readerSource{name: format.String() + " document", data: bytes.Clone(data), format: format, opts: opts}
}

// XML returns a source decoding an ObjectModel XML document
func XML(r io.Reader, opts Options) schema.Source {
	return fromReader(r, FormatXML, opts)
}

// YAML returns a source decoding a YAML metamodel
func YAML(r io.Reader) schema.Source {
	return fromReader(r, FormatYAML, Options{})
}

// JSON returns a source decoding a JSON metamodel
func JSON(r io.Reader) schema.Source {
	return fromReader(r, FormatJSON, Options{})
}

func fromReader(r io.Reader, format Format, opts Options) schema.Source {
	data, err := io.ReadAll(r)
	if err != nil {
		return &readerSource{name: format.String() + " document", err: fmt.Errorf("failed to read schema: %w", err)}
	}
	return &readerSource{name: format.String() + " document", data: data, format: format, opts: opts}
}

// parseBool accepts the xs:boolean lexical forms
func parseBool(s string) (bool, error) {
	switch strings.TrimSpace(s) {
	case "", "false", "0":
		return false, nil
	case "true", "1":
		return true, nil
	}
	return false, fmt.Errorf("invalid boolean %q", s)
}

func parseMin(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid minCardinality %q", s)
	}
	return n, nil
}
