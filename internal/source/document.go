package source

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ontograph/ontograph/internal/schema"
)

// document is the YAML and JSON form of a metamodel
type document struct {
	Classes []classDocument `yaml:"classes" json:"classes"`
}

type classDocument struct {
	ID           string                `yaml:"id" json:"id"`
	Abstract     bool                  `yaml:"abstract" json:"abstract"`
	Parentage    parentage             `yaml:"parentage" json:"parentage"`
	Associations []associationDocument `yaml:"associations" json:"associations"`
}

type associationDocument struct {
	ID              string      `yaml:"id" json:"id"`
	Type            string      `yaml:"type" json:"type"`
	MinCardinality  cardinality `yaml:"minCardinality" json:"minCardinality"`
	MaxCardinality  cardinality `yaml:"maxCardinality" json:"maxCardinality"`
	HeadCardinality cardinality `yaml:"headCardinality" json:"headCardinality"`
	Unique          *bool       `yaml:"unique" json:"unique"`
}

// cardinality accepts numbers as well as "unbounded" or "*"
type cardinality string

// UnmarshalYAML implements yaml.Unmarshaler
func (c *cardinality) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: cardinality must be a scalar", value.Line)
	}
	*c = cardinality(value.Value)
	return nil
}

// UnmarshalJSON implements json.Unmarshaler
func (c *cardinality) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*c = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = cardinality(s)
	default:
		if _, err := strconv.Atoi(string(data)); err != nil {
			return fmt.Errorf("invalid cardinality %s", data)
		}
		*c = cardinality(data)
	}
	return nil
}

// parentage accepts a list of ids or a space separated string
type parentage []string

// UnmarshalYAML implements yaml.Unmarshaler
func (p *parentage) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		*p = strings.Fields(value.Value)
		return nil
	}
	var ids []string
	if err := value.Decode(&ids); err != nil {
		return err
	}
	*p = ids
	return nil
}

// UnmarshalJSON implements json.Unmarshaler
func (p *parentage) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*p = strings.Fields(s)
		return nil
	}
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return err
	}
	*p = ids
	return nil
}

func decodeYAML(data []byte) (*schema.Definition, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("invalid YAML metamodel: %w", err)
	}
	return doc.definition()
}

func decodeJSON(data []byte) (*schema.Definition, error) {
	var doc document
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("invalid JSON metamodel: %w", err)
	}
	return doc.definition()
}

func (d document) definition() (*schema.Definition, error) {
	def := &schema.Definition{Classes: make([]schema.ClassDef, 0, len(d.Classes))}
	for _, c := range d.Classes {
		class := schema.ClassDef{
			ID:        strings.TrimSpace(c.ID),
			Abstract:  c.Abstract,
			Parentage: append([]string(nil), c.Parentage...),
		}
		for _, a := range c.Associations {
			unique := ""
			if a.Unique != nil {
				unique = strconv.FormatBool(*a.Unique)
			}
			assoc, err := convertAssociation(a.ID, a.Type,
				string(a.MinCardinality), string(a.MaxCardinality), string(a.HeadCardinality), unique)
			if err != nil {
				return nil, fmt.Errorf("class %s: %w", c.ID, err)
			}
			class.Associations = append(class.Associations, assoc)
		}
		def.Classes = append(def.Classes, class)
	}
	return def, nil
}
