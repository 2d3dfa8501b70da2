package source

import (
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/ontograph/ontograph/internal/schema"
)

// ObjectModelNamespace is the namespace of ObjectModel XML documents
const ObjectModelNamespace = "http://organictechnology.net/schema/ObjectModel.xsd"

type xmlModel struct {
	XMLName xml.Name   `xml:"model"`
	Classes []xmlClass `xml:"class"`
}

type xmlClass struct {
	ID           string           `xml:"id,attr"`
	Abstract     string           `xml:"abstract,attr"`
	Parentage    string           `xml:"parentage,attr"`
	Associations []xmlAssociation `xml:"association"`
}

type xmlAssociation struct {
	ID              string `xml:"id,attr"`
	Type            string `xml:"type,attr"`
	MinCardinality  string `xml:"minCardinality,attr"`
	MaxCardinality  string `xml:"maxCardinality,attr"`
	HeadCardinality string `xml:"headCardinality,attr"`
	Unique          string `xml:"unique,attr"`
}

// decodeXML converts an ObjectModel document into a definition.
// Attribute values are kept as declared; parentage is a space separated list.
func decodeXML(data []byte) (*schema.Definition, error) {
	var model xmlModel
	if err := xml.Unmarshal(data, &model); err != nil {
		return nil, fmt.Errorf("invalid ObjectModel XML: %w", err)
	}

	def := &schema.Definition{Classes: make([]schema.ClassDef, 0, len(model.Classes))}
	for _, c := range model.Classes {
		abstract, err := parseBool(c.Abstract)
		if err != nil {
			return nil, fmt.Errorf("class %s: abstract: %w", c.ID, err)
		}

		class := schema.ClassDef{
			ID:        strings.TrimSpace(c.ID),
			Abstract:  abstract,
			Parentage: strings.Fields(c.Parentage),
		}
		for _, a := range c.Associations {
			assoc, err := convertAssociation(a.ID, a.Type, a.MinCardinality, a.MaxCardinality, a.HeadCardinality, a.Unique)
			if err != nil {
				return nil, fmt.Errorf("class %s: %w", c.ID, err)
			}
			class.Associations = append(class.Associations, assoc)
		}
		def.Classes = append(def.Classes, class)
	}

	return def, nil
}

// convertAssociation builds an AssociationDef from attribute literals
func convertAssociation(id, typ, minCard, maxCard, headCard, unique string) (schema.AssociationDef, error) {
	assoc := schema.AssociationDef{
		ID:   strings.TrimSpace(id),
		Type: strings.TrimSpace(typ),
	}

	var err error
	if assoc.MinCardinality, err = parseMin(minCard); err != nil {
		return assoc, fmt.Errorf("association %s: %w", id, err)
	}
	if assoc.MaxCardinality, err = schema.ParseCardinality(maxCard); err != nil {
		return assoc, fmt.Errorf("association %s: maxCardinality: %w", id, err)
	}
	if assoc.HeadCardinality, err = schema.ParseCardinality(headCard); err != nil {
		return assoc, fmt.Errorf("association %s: headCardinality: %w", id, err)
	}
	if strings.TrimSpace(unique) != "" {
		u, err := parseBool(unique)
		if err != nil {
			return assoc, fmt.Errorf("association %s: unique: %w", id, err)
		}
		assoc.Unique = &u
	}

	return assoc, nil
}
