package commands

import (
	"encoding/json"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ontograph/ontograph/internal/cli/ui"
	"github.com/ontograph/ontograph/internal/entity"
	"github.com/ontograph/ontograph/internal/schema"
)

// classSummary is one row of the classes listing
type classSummary struct {
	ID           string   `json:"id"`
	Abstract     bool     `json:"abstract"`
	Parents      []string `json:"parents"`
	Associations int      `json:"associations"`
}

// associationSummary describes one association in describe output
type associationSummary struct {
	ID              string `json:"id"`
	Type            string `json:"type"`
	Leaf            bool   `json:"leaf"`
	MinCardinality  int    `json:"minCardinality"`
	MaxCardinality  *int   `json:"maxCardinality"`
	HeadCardinality *int   `json:"headCardinality"`
	Unique          bool   `json:"unique"`
	Inherited       bool   `json:"inherited"`
}

// classDetail is the describe output
type classDetail struct {
	ID           string               `json:"id"`
	Abstract     bool                 `json:"abstract"`
	Parents      []string             `json:"parents"`
	Ancestors    []string             `json:"ancestors"`
	Children     []string             `json:"children"`
	Referencers  []string             `json:"referencedBy"`
	Associations []associationSummary `json:"associations"`
}

func summarize(t *entity.Type) classSummary {
	return classSummary{
		ID:           t.ID(),
		Abstract:     t.IsAbstract(),
		Parents:      typeIDs(t.Parents()),
		Associations: len(t.AssociationIDs()),
	}
}

func detail(t *entity.Type) classDetail {
	d := classDetail{
		ID:          t.ID(),
		Abstract:    t.IsAbstract(),
		Parents:     typeIDs(t.Parents()),
		Ancestors:   typeIDs(t.Ancestors()),
		Children:    typeIDs(t.ChildTypes()),
		Referencers: t.ReverseAccessors(),
	}
	for _, id := range t.AssociationIDs() {
		desc, _ := t.Descriptor(id)
		d.Associations = append(d.Associations, associationSummary{
			ID:              desc.ID(),
			Type:            desc.TargetTypeID(),
			Leaf:            desc.TargetType() == nil,
			MinCardinality:  desc.MinCardinality(),
			MaxCardinality:  desc.MaxCardinality(),
			HeadCardinality: desc.HeadCardinality(),
			Unique:          desc.IsUnique(),
			Inherited:       desc.IsInherited(),
		})
	}
	return d
}

func (a associationSummary) cardinality() string {
	return "[" + strings.Join([]string{
		schema.FormatCardinality(&a.MinCardinality),
		schema.FormatCardinality(a.MaxCardinality),
	}, "..") + "]"
}

func typeIDs(types []*entity.Type) []string {
	ids := make([]string, len(types))
	for i, t := range types {
		ids[i] = t.ID()
	}
	return ids
}

func newKeyValue(cmd *cobra.Command) *ui.KeyValueTable {
	return ui.NewKeyValueTable(cmd.OutOrStdout(), noColor(cmd))
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
