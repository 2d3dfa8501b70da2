package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ontograph/ontograph/internal/cli/ui"
	"github.com/ontograph/ontograph/internal/schema"
)

func newDescribeCommand(opts *globalOptions) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "describe <class>",
		Short: "Show the associations, children and referencers of a class",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}

			s, err := opts.openSession(cmd.Context())
			if err != nil {
				return reportSchemaError(cmd, err)
			}
			defer s.Close()

			t, err := s.Universe.Class(args[0])
			if err != nil {
				ui.ClassNotFound(args[0], s.Cache.Classes(), noColor(cmd)).Write(cmd.ErrOrStderr())
				return reportedError{err: err}
			}

			d := detail(t)
			if format == "json" {
				return writeJSON(cmd, d)
			}
			renderDetail(cmd, d)
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "table", "output format (table, json)")
	return cmd
}

func renderDetail(cmd *cobra.Command, d classDetail) {
	out := cmd.OutOrStdout()
	nc := noColor(cmd)

	ui.Header(out, d.ID, nc)
	kv := ui.NewKeyValueTable(out, nc)
	kv.AddRow("Abstract", yesNo(d.Abstract))
	kv.AddRow("Parents", listOrDash(d.Parents))
	kv.AddRow("Ancestors", listOrDash(d.Ancestors))
	kv.Render()
	fmt.Fprintln(out)

	assocs := ui.NewSection(out, "Associations", nc)
	for _, a := range d.Associations {
		line := fmt.Sprintf("%s: %s %s", a.ID, a.Type, a.cardinality())
		var notes []string
		if a.HeadCardinality != nil {
			notes = append(notes, "head "+schema.FormatCardinality(a.HeadCardinality))
		}
		if a.Unique {
			notes = append(notes, "unique")
		}
		if a.Leaf {
			notes = append(notes, "leaf")
		}
		if a.Inherited {
			notes = append(notes, "inherited")
		}
		if len(notes) > 0 {
			line += " (" + strings.Join(notes, ", ") + ")"
		}
		assocs.AddLine("%s", line)
	}
	assocs.Render()

	refs := ui.NewSection(out, "Referenced by", nc)
	for _, r := range d.Referencers {
		refs.AddLine("%s", r)
	}
	refs.Render()

	children := ui.NewSection(out, "Children", nc)
	for _, c := range d.Children {
		children.AddLine("%s", c)
	}
	children.Render()
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func listOrDash(ids []string) string {
	if len(ids) == 0 {
		return "-"
	}
	return strings.Join(ids, ", ")
}
