package commands

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ontograph/ontograph/internal/cli/ui"
)

func newClassesCommand(opts *globalOptions) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "classes",
		Short: "List the classes of the schema, ancestors first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}

			s, err := opts.openSession(cmd.Context())
			if err != nil {
				return reportSchemaError(cmd, err)
			}
			defer s.Close()

			types := s.Universe.Types()
			summaries := make([]classSummary, len(types))
			for i, t := range types {
				summaries[i] = summarize(t)
			}

			if format == "json" {
				return writeJSON(cmd, summaries)
			}

			table := ui.NewTable(cmd.OutOrStdout(), noColor(cmd), "Class", "Abstract", "Parents", "Associations")
			for _, c := range summaries {
				abstract := ""
				if c.Abstract {
					abstract = "yes"
				}
				table.AddRow(c.ID, abstract, strings.Join(c.Parents, ", "), strconv.Itoa(c.Associations))
			}
			table.Render()
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "table", "output format (table, json)")
	return cmd
}
