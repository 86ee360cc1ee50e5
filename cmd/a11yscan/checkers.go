package main

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/nao1215/a11yscan/internal/checker"
)

// NewCheckersCmd creates the checkers command.
func NewCheckersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "checkers",
		Short: "List the built-in checkers",
		Long: `Checkers lists every built-in checker in the order it runs, with its
family. Names are accepted by 'a11yscan scan --only' and '--skip'; families
by '--mode'.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			family, err := cmd.Flags().GetString("family")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), checkerTable(checker.NewRegistry(), checker.Family(family)))
			return nil
		},
	}

	cmd.Flags().String("family", "", "Only list checkers of this family")

	return cmd
}

// checkerTable renders the checkers of registry, optionally of one family.
func checkerTable(registry *checker.Registry, family checker.Family) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"#", "Name", "Family"})
	n := 0
	for _, c := range registry.Checkers() {
		if family != "" && c.Family() != family {
			continue
		}
		n++
		t.AppendRow(table.Row{n, c.Name(), c.Family()})
	}
	t.AppendFooter(table.Row{"", fmt.Sprintf("%d checker(s)", n), ""})
	return t.Render()
}
