package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/brunobiangulo/syrmorph"
	"github.com/brunobiangulo/syrmorph/morph"
)

var treeCmd = &cobra.Command{
	Use:   "tree",
	Short: "Print the question tree walked for every word",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return morph.Print(cmd.OutOrStdout(), morph.Tree())
	},
}

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List the model aliases accepted by --model",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ALIAS\tMODEL")
		for _, m := range syrmorph.Models() {
			alias := m.Alias
			if alias == syrmorph.DefaultModel {
				alias += " (default)"
			}
			fmt.Fprintf(tw, "%s\t%s\n", alias, m.ID)
		}
		return tw.Flush()
	},
}
