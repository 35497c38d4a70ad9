package main

import (
	"fmt"

	"github.com/aretw0/btlib/internal/presentation/graph"
	"github.com/spf13/cobra"
)

func newGraphCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "graph FILE",
		Short: "Export the tree as a Mermaid diagram",
		Long: `Outputs a Mermaid flowchart (graph TD) of the tree. For .fbl files the
nodes seen in the log are highlighted and annotated with their counts.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			tree, events, err := e.analyzer.LoadFile(args[0])
			if err != nil {
				return err
			}
			if events == nil {
				_, err = fmt.Fprint(cmd.OutOrStdout(), graph.TreeMermaid(tree, nil))
				return err
			}
			values, _, err := e.analyzer.Aggregate(events, tree)
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), graph.TreeMermaid(tree, values))
			return err
		},
	}
}
