package main

import (
	"fmt"

	"github.com/aretw0/btlib/internal/presentation/graph"
	"github.com/spf13/cobra"
)

func newFsmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fsm FILE",
		Short: "Compile a behavior tree into a finite-state automaton",
		Long: `Compiles an XML definition or .fbl trace into an automaton with the global
ports tick, success, failure and running. Formats: json (default), yaml, mermaid.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			tree, _, err := e.analyzer.LoadFile(args[0])
			if err != nil {
				return err
			}
			fsm, err := e.analyzer.CompileFSM(tree)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			format := formatFlag(cmd, formatJSON)
			if format == formatMermaid {
				_, err = fmt.Fprint(out, graph.AutomatonMermaid(fsm))
				return err
			}
			return encode(out, format, fsm)
		},
	}
}

func newTreeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tree FILE",
		Short: "Print the canonical tree of a definition or trace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			tree, _, err := e.analyzer.LoadFile(args[0])
			if err != nil {
				return err
			}
			return encode(cmd.OutOrStdout(), formatFlag(cmd, formatJSON), tree)
		},
	}
}
