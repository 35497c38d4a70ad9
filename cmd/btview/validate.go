package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate FILE",
		Short: "Check the tree for problems that prevent compilation",
		Long:  `Reports every root, child count, subtree and ID attribute problem of the tree at once.`,
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
			if err := e.analyzer.Validate(tree); err != nil {
				return fmt.Errorf("validation failed: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Tree is valid! ✅")
			return nil
		},
	}
}
