package main

import (
	"fmt"

	"github.com/aretw0/btlib"
	"github.com/aretw0/btlib/internal/presentation/tui"
	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version number of btview",
		Run: func(cmd *cobra.Command, args []string) {
			if banner, _ := cmd.Flags().GetBool("banner"); banner {
				tui.PrintBanner(cmd.OutOrStdout())
			}
			fmt.Fprintf(cmd.OutOrStdout(), "btview version %s\n", btlib.Version)
		},
	}
	cmd.Flags().Bool("banner", false, "Print the banner")
	return cmd
}
