package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"go.eggybyte.com/codestart/internal/version"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show codestart version information",
		Long: `Display version information for the codestart CLI.

This command shows:
  • CLI version, git commit hash, and build timestamp
  • Default platform BOM
  • Go runtime version`,
		Args: cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, version.Banner())
			fmt.Fprintln(out, version.GetFullVersionInfo())
		},
	}
}
