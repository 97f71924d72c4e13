package main

import (
	"fmt"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"go.eggybyte.com/codestart/internal/catalog"
	"go.eggybyte.com/codestart/internal/codestart"
	"go.eggybyte.com/codestart/internal/errors"
	"go.eggybyte.com/codestart/internal/ui"
)

func newListCmd() *cobra.Command {
	var language string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List available extensions",
		Long: `List the extensions of the built-in catalog with their dependency
coordinates and aliases.

Examples:
  codestart list
  codestart list --language kotlin
  codestart list --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := catalog.Default()
			if err != nil {
				return err
			}

			if language != "" {
				if _, ok := cat.LookupKind(codestart.KindLanguage, language); !ok {
					return errors.Build(errors.CodeUnsupportedLanguage).
						WithOp("cli.list").
						WithMsgf("unsupported language %q, supported: %s",
							language, strings.Join(cat.IDs(codestart.KindLanguage), ", ")).
						WithDetail("language", language).
						Err()
				}
			}
			exts := filterByLanguage(cat.Extensions(), language)

			if ui.JSONOutput() {
				ui.Result(exts, "%d extensions", len(exts))
				return nil
			}

			out := cmd.OutOrStdout()
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			id := color.New(color.FgCyan, color.Bold)
			fmt.Fprintln(tw, "ID\tDEPENDENCY\tALIASES\tLANGUAGES")
			for _, ext := range exts {
				langs := "all"
				if len(ext.SupportedLanguages) > 0 {
					langs = strings.Join(ext.SupportedLanguages, ",")
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
					id.Sprint(ext.ID), ext.Dependency, strings.Join(ext.Aliases, ","), langs)
			}
			if err := tw.Flush(); err != nil {
				return errors.Wrap(errors.CodeIOError, "cli.list", err)
			}

			fmt.Fprintf(out, "\nBuild tools: %s\n", strings.Join(cat.IDs(codestart.KindBuildTool), ", "))
			fmt.Fprintf(out, "Languages:   %s\n", strings.Join(cat.IDs(codestart.KindLanguage), ", "))
			return nil
		},
	}

	cmd.Flags().StringVarP(&language, "language", "l", "", "Only show extensions supporting this language")
	return cmd
}

// filterByLanguage keeps extensions without a language restriction and those listing language.
func filterByLanguage(exts []catalog.Extension, language string) []catalog.Extension {
	if language == "" {
		return exts
	}
	out := make([]catalog.Extension, 0, len(exts))
	for _, ext := range exts {
		if len(ext.SupportedLanguages) == 0 || slices.Contains(ext.SupportedLanguages, language) {
			out = append(out, ext)
		}
	}
	return out
}
