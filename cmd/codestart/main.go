// Package main provides the codestart CLI entry point.
//
// Overview:
//   - Responsibility: CLI command parsing, global flags, exit codes
//   - Key Types: Cobra command tree
//   - Concurrency Model: Single-threaded CLI execution; serve runs the HTTP server until interrupted
//   - Error Semantics: Any command error prints its code and details and exits 1
//   - Performance Notes: The catalog is loaded once per command from embedded files
//
// Usage:
//
//	codestart create my-app --extensions resteasy,qute --build-tool gradle
//	codestart list --json
//	codestart serve --addr :8080
package main

import (
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"go.eggybyte.com/codestart/internal/envloader"
	"go.eggybyte.com/codestart/internal/errors"
	"go.eggybyte.com/codestart/internal/log"
	"go.eggybyte.com/codestart/internal/logx"
	"go.eggybyte.com/codestart/internal/ui"
	"go.eggybyte.com/codestart/internal/version"
)

// globalOptions holds the persistent flags shared by every command.
type globalOptions struct {
	verbose    bool
	jsonOutput bool
	colorMode  string
	envFile    string
	logFormat  string
}

// newRootCmd builds the command tree with fresh flag state.
//
// Parameters:
//   - None
//
// Returns:
//   - *cobra.Command: Root command with every subcommand attached
//
// Concurrency:
//   - Single-threaded CLI execution
//
// Performance:
//   - Fast startup, minimal initialization
func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "codestart",
		Short: "Compose Quarkus-style projects from codestarts",
		Long: `Compose a ready-to-build project from a catalog of codestarts.

A codestart is a template unit: the project base, a build tool (maven, gradle),
a language (java, kotlin) or an extension (resteasy, qute, ...). The selected
codestarts are rendered and merged into one project directory or zip archive.

Examples:
  codestart create my-app
  codestart create org.acme:my-app --extensions resteasy,kotlin --build-tool gradle
  codestart list
  codestart serve --addr :8080`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			ui.SetVerbose(opts.verbose)
			ui.SetJSONOutput(opts.jsonOutput)
			if err := applyColorMode(opts.colorMode); err != nil {
				return err
			}
			return envloader.LoadDotEnv(opts.envFile)
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "V", false, "Enable verbose output and debug logs")
	rootCmd.PersistentFlags().BoolVar(&opts.jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().StringVar(&opts.colorMode, "color", "auto", "Colorize output (auto|always|never)")
	rootCmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "Load CODESTART_* defaults from this file if it exists")
	rootCmd.PersistentFlags().StringVar(&opts.logFormat, "log-format", string(logx.FormatLogfmt), "Log format (logfmt|json)")

	rootCmd.Version = version.GetVersionString()
	rootCmd.SetVersionTemplate("{{.Version}}\n")

	rootCmd.AddCommand(newCreateCmd(opts))
	rootCmd.AddCommand(newListCmd())
	rootCmd.AddCommand(newServeCmd(opts))
	rootCmd.AddCommand(newVersionCmd())
	return rootCmd
}

func applyColorMode(mode string) error {
	switch mode {
	case "auto":
	case "always":
		color.NoColor = false
	case "never":
		color.NoColor = true
	default:
		return errors.Build(errors.CodeInvalidRequest).
			WithOp("cli.color").
			WithMsgf("unknown color mode %q", mode).
			WithDetail("flag", "color").
			Err()
	}
	return nil
}

// newLogger builds the structured logger used by library packages.
// Logs go to stderr; verbose mode lowers the level to debug.
func newLogger(opts *globalOptions) log.Logger {
	return newLoggerAt(opts, slog.LevelWarn)
}

// newLoggerAt is newLogger with a different non-verbose level.
func newLoggerAt(opts *globalOptions, level slog.Level, extra ...logx.Option) log.Logger {
	return logx.New(logOptions(opts, level, extra...)...)
}

func logOptions(opts *globalOptions, level slog.Level, extra ...logx.Option) []logx.Option {
	if opts.verbose {
		level = slog.LevelDebug
	}
	format := logx.FormatLogfmt
	if opts.logFormat == string(logx.FormatJSON) {
		format = logx.FormatJSON
	}
	return append([]logx.Option{
		logx.WithFormat(format),
		logx.WithLevel(level),
		logx.WithColor(!color.NoColor),
		logx.WithWriter(os.Stderr),
	}, extra...)
}

// execute runs the CLI and returns the process exit code.
func execute(args []string) int {
	rootCmd := newRootCmd()
	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		ui.Fail(err)
		return 1
	}
	return 0
}

func main() {
	os.Exit(execute(os.Args[1:]))
}
