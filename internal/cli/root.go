// Package cli translates command-line flags into an app configuration
// and drives the run and explain commands.
package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// RootOptions holds the flags shared by every command.
type RootOptions struct {
	LogLevel  string
	LogFormat string
}

var validLogLevels = []string{"debug", "info", "warn", "error"}

// NewRootCommand creates the semcube root command.
func NewRootCommand(outW, logW io.Writer) *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "semcube",
		Short: "Answer semantic queries against datacubes",
		Long: `semcube executes recipes of semantic queries against a datacube,
translating concepts like "water" into rules over raw data layers
through a mapping document.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !contains(validLogLevels, opts.LogLevel) {
				return fmt.Errorf("invalid log-level %q: must be one of %v", opts.LogLevel, validLogLevels)
			}
			if opts.LogFormat != "text" && opts.LogFormat != "json" {
				return fmt.Errorf("invalid log-format %q: must be 'text' or 'json'", opts.LogFormat)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "info", "logging level (debug|info|warn|error)")
	cmd.PersistentFlags().StringVar(&opts.LogFormat, "log-format", "text", "log output format (text|json)")

	cmd.AddCommand(NewRunCommand(opts, outW, logW))
	cmd.AddCommand(NewExplainCommand(opts, outW, logW))

	return cmd
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
