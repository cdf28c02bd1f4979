package cli

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/vk/semcube/internal/app"
)

// NewExplainCommand creates the explain command.
func NewExplainCommand(rootOpts *RootOptions, outW, logW io.Writer) *cobra.Command {
	flags := &queryFlags{}

	cmd := &cobra.Command{
		Use:   "explain",
		Short: "Show the evaluation plan of a recipe without executing it",
		Long: `Parse and optimize a recipe, then print the evaluation plan with
shared subexpressions marked. No layer data is read.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.toConfig(rootOpts)
			if err != nil {
				return err
			}
			return app.NewApp(outW, logW, cfg).Explain(cmd.Context())
		},
	}

	flags.register(cmd)
	return cmd
}
