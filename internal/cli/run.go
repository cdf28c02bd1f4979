package cli

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/vk/semcube/internal/app"
)

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions, outW, logW io.Writer) *cobra.Command {
	flags := &queryFlags{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute a recipe and write its result arrays",
		Long: `Execute a recipe against a datacube and write one labeled array per
result as JSON.

Example:
  semcube run -r recipe.hcl -m mapping.hcl -c cube.yaml \
    --bounds 0,0,2000,2000 --crs 3035 --resolution -10,10 \
    --start 2021-01-01 --end 2021-12-31`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.toConfig(rootOpts)
			if err != nil {
				return err
			}
			return app.NewApp(outW, logW, cfg).Run(cmd.Context())
		},
	}

	flags.register(cmd)
	return cmd
}
