package cli

import (
	"fmt"

	"github.com/anonto42/spotlight/backend/internal/app"
	"github.com/spf13/cobra"
)

// NewSweepStoriesCommand creates the sweep-stories command
func NewSweepStoriesCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "sweep-stories",
		Short:        "Delete expired stories with their views and media once",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), rootOpts, func(a *app.App) error {
				n, err := a.Services.Stories.SweepExpired(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "swept %d expired stories\n", n)
				return nil
			})
		},
	}
}
