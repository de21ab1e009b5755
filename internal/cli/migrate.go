package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gearup/storefront/internal/database"
)

func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:       "migrate <up|down>",
		Short:     "Apply or revert the database schema",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{string(database.Up), string(database.Down)},
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := database.Direction(args[0])
			if dir != database.Up && dir != database.Down {
				return fmt.Errorf("unknown direction %q: must be up or down", args[0])
			}
			return database.Migrate(rootOpts.Config.Database.URL, dir, newLogger(cmd.ErrOrStderr(), "migrate"))
		},
	}
}
