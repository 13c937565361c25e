package cli

import (
	"github.com/spf13/cobra"
)

func newMigrateCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.migrate(cmd.Context()); err != nil {
				return err
			}

			return a.print(map[string]string{
				"status":  "migrated",
				"dialect": string(a.server.DB.Dialect()),
			}, func() {
				a.success("Database migrated (%s)", a.server.DB.Dialect())
			})
		},
	}
}
