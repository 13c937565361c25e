package cli

import (
	"github.com/spf13/cobra"
)

func newSeedCommand(a *app) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Import books, pages and authors from a YAML file in one transaction",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fixtures, err := LoadFixtures(file)
			if err != nil {
				return err
			}
			if err := a.migrate(cmd.Context()); err != nil {
				return err
			}

			books, err := a.services.Books.Import(cmd.Context(), fixtures.Books)
			if err != nil {
				return err
			}

			return a.print(books, func() {
				pages := 0
				for _, b := range books {
					pages += len(b.Pages)
				}
				a.success("Seeded %d book(s) with %d page(s)", len(books), pages)
			})
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "fixtures.yaml", "Fixtures file")

	return cmd
}
