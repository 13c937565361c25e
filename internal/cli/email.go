package cli

import (
	"fmt"
	"sort"

	"github.com/deppfellow/bookshelf/internal/lib/email"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newEmailCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "email",
		Short: "Work with email templates",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "preview [template]",
		Short: "Render a template with sample data",
		Long:  "Render a template with sample data. Without an argument, list the templates.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				names := make([]string, 0, len(email.PreviewData))
				for name := range email.PreviewData {
					names = append(names, string(name))
				}
				sort.Strings(names)

				return a.print(names, func() {
					for _, name := range names {
						fmt.Fprintln(a.out, name)
					}
				})
			}

			name := email.Template(args[0])
			data, ok := email.PreviewData[name]
			if !ok {
				return errors.Errorf("unknown template %q", name)
			}

			body, err := email.Render(name, data)
			if err != nil {
				return err
			}

			return a.print(map[string]string{"template": string(name), "html": body}, func() {
				fmt.Fprint(a.out, body)
			})
		},
	})

	return cmd
}
