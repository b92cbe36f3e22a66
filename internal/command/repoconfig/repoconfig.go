// Package repoconfig implements "bvc config", which reads and writes the
// repository's ini config.
package repoconfig

import (
	"github.com/spf13/cobra"

	"github.com/keshon/bvc/internal/command"
)

func New(app *command.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Get and set repository options",
		Long: `Get and set options stored in .bvc/config. Keys are "section.name".

Known keys:
  user.name         author name for new commits
  user.email        author email for new commits
  snapshot.message  default message of snapshot commits`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "get <key>",
		Short: "Print the value of a key",
		Args:  cobra.ExactArgs(1),
		RunE: app.Run(func(cmd *cobra.Command, args []string) error {
			ini, err := app.Repo.Settings()
			if err != nil {
				return err
			}
			v, err := ini.Get(args[0])
			if err != nil {
				return err
			}
			app.Println(v)
			return nil
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Store a value",
		Args:  cobra.ExactArgs(2),
		RunE: app.Run(func(cmd *cobra.Command, args []string) error {
			ini, err := app.Repo.Settings()
			if err != nil {
				return err
			}
			if err := ini.Set(args[0], args[1]); err != nil {
				return err
			}
			return ini.Save()
		}),
	})

	return cmd
}
