package commit

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/keshon/bvc/internal/command"
	"github.com/keshon/bvc/internal/repo"
)

func New(app *command.App) *cobra.Command {
	var message string

	cmd := &cobra.Command{
		Use:   "commit -m <message>",
		Short: "Record tracked changes on the current branch",
		Args:  cobra.NoArgs,
		RunE: app.Run(func(cmd *cobra.Command, args []string) error {
			if message == "" {
				return fmt.Errorf("commit message required (-m)")
			}
			author, err := app.Author()
			if err != nil {
				return err
			}
			id, err := app.Repo.Commit(message, author)
			if errors.Is(err, repo.ErrNothingToCommit) {
				app.Println("nothing to commit, working tree clean")
				return nil
			}
			if err != nil {
				return err
			}
			app.Printf("committed %s\n", id)
			return nil
		}),
	}

	cmd.Flags().StringVarP(&message, "message", "m", "", "commit message")
	return cmd
}
