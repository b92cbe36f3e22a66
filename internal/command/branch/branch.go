package branch

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/keshon/bvc/internal/command"
)

func New(app *command.App) *cobra.Command {
	return &cobra.Command{
		Use:     "branch [name]",
		Aliases: []string{"br"},
		Short:   "List all branches or create a new one",
		Long: `List all branches or create a new one.

Usage:
  branch        - list all branches (current marked with '*')
  branch <name> - create a new branch at the current commit`,
		Args: cobra.MaximumNArgs(1),
		RunE: app.Run(func(cmd *cobra.Command, args []string) error {
			r := app.Repo

			if len(args) == 1 {
				b, err := r.Meta.CreateBranch(args[0])
				if err != nil {
					return fmt.Errorf("failed to create branch %q: %w", args[0], err)
				}
				app.Printf("Branch '%s' created.\n", b.Name)
				return nil
			}

			ref, err := r.Meta.GetHeadRef()
			if err != nil {
				return err
			}
			branches, err := r.Meta.ListBranches()
			if err != nil {
				return fmt.Errorf("failed to list branches: %w", err)
			}
			for _, b := range branches {
				prefix := "  "
				if !ref.IsDetached() && b.Name == ref.Branch() {
					prefix = "* "
				}
				app.Printf("%s%s\n", prefix, b.Name)
			}
			return nil
		}),
	}
}
