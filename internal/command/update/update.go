package update

import (
	"github.com/spf13/cobra"

	"github.com/keshon/bvc/internal/command"
	"github.com/keshon/bvc/internal/repo"
	"github.com/keshon/bvc/internal/repo/meta"
)

func New(app *command.App) *cobra.Command {
	var clean bool

	cmd := &cobra.Command{
		Use:     "update [-C] <rev>",
		Aliases: []string{"up"},
		Short:   "Update the working tree to a revision",
		Long: `Update the working tree to rev. A branch name attaches HEAD to that
branch; any other revision detaches it.

Uncommitted changes to tracked files stop the update unless -C is given,
in which case they are discarded. Unknown files are left alone.`,
		Args: cobra.ExactArgs(1),
		RunE: app.Run(func(cmd *cobra.Command, args []string) error {
			r := app.Repo
			wl, err := r.WLock()
			if err != nil {
				return err
			}
			defer wl.Release()

			rev := args[0]
			id, err := r.Meta.ResolveCommit(rev)
			if err != nil {
				return err
			}
			opts := repo.UpdateOptions{Clean: clean}
			if ok, err := r.Meta.BranchExists(rev); err != nil {
				return err
			} else if ok {
				opts.Branch = rev
			}
			if err := r.Update(id, opts); err != nil {
				return err
			}
			app.Printf("updated to %s\n", meta.ShortID(id))
			return nil
		}),
	}

	cmd.Flags().BoolVarP(&clean, "clean", "C", false, "discard uncommitted changes")
	return cmd
}
