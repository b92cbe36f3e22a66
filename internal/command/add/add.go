package add

import (
	"github.com/spf13/cobra"

	"github.com/keshon/bvc/internal/command"
	"github.com/keshon/bvc/internal/repo"
)

func New(app *command.App) *cobra.Command {
	return &cobra.Command{
		Use:   "add [paths...]",
		Short: "Stage new, changed and vanished files",
		Long: `Stage files for the next commit. New and modified files are added,
tracked files that are gone from disk are staged for removal. Without
paths the whole working tree is considered.`,
		RunE: app.Run(func(cmd *cobra.Command, args []string) error {
			r := app.Repo
			wl, err := r.WLock()
			if err != nil {
				return err
			}
			defer wl.Release()

			m := repo.MatchAll()
			if len(args) > 0 {
				paths, err := app.RepoPaths(args)
				if err != nil {
					return err
				}
				m = repo.MatchFiles(paths)
			}
			return r.AddRemove(m)
		}),
	}
}
