package rm

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/keshon/bvc/internal/command"
	"github.com/keshon/bvc/internal/repo"
)

func New(app *command.App) *cobra.Command {
	var cached bool

	cmd := &cobra.Command{
		Use:   "rm <paths...>",
		Short: "Remove files and stage the removal",
		Args:  cobra.MinimumNArgs(1),
		RunE: app.Run(func(cmd *cobra.Command, args []string) error {
			r := app.Repo
			wl, err := r.WLock()
			if err != nil {
				return err
			}
			defer wl.Release()

			paths, err := app.RepoPaths(args)
			if err != nil {
				return err
			}
			if cached {
				return r.Forget(paths)
			}
			for _, p := range paths {
				if !r.WorkingFileExists(p) {
					continue
				}
				if err := r.RemoveWorkingFile(p); err != nil {
					return fmt.Errorf("remove %s: %w", p, err)
				}
			}
			return r.AddRemove(repo.MatchFiles(paths))
		}),
	}

	cmd.Flags().BoolVar(&cached, "cached", false, "only unstage, keep the files and their tracked state")
	return cmd
}
