// Package initrepo implements "bvc init".
package initrepo

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/keshon/bvc/internal/command"
	"github.com/keshon/bvc/internal/repo"
)

func New(app *command.App) *cobra.Command {
	var quiet bool

	cmd := &cobra.Command{
		Use:     "init [dir]",
		Aliases: []string{"initialize"},
		Short:   "Initialize a new repository",
		Long: `Initialize a new repository in dir, or in the current directory.

Examples:
  bvc init
  bvc init -q projects/assets`,
		Args: cobra.MaximumNArgs(1),
		RunE: command.ApplyMiddlewares(func(cmd *cobra.Command, args []string) error {
			dir, err := app.StartDir()
			if err != nil {
				return err
			}
			if len(args) == 1 {
				if filepath.IsAbs(args[0]) {
					dir = args[0]
				} else {
					dir = filepath.Join(dir, args[0])
				}
			}

			r, err := repo.Init(dir, app.FS, repo.WithLogger(app.Log))
			if err != nil {
				return err
			}
			app.Repo = r
			if !quiet {
				app.Printf("Initialized empty repository in %q\n", r.Config.RepoDir)
			}
			return nil
		}, command.WithDebugArgs(app)),
	}

	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "suppress normal output")
	return cmd
}
