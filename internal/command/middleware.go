package command

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/keshon/bvc/internal/config"
	"github.com/keshon/bvc/internal/repo"
)

// RunE is the signature of a cobra run function.
type RunE func(cmd *cobra.Command, args []string) error

// Middleware is a function that wraps a command's run function.
type Middleware func(RunE) RunE

// ApplyMiddlewares wraps run with any number of middlewares; the first one
// listed runs outermost.
func ApplyMiddlewares(run RunE, mws ...Middleware) RunE {
	for i := len(mws) - 1; i >= 0; i-- {
		run = mws[i](run)
	}
	return run
}

// WithDebugArgs logs the command path and its arguments at debug level.
func WithDebugArgs(app *App) Middleware {
	return func(next RunE) RunE {
		return func(cmd *cobra.Command, args []string) error {
			if app.Log != nil {
				app.Log.WithField("command", cmd.CommandPath()).Debugf("args: %+v", args)
			}
			return next(cmd, args)
		}
	}
}

// WithRepository opens the repository enclosing App.Dir before running the
// command.
func WithRepository(app *App) Middleware {
	return func(next RunE) RunE {
		return func(cmd *cobra.Command, args []string) error {
			if app.Repo == nil {
				start, err := app.StartDir()
				if err != nil {
					return err
				}
				root, err := config.ResolveWorkingTreeRoot(app.FS, start)
				if err != nil {
					return fmt.Errorf("%w: %v", repo.ErrNotRepository, err)
				}
				r, err := repo.Open(root, app.FS, repo.WithLogger(app.Log))
				if err != nil {
					return err
				}
				app.Repo = r
			}
			return next(cmd, args)
		}
	}
}

// Run wraps run with the middlewares every repository command uses.
func (app *App) Run(run RunE) RunE {
	return ApplyMiddlewares(run, WithDebugArgs(app), WithRepository(app))
}
