// Package command holds the state shared by every bvc subcommand and the
// cobra root that ties them together.
package command

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/keshon/bvc/internal/config"
	"github.com/keshon/bvc/internal/fs"
	"github.com/keshon/bvc/internal/logging"
	"github.com/keshon/bvc/internal/progress"
	"github.com/keshon/bvc/internal/repo"
)

// ErrNoRevision is returned by commands that need a revision argument.
var ErrNoRevision = errors.New("you must specify a snapshot revision id")

// App is the per-invocation state handed to every subcommand.
type App struct {
	Settings *config.Settings
	Log      *logrus.Logger
	Out      io.Writer
	Err      io.Writer
	FS       fs.FS

	// Dir is where the repository lookup starts; empty means the process
	// working directory.
	Dir  string
	Repo *repo.Repository

	configFile  string
	verbose     bool
	debug       bool
	interactive bool
}

// NewApp returns an App bound to the real filesystem and standard streams.
func NewApp() *App {
	return &App{
		Out:         os.Stdout,
		Err:         os.Stderr,
		FS:          &fs.OSFS{},
		interactive: true,
	}
}

// NewRootCommand builds the bvc root command with the given subcommands.
func NewRootCommand(app *App, subcommands ...func(*App) *cobra.Command) *cobra.Command {
	root := &cobra.Command{
		Use:           "bvc",
		Short:         "Block-based version control with working-copy snapshots",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.setup(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.BoolVarP(&app.verbose, "verbose", "v", false, "show informational messages")
	pf.BoolVar(&app.debug, "debug", false, "show debug messages")
	pf.Bool("color", false, "colorize output")
	pf.String("user", "", "author recorded in new commits")
	pf.StringVarP(&app.Dir, "repo", "R", app.Dir, "repository to operate on (default: current directory)")
	pf.StringVar(&app.configFile, "config", "", "settings file (default: <user config dir>/bvc/bvc.yaml)")

	if app.Out != nil {
		root.SetOut(app.Out)
	}
	if app.Err != nil {
		root.SetErr(app.Err)
	}
	for _, sub := range subcommands {
		root.AddCommand(sub(app))
	}
	return root
}

func (app *App) setup(cmd *cobra.Command) error {
	s, err := config.LoadSettings(viper.New(), cmd.Flags(), app.configFile)
	if err != nil {
		return err
	}
	app.Settings = s

	level := s.LogLevel
	switch {
	case app.debug:
		level = "debug"
	case app.verbose:
		level = "info"
	}
	errOut := app.Err
	if errOut == nil {
		errOut = os.Stderr
	}
	if app.Log, err = logging.New(errOut, level); err != nil {
		return err
	}
	if app.FS == nil {
		app.FS = &fs.OSFS{}
	}
	progress.Enabled = app.interactive && s.Progress
	return nil
}

// Color reports whether output should be styled.
func (app *App) Color() bool {
	return app.Settings != nil && app.Settings.Color
}

// Author resolves the author of new commits: --user or BVC_USER first, then
// user.name and user.email from the repository config.
func (app *App) Author() (string, error) {
	if app.Settings != nil && app.Settings.User != "" {
		return app.Settings.User, nil
	}
	ini, err := app.Repo.Settings()
	if err != nil {
		return "", err
	}
	if a := ini.Author(); a != "" {
		return a, nil
	}
	return "unknown", nil
}

// StartDir is where repository discovery begins.
func (app *App) StartDir() (string, error) {
	if app.Dir != "" {
		return app.Dir, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}
	return wd, nil
}

// Printf writes user-facing output.
func (app *App) Printf(format string, a ...any) {
	fmt.Fprintf(app.Out, format, a...)
}

// Println writes user-facing output.
func (app *App) Println(a ...any) {
	fmt.Fprintln(app.Out, a...)
}

// RepoPaths maps command line paths, relative to StartDir, onto
// repository-relative paths.
func (app *App) RepoPaths(args []string) ([]string, error) {
	start, err := app.StartDir()
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(args))
	for _, a := range args {
		if !filepath.IsAbs(a) {
			a = filepath.Join(start, a)
		}
		rel, err := app.Repo.Store.FileCtx.Rel(a)
		if err != nil {
			return nil, err
		}
		out = append(out, rel)
	}
	return out, nil
}
