// Package snapshot implements "bvc snapshot" and its subcommands.
package snapshot

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/keshon/bvc/internal/command"
	"github.com/keshon/bvc/internal/repo/meta"
	"github.com/keshon/bvc/internal/snapshot"
)

var (
	idStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	authorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	dateStyle   = lipgloss.NewStyle().Faint(true)
)

func New(app *command.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Save and restore the full state of the working copy",
		Long: `A snapshot records everything about the working copy in a single
commit: tracked changes, files missing from disk, untracked files and the
state files of an interrupted merge or rebase. Creating one leaves the
current branch where it is; checking one out brings the working copy back.`,
	}
	cmd.AddCommand(
		newCreate(app),
		newShow(app),
		newCheckout(app),
		newList(app),
		newHide(app),
		newUnhide(app),
	)
	return cmd
}

func revision(args []string) (string, error) {
	if len(args) == 0 || args[0] == "" {
		return "", command.ErrNoRevision
	}
	return args[0], nil
}

func newCreate(app *command.App) *cobra.Command {
	var (
		message string
		clean   bool
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Snapshot the working copy",
		Long: `Record the working copy as a new snapshot commit. Nothing is created
when there is nothing to record. With --clean the working copy is reset
to its parent afterwards: tracked changes are reverted and untracked and
state files are removed.`,
		Args: cobra.NoArgs,
		RunE: app.Run(func(cmd *cobra.Command, args []string) error {
			author, err := app.Author()
			if err != nil {
				return err
			}
			res, err := snapshot.NewBuilder(app.Repo, app.Log).Create(snapshot.CreateOptions{
				Message: message,
				Author:  author,
				Clean:   clean,
			})
			if err != nil {
				return err
			}
			if res == nil {
				app.Println("nothing changed")
				return nil
			}
			app.Printf("snapshot %s created\n", res.CommitID)
			return nil
		}),
	}

	cmd.Flags().StringVarP(&message, "message", "m", "", "snapshot message (default: snapshot.message from the repository config)")
	cmd.Flags().BoolVar(&clean, "clean", false, "reset the working copy after creating the snapshot")
	return cmd
}

func newShow(app *command.App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <rev>",
		Short: "Show a snapshot with its untracked changes",
		Args:  cobra.MaximumNArgs(1),
		RunE: app.Run(func(cmd *cobra.Command, args []string) error {
			rev, err := revision(args)
			if err != nil {
				return err
			}
			return snapshot.NewRenderer(app.Repo, app.Out, app.Color()).Show(rev)
		}),
	}
}

func newCheckout(app *command.App) *cobra.Command {
	var clean bool

	cmd := &cobra.Command{
		Use:   "checkout <rev>",
		Short: "Restore the working copy from a snapshot",
		Long: `Bring the working copy into the state recorded by a snapshot. The
working copy must be clean unless --clean is given; then local changes
are discarded and restored files replace existing ones.`,
		Args: cobra.MaximumNArgs(1),
		RunE: app.Run(func(cmd *cobra.Command, args []string) error {
			rev, err := revision(args)
			if err != nil {
				return err
			}
			_, err = snapshot.NewRestorer(app.Repo, app.Log).Checkout(rev, snapshot.CheckoutOptions{
				Clean: clean,
				Started: func(id string) {
					app.Printf("will checkout on %s\n", id)
				},
			})
			if err != nil {
				return err
			}
			app.Println("checkout complete")
			return nil
		}),
	}

	cmd.Flags().BoolVarP(&clean, "clean", "C", false, "discard local changes and overwrite existing files")
	return cmd
}

func newList(app *command.App) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List visible snapshots, newest first",
		Args:    cobra.NoArgs,
		RunE: app.Run(func(cmd *cobra.Command, args []string) error {
			entries, err := snapshot.NewRegistry(app.Repo, app.Log).List()
			if err != nil {
				return err
			}
			sort.SliceStable(entries, func(i, j int) bool {
				if entries[i].Date != entries[j].Date {
					return entries[i].Date > entries[j].Date
				}
				return entries[i].ID < entries[j].ID
			})

			if asJSON {
				enc := json.NewEncoder(app.Out)
				enc.SetIndent("", "  ")
				return enc.Encode(entries)
			}

			style := func(s lipgloss.Style, text string) string {
				if app.Color() {
					return s.Render(text)
				}
				return text
			}
			for _, e := range entries {
				app.Printf("%s %s %s %s\n",
					style(idStyle, meta.ShortID(e.ID)),
					style(dateStyle, e.Date),
					style(authorStyle, e.Author),
					firstLine(e.Message),
				)
			}
			return nil
		}),
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print entries as JSON")
	return cmd
}

func newHide(app *command.App) *cobra.Command {
	return &cobra.Command{
		Use:   "hide <rev>",
		Short: "Remove a snapshot from the list",
		Long:  "Remove a snapshot from the list. The snapshot commit itself is kept and can still be shown, checked out or unhidden.",
		Args:  cobra.MaximumNArgs(1),
		RunE: app.Run(func(cmd *cobra.Command, args []string) error {
			rev, err := revision(args)
			if err != nil {
				return err
			}
			c, err := snapshot.Resolve(app.Repo, rev)
			if err != nil {
				return err
			}
			return snapshot.NewRegistry(app.Repo, app.Log).Hide(c.ID)
		}),
	}
}

func newUnhide(app *command.App) *cobra.Command {
	return &cobra.Command{
		Use:   "unhide <rev>",
		Short: "Put a hidden snapshot back in the list",
		Args:  cobra.MaximumNArgs(1),
		RunE: app.Run(func(cmd *cobra.Command, args []string) error {
			rev, err := revision(args)
			if err != nil {
				return err
			}
			c, err := snapshot.Resolve(app.Repo, rev)
			if err != nil {
				return err
			}
			return snapshot.NewRegistry(app.Repo, app.Log).Unhide(c.ID)
		}),
	}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
