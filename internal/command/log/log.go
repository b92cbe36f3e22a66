package log

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/keshon/bvc/internal/command"
	"github.com/keshon/bvc/internal/repo/meta"
)

var idStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))

func New(app *command.App) *cobra.Command {
	var (
		oneline bool
		limit   int
	)

	cmd := &cobra.Command{
		Use:     "log",
		Aliases: []string{"commits"},
		Short:   "Show commit history from HEAD",
		Long: `Show commit logs, following first parents from HEAD.

Examples:
  bvc log
  bvc log --oneline -n 10`,
		Args: cobra.NoArgs,
		RunE: app.Run(func(cmd *cobra.Command, args []string) error {
			commits, err := app.Repo.Log(limit)
			if err != nil {
				return err
			}
			if len(commits) == 0 {
				app.Println("No commits found")
				return nil
			}

			color := func(id string) string {
				if app.Color() {
					return idStyle.Render(id)
				}
				return id
			}
			for _, c := range commits {
				if oneline {
					app.Printf("%s %s\n", color(meta.ShortID(c.ID)), firstLine(c.Message))
					continue
				}
				app.Printf("commit %s\n", color(c.ID))
				app.Printf("Author: %s\n", c.Author)
				app.Printf("Date:   %s\n\n", c.Timestamp)
				app.Printf("    %s\n\n", strings.ReplaceAll(strings.TrimRight(c.Message, "\n"), "\n", "\n    "))
			}
			return nil
		}),
	}

	cmd.Flags().BoolVar(&oneline, "oneline", false, "show each commit on one line")
	cmd.Flags().IntVarP(&limit, "max-count", "n", 0, "limit the number of commits")
	return cmd
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
