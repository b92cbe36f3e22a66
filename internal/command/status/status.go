package status

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/keshon/bvc/internal/command"
	"github.com/keshon/bvc/internal/repo"
	"github.com/keshon/bvc/internal/repo/meta"
)

var (
	addedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	removedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	modifiedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	unknownStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
)

type section struct {
	code  string
	title string
	style lipgloss.Style
	paths []string
}

func sections(st repo.Status) []section {
	return []section{
		{"M", "modified", modifiedStyle, st.Modified},
		{"A", "added", addedStyle, st.Added},
		{"R", "removed", removedStyle, st.Removed},
		{"!", "missing", removedStyle, st.Missing},
		{"?", "unknown", unknownStyle, st.Unknown},
	}
}

func New(app *command.App) *cobra.Command {
	var short bool

	cmd := &cobra.Command{
		Use:     "status",
		Aliases: []string{"st"},
		Short:   "Show working tree status",
		Long: `Show the working tree status against its parent commit.

Codes in short output:
  M  modified    A  added    R  removed
  !  missing     ?  unknown`,
		Args: cobra.NoArgs,
		RunE: app.Run(func(cmd *cobra.Command, args []string) error {
			r := app.Repo
			st, err := r.Status()
			if err != nil {
				return err
			}

			render := func(s lipgloss.Style, text string) string {
				if app.Color() {
					return s.Render(text)
				}
				return text
			}

			if short {
				for _, sec := range sections(st) {
					for _, p := range sec.paths {
						app.Println(render(sec.style, sec.code+" "+p))
					}
				}
				return nil
			}

			if err := printHead(app, r); err != nil {
				return err
			}
			if st.Clean() {
				app.Println("nothing to commit, working tree clean")
				return nil
			}
			for _, sec := range sections(st) {
				for _, p := range sec.paths {
					app.Printf("\t%s\n", render(sec.style, sec.title+":   "+p))
				}
			}
			return nil
		}),
	}

	cmd.Flags().BoolVarP(&short, "short", "s", false, "show short summary")
	return cmd
}

func printHead(app *command.App, r *repo.Repository) error {
	ref, err := r.Meta.GetHeadRef()
	if err != nil {
		return err
	}
	p1, p2, err := r.Meta.Parents()
	if err != nil {
		return err
	}
	if ref.IsDetached() {
		app.Printf("HEAD detached at %s\n", meta.ShortID(p1))
	} else {
		app.Printf("On branch %s\n", ref.Branch())
	}
	if p2 != "" {
		app.Printf("Merging %s\n", meta.ShortID(p2))
	}
	app.Println()
	return nil
}
