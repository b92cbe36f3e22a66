package snapshot

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/charmbracelet/lipgloss"

	"github.com/keshon/bvc/internal/repo"
	"github.com/keshon/bvc/internal/repo/meta"
)

// ExtraSections appends rendering after the tracked diff of c.
type ExtraSections func(w io.Writer, c *meta.Commit) error

// StateAnnotation names the unfinished operation c was taken in, or "".
type StateAnnotation func(c *meta.Commit) (string, error)

var (
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Bold(true)
	stateStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
)

// Renderer prints commits, optionally with snapshot augmentation.
type Renderer struct {
	Repo  *repo.Repository
	Store ContentStore
	Out   io.Writer
	Color bool
}

func NewRenderer(r *repo.Repository, out io.Writer, color bool) *Renderer {
	return &Renderer{Repo: r, Store: r.Store.BlockCtx, Out: out, Color: color}
}

func (rd *Renderer) style(s lipgloss.Style, text string) string {
	if !rd.Color {
		return text
	}
	return s.Render(text)
}

// Summary writes the commit header, then the state annotation if any.
func (rd *Renderer) Summary(c *meta.Commit, annotate StateAnnotation) error {
	var b strings.Builder
	fmt.Fprintln(&b, rd.style(headerStyle, "commit "+c.ID))
	for _, p := range c.Parents {
		fmt.Fprintf(&b, "parent %s\n", p)
	}
	fmt.Fprintf(&b, "author: %s\n", c.Author)
	fmt.Fprintf(&b, "date:   %s\n\n", c.Timestamp)
	for _, line := range strings.Split(strings.TrimRight(c.Message, "\n"), "\n") {
		fmt.Fprintf(&b, "    %s\n", line)
	}
	fmt.Fprintln(&b)

	if annotate != nil {
		state, err := annotate(c)
		if err != nil {
			return err
		}
		if state != "" {
			fmt.Fprintln(&b, rd.style(stateStyle, fmt.Sprintf("The snapshot is in an unfinished *%s* state.", state)))
		}
	}
	_, err := io.WriteString(rd.Out, b.String())
	return err
}

// Diff writes c's tracked diff against its first parent followed by extra.
func (rd *Renderer) Diff(c *meta.Commit, extra ExtraSections) error {
	var buf bytes.Buffer
	if err := rd.Repo.Diff(&buf, c); err != nil {
		return err
	}
	if extra != nil {
		if err := extra(&buf, c); err != nil {
			return err
		}
	}
	if rd.Color {
		return quick.Highlight(rd.Out, buf.String(), "diff", "terminal256", "monokai")
	}
	_, err := rd.Out.Write(buf.Bytes())
	return err
}

// SnapshotSections lists the untracked files of a snapshot as additions and
// its missing files as removals of their p1 content.
func (rd *Renderer) SnapshotSections(w io.Writer, c *meta.Commit) error {
	id := c.Extra[MetadataKey]
	if id == "" {
		return nil
	}
	md, err := Load(rd.Store, id)
	if err != nil {
		return err
	}

	if _, err := io.WriteString(w, "\n===\nUntracked changes:\n===\n"); err != nil {
		return err
	}
	for _, f := range md.Unknown {
		fmt.Fprintf(w, "? %s\n", f.Path)
		if err := repo.WriteUnifiedDiff(w, f.Path, nil, f.Content); err != nil {
			return err
		}
	}
	for _, f := range md.Deleted {
		fmt.Fprintf(w, "! %s\n", f.Path)
		before, _, err := rd.Repo.FileContent(c.P1(), f.Path)
		if err != nil {
			return err
		}
		if before == nil {
			before = []byte{}
		}
		if err := repo.WriteUnifiedDiff(w, f.Path, before, nil); err != nil {
			return err
		}
	}
	return nil
}

// SnapshotState reports "rebase" when a rebase marker was captured and
// "merge" for two-parent snapshots.
func (rd *Renderer) SnapshotState(c *meta.Commit) (string, error) {
	id, ok := c.Extra[MetadataKey]
	if !ok {
		return "", nil
	}
	md, err := Load(rd.Store, id)
	if err != nil {
		return "", err
	}
	if md.HasLocalState("rebasestate") {
		return "rebase", nil
	}
	if len(c.Parents) > 1 {
		return "merge", nil
	}
	return "", nil
}

// Show prints a snapshot with its synthetic sections and state.
func (rd *Renderer) Show(rev string) error {
	c, err := Resolve(rd.Repo, rev)
	if err != nil {
		return err
	}
	if err := rd.Summary(c, rd.SnapshotState); err != nil {
		return err
	}
	return rd.Diff(c, rd.SnapshotSections)
}
