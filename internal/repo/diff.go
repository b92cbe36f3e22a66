package repo

import (
	"fmt"
	"io"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/keshon/bvc/internal/repo/meta"
)

// WriteUnifiedDiff writes a git-style unified diff of a against b for path.
// A nil side is rendered as /dev/null.
func WriteUnifiedDiff(w io.Writer, path string, a, b []byte) error {
	from, to := "a/"+path, "b/"+path
	if a == nil {
		from = "/dev/null"
	}
	if b == nil {
		to = "/dev/null"
	}
	if _, err := fmt.Fprintf(w, "diff --git a/%s b/%s\n", path, path); err != nil {
		return err
	}
	return difflib.WriteUnifiedDiff(w, difflib.UnifiedDiff{
		A:        splitLines(a),
		B:        splitLines(b),
		FromFile: from,
		ToFile:   to,
		Context:  3,
	})
}

// splitLines keeps line terminators; a missing final newline is added so
// every line renders on its own.
func splitLines(data []byte) []string {
	if len(data) == 0 {
		return nil
	}
	lines := strings.SplitAfter(string(data), "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	} else {
		lines[len(lines)-1] += "\n"
	}
	return lines
}

// Diff writes the changes c records against its first parent, one file at a
// time in path order.
func (r *Repository) Diff(w io.Writer, c *meta.Commit) error {
	for _, p := range c.Files {
		before, hadBefore, err := r.FileContent(c.P1(), p)
		if err != nil {
			return err
		}
		after, hasAfter, err := r.FileContent(c.ID, p)
		if err != nil {
			return err
		}
		if !hadBefore {
			before = nil
		} else if before == nil {
			before = []byte{}
		}
		if !hasAfter {
			after = nil
		} else if after == nil {
			after = []byte{}
		}
		if err := WriteUnifiedDiff(w, p, before, after); err != nil {
			return err
		}
	}
	return nil
}
