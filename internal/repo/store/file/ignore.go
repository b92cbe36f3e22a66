package file

import (
	"bufio"
	"bytes"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/keshon/bvc/internal/config"
	"github.com/keshon/bvc/internal/fs"
)

// Ignore decides which working tree paths scans skip: the repository
// directory plus the patterns of .bvc-ignore.
type Ignore struct {
	static  map[string]bool
	pattern []string
}

// NewIgnore loads defaults and the .bvc-ignore file at the working tree root.
func NewIgnore(fsys fs.FS, workingTreeDir string) *Ignore {
	m := &Ignore{static: make(map[string]bool)}

	for _, s := range config.DefaultIgnoredFiles {
		m.static[filepath.ToSlash(filepath.Clean(s))] = true
	}

	data, err := fsys.ReadFile(filepath.Join(workingTreeDir, config.IgnoredFilesFile))
	if err == nil {
		sc := bufio.NewScanner(bytes.NewReader(data))
		for sc.Scan() {
			line := strings.TrimSpace(sc.Text())
			if line == "" || strings.HasPrefix(line, "#") || !doublestar.ValidatePattern(filepath.ToSlash(line)) {
				continue
			}
			m.pattern = append(m.pattern, line)
		}
	}

	return m
}

// Match returns true if the repository-relative path should be ignored
func (m *Ignore) Match(path string) bool {
	clean := filepath.ToSlash(filepath.Clean(path))

	if m.static[clean] {
		return true
	}

	for _, pat := range m.pattern {
		if matchPattern(pat, clean) {
			return true
		}
	}

	return false
}

// matchPattern matches a repository-relative slash path against a
// .bvc-ignore pattern; "**" spans directories.
func matchPattern(pattern, path string) bool {
	ok, err := doublestar.Match(filepath.ToSlash(pattern), path)
	return err == nil && ok
}
