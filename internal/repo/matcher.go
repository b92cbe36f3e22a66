package repo

import "sort"

// Matcher selects repository-relative paths.
type Matcher interface {
	Match(path string) bool
	// Files lists the explicit paths, or nil when the matcher is open ended.
	// An exact matcher over no paths returns an empty, non-nil list.
	Files() []string
}

type exactMatcher struct {
	files []string
	set   map[string]bool
}

// MatchFiles matches exactly the given paths.
func MatchFiles(paths []string) Matcher {
	m := &exactMatcher{files: []string{}, set: make(map[string]bool, len(paths))}
	for _, p := range paths {
		if !m.set[p] {
			m.set[p] = true
			m.files = append(m.files, p)
		}
	}
	sort.Strings(m.files)
	return m
}

func (m *exactMatcher) Match(path string) bool { return m.set[path] }
func (m *exactMatcher) Files() []string        { return m.files }

type allMatcher struct{}

// MatchAll matches every path.
func MatchAll() Matcher { return allMatcher{} }

func (allMatcher) Match(string) bool { return true }
func (allMatcher) Files() []string   { return nil }
