package file

import "testing"

func TestMatchPattern(t *testing.T) {
	cases := []struct {
		pattern, path string
		want          bool
	}{
		{"*.log", "debug.log", true},
		{"*.log", "dir/debug.log", false},
		{"**/*.log", "dir/debug.log", true},
		{"**/*.log", "debug.log", true},
		{"build/**", "build/a/b", true},
		{"build/**", "src/build", false},
		{"a/?.txt", "a/b.txt", true},
		{"a/?.txt", "a/bc.txt", false},
		{"docs", "docs", true},
		{"[", "[", false},
	}
	for _, c := range cases {
		if got := matchPattern(c.pattern, c.path); got != c.want {
			t.Errorf("matchPattern(%q, %q) = %v, want %v", c.pattern, c.path, got, c.want)
		}
	}
}
