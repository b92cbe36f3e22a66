package config

import (
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/ini.v1"

	"github.com/keshon/bvc/internal/fs"
	"github.com/keshon/bvc/internal/util"
)

// DefaultRepoIni is written by init.
const DefaultRepoIni = `[core]
hash = xxh3

[snapshot]
message = snapshot
`

// RepoIni is the per-repository ini file stored at .bvc/config.
type RepoIni struct {
	fsys fs.FS
	path string
	file *ini.File
}

// LoadRepoIni reads the ini file at path; a missing file yields an empty config.
func LoadRepoIni(fsys fs.FS, path string) (*RepoIni, error) {
	data, err := fsys.ReadFile(path)
	if err != nil {
		if fsys.IsNotExist(err) {
			return &RepoIni{fsys: fsys, path: path, file: ini.Empty()}, nil
		}
		return nil, fmt.Errorf("read config %q: %w", path, err)
	}
	f, err := ini.Load(data)
	if err != nil {
		return nil, fmt.Errorf("parse config %q: %w", path, err)
	}
	return &RepoIni{fsys: fsys, path: path, file: f}, nil
}

func splitKey(key string) (string, string, error) {
	parts := strings.SplitN(key, ".", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid config key: %s", key)
	}
	return parts[0], parts[1], nil
}

// Get returns the value stored under "section.name".
func (r *RepoIni) Get(key string) (string, error) {
	section, name, err := splitKey(key)
	if err != nil {
		return "", err
	}
	if !r.file.Section(section).HasKey(name) {
		return "", fmt.Errorf("config key not found: %s", key)
	}
	return r.file.Section(section).Key(name).String(), nil
}

// Set stores value under "section.name"; call Save to persist it.
func (r *RepoIni) Set(key, value string) error {
	section, name, err := splitKey(key)
	if err != nil {
		return err
	}
	r.file.Section(section).Key(name).SetValue(value)
	return nil
}

// Save writes the ini file atomically.
func (r *RepoIni) Save() error {
	var buf bytes.Buffer
	if _, err := r.file.WriteTo(&buf); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return util.WriteFileAtomic(r.fsys, r.path, buf.Bytes())
}

// Author formats user.name and user.email as "name <email>".
func (r *RepoIni) Author() string {
	user := r.file.Section("user")
	name := user.Key("name").String()
	email := user.Key("email").String()
	switch {
	case name != "" && email != "":
		return fmt.Sprintf("%s <%s>", name, email)
	case name != "":
		return name
	default:
		return email
	}
}

// SnapshotMessage is the default message for snapshot commits.
func (r *RepoIni) SnapshotMessage() string {
	msg := r.file.Section("snapshot").Key("message").String()
	if msg == "" {
		return DefaultSnapshotMessage
	}
	return msg
}
