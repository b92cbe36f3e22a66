package fs

import (
	"errors"
	iofs "io/fs"
	"os"
)

// Hooks used for testing (overridable)
var (
	open       = os.Open
	readFile   = os.ReadFile
	writeFile  = os.WriteFile
	stat       = os.Lstat
	readDir    = os.ReadDir
	remove     = os.Remove
	rename     = os.Rename
	createTemp = os.CreateTemp
	mkdirAll   = os.MkdirAll
	isNotExist = func(err error) bool { return errors.Is(err, iofs.ErrNotExist) }
)

var exists = func(path string) bool {
	_, err := stat(path)
	return err == nil
}

var IsDir = func(path string) bool {
	fi, err := stat(path)
	return err == nil && fi.IsDir()
}

// SetRemove swaps the remove hook and returns a func restoring the previous one.
func SetRemove(f func(string) error) (restore func()) {
	prev := remove
	remove = f
	return func() { remove = prev }
}

// SetWriteFile swaps the writeFile hook and returns a func restoring the previous one.
func SetWriteFile(f func(string, []byte, os.FileMode) error) (restore func()) {
	prev := writeFile
	writeFile = f
	return func() { writeFile = prev }
}
