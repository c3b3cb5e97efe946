package util

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// ErrMissingInput marks a required input file or directory that is absent.
var ErrMissingInput = errors.New("missing required input")

func DirExists(path string) bool {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) || err != nil {
		return false
	}
	return info.IsDir()
}

func FileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// RequireFiles returns ErrMissingInput naming the first path that does not exist.
func RequireFiles(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrMissingInput, p)
		}
	}
	return nil
}

// AtomicFile buffers writes into a temp file next to the target and renames it
// into place on Commit. Close without Commit discards everything.
type AtomicFile struct {
	*bufio.Writer
	f      *os.File
	target string
	done   bool
}

func CreateAtomic(target string) (*AtomicFile, error) {
	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	f, err := os.CreateTemp(dir, "."+filepath.Base(target)+".tmp*")
	if err != nil {
		return nil, err
	}
	return &AtomicFile{Writer: bufio.NewWriter(f), f: f, target: target}, nil
}

func (a *AtomicFile) Commit() error {
	return CommitAll(a)
}

// CommitAll flushes and closes every file before renaming any of them, so a
// failed write leaves all targets untouched. The renames run in argument
// order; if one fails, the files before it are already in place. Temp files
// never outlive a failed commit.
func CommitAll(files ...*AtomicFile) error {
	var pending []*AtomicFile
	for _, a := range files {
		if !a.done {
			a.done = true
			pending = append(pending, a)
		}
	}

	for i, a := range pending {
		if err := a.seal(); err != nil {
			for _, b := range pending[i+1:] {
				b.f.Close()
			}
			removeTemps(pending)
			return err
		}
	}
	for i, a := range pending {
		if err := os.Rename(a.f.Name(), a.target); err != nil {
			removeTemps(pending[i:])
			return err
		}
	}
	return nil
}

func (a *AtomicFile) seal() error {
	if err := a.Flush(); err != nil {
		a.f.Close()
		return err
	}
	if err := a.f.Close(); err != nil {
		return err
	}
	return os.Chmod(a.f.Name(), 0o644)
}

func removeTemps(files []*AtomicFile) {
	for _, a := range files {
		os.Remove(a.f.Name())
	}
}

// Close is safe to defer after Commit.
func (a *AtomicFile) Close() error {
	if a.done {
		return nil
	}
	a.done = true
	a.f.Close()
	return os.Remove(a.f.Name())
}
