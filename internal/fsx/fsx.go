package fsx

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

const (
	defaultPerm os.FileMode = 0o644
	// maxSymlinkHops matches the Linux ELOOP limit.
	maxSymlinkHops = 40
)

// PathTypeConflictError means the target exists but is not a regular file.
type PathTypeConflictError struct {
	Path string
	Got  string
}

func (e *PathTypeConflictError) Error() string {
	return fmt.Sprintf("target %q is a %s, not a regular file", e.Path, e.Got)
}

// IsPathTypeConflict reports whether err is a *PathTypeConflictError.
func IsPathTypeConflict(err error) bool {
	var e *PathTypeConflictError
	return errors.As(err, &e)
}

// WriteFileAtomic replaces path with data via a temp file in the same directory and a rename.
//
// The existing file's permission bits are kept; a new file gets 0644.
// If path is a symlink the link is kept and its final target is replaced.
// On failure the temp file is removed and path keeps its previous content.
func WriteFileAtomic(fsys afero.Fs, path string, data []byte) error {
	target, err := resolveSymlinks(fsys, path)
	if err != nil {
		return err
	}
	return writeFileAtomic(fsys, target, data)
}

func writeFileAtomic(fsys afero.Fs, path string, data []byte) error {
	dir, name := filepath.Split(path)
	if dir == "" {
		dir = "."
	}

	perm := defaultPerm
	if fi, err := fsys.Stat(path); err == nil {
		if fi.IsDir() {
			return &PathTypeConflictError{Path: path, Got: "directory"}
		}
		if !fi.Mode().IsRegular() {
			return &PathTypeConflictError{Path: path, Got: fi.Mode().Type().String()}
		}
		perm = fi.Mode().Perm()
	} else if !os.IsNotExist(err) {
		return err
	}

	tmp, err := afero.TempFile(fsys, dir, "."+name+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	renamed := false
	defer func() {
		_ = tmp.Close()
		if !renamed {
			_ = fsys.Remove(tmpName)
		}
	}()

	if err := writeAll(tmp, data); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := fsys.Chmod(tmpName, perm); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := fsys.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace %q: %w", path, err)
	}
	renamed = true
	return nil
}

// resolveSymlinks follows path until it names something that is not a
// symlink, or does not exist. Filesystems without Lstat support are taken
// as having no links.
func resolveSymlinks(fsys afero.Fs, path string) (string, error) {
	lst, ok := fsys.(afero.Lstater)
	if !ok {
		return path, nil
	}
	for hops := 0; ; hops++ {
		fi, lstatCalled, err := lst.LstatIfPossible(path)
		if err != nil || !lstatCalled || fi.Mode()&os.ModeSymlink == 0 {
			return path, nil
		}
		if hops == maxSymlinkHops {
			return "", &PathTypeConflictError{Path: path, Got: "symlink cycle"}
		}
		lr, ok := fsys.(afero.LinkReader)
		if !ok {
			return "", &PathTypeConflictError{Path: path, Got: "symlink"}
		}
		dest, err := lr.ReadlinkIfPossible(path)
		if err != nil {
			return "", fmt.Errorf("read symlink %q: %w", path, err)
		}
		if !filepath.IsAbs(dest) {
			dest = filepath.Join(filepath.Dir(path), dest)
		}
		path = dest
	}
}

// WriteIfChanged writes content to path only when changed is true.
// It reports whether a write happened.
func WriteIfChanged(fsys afero.Fs, path, content string, changed bool) (bool, error) {
	if !changed {
		return false, nil
	}
	if err := WriteFileAtomic(fsys, path, []byte(content)); err != nil {
		return false, err
	}
	return true, nil
}

func writeAll(w io.Writer, b []byte) error {
	for len(b) > 0 {
		n, err := w.Write(b)
		if err != nil {
			return err
		}
		b = b[n:]
	}
	return nil
}
