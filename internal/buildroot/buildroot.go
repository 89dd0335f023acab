package buildroot

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

const (
	specsDir   = "SPECS"
	sourcesDir = "SOURCES"
	lockName   = ".rpmkit.lock"

	dirMode  os.FileMode = 0o755
	fileMode os.FileMode = 0o644
)

// ErrLocked indicates another run holds the build root.
var ErrLocked = errors.New("build root is locked by another run")

// Root is a prepared rpmbuild directory tree holding the SPECS and
// SOURCES subdirectories. The root is held under an advisory lock for
// the lifetime of the run so concurrent invocations cannot interleave
// writes to the same tree.
type Root struct {
	path string
	lock *os.File
}

// Prepare creates the build root and its SPECS and SOURCES
// subdirectories if absent, then takes the advisory lock. Existing
// directories and their contents are left untouched.
func Prepare(path string) (*Root, error) {
	for _, dir := range []string{path, filepath.Join(path, specsDir), filepath.Join(path, sourcesDir)} {
		if err := os.MkdirAll(dir, dirMode); err != nil {
			return nil, fmt.Errorf("prepare build root: %w", err)
		}
	}

	lock, err := os.OpenFile(filepath.Join(path, lockName), os.O_CREATE|os.O_RDWR, fileMode)
	if err != nil {
		return nil, fmt.Errorf("open build root lock: %w", err)
	}
	if err := unix.Flock(int(lock.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		lock.Close()
		if errors.Is(err, unix.EWOULDBLOCK) {
			return nil, fmt.Errorf("%w: %s", ErrLocked, path)
		}
		return nil, fmt.Errorf("lock build root: %w", err)
	}

	return &Root{path: path, lock: lock}, nil
}

// Close releases the advisory lock. The directory tree and everything
// written into it stay in place.
func (r *Root) Close() error {
	if r.lock == nil {
		return nil
	}
	err := r.lock.Close()
	r.lock = nil
	return err
}

// Path returns the build root path as given.
func (r *Root) Path() string {
	return r.path
}

// Abs returns the absolute build root path, as required by rpmbuild's
// _topdir definition and docker bind mounts.
func (r *Root) Abs() (string, error) {
	return filepath.Abs(r.path)
}

// SpecPath returns the path of the finalized spec file for a package.
func (r *Root) SpecPath(name string) string {
	return filepath.Join(r.path, specsDir, name+".spec")
}

// SourcePath returns the path of a file in the SOURCES directory.
func (r *Root) SourcePath(file string) string {
	return filepath.Join(r.path, sourcesDir, file)
}

// WriteSpec writes the finalized spec text for a package.
func (r *Root) WriteSpec(name, text string) error {
	if err := os.WriteFile(r.SpecPath(name), []byte(text), fileMode); err != nil {
		return fmt.Errorf("write spec file: %w", err)
	}
	return nil
}

// StagePatches copies each patch file into SOURCES, preserving the
// source file's permission bits and modification time. A missing patch
// fails the run.
func (r *Root) StagePatches(patches []string) error {
	for _, patch := range patches {
		if err := r.stagePatch(patch); err != nil {
			return fmt.Errorf("stage patch %s: %w", patch, err)
		}
	}
	return nil
}

func (r *Root) stagePatch(patch string) error {
	info, err := os.Stat(patch)
	if err != nil {
		return err
	}

	src, err := os.Open(patch)
	if err != nil {
		return err
	}
	defer src.Close()

	dest := r.SourcePath(filepath.Base(patch))
	dst, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return err
	}
	if err := dst.Close(); err != nil {
		return err
	}

	// O_CREATE modes pass through the umask; set the bits explicitly.
	if err := os.Chmod(dest, info.Mode().Perm()); err != nil {
		return err
	}
	return os.Chtimes(dest, info.ModTime(), info.ModTime())
}
