package fs

import (
	"io"
	"os"
)

// File is an open store, segment or staged download file.
//
// Segment builds read committed records back through ReaderAt and seek
// to rewind a rolled-back transaction.
type File interface {
	io.ReadWriteCloser
	io.ReaderAt
	io.Seeker
	Sync() error
	Stat() (os.FileInfo, error)
}

// FileSystem is the set of directory and file operations a cache needs:
// staging and publishing split directories, appending segments, and
// reading corpus files. Tests swap in a FaultyFS.
type FileSystem interface {
	OpenFile(name string, flag int, perm os.FileMode) (File, error)
	Remove(name string) error
	// RemoveAll clears a split directory before a rebuild or refetch.
	RemoveAll(path string) error
	// Rename publishes a finished segment or a fetched split.
	Rename(oldpath, newpath string) error
	Stat(name string) (os.FileInfo, error)
	MkdirAll(path string, perm os.FileMode) error
	// MkdirTemp creates the staging directory a fetch downloads into.
	MkdirTemp(dir, pattern string) (string, error)
	ReadDir(name string) ([]os.DirEntry, error)
	// Truncate drops the records of a rolled-back segment transaction.
	Truncate(name string, size int64) error
}

// LocalFS passes every call through to package os.
type LocalFS struct{}

func (LocalFS) OpenFile(name string, flag int, perm os.FileMode) (File, error) {
	return os.OpenFile(name, flag, perm)
}

func (LocalFS) Remove(name string) error              { return os.Remove(name) }
func (LocalFS) RemoveAll(path string) error           { return os.RemoveAll(path) }
func (LocalFS) Rename(oldpath, newpath string) error  { return os.Rename(oldpath, newpath) }
func (LocalFS) Stat(name string) (os.FileInfo, error) { return os.Stat(name) }
func (LocalFS) MkdirAll(path string, perm os.FileMode) error {
	return os.MkdirAll(path, perm)
}
func (LocalFS) MkdirTemp(dir, pattern string) (string, error) { return os.MkdirTemp(dir, pattern) }
func (LocalFS) ReadDir(name string) ([]os.DirEntry, error)    { return os.ReadDir(name) }
func (LocalFS) Truncate(name string, size int64) error        { return os.Truncate(name, size) }

// Default is used by builders, datasets and transfers unless
// WithFileSystem overrides it.
var Default FileSystem = LocalFS{}

// Exists reports whether a split directory or store file is present.
// Errors other than "not exist" count as present, so a build never
// replaces a path it cannot inspect.
func Exists(fsys FileSystem, path string) bool {
	_, err := fsys.Stat(path)
	return err == nil || !os.IsNotExist(err)
}
