package adapter

import (
	"io/fs"
	"os"
)

// FileSystem defines an interface for file system operations to enable mocking.
// It covers the staged-upload lifecycle: the transport layer writes the file,
// the submitter reads it back and removes it when the request settles.
//
//go:generate mockgen -source=filesystem.go -destination=../mocks/filesystem.go -package=mocks -mock_names=FileSystem=MockFileSystem
type FileSystem interface {
	// ReadFile reads the named file and returns its contents
	ReadFile(name string) ([]byte, error)

	// Remove removes the named file
	Remove(name string) error

	// MkdirAll creates the named directory along with any missing parents
	MkdirAll(path string, perm fs.FileMode) error
}

// RealFileSystem implements FileSystem using the standard os package
type RealFileSystem struct{}

// NewFileSystem creates a new real file system
func NewFileSystem() FileSystem {
	return &RealFileSystem{}
}

// ReadFile reads the named file and returns its contents
func (f *RealFileSystem) ReadFile(name string) ([]byte, error) {
	return os.ReadFile(name) //nolint:gosec,G304
}

// Remove removes the named file
func (f *RealFileSystem) Remove(name string) error {
	return os.Remove(name)
}

// MkdirAll creates the named directory along with any missing parents
func (f *RealFileSystem) MkdirAll(path string, perm fs.FileMode) error {
	return os.MkdirAll(path, perm)
}
