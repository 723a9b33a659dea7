package adapter

import (
	"io/fs"
	"os"
)

// FileSystem defines an interface for file system operations to enable mocking
//
//go:generate mockgen -source=filesystem.go -destination=../mocks/filesystem.go -package=mocks -mock_names=FileSystem=MockFileSystem
type FileSystem interface {
	// ReadFile reads the named file; a missing file reports an error satisfying errors.Is(err, fs.ErrNotExist)
	ReadFile(name string) ([]byte, error)

	// WriteFile writes data to the named file, creating it if necessary
	WriteFile(name string, data []byte, perm fs.FileMode) error

	// MkdirAll creates a directory along with any necessary parents
	MkdirAll(path string, perm fs.FileMode) error

	// Remove removes the named file or directory
	Remove(name string) error
}

// RealFileSystem implements FileSystem using the standard os package
type RealFileSystem struct{}

// NewFileSystem creates a new real file system
func NewFileSystem() FileSystem {
	return &RealFileSystem{}
}

// ReadFile reads the named file
func (fs *RealFileSystem) ReadFile(name string) ([]byte, error) {
	return os.ReadFile(name) //nolint:gosec,G304
}

// WriteFile writes data to the named file
func (fs *RealFileSystem) WriteFile(name string, data []byte, perm fs.FileMode) error {
	return os.WriteFile(name, data, perm) //nolint:gosec,G306
}

// MkdirAll creates a directory along with any necessary parents
func (fs *RealFileSystem) MkdirAll(path string, perm fs.FileMode) error {
	return os.MkdirAll(path, perm)
}

// Remove removes the named file or directory
func (fs *RealFileSystem) Remove(name string) error {
	return os.Remove(name)
}
