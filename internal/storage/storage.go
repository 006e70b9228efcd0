// Package storage resolves and manages uploaded resource files under the
// host's file storage root. A resource id is sharded into
// <root>/resources/<id[0:3]>/<id[3:6]>/<id[6:]>.
package storage

import (
	"io"
	"os"
	"path/filepath"

	"github.com/agentstation/searchterms/pkg/constants"
	"github.com/agentstation/searchterms/pkg/errors"
)

// minIDLength is the shortest id that leaves a non-empty file name.
const minIDLength = 7

// Layout locates resource files under a storage root.
type Layout struct {
	Root string
}

// New returns a layout rooted at root.
func New(root string) Layout {
	return Layout{Root: root}
}

// FromEnv returns a layout rooted at $CKAN_STORAGE_PATH.
func FromEnv() (Layout, error) {
	root := os.Getenv(constants.StorageEnvVar)
	if root == "" {
		return Layout{}, errors.NewConfigError("storage", constants.StorageEnvVar+" is not set", nil)
	}
	return New(root), nil
}

// Dir returns the directory holding a resource's file.
func (l Layout) Dir(resourceID string) (string, error) {
	if err := validateID(resourceID); err != nil {
		return "", err
	}
	return filepath.Join(l.Root, constants.ResourcesDir, resourceID[0:3], resourceID[3:6]), nil
}

// Path returns the file path of a resource.
func (l Layout) Path(resourceID string) (string, error) {
	dir, err := l.Dir(resourceID)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, resourceID[6:]), nil
}

// Exists reports whether a resource has a file.
func (l Layout) Exists(resourceID string) bool {
	path, err := l.Path(resourceID)
	if err != nil {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// Open opens a resource's file for reading. A missing file is reported as
// a not found error.
func (l Layout) Open(resourceID string) (*os.File, error) {
	path, err := l.Path(resourceID)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, &errors.IOError{Operation: "open", Path: path, Message: "file does not exist", Err: errors.NewNotFoundError("resource file", resourceID)}
	}
	if err != nil {
		return nil, errors.WrapIO("open", path, err)
	}
	return f, nil
}

// Write stores r as a resource's file, replacing any previous file.
func (l Layout) Write(resourceID string, r io.Reader) (int64, error) {
	dir, err := l.Dir(resourceID)
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(dir, constants.DirPermissions); err != nil {
		return 0, errors.WrapIO("create", dir, err)
	}
	path := filepath.Join(dir, resourceID[6:])
	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return 0, errors.WrapIO("create", dir, err)
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, r)
	if err != nil {
		_ = tmp.Close()
		return n, errors.WrapIO("write", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return n, errors.WrapIO("close", tmp.Name(), err)
	}
	if err := os.Chmod(tmp.Name(), constants.FilePermissions); err != nil {
		return n, errors.WrapIO("chmod", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return n, errors.WrapIO("rename", path, err)
	}
	return n, nil
}

// Remove deletes a resource's file. A missing file is not an error.
func (l Layout) Remove(resourceID string) error {
	path, err := l.Path(resourceID)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return errors.WrapIO("delete", path, err)
	}
	return nil
}

func validateID(id string) error {
	if len(id) < minIDLength {
		return errors.NewValidationError("resource_id", id, "too short to locate a file")
	}
	return nil
}
