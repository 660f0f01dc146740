// Package kml stores the per watershed KML layer files served to the map.
package kml

import (
	"errors"
	"os"
	"path"
	"path/filepath"

	"github.com/ci-water/adhydro-streamflow/internal/db/models"
)

// URLPrefix is the route the KML directory is served under.
const URLPrefix = "/static/kml"

var (
	// ErrUnsafeName is returned for folder or file names that would leave the KML directory.
	ErrUnsafeName = errors.New("kml: unsafe folder or file name")
	// ErrFolderNotEmpty is returned by RemoveFolder while other files remain.
	ErrFolderNotEmpty = errors.New("kml: folder not empty")
)

// FileName returns the KML file name of a layer kind, e.g. "el_banco-drainage_line.kml".
func FileName(fileName string, kind models.LayerKind) string {
	return fileName + "-" + string(kind) + ".kml"
}

// Store keeps KML files below Root, one folder per watershed.
type Store struct {
	Root string
}

// NewStore returns a store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{Root: dir}
}

func (s *Store) path(parts ...string) (string, error) {
	for _, p := range parts {
		if p == "" || p == "." || p == ".." || filepath.Base(p) != p {
			return "", ErrUnsafeName
		}
	}

	return filepath.Join(append([]string{s.Root}, parts...)...), nil
}

// Save writes data as folder/name, replacing an existing file and creating the folder.
func (s *Store) Save(folder, name string, data []byte) error {
	dir, err := s.path(folder)
	if err != nil {
		return err
	}

	file, err := s.path(folder, name)
	if err != nil {
		return err
	}

	if err = os.Remove(file); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err //nolint:wrapcheck
	}

	if err = os.MkdirAll(dir, 0o755); err != nil { //nolint:mnd
		return err //nolint:wrapcheck
	}

	return os.WriteFile(file, data, 0o644) //nolint:wrapcheck,mnd,gosec
}

// Remove deletes folder/name.
func (s *Store) Remove(folder, name string) error {
	file, err := s.path(folder, name)
	if err != nil {
		return err
	}

	return os.Remove(file) //nolint:wrapcheck
}

// Move renames oldFolder/oldName to newFolder/newName, creating newFolder.
func (s *Store) Move(oldFolder, oldName, newFolder, newName string) error {
	from, err := s.path(oldFolder, oldName)
	if err != nil {
		return err
	}

	dir, err := s.path(newFolder)
	if err != nil {
		return err
	}

	to, err := s.path(newFolder, newName)
	if err != nil {
		return err
	}

	if err = os.MkdirAll(dir, 0o755); err != nil { //nolint:mnd
		return err //nolint:wrapcheck
	}

	return os.Rename(from, to) //nolint:wrapcheck
}

// MkdirFolder creates folder if needed.
func (s *Store) MkdirFolder(folder string) error {
	dir, err := s.path(folder)
	if err != nil {
		return err
	}

	return os.MkdirAll(dir, 0o755) //nolint:wrapcheck,mnd
}

// RemoveFolder deletes folder if it is empty. Watersheds sharing the folder keep it alive.
func (s *Store) RemoveFolder(folder string) error {
	dir, err := s.path(folder)
	if err != nil {
		return err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return err //nolint:wrapcheck
	}

	if len(entries) > 0 {
		return ErrFolderNotEmpty
	}

	return os.Remove(dir) //nolint:wrapcheck
}

// Exists reports whether folder/name is a regular file.
func (s *Store) Exists(folder, name string) bool {
	file, err := s.path(folder, name)
	if err != nil {
		return false
	}

	info, err := os.Stat(file)

	return err == nil && info.Mode().IsRegular()
}

// URL returns the public URL of folder/name.
func (s *Store) URL(folder, name string) string {
	return path.Join(URLPrefix, folder, name)
}
