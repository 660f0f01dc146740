// Package shapefile checks, renames and packs uploaded ESRI shapefile sets.
package shapefile

import (
	"archive/zip"
	"bytes"
	"path/filepath"
	"slices"
	"strings"

	"github.com/pkg/errors"
)

// RequiredExtensions are the companion files GeoServer needs to publish a shapefile.
var RequiredExtensions = []string{".shp", ".shx", ".prj", ".dbf"} //nolint:gochecknoglobals

// File is one uploaded member of a shapefile set.
type File struct {
	Name    string
	Content []byte
}

// MissingExtensions returns the required extensions not found among names, in RequiredExtensions order.
// Matching is case-sensitive.
func MissingExtensions(names []string) []string {
	missing := slices.Clone(RequiredExtensions)

	for _, name := range names {
		ext := filepath.Ext(name)
		if i := slices.Index(missing, ext); i >= 0 {
			missing = slices.Delete(missing, i, i+1)
		}
	}

	return missing
}

// Names returns the file names of files.
func Names(files []File) []string {
	out := make([]string, 0, len(files))
	for _, f := range files {
		out = append(out, f.Name)
	}

	return out
}

// Rename replaces the base name of every file by base and keeps its extension.
func Rename(files []File, base string) []File {
	out := make([]File, 0, len(files))
	for _, f := range files {
		out = append(out, File{Name: base + filepath.Ext(f.Name), Content: f.Content})
	}

	return out
}

// Zip packs files into a flat zip archive.
func Zip(files []File) ([]byte, error) {
	var buf bytes.Buffer

	zw := zip.NewWriter(&buf)

	for _, f := range files {
		w, err := zw.Create(filepath.Base(f.Name))
		if err != nil {
			return nil, errors.Wrap(err, "can't add "+f.Name)
		}

		if _, err = w.Write(f.Content); err != nil {
			return nil, errors.Wrap(err, "can't write "+f.Name)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, errors.Wrap(err, "can't close archive")
	}

	return buf.Bytes(), nil
}

// JoinExtensions formats extensions for error messages, e.g. ".shx, .dbf".
func JoinExtensions(extensions []string) string {
	return strings.Join(extensions, ", ")
}
