package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Album collects matched photos into a named directory under the library
// root, mirroring the album side effect of desktop photo managers.
type Album struct {
	Name  string
	dir   string
	added int
}

// NewAlbum ensures the album directory exists and returns a handle to it.
func NewAlbum(libraryRoot, name string) (*Album, error) {
	dir := filepath.Join(libraryRoot, name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create album directory %s: %w", dir, err)
	}
	return &Album{Name: name, dir: dir}, nil
}

// Add copies a photo into the album. Colliding basenames get a numeric
// suffix so nothing is overwritten.
func (a *Album) Add(path string) error {
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	dest := filepath.Join(a.dir, base)
	for counter := 1; ; counter++ {
		_, err := os.Stat(dest)
		if os.IsNotExist(err) {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to probe album path %s: %w", dest, err)
		}
		dest = filepath.Join(a.dir, fmt.Sprintf("%s_%d%s", stem, counter, ext))
	}

	if err := copyFile(path, dest); err != nil {
		return fmt.Errorf("failed to copy %s into album %s: %w", path, a.Name, err)
	}
	a.added++
	return nil
}

// Added returns how many photos were copied into the album.
func (a *Album) Added() int {
	return a.added
}

// copyFile copies a file from src to dst
func copyFile(src, dst string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	destFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer destFile.Close()

	if _, err := io.Copy(destFile, sourceFile); err != nil {
		return err
	}

	// Sync to ensure write is complete
	return destFile.Sync()
}
