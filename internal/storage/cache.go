// Package storage provides the local filesystem pieces of the pipeline: an
// idempotent download cache keyed by product URI and a writer for composite
// artifacts.
package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// FileCache is a filesystem cache for downloaded products. Entries are keyed
// by the immutable product URI, so repeated puts of the same URI are
// idempotent and no locking is needed.
type FileCache struct {
	baseDir string
}

// NewFileCache creates a file cache rooted at baseDir
func NewFileCache(baseDir string) (*FileCache, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return &FileCache{baseDir: baseDir}, nil
}

// Path returns the cache location for a URI, whether or not it exists yet
func (c *FileCache) Path(uri string) string {
	sum := sha256.Sum256([]byte(uri))
	return filepath.Join(c.baseDir, hex.EncodeToString(sum[:8])+".fits")
}

// Has reports whether the URI is already cached
func (c *FileCache) Has(uri string) bool {
	info, err := os.Stat(c.Path(uri))
	return err == nil && info.Size() > 0
}

// Put stores the content for a URI and returns its cache path. The content is
// written to a temporary file first and renamed into place, so a crashed or
// concurrent write never exposes partial bytes.
func (c *FileCache) Put(uri string, r io.Reader) (string, error) {
	dst := c.Path(uri)

	tmp, err := os.CreateTemp(c.baseDir, "download-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("failed to write cache entry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("failed to close cache entry: %w", err)
	}

	if err := os.Rename(tmpName, dst); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("failed to commit cache entry: %w", err)
	}

	return dst, nil
}
