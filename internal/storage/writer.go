package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// FilesystemWriter stores composite artifacts under a base directory, one
// subdirectory per target, with a JSON metadata sidecar per artifact
type FilesystemWriter struct {
	baseDir string
}

// NewFilesystemWriter creates a composite writer rooted at baseDir
func NewFilesystemWriter(baseDir string) (*FilesystemWriter, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}
	return &FilesystemWriter{baseDir: baseDir}, nil
}

// artifactPath builds the on-disk location for a target/type/version triple
func (w *FilesystemWriter) artifactPath(target, derivedType string, version int) (string, error) {
	path := filepath.Join(w.baseDir, slug(target), fmt.Sprintf("%s_v%d.png", derivedType, version))

	// Guard against traversal through a hostile target name
	if !strings.HasPrefix(filepath.Clean(path), filepath.Clean(w.baseDir)) {
		return "", fmt.Errorf("invalid target name: %q", target)
	}
	return path, nil
}

// HasComposite checks whether an artifact already exists for the given
// target/type/version
func (w *FilesystemWriter) HasComposite(ctx context.Context, target, derivedType string, version int) (bool, error) {
	path, err := w.artifactPath(target, derivedType, version)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat artifact: %w", err)
	}
	return true, nil
}

// PutComposite writes the encoded artifact plus its metadata sidecar and
// returns the artifact path
func (w *FilesystemWriter) PutComposite(ctx context.Context, target, derivedType string, version int, r io.Reader, meta map[string]string) (string, error) {
	path, err := w.artifactPath(target, derivedType, version)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("failed to create artifact directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "composite-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("failed to write artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("failed to close artifact: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("failed to commit artifact: %w", err)
	}

	if meta != nil {
		sidecar, err := json.MarshalIndent(meta, "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to marshal metadata: %w", err)
		}
		if err := os.WriteFile(path+".json", sidecar, 0644); err != nil {
			return "", fmt.Errorf("failed to write metadata: %w", err)
		}
	}

	return path, nil
}

// slug makes an object name safe as a directory component ("NGC 1300" ->
// "ngc_1300")
func slug(target string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(target)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '.':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "unnamed"
	}
	return b.String()
}
