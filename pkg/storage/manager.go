package storage

import (
	"fmt"
	"os"
	"path/filepath"

	errs "thebanscraper/pkg/errors"
)

// Manager places images under <output>/<text>/<section>/ and writes them
// atomically.
type Manager struct {
	outputDir string
}

// NewManager creates the output directory if needed.
func NewManager(outputDir string) (*Manager, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, &errs.FilesystemError{Op: "mkdir", Path: outputDir, Err: err}
	}
	return &Manager{outputDir: outputDir}, nil
}

// GetOutputDir returns the output directory path
func (m *Manager) GetOutputDir() string {
	return m.outputDir
}

// TextDir returns the directory holding all sections of text.
func (m *Manager) TextDir(text string) string {
	return filepath.Join(m.outputDir, SanitizeComponent(text))
}

// Destination returns the file path for an image. Every component is
// sanitized, so the result always stays inside the output directory.
func (m *Manager) Destination(text, section, filename string) string {
	return filepath.Join(m.TextDir(text), SanitizeComponent(section), SanitizeFilename(filename))
}

// Exists reports whether a regular file is present at path.
func (m *Manager) Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// Save writes data to path through a temporary file in the same directory
// and a rename, so a crash never leaves a partial file under the final name.
func (m *Manager) Save(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return &errs.FilesystemError{Op: "mkdir", Path: dir, Err: err}
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return &errs.FilesystemError{Op: "create", Path: path, Err: err}
	}
	tmpName := tmp.Name()

	_, writeErr := tmp.Write(data)
	closeErr := tmp.Close()
	if writeErr != nil || closeErr != nil {
		os.Remove(tmpName)
		if writeErr == nil {
			writeErr = closeErr
		}
		return &errs.FilesystemError{Op: "write", Path: path, Err: writeErr}
	}

	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return &errs.FilesystemError{Op: "chmod", Path: path, Err: err}
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return &errs.FilesystemError{Op: "rename", Path: path, Err: fmt.Errorf("%s: %w", tmpName, err)}
	}
	return nil
}
