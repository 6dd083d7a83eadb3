package metadata

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"thebanscraper/pkg/models"
	"thebanscraper/pkg/texts"
)

// ManifestFile is the name of the manifest written in each text directory.
const ManifestFile = "manifest.json"

// ImageMetadata describes one image written during a run
type ImageMetadata struct {
	Section string `json:"section"`
	// File is relative to the text directory, slash separated
	File string `json:"file"`

	TombID    string `json:"tomb_id"`
	TombTitle string `json:"tomb_title,omitempty"`

	SourceURL   string `json:"source_url"`
	ResolvedURL string `json:"resolved_url"`
	Caption     string `json:"caption,omitempty"`

	Checksum     string    `json:"checksum"`
	FileSize     int64     `json:"file_size"`
	DownloadedAt time.Time `json:"downloaded_at"`
}

// Manifest lists the images one run wrote for a text type
type Manifest struct {
	Text        string          `json:"text"`
	TextName    string          `json:"text_name"`
	RunID       string          `json:"run_id"`
	GeneratedAt time.Time       `json:"generated_at"`
	Images      []ImageMetadata `json:"images"`
}

// New creates an empty manifest for text
func New(text *texts.TextType, runID string) *Manifest {
	return &Manifest{
		Text:     text.Key,
		TextName: text.Name,
		RunID:    runID,
		Images:   []ImageMetadata{},
	}
}

// FromReference builds the metadata of a written image. path is the
// absolute destination, textDir the directory it was written under.
func FromReference(ref models.ImageReference, textDir, path, checksum string, size int64, at time.Time) ImageMetadata {
	rel, err := filepath.Rel(textDir, path)
	if err != nil {
		rel = filepath.Base(path)
	}
	return ImageMetadata{
		Section:      string(ref.Section),
		File:         filepath.ToSlash(rel),
		TombID:       ref.TombID,
		TombTitle:    ref.TombTitle,
		SourceURL:    ref.SourceURL,
		ResolvedURL:  ref.ResolvedURL,
		Caption:      ref.Caption,
		Checksum:     checksum,
		FileSize:     size,
		DownloadedAt: at.UTC(),
	}
}

// Add appends an image
func (m *Manifest) Add(img ImageMetadata) {
	m.Images = append(m.Images, img)
}

// Len returns the number of images in the manifest
func (m *Manifest) Len() int {
	return len(m.Images)
}

// CountBySection returns the number of images per section label
func (m *Manifest) CountBySection() map[string]int {
	counts := make(map[string]int)
	for _, img := range m.Images {
		counts[img.Section]++
	}
	return counts
}

// TotalSize returns the number of bytes written
func (m *Manifest) TotalSize() int64 {
	var total int64
	for _, img := range m.Images {
		total += img.FileSize
	}
	return total
}

// Path returns the manifest location inside textDir
func Path(textDir string) string {
	return filepath.Join(textDir, ManifestFile)
}

// Save writes the manifest to textDir/manifest.json, replacing any manifest
// from an earlier run.
func (m *Manifest) Save(textDir string) (string, error) {
	if m.GeneratedAt.IsZero() {
		m.GeneratedAt = time.Now().UTC()
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal manifest: %w", err)
	}

	if err := os.MkdirAll(textDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create manifest directory: %w", err)
	}

	path := Path(textDir)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write manifest file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("failed to write manifest file: %w", err)
	}

	return path, nil
}

// Load reads the manifest in textDir
func Load(textDir string) (*Manifest, error) {
	data, err := os.ReadFile(Path(textDir))
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest file: %w", err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to unmarshal manifest: %w", err)
	}

	return &m, nil
}

// Missing returns the images whose files no longer exist under textDir
func (m *Manifest) Missing(textDir string) []ImageMetadata {
	var missing []ImageMetadata
	for _, img := range m.Images {
		if _, err := os.Stat(filepath.Join(textDir, filepath.FromSlash(img.File))); os.IsNotExist(err) {
			missing = append(missing, img)
		}
	}
	return missing
}
