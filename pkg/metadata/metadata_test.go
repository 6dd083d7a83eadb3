package metadata

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"thebanscraper/pkg/models"
	"thebanscraper/pkg/texts"
)

func amduat(t *testing.T) *texts.TextType {
	t.Helper()
	tt, err := texts.Lookup("amduat")
	require.NoError(t, err)
	return tt
}

func TestFromReference(t *testing.T) {
	textDir := filepath.Join("out", "amduat")
	ref := models.ImageReference{
		SourceURL:   "https://example.com/sites/default/files/styles/medium/public/img1_full.jpg?itok=x",
		ResolvedURL: "https://example.com/sites/default/files/img1_full.jpg",
		TombID:      "kv-9",
		TombTitle:   "KV 9 (Ramesses V and VI)",
		Section:     "Hour 3",
		Caption:     "Third hour of the Amduat",
	}
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.FixedZone("EET", 2*3600))

	img := FromReference(ref, textDir, filepath.Join(textDir, "Hour 3", "img1_full.jpg"), "abc", 42, at)

	assert.Equal(t, "Hour 3/img1_full.jpg", img.File)
	assert.Equal(t, "Hour 3", img.Section)
	assert.Equal(t, "kv-9", img.TombID)
	assert.Equal(t, ref.SourceURL, img.SourceURL)
	assert.Equal(t, ref.ResolvedURL, img.ResolvedURL)
	assert.Equal(t, "abc", img.Checksum)
	assert.Equal(t, int64(42), img.FileSize)
	assert.Equal(t, time.UTC, img.DownloadedAt.Location())
}

func TestManifestSaveAndLoad(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "amduat")
	m := New(amduat(t), "run-1")
	m.Add(ImageMetadata{Section: "Hour 3", File: "Hour 3/a.jpg", FileSize: 10})
	m.Add(ImageMetadata{Section: "Hour 3", File: "Hour 3/b.jpg", FileSize: 5})
	m.Add(ImageMetadata{Section: "Hour 5", File: "Hour 5/c.jpg", FileSize: 1})

	path, err := m.Save(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, ManifestFile), path)

	loaded, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "amduat", loaded.Text)
	assert.Equal(t, "Amduat", loaded.TextName)
	assert.Equal(t, "run-1", loaded.RunID)
	assert.False(t, loaded.GeneratedAt.IsZero())
	assert.Equal(t, 3, loaded.Len())
	assert.Equal(t, int64(16), loaded.TotalSize())
	assert.Equal(t, map[string]int{"Hour 3": 2, "Hour 5": 1}, loaded.CountBySection())

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestEmptyManifestHasImageList(t *testing.T) {
	dir := t.TempDir()
	_, err := New(amduat(t), "run-1").Save(dir)
	require.NoError(t, err)

	data, err := os.ReadFile(Path(dir))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"images": []`)
}

func TestLoadMissingManifest(t *testing.T) {
	_, err := Load(t.TempDir())
	assert.Error(t, err)
}

func TestMissing(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "Hour 1"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Hour 1", "present.jpg"), []byte("x"), 0644))

	m := New(amduat(t), "run-1")
	m.Add(ImageMetadata{File: "Hour 1/present.jpg"})
	m.Add(ImageMetadata{File: "Hour 1/gone.jpg"})

	missing := m.Missing(dir)
	require.Len(t, missing, 1)
	assert.Equal(t, "Hour 1/gone.jpg", missing[0].File)
}
