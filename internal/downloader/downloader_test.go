package downloader

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "thebanscraper/pkg/errors"
	"thebanscraper/pkg/logger"
	"thebanscraper/pkg/models"
	"thebanscraper/pkg/record"
	"thebanscraper/pkg/storage"
	"thebanscraper/pkg/texts"
)

type stubFetcher struct {
	bodies map[string][]byte
	fails  map[string]error
	calls  map[string]int
}

func newStubFetcher() *stubFetcher {
	return &stubFetcher{
		bodies: make(map[string][]byte),
		fails:  make(map[string]error),
		calls:  make(map[string]int),
	}
}

func (f *stubFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	f.calls[url]++
	if err, ok := f.fails[url]; ok {
		return nil, err
	}
	if body, ok := f.bodies[url]; ok {
		return body, nil
	}
	return nil, &errs.Error{Type: errs.ErrorTypeNotFound, Code: 404, URL: url, Message: "not found"}
}

func setup(t *testing.T) (*Downloader, *stubFetcher, string, *logger.TestLogger) {
	t.Helper()
	dir := t.TempDir()
	sm, err := storage.NewManager(dir)
	require.NoError(t, err)
	f := newStubFetcher()
	log := logger.NewTestLogger()
	return New(f, sm, "amduat", log), f, dir, log
}

func ref(url, tomb, section string) models.ImageReference {
	return models.ImageReference{
		SourceURL:   url,
		ResolvedURL: url,
		TombID:      tomb,
		Section:     texts.SectionLabel(section),
	}
}

func TestDownloadWritesUnderSection(t *testing.T) {
	d, f, dir, log := setup(t)
	url := "https://example.com/sites/default/files/img1_full.jpg"
	f.bodies[url] = []byte("hour three")
	rec := record.NewMemory()

	res := d.Download(context.Background(), ref(url, "kv-9", "Hour 3"), rec)

	require.NoError(t, res.Err)
	assert.Equal(t, Downloaded, res.Outcome)
	want := filepath.Join(dir, "amduat", "Hour 3", "img1_full.jpg")
	assert.Equal(t, want, res.Path)
	data, err := os.ReadFile(want)
	require.NoError(t, err)
	assert.Equal(t, "hour three", string(data))
	assert.Equal(t, int64(10), res.Size)

	assert.True(t, rec.Has(record.Identity(url)))
	owner, ok := rec.PathOwner(want)
	assert.True(t, ok)
	assert.Equal(t, record.Identity(url), owner)
	assert.True(t, log.HasMessage("Download completed"))
}

func TestDownloadSkipsKnownIdentityWithoutFetching(t *testing.T) {
	d, f, _, _ := setup(t)
	url := "https://example.com/img1_full.jpg"
	f.bodies[url] = []byte("x")
	rec := record.NewMemory()

	first := d.Download(context.Background(), ref(url, "kv-9", "Hour 3"), rec)
	second := d.Download(context.Background(), ref("https://EXAMPLE.com/img1_full.jpg?itok=abc", "kv-9", "Hour 3"), rec)

	assert.Equal(t, Downloaded, first.Outcome)
	assert.Equal(t, SkippedDuplicate, second.Outcome)
	assert.Equal(t, 1, f.calls[url])
	assert.Len(t, rec.Entries(), 1)
}

func TestDownloadSkipsIdenticalContent(t *testing.T) {
	d, f, dir, _ := setup(t)
	a := "https://example.com/a/img.jpg"
	b := "https://example.com/b/copy.jpg"
	f.bodies[a] = []byte("same bytes")
	f.bodies[b] = []byte("same bytes")
	rec := record.NewMemory()

	assert.Equal(t, Downloaded, d.Download(context.Background(), ref(a, "kv-9", "Hour 3"), rec).Outcome)
	res := d.Download(context.Background(), ref(b, "kv-17", "Hour 3"), rec)

	assert.Equal(t, SkippedDuplicate, res.Outcome)
	assert.True(t, rec.Has(record.Identity(b)), "duplicate identity is remembered")
	_, err := os.Stat(filepath.Join(dir, "amduat", "Hour 3", "copy.jpg"))
	assert.True(t, os.IsNotExist(err))
}

func TestDownloadDisambiguatesClashingNames(t *testing.T) {
	d, f, dir, _ := setup(t)
	a := "https://example.com/kv9/img1.jpg"
	b := "https://example.com/kv17/img1.jpg"
	f.bodies[a] = []byte("kv9 image")
	f.bodies[b] = []byte("kv17 image")
	rec := record.NewMemory()

	first := d.Download(context.Background(), ref(a, "kv-9", "Hour 3"), rec)
	second := d.Download(context.Background(), ref(b, "kv-17", "Hour 3"), rec)

	assert.Equal(t, Downloaded, first.Outcome)
	assert.Equal(t, Downloaded, second.Outcome)
	assert.Equal(t, filepath.Join(dir, "amduat", "Hour 3", "img1.jpg"), first.Path)
	assert.Equal(t, filepath.Join(dir, "amduat", "Hour 3", "kv-17_img1.jpg"), second.Path)

	data, err := os.ReadFile(first.Path)
	require.NoError(t, err)
	assert.Equal(t, "kv9 image", string(data), "first file is never overwritten")
}

func TestDownloadInvalidReference(t *testing.T) {
	d, f, _, _ := setup(t)
	rec := record.NewMemory()

	res := d.Download(context.Background(), models.ImageReference{ResolvedURL: "https://example.com/x.jpg"}, rec)

	assert.Equal(t, Failed, res.Outcome)
	var dlErr *errs.DownloadError
	assert.True(t, errors.As(res.Err, &dlErr))
	assert.Empty(t, f.calls)
	assert.Equal(t, 0, rec.Len())
}

func TestDownloadFetchFailureLeavesRecordUntouched(t *testing.T) {
	d, f, _, log := setup(t)
	url := "https://example.com/broken.jpg"
	f.fails[url] = &errs.Error{Type: errs.ErrorTypeServerError, Code: 503, URL: url, Message: "unavailable"}
	rec := record.NewMemory()

	res := d.Download(context.Background(), ref(url, "kv-9", "Hour 3"), rec)

	assert.Equal(t, Failed, res.Outcome)
	var dlErr *errs.DownloadError
	require.True(t, errors.As(res.Err, &dlErr))
	assert.True(t, errs.IsNetworkError(res.Err))
	assert.False(t, rec.Has(record.Identity(url)))
	assert.True(t, log.HasError())
}

func TestDownloadWriteFailure(t *testing.T) {
	d, f, dir, _ := setup(t)
	url := "https://example.com/img.jpg"
	f.bodies[url] = []byte("data")
	// A regular file where the text directory should be.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "amduat"), []byte("blocker"), 0644))
	rec := record.NewMemory()

	res := d.Download(context.Background(), ref(url, "kv-9", "Hour 3"), rec)

	assert.Equal(t, Failed, res.Outcome)
	var fsErr *errs.FilesystemError
	assert.True(t, errors.As(res.Err, &fsErr))
	assert.Equal(t, 0, rec.Len())
}

func TestDownloadRetriesAfterFailureInLaterCall(t *testing.T) {
	d, f, _, _ := setup(t)
	url := "https://example.com/flaky.jpg"
	f.fails[url] = &errs.Error{Type: errs.ErrorTypeNetwork, URL: url, Message: "reset"}
	rec := record.NewMemory()

	assert.Equal(t, Failed, d.Download(context.Background(), ref(url, "kv-9", "Hour 3"), rec).Outcome)

	delete(f.fails, url)
	f.bodies[url] = []byte("ok")
	assert.Equal(t, Downloaded, d.Download(context.Background(), ref(url, "kv-9", "Hour 3"), rec).Outcome)
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "downloaded", Downloaded.String())
	assert.Equal(t, "skipped-duplicate", SkippedDuplicate.String())
	assert.Equal(t, "failed", Failed.String())
}
