package downloader

import (
	"context"
	"fmt"
	"time"

	errs "thebanscraper/pkg/errors"
	"thebanscraper/pkg/httpclient"
	"thebanscraper/pkg/logger"
	"thebanscraper/pkg/models"
	"thebanscraper/pkg/record"
	"thebanscraper/pkg/storage"
)

// Outcome is what happened to one image reference.
type Outcome int

const (
	Downloaded Outcome = iota
	SkippedDuplicate
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Downloaded:
		return "downloaded"
	case SkippedDuplicate:
		return "skipped-duplicate"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Result is the outcome of a single Download call.
type Result struct {
	Ref      models.ImageReference
	Outcome  Outcome
	Identity string
	Checksum string
	Path     string
	Size     int64
	Duration time.Duration
	// Err is a *errors.DownloadError when Outcome is Failed
	Err error
}

// Downloader writes each distinct image at most once. It holds no
// state of its own; the record passed to Download is the only memory
// of what has been written.
type Downloader struct {
	fetcher httpclient.Fetcher
	storage *storage.Manager
	text    string
	logger  logger.Logger
	now     func() time.Time
}

// New creates a downloader writing under storageManager's <text> directory.
func New(fetcher httpclient.Fetcher, storageManager *storage.Manager, text string, log logger.Logger) *Downloader {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Downloader{
		fetcher: fetcher,
		storage: storageManager,
		text:    text,
		logger:  log,
		now:     time.Now,
	}
}

// Download fetches ref and writes it unless rec already holds its URL
// identity or content checksum. rec is updated only after the file is on
// disk.
func (d *Downloader) Download(ctx context.Context, ref models.ImageReference, rec record.Record) Result {
	start := d.now()
	result := Result{Ref: ref}

	finish := func(outcome Outcome, err error) Result {
		result.Outcome = outcome
		result.Duration = d.now().Sub(start)
		if err != nil {
			result.Err = &errs.DownloadError{URL: ref.ResolvedURL, Err: err}
		}
		logger.LogDownload(d.logger, ref.TombID, string(ref.Section), ref.ResolvedURL, outcome.String(), result.Err)
		return result
	}

	if !ref.Valid() {
		return finish(Failed, fmt.Errorf("invalid image reference: section %q, url %q", ref.Section, ref.ResolvedURL))
	}

	result.Identity = record.Identity(ref.ResolvedURL)
	if rec.Has(result.Identity) {
		return finish(SkippedDuplicate, nil)
	}

	data, err := d.fetcher.Fetch(ctx, ref.ResolvedURL)
	if err != nil {
		return finish(Failed, err)
	}

	result.Checksum = record.Checksum(data)
	if owner, ok := rec.HasChecksum(result.Checksum); ok {
		d.logger.DebugWithFields("Identical content already written", map[string]interface{}{
			"url":   ref.ResolvedURL,
			"owner": owner,
		})
		if err := rec.Alias(result.Identity, result.Checksum); err != nil {
			return finish(Failed, err)
		}
		return finish(SkippedDuplicate, nil)
	}

	path := d.destination(ref, result.Identity, rec)
	if err := d.storage.Save(path, data); err != nil {
		return finish(Failed, err)
	}

	result.Path = path
	result.Size = int64(len(data))
	entry := record.Entry{
		Identity:  result.Identity,
		Checksum:  result.Checksum,
		Path:      path,
		URL:       ref.ResolvedURL,
		TombID:    ref.TombID,
		Section:   string(ref.Section),
		Size:      result.Size,
		WrittenAt: d.now(),
	}
	if err := rec.Add(entry); err != nil {
		return finish(Failed, err)
	}

	return finish(Downloaded, nil)
}

// destination picks <text>/<section>/<file>, prefixing the tomb slug when
// another image already claimed the plain name.
func (d *Downloader) destination(ref models.ImageReference, identity string, rec record.Record) string {
	filename := storage.FilenameFromURL(ref.ResolvedURL)
	path := d.storage.Destination(d.text, string(ref.Section), filename)

	owner, claimed := rec.PathOwner(path)
	if !claimed || owner == identity {
		return path
	}

	alt := d.storage.Destination(d.text, string(ref.Section), storage.Disambiguate(filename, ref.TombID))
	if other, taken := rec.PathOwner(alt); taken && other != identity {
		// Same file name twice within one tomb.
		alt = d.storage.Destination(d.text, string(ref.Section),
			storage.Disambiguate(filename, fmt.Sprintf("%s-%d", ref.TombID, ref.Position)))
	}
	return alt
}
