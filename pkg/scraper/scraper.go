package scraper

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"thebanscraper/internal/downloader"
	"thebanscraper/pkg/classifier"
	"thebanscraper/pkg/config"
	"thebanscraper/pkg/httpclient"
	"thebanscraper/pkg/logger"
	"thebanscraper/pkg/metadata"
	"thebanscraper/pkg/models"
	"thebanscraper/pkg/record"
	"thebanscraper/pkg/storage"
	"thebanscraper/pkg/texts"
	"thebanscraper/pkg/tombs"
	"thebanscraper/pkg/ui"
)

// Scraper runs the enumerate, classify and download pipeline for one text
type Scraper struct {
	config     *config.Config
	text       *texts.TextType
	fetcher    httpclient.Fetcher
	tombs      TombSource
	classifier PageClassifier
	runID      string
	logger     logger.Logger
	reporter   ui.Reporter
}

// New creates a Scraper with an HTTP client built from cfg
func New(cfg *config.Config, text *texts.TextType, log logger.Logger) (*Scraper, error) {
	if log == nil {
		log = logger.GetLogger()
	}
	return NewWithFetcher(cfg, text, NewClient(cfg, log), log)
}

// NewClient builds the polite HTTP client described by cfg
func NewClient(cfg *config.Config, log logger.Logger) *httpclient.Client {
	return httpclient.New(httpclient.Options{
		Timeout:       cfg.Site.Timeout,
		UserAgent:     cfg.Site.UserAgent,
		Delay:         cfg.Politeness.Delay,
		MaxRetries:    cfg.Politeness.MaxRetries,
		RespectRobots: cfg.Site.RespectRobots,
		Logger:        log,
	})
}

// NewWithFetcher creates a Scraper that does all I/O through fetcher
func NewWithFetcher(cfg *config.Config, text *texts.TextType, fetcher httpclient.Fetcher, log logger.Logger) (*Scraper, error) {
	if log == nil {
		log = logger.GetLogger()
	}
	runID := uuid.NewString()
	log = log.WithFields(map[string]interface{}{
		"run_id": runID,
		"text":   text.Key,
	})

	enumerator, err := tombs.NewEnumerator(fetcher, cfg.Site.BaseURL, cfg.Site.IndexPath, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create tomb enumerator: %w", err)
	}

	return &Scraper{
		config:     cfg,
		text:       text,
		fetcher:    fetcher,
		tombs:      enumerator,
		classifier: classifier.New(text, log),
		runID:      runID,
		logger:     log,
	}, nil
}

// SetReporter sets the progress reporter
func (s *Scraper) SetReporter(r ui.Reporter) {
	s.reporter = r
}

// RunID returns the identifier of this scraper's run
func (s *Scraper) RunID() string {
	return s.runID
}

// openRecord returns a fresh record for this run, or the persistent one
// when configured.
func (s *Scraper) openRecord() (record.Record, error) {
	if !s.config.Record.Persist {
		return record.NewMemory(), nil
	}
	path := s.config.RecordPath()
	rec, err := record.OpenSQLite(path, s.runID)
	if err != nil {
		return nil, err
	}
	s.logger.InfoWithFields("Using persistent download record", map[string]interface{}{
		"path":    path,
		"entries": rec.Len(),
	})
	return rec, nil
}

// Run downloads every classified image of every listed tomb. Only a
// failure to list the tombs, create the output directory or open the
// record is returned as an error; everything else is counted in the
// Summary. An interrupted run returns its partial Summary with ctx.Err().
func (s *Scraper) Run(ctx context.Context) (*Summary, error) {
	start := time.Now()
	summary := &Summary{RunID: s.runID, Text: s.text.Key}

	s.logger.InfoWithFields("Starting run", map[string]interface{}{
		"output":     s.config.Output.BaseDirectory,
		"index":      s.config.IndexURL(),
		"delay":      s.config.Politeness.Delay.String(),
		"persistent": s.config.Record.Persist,
	})

	storageManager, err := storage.NewManager(s.config.Output.BaseDirectory)
	if err != nil {
		s.logger.WithError(err).Error("Failed to create output directory")
		return summary, fmt.Errorf("failed to create output directory: %w", err)
	}

	rec, err := s.openRecord()
	if err != nil {
		s.logger.WithError(err).Error("Failed to open download record")
		return summary, fmt.Errorf("failed to open download record: %w", err)
	}
	defer func() {
		if err := rec.Close(); err != nil {
			s.logger.WithError(err).Warn("Failed to close download record")
		}
	}()

	pages, err := s.tombs.ListTombs(ctx)
	if err != nil {
		s.logger.WithError(err).Error("Tomb discovery failed")
		return summary, err
	}
	summary.TombsListed = len(pages)
	if s.reporter != nil {
		s.reporter.Discovered(len(pages))
	}

	dl := downloader.New(s.fetcher, storageManager, s.text.Key, s.logger)
	manifest := metadata.New(s.text, s.runID)
	textDir := storageManager.TextDir(s.text.Key)

	for _, page := range pages {
		if ctx.Err() != nil {
			summary.Interrupted = true
			break
		}
		s.processTomb(ctx, page, dl, rec, manifest, textDir, summary)
	}

	if s.config.Output.WriteManifest && manifest.Len() > 0 {
		path, err := manifest.Save(textDir)
		if err != nil {
			s.logger.WithError(err).Warn("Failed to write manifest")
		} else {
			summary.ManifestPath = path
		}
	}

	summary.Duration = time.Since(start)
	if s.reporter != nil {
		s.reporter.Complete()
	}

	s.logger.InfoWithFields("Run completed", map[string]interface{}{
		"status":       summary.Status().String(),
		"tombs":        summary.TombsListed,
		"processed":    summary.TombsProcessed,
		"failed_tombs": summary.TombsFailed,
		"matched":      summary.PagesMatched,
		"downloaded":   summary.ImagesDownloaded,
		"skipped":      summary.ImagesSkipped,
		"failed":       summary.ImagesFailed,
		"unclassified": summary.ImagesUnclassified,
		"bytes":        summary.BytesWritten,
		"duration_ms":  summary.Duration.Milliseconds(),
	})

	if summary.Interrupted {
		return summary, ctx.Err()
	}
	return summary, nil
}

func (s *Scraper) processTomb(
	ctx context.Context,
	page models.TombPage,
	dl *downloader.Downloader,
	rec record.Record,
	manifest *metadata.Manifest,
	textDir string,
	summary *Summary,
) {
	if s.reporter != nil {
		s.reporter.StartTomb(page.ID, page.Title)
	}

	res, err := s.classify(ctx, page)
	if err != nil {
		if ctx.Err() != nil {
			summary.Interrupted = true
			return
		}
		s.logger.WithError(err).WithField("tomb", page.ID).Error("Tomb page failed")
		summary.tombFailed(page, err)
		if s.reporter != nil {
			s.reporter.TombFailed(page.ID, err)
		}
		return
	}

	summary.TombsProcessed++
	if res.Matched {
		summary.PagesMatched++
	}
	for _, w := range res.Warnings {
		logger.LogClassificationWarning(s.logger, w)
		summary.ImagesUnclassified++
	}

	for _, ref := range res.References {
		if ctx.Err() != nil {
			summary.Interrupted = true
			return
		}

		r := dl.Download(ctx, ref, rec)
		switch r.Outcome {
		case downloader.Downloaded:
			summary.ImagesDownloaded++
			summary.BytesWritten += r.Size
			manifest.Add(metadata.FromReference(ref, textDir, r.Path, r.Checksum, r.Size, time.Now()))
		case downloader.SkippedDuplicate:
			summary.ImagesSkipped++
		default:
			if ctx.Err() != nil {
				summary.Interrupted = true
				return
			}
			summary.imageFailed(ref, r.Err)
		}
		if s.reporter != nil {
			s.reporter.ImageDone(string(ref.Section), r.Path, r.Outcome.String(), r.Size, r.Err)
		}
	}

	if s.reporter != nil {
		s.reporter.TombDone(page.ID, len(res.References), len(res.Warnings))
	}
}

// classify fetches page and classifies it. The page body is dropped
// before returning.
func (s *Scraper) classify(ctx context.Context, page models.TombPage) (classifier.Result, error) {
	fetched, err := s.tombs.FetchTomb(ctx, page)
	if err != nil {
		return classifier.Result{}, err
	}

	res, err := s.classifier.Classify(fetched)
	if err != nil {
		return classifier.Result{}, err
	}

	logger.LogTomb(s.logger, fetched.ID, fetched.Title, len(res.References), len(res.Warnings))
	return res, nil
}

// Plan lists and classifies every tomb without downloading anything.
func (s *Scraper) Plan(ctx context.Context) (*Plan, error) {
	pages, err := s.tombs.ListTombs(ctx)
	if err != nil {
		return nil, err
	}

	plan := &Plan{Text: s.text.Key, Listed: len(pages)}
	for _, page := range pages {
		if err := ctx.Err(); err != nil {
			return plan, err
		}

		fetched, err := s.tombs.FetchTomb(ctx, page)
		if err == nil {
			var res classifier.Result
			res, err = s.classifier.Classify(fetched)
			if err == nil {
				if res.Matched {
					fetched.Body = nil
					plan.Tombs = append(plan.Tombs, PlannedTomb{
						Tomb:       fetched,
						References: res.References,
						Warnings:   res.Warnings,
					})
				}
				continue
			}
		}

		s.logger.WithError(err).WithField("tomb", page.ID).Warn("Tomb page failed")
		plan.Failures = append(plan.Failures, Failure{TombID: page.ID, URL: page.URL, Err: err})
	}

	s.logger.InfoWithFields("Plan completed", map[string]interface{}{
		"tombs":   plan.Listed,
		"matched": len(plan.Tombs),
		"images":  plan.ImageCount(),
		"failed":  len(plan.Failures),
	})
	return plan, nil
}

// Describe returns a one-line description of the run target
func (s *Scraper) Describe() string {
	return fmt.Sprintf("%s (%s) from %s into %s",
		s.text.Name,
		strings.Join(sectionRange(s.text), ".."),
		s.config.IndexURL(),
		s.config.Output.BaseDirectory,
	)
}

func sectionRange(t *texts.TextType) []string {
	labels := t.Labels()
	if len(labels) == 0 {
		return nil
	}
	return []string{string(labels[0]), string(labels[len(labels)-1])}
}
