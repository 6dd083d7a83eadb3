package scraper

import (
	"fmt"
	"time"

	errs "thebanscraper/pkg/errors"
	"thebanscraper/pkg/models"
)

// Status is the aggregate outcome of a run
type Status int

const (
	// StatusOK means every listed tomb was processed. Individual images
	// may still have failed.
	StatusOK Status = iota
	// StatusPartial means one or more tombs failed entirely or the run
	// was interrupted.
	StatusPartial
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusPartial:
		return "partial"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Failure is a tomb or image that could not be processed
type Failure struct {
	TombID string
	URL    string
	Err    error
}

func (f Failure) String() string {
	return fmt.Sprintf("%s %s: %v", f.TombID, f.URL, f.Err)
}

// Summary collects the outcome of one run
type Summary struct {
	RunID string
	Text  string

	TombsListed    int
	TombsProcessed int
	TombsFailed    int
	PagesMatched   int

	ImagesDownloaded   int
	ImagesSkipped      int
	ImagesFailed       int
	ImagesUnclassified int
	BytesWritten       int64

	TombFailures  []Failure
	ImageFailures []Failure

	ManifestPath string
	Interrupted  bool
	Duration     time.Duration
}

// Status reports StatusPartial when any tomb failed or the run stopped early.
func (s *Summary) Status() Status {
	if s.TombsFailed > 0 || s.Interrupted {
		return StatusPartial
	}
	return StatusOK
}

// NetworkFailures counts the tomb failures caused by the network
func (s *Summary) NetworkFailures() int {
	n := 0
	for _, f := range s.TombFailures {
		if errs.IsNetworkError(f.Err) {
			n++
		}
	}
	return n
}

func (s *Summary) tombFailed(page models.TombPage, err error) {
	s.TombsFailed++
	s.TombFailures = append(s.TombFailures, Failure{TombID: page.ID, URL: page.URL, Err: err})
}

func (s *Summary) imageFailed(ref models.ImageReference, err error) {
	s.ImagesFailed++
	s.ImageFailures = append(s.ImageFailures, Failure{TombID: ref.TombID, URL: ref.ResolvedURL, Err: err})
}

// PlannedTomb is a matched tomb page and the images a run would download
type PlannedTomb struct {
	Tomb       models.TombPage
	References []models.ImageReference
	Warnings   []errs.ClassificationWarning
}

// Plan is the result of a dry run
type Plan struct {
	Text     string
	Listed   int
	Tombs    []PlannedTomb
	Failures []Failure
}

// ImageCount returns the number of planned images, duplicates included
func (p *Plan) ImageCount() int {
	n := 0
	for _, t := range p.Tombs {
		n += len(t.References)
	}
	return n
}
