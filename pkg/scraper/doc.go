// Package scraper runs the tomb image pipeline for one funerary text.
//
// A run lists the Valley of the Kings tomb pages, fetches and classifies
// each one, and downloads every classified image exactly once into
// <output>/<text>/<section>/<file>. Processing is sequential: one page
// or one image at a time, each request paced by the politeness delay.
//
// Usage:
//
//	cfg, _ := config.Load("", config.Flags{})
//	text, _ := texts.Lookup("amduat")
//	s, err := scraper.New(cfg, text, logger.GetLogger())
//	if err != nil {
//		return err
//	}
//	summary, err := s.Run(ctx)
//
// Failure handling:
//
// Only tomb discovery failures abort a run. A tomb page that cannot be
// fetched is counted in Summary.TombsFailed and makes the Status partial;
// a failed image is counted in Summary.ImagesFailed and leaves the
// Status unchanged.
//
// Deduplication:
//
// Each run gets a fresh in-memory download record unless the record is
// configured to persist, in which case images written by earlier runs are
// skipped too.
package scraper
