package report

import (
	"io"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"thebanscraper/pkg/metadata"
	"thebanscraper/pkg/scraper"
	"thebanscraper/pkg/texts"
)

// MarkdownWriter renders a run summary as a Markdown document.
type MarkdownWriter struct {
	output io.Writer
}

// NewMarkdownWriter creates a MarkdownWriter that writes to output.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{output: output}
}

// Write renders summary. manifest may be nil when nothing was written.
func (w *MarkdownWriter) Write(text *texts.TextType, summary *scraper.Summary, manifest *metadata.Manifest) error {
	md := markdown.NewMarkdown(w.output)

	md.H1(text.Name + " download report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Run", "`" + summary.RunID + "`"},
			{"Status", statusText(summary)},
			{"Tombs listed", strconv.Itoa(summary.TombsListed)},
			{"Tombs with the text", strconv.Itoa(summary.PagesMatched)},
			{"Images downloaded", strconv.Itoa(summary.ImagesDownloaded)},
			{"Duplicates skipped", strconv.Itoa(summary.ImagesSkipped)},
			{"Unclassified", strconv.Itoa(summary.ImagesUnclassified)},
			{"Written", humanize.Bytes(uint64(summary.BytesWritten))},
		},
	})
	md.PlainText("")

	w.writeSections(md, text, manifest)
	w.writeFailures(md, summary)

	return md.Build()
}

func statusText(s *scraper.Summary) string {
	switch {
	case s.Interrupted:
		return "interrupted (partial results)"
	case s.Status() == scraper.StatusPartial:
		return "partial"
	default:
		return "complete"
	}
}

// writeSections lists the image count of every section in text order.
func (w *MarkdownWriter) writeSections(md *markdown.Markdown, text *texts.TextType, manifest *metadata.Manifest) {
	md.H2("Sections")
	md.PlainText("")

	if manifest == nil || manifest.Len() == 0 {
		md.PlainText("No images were written.")
		md.PlainText("")
		return
	}

	counts := manifest.CountBySection()
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle(text.Name+" images per section"),
		piechart.WithShowData(true),
	)

	rows := make([][]string, 0, text.Sections)
	for _, label := range text.Labels() {
		n := counts[string(label)]
		rows = append(rows, []string{string(label), strconv.Itoa(n)})
		if n > 0 {
			chart.LabelAndIntValue(string(label), uint64(n))
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"Section", "Images"},
		Rows:   rows,
	})
	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

func (w *MarkdownWriter) writeFailures(md *markdown.Markdown, s *scraper.Summary) {
	md.H2("Failures")
	md.PlainText("")

	if len(s.TombFailures) == 0 && len(s.ImageFailures) == 0 {
		md.Tip("Every tomb page and image was processed.")
		md.PlainText("")
		return
	}

	if len(s.TombFailures) > 0 {
		md.Warningf("%d tomb page(s) could not be processed. Run again to retry them.", len(s.TombFailures))
		md.PlainText("")
		md.Table(failureTable(s.TombFailures))
		md.PlainText("")
	}
	if len(s.ImageFailures) > 0 {
		md.Note(strconv.Itoa(len(s.ImageFailures)) + " image(s) failed and will be retried on the next run.")
		md.PlainText("")
		md.Table(failureTable(s.ImageFailures))
		md.PlainText("")
	}
}

func failureTable(failures []scraper.Failure) markdown.TableSet {
	rows := make([][]string, len(failures))
	for i, f := range failures {
		rows[i] = []string{f.TombID, f.URL, f.Err.Error()}
	}
	return markdown.TableSet{
		Header: []string{"Tomb", "URL", "Error"},
		Rows:   rows,
	}
}
