package ui

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
)

// ProgressDisplay is a one-line progress display over the tomb list. In
// debug mode it prints one line per event instead.
type ProgressDisplay struct {
	mu         sync.Mutex
	w          io.Writer
	text       string
	totalTombs int
	tombsDone  int
	failed     int
	downloaded int
	skipped    int
	errors     int
	bytes      int64
	current    string
	startTime  time.Time
	isDebug    bool
}

// NewProgressDisplay creates a display writing to w
func NewProgressDisplay(w io.Writer, text string, debug bool) *ProgressDisplay {
	return &ProgressDisplay{
		w:         w,
		text:      text,
		startTime: time.Now(),
		isDebug:   debug,
	}
}

func (p *ProgressDisplay) Discovered(tombs int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.totalTombs = tombs
	fmt.Fprintf(p.w, "%s Found %d tomb pages\n", Magenta("→"), tombs)
}

func (p *ProgressDisplay) StartTomb(id, title string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.current = id
	if p.isDebug {
		fmt.Fprintf(p.w, "%s %s %s\n", Magenta("→"), id, Dim(title))
		return
	}
	p.printProgress()
}

func (p *ProgressDisplay) TombFailed(id string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.tombsDone++
	p.failed++
	fmt.Fprintf(p.w, "\n%s %s: %v\n", Red("✗"), id, err)
}

func (p *ProgressDisplay) TombDone(id string, images, warnings int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.tombsDone++
	if p.isDebug && (images > 0 || warnings > 0) {
		fmt.Fprintf(p.w, "  %s %d images, %d unclassified\n", Dim("•"), images, warnings)
	}
	if !p.isDebug {
		p.printProgress()
	}
}

func (p *ProgressDisplay) ImageDone(section, path, outcome string, size int64, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch {
	case err != nil:
		p.errors++
		if p.isDebug {
			fmt.Fprintf(p.w, "  %s %s: %v\n", Red("✗"), section, err)
		}
	case outcome == "downloaded":
		p.downloaded++
		p.bytes += size
		if p.isDebug {
			fmt.Fprintf(p.w, "  %s %s • %s\n", Green("✓"), path, humanize.Bytes(uint64(size)))
		}
	default:
		p.skipped++
		if p.isDebug {
			fmt.Fprintf(p.w, "  %s %s duplicate\n", Dim("="), section)
		}
	}
	if !p.isDebug {
		p.printProgress()
	}
}

// Complete ends the progress line
func (p *ProgressDisplay) Complete() {
	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Fprintf(p.w, "\n%s %s: %d tombs in %s\n",
		Green("✓"),
		p.text,
		p.tombsDone,
		time.Since(p.startTime).Round(time.Millisecond),
	)
}

// Line returns the current progress line without printing it
func (p *ProgressDisplay) Line() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.line()
}

func (p *ProgressDisplay) printProgress() {
	line := p.line()
	fmt.Fprintf(p.w, "\r%s\r%s", strings.Repeat(" ", 100), line)
}

func (p *ProgressDisplay) line() string {
	const barWidth = 20
	filled := 0
	if p.totalTombs > 0 {
		filled = p.tombsDone * barWidth / p.totalTombs
	}
	if filled > barWidth {
		filled = barWidth
	}
	bar := strings.Repeat("━", filled) + strings.Repeat("─", barWidth-filled)

	line := fmt.Sprintf("%s [%s] %d/%d tombs • %d images • %s",
		Cyan(p.text),
		bar,
		p.tombsDone,
		p.totalTombs,
		p.downloaded,
		humanize.Bytes(uint64(p.bytes)),
	)
	if p.skipped > 0 {
		line += fmt.Sprintf(" • %d duplicates", p.skipped)
	}
	if p.current != "" {
		line += fmt.Sprintf(" • %s", p.current)
	}
	if p.errors+p.failed > 0 {
		line += fmt.Sprintf(" • %s", Red(fmt.Sprintf("%d errors", p.errors+p.failed)))
	}
	return line
}
