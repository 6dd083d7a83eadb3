package classifier

import (
	"bytes"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	errs "thebanscraper/pkg/errors"
	"thebanscraper/pkg/logger"
	"thebanscraper/pkg/models"
	"thebanscraper/pkg/texts"
)

// Result is the classification of one tomb page.
type Result struct {
	// Matched is set when the page names the text
	Matched bool
	// References are grouped by section, in document order within a section
	References []models.ImageReference
	Warnings   []errs.ClassificationWarning
}

// Classifier finds the images of one funerary text on tomb pages.
type Classifier struct {
	text   *texts.TextType
	logger logger.Logger
}

// New creates a Classifier for text.
func New(text *texts.TextType, log logger.Logger) *Classifier {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Classifier{text: text, logger: log.WithField("component", "classifier")}
}

// Classify assigns a section to every content image of page. Pages that never
// name the text yield an empty Result.
func (c *Classifier) Classify(page models.TombPage) (Result, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page.Body))
	if err != nil {
		return Result{}, fmt.Errorf("parse tomb page %s: %w", page.ID, err)
	}
	if len(doc.Nodes) == 0 {
		return Result{}, nil
	}
	root := doc.Nodes[0]

	if !c.text.HasMarker(visibleText(root)) {
		return Result{}, nil
	}

	base, _ := url.Parse(page.URL)
	w := &walker{
		result:  Result{Matched: true},
		page:    page,
		base:    base,
		machine: NewStateMachine(c.text),
		seen:    make(map[string]bool),
		warned:  make(map[string]bool),
	}
	w.walk(root)

	c.sortBySection(w.result.References)
	c.logger.DebugWithFields("Tomb page classified", map[string]interface{}{
		"tomb":       page.ID,
		"references": len(w.result.References),
		"warnings":   len(w.result.Warnings),
	})
	return w.result, nil
}

func (c *Classifier) sortBySection(refs []models.ImageReference) {
	sort.SliceStable(refs, func(i, j int) bool {
		a, b := c.text.Index(refs[i].Section), c.text.Index(refs[j].Section)
		if a != b {
			return a < b
		}
		return refs[i].Position < refs[j].Position
	})
}

type walker struct {
	page     models.TombPage
	base     *url.URL
	machine  *StateMachine
	position int
	seen     map[string]bool
	warned   map[string]bool
	result   Result
}

func (w *walker) walk(n *html.Node) {
	switch n.Type {
	case html.TextNode:
		if s := strings.TrimSpace(n.Data); s != "" {
			w.machine.Text(s)
		}
		return
	case html.ElementNode:
		if skipped(n) {
			return
		}
		switch n.DataAtom {
		case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
			w.machine.Heading(headingLevel(n), collapse(visibleText(n)))
			w.walkImagesOnly(n)
			return
		case atom.Source:
			// read through the enclosing <picture>
			return
		}
		if isCandidate(n) {
			w.image(n)
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		w.walk(c)
	}
}

func (w *walker) walkImagesOnly(n *html.Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode || skipped(c) {
			continue
		}
		if isCandidate(c) {
			w.image(c)
		}
		w.walkImagesOnly(c)
	}
}

func (w *walker) image(n *html.Node) {
	src := attr(n, "src")
	if src == "" || strings.HasPrefix(strings.ToLower(strings.TrimSpace(src)), "data:") || n.DataAtom != atom.Img {
		if ds := attr(n, "data-src"); ds != "" {
			src = ds
		}
	}
	if isDecorative(src, attr(n, "data-src"), attr(n, "srcset"), attr(n, "class")) {
		return
	}

	source := Source{Src: src, Link: wrappingLink(n)}
	if s := attr(n, "srcset"); s != "" {
		source.SrcSets = append(source.SrcSets, s)
	}
	if s := attr(n, "data-srcset"); s != "" {
		source.SrcSets = append(source.SrcSets, s)
	}
	source.SrcSets = append(source.SrcSets, pictureSources(n)...)

	resolved, ok := Resolve(w.base, source)
	if !ok {
		return
	}

	w.position++
	caption := captionOf(n)
	if ctx := w.contextOf(n); ctx != "" {
		caption = strings.TrimSpace(caption + " " + ctx)
	}
	label, ok := w.machine.Image(caption)
	if !ok {
		if w.warned[resolved] {
			return
		}
		w.warned[resolved] = true
		w.result.Warnings = append(w.result.Warnings, errs.ClassificationWarning{
			TombID:   w.page.ID,
			ImageURL: resolved,
			State:    w.machine.State().String(),
			Reason:   "no section heading or caption precedes the image",
		})
		return
	}

	if w.seen[resolved] {
		return
	}
	w.seen[resolved] = true
	w.result.References = append(w.result.References, models.ImageReference{
		SourceURL:   src,
		ResolvedURL: resolved,
		TombID:      w.page.ID,
		TombTitle:   w.page.Title,
		Section:     label,
		Caption:     caption,
		Position:    w.position,
	})
}

// headingLevel returns 1 for h1 through 6 for h6.
func headingLevel(n *html.Node) int {
	return int(n.Data[1] - '0')
}

func isCandidate(n *html.Node) bool {
	if n.DataAtom == atom.Img {
		return attr(n, "src") != "" || attr(n, "data-src") != "" || attr(n, "srcset") != ""
	}
	return attr(n, "data-src") != ""
}

func skipped(n *html.Node) bool {
	switch n.DataAtom {
	case atom.Head, atom.Script, atom.Style, atom.Noscript, atom.Template:
		return true
	}
	return false
}

// captionOf joins the alt and title attributes with the figcaption of the
// enclosing figure.
func captionOf(n *html.Node) string {
	var parts []string
	for _, key := range []string{"alt", "title"} {
		if v := collapse(attr(n, key)); v != "" {
			parts = append(parts, v)
		}
	}
	for p := n.Parent; p != nil; p = p.Parent {
		if p.DataAtom != atom.Figure {
			continue
		}
		if fc := findFirst(p, atom.Figcaption); fc != nil {
			if v := collapse(visibleText(fc)); v != "" {
				parts = append(parts, v)
			}
		}
		break
	}
	return strings.Join(parts, " ")
}

// contextLevels is how far up the tree contextOf looks for surrounding text.
const contextLevels = 3

// contextOf returns the text of the closest enclosing block, or of a
// paragraph right before the image, when that text names the funerary text.
// Blocks holding a heading span several sections and are skipped.
func (w *walker) contextOf(n *html.Node) string {
	node := n
	for i := 0; i < contextLevels && node.Parent != nil; i++ {
		if p := previousElement(node); p != nil && p.DataAtom == atom.P {
			if s := collapse(visibleText(p)); w.machine.text.HasMarker(s) {
				return s
			}
		}
		node = node.Parent
		if node.DataAtom == atom.Body || node.DataAtom == atom.Html {
			return ""
		}
		if containsHeading(node) {
			continue
		}
		if s := collapse(visibleText(node)); w.machine.text.HasMarker(s) {
			return s
		}
	}
	return ""
}

func previousElement(n *html.Node) *html.Node {
	for p := n.PrevSibling; p != nil; p = p.PrevSibling {
		if p.Type == html.ElementNode {
			return p
		}
	}
	return nil
}

func containsHeading(n *html.Node) bool {
	for _, a := range []atom.Atom{atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6} {
		if findFirst(n, a) != nil {
			return true
		}
	}
	return false
}

func wrappingLink(n *html.Node) string {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.DataAtom == atom.A {
			return attr(p, "href")
		}
		if p.DataAtom == atom.Figure || p.DataAtom == atom.Body {
			return ""
		}
	}
	return ""
}

func pictureSources(n *html.Node) []string {
	if n.Parent == nil || n.Parent.DataAtom != atom.Picture {
		return nil
	}
	var sets []string
	for c := n.Parent.FirstChild; c != nil; c = c.NextSibling {
		if c.DataAtom != atom.Source {
			continue
		}
		if s := attr(c, "srcset"); s != "" {
			sets = append(sets, s)
		}
	}
	return sets
}

func findFirst(n *html.Node, a atom.Atom) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.DataAtom == a {
			return c
		}
		if found := findFirst(c, a); found != nil {
			return found
		}
	}
	return nil
}

// visibleText concatenates the text under n, skipping scripts and styles.
func visibleText(n *html.Node) string {
	var b strings.Builder
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteByte(' ')
			return
		}
		if n.Type == html.ElementNode && skipped(n) {
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(n)
	return b.String()
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
