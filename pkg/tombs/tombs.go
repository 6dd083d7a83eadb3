package tombs

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	errs "thebanscraper/pkg/errors"
	"thebanscraper/pkg/httpclient"
	"thebanscraper/pkg/logger"
	"thebanscraper/pkg/models"
)

var tombPath = regexp.MustCompile(`(?i)^/tombs/(kv-(\d+)([a-z]?))/?$`)

var titleSuffix = regexp.MustCompile(`(?i)\s*[-|]\s*theban mapping project.*$`)

// Enumerator lists and fetches Valley of the Kings tomb pages.
type Enumerator struct {
	fetcher  httpclient.Fetcher
	base     *url.URL
	indexURL string
	logger   logger.Logger
}

// NewEnumerator creates an Enumerator reading the index at baseURL+indexPath.
func NewEnumerator(fetcher httpclient.Fetcher, baseURL, indexPath string, log logger.Logger) (*Enumerator, error) {
	base, err := url.Parse(baseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q", baseURL)
	}
	if log == nil {
		log = logger.GetLogger()
	}
	index := base.ResolveReference(&url.URL{Path: "/" + strings.TrimLeft(indexPath, "/")})

	return &Enumerator{
		fetcher:  fetcher,
		base:     base,
		indexURL: index.String(),
		logger:   log.WithField("component", "tombs"),
	}, nil
}

// IndexURL returns the URL of the tomb listing.
func (e *Enumerator) IndexURL() string {
	return e.indexURL
}

// ListTombs returns every tomb linked from the index, ordered by tomb
// number then slug. Pages are not fetched.
func (e *Enumerator) ListTombs(ctx context.Context) ([]models.TombPage, error) {
	body, err := e.fetcher.Fetch(ctx, e.indexURL)
	if err != nil {
		return nil, &errs.DiscoveryError{Kind: errs.DiscoveryUnreachable, URL: e.indexURL, Err: err}
	}

	pages, err := ParseIndex(e.base, body)
	if err != nil {
		return nil, &errs.DiscoveryError{Kind: errs.DiscoveryFormatChanged, URL: e.indexURL, Err: err}
	}
	if len(pages) == 0 {
		return nil, &errs.DiscoveryError{Kind: errs.DiscoveryFormatChanged, URL: e.indexURL}
	}

	e.logger.InfoWithFields("Tomb index parsed", map[string]interface{}{
		"url":   e.indexURL,
		"tombs": len(pages),
	})
	return pages, nil
}

// FetchTomb loads the body and title of page.
func (e *Enumerator) FetchTomb(ctx context.Context, page models.TombPage) (models.TombPage, error) {
	body, err := e.fetcher.Fetch(ctx, page.URL)
	if err != nil {
		return page, err
	}
	page.Body = body
	page.Title = ExtractTitle(body, page.ID)
	return page, nil
}

// ParseIndex extracts tomb links from an index page. Links are resolved
// against base and links to other hosts are ignored.
func ParseIndex(base *url.URL, body []byte) ([]models.TombPage, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse index: %w", err)
	}

	seen := make(map[string]bool)
	var pages []models.TombPage

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		ref, err := url.Parse(strings.TrimSpace(href))
		if err != nil {
			return
		}
		abs := base.ResolveReference(ref)
		if !strings.EqualFold(abs.Host, base.Host) {
			return
		}

		m := tombPath.FindStringSubmatch(abs.Path)
		if m == nil {
			return
		}
		slug := strings.ToLower(m[1])
		if seen[slug] {
			return
		}
		seen[slug] = true

		number, _ := strconv.Atoi(m[2])
		pages = append(pages, models.TombPage{
			ID:     slug,
			Number: number,
			URL:    (&url.URL{Scheme: abs.Scheme, Host: abs.Host, Path: "/tombs/" + slug}).String(),
		})
	})

	sort.SliceStable(pages, func(i, j int) bool {
		if pages[i].Number != pages[j].Number {
			return pages[i].Number < pages[j].Number
		}
		return pages[i].ID < pages[j].ID
	})
	return pages, nil
}

// ExtractTitle returns a display name for a tomb page: the document title
// without the site suffix, else the first h1, else the slug.
func ExtractTitle(body []byte, slug string) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err == nil {
		title := strings.TrimSpace(titleSuffix.ReplaceAllString(doc.Find("title").First().Text(), ""))
		if title != "" && !strings.EqualFold(title, "home") && !strings.EqualFold(title, "theban mapping project") {
			return collapseSpace(title)
		}
		if h1 := strings.TrimSpace(doc.Find("h1").First().Text()); h1 != "" {
			return collapseSpace(h1)
		}
	}
	return strings.ToUpper(strings.ReplaceAll(slug, "-", " "))
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
