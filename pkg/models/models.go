package models

import (
	"strings"

	"thebanscraper/pkg/texts"
)

// TombPage is one tomb documentation page. Body and Title are empty until
// the page has been fetched.
type TombPage struct {
	ID     string `json:"id"`
	Number int    `json:"number"`
	URL    string `json:"url"`
	Title  string `json:"title,omitempty"`
	Body   []byte `json:"-"`
}

// Fetched reports whether the page body has been loaded.
func (p TombPage) Fetched() bool {
	return len(p.Body) > 0
}

// ImageReference is an image found on a tomb page and assigned to a section.
type ImageReference struct {
	// SourceURL is the URL as written on the page, possibly a thumbnail
	SourceURL string `json:"source_url"`
	// ResolvedURL is the highest-resolution variant found
	ResolvedURL string             `json:"resolved_url"`
	TombID      string             `json:"tomb_id"`
	TombTitle   string             `json:"tomb_title,omitempty"`
	Section     texts.SectionLabel `json:"section"`
	Caption     string             `json:"caption,omitempty"`
	// Position is the document order of the image within its page
	Position int `json:"position"`
}

// Valid reports whether the reference has both a section and a resolved URL.
func (r ImageReference) Valid() bool {
	return strings.TrimSpace(string(r.Section)) != "" && strings.TrimSpace(r.ResolvedURL) != ""
}
