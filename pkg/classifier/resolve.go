package classifier

import (
	"net/url"
	"path"
	"regexp"
	"strconv"
	"strings"
)

var imageStyle = regexp.MustCompile(`^(.*)/styles/[^/]+/public/(.+)$`)

var imageExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true,
	".webp": true, ".tif": true, ".tiff": true, ".bmp": true,
}

// Source is everything the page says about one image.
type Source struct {
	// Src is the src or data-src attribute
	Src string
	// SrcSets are srcset values of the image and of sibling <source> elements
	SrcSets []string
	// Link is the href of a wrapping anchor
	Link string
}

// Resolve returns the absolute URL of the highest-resolution variant of an
// image. A wrapping link to an image asset is preferred, then the largest
// srcset candidate, then Src. Drupal image-style derivatives are mapped back
// to the original upload.
func Resolve(base *url.URL, src Source) (string, bool) {
	var chosen *url.URL

	if u := absolute(base, src.Link); u != nil && isImageAsset(u) {
		chosen = u
	}
	if chosen == nil {
		if best := largestCandidate(src.SrcSets); best != "" {
			chosen = absolute(base, best)
		}
	}
	if chosen == nil {
		chosen = absolute(base, src.Src)
	}
	if chosen == nil {
		return "", false
	}

	return originalUpload(chosen).String(), true
}

// originalUpload rewrites /styles/<style>/public/<path> to /<path> and
// drops the itok cache token.
func originalUpload(u *url.URL) *url.URL {
	out := *u
	if m := imageStyle.FindStringSubmatch(out.Path); m != nil {
		out.Path = m[1] + "/" + m[2]
		out.RawPath = ""
	}
	q := out.Query()
	if q.Has("itok") {
		q.Del("itok")
		out.RawQuery = q.Encode()
	}
	out.Fragment = ""
	return &out
}

func absolute(base *url.URL, raw string) *url.URL {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.HasPrefix(strings.ToLower(raw), "data:") || strings.HasPrefix(raw, "#") {
		return nil
	}
	ref, err := url.Parse(raw)
	if err != nil {
		return nil
	}
	u := ref
	if base != nil {
		u = base.ResolveReference(ref)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil
	}
	return u
}

func isImageAsset(u *url.URL) bool {
	return imageExtensions[strings.ToLower(path.Ext(u.Path))]
}

// largestCandidate picks the widest entry of one or more srcset values.
// Width descriptors beat density descriptors; a bare URL counts as 1x.
func largestCandidate(srcsets []string) string {
	best := ""
	bestWidth, bestDensity := -1.0, -1.0

	for _, srcset := range srcsets {
		for _, entry := range strings.Split(srcset, ",") {
			fields := strings.Fields(entry)
			if len(fields) == 0 || strings.HasPrefix(strings.ToLower(fields[0]), "data:") {
				continue
			}
			width, density := -1.0, 1.0
			if len(fields) > 1 {
				d := strings.ToLower(fields[1])
				switch {
				case strings.HasSuffix(d, "w"):
					if v, err := strconv.ParseFloat(strings.TrimSuffix(d, "w"), 64); err == nil {
						width = v
					}
				case strings.HasSuffix(d, "x"):
					if v, err := strconv.ParseFloat(strings.TrimSuffix(d, "x"), 64); err == nil {
						density = v
					}
				}
			}

			switch {
			case width > bestWidth:
				best, bestWidth, bestDensity = fields[0], width, density
			case width == bestWidth && density > bestDensity:
				best, bestDensity = fields[0], density
			}
		}
	}
	return best
}

// isDecorative reports whether an image is site chrome rather than content.
func isDecorative(values ...string) bool {
	for _, v := range values {
		lower := strings.ToLower(v)
		for _, marker := range []string{"logo", "icon", "compass", "hieroglyph", "sprite"} {
			if strings.Contains(lower, marker) {
				return true
			}
		}
		if u, err := url.Parse(lower); err == nil && strings.HasSuffix(u.Path, ".svg") {
			return true
		}
	}
	return false
}
