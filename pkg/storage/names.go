package storage

import (
	"net/url"
	"path"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MaxComponentLength is the longest path component produced, in bytes.
const MaxComponentLength = 120

var (
	unsafeChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f\x7f]`)
	whitespace  = regexp.MustCompile(`\s+`)
)

// SanitizeComponent makes s safe to use as a single path component.
// The mapping is deterministic: accents are folded, reserved characters
// become "_", whitespace collapses to one space. "Hour 3" is unchanged.
func SanitizeComponent(s string) string {
	s = foldAccents(s)
	s = whitespace.ReplaceAllString(s, " ")
	s = unsafeChars.ReplaceAllString(s, "_")
	s = strings.Trim(s, " .")
	s = truncate(s, MaxComponentLength)
	s = strings.TrimRight(s, " .")
	if s == "" {
		return "unnamed"
	}
	return s
}

// SanitizeFilename is SanitizeComponent that keeps the extension when the
// name has to be shortened.
func SanitizeFilename(name string) string {
	ext := path.Ext(name)
	if len(ext) <= 1 || ext == name || len(ext) > 10 {
		return SanitizeComponent(name)
	}
	stem := SanitizeComponent(strings.TrimSuffix(name, ext))
	ext = strings.ToLower(SanitizeComponent(ext))
	if !strings.HasPrefix(ext, ".") {
		ext = "." + strings.TrimLeft(ext, ".")
	}
	return truncate(stem, MaxComponentLength-len(ext)) + ext
}

// FilenameFromURL returns the sanitized base name of the URL path,
// or "image.jpg" when there is none.
func FilenameFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "image.jpg"
	}
	base := path.Base(u.Path)
	if unescaped, err := url.PathUnescape(base); err == nil {
		base = unescaped
	}
	if base == "" || base == "." || base == "/" {
		return "image.jpg"
	}
	return SanitizeFilename(base)
}

// Disambiguate prefixes filename with the tomb slug, e.g. "kv-9_img1.jpg".
func Disambiguate(filename, tombID string) string {
	return SanitizeFilename(SanitizeComponent(tombID) + "_" + filename)
}

func foldAccents(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
