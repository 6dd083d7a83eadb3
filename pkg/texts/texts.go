package texts

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// SectionLabel names one subdivision of a funerary text, e.g. "Hour 3".
type SectionLabel string

// TextType describes a funerary text the scraper can collect.
type TextType struct {
	// Key is the command line name
	Key string
	// Name is the display name
	Name string
	// Markers are lower-case name variants that identify the text on a page
	Markers []string
	// Units are the words used for a subdivision, e.g. "hour"
	Units []string
	// Sections is the number of subdivisions
	Sections int
	// LabelPrefix prefixes the section number in a SectionLabel
	LabelPrefix string

	pattern *regexp.Regexp
}

var registry = map[string]*TextType{}

func init() {
	Register(&TextType{
		Key:         "amduat",
		Name:        "Amduat",
		Markers:     []string{"amduat", "imydwat", "imy-dwat", "imy-duat"},
		Units:       []string{"hour"},
		Sections:    12,
		LabelPrefix: "Hour",
	})
	Register(&TextType{
		Key:         "caverns",
		Name:        "Book of Caverns",
		Markers:     []string{"book of caverns", "caverns"},
		Units:       []string{"division", "section", "part"},
		Sections:    6,
		LabelPrefix: "Division",
	})
}

// Register adds t to the registry, replacing any text with the same key.
func Register(t *TextType) {
	t.pattern = compileSectionPattern(t.Units)
	registry[t.Key] = t
}

// Lookup returns the text type registered under key.
func Lookup(key string) (*TextType, error) {
	t, ok := registry[strings.ToLower(strings.TrimSpace(key))]
	if !ok {
		return nil, fmt.Errorf("unknown text type %q (available: %s)", key, strings.Join(Keys(), ", "))
	}
	return t, nil
}

// Keys returns the registered keys in sorted order.
func Keys() []string {
	keys := make([]string, 0, len(registry))
	for k := range registry {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Label returns the SectionLabel for section n.
func (t *TextType) Label(n int) SectionLabel {
	return SectionLabel(fmt.Sprintf("%s %d", t.LabelPrefix, n))
}

// Labels returns every valid label in order.
func (t *TextType) Labels() []SectionLabel {
	labels := make([]SectionLabel, t.Sections)
	for i := range labels {
		labels[i] = t.Label(i + 1)
	}
	return labels
}

// Index returns the zero-based position of label, or -1 if it is not a
// label of this text.
func (t *TextType) Index(label SectionLabel) int {
	for i := 1; i <= t.Sections; i++ {
		if t.Label(i) == label {
			return i - 1
		}
	}
	return -1
}

// HasMarker reports whether text mentions this funerary text.
func (t *TextType) HasMarker(text string) bool {
	lower := strings.ToLower(text)
	for _, m := range t.Markers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

// MatchSection finds the first section reference in text, such as
// "Hour 3", "third hour", "hour III" or "3rd hour". Numbers outside
// 1..Sections are ignored.
func (t *TextType) MatchSection(text string) (SectionLabel, bool) {
	for _, m := range t.pattern.FindAllStringSubmatch(text, -1) {
		token := m[1]
		if token == "" {
			token = m[2]
		}
		n, ok := parseNumber(token)
		if ok && n >= 1 && n <= t.Sections {
			return t.Label(n), true
		}
	}
	return "", false
}

var ordinals = []string{
	"first", "second", "third", "fourth", "fifth", "sixth",
	"seventh", "eighth", "ninth", "tenth", "eleventh", "twelfth",
}

var cardinals = []string{
	"one", "two", "three", "four", "five", "six",
	"seven", "eight", "nine", "ten", "eleven", "twelve",
}

var romans = []string{
	"i", "ii", "iii", "iv", "v", "vi", "vii", "viii", "ix", "x", "xi", "xii",
}

var ordinalSuffix = regexp.MustCompile(`^(\d{1,2})(?:st|nd|rd|th)?$`)

// parseNumber converts a digit, ordinal, cardinal or Roman numeral token.
func parseNumber(token string) (int, bool) {
	token = strings.ToLower(token)
	if m := ordinalSuffix.FindStringSubmatch(token); m != nil {
		n, err := strconv.Atoi(m[1])
		return n, err == nil
	}
	for _, words := range [][]string{ordinals, cardinals, romans} {
		for i, w := range words {
			if w == token {
				return i + 1, true
			}
		}
	}
	return 0, false
}

// compileSectionPattern matches "<number> <unit>" with an ordinal or digit
// and a singular unit ("third hour", "3rd hour"), or "<unit> <number>" with
// any number form ("hour 3", "hour three", "hour III"). A cardinal before a
// plural unit counts sections ("the twelve hours") and never matches.
func compileSectionPattern(units []string) *regexp.Regexp {
	// Longest alternatives first so "xii" is not read as "x".
	ords := byLength(ordinals)
	words := byLength(append(append([]string{}, ordinals...), cardinals...))
	rom := byLength(romans)

	digits := `\d{1,2}(?:st|nd|rd|th)?`
	before := digits + "|" + strings.Join(ords, "|")
	after := digits + "|" + strings.Join(words, "|") + "|" + strings.Join(rom, "|")
	unit := `(?:` + strings.Join(units, "|") + `)`

	return regexp.MustCompile(`(?i)\b(?:(` + before + `)[\s\-]+` + unit + `|` + unit + `s?[\s\-:.]*(` + after + `))\b`)
}

func byLength(words []string) []string {
	out := append([]string{}, words...)
	sort.Slice(out, func(i, j int) bool { return len(out[i]) > len(out[j]) })
	return out
}
