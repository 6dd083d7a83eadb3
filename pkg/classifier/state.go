package classifier

import (
	"thebanscraper/pkg/texts"
)

// State is the position of the walk relative to the target text.
type State int

const (
	// NoMarkerSeen: nothing naming the text has been read yet
	NoMarkerSeen State = iota
	// MarkerSeenNoSection: the text was named but no section heading is open
	MarkerSeenNoSection
	// InSection: images belong to the open section heading
	InSection
)

func (s State) String() string {
	switch s {
	case NoMarkerSeen:
		return "no-marker-seen"
	case MarkerSeenNoSection:
		return "marker-seen-no-section"
	case InSection:
		return "in-section"
	default:
		return "unknown"
	}
}

// StateMachine assigns section labels to images from the headings and text
// blocks that precede them in document order.
type StateMachine struct {
	text       *texts.TextType
	state      State
	label      texts.SectionLabel
	level      int
	markerSeen bool
}

// NewStateMachine starts in NoMarkerSeen.
func NewStateMachine(text *texts.TextType) *StateMachine {
	return &StateMachine{text: text}
}

// State returns the current state.
func (m *StateMachine) State() State { return m.state }

// Label returns the open section label, empty unless InSection.
func (m *StateMachine) Label() texts.SectionLabel { return m.label }

// Text feeds a block of running text.
func (m *StateMachine) Text(s string) {
	if m.markerSeen || !m.text.HasMarker(s) {
		return
	}
	m.markerSeen = true
	if m.state == NoMarkerSeen {
		m.state = MarkerSeenNoSection
	}
}

// Heading feeds the text of an h1-h6 element of the given level. A heading
// that names no section only closes an open section when it is at the same
// or a higher level than the section heading; deeper headings are
// subdivisions of the section.
func (m *StateMachine) Heading(level int, s string) {
	if label, ok := m.text.MatchSection(s); ok {
		m.state = InSection
		m.label = label
		m.level = level
		return
	}
	if m.text.HasMarker(s) {
		m.markerSeen = true
	}
	if m.state == InSection && level > m.level {
		return
	}

	m.label = ""
	m.level = 0
	if m.markerSeen {
		m.state = MarkerSeenNoSection
	} else {
		m.state = NoMarkerSeen
	}
}

// Image returns the section an image belongs to. A caption naming a section
// wins over the open heading.
func (m *StateMachine) Image(caption string) (texts.SectionLabel, bool) {
	if caption != "" {
		if label, ok := m.text.MatchSection(caption); ok {
			return label, true
		}
	}
	if m.state == InSection {
		return m.label, true
	}
	return "", false
}
