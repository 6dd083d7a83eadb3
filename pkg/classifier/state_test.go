package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"thebanscraper/pkg/texts"
)

func amduat(t *testing.T) *texts.TextType {
	t.Helper()
	text, err := texts.Lookup("amduat")
	require.NoError(t, err)
	return text
}

func TestStateMachineTransitions(t *testing.T) {
	m := NewStateMachine(amduat(t))
	assert.Equal(t, NoMarkerSeen, m.State())

	m.Text("The burial chamber is decorated.")
	assert.Equal(t, NoMarkerSeen, m.State())

	m.Text("Its walls carry the Amduat.")
	assert.Equal(t, MarkerSeenNoSection, m.State())

	m.Heading(2, "Hour 3")
	assert.Equal(t, InSection, m.State())
	assert.Equal(t, texts.SectionLabel("Hour 3"), m.Label())

	m.Heading(2, "Hour 3")
	assert.Equal(t, InSection, m.State())
	assert.Equal(t, texts.SectionLabel("Hour 3"), m.Label())

	m.Heading(2, "Fourth Hour")
	assert.Equal(t, texts.SectionLabel("Hour 4"), m.Label())

	m.Heading(2, "Bibliography")
	assert.Equal(t, MarkerSeenNoSection, m.State())
	assert.Empty(t, m.Label())
}

func TestStateMachineHeadingWithoutMarkerReturnsToStart(t *testing.T) {
	m := NewStateMachine(amduat(t))

	m.Heading(2, "Hour 1")
	assert.Equal(t, InSection, m.State())

	m.Heading(2, "Gallery")
	assert.Equal(t, NoMarkerSeen, m.State())
}

func TestStateMachineMarkerInsideSection(t *testing.T) {
	m := NewStateMachine(amduat(t))

	m.Heading(2, "Hour 2")
	m.Text("Second hour of the Amduat, left wall")
	assert.Equal(t, InSection, m.State())

	m.Heading(2, "Notes")
	assert.Equal(t, MarkerSeenNoSection, m.State())
}

func TestStateMachineSubheadingKeepsSection(t *testing.T) {
	m := NewStateMachine(amduat(t))
	m.Text("The Amduat")

	m.Heading(2, "Hour 3")
	m.Heading(3, "Upper register")
	assert.Equal(t, InSection, m.State())
	assert.Equal(t, texts.SectionLabel("Hour 3"), m.Label())

	m.Heading(4, "Detail")
	assert.Equal(t, texts.SectionLabel("Hour 3"), m.Label())

	m.Heading(3, "Hour 4")
	assert.Equal(t, texts.SectionLabel("Hour 4"), m.Label())

	// The new section was opened at h3, so another h3 closes it
	m.Heading(3, "Lower register")
	assert.Equal(t, MarkerSeenNoSection, m.State())
	assert.Empty(t, m.Label())
}

func TestStateMachineHigherHeadingClosesSection(t *testing.T) {
	m := NewStateMachine(amduat(t))
	m.Text("The Amduat")

	m.Heading(3, "Hour 6")
	m.Heading(2, "Sarcophagus")
	assert.Equal(t, MarkerSeenNoSection, m.State())
}

func TestStateMachineMarkerHeading(t *testing.T) {
	m := NewStateMachine(amduat(t))
	m.Heading(1, "The Amduat")
	assert.Equal(t, MarkerSeenNoSection, m.State())
}

func TestStateMachineImage(t *testing.T) {
	m := NewStateMachine(amduat(t))

	_, ok := m.Image("")
	assert.False(t, ok, "image before any heading")

	label, ok := m.Image("Amduat, seventh hour, detail")
	assert.True(t, ok)
	assert.Equal(t, texts.SectionLabel("Hour 7"), label)

	m.Heading(2, "Hour 5")
	label, ok = m.Image("")
	assert.True(t, ok)
	assert.Equal(t, texts.SectionLabel("Hour 5"), label)

	label, ok = m.Image("Hour 6 upper register")
	assert.True(t, ok)
	assert.Equal(t, texts.SectionLabel("Hour 6"), label)

	// Caption does not move the machine
	assert.Equal(t, texts.SectionLabel("Hour 5"), m.Label())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "no-marker-seen", NoMarkerSeen.String())
	assert.Equal(t, "marker-seen-no-section", MarkerSeenNoSection.String())
	assert.Equal(t, "in-section", InSection.String())
}
