package preview

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"formroute/internal/issue"
)

func testModel() Model {
	router := issue.NewRouter(issue.RoutingTable{
		Labels: map[string]string{
			"Printer problem - IT (Campus)": "itCampus",
			"Spill - Housekeeping":          "housekeeping",
		},
		Recipients: map[string]string{
			"itCampus":     "helpdesk@example.edu",
			"housekeeping": "admin@example.edu",
			"deansOffice":  "dean@example.edu",
		},
		DefaultDepartment: "deansOffice",
		CC:                issue.CCRule{Department: "itCampus", Address: "libtech@example.edu"},
	})
	m := NewModel(router, issue.Formatter{})
	m.now = func() time.Time { return time.Date(2024, 3, 5, 14, 30, 0, 0, time.UTC) }
	return m
}

func press(t *testing.T, m Model, keys ...tea.KeyMsg) Model {
	t.Helper()
	for _, k := range keys {
		next, _ := m.Update(k)
		m = next.(Model)
	}
	return m
}

var (
	space = tea.KeyMsg{Type: tea.KeySpace}
	enter = tea.KeyMsg{Type: tea.KeyEnter}
	down  = tea.KeyMsg{Type: tea.KeyDown}
	tab   = tea.KeyMsg{Type: tea.KeyTab}
)

func runes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

func TestLabelsAreSorted(t *testing.T) {
	m := testModel()
	require.Len(t, m.options, 2)
	assert.Equal(t, "Printer problem - IT (Campus)", m.options[0].label)
	assert.Equal(t, "itCampus", m.options[0].department)
}

func TestToggleAndPreview(t *testing.T) {
	m := press(t, testModel(), space, down, space)
	assert.Equal(t, []string{"Printer problem - IT (Campus)", "Spill - Housekeeping"}, m.Selected())

	m = press(t, m, enter) // to floor list
	assert.Equal(t, stateFloor, m.state)
	m = press(t, m, enter) // first floor, open preview
	assert.Equal(t, statePreview, m.state)
	assert.Equal(t, Floors[0], m.floor)

	r := m.Routing()
	require.Len(t, r.Notifications, 2)
	assert.Equal(t, "libtech@example.edu", r.Notifications[0].CC)
	require.Len(t, m.Messages(), 2)
	assert.Equal(t, "Library Issue Report: Printer problem", m.Messages()[0].Subject)
	assert.Contains(t, m.View(), "helpdesk@example.edu")

	m = press(t, m, tab)
	assert.Equal(t, 1, m.focus)
	assert.Contains(t, m.View(), "admin@example.edu")
	m = press(t, m, tab)
	assert.Equal(t, 0, m.focus)
}

func TestCustomLabelRoutesToDefault(t *testing.T) {
	m := press(t, testModel(), runes("a"))
	require.Equal(t, stateCustom, m.state)

	m = press(t, m, runes("Broken chair"))
	m = press(t, m, enter)
	assert.Equal(t, stateLabels, m.state)
	assert.Equal(t, []string{"Broken chair"}, m.Selected())
	assert.Equal(t, "deansOffice", m.options[len(m.options)-1].department)

	m = press(t, m, enter, enter)
	require.Len(t, m.Routing().Notifications, 1)
	assert.Equal(t, "dean@example.edu", m.Routing().Notifications[0].Recipient)
}

func TestQDoesNotQuitWhileTyping(t *testing.T) {
	m := press(t, testModel(), runes("a"), runes("q"))
	assert.False(t, m.quitting)
	assert.Equal(t, "q", m.input.Value())
}

func TestEmptySelectionPreview(t *testing.T) {
	m := press(t, testModel(), enter, enter)
	assert.True(t, m.Routing().NoSelection)
	assert.Empty(t, m.Messages())
	assert.Contains(t, m.View(), "no notification would be sent")
}
