// Package preview is an interactive terminal view of how an issue report
// would be routed and what each department would receive.
package preview

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"formroute/internal/issue"
)

// --- Styles ---

var (
	focusedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	titleStyle   = lipgloss.NewStyle().
			Background(lipgloss.Color("62")).
			Foreground(lipgloss.Color("230")).
			Padding(0, 1).
			Bold(true)

	docStyle = lipgloss.NewStyle().Padding(1, 2)

	activeTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			Border(lipgloss.NormalBorder(), false, false, true, false).
			BorderForeground(lipgloss.Color("205")).
			Padding(0, 1)

	inactiveTabStyle = lipgloss.NewStyle().
				Padding(0, 1)

	windowStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1)
)

// --- Types ---

type state int

const (
	stateLabels state = iota
	stateCustom
	stateFloor
	statePreview
)

type item struct {
	title, desc string
}

func (i item) Title() string       { return i.title }
func (i item) Description() string { return i.desc }
func (i item) FilterValue() string { return i.title }

type option struct {
	label      string
	department string
	selected   bool
}

// Floors offered by the preview; any answer is accepted by the router.
var Floors = []string{"Ground Floor", "1st Floor", "2nd Floor", "3rd Floor", "Not sure"}

type Model struct {
	state     state
	router    *issue.Router
	formatter issue.Formatter
	now       func() time.Time

	options []option
	cursor  int
	input   textinput.Model
	floors  list.Model
	floor   string

	routing  issue.Routing
	messages []issue.Message
	focus    int

	quitting bool
	width    int
	height   int
}

func NewModel(router *issue.Router, formatter issue.Formatter) Model {
	table := router.Table()
	opts := make([]option, 0, len(table.Labels))
	for label, dept := range table.Labels {
		opts = append(opts, option{label: label, department: dept})
	}
	sort.Slice(opts, func(i, j int) bool { return opts[i].label < opts[j].label })

	items := make([]list.Item, len(Floors))
	for i, f := range Floors {
		items[i] = item{title: f, desc: "Floor reported on the form"}
	}
	l := list.New(items, list.NewDefaultDelegate(), 60, 14)
	l.Title = "What floor is the problem on?"
	l.SetShowHelp(false)

	ti := textinput.New()
	ti.Placeholder = "Custom issue label (unmapped labels go to the default department)"
	ti.Prompt = "Label: "
	ti.CharLimit = 120

	return Model{
		state:     stateLabels,
		router:    router,
		formatter: formatter,
		now:       time.Now,
		options:   opts,
		input:     ti,
		floors:    l,
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

// Selected lists the checked labels in display order.
func (m Model) Selected() []string {
	var out []string
	for _, o := range m.options {
		if o.selected {
			out = append(out, o.label)
		}
	}
	return out
}

// Routing is the result computed when the preview was opened.
func (m Model) Routing() issue.Routing { return m.routing }

// Messages are the formatted notifications of the current preview.
func (m Model) Messages() []issue.Message { return m.messages }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "q":
			if m.state != stateCustom {
				m.quitting = true
				return m, tea.Quit
			}
		}

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.floors.SetSize(msg.Width-10, msg.Height-15)
	}

	var cmd tea.Cmd

	switch m.state {
	case stateLabels:
		if keyMsg, ok := msg.(tea.KeyMsg); ok {
			switch keyMsg.String() {
			case "up", "k":
				if m.cursor > 0 {
					m.cursor--
				}
			case "down", "j":
				if m.cursor < len(m.options)-1 {
					m.cursor++
				}
			case " ":
				if len(m.options) > 0 {
					m.options[m.cursor].selected = !m.options[m.cursor].selected
				}
			case "a":
				m.state = stateCustom
				m.input.SetValue("")
				cmd = m.input.Focus()
			case "enter":
				m.state = stateFloor
			}
		}

	case stateCustom:
		if keyMsg, ok := msg.(tea.KeyMsg); ok {
			switch keyMsg.String() {
			case "esc":
				m.input.Blur()
				m.state = stateLabels
				return m, nil
			case "enter":
				if label := strings.TrimSpace(m.input.Value()); label != "" {
					m.options = append(m.options, option{
						label:      label,
						department: m.router.Table().Department(label),
						selected:   true,
					})
					m.cursor = len(m.options) - 1
				}
				m.input.Blur()
				m.state = stateLabels
				return m, nil
			}
		}
		m.input, cmd = m.input.Update(msg)

	case stateFloor:
		m.floors, cmd = m.floors.Update(msg)
		if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.String() == "enter" {
			if i, ok := m.floors.SelectedItem().(item); ok {
				m.floor = i.title
			}
			m = m.route()
			m.state = statePreview
		}

	case statePreview:
		if keyMsg, ok := msg.(tea.KeyMsg); ok {
			switch keyMsg.String() {
			case "tab", "right", "l":
				if len(m.messages) > 0 {
					m.focus = (m.focus + 1) % len(m.messages)
				}
			case "shift+tab", "left", "h":
				if len(m.messages) > 0 {
					m.focus = (m.focus + len(m.messages) - 1) % len(m.messages)
				}
			case "b", "esc":
				m.state = stateLabels
			}
		}
	}

	return m, cmd
}

func (m Model) route() Model {
	m.routing = m.router.Route(issue.Report{
		IssueLabels: m.Selected(),
		Floor:       m.floor,
		ReceivedAt:  m.now(),
	})
	m.messages = nil
	for _, n := range m.routing.Notifications {
		m.messages = append(m.messages, m.formatter.Format(n))
	}
	m.focus = 0
	return m
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var s strings.Builder
	s.WriteString(titleStyle.Render(" formroute preview "))
	s.WriteString("\n\n")

	tabs := []string{"Issues", "Floor", "Notifications"}
	current := map[state]int{stateLabels: 0, stateCustom: 0, stateFloor: 1, statePreview: 2}[m.state]
	rendered := make([]string, len(tabs))
	for i, t := range tabs {
		if i == current {
			rendered[i] = activeTabStyle.Render(t)
		} else {
			rendered[i] = inactiveTabStyle.Render(t)
		}
	}
	s.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, rendered...))
	s.WriteString("\n\n")

	var content, help string
	switch m.state {
	case stateLabels:
		content = m.labelsView()
		help = "q: quit • ↑/↓: navigate • space: toggle • a: add label • enter: continue"
	case stateCustom:
		content = "\n" + m.input.View() + "\n"
		help = "enter: add • esc: cancel"
	case stateFloor:
		content = m.floors.View()
		help = "q: quit • ↑/↓: navigate • enter: preview"
	case statePreview:
		content = m.previewView()
		help = "q: quit • tab/←/→: switch notification • b: back"
	}

	width, height := m.width-10, m.height-15
	if width <= 0 {
		width = 80
	}
	if height <= 0 {
		height = 20
	}
	s.WriteString(windowStyle.Width(width).Height(height).Render(content))
	s.WriteString("\n\n" + helpStyle.Render(help))

	return docStyle.Render(s.String())
}

func (m Model) labelsView() string {
	var b strings.Builder
	b.WriteString("Select the problems to report.\n\n")
	for i, o := range m.options {
		cursor := " "
		if m.cursor == i {
			cursor = ">"
		}
		checked := " "
		if o.selected {
			checked = "x"
		}
		line := fmt.Sprintf("%s [%s] %s  → %s", cursor, checked, o.label, o.department)
		if m.cursor == i {
			b.WriteString(focusedStyle.Render(line) + "\n")
		} else {
			b.WriteString(line + "\n")
		}
	}
	return b.String()
}

func (m Model) previewView() string {
	var b strings.Builder
	if m.routing.NoSelection {
		b.WriteString(warnStyle.Render("No issue type selected: no notification would be sent.") + "\n")
		return b.String()
	}
	for _, u := range m.routing.Unroutable {
		b.WriteString(warnStyle.Render(fmt.Sprintf("Skipped %s: %s", u.Bucket.Department, u.Reason)) + "\n")
	}
	if len(m.messages) == 0 {
		return b.String()
	}

	n := m.routing.Notifications[m.focus]
	msg := m.messages[m.focus]
	fmt.Fprintf(&b, "Notification %d of %d\n", m.focus+1, len(m.messages))
	fmt.Fprintf(&b, "To:      %s\n", n.Recipient)
	if n.CC != "" {
		fmt.Fprintf(&b, "Cc:      %s\n", n.CC)
	}
	fmt.Fprintf(&b, "Subject: %s\n\n", focusedStyle.Render(msg.Subject))
	b.WriteString(msg.Body)
	return b.String()
}

// --- Runner ---

func Run(router *issue.Router, formatter issue.Formatter) error {
	p := tea.NewProgram(NewModel(router, formatter), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
