package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/wippyai/marshal/inspect"
)

// chrome is the number of rows taken by the title and the footer.
const chrome = 4

type browseModel struct {
	filename string
	lines    []line
	visible  []int
	input    textinput.Model
	vp       viewport.Model
	status   string
	cursor   int
	filter   bool
}

func newBrowseModel(filename string, root *inspect.Node) *browseModel {
	ti := textinput.New()
	ti.Prompt = "/"
	ti.Placeholder = "filter labels"
	ti.Width = 40

	m := &browseModel{
		filename: filename,
		lines:    flatten(root),
		input:    ti,
		vp:       viewport.New(80, 20),
	}
	m.applyFilter()
	return m
}

func (m *browseModel) Init() tea.Cmd {
	return nil
}

func (m *browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.vp.Width = msg.Width
		m.vp.Height = max(msg.Height-chrome, 1)
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		if m.filter {
			return m.updateFilter(msg)
		}
		m.status = ""
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit

		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}

		case "down", "j":
			if m.cursor < len(m.visible)-1 {
				m.cursor++
			}

		case "pgup":
			m.cursor = max(m.cursor-m.vp.Height, 0)

		case "pgdown":
			m.cursor = max(min(m.cursor+m.vp.Height, len(m.visible)-1), 0)

		case "home", "g":
			m.cursor = 0

		case "end", "G":
			m.cursor = max(len(m.visible)-1, 0)

		case "enter":
			m.follow()

		case "/":
			m.filter = true
			return m, m.input.Focus()

		case "esc":
			m.input.SetValue("")
			m.applyFilter()
		}
		m.refresh()
	}
	return m, nil
}

func (m *browseModel) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "enter":
		m.filter = false
		m.input.Blur()
		m.refresh()
		return m, nil
	case "esc":
		m.filter = false
		m.input.Blur()
		m.input.SetValue("")
		m.applyFilter()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.applyFilter()
	return m, cmd
}

// follow moves the cursor to the target of a back-reference.
func (m *browseModel) follow() {
	i, ok := m.selected()
	if !ok {
		return
	}
	target := m.lines[i].node.Target
	if target == nil {
		return
	}
	for pos, idx := range m.visible {
		if m.lines[idx].node == target {
			m.cursor = pos
			m.status = fmt.Sprintf("jumped to #%d", target.Index)
			return
		}
	}
	m.status = fmt.Sprintf("#%d is hidden by the filter", target.Index)
}

func (m *browseModel) selected() (int, bool) {
	if m.cursor < 0 || m.cursor >= len(m.visible) {
		return 0, false
	}
	return m.visible[m.cursor], true
}

func (m *browseModel) applyFilter() {
	q := strings.ToLower(strings.TrimSpace(m.input.Value()))
	m.visible = m.visible[:0]
	for i, l := range m.lines {
		if q == "" || strings.Contains(strings.ToLower(l.node.Label()), q) {
			m.visible = append(m.visible, i)
		}
	}
	if m.cursor >= len(m.visible) {
		m.cursor = max(len(m.visible)-1, 0)
	}
	m.refresh()
}

func (m *browseModel) refresh() {
	var b strings.Builder
	for pos, idx := range m.visible {
		if pos > 0 {
			b.WriteByte('\n')
		}
		l := m.lines[idx]
		if pos == m.cursor {
			b.WriteString(selectedStyle.Render("> " + l.plain()))
		} else {
			b.WriteString("  " + l.styled())
		}
	}
	m.vp.SetContent(b.String())

	if m.cursor < m.vp.YOffset {
		m.vp.SetYOffset(m.cursor)
	} else if m.cursor >= m.vp.YOffset+m.vp.Height {
		m.vp.SetYOffset(m.cursor - m.vp.Height + 1)
	}
}

func (m *browseModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Marshal Browser"))
	b.WriteString(" ")
	b.WriteString(m.filename)
	b.WriteString(fmt.Sprintf(" (%d/%d nodes)", len(m.visible), len(m.lines)))
	b.WriteString("\n\n")

	if len(m.visible) == 0 {
		b.WriteString(errorStyle.Render("no node matches the filter"))
	} else {
		b.WriteString(m.vp.View())
	}
	b.WriteString("\n")

	switch {
	case m.filter:
		b.WriteString(m.input.View())
	case m.status != "":
		b.WriteString(helpStyle.Render(m.status))
	default:
		b.WriteString(helpStyle.Render("↑/↓ move • enter follow @ref • / filter • esc clear • q quit"))
	}
	return b.String()
}

func runBrowser(filename string, root *inspect.Node) error {
	p := tea.NewProgram(newBrowseModel(filename, root), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
