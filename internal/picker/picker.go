// Package picker is the interactive test chooser behind `xconform pick`.
package picker

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ErrCanceled is returned when the user quits without choosing.
var ErrCanceled = errors.New("selection canceled")

// Entry is one selectable test.
type Entry struct {
	Name        string
	Description string
	// Missing lists capabilities the backend lacks; such tests are skipped
	// when run.
	Missing []string
}

// testItem implements list.Item.
type testItem struct {
	entry    Entry
	selected bool
}

func (i testItem) Title() string {
	mark := "[ ] "
	if i.selected {
		mark = "[x] "
	}
	return mark + i.entry.Name
}

func (i testItem) Description() string {
	if len(i.entry.Missing) > 0 {
		return fmt.Sprintf("%s (skipped: missing %s)", i.entry.Description, strings.Join(i.entry.Missing, ", "))
	}
	return i.entry.Description
}

func (i testItem) FilterValue() string { return i.entry.Name }

var helpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).PaddingLeft(2)

// Model is the bubbletea model of the chooser.
type Model struct {
	list     list.Model
	done     bool
	canceled bool
}

// New builds a chooser over entries, none selected.
func New(entries []Entry) Model {
	items := make([]list.Item, 0, len(entries))
	for _, e := range entries {
		items = append(items, testItem{entry: e})
	}

	delegate := list.NewDefaultDelegate()
	delegate.SetSpacing(0)

	l := list.New(items, delegate, 0, 0)
	l.Title = "Conformance tests"
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.DisableQuitKeybindings()

	return Model{list: l}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.list.SetSize(msg.Width, msg.Height-1)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			m.canceled = true
			return m, tea.Quit
		case " ", "x":
			return m, m.toggle(m.list.Index())
		case "a":
			return m, m.toggleAll()
		case "enter":
			if len(m.Selected()) == 0 {
				// Nothing marked: run the highlighted test.
				m.toggle(m.list.Index())
			}
			m.done = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View implements tea.Model.
func (m Model) View() string {
	if m.done || m.canceled {
		return ""
	}
	return m.list.View() + "\n" + helpStyle.Render("space: toggle  a: all  enter: run  q: quit")
}

func (m *Model) toggle(index int) tea.Cmd {
	items := m.list.Items()
	if index < 0 || index >= len(items) {
		return nil
	}
	it := items[index].(testItem)
	it.selected = !it.selected
	return m.list.SetItem(index, it)
}

// toggleAll selects everything, or clears the selection when everything is
// already selected.
func (m *Model) toggleAll() tea.Cmd {
	items := m.list.Items()
	all := len(m.Selected()) == len(items)
	out := make([]list.Item, len(items))
	for i, item := range items {
		it := item.(testItem)
		it.selected = !all
		out[i] = it
	}
	return m.list.SetItems(out)
}

// Selected returns the names of the marked tests in list order.
func (m Model) Selected() []string {
	var names []string
	for _, item := range m.list.Items() {
		if it := item.(testItem); it.selected {
			names = append(names, it.entry.Name)
		}
	}
	return names
}

// Canceled reports whether the user quit without confirming.
func (m Model) Canceled() bool { return m.canceled }

// Run shows the chooser on the terminal and returns the chosen test names.
func Run(entries []Entry) ([]string, error) {
	if len(entries) == 0 {
		return nil, errors.New("no tests to choose from")
	}
	final, err := tea.NewProgram(New(entries), tea.WithAltScreen()).Run()
	if err != nil {
		return nil, err
	}
	m := final.(Model)
	if m.canceled {
		return nil, ErrCanceled
	}
	return m.Selected(), nil
}
