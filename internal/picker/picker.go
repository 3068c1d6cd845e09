// Package picker is an interactive terminal prompt for choosing a target.
package picker

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// Item is one choice shown by the picker.
type Item struct {
	Name   string
	Detail string
}

type keyMap struct {
	Up     key.Binding
	Down   key.Binding
	Choose key.Binding
	Quit   key.Binding
}

var keys = keyMap{
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "down"),
	),
	Choose: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "run"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "esc", "ctrl+c"),
		key.WithHelp("q", "cancel"),
	),
}

type model struct {
	items  []Item
	cursor int
	chosen string
	done   bool
}

func newModel(items []Item, preselect string) model {
	m := model{items: items}
	for i, item := range items {
		if item.Name == preselect {
			m.cursor = i
		}
	}
	return m
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(keyMsg, keys.Quit):
		m.done = true
		return m, tea.Quit

	case key.Matches(keyMsg, keys.Choose):
		if len(m.items) > 0 {
			m.chosen = m.items[m.cursor].Name
		}
		m.done = true
		return m, tea.Quit

	case key.Matches(keyMsg, keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}

	case key.Matches(keyMsg, keys.Down):
		if m.cursor < len(m.items)-1 {
			m.cursor++
		}
	}

	return m, nil
}

func (m model) View() string {
	if m.done {
		return ""
	}

	var b strings.Builder
	b.WriteString(renderHeader("Select a target"))
	b.WriteString("\n\n")

	if len(m.items) == 0 {
		b.WriteString(unselectedStyle.Render("  no targets configured"))
		b.WriteString("\n")
	}
	for i, item := range m.items {
		b.WriteString(renderOption(i == m.cursor, item.Name))
		if item.Detail != "" {
			b.WriteString("  ")
			b.WriteString(detailStyle.Render(item.Detail))
		}
		b.WriteString("\n")
	}

	b.WriteString(renderStatusBar(fmt.Sprintf("%s • %s • %s • %s",
		helpText(keys.Up), helpText(keys.Down), helpText(keys.Choose), helpText(keys.Quit))))
	b.WriteString("\n")
	return b.String()
}

func helpText(b key.Binding) string {
	h := b.Help()
	return h.Key + " " + h.Desc
}

// Run shows the picker on in/out and returns the chosen target name. Cancelling
// returns "" with a nil error.
func Run(items []Item, preselect string, in io.Reader, out io.Writer) (string, error) {
	program := tea.NewProgram(newModel(items, preselect), tea.WithInput(in), tea.WithOutput(out))
	final, err := program.Run()
	if err != nil {
		return "", fmt.Errorf("target picker failed: %w", err)
	}
	return final.(model).chosen, nil
}
