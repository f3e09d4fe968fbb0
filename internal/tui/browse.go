// Package tui implements the interactive vault browser: a filterable
// object list with an issues view and a per-object detail pane.
package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/starford/othala/internal/models"
	"github.com/starford/othala/internal/vault"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	paneStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(1, 2)
	dimStyle   = lipgloss.NewStyle().Faint(true)
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
)

type mode int

const (
	modeObjects mode = iota
	modeIssues
	modeDetail
)

// objectItem adapts a vault object to the bubbles list.
type objectItem struct {
	obj *models.Object
}

func (i objectItem) Title() string {
	if i.obj.Title != "" {
		return i.obj.Title
	}
	return i.obj.ID
}

func (i objectItem) Description() string {
	return fmt.Sprintf("%s · %s · %s/%s", i.obj.Project, i.obj.Type, i.obj.SourceID, i.obj.ID)
}

func (i objectItem) FilterValue() string {
	return i.obj.ID + " " + i.obj.Title + " " + i.obj.Project
}

// Model is the browse screen state.
type Model struct {
	state  *vault.State
	list   list.Model
	mode   mode
	detail *models.Object
	width  int
	height int
}

// New builds the browse model over an assembled vault.
func New(state *vault.State) Model {
	items := make([]list.Item, 0, len(state.Objects))
	for _, obj := range state.Objects {
		items = append(items, objectItem{obj: obj})
	}

	l := list.New(items, list.NewDefaultDelegate(), 0, 0)
	l.Title = fmt.Sprintf("Othala — %d objects, %d issues", len(state.Objects), len(state.Issues))
	l.Styles.Title = titleStyle
	l.SetShowStatusBar(true)
	l.AdditionalShortHelpKeys = func() []key.Binding {
		return []key.Binding{
			key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
			key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "issues")),
		}
	}

	return Model{state: state, list: l}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(msg.Width-2, msg.Height-2)
		return m, nil

	case tea.KeyMsg:
		// While the list filter input is active, keys belong to it.
		if m.mode == modeObjects && m.list.FilterState() == list.Filtering {
			break
		}

		switch msg.String() {
		case "ctrl+c", "q":
			if m.mode != modeObjects {
				m.mode = modeObjects
				m.detail = nil
				return m, nil
			}
			return m, tea.Quit
		case "esc":
			if m.mode != modeObjects {
				m.mode = modeObjects
				m.detail = nil
				return m, nil
			}
		case "tab":
			if m.mode == modeIssues {
				m.mode = modeObjects
			} else {
				m.mode = modeIssues
				m.detail = nil
			}
			return m, nil
		case "enter":
			if m.mode == modeObjects {
				if item, ok := m.list.SelectedItem().(objectItem); ok {
					m.mode = modeDetail
					m.detail = item.obj
				}
				return m, nil
			}
		}
	}

	if m.mode == modeObjects {
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	switch m.mode {
	case modeIssues:
		return m.issuesView()
	case modeDetail:
		return m.detailView()
	default:
		return m.list.View()
	}
}

func (m Model) issuesView() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("Issues (%d)", len(m.state.Issues))))
	b.WriteString("\n\n")
	if len(m.state.Issues) == 0 {
		b.WriteString(dimStyle.Render("no issues"))
	}
	for _, iss := range m.state.Issues {
		line := iss.String()
		switch iss.Severity {
		case models.SeverityError:
			line = errStyle.Render(line)
		case models.SeverityWarn:
			line = warnStyle.Render(line)
		default:
			line = dimStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("tab back · q quit"))
	return m.frame(b.String())
}

func (m Model) detailView() string {
	obj := m.detail
	if obj == nil {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(objectItem{obj: obj}.Title()))
	b.WriteString("\n\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("%s/%s · project %s · type %s · visibility %s",
		obj.SourceID, obj.RelPath, obj.Project, obj.Type, obj.Visibility)))
	b.WriteString("\n\n")

	if len(obj.Frontmatter) > 0 {
		keys := make([]string, 0, len(obj.Frontmatter))
		for k := range obj.Frontmatter {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			b.WriteString(fmt.Sprintf("%s: %s\n", k, obj.Frontmatter[k]))
		}
		b.WriteString("\n")
	}

	b.WriteString(obj.Body)
	b.WriteString("\n\n")
	b.WriteString(dimStyle.Render("esc back · q quit"))
	return m.frame(b.String())
}

// frame wraps content in the bordered pane sized to the window.
func (m Model) frame(content string) string {
	style := paneStyle
	if m.width > 4 {
		style = style.Width(m.width - 4)
	}
	return style.Render(content)
}

// Run starts the browse program over the given state and blocks until
// the user quits.
func Run(state *vault.State) error {
	p := tea.NewProgram(New(state), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui: run: %w", err)
	}
	return nil
}
