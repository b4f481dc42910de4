// Package tui is a terminal front end for the post client. It drives the
// same ui.Controller as the browser page: text inputs stand in for the form
// fields, and every network operation runs as a tea.Cmd that reports back
// with a refresh once the controller has applied its result.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/Ratio1/postdesk/internal/ui"
)

// Options tune the terminal front end.
type Options struct {
	// Markdown renders post content with glamour.
	Markdown bool
	Width    int
}

// Input indexes. The hidden post id is not an input; the controller fills it.
const (
	inURL = iota
	inTitle
	inContent
	inAuthor
	inDate
	inUpdateTitle
	inUpdateContent
	inUpdateAuthor
	inUpdateDate
	inputCount
)

var inputFields = [inputCount]string{
	ui.FieldBaseURL,
	ui.FieldTitle, ui.FieldContent, ui.FieldAuthor, ui.FieldDate,
	ui.FieldUpdateTitle, ui.FieldUpdateContent, ui.FieldUpdateAuthor, ui.FieldUpdateDate,
}

var inputLabels = [inputCount]string{
	"API URL",
	"Title", "Content", "Author", "Date",
	"Title", "Content", "Author", "Date",
}

type group int

const (
	groupNone group = iota
	groupURL
	groupAdd
	groupEdit
)

func (g group) inputs() []int {
	switch g {
	case groupURL:
		return []int{inURL}
	case groupAdd:
		return []int{inTitle, inContent, inAuthor, inDate}
	case groupEdit:
		return []int{inUpdateTitle, inUpdateContent, inUpdateAuthor, inUpdateDate}
	}
	return nil
}

// refreshMsg reports that an operation finished and the snapshot changed.
type refreshMsg struct {
	op string
}

// Model is the bubbletea model.
type Model struct {
	ctx      context.Context
	ctrl     *ui.Controller
	state    ui.State
	inputs   []textinput.Model
	group    group
	focus    int // position within group.inputs()
	selected int
	busy     string
	renderer *glamour.TermRenderer
	styles   styles
	width    int
}

// New builds the model. ctx bounds every network operation.
func New(ctx context.Context, ctrl *ui.Controller, opts Options) Model {
	width := opts.Width
	if width <= 0 {
		width = 80
	}
	inputs := make([]textinput.Model, inputCount)
	for i := range inputs {
		ti := textinput.New()
		ti.Prompt = ""
		ti.CharLimit = 2048
		ti.Width = width - 14
		ti.Placeholder = strings.ToLower(inputLabels[i])
		inputs[i] = ti
	}
	inputs[inURL].Placeholder = "http://localhost:5002/api"

	m := Model{
		ctx:    ctx,
		ctrl:   ctrl,
		inputs: inputs,
		styles: defaultStyles(),
		width:  width,
		// Init cannot record this on its value receiver.
		busy: "initialize",
	}
	if opts.Markdown {
		// A renderer that fails to build just means plain text.
		m.renderer, _ = glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(width-6),
		)
	}
	return m
}

// Run starts the program on the terminal and blocks until it exits.
func Run(ctx context.Context, ctrl *ui.Controller, opts Options) error {
	p := tea.NewProgram(New(ctx, ctrl, opts), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

// Init loads the remembered base URL and, if there is one, the posts. The
// "initialize" status is set by New and cleared by the resulting refresh.
func (m Model) Init() tea.Cmd {
	return m.run("initialize", func(ctx context.Context) { m.ctrl.Initialize(ctx) })
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case refreshMsg:
		m.busy = ""
		m.pull()
		if msg.op == "edit_post" && m.state.ShowEdit() {
			m.setFocus(groupEdit, 0)
		} else if !m.state.ShowEdit() && m.group == groupEdit {
			m.blur()
		}
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.group != groupNone {
			return m.updateFocused(msg)
		}
		return m.updateNavigation(msg)
	}
	return m, nil
}

func (m Model) updateNavigation(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "r":
		cmd := m.run("load_posts", m.ctrl.LoadPosts)
		return m, cmd
	case "u":
		m.setFocus(groupURL, 0)
	case "a":
		if m.state.ShowAdd() {
			m.setFocus(groupAdd, 0)
		}
	case "j", "down":
		if m.state.ShowList() && m.selected < len(m.state.Posts)-1 {
			m.selected++
		}
	case "k", "up":
		if m.state.ShowList() && m.selected > 0 {
			m.selected--
		}
	case "e":
		if id, ok := m.selectedID(); ok {
			cmd := m.run("edit_post", func(ctx context.Context) { m.ctrl.EditPost(ctx, id) })
			return m, cmd
		}
	case "d":
		if id, ok := m.selectedID(); ok {
			cmd := m.run("delete_post", func(ctx context.Context) { m.ctrl.DeletePost(ctx, id) })
			return m, cmd
		}
	case "esc":
		if m.state.ShowEdit() {
			m.ctrl.CancelEdit()
			m.pull()
		}
	}
	return m, nil
}

func (m Model) updateFocused(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	members := m.group.inputs()
	switch msg.Type {
	case tea.KeyEsc:
		if m.group == groupEdit {
			m.blur()
			m.ctrl.CancelEdit()
			m.pull()
			return m, nil
		}
		m.blur()
		return m, nil
	case tea.KeyTab, tea.KeyDown:
		m.setFocus(m.group, (m.focus+1)%len(members))
		return m, nil
	case tea.KeyShiftTab, tea.KeyUp:
		m.setFocus(m.group, (m.focus+len(members)-1)%len(members))
		return m, nil
	case tea.KeyEnter:
		submitted := m.group
		m.blur()
		switch submitted {
		case groupURL:
			cmd := m.run("load_posts", m.ctrl.LoadPosts)
			return m, cmd
		case groupAdd:
			cmd := m.run("add_post", m.ctrl.AddPost)
			return m, cmd
		case groupEdit:
			cmd := m.run("update_post", m.ctrl.UpdatePost)
			return m, cmd
		}
		return m, nil
	}

	idx := members[m.focus]
	var cmd tea.Cmd
	m.inputs[idx], cmd = m.inputs[idx].Update(msg)
	return m, cmd
}

// run pushes the inputs into the controller, then returns a command that
// performs fn and reports back with a refresh.
func (m *Model) run(op string, fn func(context.Context)) tea.Cmd {
	m.push()
	m.busy = op
	ctx := m.ctx
	return func() tea.Msg {
		fn(ctx)
		return refreshMsg{op: op}
	}
}

func (m *Model) push() {
	for i, name := range inputFields {
		// Field names are fixed, SetField cannot fail for them.
		_ = m.ctrl.SetField(name, m.inputs[i].Value())
	}
}

func (m *Model) pull() {
	m.state = m.ctrl.Snapshot()
	for i, name := range inputFields {
		v, err := m.state.Field(name)
		if err == nil {
			m.inputs[i].SetValue(v)
		}
	}
	if m.selected >= len(m.state.Posts) {
		m.selected = len(m.state.Posts) - 1
	}
	if m.selected < 0 {
		m.selected = 0
	}
}

func (m *Model) setFocus(g group, pos int) {
	m.blur()
	members := g.inputs()
	if len(members) == 0 {
		return
	}
	m.group = g
	m.focus = pos
	m.inputs[members[pos]].Focus()
}

func (m *Model) blur() {
	for i := range m.inputs {
		m.inputs[i].Blur()
	}
	m.group = groupNone
	m.focus = 0
}

func (m Model) selectedID() (int, bool) {
	if !m.state.ShowList() || len(m.state.Posts) == 0 {
		return 0, false
	}
	return m.state.Posts[m.selected].ID, true
}

// View renders the screen.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(m.styles.Title.Render("Blog posts"))
	b.WriteString("\n")
	b.WriteString(m.field(inURL))
	b.WriteString("\n\n")

	if m.state.ShowAdd() {
		b.WriteString(m.styles.Section.Render("Add a post"))
		b.WriteString("\n")
		for _, idx := range groupAdd.inputs() {
			b.WriteString(m.field(idx))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if m.state.ShowEdit() {
		b.WriteString(m.styles.Section.Render(fmt.Sprintf("Edit post %s", m.state.Edit.PostID)))
		b.WriteString("\n")
		for _, idx := range groupEdit.inputs() {
			b.WriteString(m.field(idx))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if m.state.ShowList() {
		for i, p := range m.state.Posts {
			style := m.styles.Post
			if i == m.selected {
				style = m.styles.Selected
			}
			body := lipgloss.JoinVertical(lipgloss.Left,
				lipgloss.NewStyle().Bold(true).Render(p.Title),
				m.content(p.Content),
				m.styles.Meta.Render("Author: "+p.Author),
				m.styles.Meta.Render("Date: "+p.Date),
			)
			b.WriteString(style.Width(m.width - 4).Render(body))
			b.WriteString("\n")
		}
	}

	if m.busy != "" {
		b.WriteString(m.styles.Status.Render(strings.ReplaceAll(m.busy, "_", " ") + "..."))
		b.WriteString("\n")
	}
	b.WriteString(m.styles.Help.Render(m.help()))
	return b.String()
}

func (m Model) field(idx int) string {
	return m.styles.Label.Render(inputLabels[idx]) + m.inputs[idx].View()
}

func (m Model) content(s string) string {
	if m.renderer == nil || s == "" {
		return s
	}
	out, err := m.renderer.Render(s)
	if err != nil {
		return s
	}
	return strings.TrimSpace(out)
}

func (m Model) help() string {
	switch {
	case m.group != groupNone:
		return "tab next field • enter submit • esc back"
	case m.state.ShowEdit():
		return "esc cancel edit • u url • q quit"
	default:
		return "r load • a add • e edit • d delete • j/k select • u url • q quit"
	}
}
