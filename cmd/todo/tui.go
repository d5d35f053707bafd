package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/example/todo-app/client"
	domain "github.com/example/todo-app/domain/todo"
)

// listItem adapts a todo to bubbles/list.Item.
type listItem struct {
	todo domain.Todo
}

func (i listItem) Title() string       { return i.todo.Title }
func (i listItem) Description() string { return i.todo.Description }
func (i listItem) FilterValue() string { return i.todo.Title }

// itemDelegate renders one todo per line.
type itemDelegate struct{}

func (d itemDelegate) Height() int                             { return 1 }
func (d itemDelegate) Spacing() int                            { return 0 }
func (d itemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }
func (d itemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(listItem)
	if !ok {
		return
	}

	box := mutedStyle.Render(boxUnchecked)
	text := it.todo.Title
	if it.todo.Completed {
		box = successStyle.Render(boxChecked)
		text = doneStyle.Render(text)
	}

	prefix := "  "
	if index == m.Index() {
		prefix = selectedStyle.Render("> ")
	}
	fmt.Fprintf(w, "%s%s %s\n", prefix, box, text)
}

type inputMode int

const (
	modeBrowse inputMode = iota
	modeAdd
	modeEdit
)

// resultMsg carries a finished API call back into Update.
type resultMsg client.Result

type keyMap struct {
	Toggle  key.Binding
	Add     key.Binding
	Edit    key.Binding
	Delete  key.Binding
	Refresh key.Binding
	View    key.Binding
	Quit    key.Binding
}

var keys = keyMap{
	Toggle:  key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "toggle")),
	Add:     key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add")),
	Edit:    key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit")),
	Delete:  key.NewBinding(key.WithKeys("x", "d"), key.WithHelp("x", "delete")),
	Refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
	View:    key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "all/today")),
	Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

type modelTUI struct {
	api     *client.Client
	timeout time.Duration
	board   *client.Board
	view    client.View

	list    list.Model
	ti      textinput.Model
	mode    inputMode
	inErr   string
	loading bool
	width   int
	height  int
}

func newModelTUI(api *client.Client, timeout time.Duration) modelTUI {
	l := list.New(nil, itemDelegate{}, 0, 0)
	l.SetShowHelp(true)
	l.SetShowStatusBar(true)
	l.SetShowPagination(true)
	l.SetFilteringEnabled(false)
	l.Styles.Title = titleStyle
	l.Styles.HelpStyle = helpStyle
	l.Styles.PaginationStyle = helpStyle
	l.SetStatusBarItemName("todo", "todos")
	extra := func() []key.Binding {
		return []key.Binding{keys.Toggle, keys.Add, keys.Edit, keys.Delete, keys.Refresh, keys.View}
	}
	l.AdditionalShortHelpKeys = extra
	l.AdditionalFullHelpKeys = extra
	l.KeyMap.Quit = keys.Quit

	ti := textinput.New()
	ti.Prompt = "> "
	ti.CharLimit = domain.MaxTitleLength

	m := modelTUI{
		api:     api,
		timeout: timeout,
		board:   client.NewBoard(),
		view:    client.ViewAll,
		list:    l,
		ti:      ti,
		loading: true,
	}
	m.list.Title = m.header()
	return m
}

func runTUI(api *client.Client, timeout time.Duration) error {
	p := tea.NewProgram(newModelTUI(api, timeout), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

func (m modelTUI) call(op client.Op, fn func(ctx context.Context) (client.Result, error)) tea.Cmd {
	timeout := m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		r, err := fn(ctx)
		r.Op = op
		r.Err = err
		return resultMsg(r)
	}
}

func (m modelTUI) fetch() tea.Cmd {
	return m.call(client.OpList, func(ctx context.Context) (client.Result, error) {
		todos, err := m.api.List(ctx, client.ListOptions{})
		return client.Result{Todos: todos}, err
	})
}

func (m modelTUI) create(title string) tea.Cmd {
	return m.call(client.OpCreate, func(ctx context.Context) (client.Result, error) {
		t, err := m.api.Create(ctx, domain.CreateInput{Title: title})
		return client.Result{Todo: t}, err
	})
}

func (m modelTUI) toggle(t domain.Todo) tea.Cmd {
	return m.call(client.OpUpdate, func(ctx context.Context) (client.Result, error) {
		updated, err := m.api.Toggle(ctx, t)
		return client.Result{Todo: updated}, err
	})
}

func (m modelTUI) rename(id domain.ID, title string) tea.Cmd {
	return m.call(client.OpUpdate, func(ctx context.Context) (client.Result, error) {
		t, err := m.api.Update(ctx, id, domain.Patch{Title: &title})
		return client.Result{Todo: t}, err
	})
}

func (m modelTUI) remove(id domain.ID) tea.Cmd {
	return m.call(client.OpDelete, func(ctx context.Context) (client.Result, error) {
		t, err := m.api.Delete(ctx, id)
		return client.Result{Todo: t}, err
	})
}

func (m modelTUI) Init() tea.Cmd { return m.fetch() }

func (m modelTUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.list.SetSize(m.listWidth(), max(msg.Height-4, 5))
		return m, nil

	case resultMsg:
		m.loading = false
		m.board.Apply(client.Result(msg))
		m.refreshItems()
		return m, nil

	case tea.KeyMsg:
		if m.mode != modeBrowse {
			return m.updateInput(msg)
		}
		return m.updateBrowse(msg)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m modelTUI) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, keys.Refresh):
		m.loading = true
		return m, m.fetch()
	case key.Matches(msg, keys.View):
		m.view = m.view.Next()
		m.refreshItems()
		return m, nil
	case key.Matches(msg, keys.Add):
		m.mode = modeAdd
		m.inErr = ""
		m.ti.Placeholder = "New todo title..."
		m.ti.SetValue("")
		return m, m.ti.Focus()
	}

	sel, ok := m.board.Selected()
	switch {
	case key.Matches(msg, keys.Toggle):
		if ok {
			return m, m.toggle(sel)
		}
		return m, nil
	case key.Matches(msg, keys.Edit):
		if ok {
			m.mode = modeEdit
			m.inErr = ""
			m.ti.SetValue(sel.Title)
			m.ti.CursorEnd()
			return m, m.ti.Focus()
		}
		return m, nil
	case key.Matches(msg, keys.Delete):
		if ok {
			return m, m.remove(sel.ID)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	m.syncSelection()
	return m, cmd
}

func (m modelTUI) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = modeBrowse
		m.ti.Blur()
		m.ti.SetValue("")
		return m, nil
	case "enter":
		title := strings.TrimSpace(m.ti.Value())
		if title == "" {
			m.inErr = "Title cannot be empty"
			return m, nil
		}
		mode := m.mode
		m.mode = modeBrowse
		m.ti.Blur()
		m.ti.SetValue("")
		if mode == modeAdd {
			return m, m.create(title)
		}
		if sel, ok := m.board.Selected(); ok {
			return m, m.rename(sel.ID, title)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.ti, cmd = m.ti.Update(msg)
	return m, cmd
}

// refreshItems rebuilds the list from the board and moves the cursor to the
// board's selection.
func (m *modelTUI) refreshItems() {
	todos := m.board.Todos(m.view)
	items := make([]list.Item, len(todos))
	cursor := -1
	sel, hasSel := m.board.Selected()
	for i, t := range todos {
		items[i] = listItem{todo: t}
		if hasSel && t.ID == sel.ID {
			cursor = i
		}
	}
	m.list.SetItems(items)
	m.list.Title = m.header()

	if cursor >= 0 {
		m.list.Select(cursor)
	}
	m.syncSelection()
}

func (m *modelTUI) syncSelection() {
	if it, ok := m.list.SelectedItem().(listItem); ok {
		m.board.Select(it.todo.ID)
		return
	}
	m.board.Select(0)
}

func (m modelTUI) header() string {
	var done int
	for _, t := range m.board.Todos(client.ViewAll) {
		if t.Completed {
			done++
		}
	}
	all := m.board.Count(client.ViewAll)
	return fmt.Sprintf("%s   %s %d  %s %d  %s %d",
		titleStyle.Render("Todos · "+m.view.String()),
		successStyle.Render("✔"), done,
		pendingStyle.Render("•"), all-done,
		accentStyle.Render("Today"), m.board.Count(client.ViewToday),
	)
}

func (m modelTUI) listWidth() int {
	if m.width <= 0 {
		return 40
	}
	return m.width / 2
}

func (m modelTUI) detail() string {
	t, ok := m.board.Selected()
	if !ok {
		return panelStyle.Render(mutedStyle.Render("Select a todo"))
	}

	status := pendingStyle.Render("pending")
	if t.Completed {
		status = successStyle.Render("completed")
	}
	desc := t.Description
	if desc == "" {
		desc = mutedStyle.Render("No description")
	}
	lines := []string{
		titleStyle.Render(t.Title),
		"",
		desc,
		"",
		fmt.Sprintf("%s %s", mutedStyle.Render("Status: "), status),
		fmt.Sprintf("%s %s", mutedStyle.Render("Created:"), t.CreatedAt.Local().Format(timeLayout)),
		fmt.Sprintf("%s %s", mutedStyle.Render("Updated:"), t.UpdatedAt.Local().Format(timeLayout)),
		mutedStyle.Render("#" + t.ID.String()),
	}
	w := max(m.width-m.listWidth()-4, 20)
	return panelStyle.Width(w).Render(strings.Join(lines, "\n"))
}

func (m modelTUI) View() string {
	body := lipgloss.JoinHorizontal(lipgloss.Top, m.list.View(), m.detail())

	var footer string
	switch {
	case m.mode == modeAdd || m.mode == modeEdit:
		label := "Add todo"
		if m.mode == modeEdit {
			label = "Edit title"
		}
		footer = accentStyle.Render(label) + "  " + m.ti.View() + "  " + helpStyle.Render("enter save · esc cancel")
		if m.inErr != "" {
			footer += "\n" + errorStyle.Render(m.inErr)
		}
	case m.board.Error() != "":
		footer = errorStyle.Render("✖ " + m.board.Error())
	case m.loading:
		footer = mutedStyle.Render("Loading...")
	}
	return body + "\n" + footer
}
