package ui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"taskdeck/internal/config"
	"taskdeck/internal/edit"
	"taskdeck/internal/model"
	"taskdeck/internal/notify"
	"taskdeck/internal/session"
	"taskdeck/internal/view"
	"taskdeck/internal/workspace"
)

type mode int

const (
	modeLogin mode = iota
	modeRegister
	modeList
	modeAdd
	modeEdit
	modeSearch
)

type tab int

const (
	tabTasks tab = iota
	tabProjects
	tabNotes
	tabCount
)

func (t tab) kind() model.Kind {
	switch t {
	case tabProjects:
		return model.KindProject
	case tabNotes:
		return model.KindNote
	default:
		return model.KindTask
	}
}

func (t tab) title() string {
	switch t {
	case tabProjects:
		return "Projects"
	case tabNotes:
		return "Notes"
	default:
		return "Tasks"
	}
}

type Model struct {
	ws     *workspace.Workspace
	cfg    config.Config
	board  *notify.Board
	logger *slog.Logger
	ctx    context.Context
	now    func() time.Time

	mode   mode
	tab    tab
	cursor int
	input  textinput.Model
	form   authForm
	status string
	busy   int

	taskStatus view.StatusFilter
	category   view.CategoryFilter
	sorts      [tabCount]view.SortKey
	search     string

	confirmDel bool
	pendingDel *edit.Ref
	editField  int
	addDraft   edit.Draft
	addField   int
}

// Run starts the program and blocks until the user quits.
func Run(ctx context.Context, ws *workspace.Workspace, cfg config.Config, logger *slog.Logger) error {
	m := New(ctx, ws, cfg, logger)
	_, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}

// New builds the initial model. A restored session starts on the task list;
// otherwise the login form is shown.
func New(ctx context.Context, ws *workspace.Workspace, cfg config.Config, logger *slog.Logger) Model {
	if logger == nil {
		logger = slog.Default()
	}
	ti := textinput.New()
	ti.CharLimit = 256
	ti.Width = 40

	status, _ := view.ParseStatusFilter(cfg.DefaultFilter)
	if status == "" {
		status = view.StatusAll
	}

	m := Model{
		ws:         ws,
		cfg:        cfg,
		board:      notify.NewBoard(cfg.NoticeTTL(), nil),
		logger:     logger.With("component", "ui"),
		ctx:        ctx,
		now:        time.Now,
		input:      ti,
		taskStatus: status,
		category:   view.CategoryAll,
		sorts:      defaultSorts(cfg.DefaultSort),
	}
	if ws.Session.State() == session.Authenticated {
		m.mode = modeList
		m.status = "Loading…"
	} else {
		m.mode = modeLogin
		m.form = newLoginForm()
		m.status = fmt.Sprintf("Log in, or press %s to register.", cfg.Keys.Register)
	}
	return m
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{tick()}
	if m.mode == modeList {
		cmds = append(cmds, m.refreshCmd())
	} else {
		cmds = append(cmds, textinput.Blink)
	}
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		switch m.mode {
		case modeLogin, modeRegister:
			return m.updateAuthMode(msg)
		case modeEdit:
			return m.updateEditMode(msg.String(), msg)
		}
		if m.confirmDel {
			return m.updateDeleteConfirm(msg.String())
		}
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.input.Width = max(msg.Width-10, 10)
		return m, nil
	case tickMsg:
		m.board.Prune()
		return m, tick()
	}
	return m.handleResult(msg)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	switch m.mode {
	case modeAdd:
		return m.updateAddMode(key, msg)
	case modeSearch:
		return m.updateSearchMode(key, msg)
	}
	return m.updateListMode(key)
}

// defaultSorts orders tasks by due date and leaves projects and notes in
// server order, unless the config names one key for every tab.
func defaultSorts(configured string) [tabCount]view.SortKey {
	sorts := [tabCount]view.SortKey{view.SortDate, view.SortNone, view.SortNone}
	if strings.TrimSpace(configured) == "" {
		return sorts
	}
	if k, ok := view.ParseSortKey(configured); ok {
		return [tabCount]view.SortKey{k, k, k}
	}
	return sorts
}

func (m Model) startAdd() Model {
	m.mode = modeAdd
	m.addDraft = edit.Draft{}
	if m.tab == tabProjects && m.category != view.CategoryAll {
		m.addDraft.Category = string(m.category)
	}
	m.addField = 0
	m.input.SetValue("")
	m.input.Placeholder = addPlaceholder(m.tab)
	m.input.EchoMode = textinput.EchoNormal
	m.input.Focus()
	m.status = m.addPrompt()
	return m
}

// updateAddMode cycles through the add form like the edit form. Enter
// submits from any field; fields other than the text are optional.
func (m Model) updateAddMode(key string, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	fields := editFields(m.tab.kind())
	switch key {
	case m.cfg.Keys.Cancel:
		m.mode = modeList
		m.addDraft = edit.Draft{}
		m.addField = 0
		m.input.SetValue("")
		m.input.Blur()
		m.status = "Cancelled"
		return m, nil
	case "tab", "down":
		m.storeAddField()
		m.addField = wrapIndex(m.addField+1, len(fields))
		m.loadAddField()
		return m, nil
	case "shift+tab", "up":
		m.storeAddField()
		m.addField = wrapIndex(m.addField-1, len(fields))
		m.loadAddField()
		return m, nil
	case m.cfg.Keys.Confirm:
		m.storeAddField()
		if strings.TrimSpace(m.addDraft.Text) == "" {
			m.status = "Text cannot be empty"
			return m, nil
		}
		if err := m.addDraft.Validate(m.tab.kind()); err != nil {
			m.status = err.Error()
			return m, nil
		}
		m.busy++
		m.status = "Saving…"
		return m, m.addCmd(m.tab, m.addDraft)
	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
}

func (m Model) updateSearchMode(key string, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key {
	case m.cfg.Keys.Cancel:
		m.search = ""
		m.input.SetValue("")
		m.input.Blur()
		m.mode = modeList
		m.status = "Search cleared"
	case m.cfg.Keys.Confirm:
		m.input.Blur()
		m.mode = modeList
		m.status = searchStatus(m.search)
	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		m.search = m.input.Value()
		m.cursor = clampCursor(m.cursor, m.rowCount())
		return m, cmd
	}
	return m, nil
}

func (m Model) updateListMode(key string) (tea.Model, tea.Cmd) {
	n := m.rowCount()
	switch key {
	case m.cfg.Keys.Quit:
		return m, tea.Quit
	case m.cfg.Keys.Down, "down":
		m.cursor = clampCursor(m.cursor+1, n)
	case m.cfg.Keys.Up, "up":
		m.cursor = clampCursor(m.cursor-1, n)
	case m.cfg.Keys.NextTab, "right":
		m.tab = tab(wrapIndex(int(m.tab)+1, int(tabCount)))
		m.cursor = 0
		m.status = ""
	case m.cfg.Keys.PrevTab, "left":
		m.tab = tab(wrapIndex(int(m.tab)-1, int(tabCount)))
		m.cursor = 0
		m.status = ""
	case m.cfg.Keys.Add:
		return m.startAdd(), nil
	case m.cfg.Keys.Toggle:
		ref, ok := m.selected()
		if !ok {
			return m, nil
		}
		m.busy++
		return m, m.toggleCmd(ref, toggleField(m.tab))
	case m.cfg.Keys.Delete:
		ref, ok := m.selected()
		if !ok {
			return m, nil
		}
		m.confirmDel = true
		m.pendingDel = &ref
		m.status = fmt.Sprintf("Delete %q? y/n", m.selectedLabel())
	case m.cfg.Keys.Edit:
		ref, ok := m.selected()
		if !ok {
			m.status = "Nothing to edit"
			return m, nil
		}
		return m.startEdit(ref)
	case m.cfg.Keys.Filter:
		switch m.tab {
		case tabTasks:
			m.taskStatus = m.taskStatus.Next()
			m.status = "Showing " + string(m.taskStatus) + " tasks"
		case tabProjects:
			m.category = m.category.Next()
			m.status = "Category: " + string(m.category)
		default:
			m.status = "Notes have no filter"
		}
		m.cursor = clampCursor(m.cursor, m.rowCount())
	case m.cfg.Keys.Sort:
		m.sorts[m.tab] = m.sorts[m.tab].Next()
		m.status = "Sort: " + string(m.sorts[m.tab])
	case m.cfg.Keys.Search:
		m.mode = modeSearch
		m.input.SetValue(m.search)
		m.input.Placeholder = "search"
		m.input.EchoMode = textinput.EchoNormal
		m.input.Focus()
		m.status = "Type to search, Enter to keep, Esc to clear"
	case m.cfg.Keys.Dismiss:
		active := m.board.Active()
		if len(active) == 0 {
			return m, nil
		}
		m.board.Dismiss(active[0].ID)
	case m.cfg.Keys.Refresh:
		m.status = "Refreshing…"
		return m, m.refreshCmd()
	case m.cfg.Keys.Logout:
		return m.logout("Logged out"), nil
	}
	return m, nil
}

func (m Model) updateDeleteConfirm(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "n", "N", m.cfg.Keys.Cancel:
		m.status = "Delete cancelled"
		m.confirmDel = false
		m.pendingDel = nil
		return m, nil
	case "y", "Y":
		ref := m.pendingDel
		m.confirmDel = false
		m.pendingDel = nil
		if ref == nil {
			m.status = "Nothing to delete"
			return m, nil
		}
		m.busy++
		m.status = "Deleting…"
		return m, m.removeCmd(*ref)
	default:
		return m, nil
	}
}

func (m Model) startEdit(ref edit.Ref) (tea.Model, tea.Cmd) {
	discarded, err := m.ws.BeginEdit(ref)
	if err != nil {
		m.status = fmt.Sprintf("cannot edit: %v", err)
		return m, nil
	}
	if discarded != nil {
		m.logger.Debug("discarded edit", "kind", discarded.Kind, "id", discarded.ID)
	}
	m.editField = 0
	m.mode = modeEdit
	m.input.EchoMode = textinput.EchoNormal
	m.loadEditField()
	m.input.Focus()
	m.status = m.editPrompt()
	return m, nil
}

func (m Model) updateEditMode(key string, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	fields := editFields(m.tab.kind())
	switch key {
	case m.cfg.Keys.Cancel:
		m.ws.Edit.Cancel()
		m.mode = modeList
		m.input.Blur()
		m.input.SetValue("")
		m.status = "Edit cancelled"
		return m, nil
	case "tab", "down":
		m.storeEditField()
		m.editField = wrapIndex(m.editField+1, len(fields))
		m.loadEditField()
		m.status = m.editPrompt()
		return m, nil
	case "shift+tab", "up":
		m.storeEditField()
		m.editField = wrapIndex(m.editField-1, len(fields))
		m.loadEditField()
		m.status = m.editPrompt()
		return m, nil
	case m.cfg.Keys.Confirm:
		m.storeEditField()
		if m.editField < len(fields)-1 {
			m.editField++
			m.loadEditField()
			m.status = m.editPrompt()
			return m, nil
		}
		m.busy++
		m.status = "Saving…"
		return m, m.saveEditCmd()
	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
}

// handleResult applies the outcome of a finished command.
func (m Model) handleResult(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loginMsg:
		m.busy--
		if msg.err != nil {
			m.status = fmt.Sprintf("Login failed: %v", msg.err)
			return m, nil
		}
		m.mode = modeList
		m.tab = tabTasks
		m.cursor = 0
		m.input.Blur()
		m.input.SetValue("")
		m.input.EchoMode = textinput.EchoNormal
		m.status = "Welcome, " + msg.username
		return m, m.refreshCmd()
	case registerMsg:
		m.busy--
		if msg.err != nil {
			m.status = fmt.Sprintf("Registration failed: %v", msg.err)
			return m, nil
		}
		m.mode = modeLogin
		m.form = newLoginForm()
		m.form.fields[0].SetValue(msg.username)
		m.form.focus(1)
		m.status = "Registered. Log in with your new account."
		return m, nil
	case refreshedMsg:
		m.cursor = clampCursor(m.cursor, m.rowCount())
		if m.status == "Loading…" || m.status == "Refreshing…" {
			m.status = ""
		}
		if err := m.loadError(); err != nil {
			m.status = fmt.Sprintf("Could not load %s: %v", strings.ToLower(m.tab.title()), err)
		}
	case addedMsg:
		m.busy--
		if msg.err != nil {
			m.status = fmt.Sprintf("add failed: %v", msg.err)
			break
		}
		m.mode = modeList
		m.addDraft = edit.Draft{}
		m.addField = 0
		m.input.SetValue("")
		m.input.Blur()
		m.cursor = m.indexOf(msg.ref)
		m.status = "Added"
	case mutatedMsg:
		m.busy--
		if msg.err != nil {
			m.status = fmt.Sprintf("%s failed: %v", msg.verb, msg.err)
			break
		}
		m.cursor = clampCursor(m.cursor, m.rowCount())
		m.status = capitalize(msg.verb) + "d"
	case savedMsg:
		m.busy--
		if msg.err != nil {
			m.status = fmt.Sprintf("save failed: %v", msg.err)
			break
		}
		if !m.ws.Edit.State().Editing && m.mode == modeEdit {
			m.mode = modeList
			m.input.Blur()
			m.input.SetValue("")
		}
		m.cursor = m.indexOf(msg.ref)
		m.status = "Saved"
	default:
		return m, nil
	}
	if m.mode != modeLogin && m.mode != modeRegister && m.ws.Session.State() == session.Anonymous {
		return m.logout("Session expired, please log in again"), nil
	}
	m.board.Sync(notify.Notices(m.ws.Summary(m.now())))
	return m, nil
}

func (m Model) logout(status string) Model {
	m.ws.Logout()
	m.board.Reset()
	m.mode = modeLogin
	m.form = newLoginForm()
	m.tab = tabTasks
	m.cursor = 0
	m.search = ""
	m.confirmDel = false
	m.pendingDel = nil
	m.input.Blur()
	m.input.SetValue("")
	m.status = status
	return m
}

func (m Model) loadError() error {
	switch m.tab {
	case tabProjects:
		return m.ws.Projects.LoadErr()
	case tabNotes:
		return m.ws.Notes.LoadErr()
	default:
		return m.ws.Tasks.LoadErr()
	}
}

func editFields(kind model.Kind) []string {
	switch kind {
	case model.KindTask:
		return []string{"text", "priority (Low/Medium/High)", "due date (YYYY-MM-DD)"}
	case model.KindProject:
		return []string{"name", "category (Work/School/Personal)"}
	default:
		return []string{"text"}
	}
}

func draftValue(d edit.Draft, kind model.Kind, field int) string {
	switch {
	case field == 0:
		return d.Text
	case kind == model.KindTask && field == 1:
		return d.Priority
	case kind == model.KindTask && field == 2:
		return d.DueDate
	case kind == model.KindProject && field == 1:
		return d.Category
	}
	return ""
}

func setDraftValue(d *edit.Draft, kind model.Kind, field int, v string) {
	switch {
	case field == 0:
		d.Text = v
	case kind == model.KindTask && field == 1:
		d.Priority = v
	case kind == model.KindTask && field == 2:
		d.DueDate = v
	case kind == model.KindProject && field == 1:
		d.Category = v
	}
}

func (m *Model) loadEditField() {
	kind := m.tab.kind()
	m.input.SetValue(draftValue(m.ws.Edit.State().Draft, kind, m.editField))
	m.input.Placeholder = editFields(kind)[m.editField]
}

func (m *Model) storeEditField() {
	kind, field, v := m.tab.kind(), m.editField, m.input.Value()
	if err := m.ws.Edit.Set(func(d *edit.Draft) { setDraftValue(d, kind, field, v) }); err != nil {
		m.logger.Debug("draft update ignored", "err", err)
	}
}

func (m *Model) loadAddField() {
	kind := m.tab.kind()
	m.input.SetValue(draftValue(m.addDraft, kind, m.addField))
	m.input.Placeholder = editFields(kind)[m.addField]
	if m.addField == 0 {
		m.input.Placeholder = addPlaceholder(m.tab)
	}
	m.status = m.addPrompt()
}

func (m *Model) storeAddField() {
	setDraftValue(&m.addDraft, m.tab.kind(), m.addField, m.input.Value())
}

func (m Model) addPrompt() string {
	if len(editFields(m.tab.kind())) == 1 {
		return "Add mode: type and press Enter"
	}
	return "Add mode: Enter to save, tab to set " + strings.Join(editFields(m.tab.kind())[1:], ", ")
}

func (m Model) editPrompt() string {
	fields := editFields(m.tab.kind())
	return fmt.Sprintf("Editing %s (field %d of %d). Enter to advance, Esc to cancel, tab to move.",
		fields[m.editField], m.editField+1, len(fields))
}

func addPlaceholder(t tab) string {
	if t == tabProjects {
		return "Project name"
	}
	if t == tabNotes {
		return "Note"
	}
	return "Task"
}

func toggleField(t tab) string {
	if t == tabTasks {
		return model.FieldCompleted
	}
	return model.FieldPinned
}

func searchStatus(q string) string {
	if strings.TrimSpace(q) == "" {
		return "Search cleared"
	}
	return fmt.Sprintf("Filtering by %q", q)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func wrapIndex(idx, n int) int {
	if n <= 0 {
		return 0
	}
	idx %= n
	if idx < 0 {
		idx += n
	}
	return idx
}

func clampCursor(cur, n int) int {
	if n <= 0 {
		return 0
	}
	if cur < 0 {
		return 0
	}
	if cur >= n {
		return n - 1
	}
	return cur
}
