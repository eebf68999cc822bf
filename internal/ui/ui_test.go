package ui

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskdeck/internal/api"
	"taskdeck/internal/apitest"
	"taskdeck/internal/config"
	"taskdeck/internal/edit"
	"taskdeck/internal/model"
	"taskdeck/internal/notify"
	"taskdeck/internal/session"
	"taskdeck/internal/view"
	"taskdeck/internal/workspace"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func testConfig() config.Config {
	return config.Config{
		DefaultFilter:  "all",
		DefaultSort:    "",
		NoticeDuration: "5s",
		Keys: config.Keymap{
			Quit: "q", Add: "a", Up: "k", Down: "j", NextTab: "tab", PrevTab: "shift+tab",
			Toggle: " ", Edit: "e", Delete: "d", Confirm: "enter", Cancel: "esc",
			Filter: "f", Sort: "s", Search: "/", Dismiss: "x", Refresh: "r",
			Logout: "L", Register: "ctrl+r",
		},
	}
}

func key(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "shift+tab":
		return tea.KeyMsg{Type: tea.KeyShiftTab}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

// press sends keys and returns the command produced by the last one.
func press(m Model, keys ...string) (Model, tea.Cmd) {
	var cmd tea.Cmd
	for _, k := range keys {
		var next tea.Model
		next, cmd = m.Update(key(k))
		m = next.(Model)
	}
	return m, cmd
}

// settle runs cmd and feeds back results until the model stops issuing
// requests. Cursor blinks and ticks are not followed.
func settle(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	for cmd != nil {
		msg := cmd()
		switch msg.(type) {
		case loginMsg, registerMsg, refreshedMsg, addedMsg, mutatedMsg, savedMsg:
		default:
			return m
		}
		var next tea.Model
		next, cmd = m.Update(msg)
		m = next.(Model)
	}
	return m
}

func newTestModel(t *testing.T) (*apitest.Server, *workspace.Workspace, Model) {
	t.Helper()
	srv := apitest.New(t)
	srv.AddUser("ada", "pw", "user")
	srv.Seed("ada", "tasks",
		model.Task{Text: "old", Priority: model.PriorityHigh, DueDate: model.NewDate(2020, 1, 1)},
	)
	ws := workspace.New(api.New(srv.URL), nil, quiet)
	return srv, ws, New(context.Background(), ws, testConfig(), quiet)
}

func login(t *testing.T, m Model) Model {
	t.Helper()
	m, _ = press(m, "ada", "tab", "pw")
	m, cmd := press(m, "enter")
	return settle(t, m, cmd)
}

func TestLoginLoadsWorkspace(t *testing.T) {
	_, ws, m := newTestModel(t)
	require.Equal(t, modeLogin, m.mode)

	m = login(t, m)
	assert.Equal(t, modeList, m.mode)
	assert.Equal(t, session.Authenticated, ws.Session.State())
	assert.Equal(t, 1, m.rowCount())

	active := m.board.Active()
	require.NotEmpty(t, active)
	assert.Equal(t, notify.KindOverdue, active[0].Kind)

	m, _ = press(m, "x")
	assert.Equal(t, notify.KindIncomplete, m.board.Active()[0].Kind)
}

func TestLoginFailureStaysOnForm(t *testing.T) {
	_, ws, m := newTestModel(t)
	m, _ = press(m, "ada", "tab", "nope")
	m, cmd := press(m, "enter")
	m = settle(t, m, cmd)

	assert.Equal(t, modeLogin, m.mode)
	assert.Equal(t, session.Anonymous, ws.Session.State())
	assert.Contains(t, m.status, "Invalid credentials")
}

func TestAddKeepsInputUntilSuccess(t *testing.T) {
	srv, ws, m := newTestModel(t)
	m = login(t, m)

	m, _ = press(m, "a", "new task")
	srv.Fail(http.MethodPost, "tasks", http.StatusInternalServerError, "down")
	m, cmd := press(m, "enter")
	m = settle(t, m, cmd)
	assert.Equal(t, modeAdd, m.mode)
	assert.Equal(t, "new task", m.input.Value())
	assert.Contains(t, m.status, "add failed")

	m, cmd = press(m, "enter")
	m = settle(t, m, cmd)
	assert.Equal(t, modeList, m.mode)
	assert.Empty(t, m.input.Value())
	assert.Equal(t, 2, ws.Tasks.Len())
	ref, ok := m.selected()
	require.True(t, ok)
	got, _ := ws.Tasks.Get(ref.ID)
	assert.Equal(t, "new task", got.Text)
}

func TestAddSetsPriorityAndDueDate(t *testing.T) {
	_, ws, m := newTestModel(t)
	m = login(t, m)

	m, _ = press(m, "a", "plan trip", "tab", "High", "tab", "2030-05-01")
	require.Equal(t, 2, m.addField)
	m, cmd := press(m, "enter")
	m = settle(t, m, cmd)

	assert.Equal(t, modeList, m.mode)
	assert.Equal(t, edit.Draft{}, m.addDraft)
	ref, ok := m.selected()
	require.True(t, ok)
	got, _ := ws.Tasks.Get(ref.ID)
	assert.Equal(t, "plan trip", got.Text)
	assert.Equal(t, model.PriorityHigh, got.Priority)
	assert.Equal(t, model.NewDate(2030, 5, 1), got.DueDate)
}

func TestAddRejectsBadPriorityLocally(t *testing.T) {
	srv, ws, m := newTestModel(t)
	m = login(t, m)
	sent := len(srv.Requests())

	m, _ = press(m, "a", "x", "tab", "urgent")
	m, cmd := press(m, "enter")
	assert.Nil(t, cmd)
	assert.Equal(t, modeAdd, m.mode)
	assert.Contains(t, m.status, "priority")
	assert.Len(t, srv.Requests(), sent)
	assert.Equal(t, 1, ws.Tasks.Len())

	m, _ = press(m, "shift+tab")
	assert.Equal(t, 0, m.addField)
	assert.Equal(t, "x", m.input.Value())
}

func TestDefaultSorts(t *testing.T) {
	assert.Equal(t, [tabCount]view.SortKey{view.SortDate, view.SortNone, view.SortNone}, defaultSorts(""))
	assert.Equal(t, [tabCount]view.SortKey{view.SortName, view.SortName, view.SortName}, defaultSorts("name"))
	assert.Equal(t, [tabCount]view.SortKey{view.SortNone, view.SortNone, view.SortNone}, defaultSorts("none"))
	assert.Equal(t, [tabCount]view.SortKey{view.SortDate, view.SortNone, view.SortNone}, defaultSorts("bogus"))

	_, _, m := newTestModel(t)
	assert.Equal(t, view.SortDate, m.sorts[tabTasks])
	assert.Equal(t, view.SortNone, m.sorts[tabNotes])
}

func TestToggleAndDeleteWithConfirm(t *testing.T) {
	_, ws, m := newTestModel(t)
	m = login(t, m)

	m, cmd := press(m, " ")
	m = settle(t, m, cmd)
	assert.True(t, ws.Tasks.Items()[0].Completed)

	m, _ = press(m, "d")
	require.True(t, m.confirmDel)
	m, _ = press(m, "n")
	assert.Equal(t, 1, ws.Tasks.Len())

	m, _ = press(m, "d")
	m, cmd = press(m, "y")
	m = settle(t, m, cmd)
	assert.Zero(t, ws.Tasks.Len())
	assert.Equal(t, "Deleted", m.status)
}

func TestEditSavesDraft(t *testing.T) {
	_, ws, m := newTestModel(t)
	m = login(t, m)

	m, _ = press(m, "e")
	require.Equal(t, modeEdit, m.mode)
	m.input.SetValue("renamed")
	m, _ = press(m, "enter", "enter")
	m, cmd := press(m, "enter")
	m = settle(t, m, cmd)

	assert.Equal(t, modeList, m.mode)
	assert.Equal(t, "renamed", ws.Tasks.Items()[0].Text)
	assert.False(t, ws.Edit.State().Editing)
}

func TestRevokedTokenReturnsToLogin(t *testing.T) {
	srv, ws, m := newTestModel(t)
	m = login(t, m)

	srv.RevokeTokens()
	m, cmd := press(m, " ")
	m = settle(t, m, cmd)

	assert.Equal(t, modeLogin, m.mode)
	assert.Equal(t, session.Anonymous, ws.Session.State())
	assert.Zero(t, ws.Tasks.Len())
	assert.Empty(t, m.board.Active())
}

func TestTabsFilterAndSearch(t *testing.T) {
	srv, _, m := newTestModel(t)
	srv.Seed("ada", "notes", model.Note{Text: "groceries"}, model.Note{Text: "ideas", Pinned: true})
	m = login(t, m)

	m, _ = press(m, "tab", "tab")
	require.Equal(t, tabNotes, m.tab)
	assert.Equal(t, 2, m.rowCount())
	assert.Equal(t, "ideas", m.selectedLabel())

	m, _ = press(m, "/", "groc")
	assert.Equal(t, 1, m.rowCount())
	m, _ = press(m, "esc")
	assert.Equal(t, 2, m.rowCount())

	m, _ = press(m, "tab")
	require.Equal(t, tabTasks, m.tab)
	m, _ = press(m, "f", "f")
	assert.Equal(t, 1, m.rowCount(), "pending filter keeps the open task")
	m, _ = press(m, "f")
	assert.Equal(t, 1, m.rowCount())
}

func TestWrapIndexAndClampCursor(t *testing.T) {
	assert.Equal(t, 2, wrapIndex(-1, 3))
	assert.Equal(t, 0, wrapIndex(3, 3))
	assert.Equal(t, 0, wrapIndex(5, 0))
	assert.Equal(t, 0, clampCursor(-2, 4))
	assert.Equal(t, 3, clampCursor(9, 4))
	assert.Equal(t, 0, clampCursor(1, 0))
}
