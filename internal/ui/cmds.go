package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"taskdeck/internal/edit"
	"taskdeck/internal/model"
	"taskdeck/internal/session"
)

type tickMsg time.Time

type loginMsg struct {
	username string
	err      error
}

type registerMsg struct {
	username string
	err      error
}

type refreshedMsg struct{}

type addedMsg struct {
	ref edit.Ref
	err error
}

type mutatedMsg struct {
	verb string
	err  error
}

type savedMsg struct {
	ref edit.Ref
	err error
}

const tickInterval = time.Second

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) loginCmd(username, password string) tea.Cmd {
	ws, ctx := m.ws, m.ctx
	return func() tea.Msg {
		s, err := ws.Session.Login(ctx, username, password)
		return loginMsg{username: s.User.Username, err: err}
	}
}

func (m Model) registerCmd(req session.RegisterRequest) tea.Cmd {
	ws, ctx := m.ws, m.ctx
	return func() tea.Msg {
		return registerMsg{username: req.Username, err: ws.Session.Register(ctx, req)}
	}
}

func (m Model) refreshCmd() tea.Cmd {
	ws, ctx := m.ws, m.ctx
	return func() tea.Msg {
		ws.Refresh(ctx)
		return refreshedMsg{}
	}
}

func (m Model) addCmd(t tab, d edit.Draft) tea.Cmd {
	ws, ctx := m.ws, m.ctx
	return func() tea.Msg {
		var (
			id  model.ID
			err error
		)
		switch t {
		case tabProjects:
			var p model.Project
			if p, err = d.ApplyProject(model.Project{}); err == nil {
				p, err = ws.Projects.Add(ctx, p)
				id = p.ID
			}
		case tabNotes:
			var n model.Note
			if n, err = d.ApplyNote(model.Note{}); err == nil {
				n, err = ws.Notes.Add(ctx, n)
				id = n.ID
			}
		default:
			var task model.Task
			if task, err = d.ApplyTask(model.Task{}); err == nil {
				task, err = ws.Tasks.Add(ctx, task)
				id = task.ID
			}
		}
		return addedMsg{ref: edit.Ref{Kind: t.kind(), ID: id}, err: err}
	}
}

func (m Model) toggleCmd(ref edit.Ref, field string) tea.Cmd {
	ws, ctx := m.ws, m.ctx
	return func() tea.Msg {
		var err error
		switch ref.Kind {
		case model.KindProject:
			_, err = ws.Projects.Toggle(ctx, ref.ID, field)
		case model.KindNote:
			_, err = ws.Notes.Toggle(ctx, ref.ID, field)
		default:
			_, err = ws.Tasks.Toggle(ctx, ref.ID, field)
		}
		return mutatedMsg{verb: "toggle", err: err}
	}
}

func (m Model) removeCmd(ref edit.Ref) tea.Cmd {
	ws, ctx := m.ws, m.ctx
	return func() tea.Msg {
		var err error
		switch ref.Kind {
		case model.KindProject:
			err = ws.Projects.Remove(ctx, ref.ID)
		case model.KindNote:
			err = ws.Notes.Remove(ctx, ref.ID)
		default:
			err = ws.Tasks.Remove(ctx, ref.ID)
		}
		if err == nil && ws.Edit.Editing(ref) {
			ws.Edit.Cancel()
		}
		return mutatedMsg{verb: "delete", err: err}
	}
}

func (m Model) saveEditCmd() tea.Cmd {
	ws, ctx := m.ws, m.ctx
	ref := ws.Edit.State().Ref
	return func() tea.Msg {
		return savedMsg{ref: ref, err: ws.SaveEdit(ctx)}
	}
}
