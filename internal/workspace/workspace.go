// Package workspace wires the session, the three collection stores and the
// edit machine into the unit the view layer drives.
package workspace

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"taskdeck/internal/api"
	"taskdeck/internal/apperr"
	"taskdeck/internal/edit"
	"taskdeck/internal/model"
	"taskdeck/internal/notify"
	"taskdeck/internal/session"
	"taskdeck/internal/store"
)

type Workspace struct {
	Session  *session.Manager
	Tasks    *store.Store[model.Task]
	Projects *store.Store[model.Project]
	Notes    *store.Store[model.Note]
	Edit     *edit.Machine

	logger *slog.Logger
}

// New builds a workspace over client. state may be nil to keep the session
// in memory only.
func New(client *api.Client, state session.Persister, logger *slog.Logger) *Workspace {
	if logger == nil {
		logger = slog.Default()
	}
	sessions := session.New(client, state, logger)
	return &Workspace{
		Session:  sessions,
		Tasks:    store.New(api.NewResource[model.Task](client), sessions, logger),
		Projects: store.New(api.NewResource[model.Project](client), sessions, logger),
		Notes:    store.New(api.NewResource[model.Note](client), sessions, logger),
		Edit:     &edit.Machine{},
		logger:   logger.With("component", "workspace"),
	}
}

// Refresh loads the three collections in parallel. A collection that fails
// to load is left empty; see each store's LoadErr.
func (w *Workspace) Refresh(ctx context.Context) {
	var g errgroup.Group
	g.Go(func() error { w.Tasks.Load(ctx); return nil })
	g.Go(func() error { w.Projects.Load(ctx); return nil })
	g.Go(func() error { w.Notes.Load(ctx); return nil })
	_ = g.Wait()
	w.logger.Debug("refreshed",
		"tasks", w.Tasks.Len(), "projects", w.Projects.Len(), "notes", w.Notes.Len())
}

// Logout ends the session and forgets everything mirrored under it.
func (w *Workspace) Logout() {
	w.Edit.Cancel()
	w.Session.Logout()
	w.Tasks.Reset()
	w.Projects.Reset()
	w.Notes.Reset()
}

// Summary derives the task statistics at now.
func (w *Workspace) Summary(now time.Time) notify.Summary {
	return notify.Summarize(w.Tasks.Items(), now)
}

// BeginEdit starts editing a mirrored entity with its committed values.
func (w *Workspace) BeginEdit(ref edit.Ref) (discarded *edit.Ref, err error) {
	var (
		draft edit.Draft
		ok    bool
	)
	switch ref.Kind {
	case model.KindTask:
		var t model.Task
		if t, ok = w.Tasks.Get(ref.ID); ok {
			draft = edit.DraftFromTask(t)
		}
	case model.KindProject:
		var p model.Project
		if p, ok = w.Projects.Get(ref.ID); ok {
			draft = edit.DraftFromProject(p)
		}
	case model.KindNote:
		var n model.Note
		if n, ok = w.Notes.Get(ref.ID); ok {
			draft = edit.DraftFromNote(n)
		}
	}
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return w.Edit.Begin(ref, draft), nil
}

// SaveEdit commits the current draft to the store its ref names.
func (w *Workspace) SaveEdit(ctx context.Context) error {
	return w.Edit.Save(ctx, w.commit)
}

func (w *Workspace) commit(ctx context.Context, ref edit.Ref, draft edit.Draft) error {
	switch ref.Kind {
	case model.KindTask:
		return commitTo(ctx, w.Tasks, ref.ID, draft.ApplyTask)
	case model.KindProject:
		return commitTo(ctx, w.Projects, ref.ID, draft.ApplyProject)
	case model.KindNote:
		return commitTo(ctx, w.Notes, ref.ID, draft.ApplyNote)
	}
	return apperr.Invalid("kind", "unknown entity kind "+string(ref.Kind))
}

func commitTo[T model.Entity[T]](ctx context.Context, s *store.Store[T], id model.ID, apply func(T) (T, error)) error {
	current, ok := s.Get(id)
	if !ok {
		return apperr.ErrNotFound
	}
	next, err := apply(current)
	if err != nil {
		return err
	}
	_, err = s.Update(ctx, id, func(T) T { return next })
	return err
}
