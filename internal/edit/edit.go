// Package edit tracks the single entity being edited in place and the
// uncommitted values typed so far.
package edit

import (
	"context"
	"strings"
	"sync"

	"taskdeck/internal/apperr"
	"taskdeck/internal/model"
)

// Ref identifies the entity under edit.
type Ref struct {
	Kind model.Kind
	ID   model.ID
}

// Draft holds raw input. Values are parsed only when the draft is saved.
type Draft struct {
	Text     string
	Priority string
	DueDate  string
	Category string
}

func DraftFromTask(t model.Task) Draft {
	return Draft{
		Text:     t.Text,
		Priority: string(t.Priority),
		DueDate:  t.DueDate.String(),
	}
}

func DraftFromProject(p model.Project) Draft {
	return Draft{Text: p.Name, Category: string(p.Category)}
}

func DraftFromNote(n model.Note) Draft {
	return Draft{Text: n.Text}
}

// ApplyTask returns t with the draft's values. Fields the draft does not
// carry are left as committed.
func (d Draft) ApplyTask(t model.Task) (model.Task, error) {
	text, err := d.text()
	if err != nil {
		return t, err
	}
	priority, ok := model.ParsePriority(d.Priority)
	if !ok {
		return t, apperr.Invalid("priority", "must be Low, Medium or High")
	}
	due, err := model.ParseDate(d.DueDate)
	if err != nil {
		return t, apperr.Invalid("dueDate", "must be YYYY-MM-DD")
	}
	t.Text = text
	t.Priority = priority
	t.DueDate = due
	return t, nil
}

func (d Draft) ApplyProject(p model.Project) (model.Project, error) {
	name, err := d.textField("name")
	if err != nil {
		return p, err
	}
	category, ok := model.ParseCategory(d.Category)
	if !ok {
		return p, apperr.Invalid("category", "unknown category")
	}
	p.Name = name
	p.Category = category
	return p, nil
}

func (d Draft) ApplyNote(n model.Note) (model.Note, error) {
	text, err := d.text()
	if err != nil {
		return n, err
	}
	n.Text = text
	return n, nil
}

// Validate checks the draft as it would be applied to an entity of kind.
func (d Draft) Validate(kind model.Kind) error {
	var err error
	switch kind {
	case model.KindTask:
		_, err = d.ApplyTask(model.Task{})
	case model.KindProject:
		_, err = d.ApplyProject(model.Project{})
	case model.KindNote:
		_, err = d.ApplyNote(model.Note{})
	default:
		err = apperr.Invalid("kind", "unknown entity kind "+string(kind))
	}
	return err
}

func (d Draft) text() (string, error) { return d.textField("text") }

func (d Draft) textField(field string) (string, error) {
	v := strings.TrimSpace(d.Text)
	if v == "" {
		return "", apperr.Invalid(field, "must not be empty")
	}
	return v, nil
}

// Snapshot is a copy of the machine's state.
type Snapshot struct {
	Editing bool
	Ref     Ref
	Draft   Draft
}

// Commit persists a validated draft. It is called without the machine's
// lock held.
type Commit func(ctx context.Context, ref Ref, draft Draft) error

// Machine is either idle or editing exactly one entity. The zero value is
// idle and ready to use.
type Machine struct {
	mu      sync.Mutex
	editing bool
	ref     Ref
	draft   Draft
	// gen changes whenever the edit or its draft changes, so a save that
	// finishes late cannot end a newer edit.
	gen uint64
}

// Begin starts editing ref with draft as the initial values. Any other edit
// in progress is discarded and its ref returned.
func (m *Machine) Begin(ref Ref, draft Draft) (discarded *Ref) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.editing && m.ref != ref {
		prev := m.ref
		discarded = &prev
	}
	m.editing = true
	m.ref = ref
	m.draft = draft
	m.gen++
	return discarded
}

// Set changes the draft in place.
func (m *Machine) Set(change func(*Draft)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.editing {
		return apperr.ErrNotEditing
	}
	change(&m.draft)
	m.gen++
	return nil
}

// Cancel discards the draft. It never contacts the server.
func (m *Machine) Cancel() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.editing {
		m.editing = false
		m.ref = Ref{}
		m.draft = Draft{}
		m.gen++
	}
}

// Save validates the draft and hands it to commit. The machine returns to
// idle only when commit succeeds and the same edit is still current; on
// failure the draft is kept so the user can retry or cancel.
func (m *Machine) Save(ctx context.Context, commit Commit) error {
	m.mu.Lock()
	if !m.editing {
		m.mu.Unlock()
		return apperr.ErrNotEditing
	}
	ref, draft, gen := m.ref, m.draft, m.gen
	m.mu.Unlock()

	if err := draft.Validate(ref.Kind); err != nil {
		return err
	}
	if err := commit(ctx, ref, draft); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.editing && m.gen == gen {
		m.editing = false
		m.ref = Ref{}
		m.draft = Draft{}
		m.gen++
	}
	return nil
}

func (m *Machine) State() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Snapshot{Editing: m.editing, Ref: m.ref, Draft: m.draft}
}

// Editing reports whether ref is the entity currently under edit.
func (m *Machine) Editing(ref Ref) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.editing && m.ref == ref
}
