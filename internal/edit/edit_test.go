package edit_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskdeck/internal/apperr"
	"taskdeck/internal/edit"
	"taskdeck/internal/model"
)

var (
	taskRef    = edit.Ref{Kind: model.KindTask, ID: model.StringID("1")}
	projectRef = edit.Ref{Kind: model.KindProject, ID: model.StringID("7")}
)

func okCommit(calls *int) edit.Commit {
	return func(context.Context, edit.Ref, edit.Draft) error {
		*calls++
		return nil
	}
}

func TestMachine_IdleRejectsDraftOperations(t *testing.T) {
	var m edit.Machine
	assert.False(t, m.State().Editing)
	assert.ErrorIs(t, m.Set(func(d *edit.Draft) { d.Text = "x" }), apperr.ErrNotEditing)

	calls := 0
	assert.ErrorIs(t, m.Save(context.Background(), okCommit(&calls)), apperr.ErrNotEditing)
	assert.Zero(t, calls)

	m.Cancel()
	assert.False(t, m.State().Editing)
}

func TestMachine_BeginReplacesOtherEdit(t *testing.T) {
	var m edit.Machine
	assert.Nil(t, m.Begin(taskRef, edit.Draft{Text: "a"}))
	assert.Nil(t, m.Begin(taskRef, edit.Draft{Text: "a again"}))

	discarded := m.Begin(projectRef, edit.Draft{Text: "p"})
	require.NotNil(t, discarded)
	assert.Equal(t, taskRef, *discarded)
	assert.True(t, m.Editing(projectRef))
	assert.False(t, m.Editing(taskRef))
	assert.Equal(t, "p", m.State().Draft.Text)
}

func TestMachine_CancelDiscardsDraft(t *testing.T) {
	var m edit.Machine
	m.Begin(taskRef, edit.Draft{Text: "a"})
	require.NoError(t, m.Set(func(d *edit.Draft) { d.Text = "changed" }))

	m.Cancel()
	s := m.State()
	assert.False(t, s.Editing)
	assert.Equal(t, edit.Draft{}, s.Draft)
}

func TestMachine_SaveSuccessReturnsToIdle(t *testing.T) {
	var m edit.Machine
	m.Begin(taskRef, edit.Draft{Text: "a", Priority: "High", DueDate: "2025-01-02"})

	var got edit.Draft
	err := m.Save(context.Background(), func(_ context.Context, ref edit.Ref, d edit.Draft) error {
		assert.Equal(t, taskRef, ref)
		got = d
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "High", got.Priority)
	assert.False(t, m.State().Editing)
}

func TestMachine_SaveFailureKeepsEditing(t *testing.T) {
	var m edit.Machine
	m.Begin(taskRef, edit.Draft{Text: "a"})

	boom := errors.New("boom")
	err := m.Save(context.Background(), func(context.Context, edit.Ref, edit.Draft) error { return boom })
	assert.ErrorIs(t, err, boom)

	s := m.State()
	assert.True(t, s.Editing)
	assert.Equal(t, "a", s.Draft.Text)
}

func TestMachine_SaveValidatesBeforeCommit(t *testing.T) {
	cases := []struct {
		name  string
		ref   edit.Ref
		draft edit.Draft
		field string
	}{
		{"blank text", taskRef, edit.Draft{Text: "  "}, "text"},
		{"bad date", taskRef, edit.Draft{Text: "a", DueDate: "tomorrow"}, "dueDate"},
		{"bad priority", taskRef, edit.Draft{Text: "a", Priority: "urgent"}, "priority"},
		{"blank project name", projectRef, edit.Draft{}, "name"},
		{"bad category", projectRef, edit.Draft{Text: "p", Category: "Hobby"}, "category"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var m edit.Machine
			m.Begin(tc.ref, tc.draft)
			calls := 0
			err := m.Save(context.Background(), okCommit(&calls))

			var verr *apperr.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tc.field, verr.Field)
			assert.Zero(t, calls)
			assert.True(t, m.State().Editing)
		})
	}
}

func TestMachine_LateSaveDoesNotEndNewerEdit(t *testing.T) {
	var m edit.Machine
	m.Begin(taskRef, edit.Draft{Text: "a"})

	err := m.Save(context.Background(), func(context.Context, edit.Ref, edit.Draft) error {
		m.Begin(projectRef, edit.Draft{Text: "p"})
		return nil
	})
	require.NoError(t, err)
	assert.True(t, m.Editing(projectRef))

	err = m.Save(context.Background(), func(context.Context, edit.Ref, edit.Draft) error {
		return m.Set(func(d *edit.Draft) { d.Text = "typed during save" })
	})
	require.NoError(t, err)
	s := m.State()
	assert.True(t, s.Editing)
	assert.Equal(t, "typed during save", s.Draft.Text)
}

func TestDraft_ApplyKeepsUncarriedFields(t *testing.T) {
	task := model.Task{ID: model.StringID("3"), Text: "old", Completed: true, Priority: model.PriorityLow, OwnerID: model.StringID("9")}
	d := edit.DraftFromTask(task)
	d.Text = "  new  "
	d.Priority = "medium"
	d.DueDate = "2025-06-30"

	got, err := d.ApplyTask(task)
	require.NoError(t, err)
	assert.Equal(t, model.Task{
		ID:        model.StringID("3"),
		Text:      "new",
		Completed: true,
		Priority:  model.PriorityMedium,
		DueDate:   model.NewDate(2025, 6, 30),
		OwnerID:   model.StringID("9"),
	}, got)

	project := model.Project{ID: model.StringID("4"), Name: "p", Category: model.CategorySchool, Pinned: true}
	pd := edit.DraftFromProject(project)
	assert.Equal(t, "School", pd.Category)
	pd.Category = ""
	gotProject, err := pd.ApplyProject(project)
	require.NoError(t, err)
	assert.Equal(t, model.CategoryWork, gotProject.Category)
	assert.True(t, gotProject.Pinned)

	note := model.Note{ID: model.StringID("5"), Text: "n", Pinned: true}
	gotNote, err := edit.DraftFromNote(note).ApplyNote(note)
	require.NoError(t, err)
	assert.Equal(t, note, gotNote)
}
