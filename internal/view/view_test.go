package view_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskdeck/internal/model"
	"taskdeck/internal/view"
)

func taskTexts(items []model.Task) []string {
	out := make([]string, len(items))
	for i, t := range items {
		out[i] = t.Text
	}
	return out
}

func noteTexts(items []model.Note) []string {
	out := make([]string, len(items))
	for i, n := range items {
		out[i] = n.Text
	}
	return out
}

func projectNames(items []model.Project) []string {
	out := make([]string, len(items))
	for i, p := range items {
		out[i] = p.Name
	}
	return out
}

func sampleTasks() []model.Task {
	return []model.Task{
		{ID: model.StringID("1"), Text: "pay rent", Priority: model.PriorityHigh, DueDate: model.NewDate(2025, 2, 1)},
		{ID: model.StringID("2"), Text: "Buy milk", Priority: model.PriorityLow, Completed: true},
		{ID: model.StringID("3"), Text: "call mom", Priority: model.PriorityMedium, DueDate: model.NewDate(2025, 1, 15)},
		{ID: model.StringID("4"), Text: "archive mail", Priority: model.PriorityHigh},
		{ID: model.StringID("5"), Text: "book flight", Priority: model.PriorityMedium, DueDate: model.NewDate(2025, 1, 15)},
	}
}

func TestTasks_SortKeys(t *testing.T) {
	cases := []struct {
		key  view.SortKey
		want []string
	}{
		{view.SortNone, []string{"pay rent", "Buy milk", "call mom", "archive mail", "book flight"}},
		{view.SortDate, []string{"Buy milk", "archive mail", "call mom", "book flight", "pay rent"}},
		{view.SortPriority, []string{"pay rent", "archive mail", "call mom", "book flight", "Buy milk"}},
		{view.SortName, []string{"archive mail", "book flight", "Buy milk", "call mom", "pay rent"}},
	}
	for _, tc := range cases {
		t.Run(string(tc.key), func(t *testing.T) {
			got := view.Tasks(sampleTasks(), view.TaskQuery{Sort: tc.key})
			assert.Equal(t, tc.want, taskTexts(got))
		})
	}
}

func TestTasks_StatusAndSearch(t *testing.T) {
	items := sampleTasks()

	pending := view.Tasks(items, view.TaskQuery{Status: view.StatusPending})
	assert.Len(t, pending, 4)
	completed := view.Tasks(items, view.TaskQuery{Status: view.StatusCompleted})
	assert.Equal(t, []string{"Buy milk"}, taskTexts(completed))

	got := view.Tasks(items, view.TaskQuery{Search: "  MIL "})
	assert.Equal(t, []string{"Buy milk"}, taskTexts(got))

	got = view.Tasks(items, view.TaskQuery{Status: view.StatusCompleted, Search: "rent"})
	assert.Empty(t, got)
}

func TestTasks_SearchFoldsCaseAndNormalises(t *testing.T) {
	items := []model.Task{
		{ID: model.StringID("1"), Text: "Kaffee kochen"},
		{ID: model.StringID("2"), Text: "Café besuchen"},
	}
	got := view.Tasks(items, view.TaskQuery{Search: "CAFÉ"})
	assert.Equal(t, []string{"Café besuchen"}, taskTexts(got))

	got = view.Tasks(items, view.TaskQuery{Search: "cafe\u0301"})
	assert.Equal(t, []string{"Café besuchen"}, taskTexts(got))
}

func TestTasks_DoesNotModifyInput(t *testing.T) {
	items := sampleTasks()
	before := append([]model.Task(nil), items...)

	view.Tasks(items, view.TaskQuery{Sort: view.SortName, Status: view.StatusPending})
	assert.Equal(t, before, items)
}

func TestNotes_PinnedFirstUnderName(t *testing.T) {
	items := []model.Note{
		{ID: model.StringID("1"), Text: "b", Pinned: false},
		{ID: model.StringID("2"), Text: "a", Pinned: true},
	}
	got := view.Notes(items, view.NoteQuery{Sort: view.SortName})
	assert.Equal(t, []string{"a", "b"}, noteTexts(got))
}

func TestPinDominatesUnderEveryKey(t *testing.T) {
	notes := []model.Note{
		{ID: model.StringID("1"), Text: "alpha"},
		{ID: model.StringID("2"), Text: "zulu", Pinned: true},
		{ID: model.StringID("3"), Text: "beta"},
		{ID: model.StringID("4"), Text: "yankee", Pinned: true},
	}
	projects := []model.Project{
		{ID: model.StringID("1"), Name: "alpha", Category: model.CategoryWork},
		{ID: model.StringID("2"), Name: "zulu", Category: model.CategorySchool, Pinned: true},
		{ID: model.StringID("3"), Name: "beta", Category: model.CategoryWork},
		{ID: model.StringID("4"), Name: "yankee", Category: model.CategoryPersonal, Pinned: true},
	}
	for _, key := range []view.SortKey{view.SortNone, view.SortDate, view.SortPriority, view.SortName} {
		t.Run(string(key), func(t *testing.T) {
			gotNotes := view.Notes(notes, view.NoteQuery{Sort: key})
			require.Len(t, gotNotes, 4)
			assert.True(t, gotNotes[0].Pinned && gotNotes[1].Pinned)
			assert.False(t, gotNotes[2].Pinned || gotNotes[3].Pinned)

			gotProjects := view.Projects(projects, view.ProjectQuery{Sort: key})
			require.Len(t, gotProjects, 4)
			assert.True(t, gotProjects[0].Pinned && gotProjects[1].Pinned)
			assert.False(t, gotProjects[2].Pinned || gotProjects[3].Pinned)
		})
	}

	assert.Equal(t, []string{"zulu", "yankee", "alpha", "beta"},
		noteTexts(view.Notes(notes, view.NoteQuery{Sort: view.SortDate})))
	assert.Equal(t, []string{"yankee", "zulu", "alpha", "beta"},
		noteTexts(view.Notes(notes, view.NoteQuery{Sort: view.SortName})))
}

func TestProjects_CategoryFilter(t *testing.T) {
	projects := []model.Project{
		{ID: model.StringID("1"), Name: "thesis", Category: model.CategorySchool},
		{ID: model.StringID("2"), Name: "garden", Category: model.CategoryPersonal},
		{ID: model.StringID("3"), Name: "launch", Category: model.CategoryWork},
	}
	got := view.Projects(projects, view.ProjectQuery{Category: view.CategoryFilter(model.CategorySchool)})
	assert.Equal(t, []string{"thesis"}, projectNames(got))

	assert.Len(t, view.Projects(projects, view.ProjectQuery{Category: view.CategoryAll}), 3)
	assert.Len(t, view.Projects(projects, view.ProjectQuery{}), 3)
}

func TestStableOnTies(t *testing.T) {
	items := []model.Task{
		{ID: model.StringID("1"), Text: "x", Priority: model.PriorityLow},
		{ID: model.StringID("2"), Text: "y", Priority: model.PriorityHigh},
		{ID: model.StringID("3"), Text: "z", Priority: model.PriorityLow},
		{ID: model.StringID("4"), Text: "w", Priority: model.PriorityHigh},
	}
	got := view.Tasks(items, view.TaskQuery{Sort: view.SortPriority})
	assert.Equal(t, []string{"y", "w", "x", "z"}, taskTexts(got))
}

func TestNameOrderUsesLocale(t *testing.T) {
	items := []model.Note{
		{ID: model.StringID("1"), Text: "zebra"},
		{ID: model.StringID("2"), Text: "äpfel"},
		{ID: model.StringID("3"), Text: "apfel"},
	}
	got := view.Notes(items, view.NoteQuery{Sort: view.SortName, Locale: "de"})
	assert.Equal(t, []string{"apfel", "äpfel", "zebra"}, noteTexts(got))

	got = view.Notes(items, view.NoteQuery{Sort: view.SortName, Locale: "not a tag"})
	assert.Equal(t, "zebra", got[2].Text)
}

func TestParseAndCycle(t *testing.T) {
	k, ok := view.ParseSortKey(" Name ")
	require.True(t, ok)
	assert.Equal(t, view.SortName, k)
	assert.Equal(t, view.SortNone, k.Next())
	_, ok = view.ParseSortKey("size")
	assert.False(t, ok)

	f, ok := view.ParseStatusFilter("")
	require.True(t, ok)
	assert.Equal(t, view.StatusCompleted, f.Next())

	c, ok := view.ParseCategoryFilter("personal")
	require.True(t, ok)
	assert.Equal(t, view.CategoryFilter(model.CategoryPersonal), c)
	assert.Equal(t, view.CategoryAll, c.Next())
}
