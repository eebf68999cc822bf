// Package view derives the ordered, filtered sequences shown for each
// collection. Every function is pure and leaves its input untouched.
//
// Ordering is applied as filter, then pinned before unpinned, then the sort
// key. A single stable sort with a combined comparator keeps pinned entries
// ahead under every key and preserves input order on ties.
package view

import (
	"cmp"
	"slices"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"taskdeck/internal/model"
)

type SortKey string

const (
	SortNone     SortKey = "none"
	SortDate     SortKey = "date"
	SortPriority SortKey = "priority"
	SortName     SortKey = "name"
)

var sortKeys = []SortKey{SortNone, SortDate, SortPriority, SortName}

// ParseSortKey accepts a key name; blank means none.
func ParseSortKey(v string) (SortKey, bool) {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "" {
		return SortNone, true
	}
	for _, k := range sortKeys {
		if v == string(k) {
			return k, true
		}
	}
	return "", false
}

func (k SortKey) Next() SortKey {
	i := slices.Index(sortKeys, k)
	return sortKeys[(i+1)%len(sortKeys)]
}

type StatusFilter string

const (
	StatusAll       StatusFilter = "all"
	StatusCompleted StatusFilter = "completed"
	StatusPending   StatusFilter = "pending"
)

var statusFilters = []StatusFilter{StatusAll, StatusCompleted, StatusPending}

// ParseStatusFilter accepts a filter name; blank means all.
func ParseStatusFilter(v string) (StatusFilter, bool) {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "" {
		return StatusAll, true
	}
	for _, f := range statusFilters {
		if v == string(f) {
			return f, true
		}
	}
	return "", false
}

func (f StatusFilter) Next() StatusFilter {
	i := slices.Index(statusFilters, f)
	return statusFilters[(i+1)%len(statusFilters)]
}

func (f StatusFilter) match(t model.Task) bool {
	switch f {
	case StatusCompleted:
		return t.Completed
	case StatusPending:
		return !t.Completed
	default:
		return true
	}
}

// CategoryFilter is CategoryAll or one of model.Categories.
type CategoryFilter string

const CategoryAll CategoryFilter = "all"

func categoryFilters() []CategoryFilter {
	out := []CategoryFilter{CategoryAll}
	for _, c := range model.Categories() {
		out = append(out, CategoryFilter(c))
	}
	return out
}

// ParseCategoryFilter accepts "all" or a category name; blank means all.
func ParseCategoryFilter(v string) (CategoryFilter, bool) {
	v = strings.TrimSpace(v)
	if v == "" || strings.EqualFold(v, string(CategoryAll)) {
		return CategoryAll, true
	}
	for _, c := range model.Categories() {
		if strings.EqualFold(v, string(c)) {
			return CategoryFilter(c), true
		}
	}
	return "", false
}

func (f CategoryFilter) Next() CategoryFilter {
	all := categoryFilters()
	i := slices.Index(all, f)
	return all[(i+1)%len(all)]
}

func (f CategoryFilter) match(p model.Project) bool {
	return f == CategoryAll || f == "" || model.Category(f) == p.Category
}

type TaskQuery struct {
	Status StatusFilter
	Search string
	Sort   SortKey
	// Locale is a BCP 47 tag used for name ordering. Blank means English.
	Locale string
}

type ProjectQuery struct {
	Category CategoryFilter
	Search   string
	Sort     SortKey
	Locale   string
}

type NoteQuery struct {
	Search string
	Sort   SortKey
	Locale string
}

// Tasks have no pin concept; only the filter and key steps apply.
func Tasks(items []model.Task, q TaskQuery) []model.Task {
	search := newMatcher(q.Search)
	names := newNameOrder(q.Locale)
	out := keep(items, func(t model.Task) bool {
		return q.Status.match(t) && search.match(t.Text)
	})
	slices.SortStableFunc(out, func(a, b model.Task) int {
		switch q.Sort {
		case SortDate:
			return compareDue(a.DueDate, b.DueDate)
		case SortPriority:
			return cmp.Compare(b.Priority.Rank(), a.Priority.Rank())
		case SortName:
			return names.compare(a.Text, b.Text)
		}
		return 0
	})
	return out
}

// Projects have no due date or priority, so those keys leave order to the
// pin step.
func Projects(items []model.Project, q ProjectQuery) []model.Project {
	search := newMatcher(q.Search)
	names := newNameOrder(q.Locale)
	out := keep(items, func(p model.Project) bool {
		return q.Category.match(p) && search.match(p.Name)
	})
	slices.SortStableFunc(out, func(a, b model.Project) int {
		if c := comparePinned(a.Pinned, b.Pinned); c != 0 {
			return c
		}
		if q.Sort == SortName {
			return names.compare(a.Name, b.Name)
		}
		return 0
	})
	return out
}

func Notes(items []model.Note, q NoteQuery) []model.Note {
	search := newMatcher(q.Search)
	names := newNameOrder(q.Locale)
	out := keep(items, func(n model.Note) bool { return search.match(n.Text) })
	slices.SortStableFunc(out, func(a, b model.Note) int {
		if c := comparePinned(a.Pinned, b.Pinned); c != 0 {
			return c
		}
		if q.Sort == SortName {
			return names.compare(a.Text, b.Text)
		}
		return 0
	})
	return out
}

// keep returns a new slice, so sorting it never reorders the caller's items.
func keep[T any](items []T, pred func(T) bool) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if pred(item) {
			out = append(out, item)
		}
	}
	return out
}

func comparePinned(a, b bool) int {
	switch {
	case a == b:
		return 0
	case a:
		return -1
	default:
		return 1
	}
}

// compareDue orders unset dates before every set date.
func compareDue(a, b model.Date) int {
	switch {
	case !a.Valid && !b.Valid:
		return 0
	case !a.Valid:
		return -1
	case !b.Valid:
		return 1
	default:
		return a.Time.Compare(b.Time)
	}
}

type nameOrder struct {
	col *collate.Collator
}

func newNameOrder(locale string) nameOrder {
	tag, err := language.Parse(locale)
	if err != nil || locale == "" {
		tag = language.English
	}
	return nameOrder{col: collate.New(tag)}
}

func (n nameOrder) compare(a, b string) int {
	return n.col.CompareString(a, b)
}

// matcher is a case-insensitive substring test on NFC-normalised text.
type matcher struct {
	fold   cases.Caser
	needle string
}

func newMatcher(search string) matcher {
	m := matcher{fold: cases.Fold()}
	m.needle = m.normalise(strings.TrimSpace(search))
	return m
}

func (m matcher) match(text string) bool {
	if m.needle == "" {
		return true
	}
	return strings.Contains(m.normalise(text), m.needle)
}

func (m matcher) normalise(s string) string {
	return m.fold.String(norm.NFC.String(s))
}
