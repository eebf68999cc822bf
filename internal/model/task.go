package model

import "strings"

type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

// Rank orders priorities High > Medium > Low. Unknown values rank lowest.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	}
	return 0
}

func (p Priority) Valid() bool { return p.Rank() > 0 }

// Next cycles Low -> Medium -> High -> Low.
func (p Priority) Next() Priority {
	switch p {
	case PriorityLow:
		return PriorityMedium
	case PriorityMedium:
		return PriorityHigh
	}
	return PriorityLow
}

// ParsePriority matches case-insensitively; blank input means Low.
func ParsePriority(v string) (Priority, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return PriorityLow, true
	}
	for _, p := range []Priority{PriorityLow, PriorityMedium, PriorityHigh} {
		if strings.EqualFold(v, string(p)) {
			return p, true
		}
	}
	return "", false
}

type Task struct {
	ID        ID       `json:"id,omitzero"`
	Text      string   `json:"text"`
	Completed bool     `json:"completed"`
	Priority  Priority `json:"priority"`
	DueDate   Date     `json:"dueDate,omitzero"`
	OwnerID   ID       `json:"user_id,omitzero"`
}

func (t Task) EntityID() ID        { return t.ID }
func (t Task) PrimaryText() string { return t.Text }
func (Task) PrimaryField() string  { return "text" }
func (Task) Resource() string      { return "tasks" }

func (t Task) Flip(field string) (Task, error) {
	if field != FieldCompleted {
		return t, unknownField(field)
	}
	t.Completed = !t.Completed
	return t, nil
}
