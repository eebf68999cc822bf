package model

import "strings"

type Category string

const (
	CategoryWork     Category = "Work"
	CategorySchool   Category = "School"
	CategoryPersonal Category = "Personal"
)

func Categories() []Category {
	return []Category{CategoryWork, CategorySchool, CategoryPersonal}
}

func (c Category) Valid() bool {
	for _, known := range Categories() {
		if c == known {
			return true
		}
	}
	return false
}

// Next cycles Work -> School -> Personal -> Work.
func (c Category) Next() Category {
	all := Categories()
	for i, known := range all {
		if c == known {
			return all[(i+1)%len(all)]
		}
	}
	return CategoryWork
}

// ParseCategory matches case-insensitively; blank input means Work.
func ParseCategory(v string) (Category, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return CategoryWork, true
	}
	for _, c := range Categories() {
		if strings.EqualFold(v, string(c)) {
			return c, true
		}
	}
	return "", false
}

type Project struct {
	ID       ID       `json:"id,omitzero"`
	Name     string   `json:"name"`
	Category Category `json:"category"`
	Pinned   bool     `json:"pinned"`
	OwnerID  ID       `json:"user_id,omitzero"`
}

func (p Project) EntityID() ID        { return p.ID }
func (p Project) PrimaryText() string { return p.Name }
func (Project) PrimaryField() string  { return "name" }
func (Project) Resource() string      { return "projects" }

func (p Project) Flip(field string) (Project, error) {
	if field != FieldPinned {
		return p, unknownField(field)
	}
	p.Pinned = !p.Pinned
	return p, nil
}
