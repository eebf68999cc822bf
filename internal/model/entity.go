// Package model holds the entities mirrored from the remote authority and
// the session identity.
package model

import "taskdeck/internal/apperr"

// Toggleable boolean fields.
const (
	FieldCompleted = "completed"
	FieldPinned    = "pinned"
)

// Kind names an entity collection.
type Kind string

const (
	KindTask    Kind = "task"
	KindProject Kind = "project"
	KindNote    Kind = "note"
)

// Entity is the contract every mirrored collection element satisfies.
// T is the concrete entity type so Flip can return a modified copy.
type Entity[T any] interface {
	EntityID() ID
	// PrimaryText is the field that must never be blank.
	PrimaryText() string
	// PrimaryField is the JSON name of that field.
	PrimaryField() string
	// Resource is the collection path segment under /api.
	Resource() string
	// Flip returns a copy with the named boolean field inverted.
	Flip(field string) (T, error)
}

func unknownField(field string) error {
	return apperr.Invalid(field, "not a toggleable field")
}
