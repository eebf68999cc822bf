package model

type Note struct {
	ID      ID     `json:"id,omitzero"`
	Text    string `json:"text"`
	Pinned  bool   `json:"pinned"`
	OwnerID ID     `json:"user_id,omitzero"`
}

func (n Note) EntityID() ID        { return n.ID }
func (n Note) PrimaryText() string { return n.Text }
func (Note) PrimaryField() string  { return "text" }
func (Note) Resource() string      { return "notes" }

func (n Note) Flip(field string) (Note, error) {
	if field != FieldPinned {
		return n, unknownField(field)
	}
	n.Pinned = !n.Pinned
	return n, nil
}
