package model

// ChangeType identifies the kind of an incremental change sent by the renderer.
type ChangeType string

const (
	ChangePosition ChangeType = "position"
	ChangeSelect   ChangeType = "select"
	ChangeRemove   ChangeType = "remove"
)

// String returns the string representation of the change type.
func (c ChangeType) String() string {
	return string(c)
}

// IsValidForNode reports whether the change type applies to nodes.
func (c ChangeType) IsValidForNode() bool {
	switch c {
	case ChangePosition, ChangeSelect, ChangeRemove:
		return true
	}
	return false
}

// IsValidForEdge reports whether the change type applies to edges.
// Edges have no position of their own.
func (c ChangeType) IsValidForEdge() bool {
	switch c {
	case ChangeSelect, ChangeRemove:
		return true
	}
	return false
}

// NodeChange is one entry of a batched node change from the renderer.
// Position is only read for position changes, Selected only for select changes.
type NodeChange struct {
	Type     ChangeType `json:"type"`
	ID       string     `json:"id"`
	Position *Position  `json:"position,omitempty"`
	Selected bool       `json:"selected,omitempty"`
}

// EdgeChange is one entry of a batched edge change from the renderer.
type EdgeChange struct {
	Type     ChangeType `json:"type"`
	ID       string     `json:"id"`
	Selected bool       `json:"selected,omitempty"`
}
