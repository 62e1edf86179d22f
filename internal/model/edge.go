package model

// Edge is a directed dependency: Target is not unblocked until Source is complete.
type Edge struct {
	ID       string `json:"id"`
	Source   string `json:"source"`
	Target   string `json:"target"`
	Selected bool   `json:"selected,omitempty"`
}

// SamePair reports whether e links the same source and target as other.
func (e Edge) SamePair(other Edge) bool {
	return e.Source == other.Source && e.Target == other.Target
}

// IsSelfLoop reports whether the edge points back at its own source.
func (e Edge) IsSelfLoop() bool {
	return e.Source == e.Target
}

// Connection is a request to link two existing nodes.
type Connection struct {
	Source string `json:"source"`
	Target string `json:"target"`
}
