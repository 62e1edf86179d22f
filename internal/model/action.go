package model

// ActionKind names a per-node action a renderer can trigger from a node widget.
type ActionKind string

const (
	ActionLabel  ActionKind = "label"
	ActionStatus ActionKind = "status"
	ActionDelete ActionKind = "delete"
)

// String returns the string representation of the action kind.
func (a ActionKind) String() string {
	return string(a)
}

// IsValid checks whether the action kind is a known value.
func (a ActionKind) IsValid() bool {
	switch a {
	case ActionLabel, ActionStatus, ActionDelete:
		return true
	}
	return false
}

// NodeAction is a request to run one action against a node.
// Label is read by ActionLabel, Complete by ActionStatus.
type NodeAction struct {
	Kind     ActionKind `json:"action"`
	Label    *string    `json:"label,omitempty"`
	Complete *bool      `json:"complete,omitempty"`
}
