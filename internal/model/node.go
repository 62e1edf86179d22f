package model

import "fmt"

// NodeType is the renderer component name a node is drawn with.
type NodeType string

// NodeTypeApp is the only node type the editor creates.
const NodeTypeApp NodeType = "appNode"

// String returns the string representation of the node type.
func (t NodeType) String() string {
	return string(t)
}

// Position is a 2D canvas coordinate. The graph never interprets it.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// NodeData is the plain payload carried by a node. It never holds behavior;
// node actions are dispatched by node id.
type NodeData struct {
	Label      string `json:"label"`
	IsComplete bool   `json:"isComplete"`
	IsActive   bool   `json:"isActive"`
}

// Node is a unit of work on the canvas.
type Node struct {
	ID       string   `json:"id"`
	Type     NodeType `json:"type"`
	Position Position `json:"position"`
	Data     NodeData `json:"data"`
	Selected bool     `json:"selected,omitempty"`
}

// DefaultLabel returns the label a freshly created node gets.
func DefaultLabel(id string) string {
	return fmt.Sprintf("Node %s", id)
}

// NewNode returns an incomplete node with the default label.
func NewNode(id string, pos Position) Node {
	return Node{
		ID:       id,
		Type:     NodeTypeApp,
		Position: pos,
		Data: NodeData{
			Label: DefaultLabel(id),
		},
	}
}
