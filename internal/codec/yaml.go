package codec

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/alfredjeanlab/flowgraph/internal/model"
)

// YAMLCodec handles a human-editable YAML rendering of a flow.
type YAMLCodec struct{}

// NewYAMLCodec creates a new YAML codec
func NewYAMLCodec() *YAMLCodec {
	return &YAMLCodec{}
}

// Format returns the codec format identifier
func (c *YAMLCodec) Format() string {
	return "yaml"
}

// yamlFlow represents the YAML structure for a flow
type yamlFlow struct {
	Nodes    []yamlNode    `yaml:"nodes"`
	Edges    []yamlEdge    `yaml:"edges"`
	Viewport *yamlViewport `yaml:"viewport,omitempty"`
}

type yamlNode struct {
	ID       string  `yaml:"id"`
	Type     string  `yaml:"type,omitempty"`
	Label    string  `yaml:"label"`
	X        float64 `yaml:"x"`
	Y        float64 `yaml:"y"`
	Complete bool    `yaml:"complete"`
	Active   bool    `yaml:"active,omitempty"`
}

type yamlEdge struct {
	ID     string `yaml:"id"`
	Source string `yaml:"source"`
	Target string `yaml:"target"`
}

type yamlViewport struct {
	X    float64  `yaml:"x"`
	Y    float64  `yaml:"y"`
	Zoom *float64 `yaml:"zoom,omitempty"`
}

// Parse imports a flow from YAML. Active flags in the input are kept as
// given; the graph recomputes them on load.
func (c *YAMLCodec) Parse(r io.Reader) (model.Flow, error) {
	var yf yamlFlow
	if err := yaml.NewDecoder(r).Decode(&yf); err != nil && err != io.EOF {
		return model.Flow{}, fmt.Errorf("failed to parse YAML: %w", err)
	}

	f := model.EmptyFlow()
	for _, yn := range yf.Nodes {
		n := model.Node{
			ID:       yn.ID,
			Type:     model.NodeType(yn.Type),
			Position: model.Position{X: yn.X, Y: yn.Y},
			Data: model.NodeData{
				Label:      yn.Label,
				IsComplete: yn.Complete,
				IsActive:   yn.Active,
			},
		}
		if n.Type == "" {
			n.Type = model.NodeTypeApp
		}
		f.Nodes = append(f.Nodes, n)
	}
	for _, ye := range yf.Edges {
		f.Edges = append(f.Edges, model.Edge{ID: ye.ID, Source: ye.Source, Target: ye.Target})
	}
	if vp := yf.Viewport; vp != nil {
		f.Viewport.X, f.Viewport.Y = vp.X, vp.Y
		if vp.Zoom != nil {
			f.Viewport.Zoom = *vp.Zoom
		}
	}
	return f, nil
}

// Export writes f as YAML.
func (c *YAMLCodec) Export(f model.Flow, w io.Writer) error {
	yf := yamlFlow{
		Nodes: make([]yamlNode, 0, len(f.Nodes)),
		Edges: make([]yamlEdge, 0, len(f.Edges)),
	}
	for _, n := range f.Nodes {
		yf.Nodes = append(yf.Nodes, yamlNode{
			ID:       n.ID,
			Type:     string(n.Type),
			Label:    n.Data.Label,
			X:        n.Position.X,
			Y:        n.Position.Y,
			Complete: n.Data.IsComplete,
			Active:   n.Data.IsActive,
		})
	}
	for _, e := range f.Edges {
		yf.Edges = append(yf.Edges, yamlEdge{ID: e.ID, Source: e.Source, Target: e.Target})
	}
	zoom := f.Viewport.Zoom
	yf.Viewport = &yamlViewport{X: f.Viewport.X, Y: f.Viewport.Y, Zoom: &zoom}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(yf); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}
	return enc.Close()
}
