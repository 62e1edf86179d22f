package codec

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/alfredjeanlab/flowgraph/internal/model"
)

func sampleFlow() model.Flow {
	return model.Flow{
		Nodes: []model.Node{
			{ID: "1", Type: model.NodeTypeApp, Position: model.Position{X: 0, Y: 0}, Data: model.NodeData{Label: "Plan", IsComplete: true}},
			{ID: "2", Type: model.NodeTypeApp, Position: model.Position{X: 120, Y: 40.5}, Data: model.NodeData{Label: "Build", IsActive: true}},
		},
		Edges:    []model.Edge{{ID: "e-abc", Source: "1", Target: "2"}},
		Viewport: model.Viewport{X: -10, Y: 25, Zoom: 0.75},
	}
}

func TestJSON_ParseDefaults(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  model.Flow
	}{
		{
			name:  "empty object",
			input: `{}`,
			want:  model.EmptyFlow(),
		},
		{
			name:  "partial viewport keeps given fields",
			input: `{"nodes":[],"viewport":{"x":5}}`,
			want: model.Flow{
				Nodes:    []model.Node{},
				Edges:    []model.Edge{},
				Viewport: model.Viewport{X: 5, Y: 0, Zoom: 1},
			},
		},
		{
			name:  "missing node type defaults to appNode",
			input: `{"nodes":[{"id":"3","position":{"x":1,"y":2},"data":{"label":"x"}}]}`,
			want: model.Flow{
				Nodes: []model.Node{{
					ID:       "3",
					Type:     model.NodeTypeApp,
					Position: model.Position{X: 1, Y: 2},
					Data:     model.NodeData{Label: "x"},
				}},
				Edges:    []model.Edge{},
				Viewport: model.DefaultViewport,
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Unmarshal([]byte(tt.input))
			if err != nil {
				t.Fatalf("Unmarshal: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestJSON_ParseMalformed(t *testing.T) {
	for _, input := range []string{``, `not json`, `{"nodes": 5}`, `{"nodes": []}garbage`, `{} {}`} {
		if _, err := Unmarshal([]byte(input)); err == nil {
			t.Errorf("Unmarshal(%q) succeeded, want error", input)
		}
	}
}

func TestJSON_ParseTrailingWhitespace(t *testing.T) {
	f, err := Unmarshal([]byte("{\"nodes\": []}\n\t "))
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(f.Nodes) != 0 {
		t.Errorf("expected no nodes, got %d", len(f.Nodes))
	}
}

func TestJSON_MarshalShape(t *testing.T) {
	data, err := Marshal(sampleFlow())
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	s := string(data)
	for _, want := range []string{
		`"type":"appNode"`,
		`"data":{"label":"Plan","isComplete":true,"isActive":false}`,
		`"edges":[{"id":"e-abc","source":"1","target":"2"}]`,
		`"viewport":{"x":-10,"y":25,"zoom":0.75}`,
	} {
		if !strings.Contains(s, want) {
			t.Errorf("Marshal output missing %s\n%s", want, s)
		}
	}
	if strings.HasSuffix(s, "\n") {
		t.Error("Marshal output has trailing newline")
	}
}

func TestJSON_MarshalNilCollections(t *testing.T) {
	data, err := Marshal(model.Flow{Viewport: model.DefaultViewport})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !strings.Contains(string(data), `"nodes":[]`) || !strings.Contains(string(data), `"edges":[]`) {
		t.Errorf("nil collections should encode as []: %s", data)
	}
}

func TestJSON_RoundTrip(t *testing.T) {
	data, err := Marshal(sampleFlow())
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	got, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if diff := cmp.Diff(sampleFlow(), got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestYAML_RoundTrip(t *testing.T) {
	c := NewYAMLCodec()
	var buf bytes.Buffer
	if err := c.Export(sampleFlow(), &buf); err != nil {
		t.Fatalf("Export: %v", err)
	}
	if !strings.Contains(buf.String(), "label: Build") {
		t.Errorf("YAML output missing label:\n%s", buf.String())
	}
	got, err := c.Parse(&buf)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if diff := cmp.Diff(sampleFlow(), got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestYAML_ParseHandWritten(t *testing.T) {
	input := `
nodes:
  - id: a
    label: First
  - id: b
    label: Second
    complete: true
edges:
  - id: ab
    source: a
    target: b
`
	got, err := NewYAMLCodec().Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(got.Nodes) != 2 || got.Nodes[0].Type != model.NodeTypeApp || !got.Nodes[1].Data.IsComplete {
		t.Errorf("nodes = %+v", got.Nodes)
	}
	if got.Viewport != model.DefaultViewport {
		t.Errorf("viewport = %+v, want default", got.Viewport)
	}
}

func TestYAML_ParseEmpty(t *testing.T) {
	got, err := NewYAMLCodec().Parse(strings.NewReader(""))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if diff := cmp.Diff(model.EmptyFlow(), got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestForFormat(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want string
	}{
		{"json", "json"},
		{"YAML", "yaml"},
		{"yml", "yaml"},
	} {
		c, err := ForFormat(tc.in)
		if err != nil {
			t.Fatalf("ForFormat(%q): %v", tc.in, err)
		}
		if c.Format() != tc.want {
			t.Errorf("ForFormat(%q).Format() = %q, want %q", tc.in, c.Format(), tc.want)
		}
	}
	if _, err := ForFormat("xml"); err == nil {
		t.Error("ForFormat(xml) succeeded")
	}
}
