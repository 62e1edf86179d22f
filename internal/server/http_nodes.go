package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/alfredjeanlab/flowgraph/internal/model"
)

// handleListNodes handles GET /v1/nodes.
func (s *FlowServer) handleListNodes(w http.ResponseWriter, _ *http.Request) {
	nodes := s.graph.Nodes()
	writeJSON(w, http.StatusOK, map[string]any{
		"nodes": nodes,
		"total": len(nodes),
	})
}

// handleListActive handles GET /v1/active.
func (s *FlowServer) handleListActive(w http.ResponseWriter, _ *http.Request) {
	nodes := s.graph.ActiveNodes()
	if nodes == nil {
		nodes = []model.Node{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"nodes": nodes,
		"total": len(nodes),
	})
}

// handleGetNode handles GET /v1/nodes/{id}.
func (s *FlowServer) handleGetNode(w http.ResponseWriter, r *http.Request) {
	n, ok := s.graph.Node(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "node not found")
		return
	}
	writeJSON(w, http.StatusOK, n)
}

// handleAddNode handles POST /v1/nodes. The body is optional.
func (s *FlowServer) handleAddNode(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Position *model.Position `json:"position,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	writeJSON(w, http.StatusCreated, s.addNode(r.Context(), actorFrom(r), in.Position))
}

// handleUpdateNode handles PATCH /v1/nodes/{id}.
func (s *FlowServer) handleUpdateNode(w http.ResponseWriter, r *http.Request) {
	var in updateNodeInput
	if !decodeBody(w, r, &in) {
		return
	}
	n, err := s.updateNode(r.Context(), actorFrom(r), r.PathValue("id"), in)
	if err != nil {
		writeOpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

// handleDeleteNode handles DELETE /v1/nodes/{id}.
func (s *FlowServer) handleDeleteNode(w http.ResponseWriter, r *http.Request) {
	if _, err := s.deleteNode(r.Context(), actorFrom(r), r.PathValue("id")); err != nil {
		writeOpError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleNodeAction handles POST /v1/nodes/{id}/actions.
func (s *FlowServer) handleNodeAction(w http.ResponseWriter, r *http.Request) {
	var a model.NodeAction
	if !decodeBody(w, r, &a) {
		return
	}
	resp, err := s.runAction(r.Context(), actorFrom(r), r.PathValue("id"), a)
	if err != nil {
		writeOpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleNodeChanges handles POST /v1/nodes/changes.
func (s *FlowServer) handleNodeChanges(w http.ResponseWriter, r *http.Request) {
	var changes []model.NodeChange
	if !decodeBody(w, r, &changes) {
		return
	}
	if err := s.applyNodeChanges(r.Context(), actorFrom(r), changes); err != nil {
		writeOpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"applied": len(changes)})
}
