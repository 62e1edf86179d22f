package server

import (
	"net/http"

	"github.com/alfredjeanlab/flowgraph/internal/model"
)

// handleListEdges handles GET /v1/edges.
func (s *FlowServer) handleListEdges(w http.ResponseWriter, _ *http.Request) {
	edges := s.graph.Edges()
	writeJSON(w, http.StatusOK, map[string]any{
		"edges": edges,
		"total": len(edges),
	})
}

// handleConnect handles POST /v1/edges. A new edge answers 201; a
// connection that already exists answers 200 with the existing edge.
func (s *FlowServer) handleConnect(w http.ResponseWriter, r *http.Request) {
	var c model.Connection
	if !decodeBody(w, r, &c) {
		return
	}
	e, created, err := s.connect(r.Context(), actorFrom(r), c)
	if err != nil {
		writeOpError(w, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, e)
}

// handleEdgeChanges handles POST /v1/edges/changes.
func (s *FlowServer) handleEdgeChanges(w http.ResponseWriter, r *http.Request) {
	var changes []model.EdgeChange
	if !decodeBody(w, r, &changes) {
		return
	}
	if err := s.applyEdgeChanges(r.Context(), actorFrom(r), changes); err != nil {
		writeOpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"applied": len(changes)})
}

// handleRemoveEdge handles DELETE /v1/edges/{id}.
func (s *FlowServer) handleRemoveEdge(w http.ResponseWriter, r *http.Request) {
	if err := s.removeEdge(r.Context(), actorFrom(r), r.PathValue("id")); err != nil {
		writeOpError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleConnectEnd handles POST /v1/connect-end: a connection dropped on
// empty canvas creates a node there and links the source to it.
func (s *FlowServer) handleConnectEnd(w http.ResponseWriter, r *http.Request) {
	var in connectEndInput
	if !decodeBody(w, r, &in) {
		return
	}
	n, e, err := s.connectEnd(r.Context(), actorFrom(r), in)
	if err != nil {
		writeOpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"node": n,
		"edge": e,
	})
}
