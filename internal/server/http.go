package server

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/alfredjeanlab/flowgraph/internal/graph"
	"github.com/alfredjeanlab/flowgraph/internal/model"
)

// HeaderActor names who made a change. It is recorded on stored events.
const HeaderActor = "X-Flow-Actor"

// NewHTTPHandler returns an http.Handler with all routes registered.
// When authToken is non-empty, requests (except GET /v1/health) must include
// a valid Authorization: Bearer <token> header.
func (s *FlowServer) NewHTTPHandler(authToken string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/health", s.handleHealth)
	mux.HandleFunc("GET /v1/flow", s.handleGetFlow)
	mux.HandleFunc("PUT /v1/flow", s.handleReplaceFlow)
	mux.HandleFunc("DELETE /v1/flow", s.handleClearFlow)
	mux.HandleFunc("POST /v1/restore", s.handleRestore)
	mux.HandleFunc("GET /v1/stats", s.handleGetStats)
	mux.HandleFunc("GET /v1/nodes", s.handleListNodes)
	mux.HandleFunc("POST /v1/nodes", s.handleAddNode)
	mux.HandleFunc("POST /v1/nodes/changes", s.handleNodeChanges)
	mux.HandleFunc("GET /v1/nodes/{id}", s.handleGetNode)
	mux.HandleFunc("PATCH /v1/nodes/{id}", s.handleUpdateNode)
	mux.HandleFunc("DELETE /v1/nodes/{id}", s.handleDeleteNode)
	mux.HandleFunc("POST /v1/nodes/{id}/actions", s.handleNodeAction)
	mux.HandleFunc("GET /v1/edges", s.handleListEdges)
	mux.HandleFunc("POST /v1/edges", s.handleConnect)
	mux.HandleFunc("POST /v1/edges/changes", s.handleEdgeChanges)
	mux.HandleFunc("DELETE /v1/edges/{id}", s.handleRemoveEdge)
	mux.HandleFunc("POST /v1/connect-end", s.handleConnectEnd)
	mux.HandleFunc("POST /v1/reset", s.handleReset)
	mux.HandleFunc("PUT /v1/viewport", s.handleSetViewport)
	mux.HandleFunc("GET /v1/active", s.handleListActive)
	mux.HandleFunc("GET /v1/events", s.handleListEvents)
	mux.HandleFunc("GET /v1/events/stream", s.handleEventStream)
	mux.HandleFunc("GET /v1/presence", s.handlePresence)
	return LoggingMiddleware(s.logger, RecoveryMiddleware(s.logger, AuthMiddleware(authToken, mux)))
}

// healthResponse is the body of GET /v1/health. Status is "degraded" when
// the store cannot be read; edits still apply in memory then but are not
// saved.
type healthResponse struct {
	Status  string          `json:"status"`
	FlowKey string          `json:"flow_key"`
	Saved   bool            `json:"saved"`
	Stats   model.FlowStats `json:"stats"`
	Error   string          `json:"error,omitempty"`
}

// handleHealth handles GET /v1/health.
func (s *FlowServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:  "ok",
		FlowKey: s.persister.Key(),
		Stats:   s.graph.Snapshot().Stats(),
	}
	_, err := s.store.GetFlow(r.Context(), s.persister.Key())
	switch {
	case err == nil:
		resp.Saved = true
	case !errors.Is(err, sql.ErrNoRows):
		resp.Status = "degraded"
		resp.Error = err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

func actorFrom(r *http.Request) string {
	return r.Header.Get(HeaderActor)
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeOpError maps an operation error to a status code.
func writeOpError(w http.ResponseWriter, err error) {
	var (
		ie inputError
		ve *model.ValidationError
	)
	switch {
	case errors.As(err, &ie),
		errors.As(err, &ve),
		errors.Is(err, graph.ErrInvalidChange),
		errors.Is(err, graph.ErrUnknownAction):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, graph.ErrNodeNotFound), errors.Is(err, graph.ErrEdgeNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// decodeBody decodes a JSON request body into v, writing a 400 on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}
