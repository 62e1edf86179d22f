package server

import (
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/alfredjeanlab/flowgraph/internal/codec"
	"github.com/alfredjeanlab/flowgraph/internal/model"
)

// handleGetFlow handles GET /v1/flow. ?format=yaml selects the YAML
// encoding; the default is JSON.
func (s *FlowServer) handleGetFlow(w http.ResponseWriter, r *http.Request) {
	snap := s.graph.Snapshot()
	format := r.URL.Query().Get("format")
	if format == "" || strings.EqualFold(format, "json") {
		writeJSON(w, http.StatusOK, snap)
		return
	}

	c, err := codec.ForFormat(format)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/"+c.Format())
	w.WriteHeader(http.StatusOK)
	if err := c.Export(snap, w); err != nil {
		s.logger.Warn("failed to export flow", "format", c.Format(), "error", err)
	}
}

// handleReplaceFlow handles PUT /v1/flow. The body is JSON unless the
// Content-Type names YAML.
func (s *FlowServer) handleReplaceFlow(w http.ResponseWriter, r *http.Request) {
	c, err := codec.ForFormat(bodyFormat(r))
	if err != nil {
		writeError(w, http.StatusUnsupportedMediaType, err.Error())
		return
	}
	f, err := c.Parse(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.replaceFlow(r.Context(), actorFrom(r), f, "import"))
}

// bodyFormat maps the request Content-Type to a codec format name.
func bodyFormat(r *http.Request) string {
	ct := r.Header.Get("Content-Type")
	if ct == "" {
		return "json"
	}
	mt, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return "json"
	}
	switch mt {
	case "application/yaml", "application/x-yaml", "text/yaml":
		return "yaml"
	case "application/json":
		return "json"
	}
	return strings.TrimPrefix(mt, "application/")
}

// handleClearFlow handles DELETE /v1/flow.
func (s *FlowServer) handleClearFlow(w http.ResponseWriter, r *http.Request) {
	removed := s.clearFlow(r.Context(), actorFrom(r))
	writeJSON(w, http.StatusOK, map[string]model.FlowStats{"removed": removed})
}

// handleRestore handles POST /v1/restore.
func (s *FlowServer) handleRestore(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.restore(r.Context(), actorFrom(r)))
}

// handleGetStats handles GET /v1/stats.
func (s *FlowServer) handleGetStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.graph.Snapshot().Stats())
}

// handleReset handles POST /v1/reset.
func (s *FlowServer) handleReset(w http.ResponseWriter, r *http.Request) {
	n := s.resetCompletion(r.Context(), actorFrom(r))
	writeJSON(w, http.StatusOK, map[string]int{"reset": n})
}

// handleSetViewport handles PUT /v1/viewport.
func (s *FlowServer) handleSetViewport(w http.ResponseWriter, r *http.Request) {
	var v model.Viewport
	if !decodeBody(w, r, &v) {
		return
	}
	if err := s.setViewport(r.Context(), actorFrom(r), v); err != nil {
		writeOpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// handleListEvents handles GET /v1/events?after=&limit=.
func (s *FlowServer) handleListEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var (
		after int64
		limit int
	)
	if v := q.Get("after"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "after must be a non-negative integer")
			return
		}
		after = n
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	evts, err := s.store.ListEvents(r.Context(), s.persister.Key(), after, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list events")
		return
	}
	if evts == nil {
		evts = []*model.Event{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": evts})
}

// handlePresence handles GET /v1/presence?within=<duration>.
func (s *FlowServer) handlePresence(w http.ResponseWriter, r *http.Request) {
	var within time.Duration
	if v := r.URL.Query().Get("within"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d < 0 {
			writeError(w, http.StatusBadRequest, "within must be a non-negative duration")
			return
		}
		within = d
	}
	writeJSON(w, http.StatusOK, map[string]any{"editors": s.presence.Roster(within)})
}
