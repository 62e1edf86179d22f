package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/alfredjeanlab/flowgraph/internal/model"
	"github.com/alfredjeanlab/flowgraph/internal/presence"
)

// HeaderActor must match the server's actor header.
const HeaderActor = "X-Flow-Actor"

// HTTPClient implements FlowClient using the flowgraph HTTP/JSON REST API.
type HTTPClient struct {
	baseURL    string
	token      string
	actor      string
	httpClient *http.Client
}

// NewHTTPClient creates a new HTTP client targeting the given base URL
// (e.g. "http://localhost:8080"). When token is non-empty, an Authorization
// header is set on every request.
func NewHTTPClient(baseURL, token string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{},
	}
}

// SetActor names the user recorded on events this client causes.
func (c *HTTPClient) SetActor(actor string) {
	c.actor = actor
}

// Close is a no-op for the HTTP client.
func (c *HTTPClient) Close() error { return nil }

// --- Whole flow ---

func (c *HTTPClient) GetFlow(ctx context.Context) (*model.Flow, error) {
	var f model.Flow
	if err := c.doJSON(ctx, http.MethodGet, "/v1/flow", nil, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// ExportFlow returns the flow encoded by the server in the given format.
func (c *HTTPClient) ExportFlow(ctx context.Context, format string) ([]byte, error) {
	_, data, err := c.do(ctx, http.MethodGet, "/v1/flow?format="+url.QueryEscape(format), "", nil)
	return data, err
}

// ReplaceFlow uploads data, encoded in format, as the new flow.
func (c *HTTPClient) ReplaceFlow(ctx context.Context, data []byte, format string) (*ReplaceFlowResponse, error) {
	_, body, err := c.do(ctx, http.MethodPut, "/v1/flow", "application/"+format, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	var resp ReplaceFlowResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	return &resp, nil
}

func (c *HTTPClient) Restore(ctx context.Context) (*ReplaceFlowResponse, error) {
	var resp ReplaceFlowResponse
	if err := c.doJSON(ctx, http.MethodPost, "/v1/restore", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) Stats(ctx context.Context) (*model.FlowStats, error) {
	var s model.FlowStats
	if err := c.doJSON(ctx, http.MethodGet, "/v1/stats", nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// ClearFlow empties the flow and deletes its saved snapshot. It returns
// what the flow held before.
func (c *HTTPClient) ClearFlow(ctx context.Context) (*model.FlowStats, error) {
	var resp struct {
		Removed model.FlowStats `json:"removed"`
	}
	if err := c.doJSON(ctx, http.MethodDelete, "/v1/flow", nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Removed, nil
}

func (c *HTTPClient) ResetCompletion(ctx context.Context) (int, error) {
	var resp struct {
		Reset int `json:"reset"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/v1/reset", nil, &resp); err != nil {
		return 0, err
	}
	return resp.Reset, nil
}

func (c *HTTPClient) SetViewport(ctx context.Context, v model.Viewport) (*model.Viewport, error) {
	var out model.Viewport
	if err := c.doJSON(ctx, http.MethodPut, "/v1/viewport", v, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// --- Nodes ---

type nodeList struct {
	Nodes []model.Node `json:"nodes"`
	Total int          `json:"total"`
}

func (c *HTTPClient) ListNodes(ctx context.Context) ([]model.Node, error) {
	var resp nodeList
	if err := c.doJSON(ctx, http.MethodGet, "/v1/nodes", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Nodes, nil
}

func (c *HTTPClient) ListActive(ctx context.Context) ([]model.Node, error) {
	var resp nodeList
	if err := c.doJSON(ctx, http.MethodGet, "/v1/active", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Nodes, nil
}

func (c *HTTPClient) GetNode(ctx context.Context, id string) (*model.Node, error) {
	var n model.Node
	if err := c.doJSON(ctx, http.MethodGet, "/v1/nodes/"+url.PathEscape(id), nil, &n); err != nil {
		return nil, err
	}
	return &n, nil
}

func (c *HTTPClient) AddNode(ctx context.Context, pos *model.Position) (*model.Node, error) {
	body := map[string]any{}
	if pos != nil {
		body["position"] = pos
	}
	var n model.Node
	if err := c.doJSON(ctx, http.MethodPost, "/v1/nodes", body, &n); err != nil {
		return nil, err
	}
	return &n, nil
}

func (c *HTTPClient) UpdateNode(ctx context.Context, id string, req *UpdateNodeRequest) (*model.Node, error) {
	var n model.Node
	if err := c.doJSON(ctx, http.MethodPatch, "/v1/nodes/"+url.PathEscape(id), req, &n); err != nil {
		return nil, err
	}
	return &n, nil
}

func (c *HTTPClient) DeleteNode(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/v1/nodes/"+url.PathEscape(id), nil, nil)
}

func (c *HTTPClient) NodeAction(ctx context.Context, id string, action model.NodeAction) (*ActionResponse, error) {
	var resp ActionResponse
	if err := c.doJSON(ctx, http.MethodPost, "/v1/nodes/"+url.PathEscape(id)+"/actions", action, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) ApplyNodeChanges(ctx context.Context, changes []model.NodeChange) error {
	return c.doJSON(ctx, http.MethodPost, "/v1/nodes/changes", changes, nil)
}

// --- Edges ---

func (c *HTTPClient) ListEdges(ctx context.Context) ([]model.Edge, error) {
	var resp struct {
		Edges []model.Edge `json:"edges"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/v1/edges", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Edges, nil
}

// Connect links source to target. created is false when the edge already
// existed.
func (c *HTTPClient) Connect(ctx context.Context, source, target string) (*model.Edge, bool, error) {
	var e model.Edge
	status, err := c.doJSONStatus(ctx, http.MethodPost, "/v1/edges", model.Connection{Source: source, Target: target}, &e)
	if err != nil {
		return nil, false, err
	}
	return &e, status == http.StatusCreated, nil
}

func (c *HTTPClient) ConnectEnd(ctx context.Context, source string, pos model.Position) (*model.Node, *model.Edge, error) {
	body := map[string]any{"source": source, "position": pos}
	var resp struct {
		Node model.Node `json:"node"`
		Edge model.Edge `json:"edge"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/v1/connect-end", body, &resp); err != nil {
		return nil, nil, err
	}
	return &resp.Node, &resp.Edge, nil
}

func (c *HTTPClient) RemoveEdge(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/v1/edges/"+url.PathEscape(id), nil, nil)
}

func (c *HTTPClient) ApplyEdgeChanges(ctx context.Context, changes []model.EdgeChange) error {
	return c.doJSON(ctx, http.MethodPost, "/v1/edges/changes", changes, nil)
}

// --- Events ---

func (c *HTTPClient) ListEvents(ctx context.Context, after int64, limit int) ([]*model.Event, error) {
	q := url.Values{}
	if after > 0 {
		q.Set("after", strconv.FormatInt(after, 10))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	path := "/v1/events"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var resp struct {
		Events []*model.Event `json:"events"`
	}
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Events, nil
}

// --- Presence ---

// Presence lists editors seen within the given window; zero lists all.
func (c *HTTPClient) Presence(ctx context.Context, within time.Duration) ([]presence.Entry, error) {
	path := "/v1/presence"
	if within > 0 {
		path += "?within=" + url.QueryEscape(within.String())
	}
	var resp struct {
		Editors []presence.Entry `json:"editors"`
	}
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Editors, nil
}

// --- Health ---

func (c *HTTPClient) Health(ctx context.Context) (*Health, error) {
	var resp Health
	if err := c.doJSON(ctx, http.MethodGet, "/v1/health", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// --- internal helpers ---

// APIError represents an error response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// IsNotFound reports whether err is a 404 from the server.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// doJSON performs an HTTP request with optional JSON body and decodes the JSON response.
// If result is nil, the response body is discarded (for DELETE/204 responses).
func (c *HTTPClient) doJSON(ctx context.Context, method, path string, body any, result any) error {
	_, err := c.doJSONStatus(ctx, method, path, body, result)
	return err
}

// doJSONStatus is doJSON that also returns the success status code.
func (c *HTTPClient) doJSONStatus(ctx context.Context, method, path string, body any, result any) (int, error) {
	var (
		bodyReader  io.Reader
		contentType string
	)
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
		contentType = "application/json"
	}

	status, respBody, err := c.do(ctx, method, path, contentType, bodyReader)
	if err != nil {
		return status, err
	}
	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return status, fmt.Errorf("decoding response: %w", err)
		}
	}
	return status, nil
}

// do sends one request and returns the status and raw body of a successful
// response. Error statuses become *APIError.
func (c *HTTPClient) do(ctx context.Context, method, path, contentType string, body io.Reader) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return 0, nil, fmt.Errorf("creating request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.actor != "" {
		req.Header.Set(HeaderActor, c.actor)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("performing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return resp.StatusCode, nil, nil
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error != "" {
			return resp.StatusCode, nil, &APIError{StatusCode: resp.StatusCode, Message: errResp.Error}
		}
		return resp.StatusCode, nil, &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(respBody))}
	}
	return resp.StatusCode, respBody, nil
}
