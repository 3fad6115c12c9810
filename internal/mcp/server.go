// Package mcp exposes the artifact store as a tool-calling interface for
// chat assistants: a JSON-RPC 2.0 endpoint with a fixed tool catalogue, plus
// a one-shot SSE stream for clients that probe with GET.
package mcp

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"drivetime/internal/engine"
	"drivetime/internal/store"
)

const protocolVersion = "2024-11-05"

// JSON-RPC error codes.
const (
	codeParseError     = -32700
	codeInvalidParams  = -32602
	codeMethodNotFound = -32601
	codeInternal       = -32603
)

// Server is the JSON-RPC facade over the artifact store. It owns no state of
// its own beyond its dependencies.
type Server struct {
	store       store.Repository
	pipeline    *engine.Pipeline
	defaultUser string
}

// New creates the facade.
func New(s store.Repository, pipeline *engine.Pipeline, defaultUser string) *Server {
	if defaultUser == "" {
		defaultUser = "local"
	}
	return &Server{store: s, pipeline: pipeline, defaultUser: defaultUser}
}

type request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
}

type response struct {
	JSONRPC string    `json:"jsonrpc"`
	ID      any       `json:"id"`
	Result  any       `json:"result,omitempty"`
	Error   *rpcError `json:"error,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func result(id, v any) *response {
	return &response{JSONRPC: "2.0", ID: id, Result: v}
}

func errResponse(id any, code int, msg string) *response {
	return &response{JSONRPC: "2.0", ID: id, Error: &rpcError{Code: code, Message: msg}}
}

// ServeHTTP handles POST (JSON-RPC) and GET (one-shot SSE stream).
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleRPC(w, r)
	case http.MethodGet:
		s.handleStream(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeResponse(w, errResponse(nil, codeParseError, "parse error"))
		return
	}
	writeResponse(w, s.dispatch(r, &req))
}

func (s *Server) dispatch(r *http.Request, req *request) *response {
	switch req.Method {
	case "initialize":
		return result(req.ID, map[string]any{
			"protocolVersion": protocolVersion,
			"capabilities": map[string]any{
				"tools":     map[string]any{},
				"resources": map[string]any{},
			},
			"serverInfo": map[string]any{
				"name":    "drivetime",
				"version": "0.1.0",
			},
		})

	case "tools/list":
		return result(req.ID, map[string]any{"tools": toolCatalogue()})

	case "tools/call":
		var params struct {
			Name      string         `json:"name"`
			Arguments map[string]any `json:"arguments"`
		}
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return errResponse(req.ID, codeInvalidParams, "invalid params")
		}
		res, err := s.callTool(r.Context(), params.Name, params.Arguments)
		if err != nil {
			slog.Error("tool call failed", "tool", params.Name, "error", err)
			return errResponse(req.ID, codeInternal, "internal error")
		}
		return result(req.ID, res)

	case "resources/list":
		return result(req.ID, map[string]any{"resources": []any{}})

	case "resources/read":
		var params struct {
			URI string `json:"uri"`
		}
		_ = json.Unmarshal(req.Params, &params)
		return errResponse(req.ID, codeInvalidParams, fmt.Sprintf("unknown resource: %s", params.URI))

	default:
		return errResponse(req.ID, codeMethodNotFound, fmt.Sprintf("method not found: %s", req.Method))
	}
}

func writeResponse(w http.ResponseWriter, resp *response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(resp)
}

// handleStream emits a single connection/ready event and closes. Some MCP
// clients open a GET stream before posting; this keeps them happy without
// holding a connection per client.
func (s *Server) handleStream(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "event: connection/ready\ndata: {\"protocolVersion\":%q}\n\n", protocolVersion)
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}
