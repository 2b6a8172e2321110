package swaggerkit

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"sync"
)

// Info is the document header
type Info struct {
	Title       string
	Version     string
	Description string
	BasePath    string
}

// Operation documents one route
type Operation struct {
	Method  string
	Path    string
	Tag     string
	Summary string
	// Body names a schema for the JSON request body, empty for none
	Body string
	// Status is the success status, default 200
	Status int
	// Stream marks websocket upgrades
	Stream bool
}

// SpecMutator lets modules add paths and schemas to the served document
type SpecMutator func(map[string]any)

var (
	mu       sync.Mutex
	mutators []SpecMutator
)

// Register adds a spec mutator; modules call it from New when swagger is on
func Register(m SpecMutator) {
	if m == nil {
		return
	}
	mu.Lock()
	mutators = append(mutators, m)
	mu.Unlock()
}

// Reset drops every mutator, for tests
func Reset() {
	mu.Lock()
	mutators = nil
	mu.Unlock()
}

// Operations returns a mutator that documents ops and the named schemas
func Operations(ops []Operation, schemas map[string]any) SpecMutator {
	return func(spec map[string]any) {
		paths := child(spec, "paths")
		for _, op := range ops {
			node := child(paths, op.Path)
			node[strings.ToLower(op.Method)] = op.toOAS()
		}
		comps := child(child(spec, "components"), "schemas")
		for name, s := range schemas {
			comps[name] = s
		}
	}
}

func (op Operation) toOAS() map[string]any {
	status := op.Status
	if status == 0 {
		status = http.StatusOK
	}
	if op.Stream {
		status = http.StatusSwitchingProtocols
	}
	out := map[string]any{
		"tags":    []any{op.Tag},
		"summary": op.Summary,
		"responses": map[string]any{
			strconv.Itoa(status): map[string]any{"description": http.StatusText(status)},
		},
	}
	var params []any
	for _, seg := range strings.Split(op.Path, "/") {
		if strings.HasPrefix(seg, "{") && strings.HasSuffix(seg, "}") {
			params = append(params, map[string]any{
				"name": strings.Trim(seg, "{}"), "in": "path", "required": true,
				"schema": map[string]any{"type": "string"},
			})
		}
	}
	if len(params) > 0 {
		out["parameters"] = params
	}
	if op.Body != "" {
		out["requestBody"] = map[string]any{
			"required": true,
			"content": map[string]any{
				"application/json": map[string]any{
					"schema": map[string]any{"$ref": "#/components/schemas/" + op.Body},
				},
			},
		}
	}
	return out
}

// Build assembles the document: header, module mutators, then the shared error responses
func Build(info Info) map[string]any {
	spec := map[string]any{
		"openapi": "3.0.3",
		"info": map[string]any{
			"title":       info.Title,
			"version":     info.Version,
			"description": info.Description,
		},
		"servers": []any{map[string]any{"url": info.BasePath}},
		"paths":   map[string]any{},
	}
	mu.Lock()
	ms := append([]SpecMutator(nil), mutators...)
	mu.Unlock()
	for _, m := range ms {
		m(spec)
	}
	ensureErrorResponseDefinition(spec)
	addDefaultErrors(spec)
	return spec
}

func serveDocJSON(info Info) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		_ = json.NewEncoder(w).Encode(Build(info))
	}
}

// ensureErrorResponseDefinition adds the error envelope model if missing
// kept minimal so it does not drift from the runtime wire
func ensureErrorResponseDefinition(spec map[string]any) {
	schemas := child(child(spec, "components"), "schemas")
	if _, ok := schemas["ErrorResponse"]; ok {
		return
	}
	schemas["ErrorResponse"] = map[string]any{
		"type":        "object",
		"description": "Standard error response",
		"properties": map[string]any{
			"status_code": map[string]any{"type": "integer", "format": "int32"},
			"status":      map[string]any{"type": "string"},
			"code":        map[string]any{"type": "integer", "format": "int32"},
			"kind":        map[string]any{"type": "string"},
			"error":       map[string]any{"type": "string"},
			"field":       map[string]any{"type": "string"},
			"request_id":  map[string]any{"type": "string"},
		},
		"required": []any{"status_code", "status"},
	}
}

// addDefaultErrors gives every operation 400 and 500 responses unless it already has them
func addDefaultErrors(spec map[string]any) {
	paths, ok := spec["paths"].(map[string]any)
	if !ok {
		return
	}
	ref := map[string]any{
		"application/json": map[string]any{
			"schema": map[string]any{"$ref": "#/components/schemas/ErrorResponse"},
		},
	}
	for _, p := range paths {
		node, ok := p.(map[string]any)
		if !ok {
			continue
		}
		for _, opAny := range node {
			op, ok := opAny.(map[string]any)
			if !ok {
				continue
			}
			resps := child(op, "responses")
			for _, code := range []int{http.StatusBadRequest, http.StatusInternalServerError} {
				if _, exists := resps[strconv.Itoa(code)]; !exists {
					resps[strconv.Itoa(code)] = map[string]any{"description": http.StatusText(code), "content": ref}
				}
			}
		}
	}
}

func child(m map[string]any, key string) map[string]any {
	if v, ok := m[key].(map[string]any); ok {
		return v
	}
	v := map[string]any{}
	m[key] = v
	return v
}
