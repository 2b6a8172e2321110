package module

import (
	"net/http"

	"metaview/internal/modkit/swaggerkit"
)

func operations(prefix string) []swaggerkit.Operation {
	const tag = "verifications"
	return []swaggerkit.Operation{
		{Method: http.MethodPost, Path: prefix, Tag: tag, Summary: "Open a verification session and issue the challenge", Body: "BeginInput", Status: http.StatusCreated},
		{Method: http.MethodGet, Path: prefix + "/{id}", Tag: tag, Summary: "Current view of a verification session"},
		{Method: http.MethodPost, Path: prefix + "/{id}/check", Tag: tag, Summary: "Start polling for the published token", Status: http.StatusAccepted},
		{Method: http.MethodGet, Path: prefix + "/{id}/attempts", Tag: tag, Summary: "Checks made by the current or last run"},
		{Method: http.MethodGet, Path: prefix + "/{id}/debug", Tag: tag, Summary: "What the verifier expected and what it found"},
		{Method: http.MethodPost, Path: prefix + "/{id}/retry", Tag: tag, Summary: "Repeat the last failed step"},
		{Method: http.MethodPost, Path: prefix + "/{id}/dismiss", Tag: tag, Summary: "Dismiss the inline error"},
		{Method: http.MethodPost, Path: prefix + "/{id}/cancel", Tag: tag, Summary: "Stop checking"},
		{Method: http.MethodDelete, Path: prefix + "/{id}", Tag: tag, Summary: "Close the session", Status: http.StatusNoContent},
		{Method: http.MethodGet, Path: prefix + "/{id}/watch", Tag: tag, Summary: "Websocket stream of session views", Stream: true},
	}
}

var schemas = map[string]any{
	"BeginInput": map[string]any{
		"type":     "object",
		"required": []any{"domain_id", "method"},
		"properties": map[string]any{
			"domain_id": map[string]any{"type": "string", "maxLength": 128, "example": "dom_8f2c"},
			"method":    map[string]any{"type": "string", "enum": []any{"dns", "html", "meta"}},
		},
	},
}
