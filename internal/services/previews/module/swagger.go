package module

import (
	"net/http"

	"metaview/internal/modkit/swaggerkit"
)

func operations(prefix string) []swaggerkit.Operation {
	const tag = "previews"
	return []swaggerkit.Operation{
		{Method: http.MethodPost, Path: prefix, Tag: tag, Summary: "Open a preview session and submit the url", Body: "GenerateInput", Status: http.StatusCreated},
		{Method: http.MethodGet, Path: prefix + "/{id}", Tag: tag, Summary: "Current view of a preview session"},
		{Method: http.MethodPost, Path: prefix + "/{id}/retry", Tag: tag, Summary: "Submit the last url again"},
		{Method: http.MethodPost, Path: prefix + "/{id}/dismiss", Tag: tag, Summary: "Dismiss the inline error"},
		{Method: http.MethodPost, Path: prefix + "/{id}/cancel", Tag: tag, Summary: "Stop polling the running job"},
		{Method: http.MethodDelete, Path: prefix + "/{id}", Tag: tag, Summary: "Close the session", Status: http.StatusNoContent},
		{Method: http.MethodGet, Path: prefix + "/{id}/watch", Tag: tag, Summary: "Websocket stream of session views", Stream: true},
	}
}

var schemas = map[string]any{
	"GenerateInput": map[string]any{
		"type":     "object",
		"required": []any{"url"},
		"properties": map[string]any{
			"url":    map[string]any{"type": "string", "maxLength": 2048, "example": "https://example.com/pricing"},
			"domain": map[string]any{"type": "string", "maxLength": 253, "example": "example.com"},
		},
	},
}
