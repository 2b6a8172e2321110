// Package swaggerkit serves Swagger UI and an OpenAPI document assembled from module contributions
package swaggerkit

import (
	"net/http"

	phttp "metaview/internal/platform/net/http"

	httpSwagger "github.com/swaggo/http-swagger"
)

// Mount the Swagger UI and JSON spec under /api/docs if enabled
func Mount(r phttp.Router, enabled bool, info Info) {
	if !enabled {
		return
	}
	r.Get("/api/docs", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/api/docs/", http.StatusPermanentRedirect)
	})
	r.Get("/api/docs/doc.json", serveDocJSON(info))
	r.Handle("/api/docs/*", httpSwagger.Handler(
		httpSwagger.InstanceName("console"),
		httpSwagger.URL("/api/docs/doc.json"),
	))
}
