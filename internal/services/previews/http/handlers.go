// Package http provides http transport for preview wizard sessions
package http

import (
	stdhttp "net/http"

	"metaview/internal/modkit/httpkit"
	"metaview/internal/services/previews/domain"
)

// Register mounts the routes. Request/response routes get a timeout; the watch route streams
func Register(r httpkit.Router, s domain.ServicePort, o Options) {
	h := &handlers{svc: s}
	r.Group(func(g httpkit.Router) {
		if o.Timeout > 0 {
			g.Use(httpkit.Timeout(o.Timeout))
		}
		httpkit.PostJSON[domain.GenerateInput](g, "/", h.create)
		httpkit.Get(g, "/{id}", h.get)
		httpkit.Post(g, "/{id}/retry", h.retry)
		httpkit.Post(g, "/{id}/dismiss", h.dismiss)
		httpkit.Post(g, "/{id}/cancel", h.cancel)
		httpkit.Delete(g, "/{id}", h.delete)
	})
	httpkit.Watch(r, "/{id}/watch", o.WS, h.watch)
}

type handlers struct{ svc domain.ServicePort }

// swagger:route POST /previews Previews createPreview
// @Summary Open a preview wizard session and submit the url
// @Tags previews
// @Accept json
// @Produce json
// @Param payload body domain.GenerateInput true "Generate"
// @Success 201 {object} domain.Session "created"
// @Failure 400 {object} httpkit.Envelope "validation"
// @Router /previews [post]
func (h *handlers) create(r *stdhttp.Request, in domain.GenerateInput) (any, error) {
	s, err := h.svc.Create(r.Context(), in)
	if err != nil {
		return nil, err
	}
	return httpkit.Created(s), nil
}

// swagger:route GET /previews/{id} Previews getPreview
// @Summary Current view of a preview session
// @Tags previews
// @Produce json
// @Param id path string true "session id"
// @Success 200 {object} domain.Session "ok"
// @Failure 404 {object} httpkit.Envelope "not found"
// @Router /previews/{id} [get]
func (h *handlers) get(r *stdhttp.Request) (any, error) {
	return h.svc.Get(r.Context(), httpkit.Param(r, "id"))
}

// swagger:route POST /previews/{id}/retry Previews retryPreview
// @Summary Submit the last url again
// @Tags previews
// @Produce json
// @Param id path string true "session id"
// @Success 200 {object} domain.Session "ok"
// @Failure 409 {object} httpkit.Envelope "already running"
// @Router /previews/{id}/retry [post]
func (h *handlers) retry(r *stdhttp.Request) (any, error) {
	return h.svc.Retry(r.Context(), httpkit.Param(r, "id"))
}

// swagger:route POST /previews/{id}/dismiss Previews dismissPreviewError
// @Summary Dismiss the inline error
// @Tags previews
// @Produce json
// @Param id path string true "session id"
// @Success 200 {object} domain.Session "ok"
// @Router /previews/{id}/dismiss [post]
func (h *handlers) dismiss(r *stdhttp.Request) (any, error) {
	return h.svc.Dismiss(r.Context(), httpkit.Param(r, "id"))
}

// swagger:route POST /previews/{id}/cancel Previews cancelPreview
// @Summary Stop polling the running job
// @Tags previews
// @Produce json
// @Param id path string true "session id"
// @Success 200 {object} domain.Session "ok"
// @Router /previews/{id}/cancel [post]
func (h *handlers) cancel(r *stdhttp.Request) (any, error) {
	return h.svc.Cancel(r.Context(), httpkit.Param(r, "id"))
}

// swagger:route DELETE /previews/{id} Previews deletePreview
// @Summary Close the session, cancelling any running job poll
// @Tags previews
// @Param id path string true "session id"
// @Success 204 "closed"
// @Router /previews/{id} [delete]
func (h *handlers) delete(r *stdhttp.Request) (any, error) {
	if err := h.svc.Delete(r.Context(), httpkit.Param(r, "id")); err != nil {
		return nil, err
	}
	return httpkit.NoContent(), nil
}

// swagger:route GET /previews/{id}/watch Previews watchPreview
// @Summary Websocket stream of session views
// @Tags previews
// @Param id path string true "session id"
// @Success 101 "switching protocols"
// @Router /previews/{id}/watch [get]
func (h *handlers) watch(r *stdhttp.Request) (httpkit.Stream, error) {
	id := httpkit.Param(r, "id")
	w, err := h.svc.Wizard(id)
	if err != nil {
		return httpkit.Stream{}, err
	}
	ch, cancel := w.Changes()
	return httpkit.Stream{
		Changes: ch,
		Cancel:  cancel,
		Render:  func() any { return domain.Session{ID: id, View: w.View()} },
	}, nil
}
