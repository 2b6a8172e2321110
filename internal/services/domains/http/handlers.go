// Package http provides http transport for domain-verification wizard sessions
package http

import (
	stdhttp "net/http"

	"metaview/internal/modkit/httpkit"
	"metaview/internal/services/domains/domain"
)

// Register mounts the routes. Request/response routes get a timeout; the watch route streams
func Register(r httpkit.Router, s domain.ServicePort, o Options) {
	h := &handlers{svc: s}
	r.Group(func(g httpkit.Router) {
		if o.Timeout > 0 {
			g.Use(httpkit.Timeout(o.Timeout))
		}
		httpkit.PostJSON[domain.BeginInput](g, "/", h.create)
		httpkit.Get(g, "/{id}", h.get)
		httpkit.Post(g, "/{id}/check", h.check)
		httpkit.Get(g, "/{id}/attempts", h.attempts)
		httpkit.Get(g, "/{id}/debug", h.debug)
		httpkit.Post(g, "/{id}/retry", h.retry)
		httpkit.Post(g, "/{id}/dismiss", h.dismiss)
		httpkit.Post(g, "/{id}/cancel", h.cancel)
		httpkit.Delete(g, "/{id}", h.delete)
	})
	httpkit.Watch(r, "/{id}/watch", o.WS, h.watch)
}

type handlers struct{ svc domain.ServicePort }

// swagger:route POST /verifications Verifications beginVerification
// @Summary Open a verification session and issue the challenge
// @Tags verifications
// @Accept json
// @Produce json
// @Param payload body domain.BeginInput true "Begin"
// @Success 201 {object} domain.Session "created"
// @Failure 400 {object} httpkit.Envelope "validation"
// @Router /verifications [post]
func (h *handlers) create(r *stdhttp.Request, in domain.BeginInput) (any, error) {
	s, err := h.svc.Create(r.Context(), in)
	if err != nil {
		return nil, err
	}
	return httpkit.Created(s), nil
}

// swagger:route GET /verifications/{id} Verifications getVerification
// @Summary Current view of a verification session
// @Tags verifications
// @Produce json
// @Param id path string true "session id"
// @Success 200 {object} domain.Session "ok"
// @Failure 404 {object} httpkit.Envelope "not found"
// @Router /verifications/{id} [get]
func (h *handlers) get(r *stdhttp.Request) (any, error) {
	return h.svc.Get(r.Context(), httpkit.Param(r, "id"))
}

// swagger:route POST /verifications/{id}/check Verifications checkVerification
// @Summary Start polling for the published token
// @Tags verifications
// @Produce json
// @Param id path string true "session id"
// @Success 202 {object} domain.Session "checking"
// @Failure 409 {object} httpkit.Envelope "already checking or no challenge"
// @Router /verifications/{id}/check [post]
func (h *handlers) check(r *stdhttp.Request) (any, error) {
	s, err := h.svc.Check(r.Context(), httpkit.Param(r, "id"))
	if err != nil {
		return nil, err
	}
	return httpkit.Accepted(s), nil
}

// swagger:route GET /verifications/{id}/attempts Verifications listAttempts
// @Summary Checks made by the current or last run
// @Tags verifications
// @Produce json
// @Param id path string true "session id"
// @Success 200 {array} domain.VerificationAttempt "ok"
// @Router /verifications/{id}/attempts [get]
func (h *handlers) attempts(r *stdhttp.Request) (any, error) {
	return h.svc.Attempts(r.Context(), httpkit.Param(r, "id"))
}

// swagger:route GET /verifications/{id}/debug Verifications debugVerification
// @Summary What the verifier expected and what it found
// @Tags verifications
// @Produce json
// @Param id path string true "session id"
// @Success 200 {object} metaview.VerificationDebug "ok"
// @Router /verifications/{id}/debug [get]
func (h *handlers) debug(r *stdhttp.Request) (any, error) {
	return h.svc.Debug(r.Context(), httpkit.Param(r, "id"))
}

// swagger:route POST /verifications/{id}/retry Verifications retryVerification
// @Summary Repeat the last failed step
// @Tags verifications
// @Produce json
// @Param id path string true "session id"
// @Success 200 {object} domain.Session "ok"
// @Router /verifications/{id}/retry [post]
func (h *handlers) retry(r *stdhttp.Request) (any, error) {
	return h.svc.Retry(r.Context(), httpkit.Param(r, "id"))
}

// swagger:route POST /verifications/{id}/dismiss Verifications dismissVerificationError
// @Summary Dismiss the inline error
// @Tags verifications
// @Produce json
// @Param id path string true "session id"
// @Success 200 {object} domain.Session "ok"
// @Router /verifications/{id}/dismiss [post]
func (h *handlers) dismiss(r *stdhttp.Request) (any, error) {
	return h.svc.Dismiss(r.Context(), httpkit.Param(r, "id"))
}

// swagger:route POST /verifications/{id}/cancel Verifications cancelVerification
// @Summary Stop checking
// @Tags verifications
// @Produce json
// @Param id path string true "session id"
// @Success 200 {object} domain.Session "ok"
// @Router /verifications/{id}/cancel [post]
func (h *handlers) cancel(r *stdhttp.Request) (any, error) {
	return h.svc.Cancel(r.Context(), httpkit.Param(r, "id"))
}

// swagger:route DELETE /verifications/{id} Verifications deleteVerification
// @Summary Close the session, cancelling any running check
// @Tags verifications
// @Param id path string true "session id"
// @Success 204 "closed"
// @Router /verifications/{id} [delete]
func (h *handlers) delete(r *stdhttp.Request) (any, error) {
	if err := h.svc.Delete(r.Context(), httpkit.Param(r, "id")); err != nil {
		return nil, err
	}
	return httpkit.NoContent(), nil
}

// swagger:route GET /verifications/{id}/watch Verifications watchVerification
// @Summary Websocket stream of session views
// @Tags verifications
// @Param id path string true "session id"
// @Success 101 "switching protocols"
// @Router /verifications/{id}/watch [get]
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
