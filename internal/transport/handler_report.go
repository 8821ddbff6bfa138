package transport

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/andeantech/ventas-bff/internal/form"
	"github.com/andeantech/ventas-bff/internal/observability"
	"github.com/andeantech/ventas-bff/internal/panel"
	"github.com/andeantech/ventas-bff/model"
)

// submitResponse wraps the session state after a submit attempt. InFlight
// marks a submit that was dropped because another one is still running.
type submitResponse struct {
	InFlight bool            `json:"in_flight,omitempty"`
	Session  sessionResponse `json:"session"`
}

func handleSubmit(manager *form.Manager, metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rctx := model.RequestContextFrom(r.Context())
		if rctx == nil {
			WriteError(w, model.NewUnauthorizedError("missing request context"))
			return
		}

		start := time.Now()
		outcome, err := manager.Submit(r.Context(), rctx, chi.URLParam(r, "sessionId"))
		if err != nil {
			WriteError(w, err)
			return
		}

		switch {
		case outcome.Dropped:
			metrics.RecordSubmitDropped()
			WriteJSON(w, http.StatusAccepted, submitResponse{
				InFlight: true,
				Session:  toSessionResponse(outcome.Session),
			})
		case outcome.ValidationFailed:
			for _, fieldErr := range outcome.Session.Errors {
				metrics.RecordValidationFailure(fieldErr.Code)
			}
			WriteJSON(w, http.StatusUnprocessableEntity, submitResponse{
				Session: toSessionResponse(outcome.Session),
			})
		case outcome.Session.FormError != "":
			metrics.RecordGeneration("failure", time.Since(start))
			WriteJSON(w, http.StatusOK, submitResponse{
				Session: toSessionResponse(outcome.Session),
			})
		default:
			metrics.RecordGeneration("success", time.Since(start))
			WriteJSON(w, http.StatusOK, submitResponse{
				Session: toSessionResponse(outcome.Session),
			})
		}
	}
}

func handleReportView(manager *form.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rctx := model.RequestContextFrom(r.Context())
		if rctx == nil {
			WriteError(w, model.NewUnauthorizedError("missing request context"))
			return
		}

		view, err := manager.ReportView(r.Context(), rctx, chi.URLParam(r, "sessionId"), pageParam(r))
		if err != nil {
			WriteError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, view)
	}
}

// panelRequest carries either a toggle action or a viewport change.
type panelRequest struct {
	Action   string         `json:"action,omitempty"`
	Viewport panel.Viewport `json:"viewport,omitempty"`
}

func handlePanel(manager *form.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rctx := model.RequestContextFrom(r.Context())
		if rctx == nil {
			WriteError(w, model.NewUnauthorizedError("missing request context"))
			return
		}

		var body panelRequest
		if err := decodeBody(r, &body); err != nil {
			WriteError(w, err)
			return
		}

		sessionID := chi.URLParam(r, "sessionId")
		var (
			session form.Session
			err     error
		)
		switch {
		case body.Action == "toggle":
			session, err = manager.TogglePanel(r.Context(), rctx, sessionID)
		case body.Viewport == panel.ViewportWide || body.Viewport == panel.ViewportNarrow:
			session, err = manager.SetViewport(r.Context(), rctx, sessionID, body.Viewport)
		default:
			WriteError(w, model.NewBadRequestError("panel request needs an action or a viewport"))
			return
		}
		if err != nil {
			WriteError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, toSessionResponse(session))
	}
}
