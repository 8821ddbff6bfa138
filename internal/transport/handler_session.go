package transport

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/andeantech/ventas-bff/internal/form"
	"github.com/andeantech/ventas-bff/internal/observability"
	"github.com/andeantech/ventas-bff/internal/panel"
	"github.com/andeantech/ventas-bff/model"
)

// maxBodyBytes caps inbound request bodies.
const maxBodyBytes = 1 << 20

// sessionResponse is the session representation returned to the console.
// The raw report payload stays server-side; the console reads the derived
// view from the report endpoint.
type sessionResponse struct {
	ID        string                `json:"id"`
	Draft     model.FilterDraft     `json:"draft"`
	Touched   map[string]bool       `json:"touched,omitempty"`
	Errors    []model.FieldError    `json:"errors,omitempty"`
	FormError string                `json:"form_error,omitempty"`
	Status    form.Status           `json:"status"`
	Catalogs  model.CatalogSnapshot `json:"catalogs"`
	HasReport bool                  `json:"has_report"`
	Page      int                   `json:"page"`
	Viewport  panel.Viewport        `json:"viewport"`
	Panel     panel.State           `json:"panel"`
}

func toSessionResponse(s form.Session) sessionResponse {
	return sessionResponse{
		ID:        s.ID,
		Draft:     s.Draft,
		Touched:   s.Touched,
		Errors:    s.Errors,
		FormError: s.FormError,
		Status:    s.Status,
		Catalogs:  s.Catalogs,
		HasReport: s.Report != nil,
		Page:      s.Page,
		Viewport:  s.Viewport,
		Panel:     s.Panel,
	}
}

func handleOpenSession(manager *form.Manager, metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rctx := model.RequestContextFrom(r.Context())
		if rctx == nil {
			WriteError(w, model.NewUnauthorizedError("missing request context"))
			return
		}

		var body struct {
			Viewport panel.Viewport `json:"viewport"`
		}
		if err := decodeBody(r, &body); err != nil {
			WriteError(w, err)
			return
		}
		viewport := body.Viewport
		if viewport != panel.ViewportNarrow {
			viewport = panel.ViewportWide
		}

		session, err := manager.Open(r.Context(), rctx, viewport)
		if err != nil {
			WriteError(w, err)
			return
		}
		metrics.RecordSessionOpened()
		for _, kind := range model.AllCatalogKinds {
			status := "ok"
			if session.Catalogs.HasFailed(kind) {
				status = "error"
			}
			metrics.RecordCatalogLoad(string(kind), status)
		}
		WriteJSON(w, http.StatusCreated, toSessionResponse(session))
	}
}

func handleGetSession(manager *form.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rctx := model.RequestContextFrom(r.Context())
		if rctx == nil {
			WriteError(w, model.NewUnauthorizedError("missing request context"))
			return
		}

		session, err := manager.Get(r.Context(), rctx, chi.URLParam(r, "sessionId"))
		if err != nil {
			WriteError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, toSessionResponse(session))
	}
}

func handleCloseSession(manager *form.Manager, metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rctx := model.RequestContextFrom(r.Context())
		if rctx == nil {
			WriteError(w, model.NewUnauthorizedError("missing request context"))
			return
		}

		if err := manager.Close(r.Context(), rctx, chi.URLParam(r, "sessionId")); err != nil {
			WriteError(w, err)
			return
		}
		metrics.RecordSessionClosed()
		w.WriteHeader(http.StatusNoContent)
	}
}

func handleGetDescriptor(manager *form.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rctx := model.RequestContextFrom(r.Context())
		if rctx == nil {
			WriteError(w, model.NewUnauthorizedError("missing request context"))
			return
		}

		// Without a session the descriptor has no catalog options: all
		// catalog-backed selects come back disabled.
		session := form.Session{}
		if sessionID := r.URL.Query().Get("session_id"); sessionID != "" {
			var err error
			session, err = manager.Get(r.Context(), rctx, sessionID)
			if err != nil {
				WriteError(w, err)
				return
			}
		}
		WriteJSON(w, http.StatusOK, form.Descriptor(session))
	}
}

func handleUpdateFields(manager *form.Manager, metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rctx := model.RequestContextFrom(r.Context())
		if rctx == nil {
			WriteError(w, model.NewUnauthorizedError("missing request context"))
			return
		}

		var changes form.FieldChanges
		if err := decodeBody(r, &changes); err != nil {
			WriteError(w, err)
			return
		}

		session, err := manager.UpdateFields(r.Context(), rctx, chi.URLParam(r, "sessionId"), changes)
		if err != nil {
			WriteError(w, err)
			return
		}
		recordFieldUpdates(metrics, changes)
		WriteJSON(w, http.StatusOK, toSessionResponse(session))
	}
}

func recordFieldUpdates(metrics *observability.Metrics, changes form.FieldChanges) {
	if changes.VendorID != nil {
		metrics.RecordFieldUpdate(model.FieldVendorID)
	}
	if changes.CountryIDs != nil {
		metrics.RecordFieldUpdate(model.FieldCountryIDs)
	}
	if changes.Zones != nil {
		metrics.RecordFieldUpdate(model.FieldZones)
	}
	if changes.Period != nil {
		metrics.RecordFieldUpdate(model.FieldPeriod)
	}
	if changes.StartDate != nil {
		metrics.RecordFieldUpdate(model.FieldStartDate)
	}
	if changes.EndDate != nil {
		metrics.RecordFieldUpdate(model.FieldEndDate)
	}
	if changes.CategoryNames != nil {
		metrics.RecordFieldUpdate(model.FieldCategories)
	}
	if changes.ReportTypes != nil {
		metrics.RecordFieldUpdate(model.FieldReportTypes)
	}
}

func decodeBody(r *http.Request, v any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return model.NewBadRequestError("request body is not valid JSON")
	}
	return nil
}

func pageParam(r *http.Request) int {
	raw := r.URL.Query().Get("page")
	if raw == "" {
		return 0
	}
	page, err := strconv.Atoi(raw)
	if err != nil || page < 0 {
		return 0
	}
	return page
}
