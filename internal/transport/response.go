// Package transport contains the HTTP router, middleware chain, and all
// request handlers for the BFF API.
package transport

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/andeantech/ventas-bff/model"
)

// WriteJSON writes body as a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	if body == nil {
		w.WriteHeader(status)
		return
	}
	buf, err := json.Marshal(body)
	if err != nil {
		http.Error(w, `{"error":{"code":"INTERNAL_ERROR","message":"response encoding failed"}}`,
			http.StatusInternalServerError)
		return
	}
	w.WriteHeader(status)
	w.Write(buf)
}

// WriteError writes err as a JSON error envelope. Wrapped envelopes keep
// their code; anything else becomes an opaque 500 so internal detail never
// reaches the console.
func WriteError(w http.ResponseWriter, err error) {
	var envelope *model.ErrorEnvelope
	if !errors.As(err, &envelope) {
		envelope = model.NewInternalError()
	}
	WriteJSON(w, httpStatus(envelope.Code), struct {
		Error *model.ErrorEnvelope `json:"error"`
	}{envelope})
}

// WriteValidationError writes a 422 response carrying field-level details.
func WriteValidationError(w http.ResponseWriter, details []model.FieldError) {
	WriteError(w, model.NewValidationError(details))
}

func httpStatus(code string) int {
	switch code {
	case model.ErrBadRequest:
		return http.StatusBadRequest
	case model.ErrUnauthorized:
		return http.StatusUnauthorized
	case model.ErrForbidden:
		return http.StatusForbidden
	case model.ErrNotFound, model.ErrSessionNotFound:
		return http.StatusNotFound
	case model.ErrConflict:
		return http.StatusConflict
	case model.ErrValidationError:
		return http.StatusUnprocessableEntity
	case model.ErrBackendUnavailable, model.ErrCatalogUnavailable, model.ErrReportFailed:
		return http.StatusBadGateway
	case model.ErrBackendTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
