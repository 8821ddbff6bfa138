package transport

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/andeantech/ventas-bff/model"
)

// claimsAuth injects fixed claims, standing in for the JWT middleware.
func claimsAuth(sub string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := WithClaims(r.Context(), map[string]any{"sub": sub})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func testRouter(t *testing.T) chi.Router {
	t.Helper()
	deps := testDeps()
	deps.Authenticate = claimsAuth("seller-7")
	return NewRouter(deps)
}

func doJSON(t *testing.T, r chi.Router, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func openSession(t *testing.T, r chi.Router) sessionResponse {
	t.Helper()
	w := doJSON(t, r, "POST", "/ui/report-filter/sessions", map[string]string{"viewport": "wide"})
	if w.Code != 201 {
		t.Fatalf("open session status = %d, want 201: %s", w.Code, w.Body.String())
	}
	var session sessionResponse
	if err := json.NewDecoder(w.Body).Decode(&session); err != nil {
		t.Fatalf("decode session: %v", err)
	}
	return session
}

func validFieldChanges() map[string]any {
	return map[string]any{
		"pais":           []string{"1"},
		"periodo_tiempo": "mes_actual",
		"tipo_reporte":   []string{"DESEMPENO_VENDEDOR"},
	}
}

func TestOpenSession(t *testing.T) {
	r := testRouter(t)
	session := openSession(t, r)

	if session.ID == "" {
		t.Error("session should have an ID")
	}
	if session.Status != "idle" {
		t.Errorf("status = %q, want idle", session.Status)
	}
	if session.Panel != "expanded" {
		t.Errorf("panel = %q, want expanded", session.Panel)
	}
	if len(session.Catalogs.Countries) != 1 {
		t.Errorf("countries = %v, want one entry", session.Catalogs.Countries)
	}
	if session.HasReport {
		t.Error("fresh session should not carry a report")
	}
}

func TestGetSession(t *testing.T) {
	r := testRouter(t)
	session := openSession(t, r)

	w := doJSON(t, r, "GET", "/ui/report-filter/sessions/"+session.ID, nil)
	if w.Code != 200 {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
	var got sessionResponse
	json.NewDecoder(w.Body).Decode(&got)
	if got.ID != session.ID {
		t.Errorf("ID = %q, want %q", got.ID, session.ID)
	}
}

func TestGetSession_unknown(t *testing.T) {
	r := testRouter(t)
	openSession(t, r)

	w := doJSON(t, r, "GET", "/ui/report-filter/sessions/no-such-session", nil)
	if w.Code != 404 {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestGetSession_foreignSubject(t *testing.T) {
	deps := testDeps()
	deps.Authenticate = claimsAuth("seller-7")
	r := NewRouter(deps)
	session := openSession(t, r)

	otherDeps := deps
	otherDeps.Authenticate = claimsAuth("seller-99")
	other := NewRouter(otherDeps)

	w := doJSON(t, other, "GET", "/ui/report-filter/sessions/"+session.ID, nil)
	if w.Code != 404 {
		t.Errorf("status = %d, want 404 for another subject's session", w.Code)
	}
}

func TestCloseSession(t *testing.T) {
	r := testRouter(t)
	session := openSession(t, r)

	w := doJSON(t, r, "DELETE", "/ui/report-filter/sessions/"+session.ID, nil)
	if w.Code != 204 {
		t.Fatalf("status = %d, want 204", w.Code)
	}

	w = doJSON(t, r, "GET", "/ui/report-filter/sessions/"+session.ID, nil)
	if w.Code != 404 {
		t.Errorf("status = %d, want 404 after close", w.Code)
	}
}

func TestUpdateFields(t *testing.T) {
	r := testRouter(t)
	session := openSession(t, r)

	w := doJSON(t, r, "PATCH", "/ui/report-filter/sessions/"+session.ID+"/fields", validFieldChanges())
	if w.Code != 200 {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
	var got sessionResponse
	json.NewDecoder(w.Body).Decode(&got)
	if got.Draft.Period != model.PeriodCurrentMonth {
		t.Errorf("period = %q, want mes_actual", got.Draft.Period)
	}
	if !got.Touched["pais"] || !got.Touched["periodo_tiempo"] {
		t.Errorf("touched = %v, want pais and periodo_tiempo marked", got.Touched)
	}
}

func TestUpdateFields_badJSON(t *testing.T) {
	r := testRouter(t)
	session := openSession(t, r)

	req := httptest.NewRequest("PATCH", "/ui/report-filter/sessions/"+session.ID+"/fields",
		bytes.NewBufferString("{not json"))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != 400 {
		t.Errorf("status = %d, want 400 for malformed body", w.Code)
	}
}

func TestSubmit_validationFailure(t *testing.T) {
	r := testRouter(t)
	session := openSession(t, r)

	// Empty draft fails validation: no period, no segmentation, no types.
	w := doJSON(t, r, "POST", "/ui/report-filter/sessions/"+session.ID+"/submit", nil)
	if w.Code != 422 {
		t.Fatalf("status = %d, want 422: %s", w.Code, w.Body.String())
	}
	var resp submitResponse
	json.NewDecoder(w.Body).Decode(&resp)
	if len(resp.Session.Errors) == 0 {
		t.Error("validation errors should be present")
	}
	if resp.Session.HasReport {
		t.Error("failed validation must not produce a report")
	}
}

func TestSubmit_success(t *testing.T) {
	r := testRouter(t)
	session := openSession(t, r)

	doJSON(t, r, "PATCH", "/ui/report-filter/sessions/"+session.ID+"/fields", validFieldChanges())

	w := doJSON(t, r, "POST", "/ui/report-filter/sessions/"+session.ID+"/submit", nil)
	if w.Code != 200 {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
	var resp submitResponse
	json.NewDecoder(w.Body).Decode(&resp)
	if resp.InFlight {
		t.Error("submit should not report in_flight")
	}
	if !resp.Session.HasReport {
		t.Error("successful submit should store a report")
	}
	if resp.Session.Page != 0 {
		t.Errorf("page = %d, want 0 after generation", resp.Session.Page)
	}
	if len(resp.Session.Errors) != 0 {
		t.Errorf("errors = %v, want none", resp.Session.Errors)
	}
}

func TestReportView(t *testing.T) {
	r := testRouter(t)
	session := openSession(t, r)
	doJSON(t, r, "PATCH", "/ui/report-filter/sessions/"+session.ID+"/fields", validFieldChanges())
	doJSON(t, r, "POST", "/ui/report-filter/sessions/"+session.ID+"/submit", nil)

	w := doJSON(t, r, "GET", fmt.Sprintf("/ui/report-filter/sessions/%s/report?page=0", session.ID), nil)
	if w.Code != 200 {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
}

func TestReportView_noReport(t *testing.T) {
	r := testRouter(t)
	session := openSession(t, r)

	w := doJSON(t, r, "GET", "/ui/report-filter/sessions/"+session.ID+"/report", nil)
	if w.Code != 404 {
		t.Errorf("status = %d, want 404 before any generation", w.Code)
	}
}

func TestPanel_toggle(t *testing.T) {
	r := testRouter(t)
	session := openSession(t, r)

	w := doJSON(t, r, "POST", "/ui/report-filter/sessions/"+session.ID+"/panel",
		map[string]string{"action": "toggle"})
	if w.Code != 200 {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
	var got sessionResponse
	json.NewDecoder(w.Body).Decode(&got)
	if got.Panel != "collapsed" {
		t.Errorf("panel = %q, want collapsed after toggle", got.Panel)
	}
}

func TestPanel_viewport(t *testing.T) {
	r := testRouter(t)
	session := openSession(t, r)

	w := doJSON(t, r, "POST", "/ui/report-filter/sessions/"+session.ID+"/panel",
		map[string]string{"viewport": "narrow"})
	if w.Code != 200 {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
	var got sessionResponse
	json.NewDecoder(w.Body).Decode(&got)
	if got.Viewport != "narrow" {
		t.Errorf("viewport = %q, want narrow", got.Viewport)
	}
}

func TestPanel_badRequest(t *testing.T) {
	r := testRouter(t)
	session := openSession(t, r)

	w := doJSON(t, r, "POST", "/ui/report-filter/sessions/"+session.ID+"/panel",
		map[string]string{"action": "unknown"})
	if w.Code != 400 {
		t.Errorf("status = %d, want 400 for unknown panel action", w.Code)
	}
}

func TestDescriptor_withSession(t *testing.T) {
	r := testRouter(t)
	session := openSession(t, r)

	w := doJSON(t, r, "GET", "/ui/report-filter/descriptor?session_id="+session.ID, nil)
	if w.Code != 200 {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
	var desc model.FormDescriptor
	if err := json.NewDecoder(w.Body).Decode(&desc); err != nil {
		t.Fatalf("decode descriptor: %v", err)
	}
	if desc.ID != "report-filter" {
		t.Errorf("descriptor ID = %q, want report-filter", desc.ID)
	}
	if len(desc.Sections) == 0 {
		t.Fatal("descriptor should have sections")
	}
}

func TestDescriptor_withoutSession(t *testing.T) {
	r := testRouter(t)

	w := doJSON(t, r, "GET", "/ui/report-filter/descriptor", nil)
	if w.Code != 200 {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
}
