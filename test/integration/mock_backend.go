package integration

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

// MockAdminBackend simulates the administration API: the three catalog
// listings plus the aggregation endpoint. Responses are configurable per
// route and every received request is recorded for later assertion.
type MockAdminBackend struct {
	t      *testing.T
	server *httptest.Server

	mu        sync.Mutex
	overrides map[string]*routeOverride
	requests  map[string][]*RecordedRequest
}

// RecordedRequest captures one request received by the mock backend.
type RecordedRequest struct {
	Method     string
	Path       string
	Headers    http.Header
	Body       map[string]any
	RawBody    []byte
	ReceivedAt time.Time
}

type routeOverride struct {
	status int
	body   any
	delay  time.Duration
}

// Catalog routes served by the mock.
const (
	PathCountries  = "/paises"
	PathVendors    = "/vendedores"
	PathCategories = "/categorias-suministros"
	PathReports    = "/reportes/"
)

// newMockAdminBackend starts a mock administration API with healthy default
// fixtures on every route.
func newMockAdminBackend(t *testing.T) *MockAdminBackend {
	t.Helper()

	mb := &MockAdminBackend{
		t:         t,
		overrides: make(map[string]*routeOverride),
		requests:  make(map[string][]*RecordedRequest),
	}

	// Method-qualified ServeMux patterns need Go 1.22+, so the method check
	// happens in a wrapper instead.
	withMethod := func(method string, next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if r.Method != method {
				http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
				return
			}
			next(w, r)
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc(PathCountries, withMethod("GET", mb.handle(PathCountries, CountriesFixture())))
	mux.HandleFunc(PathVendors, withMethod("GET", mb.handle(PathVendors, VendorsFixture())))
	mux.HandleFunc(PathCategories, withMethod("GET", mb.handle(PathCategories, CategoriesFixture())))
	mux.HandleFunc(PathReports, withMethod("POST", mb.handle(PathReports, ReportFixture())))

	mb.server = httptest.NewServer(mux)
	t.Cleanup(mb.server.Close)

	return mb
}

// URL returns the base URL of the mock backend server.
func (mb *MockAdminBackend) URL() string {
	return mb.server.URL
}

// RespondWith overrides the response for a route. Passing status 0 restores
// the default fixture.
func (mb *MockAdminBackend) RespondWith(path string, status int, body any) {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	if status == 0 {
		delete(mb.overrides, path)
		return
	}
	prev := mb.overrides[path]
	next := &routeOverride{status: status, body: body}
	if prev != nil {
		next.delay = prev.delay
	}
	mb.overrides[path] = next
}

// DelayResponse adds a fixed delay before a route answers.
func (mb *MockAdminBackend) DelayResponse(path string, delay time.Duration) {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	if o, ok := mb.overrides[path]; ok {
		o.delay = delay
		return
	}
	mb.overrides[path] = &routeOverride{delay: delay}
}

// Requests returns the recorded requests for a route.
func (mb *MockAdminBackend) Requests(path string) []*RecordedRequest {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	return append([]*RecordedRequest(nil), mb.requests[path]...)
}

// RequestCount returns how many requests a route has received.
func (mb *MockAdminBackend) RequestCount(path string) int {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	return len(mb.requests[path])
}

// LastRequest returns the most recent request for a route, or nil.
func (mb *MockAdminBackend) LastRequest(path string) *RecordedRequest {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	reqs := mb.requests[path]
	if len(reqs) == 0 {
		return nil
	}
	return reqs[len(reqs)-1]
}

func (mb *MockAdminBackend) handle(path string, defaultBody any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)

		rec := &RecordedRequest{
			Method:     r.Method,
			Path:       path,
			Headers:    r.Header.Clone(),
			RawBody:    raw,
			ReceivedAt: time.Now(),
		}
		if len(raw) > 0 {
			json.Unmarshal(raw, &rec.Body)
		}

		mb.mu.Lock()
		mb.requests[path] = append(mb.requests[path], rec)
		override := mb.overrides[path]
		mb.mu.Unlock()

		status := http.StatusOK
		body := defaultBody
		if override != nil {
			if override.delay > 0 {
				select {
				case <-time.After(override.delay):
				case <-r.Context().Done():
					return
				}
			}
			if override.status != 0 {
				status = override.status
				body = override.body
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if body != nil {
			json.NewEncoder(w).Encode(body)
		}
	}
}

// --- Default fixtures ---

// CountriesFixture returns the default country catalog listing.
func CountriesFixture() map[string]any {
	return map[string]any{
		"data": []map[string]any{
			{"id": 1, "nombre": "Colombia"},
			{"id": 2, "nombre": "Peru"},
			{"id": 3, "nombre": "Ecuador"},
		},
	}
}

// VendorsFixture returns the default vendor catalog listing.
func VendorsFixture() map[string]any {
	return map[string]any{
		"data": []map[string]any{
			{"id": 7, "nombre": "Ana Torres"},
			{"id": 8, "nombre": "Luis Vega"},
		},
	}
}

// CategoriesFixture returns the default category catalog listing.
func CategoriesFixture() map[string]any {
	return map[string]any{
		"data": []map[string]any{
			{"id": 11, "nombre": "Bebidas"},
			{"id": 12, "nombre": "Snacks"},
		},
	}
}

// ReportFixture returns the default aggregation payload: one month of sales
// for a single country with a lone underperforming vendor.
func ReportFixture() map[string]any {
	return map[string]any{
		"kpis": map[string]any{
			"ventas_totales":         11037.5,
			"pedidos_mes":            42,
			"cumplimiento":           0.05,
			"horas_entrega_promedio": 26.4,
		},
		"desempeno_vendedores": []map[string]any{
			{"vendedor": "Ana Torres", "pais": "CO", "pedidos": 42, "ventas_usd": 11037.5, "estado": "LOW"},
		},
		"ventas_por_region": []map[string]any{
			{"zona": "norte", "ventas_usd": 6300.0},
			{"zona": "centro", "ventas_usd": 4737.5},
		},
		"productos_por_categoria": []map[string]any{
			{"categoria": "Bebidas", "unidades": 310, "ingresos_usd": 7200.0, "porcentaje": 65.2},
			{"categoria": "Snacks", "unidades": 180, "ingresos_usd": 3837.5, "porcentaje": 34.8},
		},
		"meta_objetivo_usd": 220750.0,
	}
}

// ErrorFixture returns an error body in the administration API's shape.
func ErrorFixture(detail string) map[string]any {
	return map[string]any{"detail": detail}
}
