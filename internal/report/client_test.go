package report

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/andeantech/ventas-bff/internal/backend"
	"github.com/andeantech/ventas-bff/internal/config"
	"github.com/andeantech/ventas-bff/model"
)

const samplePayload = `{
	"kpis": {"ventas_totales": 11037.5, "pedidos_mes": 4, "cumplimiento": 0.05, "horas_entrega_promedio": 26.0},
	"desempeno_vendedores": [
		{"vendedor": "Lucia Paredes", "pais": "CO", "pedidos": 4, "ventas_usd": 11037.5, "estado": "LOW"}
	],
	"ventas_por_region": [{"zona": "norte", "ventas_usd": 11037.5}],
	"productos_por_categoria": [{"categoria": "Empaques", "unidades": 120, "ingresos_usd": 5400.0, "porcentaje": 48.9}],
	"meta_objetivo_usd": 220750.0
}`

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	b := backend.NewClient(map[string]config.ServiceConfig{
		"administracion": {
			BaseURL: srv.URL,
			Timeout: 2 * time.Second,
			CircuitBreaker: config.CircuitBreakerConfig{
				FailureThreshold: 100,
				SuccessThreshold: 1,
				Timeout:          time.Second,
			},
		},
	})
	return NewClient(b, config.ReportConfig{ServiceID: "administracion", Path: "/reportes/"}), srv
}

func validDraft() model.FilterDraft {
	draft := model.NewFilterDraft()
	draft.SetCountryIDs([]string{"1"})
	draft.SetPeriod(model.PeriodCurrentMonth)
	draft.SetReportTypes([]model.ReportType{model.ReportVendorPerformance})
	return draft
}

func TestGenerateDecodesPayload(t *testing.T) {
	var requests atomic.Int64
	var gotBody map[string]any
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		if r.Method != http.MethodPost || r.URL.Path != "/reportes/" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request body: %v", err)
		}
		w.Write([]byte(samplePayload))
	})
	client, _ := newTestClient(t, handler)

	payload, err := client.Generate(context.Background(), &model.RequestContext{SubjectID: "u-1"}, validDraft())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if n := requests.Load(); n != 1 {
		t.Fatalf("expected exactly one request, got %d", n)
	}
	if got := payload.KPIs.TotalSales.String(); got != "11037.5" {
		t.Errorf("total sales = %s, want 11037.5", got)
	}
	if len(payload.PerformanceRows) != 1 || payload.PerformanceRows[0].Status != model.StatusLow {
		t.Errorf("unexpected performance rows: %+v", payload.PerformanceRows)
	}
	if payload.PerformanceRows[0].VendorName != "Lucia Paredes" {
		t.Errorf("vendor name = %q", payload.PerformanceRows[0].VendorName)
	}
	if got := payload.GoalTargetUSD.String(); got != "220750" {
		t.Errorf("goal target = %s, want 220750", got)
	}

	if gotBody[model.FieldPeriod] != string(model.PeriodCurrentMonth) {
		t.Errorf("request period = %v", gotBody[model.FieldPeriod])
	}
	countries, _ := gotBody[model.FieldCountryIDs].([]any)
	if len(countries) != 1 || countries[0] != "1" {
		t.Errorf("request countries = %v", gotBody[model.FieldCountryIDs])
	}
	if _, present := gotBody[model.FieldStartDate]; present {
		t.Errorf("non-custom period must not send %s", model.FieldStartDate)
	}
}

func TestGenerateSendsCustomDates(t *testing.T) {
	var gotBody map[string]any
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Write([]byte(samplePayload))
	})
	client, _ := newTestClient(t, handler)

	draft := validDraft()
	draft.SetPeriod(model.PeriodCustom)
	draft.SetStartDate("2026-01-01")
	draft.SetEndDate("2026-03-31")

	if _, err := client.Generate(context.Background(), &model.RequestContext{SubjectID: "u-1"}, draft); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if gotBody[model.FieldStartDate] != "2026-01-01" || gotBody[model.FieldEndDate] != "2026-03-31" {
		t.Errorf("custom dates not forwarded: %v / %v", gotBody[model.FieldStartDate], gotBody[model.FieldEndDate])
	}
}

func TestGenerateClassifiesFailures(t *testing.T) {
	cases := []struct {
		name     string
		status   int
		body     string
		wantKind FailureKind
		wantMsg  string
	}{
		{"rejected", http.StatusUnprocessableEntity, `{"detail":"rango de fechas invalido"}`, FailureRejected, "rango de fechas invalido"},
		{"remote", http.StatusBadGateway, `{"message":"upstream down"}`, FailureRemote, "upstream down"},
		{"remote alt key", http.StatusInternalServerError, `{"error":"boom"}`, FailureRemote, "boom"},
		{"malformed", http.StatusOK, `{"kpis": not-json`, FailureMalformed, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			})
			client, _ := newTestClient(t, handler)

			_, err := client.Generate(context.Background(), &model.RequestContext{SubjectID: "u-1"}, validDraft())
			var genErr *GenerationError
			if !errors.As(err, &genErr) {
				t.Fatalf("expected GenerationError, got %v", err)
			}
			if genErr.Kind != tc.wantKind {
				t.Errorf("kind = %s, want %s", genErr.Kind, tc.wantKind)
			}
			if tc.wantMsg != "" && genErr.Message != tc.wantMsg {
				t.Errorf("message = %q, want %q", genErr.Message, tc.wantMsg)
			}
		})
	}
}

func TestGenerateNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close() // nothing is listening anymore

	b := backend.NewClient(map[string]config.ServiceConfig{
		"administracion": {
			BaseURL: url,
			Timeout: time.Second,
			CircuitBreaker: config.CircuitBreakerConfig{
				FailureThreshold: 100,
				SuccessThreshold: 1,
				Timeout:          time.Second,
			},
		},
	})
	client := NewClient(b, config.ReportConfig{ServiceID: "administracion", Path: "/reportes/"})

	_, err := client.Generate(context.Background(), &model.RequestContext{SubjectID: "u-1"}, validDraft())
	var genErr *GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("expected GenerationError, got %v", err)
	}
	if genErr.Kind != FailureNetwork {
		t.Errorf("kind = %s, want %s", genErr.Kind, FailureNetwork)
	}
}
