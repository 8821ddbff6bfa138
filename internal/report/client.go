// Package report talks to the remote aggregation endpoint and derives the
// view models the console renders from its payload.
package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/andeantech/ventas-bff/internal/backend"
	"github.com/andeantech/ventas-bff/internal/config"
	"github.com/andeantech/ventas-bff/model"
)

// FailureKind classifies why a generation attempt failed.
type FailureKind string

const (
	FailureNetwork   FailureKind = "network"
	FailureRejected  FailureKind = "rejected"
	FailureRemote    FailureKind = "remote"
	FailureMalformed FailureKind = "malformed"
)

// GenerationError is a failed report generation. The previous payload, if
// any, stays valid; callers surface Message through the notification
// channel.
type GenerationError struct {
	Kind       FailureKind
	StatusCode int
	Message    string
}

func (e *GenerationError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("report generation failed (%s, status %d): %s", e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("report generation failed (%s): %s", e.Kind, e.Message)
}

// Client requests report generation from the administration API.
type Client struct {
	backend   *backend.Client
	serviceID string
	path      string
}

// NewClient creates a report Client for the configured endpoint.
func NewClient(b *backend.Client, cfg config.ReportConfig) *Client {
	return &Client{backend: b, serviceID: cfg.ServiceID, path: cfg.Path}
}

// request is the aggregation request body. Selections travel as
// comma-joined scalars or arrays exactly as the remote endpoint expects.
type request struct {
	VendorID    string             `json:"vendedor_id,omitempty"`
	Countries   []string           `json:"pais,omitempty"`
	Zones       []model.Zone       `json:"zona_geografica,omitempty"`
	Period      model.Period       `json:"periodo_tiempo"`
	StartDate   string             `json:"fecha_inicio,omitempty"`
	EndDate     string             `json:"fecha_fin,omitempty"`
	Categories  []string           `json:"categoria_producto,omitempty"`
	ReportTypes []model.ReportType `json:"tipo_reporte"`
}

// response mirrors the remote payload's Spanish key names.
type response struct {
	KPIs struct {
		TotalSales       decimal.Decimal `json:"ventas_totales"`
		MonthlyOrders    int64           `json:"pedidos_mes"`
		Completion       decimal.Decimal `json:"cumplimiento"`
		AvgDeliveryHours decimal.Decimal `json:"horas_entrega_promedio"`
	} `json:"kpis"`
	VendorPerformance []struct {
		Vendor   string          `json:"vendedor"`
		Country  string          `json:"pais"`
		Orders   int64           `json:"pedidos"`
		SalesUSD decimal.Decimal `json:"ventas_usd"`
		Status   string          `json:"estado"`
	} `json:"desempeno_vendedores"`
	RegionalSales []struct {
		Zone     model.Zone      `json:"zona"`
		SalesUSD decimal.Decimal `json:"ventas_usd"`
	} `json:"ventas_por_region"`
	CategoryBreakdown []struct {
		Category   string          `json:"categoria"`
		Units      int64           `json:"unidades"`
		RevenueUSD decimal.Decimal `json:"ingresos_usd"`
		Percentage float64         `json:"porcentaje"`
	} `json:"productos_por_categoria"`
	GoalTargetUSD decimal.Decimal `json:"meta_objetivo_usd"`
}

// Generate sends the draft to the aggregation endpoint and returns the
// parsed payload. Exactly one request is issued per call; the caller owns
// deduplication of concurrent submits.
func (c *Client) Generate(ctx context.Context, rctx *model.RequestContext, draft model.FilterDraft) (*model.ReportPayload, error) {
	body := request{
		VendorID:    draft.VendorID,
		Countries:   draft.CountryIDs,
		Zones:       draft.Zones,
		Period:      draft.Period,
		Categories:  draft.CategoryNames,
		ReportTypes: draft.ReportTypes,
	}
	if draft.Period == model.PeriodCustom {
		body.StartDate = draft.StartDate
		body.EndDate = draft.EndDate
	}

	res, err := c.backend.PostJSON(ctx, rctx, c.serviceID, c.path, body)
	if err != nil {
		return nil, classifyTransportError(err)
	}

	switch {
	case res.StatusCode >= 200 && res.StatusCode < 300:
		// fall through to decoding
	case res.StatusCode >= 500:
		return nil, &GenerationError{Kind: FailureRemote, StatusCode: res.StatusCode, Message: remoteMessage(res.Body)}
	default:
		return nil, &GenerationError{Kind: FailureRejected, StatusCode: res.StatusCode, Message: remoteMessage(res.Body)}
	}

	var wire response
	if err := res.DecodeJSON(&wire); err != nil {
		return nil, &GenerationError{Kind: FailureMalformed, StatusCode: res.StatusCode, Message: err.Error()}
	}
	return toPayload(wire), nil
}

func classifyTransportError(err error) error {
	var envelope *model.ErrorEnvelope
	if errors.As(err, &envelope) {
		return &GenerationError{Kind: FailureNetwork, Message: envelope.Message}
	}
	return &GenerationError{Kind: FailureNetwork, Message: err.Error()}
}

// remoteMessage digs a human-readable message out of an error body. The
// administration API is inconsistent about the key it uses.
func remoteMessage(body []byte) string {
	var probe map[string]any
	if err := json.Unmarshal(body, &probe); err == nil {
		for _, key := range []string{"detail", "message", "error"} {
			if s, ok := probe[key].(string); ok && s != "" {
				return s
			}
		}
	}
	if len(body) > 0 && len(body) <= 200 {
		return string(body)
	}
	return "the report service returned an error"
}

func toPayload(wire response) *model.ReportPayload {
	payload := &model.ReportPayload{
		KPIs: model.KPISet{
			TotalSales:          wire.KPIs.TotalSales,
			MonthlyOrders:       wire.KPIs.MonthlyOrders,
			GoalCompletionRatio: wire.KPIs.Completion,
			AvgDeliveryHours:    wire.KPIs.AvgDeliveryHours,
		},
		GoalTargetUSD: wire.GoalTargetUSD,
	}
	for _, row := range wire.VendorPerformance {
		payload.PerformanceRows = append(payload.PerformanceRows, model.PerformanceRow{
			VendorName:  row.Vendor,
			CountryCode: row.Country,
			OrderCount:  row.Orders,
			SalesUSD:    row.SalesUSD,
			Status:      model.RowStatus(row.Status),
		})
	}
	for _, row := range wire.RegionalSales {
		payload.RegionalSales = append(payload.RegionalSales, model.RegionalSale{
			Zone:     row.Zone,
			SalesUSD: row.SalesUSD,
		})
	}
	for _, item := range wire.CategoryBreakdown {
		payload.CategoryBreakdown = append(payload.CategoryBreakdown, model.CategoryBreakdownItem{
			Category:   item.Category,
			Units:      item.Units,
			RevenueUSD: item.RevenueUSD,
			Percentage: item.Percentage,
		})
	}
	return payload
}
