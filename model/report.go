package model

import "github.com/shopspring/decimal"

// RowStatus classifies a vendor performance row.
type RowStatus string

const (
	StatusOK   RowStatus = "OK"
	StatusWarn RowStatus = "WARN"
	StatusHigh RowStatus = "HIGH"
	StatusLow  RowStatus = "LOW"
)

// KPISet holds the headline indicators of a generated report.
type KPISet struct {
	TotalSales          decimal.Decimal `json:"total_sales"`
	MonthlyOrders       int64           `json:"monthly_orders"`
	GoalCompletionRatio decimal.Decimal `json:"goal_completion_ratio"`
	AvgDeliveryHours    decimal.Decimal `json:"avg_delivery_hours"`
}

// PerformanceRow is one vendor's aggregated performance.
type PerformanceRow struct {
	VendorName  string          `json:"vendor_name"`
	CountryCode string          `json:"country_code"`
	OrderCount  int64           `json:"order_count"`
	SalesUSD    decimal.Decimal `json:"sales_usd"`
	Status      RowStatus       `json:"status"`
}

// RegionalSale is the aggregated sales figure for one geographic zone.
type RegionalSale struct {
	Zone     Zone            `json:"zone"`
	SalesUSD decimal.Decimal `json:"sales_usd"`
}

// CategoryBreakdownItem is one product category's share of the report.
type CategoryBreakdownItem struct {
	Category   string          `json:"category"`
	Units      int64           `json:"units"`
	RevenueUSD decimal.Decimal `json:"revenue_usd"`
	Percentage float64         `json:"percentage"`
}

// ReportPayload is the aggregated analytical result returned by the remote
// service for a valid filter draft. It is immutable once received: a new
// successful generation replaces the whole payload atomically, and a failed
// one leaves the previous payload untouched.
type ReportPayload struct {
	KPIs              KPISet                  `json:"kpis"`
	PerformanceRows   []PerformanceRow        `json:"performance_rows"`
	RegionalSales     []RegionalSale          `json:"regional_sales"`
	CategoryBreakdown []CategoryBreakdownItem `json:"category_breakdown"`
	GoalTargetUSD     decimal.Decimal         `json:"goal_target_usd"`
}
