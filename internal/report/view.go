package report

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/andeantech/ventas-bff/model"
)

// PageSize is the fixed number of performance rows per page.
const PageSize = 5

// statusLabels maps a row status to its display label. Unknown statuses
// fall back to neutralStatusLabel instead of failing the render.
var statusLabels = map[model.RowStatus]string{
	model.StatusOK:   "✅ OK",
	model.StatusWarn: "⚠️ Alerta",
	model.StatusHigh: "🔼 Alto",
	model.StatusLow:  "🔽 Bajo",
}

const neutralStatusLabel = "— Sin estado"

// StatusLabel returns the display label for a row status.
func StatusLabel(status model.RowStatus) string {
	if label, ok := statusLabels[status]; ok {
		return label
	}
	return neutralStatusLabel
}

// PerformanceRowView is one rendered performance table row.
type PerformanceRowView struct {
	VendorName  string          `json:"vendor_name"`
	CountryCode string          `json:"country_code"`
	OrderCount  int64           `json:"order_count"`
	SalesUSD    decimal.Decimal `json:"sales_usd"`
	Status      model.RowStatus `json:"status"`
	StatusLabel string          `json:"status_label"`
}

// PerformancePage is one page of performance rows plus paging metadata.
type PerformancePage struct {
	Rows       []PerformanceRowView `json:"rows"`
	Page       int                  `json:"page"`
	TotalPages int                  `json:"total_pages"`
	TotalRows  int                  `json:"total_rows"`
	HasData    bool                 `json:"has_data"`
}

// GoalProgress is the goal-vs-actual computation. ProgressPercentage is
// clamped to [0,100] for the visual bar; the raw ratio lives in the label
// and in OverageUSD when the goal is exceeded.
type GoalProgress struct {
	TargetUSD          decimal.Decimal `json:"target_usd"`
	ActualUSD          decimal.Decimal `json:"actual_usd"`
	ProgressPercentage float64         `json:"progress_percentage"`
	IsOverGoal         bool            `json:"is_over_goal"`
	OverageUSD         decimal.Decimal `json:"overage_usd"`
}

// View is the derived presentation of a ReportPayload. It is computed
// fresh on every read and never stored; only the page index is caller
// state.
type View struct {
	KPIs              model.KPISet                  `json:"kpis"`
	CompletionLabel   string                        `json:"completion_label"`
	Performance       PerformancePage               `json:"performance"`
	RegionalSales     []model.RegionalSale          `json:"regional_sales"`
	HasRegionalData   bool                          `json:"has_regional_data"`
	CategoryBreakdown []model.CategoryBreakdownItem `json:"category_breakdown"`
	HasCategoryData   bool                          `json:"has_category_data"`
	Goal              GoalProgress                  `json:"goal"`
}

// Derive computes the view for one page of a payload. The page index is
// clamped into the valid range; with no rows, page 0 is the only page.
func Derive(payload *model.ReportPayload, page int) View {
	view := View{
		KPIs:            payload.KPIs,
		CompletionLabel: completionLabel(payload.KPIs.GoalCompletionRatio),
		Performance:     paginate(payload.PerformanceRows, page),
		RegionalSales:   payload.RegionalSales,
		HasRegionalData: len(payload.RegionalSales) > 0,
		Goal:            goalProgress(payload.KPIs.TotalSales, payload.GoalTargetUSD),
	}
	view.CategoryBreakdown = sortCategories(payload.CategoryBreakdown)
	view.HasCategoryData = len(view.CategoryBreakdown) > 0
	return view
}

// sortCategories orders the breakdown by percentage descending. The sort is
// stable so ties keep their payload order.
func sortCategories(items []model.CategoryBreakdownItem) []model.CategoryBreakdownItem {
	out := append([]model.CategoryBreakdownItem(nil), items...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Percentage > out[j].Percentage
	})
	return out
}

func paginate(rows []model.PerformanceRow, page int) PerformancePage {
	total := len(rows)
	totalPages := (total + PageSize - 1) / PageSize
	if totalPages == 0 {
		totalPages = 1
	}
	if page < 0 {
		page = 0
	}
	if page >= totalPages {
		page = totalPages - 1
	}

	start := page * PageSize
	end := start + PageSize
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	views := make([]PerformanceRowView, 0, end-start)
	for _, row := range rows[start:end] {
		views = append(views, PerformanceRowView{
			VendorName:  row.VendorName,
			CountryCode: row.CountryCode,
			OrderCount:  row.OrderCount,
			SalesUSD:    row.SalesUSD,
			Status:      row.Status,
			StatusLabel: StatusLabel(row.Status),
		})
	}
	return PerformancePage{
		Rows:       views,
		Page:       page,
		TotalPages: totalPages,
		TotalRows:  total,
		HasData:    total > 0,
	}
}

func goalProgress(actual, target decimal.Decimal) GoalProgress {
	progress := GoalProgress{TargetUSD: target, ActualUSD: actual, OverageUSD: decimal.Zero}
	if target.IsZero() {
		// No goal configured. A bar at zero with no sales, full otherwise.
		if actual.IsPositive() {
			progress.ProgressPercentage = 100
		}
		return progress
	}
	ratio, _ := actual.Div(target).Float64()
	pct := ratio * 100
	if pct > 100 {
		pct = 100
	}
	if pct < 0 {
		pct = 0
	}
	progress.ProgressPercentage = pct
	if actual.GreaterThan(target) {
		progress.IsOverGoal = true
		progress.OverageUSD = actual.Sub(target)
	}
	return progress
}

// completionLabel renders the goal-completion ratio as a percentage with one
// decimal, so a ratio of 0.05 reads "5.0%".
func completionLabel(ratio decimal.Decimal) string {
	value, _ := ratio.Float64()
	return fmt.Sprintf("%.1f%%", value*100)
}
