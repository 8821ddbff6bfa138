package report

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andeantech/ventas-bff/model"
)

func categories(items ...model.CategoryBreakdownItem) *model.ReportPayload {
	return &model.ReportPayload{CategoryBreakdown: items}
}

func cat(name string, pct float64) model.CategoryBreakdownItem {
	return model.CategoryBreakdownItem{Category: name, Percentage: pct}
}

func TestCategorySortDescending(t *testing.T) {
	view := Derive(categories(cat("B", 20.0), cat("C", 45.2), cat("A", 34.8)), 0)

	require.Len(t, view.CategoryBreakdown, 3)
	assert.Equal(t, "C", view.CategoryBreakdown[0].Category)
	assert.Equal(t, "A", view.CategoryBreakdown[1].Category)
	assert.Equal(t, "B", view.CategoryBreakdown[2].Category)
}

func TestCategorySortAlreadyOrdered(t *testing.T) {
	view := Derive(categories(cat("C", 45.2), cat("A", 34.8), cat("B", 20.0)), 0)

	got := []string{view.CategoryBreakdown[0].Category, view.CategoryBreakdown[1].Category, view.CategoryBreakdown[2].Category}
	assert.Equal(t, []string{"C", "A", "B"}, got)
}

func TestCategorySortStableOnTies(t *testing.T) {
	view := Derive(categories(cat("first", 30.0), cat("second", 30.0), cat("third", 40.0)), 0)

	assert.Equal(t, "third", view.CategoryBreakdown[0].Category)
	assert.Equal(t, "first", view.CategoryBreakdown[1].Category)
	assert.Equal(t, "second", view.CategoryBreakdown[2].Category)
}

func TestCategorySortDoesNotMutatePayload(t *testing.T) {
	payload := categories(cat("B", 20.0), cat("C", 45.2))
	Derive(payload, 0)

	assert.Equal(t, "B", payload.CategoryBreakdown[0].Category)
}

func performanceRows(n int) *model.ReportPayload {
	payload := &model.ReportPayload{}
	for i := 0; i < n; i++ {
		payload.PerformanceRows = append(payload.PerformanceRows, model.PerformanceRow{
			VendorName: string(rune('A' + i)),
			Status:     model.StatusOK,
		})
	}
	return payload
}

func TestPaginationPages(t *testing.T) {
	payload := performanceRows(12)

	page0 := Derive(payload, 0).Performance
	require.Len(t, page0.Rows, 5)
	assert.Equal(t, "A", page0.Rows[0].VendorName)
	assert.Equal(t, "E", page0.Rows[4].VendorName)
	assert.Equal(t, 3, page0.TotalPages)
	assert.Equal(t, 12, page0.TotalRows)

	page1 := Derive(payload, 1).Performance
	require.Len(t, page1.Rows, 5)
	assert.Equal(t, "F", page1.Rows[0].VendorName)
	assert.Equal(t, "J", page1.Rows[4].VendorName)

	page2 := Derive(payload, 2).Performance
	require.Len(t, page2.Rows, 2)
	assert.Equal(t, "K", page2.Rows[0].VendorName)
	assert.Equal(t, "L", page2.Rows[1].VendorName)
}

func TestPaginationClampsOutOfRange(t *testing.T) {
	payload := performanceRows(12)

	beyond := Derive(payload, 9).Performance
	assert.Equal(t, 2, beyond.Page)
	require.Len(t, beyond.Rows, 2)

	negative := Derive(payload, -3).Performance
	assert.Equal(t, 0, negative.Page)
}

func TestPaginationEmptyRows(t *testing.T) {
	page := Derive(&model.ReportPayload{}, 0).Performance
	assert.False(t, page.HasData)
	assert.Empty(t, page.Rows)
	assert.Equal(t, 1, page.TotalPages)
	assert.Equal(t, 0, page.Page)
}

func TestStatusLabels(t *testing.T) {
	assert.Equal(t, "✅ OK", StatusLabel(model.StatusOK))
	assert.Equal(t, "🔽 Bajo", StatusLabel(model.StatusLow))
	assert.Equal(t, neutralStatusLabel, StatusLabel(model.RowStatus("SOMETHING_NEW")))
	assert.Equal(t, neutralStatusLabel, StatusLabel(model.RowStatus("")))
}

func TestGoalProgressOverGoal(t *testing.T) {
	payload := &model.ReportPayload{
		KPIs:          model.KPISet{TotalSales: decimal.NewFromInt(15000)},
		GoalTargetUSD: decimal.NewFromInt(10000),
	}
	goal := Derive(payload, 0).Goal

	assert.True(t, goal.IsOverGoal)
	assert.Equal(t, float64(100), goal.ProgressPercentage)
	assert.Equal(t, "5000", goal.OverageUSD.String())
}

func TestGoalProgressUnderGoal(t *testing.T) {
	payload := &model.ReportPayload{
		KPIs:          model.KPISet{TotalSales: decimal.NewFromInt(2500)},
		GoalTargetUSD: decimal.NewFromInt(10000),
	}
	goal := Derive(payload, 0).Goal

	assert.False(t, goal.IsOverGoal)
	assert.InDelta(t, 25.0, goal.ProgressPercentage, 0.0001)
	assert.True(t, goal.OverageUSD.IsZero())
}

func TestGoalProgressZeroTarget(t *testing.T) {
	goal := Derive(&model.ReportPayload{
		KPIs: model.KPISet{TotalSales: decimal.NewFromInt(500)},
	}, 0).Goal
	assert.Equal(t, float64(100), goal.ProgressPercentage)
	assert.False(t, goal.IsOverGoal)

	empty := Derive(&model.ReportPayload{}, 0).Goal
	assert.Equal(t, float64(0), empty.ProgressPercentage)
}

func TestCompletionLabel(t *testing.T) {
	ratio := decimal.NewFromFloat(0.05)
	view := Derive(&model.ReportPayload{KPIs: model.KPISet{GoalCompletionRatio: ratio}}, 0)
	assert.Equal(t, "5.0%", view.CompletionLabel)

	over := Derive(&model.ReportPayload{KPIs: model.KPISet{GoalCompletionRatio: decimal.NewFromFloat(1.275)}}, 0)
	assert.Equal(t, "127.5%", over.CompletionLabel)
}

func TestNoDataFlags(t *testing.T) {
	view := Derive(&model.ReportPayload{}, 0)
	assert.False(t, view.Performance.HasData)
	assert.False(t, view.HasRegionalData)
	assert.False(t, view.HasCategoryData)

	withData := Derive(&model.ReportPayload{
		RegionalSales: []model.RegionalSale{{Zone: model.ZoneNorth, SalesUSD: decimal.NewFromInt(10)}},
	}, 0)
	assert.True(t, withData.HasRegionalData)
}
