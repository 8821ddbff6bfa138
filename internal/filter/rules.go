// Package filter validates report filter drafts. Validation is a flat,
// ordered list of independent predicate rules over the full draft: every
// rule always runs (no short-circuiting), and each produces at most one
// field- or form-level error.
package filter

import (
	"time"

	"github.com/andeantech/ventas-bff/model"
)

// MaxCustomSpanDays is the largest inclusive calendar-day span allowed for a
// custom reporting period: two years.
const MaxCustomSpanDays = 730

// Rule checks one aspect of a draft and returns nil when satisfied. Rules
// are independent: a rule whose precondition does not hold is vacuously
// satisfied and must return nil rather than piggy-back on another rule's
// outcome.
type Rule struct {
	Name  string
	Check func(d *model.FilterDraft) *model.FieldError
}

// Rules is the evaluation order. Order affects only the position of errors
// in the returned list, never their presence.
func Rules() []Rule {
	return []Rule{
		{Name: "period", Check: checkPeriod},
		{Name: "segmentation", Check: checkSegmentation},
		{Name: "custom_dates", Check: checkCustomDates},
		{Name: "date_order", Check: checkDateOrder},
		{Name: "date_span", Check: checkDateSpan},
		{Name: "report_types", Check: checkReportTypes},
	}
}

func checkPeriod(d *model.FilterDraft) *model.FieldError {
	if d.Period.Valid() {
		return nil
	}
	return &model.FieldError{
		Field:   model.FieldPeriod,
		Code:    "INVALID_ENUM",
		Message: "a reporting period must be selected",
	}
}

// checkSegmentation requires at least one of vendor, country, or zone. The
// error is form-level: no single field is to blame.
func checkSegmentation(d *model.FilterDraft) *model.FieldError {
	if d.HasSegmentation() {
		return nil
	}
	return &model.FieldError{
		Field:   model.FormLevelField,
		Code:    "SEGMENTATION_REQUIRED",
		Message: "select at least one vendor, country, or geographic zone",
	}
}

// checkCustomDates requires both dates to be present and well-formed when
// the period is custom. For any other period the rule is vacuously
// satisfied: stale date values are ignored, not cleared.
func checkCustomDates(d *model.FilterDraft) *model.FieldError {
	if d.Period != model.PeriodCustom {
		return nil
	}
	if d.StartDate == "" {
		return &model.FieldError{
			Field:   model.FieldStartDate,
			Code:    "REQUIRED",
			Message: "start and end dates are required for a custom period",
		}
	}
	if d.EndDate == "" {
		return &model.FieldError{
			Field:   model.FieldEndDate,
			Code:    "REQUIRED",
			Message: "start and end dates are required for a custom period",
		}
	}
	if _, err := parseDate(d.StartDate); err != nil {
		return &model.FieldError{
			Field:   model.FieldStartDate,
			Code:    "INVALID_DATE",
			Message: "start date is not a valid calendar date",
		}
	}
	if _, err := parseDate(d.EndDate); err != nil {
		return &model.FieldError{
			Field:   model.FieldEndDate,
			Code:    "INVALID_DATE",
			Message: "end date is not a valid calendar date",
		}
	}
	return nil
}

// checkDateOrder requires the end date to be strictly after the start date.
// Only evaluated for a custom period with both dates present and parseable.
func checkDateOrder(d *model.FilterDraft) *model.FieldError {
	start, end, ok := customDates(d)
	if !ok {
		return nil
	}
	if end.After(start) {
		return nil
	}
	return &model.FieldError{
		Field:   model.FieldEndDate,
		Code:    "DATE_ORDER",
		Message: "end date must be after the start date",
	}
}

// checkDateSpan limits the inclusive span to MaxCustomSpanDays calendar
// days. The difference is computed on calendar days, never wall-clock time.
func checkDateSpan(d *model.FilterDraft) *model.FieldError {
	start, end, ok := customDates(d)
	if !ok {
		return nil
	}
	if daysBetween(start, end) <= MaxCustomSpanDays {
		return nil
	}
	return &model.FieldError{
		Field:   model.FieldEndDate,
		Code:    "DATE_SPAN",
		Message: "the selected period may not exceed two years",
	}
}

func checkReportTypes(d *model.FilterDraft) *model.FieldError {
	if len(d.ReportTypes) > 0 {
		return nil
	}
	return &model.FieldError{
		Field:   model.FieldReportTypes,
		Code:    "REQUIRED",
		Message: "select at least one report type",
	}
}

// customDates returns both parsed dates when the period is custom and both
// fields hold valid dates; ok is false otherwise.
func customDates(d *model.FilterDraft) (start, end time.Time, ok bool) {
	if d.Period != model.PeriodCustom || d.StartDate == "" || d.EndDate == "" {
		return time.Time{}, time.Time{}, false
	}
	start, err := parseDate(d.StartDate)
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	end, err = parseDate(d.EndDate)
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}

// parseDate parses a calendar date in UTC. Using a fixed location keeps the
// day arithmetic timezone-insensitive.
func parseDate(s string) (time.Time, error) {
	return time.ParseInLocation(model.DateLayout, s, time.UTC)
}

// daysBetween returns the calendar-day difference end minus start.
func daysBetween(start, end time.Time) int {
	return int(end.Sub(start) / (24 * time.Hour))
}
