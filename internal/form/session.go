// Package form owns the filter form's server-side state: one session per
// mounted form, holding the draft, its validation errors, the catalog
// snapshot, the last generated report, and the panel state. The session
// manager is the sole writer of all of it.
package form

import (
	"maps"
	"slices"
	"time"

	"github.com/andeantech/ventas-bff/internal/panel"
	"github.com/andeantech/ventas-bff/model"
)

// Status is the form's submit lifecycle state.
type Status string

const (
	// StatusIdle means no generation request is in flight.
	StatusIdle Status = "idle"
	// StatusLoading means a generation request is in flight. Submit events
	// arriving in this state are dropped, not queued.
	StatusLoading Status = "loading"
)

// Session is one mounted filter form. It is created with a fresh draft and
// a freshly loaded catalog snapshot, and discarded when the user navigates
// away or it expires.
type Session struct {
	ID        string                `json:"id"`
	SubjectID string                `json:"subject_id"`
	Draft     model.FilterDraft     `json:"draft"`
	Touched   map[string]bool       `json:"touched,omitempty"`
	Errors    []model.FieldError    `json:"errors,omitempty"`
	FormError string                `json:"form_error,omitempty"`
	Status    Status                `json:"status"`
	Catalogs  model.CatalogSnapshot `json:"catalogs"`
	Report    *model.ReportPayload  `json:"report,omitempty"`
	Page      int                   `json:"page"`
	Viewport  panel.Viewport        `json:"viewport"`
	Panel     panel.State           `json:"panel"`
	Version   int64                 `json:"version"`
	CreatedAt time.Time             `json:"created_at"`
	UpdatedAt time.Time             `json:"updated_at"`
}

// clone returns a copy whose mutable containers are independent of the
// receiver. Stores hand out and keep clones only: a session held by a
// caller never shares a map or slice with stored state, so nothing
// written outside an Update can reach the store.
func (s Session) clone() Session {
	out := s
	out.Touched = maps.Clone(s.Touched)
	out.Errors = slices.Clone(s.Errors)
	out.Catalogs.Countries = slices.Clone(s.Catalogs.Countries)
	out.Catalogs.Vendors = slices.Clone(s.Catalogs.Vendors)
	out.Catalogs.Categories = slices.Clone(s.Catalogs.Categories)
	out.Catalogs.Failed = slices.Clone(s.Catalogs.Failed)
	return out
}

// FieldChanges is a partial update to the draft. Nil fields are untouched;
// a present field replaces the draft's value, including replacement with an
// empty selection.
type FieldChanges struct {
	VendorID      *string             `json:"vendedor_id,omitempty"`
	CountryIDs    *[]string           `json:"pais,omitempty"`
	Zones         *[]model.Zone       `json:"zona_geografica,omitempty"`
	Period        *model.Period       `json:"periodo_tiempo,omitempty"`
	StartDate     *string             `json:"fecha_inicio,omitempty"`
	EndDate       *string             `json:"fecha_fin,omitempty"`
	CategoryNames *[]string           `json:"categoria_producto,omitempty"`
	ReportTypes   *[]model.ReportType `json:"tipo_reporte,omitempty"`
}

// Empty reports whether the change set touches nothing.
func (c FieldChanges) Empty() bool {
	return c.VendorID == nil && c.CountryIDs == nil && c.Zones == nil &&
		c.Period == nil && c.StartDate == nil && c.EndDate == nil &&
		c.CategoryNames == nil && c.ReportTypes == nil
}

// apply mutates the session's draft through the named setters and marks
// each changed field touched.
func (s *Session) apply(changes FieldChanges) {
	if s.Touched == nil {
		s.Touched = make(map[string]bool)
	}
	if changes.VendorID != nil {
		s.Draft.SetVendorID(*changes.VendorID)
		s.Touched[model.FieldVendorID] = true
	}
	if changes.CountryIDs != nil {
		s.Draft.SetCountryIDs(*changes.CountryIDs)
		s.Touched[model.FieldCountryIDs] = true
	}
	if changes.Zones != nil {
		s.Draft.SetZones(*changes.Zones)
		s.Touched[model.FieldZones] = true
	}
	if changes.Period != nil {
		s.Draft.SetPeriod(*changes.Period)
		s.Touched[model.FieldPeriod] = true
	}
	if changes.StartDate != nil {
		s.Draft.SetStartDate(*changes.StartDate)
		s.Touched[model.FieldStartDate] = true
	}
	if changes.EndDate != nil {
		s.Draft.SetEndDate(*changes.EndDate)
		s.Touched[model.FieldEndDate] = true
	}
	if changes.CategoryNames != nil {
		s.Draft.SetCategoryNames(*changes.CategoryNames)
		s.Touched[model.FieldCategories] = true
	}
	if changes.ReportTypes != nil {
		s.Draft.SetReportTypes(*changes.ReportTypes)
		s.Touched[model.FieldReportTypes] = true
	}
}
