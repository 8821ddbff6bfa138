package model

// Wire field names shared by the filter form, the validator, and the
// aggregation request body. The remote administration API speaks Spanish
// snake_case; these constants are the single source of truth for it.
const (
	FieldVendorID    = "vendedor_id"
	FieldCountryIDs  = "pais"
	FieldZones       = "zona_geografica"
	FieldPeriod      = "periodo_tiempo"
	FieldStartDate   = "fecha_inicio"
	FieldEndDate     = "fecha_fin"
	FieldCategories  = "categoria_producto"
	FieldReportTypes = "tipo_reporte"
)

// Period is the reporting time window selector.
type Period string

const (
	PeriodCurrentMonth   Period = "mes_actual"
	PeriodCurrentQuarter Period = "trimestre_actual"
	PeriodCurrentYear    Period = "anio_actual"
	PeriodCustom         Period = "personalizado"
)

// Valid reports whether p is one of the four known periods. The zero value
// is not valid: a draft starts with no period chosen.
func (p Period) Valid() bool {
	switch p {
	case PeriodCurrentMonth, PeriodCurrentQuarter, PeriodCurrentYear, PeriodCustom:
		return true
	}
	return false
}

// Zone is a fixed geographic zone tag.
type Zone string

const (
	ZoneNorth  Zone = "norte"
	ZoneCenter Zone = "centro"
	ZoneSouth  Zone = "sur"
)

// ReportType selects which report widgets the aggregation backend computes.
type ReportType string

const (
	ReportVendorPerformance ReportType = "DESEMPENO_VENDEDOR"
	ReportRegionalSales     ReportType = "VENTAS_REGION"
	ReportCategoryBreakdown ReportType = "PRODUCTOS_CATEGORIA"
)

// DateLayout is the calendar-date layout used by the filter's date fields.
// Dates are plain calendar days; no timezone is involved anywhere.
const DateLayout = "2006-01-02"

// FilterDraft is the mutable in-progress report query. It is a fixed-shape
// record edited through named mutators; there is no dynamic field
// registration. StartDate and EndDate are meaningful only when Period is
// PeriodCustom — stale values from an earlier custom selection are retained,
// not cleared, when the period changes away, and the validator ignores them.
type FilterDraft struct {
	VendorID      string       `json:"vendedor_id,omitempty"`
	CountryIDs    []string     `json:"pais"`
	Zones         []Zone       `json:"zona_geografica"`
	Period        Period       `json:"periodo_tiempo"`
	StartDate     string       `json:"fecha_inicio,omitempty"`
	EndDate       string       `json:"fecha_fin,omitempty"`
	CategoryNames []string     `json:"categoria_producto"`
	ReportTypes   []ReportType `json:"tipo_reporte"`
}

// NewFilterDraft returns an empty draft, the shape a form holds at mount.
func NewFilterDraft() FilterDraft {
	return FilterDraft{
		CountryIDs:    []string{},
		Zones:         []Zone{},
		CategoryNames: []string{},
		ReportTypes:   []ReportType{},
	}
}

// SetVendorID sets or clears the single-vendor segmentation filter.
func (d *FilterDraft) SetVendorID(id string) { d.VendorID = id }

// SetCountryIDs replaces the country selection. Order is irrelevant;
// duplicates are dropped.
func (d *FilterDraft) SetCountryIDs(ids []string) { d.CountryIDs = dedupe(ids) }

// SetZones replaces the zone selection, dropping duplicates.
func (d *FilterDraft) SetZones(zones []Zone) { d.Zones = dedupe(zones) }

// SetPeriod changes the reporting period. Date fields are deliberately left
// untouched so a user switching back to a custom period finds their previous
// dates still in place.
func (d *FilterDraft) SetPeriod(p Period) { d.Period = p }

// SetStartDate sets the custom-period start date (calendar date string).
func (d *FilterDraft) SetStartDate(date string) { d.StartDate = date }

// SetEndDate sets the custom-period end date (calendar date string).
func (d *FilterDraft) SetEndDate(date string) { d.EndDate = date }

// SetCategoryNames replaces the category-name selection, dropping duplicates.
func (d *FilterDraft) SetCategoryNames(names []string) { d.CategoryNames = dedupe(names) }

// SetReportTypes replaces the report-type selection, dropping duplicates.
func (d *FilterDraft) SetReportTypes(types []ReportType) { d.ReportTypes = dedupe(types) }

// HasSegmentation reports whether at least one of the vendor, country, or
// zone filters narrows the report scope.
func (d *FilterDraft) HasSegmentation() bool {
	return d.VendorID != "" || len(d.CountryIDs) > 0 || len(d.Zones) > 0
}

// Clone returns a deep copy of the draft.
func (d *FilterDraft) Clone() FilterDraft {
	out := *d
	out.CountryIDs = append([]string(nil), d.CountryIDs...)
	out.Zones = append([]Zone(nil), d.Zones...)
	out.CategoryNames = append([]string(nil), d.CategoryNames...)
	out.ReportTypes = append([]ReportType(nil), d.ReportTypes...)
	return out
}

func dedupe[T comparable](in []T) []T {
	seen := make(map[T]bool, len(in))
	out := make([]T, 0, len(in))
	for _, v := range in {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}
