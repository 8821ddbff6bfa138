package form

import (
	"github.com/andeantech/ventas-bff/model"
)

// Descriptor builds the resolved filter form for a session. Selects backed
// by a failed or empty catalog come out disabled, keeping the layout
// stable while the catalog is unavailable.
func Descriptor(session Session) model.FormDescriptor {
	snapshot := session.Catalogs

	return model.FormDescriptor{
		ID:             "report-filter",
		Title:          "Filtros de reporte de ventas",
		SubmitEndpoint: "/ui/report-filter/sessions/" + session.ID + "/submit",
		Sections: []model.SectionDescriptor{
			{
				ID:      "segmentacion",
				Title:   "Segmentación",
				Layout:  "grid",
				Columns: 3,
				Fields: []model.FieldDescriptor{
					{
						Field:    model.FieldVendorID,
						Label:    "Vendedor",
						Type:     "select",
						Options:  options(snapshot.Vendors),
						Disabled: selectDisabled(snapshot, model.CatalogVendors),
					},
					{
						Field:    model.FieldCountryIDs,
						Label:    "País",
						Type:     "select",
						Multiple: true,
						Options:  options(snapshot.Countries),
						Disabled: selectDisabled(snapshot, model.CatalogCountries),
					},
					{
						Field:    model.FieldZones,
						Label:    "Zona geográfica",
						Type:     "select",
						Multiple: true,
						Options: []model.OptionDescriptor{
							{Label: "Norte", Value: string(model.ZoneNorth)},
							{Label: "Centro", Value: string(model.ZoneCenter)},
							{Label: "Sur", Value: string(model.ZoneSouth)},
						},
					},
				},
			},
			{
				ID:      "periodo",
				Title:   "Período",
				Layout:  "grid",
				Columns: 3,
				Fields: []model.FieldDescriptor{
					{
						Field:    model.FieldPeriod,
						Label:    "Período de tiempo",
						Type:     "select",
						Required: true,
						Options: []model.OptionDescriptor{
							{Label: "Mes actual", Value: string(model.PeriodCurrentMonth)},
							{Label: "Trimestre actual", Value: string(model.PeriodCurrentQuarter)},
							{Label: "Año actual", Value: string(model.PeriodCurrentYear)},
							{Label: "Personalizado", Value: string(model.PeriodCustom)},
						},
					},
					{
						Field:     model.FieldStartDate,
						Label:     "Fecha inicio",
						Type:      "date",
						DependsOn: &model.FieldDependency{Field: model.FieldPeriod, Value: string(model.PeriodCustom)},
					},
					{
						Field:     model.FieldEndDate,
						Label:     "Fecha fin",
						Type:      "date",
						DependsOn: &model.FieldDependency{Field: model.FieldPeriod, Value: string(model.PeriodCustom)},
					},
				},
			},
			{
				ID:          "detalle",
				Title:       "Detalle",
				Layout:      "grid",
				Columns:     2,
				Collapsible: true,
				Fields: []model.FieldDescriptor{
					{
						Field:    model.FieldCategories,
						Label:    "Categoría de producto",
						Type:     "select",
						Multiple: true,
						Options:  categoryOptions(snapshot.Categories),
						Disabled: selectDisabled(snapshot, model.CatalogCategories),
					},
					{
						Field:    model.FieldReportTypes,
						Label:    "Tipo de reporte",
						Type:     "select",
						Required: true,
						Multiple: true,
						Options: []model.OptionDescriptor{
							{Label: "Desempeño por vendedor", Value: string(model.ReportVendorPerformance)},
							{Label: "Ventas por región", Value: string(model.ReportRegionalSales)},
							{Label: "Productos por categoría", Value: string(model.ReportCategoryBreakdown)},
						},
					},
				},
			},
		},
	}
}

func options(entries []model.CatalogEntry) []model.OptionDescriptor {
	out := make([]model.OptionDescriptor, 0, len(entries))
	for _, e := range entries {
		out = append(out, model.OptionDescriptor{Label: e.Label, Value: e.ID})
	}
	return out
}

// categoryOptions uses the catalog label as the value too: the filter
// carries category names, not ids.
func categoryOptions(entries []model.CatalogEntry) []model.OptionDescriptor {
	out := make([]model.OptionDescriptor, 0, len(entries))
	for _, e := range entries {
		out = append(out, model.OptionDescriptor{Label: e.Label, Value: e.Label})
	}
	return out
}

func selectDisabled(snapshot model.CatalogSnapshot, kind model.CatalogKind) bool {
	return snapshot.HasFailed(kind) || len(snapshot.Entries(kind)) == 0
}
