package model

// CatalogKind identifies one of the reference catalogs the filter form
// depends on.
type CatalogKind string

const (
	CatalogCountries  CatalogKind = "paises"
	CatalogVendors    CatalogKind = "vendedores"
	CatalogCategories CatalogKind = "categorias"
)

// AllCatalogKinds lists the catalogs loaded at form mount, in display order.
var AllCatalogKinds = []CatalogKind{CatalogCountries, CatalogVendors, CatalogCategories}

// CatalogEntry is a single option of a reference catalog. Entries are
// immutable once loaded; the catalog snapshot is read-only to every
// component except the loader that produced it.
type CatalogEntry struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// CatalogSnapshot holds the reference lists fetched at form mount. The three
// catalogs load independently: a failed catalog leaves its slice empty and
// its kind recorded in Failed, without blocking the others.
type CatalogSnapshot struct {
	Countries  []CatalogEntry `json:"countries"`
	Vendors    []CatalogEntry `json:"vendors"`
	Categories []CatalogEntry `json:"categories"`
	Failed     []CatalogKind  `json:"failed,omitempty"`
}

// Entries returns the entries for a kind.
func (s *CatalogSnapshot) Entries(kind CatalogKind) []CatalogEntry {
	switch kind {
	case CatalogCountries:
		return s.Countries
	case CatalogVendors:
		return s.Vendors
	case CatalogCategories:
		return s.Categories
	}
	return nil
}

// HasFailed reports whether the given catalog failed to load. A failed
// catalog's select stays empty and disabled, not hidden, so the form layout
// remains stable.
func (s *CatalogSnapshot) HasFailed(kind CatalogKind) bool {
	for _, k := range s.Failed {
		if k == kind {
			return true
		}
	}
	return false
}
