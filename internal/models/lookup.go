package models

// LookupKind names one of the lookup tables.
type LookupKind string

const (
	LookupKindCity         LookupKind = "cities"
	LookupKindPropertyType LookupKind = "property-types"
	LookupKindSaleType     LookupKind = "sale-types"
)

// Table returns the backing table name, or "" for an unknown kind.
func (k LookupKind) Table() string {
	switch k {
	case LookupKindCity:
		return "cities"
	case LookupKindPropertyType:
		return "property_types"
	case LookupKindSaleType:
		return "sale_types"
	}
	return ""
}

// Lookup is a city, property type or sale type. Property types carry no meta fields.
type Lookup struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	Path            string `json:"path"`
	MetaTitle       string `json:"metaTitle,omitempty"`
	MetaDescription string `json:"metaDescription,omitempty"`
}
