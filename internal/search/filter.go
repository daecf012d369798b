package search

import "huusy-marketplace/internal/models"

// Filter holds the structured browse filters. Bounds are inclusive and a
// listing missing a bounded field never passes that bound.
type Filter struct {
	CityID         string   `json:"cityId,omitempty"`
	PropertyTypeID string   `json:"propertyTypeId,omitempty"`
	SaleTypeID     string   `json:"saleTypeId,omitempty"`
	MinPrice       *float64 `json:"minPrice,omitempty"`
	MaxPrice       *float64 `json:"maxPrice,omitempty"`
	MinBedrooms    *int     `json:"bedrooms,omitempty"`
	MinBathrooms   *int     `json:"bathrooms,omitempty"`
}

func (f Filter) IsZero() bool {
	return f.CityID == "" && f.PropertyTypeID == "" && f.SaleTypeID == "" &&
		f.MinPrice == nil && f.MaxPrice == nil &&
		f.MinBedrooms == nil && f.MinBathrooms == nil
}

func (f Filter) Matches(l *models.Listing) bool {
	if f.CityID != "" && l.CityID != f.CityID {
		return false
	}
	if f.PropertyTypeID != "" && l.PropertyTypeID != f.PropertyTypeID {
		return false
	}
	if f.SaleTypeID != "" && l.SaleTypeID != f.SaleTypeID {
		return false
	}
	if f.MinPrice != nil && (l.Price == nil || *l.Price < *f.MinPrice) {
		return false
	}
	if f.MaxPrice != nil && (l.Price == nil || *l.Price > *f.MaxPrice) {
		return false
	}
	if f.MinBedrooms != nil && (l.Bedrooms == nil || *l.Bedrooms < *f.MinBedrooms) {
		return false
	}
	if f.MinBathrooms != nil && (l.Bathrooms == nil || *l.Bathrooms < *f.MinBathrooms) {
		return false
	}
	return true
}

// Apply returns the matching listings in corpus order without touching corpus.
func (f Filter) Apply(corpus []models.Listing) []models.Listing {
	out := make([]models.Listing, 0, len(corpus))
	for i := range corpus {
		if f.Matches(&corpus[i]) {
			out = append(out, corpus[i])
		}
	}
	return out
}
