package search

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"huusy-marketplace/internal/models"
)

func TestFilter_Apply(t *testing.T) {
	a := createListing("a", 300000, 2, 1, 900)
	a.CityID, a.SaleTypeID = "city-1", "sale-1"
	b := createListing("b", 500000, 3, 2, 1400)
	b.CityID, b.SaleTypeID, b.PropertyTypeID = "city-1", "sale-2", "type-1"
	c := createListing("c", 800000, 4, 3, 2100)
	c.CityID = "city-2"
	unpriced := models.Listing{ID: "unpriced", Path: "unpriced", CityID: "city-1"}
	corpus := []models.Listing{a, b, c, unpriced}

	tests := []struct {
		name     string
		filter   Filter
		expected []string
	}{
		{name: "zero filter keeps everything", filter: Filter{}, expected: []string{"a", "b", "c", "unpriced"}},
		{name: "city", filter: Filter{CityID: "city-1"}, expected: []string{"a", "b", "unpriced"}},
		{name: "sale type", filter: Filter{SaleTypeID: "sale-2"}, expected: []string{"b"}},
		{name: "property type", filter: Filter{PropertyTypeID: "type-1"}, expected: []string{"b"}},
		{name: "inclusive price range", filter: Filter{MinPrice: floatPtr(300000), MaxPrice: floatPtr(500000)}, expected: []string{"a", "b"}},
		{name: "minimum bedrooms", filter: Filter{MinBedrooms: intPtr(3)}, expected: []string{"b", "c"}},
		{name: "minimum bathrooms", filter: Filter{MinBathrooms: intPtr(3)}, expected: []string{"c"}},
		{name: "combined", filter: Filter{CityID: "city-1", MinBedrooms: intPtr(3)}, expected: []string{"b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ids(tt.filter.Apply(corpus)))
		})
	}
}

func TestFilter_IsZero(t *testing.T) {
	assert.True(t, Filter{}.IsZero())
	assert.False(t, Filter{CityID: "x"}.IsZero())
	assert.False(t, Filter{MinBathrooms: intPtr(1)}.IsZero())
}
