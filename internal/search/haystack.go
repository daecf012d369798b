package search

import (
	"math"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"huusy-marketplace/internal/models"
)

// buildHaystack joins every searchable text of a listing, its relations and
// the human spellings of its numbers into one lowercase string.
func buildHaystack(l *models.Listing) string {
	parts := make([]string, 0, 48)
	add := func(values ...string) {
		for _, v := range values {
			if v != "" {
				parts = append(parts, v)
			}
		}
	}

	// basic
	add(l.PropertyName, l.Path, l.Excerpt, l.PropertyDetails, l.Address, l.MetaTitle, l.MetaDescription)

	// location
	add(l.Address)
	if l.City != nil {
		add(l.City.Title, l.City.Path, l.City.MetaTitle, l.City.MetaDescription)
	}

	// category
	if l.PropertyType != nil {
		add(l.PropertyType.Title, l.PropertyType.Path)
	}
	if l.SaleType != nil {
		add(l.SaleType.Title, l.SaleType.Path)
	}

	if l.Agent != nil {
		add(l.Agent.FullName, l.Agent.AgencyName, l.Agent.Email, l.Agent.Phone, l.Agent.Description)
	}

	add(numericIdioms(l)...)

	return strings.ToLower(strings.Join(parts, " "))
}

// numericIdioms renders price, room counts and size the ways people type
// them: 450000, 450,000, $450000, 450k, 0.5m, 3 beds, 2ba, 1200 sq ft.
func numericIdioms(l *models.Listing) []string {
	var out []string

	if l.Price != nil {
		p := *l.Price
		out = append(out,
			formatNumber(p),
			humanize.Commaf(p),
			"$"+formatNumber(p),
			formatNumber(math.Floor(p/1000+0.5))+"k",
			strconv.FormatFloat(p/1000000, 'f', 1, 64)+"m",
		)
	}
	if l.Bedrooms != nil {
		b := strconv.Itoa(*l.Bedrooms)
		out = append(out, b+" bed", b+" beds", b+"b")
	}
	if l.Bathrooms != nil {
		b := strconv.Itoa(*l.Bathrooms)
		out = append(out, b+" bath", b+" baths", b+"ba")
	}
	if l.PropertySize != nil {
		s := formatNumber(*l.PropertySize)
		out = append(out, s+" sqft", s+" sq ft")
	}
	return out
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
