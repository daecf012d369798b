// internal/handlers/listings/search-listings/models.go
package searchlistings

import (
	"huusy-marketplace/internal/models"
	"huusy-marketplace/internal/search"
)

type Input struct {
	Search   string        `json:"search,omitempty"`
	SaleType string        `json:"saleType,omitempty"`
	Filter   search.Filter `json:"filter"`
	Limit    int           `json:"limit"`
	Offset   int           `json:"offset"`
}

type Output struct {
	Listings []models.Listing `json:"listings"`
	Total    int              `json:"total"`
	Limit    int              `json:"limit"`
	Offset   int              `json:"offset"`
	Ranked   bool             `json:"ranked"`
}
