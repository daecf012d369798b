// internal/handlers/data-access/query-elasticsearch/models.go
package queryelasticsearch

import (
	"huusy-marketplace/internal/models"
	"huusy-marketplace/internal/search"
)

type Input struct {
	QueryType  string        `json:"queryType"`
	Keywords   string        `json:"keywords,omitempty"`
	Filters    search.Filter `json:"filters"`
	ListingID  string        `json:"listingId,omitempty"`
	SaleTypeID string        `json:"saleTypeId,omitempty"`
	Pagination Pagination    `json:"pagination"`
}

type Pagination struct {
	From int `json:"from"`
	Size int `json:"size"`
}

type Output struct {
	Data      []models.Listing `json:"data"`
	TotalHits int64            `json:"totalHits"`
	MaxScore  float64          `json:"maxScore"`
	Took      int64            `json:"took"` // milliseconds
}
