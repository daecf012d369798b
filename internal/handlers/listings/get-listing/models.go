// internal/handlers/listings/get-listing/models.go
package getlisting

import "huusy-marketplace/internal/models"

type Input struct {
	Path string `json:"path"`
}

type Output struct {
	Listing       *models.Listing  `json:"listing"`
	Related       []models.Listing `json:"related"`
	RelatedSource string           `json:"relatedSource,omitempty"` // "search" or "database"
}

const (
	RelatedSourceSearch   = "search"
	RelatedSourceDatabase = "database"
)
