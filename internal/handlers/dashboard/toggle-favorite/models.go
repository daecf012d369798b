package togglefavorite

import "huusy-marketplace/internal/models"

type Operation string

const (
	OperationToggle Operation = "toggle"
	OperationList   Operation = "list"
)

type Input struct {
	Operation  Operation
	CustomerID string
	ListingID  string
}

type Output struct {
	Operation Operation        `json:"operation"`
	ListingID string           `json:"listingId,omitempty"`
	Favorited bool             `json:"favorited"`
	Favorites []models.Listing `json:"favorites,omitempty"`
}
