package managelisting

import "huusy-marketplace/internal/models"

type Operation string

const (
	OperationCreate Operation = "create"
	OperationUpdate Operation = "update"
	OperationDelete Operation = "delete"
	OperationList   Operation = "list"
)

type Input struct {
	Operation Operation
	AgentID   string
	ListingID string
	Listing   *models.ListingInput
}

type Output struct {
	Operation Operation        `json:"operation"`
	Listing   *models.Listing  `json:"listing,omitempty"`
	Listings  []models.Listing `json:"listings,omitempty"`
	ListingID string           `json:"listingId,omitempty"`
}
