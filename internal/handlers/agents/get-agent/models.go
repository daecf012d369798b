package getagent

import "huusy-marketplace/internal/models"

type Input struct {
	AgentID string
	// Limit caps the listings returned. Zero or less returns all of them.
	Limit int
}

type Output struct {
	Agent    *models.Agent    `json:"agent"`
	Listings []models.Listing `json:"listings"`
}
