package listagents

import "huusy-marketplace/internal/models"

type Output struct {
	Agents []models.Agent `json:"agents"`
	Total  int            `json:"total"`
}
