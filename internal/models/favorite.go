package models

import "time"

type Favorite struct {
	ID         string    `json:"id"`
	PropertyID string    `json:"propertyId"`
	CustomerID string    `json:"customerId"`
	CreatedAt  time.Time `json:"createdAt"`
}
