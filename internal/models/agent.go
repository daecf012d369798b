package models

import "time"

// Agent is a real-estate professional account.
type Agent struct {
	ID              string     `json:"id"`
	FullName        string     `json:"fullName,omitempty"`
	Email           string     `json:"email,omitempty"`
	AgencyName      string     `json:"agencyName,omitempty"`
	Phone           string     `json:"phone,omitempty"`
	ProfileImageURL string     `json:"profileImageUrl,omitempty"`
	Description     string     `json:"description,omitempty"`
	CreatedAt       *time.Time `json:"createdAt,omitempty"`
}
