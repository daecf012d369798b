package notifyagent

import "huusy-marketplace/internal/models"

// Notification types
const (
	TypeListingPublished = "listing_published"
	TypeListingFavorited = "listing_favorited"
)

// Channels
const (
	ChannelEmail = "email"
	ChannelSMS   = "sms"
)

// Statuses
const (
	StatusSent     = "sent"
	StatusFailed   = "failed"
	StatusDisabled = "disabled"
)

type Output struct {
	Skipped       bool                  `json:"skipped"`
	Notifications []models.Notification `json:"notifications,omitempty"`
}
