package models

import "time"

type EventAction string

const (
	EventListingCreated EventAction = "listing.created"
	EventListingUpdated EventAction = "listing.updated"
	EventListingDeleted EventAction = "listing.deleted"
	EventFavoriteAdded  EventAction = "favorite.added"
)

// ListingEvent is published after a listing or favorite mutation.
type ListingEvent struct {
	ID         string      `json:"id"`
	Action     EventAction `json:"action"`
	ListingID  string      `json:"listing_id"`
	AgentID    string      `json:"agent_id,omitempty"`
	CustomerID string      `json:"customer_id,omitempty"`
	OccurredAt time.Time   `json:"occurred_at"`
}

// IsListingChange reports whether the event changes the listing itself.
func (e ListingEvent) IsListingChange() bool {
	switch e.Action {
	case EventListingCreated, EventListingUpdated, EventListingDeleted:
		return true
	}
	return false
}
