package models

type Notification struct {
	ID      string                 `json:"id"`
	AgentID string                 `json:"agentId"`
	Type    string                 `json:"type"`    // "listing_published", "listing_favorited"
	Channel string                 `json:"channel"` // "email", "sms"
	Status  string                 `json:"status"`  // "sent", "failed", "disabled"
	Payload map[string]interface{} `json:"payload,omitempty"`
	SentAt  string                 `json:"sentAt"`
}

type NotificationTemplate struct {
	Type    string `json:"type"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}
