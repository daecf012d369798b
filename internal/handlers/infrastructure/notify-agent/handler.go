// internal/handlers/infrastructure/notify-agent/handler.go
package notifyagent

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"huusy-marketplace/internal/common/logger"
	"huusy-marketplace/internal/common/metrics"
	"huusy-marketplace/internal/handlers/data-access/query-postgresql/queries"
	"huusy-marketplace/internal/models"
)

const TaskType = "notify-agent"

var (
	ErrNotificationSendFailed = errors.New("NOTIFICATION_SEND_FAILED")
	ErrQueryExecutionFailed   = errors.New("QUERY_EXECUTION_FAILED")
)

// EmailSender is satisfied by aws.SESClient.
type EmailSender interface {
	SendEmail(ctx context.Context, to []string, subject, textBody, htmlBody string) (string, error)
}

// SMSSender is satisfied by aws.SNSClient.
type SMSSender interface {
	SendSMS(ctx context.Context, phone, message string) (string, error)
}

type Handler struct {
	config *Config
	db     *sql.DB
	email  EmailSender
	sms    SMSSender
	logger logger.Logger
	now    func() time.Time
}

// NewHandler builds the handler. A nil sender disables its channel.
func NewHandler(config *Config, db *sql.DB, email EmailSender, sms SMSSender, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		db:     db,
		email:  email,
		sms:    sms,
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
		now:    time.Now,
	}
}

// HandleEvent implements messaging.EventHandler. Only a failure to load the
// listing is returned; send failures are reported in the notification status.
func (h *Handler) HandleEvent(ctx context.Context, event models.ListingEvent) error {
	startTime := time.Now()

	ctx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, event)
	if err != nil {
		metrics.HandlerRequestsFailed.WithLabelValues(TaskType, ErrQueryExecutionFailed.Error()).Inc()
		return err
	}

	metrics.HandlerRequestsCompleted.WithLabelValues(TaskType).Inc()
	metrics.HandlerDuration.WithLabelValues(TaskType).Observe(time.Since(startTime).Seconds())
	for _, n := range output.Notifications {
		h.logger.Info("agent notification processed", map[string]interface{}{
			"notificationId": n.ID,
			"agentId":        n.AgentID,
			"type":           n.Type,
			"channel":        n.Channel,
			"status":         n.Status,
		})
	}
	return nil
}

func notificationType(action models.EventAction) (string, bool) {
	switch action {
	case models.EventListingCreated:
		return TypeListingPublished, true
	case models.EventFavoriteAdded:
		return TypeListingFavorited, true
	}
	return "", false
}

func (h *Handler) execute(ctx context.Context, event models.ListingEvent) (*Output, error) {
	notifType, ok := notificationType(event.Action)
	if !ok || event.ListingID == "" {
		return &Output{Skipped: true}, nil
	}

	listing, err := queries.FetchListingByID(ctx, h.db, event.ListingID)
	if err != nil {
		if errors.Is(err, queries.ErrNotFound) {
			h.logger.Warn("listing not found, skipping notification", map[string]interface{}{
				"listingId": event.ListingID,
				"action":    string(event.Action),
			})
			return &Output{Skipped: true}, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrQueryExecutionFailed, err)
	}
	if listing.Agent == nil {
		h.logger.Warn("listing has no agent, skipping notification", map[string]interface{}{"listingId": listing.ID})
		return &Output{Skipped: true}, nil
	}

	tmpl := templates[notifType]
	data := templateData(listing, h.config.SiteURL)
	payload := map[string]interface{}{"listingId": listing.ID, "eventId": event.ID}
	if event.CustomerID != "" {
		payload["customerId"] = event.CustomerID
	}

	output := &Output{}

	emailStatus := StatusDisabled
	if h.config.EmailEnabled && h.email != nil && listing.Agent.Email != "" {
		subject := renderTemplate(tmpl.Subject, data)
		body := renderTemplate(tmpl.Body, data)
		emailStatus = h.send(ChannelEmail, listing.Agent.Email, func() error {
			_, err := h.email.SendEmail(ctx, []string{listing.Agent.Email}, subject, body, "")
			return err
		})
	}
	output.Notifications = append(output.Notifications, h.notification(listing, notifType, ChannelEmail, emailStatus, payload))

	if tmpl.SMS != "" {
		smsStatus := StatusDisabled
		if h.config.SMSEnabled && h.sms != nil && listing.Agent.Phone != "" {
			message := renderTemplate(tmpl.SMS, data)
			smsStatus = h.send(ChannelSMS, listing.Agent.Phone, func() error {
				_, err := h.sms.SendSMS(ctx, listing.Agent.Phone, message)
				return err
			})
		}
		output.Notifications = append(output.Notifications, h.notification(listing, notifType, ChannelSMS, smsStatus, payload))
	}

	return output, nil
}

func (h *Handler) send(channel, recipient string, fn func() error) string {
	if err := fn(); err != nil {
		metrics.NotificationsSent.WithLabelValues(channel, StatusFailed).Inc()
		h.logger.Error("notification send failed", map[string]interface{}{
			"channel":   channel,
			"recipient": recipient,
			"error":     fmt.Errorf("%w: %v", ErrNotificationSendFailed, err),
		})
		return StatusFailed
	}
	metrics.NotificationsSent.WithLabelValues(channel, StatusSent).Inc()
	return StatusSent
}

func (h *Handler) notification(l *models.Listing, notifType, channel, status string, payload map[string]interface{}) models.Notification {
	return models.Notification{
		ID:      uuid.New().String(),
		AgentID: l.AgentID,
		Type:    notifType,
		Channel: channel,
		Status:  status,
		Payload: payload,
		SentAt:  h.now().UTC().Format(time.RFC3339),
	}
}

func (h *Handler) Execute(ctx context.Context, event models.ListingEvent) (*Output, error) {
	return h.execute(ctx, event)
}
