package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"huusy-marketplace/internal/common/logger"
	"huusy-marketplace/internal/common/metrics"
	"huusy-marketplace/internal/models"

	"github.com/streadway/amqp"
)

// EventHandler reacts to a listing event.
type EventHandler interface {
	HandleEvent(ctx context.Context, event models.ListingEvent) error
}

// EventHandlerFunc adapts a function to EventHandler.
type EventHandlerFunc func(ctx context.Context, event models.ListingEvent) error

func (f EventHandlerFunc) HandleEvent(ctx context.Context, event models.ListingEvent) error {
	return f(ctx, event)
}

// Dispatcher runs every registered handler for an event.
type Dispatcher struct {
	handlers []EventHandler
	logger   logger.Logger
}

func NewDispatcher(log logger.Logger, handlers ...EventHandler) *Dispatcher {
	return &Dispatcher{handlers: handlers, logger: log}
}

// Register appends h.
func (d *Dispatcher) Register(h EventHandler) {
	d.handlers = append(d.handlers, h)
}

// Dispatch calls all handlers, even after a failure, and joins their errors.
func (d *Dispatcher) Dispatch(ctx context.Context, event models.ListingEvent) error {
	var errs []error
	for _, h := range d.handlers {
		if err := h.HandleEvent(ctx, event); err != nil {
			d.logger.Error("Event handler failed", map[string]interface{}{
				"action":    string(event.Action),
				"listingId": event.ListingID,
				"error":     err,
			})
			errs = append(errs, err)
		}
	}

	status := "ok"
	if len(errs) > 0 {
		status = "error"
	}
	metrics.EventsProcessed.WithLabelValues(string(event.Action), status).Inc()

	return errors.Join(errs...)
}

// ErrInvalidEvent marks a message that can never be processed.
var ErrInvalidEvent = errors.New("invalid event")

// DecodeEvent parses and validates a message body.
func DecodeEvent(body []byte) (models.ListingEvent, error) {
	var event models.ListingEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return event, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}
	if event.ListingID == "" {
		return event, fmt.Errorf("%w: listing_id is empty", ErrInvalidEvent)
	}
	switch event.Action {
	case models.EventListingCreated, models.EventListingUpdated, models.EventListingDeleted, models.EventFavoriteAdded:
	default:
		return event, fmt.Errorf("%w: unknown action %q", ErrInvalidEvent, event.Action)
	}
	return event, nil
}

// RabbitMQConsumer feeds queue deliveries to a Dispatcher.
type RabbitMQConsumer struct {
	conn           *amqp.Connection
	ch             amqpChannel
	queue          string
	prefetch       int
	dispatcher     *Dispatcher
	logger         logger.Logger
	handlerTimeout time.Duration
}

func NewRabbitMQConsumer(url, exchange, queue, routingKey string, prefetch int, dispatcher *Dispatcher, log logger.Logger) (*RabbitMQConsumer, error) {
	conn, ch, err := dialChannel(url, exchange, queue, routingKey)
	if err != nil {
		return nil, err
	}
	return newRabbitMQConsumer(conn, ch, queue, prefetch, dispatcher, log), nil
}

func newRabbitMQConsumer(conn *amqp.Connection, ch amqpChannel, queue string, prefetch int, dispatcher *Dispatcher, log logger.Logger) *RabbitMQConsumer {
	if prefetch <= 0 {
		prefetch = 1
	}
	return &RabbitMQConsumer{
		conn:           conn,
		ch:             ch,
		queue:          queue,
		prefetch:       prefetch,
		dispatcher:     dispatcher,
		logger:         log.WithFields(map[string]interface{}{"queue": queue}),
		handlerTimeout: 30 * time.Second,
	}
}

// Run consumes until ctx is cancelled or the channel closes.
func (c *RabbitMQConsumer) Run(ctx context.Context) error {
	if err := c.ch.Qos(c.prefetch, 0, false); err != nil {
		return fmt.Errorf("failed to set QoS: %w", err)
	}

	msgs, err := c.ch.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	c.logger.Info("Consumer registered", nil)

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return fmt.Errorf("delivery channel closed")
			}
			c.processDelivery(ctx, d)
		}
	}
}

// processDelivery acks on success, drops invalid messages and requeues a
// failed message once.
func (c *RabbitMQConsumer) processDelivery(ctx context.Context, d amqp.Delivery) {
	event, err := DecodeEvent(d.Body)
	if err != nil {
		c.logger.Warn("Dropping invalid message", map[string]interface{}{"error": err})
		_ = d.Nack(false, false)
		return
	}

	hctx, cancel := context.WithTimeout(ctx, c.handlerTimeout)
	defer cancel()

	if err := c.dispatcher.Dispatch(hctx, event); err != nil {
		requeue := !d.Redelivered
		c.logger.Error("Event processing failed", map[string]interface{}{
			"action":    string(event.Action),
			"listingId": event.ListingID,
			"requeue":   requeue,
			"error":     err,
		})
		_ = d.Nack(false, requeue)
		return
	}

	if err := d.Ack(false); err != nil {
		c.logger.Warn("Ack failed", map[string]interface{}{"error": err})
	}
}

func (c *RabbitMQConsumer) Close() error {
	if c.ch != nil {
		_ = c.ch.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
