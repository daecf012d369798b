// Package messaging publishes and consumes listing events.
package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"huusy-marketplace/internal/common/aws"
	"huusy-marketplace/internal/common/config"
	"huusy-marketplace/internal/common/logger"
	"huusy-marketplace/internal/models"
)

// Publisher delivers listing events to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, event models.ListingEvent) error
	Close() error
}

// NoopPublisher drops events.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, models.ListingEvent) error { return nil }
func (NoopPublisher) Close() error                                       { return nil }

// InProcessPublisher hands events straight to a Dispatcher.
type InProcessPublisher struct {
	dispatcher *Dispatcher
}

func NewInProcessPublisher(d *Dispatcher) *InProcessPublisher {
	return &InProcessPublisher{dispatcher: d}
}

func (p *InProcessPublisher) Publish(ctx context.Context, event models.ListingEvent) error {
	return p.dispatcher.Dispatch(ctx, event)
}

func (p *InProcessPublisher) Close() error { return nil }

// TopicPublisher is the SNS call used by SNSPublisher.
type TopicPublisher interface {
	PublishToTopic(ctx context.Context, topicARN, message string, attributes map[string]string) (string, error)
}

// SNSPublisher fans events out through an SNS topic.
type SNSPublisher struct {
	client   TopicPublisher
	topicARN string
}

func NewSNSPublisher(client TopicPublisher, topicARN string) *SNSPublisher {
	return &SNSPublisher{client: client, topicARN: topicARN}
}

func (p *SNSPublisher) Publish(ctx context.Context, event models.ListingEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	_, err = p.client.PublishToTopic(ctx, p.topicARN, string(body), map[string]string{
		"action": string(event.Action),
	})
	if err != nil {
		return fmt.Errorf("sns publish failed: %w", err)
	}
	return nil
}

func (p *SNSPublisher) Close() error { return nil }

// NewPublisher builds the publisher selected by cfg.Driver. snsClient is only
// used by the sns driver. When ConsumeInProcess is set and the driver is none,
// events go to dispatcher directly.
func NewPublisher(cfg config.MessagingConfig, snsClient *aws.SNSClient, dispatcher *Dispatcher, log logger.Logger) (Publisher, error) {
	switch cfg.Driver {
	case config.MessagingDriverRabbitMQ:
		p, err := NewRabbitMQPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange, cfg.RabbitMQ.Queue, cfg.RabbitMQ.RoutingKey, log)
		if err != nil {
			return nil, err
		}
		return p, nil
	case config.MessagingDriverSNS:
		if snsClient == nil {
			return nil, fmt.Errorf("sns driver requires an sns client")
		}
		return NewSNSPublisher(snsClient, cfg.SNS.TopicARN), nil
	case config.MessagingDriverNone, "":
		if cfg.ConsumeInProcess && dispatcher != nil {
			return NewInProcessPublisher(dispatcher), nil
		}
		return NoopPublisher{}, nil
	default:
		return nil, fmt.Errorf("unknown messaging driver %q", cfg.Driver)
	}
}
