package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"huusy-marketplace/internal/common/logger"
	"huusy-marketplace/internal/models"

	"github.com/streadway/amqp"
)

// amqpChannel is the part of *amqp.Channel used here.
type amqpChannel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error
	Qos(prefetchCount, prefetchSize int, global bool) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// dialChannel connects to url and declares the durable queue, plus the
// exchange and binding when exchange is set.
func dialChannel(url, exchange, queue, routingKey string) (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := declareTopology(ch, exchange, queue, routingKey); err != nil {
		ch.Close()
		conn.Close()
		return nil, nil, err
	}

	return conn, ch, nil
}

func declareTopology(ch amqpChannel, exchange, queue, routingKey string) error {
	if exchange != "" {
		if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
			return fmt.Errorf("failed to declare exchange: %w", err)
		}
	}

	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}

	if exchange != "" {
		if err := ch.QueueBind(queue, routingKey, exchange, false, nil); err != nil {
			return fmt.Errorf("failed to bind queue: %w", err)
		}
	}
	return nil
}

// RabbitMQPublisher publishes persistent JSON messages.
type RabbitMQPublisher struct {
	conn       *amqp.Connection
	ch         amqpChannel
	exchange   string
	routingKey string
	logger     logger.Logger
}

func NewRabbitMQPublisher(url, exchange, queue, routingKey string, log logger.Logger) (*RabbitMQPublisher, error) {
	conn, ch, err := dialChannel(url, exchange, queue, routingKey)
	if err != nil {
		return nil, err
	}

	log.Info("RabbitMQ publisher ready", map[string]interface{}{
		"exchange":   exchange,
		"queue":      queue,
		"routingKey": routingKey,
	})

	return &RabbitMQPublisher{conn: conn, ch: ch, exchange: exchange, routingKey: routingKey, logger: log}, nil
}

func (p *RabbitMQPublisher) Publish(ctx context.Context, event models.ListingEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	err = p.ch.Publish(p.exchange, p.routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    event.ID,
		Timestamp:    event.OccurredAt,
		Type:         string(event.Action),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("rabbitmq publish failed: %w", err)
	}
	return nil
}

func (p *RabbitMQPublisher) Close() error {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
