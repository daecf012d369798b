// Package app connects the shared clients used by the marketplace binaries.
package app

import (
	"context"
	"fmt"
	"time"

	"huusy-marketplace/internal/common/aws"
	"huusy-marketplace/internal/common/config"
	"huusy-marketplace/internal/common/database"
	"huusy-marketplace/internal/common/logger"
	"huusy-marketplace/internal/common/messaging"
	"huusy-marketplace/internal/common/observability"
	"huusy-marketplace/internal/server"
)

// Clients are the live connections a process needs.
type Clients struct {
	Postgres      *database.PostgresClient
	Elasticsearch *database.ElasticsearchClient
	Redis         *database.RedisClient
	SES           *aws.SESClient
	SNS           *aws.SNSClient
}

// RetryWithBackoff runs operation until it succeeds or maxRetries is reached,
// doubling the delay between attempts.
func RetryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log logger.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName), map[string]interface{}{
				"error":       err,
				"attempt":     i + 1,
				"maxRetries":  maxRetries,
				"nextRetryIn": delay.String(),
			})
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

// Connect opens Postgres, Elasticsearch and Redis with retries, plus the AWS
// clients enabled in cfg.
func Connect(ctx context.Context, cfg *config.Config, log logger.Logger) (*Clients, error) {
	c := &Clients{}

	err := RetryWithBackoff(func() error {
		var err error
		c.Postgres, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return c.Postgres.Ping(ctx)
	}, 15, 2*time.Second, log, "PostgreSQL connection")
	if err != nil {
		return nil, err
	}
	log.Info("PostgreSQL connected successfully", nil)

	err = RetryWithBackoff(func() error {
		var err error
		c.Elasticsearch, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return err
		}
		return c.Elasticsearch.Ping(ctx)
	}, 15, 2*time.Second, log, "Elasticsearch connection")
	if err != nil {
		c.Close()
		return nil, err
	}
	log.Info("Elasticsearch connected successfully", nil)

	err = RetryWithBackoff(func() error {
		var err error
		c.Redis, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return c.Redis.Ping(ctx)
	}, 10, 2*time.Second, log, "Redis connection")
	if err != nil {
		c.Close()
		return nil, err
	}
	log.Info("Redis connected successfully", nil)

	awsCfg := cfg.Integrations.AWS
	if awsCfg.SES.Enabled || awsCfg.SNS.Enabled || cfg.Messaging.Driver == config.MessagingDriverSNS {
		sdkCfg, err := aws.LoadConfig(ctx, awsCfg.Region)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("failed to load aws config: %w", err)
		}
		if awsCfg.SES.Enabled {
			c.SES = aws.NewSESClient(sdkCfg, awsCfg.SES.FromEmail)
		}
		c.SNS = aws.NewSNSClient(sdkCfg, awsCfg.SNS.DefaultSMSSenderID)
		log.Info("AWS clients initialized", map[string]interface{}{"region": awsCfg.Region})
	}

	return c, nil
}

// Close releases the connections that were opened.
func (c *Clients) Close() {
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
	if c.Postgres != nil {
		_ = c.Postgres.Close()
	}
}

// ReadinessChecks returns the /ready probes for c.
func (c *Clients) ReadinessChecks() map[string]server.ReadinessCheck {
	return map[string]server.ReadinessCheck{
		"postgres":      c.Postgres.Ping,
		"redis":         c.Redis.Ping,
		"elasticsearch": c.Elasticsearch.Health,
	}
}

// Wiring is everything a process builds on top of Clients.
type Wiring struct {
	Dispatcher *messaging.Dispatcher
	Publisher  messaging.Publisher
	Handlers   *server.Handlers
}

// Wire builds the dispatcher, the publisher selected by cfg and every handler.
func Wire(cfg *config.Config, c *Clients, obs *observability.Observability, log logger.Logger) (*Wiring, error) {
	dispatcher := messaging.NewDispatcher(log)

	publisher, err := messaging.NewPublisher(cfg.Messaging, c.SNS, dispatcher, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create event publisher: %w", err)
	}

	deps := server.Deps{
		DB:         c.Postgres.GetDB(),
		ES:         c.Elasticsearch.Client,
		Redis:      c.Redis.GetClient(),
		Publisher:  publisher,
		Dispatcher: dispatcher,
		Obs:        obs,
	}
	// Leave the interfaces nil rather than holding a typed nil.
	if c.SES != nil {
		deps.Email = c.SES
	}
	if c.SNS != nil && cfg.Integrations.AWS.SNS.Enabled {
		deps.SMS = c.SNS
	}

	return &Wiring{
		Dispatcher: dispatcher,
		Publisher:  publisher,
		Handlers:   server.NewHandlers(cfg, deps, log),
	}, nil
}

// Close closes the publisher and stops handler caches.
func (w *Wiring) Close() {
	_ = w.Publisher.Close()
	w.Handlers.Close()
}
