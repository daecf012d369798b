// cmd/tools/marketplace-admin/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"huusy-marketplace/internal/app"
	"huusy-marketplace/internal/common/auth"
	"huusy-marketplace/internal/common/config"
	"huusy-marketplace/internal/common/logger"
	"huusy-marketplace/internal/common/messaging"
	"huusy-marketplace/internal/common/observability"
	qp "huusy-marketplace/internal/handlers/data-access/query-postgresql"
)

func main() {
	if err := newApp(os.Stdout).Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newApp(out io.Writer) *cli.App {
	return &cli.App{
		Name:   "marketplace-admin",
		Usage:  "Operational tasks for the Huusy marketplace",
		Writer: out,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a config file (defaults to configs/config.yaml)",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "reindex",
				Usage:  "Rebuild the listing search index from Postgres",
				Action: reindexCommand,
			},
			{
				Name:   "consume",
				Usage:  "Consume listing events from RabbitMQ until interrupted",
				Action: consumeCommand,
			},
			{
				Name:   "query",
				Usage:  "Run a registered Postgres query",
				Action: queryCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "type",
						Aliases:  []string{"t"},
						Usage:    "Query type, e.g. agents or listing_by_path",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "params",
						Aliases: []string{"p"},
						Usage:   "Query parameters as a JSON object",
						Value:   "{}",
					},
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Output format (json, yaml)",
						Value:   "json",
					},
				},
			},
			{
				Name:   "token",
				Usage:  "Sign a bearer token for local testing",
				Action: tokenCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "subject", Aliases: []string{"s"}, Usage: "Account id", Required: true},
					&cli.StringFlag{Name: "role", Aliases: []string{"r"}, Usage: "agent, customer or admin", Value: auth.RoleAdmin},
					&cli.StringFlag{Name: "email", Usage: "Email claim"},
					&cli.DurationFlag{Name: "ttl", Usage: "Token lifetime", Value: time.Hour},
					&cli.StringFlag{Name: "secret", Usage: "Signing secret (defaults to auth.jwt.secret)", EnvVars: []string{"JWT_SECRET"}},
					&cli.StringFlag{Name: "issuer", Usage: "Issuer claim"},
					&cli.StringFlag{Name: "audience", Usage: "Audience claim"},
				},
			},
			{
				Name:   "sitemap",
				Usage:  "Render sitemap.xml",
				Action: sitemapCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "Output file (defaults to stdout)"},
				},
			},
		},
	}
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	if path := c.String("config"); path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}

// session is the connected state a command runs against.
type session struct {
	cfg     *config.Config
	log     logger.Logger
	clients *app.Clients
	wiring  *app.Wiring
	obs     *observability.Observability
}

func openSession(c *cli.Context) (*session, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	log := logger.NewStructured(c.String("log-level"), "console")
	obs := observability.New("marketplace-admin")

	clients, err := app.Connect(c.Context, cfg, log)
	if err != nil {
		obs.Shutdown()
		return nil, err
	}
	wiring, err := app.Wire(cfg, clients, obs, log)
	if err != nil {
		clients.Close()
		obs.Shutdown()
		return nil, err
	}
	return &session{cfg: cfg, log: log, clients: clients, wiring: wiring, obs: obs}, nil
}

func (s *session) Close() {
	s.wiring.Close()
	s.clients.Close()
	s.obs.Shutdown()
}

func reindexCommand(c *cli.Context) error {
	s, err := openSession(c)
	if err != nil {
		return err
	}
	defer s.Close()

	result, err := s.wiring.Handlers.SyncIndex.Reindex(c.Context)
	if err != nil {
		return err
	}
	return writeOutput(c.App.Writer, "json", result)
}

func consumeCommand(c *cli.Context) error {
	s, err := openSession(c)
	if err != nil {
		return err
	}
	defer s.Close()

	if s.cfg.Messaging.Driver != config.MessagingDriverRabbitMQ {
		return fmt.Errorf("consume requires messaging.driver=rabbitmq, got %q", s.cfg.Messaging.Driver)
	}

	rmq := s.cfg.Messaging.RabbitMQ
	consumer, err := messaging.NewRabbitMQConsumer(rmq.URL, rmq.Exchange, rmq.Queue, rmq.RoutingKey, rmq.Prefetch, s.wiring.Dispatcher, s.log)
	if err != nil {
		return err
	}
	defer consumer.Close()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	s.log.Info("Consuming listing events", map[string]interface{}{"queue": rmq.Queue})
	return consumer.Run(ctx)
}

func queryCommand(c *cli.Context) error {
	var params map[string]interface{}
	if err := json.Unmarshal([]byte(c.String("params")), &params); err != nil {
		return fmt.Errorf("invalid --params: %w", err)
	}
	format := c.String("format")
	if format != "json" && format != "yaml" {
		return fmt.Errorf("unsupported --format %q", format)
	}

	s, err := openSession(c)
	if err != nil {
		return err
	}
	defer s.Close()

	output, err := s.wiring.Handlers.QueryPostgres.Execute(c.Context, &qp.Input{QueryType: c.String("type"), Params: params})
	if err != nil {
		return err
	}
	return writeOutput(c.App.Writer, format, output)
}

func tokenCommand(c *cli.Context) error {
	secret, issuer, audience := c.String("secret"), c.String("issuer"), c.String("audience")
	if secret == "" {
		cfg, err := loadConfig(c)
		if err != nil {
			return err
		}
		secret = cfg.Auth.JWT.Secret
		if issuer == "" {
			issuer = cfg.Auth.JWT.Issuer
		}
		if audience == "" {
			audience = cfg.Auth.JWT.Audience
		}
	}

	switch role := c.String("role"); role {
	case auth.RoleAgent, auth.RoleCustomer, auth.RoleAdmin:
	default:
		return fmt.Errorf("unknown role %q", role)
	}

	token, err := auth.NewValidator(secret, issuer, audience).
		GenerateToken(c.String("subject"), c.String("role"), c.String("email"), c.Duration("ttl"))
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(c.App.Writer, token)
	return err
}

func sitemapCommand(c *cli.Context) error {
	s, err := openSession(c)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx, cancel := context.WithTimeout(c.Context, time.Minute)
	defer cancel()

	body, err := s.wiring.Handlers.BuildSitemap.Render(ctx)
	if err != nil {
		return err
	}

	if path := c.String("out"); path != "" {
		return os.WriteFile(path, body, 0o644)
	}
	_, err = c.App.Writer.Write(body)
	return err
}

// writeOutput prints v as indented JSON or as YAML using the JSON field names.
func writeOutput(w io.Writer, format string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	if format != "yaml" {
		_, err = fmt.Fprintln(w, string(data))
		return err
	}

	var generic interface{}
	if err := json.Unmarshal(data, &generic); err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(generic); err != nil {
		return err
	}
	return enc.Close()
}
