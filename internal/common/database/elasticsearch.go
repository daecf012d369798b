// internal/common/database/elasticsearch.go
package database

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"huusy-marketplace/internal/common/config"

	"github.com/elastic/go-elasticsearch/v8"
)

// ElasticsearchClient is the search cluster plus the index listings live in.
type ElasticsearchClient struct {
	Client       *elasticsearch.Client
	ListingIndex string
}

// NewElasticsearch builds a client from cfg. Transient 502/503/504 answers
// are retried by the transport.
func NewElasticsearch(cfg config.ElasticsearchConfig) (*ElasticsearchClient, error) {
	esCfg := elasticsearch.Config{
		Addresses:     cfg.GetAddresses(),
		Username:      cfg.Username,
		Password:      cfg.Password,
		MaxRetries:    cfg.MaxRetries,
		RetryOnStatus: []int{http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout},
	}

	es, err := elasticsearch.NewClient(esCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create elasticsearch client: %w", err)
	}

	index := cfg.ListingIndex
	if index == "" {
		index = "listings"
	}

	return &ElasticsearchClient{Client: es, ListingIndex: index}, nil
}

// Ping checks the cluster answers at all.
func (c *ElasticsearchClient) Ping(ctx context.Context) error {
	res, err := c.Client.Ping(c.Client.Ping.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("elasticsearch ping failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("elasticsearch ping error: %s", res.Status())
	}
	return nil
}

// Health fails when the cluster reports red. Yellow is fine for a single node.
func (c *ElasticsearchClient) Health(ctx context.Context) error {
	res, err := c.Client.Cluster.Health(c.Client.Cluster.Health.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("elasticsearch health failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("elasticsearch health error: %s", res.Status())
	}

	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return fmt.Errorf("decode cluster health: %w", err)
	}
	if body.Status == "red" {
		return fmt.Errorf("elasticsearch cluster status is red")
	}
	return nil
}
