// internal/handlers/data-access/query-elasticsearch/queries/registry.go
package queries

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/elastic/go-elasticsearch/v8"

	"huusy-marketplace/internal/models"
)

type QueryResult struct {
	Data      []models.Listing
	TotalHits int64
	MaxScore  float64
	Took      int64
}

type searchResponse struct {
	Hits struct {
		Total struct {
			Value int64 `json:"value"`
		} `json:"total"`
		MaxScore *float64 `json:"max_score"`
		Hits     []struct {
			ID     string         `json:"_id"`
			Source models.Listing `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

func Execute(ctx context.Context, esClient *elasticsearch.Client, lq ListingQuery) (*QueryResult, error) {
	req, err := BuildQuery(lq)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	res, err := req.Do(ctx, esClient)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrIndexNotFound, lq.Index)
	}
	if res.IsError() {
		return nil, fmt.Errorf("search query failed: %s", res.String())
	}

	var r searchResponse
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	data := make([]models.Listing, 0, len(r.Hits.Hits))
	for _, hit := range r.Hits.Hits {
		l := hit.Source
		if l.ID == "" {
			l.ID = hit.ID
		}
		data = append(data, l)
	}

	maxScore := 0.0
	if r.Hits.MaxScore != nil {
		maxScore = *r.Hits.MaxScore
	}

	return &QueryResult{
		Data:      data,
		TotalHits: r.Hits.Total.Value,
		MaxScore:  maxScore,
		Took:      time.Since(start).Milliseconds(),
	}, nil
}
