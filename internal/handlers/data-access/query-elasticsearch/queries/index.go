package queries

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"huusy-marketplace/internal/models"
)

var ErrIndexNotFound = errors.New("index not found")

// ListingMapping is the index body used when the listing index is created.
// Documents are models.Listing encoded as JSON.
const ListingMapping = `{
	"mappings": {
		"properties": {
			"id":              {"type": "keyword"},
			"path":            {"type": "keyword"},
			"propertyName":    {"type": "text"},
			"excerpt":         {"type": "text"},
			"propertyDetails": {"type": "text"},
			"address":         {"type": "text"},
			"price":           {"type": "double"},
			"bedrooms":        {"type": "integer"},
			"bathrooms":       {"type": "integer"},
			"propertySize":    {"type": "double"},
			"cityId":          {"type": "keyword"},
			"propertyTypeId":  {"type": "keyword"},
			"saleTypeId":      {"type": "keyword"},
			"agentId":         {"type": "keyword"},
			"createdAt":       {"type": "date"},
			"city":         {"properties": {"title": {"type": "text"}, "path": {"type": "keyword"}}},
			"propertyType": {"properties": {"title": {"type": "text"}, "path": {"type": "keyword"}}},
			"saleType":     {"properties": {"title": {"type": "text"}, "path": {"type": "keyword"}}},
			"agent":        {"properties": {"fullName": {"type": "text"}, "agencyName": {"type": "text"}}}
		}
	}
}`

// EnsureIndex creates index with ListingMapping unless it already exists.
func EnsureIndex(ctx context.Context, es *elasticsearch.Client, index string) error {
	res, err := es.Indices.Exists([]string{index}, es.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("check index %s: %w", index, err)
	}
	res.Body.Close()
	if res.StatusCode == http.StatusOK {
		return nil
	}

	res, err = es.Indices.Create(index,
		es.Indices.Create.WithContext(ctx),
		es.Indices.Create.WithBody(strings.NewReader(ListingMapping)),
	)
	if err != nil {
		return fmt.Errorf("create index %s: %w", index, err)
	}
	defer res.Body.Close()

	// A concurrent creator may win the race.
	if res.IsError() && !strings.Contains(res.String(), "resource_already_exists_exception") {
		return fmt.Errorf("create index %s: %s", index, res.String())
	}
	return nil
}

// IndexListing upserts the listing document under its id.
func IndexListing(ctx context.Context, es *elasticsearch.Client, index string, listing models.Listing) error {
	body, err := json.Marshal(listing)
	if err != nil {
		return fmt.Errorf("encode listing %s: %w", listing.ID, err)
	}

	req := esapi.IndexRequest{
		Index:      index,
		DocumentID: listing.ID,
		Body:       bytes.NewReader(body),
	}
	res, err := req.Do(ctx, es)
	if err != nil {
		return fmt.Errorf("index listing %s: %w", listing.ID, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("index listing %s: %s", listing.ID, res.String())
	}
	return nil
}

// DeleteListing removes the document. A missing document is not an error.
func DeleteListing(ctx context.Context, es *elasticsearch.Client, index, id string) error {
	req := esapi.DeleteRequest{Index: index, DocumentID: id}
	res, err := req.Do(ctx, es)
	if err != nil {
		return fmt.Errorf("delete listing %s: %w", id, err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return nil
	}
	if res.IsError() {
		return fmt.Errorf("delete listing %s: %s", id, res.String())
	}
	return nil
}
