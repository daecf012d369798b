// internal/handlers/data-access/query-elasticsearch/queries/builders.go
package queries

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/elastic/go-elasticsearch/v8/esapi"

	"huusy-marketplace/internal/search"
)

var (
	ErrUnknownQueryType = errors.New("unknown query type")
	ErrMissingIndex     = errors.New("index name is required")
)

const (
	QueryTypeListingSearch   = "listing_search"
	QueryTypeRelatedListings = "related_listings"
)

// ListingQuery describes one search against the listing index.
type ListingQuery struct {
	Index     string
	QueryType string
	Keywords  string
	Filter    search.Filter
	// ListingID and SaleTypeID drive related_listings.
	ListingID  string
	SaleTypeID string
	From       int
	Size       int
}

func BuildQuery(lq ListingQuery) (*esapi.SearchRequest, error) {
	if lq.Index == "" {
		return nil, ErrMissingIndex
	}

	var queryBody map[string]interface{}

	switch lq.QueryType {
	case QueryTypeListingSearch:
		queryBody = buildListingSearchQuery(lq)
	case QueryTypeRelatedListings:
		queryBody = buildRelatedListingsQuery(lq)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownQueryType, lq.QueryType)
	}

	body, err := json.Marshal(queryBody)
	if err != nil {
		return nil, err
	}

	from, size := normalizePage(lq.From, lq.Size)
	trackTotal := true

	return &esapi.SearchRequest{
		Index:          []string{lq.Index},
		Body:           bytes.NewReader(body),
		From:           &from,
		Size:           &size,
		TrackTotalHits: trackTotal,
	}, nil
}

func normalizePage(from, size int) (int, int) {
	if from < 0 {
		from = 0
	}
	if size < 1 {
		size = 20
	}
	if size > 100 {
		size = 100
	}
	return from, size
}

func buildListingSearchQuery(lq ListingQuery) map[string]interface{} {
	mustClauses := []interface{}{}

	if lq.Keywords != "" {
		mustClauses = append(mustClauses, map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query": lq.Keywords,
				"fields": []string{
					"propertyName^3", "excerpt^2", "propertyDetails",
					"address", "city.title^2", "propertyType.title", "saleType.title",
					"agent.fullName", "agent.agencyName",
				},
				"type":     "best_fields",
				"operator": "and",
			},
		})
	} else {
		mustClauses = append(mustClauses, map[string]interface{}{"match_all": map[string]interface{}{}})
	}

	boolQuery := map[string]interface{}{"must": mustClauses}
	if filters := filterClauses(lq.Filter); len(filters) > 0 {
		boolQuery["filter"] = filters
	}

	query := map[string]interface{}{
		"query": map[string]interface{}{"bool": boolQuery},
	}
	if lq.Keywords == "" {
		query["sort"] = []map[string]interface{}{{"createdAt": "desc"}}
	}
	return query
}

func filterClauses(f search.Filter) []interface{} {
	clauses := []interface{}{}

	term := func(field, value string) {
		if value != "" {
			clauses = append(clauses, map[string]interface{}{
				"term": map[string]interface{}{field: value},
			})
		}
	}
	term("cityId", f.CityID)
	term("propertyTypeId", f.PropertyTypeID)
	term("saleTypeId", f.SaleTypeID)

	priceRange := map[string]interface{}{}
	if f.MinPrice != nil {
		priceRange["gte"] = *f.MinPrice
	}
	if f.MaxPrice != nil {
		priceRange["lte"] = *f.MaxPrice
	}
	if len(priceRange) > 0 {
		clauses = append(clauses, map[string]interface{}{
			"range": map[string]interface{}{"price": priceRange},
		})
	}
	if f.MinBedrooms != nil {
		clauses = append(clauses, map[string]interface{}{
			"range": map[string]interface{}{"bedrooms": map[string]interface{}{"gte": *f.MinBedrooms}},
		})
	}
	if f.MinBathrooms != nil {
		clauses = append(clauses, map[string]interface{}{
			"range": map[string]interface{}{"bathrooms": map[string]interface{}{"gte": *f.MinBathrooms}},
		})
	}
	return clauses
}

// buildRelatedListingsQuery finds documents textually similar to the
// listing, restricted to its sale type and never the listing itself.
func buildRelatedListingsQuery(lq ListingQuery) map[string]interface{} {
	if lq.ListingID == "" {
		return map[string]interface{}{
			"query": map[string]interface{}{
				"match_none": map[string]interface{}{},
			},
		}
	}

	boolQuery := map[string]interface{}{
		"must": []interface{}{
			map[string]interface{}{
				"more_like_this": map[string]interface{}{
					"fields": []string{"propertyName", "excerpt", "propertyDetails", "city.title", "propertyType.title"},
					"like": []interface{}{
						map[string]interface{}{"_index": lq.Index, "_id": lq.ListingID},
					},
					"min_term_freq":   1,
					"min_doc_freq":    1,
					"max_query_terms": 25,
				},
			},
		},
		"must_not": []interface{}{
			map[string]interface{}{"ids": map[string]interface{}{"values": []string{lq.ListingID}}},
		},
	}
	if lq.SaleTypeID != "" {
		boolQuery["filter"] = []interface{}{
			map[string]interface{}{"term": map[string]interface{}{"saleTypeId": lq.SaleTypeID}},
		}
	}

	return map[string]interface{}{
		"query": map[string]interface{}{"bool": boolQuery},
	}
}
