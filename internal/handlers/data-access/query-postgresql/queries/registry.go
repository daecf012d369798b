// internal/handlers/data-access/query-postgresql/queries/registry.go
package queries

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"huusy-marketplace/internal/models"
	"huusy-marketplace/internal/search"
)

var (
	ErrMissingParam     = errors.New("missing required parameter")
	ErrInvalidParam     = errors.New("invalid parameter")
	ErrUnknownQueryType = errors.New("unknown query type")
	ErrNotFound         = errors.New("record not found")
)

// QueryFunc returns: data, rowCount, executionTime (ms), error
type QueryFunc func(ctx context.Context, db *sql.DB, params map[string]interface{}) (interface{}, int, int64, error)

var Registry = map[models.QueryType]QueryFunc{
	models.QueryTypeListingCorpus:     ListingCorpus,
	models.QueryTypeListingByPath:     ListingByPath,
	models.QueryTypeListingByID:       ListingByID,
	models.QueryTypeListingsFiltered:  ListingsFiltered,
	models.QueryTypeRelatedListings:   RelatedListings,
	models.QueryTypeListingsByAgent:   ListingsByAgent,
	models.QueryTypeAgents:            Agents,
	models.QueryTypeAgentByID:         AgentByID,
	models.QueryTypeLookups:           Lookups,
	models.QueryTypeSaleTypeByTitle:   SaleTypeByTitle,
	models.QueryTypeCustomerFavorites: CustomerFavorites,
	models.QueryTypeSitemapEntries:    SitemapEntries,
}

func Execute(ctx context.Context, db *sql.DB, queryType models.QueryType, params map[string]interface{}) (interface{}, int, int64, error) {
	fn, exists := Registry[queryType]
	if !exists {
		return nil, 0, 0, fmt.Errorf("%w: %s", ErrUnknownQueryType, queryType)
	}
	return fn(ctx, db, params)
}

func stringParam(params map[string]interface{}, key string) (string, error) {
	v, ok := params[key].(string)
	if !ok || v == "" {
		return "", fmt.Errorf("%w: %s", ErrMissingParam, key)
	}
	return v, nil
}

// intParam accepts the numeric shapes a decoded JSON body or a Go caller
// may produce. A missing key yields def.
func intParam(params map[string]interface{}, key string, def int) (int, error) {
	raw, ok := params[key]
	if !ok || raw == nil {
		return def, nil
	}
	switch v := raw.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, fmt.Errorf("%w: %s", ErrInvalidParam, key)
		}
		return int(n), nil
	}
	return 0, fmt.Errorf("%w: %s", ErrInvalidParam, key)
}

func filterParam(params map[string]interface{}) (search.Filter, error) {
	var f search.Filter
	switch v := params["filters"].(type) {
	case nil:
		return f, nil
	case search.Filter:
		return v, nil
	case *search.Filter:
		if v != nil {
			f = *v
		}
		return f, nil
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			return f, fmt.Errorf("%w: filters", ErrInvalidParam)
		}
		if err := json.Unmarshal(raw, &f); err != nil {
			return f, fmt.Errorf("%w: filters", ErrInvalidParam)
		}
		return f, nil
	}
}
