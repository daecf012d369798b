// internal/handlers/data-access/query-postgresql/queries/listings.go
package queries

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"huusy-marketplace/internal/models"
	"huusy-marketplace/internal/search"
)

// FetchListingCorpus loads every listing, newest first. This is the
// in-memory search corpus.
func FetchListingCorpus(ctx context.Context, db *sql.DB) ([]models.Listing, error) {
	rows, err := db.QueryContext(ctx, listingSelect+`
	ORDER BY p.created_at DESC`)
	if err != nil {
		return nil, err
	}
	return scanListings(rows)
}

func FetchListingByPath(ctx context.Context, db *sql.DB, path string) (*models.Listing, error) {
	return fetchOneListing(ctx, db, `p.path = $1`, path)
}

func FetchListingByID(ctx context.Context, db *sql.DB, id string) (*models.Listing, error) {
	return fetchOneListing(ctx, db, `p.id = $1`, id)
}

func fetchOneListing(ctx context.Context, db *sql.DB, where string, arg string) (*models.Listing, error) {
	l, err := scanListing(db.QueryRowContext(ctx, listingSelect+`
	WHERE `+where, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &l, nil
}

// FetchListingsFiltered runs the browse query: structured filters, newest
// first, one page. It also returns the unpaged match count.
func FetchListingsFiltered(ctx context.Context, db *sql.DB, f search.Filter, limit, offset int) ([]models.Listing, int, error) {
	where, args := filterClause(f)

	var total int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM properties p`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, offset)
	query := fmt.Sprintf("%s%s\n\tORDER BY p.created_at DESC LIMIT $%d OFFSET $%d",
		listingSelect, where, len(args)-1, len(args))

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	listings, err := scanListings(rows)
	if err != nil {
		return nil, 0, err
	}
	return listings, total, nil
}

// filterClause renders f as a WHERE clause over the properties alias p.
func filterClause(f search.Filter) (string, []interface{}) {
	var (
		conds []string
		args  []interface{}
	)
	add := func(expr string, v interface{}) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(expr, len(args)))
	}

	if f.CityID != "" {
		add("p.city_id = $%d", f.CityID)
	}
	if f.PropertyTypeID != "" {
		add("p.property_type_id = $%d", f.PropertyTypeID)
	}
	if f.SaleTypeID != "" {
		add("p.sale_type_id = $%d", f.SaleTypeID)
	}
	if f.MinPrice != nil {
		add("p.price >= $%d", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		add("p.price <= $%d", *f.MaxPrice)
	}
	if f.MinBedrooms != nil {
		add("p.bedrooms >= $%d", *f.MinBedrooms)
	}
	if f.MinBathrooms != nil {
		add("p.bathrooms >= $%d", *f.MinBathrooms)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return "\n\tWHERE " + strings.Join(conds, " AND "), args
}

// FetchRelatedListings returns listings of the same sale type, excluding
// the listing itself.
func FetchRelatedListings(ctx context.Context, db *sql.DB, saleTypeID, excludeID string, limit int) ([]models.Listing, error) {
	rows, err := db.QueryContext(ctx, listingSelect+`
	WHERE p.sale_type_id = $1 AND p.id <> $2
	ORDER BY p.created_at DESC
	LIMIT $3`, saleTypeID, excludeID, limit)
	if err != nil {
		return nil, err
	}
	return scanListings(rows)
}

// FetchListingsByAgent returns the agent's listings, newest first. A limit
// of zero or less returns all of them.
func FetchListingsByAgent(ctx context.Context, db *sql.DB, agentID string, limit int) ([]models.Listing, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if limit > 0 {
		rows, err = db.QueryContext(ctx, listingSelect+`
	WHERE p.agent_id = $1
	ORDER BY p.created_at DESC
	LIMIT $2`, agentID, limit)
	} else {
		rows, err = db.QueryContext(ctx, listingSelect+`
	WHERE p.agent_id = $1
	ORDER BY p.created_at DESC`, agentID)
	}
	if err != nil {
		return nil, err
	}
	return scanListings(rows)
}

// ==========================
// Registry adapters
// ==========================

func ListingCorpus(ctx context.Context, db *sql.DB, params map[string]interface{}) (interface{}, int, int64, error) {
	start := time.Now()
	listings, err := FetchListingCorpus(ctx, db)
	if err != nil {
		return nil, 0, 0, err
	}
	return listings, len(listings), time.Since(start).Milliseconds(), nil
}

func ListingByPath(ctx context.Context, db *sql.DB, params map[string]interface{}) (interface{}, int, int64, error) {
	path, err := stringParam(params, "path")
	if err != nil {
		return nil, 0, 0, err
	}

	start := time.Now()
	listing, err := FetchListingByPath(ctx, db, path)
	if err != nil {
		return nil, 0, 0, err
	}
	return listing, 1, time.Since(start).Milliseconds(), nil
}

func ListingByID(ctx context.Context, db *sql.DB, params map[string]interface{}) (interface{}, int, int64, error) {
	id, err := stringParam(params, "listingId")
	if err != nil {
		return nil, 0, 0, err
	}

	start := time.Now()
	listing, err := FetchListingByID(ctx, db, id)
	if err != nil {
		return nil, 0, 0, err
	}
	return listing, 1, time.Since(start).Milliseconds(), nil
}

func ListingsFiltered(ctx context.Context, db *sql.DB, params map[string]interface{}) (interface{}, int, int64, error) {
	f, err := filterParam(params)
	if err != nil {
		return nil, 0, 0, err
	}
	limit, err := intParam(params, "limit", 20)
	if err != nil {
		return nil, 0, 0, err
	}
	offset, err := intParam(params, "offset", 0)
	if err != nil {
		return nil, 0, 0, err
	}

	start := time.Now()
	listings, total, err := FetchListingsFiltered(ctx, db, f, limit, offset)
	if err != nil {
		return nil, 0, 0, err
	}

	result := map[string]interface{}{
		"listings": listings,
		"total":    total,
	}
	return result, len(listings), time.Since(start).Milliseconds(), nil
}

func RelatedListings(ctx context.Context, db *sql.DB, params map[string]interface{}) (interface{}, int, int64, error) {
	saleTypeID, err := stringParam(params, "saleTypeId")
	if err != nil {
		return nil, 0, 0, err
	}
	excludeID, err := stringParam(params, "listingId")
	if err != nil {
		return nil, 0, 0, err
	}
	limit, err := intParam(params, "limit", 3)
	if err != nil {
		return nil, 0, 0, err
	}

	start := time.Now()
	listings, err := FetchRelatedListings(ctx, db, saleTypeID, excludeID, limit)
	if err != nil {
		return nil, 0, 0, err
	}
	return listings, len(listings), time.Since(start).Milliseconds(), nil
}

func ListingsByAgent(ctx context.Context, db *sql.DB, params map[string]interface{}) (interface{}, int, int64, error) {
	agentID, err := stringParam(params, "agentId")
	if err != nil {
		return nil, 0, 0, err
	}
	limit, err := intParam(params, "limit", 0)
	if err != nil {
		return nil, 0, 0, err
	}

	start := time.Now()
	listings, err := FetchListingsByAgent(ctx, db, agentID, limit)
	if err != nil {
		return nil, 0, 0, err
	}
	return listings, len(listings), time.Since(start).Milliseconds(), nil
}
