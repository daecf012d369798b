package queries

import (
	"context"
	"database/sql"
	"time"

	"huusy-marketplace/internal/models"
)

// FetchCustomerFavorites returns the customer's favorited listings, most
// recently favorited first.
func FetchCustomerFavorites(ctx context.Context, db *sql.DB, customerID string) ([]models.Listing, error) {
	rows, err := db.QueryContext(ctx, listingSelect+`
	JOIN favorites f ON f.property_id = p.id
	WHERE f.customer_id = $1
	ORDER BY f.created_at DESC`, customerID)
	if err != nil {
		return nil, err
	}
	return scanListings(rows)
}

func CustomerFavorites(ctx context.Context, db *sql.DB, params map[string]interface{}) (interface{}, int, int64, error) {
	customerID, err := stringParam(params, "customerId")
	if err != nil {
		return nil, 0, 0, err
	}

	start := time.Now()
	listings, err := FetchCustomerFavorites(ctx, db, customerID)
	if err != nil {
		return nil, 0, 0, err
	}
	return listings, len(listings), time.Since(start).Milliseconds(), nil
}
