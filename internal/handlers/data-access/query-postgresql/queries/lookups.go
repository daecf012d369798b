package queries

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"huusy-marketplace/internal/models"
)

// ErrUnknownLookupKind is returned for a kind with no backing table.
var ErrUnknownLookupKind = errors.New("unknown lookup kind")

// lookupQuery builds the select for kind. Only cities carry meta columns.
func lookupQuery(kind models.LookupKind) (string, error) {
	table := kind.Table()
	if table == "" {
		return "", fmt.Errorf("%w: %s", ErrUnknownLookupKind, kind)
	}
	meta := "NULL::text, NULL::text"
	if kind == models.LookupKindCity {
		meta = "meta_title, meta_description"
	}
	return fmt.Sprintf("SELECT id, title, path, %s FROM %s", meta, table), nil
}

// FetchLookups returns all rows of kind ordered by title.
func FetchLookups(ctx context.Context, db *sql.DB, kind models.LookupKind) ([]models.Lookup, error) {
	query, err := lookupQuery(kind)
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, query+" ORDER BY title")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	lookups := make([]models.Lookup, 0)
	for rows.Next() {
		var (
			l                   models.Lookup
			metaTitle, metaDesc sql.NullString
		)
		if err := rows.Scan(&l.ID, &l.Title, &l.Path, &metaTitle, &metaDesc); err != nil {
			return nil, err
		}
		l.MetaTitle = metaTitle.String
		l.MetaDescription = metaDesc.String
		lookups = append(lookups, l)
	}
	return lookups, rows.Err()
}

// FetchSaleTypeIDByTitle resolves a sale type title to its id. found is
// false when no sale type has that title.
func FetchSaleTypeIDByTitle(ctx context.Context, db *sql.DB, title string) (id string, found bool, err error) {
	err = db.QueryRowContext(ctx, `SELECT id FROM sale_types WHERE title = $1 LIMIT 1`, title).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}
	return id, true, nil
}

func Lookups(ctx context.Context, db *sql.DB, params map[string]interface{}) (interface{}, int, int64, error) {
	kind, err := stringParam(params, "kind")
	if err != nil {
		return nil, 0, 0, err
	}

	start := time.Now()
	lookups, err := FetchLookups(ctx, db, models.LookupKind(kind))
	if err != nil {
		return nil, 0, 0, err
	}
	return lookups, len(lookups), time.Since(start).Milliseconds(), nil
}

func SaleTypeByTitle(ctx context.Context, db *sql.DB, params map[string]interface{}) (interface{}, int, int64, error) {
	title, err := stringParam(params, "title")
	if err != nil {
		return nil, 0, 0, err
	}

	start := time.Now()
	id, found, err := FetchSaleTypeIDByTitle(ctx, db, title)
	if err != nil {
		return nil, 0, 0, err
	}
	if !found {
		return nil, 0, time.Since(start).Milliseconds(), nil
	}
	return map[string]interface{}{"id": id, "title": title}, 1, time.Since(start).Milliseconds(), nil
}
