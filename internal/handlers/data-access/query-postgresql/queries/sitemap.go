package queries

import (
	"context"
	"database/sql"
	"time"

	"huusy-marketplace/internal/models"
)

// sitemapSources lists, in output order, where each sitemap kind reads its
// path and modification time from.
var sitemapSources = []struct {
	kind  string
	query string
}{
	{models.SitemapKindListing, `SELECT path, updated_at FROM properties ORDER BY created_at DESC`},
	{models.SitemapKindCity, `SELECT path, updated_at FROM cities ORDER BY title`},
	{models.SitemapKindPropertyType, `SELECT path, updated_at FROM property_types ORDER BY title`},
	{models.SitemapKindAgent, `SELECT id, updated_at FROM account_pro ORDER BY created_at DESC`},
}

func FetchSitemapEntries(ctx context.Context, db *sql.DB) ([]models.SitemapEntry, error) {
	entries := make([]models.SitemapEntry, 0)
	for _, src := range sitemapSources {
		rows, err := db.QueryContext(ctx, src.query)
		if err != nil {
			return nil, err
		}
		for rows.Next() {
			var (
				path      string
				updatedAt sql.NullTime
			)
			if err := rows.Scan(&path, &updatedAt); err != nil {
				rows.Close()
				return nil, err
			}
			entries = append(entries, models.SitemapEntry{
				Kind:      src.kind,
				Path:      path,
				UpdatedAt: nullTime(updatedAt),
			})
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return nil, err
		}
	}
	return entries, nil
}

func SitemapEntries(ctx context.Context, db *sql.DB, params map[string]interface{}) (interface{}, int, int64, error) {
	start := time.Now()
	entries, err := FetchSitemapEntries(ctx, db)
	if err != nil {
		return nil, 0, 0, err
	}
	return entries, len(entries), time.Since(start).Milliseconds(), nil
}
