package queries

import (
	"database/sql"
	"time"

	"github.com/lib/pq"

	"huusy-marketplace/internal/models"
)

type scanner interface {
	Scan(dest ...interface{}) error
}

// listingSelect joins every relation a listing page or the search haystack needs.
const listingSelect = `
	SELECT p.id, p.property_name, p.path, p.excerpt, p.property_details, p.images,
	       p.bathrooms, p.bedrooms, p.property_size, p.price, p.address,
	       p.meta_title, p.meta_description,
	       p.property_type_id, p.city_id, p.sale_type_id, p.agent_id,
	       p.created_at, p.updated_at,
	       c.title, c.path, c.meta_title, c.meta_description,
	       pt.title, pt.path,
	       st.title, st.path,
	       a.full_name, a.email, a.agency_name, a.phone, a.profile_image_url, a.description
	FROM properties p
	LEFT JOIN cities c ON c.id = p.city_id
	LEFT JOIN property_types pt ON pt.id = p.property_type_id
	LEFT JOIN sale_types st ON st.id = p.sale_type_id
	LEFT JOIN account_pro a ON a.id = p.agent_id`

func scanListing(row scanner) (models.Listing, error) {
	var (
		l                                             models.Listing
		excerpt, details, address, metaTitle, metaDsc sql.NullString
		propertyTypeID, cityID, saleTypeID, agentID   sql.NullString
		images                                        pq.StringArray
		bathrooms, bedrooms                           sql.NullInt64
		size, price                                   sql.NullFloat64
		updatedAt                                     sql.NullTime
		cityTitle, cityPath, cityMetaTitle, cityMeta  sql.NullString
		typeTitle, typePath, saleTitle, salePath      sql.NullString
		agentName, agentEmail, agency, phone          sql.NullString
		agentImage, agentDescription                  sql.NullString
	)

	err := row.Scan(
		&l.ID, &l.PropertyName, &l.Path, &excerpt, &details, &images,
		&bathrooms, &bedrooms, &size, &price, &address,
		&metaTitle, &metaDsc,
		&propertyTypeID, &cityID, &saleTypeID, &agentID,
		&l.CreatedAt, &updatedAt,
		&cityTitle, &cityPath, &cityMetaTitle, &cityMeta,
		&typeTitle, &typePath,
		&saleTitle, &salePath,
		&agentName, &agentEmail, &agency, &phone, &agentImage, &agentDescription,
	)
	if err != nil {
		return models.Listing{}, err
	}

	l.Excerpt = excerpt.String
	l.PropertyDetails = details.String
	l.Address = address.String
	l.MetaTitle = metaTitle.String
	l.MetaDescription = metaDsc.String
	if len(images) > 0 {
		l.Images = []string(images)
	}
	l.Bathrooms = nullInt(bathrooms)
	l.Bedrooms = nullInt(bedrooms)
	l.PropertySize = nullFloat(size)
	l.Price = nullFloat(price)
	l.UpdatedAt = nullTime(updatedAt)

	l.PropertyTypeID = propertyTypeID.String
	l.CityID = cityID.String
	l.SaleTypeID = saleTypeID.String
	l.AgentID = agentID.String

	if cityID.Valid && cityTitle.Valid {
		l.City = &models.Lookup{
			ID:              cityID.String,
			Title:           cityTitle.String,
			Path:            cityPath.String,
			MetaTitle:       cityMetaTitle.String,
			MetaDescription: cityMeta.String,
		}
	}
	if propertyTypeID.Valid && typeTitle.Valid {
		l.PropertyType = &models.Lookup{ID: propertyTypeID.String, Title: typeTitle.String, Path: typePath.String}
	}
	if saleTypeID.Valid && saleTitle.Valid {
		l.SaleType = &models.Lookup{ID: saleTypeID.String, Title: saleTitle.String, Path: salePath.String}
	}
	if agentID.Valid && (agentName.Valid || agentEmail.Valid) {
		l.Agent = &models.Agent{
			ID:              agentID.String,
			FullName:        agentName.String,
			Email:           agentEmail.String,
			AgencyName:      agency.String,
			Phone:           phone.String,
			ProfileImageURL: agentImage.String,
			Description:     agentDescription.String,
		}
	}

	return l, nil
}

func scanListings(rows *sql.Rows) ([]models.Listing, error) {
	defer rows.Close()

	listings := make([]models.Listing, 0)
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		listings = append(listings, l)
	}
	return listings, rows.Err()
}

func nullInt(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func nullTime(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}
