// Package querytest builds sqlmock rows shaped like the queries package selects.
package querytest

import (
	"database/sql/driver"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"

	"huusy-marketplace/internal/models"
)

var ListingColumns = []string{
	"id", "property_name", "path", "excerpt", "property_details", "images",
	"bathrooms", "bedrooms", "property_size", "price", "address",
	"meta_title", "meta_description",
	"property_type_id", "city_id", "sale_type_id", "agent_id",
	"created_at", "updated_at",
	"city_title", "city_path", "city_meta_title", "city_meta_description",
	"type_title", "type_path",
	"sale_title", "sale_path",
	"full_name", "email", "agency_name", "phone", "profile_image_url", "description",
}

var AgentColumns = []string{"id", "full_name", "email", "agency_name", "phone", "profile_image_url", "description", "created_at"}

var LookupColumns = []string{"id", "title", "path", "meta_title", "meta_description"}

// ListingRows returns rows holding listings. Empty strings and nil pointers
// become NULL, mirroring what the LEFT JOINs produce.
func ListingRows(listings ...models.Listing) *sqlmock.Rows {
	rows := sqlmock.NewRows(ListingColumns)
	for _, l := range listings {
		rows.AddRow(ListingValues(l)...)
	}
	return rows
}

func ListingValues(l models.Listing) []driver.Value {
	var images driver.Value
	if len(l.Images) > 0 {
		images, _ = pq.StringArray(l.Images).Value()
	}

	values := []driver.Value{
		l.ID, l.PropertyName, l.Path, str(l.Excerpt), str(l.PropertyDetails), images,
		intVal(l.Bathrooms), intVal(l.Bedrooms), floatVal(l.PropertySize), floatVal(l.Price), str(l.Address),
		str(l.MetaTitle), str(l.MetaDescription),
		str(l.PropertyTypeID), str(l.CityID), str(l.SaleTypeID), str(l.AgentID),
		l.CreatedAt, nil,
	}
	if l.UpdatedAt != nil {
		values[18] = *l.UpdatedAt
	}

	if l.City != nil {
		values = append(values, l.City.Title, l.City.Path, str(l.City.MetaTitle), str(l.City.MetaDescription))
	} else {
		values = append(values, nil, nil, nil, nil)
	}
	if l.PropertyType != nil {
		values = append(values, l.PropertyType.Title, l.PropertyType.Path)
	} else {
		values = append(values, nil, nil)
	}
	if l.SaleType != nil {
		values = append(values, l.SaleType.Title, l.SaleType.Path)
	} else {
		values = append(values, nil, nil)
	}
	if a := l.Agent; a != nil {
		values = append(values, str(a.FullName), str(a.Email), str(a.AgencyName), str(a.Phone), str(a.ProfileImageURL), str(a.Description))
	} else {
		values = append(values, nil, nil, nil, nil, nil, nil)
	}
	return values
}

func str(s string) driver.Value {
	if s == "" {
		return nil
	}
	return s
}

func intVal(v *int) driver.Value {
	if v == nil {
		return nil
	}
	return int64(*v)
}

func floatVal(v *float64) driver.Value {
	if v == nil {
		return nil
	}
	return *v
}
