package models

import "time"

// Listing is a property record with its lookup relations and agent joined in.
// Numeric fields are nil when the column is NULL.
type Listing struct {
	ID              string     `json:"id"`
	PropertyName    string     `json:"propertyName"`
	Path            string     `json:"path"`
	Excerpt         string     `json:"excerpt,omitempty"`
	PropertyDetails string     `json:"propertyDetails,omitempty"`
	Images          []string   `json:"images,omitempty"`
	Bathrooms       *int       `json:"bathrooms,omitempty"`
	Bedrooms        *int       `json:"bedrooms,omitempty"`
	PropertySize    *float64   `json:"propertySize,omitempty"`
	Price           *float64   `json:"price,omitempty"`
	Address         string     `json:"address,omitempty"`
	MetaTitle       string     `json:"metaTitle,omitempty"`
	MetaDescription string     `json:"metaDescription,omitempty"`
	PropertyTypeID  string     `json:"propertyTypeId,omitempty"`
	CityID          string     `json:"cityId,omitempty"`
	SaleTypeID      string     `json:"saleTypeId,omitempty"`
	AgentID         string     `json:"agentId,omitempty"`
	City            *Lookup    `json:"city,omitempty"`
	PropertyType    *Lookup    `json:"propertyType,omitempty"`
	SaleType        *Lookup    `json:"saleType,omitempty"`
	Agent           *Agent     `json:"agent,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       *time.Time `json:"updatedAt,omitempty"`
}

// ListingInput is the writable part of a listing submitted from the pro dashboard.
type ListingInput struct {
	PropertyName    string   `json:"propertyName"`
	Path            string   `json:"path,omitempty"`
	Excerpt         string   `json:"excerpt,omitempty"`
	PropertyDetails string   `json:"propertyDetails,omitempty"`
	Images          []string `json:"images,omitempty"`
	Bathrooms       *int     `json:"bathrooms,omitempty"`
	Bedrooms        *int     `json:"bedrooms,omitempty"`
	PropertySize    *float64 `json:"propertySize,omitempty"`
	Price           *float64 `json:"price,omitempty"`
	Address         string   `json:"address,omitempty"`
	MetaTitle       string   `json:"metaTitle,omitempty"`
	MetaDescription string   `json:"metaDescription,omitempty"`
	PropertyTypeID  string   `json:"propertyTypeId,omitempty"`
	CityID          string   `json:"cityId,omitempty"`
	SaleTypeID      string   `json:"saleTypeId,omitempty"`
}

// SitemapEntry is a path with its last modification time.
type SitemapEntry struct {
	Kind      string     `json:"kind"`
	Path      string     `json:"path"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

const (
	SitemapKindListing      = "listing"
	SitemapKindCity         = "city"
	SitemapKindPropertyType = "property_type"
	SitemapKindAgent        = "agent"
)
