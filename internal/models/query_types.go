package models

type QueryType string

const (
	QueryTypeListingCorpus     QueryType = "listing_corpus"
	QueryTypeListingByPath     QueryType = "listing_by_path"
	QueryTypeListingByID       QueryType = "listing_by_id"
	QueryTypeListingsFiltered  QueryType = "listings_filtered"
	QueryTypeRelatedListings   QueryType = "related_listings"
	QueryTypeListingsByAgent   QueryType = "listings_by_agent"
	QueryTypeAgents            QueryType = "agents"
	QueryTypeAgentByID         QueryType = "agent_by_id"
	QueryTypeLookups           QueryType = "lookups"
	QueryTypeSaleTypeByTitle   QueryType = "sale_type_by_title"
	QueryTypeCustomerFavorites QueryType = "customer_favorites"
	QueryTypeSitemapEntries    QueryType = "sitemap_entries"
)
