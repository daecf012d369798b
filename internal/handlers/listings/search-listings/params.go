package searchlistings

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// ParseInput reads the listing search query string. Malformed numbers are
// rejected with ErrInvalidSearchParams.
func ParseInput(q url.Values, cfg *Config) (*Input, error) {
	input := &Input{
		Search:   q.Get("search"),
		SaleType: strings.TrimSpace(q.Get("saleType")),
	}
	input.Filter.CityID = strings.TrimSpace(q.Get("cityId"))
	input.Filter.PropertyTypeID = strings.TrimSpace(q.Get("propertyTypeId"))

	var err error
	if input.Filter.MinPrice, err = floatParam(q, "minPrice"); err != nil {
		return nil, err
	}
	if input.Filter.MaxPrice, err = floatParam(q, "maxPrice"); err != nil {
		return nil, err
	}
	if input.Filter.MinBedrooms, err = intParam(q, "bedrooms"); err != nil {
		return nil, err
	}
	if input.Filter.MinBathrooms, err = intParam(q, "bathrooms"); err != nil {
		return nil, err
	}
	if input.Filter.MinPrice != nil && input.Filter.MaxPrice != nil && *input.Filter.MinPrice > *input.Filter.MaxPrice {
		return nil, fmt.Errorf("%w: minPrice exceeds maxPrice", ErrInvalidSearchParams)
	}

	limit, err := intParam(q, "limit")
	if err != nil {
		return nil, err
	}
	input.Limit = cfg.DefaultLimit
	if limit != nil && *limit > 0 {
		input.Limit = *limit
	}
	if input.Limit > cfg.MaxLimit {
		input.Limit = cfg.MaxLimit
	}

	offset, err := intParam(q, "offset")
	if err != nil {
		return nil, err
	}
	if offset != nil {
		input.Offset = *offset
	}

	return input, nil
}

func floatParam(q url.Values, key string) (*float64, error) {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 {
		return nil, fmt.Errorf("%w: %s must be a non-negative number", ErrInvalidSearchParams, key)
	}
	return &v, nil
}

func intParam(q url.Values, key string) (*int, error) {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return nil, fmt.Errorf("%w: %s must be a non-negative integer", ErrInvalidSearchParams, key)
	}
	return &v, nil
}
