package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validListing() map[string]interface{} {
	return map[string]interface{}{
		"propertyName":   "Sunny two bedroom flat",
		"cityId":         "city-1",
		"propertyTypeId": "type-1",
		"saleTypeId":     "sale-1",
		"price":          420000.0,
		"bedrooms":       2,
	}
}

func TestListingSchema(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(doc map[string]interface{})
		valid       bool
		errorFields []string
	}{
		{
			name:   "valid minimal listing",
			mutate: func(doc map[string]interface{}) {},
			valid:  true,
		},
		{
			name:   "empty path is allowed",
			mutate: func(doc map[string]interface{}) { doc["path"] = "" },
			valid:  true,
		},
		{
			name:        "missing city",
			mutate:      func(doc map[string]interface{}) { delete(doc, "cityId") },
			errorFields: []string{"(root)"},
		},
		{
			name:        "negative price",
			mutate:      func(doc map[string]interface{}) { doc["price"] = -1.0 },
			errorFields: []string{"price"},
		},
		{
			name:        "fractional bedrooms",
			mutate:      func(doc map[string]interface{}) { doc["bedrooms"] = 2.5 },
			errorFields: []string{"bedrooms"},
		},
		{
			name:        "path with spaces",
			mutate:      func(doc map[string]interface{}) { doc["path"] = "Sunny Flat" },
			errorFields: []string{"path"},
		},
		{
			name:        "unknown field",
			mutate:      func(doc map[string]interface{}) { doc["agentId"] = "someone-else" },
			errorFields: []string{"(root)"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := validListing()
			tt.mutate(doc)

			result, err := ListingSchema.Validate(doc)
			require.NoError(t, err)
			assert.Equal(t, tt.valid, result.Valid)

			fields := make([]string, 0, len(result.Errors))
			for _, e := range result.Errors {
				fields = append(fields, e.Field)
			}
			for _, f := range tt.errorFields {
				assert.Contains(t, fields, f)
			}
			if !tt.valid {
				assert.NotEmpty(t, result.Error())
			}
		})
	}
}

func TestCompile_InvalidSchema(t *testing.T) {
	_, err := Compile(map[string]interface{}{"type": 12})
	assert.Error(t, err)
}
