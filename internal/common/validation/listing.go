package validation

// ListingSchema validates create and update payloads from the pro dashboard.
var ListingSchema = MustCompile(map[string]interface{}{
	"$schema":              "http://json-schema.org/draft-07/schema#",
	"type":                 "object",
	"required":             []interface{}{"propertyName", "cityId", "propertyTypeId", "saleTypeId"},
	"additionalProperties": false,
	"properties": map[string]interface{}{
		"propertyName":    map[string]interface{}{"type": "string", "minLength": 3, "maxLength": 200},
		"path":            map[string]interface{}{"type": "string", "pattern": "^$|^[a-z0-9]+(-[a-z0-9]+)*$", "maxLength": 220},
		"excerpt":         map[string]interface{}{"type": "string", "maxLength": 500},
		"propertyDetails": map[string]interface{}{"type": "string"},
		"images": map[string]interface{}{
			"type":     "array",
			"maxItems": 30,
			"items":    map[string]interface{}{"type": "string", "minLength": 1},
		},
		"bathrooms":       map[string]interface{}{"type": "integer", "minimum": 0, "maximum": 50},
		"bedrooms":        map[string]interface{}{"type": "integer", "minimum": 0, "maximum": 50},
		"propertySize":    map[string]interface{}{"type": "number", "exclusiveMinimum": 0},
		"price":           map[string]interface{}{"type": "number", "exclusiveMinimum": 0},
		"address":         map[string]interface{}{"type": "string", "maxLength": 300},
		"metaTitle":       map[string]interface{}{"type": "string", "maxLength": 70},
		"metaDescription": map[string]interface{}{"type": "string", "maxLength": 160},
		"propertyTypeId":  map[string]interface{}{"type": "string", "minLength": 1},
		"cityId":          map[string]interface{}{"type": "string", "minLength": 1},
		"saleTypeId":      map[string]interface{}{"type": "string", "minLength": 1},
	},
})
