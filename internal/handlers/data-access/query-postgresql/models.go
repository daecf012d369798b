// internal/handlers/data-access/query-postgresql/models.go
package querypostgresql

import "huusy-marketplace/internal/models"

type Input struct {
	QueryType string                 `json:"queryType"`
	Params    map[string]interface{} `json:"params,omitempty"`
}

type Output struct {
	Data               interface{} `json:"data"`
	RowCount           int         `json:"rowCount"`
	QueryExecutionTime int64       `json:"queryExecutionTime"` // milliseconds
}

type QueryType = models.QueryType
