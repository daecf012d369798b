package querypostgresql

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"huusy-marketplace/internal/common/logger"
	"huusy-marketplace/internal/models"
)

// ==========================
// Test Helper Functions
// ==========================

func createTestConfig() *Config {
	return &Config{
		Timeout: 5 * time.Second,
	}
}

func createTestLogger(t *testing.T) logger.Logger {
	return logger.NewZapAdapter(zaptest.NewLogger(t))
}

var agentColumns = []string{"id", "full_name", "email", "agency_name", "phone", "profile_image_url", "description", "created_at"}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_Success(t *testing.T) {
	createdAt := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name           string
		input          *Input
		mockQuery      func(mock sqlmock.Sqlmock)
		validateOutput func(t *testing.T, output *Output)
	}{
		{
			name:  "agents",
			input: &Input{QueryType: string(models.QueryTypeAgents)},
			mockQuery: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(regexp.QuoteMeta("FROM account_pro ORDER BY created_at DESC")).
					WillReturnRows(sqlmock.NewRows(agentColumns).
						AddRow("agent-1", "Jane Doe", "jane@example.com", "Doe Realty", nil, nil, nil, createdAt).
						AddRow("agent-2", "John Roe", "john@example.com", nil, nil, nil, nil, createdAt))
			},
			validateOutput: func(t *testing.T, output *Output) {
				assert.Equal(t, 2, output.RowCount)
				agents, ok := output.Data.([]models.Agent)
				require.True(t, ok)
				assert.Equal(t, "Doe Realty", agents[0].AgencyName)
				assert.GreaterOrEqual(t, output.QueryExecutionTime, int64(0))
			},
		},
		{
			name: "lookups",
			input: &Input{
				QueryType: string(models.QueryTypeLookups),
				Params:    map[string]interface{}{"kind": "sale-types"},
			},
			mockQuery: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(regexp.QuoteMeta("FROM sale_types ORDER BY title")).
					WillReturnRows(sqlmock.NewRows([]string{"id", "title", "path", "meta_title", "meta_description"}).
						AddRow("sale-1", "For Rent", "for-rent", nil, nil).
						AddRow("sale-2", "For Sale", "for-sale", nil, nil))
			},
			validateOutput: func(t *testing.T, output *Output) {
				assert.Equal(t, 2, output.RowCount)
				lookups, ok := output.Data.([]models.Lookup)
				require.True(t, ok)
				assert.Equal(t, "for-sale", lookups[1].Path)
			},
		},
		{
			name: "sale type by title not found",
			input: &Input{
				QueryType: string(models.QueryTypeSaleTypeByTitle),
				Params:    map[string]interface{}{"title": "Swap"},
			},
			mockQuery: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(regexp.QuoteMeta("FROM sale_types WHERE title = $1")).
					WithArgs("Swap").
					WillReturnRows(sqlmock.NewRows([]string{"id"}))
			},
			validateOutput: func(t *testing.T, output *Output) {
				assert.Equal(t, 0, output.RowCount)
				assert.Nil(t, output.Data)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			tt.mockQuery(mock)

			handler := NewHandler(createTestConfig(), db, createTestLogger(t))
			output, err := handler.Execute(context.Background(), tt.input)

			require.NoError(t, err)
			require.NotNil(t, output)
			tt.validateOutput(t, output)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestHandler_Execute_Timeout(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("FROM account_pro")).
		WillDelayFor(200 * time.Millisecond).
		WillReturnRows(sqlmock.NewRows(agentColumns))

	config := createTestConfig()
	config.Timeout = 50 * time.Millisecond

	handler := NewHandler(config, db, createTestLogger(t))

	ctx, cancel := context.WithTimeout(context.Background(), config.Timeout)
	defer cancel()

	output, err := handler.execute(ctx, &Input{QueryType: string(models.QueryTypeAgents)})

	require.Error(t, err)
	assert.Nil(t, output)
	assert.True(t, errors.Is(err, ErrQueryTimeout) ||
		strings.Contains(err.Error(), "canceled") ||
		strings.Contains(err.Error(), "deadline"))
}

func TestHandler_Execute_QueryErrors(t *testing.T) {
	tests := []struct {
		name        string
		input       *Input
		mockQuery   func(mock sqlmock.Sqlmock)
		expectedErr error
	}{
		{
			name:        "unknown query type",
			input:       &Input{QueryType: "unknown_query"},
			mockQuery:   func(mock sqlmock.Sqlmock) {},
			expectedErr: ErrInvalidQueryType,
		},
		{
			name:        "missing parameter",
			input:       &Input{QueryType: string(models.QueryTypeAgentByID)},
			mockQuery:   func(mock sqlmock.Sqlmock) {},
			expectedErr: ErrInvalidParams,
		},
		{
			name: "unknown lookup kind",
			input: &Input{
				QueryType: string(models.QueryTypeLookups),
				Params:    map[string]interface{}{"kind": "regions"},
			},
			mockQuery:   func(mock sqlmock.Sqlmock) {},
			expectedErr: ErrInvalidParams,
		},
		{
			name: "agent not found",
			input: &Input{
				QueryType: string(models.QueryTypeAgentByID),
				Params:    map[string]interface{}{"agentId": "agent-404"},
			},
			mockQuery: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(regexp.QuoteMeta("WHERE id = $1")).
					WithArgs("agent-404").
					WillReturnRows(sqlmock.NewRows(agentColumns))
			},
			expectedErr: ErrRecordNotFound,
		},
		{
			name:  "database error",
			input: &Input{QueryType: string(models.QueryTypeAgents)},
			mockQuery: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(regexp.QuoteMeta("FROM account_pro")).
					WillReturnError(errors.New("connection reset"))
			},
			expectedErr: ErrQueryExecutionFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			tt.mockQuery(mock)

			handler := NewHandler(createTestConfig(), db, createTestLogger(t))
			output, err := handler.Execute(context.Background(), tt.input)

			assert.Nil(t, output)
			assert.ErrorIs(t, err, tt.expectedErr)
		})
	}
}

// ==========================
// HTTP Adapter Tests
// ==========================

func TestHandler_Handle(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		mockQuery  func(mock sqlmock.Sqlmock)
		wantStatus int
		wantCode   string
	}{
		{
			name: "success",
			body: `{"queryType":"agent_by_id","params":{"agentId":"agent-1"}}`,
			mockQuery: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(regexp.QuoteMeta("WHERE id = $1")).
					WithArgs("agent-1").
					WillReturnRows(sqlmock.NewRows(agentColumns).
						AddRow("agent-1", "Jane Doe", nil, nil, nil, nil, nil, nil))
			},
			wantStatus: http.StatusOK,
		},
		{
			name:       "malformed body",
			body:       `{"queryType":`,
			mockQuery:  func(mock sqlmock.Sqlmock) {},
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_REQUEST",
		},
		{
			name:       "unknown query type",
			body:       `{"queryType":"drop_tables"}`,
			mockQuery:  func(mock sqlmock.Sqlmock) {},
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_QUERY_TYPE",
		},
		{
			name: "agent not found",
			body: `{"queryType":"agent_by_id","params":{"agentId":"agent-404"}}`,
			mockQuery: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(regexp.QuoteMeta("WHERE id = $1")).
					WithArgs("agent-404").
					WillReturnRows(sqlmock.NewRows(agentColumns))
			},
			wantStatus: http.StatusNotFound,
			wantCode:   "AGENT_NOT_FOUND",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			tt.mockQuery(mock)

			handler := NewHandler(createTestConfig(), db, createTestLogger(t))
			req := httptest.NewRequest(http.MethodPost, "/internal/query", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			handler.Handle(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)

			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			if tt.wantCode != "" {
				errBody, ok := body["error"].(map[string]interface{})
				require.True(t, ok)
				assert.Equal(t, tt.wantCode, errBody["code"])
			} else {
				assert.Equal(t, float64(1), body["rowCount"])
			}
		})
	}
}
