package managelisting

import (
	"bytes"
	"context"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-chi/chi/v5"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"huusy-marketplace/internal/common/logger"
	validateagentaccess "huusy-marketplace/internal/handlers/dashboard/validate-agent-access"
	"huusy-marketplace/internal/handlers/data-access/query-postgresql/queries/querytest"
	"huusy-marketplace/internal/models"
)

// ==========================
// Test Helper Functions
// ==========================

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, event models.ListingEvent) error {
	return m.Called(ctx, event).Error(0)
}

func (m *MockPublisher) Close() error { return nil }

var (
	fixedNow  = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	createdAt = time.Date(2024, 1, 15, 9, 30, 0, 0, time.UTC)
)

func createTestHandler(t *testing.T, pub *MockPublisher) (*Handler, sqlmock.Sqlmock) {
	db, sqlMock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	h := NewHandler(LoadConfig(), db, pub, logger.NewTestLogger(t))
	h.now = func() time.Time { return fixedNow }
	return h, sqlMock
}

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }
func anyArgs(n int) []driver.Value {
	args := make([]driver.Value, n)
	for i := range args {
		args[i] = sqlmock.AnyArg()
	}
	return args
}

func validListing() *models.ListingInput {
	return &models.ListingInput{
		PropertyName:   "Sunny Villa",
		Bedrooms:       intPtr(3),
		Price:          floatPtr(250000),
		Images:         []string{"https://cdn.example.com/a.jpg"},
		CityID:         "city-1",
		PropertyTypeID: "type-1",
		SaleTypeID:     "sale-1",
	}
}

func eventWith(action models.EventAction, listingID string) interface{} {
	return mock.MatchedBy(func(e models.ListingEvent) bool {
		return e.Action == action && e.ListingID == listingID && e.AgentID == "agent-1" && e.ID != ""
	})
}

// ==========================
// Slug Tests
// ==========================

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Sunny Villa", "sunny-villa"},
		{"  Loft -- Downtown, Austin! ", "loft-downtown-austin"},
		{"3BR Condo", "3br-condo"},
		{"Café Déjà Vu", "cafe-deja-vu"},
		{"Ático en Málaga", "atico-en-malaga"},
		{"Ünïcödé Hôme", "unicode-home"},
		{"garden_flat", "garden-flat"},
		{"!!!", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Slugify(tt.in), tt.in)
	}

	assert.Equal(t, "sunny-villa-1b4e28ba", listingPath("Sunny Villa", "1b4e28ba-2fa1-11d2-883f-0016e0a4b2f0", 8))
	assert.Equal(t, "atico-en-malaga-1b4e28ba", listingPath("Ático en Málaga", "1b4e28ba-2fa1-11d2-883f-0016e0a4b2f0", 8))
	assert.Equal(t, "1b4e28ba", listingPath("???", "1b4e28ba-2fa1-11d2-883f-0016e0a4b2f0", 8))
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_Create(t *testing.T) {
	t.Run("generated path and event", func(t *testing.T) {
		pub := &MockPublisher{}
		handler, sqlMock := createTestHandler(t, pub)

		args := anyArgs(18)
		args[1] = "Sunny Villa"
		args[16] = "agent-1"
		args[17] = fixedNow
		sqlMock.ExpectExec(regexp.QuoteMeta("INSERT INTO properties")).
			WithArgs(args...).
			WillReturnResult(sqlmock.NewResult(0, 1))
		pub.On("Publish", mock.Anything, mock.AnythingOfType("models.ListingEvent")).Return(nil)

		output, err := handler.Execute(context.Background(), &Input{
			Operation: OperationCreate, AgentID: "agent-1", Listing: validListing(),
		})
		require.NoError(t, err)

		assert.True(t, strings.HasPrefix(output.Listing.Path, "sunny-villa-"))
		assert.Len(t, output.Listing.Path, len("sunny-villa-")+8)
		assert.Equal(t, output.ListingID, output.Listing.ID)
		assert.Equal(t, fixedNow, output.Listing.CreatedAt)

		pub.AssertCalled(t, "Publish", mock.Anything, eventWith(models.EventListingCreated, output.ListingID))
		assert.NoError(t, sqlMock.ExpectationsWereMet())
	})

	t.Run("explicit path kept", func(t *testing.T) {
		pub := &MockPublisher{}
		handler, sqlMock := createTestHandler(t, pub)

		listing := validListing()
		listing.Path = "my-villa"
		args := anyArgs(18)
		args[2] = "my-villa"
		sqlMock.ExpectExec(regexp.QuoteMeta("INSERT INTO properties")).
			WithArgs(args...).
			WillReturnResult(sqlmock.NewResult(0, 1))
		pub.On("Publish", mock.Anything, mock.Anything).Return(nil)

		output, err := handler.Execute(context.Background(), &Input{Operation: OperationCreate, AgentID: "agent-1", Listing: listing})
		require.NoError(t, err)
		assert.Equal(t, "my-villa", output.Listing.Path)
		assert.NoError(t, sqlMock.ExpectationsWereMet())
	})

	t.Run("publish failure does not fail the request", func(t *testing.T) {
		pub := &MockPublisher{}
		handler, sqlMock := createTestHandler(t, pub)

		sqlMock.ExpectExec(regexp.QuoteMeta("INSERT INTO properties")).WillReturnResult(sqlmock.NewResult(0, 1))
		pub.On("Publish", mock.Anything, mock.Anything).Return(errors.New("broker down"))

		output, err := handler.Execute(context.Background(), &Input{Operation: OperationCreate, AgentID: "agent-1", Listing: validListing()})
		require.NoError(t, err)
		assert.NotEmpty(t, output.ListingID)
		pub.AssertExpectations(t)
	})

	t.Run("duplicate path", func(t *testing.T) {
		pub := &MockPublisher{}
		handler, sqlMock := createTestHandler(t, pub)

		sqlMock.ExpectExec(regexp.QuoteMeta("INSERT INTO properties")).
			WillReturnError(&pq.Error{Code: "23505", Constraint: "properties_path_key"})

		_, err := handler.Execute(context.Background(), &Input{Operation: OperationCreate, AgentID: "agent-1", Listing: validListing()})
		assert.ErrorIs(t, err, ErrDuplicatePath)
		pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
	})

	t.Run("insert failure", func(t *testing.T) {
		handler, sqlMock := createTestHandler(t, &MockPublisher{})
		sqlMock.ExpectExec(regexp.QuoteMeta("INSERT INTO properties")).WillReturnError(errors.New("disk full"))

		_, err := handler.Execute(context.Background(), &Input{Operation: OperationCreate, AgentID: "agent-1", Listing: validListing()})
		assert.ErrorIs(t, err, ErrDatabaseInsertFailed)
	})
}

func TestHandler_Execute_Validation(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(l *models.ListingInput)
		expectedErr error
	}{
		{"missing city", func(l *models.ListingInput) { l.CityID = "" }, ErrValidationFailed},
		{"name too short", func(l *models.ListingInput) { l.PropertyName = "ab" }, ErrValidationFailed},
		{"negative bedrooms", func(l *models.ListingInput) { l.Bedrooms = intPtr(-1) }, ErrValidationFailed},
		{"zero price", func(l *models.ListingInput) { l.Price = floatPtr(0) }, ErrValidationFailed},
		{"bad path", func(l *models.ListingInput) { l.Path = "Not A Slug" }, ErrValidationFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, sqlMock := createTestHandler(t, &MockPublisher{})
			listing := validListing()
			tt.mutate(listing)

			_, err := handler.Execute(context.Background(), &Input{Operation: OperationCreate, AgentID: "agent-1", Listing: listing})
			assert.ErrorIs(t, err, tt.expectedErr)
			assert.NoError(t, sqlMock.ExpectationsWereMet())
		})
	}

	handler, _ := createTestHandler(t, &MockPublisher{})
	_, err := handler.Execute(context.Background(), &Input{Operation: OperationCreate, AgentID: "agent-1"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = handler.Execute(context.Background(), &Input{Operation: "archive", AgentID: "agent-1"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = handler.Execute(context.Background(), &Input{Operation: OperationList})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestHandler_Execute_UpdateDelete(t *testing.T) {
	tests := []struct {
		name           string
		input          *Input
		mockQuery      func(mock sqlmock.Sqlmock)
		publishes      models.EventAction
		expectedErr    error
		validateOutput func(t *testing.T, output *Output)
	}{
		{
			name:  "update scoped to agent",
			input: &Input{Operation: OperationUpdate, AgentID: "agent-1", ListingID: "l-1", Listing: validListing()},
			mockQuery: func(m sqlmock.Sqlmock) {
				args := anyArgs(18)
				args[16] = "l-1"
				args[17] = "agent-1"
				m.ExpectQuery(regexp.QuoteMeta("WHERE id = $17 AND agent_id = $18")).
					WithArgs(args...).
					WillReturnRows(sqlmock.NewRows([]string{"path", "created_at"}).AddRow("sunny-villa-abc12345", createdAt))
			},
			publishes: models.EventListingUpdated,
			validateOutput: func(t *testing.T, output *Output) {
				require.NotNil(t, output.Listing)
				assert.Equal(t, "sunny-villa-abc12345", output.Listing.Path)
				assert.Equal(t, createdAt, output.Listing.CreatedAt, "creation time comes from the stored row")
				require.NotNil(t, output.Listing.UpdatedAt)
				assert.Equal(t, fixedNow, *output.Listing.UpdatedAt)
			},
		},
		{
			name:  "update of another agent's listing",
			input: &Input{Operation: OperationUpdate, AgentID: "agent-1", ListingID: "l-9", Listing: validListing()},
			mockQuery: func(m sqlmock.Sqlmock) {
				m.ExpectQuery(regexp.QuoteMeta("UPDATE properties SET")).WillReturnRows(sqlmock.NewRows([]string{"path", "created_at"}))
			},
			expectedErr: ErrListingNotFound,
		},
		{
			name:        "update without id",
			input:       &Input{Operation: OperationUpdate, AgentID: "agent-1", Listing: validListing()},
			mockQuery:   func(m sqlmock.Sqlmock) {},
			expectedErr: ErrInvalidInput,
		},
		{
			name:  "delete",
			input: &Input{Operation: OperationDelete, AgentID: "agent-1", ListingID: "l-1"},
			mockQuery: func(m sqlmock.Sqlmock) {
				m.ExpectExec(regexp.QuoteMeta("DELETE FROM properties WHERE id = $1 AND agent_id = $2")).
					WithArgs("l-1", "agent-1").
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
			publishes: models.EventListingDeleted,
		},
		{
			name:  "delete missing",
			input: &Input{Operation: OperationDelete, AgentID: "agent-1", ListingID: "l-404"},
			mockQuery: func(m sqlmock.Sqlmock) {
				m.ExpectExec(regexp.QuoteMeta("DELETE FROM properties")).WillReturnResult(sqlmock.NewResult(0, 0))
			},
			expectedErr: ErrListingNotFound,
		},
		{
			name:  "delete failure",
			input: &Input{Operation: OperationDelete, AgentID: "agent-1", ListingID: "l-1"},
			mockQuery: func(m sqlmock.Sqlmock) {
				m.ExpectExec(regexp.QuoteMeta("DELETE FROM properties")).WillReturnError(errors.New("lock timeout"))
			},
			expectedErr: ErrQueryExecutionFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pub := &MockPublisher{}
			handler, sqlMock := createTestHandler(t, pub)
			tt.mockQuery(sqlMock)
			if tt.publishes != "" {
				pub.On("Publish", mock.Anything, eventWith(tt.publishes, tt.input.ListingID)).Return(nil)
			}

			output, err := handler.Execute(context.Background(), tt.input)
			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
				pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.input.ListingID, output.ListingID)
				if tt.validateOutput != nil {
					tt.validateOutput(t, output)
				}
				pub.AssertExpectations(t)
			}
			assert.NoError(t, sqlMock.ExpectationsWereMet())
		})
	}
}

func TestHandler_Execute_List(t *testing.T) {
	handler, sqlMock := createTestHandler(t, &MockPublisher{})
	sqlMock.ExpectQuery(regexp.QuoteMeta("WHERE p.agent_id = $1")).
		WithArgs("agent-1").
		WillReturnRows(querytest.ListingRows(
			models.Listing{ID: "l-2", PropertyName: "Loft", Path: "loft", AgentID: "agent-1", CreatedAt: fixedNow},
			models.Listing{ID: "l-1", PropertyName: "Villa", Path: "villa", AgentID: "agent-1", CreatedAt: fixedNow},
		))

	output, err := handler.Execute(context.Background(), &Input{Operation: OperationList, AgentID: "agent-1"})
	require.NoError(t, err)
	require.Len(t, output.Listings, 2)
	assert.Equal(t, "l-2", output.Listings[0].ID)
	assert.NoError(t, sqlMock.ExpectationsWereMet())
}

// ==========================
// HTTP Adapter Tests
// ==========================

func newRouter(h *Handler) http.Handler {
	router := chi.NewRouter()
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if id := r.Header.Get("X-Test-Agent"); id != "" {
				r = r.WithContext(validateagentaccess.WithAgentID(r.Context(), id))
			}
			next.ServeHTTP(w, r)
		})
	})
	router.Get("/api/v1/pro/listings", h.List)
	router.Post("/api/v1/pro/listings", h.Create)
	router.Put("/api/v1/pro/listings/{id}", h.Update)
	router.Delete("/api/v1/pro/listings/{id}", h.Delete)
	return router
}

func TestHandler_HTTP(t *testing.T) {
	body, err := json.Marshal(validListing())
	require.NoError(t, err)

	tests := []struct {
		name           string
		method         string
		url            string
		body           []byte
		agent          string
		mockQuery      func(m sqlmock.Sqlmock)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:   "create",
			method: http.MethodPost, url: "/api/v1/pro/listings", body: body, agent: "agent-1",
			mockQuery: func(m sqlmock.Sqlmock) {
				m.ExpectExec(regexp.QuoteMeta("INSERT INTO properties")).WillReturnResult(sqlmock.NewResult(0, 1))
			},
			expectedStatus: http.StatusCreated,
			expectedBody:   `"operation":"create"`,
		},
		{
			name:   "create with unknown field",
			method: http.MethodPost, url: "/api/v1/pro/listings", body: []byte(`{"propertyName":"Sunny Villa","color":"red"}`), agent: "agent-1",
			mockQuery:      func(m sqlmock.Sqlmock) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   "INVALID_REQUEST",
		},
		{
			name:   "create failing schema",
			method: http.MethodPost, url: "/api/v1/pro/listings", body: []byte(`{"propertyName":"Sunny Villa"}`), agent: "agent-1",
			mockQuery:      func(m sqlmock.Sqlmock) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   "LISTING_VALIDATION_FAILED",
		},
		{
			name:   "duplicate path",
			method: http.MethodPut, url: "/api/v1/pro/listings/l-1", body: body, agent: "agent-1",
			mockQuery: func(m sqlmock.Sqlmock) {
				m.ExpectQuery(regexp.QuoteMeta("UPDATE properties")).WillReturnError(&pq.Error{Code: "23505"})
			},
			expectedStatus: http.StatusConflict,
			expectedBody:   "DUPLICATE_LISTING_PATH",
		},
		{
			name:   "delete missing",
			method: http.MethodDelete, url: "/api/v1/pro/listings/l-404", agent: "agent-1",
			mockQuery: func(m sqlmock.Sqlmock) {
				m.ExpectExec(regexp.QuoteMeta("DELETE FROM properties")).WillReturnResult(sqlmock.NewResult(0, 0))
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   "LISTING_NOT_FOUND",
		},
		{
			name:   "no agent in context",
			method: http.MethodGet, url: "/api/v1/pro/listings",
			mockQuery:      func(m sqlmock.Sqlmock) {},
			expectedStatus: http.StatusForbidden,
			expectedBody:   "AGENT_ACCESS_DENIED",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pub := &MockPublisher{}
			pub.On("Publish", mock.Anything, mock.Anything).Return(nil)
			handler, sqlMock := createTestHandler(t, pub)
			tt.mockQuery(sqlMock)

			req := httptest.NewRequest(tt.method, tt.url, bytes.NewReader(tt.body))
			if tt.agent != "" {
				req.Header.Set("X-Test-Agent", tt.agent)
			}
			rec := httptest.NewRecorder()
			newRouter(handler).ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.expectedBody)
			assert.NoError(t, sqlMock.ExpectationsWereMet())
		})
	}
}
