package notifyagent

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"huusy-marketplace/internal/common/logger"
	"huusy-marketplace/internal/handlers/data-access/query-postgresql/queries/querytest"
	"huusy-marketplace/internal/models"
)

// ==========================
// Test Helper Functions
// ==========================

type MockEmailSender struct {
	mock.Mock
}

func (m *MockEmailSender) SendEmail(ctx context.Context, to []string, subject, textBody, htmlBody string) (string, error) {
	args := m.Called(ctx, to, subject, textBody, htmlBody)
	return args.String(0), args.Error(1)
}

type MockSMSSender struct {
	mock.Mock
}

func (m *MockSMSSender) SendSMS(ctx context.Context, phone, message string) (string, error) {
	args := m.Called(ctx, phone, message)
	return args.String(0), args.Error(1)
}

func floatPtr(v float64) *float64 { return &v }

func sampleListing(phone string) models.Listing {
	return models.Listing{
		ID:           "l-1",
		PropertyName: "Sunny Villa",
		Path:         "sunny-villa",
		Price:        floatPtr(1250000),
		AgentID:      "agent-1",
		CreatedAt:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Agent:        &models.Agent{FullName: "Jane Doe", Email: "jane@example.com", Phone: phone},
	}
}

func expectListing(m sqlmock.Sqlmock, l models.Listing) {
	m.ExpectQuery(regexp.QuoteMeta("WHERE p.id = $1")).
		WithArgs(l.ID).
		WillReturnRows(querytest.ListingRows(l))
}

func statuses(output *Output) map[string]string {
	out := map[string]string{}
	for _, n := range output.Notifications {
		out[n.Channel] = n.Status
	}
	return out
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute(t *testing.T) {
	tests := []struct {
		name           string
		config         *Config
		event          models.ListingEvent
		mockQuery      func(m sqlmock.Sqlmock)
		setupMocks     func(email *MockEmailSender, sms *MockSMSSender)
		expectedErr    error
		validateOutput func(t *testing.T, output *Output)
	}{
		{
			name:      "listing created emails the agent",
			config:    &Config{Timeout: time.Second, EmailEnabled: true, SMSEnabled: true, SiteURL: "https://huusy.com/"},
			event:     models.ListingEvent{ID: "evt-1", Action: models.EventListingCreated, ListingID: "l-1"},
			mockQuery: func(m sqlmock.Sqlmock) { expectListing(m, sampleListing("+15550100")) },
			setupMocks: func(email *MockEmailSender, sms *MockSMSSender) {
				email.On("SendEmail", mock.Anything, []string{"jane@example.com"},
					"Your listing Sunny Villa is live",
					mock.MatchedBy(func(body string) bool {
						return strings.Contains(body, "Hello Jane Doe") &&
							strings.Contains(body, "($1,250,000)") &&
							strings.Contains(body, "https://huusy.com/properties/sunny-villa")
					}), "").Return("msg-1", nil)
			},
			validateOutput: func(t *testing.T, output *Output) {
				require.Len(t, output.Notifications, 1, "listing_published has no sms template")
				n := output.Notifications[0]
				assert.Equal(t, TypeListingPublished, n.Type)
				assert.Equal(t, StatusSent, n.Status)
				assert.Equal(t, "agent-1", n.AgentID)
				assert.Equal(t, "evt-1", n.Payload["eventId"])
			},
		},
		{
			name:      "favorite sends email and sms",
			config:    &Config{Timeout: time.Second, EmailEnabled: true, SMSEnabled: true},
			event:     models.ListingEvent{Action: models.EventFavoriteAdded, ListingID: "l-1", CustomerID: "cust-1"},
			mockQuery: func(m sqlmock.Sqlmock) { expectListing(m, sampleListing("+15550100")) },
			setupMocks: func(email *MockEmailSender, sms *MockSMSSender) {
				email.On("SendEmail", mock.Anything, []string{"jane@example.com"}, "Someone saved Sunny Villa", mock.Anything, "").Return("msg-1", nil)
				sms.On("SendSMS", mock.Anything, "+15550100", "Huusy: a customer saved Sunny Villa. /properties/sunny-villa").Return("sms-1", nil)
			},
			validateOutput: func(t *testing.T, output *Output) {
				assert.Equal(t, map[string]string{ChannelEmail: StatusSent, ChannelSMS: StatusSent}, statuses(output))
				assert.Equal(t, "cust-1", output.Notifications[0].Payload["customerId"])
			},
		},
		{
			name:      "sms disabled",
			config:    &Config{Timeout: time.Second, EmailEnabled: true, SMSEnabled: false},
			event:     models.ListingEvent{Action: models.EventFavoriteAdded, ListingID: "l-1"},
			mockQuery: func(m sqlmock.Sqlmock) { expectListing(m, sampleListing("+15550100")) },
			setupMocks: func(email *MockEmailSender, sms *MockSMSSender) {
				email.On("SendEmail", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("msg-1", nil)
			},
			validateOutput: func(t *testing.T, output *Output) {
				assert.Equal(t, map[string]string{ChannelEmail: StatusSent, ChannelSMS: StatusDisabled}, statuses(output))
			},
		},
		{
			name:       "agent without phone",
			config:     &Config{Timeout: time.Second, EmailEnabled: false, SMSEnabled: true},
			event:      models.ListingEvent{Action: models.EventFavoriteAdded, ListingID: "l-1"},
			mockQuery:  func(m sqlmock.Sqlmock) { expectListing(m, sampleListing("")) },
			setupMocks: func(email *MockEmailSender, sms *MockSMSSender) {},
			validateOutput: func(t *testing.T, output *Output) {
				assert.Equal(t, map[string]string{ChannelEmail: StatusDisabled, ChannelSMS: StatusDisabled}, statuses(output))
			},
		},
		{
			name:      "send failure is reported, not returned",
			config:    &Config{Timeout: time.Second, EmailEnabled: true, SMSEnabled: true},
			event:     models.ListingEvent{Action: models.EventFavoriteAdded, ListingID: "l-1"},
			mockQuery: func(m sqlmock.Sqlmock) { expectListing(m, sampleListing("+15550100")) },
			setupMocks: func(email *MockEmailSender, sms *MockSMSSender) {
				email.On("SendEmail", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("", errors.New("throttled"))
				sms.On("SendSMS", mock.Anything, mock.Anything, mock.Anything).Return("sms-1", nil)
			},
			validateOutput: func(t *testing.T, output *Output) {
				assert.Equal(t, map[string]string{ChannelEmail: StatusFailed, ChannelSMS: StatusSent}, statuses(output))
			},
		},
		{
			name:       "other events are skipped",
			config:     LoadConfig(),
			event:      models.ListingEvent{Action: models.EventListingUpdated, ListingID: "l-1"},
			mockQuery:  func(m sqlmock.Sqlmock) {},
			setupMocks: func(email *MockEmailSender, sms *MockSMSSender) {},
			validateOutput: func(t *testing.T, output *Output) {
				assert.True(t, output.Skipped)
			},
		},
		{
			name:   "missing listing is skipped",
			config: LoadConfig(),
			event:  models.ListingEvent{Action: models.EventListingCreated, ListingID: "l-404"},
			mockQuery: func(m sqlmock.Sqlmock) {
				m.ExpectQuery(regexp.QuoteMeta("WHERE p.id = $1")).WithArgs("l-404").WillReturnRows(querytest.ListingRows())
			},
			setupMocks: func(email *MockEmailSender, sms *MockSMSSender) {},
			validateOutput: func(t *testing.T, output *Output) {
				assert.True(t, output.Skipped)
				assert.Empty(t, output.Notifications)
			},
		},
		{
			name:   "database error is returned",
			config: LoadConfig(),
			event:  models.ListingEvent{Action: models.EventListingCreated, ListingID: "l-1"},
			mockQuery: func(m sqlmock.Sqlmock) {
				m.ExpectQuery(regexp.QuoteMeta("WHERE p.id = $1")).WillReturnError(errors.New("connection reset"))
			},
			setupMocks:  func(email *MockEmailSender, sms *MockSMSSender) {},
			expectedErr: ErrQueryExecutionFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, sqlMock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()
			tt.mockQuery(sqlMock)

			email, sms := &MockEmailSender{}, &MockSMSSender{}
			tt.setupMocks(email, sms)

			handler := NewHandler(tt.config, db, email, sms, logger.NewTestLogger(t))
			output, err := handler.Execute(context.Background(), tt.event)
			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
			} else {
				require.NoError(t, err)
				tt.validateOutput(t, output)
			}

			email.AssertExpectations(t)
			sms.AssertExpectations(t)
			assert.NoError(t, sqlMock.ExpectationsWereMet())
		})
	}
}

func TestHandler_HandleEvent(t *testing.T) {
	db, sqlMock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	sqlMock.ExpectQuery(regexp.QuoteMeta("WHERE p.id = $1")).WillReturnError(errors.New("connection reset"))
	handler := NewHandler(LoadConfig(), db, nil, nil, logger.NewTestLogger(t))
	assert.ErrorIs(t, handler.HandleEvent(context.Background(), models.ListingEvent{Action: models.EventListingCreated, ListingID: "l-1"}), ErrQueryExecutionFailed)

	expectListing(sqlMock, sampleListing(""))
	assert.NoError(t, handler.HandleEvent(context.Background(), models.ListingEvent{Action: models.EventListingCreated, ListingID: "l-1"}))
}

// ==========================
// Template Tests
// ==========================

func TestRenderTemplate(t *testing.T) {
	data := templateData(&models.Listing{PropertyName: "Loft", Path: "loft"}, "https://huusy.com")

	tests := []struct {
		name string
		tmpl string
		data map[string]interface{}
		want string
	}{
		{
			name: "known keys",
			tmpl: "{{propertyName}} ({{price}}) {{url}}",
			data: data,
			want: "Loft (price on request) https://huusy.com/properties/loft",
		},
		{
			name: "missing values are dropped",
			tmpl: "Hello {{agentName}},",
			data: data,
			want: "Hello ,",
		},
		{
			name: "unterminated placeholder kept",
			tmpl: "unterminated {{tag",
			data: data,
			want: "unterminated {{tag",
		},
		{
			name: "placeholder text inside a value is not expanded",
			tmpl: "Saved {{propertyName}} at {{url}}",
			data: map[string]interface{}{"propertyName": "Loft {{url}} {{x}}", "url": "https://huusy.com/properties/loft"},
			want: "Saved Loft {{url}} {{x}} at https://huusy.com/properties/loft",
		},
		{
			name: "non-string values",
			tmpl: "{{count}} views",
			data: map[string]interface{}{"count": 12},
			want: "12 views",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, renderTemplate(tt.tmpl, tt.data))
		})
	}
}
