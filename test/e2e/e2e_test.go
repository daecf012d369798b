// test/e2e/e2e_test.go
package e2e

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"huusy-marketplace/internal/app"
	"huusy-marketplace/internal/common/auth"
	"huusy-marketplace/internal/common/config"
	"huusy-marketplace/internal/common/database"
	"huusy-marketplace/internal/common/logger"
	"huusy-marketplace/internal/common/observability"
	"huusy-marketplace/internal/server"
)

// Fixture ids shared by the seed data and the requests.
const (
	cityID     = "e2e-city-lisbon"
	typeID     = "e2e-type-villa"
	saleTypeID = "e2e-sale-for-sale"
	agentID    = "e2e-agent-1"
	customerID = "e2e-customer-1"
)

func TestFullE2E(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test in short mode")
	}

	cfg, err := config.Load()
	if err != nil {
		t.Skipf("config not available: %v", err)
	}

	// 🔧 FORCE LOCALHOST FOR E2E TESTS
	cfg.Database.Postgres.Host = "localhost"
	cfg.Database.Redis.Address = "localhost:6379"
	cfg.Database.Elasticsearch.Addresses = []string{"http://localhost:9200"}
	cfg.Database.Elasticsearch.ListingIndex = "e2e-listings"
	cfg.Messaging.Driver = config.MessagingDriverNone
	cfg.Messaging.ConsumeInProcess = true
	cfg.Integrations.AWS.SES.Enabled = false
	cfg.Integrations.AWS.SNS.Enabled = false

	t.Log("🚀 Starting FULL E2E Test with real services...")

	// 1. Check all external services are available
	assertAllServicesConnectivity(t, cfg)

	log := logger.NewTestLogger(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	clients, err := app.Connect(ctx, cfg, log)
	require.NoError(t, err)
	defer clients.Close()

	// 2. Create DB tables if needed and insert test data
	createDatabaseTables(t, clients.Postgres.GetDB())

	obs := observability.New("marketplace-e2e")
	defer obs.Shutdown()

	wiring, err := app.Wire(cfg, clients, obs, log)
	require.NoError(t, err)
	defer wiring.Close()

	_, err = wiring.Handlers.SyncIndex.Reindex(ctx)
	require.NoError(t, err)

	validator := auth.NewValidator(cfg.Auth.JWT.Secret, cfg.Auth.JWT.Issuer, cfg.Auth.JWT.Audience)
	srv := server.New(cfg, wiring.Handlers, validator, clients.ReadinessChecks(), log)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	c := &client{t: t, baseURL: ts.URL, validator: validator}

	// 3. Exercise the public and authenticated API
	testPublicCatalog(t, c)
	path := testAgentListingLifecycle(t, c)
	testCustomerFavorites(t, c, path)
	testSitemapAndAdmin(t, c, path)

	t.Log("✅ ALL TESTS PASSED: full E2E workflow successful!")
}

func assertAllServicesConnectivity(t *testing.T, cfg *config.Config) {
	t.Log("🔍 Checking service connectivity...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pg, err := database.NewPostgres(cfg.Database.Postgres)
	if err != nil || pg.Ping(ctx) != nil {
		t.Skip("PostgreSQL not reachable")
	}
	pg.Close()
	t.Log("✅ PostgreSQL connected")

	rdb, err := database.NewRedis(cfg.Database.Redis)
	if err != nil || rdb.Ping(ctx) != nil {
		t.Skip("Redis not reachable")
	}
	rdb.Close()
	t.Log("✅ Redis connected")

	es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
	if err != nil || es.Ping(ctx) != nil {
		t.Skip("Elasticsearch not reachable")
	}
	t.Log("✅ Elasticsearch connected")
}

// ==========================
// Database Tables Setup + Test Data
// ==========================

func createDatabaseTables(t *testing.T, db *sql.DB) {
	t.Log("🔧 Creating database tables and inserting test data...")

	statements := []string{
		`CREATE TABLE IF NOT EXISTS cities (
			id VARCHAR(255) PRIMARY KEY,
			title VARCHAR(255) NOT NULL,
			path VARCHAR(255) UNIQUE NOT NULL,
			meta_title TEXT,
			meta_description TEXT,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS property_types (
			id VARCHAR(255) PRIMARY KEY,
			title VARCHAR(255) NOT NULL,
			path VARCHAR(255) UNIQUE NOT NULL,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS sale_types (
			id VARCHAR(255) PRIMARY KEY,
			title VARCHAR(255) NOT NULL,
			path VARCHAR(255) UNIQUE NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS account_pro (
			id VARCHAR(255) PRIMARY KEY,
			full_name VARCHAR(255) NOT NULL,
			email VARCHAR(255),
			agency_name VARCHAR(255),
			phone VARCHAR(50),
			profile_image_url TEXT,
			description TEXT,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS properties (
			id VARCHAR(255) PRIMARY KEY,
			property_name VARCHAR(255) NOT NULL,
			path VARCHAR(255) UNIQUE NOT NULL,
			excerpt TEXT,
			property_details TEXT,
			images TEXT[],
			bathrooms INTEGER,
			bedrooms INTEGER,
			property_size DOUBLE PRECISION,
			price DOUBLE PRECISION,
			address TEXT,
			meta_title TEXT,
			meta_description TEXT,
			property_type_id VARCHAR(255) REFERENCES property_types(id),
			city_id VARCHAR(255) REFERENCES cities(id),
			sale_type_id VARCHAR(255) REFERENCES sale_types(id),
			agent_id VARCHAR(255) REFERENCES account_pro(id),
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS favorites (
			id VARCHAR(255) PRIMARY KEY,
			property_id VARCHAR(255) NOT NULL REFERENCES properties(id) ON DELETE CASCADE,
			customer_id VARCHAR(255) NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(property_id, customer_id)
		)`,
		`INSERT INTO cities (id, title, path, meta_title) VALUES ('` + cityID + `', 'Lisbon', 'e2e-lisbon', 'Homes in Lisbon') ON CONFLICT (id) DO NOTHING`,
		`INSERT INTO property_types (id, title, path) VALUES ('` + typeID + `', 'Villa', 'e2e-villa') ON CONFLICT (id) DO NOTHING`,
		`INSERT INTO sale_types (id, title, path) VALUES ('` + saleTypeID + `', 'For Sale', 'e2e-for-sale') ON CONFLICT (id) DO NOTHING`,
		`INSERT INTO account_pro (id, full_name, email) VALUES ('` + agentID + `', 'E2E Agent', 'agent@example.com') ON CONFLICT (id) DO NOTHING`,
	}

	for _, stmt := range statements {
		_, err := db.Exec(stmt)
		require.NoError(t, err, "failed statement: %s", strings.SplitN(stmt, "\n", 2)[0])
	}

	t.Log("✅ Database tables created and test data inserted")
}

// ==========================
// HTTP helpers
// ==========================

type client struct {
	t         *testing.T
	baseURL   string
	validator *auth.Validator
}

func (c *client) token(subject, role string) string {
	token, err := c.validator.GenerateToken(subject, role, "", time.Hour)
	require.NoError(c.t, err)
	return token
}

func (c *client) do(method, path, token string, body interface{}) (int, []byte) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(c.t, err)
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	require.NoError(c.t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	res, err := http.DefaultClient.Do(req)
	require.NoError(c.t, err)
	defer res.Body.Close()

	data, err := io.ReadAll(res.Body)
	require.NoError(c.t, err)
	return res.StatusCode, data
}

func decode(t *testing.T, data []byte) map[string]interface{} {
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &out), string(data))
	return out
}

// ==========================
// Scenarios
// ==========================

func testPublicCatalog(t *testing.T, c *client) {
	t.Log("🏙️  Testing lookups and agents...")

	status, body := c.do(http.MethodGet, "/api/v1/lookups/cities/e2e-lisbon", "", nil)
	require.Equal(t, http.StatusOK, status, string(body))
	assert.Contains(t, string(body), "Lisbon")

	status, body = c.do(http.MethodGet, "/api/v1/agents/"+agentID, "", nil)
	require.Equal(t, http.StatusOK, status, string(body))
	assert.Contains(t, string(body), "E2E Agent")

	status, _ = c.do(http.MethodGet, "/api/v1/lookups/planets", "", nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func testAgentListingLifecycle(t *testing.T, c *client) string {
	t.Log("🏠 Testing agent listing lifecycle...")
	agentToken := c.token(agentID, auth.RoleAgent)
	name := fmt.Sprintf("E2E Seaside Villa %s", uuid.NewString()[:8])

	status, body := c.do(http.MethodPost, "/api/v1/pro/listings", agentToken, map[string]interface{}{
		"propertyName":   name,
		"price":          450000,
		"bedrooms":       3,
		"cityId":         cityID,
		"propertyTypeId": typeID,
		"saleTypeId":     saleTypeID,
	})
	require.Equal(t, http.StatusCreated, status, string(body))
	listing := decode(t, body)["listing"].(map[string]interface{})
	path := listing["path"].(string)
	id := listing["id"].(string)
	assert.True(t, strings.HasPrefix(path, "e2e-seaside-villa-"))

	status, body = c.do(http.MethodGet, "/api/v1/listings/"+path, "", nil)
	require.Equal(t, http.StatusOK, status, string(body))
	assert.Contains(t, string(body), name)

	status, body = c.do(http.MethodGet, "/api/v1/listings?search=seaside+villa&saleType=For+Sale", "", nil)
	require.Equal(t, http.StatusOK, status, string(body))
	assert.Contains(t, string(body), path)

	status, body = c.do(http.MethodPut, "/api/v1/pro/listings/"+id, agentToken, map[string]interface{}{
		"propertyName":   name,
		"price":          425000,
		"cityId":         cityID,
		"propertyTypeId": typeID,
		"saleTypeId":     saleTypeID,
	})
	require.Equal(t, http.StatusOK, status, string(body))
	assert.Equal(t, path, decode(t, body)["listing"].(map[string]interface{})["path"], "an empty path keeps the stored one")

	status, _ = c.do(http.MethodGet, "/api/v1/pro/listings", c.token(customerID, auth.RoleCustomer), nil)
	assert.Equal(t, http.StatusForbidden, status)

	t.Log("✅ Listing created, searched and updated")
	return path
}

func testCustomerFavorites(t *testing.T, c *client, path string) {
	t.Log("⭐ Testing customer favorites...")
	customerToken := c.token(customerID, auth.RoleCustomer)

	status, body := c.do(http.MethodGet, "/api/v1/listings/"+path, "", nil)
	require.Equal(t, http.StatusOK, status)
	id := decode(t, body)["listing"].(map[string]interface{})["id"].(string)

	status, body = c.do(http.MethodPost, "/api/v1/me/favorites/"+id, customerToken, nil)
	require.Equal(t, http.StatusOK, status, string(body))
	assert.Equal(t, true, decode(t, body)["favorited"])

	status, body = c.do(http.MethodGet, "/api/v1/me/favorites", customerToken, nil)
	require.Equal(t, http.StatusOK, status, string(body))
	assert.Contains(t, string(body), path)

	status, body = c.do(http.MethodPost, "/api/v1/me/favorites/"+id, customerToken, nil)
	require.Equal(t, http.StatusOK, status, string(body))
	assert.Equal(t, false, decode(t, body)["favorited"])

	t.Log("✅ Favorite toggled on and off")
}

func testSitemapAndAdmin(t *testing.T, c *client, path string) {
	t.Log("🗺️  Testing sitemap and admin routes...")

	status, body := c.do(http.MethodGet, "/sitemap.xml", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), "/properties/"+path+"</loc>")

	status, _ = c.do(http.MethodPost, "/internal/reindex", c.token(customerID, auth.RoleCustomer), nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, body = c.do(http.MethodPost, "/internal/reindex", c.token("e2e-admin", auth.RoleAdmin), nil)
	require.Equal(t, http.StatusOK, status, string(body))
	assert.EqualValues(t, 0, decode(t, body)["failed"])

	status, body = c.do(http.MethodPost, "/internal/query", c.token("e2e-admin", auth.RoleAdmin), map[string]interface{}{
		"queryType": "listing_by_path",
		"params":    map[string]interface{}{"path": path},
	})
	require.Equal(t, http.StatusOK, status, string(body))
	assert.EqualValues(t, 1, decode(t, body)["rowCount"])

	status, _ = c.do(http.MethodGet, "/ready", "", nil)
	assert.Equal(t, http.StatusOK, status)

	t.Log("✅ Sitemap, reindex and internal query verified")
}
