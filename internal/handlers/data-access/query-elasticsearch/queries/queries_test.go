package queries

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"huusy-marketplace/internal/models"
	"huusy-marketplace/internal/search"
)

// ==========================
// Test Helper Functions
// ==========================

type recordedRequest struct {
	Method string
	Path   string
	Body   string
}

// fakeES answers with the status and body registered for "METHOD path".
type fakeES struct {
	mu        sync.Mutex
	requests  []recordedRequest
	responses map[string]fakeResponse
}

type fakeResponse struct {
	status int
	body   string
}

func newFakeES(t *testing.T, responses map[string]fakeResponse) (*fakeES, *elasticsearch.Client) {
	f := &fakeES{responses: responses}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		f.mu.Lock()
		f.requests = append(f.requests, recordedRequest{Method: r.Method, Path: r.URL.Path, Body: string(body)})
		f.mu.Unlock()

		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")

		resp, ok := f.responses[r.Method+" "+r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":"not found"}`))
			return
		}
		w.WriteHeader(resp.status)
		_, _ = w.Write([]byte(resp.body))
	}))
	t.Cleanup(srv.Close)

	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	return f, client
}

func (f *fakeES) last() recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

func decodeBody(t *testing.T, lq ListingQuery) map[string]interface{} {
	req, err := BuildQuery(lq)
	require.NoError(t, err)

	raw, err := io.ReadAll(req.Body)
	require.NoError(t, err)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &body))
	return body
}

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }

// ==========================
// Builder Tests
// ==========================

func TestBuildQuery_Errors(t *testing.T) {
	_, err := BuildQuery(ListingQuery{QueryType: QueryTypeListingSearch})
	assert.ErrorIs(t, err, ErrMissingIndex)

	_, err = BuildQuery(ListingQuery{Index: "listings", QueryType: "unknown_index"})
	assert.ErrorIs(t, err, ErrUnknownQueryType)
}

func TestBuildQuery_Pagination(t *testing.T) {
	tests := []struct {
		name     string
		from     int
		size     int
		wantFrom int
		wantSize int
	}{
		{"defaults", 0, 0, 0, 20},
		{"caps size", 10, 500, 10, 100},
		{"negative from", -5, 5, 0, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := BuildQuery(ListingQuery{Index: "listings", QueryType: QueryTypeListingSearch, From: tt.from, Size: tt.size})
			require.NoError(t, err)
			assert.Equal(t, tt.wantFrom, *req.From)
			assert.Equal(t, tt.wantSize, *req.Size)
		})
	}
}

func TestBuildListingSearchQuery(t *testing.T) {
	body := decodeBody(t, ListingQuery{
		Index:     "listings",
		QueryType: QueryTypeListingSearch,
		Keywords:  "sea view",
		Filter: search.Filter{
			CityID:      "city-1",
			MinPrice:    floatPtr(100000),
			MaxPrice:    floatPtr(300000),
			MinBedrooms: intPtr(2),
		},
	})

	boolQuery := body["query"].(map[string]interface{})["bool"].(map[string]interface{})
	must := boolQuery["must"].([]interface{})
	require.Len(t, must, 1)
	multiMatch := must[0].(map[string]interface{})["multi_match"].(map[string]interface{})
	assert.Equal(t, "sea view", multiMatch["query"])

	filters := boolQuery["filter"].([]interface{})
	require.Len(t, filters, 3)
	assert.Equal(t, map[string]interface{}{"term": map[string]interface{}{"cityId": "city-1"}}, filters[0])
	price := filters[1].(map[string]interface{})["range"].(map[string]interface{})["price"].(map[string]interface{})
	assert.Equal(t, 100000.0, price["gte"])
	assert.Equal(t, 300000.0, price["lte"])

	_, sorted := body["sort"]
	assert.False(t, sorted, "keyword searches sort by score")
}

func TestBuildListingSearchQuery_Browse(t *testing.T) {
	body := decodeBody(t, ListingQuery{Index: "listings", QueryType: QueryTypeListingSearch})

	boolQuery := body["query"].(map[string]interface{})["bool"].(map[string]interface{})
	must := boolQuery["must"].([]interface{})
	assert.Contains(t, must[0], "match_all")
	assert.NotContains(t, boolQuery, "filter")
	assert.NotNil(t, body["sort"])
}

func TestBuildRelatedListingsQuery(t *testing.T) {
	body := decodeBody(t, ListingQuery{
		Index:      "listings",
		QueryType:  QueryTypeRelatedListings,
		ListingID:  "listing-1",
		SaleTypeID: "sale-1",
	})

	boolQuery := body["query"].(map[string]interface{})["bool"].(map[string]interface{})
	mlt := boolQuery["must"].([]interface{})[0].(map[string]interface{})["more_like_this"].(map[string]interface{})
	like := mlt["like"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "listing-1", like["_id"])

	mustNot := boolQuery["must_not"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, []interface{}{"listing-1"}, mustNot["ids"].(map[string]interface{})["values"])

	filter := boolQuery["filter"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "sale-1", filter["term"].(map[string]interface{})["saleTypeId"])
}

func TestBuildRelatedListingsQuery_NoListing(t *testing.T) {
	body := decodeBody(t, ListingQuery{Index: "listings", QueryType: QueryTypeRelatedListings})
	assert.Contains(t, body["query"], "match_none")
}

// ==========================
// Execute and Index Tests
// ==========================

func TestExecute_DecodesListings(t *testing.T) {
	_, client := newFakeES(t, map[string]fakeResponse{
		"POST /listings/_search": {status: 200, body: `{
			"took": 3,
			"hits": {
				"total": {"value": 2},
				"max_score": 1.5,
				"hits": [
					{"_id": "listing-2", "_source": {"id": "listing-2", "propertyName": "Beach House", "path": "beach-house", "price": 320000}},
					{"_id": "listing-3", "_source": {"propertyName": "Cabin", "path": "cabin"}}
				]
			}
		}`},
	})

	result, err := Execute(context.Background(), client, ListingQuery{
		Index:     "listings",
		QueryType: QueryTypeRelatedListings,
		ListingID: "listing-1",
		Size:      3,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), result.TotalHits)
	assert.Equal(t, 1.5, result.MaxScore)
	require.Len(t, result.Data, 2)
	require.NotNil(t, result.Data[0].Price)
	assert.Equal(t, 320000.0, *result.Data[0].Price)
	assert.Equal(t, "listing-3", result.Data[1].ID, "id falls back to _id")
}

func TestExecute_IndexMissing(t *testing.T) {
	_, client := newFakeES(t, map[string]fakeResponse{})

	_, err := Execute(context.Background(), client, ListingQuery{Index: "listings", QueryType: QueryTypeListingSearch})
	assert.ErrorIs(t, err, ErrIndexNotFound)
}

func TestExecute_ServerError(t *testing.T) {
	_, client := newFakeES(t, map[string]fakeResponse{
		"POST /listings/_search": {status: 500, body: `{"error":"boom"}`},
	})

	_, err := Execute(context.Background(), client, ListingQuery{Index: "listings", QueryType: QueryTypeListingSearch})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "search query failed")
}

func TestEnsureIndex(t *testing.T) {
	t.Run("creates missing index", func(t *testing.T) {
		fake, client := newFakeES(t, map[string]fakeResponse{
			"PUT /listings": {status: 200, body: `{"acknowledged":true}`},
		})

		require.NoError(t, EnsureIndex(context.Background(), client, "listings"))
		last := fake.last()
		assert.Equal(t, http.MethodPut, last.Method)
		assert.Contains(t, last.Body, `"saleTypeId"`)
	})

	t.Run("existing index is left alone", func(t *testing.T) {
		fake, client := newFakeES(t, map[string]fakeResponse{
			"HEAD /listings": {status: 200},
		})

		require.NoError(t, EnsureIndex(context.Background(), client, "listings"))
		assert.Equal(t, http.MethodHead, fake.last().Method)
	})
}

func TestIndexListing(t *testing.T) {
	fake, client := newFakeES(t, map[string]fakeResponse{
		"PUT /listings/_doc/listing-1": {status: 201, body: `{"result":"created"}`},
	})

	listing := models.Listing{ID: "listing-1", PropertyName: "Sunny Villa", Path: "sunny-villa"}
	require.NoError(t, IndexListing(context.Background(), client, "listings", listing))

	var doc models.Listing
	require.NoError(t, json.Unmarshal([]byte(fake.last().Body), &doc))
	assert.Equal(t, "sunny-villa", doc.Path)
}

func TestDeleteListing(t *testing.T) {
	_, client := newFakeES(t, map[string]fakeResponse{
		"DELETE /listings/_doc/listing-1": {status: 200, body: `{"result":"deleted"}`},
	})

	assert.NoError(t, DeleteListing(context.Background(), client, "listings", "listing-1"))
	assert.NoError(t, DeleteListing(context.Background(), client, "listings", "listing-404"), "missing documents are ignored")
}

func TestListingMapping_IsValidJSON(t *testing.T) {
	var mapping map[string]interface{}
	require.NoError(t, json.NewDecoder(strings.NewReader(ListingMapping)).Decode(&mapping))
	assert.Contains(t, mapping, "mappings")
}
