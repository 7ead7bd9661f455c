package google

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(StaticToken("test-token"),
		WithSheetsBaseURL(srv.URL+"/sheets"),
		WithDocsBaseURL(srv.URL+"/docs/"),
		WithRateLimit(0),
	)
}

func TestSheetValues_Success(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/sheets/spreadsheets/sheet-1/values/'Trips 2026'", r.URL.Path)
		assert.Equal(t, "FORMATTED_VALUE", r.URL.Query().Get("valueRenderOption"))
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"range":"'Trips 2026'!A1:C4","majorDimension":"ROWS","values":[["Trip_ID","Client_ID"],["Trip","Client"],["T1","C1"]]}`))
	})

	rows, err := c.SheetValues(context.Background(), "sheet-1", "Trips 2026")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"T1", "C1"}, rows[2])
}

func TestSheetValues_MissingSheet(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":400,"message":"Unable to parse range: 'Payments'","status":"INVALID_ARGUMENT"}}`))
	})

	_, err := c.SheetValues(context.Background(), "sheet-1", "Payments")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRangeNotFound)
}

func TestSheetValues_QuoteInName(t *testing.T) {
	assert.Equal(t, "'O''Brien'", sheetRange("O'Brien"))
}

func TestSheetTitles(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sheets/spreadsheets/sheet-1", r.URL.Path)
		assert.Equal(t, "sheets.properties.title", r.URL.Query().Get("fields"))
		_, _ = w.Write([]byte(`{"sheets":[{"properties":{"title":"Trips"}},{"properties":{"title":"Profile"}}]}`))
	})

	titles, err := c.SheetTitles(context.Background(), "sheet-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"Trips", "Profile"}, titles)
}

func TestGetDocument(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/docs/documents/doc-1", r.URL.Path)
		_, _ = w.Write([]byte(`{"documentId":"doc-1","title":"Export","body":{"content":[{"endIndex":1},{"startIndex":1,"endIndex":42}]}}`))
	})

	doc, err := c.GetDocument(context.Background(), "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "doc-1", doc.DocumentID)
	assert.Equal(t, int64(42), doc.EndIndex())
}

func TestCreateDocument(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/docs/documents", r.URL.Path)
		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Trip T1", body["title"])
		_, _ = w.Write([]byte(`{"documentId":"new-doc","title":"Trip T1"}`))
	})

	doc, err := c.CreateDocument(context.Background(), "Trip T1")
	require.NoError(t, err)
	assert.Equal(t, "new-doc", doc.DocumentID)
}

func TestBatchUpdateDocument(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/docs/documents/doc-1:batchUpdate", r.URL.Path)
		var body struct {
			Requests []map[string]any `json:"requests"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if assert.Len(t, body.Requests, 2) {
			assert.Contains(t, body.Requests[0], "deleteContentRange")
			assert.Contains(t, body.Requests[1], "insertText")
		}
		_, _ = w.Write([]byte(`{}`))
	})

	err := c.BatchUpdateDocument(context.Background(), "doc-1", ReplaceBodyRequests(10, "{}"))
	require.NoError(t, err)
}

func TestDo_NotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := c.GetDocument(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDo_APIError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":"permission denied"}`))
	})

	_, err := c.SheetValues(context.Background(), "sheet-1", "Trips")
	require.Error(t, err)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
	assert.Contains(t, err.Error(), "403")
}

func TestDo_ContextCanceled(t *testing.T) {
	c := newTestClient(t, func(_ http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.SheetValues(ctx, "sheet-1", "Trips")
	assert.Error(t, err)
}
