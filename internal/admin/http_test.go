package admin

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/Roroz7/Miky-Vinted-discord-bot/pkg/types"
)

func newTestAPI(t *testing.T, fetcher *fakeFetcher) (*echo.Echo, *Service) {
	t.Helper()
	svc, _ := newTestService(t, fetcher)

	e := echo.New()
	NewHandler(svc).Register(e.Group("/api/v1"))
	return e, svc
}

func doJSON(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestHTTPAddSearch(t *testing.T) {
	t.Parallel()
	e, _ := newTestAPI(t, nil)

	rec := doJSON(e, http.MethodPost, "/api/v1/searches",
		`{"user_id":"u1","keyword":"levis 501","max_price":50}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created domain.Search
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, int64(1), created.ID)
	assert.True(t, created.Enabled)
}

func TestHTTPAddSearchValidation(t *testing.T) {
	t.Parallel()
	e, _ := newTestAPI(t, nil)

	rec := doJSON(e, http.MethodPost, "/api/v1/searches", `{"user_id":"u1"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHTTPRemoveSearch(t *testing.T) {
	t.Parallel()
	e, svc := newTestAPI(t, nil)

	_, err := svc.AddSearch(context.Background(),
		domain.Search{OwnerID: "u1", Keyword: "levis"})
	require.NoError(t, err)

	rec := doJSON(e, http.MethodDelete, "/api/v1/searches/1?owner=someone-else", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(e, http.MethodDelete, "/api/v1/searches/1?owner=u1", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	remaining, err := svc.UserSearches(context.Background(), "u1")
	require.NoError(t, err)
	assert.Empty(t, remaining)
}

func TestHTTPRemoveSearchBadID(t *testing.T) {
	t.Parallel()
	e, _ := newTestAPI(t, nil)

	rec := doJSON(e, http.MethodDelete, "/api/v1/searches/not-a-number?owner=u1", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHTTPSetEnabled(t *testing.T) {
	t.Parallel()
	e, svc := newTestAPI(t, nil)

	_, err := svc.AddSearch(context.Background(),
		domain.Search{OwnerID: "u1", Keyword: "levis"})
	require.NoError(t, err)

	rec := doJSON(e, http.MethodPatch, "/api/v1/searches/1/enabled",
		`{"owner":"u1","enabled":false}`)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(e, http.MethodPatch, "/api/v1/searches/1/enabled",
		`{"owner":"intruder","enabled":true}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHTTPTestSearch(t *testing.T) {
	t.Parallel()
	fetcher := &fakeFetcher{listings: []domain.Listing{{ID: "1"}, {ID: "2"}}}
	e, svc := newTestAPI(t, fetcher)

	_, err := svc.AddSearch(context.Background(),
		domain.Search{OwnerID: "u1", Keyword: "levis"})
	require.NoError(t, err)

	rec := doJSON(e, http.MethodPost, "/api/v1/searches/1/test?owner=u1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var listings []domain.Listing
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listings))
	assert.Len(t, listings, 2)
}

func TestHTTPUserSearches(t *testing.T) {
	t.Parallel()
	e, svc := newTestAPI(t, nil)

	_, err := svc.AddSearch(context.Background(),
		domain.Search{OwnerID: "u1", Keyword: "levis"})
	require.NoError(t, err)

	rec := doJSON(e, http.MethodGet, "/api/v1/users/u1/searches", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var searches []domain.Search
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &searches))
	assert.Len(t, searches, 1)
}

func TestHTTPSetInterval(t *testing.T) {
	t.Parallel()
	e, _ := newTestAPI(t, nil)

	rec := doJSON(e, http.MethodPut, "/api/v1/settings/interval", `{"seconds":10}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(e, http.MethodPut, "/api/v1/settings/interval", `{"seconds":300}`)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestHTTPSetChannelAndLanguage(t *testing.T) {
	t.Parallel()
	e, _ := newTestAPI(t, nil)

	rec := doJSON(e, http.MethodPut, "/api/v1/settings/channel", `{"channel_id":"chan-1"}`)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(e, http.MethodPut, "/api/v1/users/u1/language", `{"language":"en"}`)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestHTTPStats(t *testing.T) {
	t.Parallel()
	e, _ := newTestAPI(t, nil)

	rec := doJSON(e, http.MethodGet, "/api/v1/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "cycles_run")
}
