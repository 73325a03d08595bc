package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sjsage522/rentcalc/internal/api/handlers"
	"sjsage522/rentcalc/internal/listing"
	"sjsage522/rentcalc/services/analysis"
)

type stubAnalyzer struct{}

func (stubAnalyzer) Analyze(_ context.Context, rawURL string) (*analysis.Result, error) {
	return &analysis.Result{URL: rawURL, Record: listing.PropertyRecord{Images: []string{}, Features: []string{}}}, nil
}

func newTestRouter(rps float64, burst int) http.Handler {
	h := handlers.NewPropertyHandler(stubAnalyzer{}, listing.DefaultRegistry())
	return NewRouter(h, Options{
		AllowedOrigin:     "http://localhost:8080",
		RequestsPerSecond: rps,
		RequestBurst:      burst,
	})
}

func TestRouter_Routes(t *testing.T) {
	router := newTestRouter(100, 100)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	body := strings.NewReader(`{"url":"https://www.privateproperty.co.za/for-sale/T1"}`)
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/property/calculate", body))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/property/calculate", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_RequestID(t *testing.T) {
	router := newTestRouter(100, 100)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	_, err := uuid.Parse(rec.Header().Get(RequestIDHeader))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
}

func TestRouter_CORS(t *testing.T) {
	router := newTestRouter(100, 100)

	req := httptest.NewRequest(http.MethodOptions, "/property/calculate", nil)
	req.Header.Set("Origin", "http://localhost:8080")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:8080", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "POST")

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouter_RateLimit(t *testing.T) {
	router := newTestRouter(0.001, 2)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		codes = append(codes, rec.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}
