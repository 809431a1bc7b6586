package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func gzipStandIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Compressed", "true")
		next.ServeHTTP(w, r)
	})
}

func TestSkipCompressionForSSE_SkipsOnEventStreamAccept(t *testing.T) {
	handler := SkipCompressionForSSE(gzipStandIn)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/progress/1/events", nil)
	req.Header.Set("Accept", "text/event-stream")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Empty(t, rec.Header().Get("X-Compressed"))
}

func TestSkipCompressionForSSE_SkipsOnProgressEventsPath(t *testing.T) {
	handler := SkipCompressionForSSE(gzipStandIn)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/progress/42/events", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Empty(t, rec.Header().Get("X-Compressed"))
}

func TestSkipCompressionForSSE_CompressesOtherRequests(t *testing.T) {
	handler := SkipCompressionForSSE(gzipStandIn)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/cameras", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, "true", rec.Header().Get("X-Compressed"))
}
