package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jmylchreest/camerad/internal/config"
	"github.com/jmylchreest/camerad/internal/observability"
)

func TestRecovery_RecoversPanicAndReturns500(t *testing.T) {
	var buf bytes.Buffer
	logger := observability.NewLoggerWithWriter(config.LoggingConfig{Level: "info", Format: "json"}, &buf)

	handler := Recovery(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("camera backend exploded")
	}))

	req := httptest.NewRequest(http.MethodGet, "/cameras/1/stream", nil)
	rec := httptest.NewRecorder()

	assert.NotPanics(t, func() {
		handler.ServeHTTP(rec, req)
	})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, buf.String(), "panic recovered")
}

func TestRecovery_PassesThroughWhenNoPanic(t *testing.T) {
	var buf bytes.Buffer
	logger := observability.NewLoggerWithWriter(config.LoggingConfig{Level: "info", Format: "json"}, &buf)

	handler := Recovery(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/cameras", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, buf.String())
}
