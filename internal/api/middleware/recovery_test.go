package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"

	"github.com/mcoot/roomserver/internal/testutil"
)

func TestRecoveryLogsRouteAndWritesJSON(t *testing.T) {
	logger, logs := testutil.CaptureLogger()

	r := mux.NewRouter()
	r.Use(Recovery(logger))
	r.HandleFunc("/api/v1/rooms/{id}", func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/rooms/12", nil))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "application/json")
	assert.Contains(t, rr.Body.String(), "INTERNAL_ERROR")
	assert.Contains(t, logs.String(), `"route":"/api/v1/rooms/{id}"`)
	assert.Contains(t, logs.String(), `"path":"/api/v1/rooms/12"`)
}
