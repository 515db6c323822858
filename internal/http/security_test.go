package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"mysteria-backend-go/internal/config"
)

func TestRequireServiceKey(t *testing.T) {
	server := &Server{Config: config.Config{ServiceKey: "shared-secret"}}
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	handler := server.RequireServiceKey(next)

	r := httptest.NewRequest("POST", "/api/service/database-backup", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	assert.Equal(t, http.StatusUnauthorized, w.Code, "missing key")

	r = httptest.NewRequest("POST", "/api/service/database-backup", nil)
	r.Header.Set("X-Service-Key", "wrong")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	r = httptest.NewRequest("POST", "/api/service/database-backup", nil)
	r.Header.Set("X-Service-Key", "shared-secret")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestRequireServiceKeyUnconfigured(t *testing.T) {
	server := &Server{Config: config.Config{}}
	handler := server.RequireServiceKey(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next handler must not run")
	}))

	r := httptest.NewRequest("POST", "/api/service/database-backup", nil)
	r.Header.Set("X-Service-Key", "anything")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestValidAllowlistEntry(t *testing.T) {
	assert.True(t, validAllowlistEntry("203.0.113.10"))
	assert.True(t, validAllowlistEntry("10.0.0.0/8"))
	assert.True(t, validAllowlistEntry("2001:db8::1"))
	assert.False(t, validAllowlistEntry("not-an-ip"))
	assert.False(t, validAllowlistEntry("10.0.0.0/99"))
	assert.False(t, validAllowlistEntry(""))
}
