package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mysteria-backend-go/internal/services"
)

func testTokens() services.TokenService {
	return services.TokenService{
		Secret:     []byte("test-secret"),
		Issuer:     "mysteria",
		AccessTTL:  time.Hour,
		RefreshTTL: 24 * time.Hour,
	}
}

func protectedProbe(tokens services.TokenService) http.Handler {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	return WithAuth(tokens)(RequireRole("ADMIN")(next))
}

func TestWithAuthRejectsMissingOrBadToken(t *testing.T) {
	handler := protectedProbe(testTokens())

	r := httptest.NewRequest("GET", "/api/admin/articles", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	r = httptest.NewRequest("GET", "/api/admin/articles", nil)
	r.Header.Set("Authorization", "Bearer not-a-jwt")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestWithAuthRejectsRefreshTokenOnAccessRoute(t *testing.T) {
	tokens := testTokens()
	refresh, err := tokens.CreateRefreshToken("user-1")
	require.NoError(t, err)

	r := httptest.NewRequest("GET", "/api/admin/articles", nil)
	r.Header.Set("Authorization", "Bearer "+refresh)
	w := httptest.NewRecorder()
	protectedProbe(tokens).ServeHTTP(w, r)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireRoleBlocksNonAdmins(t *testing.T) {
	tokens := testTokens()
	access, _, err := tokens.CreateAccessToken("user-1", "reader@example.com", []string{"EDITOR"})
	require.NoError(t, err)

	r := httptest.NewRequest("GET", "/api/admin/articles", nil)
	r.Header.Set("Authorization", "Bearer "+access)
	w := httptest.NewRecorder()
	protectedProbe(tokens).ServeHTTP(w, r)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequireRoleAllowsAdmin(t *testing.T) {
	tokens := testTokens()
	access, _, err := tokens.CreateAccessToken("user-1", "admin@example.com", []string{"ADMIN"})
	require.NoError(t, err)

	r := httptest.NewRequest("GET", "/api/admin/articles", nil)
	r.Header.Set("Authorization", "Bearer "+access)
	w := httptest.NewRecorder()
	protectedProbe(tokens).ServeHTTP(w, r)
	assert.Equal(t, http.StatusNoContent, w.Code)
}
