package httpapi

import (
	"context"
	"net/http"
	"strings"

	"mysteria-backend-go/internal/services"
)

type contextKey string

const (
	ctxUserID contextKey = "userID"
	ctxEmail  contextKey = "email"
	ctxRoles  contextKey = "roles"
)

func WithAuth(tokenService services.TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			if auth == "" || !strings.HasPrefix(auth, "Bearer ") {
				WriteError(w, http.StatusUnauthorized, "Authentication failed")
				return
			}
			tokenStr := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
			token, claims, err := tokenService.ParseToken(tokenStr)
			if err != nil || !token.Valid || claims["typ"] != "access" {
				WriteError(w, http.StatusUnauthorized, "Authentication failed")
				return
			}
			userID, _ := claims["sub"].(string)
			email, _ := claims["email"].(string)
			ctx := context.WithValue(r.Context(), ctxUserID, userID)
			ctx = context.WithValue(ctx, ctxEmail, email)
			ctx = context.WithValue(ctx, ctxRoles, claimRoles(claims))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func claimRoles(claims map[string]interface{}) []string {
	roles := []string{}
	if rawRoles, ok := claims["roles"].([]interface{}); ok {
		for _, raw := range rawRoles {
			if role, ok := raw.(string); ok {
				roles = append(roles, role)
			}
		}
	}
	return roles
}

func CurrentUserID(r *http.Request) string {
	if value, ok := r.Context().Value(ctxUserID).(string); ok {
		return value
	}
	return ""
}

func CurrentRoles(r *http.Request) []string {
	if value, ok := r.Context().Value(ctxRoles).([]string); ok {
		return value
	}
	return nil
}

func RequireRole(role string) func(http.Handler) http.Handler {
	role = strings.ToUpper(role)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if hasRole(CurrentRoles(r), role) {
				next.ServeHTTP(w, r)
				return
			}
			WriteError(w, http.StatusForbidden, "Not allowed")
		})
	}
}

func hasRole(roles []string, wanted string) bool {
	for _, role := range roles {
		if strings.EqualFold(role, wanted) {
			return true
		}
	}
	return false
}
