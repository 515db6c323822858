package httpapi

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"mysteria-backend-go/internal/services"
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type TokenResponse struct {
	AccessToken  string   `json:"accessToken"`
	RefreshToken string   `json:"refreshToken"`
	ExpiresAt    int64    `json:"expiresAt"`
	Email        string   `json:"email"`
	Roles        []string `json:"roles"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// Login authenticates an admin. The caller IP must be on the allowlist before
// credentials are even looked at, and repeated failures from one IP trip the
// attempt counter.
func (s *Server) Login(w http.ResponseWriter, r *http.Request) {
	ip := ClientIP(r)
	allowed, err := services.IsIPWhitelisted(s.DB, ip)
	if err != nil {
		log.Printf("ip allowlist lookup for %s: %v", ip, err)
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if !allowed {
		WriteError(w, http.StatusForbidden, "Access denied")
		return
	}
	ok, err := s.Guard.Allow(r.Context(), ip)
	if err != nil {
		log.Printf("login guard for %s: %v", ip, err)
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if !ok {
		WriteError(w, http.StatusTooManyRequests, "Too many login attempts. Please try again later.")
		return
	}

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || strings.TrimSpace(req.Password) == "" {
		WriteError(w, http.StatusBadRequest, "Authentication failed")
		return
	}
	row := struct {
		ID           string `db:"id"`
		PasswordHash string `db:"password_hash"`
		Status       string `db:"status"`
	}{}
	if err := s.DB.Get(&row, `SELECT id, password_hash, status FROM users WHERE lower(email) = $1`, email); err != nil {
		_ = s.Guard.RecordFailure(r.Context(), ip)
		WriteError(w, http.StatusUnauthorized, "Authentication failed")
		return
	}
	if row.Status != "ACTIVE" {
		_ = s.Guard.RecordFailure(r.Context(), ip)
		WriteError(w, http.StatusForbidden, "Authentication failed")
		return
	}
	if !s.Tokens.VerifyPassword(req.Password, row.PasswordHash) {
		_ = s.Guard.RecordFailure(r.Context(), ip)
		WriteError(w, http.StatusUnauthorized, "Authentication failed")
		return
	}
	_ = s.Guard.Reset(r.Context(), ip)

	roles := []string{}
	_ = s.DB.Select(&roles, `
SELECT r.code FROM roles r
JOIN user_roles ur ON ur.role_id = r.id
WHERE ur.user_id = $1
ORDER BY r.code
`, row.ID)
	access, exp, err := s.Tokens.CreateAccessToken(row.ID, email, roles)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	refresh, err := s.Tokens.CreateRefreshToken(row.ID)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	_, _ = s.DB.Exec(`UPDATE users SET last_login_at = now() WHERE id = $1`, row.ID)
	WriteJSON(w, http.StatusOK, TokenResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    exp,
		Email:        email,
		Roles:        roles,
	})
}

func (s *Server) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Authentication failed")
		return
	}
	token, claims, err := s.Tokens.ParseToken(req.RefreshToken)
	if err != nil || !token.Valid || claims["typ"] != "refresh" {
		WriteError(w, http.StatusUnauthorized, "Authentication failed")
		return
	}
	userID, _ := claims["sub"].(string)
	if userID == "" {
		WriteError(w, http.StatusUnauthorized, "Authentication failed")
		return
	}
	var email string
	if err := s.DB.Get(&email, `SELECT email FROM users WHERE id = $1 AND status = 'ACTIVE'`, userID); err != nil {
		WriteError(w, http.StatusUnauthorized, "Authentication failed")
		return
	}
	roles := []string{}
	_ = s.DB.Select(&roles, `
SELECT r.code FROM roles r
JOIN user_roles ur ON ur.role_id = r.id
WHERE ur.user_id = $1
ORDER BY r.code
`, userID)
	access, exp, err := s.Tokens.CreateAccessToken(userID, email, roles)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	refresh, err := s.Tokens.CreateRefreshToken(userID)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	WriteJSON(w, http.StatusOK, TokenResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    exp,
		Email:        email,
		Roles:        roles,
	})
}

func (s *Server) Logout(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
