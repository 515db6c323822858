package services

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// EnsureAdminUser creates the initial admin account from the environment on
// first boot. A no-op when the email already exists or no credentials are
// configured; existing passwords are never overwritten from the environment.
func EnsureAdminUser(db *sqlx.DB, tokens TokenService, email, password string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || strings.TrimSpace(password) == "" {
		return nil
	}
	var exists bool
	if err := db.Get(&exists, `SELECT EXISTS(SELECT 1 FROM users WHERE lower(email) = $1)`, email); err != nil {
		return WrapError(err, "look up admin user")
	}
	if exists {
		return nil
	}
	hash, err := tokens.HashPassword(password)
	if err != nil {
		return WrapError(err, "hash admin password")
	}
	userID := uuid.NewString()
	now := time.Now().UTC()
	if _, err := db.Exec(`
INSERT INTO users (id, email, password_hash, status, created_at, updated_at)
VALUES ($1,$2,$3,'ACTIVE',$4,$4)
`, userID, email, hash, now); err != nil {
		return WrapError(err, "create admin user")
	}
	var roleID string
	if err := db.Get(&roleID, `SELECT id FROM roles WHERE code = 'ADMIN'`); err != nil {
		return WrapError(err, "look up admin role")
	}
	_, err = db.Exec(`INSERT INTO user_roles (id, user_id, role_id, assigned_at) VALUES ($1,$2,$3,$4)`,
		uuid.NewString(), userID, roleID, now)
	return WrapError(err, "assign admin role")
}
