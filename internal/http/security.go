package httpapi

import (
	"crypto/subtle"
	"encoding/json"
	"log"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"mysteria-backend-go/internal/models"
	"mysteria-backend-go/internal/services"
)

type AdminIPResponse struct {
	Allowed bool   `json:"allowed"`
	IP      string `json:"ip"`
	Message string `json:"message,omitempty"`
}

type WhitelistRequest struct {
	IPAddress   string  `json:"ipAddress"`
	Description *string `json:"description"`
	IsActive    *bool   `json:"isActive"`
}

type WhitelistListResponse struct {
	Items []WhitelistEntryDTO `json:"items"`
}

// CheckAdminIP tells the admin UI whether to render the login form at all.
// The login endpoint re-checks server side, so this is advisory only.
func (s *Server) CheckAdminIP(w http.ResponseWriter, r *http.Request) {
	ip := ClientIP(r)
	allowed, err := services.IsIPWhitelisted(s.DB, ip)
	if err != nil {
		log.Printf("ip allowlist lookup for %s: %v", ip, err)
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	resp := AdminIPResponse{Allowed: allowed, IP: ip}
	if !allowed {
		resp.Message = "Your IP address is not authorized to access the admin panel."
	}
	WriteJSON(w, http.StatusOK, resp)
}

func (s *Server) AdminListWhitelist(w http.ResponseWriter, r *http.Request) {
	rows := []models.WhitelistedIP{}
	if err := s.DB.Select(&rows, `SELECT * FROM whitelisted_ips ORDER BY created_at DESC`); err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	items := make([]WhitelistEntryDTO, 0, len(rows))
	for _, row := range rows {
		items = append(items, whitelistEntryDTO(row))
	}
	WriteJSON(w, http.StatusOK, WhitelistListResponse{Items: items})
}

func (s *Server) AdminAddWhitelistIP(w http.ResponseWriter, r *http.Request) {
	var req WhitelistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	entry := strings.TrimSpace(req.IPAddress)
	if !validAllowlistEntry(entry) {
		WriteError(w, http.StatusBadRequest, "Invalid IP address or CIDR range")
		return
	}
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	entryID := uuid.NewString()
	_, err := s.DB.Exec(`
INSERT INTO whitelisted_ips (id, ip_address, description, is_active, created_at)
VALUES ($1,$2,$3,$4,$5)
`, entryID, entry, req.Description, active, time.Now().UTC())
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	WriteJSON(w, http.StatusCreated, map[string]string{"id": entryID})
}

func (s *Server) AdminRemoveWhitelistIP(w http.ResponseWriter, r *http.Request) {
	entryID, err := services.ValidateUUID(chi.URLParam(r, "entryId"), "Invalid entry ID")
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	result, err := s.DB.Exec(`DELETE FROM whitelisted_ips WHERE id = $1`, entryID)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if count, err := result.RowsAffected(); err == nil && count == 0 {
		WriteError(w, http.StatusNotFound, "Entry not found")
		return
	}
	WriteSuccess(w, "Entry removed")
}

// RequireServiceKey protects machine-to-machine endpoints with a shared
// secret compared in constant time.
func (s *Server) RequireServiceKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := s.Config.ServiceKey
		if key == "" {
			WriteError(w, http.StatusInternalServerError, "Server configuration error")
			return
		}
		provided := r.Header.Get("X-Service-Key")
		if subtle.ConstantTimeCompare([]byte(provided), []byte(key)) != 1 {
			WriteError(w, http.StatusUnauthorized, "Authentication failed")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func validAllowlistEntry(entry string) bool {
	if entry == "" {
		return false
	}
	if strings.Contains(entry, "/") {
		_, _, err := net.ParseCIDR(entry)
		return err == nil
	}
	return net.ParseIP(entry) != nil
}
