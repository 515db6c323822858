package httpapi

import (
	"net/http"

	"github.com/gorilla/websocket"

	"mysteria-backend-go/internal/services"
)

type MetricsHistoryResponse struct {
	Items []services.MetricSample `json:"items"`
}

func (s *Server) MetricsHistory(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 120)
	if limit < 1 || limit > 500 {
		limit = 120
	}
	items, err := services.LatestMetrics(s.DB, limit)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	WriteJSON(w, http.StatusOK, MetricsHistoryResponse{Items: items})
}

// MetricsSocket streams live samples to the admin dashboard. Browsers cannot
// set an Authorization header on a websocket, so the token rides the query
// string.
func (s *Server) MetricsSocket(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("token")
	if raw == "" {
		WriteError(w, http.StatusUnauthorized, "Authentication failed")
		return
	}
	token, claims, err := s.Tokens.ParseToken(raw)
	if err != nil || !token.Valid || claims["typ"] != "access" {
		WriteError(w, http.StatusUnauthorized, "Authentication failed")
		return
	}
	if !hasRole(claimRoles(claims), "ADMIN") {
		WriteError(w, http.StatusForbidden, "Not allowed")
		return
	}
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.MetricsHub.Add(conn)
	defer func() {
		s.MetricsHub.Remove(conn)
		_ = conn.Close()
	}()
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}
