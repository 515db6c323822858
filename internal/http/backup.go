package httpapi

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
)

type BackupResponse struct {
	FileName string   `json:"fileName"`
	Tables   []string `json:"tables"`
}

type RestoreRequest struct {
	FileName string `json:"fileName"`
}

type RestoreResponse struct {
	Restored []string `json:"restored"`
}

func (s *Server) RunBackup(w http.ResponseWriter, r *http.Request) {
	if s.Backups == nil {
		WriteError(w, http.StatusServiceUnavailable, "Backups are not configured")
		return
	}
	fileName, tables, err := s.Backups.Run(r.Context())
	if err != nil {
		log.Printf("database backup: %v", err)
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, BackupResponse{FileName: fileName, Tables: tables})
}

func (s *Server) RestoreBackup(w http.ResponseWriter, r *http.Request) {
	if s.Backups == nil {
		WriteError(w, http.StatusServiceUnavailable, "Backups are not configured")
		return
	}
	var req RestoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	fileName := strings.TrimSpace(req.FileName)
	if fileName == "" || strings.Contains(fileName, "/") {
		WriteError(w, http.StatusBadRequest, "Invalid backup file name")
		return
	}
	restored, err := s.Backups.Restore(r.Context(), fileName)
	if err != nil {
		log.Printf("database restore %s: %v", fileName, err)
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, RestoreResponse{Restored: restored})
}
