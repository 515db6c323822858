package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"mysteria-backend-go/internal/models"
	"mysteria-backend-go/internal/services"
)

type CategoryListResponse struct {
	Items []CategoryDTO `json:"items"`
}

type CategoryRequest struct {
	NameEn        string  `json:"nameEn"`
	NameSq        string  `json:"nameSq"`
	DescriptionEn *string `json:"descriptionEn"`
	DescriptionSq *string `json:"descriptionSq"`
}

func (s *Server) PublicCategories(w http.ResponseWriter, r *http.Request) {
	rows := []models.Category{}
	if err := s.DB.Select(&rows, `SELECT * FROM categories ORDER BY name_en ASC`); err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	items := make([]CategoryDTO, 0, len(rows))
	for _, row := range rows {
		items = append(items, categoryDTO(row))
	}
	WriteJSON(w, http.StatusOK, CategoryListResponse{Items: items})
}

func (s *Server) AdminCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req CategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	if strings.TrimSpace(req.NameEn) == "" || strings.TrimSpace(req.NameSq) == "" {
		WriteError(w, http.StatusBadRequest, "Name is required in both languages")
		return
	}
	slug, err := services.ResolveCategorySlug(s.DB, req.NameEn)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	categoryID := uuid.NewString()
	_, err = s.DB.Exec(`
INSERT INTO categories (id, name_en, name_sq, description_en, description_sq, slug, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
`, categoryID, req.NameEn, req.NameSq, req.DescriptionEn, req.DescriptionSq, slug, time.Now().UTC())
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	WriteJSON(w, http.StatusCreated, map[string]string{"id": categoryID, "slug": slug})
}

func (s *Server) AdminUpdateCategory(w http.ResponseWriter, r *http.Request) {
	categoryID, err := services.ValidateUUID(chi.URLParam(r, "categoryId"), "Invalid category ID")
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	var req CategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	result, err := s.DB.Exec(`
UPDATE categories
SET name_en = $2, name_sq = $3, description_en = $4, description_sq = $5
WHERE id = $1
`, categoryID, req.NameEn, req.NameSq, req.DescriptionEn, req.DescriptionSq)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if count, err := result.RowsAffected(); err == nil && count == 0 {
		WriteError(w, http.StatusNotFound, "Category not found")
		return
	}
	WriteSuccess(w, "Category updated")
}

func (s *Server) AdminDeleteCategory(w http.ResponseWriter, r *http.Request) {
	categoryID, err := services.ValidateUUID(chi.URLParam(r, "categoryId"), "Invalid category ID")
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	var used bool
	if err := s.DB.Get(&used, `SELECT EXISTS(SELECT 1 FROM articles WHERE category_id = $1)`, categoryID); err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if used {
		WriteError(w, http.StatusBadRequest, "Category still has articles")
		return
	}
	result, err := s.DB.Exec(`DELETE FROM categories WHERE id = $1`, categoryID)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if count, err := result.RowsAffected(); err == nil && count == 0 {
		WriteError(w, http.StatusNotFound, "Category not found")
		return
	}
	WriteSuccess(w, "Category deleted")
}
