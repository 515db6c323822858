package httpapi

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"mysteria-backend-go/internal/models"
	"mysteria-backend-go/internal/services"
)

type ArticleListResponse struct {
	Items    []ArticleSummaryDTO `json:"items"`
	Total    int                 `json:"total"`
	Page     int                 `json:"page"`
	PageSize int                 `json:"pageSize"`
}

type SearchResponse struct {
	Items []ArticleSummaryDTO `json:"items"`
}

type TrackViewRequest struct {
	Fingerprint string `json:"fingerprint"`
}

type ArticleRequest struct {
	TitleEn           string  `json:"titleEn"`
	TitleSq           string  `json:"titleSq"`
	ContentEn         string  `json:"contentEn"`
	ContentSq         string  `json:"contentSq"`
	ExcerptEn         *string `json:"excerptEn"`
	ExcerptSq         *string `json:"excerptSq"`
	MetaTitleEn       *string `json:"metaTitleEn"`
	MetaTitleSq       *string `json:"metaTitleSq"`
	MetaDescriptionEn *string `json:"metaDescriptionEn"`
	MetaDescriptionSq *string `json:"metaDescriptionSq"`
	FeaturedImageURL  *string `json:"featuredImageUrl"`
	CategoryID        *string `json:"categoryId"`
	Published         bool    `json:"published"`
}

func (s *Server) PublicArticles(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1)
	pageSize := queryInt(r, "pageSize", 12)
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 50 {
		pageSize = 12
	}
	categorySlug := strings.TrimSpace(r.URL.Query().Get("category"))

	where := `published = TRUE`
	args := []interface{}{}
	if categorySlug != "" {
		where += ` AND category_id = (SELECT id FROM categories WHERE slug = $1)`
		args = append(args, categorySlug)
	}
	var total int
	if err := s.DB.Get(&total, `SELECT count(*) FROM articles WHERE `+where, args...); err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	limitPos := len(args) + 1
	args = append(args, pageSize, (page-1)*pageSize)
	rows := []models.Article{}
	err := s.DB.Select(&rows, `
SELECT * FROM articles
WHERE `+where+`
ORDER BY published_at DESC NULLS LAST, created_at DESC
LIMIT $`+strconv.Itoa(limitPos)+` OFFSET $`+strconv.Itoa(limitPos+1), args...)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	items := make([]ArticleSummaryDTO, 0, len(rows))
	for _, row := range rows {
		items = append(items, articleSummaryDTO(row))
	}
	WriteJSON(w, http.StatusOK, ArticleListResponse{Items: items, Total: total, Page: page, PageSize: pageSize})
}

func (s *Server) PublicArticleDetail(w http.ResponseWriter, r *http.Request) {
	slug := strings.TrimSpace(chi.URLParam(r, "slug"))
	article := models.Article{}
	err := s.DB.Get(&article, `SELECT * FROM articles WHERE slug = $1 AND published = TRUE`, slug)
	if errors.Is(err, sql.ErrNoRows) {
		WriteError(w, http.StatusNotFound, "Article not found")
		return
	}
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	WriteJSON(w, http.StatusOK, articleDetailDTO(article))
}

func (s *Server) TrackArticleView(w http.ResponseWriter, r *http.Request) {
	articleID, err := services.ValidateUUID(chi.URLParam(r, "articleId"), "Invalid article ID")
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	var req TrackViewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	if err := services.RecordView(s.DB, articleID, req.Fingerprint, ClientIP(r)); err != nil {
		WriteServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) PublicSearch(w http.ResponseWriter, r *http.Request) {
	term := services.CleanSearchTerm(r.URL.Query().Get("q"))
	if term == "" {
		WriteJSON(w, http.StatusOK, SearchResponse{Items: []ArticleSummaryDTO{}})
		return
	}
	rows, err := services.SearchPublished(s.DB, term, queryInt(r, "limit", 20))
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	items := make([]ArticleSummaryDTO, 0, len(rows))
	for _, row := range rows {
		items = append(items, articleSummaryDTO(row))
	}
	WriteJSON(w, http.StatusOK, SearchResponse{Items: items})
}

func (s *Server) AdminListArticles(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1)
	pageSize := queryInt(r, "pageSize", 20)
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	var total int
	if err := s.DB.Get(&total, `SELECT count(*) FROM articles`); err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	rows := []models.Article{}
	err := s.DB.Select(&rows, `
SELECT * FROM articles
ORDER BY created_at DESC
LIMIT $1 OFFSET $2
`, pageSize, (page-1)*pageSize)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	items := make([]ArticleSummaryDTO, 0, len(rows))
	for _, row := range rows {
		items = append(items, articleSummaryDTO(row))
	}
	WriteJSON(w, http.StatusOK, ArticleListResponse{Items: items, Total: total, Page: page, PageSize: pageSize})
}

func (s *Server) AdminCreateArticle(w http.ResponseWriter, r *http.Request) {
	var req ArticleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	if strings.TrimSpace(req.TitleEn) == "" || strings.TrimSpace(req.TitleSq) == "" ||
		strings.TrimSpace(req.ContentEn) == "" || strings.TrimSpace(req.ContentSq) == "" {
		WriteError(w, http.StatusBadRequest, "Title and content are required in both languages")
		return
	}
	slug, err := services.ResolveArticleSlug(s.DB, req.TitleEn)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	articleID := uuid.NewString()
	now := time.Now().UTC()
	var publishedAt *time.Time
	if req.Published {
		publishedAt = &now
	}
	readingTime := services.EstimateReadingTime(req.ContentEn, req.ContentSq)
	_, err = s.DB.Exec(`
INSERT INTO articles (id, title_en, title_sq, content_en, content_sq, excerpt_en, excerpt_sq,
  meta_title_en, meta_title_sq, meta_description_en, meta_description_sq, featured_image_url,
  slug, category_id, published, published_at, view_count, reading_time_minutes, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,0,$17,$18,$18)
`, articleID, req.TitleEn, req.TitleSq, req.ContentEn, req.ContentSq, req.ExcerptEn, req.ExcerptSq,
		req.MetaTitleEn, req.MetaTitleSq, req.MetaDescriptionEn, req.MetaDescriptionSq, req.FeaturedImageURL,
		slug, req.CategoryID, req.Published, publishedAt, readingTime, now)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	WriteJSON(w, http.StatusCreated, map[string]string{"id": articleID, "slug": slug})
}

func (s *Server) AdminUpdateArticle(w http.ResponseWriter, r *http.Request) {
	articleID, err := services.ValidateUUID(chi.URLParam(r, "articleId"), "Invalid article ID")
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	var req ArticleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	existing := struct {
		Published   bool       `db:"published"`
		PublishedAt *time.Time `db:"published_at"`
	}{}
	err = s.DB.Get(&existing, `SELECT published, published_at FROM articles WHERE id = $1`, articleID)
	if errors.Is(err, sql.ErrNoRows) {
		WriteError(w, http.StatusNotFound, "Article not found")
		return
	}
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	now := time.Now().UTC()
	publishedAt := existing.PublishedAt
	if req.Published && publishedAt == nil {
		publishedAt = &now
	}
	readingTime := services.EstimateReadingTime(req.ContentEn, req.ContentSq)
	_, err = s.DB.Exec(`
UPDATE articles
SET title_en = $2, title_sq = $3, content_en = $4, content_sq = $5,
    excerpt_en = $6, excerpt_sq = $7, meta_title_en = $8, meta_title_sq = $9,
    meta_description_en = $10, meta_description_sq = $11, featured_image_url = $12,
    category_id = $13, published = $14, published_at = $15, reading_time_minutes = $16, updated_at = $17
WHERE id = $1
`, articleID, req.TitleEn, req.TitleSq, req.ContentEn, req.ContentSq,
		req.ExcerptEn, req.ExcerptSq, req.MetaTitleEn, req.MetaTitleSq,
		req.MetaDescriptionEn, req.MetaDescriptionSq, req.FeaturedImageURL,
		req.CategoryID, req.Published, publishedAt, readingTime, now)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	WriteSuccess(w, "Article updated")
}

func (s *Server) AdminDeleteArticle(w http.ResponseWriter, r *http.Request) {
	articleID, err := services.ValidateUUID(chi.URLParam(r, "articleId"), "Invalid article ID")
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	result, err := s.DB.Exec(`DELETE FROM articles WHERE id = $1`, articleID)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if count, err := result.RowsAffected(); err == nil && count == 0 {
		WriteError(w, http.StatusNotFound, "Article not found")
		return
	}
	WriteSuccess(w, "Article deleted")
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
