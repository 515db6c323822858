package services

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"mysteria-backend-go/internal/models"
)

const readingWordsPerMinute = 200

// ResolveArticleSlug derives a unique slug from a title, suffixing -2, -3, ...
// on collision.
func ResolveArticleSlug(db *sqlx.DB, title string) (string, error) {
	base := Slugify(title)
	candidate := base
	counter := 2
	for {
		var exists bool
		err := db.Get(&exists, `SELECT EXISTS(SELECT 1 FROM articles WHERE slug = $1)`, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
		candidate = base + "-" + strconv.Itoa(counter)
		counter++
	}
}

func ResolveCategorySlug(db *sqlx.DB, name string) (string, error) {
	base := Slugify(name)
	candidate := base
	counter := 2
	for {
		var exists bool
		err := db.Get(&exists, `SELECT EXISTS(SELECT 1 FROM categories WHERE slug = $1)`, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
		candidate = base + "-" + strconv.Itoa(counter)
		counter++
	}
}

// EstimateReadingTime derives minutes from the longer language variant.
func EstimateReadingTime(contentEn, contentSq string) int {
	words := len(strings.Fields(contentEn))
	if sq := len(strings.Fields(contentSq)); sq > words {
		words = sq
	}
	minutes := (words + readingWordsPerMinute - 1) / readingWordsPerMinute
	if minutes < 1 {
		minutes = 1
	}
	return minutes
}

// RecordView counts a read once per device fingerprint: the insert is a
// no-op on a repeat fingerprint and the counter bump is a single atomic
// statement, so concurrent reads cannot lose an update.
func RecordView(db *sqlx.DB, articleID, fingerprint, clientIP string) error {
	fingerprint = strings.TrimSpace(fingerprint)
	if fingerprint == "" {
		return ErrBadRequest("Missing fingerprint")
	}
	var ip *string
	if value := strings.TrimSpace(clientIP); value != "" {
		ip = &value
	}
	result, err := db.Exec(`
INSERT INTO article_views (id, article_id, fingerprint, ip_address, viewed_at)
VALUES ($1,$2,$3,$4,$5)
ON CONFLICT (article_id, fingerprint) DO NOTHING
`, uuid.NewString(), articleID, fingerprint, ip, time.Now().UTC())
	if err != nil {
		return WrapError(err, "record view")
	}
	inserted, err := result.RowsAffected()
	if err != nil || inserted == 0 {
		return nil
	}
	_, err = db.Exec(`UPDATE articles SET view_count = view_count + 1 WHERE id = $1`, articleID)
	return WrapError(err, "increment view count")
}

// SearchPublished runs a simple ILIKE search over published articles.
func SearchPublished(db *sqlx.DB, term string, limit int) ([]models.Article, error) {
	if limit <= 0 || limit > 50 {
		limit = 20
	}
	like := "%" + strings.ToLower(CleanSearchTerm(term)) + "%"
	rows := []models.Article{}
	err := db.Select(&rows, `
SELECT * FROM articles
WHERE published = TRUE
  AND (lower(title_en) LIKE $1 OR lower(title_sq) LIKE $1
    OR lower(coalesce(excerpt_en, '')) LIKE $1 OR lower(coalesce(excerpt_sq, '')) LIKE $1)
ORDER BY published_at DESC
LIMIT $2
`, like, limit)
	if err != nil {
		return nil, WrapError(err, "search articles")
	}
	return rows, nil
}
