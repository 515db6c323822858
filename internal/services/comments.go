package services

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"mysteria-backend-go/internal/models"
)

const verificationTTL = 24 * time.Hour

// CommentService carries the comment intake and verification pipeline.
type CommentService struct {
	DB          *sqlx.DB
	Deliverable DeliverabilityChecker
	Mailer      EmailSender
	BaseURL     string
	// AutoApprove switches to the legacy flow that publishes immediately
	// after the deliverability check, with no verification email.
	AutoApprove bool
}

type CommentSubmission struct {
	ArticleID       string
	ParentCommentID string
	Name            string
	Email           string
	Content         string
}

// Submit validates, sanitizes and stores a comment. All input checks run
// before any database or provider round-trip. On success exactly one
// transactional email is sent (none in auto-approve mode).
func (s *CommentService) Submit(ctx context.Context, sub CommentSubmission) (string, error) {
	if strings.TrimSpace(sub.ArticleID) == "" || strings.TrimSpace(sub.Email) == "" ||
		strings.TrimSpace(sub.Name) == "" || strings.TrimSpace(sub.Content) == "" {
		return "", ErrBadRequest("Missing required fields")
	}
	email, err := ValidateEmail(sub.Email)
	if err != nil {
		return "", err
	}
	name, err := ValidateName(sub.Name)
	if err != nil {
		return "", err
	}
	content, err := ValidateContent(sub.Content)
	if err != nil {
		return "", err
	}
	articleID, err := ValidateUUID(sub.ArticleID, "Invalid article ID")
	if err != nil {
		return "", err
	}
	var parentID *string
	if strings.TrimSpace(sub.ParentCommentID) != "" {
		id, err := ValidateUUID(sub.ParentCommentID, "Invalid parent comment ID")
		if err != nil {
			return "", err
		}
		parentID = &id
	}

	var published bool
	err = s.DB.Get(&published, `SELECT published FROM articles WHERE id = $1`, articleID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrBadRequest("Article not found")
	}
	if err != nil {
		return "", WrapError(err, "look up article")
	}
	if !published {
		return "", ErrBadRequest("Article not found")
	}
	if parentID != nil {
		var parentArticle string
		err = s.DB.Get(&parentArticle, `SELECT article_id FROM comments WHERE id = $1`, *parentID)
		if errors.Is(err, sql.ErrNoRows) || (err == nil && parentArticle != articleID) {
			return "", ErrBadRequest("Invalid parent comment ID")
		}
		if err != nil {
			return "", WrapError(err, "look up parent comment")
		}
	}

	if err := s.Deliverable.Check(ctx, email); err != nil {
		return "", err
	}

	commentID := uuid.NewString()
	now := time.Now().UTC()
	if s.AutoApprove {
		_, err = s.DB.Exec(`
INSERT INTO comments (id, article_id, parent_comment_id, name, email, content,
  verification_token, verification_expires_at, is_email_verified, is_approved, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,NULL,NULL,TRUE,TRUE,$7,$7)
`, commentID, articleID, parentID, name, email, content, now)
		if err != nil {
			return "", WrapError(err, "insert comment")
		}
		if err := RecordApprovedComment(s.DB, email, name, parentID != nil); err != nil {
			log.Printf("reputation update for %s: %v", email, err)
		}
		return commentID, nil
	}

	token := uuid.NewString()
	expires := now.Add(verificationTTL)
	_, err = s.DB.Exec(`
INSERT INTO comments (id, article_id, parent_comment_id, name, email, content,
  verification_token, verification_expires_at, is_email_verified, is_approved, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,FALSE,FALSE,$9,$9)
`, commentID, articleID, parentID, name, email, content, token, expires, now)
	if err != nil {
		return "", WrapError(err, "insert comment")
	}
	subject, body := VerificationEmail(s.BaseURL, token)
	if err := s.Mailer.Send(ctx, email, subject, body); err != nil {
		return "", WrapError(err, "send verification email")
	}
	return commentID, nil
}

// VerifyToken consumes a single-use verification token: the comment flips to
// verified+approved and the token is cleared, so a second call with the same
// token cannot find a row.
func (s *CommentService) VerifyToken(ctx context.Context, token string) error {
	if strings.TrimSpace(token) == "" {
		return ErrBadRequest("The verification link is missing required parameters.")
	}
	row := struct {
		ID        string     `db:"id"`
		Name      string     `db:"name"`
		Email     string     `db:"email"`
		ParentID  *string    `db:"parent_comment_id"`
		ExpiresAt *time.Time `db:"verification_expires_at"`
	}{}
	err := s.DB.Get(&row, `
SELECT id, name, email, parent_comment_id, verification_expires_at
FROM comments WHERE verification_token = $1
`, token)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound("This verification link is invalid or has already been used.")
	}
	if err != nil {
		return WrapError(err, "look up verification token")
	}
	if row.ExpiresAt == nil || row.ExpiresAt.Before(time.Now().UTC()) {
		return ErrBadRequest("This verification link has expired. Please submit your comment again.")
	}
	_, err = s.DB.Exec(`
UPDATE comments
SET is_email_verified = TRUE, is_approved = TRUE,
    verification_token = NULL, verification_expires_at = NULL, updated_at = $2
WHERE id = $1
`, row.ID, time.Now().UTC())
	if err != nil {
		return WrapError(err, "verify comment")
	}
	if err := RecordApprovedComment(s.DB, row.Email, row.Name, row.ParentID != nil); err != nil {
		log.Printf("reputation update for %s: %v", row.Email, err)
	}
	return nil
}

// Approve is the admin moderation path for comments still pending.
func (s *CommentService) Approve(ctx context.Context, commentID string) error {
	row := struct {
		Name     string  `db:"name"`
		Email    string  `db:"email"`
		ParentID *string `db:"parent_comment_id"`
		Approved bool    `db:"is_approved"`
	}{}
	err := s.DB.Get(&row, `SELECT name, email, parent_comment_id, is_approved FROM comments WHERE id = $1`, commentID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound("Comment not found")
	}
	if err != nil {
		return WrapError(err, "look up comment")
	}
	if row.Approved {
		return nil
	}
	_, err = s.DB.Exec(`
UPDATE comments
SET is_approved = TRUE, verification_token = NULL, verification_expires_at = NULL, updated_at = $2
WHERE id = $1
`, commentID, time.Now().UTC())
	if err != nil {
		return WrapError(err, "approve comment")
	}
	if err := RecordApprovedComment(s.DB, row.Email, row.Name, row.ParentID != nil); err != nil {
		log.Printf("reputation update for %s: %v", row.Email, err)
	}
	return nil
}

func (s *CommentService) Delete(ctx context.Context, commentID string) error {
	result, err := s.DB.Exec(`DELETE FROM comments WHERE id = $1`, commentID)
	if err != nil {
		return WrapError(err, "delete comment")
	}
	if count, err := result.RowsAffected(); err == nil && count == 0 {
		return ErrNotFound("Comment not found")
	}
	return nil
}

// ApprovedForArticle returns the approved thread for an article: top-level
// comments in order with one level of replies attached.
func (s *CommentService) ApprovedForArticle(articleID string) ([]models.Comment, error) {
	rows := []models.Comment{}
	err := s.DB.Select(&rows, `
SELECT * FROM comments
WHERE article_id = $1 AND is_approved = TRUE
ORDER BY created_at ASC
`, articleID)
	if err != nil {
		return nil, WrapError(err, "load comments")
	}
	return rows, nil
}

// Pending lists comments awaiting moderation, oldest first.
func (s *CommentService) Pending(limit int) ([]models.Comment, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows := []models.Comment{}
	err := s.DB.Select(&rows, `
SELECT * FROM comments
WHERE is_approved = FALSE
ORDER BY created_at ASC
LIMIT $1
`, limit)
	if err != nil {
		return nil, WrapError(err, "load pending comments")
	}
	return rows, nil
}
