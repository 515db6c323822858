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

// ChallengeService handles theory submissions and the winner flow.
type ChallengeService struct {
	DB          *sqlx.DB
	Captcha     CaptchaVerifier
	Deliverable DeliverabilityChecker
	Mailer      EmailSender
}

type TheorySubmission struct {
	ChallengeID    string
	UserName       string
	UserEmail      string
	TheoryContent  string
	RecaptchaToken string
}

// SubmitTheory runs validate → CAPTCHA → deliverability → insert. The
// deliverability check fails open inside the Abstract client.
func (s *ChallengeService) SubmitTheory(ctx context.Context, sub TheorySubmission) (string, error) {
	if strings.TrimSpace(sub.ChallengeID) == "" || strings.TrimSpace(sub.UserName) == "" ||
		strings.TrimSpace(sub.UserEmail) == "" || strings.TrimSpace(sub.TheoryContent) == "" ||
		strings.TrimSpace(sub.RecaptchaToken) == "" {
		return "", ErrBadRequest("Missing required fields")
	}
	if err := s.Captcha.Verify(ctx, sub.RecaptchaToken); err != nil {
		return "", err
	}
	email, err := ValidateEmail(sub.UserEmail)
	if err != nil {
		return "", err
	}
	if err := s.Deliverable.Check(ctx, email); err != nil {
		return "", err
	}
	name := strings.TrimSpace(sub.UserName)
	if len(name) < 2 || len(name) > MaxNameLength {
		return "", ErrBadRequest("Name must be between 2 and 100 characters")
	}
	content := strings.TrimSpace(sub.TheoryContent)
	if len(content) < 10 || len(content) > MaxContentLength {
		return "", ErrBadRequest("Theory must be between 10 and 5000 characters")
	}
	challengeID, err := ValidateUUID(sub.ChallengeID, "Invalid challenge ID")
	if err != nil {
		return "", err
	}

	var active bool
	err = s.DB.Get(&active, `SELECT is_active FROM mystery_challenges WHERE id = $1`, challengeID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrBadRequest("Challenge not found")
	}
	if err != nil {
		return "", WrapError(err, "look up challenge")
	}
	if !active {
		return "", ErrBadRequest("This challenge is no longer accepting theories")
	}

	theoryID := uuid.NewString()
	now := time.Now().UTC()
	_, err = s.DB.Exec(`
INSERT INTO challenge_theories (id, challenge_id, user_name, user_email, theory_content, upvotes, is_winner, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,0,FALSE,$6,$6)
`, theoryID, challengeID, SanitizePlainText(name), email, SanitizePlainText(content), now)
	if err != nil {
		return "", WrapError(err, "insert theory")
	}
	return theoryID, nil
}

// MarkWinner flags the theory and its challenge, grants the detective badge
// and sends the winner notification.
func (s *ChallengeService) MarkWinner(ctx context.Context, theoryID string) error {
	theory := struct {
		ChallengeID string `db:"challenge_id"`
		UserName    string `db:"user_name"`
		UserEmail   string `db:"user_email"`
	}{}
	err := s.DB.Get(&theory, `SELECT challenge_id, user_name, user_email FROM challenge_theories WHERE id = $1`, theoryID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound("Theory not found")
	}
	if err != nil {
		return WrapError(err, "look up theory")
	}
	now := time.Now().UTC()
	if _, err := s.DB.Exec(`UPDATE challenge_theories SET is_winner = TRUE, updated_at = $2 WHERE id = $1`, theoryID, now); err != nil {
		return WrapError(err, "mark winner")
	}
	if _, err := s.DB.Exec(`UPDATE mystery_challenges SET winner_id = $2, is_active = FALSE, updated_at = $3 WHERE id = $1`,
		theory.ChallengeID, theoryID, now); err != nil {
		return WrapError(err, "mark challenge winner")
	}
	if err := GrantWinnerBadge(s.DB, theory.UserEmail, theory.UserName); err != nil {
		log.Printf("winner badge for %s: %v", theory.UserEmail, err)
	}
	subject, body := WinnerEmail(theory.UserName)
	if err := s.Mailer.Send(ctx, theory.UserEmail, subject, body); err != nil {
		return WrapError(err, "send winner email")
	}
	return nil
}

// ActiveChallenge returns the currently running challenge, or nil.
func (s *ChallengeService) ActiveChallenge() (*models.MysteryChallenge, error) {
	challenge := models.MysteryChallenge{}
	err := s.DB.Get(&challenge, `
SELECT * FROM mystery_challenges
WHERE is_active = TRUE
ORDER BY created_at DESC
LIMIT 1`)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, WrapError(err, "load active challenge")
	}
	return &challenge, nil
}

// Theories lists a challenge's theories, most upvoted first.
func (s *ChallengeService) Theories(challengeID string) ([]models.ChallengeTheory, error) {
	rows := []models.ChallengeTheory{}
	err := s.DB.Select(&rows, `
SELECT * FROM challenge_theories
WHERE challenge_id = $1
ORDER BY upvotes DESC, created_at ASC
`, challengeID)
	if err != nil {
		return nil, WrapError(err, "load theories")
	}
	return rows, nil
}
