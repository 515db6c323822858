package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
)

// VoteService enforces the mystery-challenge voting safeguards: CAPTCHA,
// cooldown, and permanent email/fingerprint deduplication.
type VoteService struct {
	DB       *sqlx.DB
	Redis    *redis.Client
	Captcha  CaptchaVerifier
	Cooldown time.Duration
}

type VoteSubmission struct {
	TheoryID       string
	VoterEmail     string
	Fingerprint    string
	RecaptchaToken string
}

// Submit runs the guard sequence in order: captcha (fail closed), email
// format, 5-minute cooldown on either identity key, permanent per-theory
// dedup by email OR fingerprint, then insert plus an atomic upvote increment.
func (s *VoteService) Submit(ctx context.Context, sub VoteSubmission) error {
	if strings.TrimSpace(sub.TheoryID) == "" || strings.TrimSpace(sub.VoterEmail) == "" ||
		strings.TrimSpace(sub.Fingerprint) == "" || strings.TrimSpace(sub.RecaptchaToken) == "" {
		return ErrBadRequest("Missing required fields")
	}
	if err := s.Captcha.Verify(ctx, sub.RecaptchaToken); err != nil {
		return err
	}
	email, err := ValidateEmail(sub.VoterEmail)
	if err != nil {
		return err
	}
	theoryID, err := ValidateUUID(sub.TheoryID, "Invalid theory ID")
	if err != nil {
		return err
	}
	fingerprint := strings.TrimSpace(sub.Fingerprint)

	active, err := s.cooldownActive(ctx, email, fingerprint)
	if err != nil {
		return err
	}
	if active {
		return ErrTooManyRequests("Please wait before voting again")
	}

	// Permanent dedup: either identity key alone blocks a second vote on the
	// same theory. The unique indexes back this up under races.
	var exists bool
	err = s.DB.Get(&exists, `
SELECT EXISTS(
  SELECT 1 FROM theory_votes
  WHERE theory_id = $1 AND (voter_email = $2 OR fingerprint = $3)
)`, theoryID, email, fingerprint)
	if err != nil {
		return WrapError(err, "check existing votes")
	}
	if exists {
		return ErrBadRequest("You have already voted for this theory")
	}

	_, err = s.DB.Exec(`
INSERT INTO theory_votes (id, theory_id, voter_email, fingerprint, created_at)
VALUES ($1,$2,$3,$4,$5)
`, uuid.NewString(), theoryID, email, fingerprint, time.Now().UTC())
	if err != nil {
		if strings.Contains(err.Error(), "duplicate") || strings.Contains(err.Error(), "unique") {
			return ErrBadRequest("You have already voted for this theory")
		}
		return WrapError(err, "insert vote")
	}
	// The cooldown only arms once a vote row exists, so a rejected attempt
	// keeps answering "already voted" instead of burning the window.
	s.armCooldown(ctx, email, fingerprint)

	result, err := s.DB.Exec(`UPDATE challenge_theories SET upvotes = upvotes + 1, updated_at = $2 WHERE id = $1`,
		theoryID, time.Now().UTC())
	if err != nil {
		return WrapError(err, "increment upvotes")
	}
	if count, err := result.RowsAffected(); err == nil && count == 0 {
		return ErrNotFound("Theory not found")
	}
	return nil
}

// cooldownActive reports whether either identity key voted within the window,
// across all theories. The check is read-only; concurrent racers fall through
// to the permanent dedup and its unique indexes.
func (s *VoteService) cooldownActive(ctx context.Context, email, fingerprint string) (bool, error) {
	count, err := s.Redis.Exists(ctx, s.cooldownKeys(email, fingerprint)...).Result()
	if err != nil {
		return false, WrapError(err, "vote cooldown check")
	}
	return count > 0, nil
}

// armCooldown starts the window for both identity keys. Best effort: the vote
// row is already committed, so a redis hiccup here must not fail the request.
func (s *VoteService) armCooldown(ctx context.Context, email, fingerprint string) {
	window := s.Cooldown
	if window <= 0 {
		window = 5 * time.Minute
	}
	for _, key := range s.cooldownKeys(email, fingerprint) {
		s.Redis.Set(ctx, key, 1, window)
	}
}

func (s *VoteService) cooldownKeys(email, fingerprint string) []string {
	return []string{
		fmt.Sprintf("vote:cooldown:email:%s", email),
		fmt.Sprintf("vote:cooldown:fp:%s", fingerprint),
	}
}
