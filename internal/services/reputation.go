package services

import (
	"time"

	"github.com/jmoiron/sqlx"

	"mysteria-backend-go/internal/models"
)

// Badge ladder, ascending. A score lands on the highest threshold it clears.
var badgeLadder = []struct {
	Threshold int
	Level     string
}{
	{150, "legend"},
	{100, "detective"},
	{50, "expert"},
	{25, "veteran"},
	{10, "contributor"},
	{5, "regular"},
	{0, "newcomer"},
}

const (
	scorePerApprovedComment = 5
	scorePerReply           = 2
	winnerBonus             = 50
)

func BadgeForScore(score int) string {
	for _, rung := range badgeLadder {
		if score >= rung.Threshold {
			return rung.Level
		}
	}
	return "newcomer"
}

// RecordApprovedComment upserts the per-email aggregate when a comment
// transitions to approved. The score only ever grows; approvals are the sole
// trigger, so there is no recompute path that could shrink it.
func RecordApprovedComment(db *sqlx.DB, email, name string, isReply bool) error {
	replyDelta := 0
	scoreDelta := scorePerApprovedComment
	if isReply {
		replyDelta = 1
		scoreDelta += scorePerReply
	}
	now := time.Now().UTC()
	var score int
	err := db.Get(&score, `
INSERT INTO user_reputation (email, name, total_comments, approved_comments, total_replies,
  reputation_score, badge_level, first_comment_at, last_comment_at, created_at, updated_at)
VALUES ($1, $2, 1, 1, $3, $4, 'newcomer', $5, $5, $5, $5)
ON CONFLICT (email) DO UPDATE SET
  name = EXCLUDED.name,
  total_comments = user_reputation.total_comments + 1,
  approved_comments = user_reputation.approved_comments + 1,
  total_replies = user_reputation.total_replies + $3,
  reputation_score = user_reputation.reputation_score + $4,
  last_comment_at = $5,
  updated_at = $5
RETURNING reputation_score
`, email, name, replyDelta, scoreDelta, now)
	if err != nil {
		return WrapError(err, "record approved comment")
	}
	return updateBadge(db, email, score)
}

// GrantWinnerBadge is the out-of-band detective grant used when an admin marks
// a challenge theory as the contest winner.
func GrantWinnerBadge(db *sqlx.DB, email, name string) error {
	now := time.Now().UTC()
	var score int
	err := db.Get(&score, `
INSERT INTO user_reputation (email, name, reputation_score, badge_level,
  first_comment_at, last_comment_at, created_at, updated_at)
VALUES ($1, $2, $3, 'detective', $4, $4, $4, $4)
ON CONFLICT (email) DO UPDATE SET
  reputation_score = user_reputation.reputation_score + $3,
  updated_at = $4
RETURNING reputation_score
`, email, name, winnerBonus, now)
	if err != nil {
		return WrapError(err, "grant winner badge")
	}
	// Winners hold detective even below the 100-point threshold; legend still
	// outranks it.
	level := "detective"
	if score >= 150 {
		level = "legend"
	}
	_, err = db.Exec(`UPDATE user_reputation SET badge_level = $1 WHERE email = $2`, level, email)
	return WrapError(err, "grant winner badge")
}

func updateBadge(db *sqlx.DB, email string, score int) error {
	_, err := db.Exec(`
UPDATE user_reputation SET badge_level = $1
WHERE email = $2 AND badge_level <> 'detective'
`, BadgeForScore(score), email)
	return WrapError(err, "update badge level")
}

// Leaderboard returns reputation rows ordered by score. When monthly is set it
// filters to emails active in the current calendar month; the monthly board is
// just that filter, not a rolling-window recomputation.
func Leaderboard(db *sqlx.DB, monthly bool, limit int) ([]models.UserReputation, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	rows := []models.UserReputation{}
	query := `
SELECT * FROM user_reputation
ORDER BY reputation_score DESC, approved_comments DESC
LIMIT $1`
	args := []interface{}{limit}
	if monthly {
		query = `
SELECT * FROM user_reputation
WHERE last_comment_at >= $2
ORDER BY reputation_score DESC, approved_comments DESC
LIMIT $1`
		now := time.Now().UTC()
		monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		args = append(args, monthStart)
	}
	if err := db.Select(&rows, query, args...); err != nil {
		return nil, WrapError(err, "load leaderboard")
	}
	return rows, nil
}
