package services

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupChallengeTest(t *testing.T) (*ChallengeService, sqlmock.Sqlmock, *fakeCaptcha, *fakeMailer, func()) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	captcha := &fakeCaptcha{}
	mailer := &fakeMailer{}
	service := &ChallengeService{
		DB:          sqlx.NewDb(mockDB, "sqlmock"),
		Captcha:     captcha,
		Deliverable: &fakeDeliverability{},
		Mailer:      mailer,
	}
	return service, mock, captcha, mailer, func() { mockDB.Close() }
}

const testChallengeID = "5e8d2c4a-1b3f-4d6e-8a9c-0f1e2d3c4b5a"

func validTheory() TheorySubmission {
	return TheorySubmission{
		ChallengeID:    testChallengeID,
		UserName:       "Sherlock",
		UserEmail:      "sherlock@example.com",
		TheoryContent:  "The lights were a weather balloon reflecting the harbor beacons.",
		RecaptchaToken: "tok",
	}
}

func TestSubmitTheoryMissingFields(t *testing.T) {
	service, _, captcha, _, cleanup := setupChallengeTest(t)
	defer cleanup()

	sub := validTheory()
	sub.RecaptchaToken = ""
	_, err := service.SubmitTheory(context.Background(), sub)
	assert.EqualError(t, err, "Missing required fields")
	assert.Zero(t, captcha.calls)
}

func TestSubmitTheoryContentBounds(t *testing.T) {
	service, _, _, _, cleanup := setupChallengeTest(t)
	defer cleanup()

	sub := validTheory()
	sub.TheoryContent = "too short"
	_, err := service.SubmitTheory(context.Background(), sub)
	assert.EqualError(t, err, "Theory must be between 10 and 5000 characters")

	sub = validTheory()
	sub.UserName = "X"
	_, err = service.SubmitTheory(context.Background(), sub)
	assert.EqualError(t, err, "Name must be between 2 and 100 characters")
}

func TestSubmitTheoryInactiveChallenge(t *testing.T) {
	service, mock, _, _, cleanup := setupChallengeTest(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT is_active FROM mystery_challenges")).
		WithArgs(testChallengeID).
		WillReturnRows(sqlmock.NewRows([]string{"is_active"}).AddRow(false))

	_, err := service.SubmitTheory(context.Background(), validTheory())
	assert.EqualError(t, err, "This challenge is no longer accepting theories")
}

func TestSubmitTheorySuccess(t *testing.T) {
	service, mock, captcha, _, cleanup := setupChallengeTest(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT is_active FROM mystery_challenges")).
		WithArgs(testChallengeID).
		WillReturnRows(sqlmock.NewRows([]string{"is_active"}).AddRow(true))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO challenge_theories")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	theoryID, err := service.SubmitTheory(context.Background(), validTheory())
	require.NoError(t, err)
	assert.NotEmpty(t, theoryID)
	assert.Equal(t, 1, captcha.calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkWinnerFlowsThroughBadgeAndEmail(t *testing.T) {
	service, mock, _, mailer, cleanup := setupChallengeTest(t)
	defer cleanup()

	theoryID := "7a1b2c3d-4e5f-6071-8293-a4b5c6d7e8f9"
	mock.ExpectQuery(regexp.QuoteMeta("SELECT challenge_id, user_name, user_email FROM challenge_theories")).
		WithArgs(theoryID).
		WillReturnRows(sqlmock.NewRows([]string{"challenge_id", "user_name", "user_email"}).
			AddRow(testChallengeID, "Sherlock", "sherlock@example.com"))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE challenge_theories SET is_winner = TRUE")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE mystery_challenges SET winner_id")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO user_reputation")).
		WillReturnRows(sqlmock.NewRows([]string{"reputation_score"}).AddRow(50))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE user_reputation SET badge_level")).
		WithArgs("detective", "sherlock@example.com").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, service.MarkWinner(context.Background(), theoryID))
	assert.Equal(t, []string{"sherlock@example.com"}, mailer.sent)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkWinnerUnknownTheory(t *testing.T) {
	service, mock, _, _, cleanup := setupChallengeTest(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT challenge_id, user_name, user_email FROM challenge_theories")).
		WillReturnError(sql.ErrNoRows)

	err := service.MarkWinner(context.Background(), "7a1b2c3d-4e5f-6071-8293-a4b5c6d7e8f9")
	assert.EqualError(t, err, "Theory not found")
}
