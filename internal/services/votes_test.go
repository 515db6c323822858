package services

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCaptcha struct {
	err   error
	calls int
}

func (f *fakeCaptcha) Verify(ctx context.Context, token string) error {
	f.calls++
	return f.err
}

func setupVoteTest(t *testing.T) (*VoteService, sqlmock.Sqlmock, *miniredis.Miniredis, *fakeCaptcha, func()) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	captcha := &fakeCaptcha{}
	service := &VoteService{
		DB:       sqlx.NewDb(mockDB, "sqlmock"),
		Redis:    redisClient,
		Captcha:  captcha,
		Cooldown: 5 * time.Minute,
	}
	cleanup := func() {
		mockDB.Close()
		redisClient.Close()
		mr.Close()
	}
	return service, mock, mr, captcha, cleanup
}

const testTheoryID = "3b5af4d1-dd05-4c46-92a8-5a9f1f2b7e10"

func validVote() VoteSubmission {
	return VoteSubmission{
		TheoryID:       testTheoryID,
		VoterEmail:     "voter@example.com",
		Fingerprint:    "fp-123",
		RecaptchaToken: "tok",
	}
}

func TestVoteSubmitMissingFields(t *testing.T) {
	service, _, _, captcha, cleanup := setupVoteTest(t)
	defer cleanup()

	for _, sub := range []VoteSubmission{
		{},
		{TheoryID: testTheoryID, VoterEmail: "voter@example.com", Fingerprint: "fp"},
		{TheoryID: testTheoryID, VoterEmail: "voter@example.com", RecaptchaToken: "tok"},
	} {
		err := service.Submit(context.Background(), sub)
		assert.EqualError(t, err, "Missing required fields")
	}
	assert.Zero(t, captcha.calls, "captcha must not run on incomplete input")
}

func TestVoteSubmitCaptchaFailure(t *testing.T) {
	service, _, _, captcha, cleanup := setupVoteTest(t)
	defer cleanup()
	captcha.err = ErrBadRequest("reCAPTCHA verification failed. Please try again.")

	err := service.Submit(context.Background(), validVote())
	assert.EqualError(t, err, "reCAPTCHA verification failed. Please try again.")
}

func TestVoteSubmitSuccess(t *testing.T) {
	service, mock, mr, _, cleanup := setupVoteTest(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).
		WithArgs(testTheoryID, "voter@example.com", "fp-123").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO theory_votes")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE challenge_theories SET upvotes = upvotes + 1")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, service.Submit(context.Background(), validVote()))
	assert.NoError(t, mock.ExpectationsWereMet())

	// Both cooldown keys are armed.
	assert.True(t, mr.Exists("vote:cooldown:email:voter@example.com"))
	assert.True(t, mr.Exists("vote:cooldown:fp:fp-123"))
}

func TestVoteSubmitDuplicate(t *testing.T) {
	service, mock, _, _, cleanup := setupVoteTest(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).
		WithArgs(testTheoryID, "voter@example.com", "fp-123").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	err := service.Submit(context.Background(), validVote())
	assert.EqualError(t, err, "You have already voted for this theory")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVoteSubmitDuplicateDoesNotArmCooldown(t *testing.T) {
	service, mock, mr, _, cleanup := setupVoteTest(t)
	defer cleanup()

	// Two rejected duplicates in a row: both answer "already voted", never
	// a throttle, because only an inserted vote starts the window.
	for i := 0; i < 2; i++ {
		mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).
			WithArgs(testTheoryID, "voter@example.com", "fp-123").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

		err := service.Submit(context.Background(), validVote())
		assert.EqualError(t, err, "You have already voted for this theory")
	}
	assert.False(t, mr.Exists("vote:cooldown:email:voter@example.com"))
	assert.False(t, mr.Exists("vote:cooldown:fp:fp-123"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVoteSubmitCooldown(t *testing.T) {
	service, mock, _, _, cleanup := setupVoteTest(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO theory_votes")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE challenge_theories")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, service.Submit(context.Background(), validVote()))

	// Second vote inside the window is throttled before the dedup lookup, even
	// against a different theory.
	second := validVote()
	second.TheoryID = "9d2f0a77-64f5-4f9b-a9ce-0b6f8f4f2f21"
	err := service.Submit(context.Background(), second)
	assert.EqualError(t, err, "Please wait before voting again")

	var svcErr ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, 429, svcErr.Status)
}

func TestVoteSubmitInvalidEmail(t *testing.T) {
	service, _, _, _, cleanup := setupVoteTest(t)
	defer cleanup()

	sub := validVote()
	sub.VoterEmail = "not-an-email"
	err := service.Submit(context.Background(), sub)
	assert.EqualError(t, err, "Invalid email format")
}
