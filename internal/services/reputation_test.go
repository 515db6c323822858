package services

import (
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBadgeForScore(t *testing.T) {
	cases := []struct {
		score int
		level string
	}{
		{0, "newcomer"},
		{4, "newcomer"},
		{5, "regular"},
		{9, "regular"},
		{10, "contributor"},
		{24, "contributor"},
		{25, "veteran"},
		{49, "veteran"},
		{50, "expert"},
		{99, "expert"},
		{100, "detective"},
		{149, "detective"},
		{150, "legend"},
		{500, "legend"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.level, BadgeForScore(tc.score), "score %d", tc.score)
	}
}

func TestRecordApprovedComment(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()
	db := sqlx.NewDb(mockDB, "sqlmock")

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO user_reputation")).
		WithArgs("reader@example.com", "Reader", 0, 5, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"reputation_score"}).AddRow(25))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE user_reputation SET badge_level")).
		WithArgs("veteran", "reader@example.com").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, RecordApprovedComment(db, "reader@example.com", "Reader", false))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordApprovedCommentReplyScoresExtra(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()
	db := sqlx.NewDb(mockDB, "sqlmock")

	// A reply adds 5 for the comment plus 2 for the reply.
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO user_reputation")).
		WithArgs("reader@example.com", "Reader", 1, 7, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"reputation_score"}).AddRow(7))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE user_reputation SET badge_level")).
		WithArgs("regular", "reader@example.com").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, RecordApprovedComment(db, "reader@example.com", "Reader", true))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGrantWinnerBadge(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()
	db := sqlx.NewDb(mockDB, "sqlmock")

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO user_reputation")).
		WithArgs("winner@example.com", "Winner", 50, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"reputation_score"}).AddRow(55))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE user_reputation SET badge_level")).
		WithArgs("detective", "winner@example.com").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, GrantWinnerBadge(db, "winner@example.com", "Winner"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGrantWinnerBadgeKeepsLegend(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()
	db := sqlx.NewDb(mockDB, "sqlmock")

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO user_reputation")).
		WithArgs("legend@example.com", "Legend", 50, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"reputation_score"}).AddRow(210))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE user_reputation SET badge_level")).
		WithArgs("legend", "legend@example.com").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, GrantWinnerBadge(db, "legend@example.com", "Legend"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
