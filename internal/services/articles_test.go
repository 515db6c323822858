package services

import (
	"regexp"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEstimateReadingTime(t *testing.T) {
	assert.Equal(t, 1, EstimateReadingTime("", ""))
	assert.Equal(t, 1, EstimateReadingTime("just a few words", "pak fjalë"))

	long := strings.Repeat("word ", 401)
	assert.Equal(t, 3, EstimateReadingTime(long, ""))
	// The longer language variant wins.
	assert.Equal(t, 3, EstimateReadingTime("short", long))
}

func TestResolveArticleSlugCollision(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()
	db := sqlx.NewDb(mockDB, "sqlmock")

	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS(SELECT 1 FROM articles WHERE slug = $1)")).
		WithArgs("the-ghost-ship").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS(SELECT 1 FROM articles WHERE slug = $1)")).
		WithArgs("the-ghost-ship-2").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	slug, err := ResolveArticleSlug(db, "The Ghost Ship")
	require.NoError(t, err)
	assert.Equal(t, "the-ghost-ship-2", slug)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordViewCountsOncePerFingerprint(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()
	db := sqlx.NewDb(mockDB, "sqlmock")

	// First view inserts and bumps the counter.
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO article_views")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE articles SET view_count = view_count + 1")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, RecordView(db, testArticleID, "fp-1", "203.0.113.10"))

	// Repeat fingerprint: conflict swallows the insert, no counter bump.
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO article_views")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, RecordView(db, testArticleID, "fp-1", "203.0.113.10"))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordViewRequiresFingerprint(t *testing.T) {
	mockDB, _, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()
	db := sqlx.NewDb(mockDB, "sqlmock")

	err = RecordView(db, testArticleID, "  ", "203.0.113.10")
	assert.EqualError(t, err, "Missing fingerprint")
}
