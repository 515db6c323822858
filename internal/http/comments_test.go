package httpapi

import (
	"database/sql"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mysteria-backend-go/internal/models"
	"mysteria-backend-go/internal/services"
)

func commentTestServer(t *testing.T) (*Server, sqlmock.Sqlmock, func()) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	db := sqlx.NewDb(mockDB, "sqlmock")
	server := &Server{
		DB:       db,
		Comments: &services.CommentService{DB: db},
	}
	return server, mock, func() { mockDB.Close() }
}

func TestVerifyCommentMissingTokenRendersHTML(t *testing.T) {
	server, _, cleanup := commentTestServer(t)
	defer cleanup()

	r := httptest.NewRequest("GET", "/api/public/verify-comment", nil)
	w := httptest.NewRecorder()
	server.VerifyComment(w, r)

	assert.Equal(t, 400, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), "missing required parameters")
}

func TestVerifyCommentUnknownToken(t *testing.T) {
	server, mock, cleanup := commentTestServer(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta("FROM comments WHERE verification_token")).
		WithArgs("gone").
		WillReturnError(sql.ErrNoRows)

	r := httptest.NewRequest("GET", "/api/public/verify-comment?token=gone", nil)
	w := httptest.NewRecorder()
	server.VerifyComment(w, r)

	assert.Equal(t, 404, w.Code)
	assert.Contains(t, w.Body.String(), "invalid or has already been used")
}

func TestCommentThreadNestsReplies(t *testing.T) {
	parent := "11111111-1111-1111-1111-111111111111"
	child := "22222222-2222-2222-2222-222222222222"
	now := time.Now().UTC()
	rows := []models.Comment{
		{ID: parent, ArticleID: "a-1", Name: "Reader", Email: "reader@example.com", Content: "top", CreatedAt: now},
		{ID: child, ArticleID: "a-1", ParentCommentID: &parent, Name: "Other", Email: "other@example.com", Content: "reply", CreatedAt: now},
	}
	badges := map[string]string{"reader@example.com": "veteran"}

	thread := commentThread(rows, badges)
	require.Len(t, thread, 1)
	assert.Equal(t, "veteran", thread[0].BadgeLevel)
	require.Len(t, thread[0].Replies, 1)
	assert.Equal(t, child, thread[0].Replies[0].ID)
	assert.Empty(t, thread[0].Replies[0].BadgeLevel, "no reputation row yet")
}
