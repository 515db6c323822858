package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"

	"mysteria-backend-go/internal/services"
)

type SubmitCommentRequest struct {
	ArticleID       string `json:"articleId"`
	ParentCommentID string `json:"parentCommentId"`
	Name            string `json:"name"`
	Email           string `json:"email"`
	Content         string `json:"content"`
}

type CommentListResponse struct {
	Items []CommentDTO `json:"items"`
}

type PendingCommentListResponse struct {
	Items []PendingCommentDTO `json:"items"`
}

type LeaderboardResponse struct {
	Items []LeaderboardEntryDTO `json:"items"`
}

func (s *Server) SubmitComment(w http.ResponseWriter, r *http.Request) {
	var req SubmitCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	_, err := s.Comments.Submit(r.Context(), services.CommentSubmission{
		ArticleID:       req.ArticleID,
		ParentCommentID: req.ParentCommentID,
		Name:            req.Name,
		Email:           req.Email,
		Content:         req.Content,
	})
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	if s.Comments.AutoApprove {
		WriteSuccess(w, "Comment published")
		return
	}
	WriteSuccess(w, "Please check your email to verify your comment")
}

// VerifyComment serves the browser-facing verification page linked from the
// email, so responses are HTML, not JSON.
func (s *Server) VerifyComment(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimSpace(r.URL.Query().Get("token"))
	err := s.Comments.VerifyToken(r.Context(), token)
	if err == nil {
		writeHTML(w, http.StatusOK, verifiedPage)
		return
	}
	var svcErr services.ServiceError
	if errors.As(err, &svcErr) {
		switch svcErr.Status {
		case http.StatusNotFound:
			writeHTML(w, http.StatusNotFound, verifyErrorPage("Invalid or Expired Link", svcErr.Message))
		default:
			writeHTML(w, http.StatusBadRequest, verifyErrorPage("Invalid Verification Link", svcErr.Message))
		}
		return
	}
	log.Printf("verify comment: %v", err)
	writeHTML(w, http.StatusInternalServerError,
		verifyErrorPage("Verification Failed", "There was an error verifying your email. Please try again."))
}

func (s *Server) ArticleComments(w http.ResponseWriter, r *http.Request) {
	articleID, err := services.ValidateUUID(chi.URLParam(r, "articleId"), "Invalid article ID")
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	rows, err := s.Comments.ApprovedForArticle(articleID)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	emails := make([]string, 0, len(rows))
	seen := map[string]bool{}
	for _, row := range rows {
		if !seen[row.Email] {
			seen[row.Email] = true
			emails = append(emails, row.Email)
		}
	}
	badges, err := s.badgesByEmail(emails)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, CommentListResponse{Items: commentThread(rows, badges)})
}

func (s *Server) PublicLeaderboard(w http.ResponseWriter, r *http.Request) {
	monthly := strings.EqualFold(r.URL.Query().Get("period"), "monthly")
	rows, err := services.Leaderboard(s.DB, monthly, queryInt(r, "limit", 10))
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	items := make([]LeaderboardEntryDTO, 0, len(rows))
	for _, row := range rows {
		items = append(items, leaderboardEntryDTO(row))
	}
	WriteJSON(w, http.StatusOK, LeaderboardResponse{Items: items})
}

func (s *Server) AdminPendingComments(w http.ResponseWriter, r *http.Request) {
	rows, err := s.Comments.Pending(queryInt(r, "limit", 50))
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	items := make([]PendingCommentDTO, 0, len(rows))
	for _, row := range rows {
		items = append(items, pendingCommentDTO(row))
	}
	WriteJSON(w, http.StatusOK, PendingCommentListResponse{Items: items})
}

func (s *Server) AdminApproveComment(w http.ResponseWriter, r *http.Request) {
	commentID, err := services.ValidateUUID(chi.URLParam(r, "commentId"), "Invalid comment ID")
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	if err := s.Comments.Approve(r.Context(), commentID); err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteSuccess(w, "Comment approved")
}

func (s *Server) AdminDeleteComment(w http.ResponseWriter, r *http.Request) {
	commentID, err := services.ValidateUUID(chi.URLParam(r, "commentId"), "Invalid comment ID")
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	if err := s.Comments.Delete(r.Context(), commentID); err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteSuccess(w, "Comment deleted")
}

func (s *Server) badgesByEmail(emails []string) (map[string]string, error) {
	badges := map[string]string{}
	if len(emails) == 0 {
		return badges, nil
	}
	query, args, err := sqlx.In(`SELECT email, badge_level FROM user_reputation WHERE email IN (?)`, emails)
	if err != nil {
		return nil, err
	}
	rows := []struct {
		Email      string `db:"email"`
		BadgeLevel string `db:"badge_level"`
	}{}
	if err := s.DB.Select(&rows, s.DB.Rebind(query), args...); err != nil {
		return nil, err
	}
	for _, row := range rows {
		badges[row.Email] = row.BadgeLevel
	}
	return badges, nil
}

func writeHTML(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func verifyErrorPage(title, message string) string {
	return fmt.Sprintf(`<html>
  <body style="font-family: Arial, sans-serif; padding: 40px; text-align: center;">
    <h1>%s</h1>
    <p>%s</p>
  </body>
</html>`, title, message)
}

const verifiedPage = `<html>
  <body style="font-family: Arial, sans-serif; padding: 40px; text-align: center;">
    <div style="background: white; color: #333; padding: 40px; border-radius: 12px; max-width: 500px; margin: 0 auto;">
      <h1 style="color: #8B5CF6;">Email Verified!</h1>
      <p style="font-size: 18px; margin: 20px 0;">Your email has been successfully verified.</p>
      <p style="font-size: 16px; color: #10b981; font-weight: 600;">Your comment is now live!</p>
      <p style="color: #666; margin-top: 10px;">Your comment has been automatically published. Thank you for sharing your experience!</p>
      <p style="margin-top: 30px;">
        <a href="/" style="background-color: #8B5CF6; color: white; padding: 12px 24px; text-decoration: none; border-radius: 6px; display: inline-block;">Return to Mysteria Realm</a>
      </p>
    </div>
  </body>
</html>`
