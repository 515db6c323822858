package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"mysteria-backend-go/internal/models"
	"mysteria-backend-go/internal/services"
)

type SubmitTheoryRequest struct {
	ChallengeID    string `json:"challengeId"`
	UserName       string `json:"userName"`
	UserEmail      string `json:"userEmail"`
	TheoryContent  string `json:"theoryContent"`
	RecaptchaToken string `json:"recaptchaToken"`
}

type SubmitVoteRequest struct {
	TheoryID       string `json:"theoryId"`
	VoterEmail     string `json:"voterEmail"`
	Fingerprint    string `json:"fingerprint"`
	RecaptchaToken string `json:"recaptchaToken"`
}

type TheoryListResponse struct {
	Items []TheoryDTO `json:"items"`
}

type ChallengeListResponse struct {
	Items []ChallengeDTO `json:"items"`
}

type ChallengeRequest struct {
	TitleEn          string  `json:"titleEn"`
	TitleSq          string  `json:"titleSq"`
	DescriptionEn    string  `json:"descriptionEn"`
	DescriptionSq    string  `json:"descriptionSq"`
	CluesEn          *string `json:"cluesEn"`
	CluesSq          *string `json:"cluesSq"`
	FeaturedImageURL *string `json:"featuredImageUrl"`
	Deadline         string  `json:"deadline"`
	IsActive         bool    `json:"isActive"`
}

func (s *Server) ActiveChallenge(w http.ResponseWriter, r *http.Request) {
	challenge, err := s.Challenges.ActiveChallenge()
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	if challenge == nil {
		WriteJSON(w, http.StatusOK, map[string]interface{}{"challenge": nil})
		return
	}
	dto := challengeDTO(*challenge)
	WriteJSON(w, http.StatusOK, map[string]interface{}{"challenge": dto})
}

func (s *Server) ChallengeTheories(w http.ResponseWriter, r *http.Request) {
	challengeID, err := services.ValidateUUID(chi.URLParam(r, "challengeId"), "Invalid challenge ID")
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	rows, err := s.Challenges.Theories(challengeID)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	items := make([]TheoryDTO, 0, len(rows))
	for _, row := range rows {
		items = append(items, theoryDTO(row))
	}
	WriteJSON(w, http.StatusOK, TheoryListResponse{Items: items})
}

func (s *Server) SubmitTheory(w http.ResponseWriter, r *http.Request) {
	var req SubmitTheoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	theoryID, err := s.Challenges.SubmitTheory(r.Context(), services.TheorySubmission{
		ChallengeID:    req.ChallengeID,
		UserName:       req.UserName,
		UserEmail:      req.UserEmail,
		TheoryContent:  req.TheoryContent,
		RecaptchaToken: req.RecaptchaToken,
	})
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, map[string]string{"id": theoryID})
}

func (s *Server) SubmitVote(w http.ResponseWriter, r *http.Request) {
	var req SubmitVoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	err := s.Votes.Submit(r.Context(), services.VoteSubmission{
		TheoryID:       req.TheoryID,
		VoterEmail:     req.VoterEmail,
		Fingerprint:    req.Fingerprint,
		RecaptchaToken: req.RecaptchaToken,
	})
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteSuccess(w, "Vote recorded")
}

func (s *Server) AdminListChallenges(w http.ResponseWriter, r *http.Request) {
	rows := []models.MysteryChallenge{}
	if err := s.DB.Select(&rows, `SELECT * FROM mystery_challenges ORDER BY created_at DESC`); err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	items := make([]ChallengeDTO, 0, len(rows))
	for _, row := range rows {
		items = append(items, challengeDTO(row))
	}
	WriteJSON(w, http.StatusOK, ChallengeListResponse{Items: items})
}

func (s *Server) AdminCreateChallenge(w http.ResponseWriter, r *http.Request) {
	var req ChallengeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	if strings.TrimSpace(req.TitleEn) == "" || strings.TrimSpace(req.TitleSq) == "" ||
		strings.TrimSpace(req.DescriptionEn) == "" || strings.TrimSpace(req.DescriptionSq) == "" {
		WriteError(w, http.StatusBadRequest, "Title and description are required in both languages")
		return
	}
	deadline, err := time.Parse(time.RFC3339, strings.TrimSpace(req.Deadline))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid deadline")
		return
	}
	challengeID := uuid.NewString()
	now := time.Now().UTC()
	_, err = s.DB.Exec(`
INSERT INTO mystery_challenges (id, title_en, title_sq, description_en, description_sq,
  clues_en, clues_sq, featured_image_url, deadline, is_active, winner_id, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,NULL,$11,$11)
`, challengeID, req.TitleEn, req.TitleSq, req.DescriptionEn, req.DescriptionSq,
		req.CluesEn, req.CluesSq, req.FeaturedImageURL, deadline, req.IsActive, now)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	WriteJSON(w, http.StatusCreated, map[string]string{"id": challengeID})
}

func (s *Server) AdminUpdateChallenge(w http.ResponseWriter, r *http.Request) {
	challengeID, err := services.ValidateUUID(chi.URLParam(r, "challengeId"), "Invalid challenge ID")
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	var req ChallengeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid payload")
		return
	}
	deadline, err := time.Parse(time.RFC3339, strings.TrimSpace(req.Deadline))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid deadline")
		return
	}
	result, err := s.DB.Exec(`
UPDATE mystery_challenges
SET title_en = $2, title_sq = $3, description_en = $4, description_sq = $5,
    clues_en = $6, clues_sq = $7, featured_image_url = $8, deadline = $9,
    is_active = $10, updated_at = $11
WHERE id = $1
`, challengeID, req.TitleEn, req.TitleSq, req.DescriptionEn, req.DescriptionSq,
		req.CluesEn, req.CluesSq, req.FeaturedImageURL, deadline, req.IsActive, time.Now().UTC())
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if count, err := result.RowsAffected(); err == nil && count == 0 {
		WriteError(w, http.StatusNotFound, "Challenge not found")
		return
	}
	WriteSuccess(w, "Challenge updated")
}

func (s *Server) AdminMarkWinner(w http.ResponseWriter, r *http.Request) {
	theoryID, err := services.ValidateUUID(chi.URLParam(r, "theoryId"), "Invalid theory ID")
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	if err := s.Challenges.MarkWinner(r.Context(), theoryID); err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteSuccess(w, "Winner marked")
}
