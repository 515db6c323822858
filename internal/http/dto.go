package httpapi

import (
	"time"

	"mysteria-backend-go/internal/models"
)

type CategoryDTO struct {
	ID            string  `json:"id"`
	NameEn        string  `json:"nameEn"`
	NameSq        string  `json:"nameSq"`
	DescriptionEn *string `json:"descriptionEn,omitempty"`
	DescriptionSq *string `json:"descriptionSq,omitempty"`
	Slug          string  `json:"slug"`
}

type ArticleSummaryDTO struct {
	ID                 string     `json:"id"`
	TitleEn            string     `json:"titleEn"`
	TitleSq            string     `json:"titleSq"`
	ExcerptEn          *string    `json:"excerptEn,omitempty"`
	ExcerptSq          *string    `json:"excerptSq,omitempty"`
	FeaturedImageURL   *string    `json:"featuredImageUrl,omitempty"`
	Slug               string     `json:"slug"`
	CategoryID         *string    `json:"categoryId,omitempty"`
	PublishedAt        *time.Time `json:"publishedAt,omitempty"`
	ViewCount          int        `json:"viewCount"`
	ReadingTimeMinutes *int       `json:"readingTimeMinutes,omitempty"`
}

type ArticleDetailDTO struct {
	ArticleSummaryDTO
	ContentEn         string  `json:"contentEn"`
	ContentSq         string  `json:"contentSq"`
	MetaTitleEn       *string `json:"metaTitleEn,omitempty"`
	MetaTitleSq       *string `json:"metaTitleSq,omitempty"`
	MetaDescriptionEn *string `json:"metaDescriptionEn,omitempty"`
	MetaDescriptionSq *string `json:"metaDescriptionSq,omitempty"`
	Published         bool    `json:"published"`
}

type CommentDTO struct {
	ID              string       `json:"id"`
	ArticleID       string       `json:"articleId"`
	ParentCommentID *string      `json:"parentCommentId,omitempty"`
	Name            string       `json:"name"`
	Content         string       `json:"content"`
	BadgeLevel      string       `json:"badgeLevel,omitempty"`
	CreatedAt       time.Time    `json:"createdAt"`
	Replies         []CommentDTO `json:"replies,omitempty"`
}

type PendingCommentDTO struct {
	ID              string    `json:"id"`
	ArticleID       string    `json:"articleId"`
	ParentCommentID *string   `json:"parentCommentId,omitempty"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	Content         string    `json:"content"`
	IsEmailVerified bool      `json:"isEmailVerified"`
	CreatedAt       time.Time `json:"createdAt"`
}

type ChallengeDTO struct {
	ID               string    `json:"id"`
	TitleEn          string    `json:"titleEn"`
	TitleSq          string    `json:"titleSq"`
	DescriptionEn    string    `json:"descriptionEn"`
	DescriptionSq    string    `json:"descriptionSq"`
	CluesEn          *string   `json:"cluesEn,omitempty"`
	CluesSq          *string   `json:"cluesSq,omitempty"`
	FeaturedImageURL *string   `json:"featuredImageUrl,omitempty"`
	Deadline         time.Time `json:"deadline"`
	IsActive         bool      `json:"isActive"`
	WinnerID         *string   `json:"winnerId,omitempty"`
}

type TheoryDTO struct {
	ID          string    `json:"id"`
	ChallengeID string    `json:"challengeId"`
	UserName    string    `json:"userName"`
	Content     string    `json:"content"`
	Upvotes     int       `json:"upvotes"`
	IsWinner    bool      `json:"isWinner"`
	CreatedAt   time.Time `json:"createdAt"`
}

type LeaderboardEntryDTO struct {
	Name             string `json:"name"`
	ApprovedComments int    `json:"approvedComments"`
	TotalReplies     int    `json:"totalReplies"`
	ReputationScore  int    `json:"reputationScore"`
	BadgeLevel       string `json:"badgeLevel"`
}

type WhitelistEntryDTO struct {
	ID          string    `json:"id"`
	IPAddress   string    `json:"ipAddress"`
	Description *string   `json:"description,omitempty"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
}

func categoryDTO(row models.Category) CategoryDTO {
	return CategoryDTO{
		ID:            row.ID,
		NameEn:        row.NameEn,
		NameSq:        row.NameSq,
		DescriptionEn: row.DescriptionEn,
		DescriptionSq: row.DescriptionSq,
		Slug:          row.Slug,
	}
}

func articleSummaryDTO(row models.Article) ArticleSummaryDTO {
	return ArticleSummaryDTO{
		ID:                 row.ID,
		TitleEn:            row.TitleEn,
		TitleSq:            row.TitleSq,
		ExcerptEn:          row.ExcerptEn,
		ExcerptSq:          row.ExcerptSq,
		FeaturedImageURL:   row.FeaturedImageURL,
		Slug:               row.Slug,
		CategoryID:         row.CategoryID,
		PublishedAt:        row.PublishedAt,
		ViewCount:          row.ViewCount,
		ReadingTimeMinutes: row.ReadingTimeMinutes,
	}
}

func articleDetailDTO(row models.Article) ArticleDetailDTO {
	return ArticleDetailDTO{
		ArticleSummaryDTO: articleSummaryDTO(row),
		ContentEn:         row.ContentEn,
		ContentSq:         row.ContentSq,
		MetaTitleEn:       row.MetaTitleEn,
		MetaTitleSq:       row.MetaTitleSq,
		MetaDescriptionEn: row.MetaDescriptionEn,
		MetaDescriptionSq: row.MetaDescriptionSq,
		Published:         row.Published,
	}
}

// commentThread assembles approved comments into top-level entries with one
// level of replies, preserving creation order within each level.
func commentThread(rows []models.Comment, badges map[string]string) []CommentDTO {
	byParent := map[string][]CommentDTO{}
	top := []CommentDTO{}
	for _, row := range rows {
		dto := CommentDTO{
			ID:              row.ID,
			ArticleID:       row.ArticleID,
			ParentCommentID: row.ParentCommentID,
			Name:            row.Name,
			Content:         row.Content,
			BadgeLevel:      badges[row.Email],
			CreatedAt:       row.CreatedAt,
		}
		if row.ParentCommentID == nil {
			top = append(top, dto)
			continue
		}
		byParent[*row.ParentCommentID] = append(byParent[*row.ParentCommentID], dto)
	}
	for i := range top {
		top[i].Replies = byParent[top[i].ID]
	}
	return top
}

func pendingCommentDTO(row models.Comment) PendingCommentDTO {
	return PendingCommentDTO{
		ID:              row.ID,
		ArticleID:       row.ArticleID,
		ParentCommentID: row.ParentCommentID,
		Name:            row.Name,
		Email:           row.Email,
		Content:         row.Content,
		IsEmailVerified: row.IsEmailVerified,
		CreatedAt:       row.CreatedAt,
	}
}

func challengeDTO(row models.MysteryChallenge) ChallengeDTO {
	return ChallengeDTO{
		ID:               row.ID,
		TitleEn:          row.TitleEn,
		TitleSq:          row.TitleSq,
		DescriptionEn:    row.DescriptionEn,
		DescriptionSq:    row.DescriptionSq,
		CluesEn:          row.CluesEn,
		CluesSq:          row.CluesSq,
		FeaturedImageURL: row.FeaturedImageURL,
		Deadline:         row.Deadline,
		IsActive:         row.IsActive,
		WinnerID:         row.WinnerID,
	}
}

func theoryDTO(row models.ChallengeTheory) TheoryDTO {
	return TheoryDTO{
		ID:          row.ID,
		ChallengeID: row.ChallengeID,
		UserName:    row.UserName,
		Content:     row.TheoryContent,
		Upvotes:     row.Upvotes,
		IsWinner:    row.IsWinner,
		CreatedAt:   row.CreatedAt,
	}
}

func leaderboardEntryDTO(row models.UserReputation) LeaderboardEntryDTO {
	return LeaderboardEntryDTO{
		Name:             row.Name,
		ApprovedComments: row.ApprovedComments,
		TotalReplies:     row.TotalReplies,
		ReputationScore:  row.ReputationScore,
		BadgeLevel:       row.BadgeLevel,
	}
}

func whitelistEntryDTO(row models.WhitelistedIP) WhitelistEntryDTO {
	return WhitelistEntryDTO{
		ID:          row.ID,
		IPAddress:   row.IPAddress,
		Description: row.Description,
		IsActive:    row.IsActive,
		CreatedAt:   row.CreatedAt,
	}
}
