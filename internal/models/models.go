package models

import "time"

type User struct {
	ID           string     `db:"id"`
	Email        string     `db:"email"`
	PasswordHash string     `db:"password_hash"`
	Status       string     `db:"status"`
	CreatedAt    time.Time  `db:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at"`
	LastLoginAt  *time.Time `db:"last_login_at"`
}

type Role struct {
	ID   string `db:"id"`
	Code string `db:"code"`
}

type Category struct {
	ID            string    `db:"id"`
	NameEn        string    `db:"name_en"`
	NameSq        string    `db:"name_sq"`
	DescriptionEn *string   `db:"description_en"`
	DescriptionSq *string   `db:"description_sq"`
	Slug          string    `db:"slug"`
	CreatedAt     time.Time `db:"created_at"`
}

type Article struct {
	ID                 string     `db:"id"`
	TitleEn            string     `db:"title_en"`
	TitleSq            string     `db:"title_sq"`
	ContentEn          string     `db:"content_en"`
	ContentSq          string     `db:"content_sq"`
	ExcerptEn          *string    `db:"excerpt_en"`
	ExcerptSq          *string    `db:"excerpt_sq"`
	MetaTitleEn        *string    `db:"meta_title_en"`
	MetaTitleSq        *string    `db:"meta_title_sq"`
	MetaDescriptionEn  *string    `db:"meta_description_en"`
	MetaDescriptionSq  *string    `db:"meta_description_sq"`
	FeaturedImageURL   *string    `db:"featured_image_url"`
	Slug               string     `db:"slug"`
	CategoryID         *string    `db:"category_id"`
	Published          bool       `db:"published"`
	PublishedAt        *time.Time `db:"published_at"`
	ViewCount          int        `db:"view_count"`
	ReadingTimeMinutes *int       `db:"reading_time_minutes"`
	CreatedAt          time.Time  `db:"created_at"`
	UpdatedAt          time.Time  `db:"updated_at"`
}

type ArticleView struct {
	ID          string    `db:"id"`
	ArticleID   string    `db:"article_id"`
	Fingerprint string    `db:"fingerprint"`
	IPAddress   *string   `db:"ip_address"`
	ViewedAt    time.Time `db:"viewed_at"`
}

type Comment struct {
	ID                    string     `db:"id"`
	ArticleID             string     `db:"article_id"`
	ParentCommentID       *string    `db:"parent_comment_id"`
	Name                  string     `db:"name"`
	Email                 string     `db:"email"`
	Content               string     `db:"content"`
	VerificationToken     *string    `db:"verification_token"`
	VerificationExpiresAt *time.Time `db:"verification_expires_at"`
	IsEmailVerified       bool       `db:"is_email_verified"`
	IsApproved            bool       `db:"is_approved"`
	CreatedAt             time.Time  `db:"created_at"`
	UpdatedAt             time.Time  `db:"updated_at"`
}

type UserReputation struct {
	ID               string    `db:"id"`
	Email            string    `db:"email"`
	Name             string    `db:"name"`
	TotalComments    int       `db:"total_comments"`
	ApprovedComments int       `db:"approved_comments"`
	TotalReplies     int       `db:"total_replies"`
	ReputationScore  int       `db:"reputation_score"`
	BadgeLevel       string    `db:"badge_level"`
	FirstCommentAt   time.Time `db:"first_comment_at"`
	LastCommentAt    time.Time `db:"last_comment_at"`
	CreatedAt        time.Time `db:"created_at"`
	UpdatedAt        time.Time `db:"updated_at"`
}

type MysteryChallenge struct {
	ID               string    `db:"id"`
	TitleEn          string    `db:"title_en"`
	TitleSq          string    `db:"title_sq"`
	DescriptionEn    string    `db:"description_en"`
	DescriptionSq    string    `db:"description_sq"`
	CluesEn          *string   `db:"clues_en"`
	CluesSq          *string   `db:"clues_sq"`
	FeaturedImageURL *string   `db:"featured_image_url"`
	Deadline         time.Time `db:"deadline"`
	IsActive         bool      `db:"is_active"`
	WinnerID         *string   `db:"winner_id"`
	CreatedAt        time.Time `db:"created_at"`
	UpdatedAt        time.Time `db:"updated_at"`
}

type ChallengeTheory struct {
	ID            string    `db:"id"`
	ChallengeID   string    `db:"challenge_id"`
	UserName      string    `db:"user_name"`
	UserEmail     string    `db:"user_email"`
	TheoryContent string    `db:"theory_content"`
	Upvotes       int       `db:"upvotes"`
	IsWinner      bool      `db:"is_winner"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}

type TheoryVote struct {
	ID          string    `db:"id"`
	TheoryID    string    `db:"theory_id"`
	VoterEmail  string    `db:"voter_email"`
	Fingerprint string    `db:"fingerprint"`
	CreatedAt   time.Time `db:"created_at"`
}

type WhitelistedIP struct {
	ID          string    `db:"id"`
	IPAddress   string    `db:"ip_address"`
	Description *string   `db:"description"`
	IsActive    bool      `db:"is_active"`
	CreatedAt   time.Time `db:"created_at"`
}

type ServerMetricSample struct {
	ID                string    `db:"id"`
	CapturedAt        time.Time `db:"captured_at"`
	ProcessRSSBytes   int64     `db:"process_rss_bytes"`
	HeapAllocBytes    int64     `db:"heap_alloc_bytes"`
	Goroutines        int       `db:"goroutines"`
	SystemMemoryTotal int64     `db:"system_memory_total_bytes"`
	SystemMemoryUsed  int64     `db:"system_memory_used_bytes"`
	DiskTotalBytes    int64     `db:"disk_total_bytes"`
	DiskUsedBytes     int64     `db:"disk_used_bytes"`
	ProcessCpuLoad    float64   `db:"process_cpu_load"`
	SystemCpuLoad     float64   `db:"system_cpu_load"`
}
