package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"mysteria-backend-go/internal/config"
	"mysteria-backend-go/internal/services"
)

type Server struct {
	DB         *sqlx.DB
	Redis      *redis.Client
	Config     config.Config
	Tokens     services.TokenService
	Comments   *services.CommentService
	Challenges *services.ChallengeService
	Votes      *services.VoteService
	Guard      *services.LoginGuard
	Backups    *services.BackupService
	MetricsHub *services.MetricsHub
}

func NewServer(db *sqlx.DB, rdb *redis.Client, cfg config.Config, mailer services.EmailSender, backups *services.BackupService, hub *services.MetricsHub) *Server {
	tokens := services.TokenService{
		Secret:     []byte(cfg.JWTSecret),
		Issuer:     cfg.JWTIssuer,
		AccessTTL:  time.Duration(cfg.AccessTTLSeconds) * time.Second,
		RefreshTTL: time.Duration(cfg.RefreshTTLSeconds) * time.Second,
	}
	captcha := services.NewRecaptchaClient(cfg.RecaptchaSecretKey)
	return &Server{
		DB:     db,
		Redis:  rdb,
		Config: cfg,
		Tokens: tokens,
		Comments: &services.CommentService{
			DB:          db,
			Deliverable: services.NewEmailListVerifyClient(cfg.EmailListVerifyAPIKey),
			Mailer:      mailer,
			BaseURL:     cfg.PublicBaseURL,
			AutoApprove: cfg.CommentAutoApprove,
		},
		Challenges: &services.ChallengeService{
			DB:          db,
			Captcha:     captcha,
			Deliverable: services.NewAbstractEmailClient(cfg.AbstractAPIKey),
			Mailer:      mailer,
		},
		Votes: &services.VoteService{
			DB:       db,
			Redis:    rdb,
			Captcha:  captcha,
			Cooldown: time.Duration(cfg.VoteCooldownSeconds) * time.Second,
		},
		Guard: &services.LoginGuard{
			Redis:  rdb,
			Limit:  cfg.LoginAttemptLimit,
			Window: time.Duration(cfg.LoginAttemptWindowSecs) * time.Second,
		},
		Backups:    backups,
		MetricsHub: hub,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(RequestLogger)
	corsOrigins := s.Config.CorsOrigins
	if len(corsOrigins) == 0 {
		corsOrigins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Service-Key"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Route("/api", func(api chi.Router) {
		api.Route("/auth", func(auth chi.Router) {
			auth.Post("/login", s.Login)
			auth.Post("/refresh", s.Refresh)
			auth.Post("/logout", s.Logout)
		})

		api.Route("/public", func(pub chi.Router) {
			pub.Get("/check-admin-ip", s.CheckAdminIP)
			pub.Get("/search", s.PublicSearch)
			pub.Get("/categories", s.PublicCategories)
			pub.Get("/leaderboard", s.PublicLeaderboard)

			pub.Route("/articles", func(articles chi.Router) {
				articles.Get("/", s.PublicArticles)
				articles.Get("/{slug}", s.PublicArticleDetail)
				articles.Post("/{articleId}/views", s.TrackArticleView)
				articles.Get("/{articleId}/comments", s.ArticleComments)
			})

			pub.Post("/submit-comment", s.SubmitComment)
			pub.Get("/verify-comment", s.VerifyComment)

			pub.Route("/challenge", func(challenge chi.Router) {
				challenge.Get("/active", s.ActiveChallenge)
				challenge.Get("/{challengeId}/theories", s.ChallengeTheories)
			})
			pub.Post("/submit-theory", s.SubmitTheory)
			pub.Post("/submit-vote", s.SubmitVote)
		})

		api.Route("/admin", func(admin chi.Router) {
			admin.Use(WithAuth(s.Tokens))
			admin.Use(RequireRole("ADMIN"))

			admin.Route("/articles", func(articles chi.Router) {
				articles.Get("/", s.AdminListArticles)
				articles.Post("/", s.AdminCreateArticle)
				articles.Put("/{articleId}", s.AdminUpdateArticle)
				articles.Delete("/{articleId}", s.AdminDeleteArticle)
			})
			admin.Route("/categories", func(categories chi.Router) {
				categories.Post("/", s.AdminCreateCategory)
				categories.Put("/{categoryId}", s.AdminUpdateCategory)
				categories.Delete("/{categoryId}", s.AdminDeleteCategory)
			})
			admin.Route("/comments", func(comments chi.Router) {
				comments.Get("/pending", s.AdminPendingComments)
				comments.Post("/{commentId}/approve", s.AdminApproveComment)
				comments.Delete("/{commentId}", s.AdminDeleteComment)
			})
			admin.Route("/challenges", func(challenges chi.Router) {
				challenges.Get("/", s.AdminListChallenges)
				challenges.Post("/", s.AdminCreateChallenge)
				challenges.Put("/{challengeId}", s.AdminUpdateChallenge)
				challenges.Post("/theories/{theoryId}/winner", s.AdminMarkWinner)
			})
			admin.Route("/whitelist", func(whitelist chi.Router) {
				whitelist.Get("/", s.AdminListWhitelist)
				whitelist.Post("/", s.AdminAddWhitelistIP)
				whitelist.Delete("/{entryId}", s.AdminRemoveWhitelistIP)
			})
			admin.Get("/metrics/history", s.MetricsHistory)
		})

		api.Route("/service", func(service chi.Router) {
			service.Use(s.RequireServiceKey)
			service.Post("/database-backup", s.RunBackup)
			service.Post("/restore-backup", s.RestoreBackup)
		})
	})

	r.Get("/ws/metrics", s.MetricsSocket)
	return r
}
