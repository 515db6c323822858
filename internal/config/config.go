package config

import (
	"os"
	"strconv"
	"strings"
)

// Config holds runtime configuration loaded from environment variables.
type Config struct {
	DatabaseURL       string
	RedisURL          string
	JWTSecret         string
	JWTIssuer         string
	AccessTTLSeconds  int64
	RefreshTTLSeconds int64
	PublicBaseURL     string
	CorsOrigins       []string

	// Anti-abuse providers.
	RecaptchaSecretKey     string
	EmailListVerifyAPIKey  string
	AbstractAPIKey         string
	CommentAutoApprove     bool
	VoteCooldownSeconds    int
	LoginAttemptLimit      int
	LoginAttemptWindowSecs int

	// Transactional email (SES).
	AWSRegion    string
	AWSAccessKey string
	AWSSecretKey string
	EmailFrom    string

	// Backups.
	BackupBucket        string
	BackupIntervalHours int
	BackupRetentionDays int
	ServiceKey          string
	AdminEmail          string
	AdminPassword       string

	MetricsDiskPath      string
	MetricsSampleSeconds int
}

func Load() Config {
	return Config{
		DatabaseURL:       mustEnv("DATABASE_URL"),
		RedisURL:          envOr("REDIS_URL", "redis://localhost:6379/0"),
		JWTSecret:         mustEnv("JWT_SECRET"),
		JWTIssuer:         envOr("JWT_ISSUER", "mysteria"),
		AccessTTLSeconds:  int64(envOrInt("ACCESS_TTL_SECONDS", 14400)),
		RefreshTTLSeconds: int64(envOrInt("REFRESH_TTL_SECONDS", 1209600)),
		PublicBaseURL:     envOr("PUBLIC_BASE_URL", "https://mysteriarealm.com"),
		CorsOrigins:       parseCSV(envOr("CORS_ORIGINS", "")),

		RecaptchaSecretKey:     os.Getenv("RECAPTCHA_SECRET_KEY"),
		EmailListVerifyAPIKey:  os.Getenv("EMAILLISTVERIFY_API_KEY"),
		AbstractAPIKey:         os.Getenv("ABSTRACT_API_KEY"),
		CommentAutoApprove:     envOrBool("COMMENT_AUTO_APPROVE", false),
		VoteCooldownSeconds:    envOrInt("VOTE_COOLDOWN_SECONDS", 300),
		LoginAttemptLimit:      envOrInt("LOGIN_ATTEMPT_LIMIT", 5),
		LoginAttemptWindowSecs: envOrInt("LOGIN_ATTEMPT_WINDOW_SECONDS", 900),

		AWSRegion:    envOr("AWS_REGION", "eu-central-1"),
		AWSAccessKey: os.Getenv("AWS_ACCESS_KEY_ID"),
		AWSSecretKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
		EmailFrom:    envOr("EMAIL_FROM", "Mysteria Realm <no-reply@mysteriarealm.com>"),

		BackupBucket:        envOr("BACKUP_BUCKET", "database-backups"),
		BackupIntervalHours: envOrInt("BACKUP_INTERVAL_HOURS", 24),
		BackupRetentionDays: envOrInt("BACKUP_RETENTION_DAYS", 30),
		ServiceKey:          os.Getenv("SERVICE_KEY"),
		AdminEmail:          os.Getenv("ADMIN_EMAIL"),
		AdminPassword:       os.Getenv("ADMIN_PASSWORD"),

		MetricsDiskPath:      envOr("METRICS_DISK_PATH", "storage"),
		MetricsSampleSeconds: envOrInt("METRICS_SAMPLE_INTERVAL", 5),
	}
}

func mustEnv(key string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		panic("missing env var: " + key)
	}
	return value
}

func envOr(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func envOrInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envOrBool(key string, fallback bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func parseCSV(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		value := strings.TrimSpace(part)
		if value != "" {
			items = append(items, value)
		}
	}
	return items
}
