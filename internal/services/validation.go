package services

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
)

const (
	MaxNameLength    = 100
	MaxEmailLength   = 255
	MaxContentLength = 5000
)

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	// Letters (incl. Latin Extended for Albanian ë/ç), digits, spaces,
	// apostrophes, periods, commas and hyphens.
	namePattern    = regexp.MustCompile(`^[a-zA-Z0-9\s\x{00C0}-\x{024F}\x{1E00}-\x{1EFF}'.,-]+$`)
	htmlTagPattern = regexp.MustCompile(`<[^>]*>`)
	whitespaceRuns = regexp.MustCompile(`\s+`)
)

// ValidateEmail trims, lowercases and format-checks an address. Runs before
// any database or provider call.
func ValidateEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return "", ErrBadRequest("Email cannot be empty")
	}
	if len(email) > MaxEmailLength {
		return "", ErrBadRequest("Email must be less than 255 characters")
	}
	if !emailPattern.MatchString(email) {
		return "", ErrBadRequest("Invalid email format")
	}
	return email, nil
}

func ValidateName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", ErrBadRequest("Name cannot be empty")
	}
	// Counted in runes so names with ë or ç get the full limit.
	if utf8.RuneCountInString(name) > MaxNameLength {
		return "", ErrBadRequest("Name must be less than 100 characters")
	}
	if !namePattern.MatchString(name) {
		return "", ErrBadRequest("Name can only contain letters, numbers, spaces, apostrophes, periods, commas, and hyphens")
	}
	return SanitizePlainText(name), nil
}

func ValidateContent(raw string) (string, error) {
	content := strings.TrimSpace(raw)
	if content == "" {
		return "", ErrBadRequest("Content cannot be empty")
	}
	if utf8.RuneCountInString(content) > MaxContentLength {
		return "", ErrBadRequest("Content must be less than 5000 characters")
	}
	return SanitizePlainText(content), nil
}

func ValidateUUID(raw, message string) (string, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", ErrBadRequest(message)
	}
	return id.String(), nil
}

// SanitizePlainText strips all HTML tags and decodes the common entities so
// stored text never round-trips markup back to the page.
func SanitizePlainText(input string) string {
	sanitized := htmlTagPattern.ReplaceAllString(input, "")
	replacer := strings.NewReplacer(
		"&lt;", "<",
		"&gt;", ">",
		"&amp;", "&",
		"&quot;", `"`,
		"&#x27;", "'",
	)
	return strings.TrimSpace(replacer.Replace(sanitized))
}

func Slugify(value string) string {
	lower := strings.ToLower(strings.TrimSpace(value))
	var b strings.Builder
	lastDash := false
	for _, r := range lower {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastDash = false
			continue
		}
		if !lastDash {
			b.WriteRune('-')
			lastDash = true
		}
	}
	slug := strings.Trim(b.String(), "-")
	if slug == "" {
		return uuid.NewString()
	}
	return slug
}

func CleanSearchTerm(term string) string {
	cleaned := strings.TrimSpace(term)
	return whitespaceRuns.ReplaceAllString(cleaned, " ")
}
