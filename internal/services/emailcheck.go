package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	emailListVerifyURL = "https://apps.emaillistverify.com/api/verifyEmail"
	abstractAPIURL     = "https://emailvalidation.abstractapi.com/v1/"
)

// DeliverabilityChecker is the shared shape of both provider clients.
type DeliverabilityChecker interface {
	Check(ctx context.Context, email string) error
}

// EmailListVerifyClient gates comment submissions. The provider answers with a
// bare status string; disposable/invalid/disabled addresses are rejected,
// ok/ok_for_all/unknown are accepted. Provider outages fail closed here since
// the comment flow has no second line of defense.
type EmailListVerifyClient struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

func NewEmailListVerifyClient(apiKey string) *EmailListVerifyClient {
	return &EmailListVerifyClient{
		APIKey:     apiKey,
		BaseURL:    emailListVerifyURL,
		HTTPClient: &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *EmailListVerifyClient) Check(ctx context.Context, email string) error {
	if c.APIKey == "" {
		return ErrInternal("Email validation service not configured")
	}
	endpoint := fmt.Sprintf("%s?secret=%s&email=%s", c.BaseURL, url.QueryEscape(c.APIKey), url.QueryEscape(email))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return ErrBadRequest("Email validation failed")
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return ErrBadRequest("Email verification service unavailable")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return ErrBadRequest("Email verification service unavailable")
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return ErrBadRequest("Email validation failed")
	}
	switch status := strings.TrimSpace(string(body)); status {
	case "ok", "ok_for_all", "unknown":
		return nil
	case "disposable":
		return ErrBadRequest("Disposable email addresses are not allowed. Please use a real email address.")
	case "invalid_syntax":
		return ErrBadRequest("Invalid email format. Please check your email address.")
	case "email_disabled":
		return ErrBadRequest("This email address appears to be disabled or inactive.")
	default:
		return ErrBadRequest("This email address could not be verified. Please use a valid email address.")
	}
}

// AbstractEmailClient gates theory submissions. Unlike the comment gate it
// fails open on provider errors: theories are additionally protected by
// reCAPTCHA, so an API outage should not block the challenge.
type AbstractEmailClient struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

func NewAbstractEmailClient(apiKey string) *AbstractEmailClient {
	return &AbstractEmailClient{
		APIKey:     apiKey,
		BaseURL:    abstractAPIURL,
		HTTPClient: &http.Client{Timeout: 15 * time.Second},
	}
}

type abstractResponse struct {
	Deliverability string `json:"deliverability"`
	IsValidFormat  struct {
		Value bool `json:"value"`
	} `json:"is_valid_format"`
}

func (c *AbstractEmailClient) Check(ctx context.Context, email string) error {
	if c.APIKey == "" {
		return nil
	}
	endpoint := fmt.Sprintf("%s?api_key=%s&email=%s", c.BaseURL, url.QueryEscape(c.APIKey), url.QueryEscape(email))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		log.Printf("abstract email validation: %v", err)
		return nil
	}
	defer resp.Body.Close()
	var result abstractResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		log.Printf("abstract email validation decode: %v", err)
		return nil
	}
	if !result.IsValidFormat.Value || result.Deliverability != "DELIVERABLE" {
		return ErrBadRequest("Email address is not valid or deliverable")
	}
	return nil
}
