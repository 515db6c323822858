package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const recaptchaVerifyURL = "https://www.google.com/recaptcha/api/siteverify"

// CaptchaVerifier is satisfied by RecaptchaClient and by test fakes.
type CaptchaVerifier interface {
	Verify(ctx context.Context, token string) error
}

// RecaptchaClient verifies proof-of-humanity tokens against Google's
// siteverify endpoint. Every failure fails closed.
type RecaptchaClient struct {
	Secret     string
	BaseURL    string
	HTTPClient *http.Client
}

func NewRecaptchaClient(secret string) *RecaptchaClient {
	return &RecaptchaClient{
		Secret:     secret,
		BaseURL:    recaptchaVerifyURL,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type recaptchaResponse struct {
	Success    bool     `json:"success"`
	ErrorCodes []string `json:"error-codes"`
}

func (c *RecaptchaClient) Verify(ctx context.Context, token string) error {
	if c.Secret == "" {
		return ErrInternal("Server configuration error")
	}
	form := url.Values{}
	form.Set("secret", c.Secret)
	form.Set("response", token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL, strings.NewReader(form.Encode()))
	if err != nil {
		return ErrBadRequest("reCAPTCHA verification failed. Please try again.")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return ErrBadRequest("reCAPTCHA verification failed. Please try again.")
	}
	defer resp.Body.Close()

	var result recaptchaResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return ErrBadRequest("reCAPTCHA verification failed. Please try again.")
	}
	if !result.Success {
		return ErrBadRequest("reCAPTCHA verification failed. Please try again.")
	}
	return nil
}
