// Package hunter checks email deliverability with the Hunter email-verifier
// API. Registration only proceeds for addresses Hunter reports as valid.
package hunter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	apperr "cookbook/internal/errors"
)

const (
	defaultBaseURL = "https://api.hunter.io"
	defaultTimeout = 10 * time.Second
	statusValid    = "valid"
)

// ErrUndeliverable reports an address Hunter did not classify as valid.
var ErrUndeliverable = errors.New("hunter: email address is not valid")

// Config describes how the Hunter client is initialised.
type Config struct {
	APIKey     string
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client calls the Hunter email verifier.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewClient builds a Client.
func NewClient(cfg Config) (*Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("hunter: api key must not be empty")
	}

	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: timeout,
		}
	}

	return &Client{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}, nil
}

// Verify returns nil when Hunter answers 200 with status "valid". Any other
// verdict, including Hunter rejecting the address format, wraps
// ErrUndeliverable. Transport failures and other statuses are reported as
// SERVICE_UNAVAILABLE.
func (c *Client) Verify(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return undeliverable(email)
	}

	query := url.Values{}
	query.Set("email", email)
	query.Set("api_key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v2/email-verifier?"+query.Encode(), nil)
	if err != nil {
		return apperr.Wrap(apperr.ErrCodeInternal, "build email verification request", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperr.Wrap(apperr.ErrCodeUnavailable, "Email verification is unavailable.", fmt.Errorf("hunter: call verifier: %w", err))
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return undeliverable(email)
	default:
		return apperr.Wrap(apperr.ErrCodeUnavailable, "Email verification is unavailable.",
			fmt.Errorf("hunter: verifier returned status %s", resp.Status))
	}

	var payload struct {
		Data struct {
			Status string `json:"status"`
			Result string `json:"result"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return apperr.Wrap(apperr.ErrCodeUnavailable, "Email verification is unavailable.", fmt.Errorf("hunter: decode response: %w", err))
	}
	if payload.Data.Status != statusValid {
		return undeliverable(email).WithContext("status", payload.Data.Status)
	}
	return nil
}

// AcceptAll is a verifier that accepts every address. It backs local runs
// with verification explicitly disabled.
type AcceptAll struct{}

// Verify always returns nil.
func (AcceptAll) Verify(context.Context, string) error { return nil }

func undeliverable(email string) *apperr.StructuredError {
	return apperr.Wrap(apperr.ErrCodeInvalidRequest, fmt.Sprintf("Email address %s is not valid.", email), ErrUndeliverable)
}
