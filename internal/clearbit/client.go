// Package clearbit looks up the person and company behind an email address.
// Results are informational only: lookups run in the background and their
// outcome is logged, never returned to the caller that triggered them.
package clearbit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	applog "cookbook/internal/log"
)

const (
	defaultBaseURL = "https://person.clearbit.com"
	defaultTimeout = 10 * time.Second
)

// Config describes how the Clearbit client is initialised.
type Config struct {
	APIKey     string
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Profile is the subset of a combined enrichment record that is kept.
type Profile struct {
	FullName    string
	CompanyName string
}

// Client calls the Clearbit combined enrichment endpoint.
type Client struct {
	apiKey     string
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
	wg         sync.WaitGroup
}

// NewClient builds a Client.
func NewClient(cfg Config) (*Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("clearbit: api key must not be empty")
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
		timeout:    timeout,
		httpClient: httpClient,
	}, nil
}

// Lookup fetches the combined record for email. A record Clearbit does not
// have yet, or does not know, yields an empty Profile.
func (c *Client) Lookup(ctx context.Context, email string) (Profile, error) {
	query := url.Values{}
	query.Set("email", strings.TrimSpace(email))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v2/combined/find?"+query.Encode(), nil)
	if err != nil {
		return Profile{}, fmt.Errorf("clearbit: build request: %w", err)
	}
	req.SetBasicAuth(c.apiKey, "")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Profile{}, fmt.Errorf("clearbit: call enrichment: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusAccepted, http.StatusNotFound:
		return Profile{}, nil
	default:
		return Profile{}, fmt.Errorf("clearbit: enrichment returned status %s", resp.Status)
	}

	var payload struct {
		Person *struct {
			Name struct {
				FullName string `json:"fullName"`
			} `json:"name"`
		} `json:"person"`
		Company *struct {
			Name string `json:"name"`
		} `json:"company"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Profile{}, fmt.Errorf("clearbit: decode response: %w", err)
	}

	var profile Profile
	if payload.Person != nil {
		profile.FullName = payload.Person.Name.FullName
	}
	if payload.Company != nil {
		profile.CompanyName = payload.Company.Name
	}
	return profile, nil
}

// Enrich looks email up in the background and logs what it finds. It returns
// immediately. The lookup keeps the values of ctx but not its cancellation,
// and is bounded by the client timeout.
func (c *Client) Enrich(ctx context.Context, email string) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()

		lookupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
		defer cancel()

		profile, err := c.Lookup(lookupCtx, email)
		if err != nil {
			applog.Warn(lookupCtx, "enrichment lookup failed", "email", email, "error", err)
			return
		}
		if profile == (Profile{}) {
			applog.Debug(lookupCtx, "enrichment found nothing", "email", email)
			return
		}
		applog.Info(lookupCtx, "enrichment result", "email", email, "full_name", profile.FullName, "company", profile.CompanyName)
	}()
}

// Wait blocks until every background lookup started by Enrich has finished.
func (c *Client) Wait() {
	c.wg.Wait()
}

// Discard is an enricher that does nothing. It stands in when no API key is
// configured.
type Discard struct{}

// Enrich does nothing.
func (Discard) Enrich(context.Context, string) {}
