// Package nm talks to the external NM partner platform over its REST API.
package nm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// TokenResponse is the partner's client-credentials grant response.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// SubjectPayload is one subject inside a course publish payload.
type SubjectPayload struct {
	Title   string `json:"title"`
	Content string `json:"content,omitempty"`
}

// CoursePayload is the partner-shaped course publish request body.
type CoursePayload struct {
	CourseCode  string           `json:"courseCode"`
	Title       string           `json:"title"`
	Description string           `json:"description,omitempty"`
	Objectives  []string         `json:"objectives,omitempty"`
	Subjects    []SubjectPayload `json:"subjects"`
}

// ProgressPayload is the progress patch forwarded to the partner.
type ProgressPayload struct {
	NmUserID   string                 `json:"nmUserId"`
	CourseCode string                 `json:"courseCode"`
	Progress   map[string]interface{} `json:"progress"`
}

// UpstreamError carries a non-2xx partner response verbatim. No retry or
// backoff is applied anywhere; the caller sees exactly what the partner said.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("partner API returned %d: %s", e.StatusCode, e.Body)
}

// API is the subset of partner operations the services depend on.
type API interface {
	ClientCredentialsGrant(ctx context.Context) (*TokenResponse, error)
	PublishCourse(ctx context.Context, accessToken string, payload *CoursePayload) (json.RawMessage, error)
	PushProgress(ctx context.Context, accessToken string, payload *ProgressPayload) error
}

// Client is the HTTP implementation of API.
type Client struct {
	baseURL      string
	clientID     string
	clientSecret string
	httpClient   *http.Client
}

// NewClient creates a partner API client for the given base URL and
// client-credential pair.
func NewClient(baseURL, clientID, clientSecret string) *Client {
	return &Client{
		baseURL:      baseURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
	}
}

// ClientCredentialsGrant performs one OAuth client-credentials grant against
// the partner token endpoint.
func (c *Client) ClientCredentialsGrant(ctx context.Context) (*TokenResponse, error) {
	body := map[string]string{
		"client_id":     c.clientID,
		"client_secret": c.clientSecret,
		"grant_type":    "client_credentials",
	}

	raw, err := c.post(ctx, "/oauth/token", "", body)
	if err != nil {
		return nil, err
	}

	var token TokenResponse
	if err := json.Unmarshal(raw, &token); err != nil {
		return nil, fmt.Errorf("decode token response: %w", err)
	}
	if token.AccessToken == "" {
		return nil, fmt.Errorf("token response missing access_token")
	}
	return &token, nil
}

// PublishCourse POSTs a course payload to the partner ingest endpoint.
func (c *Client) PublishCourse(ctx context.Context, accessToken string, payload *CoursePayload) (json.RawMessage, error) {
	return c.post(ctx, "/courses", accessToken, payload)
}

// PushProgress forwards a progress patch to the partner.
func (c *Client) PushProgress(ctx context.Context, accessToken string, payload *ProgressPayload) error {
	_, err := c.post(ctx, "/progress", accessToken, payload)
	return err
}

func (c *Client) post(ctx context.Context, path, accessToken string, body interface{}) (json.RawMessage, error) {
	encoded, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(encoded))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	return raw, nil
}
