package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	httpclient "github.com/appleboy/go-httpclient"

	"github.com/HackRU/CTFd/internal/config"
)

// RegistrationClient wraps the external registration API used for
// credential login. Calls are synchronous with a single attempt; a
// non-success response is terminal for the request.
type RegistrationClient struct {
	baseURL string
	client  *http.Client
}

// NewRegistrationClient creates a client for the registration API.
func NewRegistrationClient(cfg *config.Config) *RegistrationClient {
	client := httpclient.NewAuthClient(
		"none", "",
		httpclient.WithTimeout(cfg.RegistrationAPITimeout),
	)

	return &RegistrationClient{
		baseURL: cfg.RegistrationAPIURL,
		client:  client,
	}
}

// authorizeRequest is the payload for POST /authorize
type authorizeRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// authorizeResponse carries the API's enveloped status and token. The
// HTTP layer always answers 200; success is signalled by the statusCode
// field in the body.
type authorizeResponse struct {
	StatusCode int `json:"statusCode"`
	Body       struct {
		Token string `json:"token"`
	} `json:"body"`
}

// readRequest is the payload for POST /read
type readRequest struct {
	Email string `json:"email"`
	Token string `json:"token"`
	Query struct {
		Email string `json:"email"`
	} `json:"query"`
}

type readResponse struct {
	StatusCode int            `json:"statusCode"`
	Body       []Registration `json:"body"`
}

// Registration is the user's record at the registration API.
type Registration struct {
	FirstName          string `json:"first_name"`
	LastName           string `json:"last_name"`
	School             string `json:"school"`
	RegistrationStatus string `json:"registration_status"`
}

// Name assembles the display name from the registration record.
func (r *Registration) Name() string {
	return r.FirstName + " " + r.LastName
}

// Confirmed reports whether the external registration has been completed.
func (r *Registration) Confirmed() bool {
	return r.RegistrationStatus == "confirmed"
}

// Authorize submits credentials to the registration API and returns the
// short-lived API token on success. A statusCode other than 200 in the
// response body maps to ErrAuthRejected.
func (c *RegistrationClient) Authorize(ctx context.Context, email, password string) (string, error) {
	var resp authorizeResponse
	if err := c.post(ctx, "/authorize", authorizeRequest{
		Email:    email,
		Password: password,
	}, &resp); err != nil {
		return "", err
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d", ErrAuthRejected, resp.StatusCode)
	}
	if resp.Body.Token == "" {
		return "", fmt.Errorf("%w: authorize succeeded but no token returned", ErrAPIInvalidResp)
	}
	return resp.Body.Token, nil
}

// Read exchanges the API token for the user's registration record.
func (c *RegistrationClient) Read(ctx context.Context, email, token string) (*Registration, error) {
	req := readRequest{Email: email, Token: token}
	req.Query.Email = email

	var resp readResponse
	if err := c.post(ctx, "/read", req, &resp); err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrAuthRejected, resp.StatusCode)
	}
	if len(resp.Body) == 0 {
		return nil, fmt.Errorf("%w: read returned no records", ErrAPIInvalidResp)
	}
	return &resp.Body[0], nil
}

func (c *RegistrationClient) post(ctx context.Context, path string, payload, out any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.baseURL+path,
		bytes.NewReader(data),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrAPIConnection, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrAPIConnection, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: failed to read response", ErrAPIInvalidResp)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bodyPreview := string(body)
		if len(bodyPreview) > 200 {
			bodyPreview = bodyPreview[:200] + "..."
		}
		return fmt.Errorf("%w: HTTP %d - %s", ErrAPIInvalidResp, resp.StatusCode, bodyPreview)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: %v", ErrAPIInvalidResp, err)
	}
	return nil
}
