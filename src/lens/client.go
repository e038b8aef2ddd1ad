package lens

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/lensforum/lensforum/src/webclient"
)

const defaultTimeout = 30 * time.Second

// Client is a read-only Lens API client. Write operations require a
// SessionClient obtained through Login.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// SessionClient is an authenticated handle to the Lens API write operations.
type SessionClient struct {
	*Client
	accessToken string
	address     string
}

// NewClient creates a Lens API client rooted at endpoint.
func NewClient(endpoint string) *Client {
	return &Client{
		endpoint:   endpoint,
		httpClient: webclient.NewDefault(defaultTimeout),
	}
}

// WithToken wraps an access token obtained elsewhere (a user's wallet
// session, typically) into a session client acting as address.
func (c *Client) WithToken(token, address string) *SessionClient {
	return &SessionClient{
		Client:      c,
		accessToken: token,
		address:     address,
	}
}

// Address returns the account address this session acts as.
func (s *SessionClient) Address() string { return s.address }

type challengeResponse struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

type authenticateResponse struct {
	AccessToken string `json:"accessToken"`
	ExpiresAt   string `json:"expiresAt"`
}

// Login runs the challenge/sign/authenticate flow for the signer's address
// and returns a session client on success.
func (c *Client) Login(ctx context.Context, signer Signer) (*SessionClient, error) {
	challengeReq := map[string]string{
		"address": signer.Address(),
		"role":    "accountOwner",
	}

	resp, err := c.post(ctx, "/authentication/challenge", challengeReq, nil)
	if err != nil {
		return nil, fmt.Errorf("challenge failed: %w", err)
	}

	var challenge challengeResponse
	if err := json.Unmarshal(resp, &challenge); err != nil {
		return nil, fmt.Errorf("parse challenge response: %w", err)
	}

	signature, err := signer.Sign([]byte(challenge.Text))
	if err != nil {
		return nil, fmt.Errorf("sign challenge: %w", err)
	}

	authReq := map[string]string{
		"id":        challenge.ID,
		"signature": "0x" + fmt.Sprintf("%x", signature),
	}

	resp, err = c.post(ctx, "/authentication/authenticate", authReq, nil)
	if err != nil {
		return nil, fmt.Errorf("authenticate failed: %w", err)
	}

	var auth authenticateResponse
	if err := json.Unmarshal(resp, &auth); err != nil {
		return nil, fmt.Errorf("parse authenticate response: %w", err)
	}
	if auth.AccessToken == "" {
		return nil, fmt.Errorf("authenticate: empty access token")
	}

	return &SessionClient{
		Client:      c,
		accessToken: auth.AccessToken,
		address:     signer.Address(),
	}, nil
}

// HTTPError represents a non-200 Lens API response.
type HTTPError struct {
	StatusCode int
	Body       []byte
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

func (s *SessionClient) authHeaders() map[string]string {
	return map[string]string{
		"Authorization": "Bearer " + s.accessToken,
	}
}

func (c *Client) post(ctx context.Context, path string, body interface{}, headers map[string]string) ([]byte, error) {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.endpoint+path, bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return c.do(req)
}

func (c *Client) get(ctx context.Context, path string, headers map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.endpoint+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return c.do(req)
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &HTTPError{
			StatusCode: resp.StatusCode,
			Body:       respBody,
		}
	}

	return respBody, nil
}
