// Package storage talks to the Grove content-addressed store. Everything
// uploaded by the forum is immutable and scoped to the Lens chain id.
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/lensforum/lensforum/src/webclient"
)

const defaultTimeout = 30 * time.Second

// URIScheme prefixes every content URI handed back by Grove.
const URIScheme = "lens://"

type Client struct {
	endpoint   string
	gateway    string
	chainID    uint64
	httpClient *http.Client
}

// NewClient creates a Grove client. endpoint receives uploads, gateway
// serves resolved content, chainID scopes the immutable ACL.
func NewClient(endpoint, gateway string, chainID uint64) *Client {
	return &Client{
		endpoint:   strings.TrimSuffix(endpoint, "/"),
		gateway:    strings.TrimSuffix(gateway, "/"),
		chainID:    chainID,
		httpClient: webclient.NewDefault(defaultTimeout),
	}
}

type uploadResponse struct {
	URI string `json:"uri"`
}

// UploadJSON stores v as a JSON document and returns its content URI.
func (c *Client) UploadJSON(ctx context.Context, v interface{}) (string, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}
	return c.upload(ctx, "application/json", payload)
}

// UploadFile stores raw bytes (an image, typically) and returns the URI.
func (c *Client) UploadFile(ctx context.Context, contentType string, data []byte) (string, error) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return c.upload(ctx, contentType, data)
}

func (c *Client) upload(ctx context.Context, contentType string, data []byte) (string, error) {
	url := fmt.Sprintf("%s/upload?chain_id=%d", c.endpoint, c.chainID)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	// Grove marks uploads immutable via the ACL header; there is no
	// mutable mode for forum content.
	req.Header.Set("X-Grove-ACL", fmt.Sprintf("immutable:%d", c.chainID))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("upload: HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out uploadResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("parse upload response: %w", err)
	}
	if !strings.HasPrefix(out.URI, URIScheme) {
		return "", fmt.Errorf("unexpected content uri %q", out.URI)
	}
	return out.URI, nil
}

// Resolve converts a lens:// URI into a gateway URL. Other URIs pass
// through unchanged.
func (c *Client) Resolve(uri string) string {
	if !strings.HasPrefix(uri, URIScheme) {
		return uri
	}
	return c.gateway + "/" + strings.TrimPrefix(uri, URIScheme)
}
