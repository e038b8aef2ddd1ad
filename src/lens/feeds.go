package lens

import (
	"context"
	"encoding/json"
	"fmt"
)

// FetchFeed returns the feed at address.
func (c *Client) FetchFeed(ctx context.Context, address string) (*Feed, error) {
	body, err := c.get(ctx, "/feeds/"+address, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch feed %s: %w", address, err)
	}
	var feed Feed
	if err := json.Unmarshal(body, &feed); err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}
	return &feed, nil
}

// FetchFeedByTx returns the feed created by the given transaction.
func (c *Client) FetchFeedByTx(ctx context.Context, hash string) (*Feed, error) {
	body, err := c.get(ctx, "/transactions/"+hash+"/feed", nil)
	if err != nil {
		return nil, fmt.Errorf("fetch feed by tx %s: %w", hash, err)
	}
	var feed Feed
	if err := json.Unmarshal(body, &feed); err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}
	return &feed, nil
}

// CreateFeed creates a feed gated to members of group, returning the
// transaction hash.
func (s *SessionClient) CreateFeed(ctx context.Context, group, metadataURI string) (string, error) {
	req := map[string]string{
		"group":       group,
		"metadataUri": metadataURI,
	}
	body, err := s.post(ctx, "/feeds/create", req, s.authHeaders())
	if err != nil {
		return "", fmt.Errorf("create feed: %w", err)
	}
	var tx txResponse
	if err := json.Unmarshal(body, &tx); err != nil {
		return "", fmt.Errorf("parse create feed response: %w", err)
	}
	return tx.Hash, nil
}
