package lens

import (
	"context"
	"encoding/json"
	"fmt"
)

// FetchPost returns the post with the given id.
func (c *Client) FetchPost(ctx context.Context, id string) (*Post, error) {
	body, err := c.get(ctx, "/posts/"+id, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch post %s: %w", id, err)
	}
	var post Post
	if err := json.Unmarshal(body, &post); err != nil {
		return nil, fmt.Errorf("parse post: %w", err)
	}
	return &post, nil
}

// FetchPosts lists the posts of a feed, oldest first. A parent post id
// narrows the listing to its comments.
func (c *Client) FetchPosts(ctx context.Context, feed, commentOn string) ([]Post, error) {
	req := map[string]string{"feed": feed}
	if commentOn != "" {
		req["commentOn"] = commentOn
	}
	body, err := c.post(ctx, "/posts/list", req, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch posts: %w", err)
	}
	var out struct {
		Items []Post `json:"items"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("parse posts: %w", err)
	}
	return out.Items, nil
}

// FetchPostByTx returns the post created by the given transaction.
func (c *Client) FetchPostByTx(ctx context.Context, hash string) (*Post, error) {
	body, err := c.get(ctx, "/transactions/"+hash+"/post", nil)
	if err != nil {
		return nil, fmt.Errorf("fetch post by tx %s: %w", hash, err)
	}
	var post Post
	if err := json.Unmarshal(body, &post); err != nil {
		return nil, fmt.Errorf("parse post: %w", err)
	}
	return &post, nil
}

// CreatePost publishes a post on feed from contentURI. A non-empty
// commentOn id attaches it as a threaded comment.
func (s *SessionClient) CreatePost(ctx context.Context, feed, contentURI, commentOn string) (string, error) {
	req := map[string]string{
		"feed":       feed,
		"contentUri": contentURI,
	}
	if commentOn != "" {
		req["commentOn"] = commentOn
	}
	body, err := s.post(ctx, "/posts/create", req, s.authHeaders())
	if err != nil {
		return "", fmt.Errorf("create post: %w", err)
	}
	var tx txResponse
	if err := json.Unmarshal(body, &tx); err != nil {
		return "", fmt.Errorf("parse create post response: %w", err)
	}
	return tx.Hash, nil
}

// HidePost hides a post from feed listings. Moderation-only; this is not a
// chain transaction and takes effect immediately.
func (s *SessionClient) HidePost(ctx context.Context, id string) error {
	_, err := s.post(ctx, "/posts/hide", map[string]string{"post": id}, s.authHeaders())
	if err != nil {
		return fmt.Errorf("hide post: %w", err)
	}
	return nil
}

// UnhidePost reverses HidePost.
func (s *SessionClient) UnhidePost(ctx context.Context, id string) error {
	_, err := s.post(ctx, "/posts/unhide", map[string]string{"post": id}, s.authHeaders())
	if err != nil {
		return fmt.Errorf("unhide post: %w", err)
	}
	return nil
}

// AddReaction records an upvote/downvote on a post.
func (s *SessionClient) AddReaction(ctx context.Context, id, reaction string) error {
	req := map[string]string{"post": id, "reaction": reaction}
	_, err := s.post(ctx, "/posts/reactions/add", req, s.authHeaders())
	if err != nil {
		return fmt.Errorf("add reaction: %w", err)
	}
	return nil
}

// UndoReaction removes a previous reaction on a post.
func (s *SessionClient) UndoReaction(ctx context.Context, id, reaction string) error {
	req := map[string]string{"post": id, "reaction": reaction}
	_, err := s.post(ctx, "/posts/reactions/undo", req, s.authHeaders())
	if err != nil {
		return fmt.Errorf("undo reaction: %w", err)
	}
	return nil
}

// FetchAccount returns the account at address, or nil when none exists.
func (c *Client) FetchAccount(ctx context.Context, address string) (*Account, error) {
	body, err := c.get(ctx, "/accounts/"+address, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch account %s: %w", address, err)
	}
	var account Account
	if err := json.Unmarshal(body, &account); err != nil {
		return nil, fmt.Errorf("parse account: %w", err)
	}
	return &account, nil
}

// EnableSignless authorizes the Lens API to submit transactions for the
// session account without per-operation signatures.
func (s *SessionClient) EnableSignless(ctx context.Context) (string, error) {
	body, err := s.post(ctx, "/authentication/signless", map[string]string{}, s.authHeaders())
	if err != nil {
		return "", fmt.Errorf("enable signless: %w", err)
	}
	var tx txResponse
	if err := json.Unmarshal(body, &tx); err != nil {
		return "", fmt.Errorf("parse signless response: %w", err)
	}
	return tx.Hash, nil
}
