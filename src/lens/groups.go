package lens

import (
	"context"
	"encoding/json"
	"fmt"
)

type txResponse struct {
	Hash string `json:"hash"`
}

// FetchGroup returns the group at address.
func (c *Client) FetchGroup(ctx context.Context, address string) (*Group, error) {
	body, err := c.get(ctx, "/groups/"+address, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch group %s: %w", address, err)
	}
	var group Group
	if err := json.Unmarshal(body, &group); err != nil {
		return nil, fmt.Errorf("parse group: %w", err)
	}
	return &group, nil
}

// FetchGroups returns the groups for the given addresses in one request.
// Addresses unknown upstream are simply absent from the result.
func (c *Client) FetchGroups(ctx context.Context, addresses []string) ([]Group, error) {
	req := map[string]any{"addresses": addresses}
	body, err := c.post(ctx, "/groups/fetch", req, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch groups: %w", err)
	}
	var out struct {
		Items []Group `json:"items"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("parse groups: %w", err)
	}
	return out.Items, nil
}

// FetchGroupStats returns member/post counters for the given group addresses.
func (c *Client) FetchGroupStats(ctx context.Context, addresses []string) ([]GroupStats, error) {
	req := map[string]any{"addresses": addresses}
	body, err := c.post(ctx, "/groups/stats", req, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch group stats: %w", err)
	}
	var out struct {
		Items []GroupStats `json:"items"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("parse group stats: %w", err)
	}
	return out.Items, nil
}

// GroupAdmins pairs a group address with its admin accounts.
type GroupAdmins struct {
	Group string    `json:"group"`
	Items []Account `json:"items"`
}

// FetchAdminsFor returns the admin accounts for the given group addresses.
func (c *Client) FetchAdminsFor(ctx context.Context, addresses []string) ([]GroupAdmins, error) {
	req := map[string]any{"addresses": addresses}
	body, err := c.post(ctx, "/groups/admins", req, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch group admins: %w", err)
	}
	var out struct {
		Items []GroupAdmins `json:"items"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("parse group admins: %w", err)
	}
	return out.Items, nil
}

// FetchGroupByTx returns the group created by the given transaction, once
// the indexer has picked it up.
func (c *Client) FetchGroupByTx(ctx context.Context, hash string) (*Group, error) {
	body, err := c.get(ctx, "/transactions/"+hash+"/group", nil)
	if err != nil {
		return nil, fmt.Errorf("fetch group by tx %s: %w", hash, err)
	}
	var group Group
	if err := json.Unmarshal(body, &group); err != nil {
		return nil, fmt.Errorf("parse group: %w", err)
	}
	return &group, nil
}

// CreateGroup submits a group creation for the given metadata URI and admin,
// returning the transaction hash.
func (s *SessionClient) CreateGroup(ctx context.Context, metadataURI, admin string, rules []GroupRule) (string, error) {
	req := map[string]any{
		"metadataUri": metadataURI,
		"admin":       admin,
	}
	if len(rules) > 0 {
		req["rules"] = rules
	}
	body, err := s.post(ctx, "/groups/create", req, s.authHeaders())
	if err != nil {
		return "", fmt.Errorf("create group: %w", err)
	}
	var tx txResponse
	if err := json.Unmarshal(body, &tx); err != nil {
		return "", fmt.Errorf("parse create group response: %w", err)
	}
	return tx.Hash, nil
}

// SetGroupMetadata points the group at a new metadata URI.
func (s *SessionClient) SetGroupMetadata(ctx context.Context, group, metadataURI string) (string, error) {
	req := map[string]string{
		"group":       group,
		"metadataUri": metadataURI,
	}
	body, err := s.post(ctx, "/groups/metadata", req, s.authHeaders())
	if err != nil {
		return "", fmt.Errorf("set group metadata: %w", err)
	}
	var tx txResponse
	if err := json.Unmarshal(body, &tx); err != nil {
		return "", fmt.Errorf("parse set metadata response: %w", err)
	}
	return tx.Hash, nil
}

// UpdateGroupRules replaces the group's membership rules.
func (s *SessionClient) UpdateGroupRules(ctx context.Context, group string, rules []GroupRule) (string, error) {
	req := map[string]any{
		"group": group,
		"rules": rules,
	}
	body, err := s.post(ctx, "/groups/rules", req, s.authHeaders())
	if err != nil {
		return "", fmt.Errorf("update group rules: %w", err)
	}
	var tx txResponse
	if err := json.Unmarshal(body, &tx); err != nil {
		return "", fmt.Errorf("parse update rules response: %w", err)
	}
	return tx.Hash, nil
}

// JoinGroup joins the session account to the group.
func (s *SessionClient) JoinGroup(ctx context.Context, group string) (string, error) {
	body, err := s.post(ctx, "/groups/join", map[string]string{"group": group}, s.authHeaders())
	if err != nil {
		return "", fmt.Errorf("join group: %w", err)
	}
	var tx txResponse
	if err := json.Unmarshal(body, &tx); err != nil {
		return "", fmt.Errorf("parse join response: %w", err)
	}
	return tx.Hash, nil
}

// LeaveGroup removes the session account from the group.
func (s *SessionClient) LeaveGroup(ctx context.Context, group string) (string, error) {
	body, err := s.post(ctx, "/groups/leave", map[string]string{"group": group}, s.authHeaders())
	if err != nil {
		return "", fmt.Errorf("leave group: %w", err)
	}
	var tx txResponse
	if err := json.Unmarshal(body, &tx); err != nil {
		return "", fmt.Errorf("parse leave response: %w", err)
	}
	return tx.Hash, nil
}
