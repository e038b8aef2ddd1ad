package lens

import "time"

// Rule type tags as returned by the Lens API.
const (
	RuleSimplePayment      = "SIMPLE_PAYMENT"
	RuleTokenGated         = "TOKEN_GATED"
	RuleMembershipApproval = "MEMBERSHIP_APPROVAL"
)

// Token standards accepted by token-gated rules.
const (
	StandardERC20  = "ERC20"
	StandardERC721 = "ERC721"
)

// GroupRule is the tagged union carried by a group. Exactly one field set
// besides Type and Required, depending on Type.
type GroupRule struct {
	Type     string `json:"type"`
	Required bool   `json:"required"`

	// SIMPLE_PAYMENT
	Recipient string `json:"recipient,omitempty"`
	Amount    string `json:"amount,omitempty"`
	Currency  string `json:"currency,omitempty"`

	// TOKEN_GATED
	Token    string `json:"token,omitempty"`
	Standard string `json:"standard,omitempty"`
	Symbol   string `json:"symbol,omitempty"`
	MinValue string `json:"minValue,omitempty"`

	// MEMBERSHIP_APPROVAL
	Approvers []string `json:"approvers,omitempty"`
}

// FirstRequired returns the first rule flagged required, or nil. The API
// schema allows a list but the application model supports one.
func FirstRequired(rules []GroupRule) *GroupRule {
	for i := range rules {
		if rules[i].Required {
			return &rules[i]
		}
	}
	return nil
}

type GroupMetadata struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon,omitempty"`
}

type Group struct {
	Address   string        `json:"address"`
	Owner     string        `json:"owner"`
	Timestamp time.Time     `json:"timestamp"`
	Metadata  GroupMetadata `json:"metadata"`
	Rules     []GroupRule   `json:"rules,omitempty"`
}

type GroupStats struct {
	Group        string `json:"group"`
	TotalMembers uint64 `json:"totalMembers"`
	TotalPosts   uint64 `json:"totalPosts"`
}

type Username struct {
	LocalName string `json:"localName"`
	Value     string `json:"value"`
}

type AccountMetadata struct {
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

type Account struct {
	Address  string           `json:"address"`
	Username *Username        `json:"username,omitempty"`
	Metadata *AccountMetadata `json:"metadata,omitempty"`
}

type FeedMetadata struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

type Feed struct {
	Address   string       `json:"address"`
	Group     string       `json:"group"`
	Timestamp time.Time    `json:"timestamp"`
	Metadata  FeedMetadata `json:"metadata"`
}

type PostStats struct {
	Comments  uint64 `json:"comments"`
	Upvotes   uint64 `json:"upvotes"`
	Downvotes uint64 `json:"downvotes"`
}

type PostMetadata struct {
	Title   string   `json:"title,omitempty"`
	Content string   `json:"content"`
	Tags    []string `json:"tags,omitempty"`
}

type Post struct {
	ID         string       `json:"id"`
	Feed       string       `json:"feed"`
	Author     Account      `json:"author"`
	Timestamp  time.Time    `json:"timestamp"`
	ContentURI string       `json:"contentUri"`
	Metadata   PostMetadata `json:"metadata"`
	CommentOn  string       `json:"commentOn,omitempty"`
	Hidden     bool         `json:"hidden"`
	Stats      PostStats    `json:"stats"`
}

// Transaction status values reported by the indexer.
const (
	TxPending   = "PENDING"
	TxFinalized = "FINALISED"
	TxFailed    = "FAILED"
)

type TxStatus struct {
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}
