// Package adapters maps Lens API shapes plus local rows onto the forum's
// own domain types. Pure functions, no I/O; missing optional fields fall
// back to literals rather than erroring.
package adapters

import (
	"time"

	"github.com/lensforum/lensforum/src/api/types"
	"github.com/lensforum/lensforum/src/lens"
)

const unknownAuthor = "Unknown Author"

type Moderator struct {
	Address     string `json:"address"`
	DisplayName string `json:"displayName"`
	Username    string `json:"username"`
	Picture     string `json:"picture"`
}

type Community struct {
	Address      string           `json:"address"`
	Name         string           `json:"name"`
	Description  string           `json:"description"`
	Logo         string           `json:"logo"`
	Owner        string           `json:"owner"`
	MemberCount  int64            `json:"memberCount"`
	PostCount    int64            `json:"postCount"`
	ThreadsCount int64            `json:"threadsCount"`
	Moderators   []Moderator      `json:"moderators"`
	Rules        []lens.GroupRule `json:"rules,omitempty"`
	Featured     bool             `json:"featured"`
	CreatedAt    time.Time        `json:"createdAt"`
}

type Reply struct {
	ID           string    `json:"id"`
	ThreadFeed   string    `json:"threadFeed"`
	ParentID     string    `json:"parentId,omitempty"`
	Author       string    `json:"author"`
	AuthorName   string    `json:"authorName"`
	AuthorHandle string    `json:"authorHandle"`
	Content      string    `json:"content"`
	Upvotes      uint64    `json:"upvotes"`
	Hidden       bool      `json:"hidden"`
	CreatedAt    time.Time `json:"createdAt"`
}

type Thread struct {
	FeedAddress  string    `json:"feedAddress"`
	Community    string    `json:"community"`
	Slug         string    `json:"slug"`
	Title        string    `json:"title"`
	Author       string    `json:"author"`
	AuthorName   string    `json:"authorName"`
	Content      string    `json:"content"`
	Tags         []string  `json:"tags,omitempty"`
	RepliesCount int64     `json:"repliesCount"`
	CreatedAt    time.Time `json:"createdAt"`
}

// AdaptAccountToModerator projects an admin account onto the moderator
// tuple shown in community headers.
func AdaptAccountToModerator(account lens.Account) Moderator {
	mod := Moderator{
		Address:     account.Address,
		DisplayName: unknownAuthor,
	}
	if account.Metadata != nil {
		if account.Metadata.Name != "" {
			mod.DisplayName = account.Metadata.Name
		}
		mod.Picture = account.Metadata.Picture
	}
	if account.Username != nil {
		mod.Username = account.Username.LocalName
		if mod.DisplayName == unknownAuthor && account.Username.LocalName != "" {
			mod.DisplayName = account.Username.LocalName
		}
	}
	return mod
}

// AdaptGroupToCommunity combines the canonical group, its stats and the
// local row into the Community served to clients. Counters prefer the
// protocol's numbers; the row supplies what the protocol does not track.
func AdaptGroupToCommunity(group *lens.Group, stats *lens.GroupStats, row *types.Community, moderators []Moderator) Community {
	c := Community{
		Address:    group.Address,
		Name:       group.Metadata.Name,
		Logo:       group.Metadata.Icon,
		Owner:      group.Owner,
		Moderators: moderators,
		Rules:      group.Rules,
		CreatedAt:  group.Timestamp,
	}
	c.Description = group.Metadata.Description
	if stats != nil {
		c.MemberCount = int64(stats.TotalMembers)
		c.PostCount = int64(stats.TotalPosts)
	}
	if row != nil {
		if c.Name == "" {
			c.Name = row.Name
		}
		if c.Description == "" {
			c.Description = row.Description
		}
		if c.Logo == "" {
			c.Logo = row.LogoURI
		}
		if c.Owner == "" {
			c.Owner = row.Owner
		}
		c.ThreadsCount = row.ThreadsCount
		c.Featured = row.Featured
		if stats == nil {
			c.MemberCount = row.MemberCount
		}
		if c.CreatedAt.IsZero() {
			c.CreatedAt = row.CreatedAt
		}
	}
	if c.Moderators == nil {
		c.Moderators = []Moderator{}
	}
	return c
}

// AdaptPostToReply maps a feed post onto a Reply.
func AdaptPostToReply(post *lens.Post) Reply {
	r := Reply{
		ID:         post.ID,
		ThreadFeed: post.Feed,
		ParentID:   post.CommentOn,
		Author:     post.Author.Address,
		AuthorName: unknownAuthor,
		Content:    post.Metadata.Content,
		Upvotes:    post.Stats.Upvotes,
		Hidden:     post.Hidden,
		CreatedAt:  post.Timestamp,
	}
	if post.Author.Metadata != nil && post.Author.Metadata.Name != "" {
		r.AuthorName = post.Author.Metadata.Name
	}
	if post.Author.Username != nil {
		r.AuthorHandle = post.Author.Username.LocalName
		if r.AuthorName == unknownAuthor && post.Author.Username.LocalName != "" {
			r.AuthorName = post.Author.Username.LocalName
		}
	}
	return r
}

// AdaptFeedToThread maps a thread's feed, its root post and the local row
// onto the Thread served to clients.
func AdaptFeedToThread(community string, row *types.Thread, rootPost *lens.Post) Thread {
	t := Thread{
		Community:  community,
		AuthorName: unknownAuthor,
	}
	if row != nil {
		t.FeedAddress = row.LensFeedAddress
		t.Slug = row.Slug
		t.Title = row.Title
		t.Author = row.Author
		t.RepliesCount = row.RepliesCount
		t.CreatedAt = row.CreatedAt
	}
	if rootPost != nil {
		t.Content = rootPost.Metadata.Content
		t.Tags = rootPost.Metadata.Tags
		if t.Title == "" {
			t.Title = rootPost.Metadata.Title
		}
		if t.Author == "" {
			t.Author = rootPost.Author.Address
		}
		if rootPost.Author.Metadata != nil && rootPost.Author.Metadata.Name != "" {
			t.AuthorName = rootPost.Author.Metadata.Name
		} else if rootPost.Author.Username != nil && rootPost.Author.Username.LocalName != "" {
			t.AuthorName = rootPost.Author.Username.LocalName
		}
		if t.CreatedAt.IsZero() {
			t.CreatedAt = rootPost.Timestamp
		}
	}
	return t
}
