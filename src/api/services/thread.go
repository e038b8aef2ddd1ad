package services

import (
	"context"
	"fmt"
	"log"
	"sort"

	"github.com/gosimple/slug"
	"gorm.io/gorm"

	"github.com/lensforum/lensforum/src/api/adapters"
	"github.com/lensforum/lensforum/src/api/types"
	"github.com/lensforum/lensforum/src/lens"
)

type CreateThreadInput struct {
	CommunityAddress string
	Title            string
	Body             string
	Tags             []string
	Author           string
}

// uniqueSlug derives a URL slug from the title and suffixes -2, -3, ... on
// collision with existing thread rows. Resolved before anything touches
// the protocol.
func (s *Service) uniqueSlug(title string) (string, error) {
	base := slug.Make(title)
	if base == "" {
		base = "thread"
	}

	candidate := base
	for n := 2; ; n++ {
		var count int64
		if err := s.db.Model(&types.Thread{}).Where("slug = ?", candidate).Count(&count).Error; err != nil {
			return "", fmt.Errorf("slug lookup: %w", err)
		}
		if count == 0 {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, n)
	}
}

// CreateThread opens a thread: one feed gated to the community's group,
// one article root post, one local row. The feed is created by the
// operator; the root article is posted by the thread author's session when
// given, otherwise by the operator as well.
func (s *Service) CreateThread(ctx context.Context, user *lens.SessionClient, in CreateThreadInput) (*adapters.Thread, error) {
	var community types.Community
	if err := s.db.First(&community, "lens_group_address = ?", in.CommunityAddress).Error; err != nil {
		return nil, fmt.Errorf("community %s: %w", in.CommunityAddress, err)
	}

	threadSlug, err := s.uniqueSlug(in.Title)
	if err != nil {
		return nil, err
	}

	operator, err := s.operator.Get(ctx)
	if err != nil {
		return nil, err
	}

	feedMetadata := lens.FeedMetadata{Title: in.Title}
	feedMetadataURI, err := s.store.UploadJSON(ctx, feedMetadata)
	if err != nil {
		return nil, fmt.Errorf("upload feed metadata: %w", err)
	}

	hash, err := operator.CreateFeed(ctx, in.CommunityAddress, feedMetadataURI)
	if err != nil {
		return nil, err
	}
	if err := s.lens.WaitForTransaction(ctx, hash); err != nil {
		return nil, err
	}
	feed, err := s.lens.FetchFeedByTx(ctx, hash)
	if err != nil {
		return nil, fmt.Errorf("read back feed: %w", err)
	}

	article := lens.PostMetadata{
		Title:   in.Title,
		Content: s.sanitize.Sanitize(in.Body),
		Tags:    in.Tags,
	}
	articleURI, err := s.store.UploadJSON(ctx, article)
	if err != nil {
		return nil, fmt.Errorf("upload article: %w", err)
	}

	poster := operator
	author := in.Author
	if user != nil {
		poster = user
		author = user.Address()
	}
	postHash, err := poster.CreatePost(ctx, feed.Address, articleURI, "")
	if err != nil {
		return nil, err
	}
	if err := s.lens.WaitForTransaction(ctx, postHash); err != nil {
		return nil, err
	}
	rootPost, err := s.lens.FetchPostByTx(ctx, postHash)
	if err != nil {
		return nil, fmt.Errorf("read back root post: %w", err)
	}

	row := types.Thread{
		CommunityID:     community.ID,
		LensFeedAddress: feed.Address,
		RootPostID:      rootPost.ID,
		Slug:            threadSlug,
		Title:           in.Title,
		Author:          author,
	}
	if err := s.db.Create(&row).Error; err != nil {
		log.Printf("services: feed %s created but row insert failed: %v", feed.Address, err)
		return nil, fmt.Errorf("record thread: %w", err)
	}

	if err := s.db.Model(&community).
		UpdateColumn("threads_count", gorm.Expr("threads_count + 1")).Error; err != nil {
		log.Printf("services: thread recorded but community counter bump failed: %v", err)
	}

	s.publish(ctx, map[string]any{
		"event":     "thread.created",
		"community": in.CommunityAddress,
		"feed":      feed.Address,
		"slug":      threadSlug,
		"author":    author,
	})

	thread := adapters.AdaptFeedToThread(in.CommunityAddress, &row, rootPost)
	return &thread, nil
}

// GetThread returns a thread by slug, combining the row with its root post
// and replies. Hidden replies are filtered unless showHidden is set (the
// per-community cookie preference).
func (s *Service) GetThread(ctx context.Context, slugValue string, showHidden bool) (*adapters.Thread, []adapters.Reply, error) {
	var row types.Thread
	if err := s.db.Preload("Community").First(&row, "slug = ?", slugValue).Error; err != nil {
		return nil, nil, fmt.Errorf("thread %s: %w", slugValue, err)
	}

	rootPost, err := s.lens.FetchPost(ctx, row.RootPostID)
	if err != nil {
		return nil, nil, err
	}

	posts, err := s.lens.FetchPosts(ctx, row.LensFeedAddress, "")
	if err != nil {
		return nil, nil, err
	}

	// The indexer does not promise an ordering; pin oldest first.
	sort.SliceStable(posts, func(i, j int) bool {
		return posts[i].Timestamp.Before(posts[j].Timestamp)
	})

	replies := make([]adapters.Reply, 0, len(posts))
	for i := range posts {
		if posts[i].ID == row.RootPostID {
			continue
		}
		if posts[i].Hidden && !showHidden {
			continue
		}
		replies = append(replies, adapters.AdaptPostToReply(&posts[i]))
	}

	thread := adapters.AdaptFeedToThread(row.Community.LensGroupAddress, &row, rootPost)
	return &thread, replies, nil
}

// ListThreads returns the community's threads, newest first.
func (s *Service) ListThreads(ctx context.Context, communityAddress string) ([]adapters.Thread, error) {
	var community types.Community
	if err := s.db.First(&community, "lens_group_address = ?", communityAddress).Error; err != nil {
		return nil, fmt.Errorf("community %s: %w", communityAddress, err)
	}

	var rows []types.Thread
	if err := s.db.Where("community_id = ?", community.ID).
		Order("created_at desc").Find(&rows).Error; err != nil {
		return nil, err
	}

	threads := make([]adapters.Thread, 0, len(rows))
	for i := range rows {
		threads = append(threads, adapters.AdaptFeedToThread(communityAddress, &rows[i], nil))
	}
	return threads, nil
}
