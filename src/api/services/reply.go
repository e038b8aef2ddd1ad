package services

import (
	"context"
	"fmt"
	"log"

	"gorm.io/gorm"

	"github.com/lensforum/lensforum/src/api/adapters"
	"github.com/lensforum/lensforum/src/api/types"
	"github.com/lensforum/lensforum/src/lens"
)

type CreateReplyInput struct {
	ThreadSlug string
	Body       string
	ParentID   string
}

// CreateReply posts a text-only comment on a thread's feed, optionally
// under a parent post, then records the reply row and bumps the thread's
// cached counter.
func (s *Service) CreateReply(ctx context.Context, user *lens.SessionClient, in CreateReplyInput) (*adapters.Reply, error) {
	var thread types.Thread
	if err := s.db.First(&thread, "slug = ?", in.ThreadSlug).Error; err != nil {
		return nil, fmt.Errorf("thread %s: %w", in.ThreadSlug, err)
	}

	metadata := lens.PostMetadata{
		Content: s.sanitize.Sanitize(in.Body),
	}
	contentURI, err := s.store.UploadJSON(ctx, metadata)
	if err != nil {
		return nil, fmt.Errorf("upload reply: %w", err)
	}

	parent := in.ParentID
	if parent == "" {
		parent = thread.RootPostID
	}
	hash, err := user.CreatePost(ctx, thread.LensFeedAddress, contentURI, parent)
	if err != nil {
		return nil, err
	}
	if err := s.lens.WaitForTransaction(ctx, hash); err != nil {
		return nil, err
	}
	post, err := s.lens.FetchPostByTx(ctx, hash)
	if err != nil {
		return nil, fmt.Errorf("read back reply: %w", err)
	}

	row := types.Reply{
		ThreadID:   thread.ID,
		LensPostID: post.ID,
		ParentID:   parent,
		Author:     user.Address(),
	}
	if err := s.db.Create(&row).Error; err != nil {
		log.Printf("services: post %s created but reply row insert failed: %v", post.ID, err)
		return nil, fmt.Errorf("record reply: %w", err)
	}

	if err := s.db.Model(&thread).
		UpdateColumn("replies_count", gorm.Expr("replies_count + 1")).Error; err != nil {
		log.Printf("services: reply recorded but counter bump failed for %s: %v", in.ThreadSlug, err)
	}

	s.publish(ctx, map[string]any{
		"event":  "reply.created",
		"thread": in.ThreadSlug,
		"post":   post.ID,
		"author": user.Address(),
	})

	reply := adapters.AdaptPostToReply(post)
	return &reply, nil
}

// HideReply hides a reply via the operator session and mirrors the flag on
// the local row.
func (s *Service) HideReply(ctx context.Context, postID string) error {
	return s.setReplyHidden(ctx, postID, true)
}

// UnhideReply reverses HideReply.
func (s *Service) UnhideReply(ctx context.Context, postID string) error {
	return s.setReplyHidden(ctx, postID, false)
}

func (s *Service) setReplyHidden(ctx context.Context, postID string, hidden bool) error {
	var row types.Reply
	if err := s.db.First(&row, "lens_post_id = ?", postID).Error; err != nil {
		return fmt.Errorf("reply %s: %w", postID, err)
	}

	session, err := s.operator.Get(ctx)
	if err != nil {
		return err
	}

	if hidden {
		err = session.HidePost(ctx, postID)
	} else {
		err = session.UnhidePost(ctx, postID)
	}
	if err != nil {
		return err
	}

	return s.db.Model(&row).UpdateColumn("hidden", hidden).Error
}

// React records an upvote on a post for the user. Pass-through; reactions
// are not mirrored locally.
func (s *Service) React(ctx context.Context, user *lens.SessionClient, postID string) error {
	return user.AddReaction(ctx, postID, "UPVOTE")
}

// Unreact removes the user's upvote on a post.
func (s *Service) Unreact(ctx context.Context, user *lens.SessionClient, postID string) error {
	return user.UndoReaction(ctx, postID, "UPVOTE")
}
