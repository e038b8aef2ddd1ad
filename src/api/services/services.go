// Package services sequences the forum's mutations against the Lens API:
// upload content, write on-chain, wait for the transaction, then record the
// result locally. Every pipeline short-circuits on the first failed step.
package services

import (
	"context"
	"log"

	"github.com/microcosm-cc/bluemonday"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/lensforum/lensforum/src/api/data"
	"github.com/lensforum/lensforum/src/chain"
	"github.com/lensforum/lensforum/src/lens"
	"github.com/lensforum/lensforum/src/storage"
)

type Service struct {
	db       *gorm.DB
	rdb      *redis.Client
	lens     *lens.Client
	operator *lens.SessionProvider
	verifier *chain.Verifier
	store    *storage.Client
	sanitize *bluemonday.Policy
}

func New(db *gorm.DB, rdb *redis.Client, lensClient *lens.Client, operator *lens.SessionProvider, verifier *chain.Verifier, store *storage.Client) *Service {
	return &Service{
		db:       db,
		rdb:      rdb,
		lens:     lensClient,
		operator: operator,
		verifier: verifier,
		store:    store,
		sanitize: bluemonday.UGCPolicy(),
	}
}

// publish sends a mutation event to the notification stream. Best effort.
func (s *Service) publish(ctx context.Context, payload map[string]any) {
	if s.rdb == nil {
		return
	}
	if err := data.PublishEvent(ctx, s.rdb, payload); err != nil {
		log.Printf("services: publish event: %v", err)
	}
}
