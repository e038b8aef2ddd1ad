package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/lensforum/lensforum/src/api/data"
	"github.com/lensforum/lensforum/src/api/types"
)

// Reconciler periodically overwrites the cached member and reply counters
// with the protocol's numbers. Drift introduced by failed counter bumps or
// double leaves heals on the next pass; failures are logged and retried on
// the following run.
type Reconciler struct {
	svc  *Service
	cron *cron.Cron
}

func NewReconciler(svc *Service) *Reconciler {
	return &Reconciler{svc: svc, cron: cron.New()}
}

// Start schedules the reconciliation every interval seconds.
func (r *Reconciler) Start(interval int) error {
	if interval <= 0 {
		interval = 300
	}
	spec := fmt.Sprintf("@every %ds", interval)
	_, err := r.cron.AddFunc(spec, func() {
		if err := data.RefreshSettings(r.svc.db); err != nil {
			log.Printf("reconcile: refresh settings: %v", err)
		}
		if data.GetSetting("reconcile_paused") == "true" {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		if err := r.svc.ReconcileCounters(ctx); err != nil {
			log.Printf("reconcile: %v", err)
		}
	})
	if err != nil {
		return err
	}
	r.cron.Start()
	return nil
}

func (r *Reconciler) Stop() {
	<-r.cron.Stop().Done()
}

// ReconcileCounters re-syncs community member counters from group stats and
// thread reply counters from the root post's comment stats.
func (s *Service) ReconcileCounters(ctx context.Context) error {
	var rows []types.Community
	if err := s.db.Find(&rows).Error; err != nil {
		return fmt.Errorf("load communities: %w", err)
	}
	if len(rows) == 0 {
		return nil
	}

	addresses := make([]string, 0, len(rows))
	for i := range rows {
		addresses = append(addresses, rows[i].LensGroupAddress)
	}

	stats, err := s.lens.FetchGroupStats(ctx, addresses)
	if err != nil {
		return fmt.Errorf("fetch stats: %w", err)
	}
	byAddr := make(map[string]uint64, len(stats))
	for i := range stats {
		byAddr[stats[i].Group] = stats[i].TotalMembers
	}

	for i := range rows {
		raw, ok := byAddr[rows[i].LensGroupAddress]
		if !ok {
			continue
		}
		members := int64(raw)
		if members == rows[i].MemberCount {
			continue
		}
		if err := s.db.Model(&rows[i]).UpdateColumn("member_count", members).Error; err != nil {
			log.Printf("reconcile: member counter for %s: %v", rows[i].LensGroupAddress, err)
			continue
		}
		log.Printf("reconcile: %s member count %d -> %d", rows[i].LensGroupAddress, rows[i].MemberCount, members)
	}

	var threads []types.Thread
	if err := s.db.Find(&threads).Error; err != nil {
		return fmt.Errorf("load threads: %w", err)
	}
	for i := range threads {
		post, err := s.lens.FetchPost(ctx, threads[i].RootPostID)
		if err != nil {
			log.Printf("reconcile: root post for %s: %v", threads[i].Slug, err)
			continue
		}
		comments := int64(post.Stats.Comments)
		if comments == threads[i].RepliesCount {
			continue
		}
		if err := s.db.Model(&threads[i]).UpdateColumn("replies_count", comments).Error; err != nil {
			log.Printf("reconcile: reply counter for %s: %v", threads[i].Slug, err)
			continue
		}
		log.Printf("reconcile: %s reply count %d -> %d", threads[i].Slug, threads[i].RepliesCount, post.Stats.Comments)
	}

	return nil
}
