package services

import (
	"context"
	"log"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/lensforum/lensforum/src/api/adapters"
	"github.com/lensforum/lensforum/src/api/types"
	"github.com/lensforum/lensforum/src/lens"
)

// SkippedCommunity reports a local row that could not be assembled into a
// Community because the protocol side was missing data.
type SkippedCommunity struct {
	Address string `json:"address"`
	Reason  string `json:"reason"`
}

// CommunityList is the assembled list view. Skipped rows are reported, not
// silently dropped.
type CommunityList struct {
	Items   []adapters.Community `json:"items"`
	Skipped []SkippedCommunity   `json:"skipped,omitempty"`
	Total   int64                `json:"total"`
}

type SortSpec struct {
	Field string
	Desc  bool
}

// ListCommunities assembles every known community: local rows enumerate
// which groups exist, three batched protocol reads supply groups, stats
// and admins in parallel, address-keyed maps join them back together.
func (s *Service) ListCommunities(ctx context.Context, sortBy *SortSpec) (*CommunityList, error) {
	var rows []types.Community
	if err := s.db.Find(&rows).Error; err != nil {
		return nil, err
	}
	return s.assemble(ctx, rows, int64(len(rows)), sortBy)
}

// ListCommunitiesPaginated pages the local rows first, then assembles the
// page the same way.
func (s *Service) ListCommunitiesPaginated(ctx context.Context, page, perPage int, sortBy *SortSpec) (*CommunityList, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	var total int64
	if err := s.db.Model(&types.Community{}).Count(&total).Error; err != nil {
		return nil, err
	}

	var rows []types.Community
	if err := s.db.Order("created_at desc").
		Offset((page - 1) * perPage).Limit(perPage).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return s.assemble(ctx, rows, total, sortBy)
}

// FeaturedCommunities assembles only the rows flagged featured.
func (s *Service) FeaturedCommunities(ctx context.Context, limit int) (*CommunityList, error) {
	if limit < 1 {
		limit = 4
	}
	var rows []types.Community
	if err := s.db.Where("featured = ?", true).Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	return s.assemble(ctx, rows, int64(len(rows)), nil)
}

func (s *Service) assemble(ctx context.Context, rows []types.Community, total int64, sortBy *SortSpec) (*CommunityList, error) {
	out := &CommunityList{
		Items:   []adapters.Community{},
		Skipped: nil,
		Total:   total,
	}
	if len(rows) == 0 {
		return out, nil
	}

	addresses := make([]string, 0, len(rows))
	for i := range rows {
		addresses = append(addresses, rows[i].LensGroupAddress)
	}

	var (
		groups []lens.Group
		stats  []lens.GroupStats
		admins []lens.GroupAdmins
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		groups, err = s.lens.FetchGroups(gctx, addresses)
		return err
	})
	g.Go(func() error {
		var err error
		stats, err = s.lens.FetchGroupStats(gctx, addresses)
		return err
	})
	g.Go(func() error {
		var err error
		admins, err = s.lens.FetchAdminsFor(gctx, addresses)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	groupsByAddr := make(map[string]*lens.Group, len(groups))
	for i := range groups {
		groupsByAddr[groups[i].Address] = &groups[i]
	}
	statsByAddr := make(map[string]*lens.GroupStats, len(stats))
	for i := range stats {
		statsByAddr[stats[i].Group] = &stats[i]
	}
	adminsByAddr := make(map[string][]adapters.Moderator, len(admins))
	for i := range admins {
		mods := make([]adapters.Moderator, 0, len(admins[i].Items))
		for _, account := range admins[i].Items {
			mods = append(mods, adapters.AdaptAccountToModerator(account))
		}
		adminsByAddr[admins[i].Group] = mods
	}

	for i := range rows {
		addr := rows[i].LensGroupAddress
		group, ok := groupsByAddr[addr]
		if !ok {
			log.Printf("services: community %s has no protocol group, skipping", addr)
			out.Skipped = append(out.Skipped, SkippedCommunity{Address: addr, Reason: "group not found"})
			continue
		}
		st, ok := statsByAddr[addr]
		if !ok {
			log.Printf("services: community %s has no protocol stats, skipping", addr)
			out.Skipped = append(out.Skipped, SkippedCommunity{Address: addr, Reason: "stats not found"})
			continue
		}
		out.Items = append(out.Items, adapters.AdaptGroupToCommunity(group, st, &rows[i], adminsByAddr[addr]))
	}

	if sortBy != nil {
		sortCommunities(out.Items, sortBy)
	}
	return out, nil
}

func sortCommunities(items []adapters.Community, spec *SortSpec) {
	less := func(a, b *adapters.Community) bool {
		switch spec.Field {
		case "memberCount":
			return a.MemberCount < b.MemberCount
		case "postCount":
			return a.PostCount < b.PostCount
		case "threadsCount":
			return a.ThreadsCount < b.ThreadsCount
		case "createdAt":
			return a.CreatedAt.Before(b.CreatedAt)
		default:
			return strings.ToLower(a.Name) < strings.ToLower(b.Name)
		}
	}
	sort.SliceStable(items, func(i, j int) bool {
		if spec.Desc {
			return less(&items[j], &items[i])
		}
		return less(&items[i], &items[j])
	})
}

// GetCommunity assembles a single community view.
func (s *Service) GetCommunity(ctx context.Context, address string) (*adapters.Community, error) {
	var row types.Community
	if err := s.db.First(&row, "lens_group_address = ?", address).Error; err != nil {
		return nil, err
	}
	list, err := s.assemble(ctx, []types.Community{row}, 1, nil)
	if err != nil {
		return nil, err
	}
	if len(list.Items) == 0 {
		reason := "protocol data missing"
		if len(list.Skipped) > 0 {
			reason = list.Skipped[0].Reason
		}
		return nil, &NotFoundError{Address: address, Reason: reason}
	}
	return &list.Items[0], nil
}

// NotFoundError marks a community whose row exists but whose protocol data
// is unavailable.
type NotFoundError struct {
	Address string
	Reason  string
}

func (e *NotFoundError) Error() string {
	return "community " + e.Address + ": " + e.Reason
}
