package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"gorm.io/gorm"

	"github.com/lensforum/lensforum/src/api/adapters"
	"github.com/lensforum/lensforum/src/api/types"
	"github.com/lensforum/lensforum/src/chain"
	"github.com/lensforum/lensforum/src/lens"
)

type CreateCommunityInput struct {
	Name            string
	Description     string
	AdminAddress    string
	Logo            []byte
	LogoContentType string
	Rules           []lens.GroupRule
}

// CreateCommunity runs the privileged create pipeline: optional logo
// upload, group metadata upload, createGroup, wait for the transaction,
// read the group back, record the row. The returned community's address is
// the protocol-assigned group address.
func (s *Service) CreateCommunity(ctx context.Context, in CreateCommunityInput) (*adapters.Community, error) {
	session, err := s.operator.Get(ctx)
	if err != nil {
		return nil, err
	}

	logoURI := ""
	if len(in.Logo) > 0 {
		logoURI, err = s.store.UploadFile(ctx, in.LogoContentType, in.Logo)
		if err != nil {
			return nil, fmt.Errorf("upload logo: %w", err)
		}
	}

	metadata := lens.GroupMetadata{
		Name:        in.Name,
		Description: in.Description,
		Icon:        logoURI,
	}
	metadataURI, err := s.store.UploadJSON(ctx, metadata)
	if err != nil {
		return nil, fmt.Errorf("upload group metadata: %w", err)
	}

	hash, err := session.CreateGroup(ctx, metadataURI, in.AdminAddress, in.Rules)
	if err != nil {
		return nil, err
	}
	if err := s.lens.WaitForTransaction(ctx, hash); err != nil {
		return nil, err
	}

	group, err := s.lens.FetchGroupByTx(ctx, hash)
	if err != nil {
		return nil, fmt.Errorf("read back group: %w", err)
	}

	row := types.Community{
		LensGroupAddress: group.Address,
		Name:             in.Name,
		Description:      in.Description,
		LogoURI:          logoURI,
		Owner:            in.AdminAddress,
	}
	if err := s.db.Create(&row).Error; err != nil {
		// The group exists on-chain at this point; there is no
		// compensating transaction, only the reconciler's next pass.
		log.Printf("services: group %s created but row insert failed: %v", group.Address, err)
		return nil, fmt.Errorf("record community: %w", err)
	}

	s.publish(ctx, map[string]any{
		"event":   "community.created",
		"address": group.Address,
		"name":    in.Name,
	})

	community := adapters.AdaptGroupToCommunity(group, nil, &row, nil)
	return &community, nil
}

type UpdateCommunityInput struct {
	Address         string
	Name            string
	Description     string
	Logo            []byte
	LogoContentType string
}

// UpdateCommunityMetadata re-uploads group metadata and points the group at
// it, then mirrors the change onto the local row.
func (s *Service) UpdateCommunityMetadata(ctx context.Context, in UpdateCommunityInput) error {
	var row types.Community
	if err := s.db.First(&row, "lens_group_address = ?", in.Address).Error; err != nil {
		return fmt.Errorf("community %s: %w", in.Address, err)
	}

	session, err := s.operator.Get(ctx)
	if err != nil {
		return err
	}

	logoURI := row.LogoURI
	if len(in.Logo) > 0 {
		logoURI, err = s.store.UploadFile(ctx, in.LogoContentType, in.Logo)
		if err != nil {
			return fmt.Errorf("upload logo: %w", err)
		}
	}

	metadata := lens.GroupMetadata{
		Name:        in.Name,
		Description: in.Description,
		Icon:        logoURI,
	}
	metadataURI, err := s.store.UploadJSON(ctx, metadata)
	if err != nil {
		return fmt.Errorf("upload group metadata: %w", err)
	}

	hash, err := session.SetGroupMetadata(ctx, in.Address, metadataURI)
	if err != nil {
		return err
	}
	if err := s.lens.WaitForTransaction(ctx, hash); err != nil {
		return err
	}

	return s.db.Model(&row).Updates(map[string]any{
		"name":        in.Name,
		"description": in.Description,
		"logo_uri":    logoURI,
	}).Error
}

// UpdateCommunityRules replaces the group's membership rules on-chain.
func (s *Service) UpdateCommunityRules(ctx context.Context, address string, rules []lens.GroupRule) error {
	var row types.Community
	if err := s.db.First(&row, "lens_group_address = ?", address).Error; err != nil {
		return fmt.Errorf("community %s: %w", address, err)
	}

	session, err := s.operator.Get(ctx)
	if err != nil {
		return err
	}

	hash, err := session.UpdateGroupRules(ctx, address, rules)
	if err != nil {
		return err
	}
	return s.lens.WaitForTransaction(ctx, hash)
}

// JoinCommunity joins the user to a community. Token and payment gates are
// checked against the chain before the join is submitted, so an
// underqualified wallet never pays for a doomed transaction. The unmet-gate
// case surfaces as *chain.VerificationError.
func (s *Service) JoinCommunity(ctx context.Context, user *lens.SessionClient, address string) error {
	var row types.Community
	if err := s.db.First(&row, "lens_group_address = ?", address).Error; err != nil {
		return fmt.Errorf("community %s: %w", address, err)
	}

	group, err := s.lens.FetchGroup(ctx, address)
	if err != nil {
		return err
	}

	if rule := lens.FirstRequired(group.Rules); rule != nil {
		if err := s.verifier.VerifyRule(ctx, rule, user.Address()); err != nil {
			return err
		}
	}

	hash, err := user.JoinGroup(ctx, address)
	if err != nil {
		return err
	}
	if err := s.lens.WaitForTransaction(ctx, hash); err != nil {
		return err
	}

	if err := s.db.Model(&types.Community{}).
		Where("lens_group_address = ?", address).
		UpdateColumn("member_count", gorm.Expr("member_count + 1")).Error; err != nil {
		log.Printf("services: join confirmed but counter bump failed for %s: %v", address, err)
	}

	s.publish(ctx, map[string]any{
		"event":   "community.joined",
		"address": address,
		"member":  user.Address(),
	})
	return nil
}

// LeaveCommunity removes the user from a community. The counter decrement
// is unguarded; a double leave drifts the cache low until the reconciler's
// next pass overwrites it with protocol stats.
func (s *Service) LeaveCommunity(ctx context.Context, user *lens.SessionClient, address string) error {
	var row types.Community
	if err := s.db.First(&row, "lens_group_address = ?", address).Error; err != nil {
		return fmt.Errorf("community %s: %w", address, err)
	}

	hash, err := user.LeaveGroup(ctx, address)
	if err != nil {
		return err
	}
	if err := s.lens.WaitForTransaction(ctx, hash); err != nil {
		return err
	}

	if err := s.db.Model(&types.Community{}).
		Where("lens_group_address = ?", address).
		UpdateColumn("member_count", gorm.Expr("member_count - 1")).Error; err != nil {
		log.Printf("services: leave confirmed but counter bump failed for %s: %v", address, err)
	}

	s.publish(ctx, map[string]any{
		"event":   "community.left",
		"address": address,
		"member":  user.Address(),
	})
	return nil
}

// IsVerificationError unwraps the unmet-gate case for handlers.
func IsVerificationError(err error) (*chain.VerificationError, bool) {
	var verr *chain.VerificationError
	if errors.As(err, &verr) {
		return verr, true
	}
	return nil, false
}
