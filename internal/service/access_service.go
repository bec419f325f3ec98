package service

import (
	"context"

	"github.com/pillcare/pillcare-backend/internal/repository"
	"github.com/pillcare/pillcare-backend/internal/types"
)

// AccessService derives, from the link and consent state, what a caller may
// do with a senior's data. Every mutating medication/dose path goes through
// it; handlers never re-derive access themselves.
type AccessService interface {
	// CanRead is true for the senior themself and for the family half of any
	// active link to that senior.
	CanRead(ctx context.Context, userID, seniorID string) (bool, error)
	// CanMutate is true for the senior themself, and for the family half of
	// an active link only when the senior granted editing.
	CanMutate(ctx context.Context, userID, seniorID string) (bool, error)
	// ResolveSenior maps an acting user to the senior whose data they are
	// looking at: seniors resolve to themselves, family members to their
	// actively linked senior. Empty result means no linked senior.
	ResolveSenior(ctx context.Context, userID, role string) (string, error)
}

type accessService struct {
	linkRepo repository.LinkRepository
}

func NewAccessService(linkRepo repository.LinkRepository) AccessService {
	return &accessService{linkRepo: linkRepo}
}

func (s *accessService) CanRead(ctx context.Context, userID, seniorID string) (bool, error) {
	if userID == seniorID {
		return true, nil
	}
	link, err := s.linkRepo.FindActiveBySeniorAndFamily(ctx, seniorID, userID)
	if err != nil {
		return false, err
	}
	return link != nil, nil
}

func (s *accessService) CanMutate(ctx context.Context, userID, seniorID string) (bool, error) {
	if userID == seniorID {
		return true, nil
	}
	link, err := s.linkRepo.FindActiveBySeniorAndFamily(ctx, seniorID, userID)
	if err != nil {
		return false, err
	}
	return link != nil && link.Consent.EditingApproved, nil
}

func (s *accessService) ResolveSenior(ctx context.Context, userID, role string) (string, error) {
	if role != types.RoleFamily {
		return userID, nil
	}
	return s.linkRepo.FindActiveSeniorForFamily(ctx, userID)
}
