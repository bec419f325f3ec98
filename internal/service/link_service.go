package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/pillcare/pillcare-backend/internal/email"
	"github.com/pillcare/pillcare-backend/internal/repository"
	"github.com/pillcare/pillcare-backend/internal/socket"
	"github.com/pillcare/pillcare-backend/internal/types"
)

// LinkService owns the single relationship between a senior and a family
// member: request, accept, consent toggles, replace and disconnect.
type LinkService interface {
	// Request creates a pending link from the initiator to the account owning
	// counterpartEmail. If the initiator already holds a link (pending or
	// active, either side), the call fails with ErrLinkExists unless
	// confirmReplace is set, in which case the old link is deleted first.
	Request(ctx context.Context, initiatorID, counterpartEmail string, confirmReplace bool) (*repository.Link, error)
	// Accept activates a pending link. Only the party that did not initiate
	// may accept. Acceptance grants read access only; editing stays off until
	// the senior grants it.
	Accept(ctx context.Context, linkID, accepterID string) (*repository.Link, error)
	GrantEditing(ctx context.Context, linkID, grantorID string) (*repository.Link, error)
	RevokeEditing(ctx context.Context, linkID, grantorID string) (*repository.Link, error)
	// Disconnect hard-deletes the link. Either participant may do it
	// unilaterally, pending or active.
	Disconnect(ctx context.Context, linkID, requesterID string) error
	// GetForUser returns the caller's link (pending or active, either side),
	// or nil when none exists.
	GetForUser(ctx context.Context, userID string) (*repository.Link, error)
}

type linkService struct {
	linkRepo    repository.LinkRepository
	userRepo    repository.UserRepository
	notifSvc    NotificationService
	emailSvc    *email.Service
	broadcaster *socket.Broadcaster
}

func NewLinkService(
	linkRepo repository.LinkRepository,
	userRepo repository.UserRepository,
	notifSvc NotificationService,
	emailSvc *email.Service,
	broadcaster *socket.Broadcaster,
) LinkService {
	return &linkService{
		linkRepo:    linkRepo,
		userRepo:    userRepo,
		notifSvc:    notifSvc,
		emailSvc:    emailSvc,
		broadcaster: broadcaster,
	}
}

func (s *linkService) Request(ctx context.Context, initiatorID, counterpartEmail string, confirmReplace bool) (*repository.Link, error) {
	if initiatorID == "" {
		return nil, errors.New("initiator id required")
	}
	counterpartEmail = normalizeEmail(counterpartEmail)
	if counterpartEmail == "" {
		return nil, errors.New("email required")
	}

	initiator, err := s.userRepo.FindByID(ctx, initiatorID)
	if err != nil {
		return nil, err
	}
	if initiator == nil {
		return nil, ErrNotFound
	}
	if normalizeEmail(initiator.Email) == counterpartEmail {
		return nil, ErrSelfLink
	}

	counterpart, err := s.userRepo.FindByEmail(ctx, counterpartEmail)
	if err != nil {
		return nil, err
	}
	if counterpart == nil {
		return nil, ErrNotFound
	}
	if counterpart.ID == initiatorID {
		return nil, ErrSelfLink
	}
	if counterpart.Role == initiator.Role {
		return nil, ErrRoleConflict
	}

	existing, err := s.linkRepo.FindByParticipant(ctx, initiatorID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if !confirmReplace {
			return nil, ErrLinkExists
		}
		// Replace deletes only rows the initiator participates in.
		if _, err := s.linkRepo.DeleteByParticipant(ctx, initiatorID); err != nil {
			return nil, err
		}
	}

	link := &repository.Link{
		Consent: repository.ConsentSettings{RequestedBy: initiator.Role},
	}
	if initiator.Role == types.RoleSenior {
		link.SeniorID = initiator.ID
		link.FamilyID = counterpart.ID
	} else {
		link.SeniorID = counterpart.ID
		link.FamilyID = initiator.ID
	}

	if err := s.linkRepo.Create(ctx, link); err != nil {
		return nil, err
	}

	s.notifSvc.Notify(ctx, counterpart.ID, "link_requested",
		"New care link request",
		initiator.Name+" wants to link with your account.")

	if s.emailSvc != nil {
		go func() {
			if err := s.emailSvc.SendLinkRequest(counterpart.Email, initiator.Name); err != nil {
				log.Printf("[Link] Failed to send request email: %v", err)
			}
		}()
	}

	if s.broadcaster != nil {
		s.broadcaster.BroadcastLinkRequested(link.SeniorID, link.ID, initiator.Role)
	}

	return link, nil
}

func (s *linkService) Accept(ctx context.Context, linkID, accepterID string) (*repository.Link, error) {
	link, err := s.linkRepo.FindByID(ctx, linkID)
	if err != nil {
		return nil, err
	}
	if link == nil {
		return nil, ErrNotFound
	}
	if link.Active() {
		return nil, ErrInvalidState
	}
	if !link.Participant(accepterID) {
		return nil, ErrForbidden
	}

	// The initiator cannot accept their own request.
	accepterRole := types.RoleSenior
	if accepterID == link.FamilyID {
		accepterRole = types.RoleFamily
	}
	if link.Consent.RequestedBy == accepterRole {
		return nil, ErrInvalidState
	}

	consent := repository.ConsentSettings{
		RequestedBy:     link.Consent.RequestedBy,
		EditingApproved: false,
	}
	if err := s.linkRepo.AcceptAndDeconflict(ctx, linkID, consent, time.Now()); err != nil {
		return nil, err
	}

	accepted, err := s.linkRepo.FindByID(ctx, linkID)
	if err != nil {
		return nil, err
	}

	counterpartID := link.SeniorID
	if accepterID == link.SeniorID {
		counterpartID = link.FamilyID
	}
	s.notifSvc.Notify(ctx, counterpartID, "link_accepted",
		"Care link accepted",
		"Your link request was accepted.")

	if s.broadcaster != nil {
		s.broadcaster.BroadcastLinkAccepted(link.SeniorID, link.ID)
	}

	return accepted, nil
}

func (s *linkService) GrantEditing(ctx context.Context, linkID, grantorID string) (*repository.Link, error) {
	return s.setEditing(ctx, linkID, grantorID, true)
}

func (s *linkService) RevokeEditing(ctx context.Context, linkID, grantorID string) (*repository.Link, error) {
	return s.setEditing(ctx, linkID, grantorID, false)
}

func (s *linkService) setEditing(ctx context.Context, linkID, grantorID string, approved bool) (*repository.Link, error) {
	link, err := s.linkRepo.FindByID(ctx, linkID)
	if err != nil {
		return nil, err
	}
	if link == nil {
		return nil, ErrNotFound
	}
	if link.Pending() {
		return nil, ErrInvalidState
	}
	// Only the senior half controls editing consent.
	if link.SeniorID != grantorID {
		return nil, ErrForbidden
	}

	consent := link.Consent
	consent.EditingApproved = approved
	if err := s.linkRepo.UpdateConsent(ctx, linkID, consent); err != nil {
		return nil, err
	}
	link.Consent = consent

	if s.broadcaster != nil {
		s.broadcaster.BroadcastConsentUpdated(link.SeniorID, link.ID, approved)
	}

	return link, nil
}

func (s *linkService) Disconnect(ctx context.Context, linkID, requesterID string) error {
	link, err := s.linkRepo.FindByID(ctx, linkID)
	if err != nil {
		return err
	}
	if link == nil {
		return ErrNotFound
	}
	if !link.Participant(requesterID) {
		return ErrForbidden
	}

	if err := s.linkRepo.Delete(ctx, linkID); err != nil {
		return err
	}

	counterpartID := link.SeniorID
	if requesterID == link.SeniorID {
		counterpartID = link.FamilyID
	}
	s.notifSvc.Notify(ctx, counterpartID, "link_removed",
		"Care link removed",
		"Your care link was disconnected.")

	if s.broadcaster != nil {
		s.broadcaster.BroadcastLinkRemoved(link.SeniorID, link.ID)
	}

	return nil
}

func (s *linkService) GetForUser(ctx context.Context, userID string) (*repository.Link, error) {
	if userID == "" {
		return nil, errors.New("user id required")
	}
	return s.linkRepo.FindByParticipant(ctx, userID)
}
