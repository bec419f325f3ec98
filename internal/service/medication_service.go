package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/pillcare/pillcare-backend/internal/db"
	"github.com/pillcare/pillcare-backend/internal/repository"
	"github.com/pillcare/pillcare-backend/internal/schedule"
	"github.com/pillcare/pillcare-backend/internal/socket"
)

type MedicationService interface {
	// Create validates the schedule before anything touches the database.
	// A bad time string or unknown schedule kind never reaches storage.
	Create(ctx context.Context, actorID, seniorID, name, dosage string, sched *schedule.Schedule) (*repository.Medication, error)
	Get(ctx context.Context, actorID, medicationID string) (*repository.Medication, error)
	ListForSenior(ctx context.Context, actorID, seniorID string) ([]*repository.Medication, error)
	Delete(ctx context.Context, actorID, medicationID string) error
}

type medicationService struct {
	medRepo     repository.MedicationRepository
	access      AccessService
	broadcaster *socket.Broadcaster
	cache       *db.RedisDB
}

func NewMedicationService(
	medRepo repository.MedicationRepository,
	access AccessService,
	broadcaster *socket.Broadcaster,
	cache *db.RedisDB,
) MedicationService {
	return &medicationService{
		medRepo:     medRepo,
		access:      access,
		broadcaster: broadcaster,
		cache:       cache,
	}
}

func (s *medicationService) Create(ctx context.Context, actorID, seniorID, name, dosage string, sched *schedule.Schedule) (*repository.Medication, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("medication name required")
	}
	if sched == nil {
		return nil, errors.New("schedule required")
	}
	if err := sched.Validate(); err != nil {
		return nil, err
	}

	allowed, err := s.access.CanMutate(ctx, actorID, seniorID)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, ErrForbidden
	}

	rawSchedule, err := json.Marshal(sched)
	if err != nil {
		return nil, err
	}

	med := &repository.Medication{
		SeniorID: seniorID,
		Name:     name,
		Dosage:   strings.TrimSpace(dosage),
		Schedule: rawSchedule,
	}
	if err := s.medRepo.Create(ctx, med); err != nil {
		return nil, err
	}

	s.invalidateDoseCache(ctx, seniorID)
	if s.broadcaster != nil {
		s.broadcaster.BroadcastMedicationCreated(seniorID, med.ID, med.Name)
	}

	return med, nil
}

func (s *medicationService) Get(ctx context.Context, actorID, medicationID string) (*repository.Medication, error) {
	med, err := s.medRepo.FindByID(ctx, medicationID)
	if err != nil {
		return nil, err
	}
	if med == nil {
		return nil, ErrNotFound
	}

	allowed, err := s.access.CanRead(ctx, actorID, med.SeniorID)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, ErrForbidden
	}
	return med, nil
}

func (s *medicationService) ListForSenior(ctx context.Context, actorID, seniorID string) ([]*repository.Medication, error) {
	allowed, err := s.access.CanRead(ctx, actorID, seniorID)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, ErrForbidden
	}
	return s.medRepo.FindBySenior(ctx, seniorID)
}

// Delete removes the medication and, via cascade, every dose row under it,
// history included.
func (s *medicationService) Delete(ctx context.Context, actorID, medicationID string) error {
	med, err := s.medRepo.FindByID(ctx, medicationID)
	if err != nil {
		return err
	}
	if med == nil {
		return ErrNotFound
	}

	allowed, err := s.access.CanMutate(ctx, actorID, med.SeniorID)
	if err != nil {
		return err
	}
	if !allowed {
		return ErrForbidden
	}

	if err := s.medRepo.Delete(ctx, medicationID); err != nil {
		return err
	}

	s.invalidateDoseCache(ctx, med.SeniorID)
	if s.broadcaster != nil {
		s.broadcaster.BroadcastMedicationDeleted(med.SeniorID, med.ID, med.Name)
	}
	return nil
}

func (s *medicationService) invalidateDoseCache(ctx context.Context, seniorID string) {
	if s.cache == nil {
		return
	}
	s.cache.InvalidateCache(ctx, "adherence:"+seniorID)
}
