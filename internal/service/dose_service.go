package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/pillcare/pillcare-backend/internal/db"
	"github.com/pillcare/pillcare-backend/internal/repository"
	"github.com/pillcare/pillcare-backend/internal/schedule"
	"github.com/pillcare/pillcare-backend/internal/socket"
	"github.com/pillcare/pillcare-backend/internal/types"
)

type DoseService interface {
	// GenerateUpcoming materializes the senior's upcoming dose occurrences.
	// A medication that already has any occurrence today or later is skipped
	// whole, so repeated calls add nothing. One malformed schedule never
	// blocks the other medications.
	GenerateUpcoming(ctx context.Context, seniorID string) (int, error)
	// SweepStale marks every scheduled dose before today's start as missed.
	SweepStale(ctx context.Context, seniorID string) (int, error)
	// MarkTaken records the senior took the dose. Only the senior who owns the
	// dose may call it; family members never confirm intake, whatever their
	// consent says.
	MarkTaken(ctx context.Context, actorID, doseID string) (*repository.DoseLog, error)
	// ListToday returns today's doses for the senior the actor resolves to,
	// sweeping stale rows and generating fresh occurrences first so the view
	// is current the moment it is read.
	ListToday(ctx context.Context, actorID, actorRole string) ([]*repository.DoseWithMedication, error)
	AdherenceSummary(ctx context.Context, actorID, seniorID string, days int) (*repository.AdherenceStats, error)

	// SweepAll and GenerateAll run the per-senior operations across every
	// senior account. They back the scheduled jobs.
	SweepAll(ctx context.Context) (int, error)
	GenerateAll(ctx context.Context) (int, error)
}

type doseService struct {
	doseRepo    repository.DoseLogRepository
	medRepo     repository.MedicationRepository
	userRepo    repository.UserRepository
	access      AccessService
	loc         *time.Location
	broadcaster *socket.Broadcaster
	cache       *db.RedisDB
}

func NewDoseService(
	doseRepo repository.DoseLogRepository,
	medRepo repository.MedicationRepository,
	userRepo repository.UserRepository,
	access AccessService,
	loc *time.Location,
	broadcaster *socket.Broadcaster,
	cache *db.RedisDB,
) DoseService {
	return &doseService{
		doseRepo:    doseRepo,
		medRepo:     medRepo,
		userRepo:    userRepo,
		access:      access,
		loc:         loc,
		broadcaster: broadcaster,
		cache:       cache,
	}
}

func (s *doseService) GenerateUpcoming(ctx context.Context, seniorID string) (int, error) {
	meds, err := s.medRepo.FindBySenior(ctx, seniorID)
	if err != nil {
		return 0, err
	}

	now := time.Now().In(s.loc)
	horizon := schedule.StartOfDay(now)

	total := 0
	for _, med := range meds {
		sched, err := schedule.Parse(med.Schedule)
		if err != nil {
			log.Printf("[Dose] Skipping medication %s: bad schedule: %v", med.ID, err)
			continue
		}
		occurrences, err := schedule.NextOccurrences(sched, now)
		if err != nil {
			log.Printf("[Dose] Skipping medication %s: %v", med.ID, err)
			continue
		}
		if len(occurrences) == 0 {
			continue
		}

		inserted, err := s.doseRepo.InsertOccurrencesIfNone(ctx, med.ID, seniorID, horizon, occurrences)
		if err != nil {
			return total, err
		}
		total += inserted
	}

	if total > 0 {
		s.invalidateAdherence(ctx, seniorID)
		if s.broadcaster != nil {
			s.broadcaster.BroadcastDoseGenerated(seniorID, total)
		}
	}
	return total, nil
}

func (s *doseService) SweepStale(ctx context.Context, seniorID string) (int, error) {
	now := time.Now().In(s.loc)
	cutoff := schedule.StartOfDay(now)

	swept, err := s.doseRepo.MarkMissedBefore(ctx, seniorID, cutoff, now)
	if err != nil {
		return 0, err
	}
	if swept > 0 {
		s.invalidateAdherence(ctx, seniorID)
		if s.broadcaster != nil {
			s.broadcaster.BroadcastDoseMissed(seniorID, swept)
		}
	}
	return swept, nil
}

func (s *doseService) MarkTaken(ctx context.Context, actorID, doseID string) (*repository.DoseLog, error) {
	dose, err := s.doseRepo.FindByID(ctx, doseID)
	if err != nil {
		return nil, err
	}
	if dose == nil {
		return nil, ErrNotFound
	}
	if dose.SeniorID != actorID {
		return nil, ErrForbidden
	}

	updated, err := s.doseRepo.MarkTaken(ctx, doseID, time.Now().In(s.loc))
	if err != nil {
		return nil, err
	}
	if !updated {
		// The dose left the scheduled state first, either taken already or
		// swept to missed.
		return nil, ErrInvalidState
	}

	dose, err = s.doseRepo.FindByID(ctx, doseID)
	if err != nil {
		return nil, err
	}

	s.invalidateAdherence(ctx, actorID)
	if s.broadcaster != nil && dose != nil {
		s.broadcaster.BroadcastDoseTaken(dose.SeniorID, dose.ID, dose.MedicationID)
	}
	return dose, nil
}

func (s *doseService) ListToday(ctx context.Context, actorID, actorRole string) ([]*repository.DoseWithMedication, error) {
	seniorID, err := s.access.ResolveSenior(ctx, actorID, actorRole)
	if err != nil {
		return nil, err
	}
	if seniorID == "" {
		return nil, ErrNotFound
	}
	if seniorID != actorID {
		allowed, err := s.access.CanRead(ctx, actorID, seniorID)
		if err != nil {
			return nil, err
		}
		if !allowed {
			return nil, ErrForbidden
		}
	}

	// Reading the today view settles yesterday and fills today in one pass.
	if _, err := s.SweepStale(ctx, seniorID); err != nil {
		return nil, err
	}
	if _, err := s.GenerateUpcoming(ctx, seniorID); err != nil {
		return nil, err
	}

	now := time.Now().In(s.loc)
	return s.doseRepo.FindBetween(ctx, seniorID, schedule.StartOfDay(now), schedule.EndOfDay(now))
}

func (s *doseService) AdherenceSummary(ctx context.Context, actorID, seniorID string, days int) (*repository.AdherenceStats, error) {
	if days <= 0 {
		days = 7
	}
	allowed, err := s.access.CanRead(ctx, actorID, seniorID)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, ErrForbidden
	}

	cacheKey := ""
	if s.cache != nil && days == 7 {
		cacheKey = "adherence:" + seniorID
		stats := &repository.AdherenceStats{}
		if err := s.cache.GetCache(ctx, cacheKey, stats); err == nil {
			return stats, nil
		}
	}

	now := time.Now().In(s.loc)
	from := schedule.StartOfDay(now.AddDate(0, 0, -(days - 1)))
	stats, err := s.doseRepo.AdherenceBetween(ctx, seniorID, from, schedule.EndOfDay(now))
	if err != nil {
		return nil, err
	}

	if cacheKey != "" {
		s.cache.SetCache(ctx, cacheKey, stats, 5*time.Minute)
	}
	return stats, nil
}

func (s *doseService) SweepAll(ctx context.Context) (int, error) {
	seniorIDs, err := s.userRepo.FindIDsByRole(ctx, types.RoleSenior)
	if err != nil {
		return 0, err
	}

	total := 0
	var firstErr error
	for _, id := range seniorIDs {
		swept, err := s.SweepStale(ctx, id)
		if err != nil {
			log.Printf("[Dose] Sweep failed for senior %s: %v", id, err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		total += swept
	}
	return total, firstErr
}

func (s *doseService) GenerateAll(ctx context.Context) (int, error) {
	seniorIDs, err := s.userRepo.FindIDsByRole(ctx, types.RoleSenior)
	if err != nil {
		return 0, err
	}

	total := 0
	var firstErr error
	for _, id := range seniorIDs {
		generated, err := s.GenerateUpcoming(ctx, id)
		if err != nil {
			log.Printf("[Dose] Generation failed for senior %s: %v", id, err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		total += generated
	}
	return total, firstErr
}

func (s *doseService) invalidateAdherence(ctx context.Context, seniorID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateCache(ctx, "adherence:"+seniorID); err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("[Dose] Cache invalidation failed: %v", err)
	}
}
