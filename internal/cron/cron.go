package cron

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/pillcare/pillcare-backend/internal/email"
	"github.com/pillcare/pillcare-backend/internal/repository"
	"github.com/pillcare/pillcare-backend/internal/schedule"
	"github.com/pillcare/pillcare-backend/internal/service"
	"github.com/pillcare/pillcare-backend/internal/types"
)

// Scheduler handles scheduled tasks
type Scheduler struct {
	cron     *cron.Cron
	services *service.Services
	repos    *repository.Repositories
	emailSvc *email.Service
	loc      *time.Location
}

// NewScheduler creates a new scheduler. Job times fire in loc, the same
// location the dose lifecycle uses for day boundaries.
func NewScheduler(services *service.Services, repos *repository.Repositories, emailSvc *email.Service, loc *time.Location) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	return &Scheduler{
		cron:     cron.New(cron.WithLocation(loc)),
		services: services,
		repos:    repos,
		emailSvc: emailSvc,
		loc:      loc,
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() {
	// Shortly after midnight: settle yesterday's doses and alert families
	s.cron.AddFunc("30 0 * * *", func() {
		log.Println("[Cron] Running stale dose sweep...")
		s.sweepStaleDoses()
	})

	// Every hour: materialize upcoming dose occurrences
	s.cron.AddFunc("0 * * * *", func() {
		log.Println("[Cron] Running dose generation...")
		s.generateDoses()
	})

	// Every day at 3 AM: purge expired refresh tokens
	s.cron.AddFunc("0 3 * * *", func() {
		log.Println("[Cron] Running refresh token cleanup...")
		s.cleanupRefreshTokens()
	})

	// Every Sunday at midnight: purge old notifications
	s.cron.AddFunc("0 0 * * 0", func() {
		log.Println("[Cron] Running notification cleanup...")
		s.cleanupOldNotifications()
	})

	s.cron.Start()
	log.Println("[Cron] Scheduler started")
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	s.cron.Stop()
	log.Println("[Cron] Scheduler stopped")
}

// sweepStaleDoses marks every senior's overdue scheduled doses as missed,
// then notifies linked family members who had misses yesterday.
func (s *Scheduler) sweepStaleDoses() {
	ctx := context.Background()

	swept, err := s.services.Dose.SweepAll(ctx)
	if err != nil {
		log.Printf("[Cron] Sweep error: %v", err)
	}
	log.Printf("[Cron] Swept %d stale doses", swept)

	s.notifyMissedDoses(ctx)
}

func (s *Scheduler) notifyMissedDoses(ctx context.Context) {
	seniorIDs, err := s.repos.UserRepo.FindIDsByRole(ctx, types.RoleSenior)
	if err != nil {
		log.Printf("[Cron] Error listing seniors: %v", err)
		return
	}

	now := time.Now().In(s.loc)
	yesterday := now.AddDate(0, 0, -1)
	from := schedule.StartOfDay(yesterday)
	to := schedule.EndOfDay(yesterday)

	for _, seniorID := range seniorIDs {
		stats, err := s.repos.DoseLogRepo.AdherenceBetween(ctx, seniorID, from, to)
		if err != nil {
			log.Printf("[Cron] Error reading misses for senior %s: %v", seniorID, err)
			continue
		}
		if stats.Missed == 0 {
			continue
		}

		link, err := s.repos.LinkRepo.FindByParticipant(ctx, seniorID)
		if err != nil || link == nil || !link.Active() {
			continue
		}

		senior, err := s.repos.UserRepo.FindByID(ctx, seniorID)
		if err != nil || senior == nil {
			continue
		}
		family, err := s.repos.UserRepo.FindByID(ctx, link.FamilyID)
		if err != nil || family == nil {
			continue
		}

		s.services.Notification.Notify(ctx, family.ID, "missed_dose",
			"Missed doses",
			senior.Name+" missed doses yesterday.")

		if s.emailSvc != nil {
			if err := s.emailSvc.SendMissedDoseAlert(family.Email, email.MissedDoseData{
				FamilyName:  family.Name,
				SeniorName:  senior.Name,
				MissedCount: stats.Missed,
			}); err != nil {
				log.Printf("[Cron] Error sending missed dose email: %v", err)
			}
		}
	}
}

func (s *Scheduler) generateDoses() {
	ctx := context.Background()

	generated, err := s.services.Dose.GenerateAll(ctx)
	if err != nil {
		log.Printf("[Cron] Generation error: %v", err)
	}
	log.Printf("[Cron] Generated %d dose occurrences", generated)
}

func (s *Scheduler) cleanupRefreshTokens() {
	ctx := context.Background()

	deleted, err := s.repos.UserRepo.DeleteExpiredRefreshTokens(ctx)
	if err != nil {
		log.Printf("[Cron] Refresh token cleanup error: %v", err)
		return
	}
	log.Printf("[Cron] Deleted %d expired refresh tokens", deleted)
}

func (s *Scheduler) cleanupOldNotifications() {
	ctx := context.Background()

	deleted, err := s.services.Notification.Cleanup(ctx, 30*24*time.Hour)
	if err != nil {
		log.Printf("[Cron] Notification cleanup error: %v", err)
		return
	}
	log.Printf("[Cron] Deleted %d old notifications", deleted)
}
