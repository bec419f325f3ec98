// internal/seed/seed.go
package seed

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/pillcare/pillcare-backend/internal/repository"
	"github.com/pillcare/pillcare-backend/internal/schedule"
	"github.com/pillcare/pillcare-backend/internal/types"
)

// SeedData creates a linked senior/family pair with a medicated schedule for
// local development. Safe to run repeatedly.
func SeedData(repos *repository.Repositories) {
	ctx := context.Background()

	existing, _ := repos.UserRepo.FindByEmail(ctx, "rosa.alvarez@example.com")
	if existing != nil {
		log.Println("[Seed] Data already exists, skipping...")
		return
	}

	log.Println("[Seed] 🌱 Creating initial data...")

	password, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)

	// Rosa - the senior taking medications
	rosa := &repository.User{
		Email:    "rosa.alvarez@example.com",
		Password: string(password),
		Name:     "Rosa Alvarez",
		Role:     types.RoleSenior,
	}
	repos.UserRepo.Create(ctx, rosa)

	// Miguel - Rosa's son, the family caregiver
	miguel := &repository.User{
		Email:    "miguel.alvarez@example.com",
		Password: string(password),
		Name:     "Miguel Alvarez",
		Role:     types.RoleFamily,
	}
	repos.UserRepo.Create(ctx, miguel)

	log.Printf("✅ Created 2 users: Rosa (senior), Miguel (family)")

	// Active care link, editing not yet approved
	now := time.Now()
	link := &repository.Link{
		SeniorID: rosa.ID,
		FamilyID: miguel.ID,
		Consent: repository.ConsentSettings{
			RequestedBy:     types.RoleFamily,
			EditingApproved: false,
		},
		LinkedAt: &now,
	}
	repos.LinkRepo.Create(ctx, link)
	if link.ID != "" {
		repos.LinkRepo.AcceptAndDeconflict(ctx, link.ID, link.Consent, now)
	}

	// Twice-daily aspirin plus a weekly vitamin
	aspirinSchedule, _ := json.Marshal(schedule.Schedule{
		Kind:  types.ScheduleDaily,
		Times: []string{"8:00 am", "8:00 pm"},
	})
	repos.MedicationRepo.Create(ctx, &repository.Medication{
		SeniorID: rosa.ID,
		Name:     "Aspirin",
		Dosage:   "81mg",
		Schedule: aspirinSchedule,
	})

	vitaminSchedule, _ := json.Marshal(schedule.Schedule{
		Kind:  types.ScheduleWeekly,
		Times: []string{"9:00 am"},
		Days:  []string{"monday", "thursday"},
	})
	repos.MedicationRepo.Create(ctx, &repository.Medication{
		SeniorID: rosa.ID,
		Name:     "Vitamin D",
		Dosage:   "1000 IU",
		Schedule: vitaminSchedule,
	})

	log.Println("✅ Created 2 medications for Rosa")
	log.Println("[Seed] 🎉 Seed complete")
}
