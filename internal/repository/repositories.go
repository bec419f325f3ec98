package repository

import (
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repositories struct {
	UserRepo         UserRepository
	LinkRepo         LinkRepository
	MedicationRepo   MedicationRepository
	DoseLogRepo      DoseLogRepository
	NotificationRepo NotificationRepository
}

func NewRepositories(pool *pgxpool.Pool) *Repositories {
	return &Repositories{
		UserRepo:         NewUserRepository(pool),
		LinkRepo:         NewLinkRepository(pool),
		MedicationRepo:   NewMedicationRepository(pool),
		DoseLogRepo:      NewDoseLogRepository(pool),
		NotificationRepo: NewNotificationRepository(pool),
	}
}
