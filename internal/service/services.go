package service

import (
	"errors"
	"time"

	"github.com/pillcare/pillcare-backend/internal/config"
	"github.com/pillcare/pillcare-backend/internal/db"
	"github.com/pillcare/pillcare-backend/internal/email"
	"github.com/pillcare/pillcare-backend/internal/repository"
	"github.com/pillcare/pillcare-backend/internal/socket"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidToken       = errors.New("invalid token")
	ErrNotFound           = errors.New("resource not found")
	ErrForbidden          = errors.New("forbidden")

	// Link request violations
	ErrSelfLink     = errors.New("cannot link with your own account")
	ErrRoleConflict = errors.New("link requires one senior and one family member")
	// ErrLinkExists means the caller holds a link already and must confirm
	// replacement explicitly before a new request goes out.
	ErrLinkExists = errors.New("an existing link must be replaced first")

	// ErrInvalidState means the operation was attempted from the wrong
	// lifecycle state (marking a missed dose taken, accepting an active link).
	ErrInvalidState = errors.New("operation not allowed in current state")
)

// ============================================
// Services Container
// ============================================

type Services struct {
	Auth         AuthService
	User         UserService
	Access       AccessService
	Link         LinkService
	Medication   MedicationService
	Dose         DoseService
	Notification NotificationService
}

type ServiceDeps struct {
	Config      *config.Config
	Repos       *repository.Repositories
	Location    *time.Location
	Cache       *db.RedisDB       // optional
	EmailSvc    *email.Service    // optional
	Broadcaster *socket.Broadcaster // optional
}

func NewServices(deps *ServiceDeps) *Services {
	loc := deps.Location
	if loc == nil {
		loc = time.UTC
	}

	access := NewAccessService(deps.Repos.LinkRepo)
	notification := NewNotificationService(deps.Repos.NotificationRepo, deps.Broadcaster)

	return &Services{
		Auth:         NewAuthService(deps.Config, deps.Repos.UserRepo),
		User:         NewUserService(deps.Repos.UserRepo),
		Access:       access,
		Link:         NewLinkService(deps.Repos.LinkRepo, deps.Repos.UserRepo, notification, deps.EmailSvc, deps.Broadcaster),
		Medication:   NewMedicationService(deps.Repos.MedicationRepo, access, deps.Broadcaster, deps.Cache),
		Dose:         NewDoseService(deps.Repos.DoseLogRepo, deps.Repos.MedicationRepo, deps.Repos.UserRepo, access, loc, deps.Broadcaster, deps.Cache),
		Notification: notification,
	}
}
