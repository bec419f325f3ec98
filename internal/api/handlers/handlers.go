package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pillcare/pillcare-backend/internal/models"
	"github.com/pillcare/pillcare-backend/internal/repository"
	"github.com/pillcare/pillcare-backend/internal/schedule"
	"github.com/pillcare/pillcare-backend/internal/service"
)

// Handlers contains all HTTP handlers
type Handlers struct {
	Auth         *AuthHandler
	User         *UserHandler
	Link         *LinkHandler
	Medication   *MedicationHandler
	Dose         *DoseHandler
	Notification *NotificationHandler
}

// NewHandlers creates all handlers
func NewHandlers(services *service.Services) *Handlers {
	return &Handlers{
		Auth:         &AuthHandler{authService: services.Auth},
		User:         &UserHandler{userService: services.User},
		Link:         &LinkHandler{linkService: services.Link},
		Medication:   &MedicationHandler{medicationService: services.Medication, accessService: services.Access, userService: services.User},
		Dose:         &DoseHandler{doseService: services.Dose, userService: services.User, accessService: services.Access},
		Notification: &NotificationHandler{notificationService: services.Notification},
	}
}

// respondError maps service errors onto HTTP statuses. Lifecycle and link
// protocol violations are conflicts, access denials are forbidden, unknown
// failures stay opaque 500s.
func respondError(c *gin.Context, err error) {
	var formatErr *schedule.FormatError
	switch {
	case errors.As(err, &formatErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, service.ErrInvalidToken):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrUserExists),
		errors.Is(err, service.ErrSelfLink),
		errors.Is(err, service.ErrRoleConflict),
		errors.Is(err, service.ErrLinkExists),
		errors.Is(err, service.ErrInvalidState):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// ============================================
// Response Mappers
// ============================================

func toUserResponse(u *repository.User) models.UserResponse {
	return models.UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}
}

func toMedicationResponse(m *repository.Medication) models.MedicationResponse {
	resp := models.MedicationResponse{
		ID:        m.ID,
		SeniorID:  m.SeniorID,
		Name:      m.Name,
		Dosage:    m.Dosage,
		CreatedAt: m.CreatedAt,
	}
	if sched, err := schedule.Parse(m.Schedule); err == nil {
		resp.Schedule = *sched
	}
	return resp
}

func toDoseResponse(d *repository.DoseLog) models.DoseResponse {
	return models.DoseResponse{
		ID:            d.ID,
		MedicationID:  d.MedicationID,
		SeniorID:      d.SeniorID,
		ScheduledTime: d.ScheduledTime,
		Status:        d.Status,
		TakenTime:     d.TakenTime,
	}
}

func toDoseWithMedicationResponse(d *repository.DoseWithMedication) models.DoseResponse {
	resp := toDoseResponse(&d.DoseLog)
	resp.MedicationName = d.MedicationName
	return resp
}

func toLinkResponse(l *repository.Link) models.LinkResponse {
	status := "pending"
	if l.Active() {
		status = "active"
	}
	return models.LinkResponse{
		ID:              l.ID,
		SeniorID:        l.SeniorID,
		FamilyID:        l.FamilyID,
		Status:          status,
		RequestedBy:     l.Consent.RequestedBy,
		EditingApproved: l.Consent.EditingApproved,
		LinkedAt:        l.LinkedAt,
		CreatedAt:       l.CreatedAt,
	}
}

func toNotificationResponse(n *repository.Notification) models.NotificationResponse {
	return models.NotificationResponse{
		ID:        n.ID,
		UserID:    n.UserID,
		Type:      n.Type,
		Title:     n.Title,
		Message:   n.Message,
		Read:      n.Read,
		CreatedAt: n.CreatedAt,
	}
}
