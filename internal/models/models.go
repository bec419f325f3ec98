package models

import (
	"time"

	"github.com/pillcare/pillcare-backend/internal/schedule"
)

// ============================================
// Auth DTOs
// ============================================

type RegisterRequest struct {
	Name     string `json:"name" binding:"required,min=2"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Role     string `json:"role" binding:"required,oneof=senior family"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

type AuthResponse struct {
	User         UserResponse `json:"user"`
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
}

// ============================================
// User DTOs
// ============================================

type UserResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

type UpdateUserRequest struct {
	Name string `json:"name" binding:"required,min=2"`
}

// ============================================
// Medication DTOs
// ============================================

type CreateMedicationRequest struct {
	Name   string            `json:"name" binding:"required"`
	Dosage string            `json:"dosage"`
	// SeniorID is optional; family members with editing consent set it to the
	// linked senior, seniors leave it empty.
	SeniorID string            `json:"seniorId"`
	Schedule schedule.Schedule `json:"schedule" binding:"required"`
}

type MedicationResponse struct {
	ID        string            `json:"id"`
	SeniorID  string            `json:"seniorId"`
	Name      string            `json:"name"`
	Dosage    string            `json:"dosage"`
	Schedule  schedule.Schedule `json:"schedule"`
	CreatedAt time.Time         `json:"createdAt"`
}

// ============================================
// Dose DTOs
// ============================================

type DoseResponse struct {
	ID             string     `json:"id"`
	MedicationID   string     `json:"medicationId"`
	MedicationName string     `json:"medicationName,omitempty"`
	SeniorID       string     `json:"seniorId"`
	ScheduledTime  time.Time  `json:"scheduledTime"`
	Status         string     `json:"status"`
	TakenTime      *time.Time `json:"takenTime,omitempty"`
}

type GenerateResponse struct {
	Generated int `json:"generated"`
}

type SweepResponse struct {
	Swept int `json:"swept"`
}

// ============================================
// Link DTOs
// ============================================

type CreateLinkRequest struct {
	Email          string `json:"email" binding:"required,email"`
	ConfirmReplace bool   `json:"confirmReplace"`
}

type LinkResponse struct {
	ID              string     `json:"id"`
	SeniorID        string     `json:"seniorId"`
	FamilyID        string     `json:"familyId"`
	Status          string     `json:"status"` // pending or active
	RequestedBy     string     `json:"requestedBy"`
	EditingApproved bool       `json:"editingApproved"`
	LinkedAt        *time.Time `json:"linkedAt,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
}

// ============================================
// Notification DTOs
// ============================================

type NotificationResponse struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"createdAt"`
}

type NotificationCountResponse struct {
	Unread int `json:"unread"`
}
