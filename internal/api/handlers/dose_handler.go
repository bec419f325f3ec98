package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/pillcare/pillcare-backend/internal/api/middleware"
	"github.com/pillcare/pillcare-backend/internal/models"
	"github.com/pillcare/pillcare-backend/internal/service"
)

// ============================================
// Dose Handler
// ============================================

type DoseHandler struct {
	doseService   service.DoseService
	userService   service.UserService
	accessService service.AccessService
}

// ListToday returns today's doses for the caller's senior, refreshing the
// lifecycle first (stale doses swept, new occurrences generated).
func (h *DoseHandler) ListToday(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	user, err := h.userService.GetByID(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	doses, err := h.doseService.ListToday(c.Request.Context(), userID, user.Role)
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]models.DoseResponse, len(doses))
	for i, d := range doses {
		response[i] = toDoseWithMedicationResponse(d)
	}

	c.JSON(http.StatusOK, response)
}

func (h *DoseHandler) MarkTaken(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	dose, err := h.doseService.MarkTaken(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toDoseResponse(dose))
}

// Generate triggers occurrence generation for the caller's senior
func (h *DoseHandler) Generate(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	seniorID, ok := h.resolveSenior(c, userID)
	if !ok {
		return
	}

	generated, err := h.doseService.GenerateUpcoming(c.Request.Context(), seniorID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.GenerateResponse{Generated: generated})
}

// Sweep marks the caller's senior's stale doses missed
func (h *DoseHandler) Sweep(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	seniorID, ok := h.resolveSenior(c, userID)
	if !ok {
		return
	}

	swept, err := h.doseService.SweepStale(c.Request.Context(), seniorID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.SweepResponse{Swept: swept})
}

// Adherence returns dose outcome statistics over the past N days (default 7)
func (h *DoseHandler) Adherence(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	seniorID, ok := h.resolveSenior(c, userID)
	if !ok {
		return
	}

	days := 7
	if raw := c.Query("days"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 365 {
			days = parsed
		}
	}

	stats, err := h.doseService.AdherenceSummary(c.Request.Context(), userID, seniorID, days)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

func (h *DoseHandler) resolveSenior(c *gin.Context, userID string) (string, bool) {
	if explicit := c.Query("seniorId"); explicit != "" {
		allowed, err := h.accessService.CanRead(c.Request.Context(), userID, explicit)
		if err != nil {
			respondError(c, err)
			return "", false
		}
		if !allowed {
			respondError(c, service.ErrForbidden)
			return "", false
		}
		return explicit, true
	}

	user, err := h.userService.GetByID(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return "", false
	}

	seniorID, err := h.accessService.ResolveSenior(c.Request.Context(), userID, user.Role)
	if err != nil {
		respondError(c, err)
		return "", false
	}
	if seniorID == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "No linked senior"})
		return "", false
	}
	return seniorID, true
}
