package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pillcare/pillcare-backend/internal/api/middleware"
	"github.com/pillcare/pillcare-backend/internal/models"
	"github.com/pillcare/pillcare-backend/internal/service"
)

// ============================================
// Medication Handler
// ============================================

type MedicationHandler struct {
	medicationService service.MedicationService
	accessService     service.AccessService
	userService       service.UserService
}

// resolveSenior maps the caller to the senior whose cabinet is addressed:
// the explicit seniorId from the request when present, otherwise the caller
// themself or their linked senior.
func (h *MedicationHandler) resolveSenior(c *gin.Context, userID, explicit string) (string, bool) {
	if explicit != "" {
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

func (h *MedicationHandler) Create(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	var req models.CreateMedicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	seniorID, ok := h.resolveSenior(c, userID, req.SeniorID)
	if !ok {
		return
	}

	med, err := h.medicationService.Create(c.Request.Context(), userID, seniorID, req.Name, req.Dosage, &req.Schedule)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toMedicationResponse(med))
}

func (h *MedicationHandler) List(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	seniorID, ok := h.resolveSenior(c, userID, c.Query("seniorId"))
	if !ok {
		return
	}

	meds, err := h.medicationService.ListForSenior(c.Request.Context(), userID, seniorID)
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]models.MedicationResponse, len(meds))
	for i, m := range meds {
		response[i] = toMedicationResponse(m)
	}

	c.JSON(http.StatusOK, response)
}

func (h *MedicationHandler) Get(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	med, err := h.medicationService.Get(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toMedicationResponse(med))
}

func (h *MedicationHandler) Delete(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	if err := h.medicationService.Delete(c.Request.Context(), userID, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusNoContent, nil)
}
