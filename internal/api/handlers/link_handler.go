package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pillcare/pillcare-backend/internal/api/middleware"
	"github.com/pillcare/pillcare-backend/internal/models"
	"github.com/pillcare/pillcare-backend/internal/service"
)

// ============================================
// Link Handler
// ============================================

type LinkHandler struct {
	linkService service.LinkService
}

// Create requests a care link to the account owning the given email
func (h *LinkHandler) Create(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	var req models.CreateLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	link, err := h.linkService.Request(c.Request.Context(), userID, req.Email, req.ConfirmReplace)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toLinkResponse(link))
}

// Get returns the caller's current link, pending or active
func (h *LinkHandler) Get(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}

	link, err := h.linkService.GetForUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	if link == nil {
		c.JSON(http.StatusOK, gin.H{"link": nil})
		return
	}

	c.JSON(http.StatusOK, gin.H{"link": toLinkResponse(link)})
}

func (h *LinkHandler) Accept(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}
	linkID := c.Param("id")

	link, err := h.linkService.Accept(c.Request.Context(), linkID, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toLinkResponse(link))
}

func (h *LinkHandler) GrantEditing(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}
	linkID := c.Param("id")

	link, err := h.linkService.GrantEditing(c.Request.Context(), linkID, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toLinkResponse(link))
}

func (h *LinkHandler) RevokeEditing(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}
	linkID := c.Param("id")

	link, err := h.linkService.RevokeEditing(c.Request.Context(), linkID, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, toLinkResponse(link))
}

func (h *LinkHandler) Delete(c *gin.Context) {
	userID, ok := middleware.RequireUserID(c)
	if !ok {
		return
	}
	linkID := c.Param("id")

	if err := h.linkService.Disconnect(c.Request.Context(), linkID, userID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusNoContent, nil)
}
