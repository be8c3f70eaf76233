package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"mealtrack/internal/meals"
)

type scanRequest struct {
	Token string `json:"token" binding:"required"`
	Meal  string `json:"meal" binding:"required"`
}

func (h *Handler) handleScanPreview(c *gin.Context) {
	p, err := h.svc.FindByToken(c.Request.Context(), c.Param("token"))
	if err != nil {
		h.internalError(c, "handleScanPreview", err)
		return
	}
	if p == nil {
		c.JSON(http.StatusNotFound, gin.H{"outcome": meals.OutcomeParticipantNotFound.String()})
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) handleScan(c *gin.Context) {
	var req scanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	slot, err := meals.ParseMealSlot(req.Meal)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.svc.Scan(c.Request.Context(), req.Token, slot)
	if err != nil {
		h.internalError(c, "handleScan", err)
		return
	}
	status := http.StatusOK
	if res.Outcome == meals.OutcomeParticipantNotFound {
		status = http.StatusNotFound
	}
	c.JSON(status, gin.H{
		"outcome":     res.Outcome.String(),
		"meal":        slot,
		"participant": res.Participant,
	})
}

func (h *Handler) handleStats(c *gin.Context) {
	s, err := h.svc.ComputeStats(c.Request.Context())
	if err != nil {
		h.internalError(c, "handleStats", err)
		return
	}
	c.JSON(http.StatusOK, s)
}
