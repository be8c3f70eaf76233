package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/skip2/go-qrcode"

	"mealtrack/internal/auth"
)

const qrSize = 256

type adminLoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type participantLoginRequest struct {
	Name     string `json:"name" binding:"required"`
	TeamName string `json:"team_name" binding:"required"`
}

func (h *Handler) handleAdminLogin(c *gin.Context) {
	var req adminLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s, err := h.gate.LoginAdmin(c.Request.Context(), req.Username, req.Password)
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	case err != nil:
		h.internalError(c, "handleAdminLogin", err)
		return
	}
	c.JSON(http.StatusOK, s)
}

func (h *Handler) handleParticipantLogin(c *gin.Context) {
	var req participantLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s, p, err := h.gate.LoginParticipant(c.Request.Context(), req.Name, req.TeamName)
	switch {
	case errors.Is(err, auth.ErrParticipantNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	case err != nil:
		h.internalError(c, "handleParticipantLogin", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": s, "participant": p})
}

func (h *Handler) handleLogout(c *gin.Context) {
	claims, _ := auth.ClaimsFrom(c)
	if err := h.gate.Logout(c.Request.Context(), claims); err != nil {
		h.internalError(c, "handleLogout", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) handleMe(c *gin.Context) {
	claims, _ := auth.ClaimsFrom(c)
	p, err := h.svc.FindByID(c.Request.Context(), claims.Subject)
	if err != nil {
		h.internalError(c, "handleMe", err)
		return
	}
	if p == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "participant not found"})
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) handleMyQR(c *gin.Context) {
	claims, _ := auth.ClaimsFrom(c)
	p, err := h.svc.FindByID(c.Request.Context(), claims.Subject)
	if err != nil {
		h.internalError(c, "handleMyQR", err)
		return
	}
	if p == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "participant not found"})
		return
	}
	png, err := qrcode.Encode(p.Token, qrcode.Medium, qrSize)
	if err != nil {
		h.internalError(c, "handleMyQR", err)
		return
	}
	c.Header("Cache-Control", "private, max-age=3600")
	c.Data(http.StatusOK, "image/png", png)
}
