package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/comit-io/galaxyapi/internal/api/shared"
	"github.com/comit-io/galaxyapi/internal/apperrors"
	"github.com/comit-io/galaxyapi/internal/middleware"
	"github.com/comit-io/galaxyapi/internal/models"
)

func (h *Handlers) handleLogin(c *gin.Context) {
	const op = "api.Login"

	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		shared.Fail(c, op, apperrors.Validation(op, "username and password are required"))
		return
	}

	resp, err := h.Auth.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		shared.Fail(c, op, err)
		return
	}
	shared.OK(c, http.StatusOK, resp)
}

func (h *Handlers) handleRenew(c *gin.Context) {
	const op = "api.Renew"

	claims, ok := middleware.ClaimsFrom(c)
	if !ok {
		shared.Fail(c, op, apperrors.Unauthorized(op, "user not authenticated"))
		return
	}
	resp, err := h.Auth.Renew(c.Request.Context(), claims)
	if err != nil {
		shared.Fail(c, op, err)
		return
	}
	shared.OK(c, http.StatusOK, resp)
}

func (h *Handlers) handleLogout(c *gin.Context) {
	const op = "api.Logout"

	claims, ok := middleware.ClaimsFrom(c)
	if !ok {
		shared.Fail(c, op, apperrors.Unauthorized(op, "user not authenticated"))
		return
	}
	if err := h.Auth.Logout(c.Request.Context(), claims); err != nil {
		shared.Fail(c, op, err)
		return
	}
	shared.OK(c, http.StatusOK, gin.H{"logged_out": true})
}

// handleProfile returns the user and profile carried by the session token.
func (h *Handlers) handleProfile(c *gin.Context) {
	const op = "api.Profile"

	claims, ok := middleware.ClaimsFrom(c)
	if !ok {
		shared.Fail(c, op, apperrors.Unauthorized(op, "user not authenticated"))
		return
	}
	shared.OK(c, http.StatusOK, gin.H{
		"user":    claims.User(),
		"profile": claims.Profile,
	})
}
