package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/comit-io/galaxyapi/internal/api/shared"
	"github.com/comit-io/galaxyapi/internal/apperrors"
	"github.com/comit-io/galaxyapi/internal/models"
)

func (h *Handlers) handleListComponents(c *gin.Context) {
	components, err := h.Lookups.Components(c.Request.Context())
	if err != nil {
		shared.Fail(c, "api.ListComponents", err)
		return
	}
	shared.OK(c, http.StatusOK, components)
}

func (h *Handlers) handleGetComponent(c *gin.Context) {
	settings, err := h.Settings.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		shared.Fail(c, "api.GetComponent", err)
		return
	}
	shared.OK(c, http.StatusOK, settings)
}

// handleUpdateSettings applies a full settings payload. The component id of
// the payload must match the path.
func (h *Handlers) handleUpdateSettings(c *gin.Context) {
	const op = "api.UpdateSettings"

	raw, err := c.GetRawData()
	if err != nil {
		shared.Fail(c, op, apperrors.Validation(op, "settings payload could not be read"))
		return
	}
	payload, err := models.DecodeComponentSettings(raw)
	if err != nil {
		shared.Fail(c, op, err)
		return
	}
	if payload.Component.ID != c.Param("id") {
		shared.Fail(c, op, apperrors.Validation(op, "component id does not match the request path"))
		return
	}

	updated, err := h.Settings.Update(c.Request.Context(), payload)
	if err != nil {
		shared.Fail(c, op, err)
		return
	}
	shared.OK(c, http.StatusOK, updated)
}

func (h *Handlers) handleComponentAlerts(c *gin.Context) {
	alerts, err := h.Lookups.ComponentAlerts(c.Request.Context(), c.Param("id"))
	if err != nil {
		shared.Fail(c, "api.ComponentAlerts", err)
		return
	}
	shared.OK(c, http.StatusOK, alerts)
}
