package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/comit-io/galaxyapi/internal/api/shared"
	"github.com/comit-io/galaxyapi/internal/apperrors"
	"github.com/comit-io/galaxyapi/internal/models"
)

type createQueryRequest struct {
	Name string           `json:"name" binding:"required"`
	Body models.QueryBody `json:"body" binding:"required"`
}

// Saved queries belong to the account name carried by the token.
func (h *Handlers) handleListQueries(c *gin.Context) {
	queries, err := h.Queries.List(c.Request.Context(), c.GetString(shared.UsernameKey))
	if err != nil {
		shared.Fail(c, "api.ListQueries", err)
		return
	}
	shared.OK(c, http.StatusOK, queries)
}

func (h *Handlers) handleCreateQuery(c *gin.Context) {
	const op = "api.CreateQuery"

	var req createQueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		shared.Fail(c, op, apperrors.Validation(op, "name and body are required"))
		return
	}
	q, err := h.Queries.Create(c.Request.Context(), c.GetString(shared.UsernameKey), req.Name, req.Body)
	if err != nil {
		shared.Fail(c, op, err)
		return
	}
	shared.OK(c, http.StatusCreated, q)
}

func (h *Handlers) handleDeleteQuery(c *gin.Context) {
	if err := h.Queries.Delete(c.Request.Context(), c.GetString(shared.UsernameKey), c.Param("id")); err != nil {
		shared.Fail(c, "api.DeleteQuery", err)
		return
	}
	c.Status(http.StatusNoContent)
}
