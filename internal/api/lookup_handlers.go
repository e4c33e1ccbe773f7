package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/comit-io/galaxyapi/internal/api/shared"
)

func (h *Handlers) handleListTags(c *gin.Context) {
	tags, err := h.Lookups.Tags(c.Request.Context())
	if err != nil {
		shared.Fail(c, "api.ListTags", err)
		return
	}
	shared.OK(c, http.StatusOK, tags)
}

func (h *Handlers) handleSearchTags(c *gin.Context) {
	tags, err := h.Lookups.SearchTags(c.Request.Context(), c.Query("q"))
	if err != nil {
		shared.Fail(c, "api.SearchTags", err)
		return
	}
	shared.OK(c, http.StatusOK, tags)
}

func (h *Handlers) handleSearchCategories(c *gin.Context) {
	categories, err := h.Lookups.SearchCategories(c.Request.Context(), c.Query("q"))
	if err != nil {
		shared.Fail(c, "api.SearchCategories", err)
		return
	}
	shared.OK(c, http.StatusOK, categories)
}

func (h *Handlers) handlePermissionTypes(c *gin.Context) {
	types, err := h.Lookups.PermissionTypes(c.Request.Context())
	if err != nil {
		shared.Fail(c, "api.PermissionTypes", err)
		return
	}
	shared.OK(c, http.StatusOK, types)
}

func (h *Handlers) handleListGroups(c *gin.Context) {
	groups, err := h.Lookups.Groups(c.Request.Context())
	if err != nil {
		shared.Fail(c, "api.ListGroups", err)
		return
	}
	shared.OK(c, http.StatusOK, groups)
}

func (h *Handlers) handleGroupPermissions(c *gin.Context) {
	group, err := h.Lookups.GroupPermissions(c.Request.Context(), c.Param("id"))
	if err != nil {
		shared.Fail(c, "api.GroupPermissions", err)
		return
	}
	shared.OK(c, http.StatusOK, group)
}
