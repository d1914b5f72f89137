package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/schoolsuite/school-service/internal/models"
	"github.com/schoolsuite/school-service/internal/repositories"
	"github.com/schoolsuite/school-service/internal/services"
	"github.com/schoolsuite/school-service/internal/utils"
	"github.com/schoolsuite/school-service/internal/validator"
)

type RoleHandler struct {
	BaseHandler
	service services.RoleService
}

func NewRoleHandler(service services.RoleService, logger utils.Logger) *RoleHandler {
	return &RoleHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
	}
}

// CreateRole creates a role scoped to a school (or platform-level when
// school_id is absent).
func (h *RoleHandler) CreateRole(c *gin.Context) {
	h.LogRequest(c, "Creating role")

	var req services.CreateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid request body", Details: err.Error()})
		return
	}

	resp, err := h.service.Create(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// EnsureRole returns the scope's role of the requested type, creating it
// when the scope has none. 201 on create, 200 when an existing role is
// returned.
func (h *RoleHandler) EnsureRole(c *gin.Context) {
	h.LogRequest(c, "Ensuring role")

	var req services.CreateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid request body", Details: err.Error()})
		return
	}

	resp, created, err := h.service.EnsureRole(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, resp)
}

func (h *RoleHandler) GetRole(c *gin.Context) {
	resp, err := h.service.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *RoleHandler) ListRoles(c *gin.Context) {
	filters := repositories.RoleFilters{}

	if schoolID := c.Query("school_id"); schoolID != "" {
		filters.SchoolID = &schoolID
	}
	if roleType := c.Query("type"); roleType != "" {
		t := models.RoleType(roleType)
		filters.Type = &t
	}
	filters.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "50"))
	filters.Offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))

	resp, err := h.service.List(c.Request.Context(), filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *RoleHandler) DeleteRole(c *gin.Context) {
	h.LogRequest(c, "Deleting role")

	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *RoleHandler) AttachGrant(c *gin.Context) {
	h.LogRequest(c, "Attaching grant to role")

	var req validator.AttachGrantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid request body", Details: err.Error()})
		return
	}

	if err := h.service.AttachGrant(c.Request.Context(), c.Param("id"), req.GrantID); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *RoleHandler) DetachGrant(c *gin.Context) {
	h.LogRequest(c, "Detaching grant from role")

	if err := h.service.DetachGrant(c.Request.Context(), c.Param("id"), c.Param("grant_id")); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
