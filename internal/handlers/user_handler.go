package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/schoolsuite/school-service/internal/cache"
	"github.com/schoolsuite/school-service/internal/repositories"
	"github.com/schoolsuite/school-service/internal/services"
	"github.com/schoolsuite/school-service/internal/utils"
	"github.com/schoolsuite/school-service/internal/validator"
)

type UserHandler struct {
	BaseHandler
	service       services.UserService
	identityCache *cache.IdentityCache
}

func NewUserHandler(service services.UserService, identityCache *cache.IdentityCache, logger utils.Logger) *UserHandler {
	return &UserHandler{
		BaseHandler:   NewBaseHandler(logger),
		service:       service,
		identityCache: identityCache,
	}
}

// Register creates an identity together with its single sub-identity.
func (h *UserHandler) Register(c *gin.Context) {
	h.LogRequest(c, "Registering user")

	var req services.RegisterUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid request body", Details: err.Error()})
		return
	}

	resp, err := h.service.Register(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *UserHandler) GetUser(c *gin.Context) {
	resp, err := h.service.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *UserHandler) ListUsers(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	users, total, err := h.service.List(c.Request.Context(), repositories.UserFilters{
		Query:  c.Query("q"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users, "total": total})
}

// GetAccessProfile reports the caller's resolved tenant, role types and
// effective permission document.
func (h *UserHandler) GetAccessProfile(c *gin.Context) {
	callerID, err := GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "Authentication required"})
		return
	}

	resp, err := h.service.AccessProfile(c.Request.Context(), callerID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *UserHandler) AssignRole(c *gin.Context) {
	var req validator.AssignRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid request body", Details: err.Error()})
		return
	}

	userID := c.Param("id")
	if err := h.service.AssignRole(c.Request.Context(), userID, req.RoleID); err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.invalidateIdentity(c, userID)
	c.Status(http.StatusNoContent)
}

func (h *UserHandler) RemoveRole(c *gin.Context) {
	userID := c.Param("id")
	if err := h.service.RemoveRole(c.Request.Context(), userID, c.Param("role_id")); err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.invalidateIdentity(c, userID)
	c.Status(http.StatusNoContent)
}

func (h *UserHandler) AddGrant(c *gin.Context) {
	var req validator.AttachGrantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid request body", Details: err.Error()})
		return
	}

	userID := c.Param("id")
	if err := h.service.AddGrant(c.Request.Context(), userID, req.GrantID); err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.invalidateIdentity(c, userID)
	c.Status(http.StatusNoContent)
}

func (h *UserHandler) RemoveGrant(c *gin.Context) {
	userID := c.Param("id")
	if err := h.service.RemoveGrant(c.Request.Context(), userID, c.Param("grant_id")); err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.invalidateIdentity(c, userID)
	c.Status(http.StatusNoContent)
}

// invalidateIdentity drops the cached identity after an association
// change so the auth middleware reloads roles on the next request.
func (h *UserHandler) invalidateIdentity(c *gin.Context, userID string) {
	if h.identityCache == nil {
		return
	}
	if err := h.identityCache.Invalidate(c.Request.Context(), userID); err != nil {
		h.logger.Warn("Failed to invalidate identity cache", "user_id", userID, "error", err)
	}
}
