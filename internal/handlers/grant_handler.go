package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/schoolsuite/school-service/internal/services"
	"github.com/schoolsuite/school-service/internal/utils"
)

type GrantHandler struct {
	BaseHandler
	service services.GrantService
}

func NewGrantHandler(service services.GrantService, logger utils.Logger) *GrantHandler {
	return &GrantHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
	}
}

// CreateGrant validates the partial document against the permission
// schema and stores it normalized.
func (h *GrantHandler) CreateGrant(c *gin.Context) {
	h.LogRequest(c, "Creating permission grant")

	var req services.CreateGrantRequest
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

func (h *GrantHandler) GetGrant(c *gin.Context) {
	resp, err := h.service.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// PatchGrant deep-merges the submitted partial into the stored document.
func (h *GrantHandler) PatchGrant(c *gin.Context) {
	h.LogRequest(c, "Patching permission grant")

	var req services.PatchGrantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid request body", Details: err.Error()})
		return
	}

	resp, err := h.service.Patch(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *GrantHandler) DeleteGrant(c *gin.Context) {
	h.LogRequest(c, "Deleting permission grant")

	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
