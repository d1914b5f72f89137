package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/schoolsuite/school-service/internal/services"
	"github.com/schoolsuite/school-service/internal/utils"
)

type SchoolHandler struct {
	BaseHandler
	service       services.SchoolService
	exportService services.ExportService
}

func NewSchoolHandler(service services.SchoolService, exportService services.ExportService, logger utils.Logger) *SchoolHandler {
	return &SchoolHandler{
		BaseHandler:   NewBaseHandler(logger),
		service:       service,
		exportService: exportService,
	}
}

// ProvisionSchool creates a school with its owner account and default
// role set.
func (h *SchoolHandler) ProvisionSchool(c *gin.Context) {
	h.LogRequest(c, "Provisioning school")

	var req services.ProvisionSchoolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid request body", Details: err.Error()})
		return
	}

	resp, err := h.service.Provision(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *SchoolHandler) GetSchool(c *gin.Context) {
	resp, err := h.service.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *SchoolHandler) ListSchools(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	resp, err := h.service.List(c.Request.Context(), limit, offset)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ExportPermissionMatrix streams the roles-by-capabilities workbook for
// one school.
func (h *SchoolHandler) ExportPermissionMatrix(c *gin.Context) {
	h.LogRequest(c, "Exporting permission matrix")

	schoolID := c.Param("id")
	data, err := h.exportService.ExportPermissionMatrix(c.Request.Context(), &schoolID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	filename := fmt.Sprintf("permission-matrix-%s.xlsx", schoolID)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}
