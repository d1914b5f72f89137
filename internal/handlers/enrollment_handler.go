package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/schoolsuite/school-service/internal/services"
	"github.com/schoolsuite/school-service/internal/utils"
	"github.com/schoolsuite/school-service/internal/validator"
)

type EnrollmentHandler struct {
	BaseHandler
	service services.EnrollmentService
}

func NewEnrollmentHandler(service services.EnrollmentService, logger utils.Logger) *EnrollmentHandler {
	return &EnrollmentHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
	}
}

func (h *EnrollmentHandler) EnrollStudent(c *gin.Context) {
	h.LogRequest(c, "Enrolling student")

	var req services.EnrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid request body", Details: err.Error()})
		return
	}

	resp, err := h.service.EnrollStudent(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *EnrollmentHandler) EnrollParent(c *gin.Context) {
	h.LogRequest(c, "Enrolling parent")

	var req services.EnrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid request body", Details: err.Error()})
		return
	}

	resp, err := h.service.EnrollParent(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *EnrollmentHandler) SetStudentEnrollmentStatus(c *gin.Context) {
	var req validator.EnrollmentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid request body", Details: err.Error()})
		return
	}

	err := h.service.SetStudentEnrollmentStatus(c.Request.Context(), c.Param("id"), c.Param("school_id"), req.Status)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *EnrollmentHandler) SetParentEnrollmentStatus(c *gin.Context) {
	var req validator.EnrollmentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid request body", Details: err.Error()})
		return
	}

	err := h.service.SetParentEnrollmentStatus(c.Request.Context(), c.Param("id"), c.Param("school_id"), req.Status)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *EnrollmentHandler) ListStudentEnrollments(c *gin.Context) {
	resp, err := h.service.ListStudentEnrollments(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"enrollments": resp})
}

func (h *EnrollmentHandler) ListParentEnrollments(c *gin.Context) {
	resp, err := h.service.ListParentEnrollments(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"enrollments": resp})
}
