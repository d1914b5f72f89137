package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/schoolsuite/school-service/internal/authz"
	"github.com/schoolsuite/school-service/internal/models"
	"github.com/schoolsuite/school-service/internal/permissions"
	"github.com/schoolsuite/school-service/internal/services"
	"github.com/schoolsuite/school-service/internal/utils"
	"github.com/schoolsuite/school-service/internal/validator"
)

type ErrorResponse = models.ErrorResponse

// BaseHandler carries the logger and the shared service-error mapping.
type BaseHandler struct {
	logger utils.Logger
}

func NewBaseHandler(logger utils.Logger) BaseHandler {
	return BaseHandler{logger: logger}
}

func (h *BaseHandler) LogRequest(c *gin.Context, msg string) {
	h.logger.Info(msg,
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"request_id", c.GetString("request_id"),
	)
}

// handleServiceError maps service and authorization errors onto HTTP
// status codes. Unmapped errors become 500 without leaking detail.
func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	var validationErrs validator.ValidationErrors
	var schemaErr *permissions.SchemaViolationError
	var permissionErr *services.PermissionError

	switch {
	case errors.As(err, &validationErrs):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: validationErrs.Error(),
		})
	case errors.As(err, &schemaErr):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: schemaErr.Error(),
		})
	case errors.As(err, &permissionErr):
		c.JSON(http.StatusForbidden, ErrorResponse{
			Message: permissionErr.Error(),
		})
	case errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrSchoolNotFound),
		errors.Is(err, services.ErrRoleNotFound),
		errors.Is(err, services.ErrGrantNotFound),
		errors.Is(err, services.ErrEnrollmentNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: err.Error()})
	case errors.Is(err, services.ErrEmailTaken),
		errors.Is(err, services.ErrUsernameTaken),
		errors.Is(err, services.ErrDuplicateRoleName),
		errors.Is(err, services.ErrActiveEnrollmentExists),
		errors.Is(err, services.ErrAlreadyEnrolled):
		c.JSON(http.StatusConflict, ErrorResponse{Message: err.Error()})
	case errors.Is(err, services.ErrSchoolRequired):
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: err.Error()})
	case errors.Is(err, services.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: err.Error()})
	case errors.Is(err, authz.ErrForbidden),
		errors.Is(err, authz.ErrNoPermissionsConfigured):
		c.JSON(http.StatusForbidden, ErrorResponse{Message: err.Error()})
	case errors.Is(err, authz.ErrNoTenant),
		errors.Is(err, authz.ErrNoActiveTenant),
		errors.Is(err, authz.ErrAmbiguousTenant):
		c.JSON(http.StatusConflict, ErrorResponse{Message: err.Error()})
	default:
		h.logger.Error("unhandled service error", "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Message: "Internal server error",
		})
	}
}

// userID returns the authenticated identity set by the auth middleware.
func (h *BaseHandler) userID(c *gin.Context) (string, bool) {
	id, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "User not authenticated"})
		return "", false
	}
	s, ok := id.(string)
	if !ok || s == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "User not authenticated"})
		return "", false
	}
	return s, true
}
