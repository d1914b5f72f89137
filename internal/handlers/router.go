package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/schoolsuite/school-service/internal/cache"
	"github.com/schoolsuite/school-service/internal/config"
	"github.com/schoolsuite/school-service/internal/models"
	"github.com/schoolsuite/school-service/internal/permissions"
	"github.com/schoolsuite/school-service/internal/repositories"
	"github.com/schoolsuite/school-service/internal/services"
	"github.com/schoolsuite/school-service/internal/utils"
)

type HandlerManager struct {
	userHandler       *UserHandler
	schoolHandler     *SchoolHandler
	roleHandler       *RoleHandler
	grantHandler      *GrantHandler
	enrollmentHandler *EnrollmentHandler
	authMiddleware    *CasdoorAuthMiddleware
	serviceManager    services.ServiceManager
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	logger utils.Logger,
	casdoorConfig config.CasdoorConfig,
	userRepo repositories.UserRepository,
	identityCache *cache.IdentityCache,
) *HandlerManager {
	authMiddleware := NewCasdoorAuthMiddleware(casdoorConfig, userRepo, identityCache, serviceManager.Engine(), logger)

	return &HandlerManager{
		userHandler:       NewUserHandler(serviceManager.User(), identityCache, logger),
		schoolHandler:     NewSchoolHandler(serviceManager.School(), serviceManager.Export(), logger),
		roleHandler:       NewRoleHandler(serviceManager.Role(), logger),
		grantHandler:      NewGrantHandler(serviceManager.Grant(), logger),
		enrollmentHandler: NewEnrollmentHandler(serviceManager.Enrollment(), logger),
		authMiddleware:    authMiddleware,
		serviceManager:    serviceManager,
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/health", hm.healthCheck)

	// API v1 routes with authentication
	v1 := router.Group("/api/v1")
	v1.Use(hm.authMiddleware.AuthMiddleware())
	{
		// School routes. Provisioning is platform-level.
		schools := v1.Group("/schools")
		{
			schools.POST("", hm.authMiddleware.RequireRoleType(models.RoleTypeSuperAdmin), hm.schoolHandler.ProvisionSchool)
			schools.GET("", hm.authMiddleware.RequireRoleType(models.RoleTypeSuperAdmin), hm.schoolHandler.ListSchools)
			schools.GET("/:id", hm.schoolHandler.GetSchool)
			schools.GET("/:id/permission-matrix", hm.authMiddleware.RequirePermission(permissions.CategoryRoleManagement, permissions.CapView), hm.schoolHandler.ExportPermissionMatrix)
		}

		// Role routes - guarded by role_management capabilities
		roles := v1.Group("/roles")
		{
			roles.POST("", hm.authMiddleware.RequirePermission(permissions.CategoryRoleManagement, permissions.CapAdd), hm.roleHandler.CreateRole)
			roles.POST("/ensure", hm.authMiddleware.RequirePermission(permissions.CategoryRoleManagement, permissions.CapAdd), hm.roleHandler.EnsureRole)
			roles.GET("", hm.authMiddleware.RequirePermission(permissions.CategoryRoleManagement, permissions.CapView), hm.roleHandler.ListRoles)
			roles.GET("/:id", hm.authMiddleware.RequirePermission(permissions.CategoryRoleManagement, permissions.CapView), hm.roleHandler.GetRole)
			roles.DELETE("/:id", hm.authMiddleware.RequirePermission(permissions.CategoryRoleManagement, permissions.CapDelete), hm.roleHandler.DeleteRole)

			roles.POST("/:id/grants", hm.authMiddleware.RequirePermission(permissions.CategoryRoleManagement, permissions.CapEdit), hm.roleHandler.AttachGrant)
			roles.DELETE("/:id/grants/:grant_id", hm.authMiddleware.RequirePermission(permissions.CategoryRoleManagement, permissions.CapEdit), hm.roleHandler.DetachGrant)
		}

		// Permission grant routes
		grants := v1.Group("/grants")
		{
			grants.POST("", hm.authMiddleware.RequirePermission(permissions.CategoryRoleManagement, permissions.CapAdd), hm.grantHandler.CreateGrant)
			grants.GET("/:id", hm.authMiddleware.RequirePermission(permissions.CategoryRoleManagement, permissions.CapView), hm.grantHandler.GetGrant)
			grants.PATCH("/:id", hm.authMiddleware.RequirePermission(permissions.CategoryRoleManagement, permissions.CapEdit), hm.grantHandler.PatchGrant)
			grants.DELETE("/:id", hm.authMiddleware.RequirePermission(permissions.CategoryRoleManagement, permissions.CapDelete), hm.grantHandler.DeleteGrant)
		}

		// User routes
		users := v1.Group("/users")
		{
			users.POST("", hm.userHandler.Register)
			users.GET("/me/access-profile", hm.userHandler.GetAccessProfile)
			users.GET("", hm.authMiddleware.RequirePermission(permissions.CategoryStudentManagement, permissions.CapView), hm.userHandler.ListUsers)
			users.GET("/:id", hm.userHandler.GetUser)

			// Access association management
			users.POST("/:id/roles", hm.authMiddleware.RequirePermission(permissions.CategoryRoleManagement, permissions.CapEdit), hm.userHandler.AssignRole)
			users.DELETE("/:id/roles/:role_id", hm.authMiddleware.RequirePermission(permissions.CategoryRoleManagement, permissions.CapEdit), hm.userHandler.RemoveRole)
			users.POST("/:id/grants", hm.authMiddleware.RequirePermission(permissions.CategoryRoleManagement, permissions.CapEdit), hm.userHandler.AddGrant)
			users.DELETE("/:id/grants/:grant_id", hm.authMiddleware.RequirePermission(permissions.CategoryRoleManagement, permissions.CapEdit), hm.userHandler.RemoveGrant)

			// Enrollment lifecycle
			users.POST("/:id/student-enrollments", hm.authMiddleware.RequirePermission(permissions.CategoryStudentManagement, permissions.CapEdit), hm.enrollmentHandler.EnrollStudent)
			users.GET("/:id/student-enrollments", hm.enrollmentHandler.ListStudentEnrollments)
			users.PUT("/:id/student-enrollments/:school_id/status", hm.authMiddleware.RequirePermission(permissions.CategoryStudentManagement, permissions.CapEdit), hm.enrollmentHandler.SetStudentEnrollmentStatus)

			users.POST("/:id/parent-enrollments", hm.authMiddleware.RequirePermission(permissions.CategoryParentManagement, permissions.CapEdit), hm.enrollmentHandler.EnrollParent)
			users.GET("/:id/parent-enrollments", hm.enrollmentHandler.ListParentEnrollments)
			users.PUT("/:id/parent-enrollments/:school_id/status", hm.authMiddleware.RequirePermission(permissions.CategoryParentManagement, permissions.CapEdit), hm.enrollmentHandler.SetParentEnrollmentStatus)
		}
	}
}

func (hm *HandlerManager) healthCheck(c *gin.Context) {
	if err := hm.serviceManager.HealthCheck(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}
