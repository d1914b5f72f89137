package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/gin-gonic/gin"

	"github.com/schoolsuite/school-service/internal/authz"
	"github.com/schoolsuite/school-service/internal/cache"
	"github.com/schoolsuite/school-service/internal/config"
	"github.com/schoolsuite/school-service/internal/models"
	"github.com/schoolsuite/school-service/internal/permissions"
	"github.com/schoolsuite/school-service/internal/repositories"
	"github.com/schoolsuite/school-service/internal/services"
	"github.com/schoolsuite/school-service/internal/utils"
)

// CasdoorAuthMiddleware authenticates bearer tokens against Casdoor and
// loads the matching local identity. Authorization decisions are made by
// the engine, never from token claims.
type CasdoorAuthMiddleware struct {
	BaseHandler
	client        *casdoorsdk.Client
	userRepo      repositories.UserRepository
	identityCache *cache.IdentityCache
	engine        *authz.Engine
	logger        utils.Logger
}

func NewCasdoorAuthMiddleware(cfg config.CasdoorConfig, userRepo repositories.UserRepository, identityCache *cache.IdentityCache, engine *authz.Engine, logger utils.Logger) *CasdoorAuthMiddleware {
	client := casdoorsdk.NewClient(
		cfg.Endpoint,
		cfg.ClientID,
		cfg.ClientSecret,
		cfg.Cert,
		cfg.Organization,
		cfg.Application,
	)

	return &CasdoorAuthMiddleware{
		BaseHandler:   NewBaseHandler(logger),
		client:        client,
		userRepo:      userRepo,
		identityCache: identityCache,
		engine:        engine,
		logger:        logger,
	}
}

// AuthMiddleware validates the bearer token and resolves the local
// identity record. Tokens for identities this service does not know are
// rejected: access control needs the local roles and grants.
func (cam *CasdoorAuthMiddleware) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			return
		}

		claims, err := cam.client.ParseJwtToken(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, ErrorResponse{
				Message: fmt.Sprintf("invalid token: %v", err),
			})
			c.Abort()
			return
		}

		userID := claims.Id
		if userID == "" {
			c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "token carries no subject"})
			c.Abort()
			return
		}

		user, err := cam.loadIdentity(c, userID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "unknown identity"})
			} else {
				cam.logger.Error("failed to load identity", "user_id", userID, "error", err)
				c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "Internal server error"})
			}
			c.Abort()
			return
		}

		c.Set("user_id", user.ID)
		c.Set("user", user)
		c.Next()
	}
}

func (cam *CasdoorAuthMiddleware) loadIdentity(c *gin.Context, userID string) (*models.User, error) {
	ctx := c.Request.Context()

	if cam.identityCache != nil {
		if user, ok := cam.identityCache.Get(ctx, userID); ok {
			return user, nil
		}
	}

	user, err := cam.userRepo.GetWithSubIdentity(ctx, userID)
	if err != nil {
		return nil, err
	}

	if cam.identityCache != nil {
		if err := cam.identityCache.Set(ctx, user); err != nil {
			cam.logger.Warn("failed to cache identity", "user_id", userID, "error", err)
		}
	}
	return user, nil
}

// RequireRoleType admits only identities holding a role of one of the
// given types.
func (cam *CasdoorAuthMiddleware) RequireRoleType(types ...models.RoleType) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString("user_id")
		if userID == "" {
			c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "User not authenticated"})
			c.Abort()
			return
		}

		ok, err := cam.engine.HasRoleType(c.Request.Context(), userID, types...)
		if err != nil {
			cam.logger.Error("role type check failed", "user_id", userID, "error", err)
			c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "Internal server error"})
			c.Abort()
			return
		}
		if !ok {
			cam.handleServiceError(c, services.NewPermissionError(
				userID, fmt.Sprintf("%v", types), "act as", "identity holds no role of a required type"))
			c.Abort()
			return
		}

		c.Next()
	}
}

// RequirePermission admits only identities whose effective permission
// document grants the capability.
func (cam *CasdoorAuthMiddleware) RequirePermission(cat permissions.Category, cap permissions.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString("user_id")
		if userID == "" {
			c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "User not authenticated"})
			c.Abort()
			return
		}

		if err := cam.engine.RequirePermission(c.Request.Context(), userID, cat, cap); err != nil {
			switch {
			case isAuthzDenial(err):
				cam.handleServiceError(c, services.NewPermissionError(
					userID, string(cat), string(cap), err.Error()))
			default:
				cam.logger.Error("permission check failed", "user_id", userID, "error", err)
				c.JSON(http.StatusInternalServerError, ErrorResponse{Message: "Internal server error"})
			}
			c.Abort()
			return
		}

		c.Next()
	}
}

func isAuthzDenial(err error) bool {
	return errors.Is(err, authz.ErrForbidden) || errors.Is(err, authz.ErrNoPermissionsConfigured)
}

func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "authorization header missing"})
		c.Abort()
		return "", false
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "invalid authorization header format"})
		c.Abort()
		return "", false
	}
	return parts[1], true
}

// GetUserIDFromContext extracts the authenticated user id.
func GetUserIDFromContext(c *gin.Context) (string, error) {
	userID, exists := c.Get("user_id")
	if !exists {
		return "", fmt.Errorf("user ID not found in context")
	}
	id, ok := userID.(string)
	if !ok {
		return "", fmt.Errorf("invalid user ID type in context")
	}
	return id, nil
}
