package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"gorm.io/gorm"

	"github.com/schoolsuite/school-service/internal/authz"
	"github.com/schoolsuite/school-service/internal/events"
	"github.com/schoolsuite/school-service/internal/permissions"
	"github.com/schoolsuite/school-service/internal/repositories"
	"github.com/schoolsuite/school-service/internal/utils"
	"github.com/schoolsuite/school-service/internal/validator"
)

// serviceManager implements ServiceManager.
type serviceManager struct {
	db        *gorm.DB
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	schema    *permissions.Schema
	hasher    utils.PasswordHasher
	publisher events.EventPublisher

	engine   *authz.Engine
	resolver *authz.TenantResolver

	userService       UserService
	schoolService     SchoolService
	roleService       RoleService
	grantService      GrantService
	enrollmentService EnrollmentService
	exportService     ExportService

	initialized bool
	shutdown    bool
	mu          sync.RWMutex
}

// NewServiceManager creates a service manager with all dependencies.
// publisher may be nil; services then skip event publication.
func NewServiceManager(db *gorm.DB, repo repositories.Repository, logger *slog.Logger, validator *validator.Validator, schema *permissions.Schema, publisher events.EventPublisher) ServiceManager {
	return &serviceManager{
		db:        db,
		repo:      repo,
		logger:    logger,
		validator: validator,
		schema:    schema,
		hasher:    utils.NewBcryptHasher(),
		publisher: publisher,
	}
}

// NewDefaultServiceManager wires the v1 permission schema.
func NewDefaultServiceManager(db *gorm.DB, repo repositories.Repository, logger *slog.Logger, validator *validator.Validator, publisher events.EventPublisher) ServiceManager {
	return NewServiceManager(db, repo, logger, validator, permissions.DefaultSchema(), publisher)
}

func (sm *serviceManager) Initialize(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.initialized {
		return nil
	}

	sm.logger.Info("Initializing service manager", "schema_version", sm.schema.Version())

	sm.engine = authz.NewEngine(sm.schema, sm.repo, sm.logger)
	sm.resolver = authz.NewTenantResolver(sm.repo, sm.logger)

	sm.userService = NewUserService(sm.repo, sm.db, sm.logger, sm.validator, sm.hasher, sm.engine, sm.resolver, sm.publisher)
	sm.schoolService = NewSchoolService(sm.repo, sm.db, sm.logger, sm.validator, sm.schema, sm.hasher, sm.publisher)
	sm.roleService = NewRoleService(sm.repo, sm.db, sm.logger, sm.validator, sm.publisher)
	sm.grantService = NewGrantService(sm.repo, sm.db, sm.logger, sm.validator, sm.schema, sm.publisher)
	sm.enrollmentService = NewEnrollmentService(sm.repo, sm.db, sm.logger, sm.validator, sm.publisher)
	sm.exportService = NewExportService(sm.repo, sm.db, sm.logger, sm.schema)

	if err := sm.repo.Ping(ctx); err != nil {
		return fmt.Errorf("repository health check failed: %w", err)
	}

	sm.initialized = true
	sm.logger.Info("Service manager initialized")
	return nil
}

func (sm *serviceManager) User() UserService             { return sm.userService }
func (sm *serviceManager) School() SchoolService         { return sm.schoolService }
func (sm *serviceManager) Role() RoleService             { return sm.roleService }
func (sm *serviceManager) Grant() GrantService           { return sm.grantService }
func (sm *serviceManager) Enrollment() EnrollmentService { return sm.enrollmentService }
func (sm *serviceManager) Export() ExportService         { return sm.exportService }

// Engine exposes the authorization engine for middleware.
func (sm *serviceManager) Engine() *authz.Engine { return sm.engine }

// Resolver exposes the tenant resolver for middleware.
func (sm *serviceManager) Resolver() *authz.TenantResolver { return sm.resolver }

func (sm *serviceManager) HealthCheck(ctx context.Context) error {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		return fmt.Errorf("service manager not initialized")
	}
	if sm.shutdown {
		return fmt.Errorf("service manager is shut down")
	}
	return sm.repo.Ping(ctx)
}

func (sm *serviceManager) Shutdown(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.shutdown {
		return nil
	}

	sm.logger.Info("Shutting down service manager")
	if sm.publisher != nil {
		if err := sm.publisher.Close(); err != nil {
			sm.logger.Warn("failed to close event publisher", "error", err)
		}
	}

	sm.shutdown = true
	return nil
}
