package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/schoolsuite/school-service/internal/events"
	"github.com/schoolsuite/school-service/internal/models"
	"github.com/schoolsuite/school-service/internal/repositories"
	"github.com/schoolsuite/school-service/internal/validator"
)

type roleService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
	publisher events.EventPublisher
}

func NewRoleService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator, publisher events.EventPublisher) RoleService {
	return &roleService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
		publisher: publisher,
	}
}

func (s *roleService) Create(ctx context.Context, req *CreateRoleRequest) (*RoleResponse, error) {
	s.logger.Info("Creating role", "name", req.Name, "type", req.Type)

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	if req.SchoolID != nil {
		exists, err := s.repo.School().ExistsByID(ctx, *req.SchoolID)
		if err != nil {
			return nil, fmt.Errorf("failed to check school: %w", err)
		}
		if !exists {
			return nil, ErrSchoolNotFound
		}
	}

	role := &models.Role{
		ID:       uuid.New().String(),
		Name:     req.Name,
		Type:     req.Type,
		SchoolID: req.SchoolID,
	}

	if err := s.repo.Role().Create(ctx, role); err != nil {
		if repositories.IsDuplicateKeyError(err) {
			return nil, ErrDuplicateRoleName
		}
		return nil, fmt.Errorf("failed to create role: %w", err)
	}

	s.publishEvent(ctx, events.EventRoleCreated, map[string]any{
		"role_id": role.ID, "name": role.Name, "type": role.Type, "school_id": role.SchoolID,
	})
	s.logger.Info("Role created", "role_id", role.ID)

	return &RoleResponse{Role: role}, nil
}

// EnsureRole returns the scope's existing role of the requested type,
// creating one under the requested name when the scope has none yet.
// The second return value reports whether a role was created.
func (s *roleService) EnsureRole(ctx context.Context, req *CreateRoleRequest) (*RoleResponse, bool, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, false, err
	}

	existing, err := s.repo.Role().ListByType(ctx, req.Type, req.SchoolID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to list roles by type: %w", err)
	}
	if len(existing) > 0 {
		// Deterministic pick when the scope already has several.
		sort.Slice(existing, func(i, j int) bool { return existing[i].Name < existing[j].Name })
		return &RoleResponse{Role: existing[0]}, false, nil
	}

	created, err := s.Create(ctx, req)
	if err == nil {
		return created, true, nil
	}
	if !errors.Is(err, ErrDuplicateRoleName) {
		return nil, false, err
	}

	// Lost a create race, or the name belongs to a role of another type.
	byName, gerr := s.repo.Role().GetByName(ctx, req.Name, req.SchoolID)
	if gerr != nil {
		return nil, false, fmt.Errorf("failed to load role by name: %w", gerr)
	}
	if byName.Type != req.Type {
		return nil, false, ErrDuplicateRoleName
	}
	return &RoleResponse{Role: byName}, false, nil
}

func (s *roleService) GetByID(ctx context.Context, id string) (*RoleResponse, error) {
	role, err := s.repo.Role().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrRoleNotFound
		}
		return nil, fmt.Errorf("failed to get role: %w", err)
	}
	return &RoleResponse{Role: role}, nil
}

func (s *roleService) List(ctx context.Context, filters repositories.RoleFilters) (*RoleListResponse, error) {
	if filters.Limit <= 0 || filters.Limit > 100 {
		filters.Limit = 50
	}

	roles, total, err := s.repo.Role().List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}

	resp := &RoleListResponse{Total: total}
	for _, role := range roles {
		resp.Roles = append(resp.Roles, &RoleResponse{Role: role})
	}
	return resp, nil
}

func (s *roleService) Delete(ctx context.Context, id string) error {
	role, err := s.repo.Role().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrRoleNotFound
		}
		return fmt.Errorf("failed to load role: %w", err)
	}

	if err := s.repo.Role().Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete role: %w", err)
	}

	s.publishEvent(ctx, events.EventRoleDeleted, map[string]any{
		"role_id": role.ID, "name": role.Name,
	})
	s.logger.Info("Role deleted", "role_id", id)
	return nil
}

func (s *roleService) AttachGrant(ctx context.Context, roleID, grantID string) error {
	if _, err := s.repo.Role().GetByID(ctx, roleID); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrRoleNotFound
		}
		return fmt.Errorf("failed to load role: %w", err)
	}
	if _, err := s.repo.Grant().GetByID(ctx, grantID); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrGrantNotFound
		}
		return fmt.Errorf("failed to load permission grant: %w", err)
	}

	if err := s.repo.Role().AttachGrant(ctx, roleID, grantID); err != nil {
		return fmt.Errorf("failed to attach grant to role: %w", err)
	}

	s.publishEvent(ctx, events.EventRoleGrantAttached, map[string]any{
		"role_id": roleID, "grant_id": grantID,
	})
	return nil
}

func (s *roleService) DetachGrant(ctx context.Context, roleID, grantID string) error {
	if _, err := s.repo.Role().GetByID(ctx, roleID); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrRoleNotFound
		}
		return fmt.Errorf("failed to load role: %w", err)
	}

	if err := s.repo.Role().DetachGrant(ctx, roleID, grantID); err != nil {
		return fmt.Errorf("failed to detach grant from role: %w", err)
	}

	s.publishEvent(ctx, events.EventRoleGrantDetached, map[string]any{
		"role_id": roleID, "grant_id": grantID,
	})
	return nil
}

func (s *roleService) publishEvent(ctx context.Context, eventType string, data any) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishEvent(ctx, eventType, data); err != nil {
		s.logger.Warn("failed to publish event", "event_type", eventType, "error", err)
	}
}
