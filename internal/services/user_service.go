package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/schoolsuite/school-service/internal/authz"
	"github.com/schoolsuite/school-service/internal/events"
	"github.com/schoolsuite/school-service/internal/models"
	"github.com/schoolsuite/school-service/internal/repositories"
	"github.com/schoolsuite/school-service/internal/utils"
	"github.com/schoolsuite/school-service/internal/validator"
)

type userService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
	hasher    utils.PasswordHasher
	engine    *authz.Engine
	resolver  *authz.TenantResolver
	publisher events.EventPublisher
}

func NewUserService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator, hasher utils.PasswordHasher, engine *authz.Engine, resolver *authz.TenantResolver, publisher events.EventPublisher) UserService {
	return &userService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
		hasher:    hasher,
		engine:    engine,
		resolver:  resolver,
		publisher: publisher,
	}
}

// Register creates the identity with exactly one sub-identity. Students
// and parents start without enrollments; teachers are bound to their
// school immediately.
func (s *userService) Register(ctx context.Context, req *RegisterUserRequest) (*UserResponse, error) {
	s.logger.Info("Registering user", "username", req.Username, "kind", req.Kind)

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if req.Kind == models.SubIdentityTeacher && req.SchoolID == nil {
		return nil, ErrSchoolRequired
	}

	if taken, err := s.repo.User().ExistsByEmail(ctx, req.Email); err != nil {
		return nil, fmt.Errorf("failed to check email uniqueness: %w", err)
	} else if taken {
		return nil, ErrEmailTaken
	}
	if taken, err := s.repo.User().ExistsByUsername(ctx, req.Username); err != nil {
		return nil, fmt.Errorf("failed to check username uniqueness: %w", err)
	} else if taken {
		return nil, ErrUsernameTaken
	}

	digest, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		ID:             uuid.New().String(),
		Email:          req.Email,
		Username:       req.Username,
		FullName:       req.FullName,
		PasswordDigest: digest,
	}

	err = s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		if err := tx.User().Create(ctx, user); err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}

		switch req.Kind {
		case models.SubIdentityTeacher:
			if exists, err := tx.School().ExistsByID(ctx, *req.SchoolID); err != nil {
				return fmt.Errorf("failed to check school: %w", err)
			} else if !exists {
				return ErrSchoolNotFound
			}
			return tx.Teacher().Create(ctx, &models.TeacherProfile{
				ID:       uuid.New().String(),
				UserID:   user.ID,
				SchoolID: *req.SchoolID,
			})
		case models.SubIdentityStudent:
			return tx.Student().Create(ctx, &models.StudentProfile{ID: uuid.New().String(), UserID: user.ID})
		case models.SubIdentityParent:
			return tx.Parent().Create(ctx, &models.ParentProfile{ID: uuid.New().String(), UserID: user.ID})
		default:
			return fmt.Errorf("unsupported identity kind %q", req.Kind)
		}
	})
	if err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.EventUserRegistered, map[string]any{
		"user_id": user.ID, "kind": req.Kind,
	})
	s.logger.Info("User registered", "user_id", user.ID)

	return &UserResponse{User: user, SubIdentityKind: req.Kind}, nil
}

func (s *userService) GetByID(ctx context.Context, id string) (*UserResponse, error) {
	user, err := s.repo.User().GetWithSubIdentity(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &UserResponse{User: user, SubIdentityKind: user.SubIdentity().Kind}, nil
}

func (s *userService) Authenticate(ctx context.Context, email, password string) (*UserResponse, error) {
	user, err := s.repo.User().GetByEmail(ctx, email)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if err := s.hasher.Compare(user.PasswordDigest, password); err != nil {
		return nil, ErrInvalidCredentials
	}

	return &UserResponse{User: user, SubIdentityKind: user.SubIdentity().Kind}, nil
}

func (s *userService) List(ctx context.Context, filters repositories.UserFilters) ([]*UserResponse, int64, error) {
	if filters.Limit <= 0 || filters.Limit > 100 {
		filters.Limit = 50
	}

	users, total, err := s.repo.User().List(ctx, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}

	out := make([]*UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, &UserResponse{User: u, SubIdentityKind: u.SubIdentity().Kind})
	}
	return out, total, nil
}

func (s *userService) AssignRole(ctx context.Context, userID, roleID string) error {
	if err := s.requireUser(ctx, userID); err != nil {
		return err
	}
	if _, err := s.repo.Role().GetByID(ctx, roleID); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrRoleNotFound
		}
		return fmt.Errorf("failed to load role: %w", err)
	}

	if err := s.repo.User().AddRole(ctx, userID, roleID); err != nil {
		return fmt.Errorf("failed to assign role: %w", err)
	}

	s.publishEvent(ctx, events.EventUserRoleAssigned, map[string]any{
		"user_id": userID, "role_id": roleID,
	})
	return nil
}

func (s *userService) RemoveRole(ctx context.Context, userID, roleID string) error {
	if err := s.requireUser(ctx, userID); err != nil {
		return err
	}

	if err := s.repo.User().RemoveRole(ctx, userID, roleID); err != nil {
		return fmt.Errorf("failed to remove role: %w", err)
	}

	s.publishEvent(ctx, events.EventUserRoleRemoved, map[string]any{
		"user_id": userID, "role_id": roleID,
	})
	return nil
}

func (s *userService) AddGrant(ctx context.Context, userID, grantID string) error {
	if err := s.requireUser(ctx, userID); err != nil {
		return err
	}
	if _, err := s.repo.Grant().GetByID(ctx, grantID); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrGrantNotFound
		}
		return fmt.Errorf("failed to load permission grant: %w", err)
	}

	if err := s.repo.User().AddGrant(ctx, userID, grantID); err != nil {
		return fmt.Errorf("failed to add grant: %w", err)
	}

	s.publishEvent(ctx, events.EventUserGrantAdded, map[string]any{
		"user_id": userID, "grant_id": grantID,
	})
	return nil
}

func (s *userService) RemoveGrant(ctx context.Context, userID, grantID string) error {
	if err := s.requireUser(ctx, userID); err != nil {
		return err
	}

	if err := s.repo.User().RemoveGrant(ctx, userID, grantID); err != nil {
		return fmt.Errorf("failed to remove grant: %w", err)
	}

	s.publishEvent(ctx, events.EventUserGrantRemoved, map[string]any{
		"user_id": userID, "grant_id": grantID,
	})
	return nil
}

// AccessProfile reports the identity's resolved tenant, role types and
// effective permission document. Tenant resolution failures that mean
// "no usable tenant" surface as a nil school id, not an error.
func (s *userService) AccessProfile(ctx context.Context, userID string) (*AccessProfileResponse, error) {
	user, err := s.repo.User().GetWithSubIdentity(ctx, userID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	resp := &AccessProfileResponse{
		UserID:          user.ID,
		SubIdentityKind: user.SubIdentity().Kind,
		SchemaVersion:   s.engine.Schema().Version(),
	}

	schoolID, err := s.resolver.ResolveTenantOf(user)
	switch {
	case err == nil:
		resp.SchoolID = &schoolID
	case errors.Is(err, authz.ErrNoTenant), errors.Is(err, authz.ErrNoActiveTenant):
		// stays nil
	default:
		return nil, err
	}

	resp.RoleTypes, err = s.repo.Role().TypesOfUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load role types: %w", err)
	}
	if resp.RoleTypes == nil {
		resp.RoleTypes = []models.RoleType{}
	}

	resp.EffectiveDocument, resp.Configured, err = s.engine.EffectiveDocument(ctx, userID)
	if err != nil {
		return nil, err
	}

	return resp, nil
}

func (s *userService) requireUser(ctx context.Context, userID string) error {
	if _, err := s.repo.User().GetByID(ctx, userID); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to load user: %w", err)
	}
	return nil
}

func (s *userService) publishEvent(ctx context.Context, eventType string, data any) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishEvent(ctx, eventType, data); err != nil {
		s.logger.Warn("failed to publish event", "event_type", eventType, "error", err)
	}
}
