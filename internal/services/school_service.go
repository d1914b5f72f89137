package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/schoolsuite/school-service/internal/events"
	"github.com/schoolsuite/school-service/internal/models"
	"github.com/schoolsuite/school-service/internal/permissions"
	"github.com/schoolsuite/school-service/internal/repositories"
	"github.com/schoolsuite/school-service/internal/utils"
	"github.com/schoolsuite/school-service/internal/validator"
)

type schoolService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
	schema    *permissions.Schema
	hasher    utils.PasswordHasher
	publisher events.EventPublisher
}

func NewSchoolService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator, schema *permissions.Schema, hasher utils.PasswordHasher, publisher events.EventPublisher) SchoolService {
	return &schoolService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
		schema:    schema,
		hasher:    hasher,
		publisher: publisher,
	}
}

// defaultRole describes one role seeded for every new school.
type defaultRole struct {
	name     string
	roleType models.RoleType
	document permissions.Partial
}

// defaultRoles returns the seed role set for a new school. The owner
// role grants everything; the rest get the minimum their daily work
// needs and administrators widen them from there.
func defaultRoles(schema *permissions.Schema) []defaultRole {
	everything := permissions.Partial{}
	for _, cat := range schema.Categories() {
		caps := make(map[permissions.Capability]bool)
		for _, capability := range schema.Capabilities(cat) {
			caps[capability] = true
		}
		everything[cat] = caps
	}

	return []defaultRole{
		{
			name:     "School Owner",
			roleType: models.RoleTypeSchoolOwner,
			document: everything,
		},
		{
			name:     "Teacher",
			roleType: models.RoleTypeTeacher,
			document: permissions.Partial{
				permissions.CategoryStudentManagement:   {permissions.CapView: true},
				permissions.CategoryClassroomManagement: {permissions.CapView: true},
				permissions.CategoryExamResults: {
					permissions.CapViewResults: true,
					permissions.CapAddResults:  true,
					permissions.CapEditResults: true,
				},
				permissions.CategoryAttendance: {
					permissions.CapViewAttendance:   true,
					permissions.CapManageAttendance: true,
				},
				permissions.CategoryTimetable: {permissions.CapViewTimetable: true},
			},
		},
		{
			name:     "Student",
			roleType: models.RoleTypeStudent,
			document: permissions.Partial{
				permissions.CategoryExamResults: {permissions.CapViewResults: true},
				permissions.CategoryAttendance:  {permissions.CapViewAttendance: true},
				permissions.CategoryTimetable:   {permissions.CapViewTimetable: true},
			},
		},
		{
			name:     "Parent",
			roleType: models.RoleTypeParent,
			document: permissions.Partial{
				permissions.CategoryExamResults: {permissions.CapViewResults: true},
				permissions.CategoryAttendance:  {permissions.CapViewAttendance: true},
				permissions.CategoryTimetable:   {permissions.CapViewTimetable: true},
				permissions.CategoryFeeManagement: {permissions.CapViewFees: true},
			},
		},
	}
}

// Provision creates the school, its owner account and the default role
// set in a single transaction; a half-provisioned school never persists.
func (s *schoolService) Provision(ctx context.Context, req *ProvisionSchoolRequest) (*SchoolResponse, error) {
	s.logger.Info("Provisioning school", "name", req.Name)

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	if taken, err := s.repo.User().ExistsByEmail(ctx, req.OwnerEmail); err != nil {
		return nil, fmt.Errorf("failed to check owner email: %w", err)
	} else if taken {
		return nil, ErrEmailTaken
	}
	if taken, err := s.repo.User().ExistsByUsername(ctx, req.OwnerUsername); err != nil {
		return nil, fmt.Errorf("failed to check owner username: %w", err)
	} else if taken {
		return nil, ErrUsernameTaken
	}

	digest, err := s.hasher.Hash(req.OwnerPassword)
	if err != nil {
		return nil, err
	}

	school := &models.School{
		ID:      uuid.New().String(),
		Name:    req.Name,
		Address: req.Address,
		Phone:   req.Phone,
		Email:   req.Email,
	}
	owner := &models.User{
		ID:             uuid.New().String(),
		Email:          req.OwnerEmail,
		Username:       req.OwnerUsername,
		FullName:       req.OwnerFullName,
		PasswordDigest: digest,
		OwnedSchoolID:  &school.ID,
	}

	err = s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		if err := tx.School().Create(ctx, school); err != nil {
			return fmt.Errorf("failed to create school: %w", err)
		}
		if err := tx.User().Create(ctx, owner); err != nil {
			return fmt.Errorf("failed to create owner: %w", err)
		}

		for _, seed := range defaultRoles(s.schema) {
			doc, err := s.schema.ValidateAndNormalize(seed.document)
			if err != nil {
				return fmt.Errorf("invalid seed document for role %s: %w", seed.name, err)
			}
			data, err := json.Marshal(doc)
			if err != nil {
				return fmt.Errorf("failed to encode seed document: %w", err)
			}

			grant := &models.PermissionGrant{
				ID:       uuid.New().String(),
				Document: datatypes.JSON(data),
			}
			if err := tx.Grant().Create(ctx, grant); err != nil {
				return fmt.Errorf("failed to create seed grant: %w", err)
			}

			role := &models.Role{
				ID:       uuid.New().String(),
				Name:     seed.name,
				Type:     seed.roleType,
				SchoolID: &school.ID,
			}
			if err := tx.Role().Create(ctx, role); err != nil {
				return fmt.Errorf("failed to create seed role %s: %w", seed.name, err)
			}
			if err := tx.Role().AttachGrant(ctx, role.ID, grant.ID); err != nil {
				return fmt.Errorf("failed to attach seed grant: %w", err)
			}

			if seed.roleType == models.RoleTypeSchoolOwner {
				if err := tx.User().AddRole(ctx, owner.ID, role.ID); err != nil {
					return fmt.Errorf("failed to assign owner role: %w", err)
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.EventSchoolProvisioned, map[string]any{
		"school_id": school.ID, "owner_id": owner.ID,
	})
	s.logger.Info("School provisioned", "school_id", school.ID, "owner_id", owner.ID)

	return &SchoolResponse{School: school, OwnerID: owner.ID}, nil
}

func (s *schoolService) GetByID(ctx context.Context, id string) (*SchoolResponse, error) {
	school, err := s.repo.School().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSchoolNotFound
		}
		return nil, fmt.Errorf("failed to get school: %w", err)
	}
	return &SchoolResponse{School: school}, nil
}

func (s *schoolService) List(ctx context.Context, limit, offset int) (*SchoolListResponse, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	schools, total, err := s.repo.School().List(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list schools: %w", err)
	}

	resp := &SchoolListResponse{Total: total}
	for _, school := range schools {
		resp.Schools = append(resp.Schools, &SchoolResponse{School: school})
	}
	return resp, nil
}

func (s *schoolService) publishEvent(ctx context.Context, eventType string, data any) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishEvent(ctx, eventType, data); err != nil {
		s.logger.Warn("failed to publish event", "event_type", eventType, "error", err)
	}
}
