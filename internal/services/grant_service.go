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
	"github.com/schoolsuite/school-service/internal/validator"
)

type grantService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
	schema    *permissions.Schema
	publisher events.EventPublisher
}

func NewGrantService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator, schema *permissions.Schema, publisher events.EventPublisher) GrantService {
	return &grantService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
		schema:    schema,
		publisher: publisher,
	}
}

func (s *grantService) Create(ctx context.Context, req *CreateGrantRequest) (*GrantResponse, error) {
	s.logger.Info("Creating permission grant")

	// Normalize against the schema; unknown keys fail here, omitted
	// capabilities become explicit false entries.
	doc, err := s.schema.ValidateAndNormalize(req.Document)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode permission document: %w", err)
	}

	grant := &models.PermissionGrant{
		ID:       uuid.New().String(),
		Document: datatypes.JSON(data),
	}

	if err := s.repo.Grant().Create(ctx, grant); err != nil {
		return nil, fmt.Errorf("failed to create permission grant: %w", err)
	}

	s.publishEvent(ctx, events.EventGrantCreated, map[string]any{"grant_id": grant.ID})
	s.logger.Info("Permission grant created", "grant_id", grant.ID)

	return &GrantResponse{PermissionGrant: grant, Decoded: doc}, nil
}

func (s *grantService) GetByID(ctx context.Context, id string) (*GrantResponse, error) {
	grant, err := s.repo.Grant().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrGrantNotFound
		}
		return nil, fmt.Errorf("failed to get permission grant: %w", err)
	}

	doc, err := s.schema.DecodeDocument(grant.Document)
	if err != nil {
		return nil, fmt.Errorf("grant %s holds an invalid document: %w", id, err)
	}

	return &GrantResponse{PermissionGrant: grant, Decoded: doc}, nil
}

// Patch runs the read-merge-write cycle inside one transaction so two
// concurrent edits cannot interleave and lose entries.
func (s *grantService) Patch(ctx context.Context, id string, req *PatchGrantRequest) (*GrantResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	var patched permissions.Document
	var grant *models.PermissionGrant

	err := s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		var err error
		grant, err = tx.Grant().GetByID(ctx, id)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrGrantNotFound
			}
			return fmt.Errorf("failed to load permission grant: %w", err)
		}

		current, err := s.schema.DecodeDocument(grant.Document)
		if err != nil {
			return fmt.Errorf("grant %s holds an invalid document: %w", id, err)
		}

		patched, err = s.schema.Patch(current, req.Document)
		if err != nil {
			return err
		}

		data, err := json.Marshal(patched)
		if err != nil {
			return fmt.Errorf("failed to encode permission document: %w", err)
		}

		if err := tx.Grant().UpdateDocument(ctx, id, data); err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrGrantNotFound
			}
			return fmt.Errorf("failed to update permission grant: %w", err)
		}

		grant.Document = datatypes.JSON(data)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.EventGrantUpdated, map[string]any{"grant_id": id})
	s.logger.Info("Permission grant updated", "grant_id", id)

	return &GrantResponse{PermissionGrant: grant, Decoded: patched}, nil
}

func (s *grantService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.Grant().GetByID(ctx, id); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrGrantNotFound
		}
		return fmt.Errorf("failed to load permission grant: %w", err)
	}

	if err := s.repo.Grant().Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete permission grant: %w", err)
	}

	s.publishEvent(ctx, events.EventGrantDeleted, map[string]any{"grant_id": id})
	s.logger.Info("Permission grant deleted", "grant_id", id)
	return nil
}

func (s *grantService) publishEvent(ctx context.Context, eventType string, data any) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishEvent(ctx, eventType, data); err != nil {
		s.logger.Warn("failed to publish event", "event_type", eventType, "error", err)
	}
}
