package services

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/schoolsuite/school-service/internal/events"
	"github.com/schoolsuite/school-service/internal/models"
	"github.com/schoolsuite/school-service/internal/repositories"
	"github.com/schoolsuite/school-service/internal/validator"
)

type enrollmentService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
	publisher events.EventPublisher
}

func NewEnrollmentService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator, publisher events.EventPublisher) EnrollmentService {
	return &enrollmentService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
		publisher: publisher,
	}
}

func (s *enrollmentService) EnrollStudent(ctx context.Context, userID string, req *EnrollRequest) (*EnrollmentResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	var enrollment *models.StudentEnrollment

	err := s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		profile, err := tx.Student().GetByUserID(ctx, userID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrUserNotFound
			}
			return fmt.Errorf("failed to load student profile: %w", err)
		}

		if exists, err := tx.School().ExistsByID(ctx, req.SchoolID); err != nil {
			return fmt.Errorf("failed to check school: %w", err)
		} else if !exists {
			return ErrSchoolNotFound
		}

		status := models.EnrollmentInactive
		if req.Activate {
			// Activation is only allowed while no other enrollment of
			// this student is active.
			active, err := tx.Student().ActiveEnrollments(ctx, profile.ID)
			if err != nil {
				return fmt.Errorf("failed to check active enrollments: %w", err)
			}
			if len(active) > 0 {
				return ErrActiveEnrollmentExists
			}
			status = models.EnrollmentActive
		}

		enrollment = &models.StudentEnrollment{
			StudentID: profile.ID,
			SchoolID:  req.SchoolID,
			Status:    status,
		}
		if err := tx.Student().Enroll(ctx, enrollment); err != nil {
			if repositories.IsDuplicateKeyError(err) {
				return ErrAlreadyEnrolled
			}
			return fmt.Errorf("failed to enroll student: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.EventEnrollmentCreated, map[string]any{
		"user_id": userID, "school_id": req.SchoolID, "status": enrollment.Status, "kind": "student",
	})
	s.logger.Info("Student enrolled", "user_id", userID, "school_id", req.SchoolID, "status", enrollment.Status)

	return &EnrollmentResponse{ID: enrollment.ID, SchoolID: enrollment.SchoolID, Status: enrollment.Status}, nil
}

func (s *enrollmentService) EnrollParent(ctx context.Context, userID string, req *EnrollRequest) (*EnrollmentResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	var enrollment *models.ParentEnrollment

	err := s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		profile, err := tx.Parent().GetByUserID(ctx, userID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrUserNotFound
			}
			return fmt.Errorf("failed to load parent profile: %w", err)
		}

		if exists, err := tx.School().ExistsByID(ctx, req.SchoolID); err != nil {
			return fmt.Errorf("failed to check school: %w", err)
		} else if !exists {
			return ErrSchoolNotFound
		}

		status := models.EnrollmentInactive
		if req.Activate {
			active, err := tx.Parent().ActiveEnrollments(ctx, profile.ID)
			if err != nil {
				return fmt.Errorf("failed to check active enrollments: %w", err)
			}
			if len(active) > 0 {
				return ErrActiveEnrollmentExists
			}
			status = models.EnrollmentActive
		}

		enrollment = &models.ParentEnrollment{
			ParentID: profile.ID,
			SchoolID: req.SchoolID,
			Status:   status,
		}
		if err := tx.Parent().Enroll(ctx, enrollment); err != nil {
			if repositories.IsDuplicateKeyError(err) {
				return ErrAlreadyEnrolled
			}
			return fmt.Errorf("failed to enroll parent: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.EventEnrollmentCreated, map[string]any{
		"user_id": userID, "school_id": req.SchoolID, "status": enrollment.Status, "kind": "parent",
	})
	s.logger.Info("Parent enrolled", "user_id", userID, "school_id", req.SchoolID, "status", enrollment.Status)

	return &EnrollmentResponse{ID: enrollment.ID, SchoolID: enrollment.SchoolID, Status: enrollment.Status}, nil
}

// SetStudentEnrollmentStatus flips one enrollment between active and
// inactive. Activating while another enrollment is active is rejected;
// single-active is enforced here at the write, not papered over at read.
func (s *enrollmentService) SetStudentEnrollmentStatus(ctx context.Context, userID, schoolID string, status models.EnrollmentStatus) error {
	err := s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		profile, err := tx.Student().GetByUserID(ctx, userID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrUserNotFound
			}
			return fmt.Errorf("failed to load student profile: %w", err)
		}

		enrollment, err := tx.Student().GetEnrollment(ctx, profile.ID, schoolID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrEnrollmentNotFound
			}
			return fmt.Errorf("failed to load enrollment: %w", err)
		}
		if enrollment.Status == status {
			return nil
		}

		if status == models.EnrollmentActive {
			active, err := tx.Student().ActiveEnrollments(ctx, profile.ID)
			if err != nil {
				return fmt.Errorf("failed to check active enrollments: %w", err)
			}
			for _, e := range active {
				if e.ID != enrollment.ID {
					return ErrActiveEnrollmentExists
				}
			}
		}

		return tx.Student().UpdateEnrollmentStatus(ctx, enrollment.ID, status)
	})
	if err != nil {
		return err
	}

	s.publishEvent(ctx, events.EventEnrollmentUpdated, map[string]any{
		"user_id": userID, "school_id": schoolID, "status": status, "kind": "student",
	})
	return nil
}

func (s *enrollmentService) SetParentEnrollmentStatus(ctx context.Context, userID, schoolID string, status models.EnrollmentStatus) error {
	err := s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		profile, err := tx.Parent().GetByUserID(ctx, userID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrUserNotFound
			}
			return fmt.Errorf("failed to load parent profile: %w", err)
		}

		enrollment, err := tx.Parent().GetEnrollment(ctx, profile.ID, schoolID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrEnrollmentNotFound
			}
			return fmt.Errorf("failed to load enrollment: %w", err)
		}
		if enrollment.Status == status {
			return nil
		}

		if status == models.EnrollmentActive {
			active, err := tx.Parent().ActiveEnrollments(ctx, profile.ID)
			if err != nil {
				return fmt.Errorf("failed to check active enrollments: %w", err)
			}
			for _, e := range active {
				if e.ID != enrollment.ID {
					return ErrActiveEnrollmentExists
				}
			}
		}

		return tx.Parent().UpdateEnrollmentStatus(ctx, enrollment.ID, status)
	})
	if err != nil {
		return err
	}

	s.publishEvent(ctx, events.EventEnrollmentUpdated, map[string]any{
		"user_id": userID, "school_id": schoolID, "status": status, "kind": "parent",
	})
	return nil
}

func (s *enrollmentService) ListStudentEnrollments(ctx context.Context, userID string) ([]*EnrollmentResponse, error) {
	profile, err := s.repo.Student().GetByUserID(ctx, userID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load student profile: %w", err)
	}

	enrollments, err := s.repo.Student().ListEnrollments(ctx, profile.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list enrollments: %w", err)
	}

	out := make([]*EnrollmentResponse, 0, len(enrollments))
	for _, e := range enrollments {
		out = append(out, &EnrollmentResponse{ID: e.ID, SchoolID: e.SchoolID, Status: e.Status})
	}
	return out, nil
}

func (s *enrollmentService) ListParentEnrollments(ctx context.Context, userID string) ([]*EnrollmentResponse, error) {
	profile, err := s.repo.Parent().GetByUserID(ctx, userID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load parent profile: %w", err)
	}

	enrollments, err := s.repo.Parent().ListEnrollments(ctx, profile.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list enrollments: %w", err)
	}

	out := make([]*EnrollmentResponse, 0, len(enrollments))
	for _, e := range enrollments {
		out = append(out, &EnrollmentResponse{ID: e.ID, SchoolID: e.SchoolID, Status: e.Status})
	}
	return out, nil
}

func (s *enrollmentService) publishEvent(ctx context.Context, eventType string, data any) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishEvent(ctx, eventType, data); err != nil {
		s.logger.Warn("failed to publish event", "event_type", eventType, "error", err)
	}
}
