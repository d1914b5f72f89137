package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/schoolsuite/school-service/internal/models"
	"github.com/schoolsuite/school-service/internal/repositories"
)

// ===== TEACHER PROFILES =====

type teacherRepository struct {
	db *gorm.DB
}

func NewTeacherPostgreSQL(db *gorm.DB) repositories.TeacherRepository {
	return &teacherRepository{db: db}
}

func (r *teacherRepository) Create(ctx context.Context, profile *models.TeacherProfile) error {
	if err := r.db.WithContext(ctx).Create(profile).Error; err != nil {
		return fmt.Errorf("failed to create teacher profile: %w", err)
	}
	return nil
}

func (r *teacherRepository) GetByUserID(ctx context.Context, userID string) (*models.TeacherProfile, error) {
	var profile models.TeacherProfile
	if err := r.db.WithContext(ctx).First(&profile, "user_id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *teacherRepository) ListBySchool(ctx context.Context, schoolID string, limit, offset int) ([]*models.TeacherProfile, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.TeacherProfile{}).Where("school_id = ?", schoolID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count teachers: %w", err)
	}

	var profiles []*models.TeacherProfile
	if err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&profiles).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list teachers: %w", err)
	}
	return profiles, total, nil
}

// ===== STUDENT PROFILES =====

type studentRepository struct {
	db *gorm.DB
}

func NewStudentPostgreSQL(db *gorm.DB) repositories.StudentRepository {
	return &studentRepository{db: db}
}

func (r *studentRepository) Create(ctx context.Context, profile *models.StudentProfile) error {
	if err := r.db.WithContext(ctx).Create(profile).Error; err != nil {
		return fmt.Errorf("failed to create student profile: %w", err)
	}
	return nil
}

func (r *studentRepository) GetByID(ctx context.Context, id string) (*models.StudentProfile, error) {
	var profile models.StudentProfile
	if err := r.db.WithContext(ctx).Preload("Enrollments").First(&profile, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *studentRepository) GetByUserID(ctx context.Context, userID string) (*models.StudentProfile, error) {
	var profile models.StudentProfile
	if err := r.db.WithContext(ctx).Preload("Enrollments").First(&profile, "user_id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *studentRepository) Enroll(ctx context.Context, enrollment *models.StudentEnrollment) error {
	err := r.db.WithContext(ctx).Session(&gorm.Session{}).Create(enrollment).Error
	if err != nil {
		return fmt.Errorf("failed to enroll student: %w", err)
	}
	return nil
}

func (r *studentRepository) GetEnrollment(ctx context.Context, studentID, schoolID string) (*models.StudentEnrollment, error) {
	var enrollment models.StudentEnrollment
	err := r.db.WithContext(ctx).
		First(&enrollment, "student_id = ? AND school_id = ?", studentID, schoolID).Error
	if err != nil {
		return nil, err
	}
	return &enrollment, nil
}

func (r *studentRepository) ListEnrollments(ctx context.Context, studentID string) ([]models.StudentEnrollment, error) {
	var enrollments []models.StudentEnrollment
	err := r.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("created_at ASC").
		Find(&enrollments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list student enrollments: %w", err)
	}
	return enrollments, nil
}

func (r *studentRepository) ActiveEnrollments(ctx context.Context, studentID string) ([]models.StudentEnrollment, error) {
	var enrollments []models.StudentEnrollment
	err := r.db.WithContext(ctx).
		Where("student_id = ? AND status = ?", studentID, models.EnrollmentActive).
		Find(&enrollments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list active student enrollments: %w", err)
	}
	return enrollments, nil
}

func (r *studentRepository) UpdateEnrollmentStatus(ctx context.Context, enrollmentID uint, status models.EnrollmentStatus) error {
	result := r.db.WithContext(ctx).
		Model(&models.StudentEnrollment{}).
		Where("id = ?", enrollmentID).
		Update("status", status)
	if result.Error != nil {
		return fmt.Errorf("failed to update enrollment status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ===== PARENT PROFILES =====

type parentRepository struct {
	db *gorm.DB
}

func NewParentPostgreSQL(db *gorm.DB) repositories.ParentRepository {
	return &parentRepository{db: db}
}

func (r *parentRepository) Create(ctx context.Context, profile *models.ParentProfile) error {
	if err := r.db.WithContext(ctx).Create(profile).Error; err != nil {
		return fmt.Errorf("failed to create parent profile: %w", err)
	}
	return nil
}

func (r *parentRepository) GetByID(ctx context.Context, id string) (*models.ParentProfile, error) {
	var profile models.ParentProfile
	if err := r.db.WithContext(ctx).Preload("Enrollments").First(&profile, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *parentRepository) GetByUserID(ctx context.Context, userID string) (*models.ParentProfile, error) {
	var profile models.ParentProfile
	if err := r.db.WithContext(ctx).Preload("Enrollments").First(&profile, "user_id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *parentRepository) Enroll(ctx context.Context, enrollment *models.ParentEnrollment) error {
	err := r.db.WithContext(ctx).Session(&gorm.Session{}).Create(enrollment).Error
	if err != nil {
		return fmt.Errorf("failed to enroll parent: %w", err)
	}
	return nil
}

func (r *parentRepository) GetEnrollment(ctx context.Context, parentID, schoolID string) (*models.ParentEnrollment, error) {
	var enrollment models.ParentEnrollment
	err := r.db.WithContext(ctx).
		First(&enrollment, "parent_id = ? AND school_id = ?", parentID, schoolID).Error
	if err != nil {
		return nil, err
	}
	return &enrollment, nil
}

func (r *parentRepository) ListEnrollments(ctx context.Context, parentID string) ([]models.ParentEnrollment, error) {
	var enrollments []models.ParentEnrollment
	err := r.db.WithContext(ctx).
		Where("parent_id = ?", parentID).
		Order("created_at ASC").
		Find(&enrollments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list parent enrollments: %w", err)
	}
	return enrollments, nil
}

func (r *parentRepository) ActiveEnrollments(ctx context.Context, parentID string) ([]models.ParentEnrollment, error) {
	var enrollments []models.ParentEnrollment
	err := r.db.WithContext(ctx).
		Where("parent_id = ? AND status = ?", parentID, models.EnrollmentActive).
		Find(&enrollments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list active parent enrollments: %w", err)
	}
	return enrollments, nil
}

func (r *parentRepository) UpdateEnrollmentStatus(ctx context.Context, enrollmentID uint, status models.EnrollmentStatus) error {
	result := r.db.WithContext(ctx).
		Model(&models.ParentEnrollment{}).
		Where("id = ?", enrollmentID).
		Update("status", status)
	if result.Error != nil {
		return fmt.Errorf("failed to update enrollment status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
