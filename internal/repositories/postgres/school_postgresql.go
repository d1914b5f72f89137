package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/schoolsuite/school-service/internal/models"
	"github.com/schoolsuite/school-service/internal/repositories"
)

type schoolRepository struct {
	db *gorm.DB
}

func NewSchoolPostgreSQL(db *gorm.DB) repositories.SchoolRepository {
	return &schoolRepository{db: db}
}

func (r *schoolRepository) Create(ctx context.Context, school *models.School) error {
	if err := r.db.WithContext(ctx).Create(school).Error; err != nil {
		return fmt.Errorf("failed to create school: %w", err)
	}
	return nil
}

func (r *schoolRepository) GetByID(ctx context.Context, id string) (*models.School, error) {
	var school models.School
	if err := r.db.WithContext(ctx).First(&school, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &school, nil
}

func (r *schoolRepository) List(ctx context.Context, limit, offset int) ([]*models.School, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.School{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count schools: %w", err)
	}

	var schools []*models.School
	if err := r.db.WithContext(ctx).Order("name ASC").Limit(limit).Offset(offset).Find(&schools).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list schools: %w", err)
	}
	return schools, total, nil
}

func (r *schoolRepository) ExistsByID(ctx context.Context, id string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.School{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check school existence: %w", err)
	}
	return count > 0, nil
}
