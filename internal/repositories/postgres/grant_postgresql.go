package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/schoolsuite/school-service/internal/models"
	"github.com/schoolsuite/school-service/internal/repositories"
)

type grantRepository struct {
	db *gorm.DB
}

func NewGrantPostgreSQL(db *gorm.DB) repositories.GrantRepository {
	return &grantRepository{db: db}
}

func (r *grantRepository) Create(ctx context.Context, grant *models.PermissionGrant) error {
	if err := r.db.WithContext(ctx).Create(grant).Error; err != nil {
		return fmt.Errorf("failed to create permission grant: %w", err)
	}
	return nil
}

func (r *grantRepository) GetByID(ctx context.Context, id string) (*models.PermissionGrant, error) {
	var grant models.PermissionGrant
	if err := r.db.WithContext(ctx).First(&grant, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &grant, nil
}

func (r *grantRepository) UpdateDocument(ctx context.Context, id string, document []byte) error {
	result := r.db.WithContext(ctx).
		Model(&models.PermissionGrant{}).
		Where("id = ?", id).
		Update("document", document)
	if result.Error != nil {
		return fmt.Errorf("failed to update permission grant: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *grantRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM role_permission_grants WHERE permission_grant_id = ?", id).Error; err != nil {
			return fmt.Errorf("failed to clear role associations: %w", err)
		}
		if err := tx.Exec("DELETE FROM user_permission_grants WHERE permission_grant_id = ?", id).Error; err != nil {
			return fmt.Errorf("failed to clear user associations: %w", err)
		}
		result := tx.Delete(&models.PermissionGrant{}, "id = ?", id)
		if result.Error != nil {
			return fmt.Errorf("failed to delete permission grant: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
