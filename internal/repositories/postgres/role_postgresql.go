package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/schoolsuite/school-service/internal/models"
	"github.com/schoolsuite/school-service/internal/repositories"
)

type roleRepository struct {
	db *gorm.DB
}

func NewRolePostgreSQL(db *gorm.DB) repositories.RoleRepository {
	return &roleRepository{db: db}
}

func (r *roleRepository) Create(ctx context.Context, role *models.Role) error {
	// Translate errors so callers can detect name collisions via
	// repositories.IsDuplicateKeyError.
	return r.db.WithContext(ctx).Session(&gorm.Session{}).Create(role).Error
}

func (r *roleRepository) GetByID(ctx context.Context, id string) (*models.Role, error) {
	var role models.Role
	if err := r.db.WithContext(ctx).Preload("Grants").First(&role, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *roleRepository) GetByName(ctx context.Context, name string, schoolID *string) (*models.Role, error) {
	query := r.db.WithContext(ctx).Preload("Grants").Where("name = ?", name)
	query = scopeToSchool(query, schoolID)

	var role models.Role
	if err := query.First(&role).Error; err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *roleRepository) List(ctx context.Context, filters repositories.RoleFilters) ([]*models.Role, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Role{})

	if filters.Type != nil {
		query = query.Where("type = ?", *filters.Type)
	}
	if filters.SchoolID != nil {
		query = query.Where("school_id = ?", *filters.SchoolID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count roles: %w", err)
	}

	var roles []*models.Role
	if err := query.Preload("Grants").Order("name ASC").Limit(filters.Limit).Offset(filters.Offset).Find(&roles).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list roles: %w", err)
	}

	return roles, total, nil
}

func (r *roleRepository) ListByType(ctx context.Context, roleType models.RoleType, schoolID *string) ([]*models.Role, error) {
	query := r.db.WithContext(ctx).Preload("Grants").Where("type = ?", roleType)
	query = scopeToSchool(query, schoolID)

	var roles []*models.Role
	if err := query.Find(&roles).Error; err != nil {
		return nil, fmt.Errorf("failed to list roles by type: %w", err)
	}
	return roles, nil
}

func (r *roleRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM role_permission_grants WHERE role_id = ?", id).Error; err != nil {
			return fmt.Errorf("failed to clear role grants: %w", err)
		}
		if err := tx.Exec("DELETE FROM user_roles WHERE role_id = ?", id).Error; err != nil {
			return fmt.Errorf("failed to clear role assignments: %w", err)
		}
		result := tx.Delete(&models.Role{}, "id = ?", id)
		if result.Error != nil {
			return fmt.Errorf("failed to delete role: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *roleRepository) AttachGrant(ctx context.Context, roleID, grantID string) error {
	err := r.db.WithContext(ctx).
		Exec("INSERT INTO role_permission_grants (role_id, permission_grant_id) VALUES (?, ?) ON CONFLICT DO NOTHING", roleID, grantID).Error
	if err != nil {
		return fmt.Errorf("failed to attach grant to role: %w", err)
	}
	return nil
}

func (r *roleRepository) DetachGrant(ctx context.Context, roleID, grantID string) error {
	err := r.db.WithContext(ctx).
		Exec("DELETE FROM role_permission_grants WHERE role_id = ? AND permission_grant_id = ?", roleID, grantID).Error
	if err != nil {
		return fmt.Errorf("failed to detach grant from role: %w", err)
	}
	return nil
}

func (r *roleRepository) TypesOfUser(ctx context.Context, userID string) ([]models.RoleType, error) {
	var types []models.RoleType
	err := r.db.WithContext(ctx).
		Model(&models.Role{}).
		Distinct("roles.type").
		Joins("JOIN user_roles ON user_roles.role_id = roles.id").
		Where("user_roles.user_id = ?", userID).
		Pluck("roles.type", &types).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get role types of user: %w", err)
	}
	return types, nil
}

func scopeToSchool(query *gorm.DB, schoolID *string) *gorm.DB {
	if schoolID == nil {
		return query.Where("school_id IS NULL")
	}
	return query.Where("school_id = ?", *schoolID)
}
