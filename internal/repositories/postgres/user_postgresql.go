package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/schoolsuite/school-service/internal/models"
	"github.com/schoolsuite/school-service/internal/repositories"
)

type userRepository struct {
	db *gorm.DB
}

func NewUserPostgreSQL(db *gorm.DB) repositories.UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "email = ?", email).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "username = ?", username).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetWithSubIdentity(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Preload("TeacherProfile").
		Preload("StudentProfile").
		Preload("StudentProfile.Enrollments").
		Preload("ParentProfile").
		Preload("ParentProfile.Enrollments").
		First(&user, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetWithAccess(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Preload("Roles").
		Preload("Roles.Grants").
		Preload("Grants").
		First(&user, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) List(ctx context.Context, filters repositories.UserFilters) ([]*models.User, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.User{})

	if filters.Query != "" {
		pattern := "%" + filters.Query + "%"
		query = query.Where("full_name ILIKE ? OR email ILIKE ? OR username ILIKE ?", pattern, pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	var users []*models.User
	if err := query.Order("created_at DESC").Limit(filters.Limit).Offset(filters.Offset).Find(&users).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}

	return users, total, nil
}

func (r *userRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check email existence: %w", err)
	}
	return count > 0, nil
}

func (r *userRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.User{}).Where("username = ?", username).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check username existence: %w", err)
	}
	return count > 0, nil
}

func (r *userRepository) AddRole(ctx context.Context, userID, roleID string) error {
	err := r.db.WithContext(ctx).
		Exec("INSERT INTO user_roles (user_id, role_id) VALUES (?, ?) ON CONFLICT DO NOTHING", userID, roleID).Error
	if err != nil {
		return fmt.Errorf("failed to add role to user: %w", err)
	}
	return nil
}

func (r *userRepository) RemoveRole(ctx context.Context, userID, roleID string) error {
	err := r.db.WithContext(ctx).
		Exec("DELETE FROM user_roles WHERE user_id = ? AND role_id = ?", userID, roleID).Error
	if err != nil {
		return fmt.Errorf("failed to remove role from user: %w", err)
	}
	return nil
}

func (r *userRepository) AddGrant(ctx context.Context, userID, grantID string) error {
	err := r.db.WithContext(ctx).
		Exec("INSERT INTO user_permission_grants (user_id, permission_grant_id) VALUES (?, ?) ON CONFLICT DO NOTHING", userID, grantID).Error
	if err != nil {
		return fmt.Errorf("failed to add grant to user: %w", err)
	}
	return nil
}

func (r *userRepository) RemoveGrant(ctx context.Context, userID, grantID string) error {
	err := r.db.WithContext(ctx).
		Exec("DELETE FROM user_permission_grants WHERE user_id = ? AND permission_grant_id = ?", userID, grantID).Error
	if err != nil {
		return fmt.Errorf("failed to remove grant from user: %w", err)
	}
	return nil
}
