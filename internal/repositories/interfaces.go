package repositories

import (
	"context"

	"github.com/schoolsuite/school-service/internal/models"
)

// ===== SHARED FILTER STRUCTS =====

type UserFilters struct {
	Query  string // Search query for name, email or username
	Limit  int
	Offset int
}

type RoleFilters struct {
	Type     *models.RoleType `json:"type"`
	SchoolID *string          `json:"school_id"`
	Limit    int              `json:"limit"`
	Offset   int              `json:"offset"`
}

// ===== REPOSITORY INTERFACES =====

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)

	// GetWithSubIdentity loads the user with all four sub-identity links
	// and their enrollment rows, for tenant resolution.
	GetWithSubIdentity(ctx context.Context, id string) (*models.User, error)

	// GetWithAccess loads the user with direct grants and roles including
	// each role's grants, for permission evaluation.
	GetWithAccess(ctx context.Context, id string) (*models.User, error)

	List(ctx context.Context, filters UserFilters) ([]*models.User, int64, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)

	// Role and direct-grant associations; Add* are idempotent.
	AddRole(ctx context.Context, userID, roleID string) error
	RemoveRole(ctx context.Context, userID, roleID string) error
	AddGrant(ctx context.Context, userID, grantID string) error
	RemoveGrant(ctx context.Context, userID, grantID string) error
}

type RoleRepository interface {
	Create(ctx context.Context, role *models.Role) error
	GetByID(ctx context.Context, id string) (*models.Role, error)
	GetByName(ctx context.Context, name string, schoolID *string) (*models.Role, error)
	List(ctx context.Context, filters RoleFilters) ([]*models.Role, int64, error)
	ListByType(ctx context.Context, roleType models.RoleType, schoolID *string) ([]*models.Role, error)
	Delete(ctx context.Context, id string) error

	// Grant association; AttachGrant is idempotent on repeat attach.
	AttachGrant(ctx context.Context, roleID, grantID string) error
	DetachGrant(ctx context.Context, roleID, grantID string) error

	// TypesOfUser returns the distinct role types held by a user.
	TypesOfUser(ctx context.Context, userID string) ([]models.RoleType, error)
}

type GrantRepository interface {
	Create(ctx context.Context, grant *models.PermissionGrant) error
	GetByID(ctx context.Context, id string) (*models.PermissionGrant, error)
	UpdateDocument(ctx context.Context, id string, document []byte) error

	// Delete removes the grant and every role/user association row
	// referencing it; there is no implicit cascade at the model level.
	Delete(ctx context.Context, id string) error
}

type SchoolRepository interface {
	Create(ctx context.Context, school *models.School) error
	GetByID(ctx context.Context, id string) (*models.School, error)
	List(ctx context.Context, limit, offset int) ([]*models.School, int64, error)
	ExistsByID(ctx context.Context, id string) (bool, error)
}

type TeacherRepository interface {
	Create(ctx context.Context, profile *models.TeacherProfile) error
	GetByUserID(ctx context.Context, userID string) (*models.TeacherProfile, error)
	ListBySchool(ctx context.Context, schoolID string, limit, offset int) ([]*models.TeacherProfile, int64, error)
}

type StudentRepository interface {
	Create(ctx context.Context, profile *models.StudentProfile) error
	GetByID(ctx context.Context, id string) (*models.StudentProfile, error)
	GetByUserID(ctx context.Context, userID string) (*models.StudentProfile, error)

	Enroll(ctx context.Context, enrollment *models.StudentEnrollment) error
	GetEnrollment(ctx context.Context, studentID, schoolID string) (*models.StudentEnrollment, error)
	ListEnrollments(ctx context.Context, studentID string) ([]models.StudentEnrollment, error)
	ActiveEnrollments(ctx context.Context, studentID string) ([]models.StudentEnrollment, error)
	UpdateEnrollmentStatus(ctx context.Context, enrollmentID uint, status models.EnrollmentStatus) error
}

type ParentRepository interface {
	Create(ctx context.Context, profile *models.ParentProfile) error
	GetByID(ctx context.Context, id string) (*models.ParentProfile, error)
	GetByUserID(ctx context.Context, userID string) (*models.ParentProfile, error)

	Enroll(ctx context.Context, enrollment *models.ParentEnrollment) error
	GetEnrollment(ctx context.Context, parentID, schoolID string) (*models.ParentEnrollment, error)
	ListEnrollments(ctx context.Context, parentID string) ([]models.ParentEnrollment, error)
	ActiveEnrollments(ctx context.Context, parentID string) ([]models.ParentEnrollment, error)
	UpdateEnrollmentStatus(ctx context.Context, enrollmentID uint, status models.EnrollmentStatus) error
}
