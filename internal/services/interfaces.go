package services

import (
	"context"

	"github.com/schoolsuite/school-service/internal/authz"
	"github.com/schoolsuite/school-service/internal/models"
	"github.com/schoolsuite/school-service/internal/permissions"
	"github.com/schoolsuite/school-service/internal/repositories"
	"github.com/schoolsuite/school-service/internal/validator"
)

// ===== REQUEST/RESPONSE DTOs =====

// Use business validator types
type RegisterUserRequest = validator.RegisterUserRequest
type ProvisionSchoolRequest = validator.ProvisionSchoolRequest
type CreateRoleRequest = validator.CreateRoleRequest
type CreateGrantRequest = validator.CreateGrantRequest
type PatchGrantRequest = validator.PatchGrantRequest
type EnrollRequest = validator.EnrollRequest

type UserResponse struct {
	*models.User
	SubIdentityKind models.SubIdentityKind `json:"sub_identity_kind"`
}

type RoleResponse struct {
	*models.Role
}

type RoleListResponse struct {
	Roles []*RoleResponse `json:"roles"`
	Total int64           `json:"total"`
}

// GrantResponse pairs the stored row with its schema-normalized document
// so callers never see raw JSON bytes.
type GrantResponse struct {
	*models.PermissionGrant
	Decoded permissions.Document `json:"decoded"`
}

type SchoolResponse struct {
	*models.School
	OwnerID string `json:"owner_id,omitempty"`
}

type SchoolListResponse struct {
	Schools []*SchoolResponse `json:"schools"`
	Total   int64             `json:"total"`
}

type EnrollmentResponse struct {
	ID       uint                    `json:"id"`
	SchoolID string                  `json:"school_id"`
	Status   models.EnrollmentStatus `json:"status"`
}

// AccessProfileResponse reports the identity's resolved access state in
// one shot, for the /me endpoint.
type AccessProfileResponse struct {
	UserID            string                 `json:"user_id"`
	SubIdentityKind   models.SubIdentityKind `json:"sub_identity_kind"`
	SchoolID          *string                `json:"school_id,omitempty"`
	RoleTypes         []models.RoleType      `json:"role_types"`
	EffectiveDocument permissions.Document   `json:"effective_document"`
	Configured        bool                   `json:"configured"`
	SchemaVersion     string                 `json:"schema_version"`
}

// ===== SERVICE INTERFACES =====

type UserService interface {
	Register(ctx context.Context, req *RegisterUserRequest) (*UserResponse, error)
	GetByID(ctx context.Context, id string) (*UserResponse, error)
	Authenticate(ctx context.Context, email, password string) (*UserResponse, error)
	List(ctx context.Context, filters repositories.UserFilters) ([]*UserResponse, int64, error)

	// Access associations
	AssignRole(ctx context.Context, userID, roleID string) error
	RemoveRole(ctx context.Context, userID, roleID string) error
	AddGrant(ctx context.Context, userID, grantID string) error
	RemoveGrant(ctx context.Context, userID, grantID string) error

	AccessProfile(ctx context.Context, userID string) (*AccessProfileResponse, error)
}

type SchoolService interface {
	// Provision creates the school, its owner account, and the default
	// role set in one transaction.
	Provision(ctx context.Context, req *ProvisionSchoolRequest) (*SchoolResponse, error)
	GetByID(ctx context.Context, id string) (*SchoolResponse, error)
	List(ctx context.Context, limit, offset int) (*SchoolListResponse, error)
}

type RoleService interface {
	Create(ctx context.Context, req *CreateRoleRequest) (*RoleResponse, error)

	// EnsureRole is the lookup-or-create used when provisioning a
	// tenant's first role of a type; the bool reports creation.
	EnsureRole(ctx context.Context, req *CreateRoleRequest) (*RoleResponse, bool, error)
	GetByID(ctx context.Context, id string) (*RoleResponse, error)
	List(ctx context.Context, filters repositories.RoleFilters) (*RoleListResponse, error)
	Delete(ctx context.Context, id string) error

	AttachGrant(ctx context.Context, roleID, grantID string) error
	DetachGrant(ctx context.Context, roleID, grantID string) error
}

type GrantService interface {
	Create(ctx context.Context, req *CreateGrantRequest) (*GrantResponse, error)
	GetByID(ctx context.Context, id string) (*GrantResponse, error)

	// Patch deep-merges the partial into the stored document atomically;
	// untouched entries keep their value.
	Patch(ctx context.Context, id string, req *PatchGrantRequest) (*GrantResponse, error)
	Delete(ctx context.Context, id string) error
}

type EnrollmentService interface {
	EnrollStudent(ctx context.Context, userID string, req *EnrollRequest) (*EnrollmentResponse, error)
	EnrollParent(ctx context.Context, userID string, req *EnrollRequest) (*EnrollmentResponse, error)

	SetStudentEnrollmentStatus(ctx context.Context, userID, schoolID string, status models.EnrollmentStatus) error
	SetParentEnrollmentStatus(ctx context.Context, userID, schoolID string, status models.EnrollmentStatus) error

	ListStudentEnrollments(ctx context.Context, userID string) ([]*EnrollmentResponse, error)
	ListParentEnrollments(ctx context.Context, userID string) ([]*EnrollmentResponse, error)
}

type ExportService interface {
	// ExportPermissionMatrix renders roles x capabilities as an XLSX
	// workbook for school administrators.
	ExportPermissionMatrix(ctx context.Context, schoolID *string) ([]byte, error)
}

// ServiceManager wires the service layer together and owns its lifecycle.
type ServiceManager interface {
	User() UserService
	School() SchoolService
	Role() RoleService
	Grant() GrantService
	Enrollment() EnrollmentService
	Export() ExportService

	// Engine and Resolver back the authorization middleware.
	Engine() *authz.Engine
	Resolver() *authz.TenantResolver

	Initialize(ctx context.Context) error
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
