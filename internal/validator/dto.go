package validator

import (
	"github.com/schoolsuite/school-service/internal/models"
	"github.com/schoolsuite/school-service/internal/permissions"
)

// RegisterUserRequest creates an identity with exactly one sub-identity.
// SchoolID is required for the teacher kind and ignored for the others;
// students and parents join schools through enrollments afterwards.
type RegisterUserRequest struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Username string `json:"username" validate:"required,min=3,max=100"`
	FullName string `json:"full_name" validate:"required,min=1,max=100"`
	Password string `json:"password" validate:"required,min=8,max=72"`

	Kind     models.SubIdentityKind `json:"kind" validate:"required,oneof=teacher student parent"`
	SchoolID *string                `json:"school_id" validate:"omitempty,uuid"`
}

// ProvisionSchoolRequest creates a school together with its owner account.
type ProvisionSchoolRequest struct {
	Name    string  `json:"name" validate:"required,min=1,max=255"`
	Address *string `json:"address" validate:"omitempty,max=500"`
	Phone   *string `json:"phone" validate:"omitempty,max=30"`
	Email   *string `json:"email" validate:"omitempty,email,max=255"`

	OwnerEmail    string `json:"owner_email" validate:"required,email,max=255"`
	OwnerUsername string `json:"owner_username" validate:"required,min=3,max=100"`
	OwnerFullName string `json:"owner_full_name" validate:"required,min=1,max=100"`
	OwnerPassword string `json:"owner_password" validate:"required,min=8,max=72"`
}

type CreateRoleRequest struct {
	Name     string          `json:"name" validate:"required,min=1,max=100"`
	Type     models.RoleType `json:"type" validate:"required,role_type"`
	SchoolID *string         `json:"school_id" validate:"omitempty,uuid"`
}

type CreateGrantRequest struct {
	Document permissions.Partial `json:"document"`
}

// PatchGrantRequest deep-merges the partial into the stored document.
// Only the mentioned category/capability pairs change.
type PatchGrantRequest struct {
	Document permissions.Partial `json:"document" validate:"required"`
}

type AttachGrantRequest struct {
	GrantID string `json:"grant_id" validate:"required,uuid"`
}

type AssignRoleRequest struct {
	RoleID string `json:"role_id" validate:"required,uuid"`
}

type EnrollRequest struct {
	SchoolID string `json:"school_id" validate:"required,uuid"`

	// Activate requests immediate activation; rejected when another
	// enrollment of the same identity is already active.
	Activate bool `json:"activate"`
}

type EnrollmentStatusRequest struct {
	Status models.EnrollmentStatus `json:"status" validate:"required,enrollment_status"`
}
