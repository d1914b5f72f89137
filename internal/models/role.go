package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type RoleType string

const (
	RoleTypeSuperAdmin  RoleType = "super_admin" // platform-level, tenant-less
	RoleTypeSchoolOwner RoleType = "school_owner"
	RoleTypeTeacher     RoleType = "teacher"
	RoleTypeStudent     RoleType = "student"
	RoleTypeParent      RoleType = "parent"
	RoleTypeStaff       RoleType = "staff"
)

// Role is a named bundle of permission grants. SchoolID is nil for
// platform-level roles. Type is immutable after creation; name uniqueness
// is scoped per school.
type Role struct {
	ID       string   `json:"id" gorm:"primaryKey;type:uuid"`
	Name     string   `json:"name" gorm:"uniqueIndex:idx_roles_school_name;not null;size:100" validate:"required,min=1,max=100"`
	Type     RoleType `json:"type" gorm:"not null;size:30;index" validate:"required,oneof=super_admin school_owner teacher student parent staff"`
	SchoolID *string  `json:"school_id" gorm:"uniqueIndex:idx_roles_school_name;type:uuid;index"`

	Grants []*PermissionGrant `json:"grants,omitempty" gorm:"many2many:role_permission_grants"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (Role) TableName() string {
	return "roles"
}

// PermissionGrant stores one schema-normalized permission document.
// The document is validated against the permission schema at write time.
type PermissionGrant struct {
	ID       string         `json:"id" gorm:"primaryKey;type:uuid"`
	Document datatypes.JSON `json:"document" gorm:"not null"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (PermissionGrant) TableName() string {
	return "permission_grants"
}
