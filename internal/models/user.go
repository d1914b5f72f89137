package models

import (
	"time"

	"gorm.io/gorm"
)

// User is the central authenticatable identity. Exactly one of the four
// sub-identity links (owned school, teacher, student, parent) is set in
// practice; the SubIdentity method resolves which variant applies.
type User struct {
	ID             string `json:"id" gorm:"primaryKey;type:uuid"`
	Email          string `json:"email" gorm:"uniqueIndex;not null;size:255"`
	Username       string `json:"username" gorm:"uniqueIndex;not null;size:100"`
	FullName       string `json:"full_name" gorm:"not null;size:100"`
	PasswordDigest string `json:"-" gorm:"not null;size:255"`

	// Sub-identity links, set once at creation
	OwnedSchoolID  *string         `json:"owned_school_id" gorm:"type:uuid;index"`
	TeacherProfile *TeacherProfile `json:"teacher_profile,omitempty" gorm:"foreignKey:UserID"`
	StudentProfile *StudentProfile `json:"student_profile,omitempty" gorm:"foreignKey:UserID"`
	ParentProfile  *ParentProfile  `json:"parent_profile,omitempty" gorm:"foreignKey:UserID"`

	// Access control associations (order irrelevant)
	Roles  []*Role            `json:"roles,omitempty" gorm:"many2many:user_roles"`
	Grants []*PermissionGrant `json:"grants,omitempty" gorm:"many2many:user_permission_grants"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (User) TableName() string {
	return "users"
}

type SubIdentityKind string

const (
	SubIdentityNone    SubIdentityKind = "none"
	SubIdentityOwner   SubIdentityKind = "owner"
	SubIdentityTeacher SubIdentityKind = "teacher"
	SubIdentityStudent SubIdentityKind = "student"
	SubIdentityParent  SubIdentityKind = "parent"
)

// SubIdentity is the tagged-union view over the four polymorphic links.
// Exactly one of the payload fields is meaningful for a given Kind.
type SubIdentity struct {
	Kind          SubIdentityKind
	OwnedSchoolID string
	Teacher       *TeacherProfile
	Student       *StudentProfile
	Parent        *ParentProfile
}

// SubIdentity resolves which polymorphic variant this user carries.
// Requires the profile links to be loaded (GetWithSubIdentity).
func (u *User) SubIdentity() SubIdentity {
	switch {
	case u.OwnedSchoolID != nil:
		return SubIdentity{Kind: SubIdentityOwner, OwnedSchoolID: *u.OwnedSchoolID}
	case u.TeacherProfile != nil:
		return SubIdentity{Kind: SubIdentityTeacher, Teacher: u.TeacherProfile}
	case u.StudentProfile != nil:
		return SubIdentity{Kind: SubIdentityStudent, Student: u.StudentProfile}
	case u.ParentProfile != nil:
		return SubIdentity{Kind: SubIdentityParent, Parent: u.ParentProfile}
	default:
		return SubIdentity{Kind: SubIdentityNone}
	}
}
