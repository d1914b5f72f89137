package models

import "time"

// EnrollmentStatus is a two-state machine: active <-> inactive, one
// allowed transition each way. At most one enrollment per student/parent
// may be active at a time; the write path enforces this.
type EnrollmentStatus string

const (
	EnrollmentActive   EnrollmentStatus = "active"
	EnrollmentInactive EnrollmentStatus = "inactive"
)

// StudentEnrollment links a student profile to a school.
type StudentEnrollment struct {
	ID        uint             `json:"id" gorm:"primaryKey"`
	StudentID string           `json:"student_id" gorm:"type:uuid;not null;uniqueIndex:idx_student_school"`
	SchoolID  string           `json:"school_id" gorm:"type:uuid;not null;uniqueIndex:idx_student_school"`
	Status    EnrollmentStatus `json:"status" gorm:"not null;size:20;default:inactive;index"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`

	School School `json:"school,omitempty" gorm:"foreignKey:SchoolID"`
}

func (StudentEnrollment) TableName() string {
	return "student_enrollments"
}

// ParentEnrollment links a parent profile to a school.
type ParentEnrollment struct {
	ID        uint             `json:"id" gorm:"primaryKey"`
	ParentID  string           `json:"parent_id" gorm:"type:uuid;not null;uniqueIndex:idx_parent_school"`
	SchoolID  string           `json:"school_id" gorm:"type:uuid;not null;uniqueIndex:idx_parent_school"`
	Status    EnrollmentStatus `json:"status" gorm:"not null;size:20;default:inactive;index"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`

	School School `json:"school,omitempty" gorm:"foreignKey:SchoolID"`
}

func (ParentEnrollment) TableName() string {
	return "parent_enrollments"
}
