package models

import (
	"time"

	"gorm.io/gorm"
)

// TeacherProfile fixes a teacher to a single school.
type TeacherProfile struct {
	ID       string `json:"id" gorm:"primaryKey;type:uuid"`
	UserID   string `json:"user_id" gorm:"uniqueIndex;type:uuid;not null"`
	SchoolID string `json:"school_id" gorm:"type:uuid;not null;index"`

	Phone   *string `json:"phone" gorm:"size:20"`
	Subject *string `json:"subject" gorm:"size:100"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (TeacherProfile) TableName() string {
	return "teacher_profiles"
}

// StudentProfile may be associated with many schools over time; only the
// enrollment rows decide which one is currently in effect.
type StudentProfile struct {
	ID              string     `json:"id" gorm:"primaryKey;type:uuid"`
	UserID          string     `json:"user_id" gorm:"uniqueIndex;type:uuid;not null"`
	AdmissionNumber *string    `json:"admission_number" gorm:"size:50"`
	DateOfBirth     *time.Time `json:"date_of_birth"`

	Enrollments []StudentEnrollment `json:"enrollments,omitempty" gorm:"foreignKey:StudentID"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (StudentProfile) TableName() string {
	return "student_profiles"
}

type ParentProfile struct {
	ID         string  `json:"id" gorm:"primaryKey;type:uuid"`
	UserID     string  `json:"user_id" gorm:"uniqueIndex;type:uuid;not null"`
	Phone      *string `json:"phone" gorm:"size:20"`
	Occupation *string `json:"occupation" gorm:"size:100"`

	Enrollments []ParentEnrollment `json:"enrollments,omitempty" gorm:"foreignKey:ParentID"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (ParentProfile) TableName() string {
	return "parent_profiles"
}
