package models

import (
	"time"

	"gorm.io/gorm"
)

// School is the tenant: the unit of data isolation.
type School struct {
	ID      string  `json:"id" gorm:"primaryKey;type:uuid"`
	Name    string  `json:"name" gorm:"not null;size:200;index" validate:"required,min=1,max=200"`
	Address *string `json:"address" gorm:"size:500" validate:"omitempty,max=500"`
	Phone   *string `json:"phone" gorm:"size:20"`
	Email   *string `json:"email" gorm:"size:255"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (School) TableName() string {
	return "schools"
}
