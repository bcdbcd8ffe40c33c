package model

import (
	"time"

	"gorm.io/gorm"
)

// Company represents the company model stored in the database.
// This is the tenancy root of the multi-company architecture: every
// other entity carries a CompanyID and is invisible outside it.
type Company struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	Name      string         `json:"name" gorm:"type:varchar(100);not null;uniqueIndex"`
	Currency  string         `json:"currency" gorm:"type:varchar(3);not null;default:'USD'"`
	IsActive  bool           `json:"is_active" gorm:"default:true"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}
