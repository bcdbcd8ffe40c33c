package model

import (
	"time"

	"gorm.io/gorm"
)

// TenantStatus is the closed set of resident states
type TenantStatus string

const (
	TenantActive   TenantStatus = "active"
	TenantInactive TenantStatus = "inactive"
)

// Tenant represents a resident who can hold a lease on an apartment.
// Not to be confused with the company, which is the SaaS tenancy root.
type Tenant struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	CompanyID uint           `json:"company_id" gorm:"index;not null"`
	FirstName string         `json:"first_name" gorm:"type:varchar(100);not null"`
	LastName  string         `json:"last_name" gorm:"type:varchar(100);not null"`
	Email     string         `json:"email" gorm:"type:varchar(255)"`
	Phone     string         `json:"phone" gorm:"type:varchar(50)"`
	Status    TenantStatus   `json:"status" gorm:"type:varchar(20);not null;default:'active'"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}
