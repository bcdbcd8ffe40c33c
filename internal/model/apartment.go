package model

import (
	"time"

	"gorm.io/gorm"
)

// ApartmentStatus is the closed set of apartment states
type ApartmentStatus string

const (
	ApartmentAvailable   ApartmentStatus = "available"
	ApartmentOccupied    ApartmentStatus = "occupied"
	ApartmentMaintenance ApartmentStatus = "maintenance"
	ApartmentReserved    ApartmentStatus = "reserved"
)

// Compound represents a building or group of buildings owning apartments
type Compound struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	CompanyID uint           `json:"company_id" gorm:"index;not null"`
	Name      string         `json:"name" gorm:"type:varchar(100);not null"`
	Address   string         `json:"address" gorm:"type:text"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// Apartment represents a leasable unit within a compound.
// Status is "occupied" exactly while an active occupancy exists.
type Apartment struct {
	ID         uint            `json:"id" gorm:"primaryKey"`
	CompanyID  uint            `json:"company_id" gorm:"index;not null"`
	CompoundID uint            `json:"compound_id" gorm:"not null;uniqueIndex:uniq_compound_unit,priority:1"`
	UnitNumber string          `json:"unit_number" gorm:"type:varchar(50);not null;uniqueIndex:uniq_compound_unit,priority:2"`
	Floor      int             `json:"floor"`
	Bedrooms   int             `json:"bedrooms"`
	Status     ApartmentStatus `json:"status" gorm:"type:varchar(20);not null;default:'available'"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
	DeletedAt  gorm.DeletedAt  `json:"-" gorm:"index"`
}
