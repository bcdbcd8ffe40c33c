package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OccupancyStatus is the closed set of lease states
type OccupancyStatus string

const (
	OccupancyPending   OccupancyStatus = "pending"
	OccupancyActive    OccupancyStatus = "active"
	OccupancyEnded     OccupancyStatus = "ended"
	OccupancyCancelled OccupancyStatus = "cancelled"
)

// Occupancy binds one apartment to one resident for a lease period.
// The partial unique index on apartment_id closes the race between two
// concurrent activations: at most one row per apartment may be active.
type Occupancy struct {
	ID              uint             `json:"id" gorm:"primaryKey"`
	CompanyID       uint             `json:"company_id" gorm:"not null;index:idx_occupancies_company_status,priority:1"`
	ApartmentID     uint             `json:"apartment_id" gorm:"not null;index;uniqueIndex:uniq_apartment_active,where:status = 'active'"`
	TenantID        uint             `json:"tenant_id" gorm:"not null;index"`
	LeaseStartDate  time.Time        `json:"lease_start_date" gorm:"not null"`
	LeaseEndDate    time.Time        `json:"lease_end_date" gorm:"not null;index"`
	MonthlyRent     decimal.Decimal  `json:"monthly_rent" gorm:"type:decimal(12,2);not null"`
	SecurityDeposit *decimal.Decimal `json:"security_deposit,omitempty" gorm:"type:decimal(12,2)"`
	DepositPaid     bool             `json:"deposit_paid" gorm:"default:false"`
	MoveInDate      *time.Time       `json:"move_in_date,omitempty"`
	MoveOutDate     *time.Time       `json:"move_out_date,omitempty"`
	Status          OccupancyStatus  `json:"status" gorm:"type:varchar(20);not null;default:'pending';index:idx_occupancies_company_status,priority:2"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
	DeletedAt       gorm.DeletedAt   `json:"-" gorm:"index"`

	// Relations
	Invoices []Invoice `json:"invoices,omitempty" gorm:"foreignKey:OccupancyID"`
}
