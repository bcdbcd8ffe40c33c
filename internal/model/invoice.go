package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// InvoiceStatus is the closed set of invoice states
type InvoiceStatus string

const (
	InvoiceDraft     InvoiceStatus = "draft"
	InvoiceSent      InvoiceStatus = "sent"
	InvoicePaid      InvoiceStatus = "paid"
	InvoiceOverdue   InvoiceStatus = "overdue"
	InvoiceCancelled InvoiceStatus = "cancelled"
)

// LineItemType is the closed set of invoice line categories
type LineItemType string

const (
	LineItemRent        LineItemType = "rent"
	LineItemUtility     LineItemType = "utility"
	LineItemMaintenance LineItemType = "maintenance"
	LineItemOther       LineItemType = "other"
)

// Invoice belongs to exactly one occupancy. BillingPeriod is set only by
// the bulk engine ("2006-01" format); the partial unique index over it is
// the authoritative duplicate-period guard under concurrent generation.
// Version backs the optimistic check used when payments are applied.
type Invoice struct {
	ID            uint            `json:"id" gorm:"primaryKey"`
	CompanyID     uint            `json:"company_id" gorm:"not null;index:idx_invoices_company_status,priority:1;uniqueIndex:uniq_company_invoice_number,priority:1;uniqueIndex:uniq_occupancy_period,priority:1"`
	OccupancyID   uint            `json:"occupancy_id" gorm:"not null;index;uniqueIndex:uniq_occupancy_period,priority:2"`
	InvoiceNumber string          `json:"invoice_number" gorm:"type:varchar(30);not null;uniqueIndex:uniq_company_invoice_number,priority:2"`
	BillingPeriod string          `json:"billing_period,omitempty" gorm:"type:varchar(7);uniqueIndex:uniq_occupancy_period,priority:3,where:billing_period <> ''"`
	InvoiceDate   time.Time       `json:"invoice_date" gorm:"not null"`
	DueDate       time.Time       `json:"due_date" gorm:"not null;index"`
	Subtotal      decimal.Decimal `json:"subtotal" gorm:"type:decimal(12,2);not null"`
	TaxAmount     decimal.Decimal `json:"tax_amount" gorm:"type:decimal(12,2);not null;default:0"`
	TotalAmount   decimal.Decimal `json:"total_amount" gorm:"type:decimal(12,2);not null"`
	AmountPaid    decimal.Decimal `json:"amount_paid" gorm:"type:decimal(12,2);not null;default:0"`
	Status        InvoiceStatus   `json:"status" gorm:"type:varchar(20);not null;default:'draft';index:idx_invoices_company_status,priority:2"`
	Version       int             `json:"version" gorm:"not null;default:0"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	DeletedAt     gorm.DeletedAt  `json:"-" gorm:"index"`

	// Relations
	LineItems []InvoiceLineItem `json:"line_items,omitempty" gorm:"foreignKey:InvoiceID"`
	Payments  []Payment         `json:"payments,omitempty" gorm:"foreignKey:InvoiceID"`
}

// InvoiceLineItem is owned by its invoice. Amount is always the rounded
// product of quantity and unit price.
type InvoiceLineItem struct {
	ID          uint            `json:"id" gorm:"primaryKey"`
	InvoiceID   uint            `json:"invoice_id" gorm:"index;not null"`
	Description string          `json:"description" gorm:"type:varchar(255);not null"`
	Quantity    decimal.Decimal `json:"quantity" gorm:"type:decimal(12,2);not null"`
	UnitPrice   decimal.Decimal `json:"unit_price" gorm:"type:decimal(12,2);not null"`
	Amount      decimal.Decimal `json:"amount" gorm:"type:decimal(12,2);not null"`
	Type        LineItemType    `json:"type" gorm:"type:varchar(20);not null;default:'other'"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// InvoiceSequence allocates company-scoped invoice numbers per year.
// Rows are bumped with an optimistic last_value check inside the
// transaction that creates the invoice.
type InvoiceSequence struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CompanyID uint      `json:"company_id" gorm:"not null;uniqueIndex:uniq_company_year,priority:1"`
	Year      int       `json:"year" gorm:"not null;uniqueIndex:uniq_company_year,priority:2"`
	LastValue int64     `json:"last_value" gorm:"not null;default:0"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
