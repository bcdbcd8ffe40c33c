package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PaymentMethod is the closed set of accepted payment channels
type PaymentMethod string

const (
	PaymentCash   PaymentMethod = "CASH"
	PaymentBank   PaymentMethod = "BANK"
	PaymentMobile PaymentMethod = "MOBILE"
	PaymentCard   PaymentMethod = "CARD"
	PaymentOther  PaymentMethod = "OTHER"
)

// Payment is an immutable record of money applied to an invoice.
// It back-references the invoice but is never cascaded with it: an
// invoice carrying payments refuses deletion instead.
type Payment struct {
	ID        uint            `json:"id" gorm:"primaryKey"`
	CompanyID uint            `json:"company_id" gorm:"index;not null"`
	InvoiceID uint            `json:"invoice_id" gorm:"index;not null"`
	Amount    decimal.Decimal `json:"amount" gorm:"type:decimal(12,2);not null"`
	PaidAt    time.Time       `json:"paid_at" gorm:"not null"`
	Method    PaymentMethod   `json:"method" gorm:"type:varchar(10);not null"`
	Reference string          `json:"reference,omitempty" gorm:"type:varchar(100)"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	DeletedAt gorm.DeletedAt  `json:"-" gorm:"index"`
}
