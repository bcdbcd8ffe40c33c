// Package apperr defines the closed error taxonomy of the billing core.
// Handlers map kinds to HTTP statuses; services wrap these sentinels with
// fmt.Errorf("...: %w", ...) so errors.Is still matches.
package apperr

// Kind identifies a class of domain failure
type Kind string

const (
	KindCrossTenantAccess      Kind = "cross_tenant_access"
	KindInvalidTransition      Kind = "invalid_transition"
	KindInvalidDateRange       Kind = "invalid_date_range"
	KindInvalidLineItem        Kind = "invalid_line_item"
	KindApartmentNotAvailable  Kind = "apartment_not_available"
	KindOverpayment            Kind = "overpayment"
	KindInvoiceCancelled       Kind = "invoice_cancelled"
	KindInvoiceHasPayments     Kind = "invoice_has_payments"
	KindUnsupportedCurrency    Kind = "unsupported_currency"
	KindDuplicateInvoicePeriod Kind = "duplicate_invoice_period"
	KindInvalidPayment         Kind = "invalid_payment"
	KindCompanyInactive        Kind = "company_inactive"
	KindNotFound               Kind = "not_found"
)

// Error is a domain error with a stable kind
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

var (
	// ErrCrossTenantAccess indicates an entity addressed by ID belongs to a
	// different company than the request context. Never recovered locally.
	ErrCrossTenantAccess = &Error{KindCrossTenantAccess, "entity does not belong to the requesting company"}

	ErrInvalidTransition      = &Error{KindInvalidTransition, "state transition not permitted"}
	ErrInvalidDateRange       = &Error{KindInvalidDateRange, "invalid date range"}
	ErrInvalidLineItem        = &Error{KindInvalidLineItem, "invalid line item"}
	ErrApartmentNotAvailable  = &Error{KindApartmentNotAvailable, "apartment already has an active occupancy"}
	ErrOverpayment            = &Error{KindOverpayment, "payment exceeds invoice balance"}
	ErrInvoiceCancelled       = &Error{KindInvoiceCancelled, "invoice is cancelled"}
	ErrInvoiceHasPayments     = &Error{KindInvoiceHasPayments, "invoice has recorded payments"}
	ErrUnsupportedCurrency    = &Error{KindUnsupportedCurrency, "unsupported currency code"}
	ErrDuplicateInvoicePeriod = &Error{KindDuplicateInvoicePeriod, "invoice already exists for this occupancy and period"}
	ErrInvalidPayment         = &Error{KindInvalidPayment, "invalid payment"}
	ErrCompanyInactive        = &Error{KindCompanyInactive, "company is not active"}
	ErrNotFound               = &Error{KindNotFound, "entity not found"}
)
