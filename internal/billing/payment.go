package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"rental-service/internal/apperr"
	"rental-service/internal/model"
	"rental-service/internal/tenancy"
	"rental-service/pkg/logger"
	"rental-service/prometheus"
)

// paymentRetries bounds the optimistic-version retry loop
const paymentRetries = 3

// PaymentService applies payments against invoice balances and derives
// invoice status from them. Payments are immutable once created.
type PaymentService struct {
	db    *gorm.DB
	audit AuditRecorder
}

// NewPaymentService creates a new payment service
func NewPaymentService(db *gorm.DB, audit AuditRecorder) *PaymentService {
	return &PaymentService{db: db, audit: audit}
}

// ApplyPaymentInput holds the fields for one payment
type ApplyPaymentInput struct {
	InvoiceID uint
	Amount    decimal.Decimal
	PaidAt    time.Time
	Method    model.PaymentMethod
	Reference string
}

// ApplyPayment records a payment and updates the invoice balance in one
// transaction. The read-modify-write is protected by an optimistic
// version check: two concurrent payments can never both pass the
// overpayment check against a stale balance. Excess amounts are
// rejected, never capped.
func (s *PaymentService) ApplyPayment(ctx context.Context, scope tenancy.Context, input ApplyPaymentInput) (*model.Payment, error) {
	if !input.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be positive", apperr.ErrInvalidPayment)
	}
	switch input.Method {
	case model.PaymentCash, model.PaymentBank, model.PaymentMobile, model.PaymentCard, model.PaymentOther:
	default:
		return nil, fmt.Errorf("%w: unknown method %q", apperr.ErrInvalidPayment, input.Method)
	}
	amount := round2(input.Amount)

	var payment model.Payment
	var lastErr error
	for attempt := 0; attempt < paymentRetries; attempt++ {
		lastErr = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := requireActiveCompany(tx, scope); err != nil {
				return err
			}
			invoice, err := findInvoice(tx, scope, input.InvoiceID)
			if err != nil {
				return err
			}
			if invoice.Status == model.InvoiceCancelled {
				return fmt.Errorf("%w: invoice %s", apperr.ErrInvoiceCancelled, invoice.InvoiceNumber)
			}

			newPaid := round2(invoice.AmountPaid.Add(amount))
			if newPaid.GreaterThan(invoice.TotalAmount) {
				return fmt.Errorf("%w: %s + %s exceeds total %s",
					apperr.ErrOverpayment, invoice.AmountPaid, amount, invoice.TotalAmount)
			}

			newStatus := nextStatusAfterPayment(invoice, newPaid, time.Now())

			res := tx.Model(&model.Invoice{}).
				Where("id = ? AND version = ?", invoice.ID, invoice.Version).
				Updates(map[string]interface{}{
					"amount_paid": newPaid,
					"status":      newStatus,
					"version":     invoice.Version + 1,
				})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return errStaleInvoice
			}

			payment = model.Payment{
				CompanyID: scope.CompanyID,
				InvoiceID: invoice.ID,
				Amount:    amount,
				PaidAt:    input.PaidAt,
				Method:    input.Method,
				Reference: input.Reference,
			}
			return tx.Create(&payment).Error
		})
		if lastErr == nil {
			break
		}
		if !errors.Is(lastErr, errStaleInvoice) {
			return nil, lastErr
		}
		// Stale version; reload and retry the whole transaction.
	}
	if lastErr != nil {
		return nil, fmt.Errorf("payment application contention on invoice %d: %w", input.InvoiceID, lastErr)
	}

	prometheus.PaymentsAppliedCounter.WithLabelValues(string(input.Method)).Inc()
	s.audit.Record(AuditEvent{
		Entity: "payment", EntityID: payment.ID, Action: "create",
		CompanyID: scope.CompanyID, ActorID: scope.ActorID, After: payment.Amount,
	})
	return &payment, nil
}

var errStaleInvoice = errors.New("stale invoice version")

// nextStatusAfterPayment derives the post-payment invoice status.
// Full payment wins over everything; otherwise a dispatched invoice past
// its due date is overdue, and any other state is left alone.
func nextStatusAfterPayment(invoice *model.Invoice, newPaid decimal.Decimal, asOf time.Time) model.InvoiceStatus {
	if newPaid.Equal(invoice.TotalAmount) {
		return model.InvoicePaid
	}
	if invoice.Status == model.InvoiceSent && invoice.DueDate.Before(asOf) {
		return model.InvoiceOverdue
	}
	return invoice.Status
}

// ListForInvoice returns the immutable payment trail of one invoice
func (s *PaymentService) ListForInvoice(ctx context.Context, scope tenancy.Context, invoiceID uint) ([]model.Payment, error) {
	if _, err := findInvoice(s.db.WithContext(ctx), scope, invoiceID); err != nil {
		return nil, err
	}
	var payments []model.Payment
	err := tenancy.Scoped(s.db.WithContext(ctx), scope).
		Where("invoice_id = ?", invoiceID).
		Order("paid_at asc").
		Find(&payments).Error
	if err != nil {
		return nil, err
	}
	return payments, nil
}

// RecomputeOverdue transitions every dispatched, unpaid invoice past its
// due date to overdue. Pure status derivation; safe to re-run.
func (s *PaymentService) RecomputeOverdue(ctx context.Context, scope tenancy.Context, asOf time.Time) (int64, error) {
	res := tenancy.Scoped(s.db.WithContext(ctx).Model(&model.Invoice{}), scope).
		Where("status = ? AND due_date < ? AND amount_paid < total_amount", model.InvoiceSent, asOf).
		Update("status", model.InvoiceOverdue)
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected > 0 {
		prometheus.OverdueTransitionsCounter.Add(float64(res.RowsAffected))
		logger.FromContext(ctx).Info("invoices marked overdue",
			zap.Uint("company_id", scope.CompanyID),
			zap.Int64("count", res.RowsAffected))
	}
	return res.RowsAffected, nil
}
