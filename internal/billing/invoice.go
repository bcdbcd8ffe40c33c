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

const billingPeriodLayout = "2006-01"

// InvoiceService implements single and bulk invoice generation, company
// scoped numbering and the invoice status transitions.
type InvoiceService struct {
	db    *gorm.DB
	audit AuditRecorder
}

// NewInvoiceService creates a new invoice service
func NewInvoiceService(db *gorm.DB, audit AuditRecorder) *InvoiceService {
	return &InvoiceService{db: db, audit: audit}
}

// LineItemInput is one invoice line as supplied by the caller
type LineItemInput struct {
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	Amount      decimal.Decimal
	Type        model.LineItemType
}

// CreateDraftInput holds the fields for a manually created invoice
type CreateDraftInput struct {
	OccupancyID uint
	InvoiceDate time.Time
	DueDate     time.Time
	TaxAmount   decimal.Decimal
	LineItems   []LineItemInput
}

// validateLineItems checks every line and returns the subtotal. Amounts
// are compared after rounding to the minor unit, never as raw floats.
func validateLineItems(items []LineItemInput) (decimal.Decimal, error) {
	if len(items) == 0 {
		return decimal.Zero, fmt.Errorf("%w: invoice requires at least one line item", apperr.ErrInvalidLineItem)
	}
	subtotal := decimal.Zero
	for i, item := range items {
		if !item.Quantity.IsPositive() {
			return decimal.Zero, fmt.Errorf("%w: line %d quantity must be positive", apperr.ErrInvalidLineItem, i)
		}
		if !item.UnitPrice.IsPositive() {
			return decimal.Zero, fmt.Errorf("%w: line %d unit price must be positive", apperr.ErrInvalidLineItem, i)
		}
		if !item.Amount.IsPositive() {
			return decimal.Zero, fmt.Errorf("%w: line %d amount must be positive", apperr.ErrInvalidLineItem, i)
		}
		expected := round2(item.Quantity.Mul(item.UnitPrice))
		if !round2(item.Amount).Equal(expected) {
			return decimal.Zero, fmt.Errorf("%w: line %d amount %s does not equal quantity * unit price (%s)",
				apperr.ErrInvalidLineItem, i, item.Amount, expected)
		}
		switch item.Type {
		case model.LineItemRent, model.LineItemUtility, model.LineItemMaintenance, model.LineItemOther:
		default:
			return decimal.Zero, fmt.Errorf("%w: line %d has unknown type %q", apperr.ErrInvalidLineItem, i, item.Type)
		}
		subtotal = subtotal.Add(round2(item.Amount))
	}
	return round2(subtotal), nil
}

// allocateInvoiceNumber bumps the company's per-year sequence inside the
// caller's transaction. The optimistic last_value check plus the unique
// (company_id, invoice_number) index keep numbers collision-free.
func allocateInvoiceNumber(tx *gorm.DB, companyID uint, year int) (string, error) {
	for attempt := 0; attempt < 5; attempt++ {
		var seq model.InvoiceSequence
		err := tx.Where("company_id = ? AND year = ?", companyID, year).First(&seq).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			seq = model.InvoiceSequence{CompanyID: companyID, Year: year, LastValue: 0}
			if err := tx.Create(&seq).Error; err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					continue // another caller created the row first
				}
				return "", err
			}
		} else if err != nil {
			return "", err
		}

		next := seq.LastValue + 1
		res := tx.Model(&model.InvoiceSequence{}).
			Where("id = ? AND last_value = ?", seq.ID, seq.LastValue).
			Update("last_value", next)
		if res.Error != nil {
			return "", res.Error
		}
		if res.RowsAffected == 1 {
			return fmt.Sprintf("INV-%d-%06d", year, next), nil
		}
	}
	return "", fmt.Errorf("invoice number allocation contention for company %d", companyID)
}

// CreateDraft creates a manually composed invoice in draft state
func (s *InvoiceService) CreateDraft(ctx context.Context, scope tenancy.Context, input CreateDraftInput) (*model.Invoice, error) {
	if input.DueDate.Before(input.InvoiceDate) {
		return nil, fmt.Errorf("%w: due date %s before invoice date %s",
			apperr.ErrInvalidDateRange,
			input.DueDate.Format("2006-01-02"), input.InvoiceDate.Format("2006-01-02"))
	}
	if input.TaxAmount.IsNegative() {
		return nil, fmt.Errorf("%w: tax amount must not be negative", apperr.ErrInvalidLineItem)
	}
	subtotal, err := validateLineItems(input.LineItems)
	if err != nil {
		return nil, err
	}
	total := round2(subtotal.Add(round2(input.TaxAmount)))
	if !total.IsPositive() {
		return nil, fmt.Errorf("%w: total amount must be positive", apperr.ErrInvalidLineItem)
	}

	var invoice model.Invoice
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireActiveCompany(tx, scope); err != nil {
			return err
		}
		if _, err := findOccupancy(tx, scope, input.OccupancyID); err != nil {
			return err
		}

		number, err := allocateInvoiceNumber(tx, scope.CompanyID, input.InvoiceDate.Year())
		if err != nil {
			return err
		}

		lines := make([]model.InvoiceLineItem, 0, len(input.LineItems))
		for _, item := range input.LineItems {
			lines = append(lines, model.InvoiceLineItem{
				Description: item.Description,
				Quantity:    round2(item.Quantity),
				UnitPrice:   round2(item.UnitPrice),
				Amount:      round2(item.Amount),
				Type:        item.Type,
			})
		}

		invoice = model.Invoice{
			CompanyID:     scope.CompanyID,
			OccupancyID:   input.OccupancyID,
			InvoiceNumber: number,
			InvoiceDate:   input.InvoiceDate,
			DueDate:       input.DueDate,
			Subtotal:      subtotal,
			TaxAmount:     round2(input.TaxAmount),
			TotalAmount:   total,
			AmountPaid:    decimal.Zero,
			Status:        model.InvoiceDraft,
			LineItems:     lines,
		}
		return tx.Create(&invoice).Error
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(AuditEvent{
		Entity: "invoice", EntityID: invoice.ID, Action: "create",
		CompanyID: scope.CompanyID, ActorID: scope.ActorID, After: invoice.Status,
	})
	return &invoice, nil
}

// Send marks a draft invoice as dispatched. Idempotent when the invoice
// has already left draft but can still receive payments.
func (s *InvoiceService) Send(ctx context.Context, scope tenancy.Context, invoiceID uint) (*model.Invoice, error) {
	var invoice *model.Invoice
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireActiveCompany(tx, scope); err != nil {
			return err
		}
		var err error
		invoice, err = findInvoice(tx, scope, invoiceID)
		if err != nil {
			return err
		}
		switch invoice.Status {
		case model.InvoiceDraft:
			invoice.Status = model.InvoiceSent
			return tx.Model(invoice).Update("status", model.InvoiceSent).Error
		case model.InvoiceSent, model.InvoiceOverdue:
			// Already dispatched; return current state.
			return nil
		default:
			return fmt.Errorf("%w: cannot send invoice in state %q", apperr.ErrInvalidTransition, invoice.Status)
		}
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(AuditEvent{
		Entity: "invoice", EntityID: invoice.ID, Action: "send",
		CompanyID: scope.CompanyID, ActorID: scope.ActorID, After: invoice.Status,
	})
	return invoice, nil
}

// Cancel voids an invoice. Hard-blocked once money has moved: there is
// no reversal semantic here, corrections are a separate concern.
func (s *InvoiceService) Cancel(ctx context.Context, scope tenancy.Context, invoiceID uint) (*model.Invoice, error) {
	var invoice *model.Invoice
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireActiveCompany(tx, scope); err != nil {
			return err
		}
		var err error
		invoice, err = findInvoice(tx, scope, invoiceID)
		if err != nil {
			return err
		}
		if invoice.Status == model.InvoiceCancelled {
			return nil
		}
		if invoice.AmountPaid.IsPositive() {
			return fmt.Errorf("%w: invoice %s has %s paid", apperr.ErrInvoiceHasPayments, invoice.InvoiceNumber, invoice.AmountPaid)
		}
		invoice.Status = model.InvoiceCancelled
		return tx.Model(invoice).Update("status", model.InvoiceCancelled).Error
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(AuditEvent{
		Entity: "invoice", EntityID: invoice.ID, Action: "cancel",
		CompanyID: scope.CompanyID, ActorID: scope.ActorID, After: invoice.Status,
	})
	return invoice, nil
}

// Delete soft-deletes an invoice and its line items. Blocked while
// payments exist: payments are an audit trail and are never cascaded.
func (s *InvoiceService) Delete(ctx context.Context, scope tenancy.Context, invoiceID uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireActiveCompany(tx, scope); err != nil {
			return err
		}
		invoice, err := findInvoice(tx, scope, invoiceID)
		if err != nil {
			return err
		}

		var paymentCount int64
		if err := tx.Model(&model.Payment{}).Where("invoice_id = ?", invoice.ID).Count(&paymentCount).Error; err != nil {
			return err
		}
		if paymentCount > 0 {
			return fmt.Errorf("%w: invoice %s has %d payments", apperr.ErrInvoiceHasPayments, invoice.InvoiceNumber, paymentCount)
		}
		return tx.Delete(invoice).Error
	})
	if err != nil {
		return err
	}

	s.audit.Record(AuditEvent{
		Entity: "invoice", EntityID: invoiceID, Action: "delete",
		CompanyID: scope.CompanyID, ActorID: scope.ActorID,
	})
	return nil
}

// Get returns a single invoice with line items in company scope
func (s *InvoiceService) Get(ctx context.Context, scope tenancy.Context, invoiceID uint) (*model.Invoice, error) {
	var invoice model.Invoice
	err := s.db.WithContext(ctx).Preload("LineItems").First(&invoice, invoiceID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: invoice %d", apperr.ErrNotFound, invoiceID)
		}
		return nil, err
	}
	if err := tenancy.CheckOwned(scope, invoice.CompanyID, "invoice", invoiceID); err != nil {
		return nil, err
	}
	return &invoice, nil
}

// ListDueSoon returns dispatched invoices due within the window plus
// those already overdue, for the reminder collaborator.
func (s *InvoiceService) ListDueSoon(ctx context.Context, scope tenancy.Context, withinDays int) ([]model.Invoice, error) {
	until := time.Now().AddDate(0, 0, withinDays)

	var invoices []model.Invoice
	err := tenancy.Scoped(s.db.WithContext(ctx), scope).
		Where("status IN ? AND due_date <= ?", []model.InvoiceStatus{model.InvoiceSent, model.InvoiceOverdue}, until).
		Order("due_date asc").
		Find(&invoices).Error
	if err != nil {
		return nil, err
	}
	return invoices, nil
}

// GenerateMonthlyInput parameterizes a bulk generation run
type GenerateMonthlyInput struct {
	Month        string // billing period, "2006-01"
	DueDay       int
	OccupancyIDs []uint // optional; all covering active leases when empty
	SkipExisting bool
}

// GenerationError records one occupancy's failure inside a batch
type GenerationError struct {
	OccupancyID uint   `json:"occupancy_id"`
	Error       string `json:"error"`
}

// GenerationResult is the structured summary of a bulk run. The batch
// always produces one, even when every occupancy failed.
type GenerationResult struct {
	Period            string            `json:"period"`
	Processed         int               `json:"processed"`
	Created           int               `json:"created"`
	Skipped           int               `json:"skipped"`
	Failed            int               `json:"failed"`
	CreatedInvoiceIDs []uint            `json:"created_invoice_ids"`
	Errors            []GenerationError `json:"errors"`
	TotalAmount       decimal.Decimal   `json:"total_amount"`
}

// GenerateMonthly creates rent invoices for one billing month. Each
// occupancy is processed in its own transaction: one failure never
// aborts the batch and there is no overall rollback. Re-running with
// SkipExisting is idempotent at occupancy-period granularity; the unique
// (company_id, occupancy_id, billing_period) index holds that guarantee
// under concurrent invocation, with constraint conflicts reclassified
// into the skipped or failed bucket.
func (s *InvoiceService) GenerateMonthly(ctx context.Context, scope tenancy.Context, input GenerateMonthlyInput) (*GenerationResult, error) {
	monthStart, err := time.Parse(billingPeriodLayout, input.Month)
	if err != nil {
		return nil, fmt.Errorf("%w: billing month %q is not in YYYY-MM format", apperr.ErrInvalidDateRange, input.Month)
	}
	if err := requireActiveCompany(s.db.WithContext(ctx), scope); err != nil {
		return nil, err
	}

	occupancies, err := s.enumerateTargets(ctx, scope, input.OccupancyIDs, monthStart)
	if err != nil {
		return nil, err
	}

	log := logger.FromContext(ctx)
	result := &GenerationResult{
		Period:            input.Month,
		CreatedInvoiceIDs: []uint{},
		Errors:            []GenerationError{},
		TotalAmount:       decimal.Zero,
	}

	for _, occupancy := range occupancies {
		// Cancellation stops scheduling new occupancies; completed
		// per-occupancy transactions stand.
		if ctx.Err() != nil {
			break
		}
		result.Processed++

		invoice, outcome, err := s.generateForOccupancy(ctx, scope, occupancy, monthStart, input.DueDay, input.SkipExisting)
		switch outcome {
		case outcomeCreated:
			result.Created++
			result.CreatedInvoiceIDs = append(result.CreatedInvoiceIDs, invoice.ID)
			result.TotalAmount = round2(result.TotalAmount.Add(invoice.TotalAmount))
			prometheus.InvoicesGeneratedCounter.WithLabelValues("created").Inc()
			s.audit.Record(AuditEvent{
				Entity: "invoice", EntityID: invoice.ID, Action: "generate",
				CompanyID: scope.CompanyID, ActorID: scope.ActorID, After: invoice.Status,
			})
		case outcomeSkipped:
			result.Skipped++
			prometheus.InvoicesGeneratedCounter.WithLabelValues("skipped").Inc()
		case outcomeFailed:
			result.Failed++
			result.Errors = append(result.Errors, GenerationError{OccupancyID: occupancy.ID, Error: err.Error()})
			prometheus.InvoicesGeneratedCounter.WithLabelValues("failed").Inc()
			log.Warn("invoice generation failed for occupancy",
				zap.Uint("occupancy_id", occupancy.ID),
				zap.String("period", input.Month),
				zap.Error(err))
		}
	}

	log.Info("bulk invoice generation finished",
		zap.String("period", input.Month),
		zap.Uint("company_id", scope.CompanyID),
		zap.Int("processed", result.Processed),
		zap.Int("created", result.Created),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", result.Failed))
	return result, nil
}

type generationOutcome int

const (
	outcomeCreated generationOutcome = iota
	outcomeSkipped
	outcomeFailed
)

// enumerateTargets resolves the batch's occupancies: the caller-supplied
// IDs, or every active lease covering the billing month. Cross-tenant
// IDs abort the whole request; they are never folded into the result.
func (s *InvoiceService) enumerateTargets(ctx context.Context, scope tenancy.Context, ids []uint, monthStart time.Time) ([]model.Occupancy, error) {
	monthEnd := monthStart.AddDate(0, 1, -1)

	if len(ids) > 0 {
		occupancies := make([]model.Occupancy, 0, len(ids))
		for _, id := range ids {
			occupancy, err := findOccupancy(s.db.WithContext(ctx), scope, id)
			if err != nil {
				if errors.Is(err, apperr.ErrCrossTenantAccess) {
					return nil, err
				}
				// Missing IDs surface as per-occupancy failures; stub a
				// row so the loop can report them.
				occupancies = append(occupancies, model.Occupancy{ID: id, CompanyID: scope.CompanyID})
				continue
			}
			occupancies = append(occupancies, *occupancy)
		}
		return occupancies, nil
	}

	var occupancies []model.Occupancy
	err := tenancy.Scoped(s.db.WithContext(ctx), scope).
		Where("status = ? AND lease_start_date <= ? AND lease_end_date >= ?", model.OccupancyActive, monthEnd, monthStart).
		Order("id asc").
		Find(&occupancies).Error
	if err != nil {
		return nil, err
	}
	return occupancies, nil
}

// generateForOccupancy creates one rent invoice in its own transaction
func (s *InvoiceService) generateForOccupancy(ctx context.Context, scope tenancy.Context, occupancy model.Occupancy, monthStart time.Time, dueDay int, skipExisting bool) (*model.Invoice, generationOutcome, error) {
	period := monthStart.Format(billingPeriodLayout)

	if occupancy.Status == "" {
		return nil, outcomeFailed, fmt.Errorf("%w: occupancy %d", apperr.ErrNotFound, occupancy.ID)
	}
	if occupancy.Status != model.OccupancyActive {
		return nil, outcomeFailed, fmt.Errorf("%w: occupancy %d is %q, not active", apperr.ErrInvalidTransition, occupancy.ID, occupancy.Status)
	}

	// Fast-path duplicate check; the unique index is the real guard.
	var existing int64
	err := tenancy.Scoped(s.db.WithContext(ctx), scope).Model(&model.Invoice{}).
		Where("occupancy_id = ? AND billing_period = ?", occupancy.ID, period).
		Count(&existing).Error
	if err != nil {
		return nil, outcomeFailed, err
	}
	if existing > 0 {
		if skipExisting {
			return nil, outcomeSkipped, nil
		}
		return nil, outcomeFailed, fmt.Errorf("%w: period %s", apperr.ErrDuplicateInvoicePeriod, period)
	}

	rent := round2(occupancy.MonthlyRent)
	if !rent.IsPositive() {
		return nil, outcomeFailed, fmt.Errorf("%w: occupancy %d monthly rent %s must be positive", apperr.ErrInvalidLineItem, occupancy.ID, rent)
	}

	invoiceDate := monthStart
	dueDate := dueDateFor(monthStart, dueDay)

	var invoice model.Invoice
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		number, err := allocateInvoiceNumber(tx, scope.CompanyID, invoiceDate.Year())
		if err != nil {
			return err
		}
		invoice = model.Invoice{
			CompanyID:     scope.CompanyID,
			OccupancyID:   occupancy.ID,
			InvoiceNumber: number,
			BillingPeriod: period,
			InvoiceDate:   invoiceDate,
			DueDate:       dueDate,
			Subtotal:      rent,
			TaxAmount:     decimal.Zero,
			TotalAmount:   rent,
			AmountPaid:    decimal.Zero,
			Status:        model.InvoiceDraft,
			LineItems: []model.InvoiceLineItem{{
				Description: fmt.Sprintf("Monthly rent %s", period),
				Quantity:    decimal.NewFromInt(1),
				UnitPrice:   rent,
				Amount:      rent,
				Type:        model.LineItemRent,
			}},
		}
		return tx.Create(&invoice).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Concurrent run won the insert; reclassify, never crash.
			if skipExisting {
				return nil, outcomeSkipped, nil
			}
			return nil, outcomeFailed, fmt.Errorf("%w: period %s", apperr.ErrDuplicateInvoicePeriod, period)
		}
		return nil, outcomeFailed, err
	}
	return &invoice, outcomeCreated, nil
}

// dueDateFor places the due day inside the billing month, clamped to the
// month's last valid day.
func dueDateFor(monthStart time.Time, dueDay int) time.Time {
	if dueDay < 1 {
		dueDay = 1
	}
	lastDay := monthStart.AddDate(0, 1, -1).Day()
	if dueDay > lastDay {
		dueDay = lastDay
	}
	return time.Date(monthStart.Year(), monthStart.Month(), dueDay, 0, 0, 0, 0, monthStart.Location())
}
