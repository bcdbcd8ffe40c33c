package billing

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rental-service/internal/apperr"
	"rental-service/internal/model"
)

// sentInvoice creates an active lease, generates its rent invoice and
// dispatches it, returning the invoice ready for payment.
func sentInvoice(t *testing.T, f *fixture, rent string, dueDate time.Time) *model.Invoice {
	t.Helper()
	occupancy := f.activeOccupancy(t, rent, date(2024, 1, 1), date(2024, 12, 31))
	invoices := NewInvoiceService(f.db, nopAudit{})
	ctx := context.Background()

	invoice, err := invoices.CreateDraft(ctx, f.scope, CreateDraftInput{
		OccupancyID: occupancy.ID,
		InvoiceDate: date(2024, 1, 1),
		DueDate:     dueDate,
		LineItems:   rentLine(rent),
	})
	require.NoError(t, err)
	invoice, err = invoices.Send(ctx, f.scope, invoice.ID)
	require.NoError(t, err)
	return invoice
}

func TestApplyPaymentFullSettlesInvoice(t *testing.T) {
	f := newFixture(t)
	invoice := sentInvoice(t, f, "1500.00", date(2024, 1, 10))
	svc := NewPaymentService(f.db, nopAudit{})
	ctx := context.Background()

	payment, err := svc.ApplyPayment(ctx, f.scope, ApplyPaymentInput{
		InvoiceID: invoice.ID,
		Amount:    money("1500.00"),
		PaidAt:    date(2024, 1, 5),
		Method:    model.PaymentBank,
		Reference: "TXN-42",
	})
	require.NoError(t, err)
	assert.True(t, payment.Amount.Equal(money("1500.00")))

	var reloaded model.Invoice
	require.NoError(t, f.db.First(&reloaded, invoice.ID).Error)
	assert.Equal(t, model.InvoicePaid, reloaded.Status)
	assert.True(t, reloaded.AmountPaid.Equal(reloaded.TotalAmount))

	// The invoice is settled; even a cent more is rejected.
	_, err = svc.ApplyPayment(ctx, f.scope, ApplyPaymentInput{
		InvoiceID: invoice.ID,
		Amount:    money("0.01"),
		PaidAt:    date(2024, 1, 6),
		Method:    model.PaymentCash,
	})
	assert.ErrorIs(t, err, apperr.ErrOverpayment)
}

func TestApplyPaymentPartial(t *testing.T) {
	f := newFixture(t)
	invoice := sentInvoice(t, f, "1500.00", date(2099, 1, 10))
	svc := NewPaymentService(f.db, nopAudit{})
	ctx := context.Background()

	_, err := svc.ApplyPayment(ctx, f.scope, ApplyPaymentInput{
		InvoiceID: invoice.ID, Amount: money("600.00"),
		PaidAt: date(2024, 1, 3), Method: model.PaymentCash,
	})
	require.NoError(t, err)

	var reloaded model.Invoice
	require.NoError(t, f.db.First(&reloaded, invoice.ID).Error)
	assert.Equal(t, model.InvoiceSent, reloaded.Status)
	assert.True(t, reloaded.AmountPaid.Equal(money("600.00")))

	_, err = svc.ApplyPayment(ctx, f.scope, ApplyPaymentInput{
		InvoiceID: invoice.ID, Amount: money("900.00"),
		PaidAt: date(2024, 1, 4), Method: model.PaymentMobile,
	})
	require.NoError(t, err)

	require.NoError(t, f.db.First(&reloaded, invoice.ID).Error)
	assert.Equal(t, model.InvoicePaid, reloaded.Status)

	payments, err := svc.ListForInvoice(ctx, f.scope, invoice.ID)
	require.NoError(t, err)
	assert.Len(t, payments, 2)
}

func TestApplyPaymentPastDueMarksOverdue(t *testing.T) {
	f := newFixture(t)
	invoice := sentInvoice(t, f, "1500.00", date(2024, 1, 10))
	svc := NewPaymentService(f.db, nopAudit{})

	// Partial payment after the due date has passed.
	_, err := svc.ApplyPayment(context.Background(), f.scope, ApplyPaymentInput{
		InvoiceID: invoice.ID, Amount: money("100.00"),
		PaidAt: date(2024, 2, 1), Method: model.PaymentCash,
	})
	require.NoError(t, err)

	var reloaded model.Invoice
	require.NoError(t, f.db.First(&reloaded, invoice.ID).Error)
	assert.Equal(t, model.InvoiceOverdue, reloaded.Status)
}

func TestApplyPaymentValidation(t *testing.T) {
	f := newFixture(t)
	invoice := sentInvoice(t, f, "1500.00", date(2024, 1, 10))
	svc := NewPaymentService(f.db, nopAudit{})
	ctx := context.Background()

	_, err := svc.ApplyPayment(ctx, f.scope, ApplyPaymentInput{
		InvoiceID: invoice.ID, Amount: money("0"),
		PaidAt: date(2024, 1, 5), Method: model.PaymentCash,
	})
	assert.ErrorIs(t, err, apperr.ErrInvalidPayment)

	_, err = svc.ApplyPayment(ctx, f.scope, ApplyPaymentInput{
		InvoiceID: invoice.ID, Amount: money("-10.00"),
		PaidAt: date(2024, 1, 5), Method: model.PaymentCash,
	})
	assert.ErrorIs(t, err, apperr.ErrInvalidPayment)

	_, err = svc.ApplyPayment(ctx, f.scope, ApplyPaymentInput{
		InvoiceID: invoice.ID, Amount: money("10.00"),
		PaidAt: date(2024, 1, 5), Method: "barter",
	})
	assert.ErrorIs(t, err, apperr.ErrInvalidPayment)
}

func TestApplyPaymentRejectedOnCancelledInvoice(t *testing.T) {
	f := newFixture(t)
	occupancy := f.activeOccupancy(t, "1500.00", date(2024, 1, 1), date(2024, 12, 31))
	invoices := NewInvoiceService(f.db, nopAudit{})
	payments := NewPaymentService(f.db, nopAudit{})
	ctx := context.Background()

	invoice, err := invoices.CreateDraft(ctx, f.scope, CreateDraftInput{
		OccupancyID: occupancy.ID,
		InvoiceDate: date(2024, 1, 1), DueDate: date(2024, 1, 10),
		LineItems: rentLine("1500.00"),
	})
	require.NoError(t, err)
	_, err = invoices.Cancel(ctx, f.scope, invoice.ID)
	require.NoError(t, err)

	_, err = payments.ApplyPayment(ctx, f.scope, ApplyPaymentInput{
		InvoiceID: invoice.ID, Amount: money("100.00"),
		PaidAt: date(2024, 1, 5), Method: model.PaymentCash,
	})
	assert.ErrorIs(t, err, apperr.ErrInvoiceCancelled)
}

func TestApplyPaymentCrossTenantInvoice(t *testing.T) {
	f := newFixture(t)
	invoice := sentInvoice(t, f, "1500.00", date(2024, 1, 10))
	otherScope, _, _ := f.otherCompany(t)
	svc := NewPaymentService(f.db, nopAudit{})

	_, err := svc.ApplyPayment(context.Background(), otherScope, ApplyPaymentInput{
		InvoiceID: invoice.ID, Amount: money("100.00"),
		PaidAt: date(2024, 1, 5), Method: model.PaymentCash,
	})
	assert.ErrorIs(t, err, apperr.ErrCrossTenantAccess)
}

// TestConcurrentPaymentsNeverOverpay races several payments whose sum
// exceeds the invoice total. The version check must keep amount_paid
// within the total no matter which subset wins.
func TestConcurrentPaymentsNeverOverpay(t *testing.T) {
	f := newFixture(t)
	invoice := sentInvoice(t, f, "1000.00", date(2099, 1, 10))
	svc := NewPaymentService(f.db, nopAudit{})

	const workers = 4
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			_, errs[slot] = svc.ApplyPayment(context.Background(), f.scope, ApplyPaymentInput{
				InvoiceID: invoice.ID, Amount: money("400.00"),
				PaidAt: date(2024, 1, 5), Method: model.PaymentBank,
			})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		}
	}
	// At most two 400.00 payments fit into 1000.00.
	assert.LessOrEqual(t, succeeded, 2)

	var reloaded model.Invoice
	require.NoError(t, f.db.First(&reloaded, invoice.ID).Error)
	assert.True(t, reloaded.AmountPaid.LessThanOrEqual(reloaded.TotalAmount),
		"amount paid %s exceeds total %s", reloaded.AmountPaid, reloaded.TotalAmount)

	payments, err := svc.ListForInvoice(context.Background(), f.scope, invoice.ID)
	require.NoError(t, err)
	assert.Len(t, payments, succeeded)
}

func TestRecomputeOverdue(t *testing.T) {
	f := newFixture(t)
	invoice := sentInvoice(t, f, "1500.00", date(2024, 1, 10))
	svc := NewPaymentService(f.db, nopAudit{})
	ctx := context.Background()

	count, err := svc.RecomputeOverdue(ctx, f.scope, date(2024, 2, 1))
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	var reloaded model.Invoice
	require.NoError(t, f.db.First(&reloaded, invoice.ID).Error)
	assert.Equal(t, model.InvoiceOverdue, reloaded.Status)

	// Second sweep finds nothing left to transition.
	count, err = svc.RecomputeOverdue(ctx, f.scope, date(2024, 2, 1))
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestRecomputeOverdueSkipsPaidAndFuture(t *testing.T) {
	f := newFixture(t)
	paid := sentInvoice(t, f, "1500.00", date(2024, 1, 10))
	svc := NewPaymentService(f.db, nopAudit{})
	ctx := context.Background()

	_, err := svc.ApplyPayment(ctx, f.scope, ApplyPaymentInput{
		InvoiceID: paid.ID, Amount: money("1500.00"),
		PaidAt: date(2024, 1, 5), Method: model.PaymentBank,
	})
	require.NoError(t, err)

	count, err := svc.RecomputeOverdue(ctx, f.scope, date(2024, 2, 1))
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}
