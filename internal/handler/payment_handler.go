package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"rental-service/internal/billing"
	mid "rental-service/internal/middleware"
	"rental-service/internal/model"
	"rental-service/pkg/logger"
)

// PaymentHandler exposes the payment ledger over HTTP
type PaymentHandler struct {
	svc *billing.PaymentService
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(svc *billing.PaymentService) *PaymentHandler {
	return &PaymentHandler{svc: svc}
}

// Apply records a payment against an invoice
func (h *PaymentHandler) Apply(c echo.Context) error {
	log := logger.FromEcho(c)

	scope, ok := mid.ScopeFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	invoiceID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid invoice ID"})
	}

	var req struct {
		Amount    decimal.Decimal `json:"amount"`
		PaidAt    string          `json:"paid_at"`
		Method    string          `json:"method"`
		Reference string          `json:"reference"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse payment request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	paidAt := time.Now()
	if req.PaidAt != "" {
		paidAt, err = parseDate(req.PaidAt)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "paid_at must be YYYY-MM-DD"})
		}
	}

	payment, err := h.svc.ApplyPayment(c.Request().Context(), scope, billing.ApplyPaymentInput{
		InvoiceID: uint(invoiceID),
		Amount:    req.Amount,
		PaidAt:    paidAt,
		Method:    model.PaymentMethod(req.Method),
		Reference: req.Reference,
	})
	if err != nil {
		return respondError(c, log, err)
	}

	log.Info("Payment applied",
		zap.Uint("payment_id", payment.ID),
		zap.Uint("invoice_id", payment.InvoiceID),
		zap.String("amount", payment.Amount.String()))
	return c.JSON(http.StatusCreated, payment)
}

// ListForInvoice returns the payment trail of one invoice
func (h *PaymentHandler) ListForInvoice(c echo.Context) error {
	log := logger.FromEcho(c)

	scope, ok := mid.ScopeFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	invoiceID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid invoice ID"})
	}

	payments, err := h.svc.ListForInvoice(c.Request().Context(), scope, uint(invoiceID))
	if err != nil {
		return respondError(c, log, err)
	}
	return c.JSON(http.StatusOK, payments)
}

// RecomputeOverdue flips dispatched, unpaid invoices past their due date
// to overdue. Idempotent; typically invoked by the scheduler.
func (h *PaymentHandler) RecomputeOverdue(c echo.Context) error {
	log := logger.FromEcho(c)

	scope, ok := mid.ScopeFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	asOf := time.Now()
	if raw := c.QueryParam("as_of"); raw != "" {
		parsed, err := parseDate(raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "as_of must be YYYY-MM-DD"})
		}
		asOf = parsed
	}

	count, err := h.svc.RecomputeOverdue(c.Request().Context(), scope, asOf)
	if err != nil {
		return respondError(c, log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"transitioned": count})
}
