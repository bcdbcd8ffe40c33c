package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"rental-service/internal/billing"
	mid "rental-service/internal/middleware"
	"rental-service/internal/model"
	"rental-service/pkg/logger"
)

// InvoiceHandler exposes the invoice engine over HTTP
type InvoiceHandler struct {
	svc           *billing.InvoiceService
	defaultDueDay int
}

// NewInvoiceHandler creates a new invoice handler
func NewInvoiceHandler(svc *billing.InvoiceService, defaultDueDay int) *InvoiceHandler {
	return &InvoiceHandler{svc: svc, defaultDueDay: defaultDueDay}
}

type lineItemRequest struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Amount      decimal.Decimal `json:"amount"`
	Type        string          `json:"type"`
}

// CreateDraft handles manual invoice creation
func (h *InvoiceHandler) CreateDraft(c echo.Context) error {
	log := logger.FromEcho(c)

	scope, ok := mid.ScopeFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	var req struct {
		OccupancyID uint              `json:"occupancy_id"`
		InvoiceDate string            `json:"invoice_date"`
		DueDate     string            `json:"due_date"`
		TaxAmount   decimal.Decimal   `json:"tax_amount"`
		LineItems   []lineItemRequest `json:"line_items"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse invoice creation request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	invoiceDate, err := parseDate(req.InvoiceDate)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invoice_date must be YYYY-MM-DD"})
	}
	dueDate, err := parseDate(req.DueDate)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "due_date must be YYYY-MM-DD"})
	}

	items := make([]billing.LineItemInput, 0, len(req.LineItems))
	for _, item := range req.LineItems {
		items = append(items, billing.LineItemInput{
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Amount:      item.Amount,
			Type:        model.LineItemType(item.Type),
		})
	}

	invoice, err := h.svc.CreateDraft(c.Request().Context(), scope, billing.CreateDraftInput{
		OccupancyID: req.OccupancyID,
		InvoiceDate: invoiceDate,
		DueDate:     dueDate,
		TaxAmount:   req.TaxAmount,
		LineItems:   items,
	})
	if err != nil {
		return respondError(c, log, err)
	}

	log.Info("Invoice created",
		zap.Uint("id", invoice.ID),
		zap.String("number", invoice.InvoiceNumber),
		zap.Uint("company_id", scope.CompanyID))
	return c.JSON(http.StatusCreated, invoice)
}

// Send marks an invoice as dispatched
func (h *InvoiceHandler) Send(c echo.Context) error {
	log := logger.FromEcho(c)

	scope, ok := mid.ScopeFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid invoice ID"})
	}

	invoice, err := h.svc.Send(c.Request().Context(), scope, uint(id))
	if err != nil {
		return respondError(c, log, err)
	}
	return c.JSON(http.StatusOK, invoice)
}

// Cancel voids an invoice without payments
func (h *InvoiceHandler) Cancel(c echo.Context) error {
	log := logger.FromEcho(c)

	scope, ok := mid.ScopeFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid invoice ID"})
	}

	invoice, err := h.svc.Cancel(c.Request().Context(), scope, uint(id))
	if err != nil {
		return respondError(c, log, err)
	}
	return c.JSON(http.StatusOK, invoice)
}

// Delete soft-deletes an invoice without payments
func (h *InvoiceHandler) Delete(c echo.Context) error {
	log := logger.FromEcho(c)

	scope, ok := mid.ScopeFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid invoice ID"})
	}

	if err := h.svc.Delete(c.Request().Context(), scope, uint(id)); err != nil {
		return respondError(c, log, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Get retrieves one invoice with its line items
func (h *InvoiceHandler) Get(c echo.Context) error {
	log := logger.FromEcho(c)

	scope, ok := mid.ScopeFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid invoice ID"})
	}

	invoice, err := h.svc.Get(c.Request().Context(), scope, uint(id))
	if err != nil {
		return respondError(c, log, err)
	}
	return c.JSON(http.StatusOK, invoice)
}

// GenerateMonthly runs the bulk invoice generation for a billing month.
// The response is always a complete summary, even when every occupancy
// failed; callers inspect the failed/errors fields.
func (h *InvoiceHandler) GenerateMonthly(c echo.Context) error {
	log := logger.FromEcho(c)

	scope, ok := mid.ScopeFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	var req struct {
		Month        string `json:"month"`
		DueDay       int    `json:"due_day"`
		OccupancyIDs []uint `json:"occupancy_ids"`
		SkipExisting *bool  `json:"skip_existing"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse generation request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	dueDay := req.DueDay
	if dueDay == 0 {
		dueDay = h.defaultDueDay
	}
	skipExisting := true
	if req.SkipExisting != nil {
		skipExisting = *req.SkipExisting
	}

	result, err := h.svc.GenerateMonthly(c.Request().Context(), scope, billing.GenerateMonthlyInput{
		Month:        req.Month,
		DueDay:       dueDay,
		OccupancyIDs: req.OccupancyIDs,
		SkipExisting: skipExisting,
	})
	if err != nil {
		return respondError(c, log, err)
	}

	log.Info("Bulk generation completed",
		zap.String("month", req.Month),
		zap.Int("created", result.Created),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", result.Failed))
	return c.JSON(http.StatusOK, result)
}

// ListDueSoon returns invoices nearing or past their due date
func (h *InvoiceHandler) ListDueSoon(c echo.Context) error {
	log := logger.FromEcho(c)

	scope, ok := mid.ScopeFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	withinDays := 7
	if raw := c.QueryParam("within_days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "within_days must be a non-negative integer"})
		}
		withinDays = parsed
	}

	invoices, err := h.svc.ListDueSoon(c.Request().Context(), scope, withinDays)
	if err != nil {
		return respondError(c, log, err)
	}
	return c.JSON(http.StatusOK, invoices)
}
