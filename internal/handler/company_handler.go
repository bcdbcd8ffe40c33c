package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"rental-service/internal/billing"
	mid "rental-service/internal/middleware"
	"rental-service/pkg/logger"
)

// CompanyHandler exposes company settings
type CompanyHandler struct {
	svc *billing.CompanyService
}

// NewCompanyHandler creates a new company handler
func NewCompanyHandler(svc *billing.CompanyService) *CompanyHandler {
	return &CompanyHandler{svc: svc}
}

// Get returns the requesting company's settings
func (h *CompanyHandler) Get(c echo.Context) error {
	log := logger.FromEcho(c)

	scope, ok := mid.ScopeFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	company, err := h.svc.Get(c.Request().Context(), scope)
	if err != nil {
		return respondError(c, log, err)
	}
	return c.JSON(http.StatusOK, company)
}

// UpdateCurrency changes the company currency
func (h *CompanyHandler) UpdateCurrency(c echo.Context) error {
	log := logger.FromEcho(c)

	scope, ok := mid.ScopeFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	var req struct {
		Currency string `json:"currency"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	company, err := h.svc.UpdateCurrency(c.Request().Context(), scope, req.Currency)
	if err != nil {
		return respondError(c, log, err)
	}
	return c.JSON(http.StatusOK, company)
}

// ListCurrencies returns the supported currency domain
func (h *CompanyHandler) ListCurrencies(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"currencies": billing.SupportedCurrencies()})
}
