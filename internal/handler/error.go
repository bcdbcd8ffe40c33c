package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"rental-service/internal/apperr"
)

const dateLayout = "2006-01-02"

// parseDate parses a YYYY-MM-DD request field
func parseDate(value string) (time.Time, error) {
	return time.Parse(dateLayout, value)
}

// respondError maps a domain error to its HTTP status. Cross-tenant
// access is reported as forbidden and logged loudly: it is either a bug
// or an attack, never a recoverable condition.
func respondError(c echo.Context, log *zap.Logger, err error) error {
	var domainErr *apperr.Error
	if !errors.As(err, &domainErr) {
		log.Error("internal error", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
	}

	status := http.StatusBadRequest
	switch domainErr.Kind {
	case apperr.KindCrossTenantAccess:
		log.Error("cross-tenant access attempt", zap.Error(err))
		status = http.StatusForbidden
	case apperr.KindNotFound:
		status = http.StatusNotFound
	case apperr.KindInvalidTransition,
		apperr.KindApartmentNotAvailable,
		apperr.KindInvoiceHasPayments,
		apperr.KindDuplicateInvoicePeriod,
		apperr.KindInvoiceCancelled,
		apperr.KindOverpayment,
		apperr.KindCompanyInactive:
		status = http.StatusConflict
	case apperr.KindInvalidDateRange,
		apperr.KindInvalidLineItem,
		apperr.KindInvalidPayment,
		apperr.KindUnsupportedCurrency:
		status = http.StatusBadRequest
	}

	return c.JSON(status, echo.Map{
		"error": err.Error(),
		"kind":  string(domainErr.Kind),
	})
}
