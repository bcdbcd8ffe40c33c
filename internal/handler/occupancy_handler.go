package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"rental-service/internal/billing"
	mid "rental-service/internal/middleware"
	"rental-service/pkg/logger"
	"rental-service/prometheus"
)

// OccupancyHandler exposes the lease lifecycle over HTTP
type OccupancyHandler struct {
	svc *billing.OccupancyService
}

// NewOccupancyHandler creates a new occupancy handler
func NewOccupancyHandler(svc *billing.OccupancyService) *OccupancyHandler {
	return &OccupancyHandler{svc: svc}
}

// Create handles lease creation
func (h *OccupancyHandler) Create(c echo.Context) error {
	log := logger.FromEcho(c)

	scope, ok := mid.ScopeFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	var req struct {
		ApartmentID     uint             `json:"apartment_id"`
		TenantID        uint             `json:"tenant_id"`
		LeaseStartDate  string           `json:"lease_start_date"`
		LeaseEndDate    string           `json:"lease_end_date"`
		MonthlyRent     decimal.Decimal  `json:"monthly_rent"`
		SecurityDeposit *decimal.Decimal `json:"security_deposit"`
		DepositPaid     bool             `json:"deposit_paid"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse occupancy creation request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	start, err := parseDate(req.LeaseStartDate)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "lease_start_date must be YYYY-MM-DD"})
	}
	end, err := parseDate(req.LeaseEndDate)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "lease_end_date must be YYYY-MM-DD"})
	}

	occupancy, err := h.svc.Create(c.Request().Context(), scope, billing.CreateOccupancyInput{
		ApartmentID:     req.ApartmentID,
		TenantID:        req.TenantID,
		LeaseStartDate:  start,
		LeaseEndDate:    end,
		MonthlyRent:     req.MonthlyRent,
		SecurityDeposit: req.SecurityDeposit,
		DepositPaid:     req.DepositPaid,
	})
	if err != nil {
		return respondError(c, log, err)
	}

	prometheus.OccupancyOperationCounter.WithLabelValues("create").Inc()
	log.Info("Occupancy created",
		zap.Uint("id", occupancy.ID),
		zap.Uint("apartment_id", occupancy.ApartmentID),
		zap.Uint("company_id", scope.CompanyID))
	return c.JSON(http.StatusCreated, occupancy)
}

// Activate moves a pending lease to active
func (h *OccupancyHandler) Activate(c echo.Context) error {
	log := logger.FromEcho(c)

	scope, ok := mid.ScopeFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid occupancy ID"})
	}

	var req struct {
		MoveInDate string `json:"move_in_date"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	moveIn, err := parseDate(req.MoveInDate)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "move_in_date must be YYYY-MM-DD"})
	}

	occupancy, err := h.svc.Activate(c.Request().Context(), scope, uint(id), moveIn)
	if err != nil {
		return respondError(c, log, err)
	}

	prometheus.OccupancyOperationCounter.WithLabelValues("activate").Inc()
	return c.JSON(http.StatusOK, occupancy)
}

// End moves an active lease to ended
func (h *OccupancyHandler) End(c echo.Context) error {
	log := logger.FromEcho(c)

	scope, ok := mid.ScopeFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid occupancy ID"})
	}

	var req struct {
		MoveOutDate string `json:"move_out_date"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	moveOut, err := parseDate(req.MoveOutDate)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "move_out_date must be YYYY-MM-DD"})
	}

	occupancy, err := h.svc.End(c.Request().Context(), scope, uint(id), moveOut)
	if err != nil {
		return respondError(c, log, err)
	}

	prometheus.OccupancyOperationCounter.WithLabelValues("end").Inc()
	return c.JSON(http.StatusOK, occupancy)
}

// Cancel voids a pending lease
func (h *OccupancyHandler) Cancel(c echo.Context) error {
	log := logger.FromEcho(c)

	scope, ok := mid.ScopeFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid occupancy ID"})
	}

	occupancy, err := h.svc.Cancel(c.Request().Context(), scope, uint(id))
	if err != nil {
		return respondError(c, log, err)
	}

	prometheus.OccupancyOperationCounter.WithLabelValues("cancel").Inc()
	return c.JSON(http.StatusOK, occupancy)
}

// Get retrieves one lease
func (h *OccupancyHandler) Get(c echo.Context) error {
	log := logger.FromEcho(c)

	scope, ok := mid.ScopeFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid occupancy ID"})
	}

	occupancy, err := h.svc.Get(c.Request().Context(), scope, uint(id))
	if err != nil {
		return respondError(c, log, err)
	}
	return c.JSON(http.StatusOK, occupancy)
}

// ListExpiring returns active leases ending within the requested window,
// consumed by the reminder collaborator
func (h *OccupancyHandler) ListExpiring(c echo.Context) error {
	log := logger.FromEcho(c)

	scope, ok := mid.ScopeFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	withinDays := 30
	if raw := c.QueryParam("within_days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "within_days must be a non-negative integer"})
		}
		withinDays = parsed
	}

	occupancies, err := h.svc.ListActiveExpiring(c.Request().Context(), scope, withinDays)
	if err != nil {
		return respondError(c, log, err)
	}
	return c.JSON(http.StatusOK, occupancies)
}
