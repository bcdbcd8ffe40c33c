package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"rental-service/internal/billing"
	mid "rental-service/internal/middleware"
	"rental-service/internal/model"
	"rental-service/pkg/logger"
)

// PropertyHandler exposes compound, apartment and resident management
type PropertyHandler struct {
	svc *billing.PropertyService
}

// NewPropertyHandler creates a new property handler
func NewPropertyHandler(svc *billing.PropertyService) *PropertyHandler {
	return &PropertyHandler{svc: svc}
}

// CreateCompound registers a building group
func (h *PropertyHandler) CreateCompound(c echo.Context) error {
	log := logger.FromEcho(c)

	scope, ok := mid.ScopeFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	var req struct {
		Name    string `json:"name"`
		Address string `json:"address"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}

	compound, err := h.svc.CreateCompound(c.Request().Context(), scope, req.Name, req.Address)
	if err != nil {
		return respondError(c, log, err)
	}
	return c.JSON(http.StatusCreated, compound)
}

// CreateApartment registers a unit inside a compound
func (h *PropertyHandler) CreateApartment(c echo.Context) error {
	log := logger.FromEcho(c)

	scope, ok := mid.ScopeFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	var req struct {
		CompoundID uint   `json:"compound_id"`
		UnitNumber string `json:"unit_number"`
		Floor      int    `json:"floor"`
		Bedrooms   int    `json:"bedrooms"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.UnitNumber == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unit_number is required"})
	}

	apartment, err := h.svc.CreateApartment(c.Request().Context(), scope, billing.CreateApartmentInput{
		CompoundID: req.CompoundID,
		UnitNumber: req.UnitNumber,
		Floor:      req.Floor,
		Bedrooms:   req.Bedrooms,
	})
	if err != nil {
		return respondError(c, log, err)
	}

	log.Info("Apartment created",
		zap.Uint("id", apartment.ID),
		zap.String("unit_number", apartment.UnitNumber))
	return c.JSON(http.StatusCreated, apartment)
}

// ListApartments returns the company's units
func (h *PropertyHandler) ListApartments(c echo.Context) error {
	log := logger.FromEcho(c)

	scope, ok := mid.ScopeFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	var compoundID uint
	if raw := c.QueryParam("compound_id"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid compound_id"})
		}
		compoundID = uint(parsed)
	}

	apartments, err := h.svc.ListApartments(c.Request().Context(), scope, compoundID)
	if err != nil {
		return respondError(c, log, err)
	}
	return c.JSON(http.StatusOK, apartments)
}

// SetApartmentStatus moves a unit between non-occupied states
func (h *PropertyHandler) SetApartmentStatus(c echo.Context) error {
	log := logger.FromEcho(c)

	scope, ok := mid.ScopeFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid apartment ID"})
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	apartment, err := h.svc.SetApartmentStatus(c.Request().Context(), scope, uint(id), model.ApartmentStatus(req.Status))
	if err != nil {
		return respondError(c, log, err)
	}
	return c.JSON(http.StatusOK, apartment)
}

// DeleteApartment soft-deletes a unit
func (h *PropertyHandler) DeleteApartment(c echo.Context) error {
	log := logger.FromEcho(c)

	scope, ok := mid.ScopeFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid apartment ID"})
	}

	if err := h.svc.DeleteApartment(c.Request().Context(), scope, uint(id)); err != nil {
		return respondError(c, log, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// RestoreApartment clears a unit's soft-delete marker
func (h *PropertyHandler) RestoreApartment(c echo.Context) error {
	log := logger.FromEcho(c)

	scope, ok := mid.ScopeFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid apartment ID"})
	}

	apartment, err := h.svc.RestoreApartment(c.Request().Context(), scope, uint(id))
	if err != nil {
		return respondError(c, log, err)
	}
	return c.JSON(http.StatusOK, apartment)
}

// CreateTenant registers a resident
func (h *PropertyHandler) CreateTenant(c echo.Context) error {
	log := logger.FromEcho(c)

	scope, ok := mid.ScopeFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	var req struct {
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Email     string `json:"email"`
		Phone     string `json:"phone"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.FirstName == "" || req.LastName == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "first_name and last_name are required"})
	}

	tenant, err := h.svc.CreateTenant(c.Request().Context(), scope, billing.CreateTenantInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
	})
	if err != nil {
		return respondError(c, log, err)
	}
	return c.JSON(http.StatusCreated, tenant)
}

// SetTenantStatus flips a resident between active and inactive
func (h *PropertyHandler) SetTenantStatus(c echo.Context) error {
	log := logger.FromEcho(c)

	scope, ok := mid.ScopeFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid tenant ID"})
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	tenant, err := h.svc.SetTenantStatus(c.Request().Context(), scope, uint(id), model.TenantStatus(req.Status))
	if err != nil {
		return respondError(c, log, err)
	}
	return c.JSON(http.StatusOK, tenant)
}
