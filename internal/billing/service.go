// Package billing implements the occupancy, invoice and payment engines.
// Every operation takes an explicit tenancy.Context; storage-level
// unique constraints are the authoritative concurrency guarantees and
// application checks only produce friendlier errors on the fast path.
package billing

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"rental-service/internal/apperr"
	"rental-service/internal/model"
	"rental-service/internal/tenancy"
)

// round2 rounds to the currency's minor unit. All money equality in this
// package is decided on rounded values, never on raw arithmetic results.
func round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// requireActiveCompany gates all write operations: children of an
// inactive company are read-only.
func requireActiveCompany(tx *gorm.DB, scope tenancy.Context) error {
	var company model.Company
	if err := tx.First(&company, scope.CompanyID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: company %d", apperr.ErrNotFound, scope.CompanyID)
		}
		return err
	}
	if !company.IsActive {
		return fmt.Errorf("%w: company %d", apperr.ErrCompanyInactive, scope.CompanyID)
	}
	return nil
}

// The loaders below fetch by opaque ID first and only then compare the
// owner, so an ID from another company is reported as cross-tenant
// access rather than silently not found.

func findApartment(tx *gorm.DB, scope tenancy.Context, id uint) (*model.Apartment, error) {
	var apartment model.Apartment
	if err := tx.First(&apartment, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: apartment %d", apperr.ErrNotFound, id)
		}
		return nil, err
	}
	if err := tenancy.CheckOwned(scope, apartment.CompanyID, "apartment", id); err != nil {
		return nil, err
	}
	return &apartment, nil
}

func findTenant(tx *gorm.DB, scope tenancy.Context, id uint) (*model.Tenant, error) {
	var tenant model.Tenant
	if err := tx.First(&tenant, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: tenant %d", apperr.ErrNotFound, id)
		}
		return nil, err
	}
	if err := tenancy.CheckOwned(scope, tenant.CompanyID, "tenant", id); err != nil {
		return nil, err
	}
	return &tenant, nil
}

func findOccupancy(tx *gorm.DB, scope tenancy.Context, id uint) (*model.Occupancy, error) {
	var occupancy model.Occupancy
	if err := tx.First(&occupancy, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: occupancy %d", apperr.ErrNotFound, id)
		}
		return nil, err
	}
	if err := tenancy.CheckOwned(scope, occupancy.CompanyID, "occupancy", id); err != nil {
		return nil, err
	}
	return &occupancy, nil
}

func findInvoice(tx *gorm.DB, scope tenancy.Context, id uint) (*model.Invoice, error) {
	var invoice model.Invoice
	if err := tx.First(&invoice, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: invoice %d", apperr.ErrNotFound, id)
		}
		return nil, err
	}
	if err := tenancy.CheckOwned(scope, invoice.CompanyID, "invoice", id); err != nil {
		return nil, err
	}
	return &invoice, nil
}
