package billing

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"rental-service/internal/apperr"
	"rental-service/internal/model"
	"rental-service/internal/tenancy"
)

// CompanyService exposes the company settings the billing core depends
// on: the currency domain and the active flag gating child writes.
type CompanyService struct {
	db    *gorm.DB
	audit AuditRecorder
}

// NewCompanyService creates a new company service
func NewCompanyService(db *gorm.DB, audit AuditRecorder) *CompanyService {
	return &CompanyService{db: db, audit: audit}
}

// Get returns the company of the current scope
func (s *CompanyService) Get(ctx context.Context, scope tenancy.Context) (*model.Company, error) {
	var company model.Company
	if err := s.db.WithContext(ctx).First(&company, scope.CompanyID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: company %d", apperr.ErrNotFound, scope.CompanyID)
		}
		return nil, err
	}
	return &company, nil
}

// UpdateCurrency changes the company currency after validating it
// against the supported domain. There is no silent fallback: an unknown
// code is rejected outright.
func (s *CompanyService) UpdateCurrency(ctx context.Context, scope tenancy.Context, currency string) (*model.Company, error) {
	normalized := NormalizeCurrency(currency)
	if err := ValidateCurrency(normalized); err != nil {
		return nil, err
	}

	var company model.Company
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&company, scope.CompanyID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: company %d", apperr.ErrNotFound, scope.CompanyID)
			}
			return err
		}
		if !company.IsActive {
			return fmt.Errorf("%w: company %d", apperr.ErrCompanyInactive, scope.CompanyID)
		}
		company.Currency = normalized
		return tx.Model(&company).Update("currency", normalized).Error
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(AuditEvent{
		Entity: "company", EntityID: company.ID, Action: "update_currency",
		CompanyID: scope.CompanyID, ActorID: scope.ActorID, After: company.Currency,
	})
	return &company, nil
}
