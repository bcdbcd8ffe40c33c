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

// PropertyService manages compounds, apartments and residents. Deletion
// is always soft, and business invariants are checked before the
// soft-delete flag is ever set.
type PropertyService struct {
	db    *gorm.DB
	audit AuditRecorder
}

// NewPropertyService creates a new property service
func NewPropertyService(db *gorm.DB, audit AuditRecorder) *PropertyService {
	return &PropertyService{db: db, audit: audit}
}

// CreateCompound registers a building or group of buildings
func (s *PropertyService) CreateCompound(ctx context.Context, scope tenancy.Context, name, address string) (*model.Compound, error) {
	var compound model.Compound
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireActiveCompany(tx, scope); err != nil {
			return err
		}
		compound = model.Compound{CompanyID: scope.CompanyID, Name: name, Address: address}
		return tx.Create(&compound).Error
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(AuditEvent{
		Entity: "compound", EntityID: compound.ID, Action: "create",
		CompanyID: scope.CompanyID, ActorID: scope.ActorID,
	})
	return &compound, nil
}

// CreateApartmentInput holds the fields for a new unit
type CreateApartmentInput struct {
	CompoundID uint
	UnitNumber string
	Floor      int
	Bedrooms   int
}

// CreateApartment registers a unit inside a compound. Unit numbers are
// unique within their compound, enforced by the storage constraint.
func (s *PropertyService) CreateApartment(ctx context.Context, scope tenancy.Context, input CreateApartmentInput) (*model.Apartment, error) {
	var apartment model.Apartment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireActiveCompany(tx, scope); err != nil {
			return err
		}

		var compound model.Compound
		if err := tx.First(&compound, input.CompoundID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: compound %d", apperr.ErrNotFound, input.CompoundID)
			}
			return err
		}
		if err := tenancy.CheckOwned(scope, compound.CompanyID, "compound", compound.ID); err != nil {
			return err
		}

		apartment = model.Apartment{
			CompanyID:  scope.CompanyID,
			CompoundID: input.CompoundID,
			UnitNumber: input.UnitNumber,
			Floor:      input.Floor,
			Bedrooms:   input.Bedrooms,
			Status:     model.ApartmentAvailable,
		}
		return tx.Create(&apartment).Error
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(AuditEvent{
		Entity: "apartment", EntityID: apartment.ID, Action: "create",
		CompanyID: scope.CompanyID, ActorID: scope.ActorID,
	})
	return &apartment, nil
}

// SetApartmentStatus moves an apartment between available, maintenance
// and reserved. The occupied state is owned by the occupancy lifecycle
// and cannot be set or cleared here.
func (s *PropertyService) SetApartmentStatus(ctx context.Context, scope tenancy.Context, apartmentID uint, status model.ApartmentStatus) (*model.Apartment, error) {
	switch status {
	case model.ApartmentAvailable, model.ApartmentMaintenance, model.ApartmentReserved:
	default:
		return nil, fmt.Errorf("%w: apartment status %q cannot be set directly", apperr.ErrInvalidTransition, status)
	}

	var apartment *model.Apartment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireActiveCompany(tx, scope); err != nil {
			return err
		}
		var err error
		apartment, err = findApartment(tx, scope, apartmentID)
		if err != nil {
			return err
		}
		if apartment.Status == model.ApartmentOccupied {
			return fmt.Errorf("%w: apartment %d is occupied", apperr.ErrInvalidTransition, apartmentID)
		}
		apartment.Status = status
		return tx.Model(apartment).Update("status", status).Error
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(AuditEvent{
		Entity: "apartment", EntityID: apartment.ID, Action: "set_status",
		CompanyID: scope.CompanyID, ActorID: scope.ActorID, After: apartment.Status,
	})
	return apartment, nil
}

// DeleteApartment soft-deletes a unit. Refused while occupied: the
// business check runs before the soft-delete flag is set.
func (s *PropertyService) DeleteApartment(ctx context.Context, scope tenancy.Context, apartmentID uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireActiveCompany(tx, scope); err != nil {
			return err
		}
		apartment, err := findApartment(tx, scope, apartmentID)
		if err != nil {
			return err
		}
		if apartment.Status == model.ApartmentOccupied {
			return fmt.Errorf("%w: apartment %d is occupied", apperr.ErrApartmentNotAvailable, apartmentID)
		}
		return tx.Delete(apartment).Error
	})
	if err != nil {
		return err
	}

	s.audit.Record(AuditEvent{
		Entity: "apartment", EntityID: apartmentID, Action: "delete",
		CompanyID: scope.CompanyID, ActorID: scope.ActorID,
	})
	return nil
}

// RestoreApartment clears the soft-delete marker
func (s *PropertyService) RestoreApartment(ctx context.Context, scope tenancy.Context, apartmentID uint) (*model.Apartment, error) {
	var apartment model.Apartment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireActiveCompany(tx, scope); err != nil {
			return err
		}
		if err := tx.Unscoped().First(&apartment, apartmentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: apartment %d", apperr.ErrNotFound, apartmentID)
			}
			return err
		}
		if err := tenancy.CheckOwned(scope, apartment.CompanyID, "apartment", apartmentID); err != nil {
			return err
		}
		return tx.Unscoped().Model(&apartment).Update("deleted_at", nil).Error
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(AuditEvent{
		Entity: "apartment", EntityID: apartment.ID, Action: "restore",
		CompanyID: scope.CompanyID, ActorID: scope.ActorID,
	})
	return &apartment, nil
}

// CreateTenantInput holds the fields for a new resident
type CreateTenantInput struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
}

// CreateTenant registers a resident
func (s *PropertyService) CreateTenant(ctx context.Context, scope tenancy.Context, input CreateTenantInput) (*model.Tenant, error) {
	var tenant model.Tenant
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireActiveCompany(tx, scope); err != nil {
			return err
		}
		tenant = model.Tenant{
			CompanyID: scope.CompanyID,
			FirstName: input.FirstName,
			LastName:  input.LastName,
			Email:     input.Email,
			Phone:     input.Phone,
			Status:    model.TenantActive,
		}
		return tx.Create(&tenant).Error
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(AuditEvent{
		Entity: "tenant", EntityID: tenant.ID, Action: "create",
		CompanyID: scope.CompanyID, ActorID: scope.ActorID,
	})
	return &tenant, nil
}

// SetTenantStatus flips a resident between active and inactive
func (s *PropertyService) SetTenantStatus(ctx context.Context, scope tenancy.Context, tenantID uint, status model.TenantStatus) (*model.Tenant, error) {
	if status != model.TenantActive && status != model.TenantInactive {
		return nil, fmt.Errorf("%w: unknown tenant status %q", apperr.ErrInvalidTransition, status)
	}

	var tenant *model.Tenant
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireActiveCompany(tx, scope); err != nil {
			return err
		}
		var err error
		tenant, err = findTenant(tx, scope, tenantID)
		if err != nil {
			return err
		}
		tenant.Status = status
		return tx.Model(tenant).Update("status", status).Error
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(AuditEvent{
		Entity: "tenant", EntityID: tenant.ID, Action: "set_status",
		CompanyID: scope.CompanyID, ActorID: scope.ActorID, After: tenant.Status,
	})
	return tenant, nil
}

// ListApartments returns the company's units, optionally by compound
func (s *PropertyService) ListApartments(ctx context.Context, scope tenancy.Context, compoundID uint) ([]model.Apartment, error) {
	query := tenancy.Scoped(s.db.WithContext(ctx), scope)
	if compoundID != 0 {
		query = query.Where("compound_id = ?", compoundID)
	}
	var apartments []model.Apartment
	if err := query.Order("id asc").Find(&apartments).Error; err != nil {
		return nil, err
	}
	return apartments, nil
}
