package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"rental-service/internal/apperr"
	"rental-service/internal/model"
	"rental-service/internal/tenancy"
)

// OccupancyService drives the lease state machine:
// pending -> {active, cancelled}, active -> ended. No transition
// re-enters pending.
type OccupancyService struct {
	db    *gorm.DB
	audit AuditRecorder
}

// NewOccupancyService creates a new occupancy service
func NewOccupancyService(db *gorm.DB, audit AuditRecorder) *OccupancyService {
	return &OccupancyService{db: db, audit: audit}
}

// CreateOccupancyInput holds the fields for a new lease
type CreateOccupancyInput struct {
	ApartmentID     uint
	TenantID        uint
	LeaseStartDate  time.Time
	LeaseEndDate    time.Time
	MonthlyRent     decimal.Decimal
	SecurityDeposit *decimal.Decimal
	DepositPaid     bool
}

// Create records a new lease in pending state. The apartment's status is
// not touched: creation alone does not imply occupancy, and an apartment
// with an active lease may hold additional pending leases for later
// periods. Activation is where availability is decided.
func (s *OccupancyService) Create(ctx context.Context, scope tenancy.Context, input CreateOccupancyInput) (*model.Occupancy, error) {
	if input.LeaseEndDate.Before(input.LeaseStartDate) {
		return nil, fmt.Errorf("%w: lease end %s before lease start %s",
			apperr.ErrInvalidDateRange,
			input.LeaseEndDate.Format("2006-01-02"), input.LeaseStartDate.Format("2006-01-02"))
	}
	if !input.MonthlyRent.IsPositive() {
		return nil, fmt.Errorf("%w: monthly rent must be positive", apperr.ErrInvalidLineItem)
	}

	var occupancy model.Occupancy
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireActiveCompany(tx, scope); err != nil {
			return err
		}
		if _, err := findApartment(tx, scope, input.ApartmentID); err != nil {
			return err
		}
		if _, err := findTenant(tx, scope, input.TenantID); err != nil {
			return err
		}

		occupancy = model.Occupancy{
			CompanyID:       scope.CompanyID,
			ApartmentID:     input.ApartmentID,
			TenantID:        input.TenantID,
			LeaseStartDate:  input.LeaseStartDate,
			LeaseEndDate:    input.LeaseEndDate,
			MonthlyRent:     round2(input.MonthlyRent),
			SecurityDeposit: input.SecurityDeposit,
			DepositPaid:     input.DepositPaid,
			Status:          model.OccupancyPending,
		}
		return tx.Create(&occupancy).Error
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(AuditEvent{
		Entity: "occupancy", EntityID: occupancy.ID, Action: "create",
		CompanyID: scope.CompanyID, ActorID: scope.ActorID, After: occupancy.Status,
	})
	return &occupancy, nil
}

// Activate moves a pending lease to active and flips the apartment to
// occupied. The pre-check below is a fast path only; the authoritative
// guard against two concurrent activations is the partial unique index
// on (apartment_id) where status = 'active'.
func (s *OccupancyService) Activate(ctx context.Context, scope tenancy.Context, occupancyID uint, moveInDate time.Time) (*model.Occupancy, error) {
	var occupancy *model.Occupancy
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireActiveCompany(tx, scope); err != nil {
			return err
		}
		var err error
		occupancy, err = findOccupancy(tx, scope, occupancyID)
		if err != nil {
			return err
		}
		if occupancy.Status != model.OccupancyPending {
			return fmt.Errorf("%w: cannot activate occupancy in state %q", apperr.ErrInvalidTransition, occupancy.Status)
		}

		var activeCount int64
		if err := tx.Model(&model.Occupancy{}).
			Where("apartment_id = ? AND status = ? AND id <> ?", occupancy.ApartmentID, model.OccupancyActive, occupancy.ID).
			Count(&activeCount).Error; err != nil {
			return err
		}
		if activeCount > 0 {
			return fmt.Errorf("%w: apartment %d", apperr.ErrApartmentNotAvailable, occupancy.ApartmentID)
		}

		occupancy.Status = model.OccupancyActive
		occupancy.MoveInDate = &moveInDate
		if err := tx.Save(occupancy).Error; err != nil {
			return err
		}

		return tx.Model(&model.Apartment{}).
			Where("id = ?", occupancy.ApartmentID).
			Update("status", model.ApartmentOccupied).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Lost the race against a concurrent activation.
			return nil, fmt.Errorf("%w: occupancy %d", apperr.ErrApartmentNotAvailable, occupancyID)
		}
		return nil, err
	}

	s.audit.Record(AuditEvent{
		Entity: "occupancy", EntityID: occupancy.ID, Action: "activate",
		CompanyID: scope.CompanyID, ActorID: scope.ActorID,
		Before: model.OccupancyPending, After: model.OccupancyActive,
	})
	return occupancy, nil
}

// End moves an active lease to ended, which is terminal. The apartment
// flips back to available unless a different active lease exists for it;
// the at-most-one-active invariant makes that impossible, but it is
// verified rather than assumed.
func (s *OccupancyService) End(ctx context.Context, scope tenancy.Context, occupancyID uint, moveOutDate time.Time) (*model.Occupancy, error) {
	var occupancy *model.Occupancy
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireActiveCompany(tx, scope); err != nil {
			return err
		}
		var err error
		occupancy, err = findOccupancy(tx, scope, occupancyID)
		if err != nil {
			return err
		}
		if occupancy.Status != model.OccupancyActive {
			return fmt.Errorf("%w: cannot end occupancy in state %q", apperr.ErrInvalidTransition, occupancy.Status)
		}
		if moveOutDate.Before(occupancy.LeaseStartDate) {
			return fmt.Errorf("%w: move-out %s before lease start %s",
				apperr.ErrInvalidDateRange,
				moveOutDate.Format("2006-01-02"), occupancy.LeaseStartDate.Format("2006-01-02"))
		}

		occupancy.Status = model.OccupancyEnded
		occupancy.MoveOutDate = &moveOutDate
		if err := tx.Save(occupancy).Error; err != nil {
			return err
		}

		var activeCount int64
		if err := tx.Model(&model.Occupancy{}).
			Where("apartment_id = ? AND status = ? AND id <> ?", occupancy.ApartmentID, model.OccupancyActive, occupancy.ID).
			Count(&activeCount).Error; err != nil {
			return err
		}
		if activeCount == 0 {
			return tx.Model(&model.Apartment{}).
				Where("id = ?", occupancy.ApartmentID).
				Update("status", model.ApartmentAvailable).Error
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(AuditEvent{
		Entity: "occupancy", EntityID: occupancy.ID, Action: "end",
		CompanyID: scope.CompanyID, ActorID: scope.ActorID,
		Before: model.OccupancyActive, After: model.OccupancyEnded,
	})
	return occupancy, nil
}

// Cancel voids a lease before activation. Terminal.
func (s *OccupancyService) Cancel(ctx context.Context, scope tenancy.Context, occupancyID uint) (*model.Occupancy, error) {
	var occupancy *model.Occupancy
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireActiveCompany(tx, scope); err != nil {
			return err
		}
		var err error
		occupancy, err = findOccupancy(tx, scope, occupancyID)
		if err != nil {
			return err
		}
		if occupancy.Status != model.OccupancyPending {
			return fmt.Errorf("%w: cannot cancel occupancy in state %q", apperr.ErrInvalidTransition, occupancy.Status)
		}
		occupancy.Status = model.OccupancyCancelled
		return tx.Save(occupancy).Error
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(AuditEvent{
		Entity: "occupancy", EntityID: occupancy.ID, Action: "cancel",
		CompanyID: scope.CompanyID, ActorID: scope.ActorID,
		Before: model.OccupancyPending, After: model.OccupancyCancelled,
	})
	return occupancy, nil
}

// ListActiveExpiring returns active leases whose end date falls within
// [now, now + withinDays], ordered by end date. Consumed by the reminder
// collaborator; a finite, restartable read, not a subscription.
func (s *OccupancyService) ListActiveExpiring(ctx context.Context, scope tenancy.Context, withinDays int) ([]model.Occupancy, error) {
	now := time.Now()
	until := now.AddDate(0, 0, withinDays)

	var occupancies []model.Occupancy
	err := tenancy.Scoped(s.db.WithContext(ctx), scope).
		Where("status = ? AND lease_end_date >= ? AND lease_end_date <= ?", model.OccupancyActive, now, until).
		Order("lease_end_date asc").
		Find(&occupancies).Error
	if err != nil {
		return nil, err
	}
	return occupancies, nil
}

// Get returns a single lease in company scope
func (s *OccupancyService) Get(ctx context.Context, scope tenancy.Context, occupancyID uint) (*model.Occupancy, error) {
	return findOccupancy(s.db.WithContext(ctx), scope, occupancyID)
}
