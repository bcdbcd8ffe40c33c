package billing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rental-service/internal/apperr"
	"rental-service/internal/model"
)

func TestCreateCompoundAndApartment(t *testing.T) {
	f := newFixture(t)
	svc := NewPropertyService(f.db, nopAudit{})
	ctx := context.Background()

	compound, err := svc.CreateCompound(ctx, f.scope, "South Tower", "12 Harbor Rd")
	require.NoError(t, err)
	assert.Equal(t, f.company.ID, compound.CompanyID)

	apartment, err := svc.CreateApartment(ctx, f.scope, CreateApartmentInput{
		CompoundID: compound.ID,
		UnitNumber: "S-204",
		Floor:      2,
		Bedrooms:   3,
	})
	require.NoError(t, err)
	assert.Equal(t, model.ApartmentAvailable, apartment.Status)
	assert.Equal(t, compound.ID, apartment.CompoundID)
}

func TestCreateApartmentCrossTenantCompound(t *testing.T) {
	f := newFixture(t)
	otherScope, _, _ := f.otherCompany(t)
	svc := NewPropertyService(f.db, nopAudit{})

	// The foreign scope names our compound's ID.
	_, err := svc.CreateApartment(context.Background(), otherScope, CreateApartmentInput{
		CompoundID: f.compound.ID,
		UnitNumber: "X-1",
	})
	assert.ErrorIs(t, err, apperr.ErrCrossTenantAccess)
}

func TestSetApartmentStatus(t *testing.T) {
	f := newFixture(t)
	svc := NewPropertyService(f.db, nopAudit{})
	ctx := context.Background()

	apartment, err := svc.SetApartmentStatus(ctx, f.scope, f.apartment.ID, model.ApartmentMaintenance)
	require.NoError(t, err)
	assert.Equal(t, model.ApartmentMaintenance, apartment.Status)

	// Occupied is owned by the occupancy lifecycle.
	_, err = svc.SetApartmentStatus(ctx, f.scope, f.apartment.ID, model.ApartmentOccupied)
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
}

func TestSetApartmentStatusBlockedWhileOccupied(t *testing.T) {
	f := newFixture(t)
	f.activeOccupancy(t, "1500.00", date(2024, 1, 1), date(2024, 12, 31))
	svc := NewPropertyService(f.db, nopAudit{})

	_, err := svc.SetApartmentStatus(context.Background(), f.scope, f.apartment.ID, model.ApartmentMaintenance)
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
}

func TestDeleteApartmentBlockedWhileOccupied(t *testing.T) {
	f := newFixture(t)
	f.activeOccupancy(t, "1500.00", date(2024, 1, 1), date(2024, 12, 31))
	svc := NewPropertyService(f.db, nopAudit{})

	err := svc.DeleteApartment(context.Background(), f.scope, f.apartment.ID)
	assert.ErrorIs(t, err, apperr.ErrApartmentNotAvailable)
}

func TestDeleteAndRestoreApartment(t *testing.T) {
	f := newFixture(t)
	svc := NewPropertyService(f.db, nopAudit{})
	ctx := context.Background()

	require.NoError(t, svc.DeleteApartment(ctx, f.scope, f.apartment.ID))

	// Soft-deleted rows disappear from scoped reads.
	apartments, err := svc.ListApartments(ctx, f.scope, 0)
	require.NoError(t, err)
	assert.Empty(t, apartments)

	var count int64
	require.NoError(t, f.db.Unscoped().Model(&model.Apartment{}).
		Where("id = ? AND deleted_at IS NOT NULL", f.apartment.ID).
		Count(&count).Error)
	assert.Equal(t, int64(1), count)

	restored, err := svc.RestoreApartment(ctx, f.scope, f.apartment.ID)
	require.NoError(t, err)
	assert.Equal(t, f.apartment.ID, restored.ID)

	apartments, err = svc.ListApartments(ctx, f.scope, 0)
	require.NoError(t, err)
	assert.Len(t, apartments, 1)
}

func TestRestoreApartmentCrossTenant(t *testing.T) {
	f := newFixture(t)
	otherScope, _, _ := f.otherCompany(t)
	svc := NewPropertyService(f.db, nopAudit{})

	_, err := svc.RestoreApartment(context.Background(), otherScope, f.apartment.ID)
	assert.ErrorIs(t, err, apperr.ErrCrossTenantAccess)
}

func TestCreateTenantAndSetStatus(t *testing.T) {
	f := newFixture(t)
	svc := NewPropertyService(f.db, nopAudit{})
	ctx := context.Background()

	tenant, err := svc.CreateTenant(ctx, f.scope, CreateTenantInput{
		FirstName: "Omar",
		LastName:  "Farouk",
		Email:     "omar@example.com",
		Phone:     "+20100000000",
	})
	require.NoError(t, err)
	assert.Equal(t, model.TenantActive, tenant.Status)

	tenant, err = svc.SetTenantStatus(ctx, f.scope, tenant.ID, model.TenantInactive)
	require.NoError(t, err)
	assert.Equal(t, model.TenantInactive, tenant.Status)

	_, err = svc.SetTenantStatus(ctx, f.scope, tenant.ID, "suspended")
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
}

func TestListApartmentsFiltersByCompound(t *testing.T) {
	f := newFixture(t)
	svc := NewPropertyService(f.db, nopAudit{})
	ctx := context.Background()

	other, err := svc.CreateCompound(ctx, f.scope, "East Wing", "")
	require.NoError(t, err)
	_, err = svc.CreateApartment(ctx, f.scope, CreateApartmentInput{
		CompoundID: other.ID, UnitNumber: "E-1",
	})
	require.NoError(t, err)

	all, err := svc.ListApartments(ctx, f.scope, 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	east, err := svc.ListApartments(ctx, f.scope, other.ID)
	require.NoError(t, err)
	require.Len(t, east, 1)
	assert.Equal(t, "E-1", east[0].UnitNumber)
}

func TestPropertyWritesBlockedWhenCompanyInactive(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.db.Model(&model.Company{}).
		Where("id = ?", f.company.ID).
		Update("is_active", false).Error)
	svc := NewPropertyService(f.db, nopAudit{})

	_, err := svc.CreateCompound(context.Background(), f.scope, "West Wing", "")
	assert.ErrorIs(t, err, apperr.ErrCompanyInactive)
}
