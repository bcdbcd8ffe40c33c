package billing

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"rental-service/internal/model"
	"rental-service/internal/tenancy"
	"rental-service/pkg/database"
)

// nopAudit drops audit events in tests
type nopAudit struct{}

func (nopAudit) Record(AuditEvent) {}

// captureAudit records audit events for assertion
type captureAudit struct {
	events []AuditEvent
}

func (c *captureAudit) Record(event AuditEvent) {
	c.events = append(c.events, event)
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	// A named shared-cache database so concurrent goroutines in one test
	// see the same data. MaxOpenConns(1) keeps sqlite's locking out of
	// the picture; transaction interleaving is still exercised.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(db))
	return db
}

type fixture struct {
	db        *gorm.DB
	scope     tenancy.Context
	company   model.Company
	compound  model.Compound
	apartment model.Apartment
	tenant    model.Tenant
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := setupTestDB(t)

	company := model.Company{Name: "Acme Estates " + t.Name(), Currency: "USD", IsActive: true}
	require.NoError(t, db.Create(&company).Error)

	compound := model.Compound{CompanyID: company.ID, Name: "North Tower"}
	require.NoError(t, db.Create(&compound).Error)

	apartment := model.Apartment{
		CompanyID:  company.ID,
		CompoundID: compound.ID,
		UnitNumber: "A-101",
		Status:     model.ApartmentAvailable,
	}
	require.NoError(t, db.Create(&apartment).Error)

	tenant := model.Tenant{
		CompanyID: company.ID,
		FirstName: "Nadia",
		LastName:  "Hassan",
		Status:    model.TenantActive,
	}
	require.NoError(t, db.Create(&tenant).Error)

	return &fixture{
		db:        db,
		scope:     tenancy.Context{CompanyID: company.ID, ActorID: 1},
		company:   company,
		compound:  compound,
		apartment: apartment,
		tenant:    tenant,
	}
}

// otherCompany seeds a second company with one apartment and tenant,
// for cross-tenant assertions
func (f *fixture) otherCompany(t *testing.T) (tenancy.Context, model.Apartment, model.Tenant) {
	t.Helper()

	company := model.Company{Name: "Rival Homes " + t.Name(), Currency: "EUR", IsActive: true}
	require.NoError(t, f.db.Create(&company).Error)

	compound := model.Compound{CompanyID: company.ID, Name: "South Block"}
	require.NoError(t, f.db.Create(&compound).Error)

	apartment := model.Apartment{
		CompanyID:  company.ID,
		CompoundID: compound.ID,
		UnitNumber: "B-201",
		Status:     model.ApartmentAvailable,
	}
	require.NoError(t, f.db.Create(&apartment).Error)

	tenant := model.Tenant{
		CompanyID: company.ID,
		FirstName: "Omar",
		LastName:  "Farouk",
		Status:    model.TenantActive,
	}
	require.NoError(t, f.db.Create(&tenant).Error)

	return tenancy.Context{CompanyID: company.ID, ActorID: 2}, apartment, tenant
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// activeOccupancy creates and activates a lease on the fixture apartment
func (f *fixture) activeOccupancy(t *testing.T, rent string, start, end time.Time) *model.Occupancy {
	t.Helper()
	svc := NewOccupancyService(f.db, nopAudit{})

	occupancy, err := svc.Create(context.Background(), f.scope, CreateOccupancyInput{
		ApartmentID:    f.apartment.ID,
		TenantID:       f.tenant.ID,
		LeaseStartDate: start,
		LeaseEndDate:   end,
		MonthlyRent:    money(rent),
	})
	require.NoError(t, err)

	occupancy, err = svc.Activate(context.Background(), f.scope, occupancy.ID, start)
	require.NoError(t, err)
	return occupancy
}
