package billing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rental-service/internal/model"
)

func TestDispatchGenerateMonthlyJob(t *testing.T) {
	f := newFixture(t)
	f.activeOccupancy(t, "1500.00", date(2024, 1, 1), date(2024, 12, 31))
	dispatcher := NewJobDispatcher(NewInvoiceService(f.db, nopAudit{}))

	result, err := dispatcher.Dispatch(context.Background(), GenerateMonthlyJob{
		CompanyID:    f.company.ID,
		ActorID:      1,
		Month:        "2024-01",
		DueDay:       5,
		SkipExisting: true,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Created)
	assert.Equal(t, "2024-01", result.Period)
}

func TestDispatchGenerateSingleJob(t *testing.T) {
	f := newFixture(t)
	occupancy := f.activeOccupancy(t, "1500.00", date(2024, 1, 1), date(2024, 12, 31))
	dispatcher := NewJobDispatcher(NewInvoiceService(f.db, nopAudit{}))

	result, err := dispatcher.Dispatch(context.Background(), GenerateSingleJob{
		CompanyID:   f.company.ID,
		ActorID:     1,
		OccupancyID: occupancy.ID,
		Month:       "2024-01",
		DueDay:      5,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Processed)
	assert.Equal(t, 1, result.Created)

	var invoice model.Invoice
	require.NoError(t, f.db.First(&invoice, result.CreatedInvoiceIDs[0]).Error)
	assert.Equal(t, occupancy.ID, invoice.OccupancyID)
}

type unknownJob struct{}

func (unknownJob) jobName() string { return "unknown" }

func TestDispatchRejectsUnknownJob(t *testing.T) {
	f := newFixture(t)
	dispatcher := NewJobDispatcher(NewInvoiceService(f.db, nopAudit{}))

	_, err := dispatcher.Dispatch(context.Background(), unknownJob{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unhandled job type")
}
