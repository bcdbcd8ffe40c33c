package billing

import (
	"context"
	"fmt"

	"rental-service/internal/tenancy"
)

// Job is the closed set of billing jobs the queue collaborator carries.
// Each variant owns its validated payload; there is no string-keyed
// payload switch and no silent fallback for unknown kinds.
type Job interface {
	jobName() string
}

// GenerateMonthlyJob asks for a full bulk run over a billing month
type GenerateMonthlyJob struct {
	CompanyID    uint   `json:"company_id"`
	ActorID      uint   `json:"actor_id"`
	Month        string `json:"month"`
	DueDay       int    `json:"due_day"`
	SkipExisting bool   `json:"skip_existing"`
}

func (GenerateMonthlyJob) jobName() string { return "generate_monthly" }

// GenerateSingleJob asks for one occupancy's invoice for a billing month
type GenerateSingleJob struct {
	CompanyID   uint   `json:"company_id"`
	ActorID     uint   `json:"actor_id"`
	OccupancyID uint   `json:"occupancy_id"`
	Month       string `json:"month"`
	DueDay      int    `json:"due_day"`
}

func (GenerateSingleJob) jobName() string { return "generate_single" }

// JobDispatcher executes billing jobs pulled off the queue
type JobDispatcher struct {
	invoices *InvoiceService
}

// NewJobDispatcher creates a dispatcher over the invoice engine
func NewJobDispatcher(invoices *InvoiceService) *JobDispatcher {
	return &JobDispatcher{invoices: invoices}
}

// Dispatch runs one job and returns its generation summary. The type
// switch is exhaustive over the Job variants; anything else is a
// programming error and is reported, not swallowed.
func (d *JobDispatcher) Dispatch(ctx context.Context, job Job) (*GenerationResult, error) {
	switch j := job.(type) {
	case GenerateMonthlyJob:
		scope := tenancy.Context{CompanyID: j.CompanyID, ActorID: j.ActorID}
		return d.invoices.GenerateMonthly(ctx, scope, GenerateMonthlyInput{
			Month:        j.Month,
			DueDay:       j.DueDay,
			SkipExisting: j.SkipExisting,
		})
	case GenerateSingleJob:
		scope := tenancy.Context{CompanyID: j.CompanyID, ActorID: j.ActorID}
		return d.invoices.GenerateMonthly(ctx, scope, GenerateMonthlyInput{
			Month:        j.Month,
			DueDay:       j.DueDay,
			OccupancyIDs: []uint{j.OccupancyID},
			SkipExisting: false,
		})
	default:
		return nil, fmt.Errorf("unhandled job type %T", job)
	}
}
