package adapters

import (
	"context"

	"floodrelief/internal/admin/types"
	recordModels "floodrelief/internal/records/models"
)

// RecordCounter is implemented by the records service.
type RecordCounter interface {
	Counts(ctx context.Context) (recordModels.Counts, error)
}

// RecordsAdapter adapts the records service to admin's record counter.
type RecordsAdapter struct {
	records RecordCounter
}

func NewRecordsAdapter(records RecordCounter) *RecordsAdapter {
	return &RecordsAdapter{records: records}
}

func (a *RecordsAdapter) Counts(ctx context.Context) (types.RecordCounts, error) {
	c, err := a.records.Counts(ctx)
	if err != nil {
		return types.RecordCounts{}, err
	}
	return types.RecordCounts{
		Donations:    c.Donations,
		Items:        c.Items,
		HelpRequests: c.HelpRequests,
		Pets:         c.Pets,
	}, nil
}
