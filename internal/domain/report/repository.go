package report

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	// Create persists a finalized report.
	Create(ctx context.Context, r *Report) error

	// GetByID returns ErrReportNotFound if absent.
	GetByID(ctx context.Context, id uuid.UUID) (*Report, error)

	// UpdateNotes rewrites the notes column only; every other field is immutable.
	UpdateNotes(ctx context.Context, id uuid.UUID, notes string) (*Report, error)

	Delete(ctx context.Context, id uuid.UUID) error

	// ListByPatient returns the patient's reports, newest first.
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Report, error)

	// CountByPatients returns report counts keyed by patient id. Patients with
	// no reports are absent from the map.
	CountByPatients(ctx context.Context, patientIDs []uuid.UUID) (map[uuid.UUID]int64, error)
}
