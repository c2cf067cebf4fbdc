package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mesworup/Pneumonia-Detection-CNN/internal/domain/report"
)

type ReportRepository struct {
	db *gorm.DB
}

func NewReportRepository(db *gorm.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

func (r *ReportRepository) Create(ctx context.Context, rep *report.Report) error {
	if err := r.db.WithContext(ctx).Create(rep).Error; err != nil {
		return fmt.Errorf("inserting report: %w", err)
	}
	return nil
}

func (r *ReportRepository) GetByID(ctx context.Context, id uuid.UUID) (*report.Report, error) {
	var rep report.Report
	err := r.db.WithContext(ctx).First(&rep, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, report.ErrReportNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading report: %w", err)
	}
	return &rep, nil
}

func (r *ReportRepository) UpdateNotes(ctx context.Context, id uuid.UUID, notes string) (*report.Report, error) {
	res := r.db.WithContext(ctx).Model(&report.Report{}).Where("id = ?", id).UpdateColumn("notes", notes)
	if res.Error != nil {
		return nil, fmt.Errorf("updating report notes: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, report.ErrReportNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *ReportRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&report.Report{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("deleting report: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return report.ErrReportNotFound
	}
	return nil
}

func (r *ReportRepository) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*report.Report, error) {
	var reports []*report.Report
	err := r.db.WithContext(ctx).
		Where("patient_id = ?", patientID).
		Order("created_at DESC").
		Find(&reports).Error
	if err != nil {
		return nil, fmt.Errorf("listing reports: %w", err)
	}
	return reports, nil
}

func (r *ReportRepository) CountByPatients(ctx context.Context, patientIDs []uuid.UUID) (map[uuid.UUID]int64, error) {
	out := make(map[uuid.UUID]int64, len(patientIDs))
	if len(patientIDs) == 0 {
		return out, nil
	}

	var rows []struct {
		PatientID uuid.UUID
		Total     int64
	}
	err := r.db.WithContext(ctx).
		Model(&report.Report{}).
		Select("patient_id, COUNT(*) AS total").
		Where("patient_id IN ?", patientIDs).
		Group("patient_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("counting reports: %w", err)
	}

	for _, row := range rows {
		out[row.PatientID] = row.Total
	}
	return out, nil
}
