package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/mesworup/Pneumonia-Detection-CNN/internal/domain"
	"github.com/mesworup/Pneumonia-Detection-CNN/internal/domain/report"
	"github.com/mesworup/Pneumonia-Detection-CNN/internal/platform/inference"
	"github.com/mesworup/Pneumonia-Detection-CNN/internal/platform/storage"
	"github.com/mesworup/Pneumonia-Detection-CNN/pkg/metrics"
)

type Predictor interface {
	Predict(ctx context.Context, filename string, image []byte) (*inference.Result, error)
}

// Upload is an image received from a doctor for analysis.
type Upload struct {
	Filename string
	Data     []byte
}

var allowedImageTypes = map[string][]string{
	"image/jpeg": {".jpg", ".jpeg"},
	"image/png":  {".png"},
}

type ReportService struct {
	reports       report.Repository
	users         UserRepository
	notifications *NotificationService
	predictor     Predictor
	store         storage.Store
	auditSvc      *AuditService
	metrics       *metrics.Collector
	maxUpload     int64
	log           *zap.Logger
}

func NewReportService(
	reports report.Repository,
	users UserRepository,
	notifications *NotificationService,
	predictor Predictor,
	store storage.Store,
	auditSvc *AuditService,
	m *metrics.Collector,
	maxUpload int64,
	log *zap.Logger,
) *ReportService {
	return &ReportService{
		reports:       reports,
		users:         users,
		notifications: notifications,
		predictor:     predictor,
		store:         store,
		auditSvc:      auditSvc,
		metrics:       m,
		maxUpload:     maxUpload,
		log:           log,
	}
}

// Analyze stores the image and asks the inference service for a verdict.
// Nothing about the report is persisted; the doctor finalizes via Create.
func (s *ReportService) Analyze(ctx context.Context, actor domain.Actor, up Upload) (*report.Analysis, error) {
	if len(up.Data) == 0 {
		return nil, report.ErrImageRequired
	}
	if s.maxUpload > 0 && int64(len(up.Data)) > s.maxUpload {
		return nil, report.ErrImageTooLarge
	}

	mt, err := sniffImage(up)
	if err != nil {
		return nil, err
	}

	imageURL, err := s.store.Save(ctx, up.Data, mt.Extension(), mt.String())
	if err != nil {
		s.log.Error("failed to store upload", zap.Error(err))
		return nil, fmt.Errorf("storing image: %w", err)
	}

	res, err := s.predictor.Predict(ctx, filepath.Base(up.Filename), up.Data)
	if err != nil {
		return nil, err
	}

	analysis := report.NewAnalysis(report.GateResult{
		IsXray:          res.IsXray,
		XrayConfidence:  res.XrayConfidence,
		Classification:  res.Classification,
		ClassConfidence: res.ClassConfidence,
		Heatmap:         res.Heatmap,
		Message:         res.Message,
	}, imageURL)

	s.log.Info("x-ray analyzed",
		zap.String("doctor_id", actor.ID.String()),
		zap.Bool("is_xray", analysis.IsXray),
		zap.String("prediction", string(analysis.Prediction)),
		zap.Float64("confidence", analysis.Confidence),
		zap.String("image_url", imageURL),
	)
	return analysis, nil
}

// sniffImage requires both the declared extension and the content to be jpeg or png.
func sniffImage(up Upload) (*mimetype.MIME, error) {
	ext := strings.ToLower(filepath.Ext(up.Filename))
	mt := mimetype.Detect(up.Data)
	for base := mt; base != nil; base = base.Parent() {
		if exts, ok := allowedImageTypes[base.String()]; ok && lo.Contains(exts, ext) {
			return base, nil
		}
	}
	return nil, report.ErrUnsupportedImage
}

// Create finalizes a report, then tells the patient. The notification is
// best-effort: its failure is logged and never undoes the report.
func (s *ReportService) Create(ctx context.Context, actor domain.Actor, cmd report.CreateReportCommand) (*report.View, error) {
	if err := validateCreateReport(cmd); err != nil {
		return nil, err
	}

	patient, err := s.users.GetByID(ctx, cmd.PatientID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, report.ErrPatientNotFound
		}
		return nil, err
	}
	if patient.Role != domain.RolePatient {
		return nil, report.ErrPatientNotFound
	}

	rep := &report.Report{
		PatientID:  cmd.PatientID,
		DoctorID:   actor.ID,
		ImageURL:   cmd.ImageURL,
		Prediction: cmd.Prediction,
		Confidence: cmd.Confidence,
		Notes:      cmd.Notes,
		Heatmap:    cmd.Heatmap,
	}
	if err := s.reports.Create(ctx, rep); err != nil {
		s.log.Error("failed to create report", zap.Error(err))
		return nil, fmt.Errorf("creating report: %w", err)
	}

	if s.metrics != nil {
		s.metrics.ReportsCreatedTotal.WithLabelValues(string(rep.Prediction)).Inc()
	}
	s.auditSvc.LogAsync(ctx, auditEntry(actor, domain.ActionCreate, "report", rep.ID.String()))

	if !s.notifications.NotifyReportAssigned(ctx, rep, actor) {
		s.log.Warn("report saved without patient notification",
			zap.String("report_id", rep.ID.String()),
			zap.String("patient_id", rep.PatientID.String()),
		)
	}

	return newView(rep, patient, &domain.User{ID: actor.ID, Name: actor.Name}, true), nil
}

// ListMine returns the caller's own reports, newest first.
func (s *ReportService) ListMine(ctx context.Context, actor domain.Actor) ([]*report.View, error) {
	reps, err := s.reports.ListByPatient(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("listing reports: %w", err)
	}
	return s.views(ctx, reps, false)
}

// ListForPatient returns a patient's reports for the doctor view.
func (s *ReportService) ListForPatient(ctx context.Context, patientID uuid.UUID) ([]*report.View, error) {
	reps, err := s.reports.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("listing reports: %w", err)
	}
	return s.views(ctx, reps, true)
}

// ListPatients returns every patient with a status derived from their current
// report count.
func (s *ReportService) ListPatients(ctx context.Context) ([]*report.PatientSummary, error) {
	patients, err := s.users.ListByRole(ctx, domain.RolePatient)
	if err != nil {
		return nil, err
	}

	counts, err := s.reports.CountByPatients(ctx, lo.Map(patients, func(p *domain.User, _ int) uuid.UUID { return p.ID }))
	if err != nil {
		return nil, fmt.Errorf("counting reports: %w", err)
	}

	return lo.Map(patients, func(p *domain.User, _ int) *report.PatientSummary {
		n := counts[p.ID]
		return &report.PatientSummary{
			ID:          p.ID,
			Name:        p.Name,
			Email:       p.Email,
			CreatedAt:   p.CreatedAt,
			ReportCount: n,
			Status:      report.StatusFor(n),
		}
	}), nil
}

// Update rewrites the notes of a report the caller created. Empty notes leave
// the existing text in place.
func (s *ReportService) Update(ctx context.Context, actor domain.Actor, id uuid.UUID, cmd report.UpdateReportCommand) (*report.View, error) {
	rep, err := s.ownedReport(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(cmd.Notes) != "" {
		rep, err = s.reports.UpdateNotes(ctx, id, cmd.Notes)
		if err != nil {
			return nil, err
		}
		s.auditSvc.LogAsync(ctx, auditEntry(actor, domain.ActionUpdate, "report", id.String()))
	}

	views, err := s.views(ctx, []*report.Report{rep}, true)
	if err != nil {
		return nil, err
	}
	return views[0], nil
}

// Delete removes a report the caller created. The patient's status is derived,
// so removing their last report returns them to PENDING with no extra write.
func (s *ReportService) Delete(ctx context.Context, actor domain.Actor, id uuid.UUID) error {
	if _, err := s.ownedReport(ctx, actor, id); err != nil {
		return err
	}
	if err := s.reports.Delete(ctx, id); err != nil {
		return err
	}

	if s.metrics != nil {
		s.metrics.ReportsDeletedTotal.Inc()
	}
	s.auditSvc.LogAsync(ctx, auditEntry(actor, domain.ActionDelete, "report", id.String()))
	s.log.Info("report deleted", zap.String("report_id", id.String()), zap.String("doctor_id", actor.ID.String()))
	return nil
}

func (s *ReportService) ownedReport(ctx context.Context, actor domain.Actor, id uuid.UUID) (*report.Report, error) {
	rep, err := s.reports.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !rep.OwnedBy(actor.ID) {
		s.log.Warn("report mutation by non-owner",
			zap.String("report_id", id.String()),
			zap.String("caller_id", actor.ID.String()),
		)
		return nil, report.ErrNotReportOwner
	}
	return rep, nil
}

// views resolves doctor (and optionally patient) names in one lookup.
func (s *ReportService) views(ctx context.Context, reps []*report.Report, withPatient bool) ([]*report.View, error) {
	ids := make([]uuid.UUID, 0, len(reps)*2)
	for _, r := range reps {
		ids = append(ids, r.DoctorID)
		if withPatient {
			ids = append(ids, r.PatientID)
		}
	}

	users, err := s.users.GetByIDs(ctx, lo.Uniq(ids))
	if err != nil {
		return nil, fmt.Errorf("resolving report participants: %w", err)
	}

	return lo.Map(reps, func(r *report.Report, _ int) *report.View {
		return newView(r, users[r.PatientID], users[r.DoctorID], withPatient)
	}), nil
}

func newView(r *report.Report, patient, doctor *domain.User, withPatient bool) *report.View {
	v := &report.View{
		ID:         r.ID,
		PatientID:  r.PatientID,
		DoctorID:   r.DoctorID,
		DoctorName: domain.UnknownName,
		ImageURL:   r.ImageURL,
		Prediction: r.Prediction,
		Confidence: r.Confidence,
		Notes:      r.Notes,
		Heatmap:    r.Heatmap,
		CreatedAt:  r.CreatedAt,
	}
	if doctor != nil {
		v.DoctorName = doctor.Name
	}
	if withPatient {
		v.PatientName = domain.UnknownName
		if patient != nil {
			v.PatientName = patient.Name
			v.PatientEmail = patient.Email
		}
	}
	return v
}

func validateCreateReport(cmd report.CreateReportCommand) error {
	if cmd.PatientID == uuid.Nil || cmd.Prediction == "" || strings.TrimSpace(cmd.ImageURL) == "" {
		return report.ErrMissingReportField
	}
	if !cmd.Prediction.IsValid() {
		return report.ErrInvalidPrediction
	}
	if cmd.Confidence < 0 || cmd.Confidence > 1 {
		return report.ErrInvalidConfidence
	}
	return nil
}
