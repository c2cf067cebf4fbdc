package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/mesworup/Pneumonia-Detection-CNN/internal/domain"
	"github.com/mesworup/Pneumonia-Detection-CNN/internal/domain/notification"
	"github.com/mesworup/Pneumonia-Detection-CNN/internal/domain/report"
	"github.com/mesworup/Pneumonia-Detection-CNN/pkg/metrics"
)

// NotificationService owns both the inbox operations and the workflow
// emitters. Emitters never fail the triggering request: delivery errors are
// logged and counted.
type NotificationService struct {
	repo    notification.Repository
	metrics *metrics.Collector
	log     *zap.Logger
}

func NewNotificationService(repo notification.Repository, m *metrics.Collector, log *zap.Logger) *NotificationService {
	return &NotificationService{repo: repo, metrics: m, log: log}
}

func (s *NotificationService) List(ctx context.Context, q notification.ListQuery) (*notification.Page, error) {
	q.Normalize()
	items, total, err := s.repo.ListByUser(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("listing notifications: %w", err)
	}
	return notification.NewPage(items, q, total), nil
}

func (s *NotificationService) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	n, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("counting unread notifications: %w", err)
	}
	return n, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, id, userID uuid.UUID) (*notification.Notification, error) {
	return s.repo.MarkRead(ctx, id, userID)
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	n, err := s.repo.MarkAllRead(ctx, userID)
	if err != nil {
		return fmt.Errorf("marking notifications read: %w", err)
	}
	s.log.Debug("notifications marked read", zap.String("user_id", userID.String()), zap.Int64("count", n))
	return nil
}

// NotifyPatientRegistered addresses one notification to every doctor and
// returns how many were stored.
func (s *NotificationService) NotifyPatientRegistered(ctx context.Context, patient *domain.User, doctors []*domain.User) int {
	if len(doctors) == 0 {
		return 0
	}

	batch := lo.Map(doctors, func(d *domain.User, _ int) *notification.Notification {
		return &notification.Notification{
			UserID:  d.ID,
			Message: "A new patient has registered: " + patient.Name,
			Type:    notification.TypePatientRegistered,
			Metadata: datatypes.JSONMap{
				"patientId":    patient.ID.String(),
				"patientName":  patient.Name,
				"patientEmail": patient.Email,
			},
		}
	})

	err := s.repo.CreateBatch(ctx, batch)
	if err == nil {
		s.created(notification.TypePatientRegistered, len(batch))
		return len(batch)
	}
	s.log.Warn("batch fan-out failed, retrying per recipient",
		zap.String("patient_id", patient.ID.String()),
		zap.Error(err),
	)

	delivered := 0
	for _, n := range batch {
		// a fresh row per attempt; the failed batch may have assigned ids
		n.ID = uuid.Nil
		if err := s.repo.Create(ctx, n); err != nil {
			s.failed(notification.TypePatientRegistered, n.UserID, err)
			continue
		}
		delivered++
	}
	s.created(notification.TypePatientRegistered, delivered)
	return delivered
}

// NotifyReportAssigned tells the patient a doctor has finalized a report.
func (s *NotificationService) NotifyReportAssigned(ctx context.Context, rep *report.Report, doctor domain.Actor) bool {
	n := &notification.Notification{
		UserID:  rep.PatientID,
		Message: "A new medical report has been assigned to you",
		Type:    notification.TypeReportAssigned,
		Metadata: datatypes.JSONMap{
			"reportId":   rep.ID.String(),
			"doctorId":   doctor.ID.String(),
			"doctorName": doctor.Name,
		},
	}
	if err := s.repo.Create(ctx, n); err != nil {
		s.failed(notification.TypeReportAssigned, rep.PatientID, err)
		return false
	}
	s.created(notification.TypeReportAssigned, 1)
	return true
}

func (s *NotificationService) created(t notification.Type, n int) {
	if s.metrics != nil && n > 0 {
		s.metrics.NotificationsCreatedTotal.WithLabelValues(string(t)).Add(float64(n))
	}
}

func (s *NotificationService) failed(t notification.Type, recipient uuid.UUID, err error) {
	if s.metrics != nil {
		s.metrics.NotificationsFailedTotal.WithLabelValues(string(t)).Inc()
	}
	s.log.Error("failed to deliver notification",
		zap.String("type", string(t)),
		zap.String("recipient_id", recipient.String()),
		zap.Error(err),
	)
}
