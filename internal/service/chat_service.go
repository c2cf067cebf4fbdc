package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mesworup/Pneumonia-Detection-CNN/internal/domain"
	"github.com/mesworup/Pneumonia-Detection-CNN/internal/domain/report"
	"github.com/mesworup/Pneumonia-Detection-CNN/internal/platform/dialogue"
)

type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type ChatRequest struct {
	Message  string
	ReportID *uuid.UUID
	Language string
}

type ChatService struct {
	reports   report.Repository
	users     UserRepository
	generator Generator
	log       *zap.Logger
}

func NewChatService(reports report.Repository, users UserRepository, generator Generator, log *zap.Logger) *ChatService {
	return &ChatService{reports: reports, users: users, generator: generator, log: log}
}

// Reply answers a health question, grounded in a report when one is named.
// Patients may only ground on their own reports; anything else is not found.
func (s *ChatService) Reply(ctx context.Context, actor domain.Actor, req ChatRequest) (string, error) {
	if strings.TrimSpace(req.Message) == "" {
		return "", &ValidationError{Fields: []string{"Message is required"}}
	}

	var rc *dialogue.ReportContext
	if req.ReportID != nil {
		var err error
		if rc, err = s.reportContext(ctx, actor, *req.ReportID); err != nil {
			return "", err
		}
	}

	lang := dialogue.ParseLanguage(req.Language)
	s.log.Info("chat request",
		zap.String("user_id", actor.ID.String()),
		zap.Bool("report_grounded", rc != nil),
		zap.String("language", string(lang)),
	)

	return s.generator.Generate(ctx, dialogue.BuildPrompt(req.Message, rc, lang))
}

func (s *ChatService) reportContext(ctx context.Context, actor domain.Actor, id uuid.UUID) (*dialogue.ReportContext, error) {
	rep, err := s.reports.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.Role == domain.RolePatient && rep.PatientID != actor.ID {
		return nil, report.ErrReportNotFound
	}

	rc := &dialogue.ReportContext{
		Prediction: string(rep.Prediction),
		Confidence: rep.Confidence,
		Notes:      rep.Notes,
		DoctorName: domain.UnknownName,
		Date:       rep.CreatedAt,
	}
	doctor, err := s.users.GetByID(ctx, rep.DoctorID)
	switch {
	case err == nil:
		rc.DoctorName = doctor.Name
	case !errors.Is(err, domain.ErrUserNotFound):
		return nil, err
	}
	return rc, nil
}
