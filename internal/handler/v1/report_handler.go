package v1

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mesworup/Pneumonia-Detection-CNN/internal/domain/report"
	"github.com/mesworup/Pneumonia-Detection-CNN/internal/service"
)

// multipartOverhead covers boundaries and headers around the image part.
const multipartOverhead = 1 << 20

type ReportHandler struct {
	svc       *service.ReportService
	maxUpload int64
}

func NewReportHandler(svc *service.ReportService, maxUpload int64) *ReportHandler {
	return &ReportHandler{svc: svc, maxUpload: maxUpload}
}

type createReportRequest struct {
	PatientID  string            `json:"patientId"`
	Prediction report.Prediction `json:"prediction"`
	Confidence float64           `json:"confidence"`
	ImageURL   string            `json:"imageUrl"`
	Notes      string            `json:"notes"`
	Heatmap    string            `json:"heatmap"`
}

type updateReportRequest struct {
	Notes string `json:"notes"`
}

func (h *ReportHandler) Analyze(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload+multipartOverhead)

	fh, err := c.FormFile("image")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondServiceError(c, report.ErrImageTooLarge)
			return
		}
		respondServiceError(c, report.ErrImageRequired)
		return
	}
	if fh.Size > h.maxUpload {
		respondServiceError(c, report.ErrImageTooLarge)
		return
	}

	f, err := fh.Open()
	if err != nil {
		respondServiceError(c, err)
		return
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, h.maxUpload+1))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	analysis, err := h.svc.Analyze(c.Request.Context(), actor(c), service.Upload{Filename: fh.Filename, Data: data})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, analysis)
}

func (h *ReportHandler) Create(c *gin.Context) {
	var req createReportRequest
	if !bindJSON(c, &req) {
		return
	}

	var patientID uuid.UUID
	if req.PatientID != "" {
		id, err := uuid.Parse(req.PatientID)
		if err != nil {
			respondError(c, http.StatusBadRequest, "invalid patientId: must be a valid UUID")
			return
		}
		patientID = id
	}

	view, err := h.svc.Create(c.Request.Context(), actor(c), report.CreateReportCommand{
		PatientID:  patientID,
		Prediction: req.Prediction,
		Confidence: req.Confidence,
		ImageURL:   req.ImageURL,
		Notes:      req.Notes,
		Heatmap:    req.Heatmap,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondCreated(c, view)
}

func (h *ReportHandler) MyReports(c *gin.Context) {
	views, err := h.svc.ListMine(c.Request.Context(), actor(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, views)
}

func (h *ReportHandler) Patients(c *gin.Context) {
	patients, err := h.svc.ListPatients(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, patients)
}

func (h *ReportHandler) PatientReports(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	views, err := h.svc.ListForPatient(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, views)
}

func (h *ReportHandler) Update(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	var req updateReportRequest
	if !bindJSON(c, &req) {
		return
	}

	view, err := h.svc.Update(c.Request.Context(), actor(c), id, report.UpdateReportCommand{Notes: req.Notes})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, view)
}

func (h *ReportHandler) Delete(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), actor(c), id); err != nil {
		respondServiceError(c, err)
		return
	}
	respondMessage(c, "Report deleted successfully")
}
