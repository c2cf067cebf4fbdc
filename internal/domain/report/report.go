package report

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Prediction string

const (
	PredictionPneumonia    Prediction = "Pneumonia"
	PredictionNormal       Prediction = "Normal"
	PredictionUncertain    Prediction = "Uncertain"
	PredictionInvalidImage Prediction = "Invalid Image"
)

func (p Prediction) IsValid() bool {
	switch p {
	case PredictionPneumonia, PredictionNormal, PredictionUncertain, PredictionInvalidImage:
		return true
	}
	return false
}

// PatientStatus is derived from the report count and never stored.
type PatientStatus string

const (
	StatusPending  PatientStatus = "PENDING"
	StatusAnalyzed PatientStatus = "ANALYZED"
)

// StatusFor derives a patient's status from how many reports reference them.
func StatusFor(reportCount int64) PatientStatus {
	if reportCount > 0 {
		return StatusAnalyzed
	}
	return StatusPending
}

// Report is a finalized diagnosis. DoctorID is fixed at creation; only Notes
// may change afterwards.
type Report struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `gorm:"autoCreateTime;index"`

	PatientID uuid.UUID `gorm:"column:patient_id;type:uuid;not null;index"`
	DoctorID  uuid.UUID `gorm:"column:doctor_id;type:uuid;not null;index"`

	ImageURL   string     `gorm:"column:image_url;type:text;not null"`
	Prediction Prediction `gorm:"column:prediction;type:varchar(30);not null"`
	Confidence float64    `gorm:"column:confidence;not null"`
	Notes      string     `gorm:"column:notes;type:text"`
	// Base64 PNG produced by the inference service.
	Heatmap string `gorm:"column:heatmap;type:text"`
}

func (Report) TableName() string {
	return "reports"
}

func (r *Report) BeforeCreate(*gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// OwnedBy reports whether userID is the doctor who created the report.
func (r *Report) OwnedBy(userID uuid.UUID) bool {
	return r.DoctorID == userID
}

// GateResult is the raw outcome of the inference service, before this
// system's own mapping rules are applied.
type GateResult struct {
	IsXray          bool
	XrayConfidence  float64
	Classification  string
	ClassConfidence float64
	Heatmap         string
	Message         string
}

// Analysis is an un-persisted preview returned to the doctor.
type Analysis struct {
	IsXray         bool       `json:"is_xray"`
	XrayConfidence float64    `json:"xray_confidence"`
	Message        string     `json:"message,omitempty"`
	Prediction     Prediction `json:"prediction"`
	Confidence     float64    `json:"confidence"`
	ImageURL       string     `json:"imageUrl"`
	Heatmap        string     `json:"heatmap,omitempty"`
}

// NewAnalysis applies the gate rejection rule: an image the gate model does
// not accept as an X-ray becomes "Invalid Image" carrying the gate confidence.
func NewAnalysis(g GateResult, imageURL string) *Analysis {
	a := &Analysis{
		IsXray:         g.IsXray,
		XrayConfidence: g.XrayConfidence,
		Message:        g.Message,
		ImageURL:       imageURL,
	}

	if !g.IsXray {
		a.Prediction = PredictionInvalidImage
		a.Confidence = g.XrayConfidence
		return a
	}

	a.Prediction = Prediction(g.Classification)
	if !a.Prediction.IsValid() || a.Prediction == PredictionInvalidImage {
		a.Prediction = PredictionUncertain
	}
	a.Confidence = g.ClassConfidence
	a.Heatmap = g.Heatmap
	return a
}

type CreateReportCommand struct {
	PatientID  uuid.UUID
	Prediction Prediction
	Confidence float64
	ImageURL   string
	Notes      string
	Heatmap    string
}

type UpdateReportCommand struct {
	Notes string
}

// View is a report with its participants resolved for display.
type View struct {
	ID           uuid.UUID  `json:"id"`
	PatientID    uuid.UUID  `json:"patientId"`
	PatientName  string     `json:"patientName,omitempty"`
	PatientEmail string     `json:"patientEmail,omitempty"`
	DoctorID     uuid.UUID  `json:"doctorId"`
	DoctorName   string     `json:"doctorName"`
	ImageURL     string     `json:"imageUrl"`
	Prediction   Prediction `json:"prediction"`
	Confidence   float64    `json:"confidence"`
	Notes        string     `json:"notes,omitempty"`
	Heatmap      string     `json:"heatmap,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
}

// PatientSummary is a patient row on the doctor dashboard.
type PatientSummary struct {
	ID          uuid.UUID     `json:"id"`
	Name        string        `json:"name"`
	Email       string        `json:"email"`
	CreatedAt   time.Time     `json:"createdAt"`
	ReportCount int64         `json:"reportCount"`
	Status      PatientStatus `json:"status"`
}
