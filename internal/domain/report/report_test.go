package report

import (
	"testing"

	"github.com/google/uuid"
)

func TestStatusFor(t *testing.T) {
	if got := StatusFor(0); got != StatusPending {
		t.Errorf("StatusFor(0) = %s, want PENDING", got)
	}
	if got := StatusFor(1); got != StatusAnalyzed {
		t.Errorf("StatusFor(1) = %s, want ANALYZED", got)
	}
	if got := StatusFor(7); got != StatusAnalyzed {
		t.Errorf("StatusFor(7) = %s, want ANALYZED", got)
	}
}

func TestNewAnalysis(t *testing.T) {
	tests := []struct {
		name     string
		gate     GateResult
		wantPred Prediction
		wantConf float64
		wantHeat bool
	}{
		{
			name:     "gate rejection maps to invalid image with gate confidence",
			gate:     GateResult{IsXray: false, XrayConfidence: 0.31, Classification: "Normal", ClassConfidence: 0.99, Heatmap: "abc"},
			wantPred: PredictionInvalidImage,
			wantConf: 0.31,
		},
		{
			name:     "pneumonia passes through",
			gate:     GateResult{IsXray: true, XrayConfidence: 0.97, Classification: "Pneumonia", ClassConfidence: 0.88, Heatmap: "abc"},
			wantPred: PredictionPneumonia,
			wantConf: 0.88,
			wantHeat: true,
		},
		{
			name:     "unknown label becomes uncertain",
			gate:     GateResult{IsXray: true, XrayConfidence: 0.95, Classification: "Tuberculosis", ClassConfidence: 0.51},
			wantPred: PredictionUncertain,
			wantConf: 0.51,
		},
		{
			name:     "accepted x-ray cannot claim invalid image",
			gate:     GateResult{IsXray: true, XrayConfidence: 0.95, Classification: "Invalid Image", ClassConfidence: 0.4},
			wantPred: PredictionUncertain,
			wantConf: 0.4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewAnalysis(tt.gate, "/uploads/x.png")
			if a.Prediction != tt.wantPred {
				t.Errorf("prediction = %q, want %q", a.Prediction, tt.wantPred)
			}
			if a.Confidence != tt.wantConf {
				t.Errorf("confidence = %v, want %v", a.Confidence, tt.wantConf)
			}
			if (a.Heatmap != "") != tt.wantHeat {
				t.Errorf("heatmap present = %v, want %v", a.Heatmap != "", tt.wantHeat)
			}
			if a.ImageURL != "/uploads/x.png" {
				t.Errorf("imageUrl = %q", a.ImageURL)
			}
		})
	}
}

func TestReport_OwnedBy(t *testing.T) {
	doctor := uuid.New()
	r := &Report{DoctorID: doctor}

	if !r.OwnedBy(doctor) {
		t.Error("expected creating doctor to own the report")
	}
	if r.OwnedBy(uuid.New()) {
		t.Error("expected another doctor not to own the report")
	}
}
