package inference

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/mesworup/Pneumonia-Detection-CNN/internal/config"
	"github.com/mesworup/Pneumonia-Detection-CNN/pkg/metrics"
)

func newTestClient(url string) *Client {
	return NewClient(config.InferenceConfig{URL: url, Timeout: 2 * time.Second}, metrics.NewCollector("test"), zap.NewNop())
}

func TestPredict_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		f, hdr, err := r.FormFile("file")
		if err != nil {
			t.Errorf("missing file field: %v", err)
			return
		}
		data, _ := io.ReadAll(f)
		if string(data) != "png-bytes" || hdr.Filename != "chest.png" {
			t.Errorf("unexpected upload %q %q", hdr.Filename, data)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"is_xray":true,"xray_confidence":0.99,"classification":"Pneumonia","class_confidence":0.87,"heatmap":"aGVhdA=="}`))
	}))
	defer srv.Close()

	res, err := newTestClient(srv.URL).Predict(context.Background(), "chest.png", []byte("png-bytes"))
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if !res.IsXray || res.Classification != "Pneumonia" || res.ClassConfidence != 0.87 || res.Heatmap == "" {
		t.Errorf("unexpected result: %+v", res)
	}
}

func TestPredict_GateRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"is_xray":false,"xray_confidence":0.12,"message":"This image is not a chest X-ray."}`))
	}))
	defer srv.Close()

	res, err := newTestClient(srv.URL).Predict(context.Background(), "cat.png", []byte("x"))
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if res.IsXray || res.XrayConfidence != 0.12 || res.Message == "" {
		t.Errorf("unexpected result: %+v", res)
	}
}

func TestPredict_ClientErrorIsRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"detail":"Invalid Image Format"}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Predict(context.Background(), "bad.png", []byte("x"))
	var rejected *RejectedError
	if !errors.As(err, &rejected) {
		t.Fatalf("expected RejectedError, got %v", err)
	}
	if rejected.Detail != "Invalid Image Format" {
		t.Errorf("detail = %q", rejected.Detail)
	}
	if errors.Is(err, ErrUnavailable) {
		t.Error("a rejection must not be reported as unavailability")
	}
}

func TestPredict_ServerErrorIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"detail":"ML System not initialized"}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Predict(context.Background(), "x.png", []byte("x"))
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestPredict_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := newTestClient(url).Predict(context.Background(), "x.png", []byte("x"))
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestPredict_BreakerOpensAfterRepeatedFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	for i := 0; i < 8; i++ {
		_, _ = c.Predict(context.Background(), "x.png", []byte("x"))
	}
	if got := calls.Load(); got != 5 {
		t.Errorf("expected breaker to stop calls after 5 failures, server saw %d", got)
	}
}
