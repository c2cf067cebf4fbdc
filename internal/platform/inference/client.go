// Package inference forwards chest X-ray images to the external
// classification service and decodes its verdict.
package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.uber.org/zap"

	"github.com/mesworup/Pneumonia-Detection-CNN/internal/config"
	"github.com/mesworup/Pneumonia-Detection-CNN/pkg/metrics"
)

// ErrUnavailable is returned when the service cannot be reached, times out,
// answers with a server error, or the breaker is open.
var ErrUnavailable = errors.New("unable to process image: ML service may be offline")

// RejectedError carries a 4xx verdict from the service (e.g. unreadable image).
// It does not count against the circuit breaker.
type RejectedError struct {
	StatusCode int
	Detail     string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("ML service rejected image (%d): %s", e.StatusCode, e.Detail)
}

// Result mirrors the service's /predict response.
type Result struct {
	IsXray          bool    `json:"is_xray"`
	XrayConfidence  float64 `json:"xray_confidence"`
	Classification  string  `json:"classification,omitempty"`
	ClassConfidence float64 `json:"class_confidence,omitempty"`
	Heatmap         string  `json:"heatmap,omitempty"`
	Message         string  `json:"message,omitempty"`
	ImageWidth      int     `json:"image_width,omitempty"`
	ImageHeight     int     `json:"image_height,omitempty"`
}

type Client struct {
	url     string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[*Result]
	metrics *metrics.Collector
	log     *zap.Logger
}

func NewClient(cfg config.InferenceConfig, m *metrics.Collector, log *zap.Logger) *Client {
	c := &Client{
		url:     cfg.URL,
		http:    &http.Client{Timeout: cfg.Timeout},
		metrics: m,
		log:     log,
	}

	c.breaker = gobreaker.NewCircuitBreaker[*Result](gobreaker.Settings{
		Name:        "inference",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			var rejected *RejectedError
			return err == nil || errors.As(err, &rejected)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return c
}

// Predict uploads the image as multipart field "file".
func (c *Client) Predict(ctx context.Context, filename string, image []byte) (*Result, error) {
	ctx, span := otel.Tracer("pneumoscan/inference").Start(ctx, "inference.Predict")
	defer span.End()
	span.SetAttributes(attribute.Int("image.bytes", len(image)))

	start := time.Now()
	res, err := c.breaker.Execute(func() (*Result, error) {
		return c.do(ctx, filename, image)
	})
	c.observe(start, err)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		var rejected *RejectedError
		if errors.As(err, &rejected) {
			return nil, err
		}
		c.log.Error("inference call failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	span.SetAttributes(
		attribute.Bool("inference.is_xray", res.IsXray),
		attribute.String("inference.classification", res.Classification),
	)
	return res, nil
}

func (c *Client) do(ctx context.Context, filename string, image []byte) (*Result, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("creating form file: %w", err)
	}
	if _, err := part.Write(image); err != nil {
		return nil, fmt.Errorf("writing image data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("closing multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling ML service: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading ML response: %w", err)
	}

	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		return nil, &RejectedError{StatusCode: resp.StatusCode, Detail: detailOf(raw)}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ML service returned status %d: %s", resp.StatusCode, detailOf(raw))
	}

	var result Result
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("decoding ML response: %w", err)
	}

	c.log.Debug("inference result",
		zap.Bool("is_xray", result.IsXray),
		zap.Float64("xray_confidence", result.XrayConfidence),
		zap.String("classification", result.Classification),
		zap.Float64("class_confidence", result.ClassConfidence),
		zap.Bool("has_heatmap", result.Heatmap != ""),
	)
	return &result, nil
}

func (c *Client) observe(start time.Time, err error) {
	if c.metrics == nil {
		return
	}
	outcome := "ok"
	var rejected *RejectedError
	switch {
	case errors.As(err, &rejected):
		outcome = "rejected"
	case err != nil:
		outcome = "error"
	}
	c.metrics.ExternalCallDuration.WithLabelValues("inference").Observe(time.Since(start).Seconds())
	c.metrics.ExternalCallsTotal.WithLabelValues("inference", outcome).Inc()
}

// detailOf extracts FastAPI's {"detail": ...} or falls back to the raw body.
func detailOf(raw []byte) string {
	var body struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(raw, &body); err == nil && body.Detail != "" {
		return body.Detail
	}
	const limit = 200
	if len(raw) > limit {
		return string(raw[:limit])
	}
	return string(raw)
}
