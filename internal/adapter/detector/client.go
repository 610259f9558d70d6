// Package detector is the HTTP client for the object detection service.
package detector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/heartmarshall/objectdetect/internal/config"
	"github.com/heartmarshall/objectdetect/internal/domain"
	"github.com/heartmarshall/objectdetect/pkg/ctxutil"
)

// requestIDHeader carries the prediction id so both services log the same id.
const requestIDHeader = "X-Request-Id"

// maxResponseBytes caps the detection response body.
const maxResponseBytes = 4 << 20

// Client calls the detection service's /predict endpoint.
// It never retries; the caller decides what a failure means.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *slog.Logger
}

// NewClient creates a Client from config. Every call is bounded by cfg.Timeout.
func NewClient(cfg config.DetectorConfig, logger *slog.Logger) *Client {
	return NewClientWithHTTP(cfg.URL, &http.Client{Timeout: cfg.Timeout}, logger)
}

// NewClientWithHTTP creates a Client with a custom base URL and http.Client (for testing).
func NewClientWithHTTP(baseURL string, httpClient *http.Client, logger *slog.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		log:        logger.With("adapter", "detector"),
	}
}

// Detect asks the detection service to analyze the image staged under imageKey.
//
// 404 means the service ran but produced no result and maps to
// domain.ErrDetectionIncomplete. Any other non-200 status, a transport error,
// a timeout or an undecodable body maps to domain.ErrDetectionUnavailable.
// A 200 body without usable labels maps to domain.ErrMalformedLabelLine.
func (c *Client) Detect(ctx context.Context, imageKey string) (*domain.DetectionResult, error) {
	reqURL := c.baseURL + "/predict?" + url.Values{"imgName": {imageKey}}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("detector: create request: %w: %w", domain.ErrDetectionUnavailable, err)
	}
	if id, ok := ctxutil.PredictionIDFromCtx(ctx); ok {
		req.Header.Set(requestIDHeader, id.String())
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.WarnContext(ctx, "detector request failed",
			slog.String("image", imageKey),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("detector: request: %w: %w", domain.ErrDetectionUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("detector: read body: %w: %w", domain.ErrDetectionUnavailable, err)
	}

	c.log.DebugContext(ctx, "detector response",
		slog.String("image", imageKey),
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", time.Since(start)),
	)

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, fmt.Errorf("detector: %s: %w", errorMessage(body, resp.StatusCode), domain.ErrDetectionIncomplete)
	default:
		return nil, fmt.Errorf("detector: %s: %w", errorMessage(body, resp.StatusCode), domain.ErrDetectionUnavailable)
	}

	return decodeResult(body)
}

// predictResponse is the 200 body. Labels is kept raw so that a missing field
// can be told apart from an empty list.
type predictResponse struct {
	PredictionID       string           `json:"prediction_id"`
	OriginalImagePath  string           `json:"original_img_path"`
	PredictedImagePath string           `json:"predicted_img_path"`
	Labels             *json.RawMessage `json:"labels"`
	Time               float64          `json:"time"`
}

// decodeResult turns a 200 body into a DetectionResult. A body that is not
// JSON maps to domain.ErrDetectionUnavailable. A missing labels field or an
// entry that is neither a line nor a record maps to domain.ErrMalformedLabelLine.
func decodeResult(body []byte) (*domain.DetectionResult, error) {
	var resp predictResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("detector: decode response: %w: %w", domain.ErrDetectionUnavailable, err)
	}
	if resp.Labels == nil {
		return nil, fmt.Errorf("detector: response has no labels: %w", domain.ErrMalformedLabelLine)
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(*resp.Labels, &entries); err != nil {
		return nil, fmt.Errorf("detector: labels is not a list: %w", &domain.MalformedLabelLineError{
			Text:   string(*resp.Labels),
			Reason: err.Error(),
		})
	}

	labels := make([]domain.RawLabel, len(entries))
	for i, entry := range entries {
		if err := labels[i].UnmarshalJSON(entry); err != nil {
			return nil, fmt.Errorf("detector: %w", &domain.MalformedLabelLineError{
				Line:   i + 1,
				Text:   string(entry),
				Reason: err.Error(),
			})
		}
	}

	return &domain.DetectionResult{
		PredictionID:       resp.PredictionID,
		OriginalImagePath:  resp.OriginalImagePath,
		PredictedImagePath: resp.PredictedImagePath,
		Labels:             labels,
		Time:               resp.Time,
	}, nil
}

// Ping checks that the detection service answers its health endpoint.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("detector: create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("detector: ping: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("detector: ping: unexpected status %d", resp.StatusCode)
	}
	return nil
}

// errorResponse is the JSON error body written by the detection service.
type errorResponse struct {
	Error string `json:"error"`
}

func errorMessage(body []byte, status int) string {
	var er errorResponse
	if err := json.Unmarshal(body, &er); err == nil && er.Error != "" {
		return fmt.Sprintf("status %d: %s", status, er.Error)
	}
	if text := strings.TrimSpace(string(body)); text != "" && len(text) <= 200 {
		return fmt.Sprintf("status %d: %s", status, text)
	}
	return fmt.Sprintf("status %d", status)
}

