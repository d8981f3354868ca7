package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// HTTPExtractor calls an external OCR service that accepts a raw image
// body and returns the recognized text as JSON
type HTTPExtractor struct {
	endpoint   string
	httpClient *http.Client
}

// NewHTTPExtractor creates an extractor against the given OCR service
// endpoint
func NewHTTPExtractor(endpoint string) *HTTPExtractor {
	return &HTTPExtractor{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// ExtractText sends the image to the OCR service and returns its text
func (e *HTTPExtractor) ExtractText(ctx context.Context, image []byte) (string, error) {
	tracer := otel.Tracer("ocr-extractor")
	ctx, span := tracer.Start(ctx, "ocr.ExtractText", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(image))
	if err != nil {
		return "", fmt.Errorf("failed to build OCR request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("OCR request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("OCR service returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read OCR response: %w", err)
	}

	var parsed struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("failed to decode OCR response: %w", err)
	}
	return parsed.Text, nil
}
