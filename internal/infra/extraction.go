package infra

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/omrysinwany/InvoTrack/internal/dto"
)

// extractionRequest is sent to the extraction sidecar, which runs the OCR /
// vision model and returns structured document data.
type extractionRequest struct {
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// ExtractionClient is an HTTP client that delegates document parsing to the
// extraction sidecar. The decoupling isolates model failures and upgrades
// from the core backend.
type ExtractionClient struct {
	sidecarURL string
	httpClient *http.Client
	breaker    *CircuitBreaker
}

func NewExtractionClient(sidecarURL string, breaker *CircuitBreaker) *ExtractionClient {
	return &ExtractionClient{
		sidecarURL: sidecarURL,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		breaker:    breaker,
	}
}

// Extract sends the scanned image to the sidecar and returns the structured
// extraction result. Everything in the result is a hint to be verified by
// the resolution flow, never trusted as-is.
func (c *ExtractionClient) Extract(ctx context.Context, imageBase64, mimeType string) (*dto.ExtractionResult, error) {
	body, err := json.Marshal(extractionRequest{ImageBase64: imageBase64, MimeType: mimeType})
	if err != nil {
		return nil, fmt.Errorf("extraction: marshal payload: %w", err)
	}

	var result dto.ExtractionResult
	err = c.breaker.Execute(func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.sidecarURL+"/extract", bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("extraction: create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("extraction: sidecar unreachable: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("extraction: sidecar returned %d", resp.StatusCode)
		}
		return json.NewDecoder(resp.Body).Decode(&result)
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}
