package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// OCRClient handles communication with the OCR HTTP service
type OCRClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewOCRClient(baseURL, apiKey string, timeout time.Duration) *OCRClient {
	return &OCRClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type ocrResponse struct {
	Text string `json:"text"`
}

type ocrError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (c *OCRClient) Recognize(ctx context.Context, data []byte, mimeType string) (string, error) {
	url := fmt.Sprintf("%s/api/v1/ocr", c.baseURL)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	httpReq.Header.Set("Content-Type", mimeType)
	if c.apiKey != "" {
		httpReq.Header.Set("x-api-key", c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode == http.StatusBadRequest ||
		resp.StatusCode == http.StatusUnsupportedMediaType ||
		resp.StatusCode == http.StatusUnprocessableEntity {
		var errResp ocrError
		if err := json.Unmarshal(body, &errResp); err != nil {
			return "", fmt.Errorf("OCR error (status %d): %s", resp.StatusCode, string(body))
		}
		return "", fmt.Errorf("OCR error: %s - %s", errResp.Error, errResp.Message)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, string(body))
	}

	var ocrResp ocrResponse
	if err := json.Unmarshal(body, &ocrResp); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return ocrResp.Text, nil
}
