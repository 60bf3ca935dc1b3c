package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// QRClient wraps the external QR image API. Generation is idempotent, so a
// failed attempt is retried once before the caller falls back to the textual
// invite code.
type QRClient struct {
	baseURL    string
	page       string
	httpClient *http.Client
	log        *zap.Logger
}

// NewQRClient creates a new QR API client. timeout bounds each remote call.
func NewQRClient(baseURL string, timeout time.Duration, log *zap.Logger) *QRClient {
	return &QRClient{
		baseURL: baseURL,
		page:    "pages/invite/join",
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: log.Named("qr"),
	}
}

type qrRequest struct {
	Page  string `json:"page"`
	Scene string `json:"scene"`
	Width int    `json:"width"`
}

type qrResponse struct {
	OK    bool   `json:"ok"`
	URL   string `json:"url"`
	Error struct {
		Code    string `json:"code"`
		Message string `json:"msg"`
	} `json:"error"`
}

// Generate requests a scannable image for the scene and returns its URL.
func (c *QRClient) Generate(ctx context.Context, scene string) (string, error) {
	if c.baseURL == "" {
		return "", fmt.Errorf("qr client: no endpoint configured")
	}

	body, err := json.Marshal(qrRequest{Page: c.page, Scene: scene, Width: 430})
	if err != nil {
		return "", err
	}

	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		if attempt > 0 {
			c.log.Debug("retrying qr generation", zap.String("scene", scene))
		}

		url, err := c.generateOnce(ctx, body)
		if err == nil {
			return url, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}
	return "", lastErr
}

func (c *QRClient) generateOnce(ctx context.Context, body []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/wxacode", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("qr request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("qr service returned %d", resp.StatusCode)
	}

	var parsed qrResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", fmt.Errorf("qr response unparseable: %w", err)
	}
	if !parsed.OK || parsed.URL == "" {
		return "", fmt.Errorf("qr generation failed: %s %s", parsed.Error.Code, parsed.Error.Message)
	}
	return parsed.URL, nil
}
