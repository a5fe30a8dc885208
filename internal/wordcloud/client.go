// Package wordcloud calls the remote word-cloud renderer.
package wordcloud

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"image/png"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// DefaultBaseURL is the hosted renderer.
const DefaultBaseURL = "https://sp-wordcloud-mcjozft4ta-uc.a.run.app"

// DefaultColors is sent when the submission has no colors.
var DefaultColors = []string{"#1f77b4", "#ff7f0e", "#2ca02c", "#d62728"}

const dataURLPrefix = "data:image/png;base64,"

// ErrInvalidImage is returned when the service answers with something that is not a PNG.
var ErrInvalidImage = errors.New("word cloud service returned an invalid image")

// Request is the renderer input.
type Request struct {
	Text   string   `json:"text"`
	Width  int      `json:"width"`
	Height int      `json:"height"`
	Scale  float64  `json:"scale"`
	Colors []string `json:"colors"`
}

type response struct {
	WordCloud string `json:"wordcloud"`
}

// Result is a decoded word-cloud image.
type Result struct {
	PNG    []byte
	Base64 string
	Width  int
	Height int
}

// DataURL returns the image as an inline data URL.
func (r Result) DataURL() string {
	return dataURLPrefix + r.Base64
}

// StatusError reports a non-2xx answer from the renderer.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("word cloud service returned status %d", e.Code)
}

// Client posts generation requests. It makes a single attempt per call.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a client for the renderer at baseURL. A nil httpClient
// uses a client without its own timeout; the request context bounds the call.
func NewClient(baseURL string, httpClient *http.Client, logger *zap.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		logger:     logger.Named("wordcloud"),
	}
}

// Generate renders req and returns the decoded PNG.
func (c *Client) Generate(ctx context.Context, req Request) (Result, error) {
	if len(req.Colors) == 0 {
		req.Colors = append([]string(nil), DefaultColors...)
	}
	body, err := json.Marshal(req)
	if err != nil {
		return Result{}, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/generate-wordcloud", bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return Result{}, fmt.Errorf("word cloud request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		c.logger.Warn("renderer rejected request",
			zap.Int("status", resp.StatusCode),
			zap.String("body", strings.TrimSpace(string(msg))))
		return Result{}, &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}

	var payload response
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Result{}, fmt.Errorf("decode response: %w", err)
	}
	return decodeImage(payload.WordCloud)
}

func decodeImage(encoded string) (Result, error) {
	encoded = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(encoded), dataURLPrefix))
	if encoded == "" {
		return Result{}, fmt.Errorf("%w: empty payload", ErrInvalidImage)
	}
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	cfg, err := png.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	return Result{
		PNG:    raw,
		Base64: encoded,
		Width:  cfg.Width,
		Height: cfg.Height,
	}, nil
}
