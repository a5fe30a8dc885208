package keywords

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// DefaultOpenAIBaseURL is the public OpenAI API root.
const DefaultOpenAIBaseURL = "https://api.openai.com/v1"

// OpenAIConfig configures OpenAIClient.
type OpenAIConfig struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// OpenAIClient streams chat completions from the OpenAI API.
type OpenAIClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	prompts    *PromptBuilder
	logger     *zap.Logger
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	Temperature float64         `json:"temperature"`
	MaxTokens   int             `json:"max_tokens"`
	Stream      bool            `json:"stream"`
}

type openAIChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// NewOpenAIClient creates a client. An empty API key yields a client whose
// streams fail with ErrNotConfigured.
func NewOpenAIClient(cfg OpenAIConfig) *OpenAIClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultOpenAIBaseURL
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{}
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &OpenAIClient{
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: cfg.HTTPClient,
		prompts:    NewPromptBuilder(),
		logger:     cfg.Logger.Named("openai"),
	}
}

// Stream implements Extractor.
func (c *OpenAIClient) Stream(ctx context.Context, req Request) (<-chan string, <-chan error) {
	if c.apiKey == "" {
		return errorStream(fmt.Errorf("%w: openai", ErrNotConfigured))
	}
	system, err := c.prompts.Build(PromptData{WordLimit: req.WordLimit, BlacklistWords: req.BlacklistWords})
	if err != nil {
		return errorStream(err)
	}
	body, err := json.Marshal(openAIRequest{
		Model: req.Model,
		Messages: []openAIMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: req.Text},
		},
		Temperature: Temperature,
		MaxTokens:   MaxTokens,
		Stream:      true,
	})
	if err != nil {
		return errorStream(fmt.Errorf("marshal request: %w", err))
	}

	content := make(chan string, 100)
	errs := make(chan error, 1)

	go func() {
		defer close(content)
		defer close(errs)

		start := time.Now()
		c.logger.Debug("stream started", zap.String("model", req.Model), zap.Int("text_len", len(req.Text)))

		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
		if err != nil {
			errs <- fmt.Errorf("create request: %w", err)
			return
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("Accept", "text/event-stream")
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

		resp, err := c.httpClient.Do(httpReq)
		if err != nil {
			errs <- fmt.Errorf("request failed: %w", err)
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			errs <- fmt.Errorf("openai returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
			return
		}

		if err := c.readEvents(ctx, resp.Body, content); err != nil {
			c.logger.Warn("stream failed", zap.Error(err), zap.Duration("elapsed", time.Since(start)))
			errs <- err
			return
		}
		c.logger.Debug("stream completed", zap.Duration("elapsed", time.Since(start)))
	}()

	return content, errs
}

// readEvents forwards the delta of every "data:" line until [DONE] or EOF.
func (c *OpenAIClient) readEvents(ctx context.Context, body io.Reader, content chan<- string) error {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "" {
			continue
		}
		if data == "[DONE]" {
			return nil
		}
		var chunk openAIChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			c.logger.Debug("skipping malformed chunk", zap.Error(err))
			continue
		}
		if chunk.Error != nil {
			return fmt.Errorf("openai error: %s", chunk.Error.Message)
		}
		for _, choice := range chunk.Choices {
			if choice.Delta.Content == "" {
				continue
			}
			select {
			case content <- choice.Delta.Content:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	if err := scanner.Err(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("read stream: %w", err)
	}
	return nil
}
