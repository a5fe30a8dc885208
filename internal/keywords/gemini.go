package keywords

import (
	"context"
	"fmt"
	"iter"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

// contentStreamer is the part of genai.Models used here.
type contentStreamer interface {
	GenerateContentStream(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) iter.Seq2[*genai.GenerateContentResponse, error]
}

// GeminiConfig configures GeminiClient.
type GeminiConfig struct {
	APIKey string
	Logger *zap.Logger
}

// GeminiClient streams generations from the Gemini API.
type GeminiClient struct {
	models  contentStreamer
	prompts *PromptBuilder
	logger  *zap.Logger
}

// NewGeminiClient creates a client. An empty API key yields a client whose
// streams fail with ErrNotConfigured.
func NewGeminiClient(ctx context.Context, cfg GeminiConfig) (*GeminiClient, error) {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	c := &GeminiClient{
		prompts: NewPromptBuilder(),
		logger:  cfg.Logger.Named("gemini"),
	}
	if cfg.APIKey == "" {
		return c, nil
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	c.models = client.Models
	return c, nil
}

// Stream implements Extractor.
func (c *GeminiClient) Stream(ctx context.Context, req Request) (<-chan string, <-chan error) {
	if c.models == nil {
		return errorStream(fmt.Errorf("%w: gemini", ErrNotConfigured))
	}
	system, err := c.prompts.Build(PromptData{WordLimit: req.WordLimit, BlacklistWords: req.BlacklistWords})
	if err != nil {
		return errorStream(err)
	}
	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
		Temperature:       genai.Ptr[float32](Temperature),
		MaxOutputTokens:   MaxTokens,
	}
	contents := []*genai.Content{
		genai.NewContentFromText(req.Text, genai.RoleUser),
	}

	content := make(chan string, 100)
	errs := make(chan error, 1)

	go func() {
		defer close(content)
		defer close(errs)

		start := time.Now()
		c.logger.Debug("stream started", zap.String("model", req.Model), zap.Int("text_len", len(req.Text)))

		for resp, err := range c.models.GenerateContentStream(ctx, req.Model, contents, config) {
			if err != nil {
				c.logger.Warn("stream failed", zap.Error(err), zap.Duration("elapsed", time.Since(start)))
				errs <- fmt.Errorf("gemini stream: %w", err)
				return
			}
			if resp == nil {
				continue
			}
			delta := resp.Text()
			if delta == "" {
				continue
			}
			select {
			case content <- delta:
			case <-ctx.Done():
				errs <- ctx.Err()
				return
			}
		}
		c.logger.Debug("stream completed", zap.Duration("elapsed", time.Since(start)))
	}()

	return content, errs
}
