// Package keywords streams keyword lists for a text from a hosted language
// model. Providers yield incremental text deltas; callers accumulate them.
package keywords

import (
	"context"
	"errors"
	"fmt"
)

// Selectable models.
const (
	ModelGPT4o       = "gpt-4o"
	ModelGeminiPro15 = "models/gemini-1.5-pro-latest"
)

// Generation settings shared by every provider.
const (
	Temperature = 0
	MaxTokens   = 200
)

var (
	// ErrUnknownModel is returned for a model outside Models().
	ErrUnknownModel = errors.New("unknown model")
	// ErrNotConfigured is returned when the provider for a model has no API key.
	ErrNotConfigured = errors.New("provider not configured")
)

// ModelOption describes a selectable model.
type ModelOption struct {
	ID    string
	Label string
}

// Models lists the selectable models in display order.
func Models() []ModelOption {
	return []ModelOption{
		{ID: ModelGPT4o, Label: "GPT-4o"},
		{ID: ModelGeminiPro15, Label: "Gemini 1.5 Pro"},
	}
}

// IsKnownModel reports whether id is one of Models().
func IsKnownModel(id string) bool {
	for _, m := range Models() {
		if m.ID == id {
			return true
		}
	}
	return false
}

// Request is one extraction.
type Request struct {
	Text           string
	Model          string
	BlacklistWords string
	WordLimit      int
}

// Extractor streams the model's answer for a request. The content channel
// yields text deltas; the error channel carries at most one error. Both are
// closed when the stream ends.
type Extractor interface {
	Stream(ctx context.Context, req Request) (<-chan string, <-chan error)
}

// Router dispatches requests to the extractor registered for their model.
type Router struct {
	extractors map[string]Extractor
}

// NewRouter creates a router. Nil extractors are treated as unconfigured.
func NewRouter(extractors map[string]Extractor) *Router {
	m := make(map[string]Extractor, len(extractors))
	for id, e := range extractors {
		if e != nil {
			m[id] = e
		}
	}
	return &Router{extractors: m}
}

// Stream implements Extractor.
func (r *Router) Stream(ctx context.Context, req Request) (<-chan string, <-chan error) {
	if !IsKnownModel(req.Model) {
		return errorStream(fmt.Errorf("%w: %q", ErrUnknownModel, req.Model))
	}
	e, ok := r.extractors[req.Model]
	if !ok {
		return errorStream(fmt.Errorf("%w: %s", ErrNotConfigured, req.Model))
	}
	return e.Stream(ctx, req)
}

// errorStream returns an already finished stream that reports err.
func errorStream(err error) (<-chan string, <-chan error) {
	content := make(chan string)
	errs := make(chan error, 1)
	errs <- err
	close(content)
	close(errs)
	return content, errs
}

// Collect drains a stream into the full text.
func Collect(content <-chan string, errs <-chan error) (string, error) {
	var text []byte
	for delta := range content {
		text = append(text, delta...)
	}
	if err := <-errs; err != nil {
		return string(text), err
	}
	return string(text), nil
}
