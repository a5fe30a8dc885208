package keywords

import (
	_ "embed"
	"fmt"
	"strings"
	"text/template"
)

//go:embed system_prompt.tmpl
var systemPromptTemplate string

// DefaultWordLimit is the keyword count requested when none is given.
const DefaultWordLimit = 35

// PromptData fills the system prompt template.
type PromptData struct {
	WordLimit      int
	BlacklistWords string
}

// PromptBuilder renders the instruction sent as the system message.
type PromptBuilder struct {
	tmpl *template.Template
	err  error
}

// NewPromptBuilder parses the embedded template. A parse failure is kept and
// reported by Err and Build.
func NewPromptBuilder() *PromptBuilder {
	tmpl, err := template.New("system_prompt").Parse(systemPromptTemplate)
	return &PromptBuilder{tmpl: tmpl, err: err}
}

// Err returns the template parse error, if any.
func (b *PromptBuilder) Err() error {
	return b.err
}

// Build renders the system prompt.
func (b *PromptBuilder) Build(data PromptData) (string, error) {
	if b.tmpl == nil || b.err != nil {
		return "", fmt.Errorf("system prompt template is not initialized: %w", b.err)
	}
	if data.WordLimit <= 0 {
		data.WordLimit = DefaultWordLimit
	}
	data.BlacklistWords = strings.TrimSpace(data.BlacklistWords)

	var sb strings.Builder
	if err := b.tmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("render system prompt: %w", err)
	}
	return sb.String(), nil
}
