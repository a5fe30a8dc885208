package keywords

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPromptBuilder_Build(t *testing.T) {
	b := NewPromptBuilder()
	require.NoError(t, b.Err())

	t.Run("word limit is rendered", func(t *testing.T) {
		got, err := b.Build(PromptData{WordLimit: 12})
		require.NoError(t, err)
		assert.Contains(t, got, "identificar 12 das principais palavras-chave")
		assert.NotContains(t, got, "NÃO inclua estas palavras")
	})

	t.Run("default word limit", func(t *testing.T) {
		got, err := b.Build(PromptData{})
		require.NoError(t, err)
		assert.Contains(t, got, "identificar 35 das principais")
	})

	t.Run("blacklist is appended", func(t *testing.T) {
		got, err := b.Build(PromptData{WordLimit: 10, BlacklistWords: "  mesa, cadeira "})
		require.NoError(t, err)
		assert.Contains(t, got, "NÃO inclua estas palavras na sua resposta: mesa, cadeira\n")
	})

	t.Run("whitespace blacklist is ignored", func(t *testing.T) {
		got, err := b.Build(PromptData{WordLimit: 10, BlacklistWords: "   "})
		require.NoError(t, err)
		assert.NotContains(t, got, "Considerações Adicionais")
	})
}

func TestPromptBuilder_BrokenTemplate(t *testing.T) {
	b := &PromptBuilder{}
	_, err := b.Build(PromptData{WordLimit: 1})
	assert.Error(t, err)
}
