package weights

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpand(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"weighted lines", "cat, 2\napple, 1", "cat,cat,apple"},
		{"zero count", "orange, 0\nkiwi, 3", "kiwi,kiwi,kiwi"},
		{"flat list untouched", "plain,comma,list", "plain,comma,list"},
		{"flat list keeps spacing", " a , b ,c ", " a , b ,c "},
		{"empty", "", ""},
		{"trailing period stripped", "dados., 2\nsolo, 1", "dados,dados,solo"},
		{"only one period stripped", "etc.., 1\nx, 1", "etc.,x"},
		{"crlf lines", "cat, 2\r\ndog, 1\r\n", "cat,cat,dog"},
		{"multi word phrase", "análise de dados, 2\nsolo, 1", "análise de dados,análise de dados,solo"},
		{"blank lines ignored", "\ncat, 1\n\n", "cat"},
		{"all malformed", "cat\ndog, x", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Expand(tt.input))
		})
	}
}

func TestParse_MalformedLinesDoNotAbort(t *testing.T) {
	input := strings.Join([]string{
		"cat, 2",
		"no comma here",
		"dog, many",
		", 4",
		"bird, -1",
		"fish, 1",
	}, "\n")

	assert.Equal(t, []string{"cat", "cat", "fish"}, Parse(input))
}

func TestParse_RepetitionCountMatchesWeight(t *testing.T) {
	for n := 0; n <= 5; n++ {
		input := fmt.Sprintf("word, %d\nend, 1", n)
		got := Parse(input)
		count := 0
		for _, tok := range got {
			if tok == "word" {
				count++
			}
		}
		assert.Equal(t, n, count, "weight %d", n)
		assert.Equal(t, "end", got[len(got)-1])
	}
}

func TestParse_FlatInput(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, Parse("a,b,c"))
	assert.Nil(t, Parse(""))
}

func TestParse_HugeCounts(t *testing.T) {
	got := Parse("a, 50000000\nb, 1")
	assert.Equal(t, []string{"b"}, got, "a count above MaxTokens makes the line malformed")

	got = Parse(fmt.Sprintf("a, %d\nb, %d\nc, 1", MaxTokens, MaxTokens))
	assert.Len(t, got, MaxTokens, "expansion stops when the list is full")
	assert.Equal(t, "a", got[len(got)-1])

	assert.Empty(t, Expand("a, 9223372036854775807\nb, x"))
}

func TestCount(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int
	}{
		{"empty", "", 0},
		{"flat list", "a,b,c", 3},
		{"weighted", "cat, 2\napple, 1\nbad", 3},
		{"at the limit", fmt.Sprintf("a, %d\nb, 0", MaxTokens), MaxTokens},
		{"single huge line", "a, 50000000\nb, 1", MaxTokens + 1},
		{"sum over the limit", fmt.Sprintf("a, %d\nb, 1", MaxTokens), MaxTokens + 1},
		{"overflowing count", "a, 9223372036854775807\nb, 9223372036854775807", MaxTokens + 1},
		{"long flat list", strings.Repeat("a,", MaxTokens+5), MaxTokens + 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Count(tt.input))
		})
	}
}
