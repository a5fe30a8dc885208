// Package weights turns "word, count" lines into the repeated-token list the
// word-cloud service sizes words by.
package weights

import (
	"strconv"
	"strings"
)

// Separator joins tokens in the expanded list.
const Separator = ","

// MaxTokens bounds the expanded list. A line whose count alone exceeds it is
// malformed; otherwise expansion stops once the list is full.
const MaxTokens = 10000

// Expand returns the weighted word list for input joined by Separator.
// Input without a line break is already a flat token list and is returned
// unchanged.
func Expand(input string) string {
	if !strings.Contains(input, "\n") {
		return input
	}
	return strings.Join(Parse(input), Separator)
}

// Parse reads one "word, count" pair per line and repeats each word count
// times, in line order, up to MaxTokens. Lines that do not have that shape
// are skipped.
// Input without a line break yields its comma-separated tokens as they are.
func Parse(input string) []string {
	if input == "" {
		return nil
	}
	if !strings.Contains(input, "\n") {
		return strings.Split(input, Separator)
	}
	var out []string
	for _, line := range strings.Split(input, "\n") {
		word, count, ok := parseLine(line)
		if !ok || count > MaxTokens {
			continue
		}
		for i := 0; i < count && len(out) < MaxTokens; i++ {
			out = append(out, word)
		}
		if len(out) == MaxTokens {
			break
		}
	}
	return out
}

// Count returns how many tokens the input describes without expanding it.
// Counting stops once MaxTokens is exceeded, so the result never goes
// beyond MaxTokens+1.
func Count(input string) int {
	if input == "" {
		return 0
	}
	if !strings.Contains(input, "\n") {
		return min(strings.Count(input, Separator)+1, MaxTokens+1)
	}
	total := 0
	for _, line := range strings.Split(input, "\n") {
		_, count, ok := parseLine(line)
		if !ok {
			continue
		}
		if count > MaxTokens-total {
			return MaxTokens + 1
		}
		total += count
	}
	return total
}

func parseLine(line string) (string, int, bool) {
	rawWord, rawCount, found := strings.Cut(line, ",")
	if !found {
		return "", 0, false
	}
	word := strings.TrimSpace(rawWord)
	word = strings.TrimSuffix(word, ".")
	if word == "" {
		return "", 0, false
	}
	count, err := strconv.Atoi(strings.TrimSpace(rawCount))
	if err != nil || count < 0 {
		return "", 0, false
	}
	return word, count, true
}
