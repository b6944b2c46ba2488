// Package tokenizer approximates prompt sizes without a model-specific vocabulary.
package tokenizer

import "strings"

// Estimate returns a rough token count for text: the mean of a per-word
// (1.3 tokens) and a per-character (4 chars) estimate, and at least 1 for
// non-empty text.
func Estimate(text string) int {
	if text == "" {
		return 0
	}
	words := float64(len(strings.Fields(text))) * 1.3
	chars := float64(len(text)) / 4
	n := int((words + chars) / 2)
	if n < 1 {
		return 1
	}
	return n
}

// Fit reports how many leading items fit within budget tokens. Each item is
// charged one extra token for the line break that joins it.
func Fit(items []string, budget int) int {
	used := 0
	for i, item := range items {
		used += Estimate(item) + 1
		if used > budget {
			return i
		}
	}
	return len(items)
}
