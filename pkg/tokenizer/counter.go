package tokenizer

import (
	"log"

	"github.com/pkoukk/tiktoken-go"
)

// Counter estimates token cost of text for the target model family.
// Pure and deterministic: same text always yields the same count.
type Counter struct {
	encoding *tiktoken.Tiktoken
}

// NewCounter loads the cl100k_base encoding (the gpt-3.5 family tokenizer).
// If the encoding cannot be loaded a character-ratio fallback is used so
// counting keeps working offline.
func NewCounter() *Counter {
	enc, err := tiktoken.GetEncoding(tiktoken.MODEL_CL100K_BASE)
	if err != nil {
		log.Printf("[WARN] tiktoken encoding unavailable, using char heuristic: %v", err)
		return &Counter{}
	}
	return &Counter{encoding: enc}
}

// Count returns the estimated token count of text. Empty string yields 0.
func (c *Counter) Count(text string) int {
	if text == "" {
		return 0
	}
	if c.encoding != nil {
		return len(c.encoding.Encode(text, nil, nil))
	}
	// Rough approximation: 1 token per 4 characters
	n := len(text) / 4
	if n == 0 {
		n = 1
	}
	return n
}
