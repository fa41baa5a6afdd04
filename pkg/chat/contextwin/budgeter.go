package contextwin

import (
	"log"

	"ai-chat-be/internal/entity"
	"ai-chat-be/pkg/chat/similarity"
)

// TokenCounter abstracts the tokenizer so budget decisions stay testable
// with fixed costs.
type TokenCounter interface {
	Count(text string) int
}

// Budgeter decides which prior turns fit one inference call.
//
// Policy is the deliberate two-tier cutoff: when the whole candidate pool
// fits under the token ceiling, everything is included in recency order;
// otherwise the pool is ranked by similarity to the prompt and only the
// fixed top-K survive. This is a discrete cutoff, not a bin-packing fill —
// the dynamic "keep adding until the budget is exhausted" variant was
// considered and rejected to keep parity with the deployed behavior.
type Budgeter struct {
	counter      TokenCounter
	tokenCeiling int
	topK         int
	logger       *log.Logger
}

func NewBudgeter(counter TokenCounter, tokenCeiling, topK int, logger *log.Logger) *Budgeter {
	if tokenCeiling <= 0 {
		tokenCeiling = 32000
	}
	if topK <= 0 {
		topK = 10
	}
	return &Budgeter{
		counter:      counter,
		tokenCeiling: tokenCeiling,
		topK:         topK,
		logger:       logger,
	}
}

// Select takes the candidate pool ordered newest-first (already cut to the
// recency limit by the store read) and returns the turns to include,
// ordered oldest-first. promptVec is the embedding of the in-flight prompt;
// it is only consulted when the pool overflows the ceiling.
func (b *Budgeter) Select(history []*entity.Turn, promptVec []float32) []*entity.Turn {
	totalTokens := 0
	for _, turn := range history {
		totalTokens += b.counter.Count(turn.Content)
	}

	if totalTokens <= b.tokenCeiling {
		return chronological(history, nil)
	}

	ranked := similarity.Rank(promptVec, history)
	if len(ranked) > b.topK {
		ranked = ranked[:b.topK]
	}

	kept := make(map[*entity.Turn]bool, len(ranked))
	for _, r := range ranked {
		kept[r.Turn] = true
	}

	b.logger.Printf("[BUDGET] pool of %d turns (%d tokens) over ceiling %d, kept top %d by similarity",
		len(history), totalTokens, b.tokenCeiling, len(kept))

	return chronological(history, kept)
}

// chronological reverses a newest-first slice, optionally filtered to the
// kept set. Walking the original order backwards preserves the store's
// recency ordering exactly.
func chronological(history []*entity.Turn, kept map[*entity.Turn]bool) []*entity.Turn {
	out := make([]*entity.Turn, 0, len(history))
	for i := len(history) - 1; i >= 0; i-- {
		if kept != nil && !kept[history[i]] {
			continue
		}
		out = append(out, history[i])
	}
	return out
}
