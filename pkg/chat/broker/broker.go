package broker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"ai-chat-be/internal/constant"
	"ai-chat-be/pkg/chat/augment"
	"ai-chat-be/pkg/llm"
)

// ErrInferenceUnavailable marks a probe-time failure of the inference
// backend. It is fatal for the turn and surfaced before any output is sent.
var ErrInferenceUnavailable = errors.New("inference backend unavailable")

// Fragment is one unit of streamed output delivered to the caller. A
// fragment with Err set is always the last one; fragments already delivered
// before it stand.
type Fragment struct {
	Content string
	Err     error
}

// PersistFunc stores the accumulated assistant reply after the stream
// completes. Implementations log their own failures; the stream is never
// reopened on persistence errors.
type PersistFunc func(ctx context.Context, content string)

// Broker drives one chat turn through the probe/stream protocol:
//
//	PROBE -> (AUGMENT?) -> STREAM -> PERSIST -> DONE
//
// The probe is a non-streamed trial call used only to decide whether the
// model needs retrieved context; the streamed call then produces the real
// answer. Probe and stream are sequential within a turn; independent turns
// share nothing and run fully in parallel.
type Broker struct {
	llmProvider llm.LLMProvider
	augmenter   *augment.Augmenter
	logger      *log.Logger
}

func NewBroker(llmProvider llm.LLMProvider, augmenter *augment.Augmenter, logger *log.Logger) *Broker {
	return &Broker{
		llmProvider: llmProvider,
		augmenter:   augmenter,
		logger:      logger,
	}
}

// Run executes the turn. It returns an error only while nothing has been
// streamed yet (probe failure, stream handshake failure); once the fragment
// channel is returned, all later failures arrive inline on the channel.
// rawPrompt is the user's original prompt, used verbatim for the reactive
// search pass. persist runs after the stream finishes cleanly with at least
// one accumulated fragment; it is given a context detached from the
// caller's so a dropped client connection does not cancel it.
func (b *Broker) Run(
	ctx context.Context,
	model string,
	messages []llm.Message,
	rawPrompt string,
	persist PersistFunc,
) (<-chan Fragment, error) {
	// PROBE: non-streamed trial call. Transport errors and non-2xx are both
	// fatal here, not retried; the backend is assumed local.
	probeContent, err := b.llmProvider.Chat(ctx, messages, llm.WithModel(model))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInferenceUnavailable, err)
	}

	// AUGMENT?: check the probe answer for insufficient-knowledge signals
	// and splice retrieved context into the message list when they match.
	if b.augmenter != nil && b.augmenter.NeedsMoreInfo(probeContent) {
		b.logger.Printf("[BROKER] probe signals missing knowledge, running reactive search")
		if block, ok := b.augmenter.BuildAdditionalContext(ctx, rawPrompt); ok {
			messages = append(messages,
				llm.Message{Role: llm.RoleSystem, Content: block},
				llm.Message{Role: llm.RoleUser, Content: constant.AugmentAnswerInstruction},
			)
		}
	}

	// STREAM runs on a detached context: delivery and persistence are
	// decoupled, so the backend stream (and the persist that follows it)
	// outlives a dropped caller connection.
	streamCtx := context.WithoutCancel(ctx)

	chunks, err := b.llmProvider.ChatStream(streamCtx, messages, llm.WithModel(model))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInferenceUnavailable, err)
	}

	out := make(chan Fragment)
	go func() {
		defer close(out)

		var accumulator strings.Builder
		for chunk := range chunks {
			if chunk.Err != nil {
				// Mid-stream failure: surface inline, keep what was already
				// delivered, and persist nothing (never a partial turn).
				b.logger.Printf("[BROKER] stream failed after %d bytes: %v", accumulator.Len(), chunk.Err)
				out <- Fragment{Err: chunk.Err}
				return
			}
			if chunk.Done {
				break
			}
			accumulator.WriteString(chunk.Content)
			out <- Fragment{Content: chunk.Content}
		}

		// PERSIST: only when something was actually produced.
		if accumulator.Len() > 0 && persist != nil {
			persist(streamCtx, accumulator.String())
		}
	}()

	return out, nil
}
