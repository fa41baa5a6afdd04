package translate

import (
	"context"
	"fmt"
	"strings"

	"ai-chat-be/pkg/llm"
)

// Translator converts text into canonical English before embedding. The
// embedding model's representation quality is asymmetric across languages,
// so Vietnamese prompts are translated first when possible.
type Translator interface {
	Translate(ctx context.Context, text string) (string, error)
}

const translatePrompt = `Translate the following text to English.
Rules:
- Return ONLY the translation, nothing else
- If the text is already English, return it unchanged
- Do NOT explain, annotate, or add formatting

Text:
%s`

// LLMTranslator performs translation through a dedicated low-temperature
// generation call against the same inference backend.
type LLMTranslator struct {
	provider llm.LLMProvider
	model    string
}

func NewLLMTranslator(provider llm.LLMProvider, model string) *LLMTranslator {
	return &LLMTranslator{
		provider: provider,
		model:    model,
	}
}

func (t *LLMTranslator) Translate(ctx context.Context, text string) (string, error) {
	opts := []llm.Option{llm.WithTemperature(0.1)}
	if t.model != "" {
		opts = append(opts, llm.WithModel(t.model))
	}

	out, err := t.provider.Generate(ctx, fmt.Sprintf(translatePrompt, text), opts...)
	if err != nil {
		return "", fmt.Errorf("translate: %w", err)
	}

	out = strings.TrimSpace(out)
	if out == "" {
		return "", fmt.Errorf("translate: empty result")
	}
	return out, nil
}
