package embedding

import (
	"context"
	"log"

	"ai-chat-be/pkg/translate"
)

// Service wraps a provider with optional pre-embedding translation.
type Service struct {
	provider   EmbeddingProvider
	translator translate.Translator
	logger     *log.Logger
}

func NewService(provider EmbeddingProvider, translator translate.Translator, logger *log.Logger) *Service {
	return &Service{
		provider:   provider,
		translator: translator,
		logger:     logger,
	}
}

// Embed generates the embedding vector for text. When translate is true the
// text is first translated into English; translation failure is non-fatal
// and the original text is embedded instead. A failure of the embedding call
// itself wraps ErrUnavailable.
func (s *Service) Embed(ctx context.Context, text string, translateFirst bool) ([]float32, error) {
	input := text
	if translateFirst && s.translator != nil {
		translated, err := s.translator.Translate(ctx, text)
		if err != nil {
			s.logger.Printf("[WARN] translation failed, embedding original text: %v", err)
		} else {
			input = translated
		}
	}

	return s.provider.Generate(ctx, input)
}
