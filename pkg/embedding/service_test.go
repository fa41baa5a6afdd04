package embedding

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	lastInput string
	vector    []float32
	err       error
}

func (s *stubProvider) Generate(ctx context.Context, text string) ([]float32, error) {
	s.lastInput = text
	return s.vector, s.err
}

type stubTranslator struct {
	out string
	err error
}

func (s *stubTranslator) Translate(ctx context.Context, text string) (string, error) {
	return s.out, s.err
}

func discardLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func TestEmbed_NoTranslation(t *testing.T) {
	provider := &stubProvider{vector: []float32{0.1, 0.2}}
	svc := NewService(provider, &stubTranslator{out: "unused"}, discardLogger())

	vec, err := svc.Embed(context.Background(), "xin chào", false)
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2}, vec)
	assert.Equal(t, "xin chào", provider.lastInput)
}

func TestEmbed_TranslatesFirst(t *testing.T) {
	provider := &stubProvider{vector: []float32{1}}
	svc := NewService(provider, &stubTranslator{out: "hello"}, discardLogger())

	_, err := svc.Embed(context.Background(), "xin chào", true)
	require.NoError(t, err)
	assert.Equal(t, "hello", provider.lastInput)
}

func TestEmbed_TranslationFailureFallsBackToOriginal(t *testing.T) {
	provider := &stubProvider{vector: []float32{1}}
	svc := NewService(provider, &stubTranslator{err: errors.New("backend down")}, discardLogger())

	vec, err := svc.Embed(context.Background(), "xin chào", true)
	require.NoError(t, err, "translation failure is never fatal")
	assert.Equal(t, []float32{1}, vec)
	assert.Equal(t, "xin chào", provider.lastInput, "original text is embedded instead")
}

func TestEmbed_ProviderFailureSurfaces(t *testing.T) {
	provider := &stubProvider{err: ErrUnavailable}
	svc := NewService(provider, nil, discardLogger())

	_, err := svc.Embed(context.Background(), "text", false)
	assert.ErrorIs(t, err, ErrUnavailable)
}
