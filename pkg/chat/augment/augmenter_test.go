package augment

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-chat-be/pkg/llm"
	"ai-chat-be/pkg/search"
)

type stubLLM struct {
	generated string
	err       error
	calls     int
}

func (s *stubLLM) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	return s.generated, s.err
}

func (s *stubLLM) ChatStream(ctx context.Context, history []llm.Message, opts ...llm.Option) (<-chan llm.StreamChunk, error) {
	return nil, errors.New("not used")
}

func (s *stubLLM) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	s.calls++
	return s.generated, s.err
}

type stubSearcher struct {
	docs  []search.Document
	err   error
	calls int
}

func (s *stubSearcher) Search(ctx context.Context, query string, maxResults int) ([]search.Document, error) {
	s.calls++
	return s.docs, s.err
}

func discardLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func TestNeedsMoreInfo(t *testing.T) {
	a := NewAugmenter(&stubLLM{}, &stubSearcher{}, "", 3, nil, discardLogger())

	cases := []struct {
		response string
		want     bool
	}{
		{"Tôi không có đủ thông tin để trả lời câu hỏi này.", true},
		{"TÔI KHÔNG CHẮC CHẮN về điều đó.", true},
		{"I'm not sure about the latest release.", true},
		{"Let me search for that.", true},
		{"I need more information about your setup.", true},
		{"Thủ đô của Pháp là Paris.", false},
		{"The answer is 42.", false},
		{"", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, a.NeedsMoreInfo(tc.response), "response: %q", tc.response)
	}
}

func TestBuildSearchContext_FormatsResults(t *testing.T) {
	provider := &stubLLM{generated: "go 1.24 release"}
	searcher := &stubSearcher{docs: []search.Document{
		{Title: "Release notes", Link: "https://go.dev/doc/go1.24", Content: "Generic type aliases landed."},
		{Link: "https://example.com", Content: "untitled hit"},
	}}
	a := NewAugmenter(provider, searcher, "", 3, nil, discardLogger())

	block := a.BuildSearchContext(context.Background(), "what's new in go?")
	assert.Contains(t, block, "1. Release notes")
	assert.Contains(t, block, "Nguồn: https://go.dev/doc/go1.24")
	assert.Contains(t, block, "2. Không có tiêu đề")
	assert.Equal(t, 1, provider.calls, "one query synthesis per prompt")
}

func TestBuildSearchContext_CachesPerPrompt(t *testing.T) {
	provider := &stubLLM{generated: "query"}
	searcher := &stubSearcher{docs: []search.Document{{Title: "t", Link: "l", Content: "c"}}}
	a := NewAugmenter(provider, searcher, "", 3, nil, discardLogger())

	first := a.BuildSearchContext(context.Background(), "same prompt")
	second := a.BuildSearchContext(context.Background(), "same prompt")
	assert.Equal(t, first, second)
	assert.Equal(t, 1, searcher.calls, "second call is served from cache")
}

func TestBuildSearchContext_DegradesToEmpty(t *testing.T) {
	t.Run("query synthesis fails", func(t *testing.T) {
		a := NewAugmenter(&stubLLM{err: errors.New("down")}, &stubSearcher{}, "", 3, nil, discardLogger())
		assert.Empty(t, a.BuildSearchContext(context.Background(), "p"))
	})

	t.Run("search fails", func(t *testing.T) {
		a := NewAugmenter(&stubLLM{generated: "q"}, &stubSearcher{err: errors.New("down")}, "", 3, nil, discardLogger())
		assert.Empty(t, a.BuildSearchContext(context.Background(), "p"))
	})

	t.Run("no results", func(t *testing.T) {
		a := NewAugmenter(&stubLLM{generated: "q"}, &stubSearcher{}, "", 3, nil, discardLogger())
		assert.Empty(t, a.BuildSearchContext(context.Background(), "p"))
	})
}

func TestBuildAdditionalContext(t *testing.T) {
	longContent := make([]rune, 0, 900)
	for i := 0; i < 900; i++ {
		longContent = append(longContent, 'ư')
	}
	searcher := &stubSearcher{docs: []search.Document{
		{Title: "Long doc", Link: "l", Content: string(longContent)},
	}}
	a := NewAugmenter(&stubLLM{}, searcher, "", 3, nil, discardLogger())

	block, ok := a.BuildAdditionalContext(context.Background(), "prompt")
	require.True(t, ok)
	assert.Contains(t, block, "1. Long doc")
	assert.Less(t, len([]rune(block)), 700, "content is truncated to 500 runes")
}

func TestBuildAdditionalContext_NotOkWithoutResults(t *testing.T) {
	a := NewAugmenter(&stubLLM{}, &stubSearcher{}, "", 3, nil, discardLogger())
	_, ok := a.BuildAdditionalContext(context.Background(), "prompt")
	assert.False(t, ok)
}
