//go:build ignore

// Manual smoke test for the Ollama chat + embedding pipeline.
// Run against a live Ollama instance: go run scripts/test_chat_stream.go
package main

import (
	"context"
	"fmt"
	"time"

	"ai-chat-be/internal/config"
	"ai-chat-be/pkg/chat/similarity"
	"ai-chat-be/pkg/embedding"
	"ai-chat-be/pkg/llm"
	llmOllama "ai-chat-be/pkg/llm/ollama"

	"github.com/fatih/color"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	color.Cyan("🚀 Chat Pipeline Smoke Test\n")

	// 1. Probe
	color.Yellow("\n[1] Probe chat backend (%s, model=%s)", cfg.Ai.OllamaBaseURL, cfg.Ai.ChatModel)
	provider := llmOllama.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.ChatModel, 60*time.Second)

	probe, err := provider.Chat(ctx, []llm.Message{
		{Role: llm.RoleUser, Content: "Trả lời ngắn gọn: 1+1 bằng mấy?"},
	})
	if err != nil {
		color.Red("Probe failed: %v", err)
		return
	}
	color.Green("Probe reply: %s", probe)

	// 2. Stream
	color.Yellow("\n[2] Stream a reply")
	chunks, err := provider.ChatStream(ctx, []llm.Message{
		{Role: llm.RoleUser, Content: "Kể tên ba hành tinh trong hệ mặt trời."},
	})
	if err != nil {
		color.Red("Stream failed: %v", err)
		return
	}
	for chunk := range chunks {
		if chunk.Err != nil {
			color.Red("\nMid-stream error: %v", chunk.Err)
			return
		}
		if chunk.Done {
			break
		}
		fmt.Print(chunk.Content)
	}
	fmt.Println()

	// 3. Embedding similarity sanity check
	color.Yellow("\n[3] Embedding similarity (%s)", cfg.Ai.EmbeddingModel)
	embedder := embedding.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.EmbeddingModel, 30*time.Second)

	texts := []string{
		"The quick brown fox jumps over the lazy dog",
		"A fast brown fox leaps over a sleepy canine",
		"Quantum physics explores the nature of particles",
	}
	vectors := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := embedder.Generate(ctx, t)
		if err != nil {
			color.Red("Embedding failed for %q: %v", t, err)
			return
		}
		vectors[i] = v
		fmt.Printf("Text %d dimensions: %d\n", i+1, len(v))
	}

	simNear, _ := similarity.Cosine(vectors[0], vectors[1])
	simFar, _ := similarity.Cosine(vectors[0], vectors[2])
	color.Green("similar pair:   %.4f", simNear)
	color.Green("unrelated pair: %.4f", simFar)
	if simNear > simFar {
		color.Green("\n✅ Embedding model orders similarity correctly")
	} else {
		color.Red("\n❌ Unexpected ordering, check the embedding model")
	}
}
