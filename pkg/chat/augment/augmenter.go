package augment

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"ai-chat-be/internal/constant"
	"ai-chat-be/pkg/llm"
	"ai-chat-be/pkg/search"

	gocache "github.com/patrickmn/go-cache"
)

// Augmenter retrieves web context for a chat turn. The pre-call pass runs
// speculatively on every turn (avoiding a serial ask-detect-search-ask round
// trip in the common case); the reactive pass is the correctness backstop
// for prompts whose knowledge gap only shows in the model's own answer.
type Augmenter struct {
	llmProvider llm.LLMProvider
	searcher    search.Searcher
	queryModel  string
	maxResults  int
	patterns    []*regexp.Regexp
	cache       *gocache.Cache
	logger      *log.Logger
}

func NewAugmenter(
	llmProvider llm.LLMProvider,
	searcher search.Searcher,
	queryModel string,
	maxResults int,
	patterns []string,
	logger *log.Logger,
) *Augmenter {
	if maxResults <= 0 {
		maxResults = 3
	}
	if len(patterns) == 0 {
		patterns = constant.NeedMoreInfoPatterns
	}

	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			logger.Printf("[WARN] skipping invalid knowledge-gap pattern %q: %v", p, err)
			continue
		}
		compiled = append(compiled, re)
	}

	return &Augmenter{
		llmProvider: llmProvider,
		searcher:    searcher,
		queryModel:  queryModel,
		maxResults:  maxResults,
		patterns:    compiled,
		cache:       gocache.New(10*time.Minute, 30*time.Minute),
		logger:      logger,
	}
}

// BuildSearchContext is the pre-call pass: synthesize a short English query
// from the raw prompt, search, and format the results into an auxiliary
// block. Every failure degrades to an empty block; this never aborts the
// chat turn.
func (a *Augmenter) BuildSearchContext(ctx context.Context, prompt string) string {
	if cached, found := a.cache.Get(prompt); found {
		return cached.(string)
	}

	query, err := a.synthesizeQuery(ctx, prompt)
	if err != nil {
		a.logger.Printf("[WARN] search query generation failed: %v", err)
		return ""
	}

	results, err := a.searcher.Search(ctx, query, a.maxResults)
	if err != nil {
		a.logger.Printf("[WARN] search failed for query %q: %v", query, err)
		return ""
	}
	if len(results) == 0 {
		return ""
	}

	var block strings.Builder
	block.WriteString(constant.SearchContextHeader)
	for idx, result := range results {
		title := result.Title
		if title == "" {
			title = "Không có tiêu đề"
		}
		block.WriteString(fmt.Sprintf("%d. %s\nNguồn: %s\n%s...\n\n", idx+1, title, result.Link, result.Content))
	}

	out := block.String()
	a.cache.Set(prompt, out, gocache.DefaultExpiration)
	return out
}

func (a *Augmenter) synthesizeQuery(ctx context.Context, prompt string) (string, error) {
	opts := []llm.Option{llm.WithTemperature(0.1)}
	if a.queryModel != "" {
		opts = append(opts, llm.WithModel(a.queryModel))
	}

	query, err := a.llmProvider.Generate(ctx, fmt.Sprintf(constant.SearchQueryPrompt, prompt), opts...)
	if err != nil {
		return "", err
	}

	query = strings.TrimSpace(query)
	if query == "" {
		return "", fmt.Errorf("empty query from model")
	}
	return query, nil
}

// NeedsMoreInfo reports whether the probe response signals insufficient
// knowledge.
func (a *Augmenter) NeedsMoreInfo(response string) bool {
	lowered := strings.ToLower(response)
	for _, re := range a.patterns {
		if re.MatchString(lowered) {
			return true
		}
	}
	return false
}

// BuildAdditionalContext is the reactive pass: search with the raw prompt
// (no query synthesis this time) and format the hits. Returns ok=false when
// nothing useful came back; like the pre-call pass this is never fatal.
func (a *Augmenter) BuildAdditionalContext(ctx context.Context, prompt string) (string, bool) {
	results, err := a.searcher.Search(ctx, prompt, a.maxResults)
	if err != nil {
		a.logger.Printf("[WARN] reactive search failed: %v", err)
		return "", false
	}
	if len(results) == 0 {
		return "", false
	}

	var block strings.Builder
	block.WriteString(constant.AdditionalContextHeader)
	for idx, result := range results {
		content := result.Content
		if runes := []rune(content); len(runes) > 500 {
			content = string(runes[:500])
		}
		block.WriteString(fmt.Sprintf("%d. %s\n%s...\n\n", idx+1, result.Title, content))
	}
	return block.String(), true
}
