package search

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// Document is one retrieved web result with its extracted main content.
// Documents are never persisted; they only feed the auxiliary context block.
type Document struct {
	Title   string
	Link    string
	Snippet string
	Content string
}

// Searcher is the external search collaborator contract. Content extraction
// failures silently reduce the result count.
type Searcher interface {
	Search(ctx context.Context, query string, maxResults int) ([]Document, error)
}

// DuckDuckGoSearcher queries the DuckDuckGo HTML endpoint and extracts the
// main content of each hit.
type DuckDuckGoSearcher struct {
	client    *http.Client
	endpoint  string
	extractor *Extractor
}

func NewDuckDuckGoSearcher() *DuckDuckGoSearcher {
	client := &http.Client{Timeout: 30 * time.Second}
	return &DuckDuckGoSearcher{
		client:    client,
		endpoint:  "https://html.duckduckgo.com/html/",
		extractor: NewExtractor(client),
	}
}

func (s *DuckDuckGoSearcher) Search(ctx context.Context, query string, maxResults int) ([]Document, error) {
	if maxResults <= 0 {
		maxResults = 5
	}

	// Quote the query to bias toward exact phrase matches
	form := url.Values{"q": {fmt.Sprintf("%q", query)}}
	req, err := http.NewRequestWithContext(ctx, "POST", s.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; ai-chat-be/1.0)")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search error: status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse results: %w", err)
	}

	var results []Document
	doc.Find(".result").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if len(results) >= maxResults {
			return false
		}

		anchor := sel.Find(".result__a").First()
		href, ok := anchor.Attr("href")
		if !ok {
			return true
		}

		link := resolveRedirect(href)
		if !isValidURL(link) {
			return true
		}

		// Extract main content; skip hits whose page yields nothing useful
		content, err := s.extractor.Extract(ctx, link)
		if err != nil || content == "" {
			return true
		}

		results = append(results, Document{
			Title:   strings.TrimSpace(anchor.Text()),
			Link:    link,
			Snippet: strings.TrimSpace(sel.Find(".result__snippet").Text()),
			Content: content,
		})
		return true
	})

	return results, nil
}

// resolveRedirect unwraps DuckDuckGo's /l/?uddg= redirect links.
func resolveRedirect(href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if target := u.Query().Get("uddg"); target != "" {
		return target
	}
	if u.Scheme == "" {
		return "https:" + href
	}
	return href
}
